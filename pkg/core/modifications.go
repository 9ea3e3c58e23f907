// Package core provides modification parsing and management
package core

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ModDatabase maps modification names to monoisotopic mass shifts
type ModDatabase struct {
	mods map[string]float64
}

// NewModDatabase creates an empty modification database
func NewModDatabase() *ModDatabase {
	return &ModDatabase{
		mods: make(map[string]float64),
	}
}

// LoadFromCSV loads modifications from a CSV file with a header line
// (format: mod,massshift[,aa])
func (db *ModDatabase) LoadFromCSV(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if lineNum == 1 || line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			return fmt.Errorf("line %d: invalid format, expected at least 2 comma-separated fields", lineNum)
		}

		name := strings.TrimSpace(parts[0])
		massStr := strings.TrimSpace(parts[1])
		mass, err := strconv.ParseFloat(massStr, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid mass value '%s': %w", lineNum, massStr, err)
		}

		db.mods[name] = mass
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading CSV: %w", err)
	}

	return nil
}

// GetMass returns the mass shift for a modification name
func (db *ModDatabase) GetMass(name string) (float64, bool) {
	mass, ok := db.mods[name]
	return mass, ok
}

// Add adds or updates a modification
func (db *ModDatabase) Add(name string, mass float64) {
	db.mods[name] = mass
}

// Names returns the known modification names in sorted order.
func (db *ModDatabase) Names() []string {
	names := make([]string, 0, len(db.mods))
	for name := range db.mods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Nearest returns the known modification closest to mass, if one lies
// within tolerance. Ties go to the alphabetically first name.
func (db *ModDatabase) Nearest(mass, tolerance float64) (string, float64, bool) {
	best := ""
	bestDiff := tolerance
	for _, name := range db.Names() {
		diff := math.Abs(db.mods[name] - mass)
		if diff <= bestDiff && (best == "" || diff < bestDiff) {
			best, bestDiff = name, diff
		}
	}
	if best == "" {
		return "", 0, false
	}
	return best, db.mods[best], true
}

// Resolve returns the mass of nameOrMass, which is either a literal mass
// ("15.994915") or a name known to db ("Oxidation").
func (db *ModDatabase) Resolve(nameOrMass string) (float64, error) {
	if mass, err := strconv.ParseFloat(nameOrMass, 64); err == nil {
		return mass, nil
	}
	mass, ok := db.GetMass(nameOrMass)
	if !ok {
		return 0, fmt.Errorf("unknown modification '%s'", nameOrMass)
	}
	return mass, nil
}

// ParseModString parses "Oxidation@M9;57.021464@3" into 1-based residue
// positions of sequence. Mass shifts at the same position are summed.
// An N-terminal position ("0", "-1", "n") attaches to the first residue.
func (db *ModDatabase) ParseModString(modStr string, sequence string) (map[int]float64, error) {
	mods := make(map[int]float64)
	if strings.TrimSpace(modStr) == "" {
		return mods, nil
	}

	for _, part := range strings.Split(modStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		atParts := strings.Split(part, "@")
		if len(atParts) != 2 {
			return nil, fmt.Errorf("invalid modification format '%s', expected 'name@position' or 'mass@position'", part)
		}

		mass, err := db.Resolve(strings.TrimSpace(atParts[0]))
		if err != nil {
			return nil, err
		}

		position, err := parsePosition(atParts[1], sequence)
		if err != nil {
			return nil, fmt.Errorf("invalid position '%s': %w", atParts[1], err)
		}

		mods[position] += mass
	}

	return mods, nil
}

// parsePosition parses "9", "M9", "n" or "0" into a 1-based residue position
// and checks an optional residue letter against sequence.
func parsePosition(posStr string, sequence string) (int, error) {
	posStr = strings.TrimSpace(posStr)
	switch strings.ToLower(posStr) {
	case "n", "0", "-1":
		if sequence == "" {
			return 0, fmt.Errorf("empty sequence")
		}
		return 1, nil
	}

	digits := strings.TrimLeft(posStr, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	aa := posStr[:len(posStr)-len(digits)]

	pos, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("invalid position number: %w", err)
	}
	if pos < 1 || pos > len(sequence) {
		return 0, fmt.Errorf("position %d outside sequence of length %d", pos, len(sequence))
	}
	if len(aa) == 1 && sequence[pos-1] != aa[0] {
		return 0, fmt.Errorf("residue %c at position %d, not %s", sequence[pos-1], pos, aa)
	}

	return pos, nil
}

// DefaultModDatabase returns a ModDatabase pre-loaded with common modifications
func DefaultModDatabase() *ModDatabase {
	db := NewModDatabase()

	// unimod monoisotopic deltas
	for name, mass := range map[string]float64{
		"Acetyl":          42.010565,
		"Amidated":        -0.984016,
		"Carbamidomethyl": 57.021464,
		"Carbamyl":        43.005814,
		"Deamidated":      0.984016,
		"Dimethyl":        28.0313,
		"Gln->pyro-Glu":   -17.026549,
		"Glu->pyro-Glu":   -18.010565,
		"GlyGly":          114.042927,
		"HexNAc":          203.079373,
		"iTRAQ4plex":      144.102063,
		"iTRAQ8plex":      304.205360,
		"Methyl":          14.01565,
		"Oxidation":       15.994915,
		"Phospho":         MassH + MassP + 3*MassO,
		"Propionamide":    71.037114,
		"TMT":             229.162932,
		"TMT6plex":        229.162932,
		"TMTPro":          304.207146,
		"Trimethyl":       42.04695,
	} {
		db.Add(name, mass)
	}

	return db
}
