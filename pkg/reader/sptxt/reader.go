// Package sptxt provides streaming readers for SPTXT (SpectraST) format spectral libraries
package sptxt

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/pepcalc/pkg/core"
	"github.com/ChrisMcGann/pepcalc/pkg/reader"
)

// inlineTolerance bounds the distance between a nominal inline mass delta
// and the modification it is matched to
const inlineTolerance = 0.5

// inlineMod matches "n[43]" or "C[160]" in a SpectraST peptide name
var inlineMod = regexp.MustCompile(`([a-zA-Z]?)\[(\d+(?:\.\d+)?)\]`)

var _ reader.Source = (*Reader)(nil)

// Reader provides streaming access to SPTXT format files
type Reader struct {
	scanner *bufio.Scanner
	modDB   *core.ModDatabase
	lineNum int
	current *reader.Entry
	err     error
}

// NewReader creates a new SPTXT reader
func NewReader(r io.Reader, modDB *core.ModDatabase) *Reader {
	if modDB == nil {
		modDB = core.DefaultModDatabase()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	return &Reader{
		scanner: scanner,
		modDB:   modDB,
	}
}

// Next advances to the next entry. Returns false when no more entries or error.
func (r *Reader) Next() bool {
	r.current = nil

	entry, err := r.readEntry()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.current = entry
	return true
}

// Entry returns the current entry
func (r *Reader) Entry() *reader.Entry {
	return r.current
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// readEntry reads a single entry; an entry ends after NumPeaks peak lines
func (r *Reader) readEntry() (*reader.Entry, error) {
	var entry *reader.Entry
	var inlineMods map[int]float64
	commentMods := false
	numPeaks := 0
	inPeaks := false

scan:
	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())

		// Skip comments and empty lines
		if line == "" || strings.HasPrefix(line, "###") {
			continue
		}

		if inPeaks {
			peak, err := parsePeak(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			entry.Peaks = append(entry.Peaks, peak)
			if len(entry.Peaks) >= numPeaks {
				break scan
			}
			continue
		}

		if strings.HasPrefix(line, "Name:") {
			if entry != nil {
				return nil, fmt.Errorf("line %d: entry %s has no NumPeaks", r.lineNum, entry.Name())
			}
			entry = &reader.Entry{SourceFormat: "sptxt"}
			mods, err := r.parseName(entry, strings.TrimSpace(strings.TrimPrefix(line, "Name:")))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			inlineMods = mods
			continue
		}
		if entry == nil {
			return nil, fmt.Errorf("line %d: expected 'Name:' field, got '%s'", r.lineNum, line)
		}

		switch {
		case strings.HasPrefix(line, "PrecursorMZ:"):
			if mz, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(line, "PrecursorMZ:")), 64); err == nil {
				entry.PrecursorMZ = mz
			}
		case strings.HasPrefix(line, "Comment:"):
			found, err := r.parseComment(entry, strings.TrimPrefix(line, "Comment:"))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			commentMods = commentMods || found
		case strings.HasPrefix(line, "NumPeaks:"):
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "NumPeaks:")))
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid num peaks: %w", r.lineNum, err)
			}
			if n == 0 {
				break scan
			}
			numPeaks = n
			inPeaks = true
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, io.EOF
	}
	if len(entry.Peaks) != numPeaks {
		return nil, fmt.Errorf("entry %s: expected %d peaks, read %d", entry.Name(), numPeaks, len(entry.Peaks))
	}

	// Mods= names resolve exactly, inline masses only to the nearest nominal match
	if !commentMods {
		entry.Modifications = inlineMods
	}
	return entry, nil
}

// parseName extracts sequence, charge, and inline modifications from Name field
// Format: "n[305]AAAAQDEITGDGTTTVVC[160]LVGELLR/3"
func (r *Reader) parseName(entry *reader.Entry, name string) (map[int]float64, error) {
	idx := strings.LastIndex(name, "/")
	if idx < 0 {
		return nil, fmt.Errorf("invalid name format '%s', expected 'SEQUENCE/CHARGE'", name)
	}

	charge, err := strconv.Atoi(strings.TrimSpace(name[idx+1:]))
	if err != nil {
		return nil, fmt.Errorf("invalid charge in name '%s': %w", name, err)
	}
	entry.Charge = charge

	sequence, mods, err := r.parseInlineModifications(name[:idx])
	if err != nil {
		return nil, fmt.Errorf("failed to parse modifications from sequence: %w", err)
	}
	entry.Sequence = sequence

	return mods, nil
}

// parseInlineModifications strips "X[mass]" tags, where mass is the nominal
// mass of the modified residue (or of the N-terminal group for "n[mass]"),
// and maps each to the nearest known modification.
func (r *Reader) parseInlineModifications(rawSeq string) (string, map[int]float64, error) {
	var sequence strings.Builder
	mods := make(map[int]float64)

	lastIdx := 0
	for _, match := range inlineMod.FindAllStringSubmatchIndex(rawSeq, -1) {
		sequence.WriteString(rawSeq[lastIdx:match[0]])

		aa := rawSeq[match[2]:match[3]]
		massStr := rawSeq[match[4]:match[5]]
		nominal, err := strconv.ParseFloat(massStr, 64)
		if err != nil {
			return "", nil, fmt.Errorf("invalid modification mass '%s': %w", massStr, err)
		}

		var base float64
		if aa == "n" || aa == "" {
			base = core.MassH
		} else {
			res, ok := core.StandardResidues.Residue(aa[0])
			if !ok {
				return "", nil, fmt.Errorf("unknown modified residue '%s'", aa)
			}
			base = res.Mass
			sequence.WriteString(aa)
		}

		delta := nominal - base
		if _, mass, ok := r.modDB.Nearest(delta, inlineTolerance); ok {
			delta = mass
		}
		// N-terminal groups attach to the first residue
		pos := sequence.Len()
		if pos == 0 {
			pos = 1
		}
		mods[pos] += delta

		lastIdx = match[1]
	}

	sequence.WriteString(rawSeq[lastIdx:])

	return sequence.String(), mods, nil
}

// parseComment extracts metadata from Comment field and reports whether it
// carried a Mods= field
func (r *Reader) parseComment(entry *reader.Entry, comment string) (bool, error) {
	found := false
	for _, field := range strings.Fields(comment) {
		parts := strings.SplitN(field, "=", 2)
		if len(parts) != 2 {
			continue
		}

		switch parts[0] {
		case "Parent":
			if mz, err := strconv.ParseFloat(parts[1], 64); err == nil && entry.PrecursorMZ == 0 {
				entry.PrecursorMZ = mz
			}
		case "Protein":
			// "1/sp|P02769|ALBU_BOVIN" carries a protein count prefix
			protein := parts[1]
			if i := strings.Index(protein, "/"); i > 0 {
				if _, err := strconv.Atoi(protein[:i]); err == nil {
					protein = protein[i+1:]
				}
			}
			entry.Protein = strings.Trim(protein, "\"")
		case "Mods":
			mods, err := r.parseMods(parts[1])
			if err != nil {
				return false, err
			}
			if mods != nil {
				entry.Modifications = mods
				found = true
			}
		}
	}
	return found, nil
}

// parseMods parses "2/-1,A,iTRAQ8plex/17,C,Carbamidomethyl" (0-based
// positions, -1 for the N-terminus). "0" means unmodified and yields nil.
func (r *Reader) parseMods(modsStr string) (map[int]float64, error) {
	groups := strings.Split(modsStr, "/")
	count, err := strconv.Atoi(groups[0])
	if err != nil {
		return nil, fmt.Errorf("invalid mods count in '%s': %w", modsStr, err)
	}
	if count == 0 {
		return nil, nil
	}
	if count != len(groups)-1 {
		return nil, fmt.Errorf("mods '%s' declares %d modifications, found %d", modsStr, count, len(groups)-1)
	}

	mods := make(map[int]float64)
	for _, group := range groups[1:] {
		fields := strings.Split(group, ",")
		if len(fields) != 3 {
			return nil, fmt.Errorf("invalid modification '%s', expected 'pos,AA,Name'", group)
		}

		pos, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("invalid modification position '%s': %w", fields[0], err)
		}
		if pos < 0 {
			pos = 0
		}

		mass, err := r.modDB.Resolve(fields[2])
		if err != nil {
			return nil, err
		}
		mods[pos+1] += mass
	}
	return mods, nil
}

// parsePeak parses a single peak line
// Format: "mz\tintensity\tannotation\t..."
func parsePeak(line string) (reader.Peak, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return reader.Peak{}, fmt.Errorf("invalid peak format, expected at least 2 fields")
	}

	mz, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return reader.Peak{}, fmt.Errorf("invalid m/z value: %w", err)
	}

	intensity, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return reader.Peak{}, fmt.Errorf("invalid intensity value: %w", err)
	}

	peak := reader.Peak{
		MZ:        mz,
		Intensity: intensity,
	}

	if len(fields) >= 3 {
		// keep the first interpretation, drop mass error info ("y3/0.5ppm")
		annotation := strings.SplitN(fields[2], ",", 2)[0]
		if idx := strings.Index(annotation, "/"); idx > 0 {
			annotation = annotation[:idx]
		}
		if annotation != "?" {
			peak.Annotation = annotation
		}
	}

	return peak, nil
}
