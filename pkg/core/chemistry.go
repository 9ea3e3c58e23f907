// Package core provides chemistry calculations for peptide mass calculations
package core

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Atomic masses (monoisotopic)
const (
	MassH = 1.007825032
	MassC = 12.0000000
	MassN = 14.00307401
	MassO = 15.99491462
	MassS = 31.97207069
	MassP = 30.97376151

	// Heavy isotopes used by the labeling schemes
	MassN15 = 15.0001089
	MassC13 = 13.003355

	// Proton mass for charge calculations
	ProtonMass = 1.0072765
)

// Derived group masses
const (
	MassH2O = 2*MassH + MassO
	MassNH3 = MassN + 3*MassH
	MassCO2 = MassC + 2*MassO
	MassCO  = MassC + MassO

	MassShiftN15 = MassN15 - MassN
	MassShiftC13 = MassC13 - MassC
)

// ElementMasses maps element symbols to monoisotopic masses
var ElementMasses = map[string]float64{
	"H": MassH,
	"C": MassC,
	"N": MassN,
	"O": MassO,
	"S": MassS,
	"P": MassP,
}

// Composition maps element symbols to atom counts.
type Composition map[string]int

// Add accumulates other into c.
func (c Composition) Add(other Composition) {
	for elem, n := range other {
		c[elem] += n
	}
}

// Count returns the number of atoms of elem.
func (c Composition) Count(elem string) int {
	return c[elem]
}

// Mass returns the monoisotopic mass of the composition. Elements without a
// tabulated mass are ignored.
func (c Composition) Mass() float64 {
	mass := 0.0
	for elem, n := range c {
		mass += float64(n) * ElementMasses[elem]
	}
	return mass
}

// String formats the composition as a formula, C and H first, e.g. "C5H9NOS".
func (c Composition) String() string {
	var others []string
	for elem := range c {
		switch elem {
		case "C", "H", "N", "O", "S":
		default:
			others = append(others, elem)
		}
	}
	sort.Strings(others)

	var b strings.Builder
	for _, elem := range append([]string{"C", "H", "N", "O", "S"}, others...) {
		n := c[elem]
		if n == 0 {
			continue
		}
		b.WriteString(elem)
		if n != 1 {
			fmt.Fprintf(&b, "%d", n)
		}
	}
	return b.String()
}

// Residue is a single amino acid entry of a residue table.
type Residue struct {
	Code        byte
	Name        string
	Composition Composition
	Mass        float64 // monoisotopic delta (residue) mass
}

// ResidueTable is a read-only lookup of residues by one-letter code.
type ResidueTable interface {
	Residue(code byte) (Residue, bool)
	Codes() []byte
}

// ResidueMap is a ResidueTable backed by a map.
type ResidueMap map[byte]Residue

// Residue returns the entry for code.
func (m ResidueMap) Residue(code byte) (Residue, bool) {
	r, ok := m[code]
	return r, ok
}

// Codes returns the residue codes in ascending order.
func (m ResidueMap) Codes() []byte {
	codes := make([]byte, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

func newResidue(code byte, name string, c, h, n, o, s int) Residue {
	comp := Composition{"C": c, "H": h, "N": n, "O": o}
	if s > 0 {
		comp["S"] = s
	}
	return Residue{
		Code:        code,
		Name:        name,
		Composition: comp,
		Mass:        comp.Mass(),
	}
}

// StandardResidues holds the 20 proteinogenic amino acids
var StandardResidues = ResidueMap{
	'A': newResidue('A', "Alanine", 3, 5, 1, 1, 0),
	'R': newResidue('R', "Arginine", 6, 12, 4, 1, 0),
	'N': newResidue('N', "Asparagine", 4, 6, 2, 2, 0),
	'D': newResidue('D', "Aspartic acid", 4, 5, 1, 3, 0),
	'C': newResidue('C', "Cysteine", 3, 5, 1, 1, 1),
	'E': newResidue('E', "Glutamic acid", 5, 7, 1, 3, 0),
	'Q': newResidue('Q', "Glutamine", 5, 8, 2, 2, 0),
	'G': newResidue('G', "Glycine", 2, 3, 1, 1, 0),
	'H': newResidue('H', "Histidine", 6, 7, 3, 1, 0),
	'I': newResidue('I', "Isoleucine", 6, 11, 1, 1, 0),
	'L': newResidue('L', "Leucine", 6, 11, 1, 1, 0),
	'K': newResidue('K', "Lysine", 6, 12, 2, 1, 0),
	'M': newResidue('M', "Methionine", 5, 9, 1, 1, 1),
	'F': newResidue('F', "Phenylalanine", 9, 9, 1, 1, 0),
	'P': newResidue('P', "Proline", 5, 7, 1, 1, 0),
	'S': newResidue('S', "Serine", 3, 5, 1, 2, 0),
	'T': newResidue('T', "Threonine", 4, 7, 1, 2, 0),
	'W': newResidue('W', "Tryptophan", 11, 10, 2, 1, 0),
	'Y': newResidue('Y', "Tyrosine", 9, 9, 1, 2, 0),
	'V': newResidue('V', "Valine", 5, 9, 1, 1, 0),
}

// Calculator sums residue compositions and masses over sequences.
type Calculator struct {
	Table ResidueTable

	// IgnoreUnknown skips residues missing from Table instead of failing.
	IgnoreUnknown bool
}

// NewCalculator returns a strict Calculator over table, or over
// StandardResidues when table is nil.
func NewCalculator(table ResidueTable) Calculator {
	if table == nil {
		table = StandardResidues
	}
	return Calculator{Table: table}
}

func (c Calculator) lookup(seq string, i int) (Residue, bool, error) {
	r, ok := c.Table.Residue(seq[i])
	if ok {
		return r, true, nil
	}
	if c.IgnoreUnknown {
		return Residue{}, false, nil
	}
	return Residue{}, false, &UnknownResidueError{Residue: seq[i], Position: i + 1}
}

// CompositionOf returns the summed elemental composition of seq.
func (c Calculator) CompositionOf(seq string) (Composition, error) {
	comp := Composition{}
	for i := 0; i < len(seq); i++ {
		r, ok, err := c.lookup(seq, i)
		if err != nil {
			return nil, err
		}
		if ok {
			comp.Add(r.Composition)
		}
	}
	return comp, nil
}

// DeltaMassOf returns the summed residue delta masses of seq.
func (c Calculator) DeltaMassOf(seq string) (float64, error) {
	mass := 0.0
	for i := 0; i < len(seq); i++ {
		r, ok, err := c.lookup(seq, i)
		if err != nil {
			return 0, err
		}
		if ok {
			mass += r.Mass
		}
	}
	return mass, nil
}

// Validate reports the first residue of seq missing from the table.
func (c Calculator) Validate(seq string) error {
	if c.IgnoreUnknown {
		return nil
	}
	for i := 0; i < len(seq); i++ {
		if _, _, err := c.lookup(seq, i); err != nil {
			return err
		}
	}
	return nil
}

// MZ converts a neutral mass to m/z at the given charge.
func MZ(neutralMass float64, charge int) float64 {
	return (neutralMass + float64(charge)*ProtonMass) / float64(charge)
}

// RoundFloat rounds a float to n decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
