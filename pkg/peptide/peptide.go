// Package peptide models peptide sequences with positional modifications and
// computes their masses, precursor and fragment ion m/z and decoy fragments.
package peptide

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ChrisMcGann/pepcalc/pkg/core"
)

// Residue is one position of a peptide. A modification travels with its
// residue when the sequence is reversed or shuffled.
type Residue struct {
	Code     byte
	Mod      float64 // modification delta mass, valid when Modified
	Modified bool
}

// Peptide is a residue sequence with optional modifications.
//
// A Peptide is not safe for concurrent use: ReverseInPlace, ShuffleInPlace
// and GenerateDecoy rewrite the residue order.
type Peptide struct {
	residues []Residue
	calc     core.Calculator
	protein  string
}

// InvalidModificationError is returned for modification positions outside
// the sequence.
type InvalidModificationError struct {
	Position int
	Length   int
}

func (e *InvalidModificationError) Error() string {
	return fmt.Sprintf("modification position %d outside sequence of length %d", e.Position, e.Length)
}

// Option configures New.
type Option func(*Peptide)

// WithResidueTable replaces the standard residue table.
func WithResidueTable(table core.ResidueTable) Option {
	return func(p *Peptide) {
		p.calc.Table = table
	}
}

// WithUnknownResiduesIgnored makes residues missing from the table
// contribute neither mass nor composition instead of failing.
func WithUnknownResiduesIgnored() Option {
	return func(p *Peptide) {
		p.calc.IgnoreUnknown = true
	}
}

// WithProtein records the protein the peptide was derived from.
func WithProtein(protein string) Option {
	return func(p *Peptide) {
		p.protein = protein
	}
}

// New creates a peptide from a one-letter sequence and a map of 1-based
// residue positions to modification delta masses.
func New(sequence string, mods map[int]float64, opts ...Option) (*Peptide, error) {
	if sequence == "" {
		return nil, fmt.Errorf("empty peptide sequence")
	}

	p := &Peptide{calc: core.NewCalculator(nil)}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.calc.Validate(sequence); err != nil {
		return nil, err
	}

	p.residues = make([]Residue, len(sequence))
	for i := 0; i < len(sequence); i++ {
		p.residues[i].Code = sequence[i]
	}
	for pos, delta := range mods {
		if pos < 1 || pos > len(sequence) {
			return nil, &InvalidModificationError{Position: pos, Length: len(sequence)}
		}
		r := &p.residues[pos-1]
		r.Mod += delta
		r.Modified = true
	}

	return p, nil
}

// Sequence returns the current residue codes.
func (p *Peptide) Sequence() string {
	return codes(p.residues)
}

// Len returns the number of residues.
func (p *Peptide) Len() int {
	return len(p.residues)
}

// Protein returns the protein set with WithProtein.
func (p *Peptide) Protein() string {
	return p.protein
}

// Residues returns a copy of the residues.
func (p *Peptide) Residues() []Residue {
	out := make([]Residue, len(p.residues))
	copy(out, p.residues)
	return out
}

// Modifications returns modification deltas keyed by their current 1-based
// position.
func (p *Peptide) Modifications() map[int]float64 {
	mods := make(map[int]float64)
	for i, r := range p.residues {
		if r.Modified {
			mods[i+1] = r.Mod
		}
	}
	return mods
}

// ModMass returns the sum of all modification deltas.
func (p *Peptide) ModMass() float64 {
	return modMass(p.residues)
}

func modMass(residues []Residue) float64 {
	total := 0.0
	for _, r := range residues {
		if r.Modified {
			total += r.Mod
		}
	}
	return total
}

// Mass returns the neutral monoisotopic mass: residue masses, one water and
// all modification deltas.
func (p *Peptide) Mass() float64 {
	// residues were validated by New
	delta, _ := p.calc.DeltaMassOf(p.Sequence())
	return delta + core.MassH2O + p.ModMass()
}

// Composition returns the elemental composition of the residues. Neither
// the terminal water nor modifications are included.
func (p *Peptide) Composition() core.Composition {
	comp, _ := p.calc.CompositionOf(p.Sequence())
	return comp
}

// ResidueCounts counts each residue code. With includeZero every code of the
// residue table is present, absent residues mapped to 0.
func (p *Peptide) ResidueCounts(includeZero bool) map[byte]int {
	counts := make(map[byte]int)
	if includeZero {
		for _, code := range p.calc.Table.Codes() {
			counts[code] = 0
		}
	}
	for _, r := range p.residues {
		if _, ok := p.calc.Table.Residue(r.Code); ok {
			counts[r.Code]++
		}
	}
	return counts
}

// AnnotatedSequence returns the sequence with the modified residue mass in
// brackets after each modified residue, e.g. "LIGPTSVVM[147.0354]GR".
func (p *Peptide) AnnotatedSequence() string {
	var b strings.Builder
	for _, r := range p.residues {
		b.WriteByte(r.Code)
		if !r.Modified {
			continue
		}
		mass := r.Mod
		if res, ok := p.calc.Table.Residue(r.Code); ok {
			mass += res.Mass
		}
		b.WriteByte('[')
		b.WriteString(decimal.NewFromFloat(mass).Round(4).String())
		b.WriteByte(']')
	}
	return b.String()
}

// String returns the annotated sequence.
func (p *Peptide) String() string {
	return p.AnnotatedSequence()
}

// ReverseInPlace reverses every residue except the C-terminal one.
// Calling it twice restores the original order.
func (p *Peptide) ReverseInPlace() {
	n := len(p.residues) - 1
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		p.residues[i], p.residues[j] = p.residues[j], p.residues[i]
	}
}

// ShuffleInPlace randomly permutes every residue except the C-terminal one.
func (p *Peptide) ShuffleInPlace(rng *rand.Rand) {
	head := p.residues[:len(p.residues)-1]
	rng.Shuffle(len(head), func(i, j int) {
		head[i], head[j] = head[j], head[i]
	})
}

// PseudoReverse reverses seq keeping its last residue in place.
func PseudoReverse(seq string) string {
	if len(seq) < 2 {
		return seq
	}
	b := []byte(seq)
	for i, j := 0, len(b)-2; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// sortedCodes returns the keys of counts in ascending order.
func sortedCodes(counts map[byte]int) []byte {
	out := make([]byte, 0, len(counts))
	for code := range counts {
		out = append(out, code)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FormatResidueCounts renders counts as "A:0 C:1 ...".
func FormatResidueCounts(counts map[byte]int) string {
	parts := make([]string, 0, len(counts))
	for _, code := range sortedCodes(counts) {
		parts = append(parts, fmt.Sprintf("%c:%d", code, counts[code]))
	}
	return strings.Join(parts, " ")
}
