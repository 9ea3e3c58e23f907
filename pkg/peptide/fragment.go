package peptide

import (
	"fmt"

	"github.com/ChrisMcGann/pepcalc/pkg/core"
)

// IonSeries identifies a fragment ion series, or the precursor.
type IonSeries byte

// Ion series
const (
	SeriesA         IonSeries = 'a'
	SeriesB         IonSeries = 'b'
	SeriesC         IonSeries = 'c'
	SeriesX         IonSeries = 'x'
	SeriesY         IonSeries = 'y'
	SeriesZ         IonSeries = 'z'
	SeriesPrecursor IonSeries = 'p'
)

// FragmentSeries lists the fragment series in conventional order.
var FragmentSeries = []IonSeries{SeriesA, SeriesB, SeriesC, SeriesX, SeriesY, SeriesZ}

// UnknownIonSeriesError is returned for series outside a/b/c/x/y/z/p.
type UnknownIonSeriesError struct {
	Series string
}

func (e *UnknownIonSeriesError) Error() string {
	return fmt.Sprintf("unknown ion series '%s'", e.Series)
}

// ParseIonSeries converts a one-letter series name.
func ParseIonSeries(s string) (IonSeries, error) {
	if len(s) == 1 {
		series := IonSeries(s[0])
		if series.Valid() {
			return series, nil
		}
	}
	return 0, &UnknownIonSeriesError{Series: s}
}

// Valid reports whether s is a recognized series.
func (s IonSeries) Valid() bool {
	return s == SeriesPrecursor || s.NTerminal() || s.CTerminal()
}

// NTerminal reports whether fragments of s contain the N-terminus.
func (s IonSeries) NTerminal() bool {
	return s == SeriesA || s == SeriesB || s == SeriesC
}

// CTerminal reports whether fragments of s contain the C-terminus.
func (s IonSeries) CTerminal() bool {
	return s == SeriesX || s == SeriesY || s == SeriesZ
}

func (s IonSeries) String() string {
	return string(rune(s))
}

// offset is the neutral mass added to the summed residue masses.
func (s IonSeries) offset() float64 {
	switch s {
	case SeriesA:
		return -core.MassCO
	case SeriesC:
		return core.MassNH3
	case SeriesX:
		return core.MassCO2
	case SeriesY:
		return core.MassH2O
	case SeriesZ:
		return core.MassH2O - core.MassNH3
	}
	return 0
}

// Ion is a single fragment or precursor query.
type Ion struct {
	Series   IonSeries
	Position int // residues counted from the series' terminus; unused for precursors
	Charge   int
}

// String formats the ion as "y3", "b5^2" or "p^2".
func (i Ion) String() string {
	s := i.Series.String()
	if i.Series != SeriesPrecursor {
		s += fmt.Sprintf("%d", i.Position)
	}
	if i.Charge > 1 {
		s += fmt.Sprintf("^%d", i.Charge)
	}
	return s
}

// labelShift returns the isotope shift of residues under label. AQUA_KR
// only contributes when aquaApplies.
func (p *Peptide) labelShift(residues []Residue, label core.Label, aquaApplies bool) float64 {
	seq := codes(residues)
	nitrogen := 0
	if label == core.Label15N || label == core.LabelN15 {
		comp, _ := p.calc.CompositionOf(seq)
		nitrogen = comp.Count("N")
	}
	var terminal byte
	if aquaApplies {
		terminal = p.residues[len(p.residues)-1].Code
	}
	return label.Shift(seq, nitrogen, terminal)
}

func codes(residues []Residue) string {
	b := make([]byte, len(residues))
	for i, r := range residues {
		b[i] = r.Code
	}
	return string(b)
}

// PrecursorMZ returns the m/z of the intact peptide at charge under label.
func (p *Peptide) PrecursorMZ(charge int, label core.Label) (float64, error) {
	if err := label.Validate(); err != nil {
		return 0, err
	}
	if err := core.CheckCharge(charge); err != nil {
		return 0, err
	}

	shift := p.labelShift(p.residues, label, true)
	return core.MZ(p.Mass()+shift, charge), nil
}

// FragmentMZ returns the m/z of the fragment ion of series containing
// position residues from its terminus, at charge under label. extraDelta is
// a neutral loss or gain added before dividing by the charge.
//
// SeriesPrecursor ignores position and extraDelta and returns PrecursorMZ.
func (p *Peptide) FragmentMZ(series IonSeries, position, charge int, label core.Label, extraDelta float64) (float64, error) {
	if err := label.Validate(); err != nil {
		return 0, err
	}
	if err := core.CheckCharge(charge); err != nil {
		return 0, err
	}
	if series == SeriesPrecursor {
		return p.PrecursorMZ(charge, label)
	}
	if !series.Valid() {
		return 0, &UnknownIonSeriesError{Series: series.String()}
	}
	n := len(p.residues)
	if position < 1 || position > n {
		return 0, &core.InvalidPositionError{Position: position, Length: n}
	}

	var frag []Residue
	if series.NTerminal() {
		frag = p.residues[:position]
	} else {
		frag = p.residues[n-position:]
	}

	// residues were validated by New
	mass, _ := p.calc.DeltaMassOf(codes(frag))
	mass += series.offset()
	mass += modMass(frag)
	mass += p.labelShift(frag, label, series == SeriesY)

	return core.MZ(mass+extraDelta, charge), nil
}

// IonMZ is FragmentMZ for an Ion.
func (p *Peptide) IonMZ(ion Ion, label core.Label, extraDelta float64) (float64, error) {
	return p.FragmentMZ(ion.Series, ion.Position, ion.Charge, label, extraDelta)
}
