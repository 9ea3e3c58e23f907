package peptide

import (
	"errors"
	"math"
	"testing"

	"github.com/ChrisMcGann/pepcalc/pkg/core"
)

const mzTolerance = 1e-6

func mz(t *testing.T, p *Peptide, series IonSeries, position, charge int, label core.Label) float64 {
	t.Helper()
	got, err := p.FragmentMZ(series, position, charge, label, 0)
	if err != nil {
		t.Fatalf("FragmentMZ(%c, %d, %d, %q) error = %v", series, position, charge, label, err)
	}
	return got
}

func TestPrecursorMZ(t *testing.T) {
	p := mustNew(t, "LIGPTSVVMGR", nil)

	tests := []struct {
		charge int
		want   float64
	}{
		{1, 1129.639791},
		{2, 565.323534},
	}

	for _, tt := range tests {
		got, err := p.PrecursorMZ(tt.charge, "")
		if err != nil {
			t.Fatalf("PrecursorMZ(%d) error = %v", tt.charge, err)
		}
		if math.Abs(got-tt.want) > 1e-5 {
			t.Errorf("PrecursorMZ(%d) = %.6f, want %.6f", tt.charge, got, tt.want)
		}
	}

	pmz, _ := p.FragmentMZ(SeriesPrecursor, 0, 2, core.LabelNone, 99)
	if math.Abs(pmz-565.323534) > 1e-5 {
		t.Errorf("p series = %.6f, want precursor m/z", pmz)
	}
}

func TestPrecursorLabels(t *testing.T) {
	p := mustNew(t, "LIGPTSVVMGR", nil)
	base, _ := p.PrecursorMZ(1, core.LabelNone)
	r10 := 6*core.MassShiftC13 + 4*core.MassShiftN15

	tests := []struct {
		label core.Label
		shift float64
	}{
		{core.Label15N, 14 * core.MassShiftN15},
		{core.LabelN15, 14 * core.MassShiftN15},
		{core.LabelAQUAKR, r10},
		{core.LabelSILACK6R10, r10},
		{core.LabelSILACK8R10, r10},
		{core.LabelSILACK8R6, 6 * core.MassShiftC13},
	}

	for _, tt := range tests {
		t.Run(string(tt.label), func(t *testing.T) {
			got, err := p.PrecursorMZ(1, tt.label)
			if err != nil {
				t.Fatalf("PrecursorMZ() error = %v", err)
			}
			if math.Abs(got-base-tt.shift) > mzTolerance {
				t.Errorf("shift = %.6f, want %.6f", got-base, tt.shift)
			}
		})
	}
}

func TestFragmentErrors(t *testing.T) {
	p := mustNew(t, "PEPTIDEK", nil)

	var ule *core.UnknownLabelError
	if _, err := p.FragmentMZ(SeriesY, 2, 1, "ICAT", 0); !errors.As(err, &ule) {
		t.Errorf("expected UnknownLabelError, got %v", err)
	}
	if _, err := p.PrecursorMZ(1, "ICAT"); !errors.As(err, &ule) {
		t.Errorf("expected UnknownLabelError from PrecursorMZ, got %v", err)
	}

	var ice *core.InvalidChargeError
	for _, series := range []IonSeries{SeriesB, SeriesPrecursor} {
		if _, err := p.FragmentMZ(series, 2, 0, "", 0); !errors.As(err, &ice) {
			t.Errorf("%c: expected InvalidChargeError, got %v", series, err)
		}
	}

	var ipe *core.InvalidPositionError
	for _, pos := range []int{0, 9} {
		if _, err := p.FragmentMZ(SeriesB, pos, 1, "", 0); !errors.As(err, &ipe) {
			t.Errorf("position %d: expected InvalidPositionError, got %v", pos, err)
		}
	}

	var uise *UnknownIonSeriesError
	if _, err := p.FragmentMZ(IonSeries('q'), 2, 1, "", 0); !errors.As(err, &uise) {
		t.Errorf("expected UnknownIonSeriesError, got %v", err)
	}
}

func TestSeriesOffsets(t *testing.T) {
	p := mustNew(t, "LIGPTSVVMGR", nil)

	for pos := 1; pos <= p.Len(); pos++ {
		a := mz(t, p, SeriesA, pos, 1, "")
		b := mz(t, p, SeriesB, pos, 1, "")
		c := mz(t, p, SeriesC, pos, 1, "")
		x := mz(t, p, SeriesX, pos, 1, "")
		y := mz(t, p, SeriesY, pos, 1, "")
		z := mz(t, p, SeriesZ, pos, 1, "")

		if math.Abs(c-b-core.MassNH3) > mzTolerance {
			t.Errorf("c%d - b%d = %.6f, want NH3", pos, pos, c-b)
		}
		if math.Abs(b-a-core.MassCO) > mzTolerance {
			t.Errorf("b%d - a%d = %.6f, want CO", pos, pos, b-a)
		}
		if math.Abs(x-y-(core.MassCO2-core.MassH2O)) > mzTolerance {
			t.Errorf("x%d - y%d = %.6f", pos, pos, x-y)
		}
		if math.Abs(y-z-core.MassNH3) > mzTolerance {
			t.Errorf("y%d - z%d = %.6f, want NH3", pos, pos, y-z)
		}
	}
}

func TestFullLengthFragments(t *testing.T) {
	p := mustNew(t, "LIGPTSVVMGR", nil)
	n := p.Len()

	for _, charge := range []int{1, 2, 3} {
		prec, _ := p.PrecursorMZ(charge, "")
		y := mz(t, p, SeriesY, n, charge, "")
		if math.Abs(y-prec) > mzTolerance {
			t.Errorf("y%d^%d = %.6f, precursor = %.6f", n, charge, y, prec)
		}
		b := mz(t, p, SeriesB, n, charge, "")
		if math.Abs(b+core.MassH2O/float64(charge)-prec) > mzTolerance {
			t.Errorf("b%d^%d + H2O = %.6f, precursor = %.6f", n, charge, b+core.MassH2O/float64(charge), prec)
		}
	}
}

func TestChargeScaling(t *testing.T) {
	p := mustNew(t, "LIGPTSVVMGR", map[int]float64{9: oxidation})

	for _, series := range FragmentSeries {
		for pos := 1; pos <= p.Len(); pos++ {
			z1 := mz(t, p, series, pos, 1, core.LabelSILACK8R10)
			z2 := mz(t, p, series, pos, 2, core.LabelSILACK8R10)
			want := (z1 - core.ProtonMass + 2*core.ProtonMass) / 2
			if math.Abs(z2-want) > mzTolerance {
				t.Errorf("%c%d^2 = %.6f, want %.6f", series, pos, z2, want)
			}
		}
	}
}

func TestModificationPositions(t *testing.T) {
	plain := mustNew(t, "LIGPTSVVMGR", nil)
	mod := mustNew(t, "LIGPTSVVMGR", map[int]float64{9: oxidation})

	tests := []struct {
		series   IonSeries
		position int
		included bool
	}{
		{SeriesB, 8, false},
		{SeriesB, 9, true},
		{SeriesA, 9, true},
		{SeriesC, 8, false},
		{SeriesY, 2, false},
		{SeriesY, 3, true},
		{SeriesX, 3, true},
		{SeriesZ, 2, false},
	}

	for _, tt := range tests {
		got := mz(t, mod, tt.series, tt.position, 1, "")
		base := mz(t, plain, tt.series, tt.position, 1, "")
		want := base
		if tt.included {
			want += oxidation
		}
		if math.Abs(got-want) > mzTolerance {
			t.Errorf("%c%d = %.6f, want %.6f", tt.series, tt.position, got, want)
		}
	}

	if b8 := mz(t, mod, SeriesB, 8, 1, ""); math.Abs(b8-767.466167) > 1e-5 {
		t.Errorf("b8 = %.6f, want 767.466167", b8)
	}
	if b9 := mz(t, mod, SeriesB, 9, 1, ""); math.Abs(b9-(898.506651+oxidation)) > 1e-5 {
		t.Errorf("b9 = %.6f, want %.6f", b9, 898.506651+oxidation)
	}
}

func TestY3(t *testing.T) {
	p := mustNew(t, "LIGPTSVVMGR", nil)

	comp, err := core.NewCalculator(nil).CompositionOf("MGR")
	if err != nil {
		t.Fatal(err)
	}
	want := comp.Mass() + core.MassH2O + core.ProtonMass

	got := mz(t, p, SeriesY, 3, 1, "")
	if math.Abs(got-want) > mzTolerance {
		t.Errorf("y3 = %.6f, want %.6f", got, want)
	}
	if math.Abs(got-363.180901) > 1e-5 {
		t.Errorf("y3 = %.6f, want 363.180901", got)
	}
}

func TestExtraDelta(t *testing.T) {
	p := mustNew(t, "LIGPTSVVMGR", nil)

	y := mz(t, p, SeriesY, 5, 2, "")
	loss, err := p.FragmentMZ(SeriesY, 5, 2, "", -core.MassH2O)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(y-loss-core.MassH2O/2) > mzTolerance {
		t.Errorf("water loss at charge 2 shifted by %.6f", y-loss)
	}

	viaIon, _ := p.IonMZ(Ion{Series: SeriesY, Position: 5, Charge: 2}, "", -core.MassH2O)
	if viaIon != loss {
		t.Errorf("IonMZ() = %f, want %f", viaIon, loss)
	}
}

func TestFragmentLabels(t *testing.T) {
	p := mustNew(t, "PEPTIDEKR", nil)
	k6 := 6 * core.MassShiftC13
	k8 := 6*core.MassShiftC13 + 2*core.MassShiftN15
	r10 := 6*core.MassShiftC13 + 4*core.MassShiftN15

	tests := []struct {
		name     string
		series   IonSeries
		position int
		label    core.Label
		shift    float64
	}{
		// AQUA_KR only labels y ions of the fragment series
		{"AQUA y", SeriesY, 2, core.LabelAQUAKR, r10},
		{"AQUA x", SeriesX, 2, core.LabelAQUAKR, 0},
		{"AQUA z", SeriesZ, 2, core.LabelAQUAKR, 0},
		{"AQUA full b", SeriesB, 9, core.LabelAQUAKR, 0},
		{"K6R10 b8 has K", SeriesB, 8, core.LabelSILACK6R10, k6},
		{"K6R10 b7 has none", SeriesB, 7, core.LabelSILACK6R10, 0},
		{"K8R10 y2", SeriesY, 2, core.LabelSILACK8R10, k8 + r10},
		{"K8R6 y1", SeriesY, 1, core.LabelSILACK8R6, 6 * core.MassShiftC13},
		{"15N y1 arginine", SeriesY, 1, core.Label15N, 4 * core.MassShiftN15},
		{"N15 b2 PE", SeriesB, 2, core.LabelN15, 2 * core.MassShiftN15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			light := mz(t, p, tt.series, tt.position, 1, core.LabelNone)
			heavy := mz(t, p, tt.series, tt.position, 1, tt.label)
			if math.Abs(heavy-light-tt.shift) > mzTolerance {
				t.Errorf("shift = %.6f, want %.6f", heavy-light, tt.shift)
			}
		})
	}

	// precursor AQUA_KR keys on the C-terminal residue only
	light, _ := p.PrecursorMZ(1, core.LabelNone)
	heavy, _ := p.PrecursorMZ(1, core.LabelAQUAKR)
	if math.Abs(heavy-light-r10) > mzTolerance {
		t.Errorf("AQUA precursor shift = %.6f, want %.6f", heavy-light, r10)
	}
}

func TestParseIonSeries(t *testing.T) {
	for _, s := range []string{"a", "b", "c", "x", "y", "z", "p"} {
		if _, err := ParseIonSeries(s); err != nil {
			t.Errorf("ParseIonSeries(%q) error = %v", s, err)
		}
	}
	for _, s := range []string{"", "B", "q", "by"} {
		if _, err := ParseIonSeries(s); err == nil {
			t.Errorf("ParseIonSeries(%q) expected error", s)
		}
	}
}

func TestIonString(t *testing.T) {
	tests := []struct {
		ion  Ion
		want string
	}{
		{Ion{SeriesY, 3, 1}, "y3"},
		{Ion{SeriesB, 5, 2}, "b5^2"},
		{Ion{SeriesPrecursor, 0, 2}, "p^2"},
	}
	for _, tt := range tests {
		if got := tt.ion.String(); got != tt.want {
			t.Errorf("String() = %s, want %s", got, tt.want)
		}
	}
}
