package core

import (
	"errors"
	"math"
	"testing"
)

func TestResidueMasses(t *testing.T) {
	tests := []struct {
		code byte
		want float64
	}{
		{'G', 57.02146},
		{'A', 71.03711},
		{'M', 131.04049},
		{'R', 156.10111},
		{'K', 128.09496},
		{'W', 186.07931},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			r, ok := StandardResidues.Residue(tt.code)
			if !ok {
				t.Fatalf("residue %c missing", tt.code)
			}
			if math.Abs(r.Mass-tt.want) > 1e-4 {
				t.Errorf("mass of %c = %.5f, want %.5f", tt.code, r.Mass, tt.want)
			}
		})
	}
}

func TestCalculatorCompositionOf(t *testing.T) {
	calc := NewCalculator(nil)

	comp, err := calc.CompositionOf("MGR")
	if err != nil {
		t.Fatalf("CompositionOf() error = %v", err)
	}

	want := Composition{"C": 13, "H": 24, "N": 6, "O": 3, "S": 1}
	for elem, n := range want {
		if comp[elem] != n {
			t.Errorf("%s = %d, want %d", elem, comp[elem], n)
		}
	}
	if got := comp.String(); got != "C13H24N6O3S" {
		t.Errorf("String() = %s, want C13H24N6O3S", got)
	}
}

func TestCalculatorDeltaMassOf(t *testing.T) {
	calc := NewCalculator(nil)

	got, err := calc.DeltaMassOf("AAA")
	if err != nil {
		t.Fatalf("DeltaMassOf() error = %v", err)
	}
	want := 3 * (3*MassC + 5*MassH + MassN + MassO)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("DeltaMassOf() = %.6f, want %.6f", got, want)
	}

	empty, err := calc.DeltaMassOf("")
	if err != nil || empty != 0 {
		t.Errorf("DeltaMassOf(\"\") = %v, %v; want 0, nil", empty, err)
	}
}

func TestCalculatorUnknownResidue(t *testing.T) {
	calc := NewCalculator(nil)

	_, err := calc.DeltaMassOf("PEPXIDE")
	var ure *UnknownResidueError
	if !errors.As(err, &ure) {
		t.Fatalf("expected UnknownResidueError, got %v", err)
	}
	if ure.Residue != 'X' || ure.Position != 4 {
		t.Errorf("got residue %c at %d, want X at 4", ure.Residue, ure.Position)
	}

	if err := calc.Validate("PEPTIDE"); err != nil {
		t.Errorf("Validate(PEPTIDE) error = %v", err)
	}

	calc.IgnoreUnknown = true
	lenient, err := calc.DeltaMassOf("PEPXIDE")
	if err != nil {
		t.Fatalf("lenient DeltaMassOf() error = %v", err)
	}
	strict, _ := NewCalculator(nil).DeltaMassOf("PEPIDE")
	if math.Abs(lenient-strict) > 1e-9 {
		t.Errorf("lenient mass %.6f, want %.6f", lenient, strict)
	}
}

func TestResidueMapCodes(t *testing.T) {
	codes := StandardResidues.Codes()
	if len(codes) != 20 {
		t.Fatalf("expected 20 codes, got %d", len(codes))
	}
	for i := 1; i < len(codes); i++ {
		if codes[i] <= codes[i-1] {
			t.Fatalf("codes not sorted: %q", codes)
		}
	}
}

func TestMZ(t *testing.T) {
	if got := MZ(1000, 1); math.Abs(got-(1000+ProtonMass)) > 1e-9 {
		t.Errorf("MZ(1000, 1) = %f", got)
	}
	if got := MZ(1000, 2); math.Abs(got-(500+ProtonMass)) > 1e-9 {
		t.Errorf("MZ(1000, 2) = %f", got)
	}
}

func TestCheckCharge(t *testing.T) {
	var ice *InvalidChargeError
	if err := CheckCharge(0); !errors.As(err, &ice) {
		t.Errorf("CheckCharge(0) = %v, want InvalidChargeError", err)
	}
	if err := CheckCharge(-2); !errors.As(err, &ice) || ice.Charge != -2 {
		t.Errorf("CheckCharge(-2) = %v", err)
	}
	if err := CheckCharge(3); err != nil {
		t.Errorf("CheckCharge(3) = %v", err)
	}
}

func TestRoundFloat(t *testing.T) {
	tests := []struct {
		name      string
		val       float64
		precision int
		want      float64
	}{
		{"round to 2 decimals", 3.14159, 2, 3.14},
		{"round to 4 decimals", 3.14159, 4, 3.1416},
		{"round to 0 decimals", 3.6, 0, 4.0},
		{"round negative", -3.14159, 2, -3.14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundFloat(tt.val, tt.precision)
			if got != tt.want {
				t.Errorf("RoundFloat() = %v, want %v", got, tt.want)
			}
		})
	}
}
