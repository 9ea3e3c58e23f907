package msp

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/ChrisMcGann/pepcalc/pkg/reader"
)

const library = `Name: LIGPTSVVMGR/2
MW: 1144.627
Comment: Parent=573.3210 Mods=1/8,M,Oxidation Protein=sp|P00001|TEST_HUMAN
Num peaks: 3
175.1190	1200.5	"y1/0.00"
363.1809	5400	"y3/0.00,b3^2/0.02"
767.4662	800	"b8"

Name: ACDEFGHIK/3
Comment: Parent=346.16 Mods=2/-1,A,Acetyl/1,C,Carbamidomethyl
Num peaks: 1
147.1128	100	"y1"
`

func TestReaderEntries(t *testing.T) {
	r := NewReader(strings.NewReader(library), nil)

	var entries []*reader.Entry
	for r.Next() {
		entries = append(entries, r.Entry())
	}
	if err := r.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	first := entries[0]
	if first.Sequence != "LIGPTSVVMGR" || first.Charge != 2 {
		t.Errorf("first entry = %s", first.Name())
	}
	if first.Protein != "sp|P00001|TEST_HUMAN" {
		t.Errorf("Protein = %q", first.Protein)
	}
	if math.Abs(first.PrecursorMZ-573.3210) > 1e-9 {
		t.Errorf("PrecursorMZ = %f", first.PrecursorMZ)
	}
	if len(first.Modifications) != 1 || math.Abs(first.Modifications[9]-15.994915) > 1e-9 {
		t.Errorf("Modifications = %v, want oxidation at 9", first.Modifications)
	}
	if len(first.Peaks) != 3 {
		t.Fatalf("expected 3 peaks, got %d", len(first.Peaks))
	}
	if first.Peaks[1].Annotation != "y3" || first.Peaks[1].Intensity != 5400 {
		t.Errorf("peak 1 = %+v", first.Peaks[1])
	}
	if err := first.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	second := entries[1]
	// N-terminal acetyl and carbamidomethyl on C2
	if math.Abs(second.Modifications[1]-42.010565) > 1e-9 || math.Abs(second.Modifications[2]-57.021464) > 1e-9 {
		t.Errorf("Modifications = %v", second.Modifications)
	}
}

func TestReaderErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad charge", "Name: PEPTIDE/x\nNum peaks: 0\n"},
		{"missing charge", "Name: PEPTIDE\nNum peaks: 0\n"},
		{"peak count mismatch", "Name: PEPTIDE/2\nNum peaks: 2\n100.0\t1\n"},
		{"unknown modification", "Name: PEPTIDE/2\nComment: Mods=1/2,P,Frobnicated\nNum peaks: 0\n"},
		{"bad peak", "Name: PEPTIDE/2\nNum peaks: 1\nabc\t1\n"},
		{"no name", "Num peaks: 1\n100.0\t1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.input), nil)
			for r.Next() {
			}
			if r.Err() == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestReaderEncoding(t *testing.T) {
	// "Protein=Prot\xe9ine" in ISO-8859-1
	input := []byte("Name: PEPTIDEK/2\nComment: Protein=Prot\xe9ine\nNum peaks: 0\n")

	r, err := NewReaderEncoding(bytes.NewReader(input), "latin1", nil)
	if err != nil {
		t.Fatalf("NewReaderEncoding() error = %v", err)
	}
	if !r.Next() {
		t.Fatalf("Next() = false, err = %v", r.Err())
	}
	if got := r.Entry().Protein; got != "Protéine" {
		t.Errorf("Protein = %q, want Protéine", got)
	}

	if _, err := NewReaderEncoding(bytes.NewReader(input), "no-such-encoding", nil); err == nil {
		t.Error("expected error for unknown encoding")
	}
}
