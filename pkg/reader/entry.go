// Package reader defines the spectral library entry shared by the format readers.
package reader

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Entry is one library spectrum reduced to what assay building needs.
type Entry struct {
	Sequence      string
	Charge        int
	PrecursorMZ   float64 // as stored in the library; recomputed downstream
	Protein       string
	Modifications map[int]float64 // 1-based residue position -> delta mass
	Peaks         []Peak

	SourceFormat string // msp, sptxt
}

// Peak represents a single m/z, intensity pair with optional annotation.
type Peak struct {
	MZ         float64
	Intensity  float64
	Annotation string // Ion annotation (e.g., "y3", "b2^2")
}

// Source is a streaming library reader.
type Source interface {
	Next() bool
	Entry() *Entry
	Err() error
}

// ValidationError represents an error found during entry validation.
type ValidationError struct {
	Entry   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid entry %s: %s", e.Entry, e.Message)
}

// Name returns the entry name in format "Sequence/Charge"
func (e *Entry) Name() string {
	return fmt.Sprintf("%s/%d", e.Sequence, e.Charge)
}

// Validate checks that an entry can be turned into an assay.
func (e *Entry) Validate() error {
	var errs []string

	if e.Sequence == "" {
		errs = append(errs, "sequence is required")
	}
	if e.Charge <= 0 {
		errs = append(errs, "charge must be positive")
	}
	for pos := range e.Modifications {
		if pos < 1 || pos > len(e.Sequence) {
			errs = append(errs, fmt.Sprintf("modification position %d outside sequence", pos))
		}
	}

	for i, peak := range e.Peaks {
		if math.IsNaN(peak.MZ) || math.IsInf(peak.MZ, 0) || peak.MZ <= 0 {
			errs = append(errs, fmt.Sprintf("peak %d has invalid m/z", i))
		}
		if math.IsNaN(peak.Intensity) || math.IsInf(peak.Intensity, 0) || peak.Intensity < 0 {
			errs = append(errs, fmt.Sprintf("peak %d has invalid intensity", i))
		}
	}

	if len(errs) > 0 {
		return &ValidationError{
			Entry:   e.Name(),
			Message: strings.Join(errs, "; "),
		}
	}

	return nil
}

// TotalModMass returns the sum of all modification masses.
func (e *Entry) TotalModMass() float64 {
	total := 0.0
	for _, mass := range e.Modifications {
		total += mass
	}
	return total
}

// ModString returns the modifications in format "mass@pos;mass@pos;..."
// ordered by position.
func (e *Entry) ModString() string {
	if len(e.Modifications) == 0 {
		return ""
	}

	positions := make([]int, 0, len(e.Modifications))
	for pos := range e.Modifications {
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	parts := make([]string, len(positions))
	for i, pos := range positions {
		parts[i] = fmt.Sprintf("%.6f@%d", e.Modifications[pos], pos)
	}
	return strings.Join(parts, ";")
}
