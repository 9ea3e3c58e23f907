package core

import "fmt"

// UnknownResidueError is returned when a residue code is missing from the
// residue table.
type UnknownResidueError struct {
	Residue  byte
	Position int // 1-based
}

func (e *UnknownResidueError) Error() string {
	return fmt.Sprintf("unknown residue '%c' at position %d", e.Residue, e.Position)
}

// UnknownLabelError is returned for labeling identifiers outside Labels().
type UnknownLabelError struct {
	Label string
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("unknown labeling scheme '%s'", e.Label)
}

// InvalidChargeError is returned for charges below 1.
type InvalidChargeError struct {
	Charge int
}

func (e *InvalidChargeError) Error() string {
	return fmt.Sprintf("invalid charge %d, must be positive", e.Charge)
}

// InvalidPositionError is returned for fragment positions outside [1, Length].
type InvalidPositionError struct {
	Position int
	Length   int
}

func (e *InvalidPositionError) Error() string {
	return fmt.Sprintf("invalid fragment position %d for sequence of length %d", e.Position, e.Length)
}

// CheckCharge returns an *InvalidChargeError when charge is not positive.
func CheckCharge(charge int) error {
	if charge <= 0 {
		return &InvalidChargeError{Charge: charge}
	}
	return nil
}
