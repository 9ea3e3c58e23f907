package core

// Label identifies an isotope labeling scheme.
type Label string

// Recognized labeling schemes
const (
	LabelNone       Label = "none"
	Label15N        Label = "15N"
	LabelN15        Label = "N15"
	LabelAQUAKR     Label = "AQUA_KR"
	LabelSILACK6R10 Label = "SILAC_K6R10"
	LabelSILACK8R10 Label = "SILAC_K8R10"
	LabelSILACK8R6  Label = "SILAC_K8R6"

	// legacy spelling of LabelNone found in older transition lists
	labelNoLabeling Label = "no_labeling"
)

// Per-residue heavy shifts
const (
	shiftK6  = 6 * MassShiftC13
	shiftK8  = 6*MassShiftC13 + 2*MassShiftN15
	shiftR6  = 6 * MassShiftC13
	shiftR10 = 6*MassShiftC13 + 4*MassShiftN15
)

// Labels returns the recognized labeling identifiers.
func Labels() []Label {
	return []Label{LabelNone, Label15N, LabelN15, LabelAQUAKR, LabelSILACK6R10, LabelSILACK8R10, LabelSILACK8R6}
}

// ParseLabel converts s to a Label. The empty string means LabelNone.
func ParseLabel(s string) (Label, error) {
	l := Label(s)
	if err := l.Validate(); err != nil {
		return "", err
	}
	if l.IsNone() {
		return LabelNone, nil
	}
	return l, nil
}

// IsNone reports whether l applies no isotope shift.
func (l Label) IsNone() bool {
	return l == "" || l == LabelNone || l == labelNoLabeling
}

// Validate returns an *UnknownLabelError if l is not a recognized scheme.
func (l Label) Validate() error {
	if l.IsNone() {
		return nil
	}
	for _, known := range Labels() {
		if l == known {
			return nil
		}
	}
	return &UnknownLabelError{Label: string(l)}
}

// Shift returns the isotope mass shift of residues under l.
//
// nitrogen is the number of N atoms in residues, used by the 15N schemes.
// AQUA_KR labels only the peptide C-terminal K or R, and only where the
// caller passes that residue as aquaTerminal: precursors and y ions do,
// every other fragment series passes 0.
func (l Label) Shift(residues string, nitrogen int, aquaTerminal byte) float64 {
	switch l {
	case Label15N, LabelN15:
		return float64(nitrogen) * MassShiftN15
	case LabelAQUAKR:
		switch aquaTerminal {
		case 'K':
			return shiftK8
		case 'R':
			return shiftR10
		}
		return 0
	case LabelSILACK6R10:
		return countShift(residues, shiftK6, shiftR10)
	case LabelSILACK8R10:
		return countShift(residues, shiftK8, shiftR10)
	case LabelSILACK8R6:
		return countShift(residues, shiftK8, shiftR6)
	}
	return 0
}

func countShift(residues string, perK, perR float64) float64 {
	numK, numR := 0, 0
	for i := 0; i < len(residues); i++ {
		switch residues[i] {
		case 'K':
			numK++
		case 'R':
			numR++
		}
	}
	return float64(numK)*perK + float64(numR)*perR
}
