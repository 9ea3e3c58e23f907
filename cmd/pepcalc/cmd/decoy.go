package cmd

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/pepcalc/pkg/peptide"
	"github.com/ChrisMcGann/pepcalc/pkg/transition"
)

var (
	// Flags for decoy command
	decoyIon       string
	decoyCharge    int
	decoyBlacklist []float64
	decoyTolerance float64
	decoyMaxTries  int
	decoySeed      int64
)

var decoyCmd = &cobra.Command{
	Use:   "decoy SEQUENCE",
	Short: "Compute a decoy fragment m/z clear of blacklisted values",
	Long: `Shuffle the peptide (keeping its C-terminal residue) until the selected
fragment ion falls outside the tolerance of every blacklisted m/z, and print
that decoy m/z. The target fragment m/z is always blacklisted.

Examples:
  pepcalc decoy LIGPTSVVMGR --ion y3
  pepcalc decoy LIGPTSVVMGR --ion b5^2 --blacklist 500.1,600.2 --seed 42`,
	Args: cobra.ExactArgs(1),
	RunE: runDecoy,
}

func init() {
	addModsFlag(decoyCmd)
	decoyCmd.Flags().StringVar(&decoyIon, "ion", "", "Fragment ion, e.g. y3 or b5^2 (required)")
	decoyCmd.Flags().IntVarP(&decoyCharge, "charge", "z", 0, "Fragment charge (0 = from --ion)")
	decoyCmd.Flags().Float64SliceVar(&decoyBlacklist, "blacklist", nil, "Additional m/z values the decoy must avoid")
	decoyCmd.Flags().Float64Var(&decoyTolerance, "tolerance", peptide.DefaultDecoyTolerance, "Minimum m/z distance from blacklisted values")
	decoyCmd.Flags().IntVar(&decoyMaxTries, "max-tries", peptide.DefaultDecoyMaxTries, "Shuffle attempts before giving up")
	decoyCmd.Flags().Int64Var(&decoySeed, "seed", 0, "Random seed (0 = seed from the clock)")

	decoyCmd.MarkFlagRequired("ion")
}

func runDecoy(cmd *cobra.Command, args []string) error {
	label, err := parseLabel()
	if err != nil {
		return err
	}
	ion, err := transition.ParseIon(decoyIon)
	if err != nil {
		return err
	}
	if decoyCharge != 0 {
		ion.Charge = decoyCharge
	}
	p, err := loadPeptide(args[0])
	if err != nil {
		return err
	}

	target, err := p.IonMZ(ion, label, 0)
	if err != nil {
		return err
	}

	opts := peptide.DecoyOptions{
		Tolerance: decoyTolerance,
		MaxTries:  decoyMaxTries,
		Label:     label,
	}
	if decoySeed != 0 {
		opts.Rand = rand.New(rand.NewSource(decoySeed))
	}

	blacklist := append([]float64{target}, decoyBlacklist...)
	decoy, err := p.GenerateDecoy(ion.Series, ion.Position, ion.Charge, blacklist, opts)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s target m/z: %.6f\n", p, ion, target)
	fmt.Printf("%s %s decoy m/z:  %.6f\n", p, ion, decoy)

	return nil
}
