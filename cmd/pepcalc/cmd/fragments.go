package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/pepcalc/pkg/core"
	"github.com/ChrisMcGann/pepcalc/pkg/transition"
	"github.com/ChrisMcGann/pepcalc/pkg/writer/sqlite"
)

var (
	// Flags for fragments command
	fragSeries      string
	fragCharges     []int
	fragPrecursorZ  int
	fragMinPosition int
	fragLoss        float64
	fragPrecision   int
	fragOutput      string
)

var fragmentsCmd = &cobra.Command{
	Use:   "fragments SEQUENCE",
	Short: "List fragment ion m/z values of a peptide",
	Long: `List the m/z of every fragment ion of the selected series and charges.

Examples:
  # b and y ions, singly and doubly charged
  pepcalc fragments LIGPTSVVMGR --series b,y --charges 1,2

  # y ions with water loss, stored as an assay
  pepcalc fragments PEPTIDEK --series y --loss -18.010565 --out assays.db`,
	Args: cobra.ExactArgs(1),
	RunE: runFragments,
}

func init() {
	addModsFlag(fragmentsCmd)
	fragmentsCmd.Flags().StringVar(&fragSeries, "series", "b,y", "Comma-separated ion series (a,b,c,x,y,z)")
	fragmentsCmd.Flags().IntSliceVar(&fragCharges, "charges", []int{1}, "Fragment charges")
	fragmentsCmd.Flags().IntVarP(&fragPrecursorZ, "charge", "z", 2, "Precursor charge")
	fragmentsCmd.Flags().IntVar(&fragMinPosition, "min-length", 1, "Shortest fragment to list")
	fragmentsCmd.Flags().Float64Var(&fragLoss, "loss", 0, "Neutral mass added to every fragment (negative for a loss)")
	fragmentsCmd.Flags().IntVar(&fragPrecision, "precision", 4, "Decimal places in the printed m/z")
	fragmentsCmd.Flags().StringVarP(&fragOutput, "out", "o", "", "Also write the transitions to this SQLite database")
}

func runFragments(cmd *cobra.Command, args []string) error {
	label, err := parseLabel()
	if err != nil {
		return err
	}
	series, err := parseSeries(fragSeries)
	if err != nil {
		return err
	}
	p, err := loadPeptide(args[0])
	if err != nil {
		return err
	}

	cfg := &transition.Config{
		Series:      series,
		Charges:     fragCharges,
		MinPosition: fragMinPosition,
		Label:       label,
		Loss:        fragLoss,
	}
	assay, err := cfg.Build(p, fragPrecursorZ)
	if err != nil {
		return err
	}

	fmt.Printf("%s precursor m/z %.*f\n", assay.Name(), fragPrecision, core.RoundFloat(assay.PrecursorMZ, fragPrecision))
	for _, tr := range assay.Transitions {
		fmt.Printf("%-8s %.*f\n", tr.Annotation, fragPrecision, core.RoundFloat(tr.MZ, fragPrecision))
	}

	if fragOutput == "" {
		return nil
	}

	writer, err := sqlite.NewWriter(fragOutput)
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}
	defer writer.Close()

	if err := writer.WriteAssay(assay); err != nil {
		return fmt.Errorf("failed to write assay %s: %w", assay.Name(), err)
	}
	if err := writer.Finalize(); err != nil {
		return fmt.Errorf("failed to finalize database: %w", err)
	}
	fmt.Printf("Output: %s\n", fragOutput)

	return nil
}
