package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/pepcalc/pkg/peptide"
)

var (
	// Flags for mass command
	massCharges []int
	allResidues bool
)

var massCmd = &cobra.Command{
	Use:   "mass SEQUENCE",
	Short: "Print neutral mass, composition and precursor m/z of a peptide",
	Long: `Print the monoisotopic neutral mass, elemental composition, residue counts
and precursor m/z of a peptide.

Examples:
  # Unmodified peptide, charges 1 and 2
  pepcalc mass LIGPTSVVMGR --charge 1,2

  # Oxidized methionine with a SILAC heavy label
  pepcalc mass LIGPTSVVMGR --mods Oxidation@M9 --label SILAC_K8R10`,
	Args: cobra.ExactArgs(1),
	RunE: runMass,
}

func init() {
	addModsFlag(massCmd)
	massCmd.Flags().IntSliceVarP(&massCharges, "charge", "z", []int{1, 2, 3}, "Precursor charges")
	massCmd.Flags().BoolVar(&allResidues, "all-residues", false, "List residues that do not occur with count 0")
}

func runMass(cmd *cobra.Command, args []string) error {
	label, err := parseLabel()
	if err != nil {
		return err
	}
	p, err := loadPeptide(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Sequence:     %s\n", p.Sequence())
	fmt.Printf("Modified:     %s\n", p.AnnotatedSequence())
	if p.ModMass() != 0 {
		fmt.Printf("Mod mass:     %.6f\n", p.ModMass())
	}
	fmt.Printf("Composition:  %s\n", p.Composition())
	fmt.Printf("Residues:     %s\n", peptide.FormatResidueCounts(p.ResidueCounts(allResidues)))
	fmt.Printf("Neutral mass: %.6f\n", p.Mass())
	fmt.Printf("Label:        %s\n", label)

	for _, z := range massCharges {
		mz, err := p.PrecursorMZ(z, label)
		if err != nil {
			return err
		}
		fmt.Printf("[M+%dH]%d+:    %.6f\n", z, z, mz)
	}

	return nil
}
