// Package cmd provides CLI command implementations
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/pepcalc/pkg/core"
	"github.com/ChrisMcGann/pepcalc/pkg/peptide"
	"github.com/ChrisMcGann/pepcalc/pkg/transition"
)

// customModFile is picked up from the working directory when present
const customModFile = "unimod_custom.csv"

var (
	// Flags shared by every command
	labelName string
	modCSV    string
	modString string
)

var rootCmd = &cobra.Command{
	Use:   "pepcalc",
	Short: "pepcalc - Peptide mass, fragment and decoy calculator",
	Long: `pepcalc computes monoisotopic masses and m/z values for peptides.

Supported workflows:
- Neutral mass, elemental composition and precursor m/z
- a/b/c/x/y/z fragment ion m/z with isotope labels and neutral losses
- Decoy fragment m/z by shuffling away from target transitions
- MSP spectral library to SQLite transition assay conversion`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(massCmd)
	rootCmd.AddCommand(fragmentsCmd)
	rootCmd.AddCommand(decoyCmd)
	rootCmd.AddCommand(libraryCmd)

	rootCmd.PersistentFlags().StringVar(&labelName, "label", "none",
		"Isotope label: "+strings.Join(labelNames(), ", "))
	rootCmd.PersistentFlags().StringVar(&modCSV, "mod-csv", "", "Path to a modification CSV (name,mass) added to the built-in table")
}

// addModsFlag registers --mods on commands that take a sequence argument
func addModsFlag(c *cobra.Command) {
	c.Flags().StringVarP(&modString, "mods", "m", "",
		"Modifications as 'name@pos' or 'mass@pos' separated by ';' (e.g. 'Oxidation@M9;Acetyl@n')")
}

func labelNames() []string {
	labels := core.Labels()
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = string(l)
	}
	return names
}

// loadModDatabase returns the built-in modifications extended with
// unimod_custom.csv and --mod-csv
func loadModDatabase() (*core.ModDatabase, error) {
	modDB := core.DefaultModDatabase()

	if _, err := os.Stat(customModFile); err == nil {
		f, err := os.Open(customModFile)
		if err == nil {
			if err := modDB.LoadFromCSV(f); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to load %s: %v\n", customModFile, err)
			}
			f.Close()
		}
	}

	if modCSV != "" {
		f, err := os.Open(modCSV)
		if err != nil {
			return nil, fmt.Errorf("failed to open modification CSV: %w", err)
		}
		defer f.Close()
		if err := modDB.LoadFromCSV(f); err != nil {
			return nil, fmt.Errorf("failed to load modification CSV: %w", err)
		}
	}

	return modDB, nil
}

// loadPeptide builds the peptide for a SEQUENCE argument and --mods
func loadPeptide(sequence string) (*peptide.Peptide, error) {
	sequence = strings.ToUpper(strings.TrimSpace(sequence))

	modDB, err := loadModDatabase()
	if err != nil {
		return nil, err
	}
	mods, err := modDB.ParseModString(modString, sequence)
	if err != nil {
		return nil, fmt.Errorf("invalid modifications: %w", err)
	}

	p, err := peptide.New(sequence, mods)
	if err != nil {
		return nil, fmt.Errorf("invalid peptide: %w", err)
	}
	return p, nil
}

func parseLabel() (core.Label, error) {
	label, err := core.ParseLabel(labelName)
	if err != nil {
		return "", fmt.Errorf("invalid --label: %w", err)
	}
	return label, nil
}

// parseSeries parses a comma-separated series list such as "b,y"
func parseSeries(list string) ([]peptide.IonSeries, error) {
	var names []string
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return transition.ParseSeriesList(names)
}
