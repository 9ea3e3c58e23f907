package cmd

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/net/html/charset"

	"github.com/ChrisMcGann/pepcalc/pkg/core"
	"github.com/ChrisMcGann/pepcalc/pkg/peptide"
	"github.com/ChrisMcGann/pepcalc/pkg/reader"
	"github.com/ChrisMcGann/pepcalc/pkg/reader/msp"
	"github.com/ChrisMcGann/pepcalc/pkg/reader/sptxt"
	"github.com/ChrisMcGann/pepcalc/pkg/transition"
	"github.com/ChrisMcGann/pepcalc/pkg/writer/sqlite"
)

var (
	// Flags for library command
	inputFile   string
	inputFormat string
	outputFile  string
	encoding    string
	libSeries   string
	topN        int
	cutoff      float64
	withDecoys  bool
	libSeed     int64
	libMaxTries int
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Convert a spectral library to SQLite transition assays",
	Long: `Read an MSP or SPTXT spectral library, recompute precursor and fragment m/z for every
annotated peak and write the resulting assays to a SQLite database.

Examples:
  # Convert with default settings (b and y ions)
  pepcalc library --in library.msp --out assays.db

  # Keep the 6 most intense y ions and add decoy m/z values
  pepcalc library --in library.msp --out assays.db --series y --top-n 6 --decoys --seed 7`,
	RunE: runLibrary,
}

func init() {
	libraryCmd.Flags().StringVarP(&inputFile, "in", "i", "", "Input file path (required)")
	libraryCmd.Flags().StringVarP(&inputFormat, "from", "f", "", "Input format: msp or sptxt (auto-detect if not specified)")
	libraryCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output database file (required)")
	libraryCmd.Flags().StringVar(&encoding, "encoding", "", "Input character encoding, e.g. latin1 (default UTF-8)")
	libraryCmd.Flags().StringVar(&libSeries, "series", "b,y", "Comma-separated ion series to keep")
	libraryCmd.Flags().IntVar(&topN, "top-n", 0, "Keep only top N most intense ions (0 = no limit)")
	libraryCmd.Flags().Float64Var(&cutoff, "cutoff", 0, "Intensity cutoff as % of base peak (0 = no cutoff)")
	libraryCmd.Flags().BoolVar(&withDecoys, "decoys", false, "Compute a decoy m/z for every transition")
	libraryCmd.Flags().Int64Var(&libSeed, "seed", 0, "Random seed for decoys (0 = seed from the clock)")
	libraryCmd.Flags().IntVar(&libMaxTries, "max-tries", peptide.DefaultDecoyMaxTries, "Shuffle attempts per decoy")

	libraryCmd.MarkFlagRequired("in")
	libraryCmd.MarkFlagRequired("out")
}

func runLibrary(cmd *cobra.Command, args []string) error {
	// Validate input file exists
	if _, err := os.Stat(inputFile); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", inputFile)
	}

	// Auto-detect format if not specified
	if inputFormat == "" {
		ext := strings.ToLower(filepath.Ext(inputFile))
		switch ext {
		case ".msp":
			inputFormat = "msp"
		case ".sptxt":
			inputFormat = "sptxt"
		default:
			return fmt.Errorf("cannot auto-detect format from extension '%s', please specify --from", ext)
		}
	}
	inputFormat = strings.ToLower(inputFormat)
	if inputFormat != "msp" && inputFormat != "sptxt" {
		return fmt.Errorf("invalid input format '%s', must be msp or sptxt", inputFormat)
	}

	label, err := parseLabel()
	if err != nil {
		return err
	}
	series, err := parseSeries(libSeries)
	if err != nil {
		return err
	}
	modDB, err := loadModDatabase()
	if err != nil {
		return err
	}

	inFile, err := os.Open(inputFile)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer inFile.Close()

	src, err := openLibrary(inFile, modDB)
	if err != nil {
		return err
	}

	writer, err := sqlite.NewWriter(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}
	defer writer.Close()

	cfg := &transition.Config{
		Series: series,
		TopN:   topN,
		Cutoff: cutoff,
		Label:  label,
		Decoys: withDecoys,
		Decoy:  peptide.DecoyOptions{MaxTries: libMaxTries},
	}
	if libSeed != 0 {
		cfg.Decoy.Rand = rand.New(rand.NewSource(libSeed))
	}

	fmt.Printf("Converting %s to %s...\n", inputFile, outputFile)
	fmt.Printf("Format: %s\n", inputFormat)
	fmt.Printf("Ion series: %s\n", libSeries)
	fmt.Printf("Label: %s\n", label)
	if topN > 0 {
		fmt.Printf("Top N filter: %d\n", topN)
	}
	if cutoff > 0 {
		fmt.Printf("Intensity cutoff: %.1f%%\n", cutoff)
	}
	if withDecoys {
		fmt.Printf("Decoys: enabled\n")
	}

	count := 0
	skipped := 0
	unannotated := 0

	for src.Next() {
		entry := src.Entry()

		if err := entry.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			skipped++
			continue
		}

		p, err := peptide.New(entry.Sequence, entry.Modifications, peptide.WithProtein(entry.Protein))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: invalid peptide %s: %v\n", entry.Name(), err)
			skipped++
			continue
		}

		ions := make([]transition.LibraryIon, 0, len(entry.Peaks))
		for _, peak := range entry.Peaks {
			ion, err := transition.ParseIon(peak.Annotation)
			if err != nil {
				unannotated++
				continue
			}
			ions = append(ions, transition.LibraryIon{Ion: ion, Intensity: peak.Intensity, Annotation: peak.Annotation})
		}

		assay, err := cfg.BuildIons(p, entry.Charge, ions)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to build assay %s: %v\n", entry.Name(), err)
			skipped++
			continue
		}
		assay.Source = entry.SourceFormat
		if err := checkPrecursor(entry, assay.PrecursorMZ); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		if len(assay.Transitions) == 0 {
			fmt.Fprintf(os.Stderr, "Warning: no transitions left for %s\n", entry.Name())
			skipped++
			continue
		}

		if err := writer.WriteAssay(assay); err != nil {
			return fmt.Errorf("failed to write assay %s: %w", assay.Name(), err)
		}

		count++
		if count%1000 == 0 {
			fmt.Printf("Processed %d assays...\n", count)
		}
	}

	if err := src.Err(); err != nil {
		return fmt.Errorf("error reading input file: %w", err)
	}

	// Finalize database
	if err := writer.Finalize(); err != nil {
		return fmt.Errorf("failed to finalize database: %w", err)
	}

	fmt.Printf("\nConversion complete!\n")
	fmt.Printf("Processed: %d assays\n", count)
	if skipped > 0 {
		fmt.Printf("Skipped: %d entries (validation errors)\n", skipped)
	}
	if unannotated > 0 {
		fmt.Printf("Ignored: %d unannotated peaks\n", unannotated)
	}
	fmt.Printf("Output: %s\n", outputFile)

	return nil
}

// precursorTolerance bounds the m/z difference between a library precursor
// and the one recomputed from sequence and modifications
const precursorTolerance = 0.01

// checkPrecursor reports a library precursor m/z that disagrees with the
// computed one, which usually means a modification was resolved differently
func checkPrecursor(entry *reader.Entry, computed float64) error {
	if entry.PrecursorMZ <= 0 || math.Abs(entry.PrecursorMZ-computed) <= precursorTolerance {
		return nil
	}
	mods := entry.ModString()
	if mods == "" {
		mods = "none"
	}
	return fmt.Errorf("%s (%s): library precursor %.4f differs from computed %.4f (mods %s, total %.4f Da)",
		entry.Name(), entry.SourceFormat, entry.PrecursorMZ, computed, mods, entry.TotalModMass())
}

// openLibrary returns the reader for inputFormat, decoding --encoding first
func openLibrary(f *os.File, modDB *core.ModDatabase) (reader.Source, error) {
	if inputFormat == "msp" {
		r, err := msp.NewReaderEncoding(f, encoding, modDB)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	if encoding != "" {
		r, err := charset.NewReaderLabel(encoding, f)
		if err != nil {
			return nil, fmt.Errorf("unsupported encoding '%s': %w", encoding, err)
		}
		return sptxt.NewReader(r, modDB), nil
	}
	return sptxt.NewReader(f, modDB), nil
}
