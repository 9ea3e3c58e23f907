// Package transition builds precursor/fragment transition lists (assays) for
// peptides, optionally paired with decoy fragment m/z values.
package transition

import (
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/ChrisMcGann/pepcalc/pkg/core"
	"github.com/ChrisMcGann/pepcalc/pkg/peptide"
)

// Transition is one fragment ion of an assay
type Transition struct {
	Ion        peptide.Ion
	MZ         float64
	DecoyMZ    float64 // 0 unless decoys were requested
	Intensity  float64 // library intensity, 0 for theoretical ions
	Annotation string
}

// Assay is a peptide precursor with its transitions
type Assay struct {
	Peptide     *peptide.Peptide
	Charge      int
	Label       core.Label
	PrecursorMZ float64
	Transitions []Transition
	Source      string // library format the assay was read from, empty for theoretical
}

// Name returns the assay name in format "Sequence/Charge"
func (a *Assay) Name() string {
	return fmt.Sprintf("%s/%d", a.Peptide.AnnotatedSequence(), a.Charge)
}

// Config holds transition generation settings
type Config struct {
	Series      []peptide.IonSeries // series to keep (nil = b and y)
	Charges     []int               // fragment charges for Build (nil = 1)
	MinPosition int                 // shortest fragment for Build (0 = 1)
	TopN        int                 // keep only top N most intense ions (0 = no limit)
	Cutoff      float64             // keep only ions above this % of the most intense (0 = no cutoff)
	Label       core.Label
	Loss        float64 // neutral loss/gain applied to every fragment
	Decoys      bool
	Decoy       peptide.DecoyOptions
}

// LibraryIon is a fragment ion observed in a spectral library.
type LibraryIon struct {
	Ion        peptide.Ion
	Intensity  float64
	Annotation string
}

func (c *Config) series() []peptide.IonSeries {
	if len(c.Series) == 0 {
		return []peptide.IonSeries{peptide.SeriesB, peptide.SeriesY}
	}
	return c.Series
}

func (c *Config) charges() []int {
	if len(c.Charges) == 0 {
		return []int{1}
	}
	return c.Charges
}

// Build enumerates every fragment of the configured series and charges,
// from MinPosition up to one residue short of the full peptide.
func (c *Config) Build(p *peptide.Peptide, precursorCharge int) (*Assay, error) {
	minPos := c.MinPosition
	if minPos < 1 {
		minPos = 1
	}

	var ions []LibraryIon
	for _, series := range c.series() {
		if series == peptide.SeriesPrecursor {
			continue
		}
		for _, charge := range c.charges() {
			for pos := minPos; pos < p.Len(); pos++ {
				ion := peptide.Ion{Series: series, Position: pos, Charge: charge}
				ions = append(ions, LibraryIon{Ion: ion, Annotation: ion.String()})
			}
		}
	}

	return c.BuildIons(p, precursorCharge, ions)
}

// BuildIons computes target (and decoy) m/z values for the given ions after
// applying the series, intensity cutoff and top-N filters. Every target m/z
// of the assay is blacklisted for the decoy search.
func (c *Config) BuildIons(p *peptide.Peptide, precursorCharge int, ions []LibraryIon) (*Assay, error) {
	precursorMZ, err := p.PrecursorMZ(precursorCharge, c.Label)
	if err != nil {
		return nil, fmt.Errorf("precursor %s/%d: %w", p, precursorCharge, err)
	}

	assay := &Assay{
		Peptide:     p,
		Charge:      precursorCharge,
		Label:       c.Label,
		PrecursorMZ: precursorMZ,
	}

	ions = c.filterTopN(c.filterByIntensity(c.filterBySeries(ions)))
	for _, li := range ions {
		mz, err := p.IonMZ(li.Ion, c.Label, c.Loss)
		if err != nil {
			return nil, fmt.Errorf("ion %s of %s: %w", li.Ion, p, err)
		}
		assay.Transitions = append(assay.Transitions, Transition{
			Ion:        li.Ion,
			MZ:         mz,
			Intensity:  li.Intensity,
			Annotation: li.Annotation,
		})
	}

	if c.Decoys {
		if err := c.addDecoys(assay); err != nil {
			return nil, err
		}
	}

	return assay, nil
}

func (c *Config) addDecoys(assay *Assay) error {
	// decoys are searched without the loss, so compare against loss-free targets
	blacklist := make([]float64, len(assay.Transitions))
	for i, tr := range assay.Transitions {
		blacklist[i] = tr.MZ - c.lossMZ(tr.Ion)
	}

	opts := c.Decoy
	opts.Label = c.Label
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	for i := range assay.Transitions {
		tr := &assay.Transitions[i]
		decoy, err := assay.Peptide.GenerateDecoy(tr.Ion.Series, tr.Ion.Position, tr.Ion.Charge, blacklist, opts)
		if err != nil {
			return fmt.Errorf("decoy for %s of %s: %w", tr.Ion, assay.Peptide, err)
		}
		tr.DecoyMZ = decoy + c.lossMZ(tr.Ion)
	}
	return nil
}

// lossMZ is the m/z contribution of Loss to ion
func (c *Config) lossMZ(ion peptide.Ion) float64 {
	if ion.Series == peptide.SeriesPrecursor {
		return 0
	}
	return c.Loss / float64(ion.Charge)
}

// filterBySeries keeps only ions of the configured series
func (c *Config) filterBySeries(ions []LibraryIon) []LibraryIon {
	allowed := make(map[peptide.IonSeries]bool)
	for _, s := range c.series() {
		allowed[s] = true
	}

	var filtered []LibraryIon
	for _, li := range ions {
		if allowed[li.Ion.Series] {
			filtered = append(filtered, li)
		}
	}
	return filtered
}

// filterByIntensity removes ions below the intensity cutoff percentage
func (c *Config) filterByIntensity(ions []LibraryIon) []LibraryIon {
	if c.Cutoff <= 0 || len(ions) == 0 {
		return ions
	}

	maxIntensity := 0.0
	for _, li := range ions {
		if li.Intensity > maxIntensity {
			maxIntensity = li.Intensity
		}
	}
	threshold := (c.Cutoff / 100.0) * maxIntensity

	var filtered []LibraryIon
	for _, li := range ions {
		if li.Intensity >= threshold {
			filtered = append(filtered, li)
		}
	}
	return filtered
}

// filterTopN keeps only the N most intense ions, preserving input order
func (c *Config) filterTopN(ions []LibraryIon) []LibraryIon {
	if c.TopN <= 0 || len(ions) <= c.TopN {
		return ions
	}

	idx := make([]int, len(ions))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return ions[idx[i]].Intensity > ions[idx[j]].Intensity
	})
	keep := idx[:c.TopN]
	sort.Ints(keep)

	filtered := make([]LibraryIon, 0, c.TopN)
	for _, i := range keep {
		filtered = append(filtered, ions[i])
	}
	return filtered
}

var ionAnnotation = regexp.MustCompile(`^([abcxyzp])(\d*)(?:\^(\d+))?`)

// ParseIon parses annotations like "y3", "b2^2", "y10^3/0.002" or "p^2".
// Annotations with a trailing loss ("y3-18") parse as their base ion.
func ParseIon(annotation string) (peptide.Ion, error) {
	matches := ionAnnotation.FindStringSubmatch(annotation)
	if matches == nil {
		return peptide.Ion{}, fmt.Errorf("invalid ion annotation format: %s", annotation)
	}

	ion := peptide.Ion{
		Series: peptide.IonSeries(matches[1][0]),
		Charge: 1,
	}

	if matches[2] != "" {
		pos, err := strconv.Atoi(matches[2])
		if err != nil {
			return peptide.Ion{}, fmt.Errorf("invalid position in annotation %s: %w", annotation, err)
		}
		ion.Position = pos
	} else if ion.Series != peptide.SeriesPrecursor {
		return peptide.Ion{}, fmt.Errorf("missing position in annotation %s", annotation)
	}

	if matches[3] != "" {
		charge, err := strconv.Atoi(matches[3])
		if err != nil {
			return peptide.Ion{}, fmt.Errorf("invalid charge in annotation %s: %w", annotation, err)
		}
		ion.Charge = charge
	}

	return ion, nil
}

// ParseSeriesList parses a list of one-letter series names.
func ParseSeriesList(names []string) ([]peptide.IonSeries, error) {
	series := make([]peptide.IonSeries, 0, len(names))
	for _, name := range names {
		s, err := peptide.ParseIonSeries(name)
		if err != nil {
			return nil, err
		}
		series = append(series, s)
	}
	return series, nil
}
