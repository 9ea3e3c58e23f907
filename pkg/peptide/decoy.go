package peptide

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/ChrisMcGann/pepcalc/pkg/core"
)

// Decoy search defaults
const (
	DefaultDecoyTolerance = 0.001
	DefaultDecoyMaxTries  = 1000
)

// DecoyOptions configures GenerateDecoy. Zero values select the defaults;
// negative Tolerance or MaxTries is an error.
type DecoyOptions struct {
	Tolerance float64    // minimum |decoy - blacklisted| m/z distance
	MaxTries  int        // shuffle attempts before giving up
	Label     core.Label // labeling applied to the decoy fragment
	Rand      *rand.Rand // shuffle source; nil seeds from the clock
}

func (o DecoyOptions) withDefaults() (DecoyOptions, error) {
	if o.Tolerance < 0 || math.IsNaN(o.Tolerance) {
		return o, fmt.Errorf("invalid decoy tolerance %v", o.Tolerance)
	}
	if o.MaxTries < 0 {
		return o, fmt.Errorf("invalid decoy max tries %d", o.MaxTries)
	}

	if o.Tolerance == 0 {
		o.Tolerance = DefaultDecoyTolerance
	}
	if o.MaxTries == 0 {
		o.MaxTries = DefaultDecoyMaxTries
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o, nil
}

// GenerateDecoy shuffles all but the C-terminal residue until the fragment
// of series at position and charge lies more than opts.Tolerance away from
// every blacklist m/z, and returns that fragment m/z. If no shuffle succeeds
// within opts.MaxTries the last computed m/z is returned without error.
//
// A b ion spanning the whole peptide leaves nothing to vary, so the search
// then targets the b ion one residue shorter. A single residue has no
// shorter b ion and keeps its b1.
//
// The residue order is restored before returning.
func (p *Peptide) GenerateDecoy(series IonSeries, position, charge int, blacklist []float64, opts DecoyOptions) (float64, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return 0, err
	}

	if series == SeriesB && position > 1 && position > len(p.residues)-1 {
		position--
	}

	// fail fast on invalid queries before touching the sequence
	if _, err := p.FragmentMZ(series, position, charge, opts.Label, 0); err != nil {
		return 0, err
	}

	original := p.Residues()
	defer func() { copy(p.residues, original) }()

	var mz float64
	for try := 0; try < opts.MaxTries; try++ {
		p.ShuffleInPlace(opts.Rand)

		var err error
		mz, err = p.FragmentMZ(series, position, charge, opts.Label, 0)
		if err != nil {
			return 0, err
		}
		if clearOf(mz, blacklist, opts.Tolerance) {
			return mz, nil
		}
	}

	return mz, nil
}

func clearOf(mz float64, blacklist []float64, tolerance float64) bool {
	for _, b := range blacklist {
		if math.Abs(mz-b) <= tolerance {
			return false
		}
	}
	return true
}
