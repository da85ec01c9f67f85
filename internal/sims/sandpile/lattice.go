// Package sandpile implements a self-organized-criticality lattice: random
// unit deposits relax through synchronous toppling waves gated by a
// per-cell activation mask.
package sandpile

import (
	"sandpile/internal/core"
	rngcore "sandpile/pkg/core"
)

// Avalanche is the outcome of one relaxation triggered by a single deposit.
type Avalanche struct {
	Fired int
	Waves int
}

// WaveObserver receives the indices of the cells that fired during one wave.
// The slice is reused between waves.
type WaveObserver func(wave int, fired []int)

// Lattice stores the charge field and activation mask of an M×M grid.
type Lattice struct {
	cfg  Config
	grid core.Square

	charge []int
	next   []int
	active []bool

	fired    []int
	observer WaveObserver

	rng *rngcore.RNG
}

// NewLattice returns a zero-charge lattice configured by cfg.
func NewLattice(cfg Config) (*Lattice, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	grid := core.NewSquare(cfg.Side)
	total := grid.Len()
	return &Lattice{
		cfg:    cfg,
		grid:   grid,
		charge: make([]int, total),
		next:   make([]int, total),
		active: make([]bool, total),
		rng:    rngcore.NewRNG(cfg.Seed),
	}, nil
}

// Config returns the configuration the lattice was built with.
func (l *Lattice) Config() Config { return l.cfg }

// Side returns the lattice side length.
func (l *Lattice) Side() int { return l.grid.Side }

// Grid returns the lattice geometry.
func (l *Lattice) Grid() core.Square { return l.grid }

// Charges exposes the backing charge slice so callers can read/write values directly.
func (l *Lattice) Charges() []int { return l.charge }

// Mask exposes the current activation mask.
func (l *Lattice) Mask() []bool { return l.active }

// SetWaveObserver installs fn to be called after every wave. nil disables it.
func (l *Lattice) SetWaveObserver(fn WaveObserver) { l.observer = fn }

// TotalCharge returns the sum of all cell charges.
func (l *Lattice) TotalCharge() int {
	sum := 0
	for _, v := range l.charge {
		sum += v
	}
	return sum
}

// MeanCharge returns the average charge per cell.
func (l *Lattice) MeanCharge() float64 {
	return float64(l.TotalCharge()) / float64(len(l.charge))
}

// NumExcited counts cells at or above the critical value regardless of the mask.
func (l *Lattice) NumExcited() int {
	n := 0
	for _, v := range l.charge {
		if v >= l.cfg.Critical {
			n++
		}
	}
	return n
}
