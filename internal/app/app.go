// Package app drives a sandpile engine through a warm-up and a measured
// batch, composing one record per trial.
package app

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"sandpile/internal/logging"
	"sandpile/internal/render"
	"sandpile/internal/sims/sandpile"
	"sandpile/internal/stats"
)

// Engine is the lattice surface the controller needs.
type Engine interface {
	Avalanche() sandpile.Avalanche
	MeanCharge() float64
	NumExcited() int
	Clusters(invert bool) []int
}

// Fields selects the scalar columns written per trial.
type Fields struct {
	Size       bool
	Waves      bool
	MeanBefore bool
	MeanAfter  bool
	Excited    bool
}

// Options configures a Controller.
type Options struct {
	Fields Fields
	// Clusters appends statistics of the activation-mask cluster sizes.
	Clusters bool
	// Inverse measures clusters of inactive cells.
	Inverse bool
}

// missing fills the cluster columns of a trial with no clusters.
const missing = "nan"

var clusterSuffixes = []string{
	"count", "median", "min", "max", "mean",
	"raw2", "raw3", "raw4",
	"central2", "central3", "central4",
}

// Controller runs trials against an Engine and writes their records.
type Controller struct {
	engine   Engine
	opts     Options
	log      logrus.FieldLogger
	progress func(done, total int)
}

// NewController wraps engine. A nil logger discards log output.
func NewController(engine Engine, opts Options, logger logrus.FieldLogger) *Controller {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Controller{engine: engine, opts: opts, log: logger}
}

// SetProgress installs fn to be called after every warm-up and measured
// trial. nil disables it.
func (c *Controller) SetProgress(fn func(done, total int)) { c.progress = fn }

// Columns returns the header names in record order.
func (c *Controller) Columns() []string {
	var cols []string
	f := c.opts.Fields
	if f.Size {
		cols = append(cols, "size")
	}
	if f.Waves {
		cols = append(cols, "waves")
	}
	if f.MeanBefore {
		cols = append(cols, "mean_before")
	}
	if f.MeanAfter {
		cols = append(cols, "mean_after")
	}
	if f.Excited {
		cols = append(cols, "excited")
	}
	if c.opts.Clusters {
		prefix := "cluster_"
		if c.opts.Inverse {
			prefix = "inverse_cluster_"
		}
		for _, s := range clusterSuffixes {
			cols = append(cols, prefix+s)
		}
	}
	return cols
}

// WarmUp runs n avalanches and discards them.
func (c *Controller) WarmUp(n int) {
	for i := 0; i < n; i++ {
		c.engine.Avalanche()
		if c.progress != nil {
			c.progress(i+1, n)
		}
	}
	c.log.WithField("avalanches", n).Debug("warm-up complete")
}

// Run performs n measured trials. When out is non-nil it receives a header,
// one record per trial and a terminating blank line. The avalanche sizes are
// returned in trial order.
func (c *Controller) Run(out io.Writer, n int) ([]int, error) {
	w := render.NewWriter(out)
	w.Header(c.Columns())

	sizes := make([]int, 0, n)
	vals := make([]any, 0, 16)
	for i := 0; i < n; i++ {
		before := c.engine.MeanCharge()
		av := c.engine.Avalanche()
		after := c.engine.MeanCharge()
		sizes = append(sizes, av.Fired)

		if w.Enabled() {
			vals = c.record(vals[:0], av, before, after)
			w.Record(vals...)
		}
		if c.progress != nil {
			c.progress(i+1, n)
		}
	}
	w.End()
	if err := w.Err(); err != nil {
		return sizes, fmt.Errorf("writing records: %w", err)
	}

	if s, ok := stats.Summarize(sizes); ok {
		c.log.WithFields(logrus.Fields{
			"trials": s.Count,
			"mean":   s.Mean,
			"median": s.Median,
			"max":    s.Max,
		}).Debug("batch complete")
	}
	return sizes, nil
}

func (c *Controller) record(vals []any, av sandpile.Avalanche, before, after float64) []any {
	f := c.opts.Fields
	if f.Size {
		vals = append(vals, av.Fired)
	}
	if f.Waves {
		vals = append(vals, av.Waves)
	}
	if f.MeanBefore {
		vals = append(vals, before)
	}
	if f.MeanAfter {
		vals = append(vals, after)
	}
	if f.Excited {
		vals = append(vals, c.engine.NumExcited())
	}
	if c.opts.Clusters {
		s, ok := stats.Summarize(c.engine.Clusters(c.opts.Inverse))
		if !ok {
			// keep rows aligned with the header
			for range clusterSuffixes {
				vals = append(vals, missing)
			}
			return vals
		}
		vals = append(vals,
			s.Count, s.Median, s.Min, s.Max, s.Mean,
			s.Raw2, s.Raw3, s.Raw4,
			s.Central2, s.Central3, s.Central4,
		)
	}
	return vals
}
