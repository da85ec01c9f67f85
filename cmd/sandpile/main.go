package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"sandpile/internal/app"
	"sandpile/internal/config"
	"sandpile/internal/core"
	"sandpile/internal/logging"
	"sandpile/internal/sims/sandpile"
	"sandpile/internal/stats"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sandpile",
		Short: "Sandpile avalanche statistics with a random activation mask",
		Long: `sandpile drops unit charges on a square lattice and relaxes it in
synchronous toppling waves. Only cells in the random activation mask may
fire. After a warm-up it records one line per avalanche.

Examples:
  sandpile -m 64 -n 1000 -1 -2 -a avalanches.dat
  sandpile --probability 0.6 --reset 3 --clusters -a masks.dat
  sandpile --config run.yaml --summary`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := logging.New(cfg.Logging.Level, stderr).WithField("run_id", uuid.NewString())
			return runBatch(cfg, stdout, logger)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	// Flag errors print usage; RunE failures stay terse.
	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		fmt.Fprintln(c.ErrOrStderr(), c.UsageString())
		return err
	})

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "YAML configuration file")
	config.Default().Bind(flags)

	rootCmd.AddCommand(
		newVersionCmd(),
		newParamsCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

// loadConfig merges defaults, the --config file, the environment and the
// command line, then fills in a time-derived seed when none was given.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v, err := config.NewViper(cmd.Flags())
	if err != nil {
		return nil, err
	}
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(v, path)
	if err != nil {
		return nil, err
	}
	overrides, err := cmd.Flags().GetStringToString("set")
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyOverrides(overrides); err != nil {
		return nil, err
	}
	if !cfg.SeedSet {
		cfg.Lattice.Seed = time.Now().UnixNano()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runBatch(cfg *config.Config, stdout io.Writer, log logrus.FieldLogger) error {
	lat, err := sandpile.NewLattice(cfg.LatticeConfig())
	if err != nil {
		return err
	}

	var out io.Writer
	if cfg.Run.Output != "" {
		f, err := os.Create(cfg.Run.Output)
		if err != nil {
			return fmt.Errorf("opening avalanche file %s: %w", cfg.Run.Output, err)
		}
		defer f.Close()
		out = f
	}

	ctrl := app.NewController(lat, app.Options{
		Fields: app.Fields{
			Size:       cfg.Run.Write.Size,
			Waves:      cfg.Run.Write.Waves,
			MeanBefore: cfg.Run.Write.MeanBefore,
			MeanAfter:  cfg.Run.Write.MeanAfter,
			Excited:    cfg.Run.Write.Excited,
		},
		Clusters: cfg.Run.Clusters,
		Inverse:  cfg.Run.Inverse,
	}, log)

	phase := "warm-up"
	throttle := core.NewThrottle(2 * time.Second)
	ctrl.SetProgress(func(done, total int) {
		if done == total || throttle.Ready() {
			log.WithFields(logrus.Fields{"phase": phase, "done": done, "total": total}).Info("progress")
		}
	})

	log.WithFields(logrus.Fields{
		"side":     cfg.Lattice.Side,
		"critical": cfg.Lattice.Critical,
		"p":        cfg.Lattice.Probability,
		"reset":    cfg.Lattice.ResetEvery,
		"max":      cfg.Lattice.MaxAvalanche,
		"seed":     cfg.Lattice.Seed,
		"warmup":   cfg.Run.WarmUp,
		"trials":   cfg.Run.Trials,
	}).Info("starting batch")

	start := time.Now()
	ctrl.WarmUp(cfg.Run.WarmUp)
	phase = "trials"
	sizes, err := ctrl.Run(out, cfg.Run.Trials)
	if err != nil {
		return fmt.Errorf("avalanche file %s: %w", cfg.Run.Output, err)
	}
	if f, ok := out.(*os.File); ok {
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing avalanche file %s: %w", cfg.Run.Output, err)
		}
	}
	log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Info("batch complete")

	if cfg.Run.Summary {
		printSummary(stdout, sizes)
	}
	return nil
}

// histogramFrame is the bin width of the normalized log-size histogram.
const histogramFrame = 0.1

// printSummary reports the normalized log10 avalanche sizes: the moment
// summary followed by a histogram of the non-empty bins.
func printSummary(w io.Writer, sizes []int) {
	norm := stats.Normalize(sizes)
	s, ok := stats.Summarize(norm)
	if !ok {
		fmt.Fprintln(w, "no avalanches with positive size")
		return
	}
	fmt.Fprintf(w, "avalanches\t%d\n", len(sizes))
	fmt.Fprintf(w, "positive\t%d\n", s.Count)
	fmt.Fprintf(w, "median\t%g\n", s.Median)
	fmt.Fprintf(w, "min\t%g\n", s.Min)
	fmt.Fprintf(w, "max\t%g\n", s.Max)
	fmt.Fprintf(w, "p10\t%g\n", s.P10)
	fmt.Fprintf(w, "p90\t%g\n", s.P90)
	fmt.Fprintf(w, "central2\t%g\n", s.Central2)
	fmt.Fprintf(w, "central3\t%g\n", s.Central3)
	fmt.Fprintf(w, "central4\t%g\n", s.Central4)
	fmt.Fprintln(w)
	for _, b := range stats.Histogram(norm, histogramFrame, 1) {
		fmt.Fprintf(w, "%.2f\t%d\n", b.Upper, b.Count)
	}
}
