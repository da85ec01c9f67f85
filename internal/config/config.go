// Package config provides unified configuration loading for sandpile.
// Values are merged in the order defaults -> YAML file -> SANDPILE_*
// environment variables -> command-line flags.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"sandpile/internal/sims/sandpile"
)

// EnvPrefix is prepended to every environment override, e.g.
// SANDPILE_LATTICE_SIDE or SANDPILE_RUN_TRIALS.
const EnvPrefix = "SANDPILE"

// Config contains all sandpile settings.
type Config struct {
	// Lattice holds the model parameters.
	Lattice LatticeConfig `yaml:"lattice" mapstructure:"lattice"`

	// Run controls the batch and the output record.
	Run RunConfig `yaml:"run" mapstructure:"run"`

	// Logging contains settings for operational logging.
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// SeedSet records whether a seed was supplied by file, env or flag.
	// When false the caller picks a time-derived seed.
	SeedSet bool `yaml:"-" mapstructure:"-"`
}

// LatticeConfig mirrors sandpile.Config.
type LatticeConfig struct {
	Side         int     `yaml:"side" mapstructure:"side"`
	Critical     int     `yaml:"critical" mapstructure:"critical"`
	Probability  float64 `yaml:"probability" mapstructure:"probability"`
	MaxAvalanche int     `yaml:"max_avalanche" mapstructure:"max_avalanche"`
	ResetEvery   int     `yaml:"reset_every" mapstructure:"reset_every"`
	Seed         int64   `yaml:"seed" mapstructure:"seed"`
}

// RunConfig configures the measured batch.
type RunConfig struct {
	// Trials is the number of measured avalanches.
	Trials int `yaml:"trials" mapstructure:"trials"`

	// WarmUp avalanches run first and are discarded.
	WarmUp int `yaml:"warmup" mapstructure:"warmup"`

	// Output is the avalanche file. Empty disables record output.
	Output string `yaml:"output" mapstructure:"output"`

	// Write selects the per-trial scalar columns.
	Write WriteConfig `yaml:"write" mapstructure:"write"`

	// Clusters appends cluster statistics of the activation mask.
	Clusters bool `yaml:"clusters" mapstructure:"clusters"`

	// Inverse measures clusters of inactive cells instead.
	Inverse bool `yaml:"inverse" mapstructure:"inverse"`

	// Summary prints a normalized summary of the avalanche sizes to stdout.
	Summary bool `yaml:"summary" mapstructure:"summary"`
}

// WriteConfig selects record columns.
type WriteConfig struct {
	Size       bool `yaml:"size" mapstructure:"size"`
	Waves      bool `yaml:"waves" mapstructure:"waves"`
	MeanBefore bool `yaml:"mean_before" mapstructure:"mean_before"`
	MeanAfter  bool `yaml:"mean_after" mapstructure:"mean_after"`
	Excited    bool `yaml:"excited" mapstructure:"excited"`
}

// LoggingConfig configures operational logging.
type LoggingConfig struct {
	// Level sets the log verbosity: "debug", "info" (default), "warn" or "error".
	Level string `yaml:"level" mapstructure:"level"`
}

// Default returns a Config with the standard batch settings.
func Default() *Config {
	lat := sandpile.DefaultConfig()
	return &Config{
		Lattice: LatticeConfig{
			Side:         lat.Side,
			Critical:     lat.Critical,
			Probability:  lat.Probability,
			MaxAvalanche: lat.MaxAvalanche,
			ResetEvery:   lat.ResetEvery,
			Seed:         lat.Seed,
		},
		Run: RunConfig{
			Trials: 10000,
			WarmUp: 100000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = []struct{ flag, key string }{
	{"write-size", "run.write.size"},
	{"write-waves", "run.write.waves"},
	{"write-mean-before", "run.write.mean_before"},
	{"write-mean-after", "run.write.mean_after"},
	{"write-excited", "run.write.excited"},
	{"output", "run.output"},
	{"clusters", "run.clusters"},
	{"inverse", "run.inverse"},
	{"trials", "run.trials"},
	{"warmup", "run.warmup"},
	{"summary", "run.summary"},
	{"size", "lattice.side"},
	{"probability", "lattice.probability"},
	{"reset", "lattice.reset_every"},
	{"max-avalanche", "lattice.max_avalanche"},
	{"critical", "lattice.critical"},
	{"seed", "lattice.seed"},
	{"log-level", "logging.level"},
}

// Bind registers the command-line flags on fs, using c's values as defaults.
func (c *Config) Bind(fs *pflag.FlagSet) {
	fs.BoolP("write-size", "1", c.Run.Write.Size, "write avalanche size")
	fs.BoolP("write-waves", "2", c.Run.Write.Waves, "write avalanche length in waves")
	fs.BoolP("write-mean-before", "3", c.Run.Write.MeanBefore, "write mean charge before the avalanche")
	fs.BoolP("write-mean-after", "4", c.Run.Write.MeanAfter, "write mean charge after the avalanche")
	fs.BoolP("write-excited", "5", c.Run.Write.Excited, "write number of excited cells")
	fs.StringP("output", "a", c.Run.Output, "avalanche file path")
	fs.BoolP("clusters", "c", c.Run.Clusters, "add cluster statistics to the avalanche file")
	fs.BoolP("inverse", "i", c.Run.Inverse, "measure clusters of inactive cells")
	fs.IntP("size", "m", c.Lattice.Side, "lattice side size")
	fs.IntP("trials", "n", c.Run.Trials, "number of measured runs")
	fs.Float64P("probability", "p", c.Lattice.Probability, "probability of activity")
	fs.IntP("reset", "r", c.Lattice.ResetEvery, "activity reset frequency in waves (0 = once per avalanche)")
	fs.IntP("warmup", "s", c.Run.WarmUp, "number of dry runs")
	fs.IntP("max-avalanche", "x", c.Lattice.MaxAvalanche, "max avalanche size (0 = unbounded)")
	fs.IntP("critical", "z", c.Lattice.Critical, "critical value")
	fs.Int64("seed", c.Lattice.Seed, "random seed (default: time-derived)")
	fs.Bool("summary", c.Run.Summary, "print a normalized avalanche-size summary to stdout")
	fs.String("log-level", c.Logging.Level, "log level: debug, info, warn, error")
	fs.StringToString("set", nil, "lattice override key=value, keys m, zc, p, max, reset, seed (repeatable)")
}

// ApplyOverrides applies --set style lattice overrides on top of c. A seed
// override counts as an explicit seed.
func (c *Config) ApplyOverrides(kv map[string]string) error {
	if len(kv) == 0 {
		return nil
	}
	lat, err := c.LatticeConfig().Override(kv)
	if err != nil {
		return fmt.Errorf("applying --set: %w", err)
	}
	c.Lattice = LatticeConfig{
		Side:         lat.Side,
		Critical:     lat.Critical,
		Probability:  lat.Probability,
		MaxAvalanche: lat.MaxAvalanche,
		ResetEvery:   lat.ResetEvery,
		Seed:         lat.Seed,
	}
	if _, ok := kv["seed"]; ok {
		c.SeedSet = true
	}
	return nil
}

// NewViper returns a viper instance seeded with defaults, the SANDPILE_
// environment and the flags registered by Bind.
func NewViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v, Default())

	for _, fk := range flagKeys {
		flag := fs.Lookup(fk.flag)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(fk.key, flag); err != nil {
			return nil, fmt.Errorf("binding flag %s: %w", fk.flag, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v, nil
}

// setDefaults registers every key except the seed, whose presence is
// detected with IsSet.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("lattice.side", d.Lattice.Side)
	v.SetDefault("lattice.critical", d.Lattice.Critical)
	v.SetDefault("lattice.probability", d.Lattice.Probability)
	v.SetDefault("lattice.max_avalanche", d.Lattice.MaxAvalanche)
	v.SetDefault("lattice.reset_every", d.Lattice.ResetEvery)

	v.SetDefault("run.trials", d.Run.Trials)
	v.SetDefault("run.warmup", d.Run.WarmUp)
	v.SetDefault("run.output", d.Run.Output)
	v.SetDefault("run.clusters", d.Run.Clusters)
	v.SetDefault("run.inverse", d.Run.Inverse)
	v.SetDefault("run.summary", d.Run.Summary)
	v.SetDefault("run.write.size", d.Run.Write.Size)
	v.SetDefault("run.write.waves", d.Run.Write.Waves)
	v.SetDefault("run.write.mean_before", d.Run.Write.MeanBefore)
	v.SetDefault("run.write.mean_after", d.Run.Write.MeanAfter)
	v.SetDefault("run.write.excited", d.Run.Write.Excited)

	v.SetDefault("logging.level", d.Logging.Level)
}

// Load reads the optional YAML file at path into v and decodes the merged
// configuration. It does not validate.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.SeedSet = v.IsSet("lattice.seed")
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Run.Trials < 0 {
		return fmt.Errorf("trials must be non-negative, got %d", c.Run.Trials)
	}
	if c.Run.WarmUp < 0 {
		return fmt.Errorf("warmup must be non-negative, got %d", c.Run.WarmUp)
	}

	validLevels := map[string]bool{"": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	return c.LatticeConfig().Validate()
}

// LatticeConfig converts the lattice section into a sandpile.Config.
func (c *Config) LatticeConfig() sandpile.Config {
	return sandpile.Config{
		Side:         c.Lattice.Side,
		Critical:     c.Lattice.Critical,
		Probability:  c.Lattice.Probability,
		MaxAvalanche: c.Lattice.MaxAvalanche,
		ResetEvery:   c.Lattice.ResetEvery,
		Seed:         c.Lattice.Seed,
	}
}

// Dump writes c as YAML.
func (c *Config) Dump(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}
