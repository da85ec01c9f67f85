package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"sandpile/internal/sims/sandpile"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("sandpile", pflag.ContinueOnError)
	Default().Bind(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func load(t *testing.T, path string, args ...string) *Config {
	t.Helper()
	v, err := NewViper(newFlags(t, args...))
	require.NoError(t, err)
	cfg, err := Load(v, path)
	require.NoError(t, err)
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 100, cfg.Lattice.Side)
	assert.Equal(t, 5, cfg.Lattice.Critical)
	assert.Equal(t, 0.8, cfg.Lattice.Probability)
	assert.Equal(t, 0, cfg.Lattice.MaxAvalanche)
	assert.Equal(t, 0, cfg.Lattice.ResetEvery)
	assert.Equal(t, 10000, cfg.Run.Trials)
	assert.Equal(t, 100000, cfg.Run.WarmUp)
	assert.Empty(t, cfg.Run.Output)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadDefaultsOnly(t *testing.T) {
	cfg := load(t, "")
	assert.Equal(t, 100, cfg.Lattice.Side)
	assert.Equal(t, 10000, cfg.Run.Trials)
	assert.False(t, cfg.SeedSet)
	assert.False(t, cfg.Run.Write.Size)
}

func TestLoadFlags(t *testing.T) {
	cfg := load(t, "",
		"--size", "16", "--trials", "7", "--probability", "0.5",
		"--reset", "3", "--warmup", "0", "--max-avalanche", "900",
		"--critical", "4", "--output", "out.dat", "--clusters", "--inverse",
		"--write-size", "--write-waves", "--write-mean-before",
		"--write-mean-after", "--write-excited", "--seed", "42",
		"--log-level", "debug", "--summary",
	)

	assert.Equal(t, 16, cfg.Lattice.Side)
	assert.Equal(t, 7, cfg.Run.Trials)
	assert.Equal(t, 0.5, cfg.Lattice.Probability)
	assert.Equal(t, 3, cfg.Lattice.ResetEvery)
	assert.Equal(t, 0, cfg.Run.WarmUp)
	assert.Equal(t, 900, cfg.Lattice.MaxAvalanche)
	assert.Equal(t, 4, cfg.Lattice.Critical)
	assert.Equal(t, "out.dat", cfg.Run.Output)
	assert.True(t, cfg.Run.Clusters)
	assert.True(t, cfg.Run.Inverse)
	assert.Equal(t, WriteConfig{Size: true, Waves: true, MeanBefore: true, MeanAfter: true, Excited: true}, cfg.Run.Write)
	assert.Equal(t, int64(42), cfg.Lattice.Seed)
	assert.True(t, cfg.SeedSet)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Run.Summary)
}

func TestLoadShortFlags(t *testing.T) {
	cfg := load(t, "", "-m", "8", "-n", "3", "-p", "0.25", "-z", "6", "-a", "x.dat", "-c")
	assert.Equal(t, 8, cfg.Lattice.Side)
	assert.Equal(t, 3, cfg.Run.Trials)
	assert.Equal(t, 0.25, cfg.Lattice.Probability)
	assert.Equal(t, 6, cfg.Lattice.Critical)
	assert.Equal(t, "x.dat", cfg.Run.Output)
	assert.True(t, cfg.Run.Clusters)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sandpile.yaml")
	data := []byte(`lattice:
  side: 32
  probability: 0.6
  seed: 9
run:
  trials: 50
  write:
    size: true
    excited: true
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg := load(t, path)
	assert.Equal(t, 32, cfg.Lattice.Side)
	assert.Equal(t, 0.6, cfg.Lattice.Probability)
	assert.Equal(t, int64(9), cfg.Lattice.Seed)
	assert.True(t, cfg.SeedSet)
	assert.Equal(t, 50, cfg.Run.Trials)
	assert.True(t, cfg.Run.Write.Size)
	assert.True(t, cfg.Run.Write.Excited)
	assert.False(t, cfg.Run.Write.Waves)
	// untouched keys keep defaults
	assert.Equal(t, 5, cfg.Lattice.Critical)
	assert.Equal(t, 100000, cfg.Run.WarmUp)
}

func TestFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sandpile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lattice:\n  side: 32\n"), 0o644))

	cfg := load(t, path, "--size", "12")
	assert.Equal(t, 12, cfg.Lattice.Side)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sandpile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("run:\n  trials: 5\n"), 0o644))
	t.Setenv("SANDPILE_RUN_TRIALS", "77")
	t.Setenv("SANDPILE_LATTICE_SEED", "3")

	cfg := load(t, path)
	assert.Equal(t, 77, cfg.Run.Trials)
	assert.Equal(t, int64(3), cfg.Lattice.Seed)
	assert.True(t, cfg.SeedSet)
}

func TestLoadMissingFile(t *testing.T) {
	v, err := NewViper(newFlags(t))
	require.NoError(t, err)
	_, err = Load(v, filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "nope.yaml")
}

func TestUnknownFlagRejected(t *testing.T) {
	fs := pflag.NewFlagSet("sandpile", pflag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})
	Default().Bind(fs)
	assert.Error(t, fs.Parse([]string{"--bogus"}))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		lattice bool
	}{
		{"negative trials", func(c *Config) { c.Run.Trials = -1 }, false},
		{"negative warmup", func(c *Config) { c.Run.WarmUp = -1 }, false},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, false},
		{"zero side", func(c *Config) { c.Lattice.Side = 0 }, true},
		{"probability above one", func(c *Config) { c.Lattice.Probability = 1.5 }, true},
		{"negative cap", func(c *Config) { c.Lattice.MaxAvalanche = -2 }, true},
		{"negative reset", func(c *Config) { c.Lattice.ResetEvery = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, tt.lattice, errors.Is(err, sandpile.ErrInvalidConfig))
		})
	}
}

func TestLatticeConfig(t *testing.T) {
	cfg := Default()
	cfg.Lattice.Side = 20
	cfg.Lattice.Seed = 11
	got := cfg.LatticeConfig()
	assert.Equal(t, 20, got.Side)
	assert.Equal(t, int64(11), got.Seed)
	assert.Equal(t, 5, got.Critical)
}

func TestApplyOverrides(t *testing.T) {
	cfg := load(t, "", "--size", "20", "--set", "zc=7", "--set", "p=0.3,seed=4")
	require.False(t, cfg.SeedSet)

	fs := newFlags(t, "--set", "zc=7", "--set", "p=0.3,seed=4")
	kv, err := fs.GetStringToString("set")
	require.NoError(t, err)
	require.NoError(t, cfg.ApplyOverrides(kv))

	assert.Equal(t, 20, cfg.Lattice.Side)
	assert.Equal(t, 7, cfg.Lattice.Critical)
	assert.Equal(t, 0.3, cfg.Lattice.Probability)
	assert.Equal(t, int64(4), cfg.Lattice.Seed)
	assert.True(t, cfg.SeedSet)
}

func TestApplyOverridesRejectsUnknownKey(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyOverrides(map[string]string{"width": "3"})
	assert.ErrorContains(t, err, "width=3")
	assert.Equal(t, Default().Lattice, cfg.Lattice)
}

func TestDump(t *testing.T) {
	cfg := Default()
	cfg.Run.Output = "a.dat"

	var buf bytes.Buffer
	require.NoError(t, cfg.Dump(&buf))

	var back Config
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, cfg.Lattice, back.Lattice)
	assert.Equal(t, "a.dat", back.Run.Output)
	assert.NotContains(t, buf.String(), "seedset")
}
