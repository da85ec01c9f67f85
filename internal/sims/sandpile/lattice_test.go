package sandpile

import (
	"errors"
	"math"
	"slices"
	"strings"
	"testing"
)

func newTestLattice(t *testing.T, cfg Config) *Lattice {
	t.Helper()
	l, err := NewLattice(cfg)
	if err != nil {
		t.Fatalf("NewLattice: %v", err)
	}
	return l
}

func activateAll(l *Lattice) {
	for i := range l.active {
		l.active[i] = true
	}
}

func TestNewLatticeRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero side", func(c *Config) { c.Side = 0 }},
		{"negative side", func(c *Config) { c.Side = -4 }},
		{"probability above one", func(c *Config) { c.Probability = 1.01 }},
		{"negative probability", func(c *Config) { c.Probability = -0.1 }},
		{"nan probability", func(c *Config) { c.Probability = math.NaN() }},
		{"negative cap", func(c *Config) { c.MaxAvalanche = -1 }},
		{"negative cadence", func(c *Config) { c.ResetEvery = -2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			l, err := NewLattice(cfg)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("error %v does not wrap ErrInvalidConfig", err)
			}
			if l != nil {
				t.Fatal("expected nil lattice on error")
			}
		})
	}
}

func TestNewLatticeAcceptsEdgeValues(t *testing.T) {
	for _, cfg := range []Config{
		{Side: 1, Critical: -3, Probability: 0},
		{Side: 2, Critical: 0, Probability: 1},
	} {
		l := newTestLattice(t, cfg)
		if got := len(l.Charges()); got != cfg.Side*cfg.Side {
			t.Fatalf("lattice holds %d cells, want %d", got, cfg.Side*cfg.Side)
		}
	}
}

func TestMeanChargeAndExcited(t *testing.T) {
	l := newTestLattice(t, Config{Side: 2, Critical: 4, Probability: 1})
	copy(l.Charges(), []int{4, 0, -2, 6})

	if got := l.MeanCharge(); got != 2 {
		t.Fatalf("MeanCharge = %v, want 2", got)
	}
	if got := l.TotalCharge(); got != 8 {
		t.Fatalf("TotalCharge = %d, want 8", got)
	}
	if got := l.NumExcited(); got != 2 {
		t.Fatalf("NumExcited = %d, want 2", got)
	}
}

func TestFromMap(t *testing.T) {
	c := FromMap(map[string]string{"m": "7", "zc": "3", "p": "0.25", "max": "90", "reset": "2", "seed": "11", "bogus": "x"})
	want := Config{Side: 7, Critical: 3, Probability: 0.25, MaxAvalanche: 90, ResetEvery: 2, Seed: 11}
	if c != want {
		t.Fatalf("FromMap = %+v, want %+v", c, want)
	}

	if got := FromMap(map[string]string{"m": "many"}); got != DefaultConfig() {
		t.Fatalf("unparseable value should keep defaults, got %+v", got)
	}
	if got := FromMap(nil); got != DefaultConfig() {
		t.Fatalf("nil map should yield defaults, got %+v", got)
	}
}

func TestOverride(t *testing.T) {
	base := Config{Side: 10, Critical: 4, Probability: 0.5, Seed: 2}

	got, err := base.Override(map[string]string{"zc": "6", "reset": "3"})
	if err != nil {
		t.Fatalf("Override: %v", err)
	}
	want := Config{Side: 10, Critical: 6, Probability: 0.5, ResetEvery: 3, Seed: 2}
	if got != want {
		t.Fatalf("Override = %+v, want %+v", got, want)
	}

	got, err = base.Override(map[string]string{"m": "12", "p": "lots", "colour": "red"})
	if err == nil {
		t.Fatal("expected error for bad value and unknown key")
	}
	for _, frag := range []string{"p=lots", "colour=red"} {
		if !strings.Contains(err.Error(), frag) {
			t.Errorf("error %q does not mention %q", err, frag)
		}
	}
	if got.Side != 12 || got.Probability != 0.5 {
		t.Fatalf("parseable keys should still apply, got %+v", got)
	}
}

func TestParametersSnapshot(t *testing.T) {
	l := newTestLattice(t, Config{Side: 9, Critical: 4, Probability: 0.5, ResetEvery: 3, Seed: 5})
	snap := l.Parameters()

	for key, want := range map[string]string{"m": "9", "zc": "4", "p": "0.5", "reset": "3", "max": "0", "seed": "5"} {
		p, ok := snap.Lookup(key)
		if !ok {
			t.Fatalf("snapshot missing %q", key)
		}
		if p.Value != want {
			t.Fatalf("%s = %q, want %q", key, p.Value, want)
		}
	}
}

func TestSeparateLatticesDoNotShareState(t *testing.T) {
	cfg := Config{Side: 4, Critical: 4, Probability: 1, Seed: 3}
	a := newTestLattice(t, cfg)
	b := newTestLattice(t, cfg)

	a.Charges()[0] = 10
	if b.Charges()[0] != 0 {
		t.Fatal("lattices built from the same config must not share charge storage")
	}
	a.Avalanche()
	if slices.Equal(a.Charges(), b.Charges()) {
		t.Fatal("an avalanche on one lattice should not affect another")
	}
}
