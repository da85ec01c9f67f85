package sandpile

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalidConfig is returned when lattice parameters violate a
// construction precondition.
var ErrInvalidConfig = errors.New("invalid lattice configuration")

// Config controls the lattice geometry and dynamics.
type Config struct {
	// Side is the lattice side length M; the grid holds Side*Side cells.
	Side int
	// Critical is the charge zc at or above which an active cell fires.
	Critical int
	// Probability is the per-cell activation probability in [0, 1].
	Probability float64
	// MaxAvalanche caps the fired count of one avalanche. 0 means unbounded.
	MaxAvalanche int
	// ResetEvery resamples the activation mask every k waves. 0 resamples
	// once per avalanche.
	ResetEvery int

	Seed int64
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Side:        100,
		Critical:    5,
		Probability: 0.8,
		Seed:        1337,
	}
}

// Validate checks the construction preconditions.
func (c Config) Validate() error {
	if c.Side < 1 {
		return fmt.Errorf("%w: side %d must be at least 1", ErrInvalidConfig, c.Side)
	}
	if math.IsNaN(c.Probability) || c.Probability < 0 || c.Probability > 1 {
		return fmt.Errorf("%w: probability %v outside [0,1]", ErrInvalidConfig, c.Probability)
	}
	if c.MaxAvalanche < 0 {
		return fmt.Errorf("%w: avalanche cap %d is negative", ErrInvalidConfig, c.MaxAvalanche)
	}
	if c.ResetEvery < 0 {
		return fmt.Errorf("%w: reset cadence %d is negative", ErrInvalidConfig, c.ResetEvery)
	}
	return nil
}

// FromMap populates the config from a string map (flag-style key/value pairs).
// Unparseable values keep their defaults; range checks are left to Validate.
func FromMap(cfg map[string]string) Config {
	c, _ := DefaultConfig().Override(cfg)
	return c
}

// Override applies flag-style key/value pairs (keys m, zc, p, max, reset,
// seed) on top of c. Every parseable value is applied; unknown keys and
// unparseable values are reported together. Range checks are left to Validate.
func (c Config) Override(kv map[string]string) (Config, error) {
	var errs []error
	for key, v := range kv {
		var err error
		switch key {
		case "m":
			err = setInt(&c.Side, v)
		case "zc":
			err = setInt(&c.Critical, v)
		case "p":
			var parsed float64
			if parsed, err = strconv.ParseFloat(v, 64); err == nil {
				c.Probability = parsed
			}
		case "max":
			err = setInt(&c.MaxAvalanche, v)
		case "reset":
			err = setInt(&c.ResetEvery, v)
		case "seed":
			var parsed int64
			if parsed, err = strconv.ParseInt(v, 10, 64); err == nil {
				c.Seed = parsed
			}
		default:
			err = errors.New("unknown key")
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s=%s: %w", key, v, err))
		}
	}
	return c, errors.Join(errs...)
}

func setInt(dst *int, v string) error {
	parsed, err := strconv.Atoi(v)
	if err == nil {
		*dst = parsed
	}
	return err
}
