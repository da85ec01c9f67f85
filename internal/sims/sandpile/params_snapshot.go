package sandpile

import (
	"strconv"

	"sandpile/internal/core"
)

// Parameters describes the lattice settings for display.
func (l *Lattice) Parameters() core.ParameterSnapshot {
	return l.cfg.Parameters()
}

// Parameters describes the configuration for display.
func (c Config) Parameters() core.ParameterSnapshot {
	groups := []core.ParameterGroup{
		{
			Name: "Lattice",
			Params: []core.Parameter{
				intParam("m", "Side", c.Side, "cells per row; the grid holds side*side cells"),
				int64Param("seed", "Seed", c.Seed, ""),
			},
		},
		{
			Name: "Dynamics",
			Params: []core.Parameter{
				intParam("zc", "Critical value", c.Critical, "an active cell fires at or above this charge"),
				floatParam("p", "Activation probability", c.Probability, "per-cell Bernoulli probability of the activation mask"),
				intParam("reset", "Mask reset cadence", c.ResetEvery, "waves between mask resamples; 0 resamples once per avalanche"),
				intParam("max", "Avalanche cap", c.MaxAvalanche, "stop an avalanche once this many cells fired; 0 is unbounded"),
			},
		},
	}
	return core.ParameterSnapshot{Groups: groups}
}

func intParam(key, label string, value int, desc string) core.Parameter {
	return core.Parameter{
		Key:         key,
		Label:       label,
		Type:        core.ParamTypeInt,
		Value:       strconv.Itoa(value),
		Description: desc,
	}
}

func int64Param(key, label string, value int64, desc string) core.Parameter {
	return core.Parameter{
		Key:         key,
		Label:       label,
		Type:        core.ParamTypeInt,
		Value:       strconv.FormatInt(value, 10),
		Description: desc,
	}
}

func floatParam(key, label string, value float64, desc string) core.Parameter {
	return core.Parameter{
		Key:         key,
		Label:       label,
		Type:        core.ParamTypeFloat,
		Value:       strconv.FormatFloat(value, 'f', -1, 64),
		Description: desc,
	}
}
