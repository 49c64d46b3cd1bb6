package walk

import (
	"fmt"
	"math"
	"math/rand"
)

// AcceptancePolicy decides whether a folded proposal replaces the current
// candidate. Exploration is the adaptive parameter the rate controller
// owns; its meaning belongs to the policy.
type AcceptancePolicy interface {
	Name() string
	Accept(rng *rand.Rand, currentEnergy, proposedEnergy, exploration float64) bool
}

// Greedy is plain hill climbing: only strictly more stable proposals are
// accepted, exploration is ignored.
type Greedy struct{}

func (Greedy) Name() string { return "greedy" }

func (Greedy) Accept(_ *rand.Rand, currentEnergy, proposedEnergy, _ float64) bool {
	return proposedEnergy < currentEnergy
}

// Metropolis accepts strictly more stable proposals outright and less stable
// ones with probability exp(-dE/exploration), so exploration acts as a
// temperature.
type Metropolis struct{}

func (Metropolis) Name() string { return "metropolis" }

func (Metropolis) Accept(rng *rand.Rand, currentEnergy, proposedEnergy, exploration float64) bool {
	if proposedEnergy < currentEnergy {
		return true
	}
	if exploration <= 0 {
		return false
	}
	return rng.Float64() < math.Exp(-(proposedEnergy-currentEnergy)/exploration)
}

func AcceptancePolicyFromConfig(name string) (AcceptancePolicy, error) {
	switch name {
	case "", "metropolis":
		return Metropolis{}, nil
	case "greedy", "hillclimb":
		return Greedy{}, nil
	default:
		return nil, fmt.Errorf("unsupported acceptance policy: %s", name)
	}
}

// RateController retunes the exploration parameter from the acceptance rate
// observed over the rolling window.
type RateController interface {
	Name() string
	Update(exploration, observedRate, targetRate float64) float64
}

// TargetRateController cools exploration multiplicatively while the observed
// acceptance rate runs above target and heats it while below, clamped to
// [Min, Max].
type TargetRateController struct {
	CoolFactor float64
	HeatFactor float64
	Min        float64
	Max        float64
}

func (TargetRateController) Name() string { return "target_rate" }

func (c TargetRateController) Update(exploration, observedRate, targetRate float64) float64 {
	switch {
	case observedRate > targetRate:
		exploration *= c.CoolFactor
	case observedRate < targetRate:
		exploration *= c.HeatFactor
	}
	if exploration < c.Min {
		exploration = c.Min
	}
	if c.Max > 0 && exploration > c.Max {
		exploration = c.Max
	}
	return exploration
}

// DefaultRateController matches the documented defaults: 5% cooling and
// heating steps around the target acceptance rate.
func DefaultRateController() TargetRateController {
	return TargetRateController{CoolFactor: 0.95, HeatFactor: 1.05, Min: 1e-4, Max: 10}
}

func RateControllerFromConfig(name string, coolFactor, heatFactor, min, max float64) (RateController, error) {
	switch name {
	case "", "target_rate":
		c := DefaultRateController()
		if coolFactor > 0 && coolFactor < 1 {
			c.CoolFactor = coolFactor
		}
		if heatFactor > 1 {
			c.HeatFactor = heatFactor
		}
		if min > 0 {
			c.Min = min
		}
		if max > 0 {
			c.Max = max
		}
		return c, nil
	case "fixed":
		return FixedController{}, nil
	default:
		return nil, fmt.Errorf("unsupported rate controller: %s", name)
	}
}

// FixedController leaves exploration untouched, turning the walk into a
// constant-temperature Metropolis search.
type FixedController struct{}

func (FixedController) Name() string { return "fixed" }

func (FixedController) Update(exploration, _, _ float64) float64 { return exploration }
