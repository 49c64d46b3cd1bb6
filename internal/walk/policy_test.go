package walk

import (
	"math/rand"
	"testing"
)

func TestGreedyAcceptsOnlyImprovement(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	p := Greedy{}

	if !p.Accept(rng, -5.0, -6.0, 1.0) {
		t.Fatal("greedy must accept a more stable proposal")
	}
	if p.Accept(rng, -5.0, -5.0, 1.0) {
		t.Fatal("greedy must reject an equal-energy proposal")
	}
	if p.Accept(rng, -5.0, -4.0, 100.0) {
		t.Fatal("greedy must reject a less stable proposal regardless of exploration")
	}
}

func TestMetropolisAcceptsImprovementAlways(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	p := Metropolis{}

	for i := 0; i < 100; i++ {
		if !p.Accept(rng, -5.0, -5.1, 1e-9) {
			t.Fatal("metropolis must accept a more stable proposal unconditionally")
		}
	}
}

func TestMetropolisZeroExplorationRejectsWorse(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	p := Metropolis{}

	for i := 0; i < 100; i++ {
		if p.Accept(rng, -5.0, -4.0, 0) {
			t.Fatal("metropolis at zero exploration must reject worse proposals")
		}
	}
}

func TestMetropolisExplorationGovernsUphillRate(t *testing.T) {
	p := Metropolis{}
	const trials = 5000

	rate := func(exploration float64) float64 {
		rng := rand.New(rand.NewSource(9))
		accepted := 0
		for i := 0; i < trials; i++ {
			if p.Accept(rng, -5.0, -4.0, exploration) {
				accepted++
			}
		}
		return float64(accepted) / trials
	}

	hot := rate(10.0)
	cold := rate(0.2)
	if hot <= cold {
		t.Fatalf("uphill acceptance at high exploration (%.3f) not above low (%.3f)", hot, cold)
	}
	if cold > 0.05 {
		t.Fatalf("uphill acceptance at exploration 0.2 = %.3f, want near exp(-5)", cold)
	}
	if hot < 0.8 {
		t.Fatalf("uphill acceptance at exploration 10 = %.3f, want near exp(-0.1)", hot)
	}
}

func TestTargetRateControllerDirection(t *testing.T) {
	c := TargetRateController{CoolFactor: 0.9, HeatFactor: 1.1, Min: 0.01, Max: 5.0}

	if got := c.Update(1.0, 0.5, 0.25); got != 0.9 {
		t.Fatalf("above-target update = %v, want 0.9", got)
	}
	if got := c.Update(1.0, 0.1, 0.25); got != 1.1 {
		t.Fatalf("below-target update = %v, want 1.1", got)
	}
	if got := c.Update(1.0, 0.25, 0.25); got != 1.0 {
		t.Fatalf("on-target update = %v, want unchanged", got)
	}
}

func TestTargetRateControllerClamps(t *testing.T) {
	c := TargetRateController{CoolFactor: 0.5, HeatFactor: 2.0, Min: 0.4, Max: 1.5}

	if got := c.Update(0.5, 0.9, 0.25); got != 0.4 {
		t.Fatalf("cooling below min = %v, want clamp at 0.4", got)
	}
	if got := c.Update(1.0, 0.1, 0.25); got != 1.5 {
		t.Fatalf("heating above max = %v, want clamp at 1.5", got)
	}
}

func TestFixedControllerLeavesExploration(t *testing.T) {
	c := FixedController{}
	if got := c.Update(0.7, 0.9, 0.25); got != 0.7 {
		t.Fatalf("fixed controller changed exploration to %v", got)
	}
}

func TestAcceptancePolicyFromConfig(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"", "metropolis", true},
		{"metropolis", "metropolis", true},
		{"greedy", "greedy", true},
		{"hillclimb", "greedy", true},
		{"annealing", "", false},
	}
	for _, tt := range tests {
		p, err := AcceptancePolicyFromConfig(tt.name)
		if tt.ok {
			if err != nil || p.Name() != tt.want {
				t.Errorf("AcceptancePolicyFromConfig(%q) = %v, %v", tt.name, p, err)
			}
			continue
		}
		if err == nil {
			t.Errorf("AcceptancePolicyFromConfig(%q) expected error", tt.name)
		}
	}
}

func TestRateControllerFromConfig(t *testing.T) {
	c, err := RateControllerFromConfig("", 0.8, 1.2, 0.001, 20)
	if err != nil {
		t.Fatalf("rate controller: %v", err)
	}
	tc, ok := c.(TargetRateController)
	if !ok {
		t.Fatalf("expected TargetRateController, got %T", c)
	}
	if tc.CoolFactor != 0.8 || tc.HeatFactor != 1.2 || tc.Min != 0.001 || tc.Max != 20 {
		t.Fatalf("overrides not applied: %+v", tc)
	}

	c, err = RateControllerFromConfig("fixed", 0, 0, 0, 0)
	if err != nil || c.Name() != "fixed" {
		t.Fatalf("fixed controller: %v, %v", c, err)
	}

	if _, err := RateControllerFromConfig("pid", 0, 0, 0, 0); err == nil {
		t.Fatal("expected error for unknown controller")
	}
}

func TestRateControllerFromConfigIgnoresBadOverrides(t *testing.T) {
	c, err := RateControllerFromConfig("target_rate", 1.5, 0.5, -1, 0)
	if err != nil {
		t.Fatalf("rate controller: %v", err)
	}
	tc := c.(TargetRateController)
	def := DefaultRateController()
	if tc != def {
		t.Fatalf("out-of-range overrides must fall back to defaults, got %+v", tc)
	}
}
