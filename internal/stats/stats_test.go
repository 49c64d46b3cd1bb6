package stats

import (
	"math"
	"testing"

	"ribowalk/internal/model"
)

func TestSummarizeEmptyTrace(t *testing.T) {
	s := Summarize(nil)
	if s.Iterations != 0 || s.FoldCalls != 0 || s.AcceptanceRate != 0 {
		t.Fatalf("empty trace summary = %+v, want zero value", s)
	}
}

func TestSummarizeCounts(t *testing.T) {
	trace := []model.TraceEvent{
		{Iteration: 1, FromCodon: "AAG", ToCodon: "AAA", CAI: 0.95, Folded: true, Energy: -2, Accepted: true, Exploration: 1.0},
		{Iteration: 2, FromCodon: "CUG", ToCodon: "UUA", CAI: 0.6, Exploration: 1.0},
		{Iteration: 3, FromCodon: "AAA", ToCodon: "AAA", CAI: 0.95, Exploration: 1.0},
		{Iteration: 4, FromCodon: "CUG", ToCodon: "CUU", CAI: 0.92, Folded: true, Energy: -4, Accepted: true, Exploration: 0.95},
		{Iteration: 5, FromCodon: "CUU", ToCodon: "UUA", CAI: 0.88, Folded: true, Energy: -3, Exploration: 0.9},
	}

	s := Summarize(trace)

	if s.Iterations != 5 {
		t.Errorf("iterations = %d, want 5", s.Iterations)
	}
	if s.FoldCalls != 3 {
		t.Errorf("fold calls = %d, want 3", s.FoldCalls)
	}
	if s.Accepted != 2 {
		t.Errorf("accepted = %d, want 2", s.Accepted)
	}
	// Iteration 3 proposed no change; only iteration 2 was screened out.
	if s.RejectedOnCAI != 1 {
		t.Errorf("rejected on CAI = %d, want 1", s.RejectedOnCAI)
	}
	if s.AcceptanceRate != 0.4 {
		t.Errorf("acceptance rate = %v, want 0.4", s.AcceptanceRate)
	}
	if s.FinalExploration != 0.9 {
		t.Errorf("final exploration = %v, want 0.9", s.FinalExploration)
	}
	if math.Abs(s.EnergyMean-(-3.0)) > 1e-12 {
		t.Errorf("energy mean = %v, want -3", s.EnergyMean)
	}
	if s.EnergyP50 != -3 {
		t.Errorf("energy median = %v, want -3", s.EnergyP50)
	}
	if s.EnergyP10 > s.EnergyP50 || s.EnergyP50 > s.EnergyP90 {
		t.Errorf("quantiles out of order: %v %v %v", s.EnergyP10, s.EnergyP50, s.EnergyP90)
	}
	if s.EnergyStdDev <= 0 {
		t.Errorf("energy stddev = %v, want positive", s.EnergyStdDev)
	}
}
