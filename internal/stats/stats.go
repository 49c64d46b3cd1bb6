package stats

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"ribowalk/internal/model"
)

// Summary aggregates a walk trace for reporting: how the iteration budget was
// spent and how the evaluated energies were distributed.
type Summary struct {
	Iterations    int
	FoldCalls     int
	Accepted      int
	RejectedOnCAI int

	AcceptanceRate float64

	EnergyMean   float64
	EnergyStdDev float64
	EnergyP10    float64
	EnergyP50    float64
	EnergyP90    float64

	FinalExploration float64
}

// Summarize reduces a per-iteration trace to a Summary. Energies are taken
// only from iterations that reached the folding oracle.
func Summarize(trace []model.TraceEvent) Summary {
	s := Summary{Iterations: len(trace)}
	if len(trace) == 0 {
		return s
	}

	energies := make([]float64, 0, len(trace))
	for _, ev := range trace {
		if ev.Folded {
			s.FoldCalls++
			energies = append(energies, ev.Energy)
		} else if ev.FromCodon != ev.ToCodon {
			s.RejectedOnCAI++
		}
		if ev.Accepted {
			s.Accepted++
		}
	}
	s.AcceptanceRate = float64(s.Accepted) / float64(len(trace))
	s.FinalExploration = trace[len(trace)-1].Exploration

	if len(energies) > 0 {
		s.EnergyMean = stat.Mean(energies, nil)
		s.EnergyStdDev = stat.StdDev(energies, nil)
		sort.Float64s(energies)
		s.EnergyP10 = stat.Quantile(0.1, stat.Empirical, energies, nil)
		s.EnergyP50 = stat.Quantile(0.5, stat.Empirical, energies, nil)
		s.EnergyP90 = stat.Quantile(0.9, stat.Empirical, energies, nil)
	}
	return s
}
