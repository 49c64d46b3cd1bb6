package codon

import (
	"errors"
	"math"

	"ribowalk/internal/model"
)

var ErrEmptyCandidate = errors.New("empty candidate")

// Evaluator computes the codon adaptation index of a candidate: the
// geometric mean over residues of each codon's adaptiveness. The engine works
// with the running log-sum form so a single substitution re-scores in O(1)
// instead of O(length).
type Evaluator struct {
	table *Table
}

func NewEvaluator(table *Table) *Evaluator {
	return &Evaluator{table: table}
}

// Score computes the CAI of a candidate from scratch.
func (e *Evaluator) Score(c model.Candidate) (float64, error) {
	logSum, err := e.LogSum(c)
	if err != nil {
		return 0, err
	}
	return ScoreFromLogSum(logSum, len(c)), nil
}

// LogSum is the sum over residues of log adaptiveness, the running
// representation the engine carries between iterations.
func (e *Evaluator) LogSum(c model.Candidate) (float64, error) {
	if len(c) == 0 {
		return 0, ErrEmptyCandidate
	}
	sum := 0.0
	for _, codon := range c {
		w, err := e.table.Adaptiveness(codon)
		if err != nil {
			return 0, err
		}
		sum += math.Log(w)
	}
	return sum, nil
}

// SubstituteLogSum updates a log-sum for one codon replacement without
// touching the rest of the candidate.
func (e *Evaluator) SubstituteLogSum(logSum float64, oldCodon, newCodon string) (float64, error) {
	oldW, err := e.table.Adaptiveness(oldCodon)
	if err != nil {
		return 0, err
	}
	newW, err := e.table.Adaptiveness(newCodon)
	if err != nil {
		return 0, err
	}
	return logSum - math.Log(oldW) + math.Log(newW), nil
}

// ScoreFromLogSum recovers the geometric-mean CAI from the running form.
func ScoreFromLogSum(logSum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return math.Exp(logSum / float64(n))
}
