package fold

import (
	"context"
	"fmt"
	"math"
)

const (
	// minHairpinLoop is the smallest number of unpaired nucleotides a hairpin
	// loop can hold; shorter sequences form no stable structure.
	minHairpinLoop = 3

	// gasConstantRT is R*T in kcal/mol at 37 C (310.15 K).
	gasConstantRT = 0.6163
)

// pairEnergy returns the free-energy contribution of a base pair in
// kcal/mol, or 0 when the bases cannot pair. Watson-Crick pairs plus the GU
// wobble pair, with strengths ordered GC < AU < GU.
func pairEnergy(a, b byte) float64 {
	switch {
	case (a == 'G' && b == 'C') || (a == 'C' && b == 'G'):
		return -3.0
	case (a == 'A' && b == 'U') || (a == 'U' && b == 'A'):
		return -2.0
	case (a == 'G' && b == 'U') || (a == 'U' && b == 'G'):
		return -1.0
	default:
		return 0
	}
}

// Predictor is the built-in folding oracle. It runs a base-pairing dynamic
// program over a nearest-neighbor pair energy model: minimum free energy with
// dot-bracket traceback in MFE mode, a partition function in log space with
// EFE = -RT ln Z in ensemble mode.
type Predictor struct{}

func NewPredictor() *Predictor {
	return &Predictor{}
}

func (p *Predictor) Name() string {
	return "pairing_dp"
}

func (p *Predictor) Fold(ctx context.Context, sequence string, mode Mode) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}
	if err := ValidateSequence(sequence); err != nil {
		return Prediction{}, err
	}
	switch mode {
	case ModeMFE:
		return minimumFreeEnergy(sequence), nil
	case ModeEFE:
		structure, efe := ensembleFreeEnergy(sequence)
		return Prediction{Structure: structure, Energy: efe}, nil
	default:
		return Prediction{}, fmt.Errorf("%w: %s", ErrUnsupportedMode, mode)
	}
}

func minimumFreeEnergy(seq string) Prediction {
	n := len(seq)
	e := make([][]float64, n)
	for i := range e {
		e[i] = make([]float64, n)
	}

	for span := minHairpinLoop + 1; span < n; span++ {
		for i := 0; i+span < n; i++ {
			j := i + span
			best := e[i+1][j]
			for k := i + minHairpinLoop + 1; k <= j; k++ {
				bp := pairEnergy(seq[i], seq[k])
				if bp >= 0 {
					continue
				}
				val := bp + innerEnergy(e, i+1, k-1) + innerEnergy(e, k+1, j)
				if val < best {
					best = val
				}
			}
			e[i][j] = best
		}
	}

	structure := make([]byte, n)
	for i := range structure {
		structure[i] = '.'
	}
	traceback(seq, e, 0, n-1, structure)

	return Prediction{Structure: string(structure), Energy: e[0][n-1]}
}

func innerEnergy(e [][]float64, i, j int) float64 {
	if i > j {
		return 0
	}
	return e[i][j]
}

func traceback(seq string, e [][]float64, i, j int, structure []byte) {
	if i >= j || j-i <= minHairpinLoop {
		return
	}
	if e[i][j] == e[i+1][j] {
		traceback(seq, e, i+1, j, structure)
		return
	}
	for k := i + minHairpinLoop + 1; k <= j; k++ {
		bp := pairEnergy(seq[i], seq[k])
		if bp >= 0 {
			continue
		}
		if e[i][j] == bp+innerEnergy(e, i+1, k-1)+innerEnergy(e, k+1, j) {
			structure[i] = '('
			structure[k] = ')'
			traceback(seq, e, i+1, k-1, structure)
			traceback(seq, e, k+1, j, structure)
			return
		}
	}
}

// ensembleFreeEnergy computes log Z over all admissible pairings of the same
// model and returns -RT ln Z alongside the MFE structure for display.
func ensembleFreeEnergy(seq string) (string, float64) {
	n := len(seq)
	// logQ[i][j] = log of the partition function over seq[i..j], 0 (= log 1)
	// for empty intervals.
	logQ := make([][]float64, n)
	for i := range logQ {
		logQ[i] = make([]float64, n)
	}

	for span := minHairpinLoop + 1; span < n; span++ {
		for i := 0; i+span < n; i++ {
			j := i + span
			acc := innerLogQ(logQ, i, j-1)
			for k := i; k <= j-minHairpinLoop-1; k++ {
				bp := pairEnergy(seq[k], seq[j])
				if bp >= 0 {
					continue
				}
				term := innerLogQ(logQ, i, k-1) - bp/gasConstantRT + innerLogQ(logQ, k+1, j-1)
				acc = logAdd(acc, term)
			}
			logQ[i][j] = acc
		}
	}

	mfe := minimumFreeEnergy(seq)
	return mfe.Structure, -gasConstantRT * logQ[0][n-1]
}

func innerLogQ(logQ [][]float64, i, j int) float64 {
	if i > j {
		return 0
	}
	return logQ[i][j]
}

// logAdd returns log(exp(a) + exp(b)) without leaving log space.
func logAdd(a, b float64) float64 {
	if a < b {
		a, b = b, a
	}
	return a + math.Log1p(math.Exp(b-a))
}
