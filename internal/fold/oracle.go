package fold

import (
	"context"
	"errors"
	"fmt"
)

type Mode string

const (
	// ModeMFE scores a candidate by the minimum free energy of its single
	// most stable predicted structure.
	ModeMFE Mode = "mfe"
	// ModeEFE scores a candidate by the ensemble (Boltzmann-averaged) free
	// energy over all predicted structures.
	ModeEFE Mode = "efe"
)

var (
	ErrFoldingInput    = errors.New("folding input error")
	ErrUnsupportedMode = errors.New("unsupported folding mode")
)

// Prediction is one oracle answer: a secondary structure in bracket notation
// and its energy in kcal/mol, more negative meaning more stable.
type Prediction struct {
	Structure string
	Energy    float64
}

// Oracle is the narrow boundary to secondary-structure prediction. The call
// is synchronous and CPU-bound; its cost grows super-linearly with sequence
// length, so callers must reject infeasible candidates before folding.
type Oracle interface {
	Name() string
	Fold(ctx context.Context, sequence string, mode Mode) (Prediction, error)
}

// ParseMode maps the CLI spelling of a stability mode onto Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "mfe", "minimum-free-energy":
		return ModeMFE, nil
	case "efe", "ensemble-free-energy":
		return ModeEFE, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMode, s)
	}
}

// ValidateSequence enforces the oracle input contract: ribonucleotide symbols
// only, length divisible by 3, non-empty.
func ValidateSequence(sequence string) error {
	if sequence == "" {
		return fmt.Errorf("%w: empty sequence", ErrFoldingInput)
	}
	if len(sequence)%3 != 0 {
		return fmt.Errorf("%w: length %d not divisible by 3", ErrFoldingInput, len(sequence))
	}
	for i := 0; i < len(sequence); i++ {
		switch sequence[i] {
		case 'A', 'C', 'G', 'U':
		default:
			return fmt.Errorf("%w: symbol %q at position %d", ErrFoldingInput, sequence[i], i)
		}
	}
	return nil
}
