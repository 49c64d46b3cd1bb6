package codon

import (
	"errors"
	"fmt"

	"ribowalk/internal/model"
)

var (
	ErrInvalidAminoAcid = errors.New("invalid amino acid")
	ErrEmptySequence    = errors.New("empty amino-acid sequence")
)

// ValidateSequence fails fast when the input holds a symbol the table has no
// codons for. Stop symbols are rejected inside a coding sequence.
func ValidateSequence(aaSeq string, table *Table) error {
	if aaSeq == "" {
		return ErrEmptySequence
	}
	for i := 0; i < len(aaSeq); i++ {
		aa := aaSeq[i]
		if aa == '*' {
			return fmt.Errorf("%w: stop symbol at position %d", ErrInvalidAminoAcid, i)
		}
		if _, err := table.Codons(aa); err != nil {
			return fmt.Errorf("%w: %c at position %d", ErrInvalidAminoAcid, aa, i)
		}
	}
	return nil
}

// InitialCandidate seeds the walk with the max-weight codon per residue.
// Its CAI is exactly 1.0, so the seed is feasible for any threshold in (0, 1],
// and it is deterministic independent of the random seed.
func InitialCandidate(aaSeq string, table *Table) (model.Candidate, error) {
	if err := ValidateSequence(aaSeq, table); err != nil {
		return nil, err
	}
	candidate := make(model.Candidate, 0, len(aaSeq))
	for i := 0; i < len(aaSeq); i++ {
		best, err := table.MaxWeightCodon(aaSeq[i])
		if err != nil {
			return nil, err
		}
		candidate = append(candidate, best)
	}
	return candidate, nil
}
