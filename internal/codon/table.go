package codon

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	_ "embed"

	"github.com/gocarina/gocsv"

	"ribowalk/internal/model"
)

var (
	ErrUnknownAminoAcid    = errors.New("unknown amino acid")
	ErrUnknownCodon        = errors.New("unknown codon")
	ErrNoAlternativeCodon  = errors.New("no alternative codon")
	ErrMalformedUsageTable = errors.New("malformed usage table")
)

// threeLetter maps the three-letter residue names used by published usage
// tables to the standard one-letter code. End marks the stop codons.
var threeLetter = map[string]byte{
	"Ala": 'A', "Arg": 'R', "Asn": 'N', "Asp": 'D', "Cys": 'C',
	"Gln": 'Q', "Glu": 'E', "Gly": 'G', "His": 'H', "Ile": 'I',
	"Leu": 'L', "Lys": 'K', "Met": 'M', "Phe": 'F', "Pro": 'P',
	"Ser": 'S', "Thr": 'T', "Trp": 'W', "Tyr": 'Y', "Val": 'V',
	"End": '*',
}

//go:embed tables/homo_sapiens.txt
var homoSapiensTable []byte

// Entry is one synonymous codon with its usage weight.
type Entry struct {
	Codon  string
	Weight float64
}

// UsageRecord is the external representation of one table row, for CSV
// loading.
type UsageRecord struct {
	AminoAcid string  `csv:"amino_acid"`
	Codon     string  `csv:"codon"`
	Weight    float64 `csv:"weight"`
}

// Table maps amino acids to their synonymous codons and usage weights.
// Codons are held in RNA form (U, not T) and the reverse lookup codon ->
// amino acid is total over the table's codons.
type Table struct {
	entries  map[byte][]Entry
	aaFor    map[string]byte
	weights  map[string]float64
	maxEntry map[byte]Entry
}

// NewTable validates and indexes a set of usage records. Every codon must
// map to exactly one amino acid, weights must be non-negative and each amino
// acid needs at least one strictly positive weight.
func NewTable(records []UsageRecord) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no records", ErrMalformedUsageTable)
	}

	t := &Table{
		entries:  make(map[byte][]Entry),
		aaFor:    make(map[string]byte),
		weights:  make(map[string]float64),
		maxEntry: make(map[byte]Entry),
	}

	for _, rec := range records {
		aa, err := parseAminoAcid(rec.AminoAcid)
		if err != nil {
			return nil, err
		}
		codon, err := normalizeCodon(rec.Codon)
		if err != nil {
			return nil, err
		}
		if rec.Weight < 0 {
			return nil, fmt.Errorf("%w: negative weight for %s", ErrMalformedUsageTable, codon)
		}
		if prev, ok := t.aaFor[codon]; ok && prev != aa {
			return nil, fmt.Errorf("%w: codon %s maps to both %c and %c", ErrMalformedUsageTable, codon, prev, aa)
		}
		if _, ok := t.weights[codon]; ok {
			return nil, fmt.Errorf("%w: duplicate codon %s", ErrMalformedUsageTable, codon)
		}
		t.aaFor[codon] = aa
		t.weights[codon] = rec.Weight
		t.entries[aa] = append(t.entries[aa], Entry{Codon: codon, Weight: rec.Weight})
	}

	for aa, entries := range t.entries {
		// Lexicographic order makes max-weight ties deterministic.
		sort.Slice(entries, func(i, j int) bool { return entries[i].Codon < entries[j].Codon })
		best := entries[0]
		for _, e := range entries[1:] {
			if e.Weight > best.Weight {
				best = e
			}
		}
		if best.Weight <= 0 {
			return nil, fmt.Errorf("%w: amino acid %c has no positive-weight codon", ErrMalformedUsageTable, aa)
		}
		t.maxEntry[aa] = best
	}

	return t, nil
}

// DefaultTable returns the embedded homo sapiens usage table.
func DefaultTable() (*Table, error) {
	return ParseUsageTable(strings.NewReader(string(homoSapiensTable)))
}

// ParseUsageTable reads the whitespace format used by published codon usage
// tables: three-letter residue name, DNA codon, frequency per thousand.
// Lines with fewer than three fields are skipped.
func ParseUsageTable(r io.Reader) (*Table, error) {
	var records []UsageRecord
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		weight, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedUsageTable, scanner.Text())
		}
		records = append(records, UsageRecord{AminoAcid: fields[0], Codon: fields[1], Weight: weight})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return NewTable(records)
}

// LoadCSV reads amino_acid,codon,weight rows.
func LoadCSV(r io.Reader) (*Table, error) {
	var records []UsageRecord
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedUsageTable, err)
	}
	return NewTable(records)
}

// Codons returns the synonymous codons for aa in lexicographic order.
func (t *Table) Codons(aa byte) ([]Entry, error) {
	entries, ok := t.entries[aa]
	if !ok {
		return nil, fmt.Errorf("%w: %c", ErrUnknownAminoAcid, aa)
	}
	return entries, nil
}

// MaxWeightCodon returns the highest-weight codon for aa, ties broken
// lexicographically.
func (t *Table) MaxWeightCodon(aa byte) (string, error) {
	best, ok := t.maxEntry[aa]
	if !ok {
		return "", fmt.Errorf("%w: %c", ErrUnknownAminoAcid, aa)
	}
	return best.Codon, nil
}

// SampleCodon draws a codon for aa with probability proportional to weight
// among the non-maximal codons. Excluding the codon currently occupying a
// position is the caller's business, via exclude (empty string excludes
// nothing).
func (t *Table) SampleCodon(aa byte, exclude string, rng *rand.Rand) (string, error) {
	entries, ok := t.entries[aa]
	if !ok {
		return "", fmt.Errorf("%w: %c", ErrUnknownAminoAcid, aa)
	}
	maxCodon := t.maxEntry[aa].Codon

	var pool []Entry
	total := 0.0
	for _, e := range entries {
		if e.Codon == maxCodon || e.Codon == exclude || e.Weight <= 0 {
			continue
		}
		pool = append(pool, e)
		total += e.Weight
	}
	if len(pool) == 0 || total <= 0 {
		return "", fmt.Errorf("%w: %c", ErrNoAlternativeCodon, aa)
	}

	x := rng.Float64() * total
	for _, e := range pool {
		x -= e.Weight
		if x < 0 {
			return e.Codon, nil
		}
	}
	return pool[len(pool)-1].Codon, nil
}

// AminoAcid is the reverse lookup codon -> amino acid.
func (t *Table) AminoAcid(codon string) (byte, error) {
	normalized, err := normalizeCodon(codon)
	if err != nil {
		return 0, err
	}
	aa, ok := t.aaFor[normalized]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCodon, codon)
	}
	return aa, nil
}

// Weight returns the usage weight of codon.
func (t *Table) Weight(codon string) (float64, error) {
	w, ok := t.weights[codon]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCodon, codon)
	}
	return w, nil
}

// Adaptiveness is the codon's weight relative to the best codon for the same
// amino acid, the per-residue term of the CAI.
func (t *Table) Adaptiveness(codon string) (float64, error) {
	w, ok := t.weights[codon]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCodon, codon)
	}
	aa := t.aaFor[codon]
	return w / t.maxEntry[aa].Weight, nil
}

// AlternativeCount reports how many codons beside exclude could occupy a
// position coding for aa under the table's sampling rule.
func (t *Table) AlternativeCount(aa byte, exclude string) int {
	entries, ok := t.entries[aa]
	if !ok {
		return 0
	}
	maxCodon := t.maxEntry[aa].Codon
	n := 0
	for _, e := range entries {
		if e.Codon == maxCodon || e.Codon == exclude || e.Weight <= 0 {
			continue
		}
		n++
	}
	return n
}

// Translate maps a candidate back to its amino-acid sequence through the
// reverse lookup.
func (t *Table) Translate(c model.Candidate) (string, error) {
	buf := make([]byte, 0, len(c))
	for i, codon := range c {
		aa, err := t.AminoAcid(codon)
		if err != nil {
			return "", fmt.Errorf("position %d: %w", i, err)
		}
		buf = append(buf, aa)
	}
	return string(buf), nil
}

func parseAminoAcid(s string) (byte, error) {
	if aa, ok := threeLetter[s]; ok {
		return aa, nil
	}
	if len(s) == 1 {
		c := s[0]
		for _, v := range threeLetter {
			if v == c {
				return c, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAminoAcid, s)
}

// normalizeCodon upper-cases and rewrites DNA T to RNA U.
func normalizeCodon(codon string) (string, error) {
	if len(codon) != 3 {
		return "", fmt.Errorf("%w: codon %q", ErrMalformedUsageTable, codon)
	}
	var b [3]byte
	for i := 0; i < 3; i++ {
		switch c := codon[i]; c {
		case 'A', 'C', 'G', 'U':
			b[i] = c
		case 'T':
			b[i] = 'U'
		case 'a', 'c', 'g', 'u', 't':
			b[i] = c - 'a' + 'A'
			if b[i] == 'T' {
				b[i] = 'U'
			}
		default:
			return "", fmt.Errorf("%w: codon %q", ErrMalformedUsageTable, codon)
		}
	}
	return string(b[:]), nil
}
