package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Candidate is a coding sequence held codon by codon. Translating it through
// the usage table's reverse lookup must reproduce the amino-acid sequence it
// was built for, at every point of a walk.
type Candidate []string

func (c Candidate) Clone() Candidate {
	return append(Candidate(nil), c...)
}

// Sequence joins the codons into the plain nucleotide string handed to the
// folding oracle.
func (c Candidate) Sequence() string {
	n := 0
	for _, codon := range c {
		n += len(codon)
	}
	buf := make([]byte, 0, n)
	for _, codon := range c {
		buf = append(buf, codon...)
	}
	return string(buf)
}

// RunRecord is the persisted outcome of one design run.
type RunRecord struct {
	VersionedRecord
	ID          string  `json:"id"`
	CreatedUnix int64   `json:"created_unix"`
	AminoAcids  string  `json:"amino_acids"`
	Mode        string  `json:"mode"`
	Threshold   float64 `json:"threshold"`
	Seed        int64   `json:"seed"`
	Iterations  int     `json:"iterations"`
	Outcome     string  `json:"outcome"`
	Sequence    string  `json:"sequence"`
	Structure   string  `json:"structure"`
	Energy      float64 `json:"energy"`
	CAI         float64 `json:"cai"`
}

// TraceEvent records one engine iteration. Folded is false when the proposal
// was rejected on CAI grounds before any oracle call.
type TraceEvent struct {
	Iteration   int     `json:"iteration" csv:"iteration"`
	Position    int     `json:"position" csv:"position"`
	FromCodon   string  `json:"from_codon" csv:"from_codon"`
	ToCodon     string  `json:"to_codon" csv:"to_codon"`
	CAI         float64 `json:"cai" csv:"cai"`
	Folded      bool    `json:"folded" csv:"folded"`
	Energy      float64 `json:"energy" csv:"energy"`
	Accepted    bool    `json:"accepted" csv:"accepted"`
	BestEnergy  float64 `json:"best_energy" csv:"best_energy"`
	Exploration float64 `json:"exploration" csv:"exploration"`
}
