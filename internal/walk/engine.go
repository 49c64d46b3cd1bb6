package walk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"ribowalk/internal/codon"
	"ribowalk/internal/fold"
	"ribowalk/internal/model"
)

// Phase is the engine's lifecycle state.
type Phase string

const (
	PhaseInitialized Phase = "initialized"
	PhaseRunning     Phase = "running"
	PhaseConverged   Phase = "converged"
	PhaseBudget      Phase = "budget_exhausted"
	PhaseFailed      Phase = "failed"
	PhaseCancelled   Phase = "cancelled"
	PhaseTerminated  Phase = "terminated"
)

// Outcome names stored on run records.
const (
	OutcomeConverged          = "converged"
	OutcomeBudgetExhausted    = "budget_exhausted"
	OutcomeCancelled          = "cancelled"
	OutcomeConvergenceFailure = "convergence_failure"
)

// ErrConvergenceFailure reports that the threshold leaves the walk no
// feasible mutation at all. The seed candidate is still returned as the
// answer; this is reported, not fatal.
var ErrConvergenceFailure = errors.New("no feasible mutation under threshold")

// ErrInvalidThreshold rejects CAI thresholds outside (0, 1] before any
// search work happens.
var ErrInvalidThreshold = errors.New("cai threshold must be in (0, 1]")

// Config is the immutable run configuration. It is read once at Engine
// construction and never mutated by the walk.
type Config struct {
	AminoAcids string
	Mode       fold.Mode
	Threshold  float64

	MaxIterations int
	TimeBudget    time.Duration
	Plateau       int
	Window        int

	TargetAcceptance   float64
	InitialExploration float64

	Table      *codon.Table
	Evaluator  *codon.Evaluator
	Oracle     fold.Oracle
	Acceptance AcceptancePolicy
	Controller RateController

	Seed         int64
	CollectTrace bool
	Logger       *slog.Logger
}

// Result is the finalized, read-only view of a walk.
type Result struct {
	Outcome       string
	Best          model.Candidate
	BestEnergy    float64
	BestStructure string
	BestCAI       float64
	Iterations    int
	FoldCalls     int
	Accepted      int
	RejectedOnCAI int
	Exploration   float64
	Trace         []model.TraceEvent
}

// walkState is the mutable record owned exclusively by one engine.
type walkState struct {
	current       model.Candidate
	logSum        float64
	currentEnergy float64

	best          model.Candidate
	bestEnergy    float64
	bestStructure string

	iteration        int
	exploration      float64
	window           *acceptanceWindow
	sinceImprovement int

	foldCalls     int
	accepted      int
	rejectedOnCAI int

	trace []model.TraceEvent
}

// Engine runs one adaptive random walk over synonymous-codon space:
// uniform position choice, weight-proportional replacement, cheap CAI
// screening before any folding call, and acceptance-rate feedback on the
// exploration parameter.
type Engine struct {
	cfg   Config
	rng   *rand.Rand
	phase Phase
}

func New(cfg Config) (*Engine, error) {
	if cfg.Table == nil {
		return nil, fmt.Errorf("codon table is required")
	}
	if cfg.Evaluator == nil {
		return nil, fmt.Errorf("cai evaluator is required")
	}
	if cfg.Oracle == nil {
		return nil, fmt.Errorf("folding oracle is required")
	}
	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidThreshold, cfg.Threshold)
	}
	if cfg.MaxIterations <= 0 {
		return nil, fmt.Errorf("max iterations must be > 0")
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("acceptance window must be > 0")
	}
	if cfg.Plateau < 0 {
		return nil, fmt.Errorf("plateau must be >= 0")
	}
	if cfg.TargetAcceptance <= 0 || cfg.TargetAcceptance >= 1 {
		return nil, fmt.Errorf("target acceptance must be in (0, 1)")
	}
	if cfg.InitialExploration <= 0 {
		return nil, fmt.Errorf("initial exploration must be > 0")
	}
	if cfg.Mode != fold.ModeMFE && cfg.Mode != fold.ModeEFE {
		return nil, fmt.Errorf("%w: %s", fold.ErrUnsupportedMode, cfg.Mode)
	}
	if cfg.Acceptance == nil {
		cfg.Acceptance = Metropolis{}
	}
	if cfg.Controller == nil {
		cfg.Controller = DefaultRateController()
	}

	return &Engine{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		phase: PhaseInitialized,
	}, nil
}

func (e *Engine) Phase() Phase { return e.phase }

// Run executes the walk until a stopping criterion fires. Any early
// termination (cancellation, time budget) still returns the best previously
// evaluated candidate; only configuration-level faults (unknown amino acid,
// malformed fold input) return an error.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	seed, err := codon.InitialCandidate(e.cfg.AminoAcids, e.cfg.Table)
	if err != nil {
		e.phase = PhaseFailed
		return Result{}, err
	}

	logSum, err := e.cfg.Evaluator.LogSum(seed)
	if err != nil {
		e.phase = PhaseFailed
		return Result{}, err
	}

	mutable, feasible := e.surveyMutations(seed, logSum)

	e.phase = PhaseRunning

	seedFold, err := e.cfg.Oracle.Fold(ctx, seed.Sequence(), e.cfg.Mode)
	if err != nil {
		e.phase = PhaseFailed
		return Result{}, fmt.Errorf("folding seed candidate: %w", err)
	}

	st := &walkState{
		current:       seed,
		logSum:        logSum,
		currentEnergy: seedFold.Energy,
		best:          seed.Clone(),
		bestEnergy:    seedFold.Energy,
		bestStructure: seedFold.Structure,
		exploration:   e.cfg.InitialExploration,
		window:        newAcceptanceWindow(e.cfg.Window),
	}
	st.foldCalls++

	if len(mutable) == 0 || !feasible {
		// Threshold leaves zero degrees of freedom: the deterministic seed
		// is the only feasible candidate.
		e.phase = PhaseConverged
		res := e.finalize(st, OutcomeConvergenceFailure)
		e.phase = PhaseTerminated
		return res, nil
	}

	deadline := time.Time{}
	if e.cfg.TimeBudget > 0 {
		deadline = time.Now().Add(e.cfg.TimeBudget)
	}

	for st.iteration < e.cfg.MaxIterations {
		// Cancellation is only honored between iterations, never inside a
		// folding call, so the best-ever candidate stays retrievable.
		if ctx.Err() != nil {
			e.phase = PhaseCancelled
			res := e.finalize(st, OutcomeCancelled)
			e.phase = PhaseTerminated
			return res, nil
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			e.phase = PhaseBudget
			res := e.finalize(st, OutcomeBudgetExhausted)
			e.phase = PhaseTerminated
			return res, nil
		}

		st.iteration++
		if err := e.step(ctx, st, mutable); err != nil {
			e.phase = PhaseFailed
			return Result{}, err
		}

		if e.cfg.Plateau > 0 && st.sinceImprovement >= e.cfg.Plateau {
			e.phase = PhaseConverged
			res := e.finalize(st, OutcomeConverged)
			e.phase = PhaseTerminated
			return res, nil
		}
	}

	e.phase = PhaseBudget
	res := e.finalize(st, OutcomeBudgetExhausted)
	e.phase = PhaseTerminated
	return res, nil
}

// step runs one iteration: propose, screen on CAI, fold only when feasible,
// track the best-ever, apply the acceptance policy and retune exploration.
func (e *Engine) step(ctx context.Context, st *walkState, mutable []int) error {
	pos := mutable[e.rng.Intn(len(mutable))]
	aa := e.cfg.AminoAcids[pos]

	oldCodon := st.current[pos]
	newCodon, err := e.cfg.Table.SampleCodon(aa, oldCodon, e.rng)
	if errors.Is(err, codon.ErrNoAlternativeCodon) {
		// The position's residue offers nothing beside the codon already in
		// place; the iteration still counts against the budget.
		st.sinceImprovement++
		e.observe(st, model.TraceEvent{
			Iteration: st.iteration, Position: pos,
			FromCodon: oldCodon, ToCodon: oldCodon,
			CAI:        codon.ScoreFromLogSum(st.logSum, len(st.current)),
			BestEnergy: st.bestEnergy, Exploration: st.exploration,
		}, false)
		return nil
	}
	if err != nil {
		return fmt.Errorf("proposing mutation at position %d: %w", pos, err)
	}

	newLogSum, err := e.cfg.Evaluator.SubstituteLogSum(st.logSum, oldCodon, newCodon)
	if err != nil {
		return fmt.Errorf("rescoring position %d: %w", pos, err)
	}
	newCAI := codon.ScoreFromLogSum(newLogSum, len(st.current))

	if newCAI < e.cfg.Threshold {
		// Cheap rejection: no folding call for a candidate already known
		// infeasible.
		st.rejectedOnCAI++
		st.sinceImprovement++
		e.observe(st, model.TraceEvent{
			Iteration: st.iteration, Position: pos,
			FromCodon: oldCodon, ToCodon: newCodon,
			CAI: newCAI, BestEnergy: st.bestEnergy, Exploration: st.exploration,
		}, false)
		return nil
	}

	proposal := st.current.Clone()
	proposal[pos] = newCodon

	prediction, err := e.cfg.Oracle.Fold(ctx, proposal.Sequence(), e.cfg.Mode)
	if err != nil {
		// A malformed candidate here means the engine broke its own
		// invariant; that is a configuration fault, never search noise.
		return fmt.Errorf("folding proposal at iteration %d: %w", st.iteration, err)
	}
	st.foldCalls++

	if prediction.Energy < st.bestEnergy {
		st.best = proposal.Clone()
		st.bestEnergy = prediction.Energy
		st.bestStructure = prediction.Structure
		st.sinceImprovement = 0
	} else {
		st.sinceImprovement++
	}

	accepted := e.cfg.Acceptance.Accept(e.rng, st.currentEnergy, prediction.Energy, st.exploration)
	if accepted {
		st.current = proposal
		st.logSum = newLogSum
		st.currentEnergy = prediction.Energy
		st.accepted++
	}

	e.observe(st, model.TraceEvent{
		Iteration: st.iteration, Position: pos,
		FromCodon: oldCodon, ToCodon: newCodon,
		CAI: newCAI, Folded: true, Energy: prediction.Energy,
		Accepted: accepted, BestEnergy: st.bestEnergy, Exploration: st.exploration,
	}, accepted)
	return nil
}

// observe records the iteration in the rolling window, retunes exploration
// once the window has filled, and appends the trace event.
func (e *Engine) observe(st *walkState, ev model.TraceEvent, accepted bool) {
	st.window.Observe(accepted)
	if st.window.Full() {
		st.exploration = e.cfg.Controller.Update(st.exploration, st.window.Rate(), e.cfg.TargetAcceptance)
	}
	if e.cfg.CollectTrace {
		st.trace = append(st.trace, ev)
	}
	if e.cfg.Logger != nil {
		e.cfg.Logger.Info("step",
			"iteration", ev.Iteration,
			"position", ev.Position,
			"from", ev.FromCodon,
			"to", ev.ToCodon,
			"cai", ev.CAI,
			"folded", ev.Folded,
			"energy", ev.Energy,
			"accepted", ev.Accepted,
			"best_energy", ev.BestEnergy,
			"exploration", ev.Exploration,
		)
	}
}

// surveyMutations reports which positions can mutate at all and whether any
// single substitution from the seed stays at or above the threshold.
func (e *Engine) surveyMutations(seed model.Candidate, logSum float64) ([]int, bool) {
	mutable := make([]int, 0, len(seed))
	feasible := false
	for i := range seed {
		aa := e.cfg.AminoAcids[i]
		entries, err := e.cfg.Table.Codons(aa)
		if err != nil {
			continue
		}
		if e.cfg.Table.AlternativeCount(aa, "") == 0 {
			continue
		}
		mutable = append(mutable, i)
		if feasible {
			continue
		}
		maxCodon, _ := e.cfg.Table.MaxWeightCodon(aa)
		for _, entry := range entries {
			if entry.Codon == maxCodon || entry.Codon == seed[i] || entry.Weight <= 0 {
				continue
			}
			sub, err := e.cfg.Evaluator.SubstituteLogSum(logSum, seed[i], entry.Codon)
			if err != nil {
				continue
			}
			if codon.ScoreFromLogSum(sub, len(seed)) >= e.cfg.Threshold {
				feasible = true
				break
			}
		}
	}
	return mutable, feasible
}

func (e *Engine) finalize(st *walkState, outcome string) Result {
	bestCAI, _ := e.cfg.Evaluator.Score(st.best)
	return Result{
		Outcome:       outcome,
		Best:          st.best,
		BestEnergy:    st.bestEnergy,
		BestStructure: st.bestStructure,
		BestCAI:       bestCAI,
		Iterations:    st.iteration,
		FoldCalls:     st.foldCalls,
		Accepted:      st.accepted,
		RejectedOnCAI: st.rejectedOnCAI,
		Exploration:   st.exploration,
		Trace:         st.trace,
	}
}
