// Package ribowalk is the embedding API: it wires the codon table, CAI
// evaluator, folding oracle and walk engine together, persists run artifacts
// and hands back a finalized summary.
package ribowalk

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ribowalk/internal/codon"
	"ribowalk/internal/config"
	"ribowalk/internal/fold"
	"ribowalk/internal/model"
	"ribowalk/internal/stats"
	"ribowalk/internal/storage"
	"ribowalk/internal/walk"
)

type Options struct {
	StoreKind string
	DBPath    string
}

type Client struct {
	store storage.Store
}

func New(opts Options) (*Client, error) {
	store, err := storage.NewStore(opts.StoreKind, opts.DBPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store}, nil
}

// NewWithStore wraps an existing store, which tests use to inject a memory
// backend.
func NewWithStore(store storage.Store) *Client {
	return &Client{store: store}
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// DesignRequest describes one run. Zero values fall back to the embedded
// configuration defaults.
type DesignRequest struct {
	AminoAcids string
	Mode       string
	Threshold  float64

	Iterations int
	Plateau    int
	Window     int
	TimeBudget time.Duration

	TargetAcceptance   float64
	InitialExploration float64
	AcceptancePolicy   string
	RateController     string

	Seed    int64
	Walkers int

	Table        *codon.Table
	Oracle       fold.Oracle
	CollectTrace bool
	Logger       *slog.Logger
}

type DesignSummary struct {
	RunID      string
	Outcome    string
	Sequence   string
	Structure  string
	Energy     float64
	CAI        float64
	Iterations int
	FoldCalls  int
	Stats      stats.Summary
	Trace      []model.TraceEvent
	Record     model.RunRecord
}

// Design runs the adaptive random walk for one amino-acid sequence and
// persists the run record, trace and energy history.
func (c *Client) Design(ctx context.Context, req DesignRequest) (DesignSummary, error) {
	cfg, err := buildConfig(req)
	if err != nil {
		return DesignSummary{}, err
	}

	walkers := req.Walkers
	if walkers <= 0 {
		walkers = 1
	}

	result, err := walk.RunParallel(ctx, cfg, walkers)
	if err != nil {
		return DesignSummary{}, err
	}

	record := model.RunRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:          uuid.NewString(),
		CreatedUnix: time.Now().Unix(),
		AminoAcids:  req.AminoAcids,
		Mode:        string(cfg.Mode),
		Threshold:   cfg.Threshold,
		Seed:        cfg.Seed,
		Iterations:  result.Iterations,
		Outcome:     result.Outcome,
		Sequence:    result.Best.Sequence(),
		Structure:   result.BestStructure,
		Energy:      result.BestEnergy,
		CAI:         result.BestCAI,
	}

	if err := c.store.SaveRun(ctx, record); err != nil {
		return DesignSummary{}, fmt.Errorf("saving run: %w", err)
	}
	if len(result.Trace) > 0 {
		if err := c.store.SaveTrace(ctx, record.ID, result.Trace); err != nil {
			return DesignSummary{}, fmt.Errorf("saving trace: %w", err)
		}
		history := make([]float64, 0, len(result.Trace))
		for _, ev := range result.Trace {
			if ev.Folded {
				history = append(history, ev.Energy)
			}
		}
		if err := c.store.SaveEnergyHistory(ctx, record.ID, history); err != nil {
			return DesignSummary{}, fmt.Errorf("saving energy history: %w", err)
		}
	}

	return DesignSummary{
		RunID:      record.ID,
		Outcome:    result.Outcome,
		Sequence:   record.Sequence,
		Structure:  record.Structure,
		Energy:     record.Energy,
		CAI:        record.CAI,
		Iterations: result.Iterations,
		FoldCalls:  result.FoldCalls,
		Stats:      stats.Summarize(result.Trace),
		Trace:      result.Trace,
		Record:     record,
	}, nil
}

func (c *Client) GetRun(ctx context.Context, id string) (model.RunRecord, bool, error) {
	return c.store.GetRun(ctx, id)
}

func (c *Client) ListRuns(ctx context.Context) ([]model.RunRecord, error) {
	return c.store.ListRuns(ctx)
}

func (c *Client) GetTrace(ctx context.Context, runID string) ([]model.TraceEvent, bool, error) {
	return c.store.GetTrace(ctx, runID)
}

func (c *Client) GetEnergyHistory(ctx context.Context, runID string) ([]float64, bool, error) {
	return c.store.GetEnergyHistory(ctx, runID)
}

func buildConfig(req DesignRequest) (walk.Config, error) {
	defaults, err := config.Default()
	if err != nil {
		return walk.Config{}, err
	}

	table := req.Table
	if table == nil {
		table, err = codon.DefaultTable()
		if err != nil {
			return walk.Config{}, err
		}
	}

	modeName := req.Mode
	if modeName == "" {
		modeName = defaults.Fold.Mode
	}
	mode, err := fold.ParseMode(modeName)
	if err != nil {
		return walk.Config{}, err
	}

	threshold := req.Threshold
	if threshold == 0 {
		threshold = defaults.CAI.Threshold
	}

	iterations := req.Iterations
	if iterations == 0 {
		iterations = defaults.Walk.Iterations
	}
	plateau := req.Plateau
	if plateau == 0 {
		plateau = defaults.Walk.Plateau
	}
	window := req.Window
	if window == 0 {
		window = defaults.Walk.Window
	}
	target := req.TargetAcceptance
	if target == 0 {
		target = defaults.Walk.TargetAcceptance
	}
	exploration := req.InitialExploration
	if exploration == 0 {
		exploration = defaults.Walk.InitialExploration
	}
	seed := req.Seed
	if seed == 0 {
		seed = defaults.Walk.Seed
	}

	acceptance, err := walk.AcceptancePolicyFromConfig(req.AcceptancePolicy)
	if err != nil {
		return walk.Config{}, err
	}
	controller, err := walk.RateControllerFromConfig(req.RateController,
		defaults.Walk.CoolFactor, defaults.Walk.HeatFactor,
		defaults.Walk.MinExploration, defaults.Walk.MaxExploration)
	if err != nil {
		return walk.Config{}, err
	}

	oracle := req.Oracle
	if oracle == nil {
		oracle = fold.NewPredictor()
	}

	return walk.Config{
		AminoAcids:         req.AminoAcids,
		Mode:               mode,
		Threshold:          threshold,
		MaxIterations:      iterations,
		TimeBudget:         req.TimeBudget,
		Plateau:            plateau,
		Window:             window,
		TargetAcceptance:   target,
		InitialExploration: exploration,
		Table:              table,
		Evaluator:          codon.NewEvaluator(table),
		Oracle:             oracle,
		Acceptance:         acceptance,
		Controller:         controller,
		Seed:               seed,
		CollectTrace:       req.CollectTrace,
		Logger:             req.Logger,
	}, nil
}
