package ribowalk

import (
	"context"
	"strings"
	"testing"

	"ribowalk/internal/fold"
	"ribowalk/internal/storage"
)

type flatOracle struct{}

func (flatOracle) Name() string { return "flat" }

func (flatOracle) Fold(ctx context.Context, sequence string, mode fold.Mode) (fold.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return fold.Prediction{}, err
	}
	if err := fold.ValidateSequence(sequence); err != nil {
		return fold.Prediction{}, err
	}
	return fold.Prediction{
		Structure: strings.Repeat(".", len(sequence)),
		Energy:    -float64(strings.Count(sequence, "A")),
	}, nil
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client := NewWithStore(storage.NewMemoryStore())
	if err := client.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return client
}

func TestDesignPersistsRun(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	defer client.Close()

	summary, err := client.Design(ctx, DesignRequest{
		AminoAcids:   "MKLVKL",
		Mode:         "mfe",
		Threshold:    0.8,
		Iterations:   60,
		Plateau:      30,
		Window:       10,
		Seed:         5,
		Oracle:       flatOracle{},
		CollectTrace: true,
	})
	if err != nil {
		t.Fatalf("design: %v", err)
	}

	if summary.RunID == "" {
		t.Fatal("summary missing run id")
	}
	if summary.CAI < 0.8 {
		t.Fatalf("summary CAI %v below threshold", summary.CAI)
	}
	if len(summary.Sequence) != 3*len("MKLVKL") {
		t.Fatalf("sequence length %d, want %d", len(summary.Sequence), 3*len("MKLVKL"))
	}
	if summary.Stats.Iterations != summary.Iterations {
		t.Fatalf("stats iterations %d != %d", summary.Stats.Iterations, summary.Iterations)
	}

	record, ok, err := client.GetRun(ctx, summary.RunID)
	if err != nil || !ok {
		t.Fatalf("get run: ok=%v err=%v", ok, err)
	}
	if record.Sequence != summary.Sequence || record.Outcome != summary.Outcome {
		t.Fatalf("persisted record diverges from summary: %+v", record)
	}
	if record.SchemaVersion != storage.CurrentSchemaVersion {
		t.Fatalf("schema version = %d, want %d", record.SchemaVersion, storage.CurrentSchemaVersion)
	}

	trace, ok, err := client.GetTrace(ctx, summary.RunID)
	if err != nil || !ok {
		t.Fatalf("get trace: ok=%v err=%v", ok, err)
	}
	if len(trace) != summary.Iterations {
		t.Fatalf("persisted trace length %d != iterations %d", len(trace), summary.Iterations)
	}

	history, ok, err := client.GetEnergyHistory(ctx, summary.RunID)
	if err != nil || !ok {
		t.Fatalf("get energy history: ok=%v err=%v", ok, err)
	}
	if len(history) == 0 || len(history) != summary.Stats.FoldCalls {
		t.Fatalf("history length %d, want %d folded energies", len(history), summary.Stats.FoldCalls)
	}

	runs, err := client.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != summary.RunID {
		t.Fatalf("listed runs = %+v", runs)
	}
}

func TestDesignDefaultsFillZeroValues(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	defer client.Close()

	// Only the protein is given; mode, threshold and budgets come from the
	// embedded defaults. A short protein keeps the built-in oracle cheap.
	summary, err := client.Design(ctx, DesignRequest{
		AminoAcids: "MKLV",
		Iterations: 40,
		Plateau:    20,
		Oracle:     flatOracle{},
	})
	if err != nil {
		t.Fatalf("design: %v", err)
	}

	if summary.Record.Mode != "efe" {
		t.Fatalf("mode = %q, want default efe", summary.Record.Mode)
	}
	if summary.Record.Threshold != 0.8 {
		t.Fatalf("threshold = %v, want default 0.8", summary.Record.Threshold)
	}
	if summary.Record.Seed != 1 {
		t.Fatalf("seed = %d, want default 1", summary.Record.Seed)
	}

	// No trace was requested, so none is persisted.
	if _, ok, err := client.GetTrace(ctx, summary.RunID); err != nil || ok {
		t.Fatalf("trace persisted without CollectTrace: ok=%v err=%v", ok, err)
	}
}

func TestDesignRejectsBadRequest(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	defer client.Close()

	if _, err := client.Design(ctx, DesignRequest{AminoAcids: "MKLV", Mode: "zuker", Oracle: flatOracle{}}); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if _, err := client.Design(ctx, DesignRequest{AminoAcids: "MK*V", Oracle: flatOracle{}}); err == nil {
		t.Fatal("expected error for stop symbol in protein")
	}
	if _, err := client.Design(ctx, DesignRequest{AminoAcids: "MKLV", AcceptancePolicy: "annealing", Oracle: flatOracle{}}); err == nil {
		t.Fatal("expected error for unknown acceptance policy")
	}
}

func TestDesignConvergenceFailureIsReported(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	defer client.Close()

	summary, err := client.Design(ctx, DesignRequest{
		AminoAcids: "MKLV",
		Threshold:  1.0,
		Iterations: 40,
		Oracle:     flatOracle{},
	})
	if err != nil {
		t.Fatalf("design: %v", err)
	}
	if summary.Outcome != "convergence_failure" {
		t.Fatalf("outcome = %s, want convergence_failure", summary.Outcome)
	}
	if summary.CAI != 1.0 {
		t.Fatalf("CAI = %v, want the max-weight seed at exactly 1.0", summary.CAI)
	}
}

func TestParallelWalkersNoWorseThanOne(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	defer client.Close()

	req := DesignRequest{
		AminoAcids: "MKLVKLKV",
		Mode:       "mfe",
		Threshold:  0.7,
		Iterations: 50,
		Plateau:    0,
		Window:     10,
		Seed:       3,
		Oracle:     flatOracle{},
	}

	single, err := client.Design(ctx, req)
	if err != nil {
		t.Fatalf("design: %v", err)
	}

	req.Walkers = 4
	multi, err := client.Design(ctx, req)
	if err != nil {
		t.Fatalf("design: %v", err)
	}

	if multi.Energy > single.Energy {
		t.Fatalf("multi-walker energy %v worse than single %v", multi.Energy, single.Energy)
	}
}
