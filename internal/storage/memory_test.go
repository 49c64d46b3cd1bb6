package storage

import (
	"context"
	"reflect"
	"testing"

	"ribowalk/internal/model"
)

func testRun(id string, created int64) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: CurrentSchemaVersion,
			CodecVersion:  CurrentCodecVersion,
		},
		ID:          id,
		CreatedUnix: created,
		AminoAcids:  "MKLV",
		Mode:        "efe",
		Threshold:   0.9,
		Seed:        7,
		Iterations:  120,
		Outcome:     "converged",
		Sequence:    "AUGAAGCUGGUG",
		Structure:   "............",
		Energy:      -4.2,
		CAI:         0.93,
	}
}

func TestMemoryStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	run := testRun("run-1", 100)
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}

	got, ok, err := store.GetRun(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get run: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, run) {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, run)
	}

	if _, ok, err := store.GetRun(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing run: ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreListRunsOrdered(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	for _, run := range []model.RunRecord{
		testRun("run-b", 200),
		testRun("run-c", 100),
		testRun("run-a", 200),
	} {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run: %v", err)
		}
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	want := []string{"run-c", "run-a", "run-b"}
	if len(runs) != len(want) {
		t.Fatalf("listed %d runs, want %d", len(runs), len(want))
	}
	for i, id := range want {
		if runs[i].ID != id {
			t.Fatalf("run order = %v, want created time then id", runs)
		}
	}
}

func TestMemoryStoreTraceRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	trace := []model.TraceEvent{
		{Iteration: 1, Position: 2, FromCodon: "AAG", ToCodon: "AAA", CAI: 0.95, Folded: true, Energy: -3.5, Accepted: true, BestEnergy: -3.5, Exploration: 1.0},
		{Iteration: 2, Position: 3, FromCodon: "CUG", ToCodon: "UUA", CAI: 0.71, BestEnergy: -3.5, Exploration: 1.0},
	}
	if err := store.SaveTrace(ctx, "run-1", trace); err != nil {
		t.Fatalf("save trace: %v", err)
	}

	got, ok, err := store.GetTrace(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get trace: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, trace) {
		t.Fatalf("trace round trip mismatch")
	}

	// The store must hand out copies, not aliases.
	got[0].Energy = 99
	again, _, err := store.GetTrace(ctx, "run-1")
	if err != nil {
		t.Fatalf("get trace: %v", err)
	}
	if again[0].Energy != -3.5 {
		t.Fatal("stored trace mutated through a returned slice")
	}

	if _, ok, err := store.GetTrace(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing trace: ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreEnergyHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	history := []float64{-1.0, -2.5, -2.5, -4.0}
	if err := store.SaveEnergyHistory(ctx, "run-1", history); err != nil {
		t.Fatalf("save history: %v", err)
	}

	got, ok, err := store.GetEnergyHistory(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get history: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, history) {
		t.Fatalf("history = %v, want %v", got, history)
	}

	got[0] = 42
	again, _, err := store.GetEnergyHistory(ctx, "run-1")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if again[0] != -1.0 {
		t.Fatal("stored history mutated through a returned slice")
	}
}

func TestNewStoreFactory(t *testing.T) {
	store, err := NewStore("", "")
	if err != nil {
		t.Fatalf("default store: %v", err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Fatalf("default store is %T, want *MemoryStore", store)
	}

	if _, err := NewStore("postgres", ""); err == nil {
		t.Fatal("expected error for unsupported backend")
	}

	if err := CloseIfSupported(NewMemoryStore()); err != nil {
		t.Fatalf("close on memory store: %v", err)
	}
}
