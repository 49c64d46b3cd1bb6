package storage

import (
	"context"

	"ribowalk/internal/model"
)

// Store defines persistence operations for design runs and their traces.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveTrace(ctx context.Context, runID string, trace []model.TraceEvent) error
	GetTrace(ctx context.Context, runID string) ([]model.TraceEvent, bool, error)
	SaveEnergyHistory(ctx context.Context, runID string, history []float64) error
	GetEnergyHistory(ctx context.Context, runID string) ([]float64, bool, error)
}
