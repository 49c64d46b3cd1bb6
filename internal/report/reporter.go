// Package report renders finalized walk state as text and CSV. It has no
// influence on the search outcome.
package report

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gocarina/gocsv"

	"ribowalk/internal/model"
	"ribowalk/internal/stats"
)

type Reporter struct {
	out io.Writer
}

func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// PrintResult writes the final design block: sequence, structure, metrics and
// how the iteration budget was spent.
func (r *Reporter) PrintResult(run model.RunRecord, summary stats.Summary) {
	fmt.Fprintf(r.out, "run %s (%s)\n", run.ID, run.Outcome)
	fmt.Fprintf(r.out, "protein   %s\n", run.AminoAcids)
	fmt.Fprintf(r.out, "sequence  %s\n", run.Sequence)
	if run.Structure != "" {
		fmt.Fprintf(r.out, "structure %s\n", run.Structure)
	}
	fmt.Fprintf(r.out, "energy    %.2f kcal/mol (%s)\n", run.Energy, run.Mode)
	fmt.Fprintf(r.out, "cai       %.4f (threshold %.2f)\n", run.CAI, run.Threshold)
	fmt.Fprintf(r.out, "iterations %d, fold calls %d, accepted %d, cai-rejected %d\n",
		summary.Iterations, summary.FoldCalls, summary.Accepted, summary.RejectedOnCAI)
	if summary.FoldCalls > 1 {
		fmt.Fprintf(r.out, "evaluated energies mean %.2f stddev %.2f p10 %.2f p50 %.2f p90 %.2f\n",
			summary.EnergyMean, summary.EnergyStdDev, summary.EnergyP10, summary.EnergyP50, summary.EnergyP90)
	}
	if summary.Iterations > 0 {
		fmt.Fprintf(r.out, "acceptance rate %.3f, final exploration %.4f\n",
			summary.AcceptanceRate, summary.FinalExploration)
	}
}

// PrintTrace writes one line per iteration.
func (r *Reporter) PrintTrace(trace []model.TraceEvent) {
	for _, ev := range trace {
		status := "rejected"
		if ev.Accepted {
			status = "accepted"
		}
		if !ev.Folded {
			status = "cai-rejected"
		}
		fmt.Fprintf(r.out, "iter %d pos %d %s->%s cai %.4f energy %.2f best %.2f expl %.4f %s\n",
			ev.Iteration, ev.Position, ev.FromCodon, ev.ToCodon,
			ev.CAI, ev.Energy, ev.BestEnergy, ev.Exploration, status)
	}
}

// ExportTraceCSV writes the trace with its csv tags.
func ExportTraceCSV(path string, trace []model.TraceEvent) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&trace, f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// VerboseLogger builds the logger the engine streams per-iteration events
// through when verbose mode is on.
func VerboseLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
