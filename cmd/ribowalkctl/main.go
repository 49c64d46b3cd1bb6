package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"ribowalk/internal/codon"
	"ribowalk/internal/config"
	"ribowalk/internal/fold"
	"ribowalk/internal/model"
	"ribowalk/internal/report"
	"ribowalk/internal/storage"
	riboapi "ribowalk/pkg/ribowalk"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runDesign(ctx, args[1:])
	case "fold":
		return runFold(ctx, args[1:])
	case "cai":
		return runCAI(ctx, args[1:])
	case "table":
		return runTable(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "trace":
		return runTrace(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: ribowalkctl <run|fold|cai|table|runs|trace|export> [flags]", msg)
}

func runDesign(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	aaSeq := fs.String("aa-seq", "", "amino-acid sequence, standard one-letter code")
	mode := fs.String("stability", "", "stability mode: minimum-free-energy|ensemble-free-energy")
	threshold := fs.Float64("cai-threshold", 0, "CAI must stay at or above this, in (0, 1]")
	iterations := fs.Int("iterations", 0, "iteration budget")
	timeBudget := fs.Duration("time-budget", 0, "wall-clock budget, 0 means none")
	seed := fs.Int64("seed", 0, "random seed")
	walkers := fs.Int("walkers", 0, "independent walkers with derived seeds")
	verbose := fs.Bool("verbose", false, "log one line per iteration")
	tablePath := fs.String("usage-table", "", "codon usage table file (.csv or whitespace format)")
	configPath := fs.String("config", "", "configuration YAML, overrides embedded defaults")
	storeKind := fs.String("store", "", "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *aaSeq == "" {
		return usageError("run: -aa-seq is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *storeKind == "" {
		*storeKind = cfg.Store.Kind
	}
	if *dbPath == "" {
		*dbPath = cfg.Store.DBPath
	}
	if *iterations == 0 {
		*iterations = cfg.Walk.Iterations
	}
	if *walkers == 0 {
		*walkers = cfg.Walk.Walkers
	}
	if *seed == 0 {
		*seed = cfg.Walk.Seed
	}
	if *timeBudget == 0 && cfg.Walk.TimeBudgetSeconds > 0 {
		*timeBudget = time.Duration(cfg.Walk.TimeBudgetSeconds) * time.Second
	}

	table, err := loadTable(*tablePath)
	if err != nil {
		return err
	}

	client, err := riboapi.New(riboapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	req := riboapi.DesignRequest{
		AminoAcids:         *aaSeq,
		Mode:               *mode,
		Threshold:          *threshold,
		Iterations:         *iterations,
		Plateau:            cfg.Walk.Plateau,
		Window:             cfg.Walk.Window,
		TimeBudget:         *timeBudget,
		TargetAcceptance:   cfg.Walk.TargetAcceptance,
		InitialExploration: cfg.Walk.InitialExploration,
		AcceptancePolicy:   cfg.Walk.AcceptancePolicy,
		RateController:     cfg.Walk.RateController,
		Seed:               *seed,
		Walkers:            *walkers,
		Table:              table,
		CollectTrace:       true,
	}
	if *verbose {
		req.Logger = report.VerboseLogger(os.Stderr)
	}

	summary, err := client.Design(ctx, req)
	if err != nil {
		return err
	}

	reporter := report.NewReporter(os.Stdout)
	reporter.PrintResult(summary.Record, summary.Stats)
	return nil
}

func runFold(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fold", flag.ContinueOnError)
	sequence := fs.String("sequence", "", "RNA sequence, AUCG only, length divisible by 3")
	mode := fs.String("stability", "minimum-free-energy", "stability mode")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sequence == "" {
		return usageError("fold: -sequence is required")
	}

	parsedMode, err := fold.ParseMode(*mode)
	if err != nil {
		return err
	}
	prediction, err := fold.NewPredictor().Fold(ctx, strings.ToUpper(*sequence), parsedMode)
	if err != nil {
		return err
	}

	fmt.Println(prediction.Structure)
	fmt.Printf("%.2f kcal/mol\n", prediction.Energy)
	return nil
}

func runCAI(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("cai", flag.ContinueOnError)
	sequence := fs.String("sequence", "", "coding sequence, length divisible by 3")
	tablePath := fs.String("usage-table", "", "codon usage table file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sequence == "" {
		return usageError("cai: -sequence is required")
	}
	if len(*sequence)%3 != 0 {
		return fmt.Errorf("sequence length %d not divisible by 3", len(*sequence))
	}

	table, err := loadTable(*tablePath)
	if err != nil {
		return err
	}
	if table == nil {
		if table, err = codon.DefaultTable(); err != nil {
			return err
		}
	}

	candidate := make(model.Candidate, 0, len(*sequence)/3)
	upper := strings.ReplaceAll(strings.ToUpper(*sequence), "T", "U")
	for i := 0; i+3 <= len(upper); i += 3 {
		candidate = append(candidate, upper[i:i+3])
	}

	score, err := codon.NewEvaluator(table).Score(candidate)
	if err != nil {
		return err
	}
	protein, err := table.Translate(candidate)
	if err != nil {
		return err
	}
	fmt.Printf("protein %s\ncai %.4f\n", protein, score)
	return nil
}

func runTable(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("table", flag.ContinueOnError)
	tablePath := fs.String("usage-table", "", "codon usage table file")
	aa := fs.String("aa", "", "show codons for one amino acid")
	if err := fs.Parse(args); err != nil {
		return err
	}

	table, err := loadTable(*tablePath)
	if err != nil {
		return err
	}
	if table == nil {
		if table, err = codon.DefaultTable(); err != nil {
			return err
		}
	}

	if *aa == "" {
		return usageError("table: -aa is required")
	}
	if len(*aa) != 1 {
		return fmt.Errorf("expected a one-letter amino acid, got %q", *aa)
	}

	entries, err := table.Codons((*aa)[0])
	if err != nil {
		return err
	}
	best, _ := table.MaxWeightCodon((*aa)[0])
	for _, e := range entries {
		marker := ""
		if e.Codon == best {
			marker = " *"
		}
		fmt.Printf("%s %.1f%s\n", e.Codon, e.Weight, marker)
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "ribowalk.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := riboapi.New(riboapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	runs, err := client.ListRuns(ctx)
	if err != nil {
		return err
	}
	for _, run := range runs {
		fmt.Printf("%s %s aa=%d cai=%.4f energy=%.2f outcome=%s\n",
			run.ID, run.Mode, len(run.AminoAcids), run.CAI, run.Energy, run.Outcome)
	}
	return nil
}

func runTrace(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("trace", flag.ContinueOnError)
	runID := fs.String("run", "", "run id")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "ribowalk.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("trace: -run is required")
	}

	client, err := riboapi.New(riboapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	trace, ok, err := client.GetTrace(ctx, *runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no trace for run %s", *runID)
	}
	report.NewReporter(os.Stdout).PrintTrace(trace)
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run", "", "run id")
	outPath := fs.String("out", "", "CSV output path")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "ribowalk.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" || *outPath == "" {
		return usageError("export: -run and -out are required")
	}

	client, err := riboapi.New(riboapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	trace, ok, err := client.GetTrace(ctx, *runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no trace for run %s", *runID)
	}
	if err := report.ExportTraceCSV(*outPath, trace); err != nil {
		return err
	}
	fmt.Printf("exported %d events to %s\n", len(trace), *outPath)
	return nil
}

// loadTable reads a usage table from path; an empty path returns nil so
// callers fall back to the embedded default.
func loadTable(path string) (*codon.Table, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.HasSuffix(path, ".csv") {
		return codon.LoadCSV(f)
	}
	return codon.ParseUsageTable(f)
}
