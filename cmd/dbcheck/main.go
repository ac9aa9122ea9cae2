// Command dbcheck verifies database connectivity, required extensions,
// schema objects, and sample queries, and exits non-zero when the
// database is not usable.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/arc-halo/fusiondb/internal/adapter/observability"
	"github.com/arc-halo/fusiondb/internal/config"
	"github.com/arc-halo/fusiondb/internal/diag"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	runID := observability.NewRunID()
	logger := observability.SetupLogger(cfg).With(slog.String("run_id", runID))
	slog.SetDefault(logger)

	// Register all Prometheus metrics once per process so embedding
	// applications can scrape diagnostic check counters.
	observability.InitMetrics()

	if cfg.DatabaseURL == "" {
		slog.Error("NEON_DATABASE_URL environment variable not set")
		os.Exit(1)
	}
	slog.Info("running database diagnostics", slog.String("dsn", cfg.RedactedDSN()))

	ctx := observability.ContextWithLogger(observability.ContextWithRunID(context.Background(), runID), logger)
	rep := diag.NewRunner(cfg.DatabaseURL).Run(ctx)

	fmt.Println()
	fmt.Println("Diagnostic summary")
	for _, res := range rep.Results {
		mark := "PASS"
		if !res.Passed {
			mark = "FAIL"
		}
		fmt.Printf("  %-16s %s\n", res.Name, mark)
	}
	fmt.Printf("\n%d/%d checks passed\n", rep.Passed, rep.Total)

	if !rep.AllPassed() {
		os.Exit(1)
	}
}
