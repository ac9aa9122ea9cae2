// Command seed populates the database with a model, its tensor metadata,
// and a fusion reactor wired to that model, then verifies the rows are
// readable. The created IDs are printed to stdout as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arc-halo/fusiondb/internal/adapter/observability"
	"github.com/arc-halo/fusiondb/internal/adapter/repo/postgres"
	"github.com/arc-halo/fusiondb/internal/config"
	"github.com/arc-halo/fusiondb/internal/seed"
)

func main() {
	profilePath := flag.String("profile", "", "path to a YAML seed profile (defaults to the built-in profile)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	runID := observability.NewRunID()
	logger := observability.SetupLogger(cfg).With(slog.String("run_id", runID))
	slog.SetDefault(logger)

	// Register all Prometheus metrics once per process so embedding
	// applications can scrape seeding and DB command counters.
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := observability.ContextWithLogger(observability.ContextWithRunID(context.Background(), runID), logger)
	db, err := postgres.New(ctx, cfg)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()
	prometheus.MustRegister(observability.NewPoolStatsCollector(db.Stat))

	path := *profilePath
	if path == "" {
		path = cfg.SeedProfile
	}
	profile := seed.DefaultProfile()
	if path != "" {
		profile, err = seed.LoadProfile(path)
		if err != nil {
			slog.Error("failed to load seed profile", slog.String("path", path), slog.Any("error", err))
			os.Exit(1)
		}
		slog.Info("using seed profile", slog.String("path", path))
	}

	res, err := seed.Run(ctx,
		postgres.NewModelRepo(db.Pool),
		postgres.NewTensorRepo(db.Pool),
		postgres.NewReactorRepo(db.Pool),
		profile,
	)
	if err != nil {
		slog.Error("seeding failed", slog.Any("error", err))
		os.Exit(1)
	}

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		slog.Error("failed to encode result", slog.Any("error", err))
		os.Exit(1)
	}
	fmt.Println(string(out))
	slog.Info("seeding completed successfully",
		slog.String("model_id", res.ModelID),
		slog.String("reactor_id", res.ReactorID))
}
