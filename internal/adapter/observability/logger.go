package observability

import (
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/arc-halo/fusiondb/internal/config"
)

// SetupLogger builds the process logger: human-readable text at debug level
// in dev, JSON at info level elsewhere, with service and environment fields
// on every line.
func SetupLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{}
	var h slog.Handler
	if cfg.IsDev() {
		opts.Level = slog.LevelDebug
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(h).With(
		slog.String("service", cfg.OTELServiceName),
		slog.String("env", cfg.AppEnv),
	)
}

var ulidEntropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0) //nolint:gosec // Weak random is sufficient for ULID entropy.

// NewRunID returns a ULID for correlating all log lines of one CLI run.
// ULIDs sort lexicographically by time, which keeps runs ordered in log
// aggregators.
func NewRunID() string {
	id, err := ulid.New(ulid.Timestamp(time.Now()), ulidEntropy)
	if err != nil {
		// Fallback to a timestamp-based ID if ULID generation fails for any reason.
		return time.Now().UTC().Format("20060102150405.000000000")
	}
	return id.String()
}
