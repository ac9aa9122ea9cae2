// Package diag verifies database connectivity and schema health.
//
// Every check opens its own single connection and closes it, so one broken
// check cannot poison the others and the suite reports on the raw server,
// not on pool state.
package diag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/arc-halo/fusiondb/internal/adapter/observability"
)

// Tables the schema must contain for the system to operate.
var requiredTables = []string{
	"models",
	"transformer_layers",
	"attention_heads",
	"tensor_metadata",
	"tensor_data",
	"model_weights",
	"embeddings",
	"training_sessions",
	"training_metrics",
	"optimizer_state",
	"model_checkpoints",
	"gradient_checkpoints",
	"inference_sessions",
	"activation_cache",
	"kv_cache",
	"inference_metrics",
	"attention_patterns",
	"cognitive_fusion_reactors",
	"reactor_models",
	"fusion_operations",
	"model_interaction_graph",
	"cognitive_state",
	"reactor_metrics",
}

// Views and functions are optional deployment extras: their absence is
// reported but never fails the suite.
var expectedViews = []string{
	"v_model_architecture",
	"v_training_progress",
	"v_reactor_status",
}

var expectedFunctions = []string{
	"calculate_model_parameters",
	"get_latest_checkpoint",
	"update_updated_at_column",
}

var sampleTables = []string{
	"models",
	"cognitive_fusion_reactors",
	"training_sessions",
}

// Conn is the minimal single-connection surface the checks use, satisfied
// by *pgx.Conn.
type Conn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close(ctx context.Context) error
}

// CheckResult is the outcome of one diagnostic check. Warnings are findings
// that do not affect Passed.
type CheckResult struct {
	Name     string
	Passed   bool
	Notes    []string
	Warnings []string
}

// Report aggregates the whole diagnostic run.
type Report struct {
	Results []CheckResult
	Passed  int
	Total   int
}

// AllPassed reports whether every check passed.
func (r Report) AllPassed() bool { return r.Passed == r.Total }

// Runner executes the diagnostic checks against one DSN. Connect is
// swappable for tests and defaults to pgx.Connect.
type Runner struct {
	DSN     string
	Connect func(ctx context.Context, dsn string) (Conn, error)
}

// NewRunner builds a Runner that dials real single connections.
func NewRunner(dsn string) *Runner {
	return &Runner{
		DSN: dsn,
		Connect: func(ctx context.Context, dsn string) (Conn, error) {
			return pgx.Connect(ctx, dsn)
		},
	}
}

// Run executes all checks in order and never aborts early: a failed check
// still lets the rest report their findings.
func (r *Runner) Run(ctx context.Context) Report {
	checks := []struct {
		name string
		fn   func(ctx context.Context) CheckResult
	}{
		{"connection", r.checkConnection},
		{"extensions", r.checkExtensions},
		{"tables", r.checkTables},
		{"views", r.checkViews},
		{"functions", r.checkFunctions},
		{"sample_queries", r.checkSamples},
	}

	lg := observability.LoggerFromContext(ctx)
	rep := Report{Total: len(checks)}
	for _, c := range checks {
		res := c.fn(ctx)
		res.Name = c.name
		observability.ObserveCheck(c.name, res.Passed)
		for _, w := range res.Warnings {
			lg.Warn("diagnostic warning", slog.String("check", c.name), slog.String("finding", w))
		}
		if res.Passed {
			rep.Passed++
			lg.Info("check passed", slog.String("check", c.name), slog.Any("notes", res.Notes))
		} else {
			lg.Error("check failed", slog.String("check", c.name), slog.Any("notes", res.Notes))
		}
		rep.Results = append(rep.Results, res)
	}
	return rep
}

func fail(err error) CheckResult {
	return CheckResult{Passed: false, Notes: []string{err.Error()}}
}

func (r *Runner) checkConnection(ctx context.Context) CheckResult {
	conn, err := r.Connect(ctx, r.DSN)
	if err != nil {
		return fail(fmt.Errorf("connect: %w", err))
	}
	defer func() { _ = conn.Close(ctx) }()

	var version string
	if err := conn.QueryRow(ctx, `SELECT version()`).Scan(&version); err != nil {
		return fail(fmt.Errorf("select version: %w", err))
	}
	return CheckResult{
		Passed: true,
		Notes:  []string{"server: " + strings.SplitN(version, ",", 2)[0]},
	}
}

func (r *Runner) checkExtensions(ctx context.Context) CheckResult {
	conn, err := r.Connect(ctx, r.DSN)
	if err != nil {
		return fail(fmt.Errorf("connect: %w", err))
	}
	defer func() { _ = conn.Close(ctx) }()

	rows, err := conn.Query(ctx, `SELECT extname, extversion FROM pg_extension WHERE extname = ANY($1)`, []string{"uuid-ossp", "vector"})
	if err != nil {
		return fail(fmt.Errorf("query extensions: %w", err))
	}
	defer rows.Close()

	found := map[string]string{}
	for rows.Next() {
		var name, version string
		if err := rows.Scan(&name, &version); err != nil {
			return fail(fmt.Errorf("scan extension: %w", err))
		}
		found[name] = version
	}
	if err := rows.Err(); err != nil {
		return fail(fmt.Errorf("read extensions: %w", err))
	}

	res := CheckResult{Passed: true}
	if v, ok := found["uuid-ossp"]; ok {
		res.Notes = append(res.Notes, "uuid-ossp "+v)
	} else {
		res.Passed = false
		res.Notes = append(res.Notes, "uuid-ossp extension missing (required for id generation)")
	}
	if v, ok := found["vector"]; ok {
		res.Notes = append(res.Notes, "vector "+v)
	} else {
		res.Warnings = append(res.Warnings, "vector extension not installed (optional, needed for embeddings)")
	}
	return res
}

func (r *Runner) checkTables(ctx context.Context) CheckResult {
	conn, err := r.Connect(ctx, r.DSN)
	if err != nil {
		return fail(fmt.Errorf("connect: %w", err))
	}
	defer func() { _ = conn.Close(ctx) }()

	rows, err := conn.Query(ctx, `SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' AND table_type = 'BASE TABLE'`)
	if err != nil {
		return fail(fmt.Errorf("query tables: %w", err))
	}
	defer rows.Close()

	present := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fail(fmt.Errorf("scan table: %w", err))
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return fail(fmt.Errorf("read tables: %w", err))
	}

	var missing []string
	for _, t := range requiredTables {
		if !present[t] {
			missing = append(missing, t)
		}
	}
	res := CheckResult{
		Passed: len(missing) == 0,
		Notes: []string{fmt.Sprintf("found %d/%d required tables",
			len(requiredTables)-len(missing), len(requiredTables))},
	}
	if len(missing) > 0 {
		res.Notes = append(res.Notes, "missing tables: "+strings.Join(missing, ", "))
	}
	return res
}

func (r *Runner) checkViews(ctx context.Context) CheckResult {
	conn, err := r.Connect(ctx, r.DSN)
	if err != nil {
		return fail(fmt.Errorf("connect: %w", err))
	}
	defer func() { _ = conn.Close(ctx) }()

	rows, err := conn.Query(ctx, `SELECT table_name FROM information_schema.views WHERE table_schema = 'public'`)
	if err != nil {
		return fail(fmt.Errorf("query views: %w", err))
	}
	defer rows.Close()

	present := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fail(fmt.Errorf("scan view: %w", err))
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return fail(fmt.Errorf("read views: %w", err))
	}

	// Missing views degrade monitoring, not correctness: warn, don't fail.
	res := CheckResult{Passed: true}
	for _, v := range expectedViews {
		if present[v] {
			res.Notes = append(res.Notes, v)
		} else {
			res.Warnings = append(res.Warnings, "view "+v+" not found (optional)")
		}
	}
	return res
}

func (r *Runner) checkFunctions(ctx context.Context) CheckResult {
	conn, err := r.Connect(ctx, r.DSN)
	if err != nil {
		return fail(fmt.Errorf("connect: %w", err))
	}
	defer func() { _ = conn.Close(ctx) }()

	rows, err := conn.Query(ctx, `SELECT proname FROM pg_proc WHERE proname = ANY($1)`, expectedFunctions)
	if err != nil {
		return fail(fmt.Errorf("query functions: %w", err))
	}
	defer rows.Close()

	present := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fail(fmt.Errorf("scan function: %w", err))
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return fail(fmt.Errorf("read functions: %w", err))
	}

	// Same asymmetry as views: helper functions are optional extras.
	res := CheckResult{Passed: true}
	for _, f := range expectedFunctions {
		if present[f] {
			res.Notes = append(res.Notes, f)
		} else {
			res.Warnings = append(res.Warnings, "function "+f+" not found (optional)")
		}
	}
	return res
}

func (r *Runner) checkSamples(ctx context.Context) CheckResult {
	conn, err := r.Connect(ctx, r.DSN)
	if err != nil {
		return fail(fmt.Errorf("connect: %w", err))
	}
	defer func() { _ = conn.Close(ctx) }()

	res := CheckResult{Passed: true}
	for _, tbl := range sampleTables {
		// Identifiers come from the fixed list above, never from input.
		var count int64
		if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM `+tbl).Scan(&count); err != nil {
			return fail(fmt.Errorf("count %s: %w", tbl, err))
		}
		res.Notes = append(res.Notes, fmt.Sprintf("%s: %d rows", tbl, count))
	}
	return res
}
