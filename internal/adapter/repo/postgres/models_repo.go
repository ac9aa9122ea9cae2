// Package postgres provides the PostgreSQL adapters for model, tensor, and
// reactor storage.
//
// It implements the domain repository ports over a shared pgx connection
// pool, with per-operation tracing and a transactional write helper for
// scripts and diagnostics.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/arc-halo/fusiondb/internal/domain"
)

// ModelRepo persists and loads model metadata using a minimal pgx pool.
type ModelRepo struct{ Pool PgxPool }

// PgxPool is a minimal subset of pgxpool used by the repos for easy testing.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// NewModelRepo constructs a ModelRepo with the given pool.
func NewModelRepo(p PgxPool) *ModelRepo { return &ModelRepo{Pool: p} }

const modelColumns = `model_id::text, model_name, model_type, architecture_config, version, status, created_at`

// Create registers a model and returns the server-generated id. The typed
// architecture config is serialized to JSON here, at the persistence edge.
func (r *ModelRepo) Create(ctx domain.Context, m domain.Model) (string, error) {
	tracer := otel.Tracer("repo.models")
	ctx, span := tracer.Start(ctx, "models.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "models"),
	)
	cfg, err := json.Marshal(m.Config)
	if err != nil {
		return "", fmt.Errorf("op=model.create: %w", err)
	}
	q := `INSERT INTO models (model_name, model_type, architecture_config, version) VALUES ($1,$2,$3::jsonb,$4) RETURNING model_id::text`
	var id string
	if err := r.Pool.QueryRow(ctx, q, m.Name, m.Type, string(cfg), m.Version).Scan(&id); err != nil {
		return "", fmt.Errorf("op=model.create: %w", err)
	}
	return id, nil
}

// Get loads a model by id. An id that is not a UUID cannot match any row, so
// it maps to not-found without touching the database.
func (r *ModelRepo) Get(ctx domain.Context, id string) (domain.Model, error) {
	tracer := otel.Tracer("repo.models")
	ctx, span := tracer.Start(ctx, "models.Get")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "models"),
	)
	if _, err := uuid.Parse(id); err != nil {
		return domain.Model{}, fmt.Errorf("op=model.get: %w", domain.ErrNotFound)
	}
	q := `SELECT ` + modelColumns + ` FROM models WHERE model_id = $1::uuid`
	row := r.Pool.QueryRow(ctx, q, id)
	m, err := scanModel(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Model{}, fmt.Errorf("op=model.get: %w", domain.ErrNotFound)
		}
		return domain.Model{}, fmt.Errorf("op=model.get: %w", err)
	}
	return m, nil
}

// List returns models newest first, optionally filtered by status.
func (r *ModelRepo) List(ctx domain.Context, status string) ([]domain.Model, error) {
	tracer := otel.Tracer("repo.models")
	ctx, span := tracer.Start(ctx, "models.List")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "models"),
	)
	q := `SELECT ` + modelColumns + ` FROM models ORDER BY created_at DESC`
	var args []any
	if status != "" {
		q = `SELECT ` + modelColumns + ` FROM models WHERE status = $1 ORDER BY created_at DESC`
		args = append(args, status)
	}
	rows, err := r.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("op=model.list: %w", err)
	}
	defer rows.Close()
	var models []domain.Model
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, fmt.Errorf("op=model.list: %w", err)
		}
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=model.list: %w", err)
	}
	return models, nil
}

// scanModel reads one models row in modelColumns order and deserializes the
// architecture config.
func scanModel(row pgx.Row) (domain.Model, error) {
	var m domain.Model
	var cfg []byte
	if err := row.Scan(&m.ID, &m.Name, &m.Type, &cfg, &m.Version, &m.Status, &m.CreatedAt); err != nil {
		return domain.Model{}, err
	}
	if len(cfg) > 0 {
		if err := json.Unmarshal(cfg, &m.Config); err != nil {
			return domain.Model{}, err
		}
	}
	return m, nil
}
