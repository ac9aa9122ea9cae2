package postgres

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/arc-halo/fusiondb/internal/domain"
)

// ReactorRepo persists cognitive fusion reactors and their model memberships.
type ReactorRepo struct{ Pool PgxPool }

// NewReactorRepo constructs a ReactorRepo with the given pool.
func NewReactorRepo(p PgxPool) *ReactorRepo { return &ReactorRepo{Pool: p} }

// Create registers a reactor and returns the server-generated id.
func (r *ReactorRepo) Create(ctx domain.Context, reactor domain.Reactor) (string, error) {
	tracer := otel.Tracer("repo.reactors")
	ctx, span := tracer.Start(ctx, "reactors.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "cognitive_fusion_reactors"),
	)
	q := `INSERT INTO cognitive_fusion_reactors (reactor_name, reactor_type, fusion_strategy) VALUES ($1,$2,$3) RETURNING reactor_id::text`
	var id string
	if err := r.Pool.QueryRow(ctx, q, reactor.Name, reactor.Type, reactor.FusionStrategy).Scan(&id); err != nil {
		return "", fmt.Errorf("op=reactor.create: %w", err)
	}
	return id, nil
}

// AddModel links a model into a reactor, applying the membership defaults
// (role "primary", weight 1.0) for fields the caller left unset.
func (r *ReactorRepo) AddModel(ctx domain.Context, m domain.ReactorMember) error {
	tracer := otel.Tracer("repo.reactors")
	ctx, span := tracer.Start(ctx, "reactors.AddModel")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "reactor_models"),
	)
	if _, err := uuid.Parse(m.ReactorID); err != nil {
		return fmt.Errorf("op=reactor.add_model: %w", domain.ErrNotFound)
	}
	if _, err := uuid.Parse(m.ModelID); err != nil {
		return fmt.Errorf("op=reactor.add_model: %w", domain.ErrNotFound)
	}
	m = m.Normalize()
	q := `INSERT INTO reactor_models (reactor_id, model_id, model_role, weight) VALUES ($1::uuid,$2::uuid,$3,$4)`
	_, err := r.Pool.Exec(ctx, q, m.ReactorID, m.ModelID, m.Role, *m.Weight)
	if err != nil {
		return fmt.Errorf("op=reactor.add_model: %w", err)
	}
	return nil
}

// GetStatus loads the aggregated status row for one reactor from the
// v_reactor_status view. An id that is not a UUID cannot match any row, so
// it maps to not-found without touching the database.
func (r *ReactorRepo) GetStatus(ctx domain.Context, reactorID string) (domain.ReactorStatus, error) {
	tracer := otel.Tracer("repo.reactors")
	ctx, span := tracer.Start(ctx, "reactors.GetStatus")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "v_reactor_status"),
	)
	if _, err := uuid.Parse(reactorID); err != nil {
		return domain.ReactorStatus{}, fmt.Errorf("op=reactor.get_status: %w", domain.ErrNotFound)
	}
	q := `SELECT reactor_id::text, reactor_name, reactor_type, fusion_strategy, COALESCE(active_models, 0), COALESCE(total_weight, 0) FROM v_reactor_status WHERE reactor_id = $1::uuid`
	row := r.Pool.QueryRow(ctx, q, reactorID)
	var s domain.ReactorStatus
	if err := row.Scan(&s.ReactorID, &s.Name, &s.Type, &s.FusionStrategy, &s.ActiveModels, &s.TotalWeight); err != nil {
		if err == pgx.ErrNoRows {
			return domain.ReactorStatus{}, fmt.Errorf("op=reactor.get_status: %w", domain.ErrNotFound)
		}
		return domain.ReactorStatus{}, fmt.Errorf("op=reactor.get_status: %w", err)
	}
	return s, nil
}
