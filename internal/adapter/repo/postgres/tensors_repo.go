package postgres

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/arc-halo/fusiondb/internal/domain"
)

// TensorRepo persists tensor metadata and chunked tensor payloads.
type TensorRepo struct{ Pool PgxPool }

// NewTensorRepo constructs a TensorRepo with the given pool.
func NewTensorRepo(p PgxPool) *TensorRepo { return &TensorRepo{Pool: p} }

// Create registers tensor metadata and returns the server-generated id.
// The element count is derived from the shape on the way in; an empty shape
// is a scalar and counts as one element.
func (r *TensorRepo) Create(ctx domain.Context, t domain.Tensor) (string, error) {
	tracer := otel.Tracer("repo.tensors")
	ctx, span := tracer.Start(ctx, "tensors.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "tensor_metadata"),
	)
	dtype := t.DType
	if dtype == "" {
		dtype = domain.DefaultDType
	}
	q := `INSERT INTO tensor_metadata (tensor_name, tensor_type, model_id, shape, dtype, total_elements) VALUES ($1,$2,$3::uuid,$4::integer[],$5,$6) RETURNING tensor_id::text`
	var id string
	if err := r.Pool.QueryRow(ctx, q, t.Name, t.Type, t.ModelID, t.Shape, dtype, t.TotalElements()).Scan(&id); err != nil {
		return "", fmt.Errorf("op=tensor.create: %w", err)
	}
	return id, nil
}

// StoreChunk writes one payload chunk, overwriting any existing chunk at the
// same (tensor_id, chunk_index). The stored chunk_size always matches the
// payload length.
func (r *TensorRepo) StoreChunk(ctx domain.Context, c domain.TensorChunk) error {
	tracer := otel.Tracer("repo.tensors")
	ctx, span := tracer.Start(ctx, "tensors.StoreChunk")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "tensor_data"),
	)
	q := `INSERT INTO tensor_data (tensor_id, chunk_index, data_blob, chunk_size) VALUES ($1::uuid,$2,$3,$4)
ON CONFLICT (tensor_id, chunk_index) DO UPDATE SET data_blob = EXCLUDED.data_blob, chunk_size = EXCLUDED.chunk_size`
	_, err := r.Pool.Exec(ctx, q, c.TensorID, c.Index, c.Data, len(c.Data))
	if err != nil {
		return fmt.Errorf("op=tensor.store_chunk: %w", err)
	}
	return nil
}
