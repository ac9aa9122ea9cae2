package seed

import (
	"fmt"
	"log/slog"

	"github.com/arc-halo/fusiondb/internal/adapter/observability"
	"github.com/arc-halo/fusiondb/internal/domain"
)

// Result lists the ids created by one seeding run, keyed the way callers
// print them.
type Result struct {
	ModelID   string            `json:"model_id"`
	ReactorID string            `json:"reactor_id"`
	TensorIDs map[string]string `json:"tensor_ids"`
}

// Run seeds one profile: model, tensors, reactor, membership, then a
// read-back verification. Each write commits independently; on a mid-run
// failure earlier inserts stay committed, the partial Result reports them,
// and the error names the failed step.
func Run(ctx domain.Context, models domain.ModelRepository, tensors domain.TensorRepository, reactors domain.ReactorRepository, p Profile) (Result, error) {
	lg := observability.LoggerFromContext(ctx)
	res := Result{TensorIDs: make(map[string]string, len(p.Tensors))}
	if err := p.Validate(); err != nil {
		return res, err
	}

	modelID, err := models.Create(ctx, domain.Model{
		Name:    p.Model.Name,
		Type:    p.Model.Type,
		Config:  p.Model.Config,
		Version: p.Model.Version,
	})
	if err != nil {
		return res, fmt.Errorf("seed model: %w", err)
	}
	res.ModelID = modelID
	observability.ObserveSeeded("model")
	lg.Info("model created",
		slog.String("model_id", modelID),
		slog.String("name", p.Model.Name),
		slog.String("type", p.Model.Type))

	for _, ts := range p.Tensors {
		id, err := tensors.Create(ctx, domain.Tensor{
			Name:    ts.Name,
			Type:    ts.Type,
			ModelID: modelID,
			Shape:   ts.Shape,
			DType:   ts.DType,
		})
		if err != nil {
			return res, fmt.Errorf("seed tensor %s: %w", ts.Name, err)
		}
		res.TensorIDs[ts.Name] = id
		observability.ObserveSeeded("tensor")
		lg.Info("tensor created",
			slog.String("tensor_id", id),
			slog.String("name", ts.Name),
			slog.Any("shape", ts.Shape))
	}

	reactorID, err := reactors.Create(ctx, domain.Reactor{
		Name:           p.Reactor.Name,
		Type:           p.Reactor.Type,
		FusionStrategy: p.Reactor.FusionStrategy,
	})
	if err != nil {
		return res, fmt.Errorf("seed reactor: %w", err)
	}
	res.ReactorID = reactorID
	observability.ObserveSeeded("reactor")
	lg.Info("reactor created",
		slog.String("reactor_id", reactorID),
		slog.String("name", p.Reactor.Name),
		slog.String("strategy", p.Reactor.FusionStrategy))

	member := domain.ReactorMember{
		ReactorID: reactorID,
		ModelID:   modelID,
		Role:      p.Member.Role,
		Weight:    p.Member.Weight,
	}
	if err := reactors.AddModel(ctx, member); err != nil {
		return res, fmt.Errorf("seed membership: %w", err)
	}
	observability.ObserveSeeded("membership")

	// Read back what was just written so a silently broken schema (missing
	// view, wrong trigger) surfaces here instead of in the first consumer.
	m, err := models.Get(ctx, modelID)
	if err != nil {
		return res, fmt.Errorf("verify model: %w", err)
	}
	status, err := reactors.GetStatus(ctx, reactorID)
	if err != nil {
		return res, fmt.Errorf("verify reactor: %w", err)
	}
	lg.Info("seed verified",
		slog.String("model_status", m.Status),
		slog.Int64("active_models", status.ActiveModels),
		slog.Float64("total_weight", status.TotalWeight))

	return res, nil
}
