// Package domain defines the model, tensor, and reactor entities and the
// repository ports their storage adapters implement.
package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrConfig          = errors.New("configuration error")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrInternal        = errors.New("internal error")
)

// Tensor roles understood by the schema.
const (
	TensorTypeWeight     = "weight"
	TensorTypeBias       = "bias"
	TensorTypeEmbedding  = "embedding"
	TensorTypeActivation = "activation"
)

// Reactor types.
const (
	ReactorTypeEnsemble     = "ensemble"
	ReactorTypeCascade      = "cascade"
	ReactorTypeParallel     = "parallel"
	ReactorTypeHierarchical = "hierarchical"
)

// Fusion strategies.
const (
	FusionWeightedAverage = "weighted_average"
	FusionVoting          = "voting"
	FusionStacking        = "stacking"
	FusionDynamic         = "dynamic"
)

// Defaults applied at the persistence boundary.
const (
	DefaultDType        = "float32"
	MemberRolePrimary   = "primary"
	DefaultMemberWeight = 1.0
)

// ArchitectureConfig is the typed form of the models.architecture_config
// document. It stays strongly typed inside the process and is serialized to
// JSON only at the persistence edge.
type ArchitectureConfig struct {
	NumLayers             int     `json:"num_layers" yaml:"num_layers"`
	HiddenSize            int     `json:"hidden_size" yaml:"hidden_size"`
	NumAttentionHeads     int     `json:"num_attention_heads,omitempty" yaml:"num_attention_heads"`
	IntermediateSize      int     `json:"intermediate_size,omitempty" yaml:"intermediate_size"`
	MaxPositionEmbeddings int     `json:"max_position_embeddings,omitempty" yaml:"max_position_embeddings"`
	VocabSize             int     `json:"vocab_size,omitempty" yaml:"vocab_size"`
	Dropout               float64 `json:"dropout,omitempty" yaml:"dropout"`
	AttentionDropout      float64 `json:"attention_dropout,omitempty" yaml:"attention_dropout"`
}

// Model is a registered model row. ID, Status, and CreatedAt are
// server-generated.
type Model struct {
	ID        string
	Name      string
	Type      string
	Config    ArchitectureConfig
	Version   string
	Status    string
	CreatedAt time.Time
}

// Tensor is the metadata row for one named tensor of a model. Shape is the
// ordered dimension list; the element count is derived, never stored on the
// struct, so the two cannot drift apart.
type Tensor struct {
	ID      string
	Name    string
	Type    string
	ModelID string
	Shape   []int64
	DType   string
}

// TotalElements returns the number of scalar elements the shape addresses.
// An empty shape is a scalar: the empty product is 1.
func (t Tensor) TotalElements() int64 {
	n := int64(1)
	for _, dim := range t.Shape {
		n *= dim
	}
	return n
}

// TensorChunk is one slice of a tensor's byte payload. (TensorID, Index) is
// the storage key; re-storing the same pair overwrites the payload. The
// zero Index is chunk 0, so unchunked tensors need no special casing.
type TensorChunk struct {
	TensorID string
	Index    int
	Data     []byte
}

// Reactor is an ensemble grouping of models under a fusion strategy.
type Reactor struct {
	ID             string
	Name           string
	Type           string
	FusionStrategy string
}

// ReactorMember links a model into a reactor. Weight is a pointer so an
// explicit zero weight stays distinguishable from "not set".
type ReactorMember struct {
	ReactorID string
	ModelID   string
	Role      string
	Weight    *float64
}

// Normalize applies the membership defaults: role "primary", weight 1.0.
func (m ReactorMember) Normalize() ReactorMember {
	if m.Role == "" {
		m.Role = MemberRolePrimary
	}
	if m.Weight == nil {
		w := DefaultMemberWeight
		m.Weight = &w
	}
	return m
}

// ReactorStatus is the precomputed per-reactor record served by the
// v_reactor_status view.
type ReactorStatus struct {
	ReactorID      string
	Name           string
	Type           string
	FusionStrategy string
	ActiveModels   int64
	TotalWeight    float64
}

// Repositories (ports)

type ModelRepository interface {
	Create(ctx Context, m Model) (string, error)
	Get(ctx Context, id string) (Model, error)
	List(ctx Context, status string) ([]Model, error)
}

type TensorRepository interface {
	Create(ctx Context, t Tensor) (string, error)
	StoreChunk(ctx Context, c TensorChunk) error
}

type ReactorRepository interface {
	Create(ctx Context, r Reactor) (string, error)
	AddModel(ctx Context, m ReactorMember) error
	GetStatus(ctx Context, reactorID string) (ReactorStatus, error)
}

// Context aliases the standard context so adapters pass context.Context
// through without the domain importing adapter concerns.
type Context = context.Context
