// Package seed loads seed profiles and populates the database with a
// ready-to-use model, its embedding tensors, and an ensemble reactor.
package seed

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/arc-halo/fusiondb/internal/domain"
)

// ModelSpec describes the model row a profile creates.
type ModelSpec struct {
	Name    string                    `yaml:"name" validate:"required"`
	Type    string                    `yaml:"type" validate:"required"`
	Version string                    `yaml:"version" validate:"required"`
	Config  domain.ArchitectureConfig `yaml:"config"`
}

// TensorSpec describes one tensor-metadata row. An empty shape is a scalar;
// listed dimensions must be positive.
type TensorSpec struct {
	Name  string  `yaml:"name" validate:"required"`
	Type  string  `yaml:"type" validate:"required,oneof=weight bias embedding activation"`
	Shape []int64 `yaml:"shape" validate:"omitempty,dive,min=1"`
	DType string  `yaml:"dtype"`
}

// ReactorSpec describes the reactor row a profile creates.
type ReactorSpec struct {
	Name           string `yaml:"name" validate:"required"`
	Type           string `yaml:"type" validate:"required,oneof=ensemble cascade parallel hierarchical"`
	FusionStrategy string `yaml:"fusion_strategy" validate:"required,oneof=weighted_average voting stacking dynamic"`
}

// MemberSpec describes how the profile's model joins its reactor. Zero
// values fall back to the membership defaults on insert.
type MemberSpec struct {
	Role   string   `yaml:"role"`
	Weight *float64 `yaml:"weight"`
}

// Profile is the YAML-loadable description of one seeding run.
type Profile struct {
	Model   ModelSpec    `yaml:"model"`
	Tensors []TensorSpec `yaml:"tensors" validate:"dive"`
	Reactor ReactorSpec  `yaml:"reactor"`
	Member  MemberSpec   `yaml:"membership"`
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// Validate checks the profile against the schema's closed enums and naming
// requirements.
func (p Profile) Validate() error {
	if err := getValidator().Struct(p); err != nil {
		return fmt.Errorf("%w: profile validation failed: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}

// LoadProfile reads and validates a YAML profile from disk.
func LoadProfile(path string) (Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Profile{}, fmt.Errorf("profile not found: %s", path)
		}
		return Profile{}, err
	}
	var p Profile
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Profile{}, fmt.Errorf("yaml parse: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// DefaultProfile is the built-in example set: a small transformer with its
// token and position embeddings, grouped under a weighted-average ensemble
// reactor.
func DefaultProfile() Profile {
	cfg := domain.ArchitectureConfig{
		NumLayers:             6,
		HiddenSize:            512,
		NumAttentionHeads:     8,
		IntermediateSize:      2048,
		MaxPositionEmbeddings: 1024,
		VocabSize:             50000,
		Dropout:               0.1,
		AttentionDropout:      0.1,
	}
	weight := domain.DefaultMemberWeight
	return Profile{
		Model: ModelSpec{
			Name:    "example-gpt-small",
			Type:    "transformer",
			Version: "1.0.0",
			Config:  cfg,
		},
		Tensors: []TensorSpec{
			{
				Name:  "token_embeddings",
				Type:  domain.TensorTypeEmbedding,
				Shape: []int64{int64(cfg.VocabSize), int64(cfg.HiddenSize)},
				DType: domain.DefaultDType,
			},
			{
				Name:  "position_embeddings",
				Type:  domain.TensorTypeEmbedding,
				Shape: []int64{int64(cfg.MaxPositionEmbeddings), int64(cfg.HiddenSize)},
				DType: domain.DefaultDType,
			},
		},
		Reactor: ReactorSpec{
			Name:           "example-ensemble-reactor",
			Type:           domain.ReactorTypeEnsemble,
			FusionStrategy: domain.FusionWeightedAverage,
		},
		Member: MemberSpec{Role: domain.MemberRolePrimary, Weight: &weight},
	}
}
