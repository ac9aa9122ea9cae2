package seed_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/arc-halo/fusiondb/internal/domain"
	"github.com/arc-halo/fusiondb/internal/seed"
)

const (
	seedModelID   = "1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d"
	seedReactorID = "5d4c3b2a-1f0e-4d9c-8b7a-6f5e4d3c2b1a"
)

// fakeModels implements domain.ModelRepository in memory.
type fakeModels struct {
	created   []domain.Model
	createErr error
	got       []string
}

func (f *fakeModels) Create(_ domain.Context, m domain.Model) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, m)
	return seedModelID, nil
}

func (f *fakeModels) Get(_ domain.Context, id string) (domain.Model, error) {
	f.got = append(f.got, id)
	return domain.Model{ID: id, Status: "active"}, nil
}

func (f *fakeModels) List(_ domain.Context, _ string) ([]domain.Model, error) { return nil, nil }

// fakeTensors implements domain.TensorRepository in memory.
type fakeTensors struct {
	created   []domain.Tensor
	createErr error
}

func (f *fakeTensors) Create(_ domain.Context, t domain.Tensor) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, t)
	return "tensor-" + t.Name, nil
}

func (f *fakeTensors) StoreChunk(_ domain.Context, _ domain.TensorChunk) error { return nil }

// fakeReactors implements domain.ReactorRepository in memory.
type fakeReactors struct {
	created   []domain.Reactor
	members   []domain.ReactorMember
	createErr error
	addErr    error
}

func (f *fakeReactors) Create(_ domain.Context, r domain.Reactor) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, r)
	return seedReactorID, nil
}

func (f *fakeReactors) AddModel(_ domain.Context, m domain.ReactorMember) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.members = append(f.members, m)
	return nil
}

func (f *fakeReactors) GetStatus(_ domain.Context, id string) (domain.ReactorStatus, error) {
	return domain.ReactorStatus{ReactorID: id, ActiveModels: int64(len(f.members)), TotalWeight: 1.0}, nil
}

func TestRun_DefaultProfile(t *testing.T) {
	models := &fakeModels{}
	tensors := &fakeTensors{}
	reactors := &fakeReactors{}

	res, err := seed.Run(t.Context(), models, tensors, reactors, seed.DefaultProfile())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ModelID != seedModelID {
		t.Fatalf("model id: %q", res.ModelID)
	}
	if res.ReactorID != seedReactorID {
		t.Fatalf("reactor id: %q", res.ReactorID)
	}
	if len(res.TensorIDs) != 2 {
		t.Fatalf("tensor ids: %+v", res.TensorIDs)
	}
	if res.TensorIDs["token_embeddings"] != "tensor-token_embeddings" {
		t.Fatalf("token tensor id: %+v", res.TensorIDs)
	}

	if len(models.created) != 1 || models.created[0].Name != "example-gpt-small" {
		t.Fatalf("models created: %+v", models.created)
	}
	if len(tensors.created) != 2 || tensors.created[0].ModelID != seedModelID {
		t.Fatalf("tensors created: %+v", tensors.created)
	}
	if len(reactors.members) != 1 {
		t.Fatalf("members: %+v", reactors.members)
	}
	m := reactors.members[0]
	if m.ReactorID != seedReactorID || m.ModelID != seedModelID {
		t.Fatalf("membership ids: %+v", m)
	}
	if m.Role != domain.MemberRolePrimary || m.Weight == nil || *m.Weight != 1.0 {
		t.Fatalf("membership defaults: %+v", m)
	}
	// Verification reads back the created model.
	if len(models.got) != 1 || models.got[0] != seedModelID {
		t.Fatalf("verification reads: %+v", models.got)
	}
}

func TestRun_InvalidProfile(t *testing.T) {
	p := seed.DefaultProfile()
	p.Reactor.FusionStrategy = "telepathy"

	models := &fakeModels{}
	_, err := seed.Run(t.Context(), models, &fakeTensors{}, &fakeReactors{}, p)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if len(models.created) != 0 {
		t.Fatalf("no writes expected on invalid profile")
	}
}

func TestRun_TensorFailureKeepsModel(t *testing.T) {
	models := &fakeModels{}
	tensors := &fakeTensors{createErr: errors.New("disk full")}
	reactors := &fakeReactors{}

	res, err := seed.Run(t.Context(), models, tensors, reactors, seed.DefaultProfile())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "seed tensor token_embeddings") {
		t.Fatalf("error should name the failed step: %v", err)
	}
	// The model insert committed before the failure and stays reported.
	if res.ModelID != seedModelID {
		t.Fatalf("partial result should carry model id: %+v", res)
	}
	if res.ReactorID != "" {
		t.Fatalf("reactor must not be created after failure: %+v", res)
	}
	if len(reactors.created) != 0 {
		t.Fatalf("reactor writes expected to stop: %+v", reactors.created)
	}
}

func TestRun_MembershipFailure(t *testing.T) {
	reactors := &fakeReactors{addErr: errors.New("fk violation")}
	res, err := seed.Run(t.Context(), &fakeModels{}, &fakeTensors{}, reactors, seed.DefaultProfile())
	if err == nil || !strings.Contains(err.Error(), "seed membership") {
		t.Fatalf("expected membership error, got %v", err)
	}
	if res.ReactorID != seedReactorID {
		t.Fatalf("partial result should carry reactor id: %+v", res)
	}
}
