package engine

import (
	"context"
	"testing"

	"github.com/ehlowr0ld/agent-zero/internal/engineio"
)

type nullEngine struct {
	io engineio.IO
}

func (e *nullEngine) Run(ctx context.Context, instruction string) (any, error) { return nil, nil }
func (e *nullEngine) ModelID() string                                          { return "null" }
func (e *nullEngine) IO() engineio.IO                                          { return e.io }
func (e *nullEngine) SetIO(io engineio.IO)                                     { e.io = io }

func TestRegistryCreate(t *testing.T) {
	r := NewRegistry()
	r.Register("null", func(config Config) (Engine, error) {
		return &nullEngine{io: engineio.Discard{}}, nil
	})

	eng, err := r.Create(Config{Type: "null"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eng.ModelID() != "null" {
		t.Fatalf("unexpected model id %q", eng.ModelID())
	}
}

func TestRegistryUnknownType(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Create(Config{Type: "nope"}); err == nil {
		t.Fatal("expected error for unknown engine type")
	}
}

func TestRegistrySupportedTypes(t *testing.T) {
	r := NewRegistry()
	r.Register("b", func(Config) (Engine, error) { return nil, nil })
	r.Register("a", func(Config) (Engine, error) { return nil, nil })

	types := r.SupportedTypes()
	if len(types) != 2 || types[0] != "a" || types[1] != "b" {
		t.Fatalf("unexpected types %v", types)
	}
}
