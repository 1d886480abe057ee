// Package engine defines the contract of a wrapped code-generation backend
// and the registry used to construct one by name.
package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/ehlowr0ld/agent-zero/internal/capture"
	"github.com/ehlowr0ld/agent-zero/internal/engineio"
)

// MCPServerConfig describes an MCP server that can be attached to an engine.
type MCPServerConfig struct {
	Name    string
	Command string
	Args    []string
	Env     map[string]string
}

// Config is the engine-construction configuration.
type Config struct {
	Type         string
	Model        string
	WorkingDir   string
	Environment  map[string]string
	SystemPrompt string
	MCPServers   []MCPServerConfig
	DryRun       bool
	Custom       map[string]any
}

// Engine is one blocking code-generation backend. Run executes a single
// instruction and blocks until the backend finishes; all intermediate output
// flows through the engine's I/O object.
type Engine interface {
	// Run blocks until the instruction completes and returns the engine's
	// payload. Errors surface here; partial output has already been
	// emitted through the I/O object by then.
	Run(ctx context.Context, instruction string) (any, error)

	// ModelID returns the identifier of the engine's active model.
	ModelID() string

	// IO returns the engine's current I/O object.
	IO() engineio.IO

	// SetIO replaces the engine's I/O object. Used by the interception
	// layer; engines must route every emission through the current object.
	SetIO(engineio.IO)
}

// RawRedirector is implemented by engines that can stream raw bytes through
// a lowest-level output channel, bypassing the named hooks. UsesRaw reports
// whether the raw channel is the active output path for the current
// configuration; when it is false the engine emits through the named hooks
// and the raw channel stays silent.
type RawRedirector interface {
	RawOutput() *capture.SwappableWriter
	UsesRaw() bool
}

// CreateFunc constructs an engine from config.
type CreateFunc func(config Config) (Engine, error)

// Registry maps engine type names to constructors.
type Registry struct {
	creators map[string]CreateFunc
}

func NewRegistry() *Registry {
	return &Registry{
		creators: make(map[string]CreateFunc),
	}
}

func (r *Registry) Register(engineType string, creator CreateFunc) {
	r.creators[engineType] = creator
}

func (r *Registry) Create(config Config) (Engine, error) {
	creator, ok := r.creators[config.Type]
	if !ok {
		return nil, fmt.Errorf("unknown engine type: %s", config.Type)
	}
	return creator(config)
}

func (r *Registry) SupportedTypes() []string {
	types := make([]string, 0, len(r.creators))
	for t := range r.creators {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
