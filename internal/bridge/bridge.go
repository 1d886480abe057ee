// Package bridge ties an engine to an output sink: it installs the capture
// hooks, runs blocking invocations, and offers streaming and awaitable
// variants on top of them. One bridge owns one engine and one sink for the
// engine's lifetime.
package bridge

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ehlowr0ld/agent-zero/internal/capture"
	"github.com/ehlowr0ld/agent-zero/internal/engine"
	"github.com/ehlowr0ld/agent-zero/internal/engine/cli"
	"github.com/ehlowr0ld/agent-zero/internal/engine/gemini"
	"github.com/ehlowr0ld/agent-zero/internal/engine/openai"
)

// DefaultRegistry returns a registry with every built-in engine type.
func DefaultRegistry() *engine.Registry {
	r := engine.NewRegistry()
	r.Register("cli", cli.New)
	r.Register("openai", openai.New)
	r.Register("gemini", gemini.New)
	return r
}

// Options tune bridge behavior beyond the engine config.
type Options struct {
	// Forward passes intercepted hook calls through to the engine's
	// original IO in addition to capturing them.
	Forward bool

	// Pool runs async invocations. When nil the bridge creates its own.
	Pool *Pool
}

// Bridge wraps one engine with output capture. All invocation methods are
// serialized: a second run while one is in flight fails rather than
// interleaving output.
type Bridge struct {
	eng         engine.Engine
	sink        *capture.Sink
	state       *capture.RedirectionState
	interceptor *capture.Interceptor
	pool        *Pool
	ownsPool    bool
	inv         invocation
}

// New creates the engine named by config.Type through the default registry
// and wires it to a fresh sink. The sink is returned alongside the bridge so
// callers can subscribe before the first run.
func New(config engine.Config, opts Options) (*Bridge, *capture.Sink, error) {
	return NewWithRegistry(DefaultRegistry(), config, opts)
}

// NewWithRegistry is New with a caller-supplied engine registry.
func NewWithRegistry(registry *engine.Registry, config engine.Config, opts Options) (*Bridge, *capture.Sink, error) {
	eng, err := registry.Create(config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create engine: %w", err)
	}

	sink := capture.NewSink()
	state := capture.NewRedirectionState()
	interceptor := capture.NewInterceptor(eng, sink, state, opts.Forward)
	interceptor.Install()

	pool := opts.Pool
	ownsPool := false
	if pool == nil {
		pool = NewPool(DefaultPoolWorkers, DefaultPoolQueue)
		ownsPool = true
	}

	return &Bridge{
		eng:         eng,
		sink:        sink,
		state:       state,
		interceptor: interceptor,
		pool:        pool,
		ownsPool:    ownsPool,
	}, sink, nil
}

// Engine exposes the wrapped engine.
func (b *Bridge) Engine() engine.Engine { return b.eng }

// Sink exposes the bridge's output sink.
func (b *Bridge) Sink() *capture.Sink { return b.sink }

// State reports the lifecycle state of the current or last invocation.
func (b *Bridge) State() InvocationState { return b.inv.current() }

// RunCapturing clears the sink, runs the engine to completion, and returns a
// result describing the run. Engine failures are folded into the result; the
// only way this reports nothing is an overlapping run.
func (b *Bridge) RunCapturing(ctx context.Context, instruction string) *InvocationResult {
	if !b.inv.begin() {
		return &InvocationResult{
			Success: false,
			Error:   "invocation already in progress",
			ModelID: b.eng.ModelID(),
		}
	}

	b.sink.Clear()
	start := time.Now()

	// Redirect the raw channel only when it is the engine's active output
	// path. Acquiring it unconditionally would suppress hook-level capture
	// for engines that emit through the named hooks.
	var guard *capture.RedirectGuard
	if rr, ok := b.eng.(engine.RawRedirector); ok && rr.UsesRaw() {
		guard = capture.AcquireRedirect(rr.RawOutput(), b.state, b.sink)
		defer guard.Release()
	}

	payload, err := b.eng.Run(ctx, instruction)
	duration := time.Since(start).Seconds()

	// Release before reading the sink so a straggling raw write cannot land
	// between the output and event snapshots.
	if guard != nil {
		guard.Release()
	}

	result := &InvocationResult{
		Success:         err == nil,
		EnginePayload:   payload,
		CapturedOutput:  b.sink.Output(),
		Events:          b.sink.Events(),
		DurationSeconds: duration,
		ModelID:         b.eng.ModelID(),
	}
	if err != nil {
		result.Error = err.Error()
	}
	b.inv.finish(err == nil)
	return result
}

// RunStreamingCallback runs the engine while delivering every captured event
// to cb as it happens. After the run, cb receives exactly one completion
// event carrying the final output, whether the run succeeded or failed.
func (b *Bridge) RunStreamingCallback(ctx context.Context, instruction string, cb capture.Callback) *InvocationResult {
	id := b.sink.AddSubscriber(cb)
	defer b.sink.RemoveSubscriber(id)

	result := b.RunCapturing(ctx, instruction)
	b.sink.Complete(cb, result.CapturedOutput)
	return result
}

// RunStreamingAsync hands the run to the worker pool and waits for either
// the result or ctx. On ctx expiry the run keeps going in the background and
// cb still receives its completion event; only the caller stops waiting.
func (b *Bridge) RunStreamingAsync(ctx context.Context, instruction string, cb capture.Callback) (*InvocationResult, error) {
	resultCh, err := b.pool.Submit(ctx, func() *InvocationResult {
		return b.RunStreamingCallback(context.Background(), instruction, cb)
	})
	if err != nil {
		return nil, err
	}

	select {
	case result := <-resultCh:
		return result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close restores the engine's original IO and releases bridge resources. It
// is safe to call more than once and safe even if installation never
// happened.
func (b *Bridge) Close() error {
	b.interceptor.Restore()
	b.sink.ClearSubscribers()
	if b.ownsPool {
		b.pool.Close()
	}
	if closer, ok := b.eng.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
