package capture

import (
	"sync"

	"github.com/ehlowr0ld/agent-zero/internal/engineio"
)

// IOCarrier is the slice of the engine surface the interceptor needs: read
// the current I/O object and replace it. Engines swap the whole object, so
// the third-party I/O implementation itself is never mutated.
type IOCarrier interface {
	IO() engineio.IO
	SetIO(engineio.IO)
}

// Record tracks the interception of one named hook.
type Record struct {
	Hook      string
	Installed bool
}

// Interceptor wraps an engine's I/O object with a capturing adapter. Hooks
// absent on the original are skipped individually; partial installation is
// valid. Restore puts the original object back and is idempotent.
type Interceptor struct {
	mu       sync.Mutex
	target   IOCarrier
	original engineio.IO
	records  map[string]*Record
	sink     *Sink
	state    *RedirectionState

	// forward also invokes the original hook after capturing, so terminal
	// output is preserved when the caller wants it.
	forward bool
}

// NewInterceptor builds an interceptor for target. Call Install to activate.
func NewInterceptor(target IOCarrier, sink *Sink, state *RedirectionState, forward bool) *Interceptor {
	return &Interceptor{
		target:  target,
		sink:    sink,
		state:   state,
		forward: forward,
	}
}

// Install swaps the capturing adapter in front of the engine's I/O object.
// Calling Install twice without Restore is a no-op the second time.
func (ic *Interceptor) Install() {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if ic.records != nil {
		return
	}

	original := ic.target.IO()
	records := make(map[string]*Record, len(engineio.AllHooks))
	for _, hook := range engineio.AllHooks {
		records[hook] = &Record{Hook: hook, Installed: engineio.Has(original, hook)}
	}

	ic.original = original
	ic.records = records
	ic.target.SetIO(&capturingIO{ic: ic})
}

// Restore reattaches the original I/O object and clears the record set.
// Safe to call multiple times and safe after a partial installation; it
// never panics.
func (ic *Interceptor) Restore() {
	defer func() {
		_ = recover()
	}()

	ic.mu.Lock()
	defer ic.mu.Unlock()
	if ic.records == nil {
		return
	}
	if ic.original != nil {
		ic.target.SetIO(ic.original)
	}
	ic.original = nil
	ic.records = nil
}

// Records returns a copy of the per-hook interception records.
func (ic *Interceptor) Records() []Record {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	out := make([]Record, 0, len(ic.records))
	for _, hook := range engineio.AllHooks {
		if r, ok := ic.records[hook]; ok {
			out = append(out, *r)
		}
	}
	return out
}

// installed reports whether the named hook was present on the original.
func (ic *Interceptor) installed(hook string) (engineio.IO, bool) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if ic.records == nil {
		return nil, false
	}
	r, ok := ic.records[hook]
	if !ok || !r.Installed {
		return nil, false
	}
	return ic.original, true
}

// capture forwards a chunk to the sink unless the low-level redirect already
// owns the bytes. Capture failures never propagate into the engine.
func (ic *Interceptor) capture(write func(*Sink)) {
	if ic.state.Suppressed() {
		return
	}
	defer func() {
		_ = recover()
	}()
	write(ic.sink)
}

// capturingIO is the adapter swapped in front of the original I/O object. It
// exposes the full hook surface; hooks the original lacked stay inert.
type capturingIO struct {
	ic *Interceptor
}

func (c *capturingIO) AssistantOutput(message string) {
	original, ok := c.ic.installed(engineio.HookAssistantOutput)
	if !ok {
		return
	}
	c.ic.capture(func(s *Sink) { s.Write(message) })
	if c.ic.forward {
		engineio.EmitAssistant(original, message)
	}
}

func (c *capturingIO) ToolOutput(messages ...string) {
	original, ok := c.ic.installed(engineio.HookToolOutput)
	if !ok {
		return
	}
	if text := engineio.JoinTool(messages); text != "" {
		c.ic.capture(func(s *Sink) { s.Write(text) })
	}
	if c.ic.forward {
		engineio.EmitTool(original, messages...)
	}
}

func (c *capturingIO) ToolWarning(message string) {
	original, ok := c.ic.installed(engineio.HookToolWarning)
	if !ok {
		return
	}
	c.ic.capture(func(s *Sink) { s.WriteWarning(message) })
	if c.ic.forward {
		engineio.EmitWarning(original, message)
	}
}

func (c *capturingIO) ToolError(message string) {
	original, ok := c.ic.installed(engineio.HookToolError)
	if !ok {
		return
	}
	c.ic.capture(func(s *Sink) { s.WriteError(message) })
	if c.ic.forward {
		engineio.EmitError(original, message)
	}
}

func (c *capturingIO) ConsolePrint(args ...any) {
	original, ok := c.ic.installed(engineio.HookConsolePrint)
	if !ok {
		return
	}
	if text := engineio.JoinConsole(args); text != "" {
		c.ic.capture(func(s *Sink) { s.Write(text) })
	}
	if c.ic.forward {
		engineio.EmitConsole(original, args...)
	}
}
