package capture

import (
	"io"
	"strings"
	"sync"
)

// RedirectionState carries the flags shared between a bridge's low-level
// redirect path and its interception hooks. One instance per bridge; never
// shared across bridges.
type RedirectionState struct {
	mu sync.Mutex

	// suppressed is true while the low-level redirect is active, so the
	// hook-level interception does not record the same bytes twice.
	suppressed bool

	// writing is true only inside the low-level write itself, so a
	// subscriber that writes back to the raw channel cannot recurse.
	writing bool
}

func NewRedirectionState() *RedirectionState {
	return &RedirectionState{}
}

// Suppressed reports whether hook-level capture should stand down.
func (rs *RedirectionState) Suppressed() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.suppressed
}

func (rs *RedirectionState) setSuppressed(v bool) {
	rs.mu.Lock()
	rs.suppressed = v
	rs.mu.Unlock()
}

// enterWrite marks the low-level write in progress. Returns false if a write
// is already in progress, in which case the caller must treat its own write
// as a no-op capture.
func (rs *RedirectionState) enterWrite() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.writing {
		return false
	}
	rs.writing = true
	return true
}

func (rs *RedirectionState) exitWrite() {
	rs.mu.Lock()
	rs.writing = false
	rs.mu.Unlock()
}

// SwappableWriter is an io.Writer whose target can be replaced at runtime.
// It stands in for the process's lowest-level output channel: the engine
// writes raw bytes here, and the redirect guard swaps the target for the
// duration of one invocation.
type SwappableWriter struct {
	mu     sync.RWMutex
	target io.Writer
}

func NewSwappableWriter(target io.Writer) *SwappableWriter {
	if target == nil {
		target = io.Discard
	}
	return &SwappableWriter{target: target}
}

func (w *SwappableWriter) Write(p []byte) (int, error) {
	w.mu.RLock()
	target := w.target
	w.mu.RUnlock()
	return target.Write(p)
}

// Swap installs a new target and returns the previous one.
func (w *SwappableWriter) Swap(target io.Writer) io.Writer {
	if target == nil {
		target = io.Discard
	}
	w.mu.Lock()
	prev := w.target
	w.target = target
	w.mu.Unlock()
	return prev
}

// RedirectGuard owns the raw output channel for the duration of one engine
// invocation. While held, raw writes are captured into the sink and
// hook-level interception is suppressed so a single logical message is never
// recorded twice. Release restores the previous target and is safe to call
// more than once.
type RedirectGuard struct {
	raw   *SwappableWriter
	state *RedirectionState
	prev  io.Writer
	once  sync.Once
}

// AcquireRedirect swaps a capturing writer onto raw and suppresses hook-level
// capture until Release.
func AcquireRedirect(raw *SwappableWriter, state *RedirectionState, sink *Sink) *RedirectGuard {
	state.setSuppressed(true)
	prev := raw.Swap(&redirectWriter{state: state, sink: sink})
	return &RedirectGuard{raw: raw, state: state, prev: prev}
}

// Release restores the original raw target and lifts suppression. Idempotent.
func (g *RedirectGuard) Release() {
	g.once.Do(func() {
		g.raw.Swap(g.prev)
		g.state.setSuppressed(false)
	})
}

// redirectWriter is the replacement installed on the raw channel while the
// guard is held.
type redirectWriter struct {
	state *RedirectionState
	sink  *Sink
}

func (w *redirectWriter) Write(p []byte) (int, error) {
	if !w.state.enterWrite() {
		// Re-entrant raw write, likely from a subscriber callback.
		// Treat as captured to stop unbounded recursion.
		return len(p), nil
	}
	defer w.state.exitWrite()

	if strings.TrimSpace(string(p)) != "" {
		w.capture(string(p))
	}
	return len(p), nil
}

// capture forwards to the sink, swallowing panics so a capture failure never
// breaks the engine's own write path.
func (w *redirectWriter) capture(text string) {
	defer func() {
		_ = recover()
	}()
	w.sink.Write(text)
}
