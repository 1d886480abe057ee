package capture

import (
	"strings"
	"sync"

	"github.com/ehlowr0ld/agent-zero/internal/domain"
)

// Callback receives captured output as it is written. The first argument is
// the event kind ("output", "warning", "error", "completion"), the second the
// fragment content. Callbacks may be slow and may panic; a panicking callback
// is skipped for that delivery only.
type Callback func(kind string, content string)

// Sink buffers every fragment of captured engine output and fans each
// non-whitespace fragment out to registered subscribers.
//
// Re-entrancy semantics: a write appends to the buffer and event sequence
// under the sink mutex, then queues the event for dispatch. The first writer
// to obtain the dispatcher role drains the queue outside the sink mutex, so a
// subscriber that calls Write from inside its own notification does not
// deadlock; its event is appended and delivered by the dispatcher already on
// the stack. Two concurrent writes never interleave their notifications.
type Sink struct {
	mu      sync.Mutex
	buffer  strings.Builder
	events  []domain.OutputEvent
	pending []domain.OutputEvent
	subs    map[int64]Callback
	order   []int64
	nextID  int64

	// dispatchMu serializes subscriber notification. Held only while
	// delivering, never while mu is wanted by the holder.
	dispatchMu sync.Mutex
}

func NewSink() *Sink {
	return &Sink{
		subs: make(map[int64]Callback),
	}
}

// AddSubscriber registers cb and returns a handle for RemoveSubscriber.
func (s *Sink) AddSubscriber(cb Callback) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.subs[id] = cb
	s.order = append(s.order, id)
	return id
}

// RemoveSubscriber unregisters the subscriber with the given handle.
func (s *Sink) RemoveSubscriber(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[id]; !ok {
		return
	}
	delete(s.subs, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// ClearSubscribers removes all subscribers.
func (s *Sink) ClearSubscribers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = make(map[int64]Callback)
	s.order = nil
}

// SubscriberCount returns the number of registered subscribers.
func (s *Sink) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Write appends text to the captured-output buffer. If text is not purely
// whitespace it also records an output event and notifies subscribers.
// Safe for concurrent use. Implements the io.Writer contract shape for
// strings; see WriteBytes for the io.Writer adapter.
func (s *Sink) Write(text string) int {
	s.append(domain.NewOutputEvent(text), true)
	return len(text)
}

// WriteWarning records a warning event and notifies subscribers. Warning
// fragments do not contribute to the captured-output buffer.
func (s *Sink) WriteWarning(text string) {
	s.append(domain.NewWarningEvent(text), false)
}

// WriteError records an error event and notifies subscribers. Error fragments
// do not contribute to the captured-output buffer.
func (s *Sink) WriteError(text string) {
	s.append(domain.NewErrorEvent(text), false)
}

func (s *Sink) append(ev domain.OutputEvent, buffered bool) {
	s.mu.Lock()
	if buffered {
		s.buffer.WriteString(ev.Content)
	}
	if strings.TrimSpace(ev.Content) == "" {
		s.mu.Unlock()
		return
	}
	s.events = append(s.events, ev)
	s.pending = append(s.pending, ev)
	s.mu.Unlock()

	s.drain()
}

// drain delivers queued events in order. Only one goroutine dispatches at a
// time; writers that lose the TryLock race leave their event for the active
// dispatcher, which is what makes re-entrant writes from callbacks safe.
func (s *Sink) drain() {
	if !s.dispatchMu.TryLock() {
		return
	}
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			// Release the dispatcher role while still holding mu so a
			// concurrent writer either hands us its event or becomes
			// the next dispatcher itself. No event is ever stranded.
			s.dispatchMu.Unlock()
			s.mu.Unlock()
			return
		}
		batch := s.pending
		s.pending = nil
		cbs := s.snapshotLocked()
		s.mu.Unlock()

		for _, ev := range batch {
			for _, cb := range cbs {
				invoke(cb, ev.Kind.String(), ev.Content)
			}
		}
	}
}

// snapshotLocked returns subscribers in registration order. Caller holds mu.
func (s *Sink) snapshotLocked() []Callback {
	cbs := make([]Callback, 0, len(s.order))
	for _, id := range s.order {
		if cb, ok := s.subs[id]; ok {
			cbs = append(cbs, cb)
		}
	}
	return cbs
}

// Complete delivers a completion event to cb after all in-flight dispatches
// have finished. Completion events are not recorded in the event sequence.
func (s *Sink) Complete(cb Callback, content string) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	invoke(cb, domain.EventKindCompletion.String(), content)
}

// invoke calls cb, isolating the sink from subscriber panics.
func invoke(cb Callback, kind, content string) {
	defer func() {
		_ = recover()
	}()
	cb(kind, content)
}

// Output returns everything written so far.
func (s *Sink) Output() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.String()
}

// Events returns a copy of the recorded event sequence.
func (s *Sink) Events() []domain.OutputEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]domain.OutputEvent, len(s.events))
	copy(events, s.events)
	return events
}

// Clear resets the buffer and event sequence. Subscribers are untouched.
func (s *Sink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer.Reset()
	s.events = nil
	s.pending = nil
}
