package domain

import "time"

type EventKind int

const (
	EventKindOutput EventKind = iota
	EventKindWarning
	EventKindError
	EventKindCompletion
)

func (k EventKind) String() string {
	switch k {
	case EventKindOutput:
		return "output"
	case EventKindWarning:
		return "warning"
	case EventKindError:
		return "error"
	case EventKindCompletion:
		return "completion"
	default:
		return "unknown"
	}
}

// OutputEvent is one captured fragment of engine output. Events are immutable
// once created and accumulate in an append-only sequence on the sink.
type OutputEvent struct {
	Kind      EventKind
	Content   string
	Timestamp time.Time
}

func NewOutputEvent(content string) OutputEvent {
	return OutputEvent{
		Kind:      EventKindOutput,
		Content:   content,
		Timestamp: time.Now(),
	}
}

func NewWarningEvent(content string) OutputEvent {
	return OutputEvent{
		Kind:      EventKindWarning,
		Content:   content,
		Timestamp: time.Now(),
	}
}

func NewErrorEvent(content string) OutputEvent {
	return OutputEvent{
		Kind:      EventKindError,
		Content:   content,
		Timestamp: time.Now(),
	}
}

func NewCompletionEvent(content string) OutputEvent {
	return OutputEvent{
		Kind:      EventKindCompletion,
		Content:   content,
		Timestamp: time.Now(),
	}
}
