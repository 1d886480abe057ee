package capture

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ehlowr0ld/agent-zero/internal/domain"
)

func timeout(t *testing.T) <-chan time.Time {
	t.Helper()
	return time.After(2 * time.Second)
}

func TestSinkWriteBuffersAndDispatches(t *testing.T) {
	s := NewSink()

	var got []string
	s.AddSubscriber(func(kind, content string) {
		got = append(got, kind+":"+content)
	})

	if n := s.Write("hello"); n != 5 {
		t.Fatalf("expected 5 bytes written, got %d", n)
	}
	s.Write(" world")

	if out := s.Output(); out != "hello world" {
		t.Fatalf("unexpected output %q", out)
	}
	events := s.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Kind != domain.EventKindOutput || events[0].Content != "hello" {
		t.Fatalf("unexpected first event %+v", events[0])
	}
	if len(got) != 2 || got[0] != "output:hello" || got[1] != "output: world" {
		t.Fatalf("unexpected notifications %v", got)
	}
}

func TestSinkWhitespaceBufferedButNotDispatched(t *testing.T) {
	s := NewSink()

	notified := 0
	s.AddSubscriber(func(kind, content string) { notified++ })

	s.Write("  \n\t")

	if out := s.Output(); out != "  \n\t" {
		t.Fatalf("whitespace should still reach the buffer, got %q", out)
	}
	if len(s.Events()) != 0 {
		t.Fatalf("whitespace must not produce events, got %d", len(s.Events()))
	}
	if notified != 0 {
		t.Fatalf("whitespace must not notify subscribers, got %d calls", notified)
	}
}

func TestSinkConcurrentWritesLoseNothing(t *testing.T) {
	s := NewSink()

	const writers = 8
	const perWriter = 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				s.Write(fmt.Sprintf("[%d.%d]", w, i))
			}
		}(w)
	}
	wg.Wait()

	events := s.Events()
	if len(events) != writers*perWriter {
		t.Fatalf("expected %d events, got %d", writers*perWriter, len(events))
	}

	var concat strings.Builder
	for _, ev := range events {
		concat.WriteString(ev.Content)
	}
	if concat.String() != s.Output() {
		t.Fatal("event concatenation does not match captured output")
	}

	// Per-writer ordering must survive the interleaving.
	for w := 0; w < writers; w++ {
		last := -1
		for _, ev := range events {
			var ww, i int
			if _, err := fmt.Sscanf(ev.Content, "[%d.%d]", &ww, &i); err != nil || ww != w {
				continue
			}
			if i <= last {
				t.Fatalf("writer %d events out of order: %d after %d", w, i, last)
			}
			last = i
		}
	}
}

func TestSinkSubscriberPanicIsolated(t *testing.T) {
	s := NewSink()

	s.AddSubscriber(func(kind, content string) { panic("bad subscriber") })
	var got []string
	s.AddSubscriber(func(kind, content string) { got = append(got, content) })

	s.Write("a")
	s.Write("b")

	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("second subscriber should receive all events, got %v", got)
	}
}

func TestSinkReentrantWriteFromSubscriber(t *testing.T) {
	s := NewSink()

	var got []string
	s.AddSubscriber(func(kind, content string) {
		got = append(got, content)
		if content == "outer" {
			s.Write("inner")
		}
	})

	done := make(chan struct{})
	go func() {
		s.Write("outer")
		close(done)
	}()

	select {
	case <-done:
	case <-timeout(t):
		t.Fatal("re-entrant write deadlocked")
	}

	if len(got) != 2 || got[0] != "outer" || got[1] != "inner" {
		t.Fatalf("expected outer then inner, got %v", got)
	}
	if s.Output() != "outerinner" {
		t.Fatalf("unexpected output %q", s.Output())
	}
}

func TestSinkClearKeepsSubscribers(t *testing.T) {
	s := NewSink()

	notified := 0
	s.AddSubscriber(func(kind, content string) { notified++ })

	s.Write("before")
	s.Clear()

	if s.Output() != "" {
		t.Fatalf("expected empty output after clear, got %q", s.Output())
	}
	if len(s.Events()) != 0 {
		t.Fatal("expected no events after clear")
	}

	s.Write("after")
	if notified != 2 {
		t.Fatalf("subscriber should survive clear, got %d notifications", notified)
	}
}

func TestSinkRemoveSubscriber(t *testing.T) {
	s := NewSink()

	first := 0
	id := s.AddSubscriber(func(kind, content string) { first++ })
	second := 0
	s.AddSubscriber(func(kind, content string) { second++ })

	s.Write("one")
	s.RemoveSubscriber(id)
	s.Write("two")

	if first != 1 || second != 2 {
		t.Fatalf("expected 1/2 notifications, got %d/%d", first, second)
	}
	if s.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber left, got %d", s.SubscriberCount())
	}
}

func TestSinkWarningAndErrorEvents(t *testing.T) {
	s := NewSink()

	var kinds []string
	s.AddSubscriber(func(kind, content string) { kinds = append(kinds, kind) })

	s.Write("text")
	s.WriteWarning("careful")
	s.WriteError("boom")

	if s.Output() != "text" {
		t.Fatalf("warnings and errors must not pollute the output buffer, got %q", s.Output())
	}
	events := s.Events()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[1].Kind != domain.EventKindWarning || events[2].Kind != domain.EventKindError {
		t.Fatalf("unexpected event kinds %v %v", events[1].Kind, events[2].Kind)
	}
	want := []string{"output", "warning", "error"}
	for i, k := range want {
		if kinds[i] != k {
			t.Fatalf("notification %d: expected %q, got %q", i, k, kinds[i])
		}
	}
}

func TestSinkComplete(t *testing.T) {
	s := NewSink()

	var got []string
	cb := func(kind, content string) { got = append(got, kind) }
	s.AddSubscriber(cb)

	s.Write("a")
	s.Complete(cb, "done")

	if len(got) != 2 || got[1] != "completion" {
		t.Fatalf("expected completion last, got %v", got)
	}
	// Completion events are delivery-only, never recorded.
	if len(s.Events()) != 1 {
		t.Fatalf("expected 1 recorded event, got %d", len(s.Events()))
	}
}
