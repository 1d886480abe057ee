package capture

import (
	"fmt"
	"testing"

	"github.com/ehlowr0ld/agent-zero/internal/domain"
	"github.com/ehlowr0ld/agent-zero/internal/engineio"
)

// fakeCarrier is a minimal engine surface holding a swappable I/O object.
type fakeCarrier struct {
	io engineio.IO
}

func (f *fakeCarrier) IO() engineio.IO      { return f.io }
func (f *fakeCarrier) SetIO(io engineio.IO) { f.io = io }

// recordingIO implements the full hook surface and records every call.
type recordingIO struct {
	calls []string
}

func (r *recordingIO) AssistantOutput(message string) {
	r.calls = append(r.calls, "assistant:"+message)
}

func (r *recordingIO) ToolOutput(messages ...string) {
	r.calls = append(r.calls, "tool:"+engineio.JoinTool(messages))
}

func (r *recordingIO) ToolWarning(message string) {
	r.calls = append(r.calls, "warning:"+message)
}

func (r *recordingIO) ToolError(message string) {
	r.calls = append(r.calls, "error:"+message)
}

func (r *recordingIO) ConsolePrint(args ...any) {
	r.calls = append(r.calls, "console:"+engineio.JoinConsole(args))
}

// assistantOnlyIO exposes a single hook.
type assistantOnlyIO struct {
	calls []string
}

func (a *assistantOnlyIO) AssistantOutput(message string) {
	a.calls = append(a.calls, message)
}

func newInterceptedCarrier(original engineio.IO, forward bool) (*fakeCarrier, *Sink, *Interceptor) {
	carrier := &fakeCarrier{io: original}
	sink := NewSink()
	ic := NewInterceptor(carrier, sink, NewRedirectionState(), forward)
	ic.Install()
	return carrier, sink, ic
}

func TestInterceptorCapturesAllHooks(t *testing.T) {
	carrier, sink, _ := newInterceptedCarrier(&recordingIO{}, false)

	engineio.EmitAssistant(carrier.IO(), "reply")
	engineio.EmitTool(carrier.IO(), "ran", "tests")
	engineio.EmitWarning(carrier.IO(), "slow")
	engineio.EmitError(carrier.IO(), "failed")
	engineio.EmitConsole(carrier.IO(), "print", 42)

	if sink.Output() != "replyran testsprint 42" {
		t.Fatalf("unexpected captured output %q", sink.Output())
	}
	events := sink.Events()
	if len(events) != 5 {
		t.Fatalf("expected 5 events, got %d", len(events))
	}
	if events[2].Kind != domain.EventKindWarning || events[2].Content != "slow" {
		t.Fatalf("unexpected warning event %+v", events[2])
	}
	if events[3].Kind != domain.EventKindError || events[3].Content != "failed" {
		t.Fatalf("unexpected error event %+v", events[3])
	}
}

func TestInterceptorSuppressesOriginalByDefault(t *testing.T) {
	original := &recordingIO{}
	carrier, _, _ := newInterceptedCarrier(original, false)

	engineio.EmitAssistant(carrier.IO(), "reply")

	if len(original.calls) != 0 {
		t.Fatalf("original should be silent without forwarding, got %v", original.calls)
	}
}

func TestInterceptorForwardsToOriginal(t *testing.T) {
	original := &recordingIO{}
	carrier, sink, _ := newInterceptedCarrier(original, true)

	engineio.EmitAssistant(carrier.IO(), "reply")
	engineio.EmitTool(carrier.IO(), "a", "b")

	if len(original.calls) != 2 || original.calls[0] != "assistant:reply" || original.calls[1] != "tool:a b" {
		t.Fatalf("original should see forwarded calls, got %v", original.calls)
	}
	if sink.Output() != "replya b" {
		t.Fatalf("capture should still happen when forwarding, got %q", sink.Output())
	}
}

func TestInterceptorPartialInstall(t *testing.T) {
	original := &assistantOnlyIO{}
	carrier, sink, ic := newInterceptedCarrier(original, false)

	installed := map[string]bool{}
	for _, r := range ic.Records() {
		installed[r.Hook] = r.Installed
	}
	if !installed[engineio.HookAssistantOutput] {
		t.Fatal("assistant hook should be installed")
	}
	for _, hook := range []string{engineio.HookToolOutput, engineio.HookToolWarning, engineio.HookToolError, engineio.HookConsolePrint} {
		if installed[hook] {
			t.Fatalf("hook %s should be skipped", hook)
		}
	}

	// The adapter exposes the full surface, but skipped hooks stay inert.
	engineio.EmitAssistant(carrier.IO(), "captured")
	engineio.EmitTool(carrier.IO(), "ignored")

	if sink.Output() != "captured" {
		t.Fatalf("unexpected captured output %q", sink.Output())
	}
}

func TestInterceptorSuppressedWhileRedirected(t *testing.T) {
	original := &recordingIO{}
	carrier := &fakeCarrier{io: original}
	sink := NewSink()
	state := NewRedirectionState()
	ic := NewInterceptor(carrier, sink, state, true)
	ic.Install()

	guard := AcquireRedirect(NewSwappableWriter(nil), state, sink)
	engineio.EmitAssistant(carrier.IO(), "low level owns this")
	guard.Release()

	if len(sink.Events()) != 0 {
		t.Fatalf("hook capture must stand down while redirected, got %d events", len(sink.Events()))
	}
	if len(original.calls) != 1 {
		t.Fatalf("forwarding should be unaffected by suppression, got %v", original.calls)
	}
}

func TestInterceptorRestore(t *testing.T) {
	original := &recordingIO{}
	carrier, sink, ic := newInterceptedCarrier(original, false)

	ic.Restore()
	ic.Restore() // idempotent

	if carrier.IO() != engineio.IO(original) {
		t.Fatal("restore should reattach the original I/O object")
	}

	engineio.EmitAssistant(carrier.IO(), "direct")
	if len(sink.Events()) != 0 {
		t.Fatal("sink must receive nothing after restore")
	}
	if len(original.calls) != 1 {
		t.Fatalf("original should be called directly after restore, got %v", original.calls)
	}
	if len(ic.Records()) != 0 {
		t.Fatal("records should be cleared by restore")
	}
}

func TestInterceptorNoDoubleCapture(t *testing.T) {
	original := &recordingIO{}
	carrier := &fakeCarrier{io: original}
	sink := NewSink()
	state := NewRedirectionState()
	ic := NewInterceptor(carrier, sink, state, false)
	ic.Install()

	raw := NewSwappableWriter(nil)
	guard := AcquireRedirect(raw, state, sink)

	// The engine funnels one logical message through both layers.
	engineio.EmitAssistant(carrier.IO(), "hello")
	fmt.Fprint(raw, "hello")

	guard.Release()

	events := sink.Events()
	if len(events) != 1 || events[0].Content != "hello" {
		t.Fatalf("message must be captured exactly once, got %+v", events)
	}
}
