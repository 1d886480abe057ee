package engineio

import (
	"strings"
	"testing"
)

type assistantOnly struct {
	got []string
}

func (a *assistantOnly) AssistantOutput(message string) {
	a.got = append(a.got, message)
}

func TestHasAndHooks(t *testing.T) {
	full := &WriterIO{Out: &strings.Builder{}, Err: &strings.Builder{}}
	for _, hook := range AllHooks {
		if !Has(full, hook) {
			t.Errorf("WriterIO should have %s", hook)
		}
	}

	partial := &assistantOnly{}
	if !Has(partial, HookAssistantOutput) {
		t.Error("assistantOnly should have assistant_output")
	}
	if Has(partial, HookToolOutput) {
		t.Error("assistantOnly should not have tool_output")
	}

	hooks := Hooks(partial)
	if len(hooks) != 1 || hooks[0] != HookAssistantOutput {
		t.Errorf("hooks = %v", hooks)
	}
}

func TestEmitSkipsAbsentHooks(t *testing.T) {
	partial := &assistantOnly{}

	EmitAssistant(partial, "hi")
	// These must be silent no-ops.
	EmitTool(partial, "a", "b")
	EmitWarning(partial, "w")
	EmitError(partial, "e")
	EmitConsole(partial, 1, "x")

	if len(partial.got) != 1 || partial.got[0] != "hi" {
		t.Errorf("got %v", partial.got)
	}
}

func TestJoinConsole(t *testing.T) {
	if got := JoinConsole([]any{"a", 1, true}); got != "a 1 true" {
		t.Errorf("JoinConsole = %q", got)
	}
	if got := JoinTool([]string{"x", "y"}); got != "x y" {
		t.Errorf("JoinTool = %q", got)
	}
}

func TestWriterIO(t *testing.T) {
	var out, errOut strings.Builder
	w := &WriterIO{Out: &out, Err: &errOut}

	w.AssistantOutput("answer")
	w.ToolOutput("ran", "ok")
	w.ToolWarning("careful")
	w.ToolError("broke")

	if !strings.Contains(out.String(), "answer") || !strings.Contains(out.String(), "ran ok") {
		t.Errorf("out = %q", out.String())
	}
	if !strings.Contains(errOut.String(), "WARNING: careful") {
		t.Errorf("err = %q", errOut.String())
	}
	if !strings.Contains(errOut.String(), "ERROR: broke") {
		t.Errorf("err = %q", errOut.String())
	}
}
