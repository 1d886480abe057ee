// Package engineio defines the emission surface of a code-generation engine.
//
// An engine's I/O object implements whichever of the hook interfaces it
// supports; absent hooks are simply never called. Engines emit through the
// Emit helpers so emission degrades gracefully when a hook is missing, and so
// a capturing adapter can be swapped in front of the original I/O object
// without touching the engine itself.
package engineio

import (
	"fmt"
	"io"
	"strings"
)

// Hook names, in canonical order.
const (
	HookAssistantOutput = "assistant_output"
	HookToolOutput      = "tool_output"
	HookToolWarning     = "tool_warning"
	HookToolError       = "tool_error"
	HookConsolePrint    = "console_print"
)

var AllHooks = []string{
	HookAssistantOutput,
	HookToolOutput,
	HookToolWarning,
	HookToolError,
	HookConsolePrint,
}

// IO is an engine's I/O object. It carries no required methods; hooks are
// discovered by interface assertion.
type IO any

type AssistantWriter interface {
	AssistantOutput(message string)
}

type ToolWriter interface {
	ToolOutput(messages ...string)
}

type ToolWarner interface {
	ToolWarning(message string)
}

type ToolErrorer interface {
	ToolError(message string)
}

type ConsolePrinter interface {
	ConsolePrint(args ...any)
}

// Has reports whether io implements the named hook.
func Has(ioObj IO, hook string) bool {
	switch hook {
	case HookAssistantOutput:
		_, ok := ioObj.(AssistantWriter)
		return ok
	case HookToolOutput:
		_, ok := ioObj.(ToolWriter)
		return ok
	case HookToolWarning:
		_, ok := ioObj.(ToolWarner)
		return ok
	case HookToolError:
		_, ok := ioObj.(ToolErrorer)
		return ok
	case HookConsolePrint:
		_, ok := ioObj.(ConsolePrinter)
		return ok
	default:
		return false
	}
}

// Hooks returns the hooks present on io, in canonical order.
func Hooks(ioObj IO) []string {
	var present []string
	for _, hook := range AllHooks {
		if Has(ioObj, hook) {
			present = append(present, hook)
		}
	}
	return present
}

// EmitAssistant forwards an assistant message if the hook is present.
func EmitAssistant(ioObj IO, message string) {
	if w, ok := ioObj.(AssistantWriter); ok {
		w.AssistantOutput(message)
	}
}

// EmitTool forwards tool output if the hook is present.
func EmitTool(ioObj IO, messages ...string) {
	if w, ok := ioObj.(ToolWriter); ok {
		w.ToolOutput(messages...)
	}
}

// EmitWarning forwards a tool warning if the hook is present.
func EmitWarning(ioObj IO, message string) {
	if w, ok := ioObj.(ToolWarner); ok {
		w.ToolWarning(message)
	}
}

// EmitError forwards a tool error if the hook is present.
func EmitError(ioObj IO, message string) {
	if w, ok := ioObj.(ToolErrorer); ok {
		w.ToolError(message)
	}
}

// EmitConsole forwards a raw console print if the hook is present.
func EmitConsole(ioObj IO, args ...any) {
	if p, ok := ioObj.(ConsolePrinter); ok {
		p.ConsolePrint(args...)
	}
}

// JoinTool renders tool output arguments as a single chunk.
func JoinTool(messages []string) string {
	return strings.Join(messages, " ")
}

// JoinConsole renders console print arguments as a single chunk.
func JoinConsole(args []any) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = fmt.Sprint(arg)
	}
	return strings.Join(parts, " ")
}

// WriterIO is a full-surface I/O object that renders every hook as plain text
// onto a pair of writers. Used as the terminal-facing original behind the
// capturing adapter.
type WriterIO struct {
	Out io.Writer
	Err io.Writer
}

func (w *WriterIO) AssistantOutput(message string) {
	fmt.Fprintln(w.Out, message)
}

func (w *WriterIO) ToolOutput(messages ...string) {
	fmt.Fprintln(w.Out, JoinTool(messages))
}

func (w *WriterIO) ToolWarning(message string) {
	fmt.Fprintln(w.Err, "WARNING:", message)
}

func (w *WriterIO) ToolError(message string) {
	fmt.Fprintln(w.Err, "ERROR:", message)
}

func (w *WriterIO) ConsolePrint(args ...any) {
	fmt.Fprintln(w.Out, JoinConsole(args))
}

// Discard is an I/O object with the full hook surface that drops everything.
type Discard struct{}

func (Discard) AssistantOutput(string) {}
func (Discard) ToolOutput(...string)   {}
func (Discard) ToolWarning(string)     {}
func (Discard) ToolError(string)       {}
func (Discard) ConsolePrint(...any)    {}
