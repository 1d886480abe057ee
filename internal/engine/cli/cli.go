// Package cli wraps a code-generation command-line tool as an engine: one
// subprocess per blocking Run, with output routed onto the hook surface
// (piped modes) or through the raw output channel (PTY mode).
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/ehlowr0ld/agent-zero/internal/capture"
	"github.com/ehlowr0ld/agent-zero/internal/engine"
	"github.com/ehlowr0ld/agent-zero/internal/engine/circuit"
	"github.com/ehlowr0ld/agent-zero/internal/engine/process"
	"github.com/ehlowr0ld/agent-zero/internal/engineio"
	"github.com/ehlowr0ld/agent-zero/internal/terminal"
)

var ErrCooldown = errors.New("cli engine in cooldown")

const (
	failureThreshold = 3
	failureCooldown  = 30 * time.Second
	scanBufferSize   = 1024 * 1024
)

// Engine runs a code-generation CLI. Implements engine.Engine and
// engine.RawRedirector.
type Engine struct {
	mu sync.RWMutex
	io engineio.IO

	raw     *capture.SwappableWriter
	rawLog  *terminal.RawLog
	breaker *circuit.Breaker
	config  engine.Config
	opts    options

	// runMu serializes invocations; the engine is strictly one run at a time.
	runMu sync.Mutex

	lastActivity atomicTime
}

// New builds a CLI engine from config. The engine starts with a discarding
// I/O object; the caller installs a real one via SetIO.
func New(config engine.Config) (engine.Engine, error) {
	opts, err := resolveOptions(config)
	if err != nil {
		return nil, err
	}
	return &Engine{
		io:      engineio.Discard{},
		raw:     capture.NewSwappableWriter(nil),
		rawLog:  terminal.NewRawLog(opts.rawLogSize),
		breaker: circuit.NewBreaker(failureThreshold, failureCooldown),
		config:  config,
		opts:    opts,
	}, nil
}

func (e *Engine) ModelID() string {
	if e.opts.model != "" {
		return e.opts.model
	}
	return e.opts.command
}

func (e *Engine) IO() engineio.IO {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.io
}

func (e *Engine) SetIO(ioObj engineio.IO) {
	e.mu.Lock()
	e.io = ioObj
	e.mu.Unlock()
}

// RawOutput returns the engine's lowest-level output channel. In PTY mode
// every terminal byte flows through it.
func (e *Engine) RawOutput() *capture.SwappableWriter {
	return e.raw
}

// UsesRaw reports whether output travels through the raw channel instead of
// the named hooks. Only true in PTY mode; piped modes emit through the hooks
// and must stay capturable there.
func (e *Engine) UsesRaw() bool {
	return e.opts.usePTY
}

// LastActivity returns the time of the most recent terminal activity seen in
// PTY mode; zero otherwise.
func (e *Engine) LastActivity() time.Time {
	return e.lastActivity.Load()
}

// Run executes one instruction and blocks until the subprocess exits.
func (e *Engine) Run(ctx context.Context, instruction string) (any, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if e.breaker.InCooldown() {
		return nil, fmt.Errorf("%w for %v", ErrCooldown, e.breaker.CooldownRemaining())
	}

	var payload any
	var err error
	if e.opts.usePTY {
		payload, err = e.runPTY(ctx, instruction)
	} else {
		payload, err = e.runPiped(ctx, instruction)
	}

	if err != nil {
		e.breaker.RecordFailure()
	} else {
		e.breaker.RecordSuccess()
	}
	return payload, err
}

func (e *Engine) runPiped(ctx context.Context, instruction string) (any, error) {
	args := e.opts.args
	if e.opts.instructionFlag != "" {
		args = append(append([]string{}, args...), e.opts.instructionFlag, instruction)
	}

	mgr, err := process.Start(ctx, process.Config{
		Command:     e.opts.command,
		Args:        args,
		WorkingDir:  e.config.WorkingDir,
		Environment: e.config.Environment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", e.opts.command, err)
	}

	if e.opts.instructionFlag == "" {
		if err := mgr.SendInstruction(instruction + "\n"); err != nil {
			_ = mgr.Kill()
			return nil, err
		}
	} else if err := mgr.SendInstruction(""); err != nil {
		_ = mgr.Kill()
		return nil, err
	}

	var payload any
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		payload = e.consumeStdout(mgr.Stdout())
	}()
	go func() {
		defer wg.Done()
		e.consumeStderr(mgr.Stderr())
	}()
	wg.Wait()

	if err := mgr.Wait(); err != nil {
		return payload, fmt.Errorf("%s run failed: %w", e.opts.command, err)
	}
	return payload, nil
}

// consumeStdout routes output lines onto the hook surface and accumulates
// the run payload.
func (e *Engine) consumeStdout(r io.Reader) any {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), scanBufferSize)

	if e.opts.format == FormatStreamJSON {
		var result any
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(strings.TrimSpace(string(line))) == 0 {
				continue
			}
			msg, err := ParseStreamLine(line)
			if err != nil {
				// Not an event line; surface it raw.
				engineio.EmitConsole(e.IO(), string(line))
				continue
			}
			if payload, ok := routeStreamMessage(msg, e.IO()); ok {
				result = payload
			}
		}
		return result
	}

	var text strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		engineio.EmitAssistant(e.IO(), line+"\n")
		text.WriteString(line)
		text.WriteString("\n")
	}
	return strings.TrimRight(text.String(), "\n")
}

// consumeStderr maps diagnostic lines onto the warning and error hooks.
func (e *Engine) consumeStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), scanBufferSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "ERROR") || strings.HasPrefix(line, "error:") {
			engineio.EmitError(e.IO(), line)
		} else {
			engineio.EmitWarning(e.IO(), line)
		}
	}
}

type atomicTime struct {
	mu sync.RWMutex
	t  time.Time
}

func (a *atomicTime) Store(t time.Time) {
	a.mu.Lock()
	a.t = t
	a.mu.Unlock()
}

func (a *atomicTime) Load() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.t
}
