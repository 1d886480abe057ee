package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ricochet1k/termemu"

	"github.com/ehlowr0ld/agent-zero/internal/terminal"
)

// runPTY executes the CLI under a pseudo-terminal. All terminal bytes are
// teed through the raw output channel, which is where the redirect guard
// captures them; the named hooks stay silent in this mode.
func (e *Engine) runPTY(ctx context.Context, instruction string) (any, error) {
	args := append(append([]string{}, e.opts.args...), e.opts.instructionFlag, instruction)

	cmd := exec.CommandContext(ctx, e.opts.command, args...)
	if e.config.WorkingDir != "" {
		cmd.Dir = e.config.WorkingDir
	}
	cmd.Env = os.Environ()
	for k, v := range e.config.Environment {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	backend := &termemu.PTYBackend{}
	if err := backend.StartCommand(cmd); err != nil {
		return nil, fmt.Errorf("failed to start %s under pty: %w", e.opts.command, err)
	}

	e.rawLog.Clear()
	teeBackend := termemu.NewTeeBackend(backend)
	teeBackend.SetTee(io.MultiWriter(e.raw, e.rawLog))

	activity := make(chan terminal.Activity, 64)
	done := make(chan struct{})
	frontend := terminal.NewFrontend(activity, done)
	term := termemu.NewWithMode(frontend, teeBackend, termemu.TextReadModeRune)
	if term == nil {
		close(done)
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, errors.New("failed to initialize terminal emulator")
	}

	go func() {
		for {
			select {
			case a := <-activity:
				e.lastActivity.Store(a.At)
			case <-done:
				return
			}
		}
	}()

	waitErr := cmd.Wait()

	// The terminal reader can still be flushing the last bytes after the
	// process exits; wait for the raw log to go quiet before snapshotting.
	e.drainRawLog()
	close(done)

	contents, _ := e.rawLog.Contents()
	payload := strings.TrimSpace(contents)
	if waitErr != nil {
		return payload, fmt.Errorf("%s run failed: %w", e.opts.command, waitErr)
	}
	return payload, nil
}

// drainRawLog waits until the raw log stops growing, bounded by a deadline.
func (e *Engine) drainRawLog() {
	deadline := time.Now().Add(2 * time.Second)
	prev := -1
	for time.Now().Before(deadline) {
		contents, _ := e.rawLog.Contents()
		if len(contents) == prev {
			return
		}
		prev = len(contents)
		time.Sleep(25 * time.Millisecond)
	}
}
