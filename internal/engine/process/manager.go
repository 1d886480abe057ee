// Package process manages the lifecycle of one code-generation subprocess:
// piped I/O, one-shot instruction delivery, graceful shutdown.
package process

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// Config holds what is needed to launch a code-generation command.
type Config struct {
	Command     string
	Args        []string
	WorkingDir  string
	Environment map[string]string
}

// Manager owns a running subprocess and its pipes.
type Manager struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser
}

// Start launches the command with stdin/stdout/stderr pipes attached.
func Start(ctx context.Context, config Config) (*Manager, error) {
	if config.Command == "" {
		return nil, fmt.Errorf("command cannot be empty")
	}

	cmd := exec.CommandContext(ctx, config.Command, config.Args...)
	if config.WorkingDir != "" {
		cmd.Dir = config.WorkingDir
	}

	cmd.Env = os.Environ()
	for k, v := range config.Environment {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		_ = stdin.Close()
		_ = stdout.Close()
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		_ = stdout.Close()
		_ = stderr.Close()
		return nil, fmt.Errorf("failed to start process: %w", err)
	}

	return &Manager{
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}, nil
}

// SendInstruction writes one instruction to the process and closes stdin so
// the process sees EOF after reading it.
func (m *Manager) SendInstruction(instruction string) error {
	if m.stdin == nil {
		return fmt.Errorf("stdin already closed")
	}
	if _, err := io.WriteString(m.stdin, instruction); err != nil {
		return fmt.Errorf("failed to write instruction: %w", err)
	}
	err := m.stdin.Close()
	m.stdin = nil
	if err != nil {
		return fmt.Errorf("failed to close stdin: %w", err)
	}
	return nil
}

// Stdout returns the process's stdout pipe.
func (m *Manager) Stdout() io.ReadCloser {
	return m.stdout
}

// Stderr returns the process's stderr pipe.
func (m *Manager) Stderr() io.ReadCloser {
	return m.stderr
}

// Wait blocks until the process exits.
func (m *Manager) Wait() error {
	if m.cmd == nil {
		return nil
	}
	return m.cmd.Wait()
}

// Stop terminates the process with SIGTERM, escalating to SIGKILL after the
// timeout elapses.
func (m *Manager) Stop(timeout time.Duration) error {
	if m.cmd == nil || m.cmd.Process == nil {
		return nil
	}

	if m.stdin != nil {
		_ = m.stdin.Close()
		m.stdin = nil
	}

	if err := m.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Already gone.
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- m.cmd.Wait()
	}()

	select {
	case <-time.After(timeout):
		_ = m.cmd.Process.Kill()
		<-done
	case <-done:
	}

	m.cleanup()
	return nil
}

// Kill terminates the process immediately.
func (m *Manager) Kill() error {
	if m.cmd == nil || m.cmd.Process == nil {
		return nil
	}
	err := m.cmd.Process.Kill()
	m.cleanup()
	return err
}

func (m *Manager) cleanup() {
	if m.stdin != nil {
		_ = m.stdin.Close()
		m.stdin = nil
	}
	if m.stdout != nil {
		_ = m.stdout.Close()
		m.stdout = nil
	}
	if m.stderr != nil {
		_ = m.stderr.Close()
		m.stderr = nil
	}
}
