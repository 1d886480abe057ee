// agent-zero runs one code-generation instruction through a capture bridge
// and prints the invocation result as JSON. The captured stream is echoed to
// stderr as it arrives so the run can be watched live.
//
// Usage:
//
//	agent-zero -engine cli -command aider "fix the failing test"
//	echo "fix the failing test" | agent-zero -engine openai -model gpt-5.2
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ehlowr0ld/agent-zero/internal/bridge"
	"github.com/ehlowr0ld/agent-zero/internal/engine"
	"github.com/ehlowr0ld/agent-zero/internal/storage"
)

func main() {
	engineType := flag.String("engine", "cli", "engine type (cli, openai, gemini)")
	profile := flag.String("profile", "", "named engine profile to load")
	configDir := flag.String("config-dir", defaultConfigDir(), "directory holding engines.json")
	model := flag.String("model", "", "model identifier")
	command := flag.String("command", "", "subprocess command for the cli engine")
	workDir := flag.String("dir", "", "working directory for the engine")
	systemPrompt := flag.String("system", "", "system prompt")
	dryRun := flag.Bool("dry-run", false, "ask the engine not to write changes")
	timeout := flag.Duration("timeout", 0, "abort the run after this duration (0 = no limit)")
	quiet := flag.Bool("quiet", false, "suppress live output, print only the result JSON")
	flag.Parse()

	instruction := strings.Join(flag.Args(), " ")
	if instruction == "" {
		instruction = readStdin()
	}
	if instruction == "" {
		fmt.Fprintln(os.Stderr, "no instruction given")
		flag.Usage()
		os.Exit(2)
	}

	var config engine.Config
	if *profile != "" {
		p, err := storage.NewEngineConfigStorage(*configDir).Get(*profile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load profile: %v\n", err)
			os.Exit(1)
		}
		config = p.ToEngineConfig()
	} else {
		config = engine.Config{
			Type:         *engineType,
			Model:        *model,
			WorkingDir:   *workDir,
			SystemPrompt: *systemPrompt,
			DryRun:       *dryRun,
			Custom:       map[string]any{},
		}
		if *command != "" {
			config.Custom["command"] = *command
		}
	}

	b, _, err := bridge.New(config, bridge.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create bridge: %v\n", err)
		os.Exit(1)
	}
	defer b.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	cb := func(kind, content string) {
		if *quiet || kind == "completion" {
			return
		}
		fmt.Fprint(os.Stderr, content)
		if kind != "output" {
			fmt.Fprintln(os.Stderr)
		}
	}

	result, err := b.RunStreamingAsync(ctx, instruction, cb)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run aborted: %v\n", err)
		// Give the background run a moment to release the subprocess.
		time.Sleep(100 * time.Millisecond)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode result: %v\n", err)
		os.Exit(1)
	}
	if !result.Success {
		os.Exit(1)
	}
}

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".agent-zero"
	}
	return filepath.Join(home, ".agent-zero")
}

func readStdin() string {
	info, err := os.Stdin.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice != 0 {
		return ""
	}
	var sb strings.Builder
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}
