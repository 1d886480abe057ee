package cli

import (
	"fmt"

	"github.com/ehlowr0ld/agent-zero/internal/engine"
)

// Output formats the CLI engine understands.
const (
	FormatText       = "text"
	FormatStreamJSON = "stream-json"
)

const (
	DefaultCommand    = "aider"
	DefaultRawLogSize = 256 * 1024
)

// options is the resolved launch configuration for one CLI engine.
type options struct {
	command string
	args    []string
	model   string
	format  string
	usePTY  bool

	// instructionFlag, when set, passes the instruction as that flag's
	// value instead of writing it to stdin. PTY mode requires it.
	instructionFlag string

	rawLogSize int
}

// resolveOptions translates the generic engine config into a concrete
// command line. Unknown custom keys are ignored.
func resolveOptions(config engine.Config) (options, error) {
	opts := options{
		command:    DefaultCommand,
		format:     FormatText,
		rawLogSize: DefaultRawLogSize,
	}

	custom := config.Custom
	if custom == nil {
		custom = map[string]any{}
	}

	if raw, ok := custom["command"]; ok {
		command, ok := raw.(string)
		if !ok || command == "" {
			return options{}, fmt.Errorf("cli command must be a non-empty string")
		}
		opts.command = command
	}

	if format, ok := custom["output_format"].(string); ok && format != "" {
		switch format {
		case FormatText, FormatStreamJSON:
			opts.format = format
		default:
			return options{}, fmt.Errorf("unknown output format: %s", format)
		}
	}

	if usePTY, ok := custom["pty"].(bool); ok {
		opts.usePTY = usePTY
	}

	if flag, ok := custom["instruction_flag"].(string); ok {
		opts.instructionFlag = flag
	}
	if opts.usePTY && opts.instructionFlag == "" {
		// There is no clean EOF on a pty, so the instruction must travel
		// in the argument list.
		opts.instructionFlag = "--message"
	}

	if size, ok := parseInt(custom["raw_log_size"]); ok && size > 0 {
		opts.rawLogSize = size
	}

	opts.model = config.Model
	opts.args = buildArgs(config, custom, opts.command)
	return opts, nil
}

// buildArgs constructs the command-line arguments. The default aider command
// gets its non-interactive flags; a custom command gets only what the config
// asks for.
func buildArgs(config engine.Config, custom map[string]any, command string) []string {
	var args []string
	if command == DefaultCommand {
		args = append(args, "--yes", "--no-pretty")

		if config.Model != "" {
			args = append(args, "--model", config.Model)
		}
		if config.DryRun {
			args = append(args, "--dry-run")
		}

		if autoCommits, ok := custom["auto_commits"].(bool); ok && !autoCommits {
			args = append(args, "--no-auto-commits")
		}

		if editFormat, ok := custom["edit_format"].(string); ok && editFormat != "" {
			args = append(args, "--edit-format", editFormat)
		}

		if readOnly, ok := parseStringSlice(custom["read_only_files"]); ok {
			for _, f := range readOnly {
				args = append(args, "--read", f)
			}
		}
	}

	if extra, ok := parseStringSlice(custom["args"]); ok {
		args = append(args, extra...)
	}

	// Editable files go last, as positional arguments.
	if files, ok := parseStringSlice(custom["files"]); ok {
		args = append(args, files...)
	}

	return args
}

func parseStringSlice(v any) ([]string, bool) {
	switch vs := v.(type) {
	case []string:
		return vs, true
	case []any:
		out := make([]string, 0, len(vs))
		for _, item := range vs {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func parseInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
