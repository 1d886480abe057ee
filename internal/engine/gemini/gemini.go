// Package gemini wraps a Google ADK agent as a blocking engine. One Run is
// one agent turn; streamed text parts are forwarded through the
// assistant-output hook, and configured MCP servers are attached as ADK
// toolsets over stdio.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/mcptoolset"
	"google.golang.org/genai"

	"github.com/ehlowr0ld/agent-zero/internal/engine"
	"github.com/ehlowr0ld/agent-zero/internal/engineio"
)

var (
	ErrAPIKey      = errors.New("google api key not configured")
	ErrModelCreate = errors.New("failed to create model")
)

const (
	DefaultModel = "gemini-2.5-flash"
	appName      = "agent-zero"
	userID       = "agent-zero-user"
)

type Engine struct {
	mu sync.RWMutex
	io engineio.IO

	model      string
	runner     *runner.Runner
	sessionSvc session.Service
	sessID     string

	mcpCommands []*exec.Cmd
}

// New builds the agent, its MCP toolsets, and one ADK session up front; Run
// only executes turns. Construction fails hard on missing configuration.
func New(config engine.Config) (engine.Engine, error) {
	apiKey, _ := config.Custom["api_key"].(string)
	if apiKey == "" {
		apiKey = config.Environment["GOOGLE_API_KEY"]
	}
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrAPIKey
	}

	modelName := config.Model
	if modelName == "" {
		modelName = DefaultModel
	}

	ctx := context.Background()

	e := &Engine{
		io:    engineio.Discard{},
		model: modelName,
	}

	llm, err := gemini.NewModel(ctx, modelName, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelCreate, err)
	}

	toolsets, err := e.setupMCPToolsets(config)
	if err != nil {
		return nil, fmt.Errorf("failed to setup tools: %w", err)
	}

	a, err := llmagent.New(llmagent.Config{
		Name:        "agent-zero-coder",
		Model:       llm,
		Description: "agent-zero code generation agent",
		Instruction: config.SystemPrompt,
		Toolsets:    toolsets,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	e.sessionSvc = session.InMemoryService()

	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          a,
		SessionService: e.sessionSvc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}
	e.runner = r

	createResp, err := e.sessionSvc.Create(ctx, &session.CreateRequest{
		AppName: appName,
		UserID:  userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	e.sessID = createResp.Session.ID()

	return e, nil
}

func (e *Engine) setupMCPToolsets(config engine.Config) ([]tool.Toolset, error) {
	var toolsets []tool.Toolset
	for _, mcpCfg := range config.MCPServers {
		cmd := exec.Command(mcpCfg.Command, mcpCfg.Args...)
		if config.WorkingDir != "" {
			cmd.Dir = config.WorkingDir
		}
		cmd.Env = envMapToSlice(mcpCfg.Env)

		ts, err := mcptoolset.New(mcptoolset.Config{
			Transport: &mcp.CommandTransport{Command: cmd},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create MCP toolset %s: %w", mcpCfg.Name, err)
		}
		toolsets = append(toolsets, ts)
		e.mcpCommands = append(e.mcpCommands, cmd)
	}
	return toolsets, nil
}

func envMapToSlice(envMap map[string]string) []string {
	if envMap == nil {
		return nil
	}
	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	return result
}

func (e *Engine) ModelID() string {
	return e.model
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

// Run executes one agent turn and blocks until the event stream ends. The
// payload is the full assistant text of the turn.
func (e *Engine) Run(ctx context.Context, instruction string) (any, error) {
	userMsg := genai.NewContentFromText(instruction, "user")

	var text strings.Builder
	for event, err := range e.runner.Run(ctx, userID, e.sessID, userMsg, agent.RunConfig{
		StreamingMode: agent.StreamingModeSSE,
	}) {
		if err != nil {
			engineio.EmitError(e.IO(), err.Error())
			return text.String(), fmt.Errorf("gemini run failed: %w", err)
		}
		if event == nil {
			continue
		}
		e.processEvent(event, &text)
	}

	return text.String(), nil
}

func (e *Engine) processEvent(event *session.Event, text *strings.Builder) {
	if !event.Partial || event.Content == nil {
		return
	}
	for _, part := range event.Content.Parts {
		if part.Text != "" {
			engineio.EmitAssistant(e.IO(), part.Text)
			text.WriteString(part.Text)
		}
	}
}

// Close terminates any MCP server subprocesses the engine spawned.
func (e *Engine) Close() error {
	for _, cmd := range e.mcpCommands {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}
	return nil
}
