// Package openai wraps the OpenAI Responses API as a blocking engine: one
// streaming request per Run, with text deltas forwarded through the
// assistant-output hook as they arrive.
package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/responses"

	"github.com/ehlowr0ld/agent-zero/internal/engine"
	"github.com/ehlowr0ld/agent-zero/internal/engineio"
)

var ErrAPIKey = errors.New("openai api key not configured")

type Engine struct {
	mu sync.RWMutex
	io engineio.IO

	client       openai.Client
	model        openai.ChatModel
	systemPrompt string
}

// New builds an OpenAI engine. The API key comes from the custom "api_key"
// entry, the engine environment, or the process environment, in that order.
func New(config engine.Config) (engine.Engine, error) {
	apiKey, _ := config.Custom["api_key"].(string)
	if apiKey == "" {
		apiKey = config.Environment["OPENAI_API_KEY"]
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrAPIKey
	}

	model := openai.ChatModelGPT5_2
	if config.Model != "" {
		model = openai.ChatModel(config.Model)
	}

	return &Engine{
		io:           engineio.Discard{},
		client:       openai.NewClient(option.WithAPIKey(apiKey)),
		model:        model,
		systemPrompt: config.SystemPrompt,
	}, nil
}

func (e *Engine) ModelID() string {
	return string(e.model)
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

// Run fires one streaming request and blocks until the stream ends. The
// payload is the final response text.
func (e *Engine) Run(ctx context.Context, instruction string) (any, error) {
	stream := e.client.Responses.NewStreaming(ctx, responses.ResponseNewParams{
		Model:        e.model,
		Instructions: param.NewOpt(e.systemPrompt),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(instruction),
		},
	})

	var text strings.Builder
	var final string
	for stream.Next() {
		data := stream.Current()
		switch data.AsAny().(type) {
		case responses.ResponseTextDeltaEvent:
			engineio.EmitAssistant(e.IO(), data.Delta)
			text.WriteString(data.Delta)
		case responses.ResponseTextDoneEvent:
			final = data.Text
		}
	}

	if err := stream.Err(); err != nil {
		engineio.EmitError(e.IO(), err.Error())
		return final, fmt.Errorf("openai stream failed: %w", err)
	}

	if final == "" {
		final = text.String()
	}
	return final, nil
}
