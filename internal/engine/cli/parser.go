package cli

import (
	"encoding/json"
	"fmt"

	"github.com/ehlowr0ld/agent-zero/internal/engineio"
)

// Event types emitted by stream-json CLIs, one JSON object per line.
const (
	eventAssistant = "assistant"
	eventTool      = "tool"
	eventWarning   = "warning"
	eventError     = "error"
	eventConsole   = "console"
	eventResult    = "result"
	eventSystem    = "system"
)

// StreamMessage is one parsed line of stream-json output.
type StreamMessage struct {
	Type string
	Data map[string]any
}

// ParseStreamLine parses a single NDJSON line.
func ParseStreamLine(line []byte) (StreamMessage, error) {
	if len(line) == 0 {
		return StreamMessage{}, fmt.Errorf("empty message")
	}

	var data map[string]any
	if err := json.Unmarshal(line, &data); err != nil {
		return StreamMessage{}, fmt.Errorf("failed to parse stream line: %w", err)
	}

	msgType, _ := data["type"].(string)
	if msgType == "" {
		return StreamMessage{}, fmt.Errorf("stream line has no type")
	}
	return StreamMessage{Type: msgType, Data: data}, nil
}

// GetString returns a string field from the message data.
func (m StreamMessage) GetString(key string) (string, bool) {
	s, ok := m.Data[key].(string)
	return s, ok
}

// GetStrings returns a string-slice field from the message data.
func (m StreamMessage) GetStrings(key string) ([]string, bool) {
	return parseStringSlice(m.Data[key])
}

// routeStreamMessage forwards one parsed message onto the hook surface.
// Result messages are not emitted; their payload is returned to become the
// engine's Run payload.
func routeStreamMessage(msg StreamMessage, ioObj engineio.IO) (payload any, isResult bool) {
	switch msg.Type {
	case eventAssistant:
		if text, ok := msg.GetString("message"); ok && text != "" {
			engineio.EmitAssistant(ioObj, text)
		}
	case eventTool:
		if messages, ok := msg.GetStrings("messages"); ok {
			engineio.EmitTool(ioObj, messages...)
		} else if text, ok := msg.GetString("message"); ok && text != "" {
			engineio.EmitTool(ioObj, text)
		}
	case eventWarning:
		if text, ok := msg.GetString("message"); ok {
			engineio.EmitWarning(ioObj, text)
		}
	case eventError:
		if text, ok := msg.GetString("message"); ok {
			engineio.EmitError(ioObj, text)
		}
	case eventConsole:
		if text, ok := msg.GetString("message"); ok {
			engineio.EmitConsole(ioObj, text)
		}
	case eventResult:
		return msg.Data["result"], true
	case eventSystem:
		// Housekeeping messages carry no output.
	}
	return nil, false
}
