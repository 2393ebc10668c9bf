package livesession

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/jonw15/Memorize-AI-Meta-Glasses-sub001/core/protocol"
)

// ToolResult is what a tool handler returns for one function call.
type ToolResult struct {
	// Payload is serialized into the response envelope. A nil payload is
	// sent as a plain success marker.
	Payload any

	// Silent suppresses the model's default conversational narration of
	// the result.
	Silent bool
}

// Tool is one callable function advertised to the backend in the session
// configuration. Use [NewTool] to derive the parameter schema from a typed
// handler.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
	Handler     func(ctx context.Context, arguments json.RawMessage) (ToolResult, error)
}

// NewTool builds a Tool whose parameter schema is reflected from the
// handler's parameter struct and whose arguments are parsed into it before
// the handler runs.
func NewTool[T any](name, description string, handler func(ctx context.Context, parameters T) (ToolResult, error)) Tool {
	reflector := jsonschema.Reflector{DoNotReference: true}
	var zero T
	schema, err := json.Marshal(reflector.Reflect(&zero))
	if err != nil {
		schema = nil
	}

	return Tool{
		Name:        name,
		Description: description,
		Parameters:  schema,
		Handler: func(ctx context.Context, arguments json.RawMessage) (ToolResult, error) {
			var parameters T
			if err := unmarshalToolArguments(arguments, &parameters); err != nil {
				return ToolResult{}, fmt.Errorf("failed to parse tool arguments: %w", err)
			}
			return handler(ctx, parameters)
		},
	}
}

// unmarshalToolArguments accepts both argument encodings backends use: a
// nested JSON object and a JSON string containing the encoded object.
func unmarshalToolArguments(raw json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}

	if trimmed[0] == '"' {
		var encoded string
		if err := json.Unmarshal(trimmed, &encoded); err != nil {
			return err
		}
		trimmed = bytes.TrimSpace([]byte(encoded))
		if len(trimmed) == 0 {
			return nil
		}
	}

	return json.Unmarshal(trimmed, v)
}

func (s *Session) toolDeclarations() []protocol.ToolDeclaration {
	if !s.backend.SupportsTools || len(s.tools) == 0 {
		return nil
	}

	declarations := make([]protocol.ToolDeclaration, 0, len(s.tools))
	for _, tool := range s.tools {
		declarations = append(declarations, protocol.ToolDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  tool.Parameters,
		})
	}
	return declarations
}

func (s *Session) toolByName(name string) (Tool, bool) {
	for _, tool := range s.tools {
		if tool.Name == name {
			return tool, true
		}
	}
	return Tool{}, false
}

// toolCallLedger tracks in-flight function-call dispatches for the current
// turn, keyed by the server-assigned call id. Entries are removed once a
// response has been sent or the turn ends; a handler finishing after the
// turn ended must not send a stale response.
type toolCallLedger struct {
	mu      sync.Mutex
	pending map[string]string
}

func newToolCallLedger() *toolCallLedger {
	return &toolCallLedger{pending: map[string]string{}}
}

func (l *toolCallLedger) track(id, name string) {
	l.mu.Lock()
	l.pending[id] = name
	l.mu.Unlock()
}

// settle removes the entry for id and reports whether it was still tracked.
func (l *toolCallLedger) settle(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.pending[id]; !ok {
		return false
	}
	delete(l.pending, id)
	return true
}

func (l *toolCallLedger) reset() {
	l.mu.Lock()
	l.pending = map[string]string{}
	l.mu.Unlock()
}
