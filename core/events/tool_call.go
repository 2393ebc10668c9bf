package events

import "encoding/json"

const (
	// KindToolCall identifies a function-call request from the model.
	KindToolCall Kind = "tool_call.requested"
)

// ToolCall carries a function-call request. Arguments keeps the raw JSON the
// server sent: either an object or a JSON-encoded string of one, both of
// which handlers must accept.
type ToolCall struct {
	Base
	ID        string
	Name      string
	Arguments json.RawMessage
}

// NewToolCall creates a function-call request event.
func NewToolCall(id, name string, arguments json.RawMessage) ToolCall {
	return ToolCall{Base: NewBase(KindToolCall), ID: id, Name: name, Arguments: arguments}
}
