package domain

import (
	"encoding/json"

	"github.com/moltid/authcore/internal/authz"
)

// Typed payload forms, one per operation verb. The raw payload is decoded
// exactly once, when the envelope crosses the boundary; everything past
// Parse works with the typed form. Hello and verify carry free-form
// handshake payloads and stay undecoded.

// QueryPayload asks another agent for information.
type QueryPayload struct {
	Domain         string         `json:"domain"`
	Intent         string         `json:"intent"`
	Params         map[string]any `json:"params,omitempty"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

// RespondPayload answers a prior query.
type RespondPayload struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
	Schema string          `json:"schema,omitempty"`
}

// TaskPayload delegates work to another agent.
type TaskPayload struct {
	Action      string         `json:"action"`
	TaskID      string         `json:"task_id"`
	Type        string         `json:"type,omitempty"`
	Description string         `json:"description,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
	Constraints map[string]any `json:"constraints,omitempty"`
	Deadline    int64          `json:"deadline,omitempty"`
	Priority    string         `json:"priority,omitempty"`
}

// StreamPayload moves large or realtime data in chunks.
type StreamPayload struct {
	Action      string          `json:"action"`
	StreamID    string          `json:"stream_id"`
	Type        string          `json:"type,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
	Seq         int64           `json:"seq,omitempty"`
	Progress    float64         `json:"progress,omitempty"`
	TotalChunks int64           `json:"total_chunks,omitempty"`
	Checksum    string          `json:"checksum,omitempty"`
}

// ToolPayload invokes, lists, or describes a tool.
type ToolPayload struct {
	Action    string         `json:"action"`
	Tool      string         `json:"tool,omitempty"`
	Input     map[string]any `json:"input,omitempty"`
	TimeoutMS int64          `json:"timeout_ms,omitempty"`
}

// ConsentPayload drives the consent request/grant/revoke flow.
type ConsentPayload struct {
	Action       string   `json:"action"`
	DataTypes    []string `json:"data_types,omitempty"`
	Purpose      string   `json:"purpose,omitempty"`
	Human        string   `json:"human,omitempty"`
	Duration     string   `json:"duration,omitempty"`
	ConsentToken string   `json:"consent_token,omitempty"`
}

// ErrorPayload reports a failure back to the sender.
type ErrorPayload struct {
	Code        string         `json:"code"`
	Category    string         `json:"category"`
	Message     string         `json:"message"`
	Recoverable bool           `json:"recoverable,omitempty"`
	Field       string         `json:"field,omitempty"`
	Suggestion  map[string]any `json:"suggestion,omitempty"`
	Context     map[string]any `json:"context,omitempty"`
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// DecodePayload parses a raw payload into the operation's typed form and
// checks the fields the operation cannot do without. Unknown extra fields
// pass through untouched; the protocol is extensible. The returned value is
// a pointer to the payload type, or nil for the free-form operations.
func DecodePayload(op Operation, raw json.RawMessage) (any, error) {
	switch op {
	case OperationHello, OperationVerify:
		return nil, nil

	case OperationQuery:
		var p QueryPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, authz.ErrMalformedMessage
		}
		if p.Domain == "" || p.Intent == "" {
			return nil, authz.ErrMalformedMessage
		}
		return &p, nil

	case OperationRespond:
		var p RespondPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, authz.ErrMalformedMessage
		}
		if !oneOf(p.Status, "success", "error", "partial") {
			return nil, authz.ErrMalformedMessage
		}
		return &p, nil

	case OperationTask:
		var p TaskPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, authz.ErrMalformedMessage
		}
		if p.TaskID == "" || !oneOf(p.Action, "create", "status", "cancel", "complete") {
			return nil, authz.ErrMalformedMessage
		}
		return &p, nil

	case OperationStream:
		var p StreamPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, authz.ErrMalformedMessage
		}
		if p.StreamID == "" || !oneOf(p.Action, "start", "chunk", "end", "error") {
			return nil, authz.ErrMalformedMessage
		}
		return &p, nil

	case OperationTool:
		var p ToolPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, authz.ErrMalformedMessage
		}
		if !oneOf(p.Action, "invoke", "list", "describe") {
			return nil, authz.ErrMalformedMessage
		}
		if p.Action == "invoke" && p.Tool == "" {
			return nil, authz.ErrMalformedMessage
		}
		return &p, nil

	case OperationConsent:
		var p ConsentPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, authz.ErrMalformedMessage
		}
		if !oneOf(p.Action, "request", "grant", "revoke", "verify") {
			return nil, authz.ErrMalformedMessage
		}
		return &p, nil

	case OperationError:
		var p ErrorPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, authz.ErrMalformedMessage
		}
		if p.Code == "" || p.Message == "" {
			return nil, authz.ErrMalformedMessage
		}
		if !oneOf(p.Category, "protocol", "validation", "auth", "privacy", "transport", "execution") {
			return nil, authz.ErrMalformedMessage
		}
		return &p, nil
	}

	return nil, authz.ErrMalformedMessage
}
