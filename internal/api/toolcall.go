package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ToolRequest is the single internal shape every inbound tool invocation is
// normalized into, regardless of how the voice platform wrapped it.
type ToolRequest struct {
	ToolCallID string
	Args       map[string]any
}

type toolCall struct {
	ID       string `json:"id"`
	Function struct {
		Name string `json:"name"`
		// Arguments arrives either as a JSON object or as a JSON-encoded
		// string requiring a second parse.
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

var errUnrecognizedShape = errors.New("unrecognized tool request shape")

// normalizeToolRequest accepts the three request shapes the voice platform
// has been observed to send: a flat JSON body of arguments, a message
// envelope with a toolCalls array, or a bare array of tool-call objects.
func normalizeToolRequest(body []byte) (ToolRequest, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ToolRequest{}, errUnrecognizedShape
	}

	if strings.HasPrefix(trimmed, "[") {
		var calls []toolCall
		if err := json.Unmarshal(body, &calls); err != nil || len(calls) == 0 {
			return ToolRequest{}, errUnrecognizedShape
		}
		return fromToolCall(calls[0])
	}

	var envelope struct {
		ToolCallID string `json:"toolCallId"`
		Message    *struct {
			ToolCalls []toolCall `json:"toolCalls"`
		} `json:"message"`
		ToolCalls []toolCall `json:"toolCalls"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ToolRequest{}, errUnrecognizedShape
	}

	if envelope.Message != nil && len(envelope.Message.ToolCalls) > 0 {
		return fromToolCall(envelope.Message.ToolCalls[0])
	}
	if len(envelope.ToolCalls) > 0 {
		return fromToolCall(envelope.ToolCalls[0])
	}

	// Flat body: the whole object is the arguments.
	var args map[string]any
	if err := json.Unmarshal(body, &args); err != nil {
		return ToolRequest{}, errUnrecognizedShape
	}
	delete(args, "toolCallId")
	return ToolRequest{ToolCallID: envelope.ToolCallID, Args: args}, nil
}

func fromToolCall(c toolCall) (ToolRequest, error) {
	req := ToolRequest{ToolCallID: c.ID}
	if len(c.Function.Arguments) == 0 {
		req.Args = map[string]any{}
		return req, nil
	}

	raw := c.Function.Arguments
	// Arguments-as-string needs unquoting before the real parse.
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		raw = json.RawMessage(asString)
	}

	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return ToolRequest{}, fmt.Errorf("parse tool arguments: %w", err)
	}
	req.Args = args
	return req, nil
}

// stringArg extracts a string argument, tolerating absent keys.
func (r ToolRequest) stringArg(key string) string {
	if v, ok := r.Args[key].(string); ok {
		return v
	}
	return ""
}

// timeArg parses an instant argument, accepting RFC 3339 or a bare date
// rendered at midnight in loc.
func (r ToolRequest) timeArg(key string, loc *time.Location) (time.Time, error) {
	s := r.stringArg(key)
	if s == "" {
		return time.Time{}, fmt.Errorf("%s is required", key)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%s must be an ISO 8601 timestamp or YYYY-MM-DD date, got %q", key, s)
}
