package api

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

func writeToolResult(w http.ResponseWriter, toolCallID, result string) {
	writeJSON(w, http.StatusOK, ToolResponse{Results: []ToolResult{
		{ToolCallID: toolCallID, Result: result},
	}})
}

func writeToolError(w http.ResponseWriter, status int, toolCallID, message string) {
	writeJSON(w, status, ToolResponse{Results: []ToolResult{
		{ToolCallID: toolCallID, Error: message},
	}})
}
