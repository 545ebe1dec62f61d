package api

import (
	"encoding/json"
	"net/http"
)

// errorResponse is the JSON body for every non-2xx reply. Details carry
// field-level validation messages or a short diagnostic string, never a
// raw internal trace.
type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, details any) {
	writeJSON(w, status, errorResponse{Error: msg, Details: details})
}
