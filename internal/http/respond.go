package httpx

import (
	"encoding/json"
	"net/http"
)

// errorBody is the wire shape of every error response: a stable
// machine-readable kind plus a human-readable message.
type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// writeJSON writes JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends an error with kind and message.
func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, map[string]errorBody{"error": {Kind: kind, Message: msg}})
}
