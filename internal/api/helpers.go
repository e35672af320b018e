package api

import (
	"encoding/json"
	"net/http"
)

// Error codes for the JSON error envelope. The kiosk treats validation
// failures as its own bug and storage failures as retryable.
const (
	codeValidation = "validation"
	codeStorage    = "storage"
	codeConflict   = "conflict"
	codeNotFound   = "not_found"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}
