// Package httpx provides HTTP response utilities for the portal's JSON APIs.
package httpx

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorDetail is the error object of the JSON error envelope.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// ErrorEnvelope is returned by every API failure.
type ErrorEnvelope struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// DataEnvelope wraps successful API payloads.
type DataEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// now is swapped in tests to pin timestamps.
var now = time.Now

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// OK sends a success envelope.
func OK(w http.ResponseWriter, status int, data any) {
	JSON(w, status, DataEnvelope{Success: true, Data: data})
}

// Error sends the JSON error envelope.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorEnvelope{
		Success: false,
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Timestamp: now().UTC().Format(time.RFC3339Nano),
		},
	})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}
