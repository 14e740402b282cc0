// Package shared holds helpers common to every HTTP handler.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "driveflow/pkg/domain-errors"
)

// ErrorResponse is the JSON error envelope every endpoint returns.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteError translates a domain error into the HTTP error envelope. Unknown
// errors map to a bare internal response so internals never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := ErrorResponse{Error: string(code)}
	if de, ok := err.(*dErrors.DomainError); ok {
		body.Description = de.Message
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
