// Package httputil centralizes JSON response writing so every route renders
// domain errors the same way.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "circulation/pkg/domain-errors"
)

// WriteJSON renders v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into a status and a JSON envelope:
//
//	{"error": "<code>", "error_description": "<message>"}
//
// Internal failures never leak their message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	msg := ""
	if de, ok := dErrors.From(err); ok {
		code = de.Code
		msg = de.Message
	}

	body := map[string]string{"error": string(code)}
	status := dErrors.ToHTTPStatus(code)
	if status < http.StatusInternalServerError && msg != "" {
		body["error_description"] = msg
	}
	WriteJSON(w, status, body)
}
