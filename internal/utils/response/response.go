// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client.
// Rather than repeating the same three lines (set header, set status,
// encode JSON) in every handler, we centralise them here.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/aanand-mishra/cafe-registration/internal/types"
)

// Response is the standard envelope returned for error cases.
//
//	{ "status": "error", "error": "email: Email is invalid" }
//
// Validation failures also carry the per-field messages so a rendering
// surface can show each one next to its input:
//
//	{ "status": "error", "error": "...", "fields": { "email": "Email is invalid" } }
type Response struct {
	Status string       `json:"status"`
	Error  string       `json:"error,omitempty"`
	Fields types.Errors `json:"fields,omitempty"`
}

// Status string constants.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps any Go error into our standard Response shape.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ValidationError turns the form's per-field messages into a Response.
// The summary lists fields in key order so it is stable between calls.
//
//	{ "status": "error", "error": "name: Name is required, terms: You must agree to terms", "fields": {...} }
func ValidationError(errs types.Errors) Response {
	fields := errs.Clone()

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fmt.Sprintf("%s: %s", k, fields[k]))
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(msgs, ", "),
		Fields: fields,
	}
}
