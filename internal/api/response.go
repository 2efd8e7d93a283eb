// Package api provides the REST API and WebSocket server for techo.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	techoerrors "github.com/mkoseki/techo/internal/errors"
)

// APIError is the error body every endpoint returns on failure.
type APIError struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// writeJSON is the single funnel for response bodies. Encoding failures
// after the header is written are unrecoverable and ignored.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONResponse writes v with a 200.
func JSONResponse(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, v)
}

// JSONResponseStatus writes v with the given status.
func JSONResponseStatus(w http.ResponseWriter, v any, status int) {
	writeJSON(w, status, v)
}

// JSONError writes a bare error message with the given status.
func JSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, APIError{Error: message})
}

// HandleError maps structured techo errors to their HTTP status and
// includes the error code; anything else is a 500.
func HandleError(w http.ResponseWriter, err error) {
	var terr *techoerrors.TechoError
	if errors.As(err, &terr) {
		writeJSON(w, terr.HTTPStatus(), APIError{Error: terr.What, Code: string(terr.Code)})
		return
	}
	JSONError(w, err.Error(), http.StatusInternalServerError)
}

// NoContent writes a 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
