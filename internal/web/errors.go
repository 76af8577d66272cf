package web

// errors.go maps pipeline errors onto HTTP responses. The technical error is
// logged with the request id; the client gets a JSON body with the message.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ledoux/bakehouse/internal/importer"
	"github.com/ledoux/bakehouse/internal/logging"
	"github.com/ledoux/bakehouse/internal/mapping"
	"github.com/ledoux/bakehouse/internal/tabular"
)

// ErrorResponse is the JSON shape of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	// Fields carries the unmapped required fields for mapping errors so the
	// client can highlight them.
	Fields []string `json:"fields,omitempty"`
}

// respondError classifies err and writes the matching status code.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadRequest

	var missing *mapping.MissingRequiredFieldsError
	var malformed *tabular.MalformedInputError

	switch {
	case errors.Is(err, importer.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, importer.ErrCommitInProgress),
		errors.Is(err, importer.ErrSessionComplete),
		errors.Is(err, importer.ErrMappingNotConfirmed):
		status = http.StatusConflict
	case errors.As(err, &missing):
		logAndWrite(w, r, http.StatusUnprocessableEntity, ErrorResponse{
			Error:  err.Error(),
			Fields: missing.Fields,
		})
		return
	case errors.As(err, &malformed):
		status = http.StatusBadRequest
	}

	logAndWrite(w, r, status, ErrorResponse{Error: err.Error()})
}

// writeError writes a plain error message with the given status.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	logAndWrite(w, r, status, ErrorResponse{Error: message})
}

func logAndWrite(w http.ResponseWriter, r *http.Request, status int, resp ErrorResponse) {
	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", resp.Error,
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// writeJSON encodes v as the response body. Encoding errors are logged since
// the headers are already gone.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode", "error", err)
	}
}
