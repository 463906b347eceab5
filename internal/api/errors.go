package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/orbitalworks/demands-service/core"
	"github.com/orbitalworks/demands-service/model"
)

// errorResponse is the client-facing error body.
type errorResponse struct {
	Detail string `json:"detail"`
}

// classifyAnalysisError maps the analysis error taxonomy onto HTTP statuses.
// All four engine/domain failure classes are unprocessable input; anything
// else is a fault in this service and is reported as a 500 without leaking
// internals.
func classifyAnalysisError(err error) (int, string) {
	var timeoutErr *core.EngineTimeoutError
	if errors.As(err, &timeoutErr) {
		return http.StatusUnprocessableEntity, timeoutErr.Error()
	}

	var execErr *core.EngineExecutionError
	if errors.As(err, &execErr) {
		return http.StatusUnprocessableEntity, execErr.Detail()
	}

	var malformedErr *core.MalformedResultError
	if errors.As(err, &malformedErr) {
		return http.StatusUnprocessableEntity, malformedErr.Error()
	}

	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusUnprocessableEntity, validationErr.Error()
	}

	return http.StatusInternalServerError, "internal server error"
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
