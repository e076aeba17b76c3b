package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/spigell/resumematch/internal/app"
	"github.com/spigell/resumematch/internal/session"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error, details any) {
	status, code := errorStatus(err)
	writeJSON(w, status, errorEnvelope{Error: apiError{Code: code, Message: err.Error(), Details: details}})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, app.ErrInvalidArgument):
		return http.StatusBadRequest, "INVALID_ARGUMENT"
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, app.ErrUpstream):
		return http.StatusBadGateway, "UPSTREAM"
	}
	return http.StatusInternalServerError, "INTERNAL"
}
