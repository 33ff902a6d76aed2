// Package httpx holds the JSON request/response helpers shared by the
// HTTP handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ayush/blog-platform/internal/apperror"
	"github.com/ayush/blog-platform/internal/logging"
)

// MaxBodyBytes bounds JSON request bodies.
const MaxBodyBytes = 1 << 20

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError renders err with the status of its AppError type.
func WriteError(w http.ResponseWriter, r *http.Request, log logging.Logger, err error) {
	status := http.StatusInternalServerError
	if ae, ok := apperror.As(err); ok {
		status = ae.StatusCode()
	}
	WriteErrorStatus(w, r, log, status, err)
}

// WriteErrorStatus renders err with an explicit status. Server errors are
// logged and their message replaced by a generic one.
func WriteErrorStatus(w http.ResponseWriter, r *http.Request, log logging.Logger, status int, err error) {
	msg := "Internal server error"
	if ae, ok := apperror.As(err); ok {
		msg = ae.Message
	}
	if status >= http.StatusInternalServerError {
		log.Error(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimw.GetReqID(r.Context()),
			"error", err,
		)
		if apperror.TypeOf(err) != apperror.Persistence {
			msg = "Internal server error"
		}
	}
	WriteJSON(w, status, ErrorBody{Message: msg})
}

// DecodeJSON decodes the request body into v.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.NewValidation("Request body is required")
		}
		return apperror.New(apperror.Validation, "Invalid request body", err)
	}
	return nil
}
