package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/MJE43/redsettings-go/internal/engine"
	"github.com/MJE43/redsettings-go/internal/games"
	"github.com/MJE43/redsettings-go/internal/service"
	"github.com/MJE43/redsettings-go/internal/store"
)

// ErrorBuilder helps construct structured errors with context
type ErrorBuilder struct {
	errType   string
	message   string
	context   map[string]any
	requestID string
}

// NewError creates a new error builder
func NewError(errType, message string) *ErrorBuilder {
	return &ErrorBuilder{
		errType: errType,
		message: message,
		context: make(map[string]any),
	}
}

// WithContext adds context information to the error
func (eb *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	eb.context[key] = value
	return eb
}

// WithRequestID adds request ID to the error
func (eb *ErrorBuilder) WithRequestID(requestID string) *ErrorBuilder {
	eb.requestID = requestID
	return eb
}

// WithCause records the underlying error message.
func (eb *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	if err != nil {
		eb.context["cause"] = err.Error()
	}
	return eb
}

// Build creates the final EngineError
func (eb *ErrorBuilder) Build() EngineError {
	var ctx map[string]any
	if len(eb.context) > 0 {
		ctx = eb.context
	}
	return EngineError{
		Type:      eb.errType,
		Message:   eb.message,
		Context:   ctx,
		RequestID: eb.requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ErrorHandler maps domain errors onto HTTP responses and logs them.
type ErrorHandler struct {
	log zerolog.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(log zerolog.Logger) *ErrorHandler {
	return &ErrorHandler{log: log}
}

// classify picks the status and error type for a domain error.
func classify(err error) (int, *ErrorBuilder) {
	var nf *games.NotFoundError
	switch {
	case errors.As(err, &nf):
		if nf.Kind == "style" {
			return http.StatusNotFound, NewError(ErrTypeStyleNotFound, err.Error()).
				WithContext("style", nf.Name).WithContext("game", nf.Game)
		}
		return http.StatusNotFound, NewError(ErrTypeGameNotFound, err.Error()).WithContext("game", nf.Name)
	case errors.Is(err, engine.ErrInvalidOption):
		return http.StatusBadRequest, NewError(ErrTypeInvalidOption, err.Error())
	case errors.Is(err, service.ErrDeviceRequired):
		return http.StatusBadRequest, NewError(ErrTypeInvalidParams, err.Error())
	case errors.Is(err, service.ErrUnknownDevice):
		return http.StatusNotFound, NewError(ErrTypeDeviceNotFound, err.Error())
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, NewError(ErrTypeProfileNotFound, err.Error())
	case errors.Is(err, service.ErrNoStore):
		return http.StatusServiceUnavailable, NewError(ErrTypeServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout, NewError(ErrTypeTimeout, "operation timed out")
	default:
		return http.StatusInternalServerError, NewError(ErrTypeInternal, "internal error").WithCause(err)
	}
}

// HandleError writes the response for err.
func (eh *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	var engineErr EngineError
	status := http.StatusInternalServerError
	if errors.As(err, &engineErr) {
		status = http.StatusBadRequest
	} else {
		var b *ErrorBuilder
		status, b = classify(err)
		engineErr = b.WithRequestID(middleware.GetReqID(r.Context())).
			WithContext("path", r.URL.Path).
			Build()
	}
	eh.logError(r, engineErr, status)
	eh.writeErrorResponse(w, status, engineErr)
}

// HandleValidationError handles validation-specific errors
func (eh *ErrorHandler) HandleValidationError(w http.ResponseWriter, r *http.Request, field, message string) {
	engineErr := NewError(ErrTypeValidation, fmt.Sprintf("Validation failed: %s", message)).
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("field", field).
		WithContext("path", r.URL.Path).
		Build()
	eh.logError(r, engineErr, http.StatusBadRequest)
	eh.writeErrorResponse(w, http.StatusBadRequest, engineErr)
}

// HandleDecodeError reports a malformed request body.
func (eh *ErrorHandler) HandleDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	engineErr := NewError(ErrTypeInvalidParams, "Invalid JSON request body").
		WithRequestID(middleware.GetReqID(r.Context())).
		WithCause(err).
		Build()
	eh.logError(r, engineErr, http.StatusBadRequest)
	eh.writeErrorResponse(w, http.StatusBadRequest, engineErr)
}

func (eh *ErrorHandler) logError(r *http.Request, engineErr EngineError, status int) {
	ev := eh.log.Warn()
	if status >= 500 {
		ev = eh.log.Error()
	}
	ev.Str("type", engineErr.Type).
		Str("category", string(GetErrorCategory(engineErr.Type))).
		Int("status", status).
		Str("request_id", engineErr.RequestID).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Interface("context", engineErr.Context).
		Msg(engineErr.Message)
}

func (eh *ErrorHandler) writeErrorResponse(w http.ResponseWriter, status int, engineErr EngineError) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.Header().Set("X-Error-Type", engineErr.Type)
	w.Header().Set("X-Error-Category", string(GetErrorCategory(engineErr.Type)))
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(engineErr); err != nil {
		eh.log.Error().Err(err).Msg("write error response")
	}
}

// RecoveryHandler turns panics into 500 responses.
func (eh *ErrorHandler) RecoveryHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				requestID := middleware.GetReqID(r.Context())
				eh.log.Error().
					Str("request_id", requestID).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Interface("panic", rvr).
					Msg("panic recovered")

				engineErr := NewError(ErrTypeInternal, "Internal server error").
					WithRequestID(requestID).
					WithContext("path", r.URL.Path).
					Build()
				eh.writeErrorResponse(w, http.StatusInternalServerError, engineErr)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
