package responder

import (
	"net/http"

	"github.com/leeforge/captcha/http/middleware"
	"github.com/leeforge/captcha/json"
	"github.com/leeforge/captcha/logging"
)

// writeJSON is the internal helper for all global functions
func writeJSON(w http.ResponseWriter, status int, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		fallback := []byte("{\"error\":{\"code\":5000,\"message\":\"encode failed\"}}")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(fallback)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

// requestMeta fills the trace id from the request context unless opts set one.
func requestMeta(r *http.Request, opts []Option) Meta {
	meta := Meta{}
	if r != nil {
		meta.TraceId = logging.GetTraceID(r.Context())
		meta.Took = middleware.GetRequestDuration(r.Context())
	}
	for _, opt := range opts {
		opt(&meta)
	}
	return meta
}

// Write sends a success response with data
func Write(w http.ResponseWriter, r *http.Request, status int, data any, opts ...Option) {
	writeJSON(w, status, &Response{
		Data: data,
		Meta: requestMeta(r, opts),
	})
}

// WriteError sends an error response
func WriteError(w http.ResponseWriter, r *http.Request, status int, err Error, opts ...Option) {
	writeJSON(w, status, &Response{
		Error: &err,
		Meta:  requestMeta(r, opts),
	})
}

// WriteAppError maps err to its status and error envelope.
func WriteAppError(w http.ResponseWriter, r *http.Request, err error, opts ...Option) {
	status, body := FromAppError(err)
	WriteError(w, r, status, body, opts...)
}

// OK responds with 200 OK and data
func OK(w http.ResponseWriter, r *http.Request, data any, opts ...Option) {
	Write(w, r, http.StatusOK, data, opts...)
}

// BadRequest responds with 400 Bad Request
func BadRequest(w http.ResponseWriter, r *http.Request, message string, opts ...Option) {
	err := ErrBadRequest
	if message != "" {
		err.Message = message
	}
	WriteError(w, r, http.StatusBadRequest, err, opts...)
}

// NotFound responds with 404 Not Found
func NotFound(w http.ResponseWriter, r *http.Request, message string, opts ...Option) {
	err := ErrRouteNotFound
	if message != "" {
		err.Message = message
	}
	WriteError(w, r, http.StatusNotFound, err, opts...)
}

// ValidationError responds with 400 Bad Request and validation details
func ValidationError(w http.ResponseWriter, r *http.Request, details any, opts ...Option) {
	WriteError(w, r, http.StatusBadRequest, NewErrorWithDetails(ErrCodeValidationFailed, "", details), opts...)
}

// BindError responds with 400 Bad Request for binding errors
func BindError(w http.ResponseWriter, r *http.Request, details any, opts ...Option) {
	WriteError(w, r, http.StatusBadRequest, NewErrorWithDetails(ErrCodeBindFailed, "", details), opts...)
}

// TooManyRequests responds with 429 Too Many Requests
func TooManyRequests(w http.ResponseWriter, r *http.Request, message string, opts ...Option) {
	err := ErrTooManyRequests
	if message != "" {
		err.Message = message
	}
	WriteError(w, r, http.StatusTooManyRequests, err, opts...)
}

// InternalServerError responds with 500 Internal Server Error
func InternalServerError(w http.ResponseWriter, r *http.Request, message string, opts ...Option) {
	err := ErrInternalServer
	if message != "" {
		err.Message = message
	}
	WriteError(w, r, http.StatusInternalServerError, err, opts...)
}
