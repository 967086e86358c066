package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/sentriq/screend/pkg/batch"
	"github.com/sentriq/screend/pkg/feeds"
	"github.com/sentriq/screend/pkg/search"
)

// ErrorEnvelope is the uniform error body every endpoint returns.
type ErrorEnvelope struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Status    int    `json:"status"`
	Path      string `json:"path"`
	RequestID string `json:"requestId"`
	Timestamp string `json:"timestamp"`
}

// apiError carries an HTTP status and short error code alongside the cause.
type apiError struct {
	status int
	code   string
	err    error
}

func (e *apiError) Error() string {
	return e.err.Error()
}

func (e *apiError) Unwrap() error {
	return e.err
}

// badRequest wraps err as a 400.
func badRequest(err error) error {
	return &apiError{status: http.StatusBadRequest, code: "INVALID_INPUT", err: err}
}

// errorCodes names the status codes used in envelopes.
var errorCodes = map[int]string{
	http.StatusBadRequest:            "INVALID_INPUT",
	http.StatusNotFound:              "NOT_FOUND",
	http.StatusNotAcceptable:         "NOT_ACCEPTABLE",
	http.StatusRequestEntityTooLarge: "PAYLOAD_TOO_LARGE",
	http.StatusUnsupportedMediaType:  "UNSUPPORTED_MEDIA_TYPE",
	http.StatusTooManyRequests:       "TOO_MANY_REQUESTS",
	http.StatusServiceUnavailable:    "SERVICE_UNAVAILABLE",
	http.StatusInternalServerError:   "INTERNAL_ERROR",
}

// classify maps core errors to their HTTP status and code.
func classify(err error) (int, string) {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.status, ae.code
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		if code, ok := errorCodes[fe.Code]; ok {
			return fe.Code, code
		}
		return fe.Code, http.StatusText(fe.Code)
	}

	switch {
	case errors.Is(err, search.ErrEmptyName),
		errors.Is(err, search.ErrInvalidOption),
		errors.Is(err, batch.ErrEmptyBatch):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, batch.ErrJobNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, batch.ErrBatchTooLarge):
		return http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"
	case errors.Is(err, feeds.ErrRefreshInProgress):
		return http.StatusTooManyRequests, "REFRESH_IN_PROGRESS"
	case errors.Is(err, search.ErrStillLoading):
		return http.StatusServiceUnavailable, "STILL_LOADING"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// errorHandler renders every error as the envelope. Unexpected errors hide
// their internals behind a generic message.
func (s *Server) errorHandler(c fiber.Ctx, err error) error {
	status, code := classify(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "requestId", requestID(c), "error", err)
		message = "unexpected internal error"
	}

	return c.Status(status).JSON(ErrorEnvelope{
		Error:     code,
		Message:   message,
		Status:    status,
		Path:      c.Path(),
		RequestID: requestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
