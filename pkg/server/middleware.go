package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// requestIDKey is the locals key the request id travels under.
const requestIDKey = "requestID"

// requestIDMiddleware honors a caller-supplied X-Request-ID or generates
// one, and echoes it on the response so clients can correlate logs.
func requestIDMiddleware(c fiber.Ctx) error {
	id := strings.TrimSpace(c.Get("X-Request-ID"))
	if id == "" {
		id = uuid.NewString()
	}
	c.Locals(requestIDKey, id)
	c.Set("X-Request-ID", id)
	return c.Next()
}

// requestID returns the id assigned by the middleware.
func requestID(c fiber.Ctx) string {
	if id, ok := c.Locals(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// recoverMiddleware converts handler panics into 500 envelopes instead of
// dropped connections.
func recoverMiddleware(c fiber.Ctx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return c.Next()
}

// negotiateJSON enforces the JSON-only contract: 406 when the Accept header
// excludes JSON, 415 when a body-carrying request is not JSON.
func negotiateJSON(c fiber.Ctx) error {
	accept := c.Get("Accept")
	if accept != "" && !strings.Contains(accept, "application/json") &&
		!strings.Contains(accept, "*/*") && !strings.Contains(accept, "application/*") {
		return &apiError{
			status: http.StatusNotAcceptable,
			code:   "NOT_ACCEPTABLE",
			err:    fmt.Errorf("only application/json is produced, Accept was %q", accept),
		}
	}

	switch c.Method() {
	case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch:
		if len(c.Body()) > 0 {
			ct := c.Get("Content-Type")
			if !strings.Contains(ct, "application/json") {
				return &apiError{
					status: http.StatusUnsupportedMediaType,
					code:   "UNSUPPORTED_MEDIA_TYPE",
					err:    fmt.Errorf("only application/json bodies are accepted, Content-Type was %q", ct),
				}
			}
		}
	}
	return c.Next()
}

// requestLogger emits one structured line per request.
func (s *Server) requestLogger(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		status, _ = classify(err)
	}
	s.logger.Info("request",
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"requestId", requestID(c),
		"elapsed", time.Since(start))
	return err
}

// rateLimitMiddleware rejects clients over their window with a Retry-After.
// Installed only when the limiter is configured.
func (s *Server) rateLimitMiddleware(c fiber.Ctx) error {
	key := strings.TrimSpace(c.Get("X-API-Key"))
	if key == "" {
		key = c.IP()
	}
	allowed, retryAfter := s.limiter.Allow(c.Context(), key)
	if !allowed {
		c.Set("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())+1))
		return &apiError{
			status: http.StatusTooManyRequests,
			code:   "TOO_MANY_REQUESTS",
			err:    fmt.Errorf("rate limit exceeded, retry in %s", retryAfter.Round(time.Second)),
		}
	}
	return c.Next()
}
