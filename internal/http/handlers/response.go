// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints.
// Every successful handler result is wrapped in a uniform envelope and every
// failure in a uniform error envelope, making the API predictable and
// machine-friendly.
//
// Conventions:
//   - Success bodies are {"status": "success", "data": <result>}.
//   - Error bodies are {"status": "error", "statusCode": <int>,
//     "timestamp": <ISO-8601>, "path": <request path>, "error": <detail>}
//     where detail is either a plain string (unhandled failures) or a
//     {"message", "error"} object carrying a reason phrase (validation and
//     not-found failures).
//   - fail() centralizes error formatting and ensures 5xx responses are
//     logged with request context for observability.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "status": "error",
//	  "statusCode": 404,
//	  "timestamp": "2025-06-01T12:00:00.000Z",
//	  "path": "/patients/99999",
//	  "error": { "message": "Patient with id 99999 not found", "error": "Not Found" }
//	}
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-clinic-backend/internal/http/middleware"
)

// SuccessResponse is the standard envelope returned by all successful endpoints.
type SuccessResponse struct {
	// Status is always "success".
	Status string `json:"status" example:"success"`
	// Data is the operation result (entity, pagination envelope, or null).
	Data any `json:"data"`
}

// ErrorDetail is the {message, error} pair carried by validation and
// not-found failures.
type ErrorDetail struct {
	// Message is a human-readable description, safe to show to users.
	Message string `json:"message" example:"Patient with id 99999 not found"`
	// Error is the HTTP reason phrase for the status code.
	Error string `json:"error" example:"Not Found"`
}

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Status is always "error".
	Status string `json:"status" example:"error"`
	// StatusCode mirrors the HTTP status of the response.
	StatusCode int `json:"statusCode" example:"404"`
	// Timestamp is the ISO-8601 UTC time the error was rendered.
	Timestamp string `json:"timestamp" example:"2025-06-01T12:00:00.000Z"`
	// Path is the request path that produced the error.
	Path string `json:"path" example:"/patients/99999"`
	// Error is either a string or an ErrorDetail object.
	Error any `json:"error"`
}

// ok writes a success envelope with the given HTTP status code.
func ok(c *gin.Context, status int, data any) {
	c.JSON(status, SuccessResponse{Status: "success", Data: data})
}

// fail aborts the request with the error envelope. detail is either a string
// or an ErrorDetail. Server errors (>=500) are logged with the request-scoped
// logger from middleware.
func fail(c *gin.Context, status int, detail any) {
	resp := ErrorResponse{
		Status:     "error",
		StatusCode: status,
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		Path:       c.Request.URL.Path,
		Error:      detail,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Interface("error", detail).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// failMessage renders a {message, error} detail whose reason phrase is
// derived from the status code.
func failMessage(c *gin.Context, status int, msg string) {
	fail(c, status, ErrorDetail{Message: msg, Error: http.StatusText(status)})
}

// Fail is the exported variant of failMessage.
//
// External packages (e.g., router setup) should call Fail to return
// consistent error envelopes without directly depending on unexported helpers.
func Fail(c *gin.Context, status int, msg string) { failMessage(c, status, msg) }

// internalError renders the generic 500 envelope. The error detail is a plain
// string and never leaks internals.
func internalError(c *gin.Context) {
	fail(c, http.StatusInternalServerError, "Internal server error")
}
