// Package handlers – service error mapping.
//
// This file centralizes the translation of service-layer errors into HTTP
// responses. Handlers never build error envelopes ad hoc: every failure path
// funnels through respondServiceError (domain errors) or the helpers in
// response.go, so the error taxonomy stays uniform:
//
//   - services.NotFoundError              -> 404 with {message, error}
//   - binding / parameter validation      -> 400 with {message, error}
//   - anything else                       -> 500 with a generic string
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-clinic-backend/internal/services"
)

// msgNumericID mirrors the parameter-validation wording used by the public
// API for non-numeric id path and body parameters.
const msgNumericID = "Validation failed (numeric string is expected)"

// respondServiceError maps a service-layer error onto the error envelope.
// Unrecognized errors become a generic 500 without leaking internals.
func respondServiceError(c *gin.Context, err error) {
	var nf *services.NotFoundError
	if errors.As(err, &nf) {
		failMessage(c, http.StatusNotFound, nf.Error())
		return
	}
	internalError(c)
}

// intParam parses a numeric path parameter. On failure it writes the 400
// envelope and reports ok=false; callers must return immediately.
func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		failMessage(c, http.StatusBadRequest, msgNumericID)
		return 0, false
	}
	return v, true
}
