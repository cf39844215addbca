package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/statuswatch/internal/application/appcore"
	"github.com/lllypuk/statuswatch/internal/domain/errs"
)

// Response is the envelope of every API body.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// Error is the error part of Response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// RespondJSON writes data wrapped in a successful Response.
func RespondJSON(c echo.Context, code int, data any) error {
	return c.JSON(code, Response{Success: true, Data: data})
}

func RespondOK(c echo.Context, data any) error {
	return RespondJSON(c, http.StatusOK, data)
}

func RespondCreated(c echo.Context, data any) error {
	return RespondJSON(c, http.StatusCreated, data)
}

func RespondNoContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// RespondError maps err onto a status code and an API error.
func RespondError(c echo.Context, err error) error {
	status, apiErr := mapError(err)
	return c.JSON(status, Response{Error: apiErr})
}

// RespondErrorWithCode writes an error with an explicit status and code.
func RespondErrorWithCode(c echo.Context, status int, code, message string) error {
	return c.JSON(status, Response{Error: &Error{Code: code, Message: message}})
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// порядок важен: дубликат appKey оборачивает и ErrInvalidOperation, и ErrAlreadyExists
var errorMappings = []errorMapping{
	{errs.ErrNotFound, http.StatusNotFound, "NOT_FOUND", "The requested resource was not found"},
	{errs.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS", "The resource already exists"},
	{errs.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT", "Invalid input data"},
	{errs.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", "Not allowed to access this resource"},
	{errs.ErrInvalidOperation, http.StatusUnprocessableEntity, "INVALID_OPERATION", "Operation not allowed"},
	{errs.ErrInvalidState, http.StatusUnprocessableEntity, "INVALID_STATE", "Operation not allowed in current state"},
	{errs.ErrUpstreamUnavailable, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "A dependent service is unavailable"},
}

// mapError resolves err against errorMappings. Client errors carry the
// wrapped error text in Details, server errors never do.
func mapError(err error) (int, *Error) {
	var validationErr *appcore.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, &Error{Code: "VALIDATION_ERROR", Message: validationErr.Error()}
	}

	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		apiErr := &Error{Code: m.code, Message: m.message}
		if m.status < http.StatusInternalServerError && err.Error() != m.target.Error() {
			apiErr.Details = err.Error()
		}
		return m.status, apiErr
	}

	return http.StatusInternalServerError, &Error{Code: "INTERNAL_ERROR", Message: "An internal error occurred"}
}
