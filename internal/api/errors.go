package api

import (
	"net/http"

	"github.com/labstack/echo/v5"
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg)
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg)
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": ErrorBody{
			Message: msg,
			Type:    errType,
		},
	})
}
