package api

import (
	"github.com/labstack/echo/v4"
)

// All endpoints answer with a uniform envelope: {"success": bool} plus
// either the payload fields or an "error" message.

func respond(c echo.Context, status int, payload map[string]any) error {
	body := map[string]any{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	return c.JSON(status, body)
}

func respondError(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]any{
		"success": false,
		"error":   message,
	})
}
