package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"optikcare_api/internal/apperrors"
)

// ErrorHandler builds the Echo error handler. Application errors carry
// their own status code and client-safe message; everything else
// collapses to a generic 500 so internals never leak to callers.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "internal error"
		kind := apperrors.KindInternal

		var appErr *apperrors.Error
		var httpErr *echo.HTTPError
		if errors.As(err, &appErr) {
			code = appErr.StatusCode()
			message = appErr.Message
			kind = appErr.Kind
		} else if errors.As(err, &httpErr) {
			code = httpErr.Code
			if msg, ok := httpErr.Message.(string); ok && msg != "" {
				message = msg
			} else {
				message = http.StatusText(code)
			}
			kind = ""
		}

		if code >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Error(err),
			)
		} else {
			log.Warn("request rejected",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", code),
				zap.String("reason", message),
			)
		}

		body := map[string]interface{}{"error": message}
		if kind != "" {
			body["kind"] = string(kind)
		}
		if writeErr := c.JSON(code, body); writeErr != nil {
			log.Error("failed to write error response", zap.Error(writeErr))
		}
	}
}
