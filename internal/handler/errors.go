package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-analytics/internal/apperror"
)

// respondError maps an error from the engine, the maintainer or a
// repository onto a status code.  Unclassified errors are logged and
// answered with a generic 500.
func respondError(c echo.Context, log *zap.Logger, err error) error {
	var (
		ve *apperror.ValidationError
		ne *apperror.NotEligibleError
	)
	switch {
	case errors.As(err, &ve):
		body := echo.Map{"error": ve.Reason}
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		return c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &ne):
		return c.JSON(http.StatusForbidden, echo.Map{"error": ne.Error()})
	case errors.Is(err, apperror.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	if log != nil {
		log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err))
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
