package handler // declare the package name; contains HTTP handlers

import (
	"context"  // ping deadline
	"net/http" // net/http provides status codes and response helpers

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports liveness and database reachability.
type HealthHandler struct {
	DB Pinger
}

// Health is used by load balancers and monitoring systems to verify that
// the service is running and can reach MySQL.  It answers 503 when the
// database does not respond.
func (h *HealthHandler) Health(c echo.Context) error {
	if h.DB == nil {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.DB.PingContext(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded", "db": "unreachable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "db": "ok"})
}
