package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-analytics/internal/handler"
	"github.com/iliyamo/cinema-analytics/internal/middleware"
)

// RegisterVotes registers the vote endpoints under /v1.  Every route
// requires a valid JWT and passes through the per-user token bucket.
// Casting a vote is further restricted to customers; update and delete
// check ownership inside the handler so admins can moderate.
func RegisterVotes(e *echo.Echo, h *handler.VoteHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	mws := []echo.MiddlewareFunc{middleware.JWTAuth(jwtSecret)}
	if limiter != nil {
		mws = append(mws, limiter)
	}
	g := e.Group("/v1", mws...)

	g.POST("/votes", h.Cast, middleware.RequireRole("CUSTOMER"))
	g.PUT("/votes/:id", h.Update)
	g.DELETE("/votes/:id", h.Delete)
	g.GET("/votes", h.List)
	g.GET("/movies/:id/votes/mine", h.Mine)
}
