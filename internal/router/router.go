package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/cinema-analytics/internal/handler"    // handlers that implement the endpoints
	"github.com/iliyamo/cinema-analytics/internal/middleware" // JWT authentication
)

// RegisterRoutes registers routes that do not require authentication: the
// health check, the public movie ranking and a movie's vote statistics.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler, m *handler.MovieHandler, v *handler.VoteHandler) {
	// Load balancers and monitoring systems probe this path.
	e.GET("/healthz", h.Health)

	e.GET("/v1/movies/top-rated", m.TopRated)
	e.GET("/v1/movies/:id/votes/stats", v.Stats)
}

// RegisterAuth registers the authentication routes.  Register and login
// live under /v1/auth and need no session; /v1/me requires a valid access
// token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))
}
