package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-analytics/internal/handler"
	"github.com/iliyamo/cinema-analytics/internal/middleware"
)

// RegisterAdmin registers the dashboard endpoints under /v1/admin/stats.
// All routes require a valid JWT with the ADMIN or OWNER role.  When a
// response cache is given it sits behind the role check so anonymous
// callers never read cached figures.
func RegisterAdmin(e *echo.Echo, s *handler.StatsHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	mws := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN", "OWNER"),
	}
	if cache != nil {
		mws = append(mws, cache)
	}
	g := e.Group("/v1/admin/stats", mws...)

	// ---- Revenue ----
	g.GET("/revenue", s.Revenue)
	g.GET("/bookings", s.Bookings)
	g.GET("/summary", s.Summary)

	// ---- Engagement ----
	g.GET("/screenings/today", s.ScreeningsToday)
	g.GET("/utilization", s.Utilization)
	g.GET("/tickets", s.Tickets)
	g.GET("/customers/recent", s.RecentCustomers)
	g.GET("/signups", s.Signups)
	g.GET("/signups/years", s.SignupYears)

	// ---- Per cinema / per movie ----
	g.GET("/cinemas", s.CinemaRevenue)
	g.GET("/cinemas/top", s.TopCinema)
	g.GET("/movies", s.MovieRevenue)
	g.GET("/movies/top", s.TopMovie)
	g.GET("/movies/opening/:period", s.OpeningRevenue)
}
