package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-analytics/internal/analytics"
	"github.com/iliyamo/cinema-analytics/internal/apperror"
	"github.com/iliyamo/cinema-analytics/internal/window"
)

// StatsHandler serves the admin dashboard figures.
type StatsHandler struct {
	Engine *analytics.Engine
	Log    *zap.Logger
}

// NewStatsHandler constructs a StatsHandler and panics on a nil engine.
func NewStatsHandler(engine *analytics.Engine, log *zap.Logger) *StatsHandler {
	if engine == nil {
		panic("nil engine passed to NewStatsHandler")
	}
	return &StatsHandler{Engine: engine, Log: log}
}

// reply runs one report and writes its result, or the mapped error.
func reply[T any](h *StatsHandler, c echo.Context, run func(c echo.Context) (T, error)) error {
	v, err := run(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Revenue: GET /v1/admin/stats/revenue
func (h *StatsHandler) Revenue(c echo.Context) error {
	return reply(h, c, func(c echo.Context) (analytics.RevenueTotal, error) {
		ctx, cancel := requestContext(c)
		defer cancel()
		return h.Engine.TotalRevenue(ctx)
	})
}

// Bookings: GET /v1/admin/stats/bookings
func (h *StatsHandler) Bookings(c echo.Context) error {
	return reply(h, c, func(c echo.Context) (analytics.BookingCounts, error) {
		ctx, cancel := requestContext(c)
		defer cancel()
		return h.Engine.BookingCounts(ctx)
	})
}

// ScreeningsToday: GET /v1/admin/stats/screenings/today
func (h *StatsHandler) ScreeningsToday(c echo.Context) error {
	return reply(h, c, func(c echo.Context) (analytics.ScreeningCount, error) {
		ctx, cancel := requestContext(c)
		defer cancel()
		return h.Engine.ScreeningsToday(ctx)
	})
}

// Utilization: GET /v1/admin/stats/utilization
func (h *StatsHandler) Utilization(c echo.Context) error {
	return reply(h, c, func(c echo.Context) (analytics.Utilization, error) {
		ctx, cancel := requestContext(c)
		defer cancel()
		return h.Engine.SeatUtilization(ctx)
	})
}

// Tickets: GET /v1/admin/stats/tickets
func (h *StatsHandler) Tickets(c echo.Context) error {
	return reply(h, c, func(c echo.Context) (analytics.TicketCounts, error) {
		ctx, cancel := requestContext(c)
		defer cancel()
		return h.Engine.TicketsSold(ctx)
	})
}

// RecentCustomers: GET /v1/admin/stats/customers/recent
func (h *StatsHandler) RecentCustomers(c echo.Context) error {
	return reply(h, c, func(c echo.Context) ([]analytics.CustomerActivity, error) {
		ctx, cancel := requestContext(c)
		defer cancel()
		return h.Engine.RecentCustomers(ctx)
	})
}

// Signups: GET /v1/admin/stats/signups?year=2024.  A missing year means
// the current one.
func (h *StatsHandler) Signups(c echo.Context) error {
	return reply(h, c, func(c echo.Context) ([]analytics.MonthlySignups, error) {
		year, err := queryInt(c, "year")
		if err != nil {
			return nil, err
		}
		y := 0
		if year != nil {
			y = *year
		}
		ctx, cancel := requestContext(c)
		defer cancel()
		return h.Engine.SignupsByMonth(ctx, y)
	})
}

// SignupYears: GET /v1/admin/stats/signups/years
func (h *StatsHandler) SignupYears(c echo.Context) error {
	return reply(h, c, func(c echo.Context) (analytics.SignupYears, error) {
		ctx, cancel := requestContext(c)
		defer cancel()
		return h.Engine.SignupYears(ctx)
	})
}

func dateRange(c echo.Context) (analytics.DateRange, error) {
	start, err := queryDate(c, "start")
	if err != nil {
		return analytics.DateRange{}, err
	}
	end, err := queryDate(c, "end")
	if err != nil {
		return analytics.DateRange{}, err
	}
	return analytics.DateRange{Start: start, End: end}, nil
}

// CinemaRevenue: GET /v1/admin/stats/cinemas?start=&end=
func (h *StatsHandler) CinemaRevenue(c echo.Context) error {
	return reply(h, c, func(c echo.Context) ([]analytics.CinemaRevenue, error) {
		r, err := dateRange(c)
		if err != nil {
			return nil, err
		}
		ctx, cancel := requestContext(c)
		defer cancel()
		return h.Engine.RevenueByCinema(ctx, r)
	})
}

// TopCinema: GET /v1/admin/stats/cinemas/top.  Responds with null when
// no cinema exists.
func (h *StatsHandler) TopCinema(c echo.Context) error {
	return reply(h, c, func(c echo.Context) (*analytics.CinemaRevenue, error) {
		ctx, cancel := requestContext(c)
		defer cancel()
		return h.Engine.TopCinema(ctx)
	})
}

// MovieRevenue: GET /v1/admin/stats/movies?start=&end=
func (h *StatsHandler) MovieRevenue(c echo.Context) error {
	return reply(h, c, func(c echo.Context) ([]analytics.MovieRevenue, error) {
		r, err := dateRange(c)
		if err != nil {
			return nil, err
		}
		ctx, cancel := requestContext(c)
		defer cancel()
		return h.Engine.RevenueByMovie(ctx, r)
	})
}

// TopMovie: GET /v1/admin/stats/movies/top
func (h *StatsHandler) TopMovie(c echo.Context) error {
	return reply(h, c, func(c echo.Context) (*analytics.MovieRevenue, error) {
		ctx, cancel := requestContext(c)
		defer cancel()
		return h.Engine.TopMovie(ctx)
	})
}

// OpeningRevenue: GET /v1/admin/stats/movies/opening/:period where
// period is 0 (week), 1 (month), 2 (quarter) or 3 (year).
func (h *StatsHandler) OpeningRevenue(c echo.Context) error {
	return reply(h, c, func(c echo.Context) ([]analytics.OpeningRevenue, error) {
		n, err := strconv.Atoi(c.Param("period"))
		if err != nil {
			return nil, apperror.Invalid("period", "must be an integer")
		}
		p, err := window.ParsePeriod(n)
		if err != nil {
			return nil, err
		}
		ctx, cancel := requestContext(c)
		defer cancel()
		return h.Engine.OpeningRevenue(ctx, p)
	})
}

// Summary: GET /v1/admin/stats/summary
func (h *StatsHandler) Summary(c echo.Context) error {
	return reply(h, c, func(c echo.Context) (analytics.Summary, error) {
		ctx, cancel := requestContext(c)
		defer cancel()
		return h.Engine.Summary(ctx)
	})
}
