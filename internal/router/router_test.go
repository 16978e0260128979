package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-analytics/internal/analytics"
	"github.com/iliyamo/cinema-analytics/internal/config"
	"github.com/iliyamo/cinema-analytics/internal/handler"
	"github.com/iliyamo/cinema-analytics/internal/utils"
)

const secret = "router-secret"

// Embedded nil interfaces: any call panics, so the tests below only
// exercise paths that are rejected before reaching a handler.
type nopStore struct{ analytics.Store }
type nopVotes struct{ handler.VoteService }

func newServer() *echo.Echo {
	e := echo.New()
	RegisterRoutes(e, &handler.HealthHandler{}, &handler.MovieHandler{}, handler.NewVoteHandler(nopVotes{}, nil, nil))
	RegisterAuth(e, handler.NewAuthHandler(config.AppConfig{JWTSecret: secret}, nil, nil, nil), secret)
	RegisterVotes(e, handler.NewVoteHandler(nopVotes{}, nil, nil), secret, nil)
	RegisterAdmin(e, handler.NewStatsHandler(analytics.New(nopStore{}, nil, nil), nil), secret, nil)
	return e
}

func call(e *echo.Echo, method, path, token string) int {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestRoutesRegistered(t *testing.T) {
	e := newServer()
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"POST /v1/auth/register",
		"POST /v1/auth/login",
		"GET /v1/me",
		"GET /v1/movies/top-rated",
		"GET /v1/movies/:id/votes/stats",
		"GET /v1/movies/:id/votes/mine",
		"POST /v1/votes",
		"PUT /v1/votes/:id",
		"DELETE /v1/votes/:id",
		"GET /v1/votes",
		"GET /v1/admin/stats/revenue",
		"GET /v1/admin/stats/bookings",
		"GET /v1/admin/stats/summary",
		"GET /v1/admin/stats/screenings/today",
		"GET /v1/admin/stats/utilization",
		"GET /v1/admin/stats/tickets",
		"GET /v1/admin/stats/customers/recent",
		"GET /v1/admin/stats/signups",
		"GET /v1/admin/stats/signups/years",
		"GET /v1/admin/stats/cinemas",
		"GET /v1/admin/stats/cinemas/top",
		"GET /v1/admin/stats/movies",
		"GET /v1/admin/stats/movies/top",
		"GET /v1/admin/stats/movies/opening/:period",
	} {
		assert.True(t, have[want], want)
	}
}

func TestGuards(t *testing.T) {
	e := newServer()
	customer, err := utils.NewAccessToken(secret, 7, "CUSTOMER", 5)
	require.NoError(t, err)
	staff, err := utils.NewAccessToken(secret, 9, "STAFF", 5)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, call(e, http.MethodGet, "/healthz", ""))
	assert.Equal(t, http.StatusUnauthorized, call(e, http.MethodGet, "/v1/admin/stats/revenue", ""))
	assert.Equal(t, http.StatusForbidden, call(e, http.MethodGet, "/v1/admin/stats/revenue", customer.Token))
	assert.Equal(t, http.StatusUnauthorized, call(e, http.MethodGet, "/v1/votes", ""))
	assert.Equal(t, http.StatusForbidden, call(e, http.MethodPost, "/v1/votes", staff.Token))
}
