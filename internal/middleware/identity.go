package middleware

// identity.go defines helpers shared across middleware files and handlers.
// JWTAuth stores the token subject under "user_id" as a uint64; UserID
// reads it back.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// UserID returns the authenticated user's id, or false when the request
// carries no identity.
func UserID(c echo.Context) (uint64, bool) {
	switch t := c.Get(CtxUserID).(type) {
	case uint64:
		return t, true
	case float64:
		if t > 0 {
			return uint64(t), true
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// Role returns the authenticated user's role name or "".
func Role(c echo.Context) string {
	r, _ := c.Get(CtxRole).(string)
	return r
}
