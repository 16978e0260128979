package handler

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-analytics/internal/apperror"
)

// requestTimeout bounds the database work of a single request.
const requestTimeout = 5 * time.Second

const dateLayout = "2006-01-02"

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// bindValid decodes the request body into dst and runs struct tag
// validation.  Failures come back as ValidationError.
func bindValid(c echo.Context, v *validator.Validate, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperror.Invalid("", "invalid body")
	}
	if err := v.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperror.Invalid(verrs[0].Field(), "failed '"+verrs[0].Tag()+"' rule")
		}
		return apperror.Invalid("", err.Error())
	}
	return nil
}

// NewValidator returns a validator that reports fields by their JSON
// name.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Invalid(name, "must be a positive integer")
	}
	return id, nil
}

// queryUint parses an optional unsigned query parameter.
func queryUint(c echo.Context, name string) (*uint64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, apperror.Invalid(name, "must be a non-negative integer")
	}
	return &v, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(c echo.Context, name string) (*int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperror.Invalid(name, "must be an integer")
	}
	return &v, nil
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, apperror.Invalid(name, "must be a date in YYYY-MM-DD form")
	}
	return &t, nil
}

// queryInstant parses an optional RFC3339 timestamp or YYYY-MM-DD date.
// A bare date used as an upper bound covers the whole day.
func queryInstant(c echo.Context, name string, upper bool) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, apperror.Invalid(name, "must be RFC3339 or YYYY-MM-DD")
	}
	if upper {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}
