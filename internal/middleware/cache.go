package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-analytics/internal/config"
)

// teeWriter forwards the response to the client and keeps a copy of up
// to limit bytes (no limit when limit <= 0).
type teeWriter struct {
	http.ResponseWriter
	status    int
	buf       bytes.Buffer
	limit     int64
	truncated bool
}

func (w *teeWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *teeWriter) Write(b []byte) (int, error) {
	if !w.truncated {
		if w.limit > 0 && int64(w.buf.Len()+len(b)) > w.limit {
			w.truncated = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

// cachedResponse is the redis value of one cached report.
type cachedResponse struct {
	Status   int         `json:"status"`
	Header   http.Header `json:"header"`
	Body     []byte      `json:"body"`
	StoredAt time.Time   `json:"stored_at"`
}

// cacheKey hashes the method, path and sorted query, so ?a=1&b=2 and
// ?b=2&a=1 share an entry.  The route pattern stays readable in the key.
func cacheKey(prefix string, c echo.Context) string {
	r := c.Request()
	sum := sha1.Sum([]byte(r.Method + " " + r.URL.Path + "?" + r.URL.Query().Encode()))
	return prefix + ":" + c.Path() + ":" + hex.EncodeToString(sum[:])
}

// NewRedisCache serves repeated report requests from redis.  Dashboard
// figures are read-heavy and tolerate being TTL-stale.  Only 200
// responses whose body fits MaxBodyBytes are stored.  A request sent
// with "Cache-Control: no-cache" skips the lookup and refreshes the
// entry.  Hits carry X-Cache: HIT and an Age header.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if log == nil {
		log = zap.NewNop()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Caches(c.Request().Method) {
				return next(c)
			}
			key := cacheKey(cfg.Prefix, c)

			if !strings.Contains(strings.ToLower(c.Request().Header.Get("Cache-Control")), "no-cache") {
				hit, err := lookup(c.Request().Context(), rdb, key)
				if err != nil {
					log.Warn("cache: lookup failed", zap.String("key", key), zap.Error(err))
				}
				if hit != nil {
					return replay(c, hit)
				}
			}

			w := &teeWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(cfg.MaxBodyBytes)}
			c.Response().Writer = w
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if w.status != http.StatusOK || w.truncated {
				return nil
			}

			hdr := c.Response().Header().Clone()
			hdr.Del("X-Cache")
			hdr.Del(echo.HeaderContentLength)
			payload, err := json.Marshal(cachedResponse{Status: w.status, Header: hdr, Body: w.buf.Bytes(), StoredAt: time.Now().UTC()})
			if err != nil {
				return nil
			}
			// The client already has its answer; do not tie the write to
			// the request context.
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
				log.Warn("cache: store failed", zap.String("key", key), zap.Error(err))
			}
			return nil
		}
	}
}

// lookup returns the cached response under key, or nil on a miss.
func lookup(ctx context.Context, rdb *redis.Client, key string) (*cachedResponse, error) {
	bs, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cr cachedResponse
	if err := json.Unmarshal(bs, &cr); err != nil {
		return nil, err
	}
	return &cr, nil
}

func replay(c echo.Context, cr *cachedResponse) error {
	h := c.Response().Header()
	for k, vals := range cr.Header {
		for _, v := range vals {
			h.Add(k, v)
		}
	}
	h.Set("X-Cache", "HIT")
	h.Set("Age", strconv.Itoa(int(time.Since(cr.StoredAt).Seconds())))
	return c.Blob(cr.Status, h.Get(echo.HeaderContentType), cr.Body)
}
