package config

import "time"

// RateLimitConfig configures the redis token bucket applied to
// authenticated routes.
//
// Reads cost one token.  Vote mutations cost WriteCost tokens because
// each one triggers a rating recompute.
type RateLimitConfig struct {
	Enabled        bool          `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	Capacity       int           `envconfig:"RATE_LIMIT_CAPACITY" default:"60"`
	RefillTokens   int           `envconfig:"RATE_LIMIT_REFILL_TOKENS" default:"1"`
	RefillInterval time.Duration `envconfig:"RATE_LIMIT_REFILL_INTERVAL" default:"1s"`
	TTL            time.Duration `envconfig:"RATE_LIMIT_TTL" default:"10m"`
	WriteCost      int           `envconfig:"RATE_LIMIT_WRITE_COST" default:"3"`
	KeyStrategy    string        `envconfig:"RATE_LIMIT_KEY_STRATEGY" default:"user"` // user, ip or user_route
	Prefix         string        `envconfig:"RATE_LIMIT_PREFIX" default:"rl"`

	// Shorthands: BURST overrides Capacity, REFILL_EVERY means one token
	// per interval.
	Burst       int           `envconfig:"RATE_LIMIT_BURST"`
	RefillEvery time.Duration `envconfig:"RATE_LIMIT_REFILL_EVERY"`
}

// normalized applies the shorthands and clamps values the limiter
// script cannot work with.
func (def RateLimitConfig) normalized() RateLimitConfig {
	if def.Burst > 0 {
		def.Capacity = def.Burst
	}
	if def.RefillEvery > 0 {
		def.RefillTokens = 1
		def.RefillInterval = def.RefillEvery
	}
	if def.Capacity < 1 {
		def.Capacity = 1
	}
	if def.RefillTokens < 1 {
		def.RefillTokens = 1
	}
	if def.RefillInterval <= 0 {
		def.RefillInterval = time.Second
	}
	if def.WriteCost < 1 {
		def.WriteCost = 1
	}
	if def.WriteCost > def.Capacity {
		def.WriteCost = def.Capacity
	}
	if minTTL := 5 * def.RefillInterval; def.TTL < minTTL {
		def.TTL = minTTL
	}
	return def
}
