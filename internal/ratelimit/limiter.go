// Package ratelimit implements fixed-window request counters keyed by client
// IP and quota bucket.
//
// A fixed window admits bursts at window boundaries: a client can spend its
// whole quota at the end of one window and again at the start of the next,
// i.e. up to twice the ceiling across a boundary straddle.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Bucket selects an independent quota class.
type Bucket string

// Quota classes.
const (
	BucketPublic        Bucket = "public"
	BucketAuthenticated Bucket = "authenticated"
	BucketLogin         Bucket = "login"
)

// Defaults for the portal quotas.
const (
	DefaultWindow           = time.Minute
	DefaultPublicMax        = 60
	DefaultAuthenticatedMax = 200
	DefaultLoginMax         = 5
)

// ErrUnknownBucket is returned for buckets without a configured ceiling.
var ErrUnknownBucket = errors.New("ratelimit: unknown bucket")

// Config sets the window length and per-bucket ceilings.
type Config struct {
	Window           time.Duration
	PublicMax        int
	AuthenticatedMax int
	LoginMax         int
}

// DefaultConfig returns the portal's compiled-in quotas.
func DefaultConfig() Config {
	return Config{
		Window:           DefaultWindow,
		PublicMax:        DefaultPublicMax,
		AuthenticatedMax: DefaultAuthenticatedMax,
		LoginMax:         DefaultLoginMax,
	}
}

// Validate checks that every ceiling and the window are positive.
func (c Config) Validate() error {
	if c.Window <= 0 {
		return fmt.Errorf("ratelimit: window must be positive, got %v", c.Window)
	}
	if c.PublicMax <= 0 || c.AuthenticatedMax <= 0 || c.LoginMax <= 0 {
		return fmt.Errorf("ratelimit: bucket ceilings must be positive (public=%d authenticated=%d login=%d)",
			c.PublicMax, c.AuthenticatedMax, c.LoginMax)
	}
	return nil
}

// Max returns the ceiling configured for bucket.
func (c Config) Max(bucket Bucket) (int, error) {
	switch bucket {
	case BucketPublic:
		return c.PublicMax, nil
	case BucketAuthenticated:
		return c.AuthenticatedMax, nil
	case BucketLogin:
		return c.LoginMax, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBucket, bucket)
}

// Result is the verdict of a single check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long a rejected client should wait, rounded up to a second.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed {
		return 0
	}
	wait := r.ResetAt.Sub(now)
	if wait <= 0 {
		return time.Second
	}
	if wait%time.Second == 0 {
		return wait
	}
	return wait.Truncate(time.Second) + time.Second
}

// Store counts hits for a key within a fixed window.
type Store interface {
	Hit(ctx context.Context, key string, max int, window time.Duration) (Result, error)
}

// Limiter checks client IPs against bucket quotas.
type Limiter struct {
	store Store
	cfg   Config
}

// New returns a Limiter over store.
func New(store Store, cfg Config) (*Limiter, error) {
	if store == nil {
		return nil, errors.New("ratelimit: store required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Limiter{store: store, cfg: cfg}, nil
}

// Config returns the limiter configuration.
func (l *Limiter) Config() Config {
	return l.cfg
}

// Check consumes one request from the (bucket, ip) counter.
func (l *Limiter) Check(ctx context.Context, ip string, bucket Bucket) (Result, error) {
	max, err := l.cfg.Max(bucket)
	if err != nil {
		return Result{}, err
	}
	res, err := l.store.Hit(ctx, Key(bucket, ip), max, l.cfg.Window)
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: check %s: %w", bucket, err)
	}
	return res, nil
}

// Key builds the counter key for a bucket and client IP.
func Key(bucket Bucket, ip string) string {
	return string(bucket) + ":" + ip
}
