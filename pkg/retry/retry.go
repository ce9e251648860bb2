package retry

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

var (
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	ErrContextCanceled    = errors.New("context canceled during retry")
)

// Config controls exponential backoff
type Config struct {
	// MaxRetries is the number of retries after the first attempt
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	// JitterFactor spreads each wait by ±factor, clamped to [0, 1]
	JitterFactor float64
}

// DefaultConfig waits 1s, 2s, 4s, 8s, 16s with 10% jitter
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:      5,
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

// Operation is retried until it succeeds, returns a permanent error, or attempts run out
type Operation func(ctx context.Context) error

// PermanentError stops retrying immediately
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Result describes a finished retry loop
type Result struct {
	// Err is nil on success, the unwrapped permanent error, or one of the package errors
	Err           error
	Attempts      int
	TotalDuration time.Duration
	LastError     error
}

// Retrier runs operations with backoff
type Retrier struct {
	config Config
}

// New copies config, filling zero fields with defaults
func New(config *Config) *Retrier {
	cfg := DefaultConfig()
	if config != nil {
		cfg.MaxRetries = config.MaxRetries
		cfg.JitterFactor = min(max(config.JitterFactor, 0), 1)
		if config.InitialInterval > 0 {
			cfg.InitialInterval = config.InitialInterval
		}
		if config.MaxInterval > 0 {
			cfg.MaxInterval = config.MaxInterval
		}
		if config.Multiplier > 0 {
			cfg.Multiplier = config.Multiplier
		}
	}
	return &Retrier{config: *cfg}
}

// RetryCallback runs before each wait
type RetryCallback func(attempt int, err error, nextInterval time.Duration)

// Do runs op with retries
func (r *Retrier) Do(ctx context.Context, op Operation) *Result {
	return r.DoWithCallback(ctx, op, nil)
}

// DoWithCallback runs op with retries, calling callback before every wait
func (r *Retrier) DoWithCallback(ctx context.Context, op Operation, callback RetryCallback) *Result {
	start := time.Now()
	res := &Result{}

	finish := func(err error) *Result {
		res.Err = err
		res.TotalDuration = time.Since(start)
		return res
	}

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return finish(ErrContextCanceled)
		}

		res.Attempts = attempt + 1
		err := op(ctx)
		if err == nil {
			return finish(nil)
		}
		res.LastError = err

		var perm *PermanentError
		if errors.As(err, &perm) {
			res.LastError = perm.Err
			return finish(perm.Err)
		}

		if attempt >= r.config.MaxRetries {
			return finish(ErrMaxRetriesExceeded)
		}

		wait := r.interval(attempt)
		if callback != nil {
			callback(attempt+1, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return finish(ErrContextCanceled)
		case <-timer.C:
		}
	}
}

func (r *Retrier) interval(attempt int) time.Duration {
	d := float64(r.config.InitialInterval) * math.Pow(r.config.Multiplier, float64(attempt))

	if j := r.config.JitterFactor; j > 0 {
		d += (rand.Float64()*2 - 1) * d * j
	}
	if d > float64(r.config.MaxInterval) {
		d = float64(r.config.MaxInterval)
	}
	if d <= 0 {
		d = float64(r.config.InitialInterval)
	}
	return time.Duration(d)
}

// Backoff returns the wait before retry attempt (0-based), with jitter
func (r *Retrier) Backoff(attempt int) time.Duration {
	return r.interval(attempt)
}

// Do is shorthand for New(config).Do(ctx, op)
func Do(ctx context.Context, config *Config, op Operation) *Result {
	return New(config).Do(ctx, op)
}
