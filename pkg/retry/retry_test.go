package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(maxRetries int) *Config {
	return &Config{
		MaxRetries:      maxRetries,
		InitialInterval: 5 * time.Millisecond,
		MaxInterval:     20 * time.Millisecond,
		Multiplier:      2.0,
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", config.MaxRetries)
	}
	if config.InitialInterval != time.Second {
		t.Errorf("InitialInterval = %v, want 1s", config.InitialInterval)
	}
	if config.MaxInterval != 30*time.Second {
		t.Errorf("MaxInterval = %v, want 30s", config.MaxInterval)
	}
}

func TestNew_FillsZeroValues(t *testing.T) {
	r := New(&Config{MaxRetries: 2, JitterFactor: 5})

	if r.config.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", r.config.MaxRetries)
	}
	if r.config.InitialInterval != time.Second {
		t.Errorf("InitialInterval = %v, want 1s", r.config.InitialInterval)
	}
	if r.config.Multiplier != 2.0 {
		t.Errorf("Multiplier = %f, want 2.0", r.config.Multiplier)
	}
	if r.config.JitterFactor != 1 {
		t.Errorf("JitterFactor = %f, want clamp to 1", r.config.JitterFactor)
	}
}

func TestNew_DoesNotMutateCaller(t *testing.T) {
	cfg := &Config{}
	New(cfg)
	if cfg.InitialInterval != 0 {
		t.Errorf("caller config was modified: %v", cfg.InitialInterval)
	}
}

func TestRetrier_Do(t *testing.T) {
	tempErr := errors.New("temporary")
	fatalErr := errors.New("fatal")

	tests := []struct {
		name         string
		maxRetries   int
		failures     int
		err          error
		wantErr      error
		wantAttempts int
	}{
		{"first try", 3, 0, nil, nil, 1},
		{"success after retries", 5, 2, tempErr, nil, 3},
		{"exhausted", 2, 10, tempErr, ErrMaxRetriesExceeded, 3},
		{"no retries", 0, 10, tempErr, ErrMaxRetriesExceeded, 1},
		{"permanent stops", 5, 10, Permanent(fatalErr), fatalErr, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			result := New(fastConfig(tt.maxRetries)).Do(context.Background(), func(ctx context.Context) error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})

			if !errors.Is(result.Err, tt.wantErr) && result.Err != tt.wantErr {
				t.Errorf("Err = %v, want %v", result.Err, tt.wantErr)
			}
			if result.Attempts != tt.wantAttempts {
				t.Errorf("Attempts = %d, want %d", result.Attempts, tt.wantAttempts)
			}
			if calls != tt.wantAttempts {
				t.Errorf("op called %d times, want %d", calls, tt.wantAttempts)
			}
		})
	}
}

func TestRetrier_Do_LastError(t *testing.T) {
	want := errors.New("boom")
	result := New(fastConfig(1)).Do(context.Background(), func(ctx context.Context) error {
		return want
	})

	if result.LastError != want {
		t.Errorf("LastError = %v, want %v", result.LastError, want)
	}
}

func TestRetrier_Do_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := fastConfig(10)
	cfg.InitialInterval = time.Second
	cfg.MaxInterval = time.Second

	calls := 0
	result := New(cfg).Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("fail")
	})

	if result.Err != ErrContextCanceled {
		t.Errorf("Err = %v, want ErrContextCanceled", result.Err)
	}
	if calls != 1 {
		t.Errorf("op called %d times, want 1", calls)
	}
}

func TestRetrier_DoWithCallback(t *testing.T) {
	var attempts []int
	New(fastConfig(3)).DoWithCallback(context.Background(), func(ctx context.Context) error {
		return errors.New("fail")
	}, func(attempt int, err error, next time.Duration) {
		attempts = append(attempts, attempt)
		if next <= 0 {
			t.Errorf("next interval = %v, want > 0", next)
		}
	})

	if len(attempts) != 3 || attempts[0] != 1 || attempts[2] != 3 {
		t.Errorf("callback attempts = %v, want [1 2 3]", attempts)
	}
}

func TestInterval_ExponentialAndCapped(t *testing.T) {
	r := New(&Config{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     time.Second,
		Multiplier:      2.0,
	})

	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
		time.Second,
	}
	for attempt, w := range want {
		if got := r.interval(attempt); got != w {
			t.Errorf("interval(%d) = %v, want %v", attempt, got, w)
		}
	}
}

func TestInterval_JitterBounds(t *testing.T) {
	r := New(&Config{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.5,
	})

	for i := 0; i < 100; i++ {
		got := r.interval(0)
		if got < 50*time.Millisecond || got > 150*time.Millisecond {
			t.Fatalf("interval(0) = %v, outside ±50%%", got)
		}
	}
}

func TestPermanent_Nil(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}

func TestRetrier_Backoff(t *testing.T) {
	r := New(fastConfig(0))
	want := []time.Duration{5 * time.Millisecond, 10 * time.Millisecond, 20 * time.Millisecond, 20 * time.Millisecond}
	for attempt, w := range want {
		if got := r.Backoff(attempt); got != w {
			t.Errorf("Backoff(%d) = %v, want %v", attempt, got, w)
		}
	}
}
