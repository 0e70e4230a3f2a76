// Package retry runs operations with exponential backoff over a closed set of
// failure kinds.
package retry

import (
	"context"
	"errors"
	"time"

	"mockupstudio/internal/infra"
)

// Kind classifies a failure for retry purposes.
type Kind int

const (
	KindUnknown Kind = iota
	KindRateLimited
	KindServerOverloaded
	KindNetwork
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindServerOverloaded:
		return "server_overloaded"
	case KindNetwork:
		return "network"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Retryable reports whether failures of this kind are worth another attempt.
func (k Kind) Retryable() bool {
	return k == KindRateLimited || k == KindServerOverloaded || k == KindNetwork
}

// Classifier is implemented by errors that know their own kind.
type Classifier interface {
	Kind() Kind
}

// Classify returns the kind advertised by err or anything it wraps. Bare
// context errors are fatal so they end the loop at once.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var c Classifier
	if errors.As(err, &c) {
		return c.Kind()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindFatal
	}
	return KindUnknown
}

// KindError attaches a kind to an arbitrary error.
type KindError struct {
	K   Kind
	Err error
}

func (e *KindError) Error() string { return e.Err.Error() }
func (e *KindError) Unwrap() error { return e.Err }
func (e *KindError) Kind() Kind    { return e.K }

// WithKind wraps err so Classify reports k.
func WithKind(k Kind, err error) error {
	if err == nil {
		return nil
	}
	return &KindError{K: k, Err: err}
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = 12 * time.Second
	DefaultMaxDelay    = 60 * time.Second
)

// Policy configures Do. Zero fields take the defaults.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Logger      *infra.Logger
	Sleep       SleepFunc
}

// DefaultPolicy returns the standard policy with the given logger.
func DefaultPolicy(logger *infra.Logger) Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
		Logger:      logger,
	}
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	if p.Sleep == nil {
		p.Sleep = ContextSleep
	}
	return p
}

// Delay returns the wait before the retry that follows failed attempt i
// (0-based): min(BaseDelay*2^i, MaxDelay).
func (p Policy) Delay(i int) time.Duration {
	p = p.withDefaults()
	d := p.BaseDelay
	for n := 0; n < i; n++ {
		d *= 2
		if d >= p.MaxDelay || d <= 0 {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Do runs op until it succeeds, fails with a non-retryable kind, or the
// attempts are exhausted. The last error is returned unchanged.
func Do[T any](ctx context.Context, policy Policy, op func(ctx context.Context) (T, error)) (T, error) {
	p := policy.withDefaults()
	var zero T
	for attempt := 0; ; attempt++ {
		out, err := op(ctx)
		if err == nil {
			return out, nil
		}
		kind := Classify(err)
		if !kind.Retryable() || attempt+1 >= p.MaxAttempts {
			return zero, err
		}
		delay := p.Delay(attempt)
		if p.Logger != nil {
			p.Logger.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Int("max_attempts", p.MaxAttempts).
				Dur("delay", delay).
				Str("kind", kind.String()).
				Msg("retry: transient failure, backing off")
		}
		if serr := p.Sleep(ctx, delay); serr != nil {
			return zero, err
		}
	}
}

// ContextSleep blocks for d or until ctx is cancelled.
func ContextSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
