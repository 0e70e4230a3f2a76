// Package ratelimit shapes outbound request throughput.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces sequential calls. Done marks the end of a call; Wait blocks
// until the next one may start.
type Pacer interface {
	Wait(ctx context.Context) error
	Done()
}

type intervalPacer struct {
	interval time.Duration

	mu      sync.Mutex
	limiter *rate.Limiter
}

// NewIntervalPacer keeps at least interval of idle time between the end of
// one call and the start of the next. A non-positive interval disables
// pacing.
func NewIntervalPacer(interval time.Duration) Pacer {
	if interval <= 0 {
		return Unlimited()
	}
	return &intervalPacer{interval: interval, limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

func (p *intervalPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	lim := p.limiter
	p.mu.Unlock()
	return lim.Wait(ctx)
}

// Done restarts the interval from now, whatever the call took.
func (p *intervalPacer) Done() {
	lim := rate.NewLimiter(rate.Every(p.interval), 1)
	lim.Allow()
	p.mu.Lock()
	p.limiter = lim
	p.mu.Unlock()
}

type unlimited struct{}

// Unlimited returns a pacer that only checks for cancellation.
func Unlimited() Pacer { return unlimited{} }

func (unlimited) Wait(ctx context.Context) error {
	return ctx.Err()
}

func (unlimited) Done() {}

// Func adapts a function to Pacer. Done is a no-op.
type Func func(ctx context.Context) error

func (f Func) Wait(ctx context.Context) error { return f(ctx) }

func (Func) Done() {}
