// internal/sink/paced.go
package sink

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/mimic/api/schemas"
	"github.com/xkilldash9x/mimic/internal/humanoid"
)

// PacedOptions control real-time playback.
type PacedOptions struct {
	// Speed divides every declared wait. 1.0 is real time; 0 means 1.0.
	Speed float64
	// EventsPerSecond caps emitted pointer and key events. 0 disables the cap.
	EventsPerSecond float64
	// Burst is the limiter bucket size. Defaults to 1.
	Burst int
}

// Paced decorates a sink so declared waits take real wall-clock time, and
// optionally rate limits emission so a slow backend is not flooded. Waits
// are forwarded to the inner sink after they elapse, which keeps a wrapped
// Recorder's virtual clock in step.
type Paced struct {
	inner   humanoid.ActionSink
	speed   float64
	limiter *rate.Limiter
	logger  *zap.Logger
}

var _ humanoid.ActionSink = (*Paced)(nil)

// NewPaced wraps inner.
func NewPaced(inner humanoid.ActionSink, opts PacedOptions, logger *zap.Logger) (*Paced, error) {
	if opts.Speed < 0 {
		return nil, fmt.Errorf("pacing speed must not be negative, got %v", opts.Speed)
	}
	if opts.EventsPerSecond < 0 {
		return nil, fmt.Errorf("events per second must not be negative, got %v", opts.EventsPerSecond)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Paced{inner: inner, speed: opts.Speed, logger: logger.Named("paced")}
	if p.speed == 0 {
		p.speed = 1
	}
	if opts.EventsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(opts.EventsPerSecond), burst)
	}
	return p, nil
}

func (p *Paced) EmitPointer(ctx context.Context, data schemas.MouseEventData) error {
	if err := p.admit(ctx); err != nil {
		return err
	}
	return p.inner.EmitPointer(ctx, data)
}

func (p *Paced) EmitKey(ctx context.Context, action humanoid.KeyAction) error {
	if err := p.admit(ctx); err != nil {
		return err
	}
	return p.inner.EmitKey(ctx, action)
}

// Wait blocks for d scaled by the playback speed, returning early with the
// context's error if it is cancelled.
func (p *Paced) Wait(ctx context.Context, d time.Duration) error {
	if err := sleep(ctx, time.Duration(float64(d)/p.speed)); err != nil {
		return err
	}
	return p.inner.Wait(ctx, d)
}

func (p *Paced) ScreenBounds(ctx context.Context) (humanoid.Bounds, error) {
	return p.inner.ScreenBounds(ctx)
}

func (p *Paced) PointerPosition(ctx context.Context) (humanoid.Vector2D, error) {
	return p.inner.PointerPosition(ctx)
}

func (p *Paced) admit(ctx context.Context) error {
	if p.limiter == nil {
		return ctx.Err()
	}
	if !p.limiter.Allow() {
		p.logger.Debug("Emission throttled by rate limiter.")
		return p.limiter.Wait(ctx)
	}
	return nil
}

// sleep waits for d unless ctx finishes first.
func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
