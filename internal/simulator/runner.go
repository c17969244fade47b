package simulator

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"time"

	"fleet-monitor/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Sender delivers a single reading.
type Sender interface {
	Send(ctx context.Context, payload *models.TelemetryPayload) error
}

// Options configure a simulation run.
type Options struct {
	Vehicles int
	Interval time.Duration
	// Duration of zero runs until the context is cancelled.
	Duration time.Duration
	// RequestsPerSecond caps the combined send rate; zero disables the cap.
	RequestsPerSecond float64
	Seed              int64
}

// Stats summarise a finished run.
type Stats struct {
	Sent   int64
	Failed int64
}

// Runner drives one goroutine per vehicle.
type Runner struct {
	sender Sender
	opts   Options
	logger *zap.Logger
	now    func() time.Time

	sent   atomic.Int64
	failed atomic.Int64
}

func NewRunner(sender Sender, opts Options, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{sender: sender, opts: opts, logger: logger, now: time.Now}
}

// Run simulates the fleet until the duration elapses or ctx is cancelled.
// Send failures are logged and counted; they never stop the run.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	if r.opts.Vehicles <= 0 {
		return Stats{}, errors.New("vehicles must be positive")
	}
	if r.opts.Interval <= 0 {
		return Stats{}, errors.New("interval must be positive")
	}

	if r.opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Duration)
		defer cancel()
	}

	var limiter *rate.Limiter
	if r.opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.opts.RequestsPerSecond), r.opts.Vehicles)
	}

	fleet := NewFleet(r.opts.Vehicles, rand.New(rand.NewSource(r.opts.Seed)))
	r.logger.Info("Starting simulation",
		zap.Int("vehicles", len(fleet)),
		zap.Duration("interval", r.opts.Interval),
		zap.Duration("duration", r.opts.Duration))

	g, gctx := errgroup.WithContext(ctx)
	for _, v := range fleet {
		g.Go(func() error {
			r.drive(gctx, v, limiter)
			return nil
		})
	}
	_ = g.Wait()

	stats := Stats{Sent: r.sent.Load(), Failed: r.failed.Load()}
	r.logger.Info("Simulation finished", zap.Int64("sent", stats.Sent), zap.Int64("failed", stats.Failed))
	return stats, nil
}

func (r *Runner) drive(ctx context.Context, v *Vehicle, limiter *rate.Limiter) {
	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	for {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}

		payload := v.Step(r.now())
		if err := r.sender.Send(ctx, payload); err != nil {
			if ctx.Err() != nil {
				return
			}
			r.failed.Add(1)
			r.logger.Warn("Failed to send telemetry", zap.String("vehicle_id", v.ID), zap.Error(err))
		} else {
			r.sent.Add(1)
			r.logger.Debug("Sent telemetry",
				zap.String("vehicle_id", v.ID),
				zap.Float64("speed", v.Speed),
				zap.Float64("engine_temperature", v.EngineTemp),
				zap.String("engine_status", v.EngineState))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
