// Package engine drives the control cycle: poll the thermostat, then — only
// on a successful poll — run each actuator's Update exactly once, in order,
// from a single goroutine. Controllers therefore only ever observe a
// consistent post-poll snapshot and need no locking.
package engine

import (
	"context"
	"time"

	"fancontrol/internal/controller"
	"fancontrol/internal/logger"
)

// DefaultPollInterval is the design cadence between cycle starts.
const DefaultPollInterval = 15 * time.Second

// Monitor is what the loop polls and what it hands to the actuators.
type Monitor interface {
	Poll(ctx context.Context) bool
	controller.Thermostat
}

// Loop runs the fixed-cadence control cycle until its context is canceled.
type Loop struct {
	mon       Monitor
	actuators []controller.Actuator
	interval  time.Duration
	log       *logger.Logger

	// afterCycle, if set, is invoked at the end of every cycle with the
	// poll result, after all actuators ran. Used to publish status.
	afterCycle func(pollOK bool)

	now func() time.Time
}

// Option tweaks a Loop at construction.
type Option func(*Loop)

// WithAfterCycle registers a post-cycle hook.
func WithAfterCycle(fn func(pollOK bool)) Option {
	return func(l *Loop) { l.afterCycle = fn }
}

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) { l.now = now }
}

func New(mon Monitor, actuators []controller.Actuator, interval time.Duration, log *logger.Logger, opts ...Option) *Loop {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	l := &Loop{
		mon:       mon,
		actuators: actuators,
		interval:  interval,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run cycles forever until ctx is canceled. The cycle's own duration is
// subtracted from the interval so cadence is measured between cycle starts;
// an overrunning cycle starts the next one immediately.
func (l *Loop) Run(ctx context.Context) {
	for {
		start := l.now()

		ok := l.runCycle(ctx)
		if l.afterCycle != nil {
			l.afterCycle(ok)
		}

		wait := l.interval - l.now().Sub(start)
		if wait < 0 {
			wait = 0
		}
		if !sleep(ctx, wait) {
			l.log.Infow("control loop stopped")
			return
		}
	}
}

func (l *Loop) runCycle(ctx context.Context) bool {
	if !l.mon.Poll(ctx) {
		return false
	}
	for _, a := range l.actuators {
		a.Update(ctx, l.mon)
	}
	return true
}

// sleep waits for d or until ctx is done; it reports whether the caller
// should keep running.
func sleep(ctx context.Context, d time.Duration) bool {
	if d == 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
