// Package monitor polls the thermostat and exposes the derived facts the
// actuator controllers decide on: the current reading, whether the heating
// flag flipped on this poll, and how long ago it last flipped.
package monitor

import (
	"context"
	"net/http"
	"time"

	"fancontrol/internal/device"
	"fancontrol/internal/logger"
	"fancontrol/internal/models"
)

// Recorder receives journal entries for transitions and gated poll-failure
// diagnostics. Implementations must never block the control loop on error.
type Recorder interface {
	Record(ctx context.Context, e models.ControlEvent)
}

// failureLogEvery gates failure diagnostics so a sustained outage logs once
// per N consecutive failed polls instead of every cycle.
const failureLogEvery = 6

const sourceThermostat = "thermostat"

// Options tune a Monitor. The zero value is usable.
type Options struct {
	// Now is the clock; nil means time.Now. Injected in tests.
	Now func() time.Time
	// TransitionBackdate shifts the initial last-transition stamp into the
	// past, so consumers gating on "recently transitioned" start quiescent.
	// Set this to the blower hold window.
	TransitionBackdate time.Duration
}

// Monitor owns the thermostat poll state. It is mutated only by Poll and
// only ever from the single control goroutine; the query methods are
// read-only views for the controllers.
type Monitor struct {
	client device.Client
	rec    Recorder
	log    *logger.Logger
	now    func() time.Time

	prev           *models.ThermostatReading
	lastTransition time.Time
	transitioned   bool
	failures       uint64
}

func New(client device.Client, rec Recorder, log *logger.Logger, opts Options) *Monitor {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Monitor{
		client:         client,
		rec:            rec,
		log:            log,
		now:            now,
		lastTransition: now().Add(-opts.TransitionBackdate),
	}
}

// Poll fetches and parses a fresh reading. It returns false on any
// transport or parse failure, in which case only the failure counter
// advances (the previous reading and transition stamp are untouched) and
// the controllers must not run this cycle.
func (m *Monitor) Poll(ctx context.Context) bool {
	m.transitioned = false

	status, body, err := m.client.Read(ctx)
	if err != nil || status != http.StatusOK {
		m.pollFailed(ctx, "thermostat read failed", status, body, err)
		return false
	}

	reading, err := models.ParseReading(body)
	if err != nil {
		m.pollFailed(ctx, "thermostat parse failed", status, body, err)
		return false
	}

	m.failures = 0
	m.transitioned = m.prev != nil && reading.HeatActive != m.prev.HeatActive
	m.prev = &reading
	if m.transitioned {
		m.lastTransition = m.now()
		m.log.Infow("heat transition",
			"heat_active", reading.HeatActive,
			"blower_mode", reading.BlowerMode.String(),
		)
		m.record(ctx, models.ControlEvent{
			Type:        models.EventTransition,
			Source:      sourceThermostat,
			Description: "heating-active flag changed",
			Metadata: map[string]any{
				"heat_active": reading.HeatActive,
				"temperature": reading.Temperature,
			},
		})
	}
	return true
}

// pollFailed counts the failure and surfaces a diagnostic on every Nth
// consecutive one. Monitor state is otherwise untouched.
func (m *Monitor) pollFailed(ctx context.Context, msg string, status int, body []byte, err error) {
	m.failures++
	if m.failures%failureLogEvery != 0 {
		return
	}
	m.log.Errorw(msg,
		"consecutive_failures", m.failures,
		"status", status,
		"body", string(body),
		"err", err,
	)
	m.record(ctx, models.ControlEvent{
		Type:        models.EventPollFailure,
		Source:      sourceThermostat,
		Description: msg,
		Metadata: map[string]any{
			"consecutive_failures": m.failures,
			"status":               status,
		},
	})
}

func (m *Monitor) record(ctx context.Context, e models.ControlEvent) {
	if m.rec != nil {
		m.rec.Record(ctx, e)
	}
}

// HeatActive reports whether the last reading showed the heating element
// calling for heat. False until the first successful poll.
func (m *Monitor) HeatActive() bool {
	return m.prev != nil && m.prev.HeatActive
}

// Transitioned reports whether HeatActive flipped on the most recent poll.
func (m *Monitor) Transitioned() bool { return m.transitioned }

// BlowerMode returns the last reported blower mode, or BlowerUnknown before
// the first successful poll.
func (m *Monitor) BlowerMode() models.BlowerMode {
	if m.prev == nil {
		return models.BlowerUnknown
	}
	return m.prev.BlowerMode
}

// TimeSinceTransition returns the elapsed time since HeatActive last
// changed. At startup the stamp is backdated (see Options), so this starts
// at TransitionBackdate rather than zero.
func (m *Monitor) TimeSinceTransition() time.Duration {
	if m.lastTransition.IsZero() {
		return 0
	}
	return m.now().Sub(m.lastTransition)
}

// Reading returns a copy of the last reading, or nil before the first
// successful poll.
func (m *Monitor) Reading() *models.ThermostatReading {
	if m.prev == nil {
		return nil
	}
	r := *m.prev
	return &r
}

// ConsecutiveFailures returns the current failed-poll streak.
func (m *Monitor) ConsecutiveFailures() uint64 { return m.failures }

// Debug performs one raw read and logs the untouched result. Used by the
// -debug inspection path only.
func (m *Monitor) Debug(ctx context.Context) {
	status, body, err := m.client.Read(ctx)
	m.log.Infow("thermostat debug read", "status", status, "body", string(body), "err", err)
}
