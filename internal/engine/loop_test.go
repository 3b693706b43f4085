package engine

import (
	"context"
	"testing"
	"time"

	"fancontrol/internal/controller"
	"fancontrol/internal/logger"
	"fancontrol/internal/models"
)

// fakeMon scripts poll results; the Thermostat view is static.
type fakeMon struct {
	results []bool
	polls   int
	onPoll  func(n int)
}

func (m *fakeMon) Poll(ctx context.Context) bool {
	i := m.polls
	m.polls++
	if m.onPoll != nil {
		m.onPoll(m.polls)
	}
	if i >= len(m.results) {
		i = len(m.results) - 1
	}
	return m.results[i]
}

func (m *fakeMon) HeatActive() bool                   { return false }
func (m *fakeMon) Transitioned() bool                 { return false }
func (m *fakeMon) TimeSinceTransition() time.Duration { return 0 }
func (m *fakeMon) BlowerMode() models.BlowerMode      { return models.BlowerUnknown }

type fakeActuator struct {
	name    string
	calls   int
	callLog *[]string
}

func (a *fakeActuator) Update(ctx context.Context, t controller.Thermostat) {
	a.calls++
	if a.callLog != nil {
		*a.callLog = append(*a.callLog, a.name)
	}
}

func (a *fakeActuator) Debug(ctx context.Context) {}

func TestLoop_ActuatorsSkippedOnFailedPoll(t *testing.T) {
	mon := &fakeMon{results: []bool{false, true, false}}
	act := &fakeActuator{}
	l := New(mon, []controller.Actuator{act}, time.Second, logger.Get(logger.ErrorLevel))

	ctx := context.Background()
	if l.runCycle(ctx) {
		t.Fatal("expected failed cycle")
	}
	if !l.runCycle(ctx) {
		t.Fatal("expected successful cycle")
	}
	if l.runCycle(ctx) {
		t.Fatal("expected failed cycle")
	}

	if act.calls != 1 {
		t.Fatalf("actuator ran %d times, want 1 (successful polls only)", act.calls)
	}
}

func TestLoop_ActuatorsRunInOrder(t *testing.T) {
	var callLog []string
	mon := &fakeMon{results: []bool{true}}
	acts := []controller.Actuator{
		&fakeActuator{name: "fan-1", callLog: &callLog},
		&fakeActuator{name: "fan-2", callLog: &callLog},
		&fakeActuator{name: "blower", callLog: &callLog},
	}
	l := New(mon, acts, time.Second, logger.Get(logger.ErrorLevel))

	l.runCycle(context.Background())

	want := []string{"fan-1", "fan-2", "blower"}
	if len(callLog) != len(want) {
		t.Fatalf("callLog = %v, want %v", callLog, want)
	}
	for i := range want {
		if callLog[i] != want[i] {
			t.Fatalf("callLog = %v, want %v", callLog, want)
		}
	}
}

func TestLoop_RunStopsOnCancelAndReportsCycles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	mon := &fakeMon{results: []bool{true, false, true}}
	mon.onPoll = func(n int) {
		if n == 3 {
			cancel()
		}
	}
	act := &fakeActuator{}

	var hookResults []bool
	l := New(mon, []controller.Actuator{act}, time.Millisecond, logger.Get(logger.ErrorLevel),
		WithAfterCycle(func(ok bool) { hookResults = append(hookResults, ok) }),
	)

	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}

	if mon.polls < 3 {
		t.Fatalf("polls = %d, want >= 3", mon.polls)
	}
	if len(hookResults) < 3 {
		t.Fatalf("after-cycle hook ran %d times, want >= 3", len(hookResults))
	}
	if !hookResults[0] || hookResults[1] || !hookResults[2] {
		t.Fatalf("hook results = %v, want [true false true ...]", hookResults[:3])
	}
	// Two successful polls out of the first three.
	if act.calls < 2 {
		t.Fatalf("actuator calls = %d, want >= 2", act.calls)
	}
}

func TestLoop_DefaultInterval(t *testing.T) {
	l := New(&fakeMon{results: []bool{true}}, nil, 0, logger.Get(logger.ErrorLevel))
	if l.interval != DefaultPollInterval {
		t.Fatalf("interval = %v, want %v", l.interval, DefaultPollInterval)
	}
}
