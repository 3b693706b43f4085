// Package controller holds the two actuator state machines: the furnace
// blower (NORMAL/OVERRIDE with a capture-once latch) and the ceiling fan
// (ARMED/CONVERGED debounce). Both consume the monitor's derived facts and
// issue commands over their own device clients, so one actuator's failure
// can never corrupt another's state.
package controller

import (
	"context"
	"time"

	"fancontrol/internal/models"
)

// Thermostat is the read-only view of the monitor that controllers decide
// on. It is always a consistent post-poll snapshot.
type Thermostat interface {
	HeatActive() bool
	Transitioned() bool
	TimeSinceTransition() time.Duration
	BlowerMode() models.BlowerMode
}

// Actuator is the closed contract the scheduler dispatches through. Exactly
// two implementations exist: BlowerController and CeilingFanController.
type Actuator interface {
	// Update runs one decision cycle. Called only after a successful poll.
	Update(ctx context.Context, t Thermostat)
	// Debug performs one raw read against the device and logs the result.
	Debug(ctx context.Context)
}

// Recorder receives journal entries for issued commands. Implementations
// must never block the control loop on error.
type Recorder interface {
	Record(ctx context.Context, e models.ControlEvent)
}
