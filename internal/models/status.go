package models

import "time"

// BlowerStatus describes the blower state machine for the inspection API.
// Overriding is true exactly while a pre-hold mode is latched.
type BlowerStatus struct {
	Overriding  bool        `json:"overriding"`
	LatchedMode *BlowerMode `json:"latched_mode,omitempty"`
}

// FanStatus describes one ceiling fan's debounce state.
type FanStatus struct {
	Name      string `json:"name"`
	Converged bool   `json:"converged"`
}

// ControlStatus is a consistent post-cycle snapshot of the whole loop,
// published after each cycle for the status API and WebSocket stream.
type ControlStatus struct {
	Reading                *ThermostatReading `json:"reading,omitempty"`
	LastPollOK             bool               `json:"last_poll_ok"`
	ConsecutiveFailures    uint64             `json:"consecutive_failures"`
	SecondsSinceTransition float64            `json:"seconds_since_transition"`
	Blower                 BlowerStatus       `json:"blower"`
	Fans                   []FanStatus        `json:"fans"`
	UpdatedAt              time.Time          `json:"updated_at"`
}
