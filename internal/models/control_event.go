package models

import "time"

// Event types recorded in the control journal.
const (
	EventTransition  = "TRANSITION"
	EventCommand     = "COMMAND"
	EventPollFailure = "POLL_FAILURE"
)

// ControlEvent is a single journal entry: a heat transition, an actuator
// command, or a gated poll-failure diagnostic.
type ControlEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`   // TRANSITION | COMMAND | POLL_FAILURE
	Source      string    `json:"source"` // thermostat | blower | fan-N
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
