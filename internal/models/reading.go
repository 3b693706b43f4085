package models

import (
	"encoding/json"
	"fmt"
)

// BlowerMode is the furnace blower mode as reported and accepted by the
// thermostat's fmode field.
type BlowerMode int

// Wire values are fixed by the thermostat API; do not reorder.
const (
	BlowerAuto      BlowerMode = 0
	BlowerCirculate BlowerMode = 1
	BlowerOn        BlowerMode = 2

	// BlowerUnknown is reported before the first successful poll.
	BlowerUnknown BlowerMode = -1
)

func (m BlowerMode) Valid() bool {
	return m == BlowerAuto || m == BlowerCirculate || m == BlowerOn
}

func (m BlowerMode) String() string {
	switch m {
	case BlowerAuto:
		return "auto"
	case BlowerCirculate:
		return "circulate"
	case BlowerOn:
		return "on"
	default:
		return "unknown"
	}
}

// ParseBlowerMode converts a config string to a BlowerMode.
func ParseBlowerMode(s string) (BlowerMode, error) {
	switch s {
	case "auto":
		return BlowerAuto, nil
	case "circulate":
		return BlowerCirculate, nil
	case "on":
		return BlowerOn, nil
	default:
		return BlowerUnknown, fmt.Errorf("invalid blower mode: %q", s)
	}
}

// ThermostatReading is the slice of thermostat state the control loop cares
// about. It is replaced wholesale on every successful poll.
type ThermostatReading struct {
	Temperature       float64    `json:"temperature"`
	TargetTemperature float64    `json:"target_temperature"`
	HeatActive        bool       `json:"heat_active"`
	BlowerMode        BlowerMode `json:"blower_mode"`
}

// readingPayload mirrors the thermostat's JSON. Pointer fields so a missing
// required field is distinguishable from a zero value.
type readingPayload struct {
	Temp   *float64 `json:"temp"`
	THeat  *float64 `json:"t_heat"`
	TState *int     `json:"tstate"`
	FMode  *int     `json:"fmode"`
}

const heatActiveState = 1 // tstate: 0=idle, 1=heating, 2=cooling

// ParseReading decodes a thermostat status body. Missing or malformed
// required fields are an error; the caller treats that like a transport
// failure.
func ParseReading(body []byte) (ThermostatReading, error) {
	if len(body) == 0 {
		return ThermostatReading{}, fmt.Errorf("empty thermostat body")
	}
	var p readingPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return ThermostatReading{}, fmt.Errorf("parse thermostat body: %w", err)
	}
	if p.Temp == nil || p.THeat == nil || p.TState == nil || p.FMode == nil {
		return ThermostatReading{}, fmt.Errorf("thermostat body missing required fields: %s", body)
	}
	mode := BlowerMode(*p.FMode)
	if !mode.Valid() {
		return ThermostatReading{}, fmt.Errorf("thermostat reported invalid fmode %d", *p.FMode)
	}
	return ThermostatReading{
		Temperature:       *p.Temp,
		TargetTemperature: *p.THeat,
		HeatActive:        *p.TState == heatActiveState,
		BlowerMode:        mode,
	}, nil
}
