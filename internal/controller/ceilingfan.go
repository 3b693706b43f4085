package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fancontrol/internal/device"
	"fancontrol/internal/logger"
	"fancontrol/internal/models"
)

// FanConfig tunes one ceiling fan controller instance.
type FanConfig struct {
	// OnDelay holds off the speed-up after heat turns on: there is no warm
	// air at the ceiling to push down until the exchanger heats up.
	OnDelay time.Duration
	// OffDelay keeps the higher speed for a while after heat turns off,
	// while the blower hold is still circulating warm air.
	OffDelay time.Duration
	// HeatOnSpeed and HeatOffSpeed are the two target speeds.
	HeatOnSpeed  int
	HeatOffSpeed int
}

func DefaultFanConfig() FanConfig {
	return FanConfig{
		OnDelay:      60 * time.Second,
		OffDelay:     180 * time.Second,
		HeatOnSpeed:  2,
		HeatOffSpeed: 1,
	}
}

// CeilingFanController adjusts one ceiling fan's speed to the current
// heating phase, debounced by the configured delays.
//
// Two states: ARMED (converged=false) and CONVERGED. A transition always
// re-arms without issuing a command; convergence requires the delay to
// elapse with no further transition, then one successful command. A failed
// command leaves the controller ARMED so it retries next cycle.
type CeilingFanController struct {
	name      string
	client    device.Client
	cfg       FanConfig
	rec       Recorder
	log       *logger.Logger
	converged bool
}

func NewCeilingFan(name string, client device.Client, cfg FanConfig, rec Recorder, log *logger.Logger) *CeilingFanController {
	return &CeilingFanController{name: name, client: client, cfg: cfg, rec: rec, log: log}
}

// Update runs one decision cycle against a post-poll snapshot.
func (f *CeilingFanController) Update(ctx context.Context, t Thermostat) {
	if t.Transitioned() {
		// Arm only; the delay runs from the transition, not from here.
		f.converged = false
		return
	}
	if f.converged {
		return
	}

	delay := f.cfg.OffDelay
	speed := f.cfg.HeatOffSpeed
	if t.HeatActive() {
		delay = f.cfg.OnDelay
		speed = f.cfg.HeatOnSpeed
	}
	if t.TimeSinceTransition() > delay {
		f.converged = f.SetSpeed(ctx, speed)
	}
}

// SetSpeed issues {"fanSpeed": n} and reports whether the device accepted
// it.
func (f *CeilingFanController) SetSpeed(ctx context.Context, speed int) bool {
	payload := fmt.Appendf(nil, `{"fanSpeed": %d}`, speed)

	start := time.Now()
	status, body, err := f.client.Write(ctx, payload)
	took := time.Since(start)

	ok := err == nil && status == http.StatusOK
	if ok {
		f.log.Infow("set fan speed", "fan", f.name, "speed", speed, "status", status, "took", took)
	} else {
		f.log.Errorw("set fan speed failed",
			"fan", f.name, "speed", speed, "status", status, "body", string(body), "err", err, "took", took)
	}
	if f.rec != nil {
		f.rec.Record(ctx, models.ControlEvent{
			Type:        models.EventCommand,
			Source:      f.name,
			Description: fmt.Sprintf("set fan speed to %d", speed),
			Metadata:    map[string]any{"speed": speed, "ok": ok, "took_ms": took.Milliseconds()},
		})
	}
	return ok
}

// Speed queries the fan's current speed through its shadow-data endpoint.
func (f *CeilingFanController) Speed(ctx context.Context) (int, error) {
	status, body, err := f.client.Write(ctx, []byte(`{"queryDynamicShadowData": 1}`))
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("fan %s speed query returned status %d", f.name, status)
	}
	var resp struct {
		FanSpeed *int `json:"fanSpeed"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("parse fan %s speed query: %w", f.name, err)
	}
	if resp.FanSpeed == nil {
		return 0, fmt.Errorf("fan %s speed query missing fanSpeed: %s", f.name, body)
	}
	return *resp.FanSpeed, nil
}

// Reboot asks the fan to restart. The device never answers a reboot; the
// request is expected to time out, so the result is discarded.
func (f *CeilingFanController) Reboot(ctx context.Context) {
	_, _, _ = f.client.Write(ctx, []byte(`{"reboot": 1}`))
}

// Status reports the debounce state for the inspection API.
func (f *CeilingFanController) Status() models.FanStatus {
	return models.FanStatus{Name: f.name, Converged: f.converged}
}

// Debug performs one raw shadow-data query and logs the result.
func (f *CeilingFanController) Debug(ctx context.Context) {
	status, body, err := f.client.Write(ctx, []byte(`{"queryDynamicShadowData": 1}`))
	f.log.Infow("fan debug query", "fan", f.name, "status", status, "body", string(body), "err", err)
}
