package controller

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"fancontrol/internal/device"
	"fancontrol/internal/logger"
	"fancontrol/internal/models"
)

const sourceBlower = "blower"

// BlowerConfig tunes one blower controller instance.
type BlowerConfig struct {
	// HoldWindow is how long the blower keeps running after heat turns off.
	HoldWindow time.Duration
	// ForcedMode is the mode meaning "blower running", issued during the
	// hold window.
	ForcedMode models.BlowerMode
}

// DefaultBlowerConfig matches the furnace this was tuned on: the control
// board caps its own post-heat blower time at 2 minutes, but there is
// useful heat in the exchanger for about 6.
func DefaultBlowerConfig() BlowerConfig {
	return BlowerConfig{
		HoldWindow: 6 * time.Minute,
		ForcedMode: models.BlowerOn,
	}
}

// BlowerController forces the furnace blower on for a hold window after
// heat turns off, then restores whatever mode the thermostat had before.
//
// Two states: NORMAL (no latch) and OVERRIDE (latch present). The latch is
// captured once at override entry and never overwritten, so the original
// pre-heat mode survives nested overrides; it clears only after the device
// confirms it is back in the latched mode.
type BlowerController struct {
	client  device.Client
	cfg     BlowerConfig
	rec     Recorder
	log     *logger.Logger
	latched *models.BlowerMode
}

func NewBlower(client device.Client, cfg BlowerConfig, rec Recorder, log *logger.Logger) *BlowerController {
	return &BlowerController{client: client, cfg: cfg, rec: rec, log: log}
}

// Update runs one decision cycle against a post-poll snapshot.
func (b *BlowerController) Update(ctx context.Context, t Thermostat) {
	current := t.BlowerMode()

	holding := !t.HeatActive() &&
		(t.Transitioned() || t.TimeSinceTransition() < b.cfg.HoldWindow)

	if holding {
		if b.latched == nil && current != models.BlowerUnknown {
			mode := current
			b.latched = &mode
			b.log.Infow("latched blower mode", "mode", mode.String())
		}
		if current != b.cfg.ForcedMode {
			b.setMode(ctx, b.cfg.ForcedMode)
		}
		return
	}

	if b.latched == nil {
		return
	}
	if *b.latched == current {
		// Device confirmed the restore; the override cycle is resolved.
		b.log.Infow("blower override resolved", "mode", current.String())
		b.latched = nil
		return
	}
	// Restore retried every cycle until confirmed, covering command loss
	// and device drift.
	b.setMode(ctx, *b.latched)
}

// setMode issues {"fmode": n} to the thermostat. Failures are logged and
// journaled only; the state machine retries naturally next cycle.
func (b *BlowerController) setMode(ctx context.Context, mode models.BlowerMode) bool {
	payload := fmt.Appendf(nil, `{"fmode": %d}`, int(mode))

	start := time.Now()
	status, body, err := b.client.Write(ctx, payload)
	took := time.Since(start)

	ok := err == nil && status == http.StatusOK
	if ok {
		b.log.Infow("set blower mode", "mode", mode.String(), "status", status, "took", took)
	} else {
		b.log.Errorw("set blower mode failed",
			"mode", mode.String(), "status", status, "body", string(body), "err", err, "took", took)
	}
	if b.rec != nil {
		b.rec.Record(ctx, models.ControlEvent{
			Type:        models.EventCommand,
			Source:      sourceBlower,
			Description: "set blower mode to " + mode.String(),
			Metadata:    map[string]any{"fmode": int(mode), "ok": ok, "took_ms": took.Milliseconds()},
		})
	}
	return ok
}

// Status reports the state machine for the inspection API.
func (b *BlowerController) Status() models.BlowerStatus {
	st := models.BlowerStatus{Overriding: b.latched != nil}
	if b.latched != nil {
		mode := *b.latched
		st.LatchedMode = &mode
	}
	return st
}

// Debug performs one raw read of the thermostat endpoint the blower
// commands go to.
func (b *BlowerController) Debug(ctx context.Context) {
	status, body, err := b.client.Read(ctx)
	b.log.Infow("blower debug read", "status", status, "body", string(body), "err", err)
}
