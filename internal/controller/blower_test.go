package controller

import (
	"context"
	"testing"
	"time"

	"fancontrol/internal/logger"
	"fancontrol/internal/models"
)

// stubTstat is a hand-set post-poll snapshot.
type stubTstat struct {
	heat  bool
	trans bool
	since time.Duration
	mode  models.BlowerMode
}

func (s *stubTstat) HeatActive() bool                   { return s.heat }
func (s *stubTstat) Transitioned() bool                 { return s.trans }
func (s *stubTstat) TimeSinceTransition() time.Duration { return s.since }
func (s *stubTstat) BlowerMode() models.BlowerMode      { return s.mode }

// captureClient records writes and answers with a fixed status.
type captureClient struct {
	writes      []string
	writeStatus int
	writeErr    error
}

func (c *captureClient) Read(ctx context.Context) (int, []byte, error) {
	return 200, []byte(`{}`), nil
}

func (c *captureClient) Write(ctx context.Context, payload []byte) (int, []byte, error) {
	c.writes = append(c.writes, string(payload))
	status := c.writeStatus
	if status == 0 {
		status = 200
	}
	return status, nil, c.writeErr
}

func newTestBlower(client *captureClient) *BlowerController {
	return NewBlower(client, DefaultBlowerConfig(), nil, logger.Get(logger.ErrorLevel))
}

func TestBlower_QuiescentWhileHeatActive(t *testing.T) {
	client := &captureClient{}
	b := newTestBlower(client)

	b.Update(context.Background(), &stubTstat{heat: true, since: time.Hour, mode: models.BlowerAuto})

	if len(client.writes) != 0 {
		t.Fatalf("expected no commands, got %v", client.writes)
	}
	if b.Status().Overriding {
		t.Fatal("expected NORMAL state")
	}
}

func TestBlower_OverrideEntryLatchesAndForces(t *testing.T) {
	client := &captureClient{}
	b := newTestBlower(client)

	// Heat just turned off, thermostat still reports AUTO.
	b.Update(context.Background(), &stubTstat{heat: false, trans: true, since: 0, mode: models.BlowerAuto})

	st := b.Status()
	if !st.Overriding || st.LatchedMode == nil || *st.LatchedMode != models.BlowerAuto {
		t.Fatalf("expected AUTO latched, got %+v", st)
	}
	if len(client.writes) != 1 || client.writes[0] != `{"fmode": 2}` {
		t.Fatalf("expected one forced-on command, got %v", client.writes)
	}
}

func TestBlower_IdempotentWithinHoldWindow(t *testing.T) {
	client := &captureClient{}
	b := newTestBlower(client)
	ctx := context.Background()

	b.Update(ctx, &stubTstat{heat: false, trans: true, since: 0, mode: models.BlowerAuto})
	// Device now reports ON; still inside the hold window.
	b.Update(ctx, &stubTstat{heat: false, since: 15 * time.Second, mode: models.BlowerOn})
	b.Update(ctx, &stubTstat{heat: false, since: 30 * time.Second, mode: models.BlowerOn})

	if len(client.writes) != 1 {
		t.Fatalf("device already in forced mode must receive no redundant commands, got %v", client.writes)
	}
}

func TestBlower_LatchNeverOverwritten(t *testing.T) {
	client := &captureClient{}
	b := newTestBlower(client)
	ctx := context.Background()

	// First override entry captures AUTO.
	b.Update(ctx, &stubTstat{heat: false, trans: true, since: 0, mode: models.BlowerAuto})

	// Heat comes back on mid-hold: restore branch runs, latch survives.
	b.Update(ctx, &stubTstat{heat: true, trans: true, since: 0, mode: models.BlowerOn})
	if st := b.Status(); !st.Overriding {
		t.Fatal("latch must survive a nested heat cycle")
	}

	// Heat off again while the device reports CIRCULATE; the latch must
	// still hold the mode captured at first entry.
	b.Update(ctx, &stubTstat{heat: false, trans: true, since: 0, mode: models.BlowerCirculate})

	st := b.Status()
	if st.LatchedMode == nil || *st.LatchedMode != models.BlowerAuto {
		t.Fatalf("latch overwritten: got %+v, want AUTO from first entry", st)
	}
}

func TestBlower_RestoreRetriedUntilConfirmed(t *testing.T) {
	client := &captureClient{}
	b := newTestBlower(client)
	ctx := context.Background()

	b.Update(ctx, &stubTstat{heat: false, trans: true, since: 0, mode: models.BlowerAuto})
	client.writes = nil

	// Past the hold window, device still reports the forced mode: restore
	// is issued every cycle until the device confirms.
	past := &stubTstat{heat: false, since: 7 * time.Minute, mode: models.BlowerOn}
	b.Update(ctx, past)
	b.Update(ctx, past)

	if len(client.writes) != 2 {
		t.Fatalf("expected restore retried each cycle, got %v", client.writes)
	}
	for _, w := range client.writes {
		if w != `{"fmode": 0}` {
			t.Fatalf("expected restore to AUTO, got %q", w)
		}
	}

	// Device confirms AUTO: latch clears, no further commands.
	b.Update(ctx, &stubTstat{heat: false, since: 8 * time.Minute, mode: models.BlowerAuto})
	if b.Status().Overriding {
		t.Fatal("expected latch cleared after confirmation")
	}
	if len(client.writes) != 2 {
		t.Fatalf("expected no command on confirmation cycle, got %v", client.writes)
	}

	// Fully resolved: nothing more to do.
	b.Update(ctx, &stubTstat{heat: false, since: 9 * time.Minute, mode: models.BlowerAuto})
	if len(client.writes) != 2 {
		t.Fatalf("expected NORMAL state to be quiet, got %v", client.writes)
	}
}

func TestBlower_HoldCoversEntireWindow(t *testing.T) {
	client := &captureClient{}
	b := newTestBlower(client)
	ctx := context.Background()

	b.Update(ctx, &stubTstat{heat: false, trans: true, since: 0, mode: models.BlowerAuto})
	client.writes = nil

	// Device drifts back to AUTO inside the window (lost command or manual
	// change): the force must be reissued.
	b.Update(ctx, &stubTstat{heat: false, since: 3 * time.Minute, mode: models.BlowerAuto})
	if len(client.writes) != 1 || client.writes[0] != `{"fmode": 2}` {
		t.Fatalf("expected re-force inside hold window, got %v", client.writes)
	}
}

func TestBlower_FreshTransitionReentersHold(t *testing.T) {
	client := &captureClient{}
	b := newTestBlower(client)
	ctx := context.Background()

	// Heat turned off long ago, then off->on->off quickly: the new
	// transition forces re-entry even though since is reset to 0.
	b.Update(ctx, &stubTstat{heat: false, trans: true, since: 0, mode: models.BlowerAuto})
	b.Update(ctx, &stubTstat{heat: true, trans: true, since: 0, mode: models.BlowerOn})
	client.writes = nil

	b.Update(ctx, &stubTstat{heat: false, trans: true, since: 0, mode: models.BlowerAuto})
	if len(client.writes) != 1 || client.writes[0] != `{"fmode": 2}` {
		t.Fatalf("expected forced-on after fresh transition, got %v", client.writes)
	}
}

func TestBlower_UnknownModeNotLatched(t *testing.T) {
	client := &captureClient{}
	b := newTestBlower(client)

	b.Update(context.Background(), &stubTstat{heat: false, trans: true, since: 0, mode: models.BlowerUnknown})

	if st := b.Status(); st.LatchedMode != nil {
		t.Fatalf("unknown mode must not be latched, got %+v", st)
	}
}

func TestBlower_CommandEventsJournaled(t *testing.T) {
	client := &captureClient{}
	rec := &captureRecorder{}
	b := NewBlower(client, DefaultBlowerConfig(), rec, logger.Get(logger.ErrorLevel))

	b.Update(context.Background(), &stubTstat{heat: false, trans: true, since: 0, mode: models.BlowerAuto})

	if len(rec.events) != 1 {
		t.Fatalf("expected 1 journal event, got %d", len(rec.events))
	}
	e := rec.events[0]
	if e.Type != models.EventCommand || e.Source != sourceBlower {
		t.Fatalf("unexpected event: %+v", e)
	}
}

type captureRecorder struct {
	events []models.ControlEvent
}

func (r *captureRecorder) Record(ctx context.Context, e models.ControlEvent) {
	r.events = append(r.events, e)
}
