package service

import (
	"context"
	"errors"
	"testing"

	"fancontrol/internal/logger"
	"fancontrol/internal/models"
)

func TestRecorder_AppendsEvent(t *testing.T) {
	repo := &fakeEventRepo{}
	s := NewRecorderService(repo, logger.Get(logger.ErrorLevel))

	s.Record(context.Background(), models.ControlEvent{
		Type:        models.EventTransition,
		Source:      "thermostat",
		Description: "heat on",
	})

	if len(repo.appended) != 1 || repo.appended[0].Type != models.EventTransition {
		t.Fatalf("unexpected appends: %+v", repo.appended)
	}
}

// Journal failures must never reach the control path.
func TestRecorder_SwallowsAppendErrors(t *testing.T) {
	repo := &fakeEventRepo{appendErr: errors.New("disk full")}
	s := NewRecorderService(repo, logger.Get(logger.ErrorLevel))

	s.Record(context.Background(), models.ControlEvent{Type: models.EventCommand, Source: "blower"})

	if len(repo.appended) != 1 {
		t.Fatalf("expected the append attempt, got %d", len(repo.appended))
	}
}

func TestMonitoring_PublishAndStatus(t *testing.T) {
	s := NewMonitoringService()

	st, err := s.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.LastPollOK || st.Reading != nil {
		t.Fatalf("expected zero snapshot before first publish, got %+v", st)
	}

	s.Publish(models.ControlStatus{LastPollOK: true, ConsecutiveFailures: 0})
	s.Publish(models.ControlStatus{LastPollOK: false, ConsecutiveFailures: 3})

	st, _ = s.Status(context.Background())
	if st.LastPollOK || st.ConsecutiveFailures != 3 {
		t.Fatalf("expected the latest snapshot, got %+v", st)
	}
}
