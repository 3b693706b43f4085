package service

import (
	"context"
	"time"

	"fancontrol/internal/logger"
	"fancontrol/internal/models"
	"fancontrol/internal/repository"
)

// Monitoring exposes the latest post-cycle snapshot of the control loop.
type Monitoring interface {
	// Publish stores a fresh snapshot. Called by the loop's after-cycle
	// hook.
	Publish(st models.ControlStatus)
	// Status returns the most recently published snapshot.
	Status(ctx context.Context) (models.ControlStatus, error)
}

// EventLog exposes the control journal with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.ControlEvent, error)
}

// Recorder appends journal entries best-effort: errors are logged, never
// returned into the control path.
type Recorder interface {
	Record(ctx context.Context, e models.ControlEvent)
}

// LogFilter selects journal entries by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", TRANSITION, COMMAND or POLL_FAILURE
}

// Service aggregates the sub-services handed to the HTTP layer and the
// control loop.
type Service struct {
	Monitoring
	EventLog
	Recorder
}

func NewService(repos *repository.Repository, log *logger.Logger) *Service {
	return &Service{
		Monitoring: NewMonitoringService(),
		EventLog:   NewEventLogService(repos.Events),
		Recorder:   NewRecorderService(repos.Events, log),
	}
}
