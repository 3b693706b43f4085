package service

import (
	"context"

	"fancontrol/internal/logger"
	"fancontrol/internal/models"
	"fancontrol/internal/repository"
)

// RecorderService journals control events from the monitor and the
// controllers. Append failures must never disturb the control loop, so they
// are logged and swallowed here.
type RecorderService struct {
	events repository.EventRepo
	log    *logger.Logger
}

func NewRecorderService(events repository.EventRepo, log *logger.Logger) *RecorderService {
	return &RecorderService{events: events, log: log}
}

func (s *RecorderService) Record(ctx context.Context, e models.ControlEvent) {
	if err := s.events.Append(ctx, e); err != nil {
		s.log.Errorw("journal append failed", "type", e.Type, "source", e.Source, "err", err)
	}
}
