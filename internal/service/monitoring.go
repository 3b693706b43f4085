package service

import (
	"context"
	"sync"

	"fancontrol/internal/models"
)

// MonitoringService holds the latest ControlStatus. This is the only piece
// of control-loop state shared with other goroutines (the HTTP handlers),
// so it is the only one behind a lock; the loop itself stays sequential.
type MonitoringService struct {
	mu sync.RWMutex
	st models.ControlStatus
}

func NewMonitoringService() *MonitoringService {
	return &MonitoringService{}
}

func (s *MonitoringService) Publish(st models.ControlStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = st
}

func (s *MonitoringService) Status(ctx context.Context) (models.ControlStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st, nil
}
