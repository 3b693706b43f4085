package handlers

import (
	"context"

	"fancontrol/internal/models"
	"fancontrol/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service mocks ----

type mockMonitoring struct {
	st  models.ControlStatus
	err error
}

func (m *mockMonitoring) Publish(st models.ControlStatus) { m.st = st }

func (m *mockMonitoring) Status(ctx context.Context) (models.ControlStatus, error) {
	return m.st, m.err
}

type mockEventLog struct {
	resp []models.ControlEvent
	err  error

	lastFilter service.LogFilter
	calls      int
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.ControlEvent, error) {
	m.calls++
	m.lastFilter = f
	return m.resp, m.err
}

type mockRecorder struct {
	events []models.ControlEvent
}

func (m *mockRecorder) Record(ctx context.Context, e models.ControlEvent) {
	m.events = append(m.events, e)
}

func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil)
	return h.InitRoutes()
}
