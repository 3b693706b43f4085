package handlers

import (
	"github.com/gin-gonic/gin"

	"fancontrol/internal/logger"
	"fancontrol/internal/service"
)

// Handler wires the read-only inspection API to services and logging. This
// surface observes the control loop; it never commands it.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", h.health)

	api := router.Group("/api/v1")
	{
		api.GET("/status", h.getStatus)
		api.GET("/events", h.getEvents)
	}

	// Live status stream over WebSocket, same port.
	router.GET("/ws", h.wsConnect)

	return router
}
