package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fancontrol/internal/service"
)

const (
	statusOK = "ok"

	errGetStatus = "failed to load status"
)

// logAndJSONError centralizes error logging and the error response shape.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error) {
	if h.log != nil && err != nil {
		h.log.Errorw(logKey, "err", err)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// getStatus returns the latest post-cycle control snapshot.
func (h *Handler) getStatus(c *gin.Context) {
	st, err := h.services.Monitoring.Status(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetStatus, "get_status_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// getEvents lists journal entries. Query params: from/to (RFC3339,
// inclusive) and type (TRANSITION | COMMAND | POLL_FAILURE).
func (h *Handler) getEvents(c *gin.Context) {
	var f service.LogFilter

	if s := c.Query("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from: " + err.Error()})
			return
		}
		f.From = t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to: " + err.Error()})
			return
		}
		f.To = t
	}
	f.Type = c.Query("type")

	events, err := h.services.EventLog.List(c.Request.Context(), f)
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, err.Error(), "list_events_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}
