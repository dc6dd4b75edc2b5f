package handlers

import (
	"net/http"

	"github.com/ezhulati/liftout-platform-sub011/internal/logger"
	"github.com/ezhulati/liftout-platform-sub011/internal/services"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	inbox *services.NotificationService
	log   *logger.Logger
}

func NewNotificationHandler(inbox *services.NotificationService, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{inbox: inbox, log: log}
}

// GetNotifications lists the caller's notifications. ?unread=true filters to
// unread ones.
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	list, err := h.inbox.List(c.Request.Context(), actor.UserID, c.Query("unread") == "true")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	n, err := h.inbox.MarkRead(c.Request.Context(), actor.UserID, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notification": n})
}
