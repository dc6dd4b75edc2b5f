package handlers

import (
	"net/http"

	"github.com/ezhulati/liftout-platform-sub011/internal/logger"
	"github.com/ezhulati/liftout-platform-sub011/internal/services"
	"github.com/gin-gonic/gin"
)

type EOIHandler struct {
	eois *services.EOIService
	log  *logger.Logger
}

func NewEOIHandler(eois *services.EOIService, log *logger.Logger) *EOIHandler {
	return &EOIHandler{eois: eois, log: log}
}

func (h *EOIHandler) CreateEOI(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req services.CreateEOIInput
	if !bindJSON(c, &req) {
		return
	}

	eoi, err := h.eois.CreateEOI(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Expression of interest sent",
		"eoi":     eoi,
	})
}

// ListEOIs returns the caller's received (default) or sent expressions
func (h *EOIHandler) ListEOIs(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	box := services.EOIBox(c.DefaultQuery("box", string(services.EOIBoxReceived)))
	eois, err := h.eois.ListEOIs(c.Request.Context(), actor, box)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"eois": eois})
}

func (h *EOIHandler) GetEOI(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	eoi, err := h.eois.GetEOI(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"eoi": eoi})
}

// RespondToEOIRequest carries the recipient's decision
type RespondToEOIRequest struct {
	Status services.EOIDecision `json:"status" binding:"required"`
}

func (h *EOIHandler) RespondToEOI(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req RespondToEOIRequest
	if !bindJSON(c, &req) {
		return
	}

	eoi, err := h.eois.RespondToEOI(c.Request.Context(), actor, id, req.Status)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Response recorded",
		"eoi":          eoi,
		"conversation": eoi.ConversationID,
	})
}

// RetryConversation re-attempts opening the conversation for an accepted EOI
func (h *EOIHandler) RetryConversation(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	eoi, err := h.eois.RetryConversation(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"eoi":          eoi,
		"conversation": eoi.ConversationID,
	})
}
