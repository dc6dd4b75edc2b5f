package handlers

import (
	"context"
	"net/http"

	"github.com/ezhulati/liftout-platform-sub011/internal/logger"
	"github.com/ezhulati/liftout-platform-sub011/internal/models"
	"github.com/ezhulati/liftout-platform-sub011/internal/services"
	"github.com/gin-gonic/gin"
)

type OpportunityHandler struct {
	opps *services.OpportunityService
	apps *services.ApplicationService
	log  *logger.Logger
}

func NewOpportunityHandler(opps *services.OpportunityService, apps *services.ApplicationService, log *logger.Logger) *OpportunityHandler {
	return &OpportunityHandler{opps: opps, apps: apps, log: log}
}

// CreateOpportunity posts a new opportunity (company users only)
func (h *OpportunityHandler) CreateOpportunity(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req services.OpportunityInput
	if !bindJSON(c, &req) {
		return
	}

	opp, err := h.opps.CreateOpportunity(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Opportunity posted",
		"opportunity": opp,
	})
}

// ListOpportunities returns open opportunities, masking confidential ones
// the caller has not engaged with.
func (h *OpportunityHandler) ListOpportunities(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	opps, err := h.opps.ListOpportunities(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	out := make([]any, 0, len(opps))
	for i := range opps {
		view, err := h.present(c.Request.Context(), actor, &opps[i])
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		out = append(out, view)
	}

	c.JSON(http.StatusOK, gin.H{"opportunities": out})
}

func (h *OpportunityHandler) GetOpportunity(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	opp, err := h.opps.GetOpportunity(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	view, err := h.present(c.Request.Context(), actor, opp)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"opportunity": view})
}

func (h *OpportunityHandler) CloseOpportunity(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	opp, err := h.opps.CloseOpportunity(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Opportunity closed",
		"opportunity": opp,
	})
}

// GetApplications lists applications to an opportunity, optionally filtered
// by ?status=.
func (h *OpportunityHandler) GetApplications(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	apps, err := h.apps.ListForOpportunity(c.Request.Context(), actor, id, models.ApplicationStatus(c.Query("status")))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"applications": apps})
}

func (h *OpportunityHandler) present(ctx context.Context, actor models.Actor, opp *models.Opportunity) (any, error) {
	full, err := h.opps.CanSeeDetails(ctx, actor, opp)
	if err != nil {
		return nil, err
	}
	if full {
		return opp, nil
	}
	return opp.ToPublicInfo(), nil
}
