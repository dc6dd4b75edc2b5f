package handlers

import (
	"net/http"

	"github.com/ezhulati/liftout-platform-sub011/internal/logger"
	"github.com/ezhulati/liftout-platform-sub011/internal/models"
	"github.com/ezhulati/liftout-platform-sub011/internal/services"
	"github.com/gin-gonic/gin"
)

type ApplicationHandler struct {
	apps *services.ApplicationService
	log  *logger.Logger
}

func NewApplicationHandler(apps *services.ApplicationService, log *logger.Logger) *ApplicationHandler {
	return &ApplicationHandler{apps: apps, log: log}
}

// SubmitApplication applies a team to an opportunity (team members only)
func (h *ApplicationHandler) SubmitApplication(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req services.SubmitApplicationInput
	if !bindJSON(c, &req) {
		return
	}

	app, err := h.apps.SubmitApplication(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     app.Status.Message(),
		"application": forActor(actor, app),
	})
}

func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	app, err := h.apps.GetApplication(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"application": forActor(actor, app)})
}

// TransitionApplication moves an application to a new status. Company users
// drive review, interview, offer and rejection; teams may only withdraw.
func (h *ApplicationHandler) TransitionApplication(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.TransitionInput
	if !bindJSON(c, &req) {
		return
	}

	app, err := h.apps.TransitionApplication(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     app.Status.Message(),
		"application": forActor(actor, app),
	})
}

// UpdateNotes edits the company's internal notes (company users only)
func (h *ApplicationHandler) UpdateNotes(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.NotesInput
	if !bindJSON(c, &req) {
		return
	}

	app, err := h.apps.UpdateNotes(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Notes updated",
		"application": app,
	})
}

// forActor hides the company's internal notes from everyone but company
// users and admins.
func forActor(actor models.Actor, app *models.Application) *models.Application {
	if actor.Role == models.RoleCompanyUser || actor.Role == models.RoleAdmin {
		return app
	}
	view := *app
	view.RecruiterNotes = ""
	view.HiringManagerNotes = ""
	return &view
}
