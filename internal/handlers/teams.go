package handlers

import (
	"net/http"

	"github.com/ezhulati/liftout-platform-sub011/internal/logger"
	"github.com/ezhulati/liftout-platform-sub011/internal/services"
	"github.com/gin-gonic/gin"
)

type TeamHandler struct {
	roster *services.RosterService
	apps   *services.ApplicationService
	log    *logger.Logger
}

func NewTeamHandler(roster *services.RosterService, apps *services.ApplicationService, log *logger.Logger) *TeamHandler {
	return &TeamHandler{roster: roster, apps: apps, log: log}
}

// CreateTeam registers a team with the caller as its first lead
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req services.CreateTeamInput
	if !bindJSON(c, &req) {
		return
	}

	team, err := h.roster.CreateTeam(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Team created",
		"team":    team,
	})
}

// GetMyTeams lists the teams the caller is an active member of
func (h *TeamHandler) GetMyTeams(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	teams, err := h.roster.ListTeams(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"teams": teams})
}

func (h *TeamHandler) GetTeam(c *gin.Context) {
	teamID, ok := paramID(c, "id")
	if !ok {
		return
	}

	team, err := h.roster.GetTeam(c.Request.Context(), teamID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"team": team})
}

// AddMember adds or reactivates a member (team admin or lead only)
func (h *TeamHandler) AddMember(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	teamID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.AddMemberInput
	if !bindJSON(c, &req) {
		return
	}

	member, err := h.roster.AddMember(c.Request.Context(), actor, teamID, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Member added",
		"member":  member,
	})
}

// SetLeadRequest toggles the lead flag on a member
type SetLeadRequest struct {
	Lead bool `json:"lead"`
}

func (h *TeamHandler) SetLead(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	teamID, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	var req SetLeadRequest
	if !bindJSON(c, &req) {
		return
	}

	member, err := h.roster.SetLead(c.Request.Context(), actor, teamID, userID, req.Lead)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member updated",
		"member":  member,
	})
}

// CanLeave reports whether the caller may leave the team right now
func (h *TeamHandler) CanLeave(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	teamID, ok := paramID(c, "id")
	if !ok {
		return
	}

	check, err := h.roster.CanLeave(c.Request.Context(), teamID, actor.UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, check)
}

func (h *TeamHandler) LeaveTeam(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	teamID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.roster.LeaveTeam(c.Request.Context(), actor, teamID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "You have left the team"})
}

// CanRemove reports whether the caller may remove the given member
func (h *TeamHandler) CanRemove(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	teamID, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	check, err := h.roster.CanRemove(c.Request.Context(), actor, teamID, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, check)
}

func (h *TeamHandler) RemoveMember(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	teamID, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	if err := h.roster.RemoveMember(c.Request.Context(), actor, teamID, userID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

// GetTeamApplications lists the team's applications (members only)
func (h *TeamHandler) GetTeamApplications(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	teamID, ok := paramID(c, "id")
	if !ok {
		return
	}

	apps, err := h.apps.ListForTeam(c.Request.Context(), actor, teamID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"applications": apps})
}
