package handlers

import (
	"net/http"
	"time"

	"github.com/ezhulati/liftout-platform-sub011/internal/logger"
	"github.com/ezhulati/liftout-platform-sub011/internal/models"
	"github.com/ezhulati/liftout-platform-sub011/internal/services"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	admin  *services.AdminService
	offers *services.OfferService
	log    *logger.Logger
}

func NewAdminHandler(admin *services.AdminService, offers *services.OfferService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		admin:  admin,
		offers: offers,
		log:    log,
	}
}

// GetDashboardStats returns platform statistics
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// ListAllUsers returns all users, optionally filtered by ?role=
func (h *AdminHandler) ListAllUsers(c *gin.Context) {
	users, err := h.admin.ListUsers(c.Request.Context(), models.UserRole(c.Query("role")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	out := make([]models.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"users": out,
		"total": len(out),
	})
}

// SweepExpiredOffers marks pending offers past their deadline as expired
func (h *AdminHandler) SweepExpiredOffers(c *gin.Context) {
	n, err := h.offers.SweepExpiredOffers(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Expired offers swept",
		"expired": n,
	})
}
