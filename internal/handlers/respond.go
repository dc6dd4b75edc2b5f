package handlers

import (
	"net/http"

	"github.com/ezhulati/liftout-platform-sub011/internal/apperrors"
	"github.com/ezhulati/liftout-platform-sub011/internal/logger"
	"github.com/ezhulati/liftout-platform-sub011/internal/middleware"
	"github.com/ezhulati/liftout-platform-sub011/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondError writes the JSON body for a service error. Errors without a
// kind are logged and reported as a bare 500.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	status, body := apperrors.Status(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err.Error())
	}
	c.JSON(status, body)
}

// actorOrAbort returns the authenticated caller, writing a 401 when there is
// none.
func actorOrAbort(c *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
	}
	return actor, ok
}

// paramID parses a UUID path parameter, writing a 400 when it is malformed.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, apperrors.Response{Error: err.Error(), Code: "VALIDATION"})
		return false
	}
	return true
}
