package handlers

import (
	"net/http"

	"github.com/ezhulati/liftout-platform-sub011/internal/logger"
	"github.com/ezhulati/liftout-platform-sub011/internal/services"
	"github.com/gin-gonic/gin"
)

type OfferHandler struct {
	offers          *services.OfferService
	documentService *services.DocumentService
	log             *logger.Logger
}

func NewOfferHandler(offers *services.OfferService, documentService *services.DocumentService, log *logger.Logger) *OfferHandler {
	return &OfferHandler{
		offers:          offers,
		documentService: documentService,
		log:             log,
	}
}

// MakeOffer extends an offer on an interviewing application (company only)
func (h *OfferHandler) MakeOffer(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.OfferDetails
	if !bindJSON(c, &req) {
		return
	}

	app, err := h.offers.MakeOffer(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Offer extended",
		"application": app,
	})
}

// RespondToOffer accepts or declines a pending offer (team members only)
func (h *OfferHandler) RespondToOffer(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.OfferResponse
	if !bindJSON(c, &req) {
		return
	}

	app, err := h.offers.RespondToOffer(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	message := "Offer accepted"
	if req.Decision == services.OfferDecline {
		message = "Offer declined"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     message,
		"application": forActor(actor, app),
	})
}

// DownloadOfferLetter renders the offer as a PDF for either party
func (h *OfferHandler) DownloadOfferLetter(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	pdf, filename, err := h.documentService.OfferLetterPDF(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
