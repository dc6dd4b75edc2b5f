package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ezhulati/liftout-platform-sub011/internal/apperrors"
	"github.com/ezhulati/liftout-platform-sub011/internal/config"
	"github.com/ezhulati/liftout-platform-sub011/internal/models"
	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"gorm.io/gorm"
)

type DocumentService struct {
	config  *config.Config
	apps    *ApplicationService
	storage *StorageService
}

// NewDocumentService builds the offer letter generator. A nil storage skips
// archiving rendered letters.
func NewDocumentService(cfg *config.Config, apps *ApplicationService, storage *StorageService) *DocumentService {
	return &DocumentService{config: cfg, apps: apps, storage: storage}
}

// OfferLetterPDF renders the offer on an application for either party. The
// returned name is a suggested download filename.
func (s *DocumentService) OfferLetterPDF(ctx context.Context, actor models.Actor, applicationID uuid.UUID) ([]byte, string, error) {
	const op = "documents.OfferLetter"

	app, err := s.apps.GetApplication(ctx, actor, applicationID)
	if err != nil {
		return nil, "", err
	}
	if !app.Offer.Exists() {
		return nil, "", apperrors.NotFound(op, "no offer has been made on this application")
	}

	var company models.Company
	err = s.apps.db.WithContext(ctx).First(&company, "id = ?", app.Opportunity.CompanyID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	var members []models.TeamMember
	if err := s.apps.db.WithContext(ctx).Preload("User").
		Where("team_id = ? AND status = ?", app.TeamID, models.MemberStatusActive).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(190, 12, "TEAM OFFER LETTER", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(190, 8, app.Opportunity.Title, "", 1, "C", false, 0, "")
	pdf.Ln(10)

	// Parties
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(190, 8, "PARTIES")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(95, 6, "Company: "+company.Name)
	pdf.Cell(95, 6, "Team: "+app.Team.Name)
	pdf.Ln(10)

	// Offer Terms
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(190, 8, "OFFER TERMS")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)

	pdf.Cell(60, 6, "Compensation:")
	pdf.Cell(130, 6, fmt.Sprintf("%s %.2f", app.Offer.Currency, app.Offer.Compensation))
	pdf.Ln(6)

	if app.Offer.Equity > 0 {
		pdf.Cell(60, 6, "Equity:")
		pdf.Cell(130, 6, fmt.Sprintf("%.2f%%", app.Offer.Equity))
		pdf.Ln(6)
	}

	if app.Offer.StartDate != nil {
		pdf.Cell(60, 6, "Start Date:")
		pdf.Cell(130, 6, app.Offer.StartDate.Format("January 2, 2006"))
		pdf.Ln(6)
	}

	if app.Offer.ResponseDeadline != nil {
		pdf.Cell(60, 6, "Respond By:")
		pdf.Cell(130, 6, app.Offer.ResponseDeadline.Format("January 2, 2006"))
		pdf.Ln(6)
	}

	pdf.Cell(60, 6, "Status:")
	pdf.Cell(130, 6, strings.ToUpper(string(app.Offer.Status)))
	pdf.Ln(10)

	// Terms
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(190, 8, "TERMS")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
	pdf.MultiCell(190, 5, app.Offer.Terms, "", "", false)
	pdf.Ln(8)

	// Team roster
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(190, 8, "TEAM MEMBERS")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	for _, m := range members {
		if m.User == nil {
			continue
		}
		line := m.User.FullName()
		if m.User.Title != "" {
			line += ", " + m.User.Title
		}
		if m.IsLead {
			line += " (lead)"
		}
		pdf.Cell(190, 6, line)
		pdf.Ln(6)
	}
	pdf.Ln(8)

	// Footer
	pdf.SetFont("Arial", "I", 8)
	pdf.MultiCell(190, 4, "This offer letter was generated via the "+s.config.AppName+" platform and reflects the offer on record at the time of download.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("offer_%s.pdf", app.ID.String()[:8])
	if s.storage != nil {
		if path, err := s.storage.SaveDocument("offer_letters", filename, buf.Bytes()); err != nil {
			s.apps.log.Warn("offer letter not archived", "application_id", app.ID.String(), "error", err.Error())
		} else {
			s.apps.log.Debug("offer letter archived", "path", path)
		}
	}
	return buf.Bytes(), filename, nil
}
