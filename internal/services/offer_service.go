package services

import (
	"context"
	"strings"
	"time"

	"github.com/ezhulati/liftout-platform-sub011/internal/apperrors"
	"github.com/ezhulati/liftout-platform-sub011/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OfferDetails is what a company supplies when extending an offer.
type OfferDetails struct {
	Compensation     float64    `json:"compensation" validate:"gt=0"`
	Currency         string     `json:"currency" validate:"omitempty,len=3,alpha"`
	Equity           float64    `json:"equity" validate:"gte=0,lte=100"`
	StartDate        *time.Time `json:"start_date" validate:"required"`
	Terms            string     `json:"terms" validate:"required,max=20000"`
	ResponseDeadline *time.Time `json:"response_deadline"`
}

func (d OfferDetails) validate(op string, now time.Time) error {
	d.Terms = strings.TrimSpace(d.Terms)
	if err := validatePayload(op, d); err != nil {
		return err
	}
	if d.StartDate.Before(now) {
		return apperrors.Validation(op, "start date must not be in the past")
	}
	if d.ResponseDeadline != nil && d.ResponseDeadline.Before(now) {
		return apperrors.Validation(op, "response deadline must not be in the past")
	}
	if d.ResponseDeadline != nil && d.ResponseDeadline.After(*d.StartDate) {
		return apperrors.Validation(op, "response deadline must not be after the start date")
	}
	return nil
}

// toOffer builds the pending offer. Without an explicit deadline the team
// has until the start date to respond.
func (d OfferDetails) toOffer() models.Offer {
	deadline := d.StartDate
	if d.ResponseDeadline != nil {
		deadline = d.ResponseDeadline
	}
	currency := strings.ToUpper(d.Currency)
	if currency == "" {
		currency = "USD"
	}
	return models.Offer{
		Compensation:     d.Compensation,
		Currency:         currency,
		Equity:           d.Equity,
		StartDate:        d.StartDate,
		Terms:            strings.TrimSpace(d.Terms),
		ResponseDeadline: deadline,
		Status:           models.OfferStatusPending,
	}
}

type OfferDecision string

const (
	OfferAccept  OfferDecision = "accept"
	OfferDecline OfferDecision = "decline"
)

type OfferResponse struct {
	Decision OfferDecision `json:"decision" validate:"required,oneof=accept decline"`
	Reason   string        `json:"reason" validate:"max=4000"`
}

// OfferService runs the offer sub-lifecycle on top of applications.
type OfferService struct {
	apps *ApplicationService
}

func NewOfferService(apps *ApplicationService) *OfferService {
	return &OfferService{apps: apps}
}

// MakeOffer extends an offer to a team in interviewing.
func (s *OfferService) MakeOffer(ctx context.Context, actor models.Actor, applicationID uuid.UUID, details OfferDetails) (*models.Application, error) {
	return s.apps.extendOffer(ctx, actor, applicationID, &details)
}

// RespondToOffer records the team's answer. Declining closes the
// application as rejected; accepting finalizes the engagement.
func (s *OfferService) RespondToOffer(ctx context.Context, actor models.Actor, applicationID uuid.UUID, resp OfferResponse) (*models.Application, error) {
	const op = "offers.Respond"

	if err := validatePayload(op, resp); err != nil {
		return nil, err
	}

	var app *models.Application
	err := s.apps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		app, err = findApplication(tx, op, applicationID)
		if err != nil {
			return err
		}

		if _, err := requireTeamMember(tx, op, actor, app.TeamID); err != nil {
			return err
		}
		if app.Status != models.ApplicationStatusAccepted || app.Offer.Status != models.OfferStatusPending {
			return apperrors.InvalidTransition(op, "there is no pending offer on this application")
		}

		// Deadlines are enforced by the sweep only; an unswept offer is
		// still answerable.
		now := s.apps.now()
		prevOffer := app.Offer.Status
		from := app.Status
		app.Offer.RespondedAt = &now
		app.UpdatedAt = now

		if resp.Decision == OfferDecline {
			app.Offer.Status = models.OfferStatusDeclined
			app.Status = models.ApplicationStatusRejected
			app.FinalDecisionAt = &now
		} else {
			app.Offer.Status = models.OfferStatusAccepted
		}

		res := tx.Model(app).
			Where("status = ? AND offer_status = ?", from, prevOffer).
			Select("status", "updated_at", "final_decision_at", "offer_status", "offer_responded_at").
			Updates(app)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict(op, "application %s was modified concurrently; re-read and retry", app.ID)
		}

		reason := "offer " + string(app.Offer.Status)
		if resp.Reason != "" {
			reason += ": " + resp.Reason
		}
		return recordTransition(tx, app, from, actor.UserID, reason)
	})
	if err != nil {
		return nil, err
	}

	kind := models.NotifyOfferAccepted
	if app.Offer.Status == models.OfferStatusDeclined {
		kind = models.NotifyOfferDeclined
	}
	s.apps.log.Info("offer answered",
		"application_id", app.ID.String(),
		"offer_status", string(app.Offer.Status),
		"actor_id", actor.UserID.String(),
	)
	s.apps.dispatcher.Notify(app.Opportunity.CreatedBy, kind, applicationPayload(app))
	return app, nil
}

// SweepExpiredOffers marks pending offers past their deadline as expired.
// Callers are the scheduled CLI job and the admin sweep endpoint.
func (s *OfferService) SweepExpiredOffers(ctx context.Context, now time.Time) (int, error) {
	db := s.apps.db.WithContext(ctx)

	var pending []models.Application
	if err := db.Where("status = ? AND offer_status = ?", models.ApplicationStatusAccepted, models.OfferStatusPending).
		Find(&pending).Error; err != nil {
		return 0, err
	}

	expired := 0
	for i := range pending {
		app := &pending[i]
		if !app.Offer.IsPastDeadline(now) {
			continue
		}
		res := db.Model(&models.Application{}).
			Where("id = ? AND offer_status = ?", app.ID, models.OfferStatusPending).
			Update("offer_status", models.OfferStatusExpired)
		if res.Error != nil {
			return expired, res.Error
		}
		if res.RowsAffected == 1 {
			expired++
			s.apps.log.Info("offer expired", "application_id", app.ID.String())
		}
	}
	return expired, nil
}
