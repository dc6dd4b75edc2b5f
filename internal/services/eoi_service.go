package services

import (
	"context"
	"errors"
	"time"

	"github.com/ezhulati/liftout-platform-sub011/internal/apperrors"
	"github.com/ezhulati/liftout-platform-sub011/internal/logger"
	"github.com/ezhulati/liftout-platform-sub011/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EOIService manages expressions of interest between teams and companies.
type EOIService struct {
	engagement
	conversations       ConversationService
	conversationTimeout time.Duration
	ttl                 time.Duration
}

func NewEOIService(db *gorm.DB, dispatcher *Dispatcher, conversations ConversationService, ttl, conversationTimeout time.Duration, log *logger.Logger) *EOIService {
	if ttl <= 0 {
		ttl = models.DefaultEOITTL
	}
	if conversationTimeout <= 0 {
		conversationTimeout = 5 * time.Second
	}
	return &EOIService{
		engagement:          newEngagement(db, dispatcher, log),
		conversations:       conversations,
		conversationTimeout: conversationTimeout,
		ttl:                 ttl,
	}
}

type CreateEOIInput struct {
	FromType      models.Party         `json:"from_type" validate:"required,oneof=team company"`
	FromID        uuid.UUID            `json:"from_id" validate:"required"`
	ToType        models.Party         `json:"to_type" validate:"required,oneof=team company,nefield=FromType"`
	ToID          uuid.UUID            `json:"to_id" validate:"required"`
	OpportunityID *uuid.UUID           `json:"opportunity_id"`
	Message       string               `json:"message" validate:"required,max=4000"`
	InterestLevel models.InterestLevel `json:"interest_level" validate:"omitempty,oneof=low medium high"`
	Timeline      string               `json:"timeline" validate:"max=200"`
}

type EOIDecision string

const (
	EOIAccept  EOIDecision = "accepted"
	EOIDecline EOIDecision = "declined"
)

// EOIBox selects which side of the channel to list.
type EOIBox string

const (
	EOIBoxReceived EOIBox = "received"
	EOIBoxSent     EOIBox = "sent"
)

// CreateEOI sends an expression of interest. FromID names the sending team
// or company and the actor must act for it; ToID is the recipient user.
func (s *EOIService) CreateEOI(ctx context.Context, actor models.Actor, in CreateEOIInput) (*models.ExpressionOfInterest, error) {
	const op = "eoi.Create"

	if err := validatePayload(op, in); err != nil {
		return nil, err
	}
	if in.ToID == actor.UserID {
		return nil, apperrors.Validation(op, "cannot send an expression of interest to yourself")
	}
	if in.InterestLevel == "" {
		in.InterestLevel = models.InterestMedium
	}

	var eoi *models.ExpressionOfInterest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch in.FromType {
		case models.PartyTeam:
			if _, err := findTeam(tx, op, in.FromID, false); err != nil {
				return err
			}
			if _, err := requireTeamMember(tx, op, actor, in.FromID); err != nil {
				return err
			}
		case models.PartyCompany:
			if !actor.IsCompanyUserOf(in.FromID) {
				return apperrors.Forbidden(op, "you do not act for this company")
			}
		}

		var recipient models.User
		if err := tx.First(&recipient, "id = ?", in.ToID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound(op, "recipient %s not found", in.ToID)
			}
			return err
		}
		if in.ToType == models.PartyCompany && recipient.Role != models.RoleCompanyUser {
			return apperrors.Validation(op, "recipient does not act for a company")
		}
		if in.ToType == models.PartyTeam && recipient.Role != models.RoleTeamMember {
			return apperrors.Validation(op, "recipient does not act for a team")
		}

		if in.OpportunityID != nil {
			opp, err := findOpportunity(tx, op, *in.OpportunityID)
			if err != nil {
				return err
			}
			if in.FromType == models.PartyCompany && opp.CompanyID != in.FromID {
				return apperrors.Validation(op, "opportunity does not belong to the sending company")
			}
		}

		expires := s.now().Add(s.ttl)
		eoi = &models.ExpressionOfInterest{
			FromType:      in.FromType,
			FromID:        in.FromID,
			SentBy:        actor.UserID,
			ToType:        in.ToType,
			ToID:          in.ToID,
			OpportunityID: in.OpportunityID,
			Message:       in.Message,
			InterestLevel: in.InterestLevel,
			Timeline:      in.Timeline,
			Status:        models.EOIStatusPending,
			ExpiresAt:     &expires,
		}
		return tx.Create(eoi).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("expression of interest sent", "eoi_id", eoi.ID.String(), "to_id", eoi.ToID.String())
	s.dispatcher.Notify(eoi.ToID, models.NotifyEOIReceived, eoiPayload(eoi))
	return eoi, nil
}

// RespondToEOI resolves a pending EOI. Repeating the response already on
// record returns the EOI unchanged.
func (s *EOIService) RespondToEOI(ctx context.Context, actor models.Actor, eoiID uuid.UUID, decision EOIDecision) (*models.ExpressionOfInterest, error) {
	const op = "eoi.Respond"

	target := models.EOIStatus(decision)
	if target != models.EOIStatusAccepted && target != models.EOIStatusDeclined {
		return nil, apperrors.Validation(op, "response must be accepted or declined")
	}

	var (
		eoi     *models.ExpressionOfInterest
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		eoi, err = findEOI(tx, op, eoiID)
		if err != nil {
			return err
		}
		if eoi.ToID != actor.UserID {
			return apperrors.Forbidden(op, "only the recipient can respond to this expression of interest")
		}

		now := s.now()
		if eoi.Status == target {
			return nil
		}
		if !eoi.CanRespond(now) {
			if eoi.IsExpired(now) {
				return apperrors.InvalidTransition(op, "expression of interest has expired")
			}
			return apperrors.InvalidTransition(op, "expression of interest was already %s", eoi.Status)
		}

		res := tx.Model(eoi).
			Where("status = ?", models.EOIStatusPending).
			Updates(map[string]any{"status": target, "responded_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict(op, "expression of interest %s was answered concurrently; re-read and retry", eoi.ID)
		}
		eoi.Status = target
		eoi.RespondedAt = &now
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return eoi, nil
	}

	s.log.Info("expression of interest answered", "eoi_id", eoi.ID.String(), "status", string(eoi.Status))
	s.dispatcher.Notify(eoi.SentBy, models.NotifyEOIResponded, eoiPayload(eoi))
	if eoi.Status == models.EOIStatusAccepted {
		s.openConversation(ctx, eoi)
	}
	return eoi, nil
}

// RetryConversation asks again for the conversation of an accepted EOI whose
// first request failed. It is a no-op once a conversation is linked.
func (s *EOIService) RetryConversation(ctx context.Context, actor models.Actor, eoiID uuid.UUID) (*models.ExpressionOfInterest, error) {
	const op = "eoi.RetryConversation"

	eoi, err := findEOI(s.db.WithContext(ctx), op, eoiID)
	if err != nil {
		return nil, err
	}
	if eoi.ToID != actor.UserID && eoi.SentBy != actor.UserID {
		return nil, apperrors.Forbidden(op, "you are not a party to this expression of interest")
	}
	if eoi.Status != models.EOIStatusAccepted {
		return nil, apperrors.InvalidTransition(op, "only accepted expressions of interest open a conversation")
	}
	if eoi.ConversationID != nil {
		return eoi, nil
	}

	if !s.openConversation(ctx, eoi) {
		return nil, apperrors.Conflict(op, "conversation service unavailable; try again later")
	}
	return eoi, nil
}

// GetEOI returns an EOI to its sender or recipient.
func (s *EOIService) GetEOI(ctx context.Context, actor models.Actor, eoiID uuid.UUID) (*models.ExpressionOfInterest, error) {
	const op = "eoi.Get"

	eoi, err := findEOI(s.db.WithContext(ctx), op, eoiID)
	if err != nil {
		return nil, err
	}
	if eoi.ToID != actor.UserID && eoi.SentBy != actor.UserID {
		return nil, apperrors.Forbidden(op, "you are not a party to this expression of interest")
	}
	eoi.Status = eoi.EffectiveStatus(s.now())
	return eoi, nil
}

// ListEOIs returns the actor's received or sent EOIs with expiry applied.
func (s *EOIService) ListEOIs(ctx context.Context, actor models.Actor, box EOIBox) ([]models.ExpressionOfInterest, error) {
	query := s.db.WithContext(ctx)
	switch box {
	case EOIBoxSent:
		query = query.Where("sent_by = ?", actor.UserID)
	case EOIBoxReceived, "":
		query = query.Where("to_id = ?", actor.UserID)
	default:
		return nil, apperrors.Validation("eoi.List", "unknown box %q", box)
	}

	var eois []models.ExpressionOfInterest
	if err := query.Order("created_at DESC").Find(&eois).Error; err != nil {
		return nil, err
	}
	now := s.now()
	for i := range eois {
		eois[i].Status = eois[i].EffectiveStatus(now)
	}
	return eois, nil
}

// openConversation runs after commit. A failure is logged and leaves the
// EOI without a conversation for RetryConversation.
func (s *EOIService) openConversation(ctx context.Context, eoi *models.ExpressionOfInterest) bool {
	log := s.log.With("eoi_id", eoi.ID.String(), "origin_ref", eoi.OriginRef())

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.conversationTimeout)
	defer cancel()

	convID, err := s.conversations.CreateConversation(ctx,
		[]uuid.UUID{eoi.SentBy, eoi.ToID},
		"Expression of interest",
		eoi.OriginRef(),
	)
	if err != nil {
		log.Warn("conversation request failed", "error", err)
		return false
	}

	if err := s.db.WithContext(ctx).Model(&models.ExpressionOfInterest{}).
		Where("id = ?", eoi.ID).
		Update("conversation_id", convID).Error; err != nil {
		log.Warn("linking conversation failed", "conversation_id", convID.String(), "error", err)
		return false
	}
	eoi.ConversationID = &convID
	return true
}

func findEOI(tx *gorm.DB, op string, id uuid.UUID) (*models.ExpressionOfInterest, error) {
	var eoi models.ExpressionOfInterest
	err := tx.First(&eoi, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound(op, "expression of interest %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &eoi, nil
}

func eoiPayload(eoi *models.ExpressionOfInterest) map[string]any {
	return map[string]any{
		"eoi_id":         eoi.ID.String(),
		"from_type":      string(eoi.FromType),
		"from_id":        eoi.FromID.String(),
		"status":         string(eoi.Status),
		"interest_level": string(eoi.InterestLevel),
		"message":        eoi.Message,
	}
}
