package services

import (
	"context"
	"errors"
	"strings"

	"github.com/ezhulati/liftout-platform-sub011/internal/apperrors"
	"github.com/ezhulati/liftout-platform-sub011/internal/logger"
	"github.com/ezhulati/liftout-platform-sub011/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OpportunityService struct {
	engagement
}

func NewOpportunityService(db *gorm.DB, log *logger.Logger) *OpportunityService {
	return &OpportunityService{engagement: newEngagement(db, nil, log)}
}

type OpportunityInput struct {
	Title       string                       `json:"title" validate:"required,max=200"`
	Description string                       `json:"description" validate:"max=20000"`
	Location    string                       `json:"location" validate:"max=200"`
	TeamSizeMin int                          `json:"team_size_min" validate:"gte=0"`
	TeamSizeMax int                          `json:"team_size_max" validate:"omitempty,gtefield=TeamSizeMin"`
	Visibility  models.OpportunityVisibility `json:"visibility" validate:"omitempty,oneof=public confidential"`
}

// CreateOpportunity posts an opportunity for the actor's company.
func (s *OpportunityService) CreateOpportunity(ctx context.Context, actor models.Actor, in OpportunityInput) (*models.Opportunity, error) {
	const op = "opportunities.Create"

	if actor.Role != models.RoleCompanyUser || actor.CompanyID == nil {
		return nil, apperrors.Forbidden(op, "only company users can post opportunities")
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := validatePayload(op, in); err != nil {
		return nil, err
	}
	if in.Visibility == "" {
		in.Visibility = models.VisibilityPublic
	}

	opp := &models.Opportunity{
		CompanyID:   *actor.CompanyID,
		CreatedBy:   actor.UserID,
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		TeamSizeMin: in.TeamSizeMin,
		TeamSizeMax: in.TeamSizeMax,
		Status:      models.OpportunityStatusActive,
		Visibility:  in.Visibility,
	}
	if err := s.db.WithContext(ctx).Create(opp).Error; err != nil {
		return nil, err
	}
	s.log.Info("opportunity posted", "opportunity_id", opp.ID.String(), "company_id", opp.CompanyID.String())
	return opp, nil
}

// ListOpportunities returns open opportunities. Company users also see their
// own closed ones.
func (s *OpportunityService) ListOpportunities(ctx context.Context, actor models.Actor) ([]models.Opportunity, error) {
	query := s.db.WithContext(ctx).Preload("Company")
	if actor.Role == models.RoleCompanyUser && actor.CompanyID != nil {
		query = query.Where("status = ? OR company_id = ?", models.OpportunityStatusActive, *actor.CompanyID)
	} else {
		query = query.Where("status = ?", models.OpportunityStatusActive)
	}

	var opps []models.Opportunity
	err := query.Order("created_at DESC").Find(&opps).Error
	return opps, err
}

func (s *OpportunityService) GetOpportunity(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	var opp models.Opportunity
	err := s.db.WithContext(ctx).Preload("Company").First(&opp, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("opportunities.Get", "opportunity %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &opp, nil
}

// CanSeeDetails reports whether the actor may see a confidential
// opportunity in full.
func (s *OpportunityService) CanSeeDetails(ctx context.Context, actor models.Actor, opp *models.Opportunity) (bool, error) {
	if opp.Visibility != models.VisibilityConfidential || actor.Role == models.RoleAdmin || actor.IsCompanyUserOf(opp.CompanyID) {
		return true, nil
	}
	if actor.Role != models.RoleTeamMember {
		return false, nil
	}

	// Teams that have applied see the full posting.
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Application{}).
		Joins("JOIN team_members ON team_members.team_id = applications.team_id").
		Where("applications.opportunity_id = ? AND team_members.user_id = ? AND team_members.status = ?",
			opp.ID, actor.UserID, models.MemberStatusActive).
		Count(&n).Error
	return n > 0, err
}

// CloseOpportunity stops new applications. Existing ones keep their status.
func (s *OpportunityService) CloseOpportunity(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Opportunity, error) {
	const op = "opportunities.Close"

	opp, err := s.GetOpportunity(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireCompanyUser(op, actor, opp); err != nil {
		return nil, err
	}
	if !opp.IsOpen() {
		return opp, nil
	}
	if err := s.db.WithContext(ctx).Model(opp).Update("status", models.OpportunityStatusClosed).Error; err != nil {
		return nil, err
	}
	opp.Status = models.OpportunityStatusClosed
	return opp, nil
}
