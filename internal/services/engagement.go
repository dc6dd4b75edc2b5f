package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ezhulati/liftout-platform-sub011/internal/apperrors"
	"github.com/ezhulati/liftout-platform-sub011/internal/database"
	"github.com/ezhulati/liftout-platform-sub011/internal/logger"
	"github.com/ezhulati/liftout-platform-sub011/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// engagement holds what every lifecycle service needs.
type engagement struct {
	db         *gorm.DB
	dispatcher *Dispatcher
	log        *logger.Logger
	now        func() time.Time
}

func newEngagement(db *gorm.DB, dispatcher *Dispatcher, log *logger.Logger) engagement {
	return engagement{db: db, dispatcher: dispatcher, log: log, now: time.Now}
}

// validatePayload runs struct validation and folds field errors into one
// ValidationError.
func validatePayload(op string, payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.Validation(op, "%v", err)
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
		}
	}
	return apperrors.Validation(op, "%s", strings.Join(parts, "; "))
}

func findApplication(tx *gorm.DB, op string, id uuid.UUID) (*models.Application, error) {
	var app models.Application
	err := tx.Preload("Opportunity").Preload("Team").First(&app, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound(op, "application %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	if app.Opportunity == nil || app.Team == nil {
		return nil, apperrors.NotFound(op, "application %s not found", id)
	}
	return &app, nil
}

func findTeam(tx *gorm.DB, op string, id uuid.UUID, lock bool) (*models.Team, error) {
	query := tx
	if lock && database.IsPostgres(tx) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var team models.Team
	err := query.First(&team, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound(op, "team %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func findOpportunity(tx *gorm.DB, op string, id uuid.UUID) (*models.Opportunity, error) {
	var opp models.Opportunity
	err := tx.First(&opp, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound(op, "opportunity %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &opp, nil
}

// activeMember returns the caller's active membership or nil.
func activeMember(tx *gorm.DB, teamID, userID uuid.UUID) (*models.TeamMember, error) {
	var member models.TeamMember
	err := tx.Where("team_id = ? AND user_id = ? AND status = ?", teamID, userID, models.MemberStatusActive).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func requireTeamMember(tx *gorm.DB, op string, actor models.Actor, teamID uuid.UUID) (*models.TeamMember, error) {
	if actor.Role != models.RoleTeamMember {
		return nil, apperrors.Forbidden(op, "only team members may perform this action")
	}
	member, err := activeMember(tx, teamID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, apperrors.Forbidden(op, "you are not an active member of this team")
	}
	return member, nil
}

func requireCompanyUser(op string, actor models.Actor, opp *models.Opportunity) error {
	if !actor.IsCompanyUserOf(opp.CompanyID) {
		return apperrors.Forbidden(op, "only users of the hiring company may perform this action")
	}
	return nil
}

// requireParty checks the actor may act for party on app. An empty party
// means either side of the engagement.
func requireParty(tx *gorm.DB, op string, actor models.Actor, app *models.Application, party models.Party) error {
	switch party {
	case models.PartyCompany:
		return requireCompanyUser(op, actor, app.Opportunity)
	case models.PartyTeam:
		_, err := requireTeamMember(tx, op, actor, app.TeamID)
		return err
	default:
		if actor.IsCompanyUserOf(app.Opportunity.CompanyID) {
			return nil
		}
		_, err := requireTeamMember(tx, op, actor, app.TeamID)
		if errors.Is(err, apperrors.ErrForbidden) {
			return apperrors.Forbidden(op, "you are not a party to this application")
		}
		return err
	}
}

// swapApplicationStatus writes app (already mutated to its new status) only
// if the stored status still equals from. Losing a race yields ConflictError.
func swapApplicationStatus(tx *gorm.DB, op string, app *models.Application, from models.ApplicationStatus, columns ...string) error {
	columns = append(columns, "status", "updated_at")
	res := tx.Model(app).
		Where("status = ?", from).
		Select(columns).
		Updates(app)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.Conflict(op, "application %s was modified concurrently; re-read and retry", app.ID)
	}
	return nil
}

func recordTransition(tx *gorm.DB, app *models.Application, from models.ApplicationStatus, actorID uuid.UUID, reason string) error {
	return tx.Create(&models.ApplicationTransition{
		ApplicationID: app.ID,
		FromStatus:    from,
		ToStatus:      app.Status,
		ActorID:       actorID,
		Reason:        reason,
	}).Error
}

// counterpart returns the user notified when party acts on app: the team
// creator for company moves, the opportunity author for team moves.
func counterpart(app *models.Application, party models.Party) uuid.UUID {
	if party == models.PartyTeam {
		return app.Opportunity.CreatedBy
	}
	return app.Team.CreatedBy
}

func applicationPayload(app *models.Application) map[string]any {
	return map[string]any{
		"application_id": app.ID.String(),
		"team_id":        app.TeamID.String(),
		"team_name":      app.Team.Name,
		"opportunity_id": app.OpportunityID.String(),
		"opportunity":    app.Opportunity.Title,
		"status":         string(app.Status),
		"message":        app.Status.Message(),
	}
}
