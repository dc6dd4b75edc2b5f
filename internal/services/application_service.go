package services

import (
	"context"
	"time"

	"github.com/ezhulati/liftout-platform-sub011/internal/apperrors"
	"github.com/ezhulati/liftout-platform-sub011/internal/database"
	"github.com/ezhulati/liftout-platform-sub011/internal/logger"
	"github.com/ezhulati/liftout-platform-sub011/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApplicationService drives the team application state machine.
type ApplicationService struct {
	engagement
}

func NewApplicationService(db *gorm.DB, dispatcher *Dispatcher, log *logger.Logger) *ApplicationService {
	return &ApplicationService{engagement: newEngagement(db, dispatcher, log)}
}

type SubmitApplicationInput struct {
	TeamID        uuid.UUID `json:"team_id" validate:"required"`
	OpportunityID uuid.UUID `json:"opportunity_id" validate:"required"`
	CoverLetter   string    `json:"cover_letter" validate:"max=10000"`
}

// InterviewInput is the optional payload of a move to interviewing.
type InterviewInput struct {
	Format          string     `json:"format" validate:"omitempty,oneof=video onsite phone"`
	DurationMinutes int        `json:"duration_minutes" validate:"gte=0,lte=480"`
	Participants    []string   `json:"participants" validate:"dive,required"`
	Notes           string     `json:"notes" validate:"max=4000"`
	ScheduledFor    *time.Time `json:"scheduled_for"`
}

// TransitionInput carries the target status and whatever that target needs.
type TransitionInput struct {
	Status    models.ApplicationStatus `json:"status"`
	Reason    string                   `json:"reason"`
	Interview *InterviewInput          `json:"interview"`
	Offer     *OfferDetails            `json:"offer"`
}

// SubmitApplication files a new application on behalf of a team.
func (s *ApplicationService) SubmitApplication(ctx context.Context, actor models.Actor, in SubmitApplicationInput) (*models.Application, error) {
	const op = "applications.Submit"

	if err := validatePayload(op, in); err != nil {
		return nil, err
	}

	var app *models.Application
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		team, err := findTeam(tx, op, in.TeamID, false)
		if err != nil {
			return err
		}
		if _, err := requireTeamMember(tx, op, actor, team.ID); err != nil {
			return err
		}

		opp, err := findOpportunity(tx, op, in.OpportunityID)
		if err != nil {
			return err
		}
		if !opp.IsOpen() {
			return apperrors.Validation(op, "opportunity is no longer accepting applications")
		}

		var live int64
		if err := tx.Model(&models.Application{}).
			Where("team_id = ? AND opportunity_id = ? AND status IN ?", team.ID, opp.ID, blockingStatuses()).
			Count(&live).Error; err != nil {
			return err
		}
		if live > 0 {
			return apperrors.Conflict(op, "your team has already applied to this opportunity")
		}

		app = &models.Application{
			TeamID:        team.ID,
			OpportunityID: opp.ID,
			SubmittedBy:   actor.UserID,
			Status:        models.ApplicationStatusSubmitted,
			CoverLetter:   in.CoverLetter,
			AppliedAt:     s.now(),
		}
		if err := tx.Create(app).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return apperrors.Conflict(op, "your team has already applied to this opportunity")
			}
			return err
		}
		if err := recordTransition(tx, app, "", actor.UserID, ""); err != nil {
			return err
		}

		app.Team = team
		app.Opportunity = opp
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("application submitted",
		"application_id", app.ID.String(),
		"team_id", app.TeamID.String(),
		"opportunity_id", app.OpportunityID.String(),
	)
	s.dispatcher.Notify(app.Opportunity.CreatedBy, models.NotifyApplicationSubmitted, applicationPayload(app))
	return app, nil
}

// TransitionApplication moves an application one step along the lifecycle.
// Role is checked before state, so a team member asking for reviewing gets
// ForbiddenError whatever the current status.
func (s *ApplicationService) TransitionApplication(ctx context.Context, actor models.Actor, applicationID uuid.UUID, in TransitionInput) (*models.Application, error) {
	const op = "applications.Transition"

	if !in.Status.IsValid() {
		return nil, apperrors.Validation(op, "unknown application status %q", in.Status)
	}
	if in.Status == models.ApplicationStatusAccepted {
		return s.extendOffer(ctx, actor, applicationID, in.Offer)
	}

	var app *models.Application
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		app, err = findApplication(tx, op, applicationID)
		if err != nil {
			return err
		}

		if err := requireParty(tx, op, actor, app, in.Status.Owner()); err != nil {
			return err
		}
		if !app.Status.CanTransitionTo(in.Status) {
			return apperrors.InvalidTransition(op, "cannot move application from %s to %s", app.Status, in.Status)
		}

		now := s.now()
		from := app.Status
		app.Status = in.Status
		app.UpdatedAt = now

		var columns []string
		switch in.Status {
		case models.ApplicationStatusReviewing:
			app.ReviewedAt = &now
			columns = append(columns, "reviewed_at")
		case models.ApplicationStatusInterviewing:
			if in.Interview != nil {
				if err := validatePayload(op, *in.Interview); err != nil {
					return err
				}
				app.Interview = models.InterviewDetails{
					Format:          in.Interview.Format,
					DurationMinutes: in.Interview.DurationMinutes,
					Participants:    in.Interview.Participants,
					Notes:           in.Interview.Notes,
					ScheduledFor:    in.Interview.ScheduledFor,
				}
			}
			app.InterviewScheduledAt = &now
			columns = append(columns, "interview_scheduled_at",
				"interview_format", "interview_duration_minutes", "interview_participants",
				"interview_notes", "interview_scheduled_for")
		case models.ApplicationStatusRejected:
			app.FinalDecisionAt = &now
			columns = append(columns, "final_decision_at")
		}

		if err := swapApplicationStatus(tx, op, app, from, columns...); err != nil {
			return err
		}
		return recordTransition(tx, app, from, actor.UserID, in.Reason)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("application transitioned",
		"application_id", app.ID.String(),
		"status", string(app.Status),
		"actor_id", actor.UserID.String(),
	)
	s.dispatcher.Notify(counterpart(app, in.Status.Owner()), models.NotifyApplicationStatus, applicationPayload(app))
	return app, nil
}

// GetApplication returns an application with its history to either party.
func (s *ApplicationService) GetApplication(ctx context.Context, actor models.Actor, applicationID uuid.UUID) (*models.Application, error) {
	const op = "applications.Get"

	db := s.db.WithContext(ctx)
	app, err := findApplication(db, op, applicationID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin {
		if err := requireParty(db, op, actor, app, ""); err != nil {
			return nil, err
		}
	}
	if err := db.Where("application_id = ?", app.ID).Order("created_at ASC").Find(&app.History).Error; err != nil {
		return nil, err
	}
	return app, nil
}

// ListForTeam returns a team's applications, newest first.
func (s *ApplicationService) ListForTeam(ctx context.Context, actor models.Actor, teamID uuid.UUID) ([]models.Application, error) {
	const op = "applications.ListForTeam"

	db := s.db.WithContext(ctx)
	if _, err := findTeam(db, op, teamID, false); err != nil {
		return nil, err
	}
	if _, err := requireTeamMember(db, op, actor, teamID); err != nil {
		return nil, err
	}

	var apps []models.Application
	err := db.Preload("Opportunity").
		Where("team_id = ?", teamID).
		Order("applied_at DESC").
		Find(&apps).Error
	return apps, err
}

// ListForOpportunity returns the applications a company received.
func (s *ApplicationService) ListForOpportunity(ctx context.Context, actor models.Actor, opportunityID uuid.UUID, status models.ApplicationStatus) ([]models.Application, error) {
	const op = "applications.ListForOpportunity"

	db := s.db.WithContext(ctx)
	opp, err := findOpportunity(db, op, opportunityID)
	if err != nil {
		return nil, err
	}
	if err := requireCompanyUser(op, actor, opp); err != nil {
		return nil, err
	}

	query := db.Preload("Team").Where("opportunity_id = ?", opp.ID)
	if status != "" {
		if !status.IsValid() {
			return nil, apperrors.Validation(op, "unknown application status %q", status)
		}
		query = query.Where("status = ?", status)
	}

	var apps []models.Application
	err = query.Order("applied_at DESC").Find(&apps).Error
	return apps, err
}

type NotesInput struct {
	RecruiterNotes     *string `json:"recruiter_notes" validate:"omitempty,max=10000"`
	HiringManagerNotes *string `json:"hiring_manager_notes" validate:"omitempty,max=10000"`
}

// UpdateNotes edits the company's private notes without touching status.
func (s *ApplicationService) UpdateNotes(ctx context.Context, actor models.Actor, applicationID uuid.UUID, in NotesInput) (*models.Application, error) {
	const op = "applications.UpdateNotes"

	if err := validatePayload(op, in); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	app, err := findApplication(db, op, applicationID)
	if err != nil {
		return nil, err
	}
	if err := requireCompanyUser(op, actor, app.Opportunity); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.RecruiterNotes != nil {
		updates["recruiter_notes"] = *in.RecruiterNotes
		app.RecruiterNotes = *in.RecruiterNotes
	}
	if in.HiringManagerNotes != nil {
		updates["hiring_manager_notes"] = *in.HiringManagerNotes
		app.HiringManagerNotes = *in.HiringManagerNotes
	}
	if len(updates) == 0 {
		return app, nil
	}
	if err := db.Model(&models.Application{}).Where("id = ?", app.ID).Updates(updates).Error; err != nil {
		return nil, err
	}
	return app, nil
}

// extendOffer is the only way into accepted. It is shared by the offer
// endpoint and by TransitionApplication.
func (s *ApplicationService) extendOffer(ctx context.Context, actor models.Actor, applicationID uuid.UUID, details *OfferDetails) (*models.Application, error) {
	const op = "offers.MakeOffer"

	var app *models.Application
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		app, err = findApplication(tx, op, applicationID)
		if err != nil {
			return err
		}

		if err := requireCompanyUser(op, actor, app.Opportunity); err != nil {
			return err
		}
		if !app.Status.CanTransitionTo(models.ApplicationStatusAccepted) {
			return apperrors.InvalidTransition(op, "offers can only be made to applications in interviewing, not %s", app.Status)
		}
		if details == nil {
			return apperrors.Validation(op, "offer details are required to extend an offer")
		}
		now := s.now()
		if err := details.validate(op, now); err != nil {
			return err
		}

		from := app.Status
		app.Status = models.ApplicationStatusAccepted
		app.UpdatedAt = now
		app.OfferMadeAt = &now
		app.FinalDecisionAt = &now
		app.Offer = details.toOffer()

		if err := swapApplicationStatus(tx, op, app, from,
			"offer_made_at", "final_decision_at",
			"offer_compensation", "offer_currency", "offer_equity", "offer_start_date",
			"offer_terms", "offer_response_deadline", "offer_status", "offer_responded_at",
		); err != nil {
			return err
		}
		return recordTransition(tx, app, from, actor.UserID, "offer extended")
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("offer extended",
		"application_id", app.ID.String(),
		"response_deadline", app.Offer.ResponseDeadline,
	)
	payload := applicationPayload(app)
	payload["response_deadline"] = app.Offer.ResponseDeadline.Format("2006-01-02")
	s.dispatcher.Notify(app.Team.CreatedBy, models.NotifyOfferExtended, payload)
	return app, nil
}

func blockingStatuses() []models.ApplicationStatus {
	var out []models.ApplicationStatus
	for _, st := range models.ApplicationStatuses {
		if st.BlocksResubmission() {
			out = append(out, st)
		}
	}
	return out
}
