package services

import (
	"context"
	"errors"
	"strings"

	"github.com/ezhulati/liftout-platform-sub011/internal/apperrors"
	"github.com/ezhulati/liftout-platform-sub011/internal/database"
	"github.com/ezhulati/liftout-platform-sub011/internal/logger"
	"github.com/ezhulati/liftout-platform-sub011/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RosterService owns team membership and the rules that keep a team
// fieldable: at least MinimumTeamSize active members and at least one lead.
type RosterService struct {
	engagement
}

func NewRosterService(db *gorm.DB, dispatcher *Dispatcher, log *logger.Logger) *RosterService {
	return &RosterService{engagement: newEngagement(db, dispatcher, log)}
}

// RosterCheck is the answer to "may this member depart".
type RosterCheck struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Code    string `json:"code,omitempty"`
}

type CreateTeamInput struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=4000"`
}

// CreateTeam makes the actor the team's creator, first admin and first lead.
func (s *RosterService) CreateTeam(ctx context.Context, actor models.Actor, in CreateTeamInput) (*models.Team, error) {
	const op = "roster.CreateTeam"

	if actor.Role != models.RoleTeamMember {
		return nil, apperrors.Forbidden(op, "only team members can create teams")
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validatePayload(op, in); err != nil {
		return nil, err
	}

	team := &models.Team{Name: in.Name, Description: in.Description, CreatedBy: actor.UserID, Size: 1}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return err
		}
		return tx.Create(&models.TeamMember{
			TeamID:  team.ID,
			UserID:  actor.UserID,
			Role:    models.MemberRoleAdmin,
			Status:  models.MemberStatusActive,
			IsLead:  true,
			IsAdmin: true,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("team created", "team_id", team.ID.String(), "created_by", actor.UserID.String())
	return s.GetTeam(ctx, team.ID)
}

// GetTeam returns the team with its active members.
func (s *RosterService) GetTeam(ctx context.Context, teamID uuid.UUID) (*models.Team, error) {
	var team models.Team
	err := s.db.WithContext(ctx).
		Preload("Members", "status = ?", models.MemberStatusActive).
		Preload("Members.User").
		First(&team, "id = ?", teamID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("roster.GetTeam", "team %s not found", teamID)
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// ListTeams returns the teams the user is an active member of.
func (s *RosterService) ListTeams(ctx context.Context, userID uuid.UUID) ([]models.Team, error) {
	var teams []models.Team
	err := s.db.WithContext(ctx).
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.user_id = ? AND team_members.status = ? AND team_members.deleted_at IS NULL", userID, models.MemberStatusActive).
		Order("teams.created_at DESC").
		Find(&teams).Error
	return teams, err
}

type AddMemberInput struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
	Lead   bool      `json:"lead"`
}

// AddMember adds or reactivates a member. Only an active lead or admin may
// change the roster.
func (s *RosterService) AddMember(ctx context.Context, actor models.Actor, teamID uuid.UUID, in AddMemberInput) (*models.TeamMember, error) {
	const op = "roster.AddMember"

	if err := validatePayload(op, in); err != nil {
		return nil, err
	}

	var member models.TeamMember
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		team, err := findTeam(tx, op, teamID, true)
		if err != nil {
			return err
		}
		if err := s.requireManager(tx, op, actor, team.ID); err != nil {
			return err
		}

		var user models.User
		if err := tx.First(&user, "id = ?", in.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound(op, "user %s not found", in.UserID)
			}
			return err
		}
		if user.Role != models.RoleTeamMember {
			return apperrors.Validation(op, "only team member accounts can join a team")
		}

		role := models.MemberRoleMember
		if in.Lead {
			role = models.MemberRoleLead
		}

		err = tx.Where("team_id = ? AND user_id = ?", team.ID, in.UserID).First(&member).Error
		switch {
		case err == nil && member.IsActive():
			return apperrors.Conflict(op, "user is already an active member of this team")
		case err == nil:
			res := tx.Model(&member).
				Where("status = ?", member.Status).
				Updates(map[string]any{
					"status":    models.MemberStatusActive,
					"role":      role,
					"is_lead":   in.Lead,
					"is_admin":  false,
					"joined_at": s.now(),
					"left_at":   nil,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return apperrors.Conflict(op, "membership changed concurrently; re-read and retry")
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			member = models.TeamMember{
				TeamID: team.ID,
				UserID: in.UserID,
				Role:   role,
				Status: models.MemberStatusActive,
				IsLead: in.Lead,
			}
			if err := tx.Create(&member).Error; err != nil {
				if database.IsUniqueViolation(err) {
					return apperrors.Conflict(op, "user is already a member of this team")
				}
				return err
			}
		default:
			return err
		}

		return tx.Model(&models.Team{}).Where("id = ?", team.ID).
			Update("size", gorm.Expr("size + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Preload("User").First(&member, "id = ?", member.ID).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// SetLead promotes or demotes a member. Demoting the only active lead fails
// with LastLeadError.
func (s *RosterService) SetLead(ctx context.Context, actor models.Actor, teamID, userID uuid.UUID, lead bool) (*models.TeamMember, error) {
	const op = "roster.SetLead"

	var member *models.TeamMember
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		team, err := findTeam(tx, op, teamID, true)
		if err != nil {
			return err
		}
		if err := s.requireManager(tx, op, actor, team.ID); err != nil {
			return err
		}

		member, err = activeMember(tx, team.ID, userID)
		if err != nil {
			return err
		}
		if member == nil {
			return apperrors.NotFound(op, "user %s is not an active member of this team", userID)
		}
		if member.IsLead == lead {
			return nil
		}

		if !lead {
			leads, err := s.countActive(tx, team.ID, true)
			if err != nil {
				return err
			}
			if leads <= 1 {
				return apperrors.LastLead(op, "cannot demote the only team lead; promote another member first")
			}
		}

		role := models.MemberRoleMember
		if member.IsAdmin {
			role = models.MemberRoleAdmin
		} else if lead {
			role = models.MemberRoleLead
		}
		res := tx.Model(member).
			Where("status = ? AND is_lead = ?", models.MemberStatusActive, member.IsLead).
			Updates(map[string]any{"is_lead": lead, "role": role})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict(op, "membership changed concurrently; re-read and retry")
		}
		member.IsLead = lead
		member.Role = role
		return nil
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// CanLeave evaluates the departure rules without changing anything.
func (s *RosterService) CanLeave(ctx context.Context, teamID, userID uuid.UUID) (RosterCheck, error) {
	const op = "roster.CanLeave"

	var verdict error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		team, err := findTeam(tx, op, teamID, false)
		if err != nil {
			return err
		}
		member, err := activeMember(tx, team.ID, userID)
		if err != nil {
			return err
		}
		if member == nil {
			return apperrors.NotFound(op, "user %s is not an active member of this team", userID)
		}
		verdict = s.checkDeparture(tx, op, team, member)
		if verdict != nil && !isRuleViolation(verdict) {
			return verdict
		}
		return nil
	})
	if err != nil {
		return RosterCheck{}, err
	}
	return checkOf(verdict), nil
}

// CanRemove is CanLeave seen from a lead or admin removing someone else.
func (s *RosterService) CanRemove(ctx context.Context, actor models.Actor, teamID, userID uuid.UUID) (RosterCheck, error) {
	const op = "roster.CanRemove"

	var verdict error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		team, err := findTeam(tx, op, teamID, false)
		if err != nil {
			return err
		}
		if err := s.requireManager(tx, op, actor, team.ID); err != nil {
			verdict = err
			return nil
		}
		member, err := activeMember(tx, team.ID, userID)
		if err != nil {
			return err
		}
		if member == nil {
			return apperrors.NotFound(op, "user %s is not an active member of this team", userID)
		}
		verdict = s.checkDeparture(tx, op, team, member)
		if verdict != nil && !isRuleViolation(verdict) {
			return verdict
		}
		return nil
	})
	if err != nil {
		return RosterCheck{}, err
	}
	return checkOf(verdict), nil
}

// LeaveTeam marks the actor's membership inactive.
func (s *RosterService) LeaveTeam(ctx context.Context, actor models.Actor, teamID uuid.UUID) error {
	return s.depart(ctx, "roster.LeaveTeam", actor, teamID, actor.UserID, false)
}

// RemoveMember marks another member inactive. The same rules apply as when
// the member leaves on their own.
func (s *RosterService) RemoveMember(ctx context.Context, actor models.Actor, teamID, userID uuid.UUID) error {
	return s.depart(ctx, "roster.RemoveMember", actor, teamID, userID, true)
}

func (s *RosterService) depart(ctx context.Context, op string, actor models.Actor, teamID, userID uuid.UUID, removal bool) error {
	var team *models.Team
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		team, err = findTeam(tx, op, teamID, true)
		if err != nil {
			return err
		}
		if removal {
			if err := s.requireManager(tx, op, actor, team.ID); err != nil {
				return err
			}
		}

		member, err := activeMember(tx, team.ID, userID)
		if err != nil {
			return err
		}
		if member == nil {
			if removal {
				return apperrors.NotFound(op, "user %s is not an active member of this team", userID)
			}
			return apperrors.Forbidden(op, "you are not an active member of this team")
		}

		if err := s.checkDeparture(tx, op, team, member); err != nil {
			return err
		}

		res := tx.Model(member).
			Where("status = ?", models.MemberStatusActive).
			Updates(map[string]any{
				"status":  models.MemberStatusInactive,
				"left_at": s.now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict(op, "membership changed concurrently; re-read and retry")
		}

		if err := tx.Model(&models.Team{}).Where("id = ?", team.ID).
			Update("size", gorm.Expr("size - 1")).Error; err != nil {
			return err
		}
		team.Size--
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("member left team",
		"team_id", team.ID.String(),
		"user_id", userID.String(),
		"removed_by", actor.UserID.String(),
		"team_size", team.Size,
	)
	s.dispatcher.Notify(team.CreatedBy, models.NotifyTeamMemberLeft, map[string]any{
		"team_id":   team.ID.String(),
		"team_name": team.Name,
		"user_id":   userID.String(),
		"removed":   removal,
		"team_size": team.Size,
	})
	return nil
}

// checkDeparture applies the departure rules in order: the creator stays,
// the last lead stays, and the team never drops below the minimum size.
func (s *RosterService) checkDeparture(tx *gorm.DB, op string, team *models.Team, member *models.TeamMember) error {
	if member.UserID == team.CreatedBy {
		return apperrors.Forbidden(op, "the team creator cannot leave the team; transfer ownership or delete the team instead")
	}

	if member.IsLead {
		leads, err := s.countActive(tx, team.ID, true)
		if err != nil {
			return err
		}
		if leads <= 1 {
			return apperrors.LastLead(op, "cannot leave as the only team lead; promote another member first")
		}
	}

	active, err := s.countActive(tx, team.ID, false)
	if err != nil {
		return err
	}
	if active-1 < models.MinimumTeamSize {
		return apperrors.MinimumTeamSize(op, "a team must keep at least %d members", models.MinimumTeamSize)
	}
	return nil
}

func (s *RosterService) countActive(tx *gorm.DB, teamID uuid.UUID, leadsOnly bool) (int64, error) {
	query := tx.Model(&models.TeamMember{}).
		Where("team_id = ? AND status = ?", teamID, models.MemberStatusActive)
	if leadsOnly {
		query = query.Where("is_lead = ?", true)
	}
	var n int64
	err := query.Count(&n).Error
	return n, err
}

func (s *RosterService) requireManager(tx *gorm.DB, op string, actor models.Actor, teamID uuid.UUID) error {
	member, err := requireTeamMember(tx, op, actor, teamID)
	if err != nil {
		return err
	}
	if !member.CanManageRoster() {
		return apperrors.Forbidden(op, "only team leads or admins can manage the roster")
	}
	return nil
}

func isRuleViolation(err error) bool {
	return errors.Is(err, apperrors.ErrForbidden) ||
		errors.Is(err, apperrors.ErrLastLead) ||
		errors.Is(err, apperrors.ErrMinimumTeamSize)
}

func checkOf(verdict error) RosterCheck {
	if verdict == nil {
		return RosterCheck{Allowed: true}
	}
	_, resp := apperrors.Status(verdict)
	return RosterCheck{Allowed: false, Reason: resp.Error, Code: resp.Code}
}
