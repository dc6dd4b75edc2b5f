package services

import (
	"context"

	"github.com/ezhulati/liftout-platform-sub011/internal/models"
	"gorm.io/gorm"
)

type AdminService struct {
	db *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

type PlatformStats struct {
	TotalUsers         int64                              `json:"total_users"`
	TeamMembers        int64                              `json:"team_members"`
	CompanyUsers       int64                              `json:"company_users"`
	Teams              int64                              `json:"teams"`
	OpenOpportunities  int64                              `json:"open_opportunities"`
	ApplicationsByStep map[models.ApplicationStatus]int64 `json:"applications_by_status"`
	PendingOffers      int64                              `json:"pending_offers"`
	AcceptedOffers     int64                              `json:"accepted_offers"`
	PendingEOIs        int64                              `json:"pending_eois"`
}

// Stats returns platform-wide counts for the admin dashboard.
func (s *AdminService) Stats(ctx context.Context) (*PlatformStats, error) {
	db := s.db.WithContext(ctx)
	stats := &PlatformStats{ApplicationsByStep: map[models.ApplicationStatus]int64{}}

	counts := []struct {
		query *gorm.DB
		dest  *int64
	}{
		{db.Model(&models.User{}), &stats.TotalUsers},
		{db.Model(&models.User{}).Where("role = ?", models.RoleTeamMember), &stats.TeamMembers},
		{db.Model(&models.User{}).Where("role = ?", models.RoleCompanyUser), &stats.CompanyUsers},
		{db.Model(&models.Team{}), &stats.Teams},
		{db.Model(&models.Opportunity{}).Where("status = ?", models.OpportunityStatusActive), &stats.OpenOpportunities},
		{db.Model(&models.Application{}).Where("offer_status = ?", models.OfferStatusPending), &stats.PendingOffers},
		{db.Model(&models.Application{}).Where("offer_status = ?", models.OfferStatusAccepted), &stats.AcceptedOffers},
		{db.Model(&models.ExpressionOfInterest{}).Where("status = ?", models.EOIStatusPending), &stats.PendingEOIs},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	var rows []struct {
		Status models.ApplicationStatus
		Total  int64
	}
	if err := db.Model(&models.Application{}).
		Select("status, COUNT(*) as total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		stats.ApplicationsByStep[r.Status] = r.Total
	}

	return stats, nil
}

// ListUsers returns all users, optionally filtered by role.
func (s *AdminService) ListUsers(ctx context.Context, role models.UserRole) ([]models.User, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}

	var users []models.User
	err := query.Order("created_at DESC").Find(&users).Error
	return users, err
}
