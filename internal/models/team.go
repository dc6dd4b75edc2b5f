package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MinimumTeamSize is the smallest roster a team may shrink to.
const MinimumTeamSize = 2

type Team struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Size        int            `gorm:"not null;default:0" json:"size"`
	CreatedBy   uuid.UUID      `gorm:"type:uuid;not null;index" json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Members []TeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type MemberRole string

const (
	MemberRoleMember MemberRole = "member"
	MemberRoleLead   MemberRole = "lead"
	MemberRoleAdmin  MemberRole = "admin"
)

type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
	MemberStatusPending  MemberStatus = "pending"
)

type TeamMember struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	TeamID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_team_member" json:"team_id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_team_member" json:"user_id"`
	Role      MemberRole     `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	Status    MemberStatus   `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	IsLead    bool           `gorm:"default:false" json:"is_lead"`
	IsAdmin   bool           `gorm:"default:false" json:"is_admin"`
	JoinedAt  time.Time      `gorm:"not null" json:"joined_at"`
	LeftAt    *time.Time     `json:"left_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (m *TeamMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now()
	}
	return nil
}

func (m *TeamMember) IsActive() bool {
	return m.Status == MemberStatusActive
}

// CanManageRoster reports whether the member may add, remove or promote
// other members.
func (m *TeamMember) CanManageRoster() bool {
	return m.IsActive() && (m.IsLead || m.IsAdmin)
}
