package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleTeamMember  UserRole = "team_member"
	RoleCompanyUser UserRole = "company_user"
	RoleAdmin       UserRole = "admin"
)

type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Role         UserRole       `gorm:"type:varchar(20);not null" json:"role"`
	FirstName    string         `gorm:"not null" json:"first_name"`
	LastName     string         `gorm:"not null" json:"last_name"`
	Title        string         `json:"title"`
	CompanyID    *uuid.UUID     `gorm:"type:uuid;index" json:"company_id,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Company *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// BelongsToCompany reports whether the user acts for the given company.
func (u *User) BelongsToCompany(companyID uuid.UUID) bool {
	return u.Role == RoleCompanyUser && u.CompanyID != nil && *u.CompanyID == companyID
}

// UserResponse is a safe representation without sensitive fields
type UserResponse struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	Role      UserRole   `json:"role"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Title     string     `json:"title"`
	CompanyID *uuid.UUID `json:"company_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Title:     u.Title,
		CompanyID: u.CompanyID,
		CreatedAt: u.CreatedAt,
	}
}

// Actor is the authenticated caller as supplied by the identity provider.
type Actor struct {
	UserID    uuid.UUID
	Role      UserRole
	CompanyID *uuid.UUID
}

// IsCompanyUserOf reports whether the actor acts for the given company.
func (a Actor) IsCompanyUserOf(companyID uuid.UUID) bool {
	return a.Role == RoleCompanyUser && a.CompanyID != nil && *a.CompanyID == companyID
}
