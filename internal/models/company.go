package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Company struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Website   string         `json:"website"`
	Industry  string         `json:"industry"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type OpportunityStatus string

const (
	OpportunityStatusActive OpportunityStatus = "active"
	OpportunityStatusClosed OpportunityStatus = "closed"
)

type OpportunityVisibility string

const (
	VisibilityPublic       OpportunityVisibility = "public"
	VisibilityConfidential OpportunityVisibility = "confidential"
)

type Opportunity struct {
	ID          uuid.UUID             `gorm:"type:uuid;primary_key" json:"id"`
	CompanyID   uuid.UUID             `gorm:"type:uuid;not null;index" json:"company_id"`
	CreatedBy   uuid.UUID             `gorm:"type:uuid;not null" json:"created_by"`
	Title       string                `gorm:"not null" json:"title"`
	Description string                `gorm:"type:text" json:"description"`
	Location    string                `json:"location"`
	TeamSizeMin int                   `json:"team_size_min"`
	TeamSizeMax int                   `json:"team_size_max"`
	Status      OpportunityStatus     `gorm:"type:varchar(20);default:'active'" json:"status"`
	Visibility  OpportunityVisibility `gorm:"type:varchar(20);default:'public'" json:"visibility"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	DeletedAt   gorm.DeletedAt        `gorm:"index" json:"-"`

	// Relations
	Company *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}

func (o *Opportunity) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (o *Opportunity) IsOpen() bool {
	return o.Status == OpportunityStatusActive
}

// OpportunityPublicInfo is what a team sees for a confidential opportunity
// before engaging.
type OpportunityPublicInfo struct {
	ID          uuid.UUID             `json:"id"`
	Title       string                `json:"title"`
	Location    string                `json:"location"`
	TeamSizeMin int                   `json:"team_size_min"`
	TeamSizeMax int                   `json:"team_size_max"`
	Visibility  OpportunityVisibility `json:"visibility"`
	CreatedAt   time.Time             `json:"created_at"`
}

func (o *Opportunity) ToPublicInfo() OpportunityPublicInfo {
	return OpportunityPublicInfo{
		ID:          o.ID,
		Title:       o.Title,
		Location:    o.Location,
		TeamSizeMin: o.TeamSizeMin,
		TeamSizeMax: o.TeamSizeMax,
		Visibility:  o.Visibility,
		CreatedAt:   o.CreatedAt,
	}
}
