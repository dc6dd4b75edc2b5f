package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotifyApplicationSubmitted NotificationType = "application_submitted"
	NotifyApplicationStatus    NotificationType = "application_status_changed"
	NotifyOfferExtended        NotificationType = "offer_extended"
	NotifyOfferAccepted        NotificationType = "offer_accepted"
	NotifyOfferDeclined        NotificationType = "offer_declined"
	NotifyEOIReceived          NotificationType = "eoi_received"
	NotifyEOIResponded         NotificationType = "eoi_responded"
	NotifyTeamMemberLeft       NotificationType = "team_member_left"
)

// Notification is a persisted inbox entry.
type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Type      NotificationType `gorm:"type:varchar(40);not null" json:"type"`
	Payload   map[string]any   `gorm:"serializer:json" json:"payload"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// Conversation is the record the default conversation service keeps. Only
// its creation is driven from here; messaging happens elsewhere.
type Conversation struct {
	ID           uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	OriginRef    string      `gorm:"uniqueIndex;not null" json:"origin_ref"`
	Subject      string      `json:"subject"`
	Participants []uuid.UUID `gorm:"serializer:json" json:"participants"`
	CreatedAt    time.Time   `json:"created_at"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
