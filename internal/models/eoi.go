package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EOIStatus string

const (
	EOIStatusPending  EOIStatus = "pending"
	EOIStatusAccepted EOIStatus = "accepted"
	EOIStatusDeclined EOIStatus = "declined"
	// EOIStatusExpired is never stored; it is derived when reading.
	EOIStatusExpired EOIStatus = "expired"
)

type InterestLevel string

const (
	InterestLow    InterestLevel = "low"
	InterestMedium InterestLevel = "medium"
	InterestHigh   InterestLevel = "high"
)

// DefaultEOITTL applies when no TTL is configured.
const DefaultEOITTL = 30 * 24 * time.Hour

// ExpressionOfInterest is a low-commitment signal between a team and a
// company. ToID is the user who answers for the receiving side.
type ExpressionOfInterest struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	FromType       Party          `gorm:"type:varchar(20);not null" json:"from_type"`
	FromID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"from_id"`
	SentBy         uuid.UUID      `gorm:"type:uuid;not null" json:"sent_by"`
	ToType         Party          `gorm:"type:varchar(20);not null" json:"to_type"`
	ToID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"to_id"`
	OpportunityID  *uuid.UUID     `gorm:"type:uuid;index" json:"opportunity_id,omitempty"`
	Message        string         `gorm:"type:text" json:"message"`
	InterestLevel  InterestLevel  `gorm:"type:varchar(20);default:'medium'" json:"interest_level"`
	Timeline       string         `json:"timeline,omitempty"`
	Status         EOIStatus      `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	ExpiresAt      *time.Time     `json:"expires_at,omitempty"`
	RespondedAt    *time.Time     `json:"responded_at,omitempty"`
	ConversationID *uuid.UUID     `gorm:"type:uuid" json:"conversation_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (e *ExpressionOfInterest) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = EOIStatusPending
	}
	if e.ExpiresAt == nil {
		expires := time.Now().Add(DefaultEOITTL)
		e.ExpiresAt = &expires
	}
	return nil
}

func (e *ExpressionOfInterest) IsExpired(now time.Time) bool {
	return e.Status == EOIStatusPending && e.ExpiresAt != nil && now.After(*e.ExpiresAt)
}

// EffectiveStatus folds the time-based expiry into the stored status.
func (e *ExpressionOfInterest) EffectiveStatus(now time.Time) EOIStatus {
	if e.IsExpired(now) {
		return EOIStatusExpired
	}
	return e.Status
}

// CanRespond reports whether the EOI still accepts an answer.
func (e *ExpressionOfInterest) CanRespond(now time.Time) bool {
	return e.Status == EOIStatusPending && !e.IsExpired(now)
}

// OriginRef is the idempotency key for the conversation an accepted EOI
// opens.
func (e *ExpressionOfInterest) OriginRef() string {
	return "eoi:" + e.ID.String()
}
