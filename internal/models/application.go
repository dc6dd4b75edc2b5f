package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	ApplicationStatusSubmitted    ApplicationStatus = "submitted"
	ApplicationStatusReviewing    ApplicationStatus = "reviewing"
	ApplicationStatusInterviewing ApplicationStatus = "interviewing"
	// ApplicationStatusAccepted means an offer has been extended. Whether the
	// team took it is tracked on Offer.Status.
	ApplicationStatusAccepted  ApplicationStatus = "accepted"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
	ApplicationStatusWithdrawn ApplicationStatus = "withdrawn"
)

// ApplicationStatuses lists every status in lifecycle order.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationStatusSubmitted,
	ApplicationStatusReviewing,
	ApplicationStatusInterviewing,
	ApplicationStatusAccepted,
	ApplicationStatusRejected,
	ApplicationStatusWithdrawn,
}

// Party is a side of an engagement.
type Party string

const (
	PartyTeam    Party = "team"
	PartyCompany Party = "company"
)

// applicationTransitions is the legal edge set. Anything not listed is an
// invalid transition.
var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationStatusSubmitted:    {ApplicationStatusReviewing, ApplicationStatusRejected, ApplicationStatusWithdrawn},
	ApplicationStatusReviewing:    {ApplicationStatusInterviewing, ApplicationStatusRejected, ApplicationStatusWithdrawn},
	ApplicationStatusInterviewing: {ApplicationStatusAccepted, ApplicationStatusRejected},
}

func (s ApplicationStatus) IsValid() bool {
	for _, known := range ApplicationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether to is reachable from s in one step.
func (s ApplicationStatus) CanTransitionTo(to ApplicationStatus) bool {
	for _, next := range applicationTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s ApplicationStatus) IsTerminal() bool {
	return len(applicationTransitions[s]) == 0
}

// BlocksResubmission reports whether an application in this status prevents
// the same team from applying to the same opportunity again.
func (s ApplicationStatus) BlocksResubmission() bool {
	return s != ApplicationStatusRejected && s != ApplicationStatusWithdrawn
}

// Owner returns the party allowed to move an application into s. Statuses
// nobody may enter (submitted) return the empty party.
func (s ApplicationStatus) Owner() Party {
	switch s {
	case ApplicationStatusWithdrawn:
		return PartyTeam
	case ApplicationStatusReviewing, ApplicationStatusInterviewing,
		ApplicationStatusAccepted, ApplicationStatusRejected:
		return PartyCompany
	default:
		return ""
	}
}

// Message is the human-readable result of entering s.
func (s ApplicationStatus) Message() string {
	switch s {
	case ApplicationStatusSubmitted:
		return "Application submitted successfully"
	case ApplicationStatusReviewing:
		return "Application is now under review"
	case ApplicationStatusInterviewing:
		return "Interview scheduled"
	case ApplicationStatusAccepted:
		return "Offer extended to the team"
	case ApplicationStatusRejected:
		return "Application rejected"
	case ApplicationStatusWithdrawn:
		return "Application withdrawn"
	default:
		return "Application updated"
	}
}

type InterviewDetails struct {
	Format          string     `json:"format,omitempty"`
	DurationMinutes int        `json:"duration_minutes,omitempty"`
	Participants    []string   `gorm:"serializer:json" json:"participants,omitempty"`
	Notes           string     `gorm:"type:text" json:"notes,omitempty"`
	ScheduledFor    *time.Time `json:"scheduled_for,omitempty"`
}

type OfferStatus string

const (
	OfferStatusNone     OfferStatus = ""
	OfferStatusPending  OfferStatus = "pending"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusDeclined OfferStatus = "declined"
	OfferStatusExpired  OfferStatus = "expired"
)

type Offer struct {
	Compensation     float64     `json:"compensation"`
	Currency         string      `gorm:"type:varchar(3)" json:"currency,omitempty"`
	Equity           float64     `json:"equity,omitempty"` // percentage
	StartDate        *time.Time  `json:"start_date,omitempty"`
	Terms            string      `gorm:"type:text" json:"terms,omitempty"`
	ResponseDeadline *time.Time  `json:"response_deadline,omitempty"`
	Status           OfferStatus `gorm:"type:varchar(20);index" json:"status,omitempty"`
	RespondedAt      *time.Time  `json:"responded_at,omitempty"`
}

func (o Offer) Exists() bool {
	return o.Status != OfferStatusNone
}

func (o Offer) IsPastDeadline(now time.Time) bool {
	return o.ResponseDeadline != nil && now.After(*o.ResponseDeadline)
}

type Application struct {
	ID                   uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	TeamID               uuid.UUID         `gorm:"type:uuid;not null;index" json:"team_id"`
	OpportunityID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"opportunity_id"`
	SubmittedBy          uuid.UUID         `gorm:"type:uuid;not null" json:"submitted_by"`
	Status               ApplicationStatus `gorm:"type:varchar(20);not null;default:'submitted';index" json:"status"`
	CoverLetter          string            `gorm:"type:text" json:"cover_letter"`
	AppliedAt            time.Time         `gorm:"not null" json:"applied_at"`
	ReviewedAt           *time.Time        `json:"reviewed_at,omitempty"`
	InterviewScheduledAt *time.Time        `json:"interview_scheduled_at,omitempty"`
	OfferMadeAt          *time.Time        `json:"offer_made_at,omitempty"`
	FinalDecisionAt      *time.Time        `json:"final_decision_at,omitempty"`
	Interview            InterviewDetails  `gorm:"embedded;embeddedPrefix:interview_" json:"interview"`
	Offer                Offer             `gorm:"embedded;embeddedPrefix:offer_" json:"offer"`
	RecruiterNotes       string            `gorm:"type:text" json:"recruiter_notes,omitempty"`
	HiringManagerNotes   string            `gorm:"type:text" json:"hiring_manager_notes,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
	DeletedAt            gorm.DeletedAt    `gorm:"index" json:"-"`

	// Relations
	Team        *Team                   `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	Opportunity *Opportunity            `gorm:"foreignKey:OpportunityID" json:"opportunity,omitempty"`
	History     []ApplicationTransition `gorm:"foreignKey:ApplicationID" json:"history,omitempty"`
}

func (a *Application) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.AppliedAt.IsZero() {
		a.AppliedAt = time.Now()
	}
	if a.Status == "" {
		a.Status = ApplicationStatusSubmitted
	}
	return nil
}

// ApplicationTransition is an append-only record of one status change.
type ApplicationTransition struct {
	ID            uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	ApplicationID uuid.UUID         `gorm:"type:uuid;not null;index" json:"application_id"`
	FromStatus    ApplicationStatus `gorm:"type:varchar(20)" json:"from_status"`
	ToStatus      ApplicationStatus `gorm:"type:varchar(20);not null" json:"to_status"`
	ActorID       uuid.UUID         `gorm:"type:uuid;not null" json:"actor_id"`
	Reason        string            `gorm:"type:text" json:"reason,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

func (t *ApplicationTransition) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
