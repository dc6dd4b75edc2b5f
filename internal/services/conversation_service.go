package services

import (
	"context"
	"errors"

	"github.com/ezhulati/liftout-platform-sub011/internal/database"
	"github.com/ezhulati/liftout-platform-sub011/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConversationService opens message threads. Implementations must treat
// originRef as an idempotency key: the same ref always yields the same
// conversation.
type ConversationService interface {
	CreateConversation(ctx context.Context, participants []uuid.UUID, subject, originRef string) (uuid.UUID, error)
}

// StoreConversationService keeps conversations in the platform database.
type StoreConversationService struct {
	db *gorm.DB
}

func NewStoreConversationService(db *gorm.DB) *StoreConversationService {
	return &StoreConversationService{db: db}
}

func (s *StoreConversationService) CreateConversation(ctx context.Context, participants []uuid.UUID, subject, originRef string) (uuid.UUID, error) {
	db := s.db.WithContext(ctx)

	existing, err := s.byOrigin(db, originRef)
	if err != nil || existing != nil {
		return idOf(existing), err
	}

	conv := &models.Conversation{
		OriginRef:    originRef,
		Subject:      subject,
		Participants: participants,
	}
	if err := db.Create(conv).Error; err != nil {
		if database.IsUniqueViolation(err) {
			// Lost a race with another caller for the same origin.
			existing, err := s.byOrigin(db, originRef)
			return idOf(existing), err
		}
		return uuid.Nil, err
	}
	return conv.ID, nil
}

func (s *StoreConversationService) byOrigin(db *gorm.DB, originRef string) (*models.Conversation, error) {
	var conv models.Conversation
	err := db.Where("origin_ref = ?", originRef).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func idOf(conv *models.Conversation) uuid.UUID {
	if conv == nil {
		return uuid.Nil
	}
	return conv.ID
}
