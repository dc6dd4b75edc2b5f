package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ezhulati/liftout-platform-sub011/internal/apperrors"
	"github.com/ezhulati/liftout-platform-sub011/internal/logger"
	"github.com/ezhulati/liftout-platform-sub011/internal/models"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// Notifier delivers one notification to one user.
type Notifier interface {
	Emit(ctx context.Context, userID uuid.UUID, kind models.NotificationType, payload map[string]any) error
}

// StoreNotifier writes notifications to the in-app inbox.
type StoreNotifier struct {
	db *gorm.DB
}

func NewStoreNotifier(db *gorm.DB) *StoreNotifier {
	return &StoreNotifier{db: db}
}

func (n *StoreNotifier) Emit(ctx context.Context, userID uuid.UUID, kind models.NotificationType, payload map[string]any) error {
	return n.db.WithContext(ctx).Create(&models.Notification{
		UserID:  userID,
		Type:    kind,
		Payload: payload,
	}).Error
}

// FanoutNotifier emits to every notifier and joins their failures.
type FanoutNotifier []Notifier

func (f FanoutNotifier) Emit(ctx context.Context, userID uuid.UUID, kind models.NotificationType, payload map[string]any) error {
	var err error
	for _, n := range f {
		err = multierr.Append(err, n.Emit(ctx, userID, kind, payload))
	}
	return err
}

// Dispatcher runs notifications off the request path once the state change
// they describe has committed. Failures are logged and dropped.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	log      *logger.Logger
	wg       sync.WaitGroup
}

func NewDispatcher(notifier Notifier, timeout time.Duration, log *logger.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{notifier: notifier, timeout: timeout, log: log}
}

// Notify schedules delivery and returns immediately. A nil user is skipped.
func (d *Dispatcher) Notify(userID uuid.UUID, kind models.NotificationType, payload map[string]any) {
	if d == nil || userID == uuid.Nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.notifier.Emit(ctx, userID, kind, payload); err != nil {
			for _, e := range multierr.Errors(err) {
				d.log.Warn("notification delivery failed",
					"user_id", userID.String(),
					"type", string(kind),
					"error", e,
				)
			}
		}
	}()
}

// Wait blocks until every scheduled notification has finished.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

// Drain waits for in-flight notifications until ctx is done. It reports
// whether everything finished.
func (d *Dispatcher) Drain(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

// NotificationService serves a user's inbox.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}

	var notifications []models.Notification
	err := query.Order("created_at DESC").Limit(100).Find(&notifications).Error
	return notifications, err
}

// MarkRead stamps a notification read. Marking twice keeps the first stamp.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (*models.Notification, error) {
	const op = "notifications.MarkRead"

	var n models.Notification
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", notificationID, userID).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound(op, "notification %s not found", notificationID)
	}
	if err != nil {
		return nil, err
	}
	if n.ReadAt != nil {
		return &n, nil
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&n).Update("read_at", now).Error; err != nil {
		return nil, err
	}
	n.ReadAt = &now
	return &n, nil
}
