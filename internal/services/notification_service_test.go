package services

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/ezhulati/liftout-platform-sub011/internal/apperrors"
	"github.com/ezhulati/liftout-platform-sub011/internal/logger"
	"github.com/ezhulati/liftout-platform-sub011/internal/models"
	"github.com/ezhulati/liftout-platform-sub011/internal/testutil"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

func TestFanoutNotifier(t *testing.T) {
	ok := &recordingNotifier{}
	broken := &recordingNotifier{fail: errors.New("smtp down")}
	broken2 := &recordingNotifier{fail: errors.New("queue full")}

	userID := uuid.New()
	err := FanoutNotifier{broken, ok, broken2}.Emit(context.Background(), userID, models.NotifyOfferExtended, nil)

	if got := len(multierr.Errors(err)); got != 2 {
		t.Errorf("joined errors = %d, want 2 (%v)", got, err)
	}
	if n := ok.count(userID, models.NotifyOfferExtended); n != 1 {
		t.Errorf("healthy notifier got %d, want 1", n)
	}
}

func TestDispatcher_FailureDoesNotPropagate(t *testing.T) {
	notes := &recordingNotifier{fail: errors.New("unreachable")}
	d := NewDispatcher(notes, 50*time.Millisecond, logger.Nop())

	d.Notify(uuid.New(), models.NotifyApplicationStatus, map[string]any{"status": "reviewing"})
	d.Notify(uuid.Nil, models.NotifyApplicationStatus, nil)
	d.Wait()

	var nilDispatcher *Dispatcher
	nilDispatcher.Notify(uuid.New(), models.NotifyApplicationStatus, nil)
	nilDispatcher.Wait()
}

func TestStoreNotifierAndInbox(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	userID := uuid.New()
	other := uuid.New()

	store := NewStoreNotifier(db)
	for _, kind := range []models.NotificationType{models.NotifyApplicationSubmitted, models.NotifyOfferExtended} {
		if err := store.Emit(ctx, userID, kind, map[string]any{"application_id": "a1"}); err != nil {
			t.Fatalf("Emit() error = %v", err)
		}
	}
	if err := store.Emit(ctx, other, models.NotifyEOIReceived, nil); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	inbox := NewNotificationService(db)
	list, err := inbox.List(ctx, userID, false)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len(List) = %d, want 2", len(list))
	}
	if list[0].Payload["application_id"] != "a1" {
		t.Errorf("Payload = %v, want application_id a1", list[0].Payload)
	}

	read, err := inbox.MarkRead(ctx, userID, list[0].ID)
	if err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if read.ReadAt == nil {
		t.Error("ReadAt not stamped")
	}

	unread, err := inbox.List(ctx, userID, true)
	if err != nil {
		t.Fatalf("List(unread) error = %v", err)
	}
	if len(unread) != 1 {
		t.Errorf("len(unread) = %d, want 1", len(unread))
	}

	_, err = inbox.MarkRead(ctx, other, list[1].ID)
	wantKind(t, err, apperrors.ErrNotFound)
}

func TestEmailNotifier_Compose(t *testing.T) {
	db := testutil.OpenDB(t)
	cfg := testutil.Config()
	n := NewEmailNotifier(db, cfg, logger.Nop())

	user := models.User{Email: "lead@crew.test", PasswordHash: "x", FirstName: "Ada", LastName: "L", Role: models.RoleTeamMember}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	tests := []struct {
		kind        models.NotificationType
		payload     map[string]any
		wantSubject string
		wantBody    string
	}{
		{models.NotifyOfferExtended, map[string]any{"opportunity": "Platform", "team_name": "Crew", "application_id": "a1"}, "Offer received for Platform", "Crew"},
		{models.NotifyOfferDeclined, map[string]any{"opportunity": "Platform", "team_name": "Crew"}, "has been declined", "declined"},
		{models.NotifyTeamMemberLeft, map[string]any{"team_name": "<b>Crew</b>", "team_size": 2}, "A member left", "&lt;b&gt;Crew&lt;/b&gt;"},
		{"something_new", nil, "You have a new notification", "Something changed"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			data := n.compose(&user, tt.kind, tt.payload)
			if !strings.Contains(data.Subject, tt.wantSubject) {
				t.Errorf("Subject = %q, want it to contain %q", data.Subject, tt.wantSubject)
			}
			body, err := n.renderEmail(data)
			if err != nil {
				t.Fatalf("renderEmail() error = %v", err)
			}
			if !strings.Contains(body, tt.wantBody) {
				t.Errorf("body does not contain %q", tt.wantBody)
			}
		})
	}

	// With no SMTP host the message is logged, not sent.
	if err := n.Emit(context.Background(), user.ID, models.NotifyOfferExtended, nil); err != nil {
		t.Errorf("Emit() error = %v", err)
	}
	if err := n.Emit(context.Background(), uuid.New(), models.NotifyOfferExtended, nil); err == nil {
		t.Error("Emit() to unknown user succeeded")
	}
}

func TestStoreConversationService_Idempotent(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := NewStoreConversationService(db)
	ctx := context.Background()
	people := []uuid.UUID{uuid.New(), uuid.New()}

	first, err := svc.CreateConversation(ctx, people, "hello", "eoi:1")
	if err != nil {
		t.Fatalf("CreateConversation() error = %v", err)
	}
	second, err := svc.CreateConversation(ctx, people, "hello again", "eoi:1")
	if err != nil {
		t.Fatalf("CreateConversation() error = %v", err)
	}
	if first != second {
		t.Errorf("second id = %v, want %v", second, first)
	}
	third, err := svc.CreateConversation(ctx, people, "other", "eoi:2")
	if err != nil {
		t.Fatalf("CreateConversation() error = %v", err)
	}
	if third == first {
		t.Error("different origin reused a conversation")
	}
}

func TestEmailNotifier_SilentServerHonoursDeadline(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		// Accept and never send the greeting.
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	db := testutil.OpenDB(t)
	cfg := testutil.Config()
	cfg.SMTPHost = "127.0.0.1"
	cfg.SMTPPort = ln.Addr().(*net.TCPAddr).Port
	n := NewEmailNotifier(db, cfg, logger.Nop())

	user := models.User{Email: "lead@crew.test", PasswordHash: "x", FirstName: "Ada", Role: models.RoleTeamMember}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- n.Emit(ctx, user.ID, models.NotifyOfferExtended, nil) }()

	select {
	case err := <-done:
		if err == nil {
			t.Error("Emit() error = nil, want a timeout")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Emit() still blocked 3s after a 100ms deadline")
	}
}

func TestFormatMessage_FlattensHeaderValues(t *testing.T) {
	msg := string(formatMessage("noreply@liftout.test", "lead@crew.test\r\nBcc: spy@evil.test",
		"Offer for Platform\r\nBcc: spy@evil.test", "<p>hi</p>"))

	head, _, ok := strings.Cut(msg, "\r\n\r\n")
	if !ok {
		t.Fatalf("no header terminator in %q", msg)
	}
	for _, line := range strings.Split(head, "\r\n") {
		if strings.HasPrefix(line, "Bcc:") {
			t.Errorf("injected header line %q", line)
		}
	}
	if !strings.Contains(head, "Subject: Offer for Platform Bcc: spy@evil.test") {
		t.Errorf("subject not flattened: %q", head)
	}
}

type blockingNotifier struct{ release chan struct{} }

func (b blockingNotifier) Emit(ctx context.Context, userID uuid.UUID, kind models.NotificationType, payload map[string]any) error {
	<-b.release
	return nil
}

func TestDispatcher_DrainIsBounded(t *testing.T) {
	release := make(chan struct{})
	d := NewDispatcher(blockingNotifier{release: release}, time.Second, logger.Nop())
	d.Notify(uuid.New(), models.NotifyApplicationStatus, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if d.Drain(ctx) {
		t.Error("Drain() = true while a notification is stuck")
	}

	close(release)
	if !d.Drain(context.Background()) {
		t.Error("Drain() = false after the notification finished")
	}
}
