package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ezhulati/liftout-platform-sub011/internal/logger"
	"github.com/ezhulati/liftout-platform-sub011/internal/models"
	"github.com/ezhulati/liftout-platform-sub011/internal/testutil"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type emitted struct {
	UserID  uuid.UUID
	Kind    models.NotificationType
	Payload map[string]any
}

// recordingNotifier keeps every emitted notification in memory.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []emitted
	fail error
}

func (r *recordingNotifier) Emit(ctx context.Context, userID uuid.UUID, kind models.NotificationType, payload map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.sent = append(r.sent, emitted{UserID: userID, Kind: kind, Payload: payload})
	return nil
}

func (r *recordingNotifier) count(userID uuid.UUID, kind models.NotificationType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.sent {
		if e.UserID == userID && e.Kind == kind {
			n++
		}
	}
	return n
}

// countingConversations wraps the store implementation and counts requests.
type countingConversations struct {
	inner ConversationService
	mu    sync.Mutex
	calls int
	fail  bool
}

func (c *countingConversations) CreateConversation(ctx context.Context, participants []uuid.UUID, subject, originRef string) (uuid.UUID, error) {
	c.mu.Lock()
	c.calls++
	fail := c.fail
	c.mu.Unlock()
	if fail {
		return uuid.Nil, errors.New("conversation service down")
	}
	return c.inner.CreateConversation(ctx, participants, subject, originRef)
}

func (c *countingConversations) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fixture struct {
	db            *gorm.DB
	notes         *recordingNotifier
	dispatcher    *Dispatcher
	conversations *countingConversations

	roster *RosterService
	apps   *ApplicationService
	offers *OfferService
	eois   *EOIService
	opps   *OpportunityService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, testutil.OpenDB(t))
}

// newFixtureOn wires the services over an already migrated database.
func newFixtureOn(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()

	log := logger.Nop()
	notes := &recordingNotifier{}
	dispatcher := NewDispatcher(notes, time.Second, log)
	t.Cleanup(dispatcher.Wait)
	convs := &countingConversations{inner: NewStoreConversationService(db)}
	apps := NewApplicationService(db, dispatcher, log)

	return &fixture{
		db:            db,
		notes:         notes,
		dispatcher:    dispatcher,
		conversations: convs,
		roster:        NewRosterService(db, dispatcher, log),
		apps:          apps,
		offers:        NewOfferService(apps),
		eois:          NewEOIService(db, dispatcher, convs, models.DefaultEOITTL, time.Second, log),
		opps:          NewOpportunityService(db, log),
	}
}

func (f *fixture) user(t *testing.T, role models.UserRole, companyID *uuid.UUID) models.Actor {
	t.Helper()
	u := models.User{
		Email:        fmt.Sprintf("%s@example.test", uuid.NewString()[:8]),
		PasswordHash: "x",
		FirstName:    "Test",
		LastName:     string(role),
		Role:         role,
		CompanyID:    companyID,
	}
	if err := f.db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return models.Actor{UserID: u.ID, Role: u.Role, CompanyID: u.CompanyID}
}

func (f *fixture) companyUser(t *testing.T) models.Actor {
	t.Helper()
	company := models.Company{Name: "Acme " + uuid.NewString()[:4]}
	if err := f.db.Create(&company).Error; err != nil {
		t.Fatalf("create company: %v", err)
	}
	return f.user(t, models.RoleCompanyUser, &company.ID)
}

// team creates a team led by its creator with the given extra members.
// Members listed in leads are also made leads.
func (f *fixture) team(t *testing.T, creator models.Actor, members []models.Actor, leads ...models.Actor) *models.Team {
	t.Helper()
	ctx := context.Background()

	team, err := f.roster.CreateTeam(ctx, creator, CreateTeamInput{Name: "Team " + uuid.NewString()[:4]})
	if err != nil {
		t.Fatalf("CreateTeam() error = %v", err)
	}
	for _, m := range members {
		isLead := false
		for _, l := range leads {
			if l.UserID == m.UserID {
				isLead = true
			}
		}
		if _, err := f.roster.AddMember(ctx, creator, team.ID, AddMemberInput{UserID: m.UserID, Lead: isLead}); err != nil {
			t.Fatalf("AddMember() error = %v", err)
		}
	}
	return team
}

func (f *fixture) opportunity(t *testing.T, owner models.Actor) *models.Opportunity {
	t.Helper()
	opp, err := f.opps.CreateOpportunity(context.Background(), owner, OpportunityInput{
		Title:       "Platform team " + uuid.NewString()[:4],
		TeamSizeMin: 2,
		TeamSizeMax: 6,
	})
	if err != nil {
		t.Fatalf("CreateOpportunity() error = %v", err)
	}
	return opp
}

// world is a team of three and a company with one open opportunity.
type world struct {
	company models.Actor
	lead    models.Actor
	member  models.Actor
	member2 models.Actor
	team    *models.Team
	opp     *models.Opportunity
}

func (f *fixture) world(t *testing.T) *world {
	t.Helper()
	w := &world{
		company: f.companyUser(t),
		lead:    f.user(t, models.RoleTeamMember, nil),
		member:  f.user(t, models.RoleTeamMember, nil),
		member2: f.user(t, models.RoleTeamMember, nil),
	}
	w.team = f.team(t, w.lead, []models.Actor{w.member, w.member2})
	w.opp = f.opportunity(t, w.company)
	return w
}

func (f *fixture) submit(t *testing.T, w *world) *models.Application {
	t.Helper()
	app, err := f.apps.SubmitApplication(context.Background(), w.member, SubmitApplicationInput{
		TeamID:        w.team.ID,
		OpportunityID: w.opp.ID,
		CoverLetter:   "We ship together.",
	})
	if err != nil {
		t.Fatalf("SubmitApplication() error = %v", err)
	}
	return app
}

// forceStatus puts an application into a status without going through the
// state machine.
func (f *fixture) forceStatus(t *testing.T, appID uuid.UUID, status models.ApplicationStatus) {
	t.Helper()
	if err := f.db.Model(&models.Application{}).Where("id = ?", appID).Update("status", status).Error; err != nil {
		t.Fatalf("force status: %v", err)
	}
}

func (f *fixture) storedStatus(t *testing.T, appID uuid.UUID) models.ApplicationStatus {
	t.Helper()
	var app models.Application
	if err := f.db.First(&app, "id = ?", appID).Error; err != nil {
		t.Fatalf("load application: %v", err)
	}
	return app.Status
}

func validOffer(start time.Time) OfferDetails {
	return OfferDetails{
		Compensation: 150000,
		Currency:     "usd",
		StartDate:    &start,
		Terms:        "Whole team joins the platform group.",
	}
}

func wantKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("error = %v, want kind %v", err, kind)
	}
}
