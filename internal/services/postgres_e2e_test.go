//go:build e2e

package services

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ezhulati/liftout-platform-sub011/internal/apperrors"
	"github.com/ezhulati/liftout-platform-sub011/internal/database"
	"github.com/ezhulati/liftout-platform-sub011/internal/models"
	"github.com/ezhulati/liftout-platform-sub011/internal/testutil"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// startPostgres returns a migrated postgres database. E2E_DSN points at an
// existing server; otherwise a throwaway container is started.
func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	dsn := os.Getenv("E2E_DSN")
	if dsn == "" {
		container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
			ContainerRequest: tc.ContainerRequest{
				Image:        "postgres:16-alpine",
				ExposedPorts: []string{"5432/tcp"},
				Env: map[string]string{
					"POSTGRES_USER":     "test",
					"POSTGRES_PASSWORD": "test",
					"POSTGRES_DB":       "liftout",
				},
				WaitingFor: wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60 * time.Second),
			},
			Started: true,
		})
		if err != nil {
			t.Fatalf("failed to start postgres container: %v", err)
		}
		t.Cleanup(func() { _ = container.Terminate(context.Background()) })

		host, err := container.Host(ctx)
		if err != nil {
			t.Fatalf("failed to get container host: %v", err)
		}
		port, err := container.MappedPort(ctx, "5432")
		if err != nil {
			t.Fatalf("failed to get mapped port: %v", err)
		}
		dsn = "postgres://test:test@" + host + ":" + port.Port() + "/liftout?sslmode=disable"
	}

	cfg := testutil.Config()
	cfg.DatabaseType = "postgres"
	cfg.DatabaseURL = dsn
	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate postgres: %v", err)
	}
	return db
}

func TestPostgres_ConcurrentSubmitAdmitsOne(t *testing.T) {
	f := newFixtureOn(t, startPostgres(t))
	w := f.world(t)

	const racers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.apps.SubmitApplication(context.Background(), w.member, SubmitApplicationInput{TeamID: w.team.ID, OpportunityID: w.opp.ID})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, apperrors.ErrConflict):
				conflicts++
			default:
				t.Errorf("SubmitApplication() unexpected error = %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 || conflicts != racers-1 {
		t.Errorf("succeeded=%d conflicts=%d, want 1 and %d", succeeded, conflicts, racers-1)
	}
}

func TestPostgres_ConcurrentTransitionsLinearise(t *testing.T) {
	f := newFixtureOn(t, startPostgres(t))
	w := f.world(t)
	app := f.submit(t, w)

	targets := []models.ApplicationStatus{models.ApplicationStatusReviewing, models.ApplicationStatusRejected}
	errs := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, to := range targets {
		wg.Add(1)
		go func(i int, to models.ApplicationStatus) {
			defer wg.Done()
			_, errs[i] = f.apps.TransitionApplication(context.Background(), w.company, app.ID, TransitionInput{Status: to})
		}(i, to)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		if !errors.Is(err, apperrors.ErrConflict) && !errors.Is(err, apperrors.ErrInvalidTransition) {
			t.Errorf("loser error = %v, want Conflict or InvalidTransition", err)
		}
	}
	if ok < 1 {
		t.Fatal("no transition succeeded")
	}

	var history int64
	f.db.Model(&models.ApplicationTransition{}).Where("application_id = ?", app.ID).Count(&history)
	if want := int64(1 + ok); history != want {
		t.Errorf("history rows = %d, want %d", history, want)
	}
}

func TestPostgres_ConcurrentLeavesKeepMinimum(t *testing.T) {
	f := newFixtureOn(t, startPostgres(t))
	w := f.world(t)

	leavers := []models.Actor{w.member, w.member2}
	errs := make([]error, len(leavers))
	var wg sync.WaitGroup
	for i, actor := range leavers {
		wg.Add(1)
		go func(i int, actor models.Actor) {
			defer wg.Done()
			errs[i] = f.roster.LeaveTeam(context.Background(), actor, w.team.ID)
		}(i, actor)
	}
	wg.Wait()

	left := 0
	for _, err := range errs {
		switch {
		case err == nil:
			left++
		case errors.Is(err, apperrors.ErrMinimumTeamSize):
		default:
			t.Errorf("LeaveTeam() unexpected error = %v", err)
		}
	}
	if left != 1 {
		t.Errorf("members who left = %d, want 1", left)
	}

	members, _, size := f.activeCounts(t, w.team)
	if members != models.MinimumTeamSize || size != models.MinimumTeamSize {
		t.Errorf("active=%d size=%d, want %d", members, size, models.MinimumTeamSize)
	}
}
