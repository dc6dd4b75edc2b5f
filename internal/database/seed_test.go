package database_test

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ezhulati/liftout-platform-sub011/internal/database"
	"github.com/ezhulati/liftout-platform-sub011/internal/models"
	"github.com/ezhulati/liftout-platform-sub011/internal/testutil"
	"gorm.io/gorm"
)

func plainHash(password string) (string, error) { return "hashed:" + password, nil }

func TestSeed_DemoIsIdempotent(t *testing.T) {
	db := testutil.OpenDB(t)
	fx, err := database.DemoFixtures()
	if err != nil {
		t.Fatalf("DemoFixtures() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := database.Seed(db, fx, plainHash); err != nil {
			t.Fatalf("Seed() run %d error = %v", i+1, err)
		}
	}

	counts := []struct {
		model any
		want  int
	}{
		{&models.Company{}, len(fx.Companies)},
		{&models.User{}, len(fx.Users)},
		{&models.Team{}, len(fx.Teams)},
		{&models.Opportunity{}, len(fx.Opportunities)},
	}
	for _, c := range counts {
		var n int64
		if err := db.Model(c.model).Count(&n).Error; err != nil {
			t.Fatalf("count %T: %v", c.model, err)
		}
		if int(n) != c.want {
			t.Errorf("%T rows = %d, want %d", c.model, n, c.want)
		}
	}

	var lead models.TeamMember
	err = db.Joins("JOIN users ON users.id = team_members.user_id").
		Where("users.email = ?", fx.Teams[0].Creator).
		First(&lead).Error
	if err != nil {
		t.Fatalf("load creator membership: %v", err)
	}
	if !lead.IsLead || !lead.IsAdmin {
		t.Errorf("creator membership = %+v, want lead and admin", lead)
	}

	var user models.User
	if err := db.First(&user, "email = ?", fx.Users[0].Email).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if !strings.HasPrefix(user.PasswordHash, "hashed:") {
		t.Errorf("PasswordHash = %q, want hasher output", user.PasswordHash)
	}
}

func TestLoadFixtures_RejectsUnknownFields(t *testing.T) {
	_, err := database.LoadFixtures(strings.NewReader("users:\n  - email: a@b.test\n    nickname: ace\n"))
	if err == nil {
		t.Fatal("LoadFixtures() accepted an unknown field")
	}
}

func TestSeed_UnknownReferenceRollsBack(t *testing.T) {
	db := testutil.OpenDB(t)
	fx := &database.Fixtures{
		Users: []database.UserFixture{{Email: "x@y.test", Password: "pw", FirstName: "X", LastName: "Y", Role: models.RoleTeamMember}},
		Teams: []database.TeamFixture{{Name: "Ghost", Creator: "nobody@y.test"}},
	}

	if err := database.Seed(db, fx, plainHash); err == nil {
		t.Fatal("Seed() accepted a team with an unknown creator")
	}
	var user models.User
	if err := db.First(&user, "email = ?", "x@y.test").Error; !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("user survived rollback: err = %v", err)
	}
}

func TestLiveApplicationIndex(t *testing.T) {
	db := testutil.OpenDB(t)

	var n int64
	err := db.Raw("SELECT count(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_applications_live_pair'").Scan(&n).Error
	if err != nil {
		t.Fatalf("query index: %v", err)
	}
	if n != 1 {
		t.Errorf("idx_applications_live_pair present = %d, want 1", n)
	}
}

func TestMigrate_FileDatabaseTwice(t *testing.T) {
	cfg := testutil.Config()
	cfg.DatabaseURL = filepath.Join(t.TempDir(), "liftout.db")

	for i := 0; i < 2; i++ {
		db, err := database.Open(cfg)
		if err != nil {
			t.Fatalf("Open() run %d error = %v", i+1, err)
		}
		if err := database.Migrate(db); err != nil {
			t.Fatalf("Migrate() run %d error = %v", i+1, err)
		}
		if err := database.Migrate(db); err != nil {
			t.Fatalf("Migrate() run %d again error = %v", i+1, err)
		}

		var n int64
		db.Raw("SELECT count(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_applications_live_pair'").Scan(&n)
		if n != 1 {
			t.Errorf("run %d: idx_applications_live_pair present = %d, want 1", i+1, n)
		}
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
