package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ezhulati/liftout-platform-sub011/internal/apperrors"
	"github.com/ezhulati/liftout-platform-sub011/internal/models"
)

func (f *fixture) activeCounts(t *testing.T, w *models.Team) (members, leads int64, size int) {
	t.Helper()
	var err error
	if members, err = f.roster.countActive(f.db, w.ID, false); err != nil {
		t.Fatalf("count members: %v", err)
	}
	if leads, err = f.roster.countActive(f.db, w.ID, true); err != nil {
		t.Fatalf("count leads: %v", err)
	}
	var team models.Team
	if err := f.db.First(&team, "id = ?", w.ID).Error; err != nil {
		t.Fatalf("load team: %v", err)
	}
	return members, leads, team.Size
}

func TestLeaveTeam_TwoMemberTeam(t *testing.T) {
	f := newFixture(t)
	lead := f.user(t, models.RoleTeamMember, nil)
	member := f.user(t, models.RoleTeamMember, nil)
	team := f.team(t, lead, []models.Actor{member})

	err := f.roster.LeaveTeam(context.Background(), member, team.ID)
	wantKind(t, err, apperrors.ErrMinimumTeamSize)

	members, leads, size := f.activeCounts(t, team)
	if members != 2 || leads != 1 || size != 2 {
		t.Errorf("members, leads, size = %d, %d, %d, want 2, 1, 2", members, leads, size)
	}
}

func TestLeaveTeam_Rules(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture, t *testing.T) (team *models.Team, leaver models.Actor)
		want  error
	}{
		{
			name: "creator cannot leave",
			setup: func(f *fixture, t *testing.T) (*models.Team, models.Actor) {
				lead := f.user(t, models.RoleTeamMember, nil)
				a := f.user(t, models.RoleTeamMember, nil)
				b := f.user(t, models.RoleTeamMember, nil)
				c := f.user(t, models.RoleTeamMember, nil)
				return f.team(t, lead, []models.Actor{a, b, c}, a), lead
			},
			want: apperrors.ErrForbidden,
		},
		{
			name: "last lead cannot leave",
			setup: func(f *fixture, t *testing.T) (*models.Team, models.Actor) {
				creator := f.user(t, models.RoleTeamMember, nil)
				a := f.user(t, models.RoleTeamMember, nil)
				b := f.user(t, models.RoleTeamMember, nil)
				team := f.team(t, creator, []models.Actor{a, b}, a)
				if _, err := f.roster.SetLead(context.Background(), creator, team.ID, creator.UserID, false); err != nil {
					t.Fatalf("SetLead() error = %v", err)
				}
				return team, a
			},
			want: apperrors.ErrLastLead,
		},
		{
			name: "last lead checked before size",
			setup: func(f *fixture, t *testing.T) (*models.Team, models.Actor) {
				creator := f.user(t, models.RoleTeamMember, nil)
				a := f.user(t, models.RoleTeamMember, nil)
				team := f.team(t, creator, []models.Actor{a}, a)
				if _, err := f.roster.SetLead(context.Background(), creator, team.ID, creator.UserID, false); err != nil {
					t.Fatalf("SetLead() error = %v", err)
				}
				return team, a
			},
			want: apperrors.ErrLastLead,
		},
		{
			name: "non-member",
			setup: func(f *fixture, t *testing.T) (*models.Team, models.Actor) {
				lead := f.user(t, models.RoleTeamMember, nil)
				a := f.user(t, models.RoleTeamMember, nil)
				return f.team(t, lead, []models.Actor{a}), f.user(t, models.RoleTeamMember, nil)
			},
			want: apperrors.ErrForbidden,
		},
		{
			name: "member of a team of three may leave",
			setup: func(f *fixture, t *testing.T) (*models.Team, models.Actor) {
				lead := f.user(t, models.RoleTeamMember, nil)
				a := f.user(t, models.RoleTeamMember, nil)
				b := f.user(t, models.RoleTeamMember, nil)
				return f.team(t, lead, []models.Actor{a, b}), b
			},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			team, leaver := tt.setup(f, t)
			before, _, _ := f.activeCounts(t, team)

			err := f.roster.LeaveTeam(context.Background(), leaver, team.ID)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("LeaveTeam() error = %v", err)
				}
			} else {
				wantKind(t, err, tt.want)
			}

			after, _, size := f.activeCounts(t, team)
			wantAfter := before
			if tt.want == nil {
				wantAfter = before - 1
			}
			if after != wantAfter || int64(size) != wantAfter {
				t.Errorf("active, size = %d, %d, want %d", after, size, wantAfter)
			}
		})
	}
}

func TestLeaveTeam_KeepsRosterRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	creator := f.user(t, models.RoleTeamMember, nil)
	var others []models.Actor
	for i := 0; i < 4; i++ {
		others = append(others, f.user(t, models.RoleTeamMember, nil))
	}
	team := f.team(t, creator, others, others[0])
	w := &world{company: f.companyUser(t), lead: creator, member: others[1], team: team}
	w.opp = f.opportunity(t, w.company)
	f.submit(t, w)

	// Everyone tries to leave, repeatedly, in every order we throw at it.
	everyone := append([]models.Actor{creator}, others...)
	for round := 0; round < 3; round++ {
		for _, a := range everyone {
			_ = f.roster.LeaveTeam(ctx, a, team.ID)

			members, leads, size := f.activeCounts(t, team)
			if members < models.MinimumTeamSize {
				t.Fatalf("active members = %d, below minimum", members)
			}
			if leads < 1 {
				t.Fatal("team has no active lead")
			}
			if int64(size) != members {
				t.Fatalf("Size = %d, active members = %d", size, members)
			}
		}
	}

	members, _, _ := f.activeCounts(t, team)
	if members != models.MinimumTeamSize {
		t.Errorf("settled at %d members, want %d", members, models.MinimumTeamSize)
	}
}

func TestLeaveTeam_NotifiesCreator(t *testing.T) {
	f := newFixture(t)
	w := f.world(t)

	if err := f.roster.LeaveTeam(context.Background(), w.member2, w.team.ID); err != nil {
		t.Fatalf("LeaveTeam() error = %v", err)
	}
	f.dispatcher.Wait()
	if n := f.notes.count(w.lead.UserID, models.NotifyTeamMemberLeft); n != 1 {
		t.Errorf("team_member_left notifications = %d, want 1", n)
	}

	var m models.TeamMember
	if err := f.db.Where("team_id = ? AND user_id = ?", w.team.ID, w.member2.UserID).First(&m).Error; err != nil {
		t.Fatalf("load membership: %v", err)
	}
	if m.Status != models.MemberStatusInactive || m.LeftAt == nil {
		t.Errorf("membership = %s left_at=%v, want inactive with LeftAt", m.Status, m.LeftAt)
	}
}

func TestRemoveMember(t *testing.T) {
	f := newFixture(t)
	w := f.world(t)
	ctx := context.Background()

	err := f.roster.RemoveMember(ctx, w.member, w.team.ID, w.member2.UserID)
	wantKind(t, err, apperrors.ErrForbidden)

	err = f.roster.RemoveMember(ctx, w.lead, w.team.ID, w.lead.UserID)
	wantKind(t, err, apperrors.ErrForbidden)

	if err := f.roster.RemoveMember(ctx, w.lead, w.team.ID, w.member2.UserID); err != nil {
		t.Fatalf("RemoveMember() error = %v", err)
	}

	err = f.roster.RemoveMember(ctx, w.lead, w.team.ID, w.member.UserID)
	wantKind(t, err, apperrors.ErrMinimumTeamSize)

	err = f.roster.RemoveMember(ctx, w.lead, w.team.ID, w.member2.UserID)
	wantKind(t, err, apperrors.ErrNotFound)
}

func TestCanLeave(t *testing.T) {
	f := newFixture(t)
	w := f.world(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   models.Actor
		allowed bool
		code    string
	}{
		{"creator", w.lead, false, "FORBIDDEN"},
		{"member", w.member, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.roster.CanLeave(ctx, w.team.ID, tt.actor.UserID)
			if err != nil {
				t.Fatalf("CanLeave() error = %v", err)
			}
			if got.Allowed != tt.allowed || got.Code != tt.code {
				t.Errorf("CanLeave() = %+v, want allowed=%v code=%q", got, tt.allowed, tt.code)
			}
		})
	}

	check, err := f.roster.CanRemove(ctx, w.member, w.team.ID, w.member2.UserID)
	if err != nil {
		t.Fatalf("CanRemove() error = %v", err)
	}
	if check.Allowed {
		t.Error("CanRemove() allowed a plain member to remove someone")
	}

	// Dry runs change nothing.
	members, _, _ := f.activeCounts(t, w.team)
	if members != 3 {
		t.Errorf("active members = %d, want 3", members)
	}
}

func TestAddMember(t *testing.T) {
	f := newFixture(t)
	w := f.world(t)
	ctx := context.Background()
	newcomer := f.user(t, models.RoleTeamMember, nil)

	_, err := f.roster.AddMember(ctx, w.member, w.team.ID, AddMemberInput{UserID: newcomer.UserID})
	wantKind(t, err, apperrors.ErrForbidden)

	_, err = f.roster.AddMember(ctx, w.lead, w.team.ID, AddMemberInput{UserID: w.company.UserID})
	wantKind(t, err, apperrors.ErrValidation)

	_, err = f.roster.AddMember(ctx, w.lead, w.team.ID, AddMemberInput{UserID: w.member.UserID})
	wantKind(t, err, apperrors.ErrConflict)

	if err := f.roster.LeaveTeam(ctx, w.member2, w.team.ID); err != nil {
		t.Fatalf("LeaveTeam() error = %v", err)
	}
	m, err := f.roster.AddMember(ctx, w.lead, w.team.ID, AddMemberInput{UserID: w.member2.UserID, Lead: true})
	if err != nil {
		t.Fatalf("AddMember() reactivation error = %v", err)
	}
	if !m.IsActive() || !m.IsLead || m.LeftAt != nil {
		t.Errorf("reactivated membership = %+v", m)
	}

	members, leads, size := f.activeCounts(t, w.team)
	if members != 3 || leads != 2 || size != 3 {
		t.Errorf("members, leads, size = %d, %d, %d, want 3, 2, 3", members, leads, size)
	}
}

func TestSetLead_LastLead(t *testing.T) {
	f := newFixture(t)
	w := f.world(t)
	ctx := context.Background()

	_, err := f.roster.SetLead(ctx, w.lead, w.team.ID, w.lead.UserID, false)
	wantKind(t, err, apperrors.ErrLastLead)

	if _, err := f.roster.SetLead(ctx, w.lead, w.team.ID, w.member.UserID, true); err != nil {
		t.Fatalf("SetLead(promote) error = %v", err)
	}
	if _, err := f.roster.SetLead(ctx, w.lead, w.team.ID, w.lead.UserID, false); err != nil {
		t.Fatalf("SetLead(demote) error = %v", err)
	}

	// The creator is still an admin and can manage the roster.
	if _, err := f.roster.SetLead(ctx, w.lead, w.team.ID, w.member2.UserID, true); err != nil {
		t.Fatalf("SetLead() by admin error = %v", err)
	}
}

func TestCreateTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	creator := f.user(t, models.RoleTeamMember, nil)

	team, err := f.roster.CreateTeam(ctx, creator, CreateTeamInput{Name: "  Data Crew "})
	if err != nil {
		t.Fatalf("CreateTeam() error = %v", err)
	}
	if team.Name != "Data Crew" || team.Size != 1 || len(team.Members) != 1 {
		t.Errorf("team = %q size=%d members=%d", team.Name, team.Size, len(team.Members))
	}
	if m := team.Members[0]; !m.IsLead || !m.IsAdmin {
		t.Errorf("creator membership lead=%v admin=%v, want both", m.IsLead, m.IsAdmin)
	}

	_, err = f.roster.CreateTeam(ctx, f.companyUser(t), CreateTeamInput{Name: "Nope"})
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("company user CreateTeam() error = %v, want forbidden", err)
	}

	_, err = f.roster.CreateTeam(ctx, creator, CreateTeamInput{Name: " "})
	wantKind(t, err, apperrors.ErrValidation)
}
