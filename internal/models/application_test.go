package models

import (
	"testing"
	"time"
)

func TestApplicationStatus_CanTransitionTo(t *testing.T) {
	legal := map[[2]ApplicationStatus]bool{
		{ApplicationStatusSubmitted, ApplicationStatusReviewing}:       true,
		{ApplicationStatusSubmitted, ApplicationStatusRejected}:        true,
		{ApplicationStatusSubmitted, ApplicationStatusWithdrawn}:       true,
		{ApplicationStatusReviewing, ApplicationStatusInterviewing}:    true,
		{ApplicationStatusReviewing, ApplicationStatusRejected}:        true,
		{ApplicationStatusReviewing, ApplicationStatusWithdrawn}:       true,
		{ApplicationStatusInterviewing, ApplicationStatusAccepted}:     true,
		{ApplicationStatusInterviewing, ApplicationStatusRejected}:     true,
	}

	for _, from := range ApplicationStatuses {
		for _, to := range ApplicationStatuses {
			want := legal[[2]ApplicationStatus{from, to}]
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("%s -> %s: CanTransitionTo = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestApplicationStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status ApplicationStatus
		want   bool
	}{
		{ApplicationStatusSubmitted, false},
		{ApplicationStatusReviewing, false},
		{ApplicationStatusInterviewing, false},
		{ApplicationStatusAccepted, true},
		{ApplicationStatusRejected, true},
		{ApplicationStatusWithdrawn, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.want {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplicationStatus_Owner(t *testing.T) {
	tests := []struct {
		status ApplicationStatus
		want   Party
	}{
		{ApplicationStatusSubmitted, ""},
		{ApplicationStatusReviewing, PartyCompany},
		{ApplicationStatusInterviewing, PartyCompany},
		{ApplicationStatusAccepted, PartyCompany},
		{ApplicationStatusRejected, PartyCompany},
		{ApplicationStatusWithdrawn, PartyTeam},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Owner(); got != tt.want {
				t.Errorf("Owner() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpressionOfInterest_EffectiveStatus(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name    string
		status  EOIStatus
		expires *time.Time
		want    EOIStatus
		answer  bool
	}{
		{"pending not expired", EOIStatusPending, &future, EOIStatusPending, true},
		{"pending past expiry", EOIStatusPending, &past, EOIStatusExpired, false},
		{"pending no expiry", EOIStatusPending, nil, EOIStatusPending, true},
		{"accepted past expiry", EOIStatusAccepted, &past, EOIStatusAccepted, false},
		{"declined past expiry", EOIStatusDeclined, &past, EOIStatusDeclined, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eoi := &ExpressionOfInterest{Status: tt.status, ExpiresAt: tt.expires}
			if got := eoi.EffectiveStatus(now); got != tt.want {
				t.Errorf("EffectiveStatus() = %q, want %q", got, tt.want)
			}
			if got := eoi.CanRespond(now); got != tt.answer {
				t.Errorf("CanRespond() = %v, want %v", got, tt.answer)
			}
		})
	}
}
