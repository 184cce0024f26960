package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestIsValidCampaignTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{CampaignStatusPendingPosting, CampaignStatusActive, true},
		{CampaignStatusPendingPosting, CampaignStatusExpired, true},
		{CampaignStatusPendingPosting, CampaignStatusCompleted, false},
		{CampaignStatusActive, CampaignStatusCompleted, true},
		{CampaignStatusActive, CampaignStatusExpired, false},
		{CampaignStatusActive, CampaignStatusPendingPosting, false},
		{CampaignStatusCompleted, CampaignStatusActive, false},
		{CampaignStatusExpired, CampaignStatusActive, false},
		{"unknown", CampaignStatusActive, false},
	}
	for _, tt := range tests {
		if got := IsValidCampaignTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("IsValidCampaignTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIsTerminalCampaignStatus(t *testing.T) {
	if IsTerminalCampaignStatus(CampaignStatusPendingPosting) || IsTerminalCampaignStatus(CampaignStatusActive) {
		t.Error("non-terminal status reported terminal")
	}
	if !IsTerminalCampaignStatus(CampaignStatusCompleted) || !IsTerminalCampaignStatus(CampaignStatusExpired) {
		t.Error("terminal status not reported terminal")
	}
}

func TestPostingDeadlineFor(t *testing.T) {
	accepted := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	got := PostingDeadlineFor(accepted, 48)
	want := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("PostingDeadlineFor = %v, want %v", got, want)
	}
}

func TestDeadlinePassed(t *testing.T) {
	deadline := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	c := &Campaign{PostingDeadline: deadline}

	if c.DeadlinePassed(deadline.Add(-time.Second)) {
		t.Error("deadline reported passed before it elapsed")
	}
	if c.DeadlinePassed(deadline) {
		t.Error("exact deadline instant must still count as on time")
	}
	if !c.DeadlinePassed(deadline.Add(time.Second)) {
		t.Error("deadline not reported passed after it elapsed")
	}
}

func TestCampaignRemaining(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	c := &Campaign{DurationHours: 6, ActualStartAt: &start}

	if got := c.Remaining(start.Add(4 * time.Hour)); got != 2*time.Hour {
		t.Errorf("Remaining at hour 4 = %v, want 2h", got)
	}
	if got := c.Remaining(start.Add(6 * time.Hour)); got != 0 {
		t.Errorf("Remaining at hour 6 = %v, want 0", got)
	}
	if got := c.Remaining(start.Add(10 * time.Hour)); got != 0 {
		t.Errorf("Remaining past the window = %v, want 0", got)
	}

	notStarted := &Campaign{DurationHours: 6}
	if got := notStarted.Remaining(start); got != 0 {
		t.Errorf("Remaining without start = %v, want 0", got)
	}
}

func TestCampaignIsParty(t *testing.T) {
	from := uuid.New()
	to := uuid.New()
	c := &Campaign{FromChannelID: from, ToChannelID: to}

	if !c.IsParty(from) || !c.IsParty(to) {
		t.Error("campaign parties not recognized")
	}
	if c.IsParty(uuid.New()) {
		t.Error("stranger channel recognized as party")
	}
}

func TestIsValidRequestTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{RequestStatusPending, RequestStatusAccepted, true},
		{RequestStatusPending, RequestStatusRejected, true},
		{RequestStatusAccepted, RequestStatusRejected, false},
		{RequestStatusRejected, RequestStatusAccepted, false},
		{RequestStatusAccepted, RequestStatusPending, false},
	}
	for _, tt := range tests {
		if got := IsValidRequestTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("IsValidRequestTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIsValidInviteTransition(t *testing.T) {
	if !IsValidInviteTransition(InviteStatusPendingPosting, InviteStatusActive) {
		t.Error("pending_posting -> active must be allowed")
	}
	if !IsValidInviteTransition(InviteStatusActive, InviteStatusCompleted) {
		t.Error("active -> completed must be allowed")
	}
	if IsValidInviteTransition(InviteStatusCompleted, InviteStatusActive) {
		t.Error("completed is terminal")
	}
	if IsValidInviteTransition(InviteStatusPendingPosting, InviteStatusCompleted) {
		t.Error("posting phase cannot be skipped")
	}
}
