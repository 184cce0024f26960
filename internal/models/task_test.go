package models

import (
	"testing"
	"time"
)

func TestInviteTaskRemaining(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	task := &InviteTask{DurationHours: 12, ActualStartAt: &start}

	if got := task.Remaining(start.Add(4 * time.Hour)); got != 8*time.Hour {
		t.Errorf("Remaining mid-run = %v, want 8h", got)
	}
	if got := task.Remaining(start.Add(12 * time.Hour)); got != 0 {
		t.Errorf("Remaining at end = %v, want 0", got)
	}
	if got := task.Remaining(start.Add(30 * time.Hour)); got != 0 {
		t.Errorf("Remaining after end = %v, want 0", got)
	}

	notStarted := &InviteTask{DurationHours: 12}
	if got := notStarted.Remaining(start); got != 0 {
		t.Errorf("Remaining before start = %v, want 0", got)
	}
}

func TestPromoRequestIsResolved(t *testing.T) {
	r := &PromoRequest{Status: RequestStatusPending}
	if r.IsResolved() {
		t.Error("pending request reported as resolved")
	}
	r.Status = RequestStatusAccepted
	if !r.IsResolved() {
		t.Error("accepted request reported as unresolved")
	}
	r.Status = RequestStatusRejected
	if !r.IsResolved() {
		t.Error("rejected request reported as unresolved")
	}
}
