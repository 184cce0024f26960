package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestCompletionLines(t *testing.T) {
	owner := uuid.New()

	lines := CompletionLines(owner, 1500, 150)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].UserID != owner || lines[0].Delta != 1500 || lines[0].Reason != ReasonEscrowRelease {
		t.Errorf("release line = %+v", lines[0])
	}
	if lines[1].UserID != owner || lines[1].Delta != 150 || lines[1].Reason != ReasonCompletionReward {
		t.Errorf("reward line = %+v", lines[1])
	}

	var total int64
	for _, l := range lines {
		total += l.Delta
	}
	if total != 1650 {
		t.Errorf("total credited = %d, want 1650", total)
	}
}

func TestCompletionLinesNoReward(t *testing.T) {
	owner := uuid.New()
	lines := CompletionLines(owner, 1500, 0)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0].Delta != 1500 || lines[0].Reason != ReasonEscrowRelease {
		t.Errorf("release line = %+v", lines[0])
	}
}

func TestExpiryDebit(t *testing.T) {
	tests := []struct {
		name      string
		balance   int64
		penalty   int64
		debited   int64
		shortfall int64
	}{
		{"covered in full", 1000, 250, 250, 0},
		{"exact balance", 250, 250, 250, 0},
		{"partial balance", 100, 250, 100, 150},
		{"zero balance", 0, 250, 0, 250},
		{"zero penalty", 1000, 0, 0, 0},
		{"negative penalty", 1000, -5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			debited, shortfall := ExpiryDebit(tt.balance, tt.penalty)
			if debited != tt.debited || shortfall != tt.shortfall {
				t.Errorf("ExpiryDebit(%d, %d) = (%d, %d), want (%d, %d)",
					tt.balance, tt.penalty, debited, shortfall, tt.debited, tt.shortfall)
			}
			if tt.balance-debited < 0 {
				t.Errorf("debit drove balance negative: %d - %d", tt.balance, debited)
			}
		})
	}
}
