package models

import "github.com/google/uuid"

// SettlementLine is a single ledger movement a settlement produces.
type SettlementLine struct {
	UserID uuid.UUID
	Delta  int64
	Reason string
}

// CompletionLines lists the credits owed to the promoted channel's owner when
// a campaign settles: the escrowed cost released in full, plus the completion
// reward when one is configured.
func CompletionLines(toOwner uuid.UUID, cpcCost, reward int64) []SettlementLine {
	lines := []SettlementLine{{UserID: toOwner, Delta: cpcCost, Reason: ReasonEscrowRelease}}
	if reward > 0 {
		lines = append(lines, SettlementLine{UserID: toOwner, Delta: reward, Reason: ReasonCompletionReward})
	}
	return lines
}

// ExpiryDebit splits an expiry penalty against the available balance into the
// part actually debited and the forfeited shortfall. Never produces debt.
func ExpiryDebit(balance, penalty int64) (debited, shortfall int64) {
	debited = ClampPenalty(balance, penalty)
	if penalty > debited {
		shortfall = penalty - debited
	}
	return debited, shortfall
}
