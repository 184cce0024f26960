package models

import (
	"time"

	"github.com/google/uuid"
)

// Ledger entry reasons. Each settlement path writes exactly one reason so the
// balance can be reconstructed and audited from history alone.
const (
	ReasonCampaignEscrow   = "campaign_escrow"
	ReasonEscrowRelease    = "campaign_escrow_release"
	ReasonCompletionReward = "campaign_completion_reward"
	ReasonExpiryPenalty    = "campaign_expiry_penalty"
	ReasonWelcomeBonus     = "welcome_bonus"
	ReasonJoinChannelBonus = "join_channel_bonus"
	ReasonAdReward         = "ad_reward"
	ReasonInviteTaskReward = "invite_task_reward"
	ReasonPurchase         = "cpc_purchase"
)

// LedgerEntry is an immutable record of a single balance mutation. Entries are
// append-only; BalanceAfter snapshots the balance the mutation produced.
type LedgerEntry struct {
	ID           uuid.UUID      `json:"id"`
	UserID       uuid.UUID      `json:"user_id"`
	Delta        int64          `json:"delta"`
	BalanceAfter int64          `json:"balance_after"`
	Reason       string         `json:"reason"`
	RelatedID    *uuid.UUID     `json:"related_id,omitempty"`
	Meta         map[string]any `json:"meta,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// ClampPenalty returns the penalty amount that can actually be debited without
// driving balance negative. The shortfall, if any, is forfeited rather than
// tracked as debt.
func ClampPenalty(balance, penalty int64) int64 {
	if penalty <= 0 {
		return 0
	}
	if balance < penalty {
		return balance
	}
	return penalty
}
