package models

import (
	"time"

	"github.com/google/uuid"
)

// One-shot and repeatable reward task types.
const (
	TaskWelcome     = "welcome"
	TaskJoinChannel = "join_channel"
	TaskAdReward    = "ad_reward"
	TaskInvite      = "invite_task"
)

// UserTask records a claimed one-shot task. Ad rewards are not stored here,
// they are rate limited through the cooldown key instead.
type UserTask struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Type        string    `json:"type"`
	RewardCPC   int64     `json:"reward_cpc"`
	CompletedAt time.Time `json:"completed_at"`
}

// Invite task statuses. The flow mirrors a campaign's posting phase but is
// single sided: post the platform promo on your own channel, wait out the
// timer, claim. There is no expiry penalty; an admin resets eligibility
// after a completed run.
const (
	InviteStatusPendingPosting = "pending_posting"
	InviteStatusActive         = "active"
	InviteStatusCompleted      = "completed"
)

var ValidInviteTransitions = map[string][]string{
	InviteStatusPendingPosting: {InviteStatusActive},
	InviteStatusActive:         {InviteStatusCompleted},
	InviteStatusCompleted:      {},
}

func IsValidInviteTransition(from, to string) bool {
	for _, s := range ValidInviteTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type InviteTask struct {
	ID                   uuid.UUID  `json:"id"`
	UserID               uuid.UUID  `json:"user_id"`
	ChannelID            uuid.UUID  `json:"channel_id"`
	Status               string     `json:"status"`
	DurationHours        int        `json:"duration_hours"`
	RewardCPC            int64      `json:"reward_cpc"`
	PostVerificationLink *string    `json:"post_verification_link,omitempty"`
	ActualStartAt        *time.Time `json:"actual_start_at,omitempty"`
	ClaimedAt            *time.Time `json:"claimed_at,omitempty"`
	Renewed              bool       `json:"renewed"`
	CreatedAt            time.Time  `json:"created_at"`
}

// Remaining returns how long until an active invite task may be claimed.
func (t *InviteTask) Remaining(now time.Time) time.Duration {
	if t.ActualStartAt == nil {
		return 0
	}
	end := t.ActualStartAt.Add(time.Duration(t.DurationHours) * time.Hour)
	if rem := end.Sub(now); rem > 0 {
		return rem
	}
	return 0
}
