package models

import (
	"time"

	"github.com/google/uuid"
)

// Campaign statuses. Completed and expired are terminal: a campaign record
// is never deleted after reaching them.
const (
	CampaignStatusPendingPosting = "pending_posting"
	CampaignStatusActive         = "active"
	CampaignStatusCompleted      = "completed"
	CampaignStatusExpired        = "expired"
)

var ValidCampaignTransitions = map[string][]string{
	CampaignStatusPendingPosting: {CampaignStatusActive, CampaignStatusExpired},
	CampaignStatusActive:         {CampaignStatusCompleted},
	CampaignStatusCompleted:      {},
	CampaignStatusExpired:        {},
}

func IsValidCampaignTransition(from, to string) bool {
	for _, s := range ValidCampaignTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func IsTerminalCampaignStatus(status string) bool {
	return status == CampaignStatusCompleted || status == CampaignStatusExpired
}

// Campaign is the unit of settlement for an accepted cross-promotion
// request. The from-channel owner carries the posting obligation: they must
// post the to-channel's promo before PostingDeadline and keep it up for
// DurationHours. The escrowed CPCCost plus the completion reward go to the
// to-channel owner when the campaign completes.
type Campaign struct {
	ID                   uuid.UUID  `json:"id"`
	RequestID            uuid.UUID  `json:"request_id"`
	FromChannelID        uuid.UUID  `json:"from_channel_id"`
	ToChannelID          uuid.UUID  `json:"to_channel_id"`
	PromoID              uuid.UUID  `json:"promo_id"`
	DurationHours        int        `json:"duration_hours"`
	CPCCost              int64      `json:"cpc_cost"`
	Status               string     `json:"status"`
	PostingDeadline      time.Time  `json:"posting_deadline"`
	ActualStartAt        *time.Time `json:"actual_start_at,omitempty"`
	ActualEndAt          *time.Time `json:"actual_end_at,omitempty"`
	PostVerificationLink *string    `json:"post_verification_link,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// PostingDeadlineFor computes the deadline for a campaign accepted at the
// given instant.
func PostingDeadlineFor(acceptedAt time.Time, deadlineHours int) time.Time {
	return acceptedAt.Add(time.Duration(deadlineHours) * time.Hour)
}

// DeadlinePassed reports whether the posting window is over. The boundary
// itself still counts as on time: a link recorded at exactly the deadline
// wins over a concurrent expiry sweep.
func (c *Campaign) DeadlinePassed(now time.Time) bool {
	return now.After(c.PostingDeadline)
}

// RunEnd returns the instant at which an active campaign may be completed.
func (c *Campaign) RunEnd() (time.Time, bool) {
	if c.ActualStartAt == nil {
		return time.Time{}, false
	}
	return c.ActualStartAt.Add(time.Duration(c.DurationHours) * time.Hour), true
}

// Remaining returns how long until the campaign may be completed, zero once
// the run window has elapsed.
func (c *Campaign) Remaining(now time.Time) time.Duration {
	end, ok := c.RunEnd()
	if !ok {
		return 0
	}
	if rem := end.Sub(now); rem > 0 {
		return rem
	}
	return 0
}

// IsParty reports whether the given channel is one of the campaign's two
// sides.
func (c *Campaign) IsParty(channelID uuid.UUID) bool {
	return channelID == c.FromChannelID || channelID == c.ToChannelID
}
