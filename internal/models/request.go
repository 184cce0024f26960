package models

import (
	"time"

	"github.com/google/uuid"
)

// Cross-promotion request statuses. A request is resolved exactly once:
// the recipient channel owner either accepts or rejects it.
const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusRejected = "rejected"
)

var ValidRequestTransitions = map[string][]string{
	RequestStatusPending:  {RequestStatusAccepted, RequestStatusRejected},
	RequestStatusAccepted: {},
	RequestStatusRejected: {},
}

func IsValidRequestTransition(from, to string) bool {
	for _, s := range ValidRequestTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// PromoRequest asks the recipient channel for a promotion slot. CPCCost is
// snapshotted from the recipient's price table at creation time and never
// recomputed. PromoID is filled at accept time with the recipient owner's
// chosen promo, which the requester is then obligated to post.
type PromoRequest struct {
	ID            uuid.UUID  `json:"id"`
	FromChannelID uuid.UUID  `json:"from_channel_id"`
	ToChannelID   uuid.UUID  `json:"to_channel_id"`
	DaySelected   string     `json:"day_selected"`
	TimeSelected  int        `json:"time_selected"`
	DurationHours int        `json:"duration_hours"`
	CPCCost       int64      `json:"cpc_cost"`
	PromoID       *uuid.UUID `json:"promo_id,omitempty"`
	Status        string     `json:"status"`
	DeclineReason *string    `json:"decline_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
}

func (r *PromoRequest) IsResolved() bool {
	return r.Status != RequestStatusPending
}
