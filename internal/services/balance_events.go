package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/cpgram/backend/internal/events"
)

// publishBalance pushes a balance snapshot onto the updates stream after a
// ledger movement so open mini-app sessions can refresh without polling.
func publishBalance(ctx context.Context, pub events.Publisher, userID uuid.UUID, balanceAfter int64) {
	if pub == nil {
		return
	}
	_ = pub.Publish(ctx, events.StreamUpdates, events.Event{
		Type: events.EventBalanceChanged,
		Payload: map[string]any{
			"user_id":       userID.String(),
			"balance_after": balanceAfter,
		},
	})
}
