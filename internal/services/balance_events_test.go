package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/cpgram/backend/internal/events"
)

type recordingPublisher struct {
	stream string
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, stream string, e events.Event) error {
	p.stream = stream
	p.events = append(p.events, e)
	return nil
}

func TestPublishBalance(t *testing.T) {
	pub := &recordingPublisher{}
	userID := uuid.New()

	publishBalance(context.Background(), pub, userID, 1650)

	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	if pub.stream != events.StreamUpdates {
		t.Errorf("stream = %q, want %q", pub.stream, events.StreamUpdates)
	}
	e := pub.events[0]
	if e.Type != events.EventBalanceChanged {
		t.Errorf("type = %q, want %q", e.Type, events.EventBalanceChanged)
	}
	if e.Payload["user_id"] != userID.String() {
		t.Errorf("user_id = %v, want %s", e.Payload["user_id"], userID)
	}
	if e.Payload["balance_after"] != int64(1650) {
		t.Errorf("balance_after = %v, want 1650", e.Payload["balance_after"])
	}
}

func TestPublishBalanceWithoutPublisher(t *testing.T) {
	// Worker wiring runs without the events bus; must not panic.
	publishBalance(context.Background(), nil, uuid.New(), 100)
}
