package events

import "context"

// Event types
const (
	EventCampaignStatusChanged = "campaign_status_changed"
	EventRequestResolved       = "request_resolved"
	EventChannelModerated      = "channel_moderated"
	EventBalanceChanged        = "balance_changed"
)

// StreamUpdates is the pub/sub channel the websocket fanout listens on.
const StreamUpdates = "cpgram:updates"

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
