package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cpgram/backend/internal/apperr"
)

// Channel moderation statuses. Pause is a separate flag: only an approved
// channel can be paused, and a paused channel keeps its approved status.
const (
	ChannelStatusPending  = "pending"
	ChannelStatusApproved = "approved"
	ChannelStatusRejected = "rejected"
)

const (
	MinPromosPerDay = 1
	MaxPromosPerDay = 5
	MinPromos       = 1
	MaxPromos       = 3
)

var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func IsWeekday(day string) bool {
	for _, d := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

type Channel struct {
	ID               uuid.UUID  `json:"id"`
	OwnerUserID      uuid.UUID  `json:"owner_user_id"`
	TelegramChatID   *int64     `json:"telegram_chat_id,omitempty"`
	Username         string     `json:"username"`
	Title            string     `json:"title"`
	AvatarFileID     *string    `json:"avatar_file_id,omitempty"`
	Topic            string     `json:"topic"`
	Language         string     `json:"language"`
	Subscribers      int        `json:"subscribers"`
	AvgViews         int        `json:"avg_views"`
	Status           string     `json:"status"`
	IsPaused         bool       `json:"is_paused"`
	ModerationReason *string    `json:"moderation_reason,omitempty"`
	ModeratedAt      *time.Time `json:"moderated_at,omitempty"`
	ModeratedBy      *uuid.UUID `json:"moderated_by,omitempty"`
	PromosPerDay     int        `json:"promos_per_day"`
	AcceptedDays     []string   `json:"accepted_days"`
	// TimeSlots are UTC hours (0..23); cardinality never exceeds PromosPerDay.
	TimeSlots          []int     `json:"time_slots"`
	CompletedExchanges int       `json:"completed_exchanges"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Eligible reports whether the channel may send or receive cross-promotion
// requests: approved by moderation and not paused by the owner.
func (c *Channel) Eligible() bool {
	return c.Status == ChannelStatusApproved && !c.IsPaused
}

func (c *Channel) AcceptsDay(day string) bool {
	for _, d := range c.AcceptedDays {
		if d == day {
			return true
		}
	}
	return false
}

func (c *Channel) AcceptsSlot(hour int) bool {
	for _, h := range c.TimeSlots {
		if h == hour {
			return true
		}
	}
	return false
}

// DurationPrice is one row of a channel's price table. Disabled durations stay
// in the table so owners can re-enable them without retyping the price.
type DurationPrice struct {
	ChannelID     uuid.UUID `json:"channel_id"`
	DurationHours int       `json:"duration_hours"`
	PriceCPC      int64     `json:"price_cpc"`
	Enabled       bool      `json:"enabled"`
}

// PriceFor returns the price for a duration if that duration is enabled.
func PriceFor(prices []DurationPrice, durationHours int) (int64, bool) {
	for _, p := range prices {
		if p.DurationHours == durationHours && p.Enabled {
			return p.PriceCPC, true
		}
	}
	return 0, false
}

// Promo is a promotion material owned by a channel. Immutable once referenced
// by a non-terminal campaign.
type Promo struct {
	ID        uuid.UUID `json:"id"`
	ChannelID uuid.UUID `json:"channel_id"`
	Name      string    `json:"name"`
	Text      string    `json:"text"`
	ImageURL  *string   `json:"image_url,omitempty"`
	Link      string    `json:"link"`
	CTA       string    `json:"cta"`
	CreatedAt time.Time `json:"created_at"`
}

// LinkMatchesChannel checks that a promo link points at the owning channel
// itself (t.me/<username>/... or @<username>).
func LinkMatchesChannel(link, channelUsername string) bool {
	link = strings.TrimSpace(strings.ToLower(link))
	channelUsername = strings.ToLower(strings.TrimPrefix(channelUsername, "@"))
	if channelUsername == "" {
		return false
	}
	link = strings.TrimPrefix(link, "https://")
	link = strings.TrimPrefix(link, "http://")
	if strings.HasPrefix(link, "@") {
		return strings.TrimPrefix(link, "@") == channelUsername
	}
	if rest, ok := strings.CutPrefix(link, "t.me/"); ok {
		return rest == channelUsername || strings.HasPrefix(rest, channelUsername+"/")
	}
	return false
}

// ChannelPolicy bundles the mutable promotion policy of a channel for
// validation and updates.
type ChannelPolicy struct {
	Topic        string          `json:"topic"`
	AcceptedDays []string        `json:"accepted_days"`
	PromosPerDay int             `json:"promos_per_day"`
	TimeSlots    []int           `json:"time_slots"`
	Prices       []DurationPrice `json:"prices"`
}

// Validate enforces the registry invariants for a channel's policy.
func (p *ChannelPolicy) Validate() error {
	if p.PromosPerDay < MinPromosPerDay || p.PromosPerDay > MaxPromosPerDay {
		return errPolicy("promos_per_day must be between 1 and 5")
	}
	if len(p.AcceptedDays) == 0 {
		return errPolicy("at least one accepted day is required")
	}
	seenDays := map[string]bool{}
	for _, d := range p.AcceptedDays {
		if !IsWeekday(d) {
			return errPolicy("unknown weekday " + d)
		}
		if seenDays[d] {
			return errPolicy("duplicate accepted day " + d)
		}
		seenDays[d] = true
	}
	if len(p.TimeSlots) == 0 {
		return errPolicy("at least one time slot is required")
	}
	if len(p.TimeSlots) > p.PromosPerDay {
		return errPolicy("time slots cannot exceed promos per day")
	}
	seenSlots := map[int]bool{}
	for _, h := range p.TimeSlots {
		if h < 0 || h > 23 {
			return errPolicy("time slot must be a UTC hour between 0 and 23")
		}
		if seenSlots[h] {
			return errPolicy("duplicate time slot")
		}
		seenSlots[h] = true
	}
	enabled := 0
	seenDur := map[int]bool{}
	for _, pr := range p.Prices {
		if pr.DurationHours <= 0 {
			return errPolicy("duration must be positive")
		}
		if pr.PriceCPC < 0 {
			return errPolicy("price cannot be negative")
		}
		if seenDur[pr.DurationHours] {
			return errPolicy("duplicate duration in price table")
		}
		seenDur[pr.DurationHours] = true
		if pr.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return errPolicy("at least one duration must be enabled")
	}
	return nil
}

func errPolicy(msg string) error { return apperr.Validation(msg) }
