package dto

type AuthTelegramRequest struct {
	InitData string `json:"init_data"`
}

type ValidateChannelRequest struct {
	Input string `json:"input"`
}

type DurationPriceRequest struct {
	DurationHours int   `json:"duration_hours"`
	PriceCPC      int64 `json:"price_cpc"`
	Enabled       bool  `json:"enabled"`
}

type PolicyRequest struct {
	Topic        string                 `json:"topic"`
	AcceptedDays []string               `json:"accepted_days"`
	PromosPerDay int                    `json:"promos_per_day"`
	TimeSlots    []int                  `json:"time_slots"`
	Prices       []DurationPriceRequest `json:"prices"`
}

type CreateChannelRequest struct {
	Input    string         `json:"input"`
	Title    string         `json:"title"`
	Language string         `json:"language"`
	Policy   PolicyRequest  `json:"policy"`
	Promos   []PromoRequest `json:"promos"`
}

type PromoRequest struct {
	Name     string  `json:"name"`
	Text     string  `json:"text"`
	ImageURL *string `json:"image_url,omitempty"`
	Link     string  `json:"link"`
	CTA      string  `json:"cta"`
}

type PauseChannelRequest struct {
	IsPaused bool `json:"is_paused"`
}

type ModerateChannelRequest struct {
	Action string `json:"action"` // approve | reject
	Reason string `json:"reason,omitempty"`
}

type CreateRequestRequest struct {
	FromChannelID string `json:"from_channel_id"`
	ToChannelID   string `json:"to_channel_id"`
	Day           string `json:"day"`
	TimeSlot      int    `json:"time_slot"`
	DurationHours int    `json:"duration_hours"`
}

type AcceptRequestRequest struct {
	PromoID string `json:"promo_id"`
}

type DeclineRequestRequest struct {
	Reason string `json:"reason"`
}

type VerifyStartRequest struct {
	PostLink string `json:"post_link"`
}

type AdRewardRequest struct {
	ViewID      string `json:"view_id"`
	Signature   string `json:"signature"`
	WatchedFull bool   `json:"watched_full"`
}

type InviteInitiateRequest struct {
	ChannelID string `json:"channel_id"`
}

type InviteVerifyStartRequest struct {
	TaskID   string `json:"task_id"`
	PostLink string `json:"post_link"`
}

type InviteCompleteRequest struct {
	TaskID string `json:"task_id"`
}

type CreatePurchaseRequest struct {
	AmountCPC int64 `json:"amount_cpc"`
}

type UpdateLanguageRequest struct {
	Language string `json:"language"`
}

type AdminInviteResetRequest struct {
	UserID string `json:"user_id"`
}
