package dto

type AuthResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

// ErrorResponse carries a stable machine code next to the human message,
// plus optional details (missing balance, remaining seconds) so clients
// can render countdowns and top-up prompts without re-deriving them.
type ErrorResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

type InviteStatusResponse struct {
	Task      any    `json:"task,omitempty"`
	Eligible  bool   `json:"eligible"`
	PromoText string `json:"promo_text"`
}
