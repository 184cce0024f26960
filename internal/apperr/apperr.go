package apperr

import (
	"errors"
	"fmt"
	"time"
)

// Stable machine-readable error codes. Clients branch on these, so renaming
// one is a breaking API change.
const (
	CodeValidation             = "validation_error"
	CodeAuthorization          = "authorization_error"
	CodeState                  = "state_error"
	CodeInsufficientFunds      = "insufficient_funds"
	CodeNotFound               = "not_found"
	CodeUpstream               = "upstream_error"
	CodeIneligibleChannel      = "ineligible_channel"
	CodeScheduleUnavailable    = "schedule_unavailable"
	CodeInsufficientBalance    = "insufficient_balance"
	CodeChannelNotEditable     = "channel_not_editable"
	CodeInvalidModeration      = "invalid_moderation_transition"
	CodePrivateChannelNotAdmin = "private_channel_not_admin"
	CodeCampaignStillRunning   = "campaign_still_running"
	CodeAlreadyClaimed         = "already_claimed"
	CodeCooldownActive         = "cooldown_active"
)

// Error is a business error with a stable code and optional details used by
// clients to render actionable messages (remaining time, missing amount).
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// WithDetail attaches a single detail value and returns the same error for
// chaining.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func Validation(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(message string) *Error {
	return &Error{Code: CodeAuthorization, Message: message}
}

func State(format string, args ...any) *Error {
	return &Error{Code: CodeState, Message: fmt.Sprintf(format, args...)}
}

func NotFound(entity string) *Error {
	return &Error{Code: CodeNotFound, Message: entity + " not found"}
}

func Upstream(message string, cause error) *Error {
	return &Error{Code: CodeUpstream, Message: message, cause: cause}
}

// InsufficientFunds reports a debit that would drive the balance negative.
// The missing amount lets the client show exactly how much to top up.
func InsufficientFunds(required, balance int64) *Error {
	e := &Error{Code: CodeInsufficientFunds, Message: "insufficient CPC balance"}
	return e.WithDetail("required", required).
		WithDetail("balance", balance).
		WithDetail("missing", required-balance)
}

// StillRunning reports a completion attempt before the duration elapsed.
func StillRunning(remaining time.Duration) *Error {
	e := &Error{Code: CodeCampaignStillRunning, Message: "campaign duration has not elapsed yet"}
	return e.WithDetail("remaining_seconds", int64(remaining.Seconds()))
}

// Cooldown reports a rate-limited reward claim.
func Cooldown(retryAfter time.Duration) *Error {
	e := &Error{Code: CodeCooldownActive, Message: "reward is on cooldown"}
	return e.WithDetail("retry_after_seconds", int64(retryAfter.Seconds()))
}

// As extracts an *Error from an error chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Code returns the machine code of err, or "internal_error" for plain errors.
func Code(err error) string {
	if e, ok := As(err); ok {
		return e.Code
	}
	return "internal_error"
}
