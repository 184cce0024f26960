package apperr

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{Validation("bad input"), CodeValidation},
		{Forbidden("not yours"), CodeAuthorization},
		{NotFound("channel"), CodeNotFound},
		{State("already resolved"), CodeState},
		{fmt.Errorf("wrapped: %w", NotFound("campaign")), CodeNotFound},
		{errors.New("plain"), "internal_error"},
		{nil, "internal_error"},
	}
	for _, tt := range tests {
		if got := Code(tt.err); got != tt.want {
			t.Errorf("Code(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestInsufficientFundsDetails(t *testing.T) {
	err := InsufficientFunds(500, 120)
	e, ok := As(err)
	if !ok {
		t.Fatal("expected an apperr")
	}
	if e.Code != CodeInsufficientFunds {
		t.Errorf("code = %q", e.Code)
	}
	if e.Details["required"] != int64(500) || e.Details["balance"] != int64(120) {
		t.Errorf("details = %v", e.Details)
	}
}

func TestWithDetailChains(t *testing.T) {
	err := Validation("duration not offered").
		WithDetail("duration_hours", 6).
		WithDetail("channel_id", "abc")
	if len(err.Details) != 2 {
		t.Fatalf("details = %v", err.Details)
	}
}

func TestStillRunningAndCooldown(t *testing.T) {
	if e, _ := As(StillRunning(90 * time.Minute)); e.Code != CodeCampaignStillRunning {
		t.Errorf("code = %q", e.Code)
	}
	if e, _ := As(Cooldown(30 * time.Second)); e.Code != CodeCooldownActive {
		t.Errorf("code = %q", e.Code)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstream("telegram api unreachable", cause)
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
}
