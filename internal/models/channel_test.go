package models

import "testing"

func validPolicy() *ChannelPolicy {
	return &ChannelPolicy{
		Topic:        "Tech",
		AcceptedDays: []string{"Monday", "Wednesday"},
		PromosPerDay: 2,
		TimeSlots:    []int{9, 18},
		Prices: []DurationPrice{
			{DurationHours: 6, PriceCPC: 300, Enabled: true},
			{DurationHours: 24, PriceCPC: 900, Enabled: false},
		},
	}
}

func TestChannelPolicyValidate(t *testing.T) {
	if err := validPolicy().Validate(); err != nil {
		t.Fatalf("valid policy rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*ChannelPolicy)
	}{
		{"promos per day too low", func(p *ChannelPolicy) { p.PromosPerDay = 0 }},
		{"promos per day too high", func(p *ChannelPolicy) { p.PromosPerDay = 6 }},
		{"no accepted days", func(p *ChannelPolicy) { p.AcceptedDays = nil }},
		{"unknown weekday", func(p *ChannelPolicy) { p.AcceptedDays = []string{"Funday"} }},
		{"duplicate day", func(p *ChannelPolicy) { p.AcceptedDays = []string{"Monday", "Monday"} }},
		{"no time slots", func(p *ChannelPolicy) { p.TimeSlots = nil }},
		{"more slots than promos per day", func(p *ChannelPolicy) { p.TimeSlots = []int{9, 12, 18} }},
		{"slot out of range", func(p *ChannelPolicy) { p.TimeSlots = []int{24} }},
		{"negative slot", func(p *ChannelPolicy) { p.TimeSlots = []int{-1} }},
		{"duplicate slot", func(p *ChannelPolicy) { p.TimeSlots = []int{9, 9} }},
		{"no enabled durations", func(p *ChannelPolicy) {
			for i := range p.Prices {
				p.Prices[i].Enabled = false
			}
		}},
		{"negative price", func(p *ChannelPolicy) { p.Prices[0].PriceCPC = -1 }},
		{"zero duration", func(p *ChannelPolicy) { p.Prices[0].DurationHours = 0 }},
		{"duplicate duration", func(p *ChannelPolicy) {
			p.Prices = append(p.Prices, DurationPrice{DurationHours: 6, PriceCPC: 100, Enabled: true})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPolicy()
			tt.mutate(p)
			if err := p.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestPriceFor(t *testing.T) {
	prices := validPolicy().Prices

	if got, ok := PriceFor(prices, 6); !ok || got != 300 {
		t.Errorf("PriceFor(6) = %d, %v; want 300, true", got, ok)
	}
	if _, ok := PriceFor(prices, 24); ok {
		t.Error("disabled duration must not be priceable")
	}
	if _, ok := PriceFor(prices, 12); ok {
		t.Error("unknown duration must not be priceable")
	}
}

func TestChannelEligible(t *testing.T) {
	tests := []struct {
		status string
		paused bool
		want   bool
	}{
		{ChannelStatusApproved, false, true},
		{ChannelStatusApproved, true, false},
		{ChannelStatusPending, false, false},
		{ChannelStatusRejected, false, false},
	}
	for _, tt := range tests {
		c := &Channel{Status: tt.status, IsPaused: tt.paused}
		if got := c.Eligible(); got != tt.want {
			t.Errorf("Eligible(status=%s paused=%v) = %v, want %v", tt.status, tt.paused, got, tt.want)
		}
	}
}

func TestLinkMatchesChannel(t *testing.T) {
	tests := []struct {
		link, username string
		want           bool
	}{
		{"https://t.me/technews", "technews", true},
		{"https://t.me/technews/42", "@technews", true},
		{"t.me/technews", "technews", true},
		{"@technews", "technews", true},
		{"https://t.me/othernews", "technews", false},
		{"https://t.me/technewsx", "technews", false},
		{"https://example.com/technews", "technews", false},
		{"", "technews", false},
		{"https://t.me/technews", "", false},
	}
	for _, tt := range tests {
		if got := LinkMatchesChannel(tt.link, tt.username); got != tt.want {
			t.Errorf("LinkMatchesChannel(%q, %q) = %v, want %v", tt.link, tt.username, got, tt.want)
		}
	}
}

func TestClampPenalty(t *testing.T) {
	tests := []struct {
		balance, penalty, want int64
	}{
		{500, 250, 250},
		{200, 250, 200},
		{0, 250, 0},
		{250, 250, 250},
		{100, 0, 0},
		{100, -5, 0},
	}
	for _, tt := range tests {
		if got := ClampPenalty(tt.balance, tt.penalty); got != tt.want {
			t.Errorf("ClampPenalty(%d, %d) = %d, want %d", tt.balance, tt.penalty, got, tt.want)
		}
	}
}
