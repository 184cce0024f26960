package tmeparser

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestParseHandle(t *testing.T) {
	tests := []struct {
		input    string
		username string
		chatID   int64
		ok       bool
	}{
		{"@technews", "technews", 0, true},
		{"technews", "technews", 0, true},
		{"https://t.me/technews", "technews", 0, true},
		{"http://t.me/technews/", "technews", 0, true},
		{"t.me/technews?start=abc", "technews", 0, true},
		{"telegram.me/technews", "technews", 0, true},
		{"-1001234567890", "", -1001234567890, true},
		{"1234567890", "", 0, false},
		{"", "", 0, false},
		{"ab", "", 0, false},
		{"1startswithdigit", "", 0, false},
		{"has spaces", "", 0, false},
	}
	for _, tt := range tests {
		h, ok := ParseHandle(tt.input)
		if ok != tt.ok || h.Username != tt.username || h.ChatID != tt.chatID {
			t.Errorf("ParseHandle(%q) = %+v, %v; want username=%q chatID=%d ok=%v",
				tt.input, h, ok, tt.username, tt.chatID, tt.ok)
		}
	}
}

func TestParsePostLink(t *testing.T) {
	tests := []struct {
		link     string
		username string
		id       int64
		ok       bool
	}{
		{"https://t.me/technews/42", "technews", 42, true},
		{"t.me/technews/42", "technews", 42, true},
		{"https://t.me/technews/42/", "technews", 42, true},
		{"https://t.me/technews", "", 0, false},
		{"https://t.me/technews/0", "", 0, false},
		{"https://example.com/technews/42", "", 0, false},
		{"", "", 0, false},
	}
	for _, tt := range tests {
		username, id, ok := ParsePostLink(tt.link)
		if ok != tt.ok || username != tt.username || id != tt.id {
			t.Errorf("ParsePostLink(%q) = %q, %d, %v; want %q, %d, %v",
				tt.link, username, id, ok, tt.username, tt.id, tt.ok)
		}
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1 234", 1234},
		{"1,234", 1234},
		{"12.3K", 12300},
		{"1.2M", 1200000},
		{"5k", 5000},
		{"42", 42},
		{"", 0},
		{"abc", 0},
	}
	for _, tt := range tests {
		if got := parseCount(tt.in); got != tt.want {
			t.Errorf("parseCount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestGuessLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello world this is a tech channel", "en"},
		{"привет это канал про технологии", "ru"},
		{"", "unknown"},
		{"12345 !!!", "unknown"},
	}
	for _, tt := range tests {
		if got := guessLanguage(tt.in); got != tt.want {
			t.Errorf("guessLanguage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type stubTransport struct {
	status int
	body   string
}

func (s stubTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(strings.NewReader(s.body)),
		Header:     make(http.Header),
	}, nil
}

func TestPostExists(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		text   string
		exists bool
	}{
		{"text post", 200, `<div class="tgme_widget_message"><div class="tgme_widget_message_text">big promo</div></div>`, "big promo", true},
		{"media post without text", 200, `<div class="tgme_widget_message"></div>`, "", true},
		{"deleted post", 200, `<div class="tgme_page">Channel page without the message</div>`, "", false},
		{"not found", 404, "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Parser{httpClient: &http.Client{Transport: stubTransport{status: tt.status, body: tt.body}}}
			text, exists, err := p.PostExists(context.Background(), "technews", 42)
			if err != nil {
				t.Fatalf("PostExists: %v", err)
			}
			if exists != tt.exists || text != tt.text {
				t.Errorf("PostExists = (%q, %v), want (%q, %v)", text, exists, tt.text, tt.exists)
			}
		})
	}
}

func TestPostExistsServerError(t *testing.T) {
	p := &Parser{httpClient: &http.Client{Transport: stubTransport{status: 500}}}
	if _, _, err := p.PostExists(context.Background(), "technews", 42); err == nil {
		t.Error("expected an error on HTTP 500")
	}
}
