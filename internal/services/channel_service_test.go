package services

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/cpgram/backend/internal/apperr"
	"github.com/cpgram/backend/internal/config"
	"github.com/cpgram/backend/internal/tmeparser"
)

type stubTelegram struct {
	chat    *ChatInfo
	chatErr error
	isAdmin bool
}

func (s *stubTelegram) GetChat(context.Context, tmeparser.Handle) (*ChatInfo, error) {
	return s.chat, s.chatErr
}
func (s *stubTelegram) BotIsAdmin(context.Context, int64) (bool, error) { return s.isAdmin, nil }
func (s *stubTelegram) IsChannelMember(context.Context, string, int64) (bool, error) {
	return false, nil
}
func (s *stubTelegram) SendMessage(context.Context, int64, string) error { return nil }
func (s *stubTelegram) CreateStarsInvoiceLink(context.Context, string, string, string, int64) (string, error) {
	return "", nil
}
func (s *stubTelegram) AnswerPreCheckoutQuery(context.Context, string, bool, string) error {
	return nil
}

// validationService wires only what ValidateHandle touches. The 1ms parser
// timeout makes every scrape fail, exercising the Bot API primary path.
func validationService(tg TelegramClient) *ChannelService {
	log := zap.NewNop()
	parser := tmeparser.NewParser(1, 0, log)
	return NewChannelService(nil, nil, nil, parser, tg, nil, nil, &config.Config{}, log)
}

func TestValidateHandlePublicBotAPIPrimary(t *testing.T) {
	tg := &stubTelegram{chat: &ChatInfo{ChatID: -1001234, Username: "technews", Title: "Tech News"}}
	s := validationService(tg)

	v, err := s.ValidateHandle(context.Background(), "@technews")
	if err != nil {
		t.Fatalf("ValidateHandle: %v", err)
	}
	if v.Title != "Tech News" {
		t.Errorf("title = %q, want the Bot API title", v.Title)
	}
	if v.ChatID == nil || *v.ChatID != -1001234 {
		t.Errorf("chat id = %v, want -1001234", v.ChatID)
	}
	if v.Username != "technews" {
		t.Errorf("username = %q, want technews", v.Username)
	}
}

func TestValidateHandlePublicNeedsOneResolver(t *testing.T) {
	// Both the Bot API and the scrape fail: the lookup must fail too.
	tg := &stubTelegram{chatErr: errors.New("chat not found")}
	s := validationService(tg)

	_, err := s.ValidateHandle(context.Background(), "@ghostchannel")
	if err == nil {
		t.Fatal("expected an error when no resolver can see the channel")
	}
	if apperr.Code(err) != apperr.CodeUpstream {
		t.Errorf("code = %q, want %q", apperr.Code(err), apperr.CodeUpstream)
	}
}

func TestValidateHandlePrivateRequiresAdminBot(t *testing.T) {
	tg := &stubTelegram{chat: &ChatInfo{ChatID: -1009999, Title: "Private"}, isAdmin: false}
	s := validationService(tg)

	_, err := s.ValidateHandle(context.Background(), "-1009999")
	if apperr.Code(err) != apperr.CodePrivateChannelNotAdmin {
		t.Errorf("code = %q, want %q", apperr.Code(err), apperr.CodePrivateChannelNotAdmin)
	}
}
