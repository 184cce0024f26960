package handlers

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cpgram/backend/internal/config"
	"github.com/cpgram/backend/internal/services"
	"github.com/cpgram/backend/internal/tmeparser"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type fakeTelegram struct {
	answered       bool
	precheckoutID  string
	precheckoutOK  bool
	precheckoutMsg string
}

func (f *fakeTelegram) GetChat(context.Context, tmeparser.Handle) (*services.ChatInfo, error) {
	return nil, nil
}
func (f *fakeTelegram) BotIsAdmin(context.Context, int64) (bool, error) { return false, nil }
func (f *fakeTelegram) IsChannelMember(context.Context, string, int64) (bool, error) {
	return false, nil
}
func (f *fakeTelegram) SendMessage(context.Context, int64, string) error { return nil }
func (f *fakeTelegram) CreateStarsInvoiceLink(context.Context, string, string, string, int64) (string, error) {
	return "", nil
}
func (f *fakeTelegram) AnswerPreCheckoutQuery(_ context.Context, queryID string, ok bool, msg string) error {
	f.answered = true
	f.precheckoutID = queryID
	f.precheckoutOK = ok
	f.precheckoutMsg = msg
	return nil
}

func newWebhookApp(tg services.TelegramClient) *fiber.App {
	cfg := &config.Config{}
	svc := services.NewPurchaseService(nil, nil, nil, tg, nil, cfg, zap.NewNop())
	h := NewPurchaseHandler(svc, cfg, zap.NewNop())
	app := fiber.New()
	app.Post("/telegram/webhook", h.PaymentWebhook)
	return app
}

func postWebhook(t *testing.T, app *fiber.App, body string) int {
	t.Helper()
	req := httptest.NewRequest("POST", "/telegram/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("webhook request: %v", err)
	}
	return resp.StatusCode
}

func TestPaymentWebhookDeclinesUnknownInvoice(t *testing.T) {
	tg := &fakeTelegram{}
	app := newWebhookApp(tg)

	body := `{"update_id":10,"pre_checkout_query":{"id":"q-777","from":{"id":42},"currency":"XTR","total_amount":100,"invoice_payload":"not-a-purchase"}}`
	if code := postWebhook(t, app, body); code != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if !tg.answered {
		t.Fatal("pre-checkout query was not answered")
	}
	if tg.precheckoutID != "q-777" {
		t.Errorf("query id = %q, want q-777", tg.precheckoutID)
	}
	if tg.precheckoutOK {
		t.Error("unrecognized invoice payload was approved")
	}
}

func TestPaymentWebhookIgnoresUnrelatedUpdates(t *testing.T) {
	tg := &fakeTelegram{}
	app := newWebhookApp(tg)

	body := `{"update_id":11,"message":{"message_id":5,"date":0,"chat":{"id":42,"type":"private"},"text":"/start"}}`
	if code := postWebhook(t, app, body); code != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if tg.answered {
		t.Error("unrelated update triggered a pre-checkout answer")
	}
}

func TestPaymentWebhookRejectsMalformedBody(t *testing.T) {
	app := newWebhookApp(&fakeTelegram{})
	if code := postWebhook(t, app, `{"update_id":`); code != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", code)
	}
}
