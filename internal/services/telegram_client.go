package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/cpgram/backend/internal/tmeparser"
)

// ChatInfo is the subset of Telegram chat metadata the registry needs.
type ChatInfo struct {
	ChatID   int64
	Username string
	Title    string
}

// TelegramClient wraps the Bot API calls the engine depends on. Failures
// surface as upstream errors and never corrupt local state.
type TelegramClient interface {
	GetChat(ctx context.Context, h tmeparser.Handle) (*ChatInfo, error)
	BotIsAdmin(ctx context.Context, chatID int64) (bool, error)
	IsChannelMember(ctx context.Context, channel string, telegramUserID int64) (bool, error)
	SendMessage(ctx context.Context, telegramUserID int64, text string) error
	CreateStarsInvoiceLink(ctx context.Context, title, description, payload string, stars int64) (string, error)
	AnswerPreCheckoutQuery(ctx context.Context, queryID string, ok bool, errorMessage string) error
}

type botClient struct {
	bot *tgbotapi.BotAPI
	log *zap.Logger
}

func NewTelegramClient(token string, log *zap.Logger) (TelegramClient, error) {
	if token == "" {
		return nil, errors.New("bot token is empty")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Info("telegram bot connected", zap.String("username", bot.Self.UserName))
	return &botClient{bot: bot, log: log}, nil
}

func chatConfig(h tmeparser.Handle) tgbotapi.ChatConfig {
	if h.IsPrivate() {
		return tgbotapi.ChatConfig{ChatID: h.ChatID}
	}
	return tgbotapi.ChatConfig{SuperGroupUsername: "@" + h.Username}
}

func (c *botClient) GetChat(_ context.Context, h tmeparser.Handle) (*ChatInfo, error) {
	chat, err := c.bot.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: chatConfig(h)})
	if err != nil {
		return nil, fmt.Errorf("getChat: %w", err)
	}
	return &ChatInfo{
		ChatID:   chat.ID,
		Username: chat.UserName,
		Title:    chat.Title,
	}, nil
}

func (c *botClient) BotIsAdmin(_ context.Context, chatID int64) (bool, error) {
	member, err := c.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: chatID,
			UserID: c.bot.Self.ID,
		},
	})
	if err != nil {
		return false, fmt.Errorf("getChatMember(self): %w", err)
	}
	return member.IsAdministrator() || member.IsCreator(), nil
}

func (c *botClient) IsChannelMember(_ context.Context, channel string, telegramUserID int64) (bool, error) {
	member, err := c.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			SuperGroupUsername: channel,
			UserID:             telegramUserID,
		},
	})
	if err != nil {
		return false, fmt.Errorf("getChatMember: %w", err)
	}
	return member.IsMember || member.IsAdministrator() || member.IsCreator(), nil
}

func (c *botClient) SendMessage(_ context.Context, telegramUserID int64, text string) error {
	msg := tgbotapi.NewMessage(telegramUserID, text)
	msg.DisableWebPagePreview = true
	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("sendMessage: %w", err)
	}
	return nil
}

// CreateStarsInvoiceLink calls createInvoiceLink directly: the endpoint is
// newer than the typed bindings. Currency XTR with an empty provider token
// is how Telegram Stars invoices are issued.
func (c *botClient) CreateStarsInvoiceLink(_ context.Context, title, description, payload string, stars int64) (string, error) {
	prices, err := json.Marshal([]map[string]any{{"label": title, "amount": stars}})
	if err != nil {
		return "", err
	}

	resp, err := c.bot.MakeRequest("createInvoiceLink", tgbotapi.Params{
		"title":       title,
		"description": description,
		"payload":     payload,
		"currency":    "XTR",
		"prices":      string(prices),
	})
	if err != nil {
		return "", fmt.Errorf("createInvoiceLink: %w", err)
	}

	var link string
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", fmt.Errorf("createInvoiceLink result: %w", err)
	}
	return link, nil
}

// AnswerPreCheckoutQuery must succeed within 10 seconds of the query or
// Telegram cancels the payment.
func (c *botClient) AnswerPreCheckoutQuery(_ context.Context, queryID string, ok bool, errorMessage string) error {
	if _, err := c.bot.Request(tgbotapi.PreCheckoutConfig{
		PreCheckoutQueryID: queryID,
		OK:                 ok,
		ErrorMessage:       errorMessage,
	}); err != nil {
		return fmt.Errorf("answerPreCheckoutQuery: %w", err)
	}
	return nil
}
