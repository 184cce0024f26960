package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cpgram/backend/internal/apperr"
	"github.com/cpgram/backend/internal/config"
	"github.com/cpgram/backend/internal/events"
	"github.com/cpgram/backend/internal/models"
	"github.com/cpgram/backend/internal/queue"
	"github.com/cpgram/backend/internal/repositories"
	"github.com/cpgram/backend/internal/tmeparser"
)

type ChannelService struct {
	channelRepo *repositories.ChannelRepo
	userRepo    *repositories.UserRepo
	auditRepo   *repositories.AuditRepo
	parser      *tmeparser.Parser
	telegram    TelegramClient
	publisher   events.Publisher
	notifier    queue.Publisher
	cfg         *config.Config
	log         *zap.Logger
}

func NewChannelService(
	channelRepo *repositories.ChannelRepo,
	userRepo *repositories.UserRepo,
	auditRepo *repositories.AuditRepo,
	parser *tmeparser.Parser,
	telegram TelegramClient,
	publisher events.Publisher,
	notifier queue.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *ChannelService {
	return &ChannelService{
		channelRepo: channelRepo,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		parser:      parser,
		telegram:    telegram,
		publisher:   publisher,
		notifier:    notifier,
		cfg:         cfg,
		log:         log,
	}
}

// ValidatedChannel is the metadata returned to the submit form after a
// handle check.
type ValidatedChannel struct {
	Username    string `json:"username,omitempty"`
	ChatID      *int64 `json:"chat_id,omitempty"`
	Title       string `json:"title"`
	Subscribers int    `json:"subscribers"`
	AvgViews    int    `json:"avg_views"`
	Language    string `json:"language"`
}

// ValidateHandle resolves a user-supplied channel reference. Public
// channels are resolved through the Bot API with the t.me preview page as
// fallback; numeric private ids additionally require the bot to be an admin
// of the channel.
func (s *ChannelService) ValidateHandle(ctx context.Context, input string) (*ValidatedChannel, error) {
	h, ok := tmeparser.ParseHandle(input)
	if !ok {
		return nil, apperr.Validation("cannot recognize %q as a channel username, t.me link or channel id", input)
	}

	if h.IsPrivate() {
		chat, err := s.telegram.GetChat(ctx, h)
		if err != nil {
			return nil, apperr.Wrap(apperr.CodePrivateChannelNotAdmin,
				"cannot access this private channel", err).
				WithDetail("remediation", "add the bot as an administrator of the channel, then retry")
		}
		isAdmin, err := s.telegram.BotIsAdmin(ctx, chat.ChatID)
		if err != nil || !isAdmin {
			e := apperr.New(apperr.CodePrivateChannelNotAdmin, "the bot is not an administrator of this private channel")
			return nil, e.WithDetail("remediation", "add the bot as an administrator of the channel, then retry")
		}
		return &ValidatedChannel{
			ChatID: &chat.ChatID,
			Title:  chat.Title,
		}, nil
	}

	// Public channels: the Bot API is authoritative for identity when it can
	// see the channel; the t.me preview fills in the stats the API does not
	// expose and serves as fallback when the API cannot.
	v := &ValidatedChannel{Username: h.Username}
	chat, chatErr := s.telegram.GetChat(ctx, h)
	if chatErr == nil {
		v.ChatID = &chat.ChatID
		v.Title = chat.Title
		if chat.Username != "" {
			v.Username = chat.Username
		}
	}

	preview, err := s.parser.FetchPreview(ctx, h.Username)
	if err != nil {
		if chatErr != nil {
			return nil, apperr.Upstream("channel lookup failed", err)
		}
		return v, nil
	}
	if v.Title == "" {
		v.Title = preview.Title
	}
	v.Language = preview.LangGuess
	if preview.Subscribers != nil {
		v.Subscribers = *preview.Subscribers
	}
	if preview.AvgViews != nil {
		v.AvgViews = *preview.AvgViews
	}
	return v, nil
}

// Submit creates a channel in pending status. Moderation is the only path
// to approved.
func (s *ChannelService) Submit(ctx context.Context, ownerID uuid.UUID, c *models.Channel, policy *models.ChannelPolicy) (*models.Channel, error) {
	if c.Username == "" && c.TelegramChatID == nil {
		return nil, apperr.Validation("channel username or chat id is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	c.OwnerUserID = ownerID
	c.Status = models.ChannelStatusPending
	c.Topic = policy.Topic
	c.AcceptedDays = policy.AcceptedDays
	c.TimeSlots = policy.TimeSlots
	c.PromosPerDay = policy.PromosPerDay

	if err := s.channelRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	if err := s.channelRepo.UpdatePolicy(ctx, c.ID, policy); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, &models.AuditLog{
		EntityType: "channel",
		EntityID:   c.ID,
		Action:     "channel_submitted",
		ActorID:    &ownerID,
		ToStatus:   strPtr(models.ChannelStatusPending),
	})

	return c, nil
}

// Moderate transitions pending -> approved | rejected. Any other starting
// status fails.
func (s *ChannelService) Moderate(ctx context.Context, moderatorID, channelID uuid.UUID, approve bool, reason string) (*models.Channel, error) {
	c, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, apperr.NotFound("channel")
	}

	target := models.ChannelStatusApproved
	if !approve {
		target = models.ChannelStatusRejected
		if reason == "" {
			return nil, apperr.Validation("rejection reason is required")
		}
	}

	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}
	ok, err := s.channelRepo.Moderate(ctx, channelID, target, reasonPtr, moderatorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.New(apperr.CodeInvalidModeration,
			fmt.Sprintf("channel is %s, only pending channels can be moderated", c.Status))
	}

	_ = s.auditRepo.Log(ctx, &models.AuditLog{
		EntityType: "channel",
		EntityID:   channelID,
		Action:     "channel_moderated",
		ActorID:    &moderatorID,
		FromStatus: strPtr(models.ChannelStatusPending),
		ToStatus:   strPtr(target),
		Meta:       map[string]any{"reason": reason},
	})
	_ = s.publisher.Publish(ctx, events.StreamUpdates, events.Event{
		Type: events.EventChannelModerated,
		Payload: map[string]any{
			"channel_id": channelID.String(),
			"status":     target,
		},
	})
	s.notifyOwner(ctx, c.OwnerUserID, moderationMessage(c, target, reason))

	return s.channelRepo.GetByID(ctx, channelID)
}

// SetPaused toggles partner visibility. Only approved channels can be
// paused or resumed.
func (s *ChannelService) SetPaused(ctx context.Context, callerID, channelID uuid.UUID, paused bool) error {
	c, err := s.mustOwn(ctx, callerID, channelID)
	if err != nil {
		return err
	}
	ok, err := s.channelRepo.SetPaused(ctx, channelID, paused)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.New(apperr.CodeChannelNotEditable,
			fmt.Sprintf("channel is %s, only approved channels can be paused", c.Status))
	}
	return nil
}

// UpdatePolicy replaces the promotion policy of an approved channel.
func (s *ChannelService) UpdatePolicy(ctx context.Context, callerID, channelID uuid.UUID, policy *models.ChannelPolicy) error {
	c, err := s.mustOwn(ctx, callerID, channelID)
	if err != nil {
		return err
	}
	if c.Status != models.ChannelStatusApproved {
		return apperr.New(apperr.CodeChannelNotEditable,
			fmt.Sprintf("channel is %s, policy can only be edited once approved", c.Status))
	}
	if err := policy.Validate(); err != nil {
		return err
	}
	return s.channelRepo.UpdatePolicy(ctx, channelID, policy)
}

func (s *ChannelService) Get(ctx context.Context, id uuid.UUID) (*models.Channel, error) {
	c, err := s.channelRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFound("channel")
	}
	return c, nil
}

func (s *ChannelService) ListMine(ctx context.Context, ownerID uuid.UUID) ([]models.Channel, error) {
	return s.channelRepo.ListByOwner(ctx, ownerID)
}

func (s *ChannelService) ListEligible(ctx context.Context, callerID uuid.UUID, topic string, limit, offset int) ([]models.Channel, error) {
	return s.channelRepo.ListEligible(ctx, callerID, topic, limit, offset)
}

// ListForModeration defaults to the pending queue when no status filter is
// given.
func (s *ChannelService) ListForModeration(ctx context.Context, status string, limit, offset int) ([]models.Channel, error) {
	if status == "" {
		status = models.ChannelStatusPending
	}
	switch status {
	case models.ChannelStatusPending, models.ChannelStatusApproved, models.ChannelStatusRejected:
	default:
		return nil, apperr.Validation("unknown channel status %q", status)
	}
	return s.channelRepo.ListByStatus(ctx, status, limit, offset)
}

func (s *ChannelService) Prices(ctx context.Context, channelID uuid.UUID) ([]models.DurationPrice, error) {
	return s.channelRepo.GetPrices(ctx, channelID)
}

// --- Promos ---

func (s *ChannelService) AddPromo(ctx context.Context, callerID uuid.UUID, p *models.Promo) (*models.Promo, error) {
	c, err := s.mustOwn(ctx, callerID, p.ChannelID)
	if err != nil {
		return nil, err
	}
	if p.Name == "" || p.Text == "" || p.Link == "" {
		return nil, apperr.Validation("promo name, text and link are required")
	}
	if c.Username != "" && !models.LinkMatchesChannel(p.Link, c.Username) {
		return nil, apperr.Validation("promo link must point at the channel itself")
	}

	n, err := s.channelRepo.CountPromos(ctx, p.ChannelID)
	if err != nil {
		return nil, err
	}
	if n >= models.MaxPromos {
		return nil, apperr.Validation("a channel can have at most %d promos", models.MaxPromos)
	}

	if err := s.channelRepo.CreatePromo(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ChannelService) ListPromos(ctx context.Context, channelID uuid.UUID) ([]models.Promo, error) {
	return s.channelRepo.ListPromos(ctx, channelID)
}

func (s *ChannelService) DeletePromo(ctx context.Context, callerID, promoID uuid.UUID) error {
	p, err := s.channelRepo.GetPromo(ctx, promoID)
	if err != nil {
		return apperr.NotFound("promo")
	}
	if _, err := s.mustOwn(ctx, callerID, p.ChannelID); err != nil {
		return err
	}

	n, err := s.channelRepo.CountPromos(ctx, p.ChannelID)
	if err != nil {
		return err
	}
	if n <= models.MinPromos {
		return apperr.Validation("a channel must keep at least %d promo", models.MinPromos)
	}

	ok, err := s.channelRepo.DeletePromo(ctx, promoID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.State("promo is attached to a running campaign and cannot be deleted")
	}
	return nil
}

// RefreshStats re-scrapes the public page of one channel. Called by the
// worker on a schedule; scrape failures are logged, never fatal.
func (s *ChannelService) RefreshStats(ctx context.Context, c *models.Channel) {
	if c.Username == "" {
		return
	}
	preview, err := s.parser.FetchPreview(ctx, c.Username)
	if err != nil {
		s.log.Warn("stats refresh failed",
			zap.String("channel", c.Username), zap.Error(err))
		return
	}

	subscribers, avgViews := c.Subscribers, c.AvgViews
	if preview.Subscribers != nil {
		subscribers = *preview.Subscribers
	}
	if preview.AvgViews != nil {
		avgViews = *preview.AvgViews
	}
	lang := c.Language
	if preview.LangGuess != "unknown" && preview.LangGuess != "other" {
		lang = preview.LangGuess
	}
	if err := s.channelRepo.UpdateStats(ctx, c.ID, subscribers, avgViews, lang); err != nil {
		s.log.Warn("stats update failed", zap.String("channel", c.Username), zap.Error(err))
	}
}

func (s *ChannelService) mustOwn(ctx context.Context, callerID, channelID uuid.UUID) (*models.Channel, error) {
	c, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, apperr.NotFound("channel")
	}
	if c.OwnerUserID != callerID {
		return nil, apperr.Forbidden("you do not own this channel")
	}
	return c, nil
}

func (s *ChannelService) notifyOwner(ctx context.Context, ownerID uuid.UUID, text string) {
	if s.notifier == nil {
		return
	}
	owner, err := s.userRepo.GetByID(ctx, ownerID)
	if err != nil {
		s.log.Warn("notify: owner lookup failed", zap.Error(err))
		return
	}
	if err := s.notifier.PublishNotification(ctx, queue.Notification{
		TelegramUserID: owner.TelegramUserID,
		Text:           text,
	}); err != nil {
		s.log.Warn("notify: publish failed", zap.Error(err))
	}
}

func moderationMessage(c *models.Channel, status, reason string) string {
	name := c.Title
	if name == "" {
		name = "@" + c.Username
	}
	if status == models.ChannelStatusApproved {
		return fmt.Sprintf("Your channel %s has been approved. You can now exchange promotions.", name)
	}
	if reason != "" {
		return fmt.Sprintf("Your channel %s was rejected: %s", name, reason)
	}
	return fmt.Sprintf("Your channel %s was rejected.", name)
}

func strPtr(s string) *string { return &s }
