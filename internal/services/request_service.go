package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cpgram/backend/internal/apperr"
	"github.com/cpgram/backend/internal/config"
	"github.com/cpgram/backend/internal/events"
	"github.com/cpgram/backend/internal/models"
	"github.com/cpgram/backend/internal/queue"
	"github.com/cpgram/backend/internal/repositories"
)

type RequestService struct {
	pool         *pgxpool.Pool
	requestRepo  *repositories.RequestRepo
	campaignRepo *repositories.CampaignRepo
	channelRepo  *repositories.ChannelRepo
	ledgerRepo   *repositories.LedgerRepo
	userRepo     *repositories.UserRepo
	auditRepo    *repositories.AuditRepo
	publisher    events.Publisher
	notifier     queue.Publisher
	cfg          *config.Config
	log          *zap.Logger
}

func NewRequestService(
	pool *pgxpool.Pool,
	requestRepo *repositories.RequestRepo,
	campaignRepo *repositories.CampaignRepo,
	channelRepo *repositories.ChannelRepo,
	ledgerRepo *repositories.LedgerRepo,
	userRepo *repositories.UserRepo,
	auditRepo *repositories.AuditRepo,
	publisher events.Publisher,
	notifier queue.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *RequestService {
	return &RequestService{
		pool:         pool,
		requestRepo:  requestRepo,
		campaignRepo: campaignRepo,
		channelRepo:  channelRepo,
		ledgerRepo:   ledgerRepo,
		userRepo:     userRepo,
		auditRepo:    auditRepo,
		publisher:    publisher,
		notifier:     notifier,
		cfg:          cfg,
		log:          log,
	}
}

// Create validates schedule and eligibility and snapshots the price. No
// funds move until the recipient accepts.
func (s *RequestService) Create(ctx context.Context, callerID, fromChannelID, toChannelID uuid.UUID, day string, timeSlot, durationHours int) (*models.PromoRequest, error) {
	if fromChannelID == toChannelID {
		return nil, apperr.Validation("a channel cannot request a promotion from itself")
	}

	from, err := s.channelRepo.GetByID(ctx, fromChannelID)
	if err != nil {
		return nil, apperr.NotFound("channel")
	}
	if from.OwnerUserID != callerID {
		return nil, apperr.Forbidden("you do not own the requesting channel")
	}
	if !from.Eligible() {
		return nil, apperr.New(apperr.CodeIneligibleChannel, "your channel must be approved and active to send requests")
	}

	to, err := s.channelRepo.GetByID(ctx, toChannelID)
	if err != nil {
		return nil, apperr.NotFound("channel")
	}
	if to.OwnerUserID == callerID {
		return nil, apperr.Validation("both channels belong to you")
	}
	if !to.Eligible() {
		return nil, apperr.New(apperr.CodeIneligibleChannel, "the partner channel is not accepting requests")
	}

	if !to.AcceptsDay(day) {
		return nil, apperr.New(apperr.CodeScheduleUnavailable,
			fmt.Sprintf("the partner channel does not accept promotions on %s", day)).
			WithDetail("accepted_days", to.AcceptedDays)
	}
	if !to.AcceptsSlot(timeSlot) {
		return nil, apperr.New(apperr.CodeScheduleUnavailable,
			fmt.Sprintf("time slot %d:00 UTC is not offered by the partner channel", timeSlot)).
			WithDetail("time_slots", to.TimeSlots)
	}

	prices, err := s.channelRepo.GetPrices(ctx, toChannelID)
	if err != nil {
		return nil, err
	}
	cost, ok := models.PriceFor(prices, durationHours)
	if !ok {
		return nil, apperr.New(apperr.CodeScheduleUnavailable,
			fmt.Sprintf("%d hour duration is not offered by the partner channel", durationHours))
	}

	balance, err := s.ledgerRepo.Balance(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if balance <= 0 {
		return nil, apperr.New(apperr.CodeInsufficientBalance, "you need CPC on your balance to send requests").
			WithDetail("balance", balance)
	}

	pr := &models.PromoRequest{
		FromChannelID: fromChannelID,
		ToChannelID:   toChannelID,
		DaySelected:   day,
		TimeSelected:  timeSlot,
		DurationHours: durationHours,
		CPCCost:       cost,
		Status:        models.RequestStatusPending,
	}
	if err := s.requestRepo.Create(ctx, pr); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, &models.AuditLog{
		EntityType: "request",
		EntityID:   pr.ID,
		Action:     "request_created",
		ActorID:    &callerID,
		ToStatus:   strPtr(models.RequestStatusPending),
		Meta:       map[string]any{"cpc_cost": cost},
	})
	s.notifyOwner(ctx, to.OwnerUserID, fmt.Sprintf(
		"New cross-promotion request for %s: %s at %02d:00 UTC, %dh for %d CPC.",
		channelName(to), day, timeSlot, durationHours, cost))

	return pr, nil
}

// Accept resolves a pending request: escrows the snapshotted cost from the
// requester and creates the campaign, all in one transaction. promoID is
// the recipient owner's chosen promo, which the requester will post.
func (s *RequestService) Accept(ctx context.Context, callerID, requestID, promoID uuid.UUID) (*models.Campaign, error) {
	pr, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, apperr.NotFound("request")
	}

	to, err := s.channelRepo.GetByID(ctx, pr.ToChannelID)
	if err != nil {
		return nil, apperr.NotFound("channel")
	}
	if to.OwnerUserID != callerID {
		return nil, apperr.Forbidden("only the recipient channel owner can accept")
	}
	if pr.IsResolved() {
		return nil, apperr.State("request is already %s", pr.Status)
	}

	promo, err := s.channelRepo.GetPromo(ctx, promoID)
	if err != nil {
		return nil, apperr.NotFound("promo")
	}
	if promo.ChannelID != pr.ToChannelID {
		return nil, apperr.Validation("the selected promo does not belong to your channel")
	}

	from, err := s.channelRepo.GetByID(ctx, pr.FromChannelID)
	if err != nil {
		return nil, apperr.NotFound("channel")
	}

	now := time.Now()
	campaign := &models.Campaign{
		RequestID:       pr.ID,
		FromChannelID:   pr.FromChannelID,
		ToChannelID:     pr.ToChannelID,
		PromoID:         promoID,
		DurationHours:   pr.DurationHours,
		CPCCost:         pr.CPCCost,
		Status:          models.CampaignStatusPendingPosting,
		PostingDeadline: models.PostingDeadlineFor(now, s.cfg.PostingDeadlineHours),
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ok, err := s.requestRepo.AcceptTx(ctx, tx, requestID, promoID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.State("request was already resolved")
	}

	if err := s.campaignRepo.CreateTx(ctx, tx, campaign); err != nil {
		return nil, err
	}

	// Escrow: the requester pays now, the recipient is credited only at
	// completion.
	escrowEntry, err := s.ledgerRepo.DebitTx(ctx, tx, from.OwnerUserID, pr.CPCCost,
		models.ReasonCampaignEscrow, &campaign.ID, map[string]any{"request_id": pr.ID.String()})
	if errors.Is(err, repositories.ErrInsufficientFunds) {
		// Rollback leaves the request pending: the requester can top up and
		// the recipient can retry.
		balance, _ := s.ledgerRepo.Balance(ctx, from.OwnerUserID)
		return nil, apperr.InsufficientFunds(pr.CPCCost, balance)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, &models.AuditLog{
		EntityType: "campaign",
		EntityID:   campaign.ID,
		Action:     "campaign_created",
		ActorID:    &callerID,
		ToStatus:   strPtr(models.CampaignStatusPendingPosting),
		Meta: map[string]any{
			"request_id": pr.ID.String(),
			"cpc_cost":   pr.CPCCost,
			"deadline":   campaign.PostingDeadline,
		},
	})
	_ = s.publisher.Publish(ctx, events.StreamUpdates, events.Event{
		Type: events.EventRequestResolved,
		Payload: map[string]any{
			"request_id":  pr.ID.String(),
			"campaign_id": campaign.ID.String(),
			"status":      models.RequestStatusAccepted,
		},
	})
	publishBalance(ctx, s.publisher, from.OwnerUserID, escrowEntry.BalanceAfter)

	// Deliver the promo content to the requester. Soft failure: they can
	// still copy it from the app and submit the post link manually.
	s.notifyOwner(ctx, from.OwnerUserID, fmt.Sprintf(
		"Your request was accepted. Post this promo within %dh:\n\n%s\n%s",
		s.cfg.PostingDeadlineHours, promo.Text, promo.Link))

	return campaign, nil
}

// Decline resolves a pending request with a mandatory reason forwarded to
// the requester. No funds move.
func (s *RequestService) Decline(ctx context.Context, callerID, requestID uuid.UUID, reason string) error {
	if reason == "" {
		return apperr.Validation("a decline reason is required")
	}

	pr, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return apperr.NotFound("request")
	}
	to, err := s.channelRepo.GetByID(ctx, pr.ToChannelID)
	if err != nil {
		return apperr.NotFound("channel")
	}
	if to.OwnerUserID != callerID {
		return apperr.Forbidden("only the recipient channel owner can decline")
	}

	ok, err := s.requestRepo.Reject(ctx, requestID, reason)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.State("request is already %s", pr.Status)
	}

	_ = s.auditRepo.Log(ctx, &models.AuditLog{
		EntityType: "request",
		EntityID:   requestID,
		Action:     "request_declined",
		ActorID:    &callerID,
		FromStatus: strPtr(models.RequestStatusPending),
		ToStatus:   strPtr(models.RequestStatusRejected),
		Meta:       map[string]any{"reason": reason},
	})
	_ = s.publisher.Publish(ctx, events.StreamUpdates, events.Event{
		Type: events.EventRequestResolved,
		Payload: map[string]any{
			"request_id": requestID.String(),
			"status":     models.RequestStatusRejected,
		},
	})

	if from, err := s.channelRepo.GetByID(ctx, pr.FromChannelID); err == nil {
		s.notifyOwner(ctx, from.OwnerUserID, fmt.Sprintf(
			"Your cross-promotion request was declined: %s", reason))
	}

	return nil
}

// List returns requests involving any of the caller's channels.
func (s *RequestService) List(ctx context.Context, callerID uuid.UUID, status string, limit, offset int) ([]models.PromoRequest, error) {
	channels, err := s.channelRepo.ListByOwner(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, len(channels))
	for i, c := range channels {
		ids[i] = c.ID
	}
	return s.requestRepo.ListForChannels(ctx, ids, status, limit, offset)
}

func (s *RequestService) notifyOwner(ctx context.Context, ownerID uuid.UUID, text string) {
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

func channelName(c *models.Channel) string {
	if c.Title != "" {
		return c.Title
	}
	return "@" + c.Username
}
