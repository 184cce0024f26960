package services

import (
	"context"
	"fmt"
	"strings"
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
	"github.com/cpgram/backend/internal/tmeparser"
)

// CampaignService drives the campaign state machine. Deadline and duration
// checks use server time only and are evaluated lazily on read plus a
// periodic sweep; both paths guard every transition with a status
// precondition in the UPDATE itself.
type CampaignService struct {
	pool         *pgxpool.Pool
	campaignRepo *repositories.CampaignRepo
	channelRepo  *repositories.ChannelRepo
	ledgerRepo   *repositories.LedgerRepo
	userRepo     *repositories.UserRepo
	auditRepo    *repositories.AuditRepo
	parser       *tmeparser.Parser
	publisher    events.Publisher
	notifier     queue.Publisher
	cfg          *config.Config
	log          *zap.Logger
}

func NewCampaignService(
	pool *pgxpool.Pool,
	campaignRepo *repositories.CampaignRepo,
	channelRepo *repositories.ChannelRepo,
	ledgerRepo *repositories.LedgerRepo,
	userRepo *repositories.UserRepo,
	auditRepo *repositories.AuditRepo,
	parser *tmeparser.Parser,
	publisher events.Publisher,
	notifier queue.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *CampaignService {
	return &CampaignService{
		pool:         pool,
		campaignRepo: campaignRepo,
		channelRepo:  channelRepo,
		ledgerRepo:   ledgerRepo,
		userRepo:     userRepo,
		auditRepo:    auditRepo,
		parser:       parser,
		publisher:    publisher,
		notifier:     notifier,
		cfg:          cfg,
		log:          log,
	}
}

// Get returns a campaign after lazily expiring it if its posting deadline
// passed unnoticed.
func (s *CampaignService) Get(ctx context.Context, callerID, id uuid.UUID) (*models.Campaign, error) {
	c, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFound("campaign")
	}
	if _, err := s.callerChannel(ctx, callerID, c); err != nil {
		return nil, err
	}

	if c.Status == models.CampaignStatusPendingPosting && c.DeadlinePassed(time.Now()) {
		s.expireOne(ctx, c)
		return s.campaignRepo.GetByID(ctx, id)
	}
	return c, nil
}

// List returns campaigns involving the caller's channels, expiring overdue
// ones on the way out.
func (s *CampaignService) List(ctx context.Context, callerID uuid.UUID, status string, limit, offset int) ([]models.Campaign, error) {
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

	campaigns, err := s.campaignRepo.ListForChannels(ctx, ids, status, limit, offset)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range campaigns {
		c := &campaigns[i]
		if c.Status == models.CampaignStatusPendingPosting && c.DeadlinePassed(now) {
			s.expireOne(ctx, c)
			if fresh, err := s.campaignRepo.GetByID(ctx, c.ID); err == nil {
				campaigns[i] = *fresh
			}
		}
	}
	return campaigns, nil
}

// VerifyStart records the post link and starts the run timer. Only the
// requesting channel's owner (the obligated poster) may call it, and only
// while the posting window is open.
func (s *CampaignService) VerifyStart(ctx context.Context, callerID, campaignID uuid.UUID, postLink string) (*models.Campaign, error) {
	c, err := s.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, apperr.NotFound("campaign")
	}

	from, err := s.channelRepo.GetByID(ctx, c.FromChannelID)
	if err != nil {
		return nil, apperr.NotFound("channel")
	}
	if from.OwnerUserID != callerID {
		return nil, apperr.Forbidden("only the posting channel owner can submit the link")
	}

	if c.Status == models.CampaignStatusActive {
		return nil, apperr.State("post link was already submitted, campaign is active")
	}
	if c.Status != models.CampaignStatusPendingPosting {
		return nil, apperr.State("campaign is %s", c.Status)
	}

	username, msgID, ok := tmeparser.ParsePostLink(postLink)
	if !ok {
		return nil, apperr.Validation("post link must be a t.me message URL")
	}
	if from.Username != "" && !strings.EqualFold(username, from.Username) {
		return nil, apperr.Validation("post link must point at your channel @%s", from.Username)
	}
	if from.Username != "" {
		if _, found, err := s.parser.PostExists(ctx, username, msgID); err != nil {
			// Scrape failures do not block activation.
			s.log.Warn("post check failed", zap.String("link", postLink), zap.Error(err))
		} else if !found {
			return nil, apperr.Validation("no post found at %s", postLink)
		}
	}

	now := time.Now()
	if c.DeadlinePassed(now) {
		s.expireOne(ctx, c)
		return nil, apperr.State("posting deadline has passed, campaign expired")
	}

	ok, err = s.campaignRepo.Activate(ctx, campaignID, postLink, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race against the sweep or a concurrent submission.
		fresh, ferr := s.campaignRepo.GetByID(ctx, campaignID)
		if ferr == nil && fresh.Status == models.CampaignStatusActive {
			return nil, apperr.State("post link was already submitted, campaign is active")
		}
		return nil, apperr.State("posting deadline has passed, campaign expired")
	}

	s.audit(ctx, campaignID, "campaign_started", &callerID,
		models.CampaignStatusPendingPosting, models.CampaignStatusActive,
		map[string]any{"post_link": postLink})
	s.publishStatus(ctx, campaignID, models.CampaignStatusActive)

	if to, err := s.channelRepo.GetByID(ctx, c.ToChannelID); err == nil {
		s.notifyOwner(ctx, to.OwnerUserID, fmt.Sprintf(
			"Your promo is live: %s (runs for %dh)", postLink, c.DurationHours))
	}

	return s.campaignRepo.GetByID(ctx, campaignID)
}

// Complete settles an active campaign once its run window has elapsed.
// Either party may claim; the engine, not the client timer, decides
// whether enough time passed. Settlement is one transaction: escrow
// release plus the completion reward to the promoted channel's owner.
func (s *CampaignService) Complete(ctx context.Context, callerID, campaignID uuid.UUID) (*models.Campaign, error) {
	c, err := s.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, apperr.NotFound("campaign")
	}
	if _, err := s.callerChannel(ctx, callerID, c); err != nil {
		return nil, err
	}

	if c.Status != models.CampaignStatusActive {
		return nil, apperr.State("campaign is %s, only active campaigns can be completed", c.Status)
	}

	now := time.Now()
	if rem := c.Remaining(now); rem > 0 {
		return nil, apperr.StillRunning(rem)
	}

	to, err := s.channelRepo.GetByID(ctx, c.ToChannelID)
	if err != nil {
		return nil, apperr.NotFound("channel")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ok, err := s.campaignRepo.CompleteTx(ctx, tx, campaignID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.State("campaign was already settled")
	}

	var lastEntry *models.LedgerEntry
	for _, line := range models.CompletionLines(to.OwnerUserID, c.CPCCost, s.cfg.CompletionRewardCPC) {
		entry, err := s.ledgerRepo.CreditTx(ctx, tx, line.UserID, line.Delta, line.Reason, &campaignID, nil)
		if err != nil {
			return nil, err
		}
		lastEntry = entry
	}

	if err := s.channelRepo.IncrementCompletedExchanges(ctx, tx, c.FromChannelID); err != nil {
		return nil, err
	}
	if err := s.channelRepo.IncrementCompletedExchanges(ctx, tx, c.ToChannelID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.audit(ctx, campaignID, "campaign_completed", &callerID,
		models.CampaignStatusActive, models.CampaignStatusCompleted,
		map[string]any{"escrow_release": c.CPCCost, "reward": s.cfg.CompletionRewardCPC})
	s.publishStatus(ctx, campaignID, models.CampaignStatusCompleted)
	if lastEntry != nil {
		publishBalance(ctx, s.publisher, to.OwnerUserID, lastEntry.BalanceAfter)
	}

	s.notifyOwner(ctx, to.OwnerUserID, fmt.Sprintf(
		"Campaign completed: %d CPC released to your balance plus a %d CPC reward.",
		c.CPCCost, s.cfg.CompletionRewardCPC))

	return s.campaignRepo.GetByID(ctx, campaignID)
}

// ExpireDue transitions all overdue pending_posting campaigns. Safe to run
// concurrently with user-triggered checks: every row is guarded by the
// status and deadline preconditions.
func (s *CampaignService) ExpireDue(ctx context.Context) int {
	due, err := s.campaignRepo.ListDueExpiry(ctx, 100)
	if err != nil {
		s.log.Error("expiry sweep query failed", zap.Error(err))
		return 0
	}

	expired := 0
	for i := range due {
		if s.expireOne(ctx, &due[i]) {
			expired++
		}
	}
	return expired
}

// expireOne moves one campaign to expired and applies the penalty to the
// defaulting requester. The escrow is forfeited, the penalty is additional
// but clamped at a zero balance. Returns false when another path already
// settled the campaign.
func (s *CampaignService) expireOne(ctx context.Context, c *models.Campaign) bool {
	from, err := s.channelRepo.GetByID(ctx, c.FromChannelID)
	if err != nil {
		s.log.Error("expire: channel lookup failed", zap.String("campaign_id", c.ID.String()), zap.Error(err))
		return false
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		s.log.Error("expire: begin failed", zap.Error(err))
		return false
	}
	defer tx.Rollback(ctx)

	ok, err := s.campaignRepo.ExpireTx(ctx, tx, c.ID)
	if err != nil {
		s.log.Error("expire: transition failed", zap.String("campaign_id", c.ID.String()), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}

	penalty, err := s.ledgerRepo.DebitUpToTx(ctx, tx, from.OwnerUserID,
		s.cfg.ExpiryPenaltyCPC, models.ReasonExpiryPenalty, &c.ID)
	if err != nil {
		s.log.Error("expire: penalty failed", zap.String("campaign_id", c.ID.String()), zap.Error(err))
		return false
	}

	if err := tx.Commit(ctx); err != nil {
		s.log.Error("expire: commit failed", zap.Error(err))
		return false
	}

	s.audit(ctx, c.ID, "campaign_expired", nil,
		models.CampaignStatusPendingPosting, models.CampaignStatusExpired,
		map[string]any{"forfeited_escrow": c.CPCCost, "penalty": penalty})
	s.publishStatus(ctx, c.ID, models.CampaignStatusExpired)
	if bal, err := s.ledgerRepo.Balance(ctx, from.OwnerUserID); err == nil {
		publishBalance(ctx, s.publisher, from.OwnerUserID, bal)
	}

	s.notifyOwner(ctx, from.OwnerUserID, fmt.Sprintf(
		"Campaign expired: no post link was submitted within %dh. The %d CPC escrow is forfeited and a %d CPC penalty was applied.",
		s.cfg.PostingDeadlineHours, c.CPCCost, penalty))

	return true
}

func (s *CampaignService) callerChannel(ctx context.Context, callerID uuid.UUID, c *models.Campaign) (*models.Channel, error) {
	channels, err := s.channelRepo.ListByOwner(ctx, callerID)
	if err != nil {
		return nil, err
	}
	for i := range channels {
		if c.IsParty(channels[i].ID) {
			return &channels[i], nil
		}
	}
	return nil, apperr.Forbidden("you are not a party of this campaign")
}

func (s *CampaignService) audit(ctx context.Context, campaignID uuid.UUID, action string, actorID *uuid.UUID, from, to string, meta map[string]any) {
	_ = s.auditRepo.Log(ctx, &models.AuditLog{
		EntityType: "campaign",
		EntityID:   campaignID,
		Action:     action,
		ActorID:    actorID,
		FromStatus: &from,
		ToStatus:   &to,
		Meta:       meta,
	})
}

func (s *CampaignService) publishStatus(ctx context.Context, campaignID uuid.UUID, status string) {
	_ = s.publisher.Publish(ctx, events.StreamUpdates, events.Event{
		Type: events.EventCampaignStatusChanged,
		Payload: map[string]any{
			"campaign_id": campaignID.String(),
			"status":      status,
		},
	})
}

func (s *CampaignService) notifyOwner(ctx context.Context, ownerID uuid.UUID, text string) {
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
