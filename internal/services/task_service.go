package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cpgram/backend/internal/apperr"
	"github.com/cpgram/backend/internal/auth"
	"github.com/cpgram/backend/internal/config"
	"github.com/cpgram/backend/internal/events"
	"github.com/cpgram/backend/internal/models"
	"github.com/cpgram/backend/internal/repositories"
	"github.com/cpgram/backend/internal/tmeparser"
)

// TaskService credits bonus rewards under one-time or idempotent rules.
type TaskService struct {
	pool        *pgxpool.Pool
	taskRepo    *repositories.TaskRepo
	ledgerRepo  *repositories.LedgerRepo
	channelRepo *repositories.ChannelRepo
	userRepo    *repositories.UserRepo
	telegram    TelegramClient
	parser      *tmeparser.Parser
	publisher   events.Publisher
	redis       *redis.Client
	cfg         *config.Config
	log         *zap.Logger
}

func NewTaskService(
	pool *pgxpool.Pool,
	taskRepo *repositories.TaskRepo,
	ledgerRepo *repositories.LedgerRepo,
	channelRepo *repositories.ChannelRepo,
	userRepo *repositories.UserRepo,
	telegram TelegramClient,
	parser *tmeparser.Parser,
	publisher events.Publisher,
	redisClient *redis.Client,
	cfg *config.Config,
	log *zap.Logger,
) *TaskService {
	return &TaskService{
		pool:        pool,
		taskRepo:    taskRepo,
		ledgerRepo:  ledgerRepo,
		channelRepo: channelRepo,
		userRepo:    userRepo,
		telegram:    telegram,
		parser:      parser,
		publisher:   publisher,
		redis:       redisClient,
		cfg:         cfg,
		log:         log,
	}
}

// ClaimWelcome credits the one-shot welcome bonus. A second call fails
// with AlreadyClaimed and credits nothing.
func (s *TaskService) ClaimWelcome(ctx context.Context, userID uuid.UUID) (*models.LedgerEntry, error) {
	return s.claimOneShot(ctx, userID, models.TaskWelcome, s.cfg.WelcomeBonusCPC, models.ReasonWelcomeBonus)
}

// VerifyChannelJoin checks membership in the platform news channel via the
// Bot API before crediting the one-shot join bonus.
func (s *TaskService) VerifyChannelJoin(ctx context.Context, userID uuid.UUID) (*models.LedgerEntry, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.NotFound("user")
	}

	isMember, err := s.telegram.IsChannelMember(ctx, s.cfg.NewsChannel, user.TelegramUserID)
	if err != nil {
		return nil, apperr.Upstream("membership check failed", err)
	}
	if !isMember {
		return nil, apperr.Validation("join %s first, then claim the reward", s.cfg.NewsChannel)
	}

	return s.claimOneShot(ctx, userID, models.TaskJoinChannel, s.cfg.JoinBonusCPC, models.ReasonJoinChannelBonus)
}

func (s *TaskService) claimOneShot(ctx context.Context, userID uuid.UUID, taskType string, reward int64, reason string) (*models.LedgerEntry, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ok, err := s.taskRepo.ClaimOneShotTx(ctx, tx, userID, taskType, reward)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.New(apperr.CodeAlreadyClaimed, fmt.Sprintf("%s reward was already claimed", taskType))
	}

	entry, err := s.ledgerRepo.CreditTx(ctx, tx, userID, reward, reason, nil, nil)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	publishBalance(ctx, s.publisher, userID, entry.BalanceAfter)
	return entry, nil
}

// ClaimAdReward credits a repeatable ad-watch reward. The provider's
// signed completion callback is the only accepted proof; the event id is
// the idempotency key and a per-user cooldown throttles automation.
func (s *TaskService) ClaimAdReward(ctx context.Context, userID uuid.UUID, eventID, signature string) (*models.LedgerEntry, error) {
	if s.cfg.AdProviderSecret == "" {
		return nil, apperr.Upstream("ad rewards are not configured", nil)
	}
	if !auth.VerifyAdCompletion(s.cfg.AdProviderSecret, userID.String(), eventID, signature) {
		return nil, apperr.Forbidden("invalid ad completion signature")
	}

	cooldownKey := fmt.Sprintf("ad_cooldown:%s", userID)
	if ttl, err := s.redis.TTL(ctx, cooldownKey).Result(); err == nil && ttl > 0 {
		return nil, apperr.Cooldown(ttl)
	}

	// One credit per provider event, replay-safe for 24h.
	eventKey := fmt.Sprintf("ad_event:%s", eventID)
	set, err := s.redis.SetNX(ctx, eventKey, userID.String(), 24*time.Hour).Result()
	if err != nil {
		return nil, apperr.Upstream("reward deduplication unavailable", err)
	}
	if !set {
		return nil, apperr.New(apperr.CodeAlreadyClaimed, "this ad view was already rewarded")
	}

	entry, err := s.ledgerRepo.Credit(ctx, userID, s.cfg.AdRewardCPC,
		models.ReasonAdReward, nil, map[string]any{"event_id": eventID})
	if err != nil {
		s.redis.Del(ctx, eventKey)
		return nil, err
	}

	if err := s.redis.Set(ctx, cooldownKey, 1, s.cfg.AdRewardCooldown).Err(); err != nil {
		s.log.Warn("ad cooldown set failed", zap.Error(err))
	}
	publishBalance(ctx, s.publisher, userID, entry.BalanceAfter)
	return entry, nil
}

func (s *TaskService) ListClaimed(ctx context.Context, userID uuid.UUID) ([]models.UserTask, error) {
	return s.taskRepo.ListClaimed(ctx, userID)
}

// --- Invite task ---

// InviteStatus returns the user's latest invite task and whether they may
// start a new one.
func (s *TaskService) InviteStatus(ctx context.Context, userID uuid.UUID) (*models.InviteTask, bool, error) {
	latest, err := s.taskRepo.LatestInviteForUser(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	eligible := latest == nil ||
		(latest.Status == models.InviteStatusCompleted && latest.Renewed)
	return latest, eligible, nil
}

// InviteInitiate starts the single-sided posting flow: post the platform
// promo on your own channel, keep it up for the configured duration, claim.
func (s *TaskService) InviteInitiate(ctx context.Context, userID, channelID uuid.UUID) (*models.InviteTask, error) {
	c, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, apperr.NotFound("channel")
	}
	if c.OwnerUserID != userID {
		return nil, apperr.Forbidden("you do not own this channel")
	}
	if c.Status != models.ChannelStatusApproved {
		return nil, apperr.New(apperr.CodeIneligibleChannel, "only approved channels can run the invite task")
	}

	_, eligible, err := s.InviteStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, apperr.State("invite task is not available: finish the current one or wait for a renewal")
	}

	t := &models.InviteTask{
		UserID:        userID,
		ChannelID:     channelID,
		Status:        models.InviteStatusPendingPosting,
		DurationHours: s.cfg.InviteDurationHours,
		RewardCPC:     s.cfg.InviteRewardCPC,
	}
	if err := s.taskRepo.CreateInvite(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrInviteTaskOpen) {
			return nil, apperr.State("invite task is not available: finish the current one or wait for a renewal")
		}
		return nil, err
	}
	return t, nil
}

// InvitePromoText is the content the user must post, built around the
// mini-app link.
func (s *TaskService) InvitePromoText() string {
	return fmt.Sprintf("Grow your channel with cross-promotions: %s", s.cfg.AppURL)
}

func (s *TaskService) InviteVerifyStart(ctx context.Context, userID, taskID uuid.UUID, postLink string) (*models.InviteTask, error) {
	t, err := s.taskRepo.GetInvite(ctx, taskID)
	if err != nil {
		return nil, apperr.NotFound("invite task")
	}
	if t.UserID != userID {
		return nil, apperr.Forbidden("this is not your invite task")
	}

	username, msgID, ok := tmeparser.ParsePostLink(postLink)
	if !ok {
		return nil, apperr.Validation("post link must be a t.me message URL")
	}
	c, err := s.channelRepo.GetByID(ctx, t.ChannelID)
	if err != nil {
		return nil, apperr.NotFound("channel")
	}
	if c.Username != "" && !strings.EqualFold(username, c.Username) {
		return nil, apperr.Validation("post link must point at your channel @%s", c.Username)
	}
	if c.Username != "" {
		if _, found, err := s.parser.PostExists(ctx, username, msgID); err != nil {
			// Scrape failures do not block activation.
			s.log.Warn("post check failed", zap.String("link", postLink), zap.Error(err))
		} else if !found {
			return nil, apperr.Validation("no post found at %s", postLink)
		}
	}

	ok, err = s.taskRepo.ActivateInvite(ctx, taskID, postLink, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.State("invite task is %s", t.Status)
	}
	return s.taskRepo.GetInvite(ctx, taskID)
}

// InviteComplete claims the reward once the timer elapsed. There is no
// penalty branch: an unfinished invite task simply never pays out.
func (s *TaskService) InviteComplete(ctx context.Context, userID, taskID uuid.UUID) (*models.LedgerEntry, error) {
	t, err := s.taskRepo.GetInvite(ctx, taskID)
	if err != nil {
		return nil, apperr.NotFound("invite task")
	}
	if t.UserID != userID {
		return nil, apperr.Forbidden("this is not your invite task")
	}
	if t.Status != models.InviteStatusActive {
		return nil, apperr.State("invite task is %s, only active tasks can be claimed", t.Status)
	}

	now := time.Now()
	if rem := t.Remaining(now); rem > 0 {
		return nil, apperr.StillRunning(rem)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ok, err := s.taskRepo.CompleteInviteTx(ctx, tx, taskID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.State("invite task was already claimed")
	}

	entry, err := s.ledgerRepo.CreditTx(ctx, tx, userID, t.RewardCPC,
		models.ReasonInviteTaskReward, &taskID, nil)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	publishBalance(ctx, s.publisher, userID, entry.BalanceAfter)
	return entry, nil
}

// RenewInvite re-opens eligibility after a completed run. Admin only.
func (s *TaskService) RenewInvite(ctx context.Context, taskID uuid.UUID) error {
	ok, err := s.taskRepo.RenewInvite(ctx, taskID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.State("only completed, unrenewed invite tasks can be renewed")
	}
	return nil
}

// RenewInviteForUser renews the user's latest invite task, restoring their
// eligibility for a fresh run.
func (s *TaskService) RenewInviteForUser(ctx context.Context, userID uuid.UUID) error {
	task, err := s.taskRepo.LatestInviteForUser(ctx, userID)
	if err != nil {
		return err
	}
	if task == nil {
		return apperr.NotFound("invite task")
	}
	return s.RenewInvite(ctx, task.ID)
}
