package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cpgram/backend/internal/apperr"
	"github.com/cpgram/backend/internal/config"
	"github.com/cpgram/backend/internal/events"
	"github.com/cpgram/backend/internal/models"
	"github.com/cpgram/backend/internal/repositories"
)

// PurchaseService sells CPC for Telegram Stars. A purchase holds the
// invoice; the payment webhook credits the ledger exactly once.
type PurchaseService struct {
	pool         *pgxpool.Pool
	purchaseRepo *repositories.PurchaseRepo
	ledgerRepo   *repositories.LedgerRepo
	telegram     TelegramClient
	publisher    events.Publisher
	cfg          *config.Config
	log          *zap.Logger
}

func NewPurchaseService(
	pool *pgxpool.Pool,
	purchaseRepo *repositories.PurchaseRepo,
	ledgerRepo *repositories.LedgerRepo,
	telegram TelegramClient,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *PurchaseService {
	return &PurchaseService{
		pool:         pool,
		purchaseRepo: purchaseRepo,
		ledgerRepo:   ledgerRepo,
		telegram:     telegram,
		publisher:    publisher,
		cfg:          cfg,
		log:          log,
	}
}

// Create opens a purchase intent and returns the Stars invoice link.
func (s *PurchaseService) Create(ctx context.Context, userID uuid.UUID, amountCPC int64) (*models.Purchase, error) {
	if amountCPC < s.cfg.MinPurchaseCPC {
		return nil, apperr.Validation("minimum purchase is %d CPC", s.cfg.MinPurchaseCPC)
	}

	p := &models.Purchase{
		UserID:      userID,
		AmountCPC:   amountCPC,
		AmountStars: amountCPC * s.cfg.StarsPerCPC,
		Status:      models.PurchaseStatusPending,
	}
	if err := s.purchaseRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	link, err := s.telegram.CreateStarsInvoiceLink(ctx,
		fmt.Sprintf("%d CPC", amountCPC),
		"CP Coin top-up",
		p.ID.String(),
		p.AmountStars)
	if err != nil {
		return nil, apperr.Upstream("invoice creation failed", err)
	}
	p.InvoiceLink = &link
	_, err = s.pool.Exec(ctx, `UPDATE purchases SET invoice_link = $1 WHERE id = $2`, link, p.ID)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// AnswerPreCheckout approves or declines a pre-checkout query. Telegram
// holds the payment until we answer; we approve only when the invoice
// payload maps to a purchase that is still pending.
func (s *PurchaseService) AnswerPreCheckout(ctx context.Context, queryID, payload string) error {
	reject := func(msg string) error {
		return s.telegram.AnswerPreCheckoutQuery(ctx, queryID, false, msg)
	}

	purchaseID, err := uuid.Parse(payload)
	if err != nil {
		return reject("unrecognized invoice")
	}
	p, err := s.purchaseRepo.GetByID(ctx, purchaseID)
	if err != nil {
		return reject("purchase not found")
	}
	if p.Status != models.PurchaseStatusPending {
		return reject("purchase was already settled")
	}
	return s.telegram.AnswerPreCheckoutQuery(ctx, queryID, true, "")
}

// ConfirmPayment handles the successful_payment webhook. The invoice
// payload carries the purchase id; the status precondition makes a
// replayed webhook a no-op.
func (s *PurchaseService) ConfirmPayment(ctx context.Context, payload string) error {
	purchaseID, err := uuid.Parse(payload)
	if err != nil {
		return apperr.Validation("unrecognized invoice payload")
	}

	p, err := s.purchaseRepo.GetByID(ctx, purchaseID)
	if err != nil {
		return apperr.NotFound("purchase")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ok, err := s.purchaseRepo.MarkPaidTx(ctx, tx, purchaseID, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		s.log.Info("duplicate payment webhook ignored", zap.String("purchase_id", purchaseID.String()))
		return nil
	}

	entry, err := s.ledgerRepo.CreditTx(ctx, tx, p.UserID, p.AmountCPC,
		models.ReasonPurchase, &purchaseID, map[string]any{"stars": p.AmountStars})
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	publishBalance(ctx, s.publisher, p.UserID, entry.BalanceAfter)
	return nil
}

func (s *PurchaseService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Purchase, error) {
	return s.purchaseRepo.ListForUser(ctx, userID, limit, offset)
}
