package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cpgram/backend/internal/apperr"
	"github.com/cpgram/backend/internal/models"
	"github.com/cpgram/backend/internal/repositories"
)

// LedgerService serves balance reads and transaction history. Mutations go
// through the owning flows (campaigns, tasks, purchases), never through a
// raw endpoint.
type LedgerService struct {
	ledgerRepo *repositories.LedgerRepo
	log        *zap.Logger
}

func NewLedgerService(ledgerRepo *repositories.LedgerRepo, log *zap.Logger) *LedgerService {
	return &LedgerService{ledgerRepo: ledgerRepo, log: log}
}

func (s *LedgerService) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	balance, err := s.ledgerRepo.Balance(ctx, userID)
	if err != nil {
		return 0, apperr.Wrap(apperr.CodeNotFound, "user not found", err)
	}
	return balance, nil
}

func (s *LedgerService) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	return s.ledgerRepo.ListEntries(ctx, userID, limit, offset)
}
