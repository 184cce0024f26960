package repositories

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cpgram/backend/internal/models"
)

// ErrInsufficientFunds is returned when a debit would drive the balance
// negative. The conditional update never lets that happen.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx, so ledger
// mutations compose into larger transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type LedgerRepo struct {
	pool *pgxpool.Pool
}

func NewLedgerRepo(pool *pgxpool.Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

func (r *LedgerRepo) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx, `SELECT cpc_balance FROM users WHERE id = $1`, userID).Scan(&balance)
	return balance, err
}

func (r *LedgerRepo) Credit(ctx context.Context, userID uuid.UUID, amount int64, reason string, relatedID *uuid.UUID, meta map[string]any) (*models.LedgerEntry, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	entry, err := r.CreditTx(ctx, tx, userID, amount, reason, relatedID, meta)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *LedgerRepo) Debit(ctx context.Context, userID uuid.UUID, amount int64, reason string, relatedID *uuid.UUID, meta map[string]any) (*models.LedgerEntry, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	entry, err := r.DebitTx(ctx, tx, userID, amount, reason, relatedID, meta)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return entry, nil
}

// CreditTx adds amount to the user's balance and appends the ledger entry
// in the caller's transaction.
func (r *LedgerRepo) CreditTx(ctx context.Context, q Querier, userID uuid.UUID, amount int64, reason string, relatedID *uuid.UUID, meta map[string]any) (*models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, errors.New("credit amount must be positive")
	}

	var balanceAfter int64
	err := q.QueryRow(ctx, `
		UPDATE users SET cpc_balance = cpc_balance + $1 WHERE id = $2
		RETURNING cpc_balance
	`, amount, userID).Scan(&balanceAfter)
	if err != nil {
		return nil, err
	}

	return r.insertEntry(ctx, q, userID, amount, balanceAfter, reason, relatedID, meta)
}

// DebitTx subtracts amount from the user's balance. The balance guard is
// part of the UPDATE itself, so two concurrent debits can never both pass
// a check against a stale balance.
func (r *LedgerRepo) DebitTx(ctx context.Context, q Querier, userID uuid.UUID, amount int64, reason string, relatedID *uuid.UUID, meta map[string]any) (*models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, errors.New("debit amount must be positive")
	}

	var balanceAfter int64
	err := q.QueryRow(ctx, `
		UPDATE users SET cpc_balance = cpc_balance - $1
		WHERE id = $2 AND cpc_balance >= $1
		RETURNING cpc_balance
	`, amount, userID).Scan(&balanceAfter)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInsufficientFunds
	}
	if err != nil {
		return nil, err
	}

	return r.insertEntry(ctx, q, userID, -amount, balanceAfter, reason, relatedID, meta)
}

// DebitUpToTx debits at most amount, clamped to the current balance. Used
// for the expiry penalty, which never creates debt. The shortfall, if any,
// is recorded in the entry meta.
func (r *LedgerRepo) DebitUpToTx(ctx context.Context, q Querier, userID uuid.UUID, amount int64, reason string, relatedID *uuid.UUID) (int64, error) {
	var balance int64
	err := q.QueryRow(ctx, `SELECT cpc_balance FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance)
	if err != nil {
		return 0, err
	}

	debited, shortfall := models.ExpiryDebit(balance, amount)
	meta := map[string]any{"requested": amount}
	if shortfall > 0 {
		meta["shortfall"] = shortfall
	}

	balanceAfter := balance
	if debited > 0 {
		err = q.QueryRow(ctx, `
			UPDATE users SET cpc_balance = cpc_balance - $1 WHERE id = $2
			RETURNING cpc_balance
		`, debited, userID).Scan(&balanceAfter)
		if err != nil {
			return 0, err
		}
	}

	if _, err := r.insertEntry(ctx, q, userID, -debited, balanceAfter, reason, relatedID, meta); err != nil {
		return 0, err
	}
	return debited, nil
}

func (r *LedgerRepo) insertEntry(ctx context.Context, q Querier, userID uuid.UUID, delta, balanceAfter int64, reason string, relatedID *uuid.UUID, meta map[string]any) (*models.LedgerEntry, error) {
	var metaJSON []byte
	if meta != nil {
		b, err := json.Marshal(meta)
		if err != nil {
			return nil, err
		}
		metaJSON = b
	}

	e := &models.LedgerEntry{
		UserID:       userID,
		Delta:        delta,
		BalanceAfter: balanceAfter,
		Reason:       reason,
		RelatedID:    relatedID,
		Meta:         meta,
	}
	err := q.QueryRow(ctx, `
		INSERT INTO ledger_entries (user_id, delta, balance_after, reason, related_id, meta)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, userID, delta, balanceAfter, reason, relatedID, metaJSON).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *LedgerRepo) ListEntries(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, delta, balance_after, reason, related_id, meta, created_at
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		var metaJSON []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.Delta, &e.BalanceAfter, &e.Reason, &e.RelatedID, &metaJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &e.Meta)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
