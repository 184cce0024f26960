package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cpgram/backend/internal/models"
)

type PurchaseRepo struct {
	pool *pgxpool.Pool
}

func NewPurchaseRepo(pool *pgxpool.Pool) *PurchaseRepo {
	return &PurchaseRepo{pool: pool}
}

func (r *PurchaseRepo) Create(ctx context.Context, p *models.Purchase) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO purchases (user_id, amount_cpc, amount_stars, status, invoice_link)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, p.UserID, p.AmountCPC, p.AmountStars, models.PurchaseStatusPending, p.InvoiceLink,
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *PurchaseRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var p models.Purchase
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, amount_cpc, amount_stars, status, invoice_link, paid_at, created_at
		FROM purchases WHERE id = $1
	`, id).Scan(&p.ID, &p.UserID, &p.AmountCPC, &p.AmountStars, &p.Status, &p.InvoiceLink, &p.PaidAt, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkPaidTx flips a pending purchase to paid inside the credit
// transaction. Returns false when already paid, so a replayed webhook
// cannot credit twice.
func (r *PurchaseRepo) MarkPaidTx(ctx context.Context, q Querier, id uuid.UUID, paidAt time.Time) (bool, error) {
	tag, err := q.Exec(ctx, `
		UPDATE purchases SET status = $1, paid_at = $2
		WHERE id = $3 AND status = $4
	`, models.PurchaseStatusPaid, paidAt, id, models.PurchaseStatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PurchaseRepo) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Purchase, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, amount_cpc, amount_stars, status, invoice_link, paid_at, created_at
		FROM purchases WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purchases []models.Purchase
	for rows.Next() {
		var p models.Purchase
		if err := rows.Scan(&p.ID, &p.UserID, &p.AmountCPC, &p.AmountStars, &p.Status, &p.InvoiceLink, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	return purchases, nil
}
