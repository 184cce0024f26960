package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cpgram/backend/internal/models"
)

type RequestRepo struct {
	pool *pgxpool.Pool
}

func NewRequestRepo(pool *pgxpool.Pool) *RequestRepo {
	return &RequestRepo{pool: pool}
}

const requestColumns = `
	id, from_channel_id, to_channel_id, day_selected, time_selected,
	duration_hours, cpc_cost, promo_id, status, decline_reason,
	created_at, resolved_at
`

func scanRequest(row interface{ Scan(...any) error }) (*models.PromoRequest, error) {
	var pr models.PromoRequest
	err := row.Scan(
		&pr.ID, &pr.FromChannelID, &pr.ToChannelID, &pr.DaySelected, &pr.TimeSelected,
		&pr.DurationHours, &pr.CPCCost, &pr.PromoID, &pr.Status, &pr.DeclineReason,
		&pr.CreatedAt, &pr.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &pr, nil
}

func (r *RequestRepo) Create(ctx context.Context, pr *models.PromoRequest) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO promo_requests (from_channel_id, to_channel_id, day_selected, time_selected, duration_hours, cpc_cost, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, pr.FromChannelID, pr.ToChannelID, pr.DaySelected, pr.TimeSelected,
		pr.DurationHours, pr.CPCCost, models.RequestStatusPending,
	).Scan(&pr.ID, &pr.CreatedAt)
}

func (r *RequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.PromoRequest, error) {
	return scanRequest(r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM promo_requests WHERE id = $1`, id))
}

func (r *RequestRepo) ListForChannels(ctx context.Context, channelIDs []uuid.UUID, status string, limit, offset int) ([]models.PromoRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := `
		SELECT ` + requestColumns + ` FROM promo_requests
		WHERE (from_channel_id = ANY($1) OR to_channel_id = ANY($1))
	`
	args := []any{channelIDs}
	if status != "" {
		query += ` AND status = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`
		args = append(args, status, limit, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.PromoRequest
	for rows.Next() {
		pr, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *pr)
	}
	return requests, nil
}

// AcceptTx flips a pending request to accepted, recording the recipient's
// chosen promo. Returns false if the request was already resolved, so two
// concurrent accepts cannot both create a campaign.
func (r *RequestRepo) AcceptTx(ctx context.Context, q Querier, id uuid.UUID, promoID uuid.UUID) (bool, error) {
	tag, err := q.Exec(ctx, `
		UPDATE promo_requests
		SET status = $1, promo_id = $2, resolved_at = now()
		WHERE id = $3 AND status = $4
	`, models.RequestStatusAccepted, promoID, id, models.RequestStatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Reject flips a pending request to rejected with a mandatory reason.
func (r *RequestRepo) Reject(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE promo_requests
		SET status = $1, decline_reason = $2, resolved_at = now()
		WHERE id = $3 AND status = $4
	`, models.RequestStatusRejected, reason, id, models.RequestStatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
