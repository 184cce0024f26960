package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cpgram/backend/internal/models"
)

type CampaignRepo struct {
	pool *pgxpool.Pool
}

func NewCampaignRepo(pool *pgxpool.Pool) *CampaignRepo {
	return &CampaignRepo{pool: pool}
}

const campaignColumns = `
	id, request_id, from_channel_id, to_channel_id, promo_id,
	duration_hours, cpc_cost, status, posting_deadline,
	actual_start_at, actual_end_at, post_verification_link,
	created_at, updated_at
`

func scanCampaign(row interface{ Scan(...any) error }) (*models.Campaign, error) {
	var c models.Campaign
	err := row.Scan(
		&c.ID, &c.RequestID, &c.FromChannelID, &c.ToChannelID, &c.PromoID,
		&c.DurationHours, &c.CPCCost, &c.Status, &c.PostingDeadline,
		&c.ActualStartAt, &c.ActualEndAt, &c.PostVerificationLink,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateTx inserts the campaign in the same transaction that accepts its
// request and escrows the cost.
func (r *CampaignRepo) CreateTx(ctx context.Context, q Querier, c *models.Campaign) error {
	return q.QueryRow(ctx, `
		INSERT INTO campaigns (request_id, from_channel_id, to_channel_id, promo_id, duration_hours, cpc_cost, status, posting_deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, c.RequestID, c.FromChannelID, c.ToChannelID, c.PromoID, c.DurationHours,
		c.CPCCost, models.CampaignStatusPendingPosting, c.PostingDeadline,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *CampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	return scanCampaign(r.pool.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
}

func (r *CampaignRepo) ListForChannels(ctx context.Context, channelIDs []uuid.UUID, status string, limit, offset int) ([]models.Campaign, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := `
		SELECT ` + campaignColumns + ` FROM campaigns
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

	var campaigns []models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, nil
}

// Activate records the post link and starts the run timer. The status and
// deadline preconditions are part of the UPDATE: a link submitted at or
// before the deadline wins even if an expiry sweep races it.
func (r *CampaignRepo) Activate(ctx context.Context, id uuid.UUID, postLink string, startAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE campaigns
		SET status = $1, post_verification_link = $2, actual_start_at = $3, updated_at = now()
		WHERE id = $4 AND status = $5 AND posting_deadline >= $3
	`, models.CampaignStatusActive, postLink, startAt, id, models.CampaignStatusPendingPosting)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CompleteTx marks an active campaign completed inside the settlement
// transaction. Returns false if the campaign was not active.
func (r *CampaignRepo) CompleteTx(ctx context.Context, q Querier, id uuid.UUID, endAt time.Time) (bool, error) {
	tag, err := q.Exec(ctx, `
		UPDATE campaigns
		SET status = $1, actual_end_at = $2, updated_at = now()
		WHERE id = $3 AND status = $4
	`, models.CampaignStatusCompleted, endAt, id, models.CampaignStatusActive)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ExpireTx marks a pending_posting campaign expired inside the penalty
// transaction. The deadline recheck keeps the sweep idempotent and safe
// against a racing Activate.
func (r *CampaignRepo) ExpireTx(ctx context.Context, q Querier, id uuid.UUID) (bool, error) {
	tag, err := q.Exec(ctx, `
		UPDATE campaigns
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3 AND posting_deadline < now()
	`, models.CampaignStatusExpired, id, models.CampaignStatusPendingPosting)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListDueExpiry returns campaigns whose posting deadline has passed with no
// link submitted.
func (r *CampaignRepo) ListDueExpiry(ctx context.Context, limit int) ([]models.Campaign, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+campaignColumns+` FROM campaigns
		WHERE status = $1 AND posting_deadline < now()
		ORDER BY posting_deadline ASC LIMIT $2
	`, models.CampaignStatusPendingPosting, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, nil
}
