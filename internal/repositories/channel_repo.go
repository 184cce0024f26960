package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cpgram/backend/internal/models"
)

type ChannelRepo struct {
	pool *pgxpool.Pool
}

func NewChannelRepo(pool *pgxpool.Pool) *ChannelRepo {
	return &ChannelRepo{pool: pool}
}

const channelColumns = `
	id, owner_user_id, telegram_chat_id, username, title, avatar_file_id,
	topic, language, subscribers, avg_views, status, is_paused,
	moderation_reason, moderated_at, moderated_by,
	promos_per_day, accepted_days, time_slots, completed_exchanges,
	created_at, updated_at
`

func scanChannel(row interface{ Scan(...any) error }) (*models.Channel, error) {
	var c models.Channel
	var daysJSON, slotsJSON []byte
	err := row.Scan(
		&c.ID, &c.OwnerUserID, &c.TelegramChatID, &c.Username, &c.Title, &c.AvatarFileID,
		&c.Topic, &c.Language, &c.Subscribers, &c.AvgViews, &c.Status, &c.IsPaused,
		&c.ModerationReason, &c.ModeratedAt, &c.ModeratedBy,
		&c.PromosPerDay, &daysJSON, &slotsJSON, &c.CompletedExchanges,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(daysJSON) > 0 {
		_ = json.Unmarshal(daysJSON, &c.AcceptedDays)
	}
	if len(slotsJSON) > 0 {
		_ = json.Unmarshal(slotsJSON, &c.TimeSlots)
	}
	return &c, nil
}

func (r *ChannelRepo) Create(ctx context.Context, c *models.Channel) error {
	daysJSON, err := json.Marshal(c.AcceptedDays)
	if err != nil {
		return err
	}
	slotsJSON, err := json.Marshal(c.TimeSlots)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO channels (
			owner_user_id, telegram_chat_id, username, title, avatar_file_id,
			topic, language, subscribers, avg_views, status,
			promos_per_day, accepted_days, time_slots
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`, c.OwnerUserID, c.TelegramChatID, c.Username, c.Title, c.AvatarFileID,
		c.Topic, c.Language, c.Subscribers, c.AvgViews, models.ChannelStatusPending,
		c.PromosPerDay, daysJSON, slotsJSON,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *ChannelRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Channel, error) {
	return scanChannel(r.pool.QueryRow(ctx, `SELECT `+channelColumns+` FROM channels WHERE id = $1`, id))
}

func (r *ChannelRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Channel, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+channelColumns+` FROM channels
		WHERE owner_user_id = $1 ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, *c)
	}
	return channels, nil
}

// ListEligible returns approved, unpaused channels excluding the owner's
// own, for the partner discovery feed.
func (r *ChannelRepo) ListEligible(ctx context.Context, excludeOwner uuid.UUID, topic string, limit, offset int) ([]models.Channel, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := `
		SELECT ` + channelColumns + ` FROM channels
		WHERE status = 'approved' AND is_paused = false AND owner_user_id <> $1
	`
	args := []any{excludeOwner}
	if topic != "" {
		query += ` AND topic = $2 ORDER BY subscribers DESC LIMIT $3 OFFSET $4`
		args = append(args, topic, limit, offset)
	} else {
		query += ` ORDER BY subscribers DESC LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, *c)
	}
	return channels, nil
}

func (r *ChannelRepo) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Channel, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+channelColumns+` FROM channels
		WHERE status = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, *c)
	}
	return channels, nil
}

// Moderate flips a pending channel to approved or rejected. Returns false
// when the channel was not pending anymore.
func (r *ChannelRepo) Moderate(ctx context.Context, id uuid.UUID, status string, reason *string, moderatorID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE channels
		SET status = $1, moderation_reason = $2, moderated_at = now(), moderated_by = $3, updated_at = now()
		WHERE id = $4 AND status = 'pending'
	`, status, reason, moderatorID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SetPaused toggles the pause flag. Only approved channels can be paused.
func (r *ChannelRepo) SetPaused(ctx context.Context, id uuid.UUID, paused bool) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE channels SET is_paused = $1, updated_at = now()
		WHERE id = $2 AND status = 'approved'
	`, paused, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ChannelRepo) UpdatePolicy(ctx context.Context, id uuid.UUID, p *models.ChannelPolicy) error {
	daysJSON, err := json.Marshal(p.AcceptedDays)
	if err != nil {
		return err
	}
	slotsJSON, err := json.Marshal(p.TimeSlots)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE channels
		SET topic = $1, accepted_days = $2, time_slots = $3, promos_per_day = $4, updated_at = now()
		WHERE id = $5
	`, p.Topic, daysJSON, slotsJSON, p.PromosPerDay, id)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM channel_duration_prices WHERE channel_id = $1`, id); err != nil {
		return err
	}
	for _, price := range p.Prices {
		_, err := tx.Exec(ctx, `
			INSERT INTO channel_duration_prices (channel_id, duration_hours, price_cpc, enabled)
			VALUES ($1, $2, $3, $4)
		`, id, price.DurationHours, price.PriceCPC, price.Enabled)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *ChannelRepo) GetPrices(ctx context.Context, channelID uuid.UUID) ([]models.DurationPrice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT channel_id, duration_hours, price_cpc, enabled
		FROM channel_duration_prices
		WHERE channel_id = $1 ORDER BY duration_hours
	`, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prices []models.DurationPrice
	for rows.Next() {
		var p models.DurationPrice
		if err := rows.Scan(&p.ChannelID, &p.DurationHours, &p.PriceCPC, &p.Enabled); err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, nil
}

func (r *ChannelRepo) UpdateStats(ctx context.Context, id uuid.UUID, subscribers, avgViews int, language string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE channels
		SET subscribers = $1, avg_views = $2, language = $3,
		    stats_refreshed_at = now(), updated_at = now()
		WHERE id = $4
	`, subscribers, avgViews, language, id)
	return err
}

func (r *ChannelRepo) IncrementCompletedExchanges(ctx context.Context, q Querier, id uuid.UUID) error {
	_, err := q.Exec(ctx, `
		UPDATE channels SET completed_exchanges = completed_exchanges + 1, updated_at = now()
		WHERE id = $1
	`, id)
	return err
}

// ListApprovedForRefresh returns approved public channels whose stats are
// older than the given cutoff.
func (r *ChannelRepo) ListApprovedForRefresh(ctx context.Context, staleBefore time.Time, limit int) ([]models.Channel, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+channelColumns+` FROM channels
		WHERE status = 'approved'
		  AND (stats_refreshed_at IS NULL OR stats_refreshed_at < $1)
		ORDER BY stats_refreshed_at ASC NULLS FIRST LIMIT $2
	`, staleBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, *c)
	}
	return channels, nil
}

// --- Promos ---

func (r *ChannelRepo) CreatePromo(ctx context.Context, p *models.Promo) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO promos (channel_id, name, text, image_url, link, cta)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, p.ChannelID, p.Name, p.Text, p.ImageURL, p.Link, p.CTA).Scan(&p.ID, &p.CreatedAt)
}

func (r *ChannelRepo) GetPromo(ctx context.Context, id uuid.UUID) (*models.Promo, error) {
	var p models.Promo
	err := r.pool.QueryRow(ctx, `
		SELECT id, channel_id, name, text, image_url, link, cta, created_at
		FROM promos WHERE id = $1
	`, id).Scan(&p.ID, &p.ChannelID, &p.Name, &p.Text, &p.ImageURL, &p.Link, &p.CTA, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ChannelRepo) ListPromos(ctx context.Context, channelID uuid.UUID) ([]models.Promo, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, channel_id, name, text, image_url, link, cta, created_at
		FROM promos WHERE channel_id = $1 ORDER BY created_at
	`, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var promos []models.Promo
	for rows.Next() {
		var p models.Promo
		if err := rows.Scan(&p.ID, &p.ChannelID, &p.Name, &p.Text, &p.ImageURL, &p.Link, &p.CTA, &p.CreatedAt); err != nil {
			return nil, err
		}
		promos = append(promos, p)
	}
	return promos, nil
}

func (r *ChannelRepo) CountPromos(ctx context.Context, channelID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM promos WHERE channel_id = $1`, channelID).Scan(&n)
	return n, err
}

// DeletePromo removes a promo unless a non-terminal campaign references it.
func (r *ChannelRepo) DeletePromo(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM promos
		WHERE id = $1 AND NOT EXISTS (
			SELECT 1 FROM campaigns
			WHERE promo_id = $1 AND status IN ('pending_posting', 'active')
		)
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
