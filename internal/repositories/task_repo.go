package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cpgram/backend/internal/models"
)

// ErrInviteTaskOpen is returned when an insert hits the partial unique
// index guarding one open invite task per user.
var ErrInviteTaskOpen = errors.New("open invite task exists")

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

// ClaimOneShotTx records a one-shot task completion. The unique constraint
// on (user_id, type) makes the claim idempotent: a second insert is a
// no-op and returns false.
func (r *TaskRepo) ClaimOneShotTx(ctx context.Context, q Querier, userID uuid.UUID, taskType string, reward int64) (bool, error) {
	tag, err := q.Exec(ctx, `
		INSERT INTO user_tasks (user_id, type, reward_cpc)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, type) DO NOTHING
	`, userID, taskType, reward)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *TaskRepo) ListClaimed(ctx context.Context, userID uuid.UUID) ([]models.UserTask, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, type, reward_cpc, completed_at
		FROM user_tasks WHERE user_id = $1 ORDER BY completed_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.UserTask
	for rows.Next() {
		var t models.UserTask
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.RewardCPC, &t.CompletedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// --- Invite tasks ---

const inviteColumns = `
	id, user_id, channel_id, status, duration_hours, reward_cpc,
	post_verification_link, actual_start_at, claimed_at, renewed, created_at
`

func scanInvite(row interface{ Scan(...any) error }) (*models.InviteTask, error) {
	var t models.InviteTask
	err := row.Scan(
		&t.ID, &t.UserID, &t.ChannelID, &t.Status, &t.DurationHours, &t.RewardCPC,
		&t.PostVerificationLink, &t.ActualStartAt, &t.ClaimedAt, &t.Renewed, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepo) CreateInvite(ctx context.Context, t *models.InviteTask) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO invite_tasks (user_id, channel_id, status, duration_hours, reward_cpc)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, t.UserID, t.ChannelID, models.InviteStatusPendingPosting, t.DurationHours, t.RewardCPC,
	).Scan(&t.ID, &t.CreatedAt)
	if isUniqueViolation(err) {
		return ErrInviteTaskOpen
	}
	return err
}

func (r *TaskRepo) GetInvite(ctx context.Context, id uuid.UUID) (*models.InviteTask, error) {
	return scanInvite(r.pool.QueryRow(ctx, `SELECT `+inviteColumns+` FROM invite_tasks WHERE id = $1`, id))
}

// LatestInviteForUser returns the most recent invite task, or nil when the
// user has never started one.
func (r *TaskRepo) LatestInviteForUser(ctx context.Context, userID uuid.UUID) (*models.InviteTask, error) {
	t, err := scanInvite(r.pool.QueryRow(ctx, `
		SELECT `+inviteColumns+` FROM invite_tasks
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1
	`, userID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TaskRepo) ActivateInvite(ctx context.Context, id uuid.UUID, postLink string, startAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invite_tasks
		SET status = $1, post_verification_link = $2, actual_start_at = $3
		WHERE id = $4 AND status = $5
	`, models.InviteStatusActive, postLink, startAt, id, models.InviteStatusPendingPosting)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CompleteInviteTx marks an active invite task claimed inside the reward
// credit transaction.
func (r *TaskRepo) CompleteInviteTx(ctx context.Context, q Querier, id uuid.UUID, claimedAt time.Time) (bool, error) {
	tag, err := q.Exec(ctx, `
		UPDATE invite_tasks
		SET status = $1, claimed_at = $2
		WHERE id = $3 AND status = $4
	`, models.InviteStatusCompleted, claimedAt, id, models.InviteStatusActive)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RenewInvite marks a completed invite task as renewed, making the user
// eligible to start another. Admin action.
func (r *TaskRepo) RenewInvite(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invite_tasks SET renewed = true
		WHERE id = $1 AND status = $2 AND renewed = false
	`, id, models.InviteStatusCompleted)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
