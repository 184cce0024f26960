package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PlatformStats are the admin dashboard counters.
type PlatformStats struct {
	Users            int   `json:"users"`
	ChannelsApproved int   `json:"channels_approved"`
	ChannelsPending  int   `json:"channels_pending"`
	CampaignsActive  int   `json:"campaigns_active"`
	CampaignsDone    int   `json:"campaigns_completed"`
	CampaignsExpired int   `json:"campaigns_expired"`
	RequestsPending  int   `json:"requests_pending"`
	CPCIssued        int64 `json:"cpc_issued"`
	CPCInEscrow      int64 `json:"cpc_in_escrow"`
}

type StatsRepo struct {
	pool *pgxpool.Pool
}

func NewStatsRepo(pool *pgxpool.Pool) *StatsRepo {
	return &StatsRepo{pool: pool}
}

func (r *StatsRepo) Counters(ctx context.Context) (*PlatformStats, error) {
	var s PlatformStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM channels WHERE status = 'approved'),
			(SELECT count(*) FROM channels WHERE status = 'pending'),
			(SELECT count(*) FROM campaigns WHERE status = 'active'),
			(SELECT count(*) FROM campaigns WHERE status = 'completed'),
			(SELECT count(*) FROM campaigns WHERE status = 'expired'),
			(SELECT count(*) FROM promo_requests WHERE status = 'pending'),
			(SELECT coalesce(sum(delta), 0) FROM ledger_entries WHERE delta > 0),
			(SELECT coalesce(sum(cpc_cost), 0) FROM campaigns WHERE status IN ('pending_posting', 'active'))
	`).Scan(
		&s.Users,
		&s.ChannelsApproved,
		&s.ChannelsPending,
		&s.CampaignsActive,
		&s.CampaignsDone,
		&s.CampaignsExpired,
		&s.RequestsPending,
		&s.CPCIssued,
		&s.CPCInEscrow,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
