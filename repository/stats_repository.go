package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/promo-engine/models"
	"github.com/amirphl/promo-engine/utils"
	"gorm.io/gorm"
)

// StatsRepositoryImpl implements StatsRepository with one aggregate query
type StatsRepositoryImpl struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &StatsRepositoryImpl{db: db}
}

const statsQuery = `
SELECT
    (SELECT COUNT(*) FROM users) AS total_users,
    (SELECT COUNT(*) FROM users WHERE is_blocked) AS blocked_users,
    (SELECT COUNT(*) FROM receipts WHERE status = 'valid') AS valid_receipts,
    (SELECT COALESCE(SUM(tickets), 0) FROM receipts WHERE status = 'valid') AS total_tickets,
    (SELECT COUNT(DISTINCT r.user_id) FROM receipts r JOIN users u ON u.id = r.user_id
        WHERE r.status = 'valid' AND NOT u.is_blocked) AS participants,
    (SELECT COUNT(*) FROM campaigns WHERE NOT is_completed) AS pending_campaigns,
    (SELECT COUNT(*) FROM campaigns WHERE is_completed) AS completed_campaigns,
    (SELECT COUNT(*) FROM winners) AS winners`

func (r *StatsRepositoryImpl) Collect(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	if err := dbFromContext(ctx, r.db).Raw(statsQuery).Scan(&stats).Error; err != nil {
		return nil, fmt.Errorf("failed to collect stats: %w", err)
	}
	stats.GeneratedAt = utils.UTCNow()
	return &stats, nil
}
