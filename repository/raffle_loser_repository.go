package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/promo-engine/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RaffleLoserRepositoryImpl implements RaffleLoserRepository
type RaffleLoserRepositoryImpl struct {
	*BaseRepository[models.RaffleLoserNotification, struct{}]
}

func NewRaffleLoserRepository(db *gorm.DB) RaffleLoserRepository {
	return &RaffleLoserRepositoryImpl{BaseRepository: NewBaseRepository[models.RaffleLoserNotification, struct{}](db)}
}

// NotifiedUserIDs returns the users that already received a lose-message attempt
func (r *RaffleLoserRepositoryImpl) NotifiedUserIDs(ctx context.Context, campaignID uint) (map[uint]bool, error) {
	db := r.getDB(ctx)
	var ids []uint
	err := db.Model(&models.RaffleLoserNotification{}).
		Where("campaign_id = ?", campaignID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notified losers for campaign %d: %w", campaignID, err)
	}
	out := make(map[uint]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// Record stores the outcome of one lose message. A second record for the same user is ignored.
func (r *RaffleLoserRepositoryImpl) Record(ctx context.Context, campaignID, userID uint, delivered bool) error {
	db := r.getDB(ctx)
	row := models.RaffleLoserNotification{CampaignID: campaignID, UserID: userID, Delivered: delivered}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "campaign_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to record loser %d for campaign %d: %w", userID, campaignID, err)
	}
	return nil
}

// CountByOutcome counts delivered and undelivered lose messages
func (r *RaffleLoserRepositoryImpl) CountByOutcome(ctx context.Context, campaignID uint) (int64, int64, error) {
	db := r.getDB(ctx)
	var row struct {
		Delivered   int64
		Undelivered int64
	}
	err := db.Model(&models.RaffleLoserNotification{}).
		Select("COUNT(*) FILTER (WHERE delivered) AS delivered, COUNT(*) FILTER (WHERE NOT delivered) AS undelivered").
		Where("campaign_id = ?", campaignID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count losers for campaign %d: %w", campaignID, err)
	}
	return row.Delivered, row.Undelivered, nil
}
