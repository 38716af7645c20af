package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/promo-engine/models"
	"github.com/amirphl/promo-engine/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BroadcastProgressRepositoryImpl implements BroadcastProgressRepository
type BroadcastProgressRepositoryImpl struct {
	*BaseRepository[models.BroadcastProgress, struct{}]
}

func NewBroadcastProgressRepository(db *gorm.DB) BroadcastProgressRepository {
	return &BroadcastProgressRepositoryImpl{BaseRepository: NewBaseRepository[models.BroadcastProgress, struct{}](db)}
}

// ByCampaignID returns the checkpoint of a campaign or nil when none exists
func (r *BroadcastProgressRepositoryImpl) ByCampaignID(ctx context.Context, campaignID uint) (*models.BroadcastProgress, error) {
	db := r.getDB(ctx)
	var row models.BroadcastProgress
	if err := db.Where("campaign_id = ?", campaignID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load broadcast progress for campaign %d: %w", campaignID, err)
	}
	return &row, nil
}

// Upsert writes the checkpoint, replacing any earlier one for the same campaign
func (r *BroadcastProgressRepositoryImpl) Upsert(ctx context.Context, progress *models.BroadcastProgress) error {
	db := r.getDB(ctx)
	row := *progress
	row.ID = 0
	row.UpdatedAt = utils.UTCNow()
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "campaign_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_user_id", "sent_count", "failed_count", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert broadcast progress for campaign %d: %w", progress.CampaignID, err)
	}
	return nil
}

// DeleteByCampaignID removes the checkpoint of a campaign
func (r *BroadcastProgressRepositoryImpl) DeleteByCampaignID(ctx context.Context, campaignID uint) error {
	db := r.getDB(ctx)
	if err := db.Where("campaign_id = ?", campaignID).Delete(&models.BroadcastProgress{}).Error; err != nil {
		return fmt.Errorf("failed to delete broadcast progress for campaign %d: %w", campaignID, err)
	}
	return nil
}
