package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/promo-engine/models"
	"github.com/amirphl/promo-engine/utils"
	"gorm.io/gorm"
)

// CampaignRepositoryImpl implements the CampaignRepository interface
type CampaignRepositoryImpl struct {
	*BaseRepository[models.Campaign, models.CampaignFilter]
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &CampaignRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Campaign, models.CampaignFilter](db),
	}
}

// ByID retrieves a campaign by ID
func (r *CampaignRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Campaign, error) {
	db := r.getDB(ctx)

	var campaign models.Campaign
	err := db.Where("id = ?", id).Take(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &campaign, nil
}

// Create inserts a new campaign and returns its id
func (r *CampaignRepositoryImpl) Create(ctx context.Context, campaign *models.Campaign) (uint, error) {
	if !campaign.Type.Valid() {
		return 0, fmt.Errorf("invalid campaign type %q", campaign.Type)
	}
	campaign.IsCompleted = false
	campaign.CompletedAt = nil
	campaign.SentCount = 0
	campaign.FailedCount = 0

	if err := r.Save(ctx, campaign); err != nil {
		return 0, err
	}
	return campaign.ID, nil
}

// ListEligible returns pending campaigns whose schedule allows execution at now
func (r *CampaignRepositoryImpl) ListEligible(ctx context.Context, now time.Time) ([]*models.Campaign, error) {
	db := r.getDB(ctx)

	var campaigns []*models.Campaign
	err := db.Where("is_completed = ?", false).
		Where("(scheduled_for IS NULL OR scheduled_for <= ?)", now).
		Order("created_at ASC, id ASC").
		Find(&campaigns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible campaigns: %w", err)
	}

	return campaigns, nil
}

// Complete writes the final counts once
func (r *CampaignRepositoryImpl) Complete(ctx context.Context, id uint, sent, failed int) (bool, error) {
	db := r.getDB(ctx)

	res := db.Model(&models.Campaign{}).
		Where("id = ? AND is_completed = ?", id, false).
		Updates(map[string]any{
			"is_completed": true,
			"completed_at": utils.UTCNow(),
			"sent_count":   sent,
			"failed_count": failed,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to complete campaign %d: %w", id, res.Error)
	}

	return res.RowsAffected > 0, nil
}

// ListRecent returns campaigns newest first
func (r *CampaignRepositoryImpl) ListRecent(ctx context.Context, limit, offset int) ([]*models.Campaign, error) {
	return r.ByFilter(ctx, models.CampaignFilter{}, "created_at DESC, id DESC", limit, offset)
}

// CountPending counts campaigns that are not completed yet
func (r *CampaignRepositoryImpl) CountPending(ctx context.Context) (int64, error) {
	pending := false
	return r.Count(ctx, models.CampaignFilter{IsCompleted: &pending})
}

// ByFilter retrieves campaigns based on filter criteria
func (r *CampaignRepositoryImpl) ByFilter(ctx context.Context, filter models.CampaignFilter, orderBy string, limit, offset int) ([]*models.Campaign, error) {
	db := r.getDB(ctx)

	var campaigns []*models.Campaign
	query := r.applyFilter(db, filter)

	// Apply ordering
	if orderBy != "" {
		query = query.Order(orderBy)
	}

	// Apply pagination
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&campaigns).Error
	if err != nil {
		return nil, err
	}

	return campaigns, nil
}

// Count returns the number of campaigns matching the filter
func (r *CampaignRepositoryImpl) Count(ctx context.Context, filter models.CampaignFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Campaign{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *CampaignRepositoryImpl) applyFilter(db *gorm.DB, filter models.CampaignFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.Type != nil {
		db = db.Where("type = ?", *filter.Type)
	}
	if filter.IsCompleted != nil {
		db = db.Where("is_completed = ?", *filter.IsCompleted)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}

	return db
}
