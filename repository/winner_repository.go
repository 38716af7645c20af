package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/promo-engine/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WinnerRepositoryImpl implements WinnerRepository
type WinnerRepositoryImpl struct {
	*BaseRepository[models.Winner, models.WinnerFilter]
}

func NewWinnerRepository(db *gorm.DB) WinnerRepository {
	return &WinnerRepositoryImpl{BaseRepository: NewBaseRepository[models.Winner, models.WinnerFilter](db)}
}

func (r *WinnerRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Winner, error) {
	db := r.getDB(ctx)
	var row models.Winner
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListByCampaign returns every committed winner of a raffle with the user preloaded
func (r *WinnerRepositoryImpl) ListByCampaign(ctx context.Context, campaignID uint) ([]*models.Winner, error) {
	db := r.getDB(ctx)
	var rows []*models.Winner
	err := db.Preload("User").
		Where("campaign_id = ?", campaignID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list winners for campaign %d: %w", campaignID, err)
	}
	return rows, nil
}

func (r *WinnerRepositoryImpl) ListUnnotified(ctx context.Context, campaignID uint) ([]*models.Winner, error) {
	notified := false
	return r.ByFilter(ctx, models.WinnerFilter{CampaignID: &campaignID, Notified: &notified}, "id ASC", 0, 0)
}

func (r *WinnerRepositoryImpl) CountByCampaign(ctx context.Context, campaignID uint) (int64, error) {
	return r.Count(ctx, models.WinnerFilter{CampaignID: &campaignID})
}

func (r *WinnerRepositoryImpl) CountNotified(ctx context.Context, campaignID uint) (int64, error) {
	notified := true
	return r.Count(ctx, models.WinnerFilter{CampaignID: &campaignID, Notified: &notified})
}

// InsertIgnoreConflicts inserts winners, leaving existing (campaign_id, user_id) rows untouched
func (r *WinnerRepositoryImpl) InsertIgnoreConflicts(ctx context.Context, winners []*models.Winner) (int64, error) {
	if len(winners) == 0 {
		return 0, nil
	}
	db := r.getDB(ctx)
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "campaign_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Omit("User").CreateInBatches(winners, 100)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to insert winners: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// MarkNotified sets notified on a winner that was not notified yet
func (r *WinnerRepositoryImpl) MarkNotified(ctx context.Context, id uint, at time.Time) (bool, error) {
	db := r.getDB(ctx)
	res := db.Model(&models.Winner{}).
		Where("id = ? AND notified = ?", id, false).
		Updates(map[string]any{
			"notified":    true,
			"notified_at": at,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark winner %d notified: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *WinnerRepositoryImpl) applyFilter(db *gorm.DB, f models.WinnerFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.CampaignID != nil {
		db = db.Where("campaign_id = ?", *f.CampaignID)
	}
	if f.UserID != nil {
		db = db.Where("user_id = ?", *f.UserID)
	}
	if f.Notified != nil {
		db = db.Where("notified = ?", *f.Notified)
	}
	return db
}

func (r *WinnerRepositoryImpl) ByFilter(ctx context.Context, filter models.WinnerFilter, orderBy string, limit, offset int) ([]*models.Winner, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Winner{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Winner
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *WinnerRepositoryImpl) Count(ctx context.Context, filter models.WinnerFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.Winner{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

