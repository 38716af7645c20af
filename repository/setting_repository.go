package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/promo-engine/models"
	"github.com/amirphl/promo-engine/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingRepositoryImpl implements SettingRepository
type SettingRepositoryImpl struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &SettingRepositoryImpl{db: db}
}

func (r *SettingRepositoryImpl) AllSettings(ctx context.Context) (map[string]string, error) {
	var rows []models.Setting
	if err := dbFromContext(ctx, r.db).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

func (r *SettingRepositoryImpl) AllMessages(ctx context.Context) (map[string]string, error) {
	var rows []models.MessageText
	if err := dbFromContext(ctx, r.db).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Text
	}
	return out, nil
}

func (r *SettingRepositoryImpl) UpsertSetting(ctx context.Context, key, value string) error {
	row := models.Setting{Key: key, Value: value, UpdatedAt: utils.UTCNow()}
	err := dbFromContext(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert setting %s: %w", key, err)
	}
	return nil
}

func (r *SettingRepositoryImpl) UpsertMessage(ctx context.Context, key, text string) error {
	row := models.MessageText{Key: key, Text: text, UpdatedAt: utils.UTCNow()}
	err := dbFromContext(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert message %s: %w", key, err)
	}
	return nil
}
