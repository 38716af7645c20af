package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/promo-engine/models"
	"gorm.io/gorm"
)

// UserRepositoryImpl implements UserRepository
type UserRepositoryImpl struct {
	*BaseRepository[models.User, models.UserFilter]
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{
		BaseRepository: NewBaseRepository[models.User, models.UserFilter](db),
	}
}

// ByID retrieves a user by ID
func (r *UserRepositoryImpl) ByID(ctx context.Context, id uint) (*models.User, error) {
	db := r.getDB(ctx)
	var user models.User
	if err := db.Where("id = ?", id).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// ByTelegramID retrieves a user by its chat id
func (r *UserRepositoryImpl) ByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	users, err := r.ByFilter(ctx, models.UserFilter{TelegramID: &telegramID}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return users[0], nil
}

// ListRecipientsAfter is a keyset page over non-blocked users
func (r *UserRepositoryImpl) ListRecipientsAfter(ctx context.Context, lastID uint, limit int) ([]models.Recipient, error) {
	db := r.getDB(ctx)
	var rows []models.Recipient
	err := db.Model(&models.User{}).
		Select("id, telegram_id").
		Where("id > ? AND is_blocked = ?", lastID, false).
		Order("id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients after %d: %w", lastID, err)
	}
	return rows, nil
}

// ListParticipants returns the raffle pool
func (r *UserRepositoryImpl) ListParticipants(ctx context.Context) ([]models.Participant, error) {
	db := r.getDB(ctx)
	var rows []models.Participant
	err := db.Table("users AS u").
		Select("u.id AS user_id, u.telegram_id, u.full_name, u.username").
		Where("u.is_blocked = ?", false).
		Where("EXISTS (SELECT 1 FROM receipts r WHERE r.user_id = u.id AND r.status = ?)", models.ReceiptStatusValid).
		Order("u.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return rows, nil
}

// SetBlocked updates the blocked flag and reports whether the user exists
func (r *UserRepositoryImpl) SetBlocked(ctx context.Context, id uint, blocked bool) (bool, error) {
	db := r.getDB(ctx)
	res := db.Model(&models.User{}).Where("id = ?", id).Update("is_blocked", blocked)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update user %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *UserRepositoryImpl) applyFilter(db *gorm.DB, f models.UserFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.TelegramID != nil {
		db = db.Where("telegram_id = ?", *f.TelegramID)
	}
	if f.IsBlocked != nil {
		db = db.Where("is_blocked = ?", *f.IsBlocked)
	}
	if f.Search != nil && *f.Search != "" {
		like := "%" + *f.Search + "%"
		db = db.Where("(full_name ILIKE ? OR username ILIKE ? OR phone ILIKE ?)", like, like, like)
	}
	return db
}

func (r *UserRepositoryImpl) ByFilter(ctx context.Context, filter models.UserFilter, orderBy string, limit, offset int) ([]*models.User, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.User{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.User
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *UserRepositoryImpl) Count(ctx context.Context, filter models.UserFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.User{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

