package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/promo-engine/models"
	"gorm.io/gorm"
)

// ReceiptRepositoryImpl implements ReceiptRepository
type ReceiptRepositoryImpl struct {
	*BaseRepository[models.Receipt, struct{}]
}

func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &ReceiptRepositoryImpl{BaseRepository: NewBaseRepository[models.Receipt, struct{}](db)}
}

// Save inserts a receipt
func (r *ReceiptRepositoryImpl) Save(ctx context.Context, receipt *models.Receipt) error {
	if receipt.Status == "" {
		receipt.Status = models.ReceiptStatusValid
	}
	if err := r.BaseRepository.Save(ctx, receipt); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateReceipt
		}
		return err
	}
	return nil
}

func (r *ReceiptRepositoryImpl) ListByUser(ctx context.Context, userID uint) ([]*models.Receipt, error) {
	db := r.getDB(ctx)
	var rows []*models.Receipt
	if err := db.Where("user_id = ?", userID).Order("id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list receipts for user %d: %w", userID, err)
	}
	return rows, nil
}
