// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/amirphl/promo-engine/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
}

// CampaignRepository defines operations for the durable campaign queue
type CampaignRepository interface {
	Repository[models.Campaign, models.CampaignFilter]
	// Create inserts a campaign. The insert trigger notifies listeners with the new id.
	Create(ctx context.Context, campaign *models.Campaign) (uint, error)
	// ListEligible returns incomplete campaigns that are unscheduled or due at now, oldest first.
	ListEligible(ctx context.Context, now time.Time) ([]*models.Campaign, error)
	// Complete marks the campaign completed with final counts. It reports false when the
	// campaign was already completed or does not exist.
	Complete(ctx context.Context, id uint, sent, failed int) (bool, error)
	ListRecent(ctx context.Context, limit, offset int) ([]*models.Campaign, error)
	CountPending(ctx context.Context) (int64, error)
}

// BroadcastProgressRepository defines operations for broadcast checkpoints
type BroadcastProgressRepository interface {
	ByCampaignID(ctx context.Context, campaignID uint) (*models.BroadcastProgress, error)
	Upsert(ctx context.Context, progress *models.BroadcastProgress) error
	DeleteByCampaignID(ctx context.Context, campaignID uint) error
}

// WinnerRepository defines operations for raffle winners
type WinnerRepository interface {
	Repository[models.Winner, models.WinnerFilter]
	ListByCampaign(ctx context.Context, campaignID uint) ([]*models.Winner, error)
	ListUnnotified(ctx context.Context, campaignID uint) ([]*models.Winner, error)
	CountByCampaign(ctx context.Context, campaignID uint) (int64, error)
	// InsertIgnoreConflicts inserts winners skipping rows that already exist and returns the number inserted
	InsertIgnoreConflicts(ctx context.Context, winners []*models.Winner) (int64, error)
	// MarkNotified flips notified once; it reports false when the winner was already notified
	MarkNotified(ctx context.Context, id uint, at time.Time) (bool, error)
	CountNotified(ctx context.Context, campaignID uint) (int64, error)
}

// RaffleLoserRepository tracks lose-message deliveries per raffle
type RaffleLoserRepository interface {
	NotifiedUserIDs(ctx context.Context, campaignID uint) (map[uint]bool, error)
	Record(ctx context.Context, campaignID, userID uint, delivered bool) error
	CountByOutcome(ctx context.Context, campaignID uint) (delivered, undelivered int64, err error)
}

// UserRepository defines operations for chat users
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	// ListRecipientsAfter returns up to limit non-blocked users with id greater than lastID in id order
	ListRecipientsAfter(ctx context.Context, lastID uint, limit int) ([]models.Recipient, error)
	// ListParticipants returns non-blocked users holding at least one valid receipt, in id order
	ListParticipants(ctx context.Context) ([]models.Participant, error)
	SetBlocked(ctx context.Context, id uint, blocked bool) (bool, error)
}

// ReceiptRepository defines operations for submitted receipts
type ReceiptRepository interface {
	// Save inserts a receipt and returns ErrDuplicateReceipt for a repeated fiscal triple
	Save(ctx context.Context, receipt *models.Receipt) error
	ListByUser(ctx context.Context, userID uint) ([]*models.Receipt, error)
}

// SettingRepository defines operations for dynamic settings and message texts
type SettingRepository interface {
	AllSettings(ctx context.Context) (map[string]string, error)
	AllMessages(ctx context.Context) (map[string]string, error)
	UpsertSetting(ctx context.Context, key, value string) error
	UpsertMessage(ctx context.Context, key, text string) error
}

// StatsRepository computes aggregate counters for reporting
type StatsRepository interface {
	Collect(ctx context.Context) (*models.Stats, error)
}

// Transactor runs a function inside one database transaction carried by the context
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
