package models

import "time"

// Winner is a persisted raffle selection, one row per (campaign, user).
// The row proves selection regardless of whether the win message was delivered.
type Winner struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	CampaignID uint       `gorm:"not null;uniqueIndex:uk_winners_campaign_user,priority:1" json:"campaign_id"`
	UserID     uint       `gorm:"not null;uniqueIndex:uk_winners_campaign_user,priority:2" json:"user_id"`
	TelegramID int64      `gorm:"not null" json:"telegram_id"`
	PrizeName  string     `gorm:"type:varchar(255);not null" json:"prize_name"`
	Notified   bool       `gorm:"not null;default:false" json:"notified"`
	NotifiedAt *time.Time `json:"notified_at,omitempty"`
	CreatedAt  time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
}

func (Winner) TableName() string { return "winners" }

// RaffleLoserNotification records that a raffle loser was already messaged, so a resumed
// raffle does not message them again.
type RaffleLoserNotification struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CampaignID uint      `gorm:"not null;uniqueIndex:uk_raffle_losers_campaign_user,priority:1" json:"campaign_id"`
	UserID     uint      `gorm:"not null;uniqueIndex:uk_raffle_losers_campaign_user,priority:2" json:"user_id"`
	Delivered  bool      `gorm:"not null" json:"delivered"`
	CreatedAt  time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

func (RaffleLoserNotification) TableName() string { return "raffle_loser_notifications" }

// WinnerFilter represents filter criteria for winners
type WinnerFilter struct {
	ID         *uint
	CampaignID *uint
	UserID     *uint
	Notified   *bool
}
