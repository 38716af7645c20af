package models

import "time"

// BroadcastProgress is the crash-resumable checkpoint of one in-flight broadcast.
// LastUserID is a cursor into recipients ordered by id; resume continues strictly after it.
// Table: broadcast_progress
type BroadcastProgress struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CampaignID  uint      `gorm:"not null;uniqueIndex:uk_broadcast_progress_campaign_id" json:"campaign_id"`
	LastUserID  uint      `gorm:"not null;default:0" json:"last_user_id"`
	SentCount   int       `gorm:"not null;default:0" json:"sent_count"`
	FailedCount int       `gorm:"not null;default:0" json:"failed_count"`
	UpdatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (BroadcastProgress) TableName() string { return "broadcast_progress" }
