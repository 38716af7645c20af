package models

import "time"

// Setting is a dynamic key/value configuration entry
type Setting struct {
	Key       string    `gorm:"primaryKey;type:varchar(128)" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Setting) TableName() string { return "settings" }

// MessageText is an editable user-facing text keyed by purpose
type MessageText struct {
	Key       string    `gorm:"primaryKey;type:varchar(128)" json:"key"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (MessageText) TableName() string { return "messages" }

// Stats is an aggregate snapshot for reporting
type Stats struct {
	TotalUsers         int64     `json:"total_users"`
	BlockedUsers       int64     `json:"blocked_users"`
	ValidReceipts      int64     `json:"valid_receipts"`
	TotalTickets       int64     `json:"total_tickets"`
	Participants       int64     `json:"participants"`
	PendingCampaigns   int64     `json:"pending_campaigns"`
	CompletedCampaigns int64     `json:"completed_campaigns"`
	Winners            int64     `json:"winners"`
	GeneratedAt        time.Time `json:"generated_at"`
}
