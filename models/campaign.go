package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amirphl/promo-engine/utils"
	"gorm.io/gorm"
)

// CampaignType represents the kind of outbound work a campaign performs
type CampaignType string

const (
	CampaignTypeBroadcast     CampaignType = "broadcast"
	CampaignTypeRaffle        CampaignType = "raffle"
	CampaignTypeSingleMessage CampaignType = "single_message"
)

// String returns the string representation of the type
func (t CampaignType) String() string {
	return string(t)
}

// Valid checks if the type is valid
func (t CampaignType) Valid() bool {
	switch t {
	case CampaignTypeBroadcast, CampaignTypeRaffle, CampaignTypeSingleMessage:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for CampaignType
func (t *CampaignType) Scan(value any) error {
	if value == nil {
		*t = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*t = CampaignType(v)
	case []byte:
		*t = CampaignType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into CampaignType", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for CampaignType
func (t CampaignType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid CampaignType: %s", t)
	}
	return string(t), nil
}

// Campaign is one scheduled or immediate unit of outbound messaging work.
// After insert, the only mutation is the single completion write.
type Campaign struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Type         CampaignType    `gorm:"type:varchar(32);not null" json:"type"`
	Content      json.RawMessage `gorm:"type:jsonb;not null" json:"content"`
	ScheduledFor *time.Time      `gorm:"index:idx_campaigns_pending,priority:2" json:"scheduled_for,omitempty"`
	IsCompleted  bool            `gorm:"not null;default:false;index:idx_campaigns_pending,priority:1" json:"is_completed"`
	CreatedAt    time.Time       `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	SentCount    int             `gorm:"not null;default:0" json:"sent_count"`
	FailedCount  int             `gorm:"not null;default:0" json:"failed_count"`
}

// TableName returns the table name for the model
func (Campaign) TableName() string {
	return "campaigns"
}

// BeforeCreate is called before creating a new record
func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	if len(c.Content) == 0 {
		c.Content = json.RawMessage("{}")
	}
	return nil
}

// IsDue reports whether the campaign's schedule allows it to run at now
func (c *Campaign) IsDue(now time.Time) bool {
	return utils.IsDue(c.ScheduledFor, now)
}

// Broadcast decodes the content of a broadcast campaign
func (c *Campaign) Broadcast() (MessagePayload, error) {
	var p MessagePayload
	if err := decodeContent(c.Content, &p); err != nil {
		return MessagePayload{}, err
	}
	return p, nil
}

// SingleMessage decodes the content of a single_message campaign
func (c *Campaign) SingleMessage() (SingleMessageContent, error) {
	var p SingleMessageContent
	if err := decodeContent(c.Content, &p); err != nil {
		return SingleMessageContent{}, err
	}
	return p, nil
}

// Raffle decodes the content of a raffle campaign
func (c *Campaign) Raffle() (RaffleContent, error) {
	var p RaffleContent
	if err := decodeContent(c.Content, &p); err != nil {
		return RaffleContent{}, err
	}
	return p, nil
}

func decodeContent(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid campaign content: %w", err)
	}
	return nil
}

// CampaignFilter represents filter criteria for campaigns
type CampaignFilter struct {
	ID            *uint         `json:"id,omitempty"`
	Type          *CampaignType `json:"type,omitempty"`
	IsCompleted   *bool         `json:"is_completed,omitempty"`
	CreatedAfter  *time.Time    `json:"created_after,omitempty"`
	CreatedBefore *time.Time    `json:"created_before,omitempty"`
}
