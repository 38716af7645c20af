package dto

import (
	"encoding/json"
	"time"
)

// CreateCampaignRequest queues a campaign. Content is validated against the campaign type.
type CreateCampaignRequest struct {
	Type         string          `json:"type" validate:"required,oneof=broadcast raffle single_message" example:"broadcast"`
	Content      json.RawMessage `json:"content" validate:"required" swaggertype:"object"`
	ScheduledFor *time.Time      `json:"scheduled_for,omitempty" example:"2024-01-15T10:30:00Z"`
}

type CampaignResponse struct {
	ID           uint            `json:"id" example:"1"`
	Type         string          `json:"type" example:"raffle"`
	Content      json.RawMessage `json:"content" swaggertype:"object"`
	ScheduledFor *time.Time      `json:"scheduled_for,omitempty"`
	IsCompleted  bool            `json:"is_completed" example:"false"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	SentCount    int             `json:"sent_count" example:"0"`
	FailedCount  int             `json:"failed_count" example:"0"`
}

// ListCampaignsFilter is bound from the query string
type ListCampaignsFilter struct {
	Type        *string    `query:"type" validate:"omitempty,oneof=broadcast raffle single_message"`
	IsCompleted *bool      `query:"is_completed"`
	StartDate   *time.Time `query:"start_date"`
	EndDate     *time.Time `query:"end_date"`
	Page        int        `query:"page" validate:"omitempty,gte=1"`
	PageSize    int        `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

type ListCampaignsResponse struct {
	Items      []CampaignResponse `json:"items"`
	Pagination Pagination         `json:"pagination"`
}

type WinnerDTO struct {
	UserID     uint       `json:"user_id" example:"12"`
	TelegramID int64      `json:"telegram_id" example:"123456789"`
	FullName   string     `json:"full_name" example:"Jane Doe"`
	Username   *string    `json:"username,omitempty" example:"jane"`
	Phone      *string    `json:"phone,omitempty"`
	PrizeName  string     `json:"prize_name" example:"iPhone"`
	Notified   bool       `json:"notified" example:"true"`
	NotifiedAt *time.Time `json:"notified_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type ListWinnersResponse struct {
	CampaignID uint        `json:"campaign_id" example:"1"`
	Items      []WinnerDTO `json:"items"`
}
