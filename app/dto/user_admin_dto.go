package dto

import (
	"encoding/json"
	"time"
)

// SendUserMessageRequest queues a single message to one user. Exactly one of text or photo is required.
type SendUserMessageRequest struct {
	Text         string     `json:"text,omitempty" validate:"required_without=Photo,excluded_with=Photo,max=4096"`
	Photo        string     `json:"photo,omitempty" validate:"omitempty,max=512"`
	Caption      string     `json:"caption,omitempty" validate:"omitempty,max=1024"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
}

type SetUserBlockedRequest struct {
	Blocked *bool `json:"blocked" validate:"required"`
}

type UserResponse struct {
	ID           uint      `json:"id" example:"12"`
	TelegramID   int64     `json:"telegram_id" example:"123456789"`
	Username     *string   `json:"username,omitempty"`
	FullName     string    `json:"full_name"`
	Phone        *string   `json:"phone,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
	IsBlocked    bool      `json:"is_blocked"`
}

type AddReceiptRequest struct {
	FiscalDrive    string          `json:"fiscal_drive" validate:"required,numeric,max=64"`
	FiscalDocument string          `json:"fiscal_document" validate:"required,numeric,max=64"`
	FiscalSign     string          `json:"fiscal_sign" validate:"required,numeric,max=64"`
	Tickets        int             `json:"tickets,omitempty" validate:"omitempty,gte=1,lte=1000"`
	Data           json.RawMessage `json:"data,omitempty" swaggertype:"object"`
}

type ReceiptResponse struct {
	ID             uint      `json:"id" example:"5"`
	UserID         uint      `json:"user_id" example:"12"`
	FiscalDrive    string    `json:"fiscal_drive"`
	FiscalDocument string    `json:"fiscal_document"`
	FiscalSign     string    `json:"fiscal_sign"`
	Status         string    `json:"status" example:"valid"`
	Tickets        int       `json:"tickets" example:"1"`
	CreatedAt      time.Time `json:"created_at"`
}
