package models

import "time"

// User is a chat user and the recipient of campaign messages
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TelegramID   int64     `gorm:"not null;uniqueIndex:uk_users_telegram_id" json:"telegram_id"`
	Username     *string   `gorm:"type:varchar(255)" json:"username,omitempty"`
	FullName     string    `gorm:"type:varchar(255);not null;default:''" json:"full_name"`
	Phone        *string   `gorm:"type:varchar(32)" json:"phone,omitempty"`
	RegisteredAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"registered_at"`
	IsBlocked    bool      `gorm:"not null;default:false" json:"is_blocked"`
}

func (User) TableName() string { return "users" }

// Recipient is the slice of a user needed to deliver a message
type Recipient struct {
	ID         uint  `json:"id"`
	TelegramID int64 `json:"telegram_id"`
}

// Participant is a raffle-eligible user
type Participant struct {
	UserID     uint    `json:"user_id"`
	TelegramID int64   `json:"telegram_id"`
	FullName   string  `json:"full_name"`
	Username   *string `json:"username,omitempty"`
}

// UserFilter represents filter criteria for users
type UserFilter struct {
	ID         *uint
	TelegramID *int64
	IsBlocked  *bool
	Search     *string
}
