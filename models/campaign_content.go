package models

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/amirphl/promo-engine/utils"
)

var (
	ErrPayloadEmpty     = errors.New("message payload needs text or photo")
	ErrPayloadAmbiguous = errors.New("message payload cannot carry both text and photo")
	ErrTargetMissing    = errors.New("single message target_user_id is required")
	ErrRaffleCount      = errors.New("raffle count must be at least 1")
)

// MessagePayload is the content delivered to one recipient: plain text, or media with an optional caption
type MessagePayload struct {
	Text    string `json:"text,omitempty"`
	Photo   string `json:"photo,omitempty"`
	Caption string `json:"caption,omitempty"`
}

// IsMedia reports whether the payload is sent as media
func (p MessagePayload) IsMedia() bool {
	return p.Photo != ""
}

// IsEmpty reports whether the payload carries nothing to send
func (p MessagePayload) IsEmpty() bool {
	return strings.TrimSpace(p.Text) == "" && p.Photo == ""
}

// Validate enforces exactly one of text or photo
func (p MessagePayload) Validate() error {
	if p.IsEmpty() {
		return ErrPayloadEmpty
	}
	if p.Photo != "" && p.Text != "" {
		return ErrPayloadAmbiguous
	}
	return nil
}

// SingleMessageContent is a message payload addressed to one external recipient id
type SingleMessageContent struct {
	MessagePayload
	TargetUserID *int64 `json:"target_user_id,omitempty"`
}

// Validate checks the payload and the target
func (c SingleMessageContent) Validate() error {
	if c.TargetUserID == nil {
		return ErrTargetMissing
	}
	return c.MessagePayload.Validate()
}

// RaffleContent describes a raffle: the prize, how many winners and what each side is told
type RaffleContent struct {
	Prize     string         `json:"prize,omitempty"`
	PrizeName string         `json:"prize_name,omitempty"`
	Count     *int           `json:"count,omitempty"`
	WinMsg    MessagePayload `json:"win_msg"`
	LoseMsg   MessagePayload `json:"lose_msg"`
}

// ResolvedPrizeName prefers prize_name, then prize, then a default
func (c RaffleContent) ResolvedPrizeName() string {
	return c.PrizeNameOr(utils.DefaultPrizeName)
}

// PrizeNameOr prefers prize_name, then prize, then fallback
func (c RaffleContent) PrizeNameOr(fallback string) string {
	switch {
	case strings.TrimSpace(c.PrizeName) != "":
		return c.PrizeName
	case strings.TrimSpace(c.Prize) != "":
		return c.Prize
	default:
		return fallback
	}
}

// WinnerCount returns the requested winner count, defaulting to 1
func (c RaffleContent) WinnerCount() int {
	if c.Count == nil {
		return 1
	}
	return *c.Count
}

// Validate checks the requested count. Empty messages are allowed and fall back to configured texts.
func (c RaffleContent) Validate() error {
	if c.WinnerCount() < 1 {
		return ErrRaffleCount
	}
	if !c.WinMsg.IsEmpty() {
		if err := c.WinMsg.Validate(); err != nil {
			return err
		}
	}
	if !c.LoseMsg.IsEmpty() {
		if err := c.LoseMsg.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// MarshalContent encodes a typed payload for the campaigns.content column
func MarshalContent(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}
