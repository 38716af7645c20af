package utils

import (
	"time"
)

// Request context keys
type ContextKey string

const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
)

// Token constants
const (
	// AdminAccessTokenTTL is the default time-to-live for admin access tokens (12 hours)
	AdminAccessTokenTTL = 12 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Campaign engine constants
const (
	// NewCampaignChannel is the Postgres NOTIFY channel fired on campaign insert
	NewCampaignChannel = "new_campaign"

	// SchemaLockKey guards schema initialization across processes
	SchemaLockKey = 12345

	// DefaultPrizeName is used when a raffle payload names no prize and no default is configured
	DefaultPrizeName = "Prize"

	// SettingKeyDefaultPrize overrides DefaultPrizeName
	SettingKeyDefaultPrize = "RAFFLE_DEFAULT_PRIZE"

	// MessageKeyRaffleWin and MessageKeyRaffleLose are fallback texts for raffles without messages
	MessageKeyRaffleWin  = "raffle_win"
	MessageKeyRaffleLose = "raffle_lose"
)
