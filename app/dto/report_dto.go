package dto

import "time"

type StatsResponse struct {
	TotalUsers         int64     `json:"total_users"`
	BlockedUsers       int64     `json:"blocked_users"`
	ValidReceipts      int64     `json:"valid_receipts"`
	TotalTickets       int64     `json:"total_tickets"`
	Participants       int64     `json:"participants"`
	PendingCampaigns   int64     `json:"pending_campaigns"`
	CompletedCampaigns int64     `json:"completed_campaigns"`
	Winners            int64     `json:"winners"`
	GeneratedAt        time.Time `json:"generated_at"`
	Cached             bool      `json:"cached"`

	RecentCampaigns []CampaignResponse `json:"recent_campaigns"`
}
