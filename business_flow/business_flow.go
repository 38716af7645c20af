package businessflow

import (
	"time"

	"github.com/amirphl/promo-engine/app/dto"
	"github.com/amirphl/promo-engine/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// normalizePage applies listing defaults and bounds
func normalizePage(page, pageSize int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = defaultPageSize
	}
	if page < 1 {
		return 0, 0, ErrInvalidPage
	}
	if pageSize < 1 || pageSize > maxPageSize {
		return 0, 0, ErrInvalidPageSize
	}
	return page, pageSize, nil
}

func newPagination(page, pageSize int, total int64) dto.Pagination {
	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return dto.Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: pages,
	}
}

// ToCampaignDTO converts a campaign model to its API shape
func ToCampaignDTO(c models.Campaign) dto.CampaignResponse {
	return dto.CampaignResponse{
		ID:           c.ID,
		Type:         c.Type.String(),
		Content:      c.Content,
		ScheduledFor: c.ScheduledFor,
		IsCompleted:  c.IsCompleted,
		CreatedAt:    c.CreatedAt,
		CompletedAt:  c.CompletedAt,
		SentCount:    c.SentCount,
		FailedCount:  c.FailedCount,
	}
}

func ToWinnerDTO(w models.Winner) dto.WinnerDTO {
	out := dto.WinnerDTO{
		UserID:     w.UserID,
		TelegramID: w.TelegramID,
		PrizeName:  w.PrizeName,
		Notified:   w.Notified,
		NotifiedAt: w.NotifiedAt,
		CreatedAt:  w.CreatedAt,
	}
	if w.User != nil {
		out.FullName = w.User.FullName
		out.Username = w.User.Username
		out.Phone = w.User.Phone
	}
	return out
}

func ToUserDTO(u models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:           u.ID,
		TelegramID:   u.TelegramID,
		Username:     u.Username,
		FullName:     u.FullName,
		Phone:        u.Phone,
		RegisteredAt: u.RegisteredAt,
		IsBlocked:    u.IsBlocked,
	}
}

func ToReceiptDTO(r models.Receipt) dto.ReceiptResponse {
	return dto.ReceiptResponse{
		ID:             r.ID,
		UserID:         r.UserID,
		FiscalDrive:    r.FiscalDrive,
		FiscalDocument: r.FiscalDocument,
		FiscalSign:     r.FiscalSign,
		Status:         string(r.Status),
		Tickets:        r.Tickets,
		CreatedAt:      r.CreatedAt,
	}
}

func ToStatsDTO(s models.Stats, cached bool) dto.StatsResponse {
	return dto.StatsResponse{
		TotalUsers:         s.TotalUsers,
		BlockedUsers:       s.BlockedUsers,
		ValidReceipts:      s.ValidReceipts,
		TotalTickets:       s.TotalTickets,
		Participants:       s.Participants,
		PendingCampaigns:   s.PendingCampaigns,
		CompletedCampaigns: s.CompletedCampaigns,
		Winners:            s.Winners,
		GeneratedAt:        s.GeneratedAt.UTC().Truncate(time.Second),
		Cached:             cached,
	}
}
