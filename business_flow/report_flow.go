package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/amirphl/promo-engine/app/dto"
	"github.com/amirphl/promo-engine/models"
	"github.com/amirphl/promo-engine/repository"
	"github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ReportFlow serves aggregate statistics and raffle results
type ReportFlow interface {
	Stats(ctx context.Context) (*dto.StatsResponse, error)
	ListWinners(ctx context.Context, campaignID uint) (*dto.ListWinnersResponse, error)
	ExportWinners(ctx context.Context, campaignID uint) (filename string, content []byte, err error)
}

type ReportFlowImpl struct {
	statsRepo    repository.StatsRepository
	campaignRepo repository.CampaignRepository
	winnerRepo   repository.WinnerRepository
	rc           redis.UniversalClient
	cacheKey     string
	statsTTL     time.Duration
	logger       *zap.Logger
}

// NewReportFlow creates the report flow. rc may be nil, in which case stats are computed on every call.
func NewReportFlow(
	statsRepo repository.StatsRepository,
	campaignRepo repository.CampaignRepository,
	winnerRepo repository.WinnerRepository,
	rc redis.UniversalClient,
	redisPrefix string,
	statsTTL time.Duration,
	logger *zap.Logger,
) ReportFlow {
	return &ReportFlowImpl{
		statsRepo:    statsRepo,
		campaignRepo: campaignRepo,
		winnerRepo:   winnerRepo,
		rc:           rc,
		cacheKey:     redisPrefix + "stats",
		statsTTL:     statsTTL,
		logger:       logger,
	}
}

const recentCampaignsLimit = 5

// Stats returns the aggregate counters, from redis while the cached copy is fresh.
// The recent campaigns list is always read from the store.
func (f *ReportFlowImpl) Stats(ctx context.Context) (*dto.StatsResponse, error) {
	recent, err := f.campaignRepo.ListRecent(ctx, recentCampaignsLimit, 0)
	if err != nil {
		return nil, NewBusinessError("STATS_FAILED", "Failed to list recent campaigns", err)
	}
	recentDTOs := make([]dto.CampaignResponse, 0, len(recent))
	for _, c := range recent {
		recentDTOs = append(recentDTOs, ToCampaignDTO(*c))
	}

	if f.rc != nil && f.statsTTL > 0 {
		if bs, err := f.rc.Get(ctx, f.cacheKey).Bytes(); err == nil && len(bs) > 0 {
			var cached models.Stats
			if err := json.Unmarshal(bs, &cached); err == nil {
				resp := ToStatsDTO(cached, true)
				resp.RecentCampaigns = recentDTOs
				return &resp, nil
			}
		} else if err != nil && !errors.Is(err, redis.Nil) {
			f.logger.Warn("stats cache read failed", zap.Error(err))
		}
	}

	stats, err := f.statsRepo.Collect(ctx)
	if err != nil {
		return nil, NewBusinessError("STATS_FAILED", "Failed to collect stats", err)
	}

	if f.rc != nil && f.statsTTL > 0 {
		if bs, err := json.Marshal(stats); err == nil {
			if err := f.rc.Set(ctx, f.cacheKey, bs, f.statsTTL).Err(); err != nil {
				f.logger.Warn("stats cache write failed", zap.Error(err))
			}
		}
	}

	resp := ToStatsDTO(*stats, false)
	resp.RecentCampaigns = recentDTOs
	return &resp, nil
}

func (f *ReportFlowImpl) ListWinners(ctx context.Context, campaignID uint) (*dto.ListWinnersResponse, error) {
	winners, err := f.raffleWinners(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	items := make([]dto.WinnerDTO, 0, len(winners))
	for _, w := range winners {
		items = append(items, ToWinnerDTO(*w))
	}
	return &dto.ListWinnersResponse{CampaignID: campaignID, Items: items}, nil
}

// ExportWinners renders the raffle's winners as an xlsx workbook
func (f *ReportFlowImpl) ExportWinners(ctx context.Context, campaignID uint) (string, []byte, error) {
	winners, err := f.raffleWinners(ctx, campaignID)
	if err != nil {
		return "", nil, err
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "Winners"
	xl.SetSheetName(xl.GetSheetName(0), sheet)

	header := []string{"user_id", "telegram_id", "full_name", "username", "phone", "prize", "notified", "notified_at", "selected_at"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for i, w := range winners {
		d := ToWinnerDTO(*w)
		username, phone, notifiedAt := "", "", ""
		if d.Username != nil {
			username = *d.Username
		}
		if d.Phone != nil {
			phone = *d.Phone
		}
		if d.NotifiedAt != nil {
			notifiedAt = d.NotifiedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			strconv.FormatUint(uint64(d.UserID), 10),
			strconv.FormatInt(d.TelegramID, 10),
			d.FullName,
			username,
			phone,
			d.PrizeName,
			strconv.FormatBool(d.Notified),
			notifiedAt,
			d.CreatedAt.UTC().Format(time.RFC3339),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	return fmt.Sprintf("raffle_%d_winners.xlsx", campaignID), buf.Bytes(), nil
}

func (f *ReportFlowImpl) raffleWinners(ctx context.Context, campaignID uint) ([]*models.Winner, error) {
	c, err := f.campaignRepo.ByID(ctx, campaignID)
	if err != nil {
		return nil, NewBusinessError("ADMIN_GET_CAMPAIGN_FAILED", "Failed to get campaign", err)
	}
	if c == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}
	if c.Type != models.CampaignTypeRaffle {
		return nil, NewBusinessError("CAMPAIGN_NOT_RAFFLE", "Campaign is not a raffle", ErrCampaignNotRaffle)
	}

	winners, err := f.winnerRepo.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, NewBusinessError("LIST_WINNERS_FAILED", "Failed to list winners", err)
	}
	return winners, nil
}
