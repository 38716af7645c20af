package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/amirphl/promo-engine/app/dto"
	"github.com/amirphl/promo-engine/models"
	"github.com/amirphl/promo-engine/repository"
	"github.com/amirphl/promo-engine/utils"
	"go.uber.org/zap"
)

// AdminCampaignFlow handles the campaign business logic
type AdminCampaignFlow interface {
	CreateCampaign(ctx context.Context, req *dto.CreateCampaignRequest) (*dto.CampaignResponse, error)
	ListCampaigns(ctx context.Context, filter dto.ListCampaignsFilter) (*dto.ListCampaignsResponse, error)
	GetCampaign(ctx context.Context, id uint) (*dto.CampaignResponse, error)
}

// AdminCampaignFlowImpl implements the campaign business flow
type AdminCampaignFlowImpl struct {
	campaignRepo repository.CampaignRepository
	logger       *zap.Logger
}

// NewAdminCampaignFlow creates a new campaign flow instance
func NewAdminCampaignFlow(campaignRepo repository.CampaignRepository, logger *zap.Logger) AdminCampaignFlow {
	return &AdminCampaignFlowImpl{
		campaignRepo: campaignRepo,
		logger:       logger,
	}
}

// CreateCampaign validates the content for its type and inserts the campaign.
// The insert notifies the dispatcher, so unscheduled campaigns start within moments.
func (s *AdminCampaignFlowImpl) CreateCampaign(ctx context.Context, req *dto.CreateCampaignRequest) (*dto.CampaignResponse, error) {
	if req == nil {
		return nil, NewBusinessError("CAMPAIGN_VALIDATION_FAILED", "Campaign request is required", ErrInvalidCampaignContent)
	}

	typ := models.CampaignType(req.Type)
	if !typ.Valid() {
		return nil, NewBusinessErrorf("CAMPAIGN_VALIDATION_FAILED", "Unknown campaign type %q", ErrInvalidCampaignType, req.Type)
	}

	content, err := normalizeContent(typ, req.Content)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_VALIDATION_FAILED", err.Error(), ErrInvalidCampaignContent)
	}

	campaign := &models.Campaign{
		Type:         typ,
		Content:      content,
		ScheduledFor: utils.TimeToUTCPtr(req.ScheduledFor),
	}
	if _, err := s.campaignRepo.Create(ctx, campaign); err != nil {
		return nil, NewBusinessError("CAMPAIGN_CREATE_FAILED", "Failed to create campaign", err)
	}

	s.logger.Info("campaign created",
		zap.Uint("campaign_id", campaign.ID),
		zap.String("type", campaign.Type.String()),
		zap.Timep("scheduled_for", campaign.ScheduledFor))

	resp := ToCampaignDTO(*campaign)
	return &resp, nil
}

// normalizeContent decodes the content into the type's payload, validates it and re-encodes it
func normalizeContent(typ models.CampaignType, raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 {
		return nil, errors.New("content is required")
	}

	var (
		payload   any
		validated error
	)
	switch typ {
	case models.CampaignTypeBroadcast:
		var p models.MessagePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("content is not a valid message payload: %w", err)
		}
		payload, validated = p, p.Validate()
	case models.CampaignTypeSingleMessage:
		var p models.SingleMessageContent
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("content is not a valid single message payload: %w", err)
		}
		payload, validated = p, p.Validate()
	case models.CampaignTypeRaffle:
		var p models.RaffleContent
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("content is not a valid raffle payload: %w", err)
		}
		payload, validated = p, p.Validate()
	default:
		return nil, ErrInvalidCampaignType
	}
	if validated != nil {
		return nil, validated
	}

	return models.MarshalContent(payload)
}

// ListCampaigns retrieves campaigns newest first using optional filters: type, completion and creation dates
func (s *AdminCampaignFlowImpl) ListCampaigns(ctx context.Context, filter dto.ListCampaignsFilter) (*dto.ListCampaignsResponse, error) {
	page, pageSize, err := normalizePage(filter.Page, filter.PageSize)
	if err != nil {
		return nil, NewBusinessError("ADMIN_LIST_CAMPAIGNS_FAILED", err.Error(), err)
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, NewBusinessError("ADMIN_LIST_CAMPAIGNS_FAILED", "End date must be after start date", ErrStartDateAfterEndDate)
	}

	cf := models.CampaignFilter{
		IsCompleted:   filter.IsCompleted,
		CreatedAfter:  filter.StartDate,
		CreatedBefore: filter.EndDate,
	}
	if filter.Type != nil && *filter.Type != "" {
		typ := models.CampaignType(*filter.Type)
		if !typ.Valid() {
			return nil, NewBusinessError("ADMIN_LIST_CAMPAIGNS_FAILED", "Unknown campaign type", ErrInvalidCampaignType)
		}
		cf.Type = &typ
	}

	total, err := s.campaignRepo.Count(ctx, cf)
	if err != nil {
		return nil, NewBusinessError("ADMIN_LIST_CAMPAIGNS_FAILED", "Failed to count campaigns", err)
	}
	rows, err := s.campaignRepo.ByFilter(ctx, cf, "created_at DESC, id DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("ADMIN_LIST_CAMPAIGNS_FAILED", "Failed to list campaigns", err)
	}

	items := make([]dto.CampaignResponse, 0, len(rows))
	for _, c := range rows {
		items = append(items, ToCampaignDTO(*c))
	}

	return &dto.ListCampaignsResponse{
		Items:      items,
		Pagination: newPagination(page, pageSize, total),
	}, nil
}

func (s *AdminCampaignFlowImpl) GetCampaign(ctx context.Context, id uint) (*dto.CampaignResponse, error) {
	c, err := s.campaignRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("ADMIN_GET_CAMPAIGN_FAILED", "Failed to get campaign", err)
	}
	if c == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}
	resp := ToCampaignDTO(*c)
	return &resp, nil
}
