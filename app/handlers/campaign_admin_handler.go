package handlers

import (
	"strconv"
	"time"

	"github.com/amirphl/promo-engine/app/dto"
	"github.com/amirphl/promo-engine/app/logger"
	businessflow "github.com/amirphl/promo-engine/business_flow"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// CampaignAdminHandlerInterface defines the contract for campaign admin handlers
type CampaignAdminHandlerInterface interface {
	CreateCampaign(c fiber.Ctx) error
	ListCampaigns(c fiber.Ctx) error
	GetCampaign(c fiber.Ctx) error
}

// CampaignAdminHandler handles campaign-related HTTP requests
type CampaignAdminHandler struct {
	baseHandler
	campaignFlow businessflow.AdminCampaignFlow
}

func NewCampaignAdminHandler(flow businessflow.AdminCampaignFlow, logger *zap.Logger) CampaignAdminHandlerInterface {
	return &CampaignAdminHandler{
		baseHandler:  newBaseHandler(logger),
		campaignFlow: flow,
	}
}

// CreateCampaign queues a broadcast, raffle or single_message campaign
// @Summary Create Campaign
// @Tags Admin Campaigns
// @Accept json
// @Produce json
// @Param request body dto.CreateCampaignRequest true "Campaign"
// @Success 201 {object} dto.APIResponse{data=dto.CampaignResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/campaigns [post]
func (h *CampaignAdminHandler) CreateCampaign(c fiber.Ctx) error {
	var req dto.CreateCampaignRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/campaigns")
	defer cancel()

	resp, err := h.campaignFlow.CreateCampaign(ctx, &req)
	if err != nil {
		if businessflow.IsInvalidCampaignType(err) || businessflow.IsInvalidCampaignContent(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "CAMPAIGN_VALIDATION_FAILED", nil)
		}
		logger.WithContext(ctx, h.logger).Error("admin create campaign failed", zap.Error(err))
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create campaign", "CAMPAIGN_CREATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Campaign created successfully", resp)
}

// ListCampaigns returns campaigns filtered for admin
// @Summary Admin List Campaigns
// @Tags Admin Campaigns
// @Produce json
// @Param type query string false "Filter by type (broadcast|raffle|single_message)"
// @Param is_completed query bool false "Filter by completion"
// @Param start_date query string false "Filter created_at >= start_date (RFC3339)"
// @Param end_date query string false "Filter created_at <= end_date (RFC3339)"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ListCampaignsResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/campaigns [get]
func (h *CampaignAdminHandler) ListCampaigns(c fiber.Ctx) error {
	var filter dto.ListCampaignsFilter
	if v := c.Query("type"); v != "" {
		filter.Type = &v
	}
	if v := c.Query("is_completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid is_completed value", "INVALID_FILTER", nil)
		}
		filter.IsCompleted = &b
	}
	if v := c.Query("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid start_date format", "INVALID_DATE", nil)
		}
		filter.StartDate = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid end_date format", "INVALID_DATE", nil)
		}
		filter.EndDate = &t
	}
	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid page", "INVALID_PAGE", nil)
		}
		filter.Page = n
	}
	if v := c.Query("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid page_size", "INVALID_PAGE_SIZE", nil)
		}
		filter.PageSize = n
	}
	if err := h.validator.Struct(&filter); err != nil {
		return h.validationError(c, err)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/campaigns")
	defer cancel()

	resp, err := h.campaignFlow.ListCampaigns(ctx, filter)
	if err != nil {
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) ||
			businessflow.IsStartDateAfterEndDate(err) || businessflow.IsInvalidCampaignType(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "INVALID_FILTER", nil)
		}
		logger.WithContext(ctx, h.logger).Error("admin list campaigns failed", zap.Error(err))
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list campaigns", "ADMIN_LIST_CAMPAIGNS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaigns retrieved successfully", resp)
}

// GetCampaign returns one campaign with its completion counters
// @Summary Admin Get Campaign
// @Tags Admin Campaigns
// @Produce json
// @Param id path int true "Campaign ID"
// @Success 200 {object} dto.APIResponse{data=dto.CampaignResponse}
// @Failure 400 {object} dto.APIResponse "Invalid id"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Router /api/v1/admin/campaigns/{id} [get]
func (h *CampaignAdminHandler) GetCampaign(c fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign id", "INVALID_CAMPAIGN_ID", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/campaigns/:id")
	defer cancel()

	resp, err := h.campaignFlow.GetCampaign(ctx, id)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		logger.WithContext(ctx, h.logger).Error("admin get campaign failed", zap.Error(err))
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get campaign", "ADMIN_GET_CAMPAIGN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign retrieved successfully", resp)
}
