package handlers

import (
	"github.com/amirphl/promo-engine/app/logger"
	businessflow "github.com/amirphl/promo-engine/business_flow"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandlerInterface defines the contract for reporting handlers
type ReportHandlerInterface interface {
	Stats(c fiber.Ctx) error
	ListWinners(c fiber.Ctx) error
	DownloadWinners(c fiber.Ctx) error
}

type ReportHandler struct {
	baseHandler
	reportFlow businessflow.ReportFlow
}

func NewReportHandler(flow businessflow.ReportFlow, logger *zap.Logger) ReportHandlerInterface {
	return &ReportHandler{
		baseHandler: newBaseHandler(logger),
		reportFlow:  flow,
	}
}

// Stats returns aggregate counters
// @Summary Admin Stats
// @Tags Admin Reports
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.StatsResponse}
// @Router /api/v1/admin/stats [get]
func (h *ReportHandler) Stats(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/stats")
	defer cancel()

	resp, err := h.reportFlow.Stats(ctx)
	if err != nil {
		logger.WithContext(ctx, h.logger).Error("admin stats failed", zap.Error(err))
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to collect stats", "STATS_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Stats retrieved successfully", resp)
}

// ListWinners returns the persisted winners of a raffle
// @Summary Raffle Winners
// @Tags Admin Reports
// @Produce json
// @Param id path int true "Campaign ID"
// @Success 200 {object} dto.APIResponse{data=dto.ListWinnersResponse}
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Failure 409 {object} dto.APIResponse "Campaign is not a raffle"
// @Router /api/v1/admin/campaigns/{id}/winners [get]
func (h *ReportHandler) ListWinners(c fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign id", "INVALID_CAMPAIGN_ID", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/campaigns/:id/winners")
	defer cancel()

	resp, err := h.reportFlow.ListWinners(ctx, id)
	if err != nil {
		return h.winnersError(c, err, "admin list winners failed")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Winners retrieved successfully", resp)
}

// DownloadWinners returns the raffle's winners as an xlsx attachment
// @Summary Download Raffle Winners
// @Tags Admin Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path int true "Campaign ID"
// @Success 200 {file} binary
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Failure 409 {object} dto.APIResponse "Campaign is not a raffle"
// @Router /api/v1/admin/campaigns/{id}/winners.xlsx [get]
func (h *ReportHandler) DownloadWinners(c fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign id", "INVALID_CAMPAIGN_ID", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/campaigns/:id/winners.xlsx")
	defer cancel()

	filename, data, err := h.reportFlow.ExportWinners(ctx, id)
	if err != nil {
		return h.winnersError(c, err, "admin download winners failed")
	}
	c.Set("Content-Type", xlsxContentType)
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

func (h *ReportHandler) winnersError(c fiber.Ctx, err error, msg string) error {
	if businessflow.IsCampaignNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
	}
	if businessflow.IsCampaignNotRaffle(err) {
		return h.ErrorResponse(c, fiber.StatusConflict, "Campaign is not a raffle", "CAMPAIGN_NOT_RAFFLE", nil)
	}
	h.logger.Error(msg, zap.Error(err))
	return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load winners", "LIST_WINNERS_FAILED", nil)
}
