package handlers

import (
	"github.com/amirphl/promo-engine/app/dto"
	"github.com/amirphl/promo-engine/app/logger"
	businessflow "github.com/amirphl/promo-engine/business_flow"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// SettingsHandlerInterface defines the contract for settings handlers
type SettingsHandlerInterface interface {
	GetSettings(c fiber.Ctx) error
	UpdateSettings(c fiber.Ctx) error
	UpdateMessages(c fiber.Ctx) error
}

type SettingsHandler struct {
	baseHandler
	settingsFlow businessflow.SettingsFlow
}

func NewSettingsHandler(flow businessflow.SettingsFlow, logger *zap.Logger) SettingsHandlerInterface {
	return &SettingsHandler{
		baseHandler:  newBaseHandler(logger),
		settingsFlow: flow,
	}
}

// GetSettings returns dynamic settings and message texts
// @Summary Get Settings
// @Tags Admin Settings
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.SettingsResponse}
// @Router /api/v1/admin/settings [get]
func (h *SettingsHandler) GetSettings(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/settings")
	defer cancel()

	resp, err := h.settingsFlow.GetSettings(ctx)
	if err != nil {
		logger.WithContext(ctx, h.logger).Error("admin get settings failed", zap.Error(err))
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load settings", "SETTINGS_LOAD_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Settings retrieved successfully", resp)
}

// UpdateSettings upserts dynamic settings
// @Summary Update Settings
// @Tags Admin Settings
// @Accept json
// @Produce json
// @Param request body dto.UpdateSettingsRequest true "Settings"
// @Success 200 {object} dto.APIResponse{data=dto.SettingsResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Router /api/v1/admin/settings [put]
func (h *SettingsHandler) UpdateSettings(c fiber.Ctx) error {
	var req dto.UpdateSettingsRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/settings")
	defer cancel()

	resp, err := h.settingsFlow.UpdateSettings(ctx, &req)
	if err != nil {
		return h.updateError(c, err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Settings updated successfully", resp)
}

// UpdateMessages upserts user-facing message texts
// @Summary Update Messages
// @Tags Admin Settings
// @Accept json
// @Produce json
// @Param request body dto.UpdateMessagesRequest true "Message texts"
// @Success 200 {object} dto.APIResponse{data=dto.SettingsResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Router /api/v1/admin/messages [put]
func (h *SettingsHandler) UpdateMessages(c fiber.Ctx) error {
	var req dto.UpdateMessagesRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/messages")
	defer cancel()

	resp, err := h.settingsFlow.UpdateMessages(ctx, &req)
	if err != nil {
		return h.updateError(c, err)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Messages updated successfully", resp)
}

func (h *SettingsHandler) updateError(c fiber.Ctx, err error) error {
	if businessflow.IsSettingsUpdateEmpty(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "At least one value is required", "SETTINGS_VALIDATION_FAILED", nil)
	}
	h.logger.Error("admin settings update failed", zap.Error(err))
	return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update settings", "SETTINGS_UPDATE_FAILED", nil)
}
