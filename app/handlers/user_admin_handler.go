package handlers

import (
	"github.com/amirphl/promo-engine/app/dto"
	"github.com/amirphl/promo-engine/app/logger"
	businessflow "github.com/amirphl/promo-engine/business_flow"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// UserAdminHandlerInterface defines the contract for per-user admin actions
type UserAdminHandlerInterface interface {
	SendMessage(c fiber.Ctx) error
	SetBlocked(c fiber.Ctx) error
	AddReceipt(c fiber.Ctx) error
}

type UserAdminHandler struct {
	baseHandler
	userFlow businessflow.AdminUserFlow
}

func NewUserAdminHandler(flow businessflow.AdminUserFlow, logger *zap.Logger) UserAdminHandlerInterface {
	return &UserAdminHandler{
		baseHandler: newBaseHandler(logger),
		userFlow:    flow,
	}
}

// SendMessage queues a single message to one user
// @Summary Send Message To User
// @Tags Admin Users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body dto.SendUserMessageRequest true "Message"
// @Success 201 {object} dto.APIResponse{data=dto.CampaignResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "User not found"
// @Router /api/v1/admin/users/{id}/message [post]
func (h *UserAdminHandler) SendMessage(c fiber.Ctx) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user id", "INVALID_USER_ID", nil)
	}
	var req dto.SendUserMessageRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/users/:id/message")
	defer cancel()

	resp, err := h.userFlow.SendMessage(ctx, userID, &req)
	if err != nil {
		if businessflow.IsUserNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "User not found", "USER_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidCampaignContent(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "USER_MESSAGE_VALIDATION_FAILED", nil)
		}
		logger.WithContext(ctx, h.logger).Error("admin send user message failed", zap.Error(err))
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to queue message", "USER_MESSAGE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Message queued successfully", resp)
}

// SetBlocked blocks or unblocks a user
// @Summary Block Or Unblock User
// @Tags Admin Users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body dto.SetUserBlockedRequest true "Blocked flag"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "User not found"
// @Router /api/v1/admin/users/{id}/block [post]
func (h *UserAdminHandler) SetBlocked(c fiber.Ctx) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user id", "INVALID_USER_ID", nil)
	}
	var req dto.SetUserBlockedRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/users/:id/block")
	defer cancel()

	resp, err := h.userFlow.SetBlocked(ctx, userID, &req)
	if err != nil {
		if businessflow.IsUserNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "User not found", "USER_NOT_FOUND", nil)
		}
		logger.WithContext(ctx, h.logger).Error("admin set user blocked failed", zap.Error(err))
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update user", "USER_BLOCK_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "User updated successfully", resp)
}

// AddReceipt registers a receipt on behalf of a user
// @Summary Add Receipt
// @Tags Admin Users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body dto.AddReceiptRequest true "Receipt"
// @Success 201 {object} dto.APIResponse{data=dto.ReceiptResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "User not found"
// @Failure 409 {object} dto.APIResponse "Receipt already registered"
// @Router /api/v1/admin/users/{id}/receipts [post]
func (h *UserAdminHandler) AddReceipt(c fiber.Ctx) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user id", "INVALID_USER_ID", nil)
	}
	var req dto.AddReceiptRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/users/:id/receipts")
	defer cancel()

	resp, err := h.userFlow.AddReceipt(ctx, userID, &req)
	if err != nil {
		if businessflow.IsUserNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "User not found", "USER_NOT_FOUND", nil)
		}
		if businessflow.IsDuplicateReceipt(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Receipt already registered", "RECEIPT_DUPLICATE", nil)
		}
		logger.WithContext(ctx, h.logger).Error("admin add receipt failed", zap.Error(err))
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save receipt", "RECEIPT_CREATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Receipt registered successfully", resp)
}
