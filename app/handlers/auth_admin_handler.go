package handlers

import (
	"github.com/amirphl/promo-engine/app/dto"
	"github.com/amirphl/promo-engine/app/logger"
	businessflow "github.com/amirphl/promo-engine/business_flow"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// AdminHandlerInterface defines the contract for admin auth handlers
type AdminHandlerInterface interface {
	Login(c fiber.Ctx) error
}

// AdminHandler implements AdminHandlerInterface
type AdminHandler struct {
	baseHandler
	flow businessflow.AdminAuthFlow
}

func NewAdminHandler(flow businessflow.AdminAuthFlow, logger *zap.Logger) AdminHandlerInterface {
	return &AdminHandler{
		baseHandler: newBaseHandler(logger),
		flow:        flow,
	}
}

// Login authenticates the configured admin and issues an access token
// @Summary Admin login
// @Tags Admin Authentication
// @Accept json
// @Produce json
// @Param request body dto.AdminLoginRequest true "Admin credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AdminLoginResponse} "Login successful"
// @Failure 400 {object} dto.APIResponse "Invalid request"
// @Failure 401 {object} dto.APIResponse "Incorrect credentials"
// @Failure 503 {object} dto.APIResponse "Admin login disabled"
// @Router /api/v1/admin/auth/login [post]
func (h *AdminHandler) Login(c fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if ok, err := h.bindJSON(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/auth/login")
	defer cancel()

	resp, err := h.flow.Login(ctx, &req)
	if err != nil {
		if businessflow.IsAdminLoginDisabled(err) {
			return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Admin login is not configured", "ADMIN_LOGIN_DISABLED", nil)
		}
		if businessflow.IsIncorrectCredentials(err) {
			logger.WithContext(ctx, h.logger).Warn("admin login rejected", zap.String("ip", c.IP()))
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Incorrect username or password", "INCORRECT_CREDENTIALS", nil)
		}
		logger.WithContext(ctx, h.logger).Error("admin login failed", zap.Error(err))
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Login failed", "LOGIN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Login successful", resp)
}
