package businessflow

import (
	"context"
	"crypto/subtle"
	"math"

	"github.com/amirphl/promo-engine/app/dto"
	"github.com/amirphl/promo-engine/app/services"
	"github.com/amirphl/promo-engine/config"
	"github.com/amirphl/promo-engine/utils"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuthFlow represents the admin authentication flow used by handlers
type AdminAuthFlow interface {
	Login(ctx context.Context, req *dto.AdminLoginRequest) (*dto.AdminLoginResponse, error)
}

// AdminAuthFlowImpl checks the configured admin credentials and issues access tokens
type AdminAuthFlowImpl struct {
	adminConfig  config.AdminConfig
	tokenService services.TokenService
}

func NewAdminAuthFlow(adminConfig config.AdminConfig, tokenService services.TokenService) AdminAuthFlow {
	return &AdminAuthFlowImpl{
		adminConfig:  adminConfig,
		tokenService: tokenService,
	}
}

func (af *AdminAuthFlowImpl) Login(ctx context.Context, req *dto.AdminLoginRequest) (*dto.AdminLoginResponse, error) {
	if af.adminConfig.PasswordHash == "" || af.tokenService == nil {
		return nil, NewBusinessError("ADMIN_LOGIN_DISABLED", "Admin login is not configured", ErrAdminLoginDisabled)
	}
	if req == nil || len(req.Username) == 0 || len(req.Password) == 0 {
		return nil, NewBusinessError("ADMIN_LOGIN_VALIDATION_FAILED", "Admin login validation failed", ErrIncorrectCredentials)
	}

	// The password is checked even when the username does not match
	usernameOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(af.adminConfig.Username)) == 1
	passwordErr := bcrypt.CompareHashAndPassword([]byte(af.adminConfig.PasswordHash), []byte(req.Password))
	if !usernameOK || passwordErr != nil {
		return nil, NewBusinessError("ADMIN_INCORRECT_CREDENTIALS", "Incorrect username or password", ErrIncorrectCredentials)
	}

	token, expiresAt, err := af.tokenService.GenerateAdminToken(af.adminConfig.Username)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate token", err)
	}

	return &dto.AdminLoginResponse{
		Username:    af.adminConfig.Username,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(math.Round(expiresAt.Sub(utils.UTCNow()).Seconds())),
		ExpiresAt:   expiresAt,
	}, nil
}
