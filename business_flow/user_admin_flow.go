package businessflow

import (
	"context"
	"errors"
	"strings"

	"github.com/amirphl/promo-engine/app/dto"
	"github.com/amirphl/promo-engine/models"
	"github.com/amirphl/promo-engine/repository"
	"github.com/amirphl/promo-engine/utils"
	"go.uber.org/zap"
)

// AdminUserFlow covers the per-user admin actions
type AdminUserFlow interface {
	SendMessage(ctx context.Context, userID uint, req *dto.SendUserMessageRequest) (*dto.CampaignResponse, error)
	SetBlocked(ctx context.Context, userID uint, req *dto.SetUserBlockedRequest) (*dto.UserResponse, error)
	AddReceipt(ctx context.Context, userID uint, req *dto.AddReceiptRequest) (*dto.ReceiptResponse, error)
}

type AdminUserFlowImpl struct {
	userRepo     repository.UserRepository
	receiptRepo  repository.ReceiptRepository
	campaignRepo repository.CampaignRepository
	logger       *zap.Logger
}

func NewAdminUserFlow(
	userRepo repository.UserRepository,
	receiptRepo repository.ReceiptRepository,
	campaignRepo repository.CampaignRepository,
	logger *zap.Logger,
) AdminUserFlow {
	return &AdminUserFlowImpl{
		userRepo:     userRepo,
		receiptRepo:  receiptRepo,
		campaignRepo: campaignRepo,
		logger:       logger,
	}
}

// SendMessage queues a single_message campaign addressed to the user's chat id
func (f *AdminUserFlowImpl) SendMessage(ctx context.Context, userID uint, req *dto.SendUserMessageRequest) (*dto.CampaignResponse, error) {
	user, err := f.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	content := models.SingleMessageContent{
		MessagePayload: models.MessagePayload{
			Text:    strings.TrimSpace(req.Text),
			Photo:   strings.TrimSpace(req.Photo),
			Caption: req.Caption,
		},
		TargetUserID: utils.ToPtr(user.TelegramID),
	}
	if err := content.Validate(); err != nil {
		return nil, NewBusinessError("USER_MESSAGE_VALIDATION_FAILED", err.Error(), ErrInvalidCampaignContent)
	}

	raw, err := models.MarshalContent(content)
	if err != nil {
		return nil, NewBusinessError("USER_MESSAGE_FAILED", "Failed to encode message", err)
	}
	campaign := &models.Campaign{
		Type:         models.CampaignTypeSingleMessage,
		Content:      raw,
		ScheduledFor: utils.TimeToUTCPtr(req.ScheduledFor),
	}
	if _, err := f.campaignRepo.Create(ctx, campaign); err != nil {
		return nil, NewBusinessError("USER_MESSAGE_FAILED", "Failed to queue message", err)
	}

	f.logger.Info("single message queued", zap.Uint("user_id", user.ID), zap.Uint("campaign_id", campaign.ID))
	resp := ToCampaignDTO(*campaign)
	return &resp, nil
}

// SetBlocked sets the user's blocked flag. Blocked users receive no broadcasts and cannot win raffles.
func (f *AdminUserFlowImpl) SetBlocked(ctx context.Context, userID uint, req *dto.SetUserBlockedRequest) (*dto.UserResponse, error) {
	if req == nil || req.Blocked == nil {
		return nil, NewBusinessError("USER_BLOCK_VALIDATION_FAILED", "blocked is required", nil)
	}

	found, err := f.userRepo.SetBlocked(ctx, userID, *req.Blocked)
	if err != nil {
		return nil, NewBusinessError("USER_BLOCK_FAILED", "Failed to update user", err)
	}
	if !found {
		return nil, NewBusinessError("USER_NOT_FOUND", "User not found", ErrUserNotFound)
	}

	user, err := f.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	f.logger.Info("user block flag updated", zap.Uint("user_id", userID), zap.Bool("blocked", user.IsBlocked))
	resp := ToUserDTO(*user)
	return &resp, nil
}

// AddReceipt registers a valid receipt for the user, which makes them a raffle participant
func (f *AdminUserFlowImpl) AddReceipt(ctx context.Context, userID uint, req *dto.AddReceiptRequest) (*dto.ReceiptResponse, error) {
	user, err := f.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	tickets := req.Tickets
	if tickets == 0 {
		tickets = 1
	}
	receipt := &models.Receipt{
		UserID:         user.ID,
		FiscalDrive:    strings.TrimSpace(req.FiscalDrive),
		FiscalDocument: strings.TrimSpace(req.FiscalDocument),
		FiscalSign:     strings.TrimSpace(req.FiscalSign),
		Status:         models.ReceiptStatusValid,
		Tickets:        tickets,
		Data:           req.Data,
	}
	if err := f.receiptRepo.Save(ctx, receipt); err != nil {
		if errors.Is(err, repository.ErrDuplicateReceipt) {
			return nil, NewBusinessError("RECEIPT_DUPLICATE", "Receipt already registered", ErrDuplicateReceipt)
		}
		return nil, NewBusinessError("RECEIPT_CREATE_FAILED", "Failed to save receipt", err)
	}

	resp := ToReceiptDTO(*receipt)
	return &resp, nil
}

func (f *AdminUserFlowImpl) loadUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := f.userRepo.ByID(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}
	if user == nil {
		return nil, NewBusinessError("USER_NOT_FOUND", "User not found", ErrUserNotFound)
	}
	return user, nil
}
