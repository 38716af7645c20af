package businessflow

import (
	"context"

	"github.com/amirphl/promo-engine/app/dto"
	"github.com/amirphl/promo-engine/app/services"
	"go.uber.org/zap"
)

// SettingsFlow reads and edits dynamic settings and message texts
type SettingsFlow interface {
	GetSettings(ctx context.Context) (*dto.SettingsResponse, error)
	UpdateSettings(ctx context.Context, req *dto.UpdateSettingsRequest) (*dto.SettingsResponse, error)
	UpdateMessages(ctx context.Context, req *dto.UpdateMessagesRequest) (*dto.SettingsResponse, error)
}

type SettingsFlowImpl struct {
	settings services.SettingsService
	logger   *zap.Logger
}

func NewSettingsFlow(settings services.SettingsService, logger *zap.Logger) SettingsFlow {
	return &SettingsFlowImpl{settings: settings, logger: logger}
}

func (f *SettingsFlowImpl) GetSettings(ctx context.Context) (*dto.SettingsResponse, error) {
	values, err := f.settings.Settings(ctx)
	if err != nil {
		return nil, NewBusinessError("SETTINGS_LOAD_FAILED", "Failed to load settings", err)
	}
	texts, err := f.settings.Messages(ctx)
	if err != nil {
		return nil, NewBusinessError("SETTINGS_LOAD_FAILED", "Failed to load messages", err)
	}
	return &dto.SettingsResponse{Settings: values, Messages: texts}, nil
}

func (f *SettingsFlowImpl) UpdateSettings(ctx context.Context, req *dto.UpdateSettingsRequest) (*dto.SettingsResponse, error) {
	if req == nil || len(req.Values) == 0 {
		return nil, NewBusinessError("SETTINGS_VALIDATION_FAILED", "At least one setting is required", ErrSettingsUpdateEmpty)
	}
	if err := f.settings.UpdateSettings(ctx, req.Values); err != nil {
		return nil, NewBusinessError("SETTINGS_UPDATE_FAILED", "Failed to update settings", err)
	}
	f.logger.Info("settings updated", zap.Int("keys", len(req.Values)))
	return f.GetSettings(ctx)
}

func (f *SettingsFlowImpl) UpdateMessages(ctx context.Context, req *dto.UpdateMessagesRequest) (*dto.SettingsResponse, error) {
	if req == nil || len(req.Texts) == 0 {
		return nil, NewBusinessError("SETTINGS_VALIDATION_FAILED", "At least one message is required", ErrSettingsUpdateEmpty)
	}
	if err := f.settings.UpdateMessages(ctx, req.Texts); err != nil {
		return nil, NewBusinessError("SETTINGS_UPDATE_FAILED", "Failed to update messages", err)
	}
	f.logger.Info("messages updated", zap.Int("keys", len(req.Texts)))
	return f.GetSettings(ctx)
}
