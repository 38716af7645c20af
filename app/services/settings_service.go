package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/amirphl/promo-engine/repository"
	"github.com/amirphl/promo-engine/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SettingsService serves dynamic settings and message texts from a refreshed in-memory snapshot
type SettingsService interface {
	Setting(ctx context.Context, key, fallback string) string
	Message(ctx context.Context, key, fallback string) string
	Settings(ctx context.Context) (map[string]string, error)
	Messages(ctx context.Context) (map[string]string, error)
	UpdateSettings(ctx context.Context, values map[string]string) error
	UpdateMessages(ctx context.Context, texts map[string]string) error
	Invalidate(ctx context.Context)
}

type settingsSnapshot struct {
	Settings map[string]string `json:"settings"`
	Messages map[string]string `json:"messages"`
}

// SettingsServiceImpl implements SettingsService. The optional redis client shares one
// snapshot between processes; without it each process reloads from the store.
type SettingsServiceImpl struct {
	repo   repository.SettingRepository
	rc     redis.UniversalClient
	key    string
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu       sync.RWMutex
	snapshot *settingsSnapshot
	loadedAt time.Time
}

func NewSettingsService(repo repository.SettingRepository, rc redis.UniversalClient, prefix string, ttl time.Duration, logger *zap.Logger) *SettingsServiceImpl {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &SettingsServiceImpl{
		repo:   repo,
		rc:     rc,
		key:    prefix + "settings",
		ttl:    ttl,
		logger: logger,
		now:    utils.UTCNow,
	}
}

// Setting returns a setting value, or fallback when unset or unavailable
func (s *SettingsServiceImpl) Setting(ctx context.Context, key, fallback string) string {
	snap, err := s.current(ctx)
	if err != nil {
		s.logger.Warn("settings unavailable, using fallback", zap.String("key", key), zap.Error(err))
		return fallback
	}
	if v, ok := snap.Settings[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Message returns a message text, or fallback when unset or unavailable
func (s *SettingsServiceImpl) Message(ctx context.Context, key, fallback string) string {
	snap, err := s.current(ctx)
	if err != nil {
		s.logger.Warn("messages unavailable, using fallback", zap.String("key", key), zap.Error(err))
		return fallback
	}
	if v, ok := snap.Messages[key]; ok && v != "" {
		return v
	}
	return fallback
}

func (s *SettingsServiceImpl) Settings(ctx context.Context) (map[string]string, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return maps.Clone(snap.Settings), nil
}

func (s *SettingsServiceImpl) Messages(ctx context.Context) (map[string]string, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return maps.Clone(snap.Messages), nil
}

func (s *SettingsServiceImpl) UpdateSettings(ctx context.Context, values map[string]string) error {
	for k, v := range values {
		if err := s.repo.UpsertSetting(ctx, k, v); err != nil {
			return err
		}
	}
	s.Invalidate(ctx)
	return nil
}

func (s *SettingsServiceImpl) UpdateMessages(ctx context.Context, texts map[string]string) error {
	for k, v := range texts {
		if err := s.repo.UpsertMessage(ctx, k, v); err != nil {
			return err
		}
	}
	s.Invalidate(ctx)
	return nil
}

// Invalidate drops the local snapshot and the shared cache entry
func (s *SettingsServiceImpl) Invalidate(ctx context.Context) {
	s.mu.Lock()
	s.snapshot = nil
	s.mu.Unlock()

	if s.rc != nil {
		if err := s.rc.Del(ctx, s.key).Err(); err != nil {
			s.logger.Warn("failed to drop cached settings", zap.Error(err))
		}
	}
}

func (s *SettingsServiceImpl) current(ctx context.Context) (*settingsSnapshot, error) {
	s.mu.RLock()
	snap, loadedAt := s.snapshot, s.loadedAt
	s.mu.RUnlock()
	if snap != nil && s.now().Sub(loadedAt) < s.ttl {
		return snap, nil
	}

	fresh, err := s.load(ctx)
	if err != nil {
		if snap != nil {
			// stale beats nothing
			s.logger.Warn("settings refresh failed, serving stale snapshot", zap.Error(err))
			return snap, nil
		}
		return nil, err
	}

	s.mu.Lock()
	s.snapshot = fresh
	s.loadedAt = s.now()
	s.mu.Unlock()
	return fresh, nil
}

func (s *SettingsServiceImpl) load(ctx context.Context) (*settingsSnapshot, error) {
	if s.rc != nil {
		raw, err := s.rc.Get(ctx, s.key).Bytes()
		switch {
		case err == nil:
			var snap settingsSnapshot
			if jsonErr := json.Unmarshal(raw, &snap); jsonErr == nil {
				return &snap, nil
			}
		case !errors.Is(err, redis.Nil):
			s.logger.Warn("failed to read cached settings", zap.Error(err))
		}
	}

	settings, err := s.repo.AllSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	messages, err := s.repo.AllMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	snap := &settingsSnapshot{Settings: settings, Messages: messages}

	if s.rc != nil {
		if raw, err := json.Marshal(snap); err == nil {
			if err := s.rc.Set(ctx, s.key, raw, s.ttl).Err(); err != nil {
				s.logger.Warn("failed to cache settings", zap.Error(err))
			}
		}
	}
	return snap, nil
}
