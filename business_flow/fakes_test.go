package businessflow

import (
	"context"
	"sort"
	"sync"

	"github.com/amirphl/promo-engine/models"
	"github.com/amirphl/promo-engine/repository"
)

type fakeCampaignRepo struct {
	repository.CampaignRepository

	mu     sync.Mutex
	rows   []*models.Campaign
	nextID uint
}

func (r *fakeCampaignRepo) Create(_ context.Context, c *models.Campaign) (uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = r.nextID
	cp := *c
	r.rows = append(r.rows, &cp)
	return c.ID, nil
}

func (r *fakeCampaignRepo) ByID(_ context.Context, id uint) (*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.rows {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeCampaignRepo) matching(f models.CampaignFilter) []*models.Campaign {
	var out []*models.Campaign
	for _, c := range r.rows {
		if f.Type != nil && c.Type != *f.Type {
			continue
		}
		if f.IsCompleted != nil && c.IsCompleted != *f.IsCompleted {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r *fakeCampaignRepo) ByFilter(_ context.Context, f models.CampaignFilter, _ string, limit, offset int) ([]*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.matching(f)
	if offset >= len(rows) {
		return nil, nil
	}
	rows = rows[offset:]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (r *fakeCampaignRepo) ListRecent(ctx context.Context, limit, offset int) ([]*models.Campaign, error) {
	return r.ByFilter(ctx, models.CampaignFilter{}, "", limit, offset)
}

func (r *fakeCampaignRepo) Count(_ context.Context, f models.CampaignFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.matching(f))), nil
}

type fakeUserRepo struct {
	repository.UserRepository

	users map[uint]*models.User
}

func (r *fakeUserRepo) ByID(_ context.Context, id uint) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) SetBlocked(_ context.Context, id uint, blocked bool) (bool, error) {
	u, ok := r.users[id]
	if !ok {
		return false, nil
	}
	u.IsBlocked = blocked
	return true, nil
}

type fakeReceiptRepo struct {
	rows []*models.Receipt
}

func (r *fakeReceiptRepo) Save(_ context.Context, receipt *models.Receipt) error {
	for _, existing := range r.rows {
		if existing.FiscalDrive == receipt.FiscalDrive &&
			existing.FiscalDocument == receipt.FiscalDocument &&
			existing.FiscalSign == receipt.FiscalSign {
			return repository.ErrDuplicateReceipt
		}
	}
	receipt.ID = uint(len(r.rows) + 1)
	r.rows = append(r.rows, receipt)
	return nil
}

func (r *fakeReceiptRepo) ListByUser(_ context.Context, userID uint) ([]*models.Receipt, error) {
	var out []*models.Receipt
	for _, rc := range r.rows {
		if rc.UserID == userID {
			out = append(out, rc)
		}
	}
	return out, nil
}

type fakeWinnerRepo struct {
	repository.WinnerRepository

	rows []*models.Winner
}

func (r *fakeWinnerRepo) ListByCampaign(_ context.Context, campaignID uint) ([]*models.Winner, error) {
	var out []*models.Winner
	for _, w := range r.rows {
		if w.CampaignID == campaignID {
			out = append(out, w)
		}
	}
	return out, nil
}

type fakeStatsRepo struct {
	calls int
	stats models.Stats
}

func (r *fakeStatsRepo) Collect(context.Context) (*models.Stats, error) {
	r.calls++
	s := r.stats
	return &s, nil
}

type fakeSettingsService struct {
	settings map[string]string
	messages map[string]string
}

func (s *fakeSettingsService) Setting(_ context.Context, key, fallback string) string {
	if v, ok := s.settings[key]; ok {
		return v
	}
	return fallback
}

func (s *fakeSettingsService) Message(_ context.Context, key, fallback string) string {
	if v, ok := s.messages[key]; ok {
		return v
	}
	return fallback
}

func (s *fakeSettingsService) Settings(context.Context) (map[string]string, error) {
	return s.settings, nil
}

func (s *fakeSettingsService) Messages(context.Context) (map[string]string, error) {
	return s.messages, nil
}

func (s *fakeSettingsService) UpdateSettings(_ context.Context, values map[string]string) error {
	for k, v := range values {
		s.settings[k] = v
	}
	return nil
}

func (s *fakeSettingsService) UpdateMessages(_ context.Context, texts map[string]string) error {
	for k, v := range texts {
		s.messages[k] = v
	}
	return nil
}

func (s *fakeSettingsService) Invalidate(context.Context) {}
