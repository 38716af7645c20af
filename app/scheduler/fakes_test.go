package scheduler

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/amirphl/promo-engine/models"
	"github.com/amirphl/promo-engine/repository"
	"github.com/stretchr/testify/require"
)

func noSleep(ctx context.Context, _ time.Duration) bool {
	return ctx.Err() == nil
}

func newCampaign(t *testing.T, id uint, typ models.CampaignType, content any) *models.Campaign {
	t.Helper()
	raw, err := json.Marshal(content)
	require.NoError(t, err)
	return &models.Campaign{
		ID:        id,
		Type:      typ,
		Content:   raw,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, int(id), 0, time.UTC),
	}
}

type memCampaigns struct {
	repository.CampaignRepository

	mu   sync.Mutex
	rows map[uint]*models.Campaign
}

func newMemCampaigns(campaigns ...*models.Campaign) *memCampaigns {
	m := &memCampaigns{rows: make(map[uint]*models.Campaign)}
	for _, c := range campaigns {
		m.rows[c.ID] = c
	}
	return m
}

func (m *memCampaigns) ByID(_ context.Context, id uint) (*models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *memCampaigns) ListEligible(_ context.Context, now time.Time) ([]*models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Campaign
	for _, c := range m.rows {
		if !c.IsCompleted && c.IsDue(now) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memCampaigns) Complete(_ context.Context, id uint, sent, failed int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok || c.IsCompleted {
		return false, nil
	}
	now := time.Now().UTC()
	c.IsCompleted = true
	c.CompletedAt = &now
	c.SentCount = sent
	c.FailedCount = failed
	return true, nil
}

func (m *memCampaigns) get(id uint) models.Campaign {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.rows[id]
}

type memProgress struct {
	mu      sync.Mutex
	rows    map[uint]models.BroadcastProgress
	upserts int
}

func newMemProgress() *memProgress {
	return &memProgress{rows: make(map[uint]models.BroadcastProgress)}
}

func (m *memProgress) ByCampaignID(_ context.Context, campaignID uint) (*models.BroadcastProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[campaignID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memProgress) Upsert(_ context.Context, p *models.BroadcastProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[p.CampaignID] = *p
	m.upserts++
	return nil
}

func (m *memProgress) DeleteByCampaignID(_ context.Context, campaignID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, campaignID)
	return nil
}

type memUsers struct {
	repository.UserRepository

	recipients   []models.Recipient
	participants []models.Participant
}

func (m *memUsers) ListRecipientsAfter(_ context.Context, lastID uint, limit int) ([]models.Recipient, error) {
	var out []models.Recipient
	for _, r := range m.recipients {
		if r.ID > lastID {
			out = append(out, r)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memUsers) ListParticipants(_ context.Context) ([]models.Participant, error) {
	out := make([]models.Participant, len(m.participants))
	copy(out, m.participants)
	return out, nil
}

type memWinners struct {
	repository.WinnerRepository

	mu     sync.Mutex
	rows   []*models.Winner
	nextID uint
}

func (m *memWinners) ListByCampaign(_ context.Context, campaignID uint) ([]*models.Winner, error) {
	return m.filter(campaignID, func(*models.Winner) bool { return true }), nil
}

func (m *memWinners) ListUnnotified(_ context.Context, campaignID uint) ([]*models.Winner, error) {
	return m.filter(campaignID, func(w *models.Winner) bool { return !w.Notified }), nil
}

func (m *memWinners) CountByCampaign(_ context.Context, campaignID uint) (int64, error) {
	return int64(len(m.filter(campaignID, func(*models.Winner) bool { return true }))), nil
}

func (m *memWinners) CountNotified(_ context.Context, campaignID uint) (int64, error) {
	return int64(len(m.filter(campaignID, func(w *models.Winner) bool { return w.Notified }))), nil
}

func (m *memWinners) InsertIgnoreConflicts(_ context.Context, winners []*models.Winner) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var inserted int64
	for _, w := range winners {
		dup := false
		for _, existing := range m.rows {
			if existing.CampaignID == w.CampaignID && existing.UserID == w.UserID {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		m.nextID++
		cp := *w
		cp.ID = m.nextID
		m.rows = append(m.rows, &cp)
		inserted++
	}
	return inserted, nil
}

func (m *memWinners) MarkNotified(_ context.Context, id uint, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.rows {
		if w.ID == id && !w.Notified {
			w.Notified = true
			w.NotifiedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (m *memWinners) filter(campaignID uint, keep func(*models.Winner) bool) []*models.Winner {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Winner
	for _, w := range m.rows {
		if w.CampaignID == campaignID && keep(w) {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out
}

type memLosers struct {
	mu   sync.Mutex
	rows map[uint]map[uint]bool
}

func newMemLosers() *memLosers {
	return &memLosers{rows: make(map[uint]map[uint]bool)}
}

func (m *memLosers) NotifiedUserIDs(_ context.Context, campaignID uint) (map[uint]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uint]bool, len(m.rows[campaignID]))
	for userID := range m.rows[campaignID] {
		out[userID] = true
	}
	return out, nil
}

func (m *memLosers) Record(_ context.Context, campaignID, userID uint, delivered bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows[campaignID] == nil {
		m.rows[campaignID] = make(map[uint]bool)
	}
	if _, ok := m.rows[campaignID][userID]; !ok {
		m.rows[campaignID][userID] = delivered
	}
	return nil
}

func (m *memLosers) CountByOutcome(_ context.Context, campaignID uint) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var delivered, undelivered int64
	for _, ok := range m.rows[campaignID] {
		if ok {
			delivered++
		} else {
			undelivered++
		}
	}
	return delivered, undelivered, nil
}

type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type localLocker struct {
	mu sync.Mutex
}

func (l *localLocker) WithTryLock(ctx context.Context, _ string, fn func(ctx context.Context) error) (bool, error) {
	if !l.mu.TryLock() {
		return false, nil
	}
	defer l.mu.Unlock()
	return true, fn(ctx)
}

type staticMessages map[string]string

func (s staticMessages) Setting(_ context.Context, key, fallback string) string {
	if v, ok := s[key]; ok {
		return v
	}
	return fallback
}

func (s staticMessages) Message(_ context.Context, key, fallback string) string {
	if v, ok := s[key]; ok {
		return v
	}
	return fallback
}

type delivery struct {
	recipient int64
	payload   models.MessagePayload
}

// recordingDeliverer records every delivery and fails the recipients listed in fail. A recipient
// listed in interrupt is reported Interrupted once.
type recordingDeliverer struct {
	mu        sync.Mutex
	calls     []delivery
	fail      map[int64]bool
	interrupt map[int64]bool
	onDeliver func(n int)
}

func (d *recordingDeliverer) Deliver(_ context.Context, recipient int64, payload models.MessagePayload) DeliveryOutcome {
	d.mu.Lock()
	d.calls = append(d.calls, delivery{recipient: recipient, payload: payload})
	n := len(d.calls)
	failed := d.fail[recipient]
	interrupted := d.interrupt[recipient]
	delete(d.interrupt, recipient)
	hook := d.onDeliver
	d.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if interrupted {
		return Interrupted
	}
	if failed {
		return SoftFailed
	}
	return Delivered
}

func (d *recordingDeliverer) recipients() []int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]int64, 0, len(d.calls))
	for _, c := range d.calls {
		out = append(out, c.recipient)
	}
	return out
}

func (d *recordingDeliverer) textsTo() map[int64]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[int64]string, len(d.calls))
	for _, c := range d.calls {
		out[c.recipient] = c.payload.Text
	}
	return out
}
