package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amirphl/promo-engine/app/dto"
	businessflow "github.com/amirphl/promo-engine/business_flow"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubCampaignFlow struct {
	created *dto.CreateCampaignRequest
}

func (s *stubCampaignFlow) CreateCampaign(_ context.Context, req *dto.CreateCampaignRequest) (*dto.CampaignResponse, error) {
	s.created = req
	return &dto.CampaignResponse{ID: 1, Type: req.Type, Content: req.Content}, nil
}

func (s *stubCampaignFlow) ListCampaigns(_ context.Context, filter dto.ListCampaignsFilter) (*dto.ListCampaignsResponse, error) {
	if filter.PageSize > 0 && filter.Page == 0 {
		return nil, businessflow.NewBusinessError("ADMIN_LIST_CAMPAIGNS_FAILED", "bad", businessflow.ErrInvalidPage)
	}
	return &dto.ListCampaignsResponse{Items: []dto.CampaignResponse{}}, nil
}

func (s *stubCampaignFlow) GetCampaign(_ context.Context, id uint) (*dto.CampaignResponse, error) {
	return nil, businessflow.NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", businessflow.ErrCampaignNotFound)
}

type stubReportFlow struct{}

func (stubReportFlow) Stats(context.Context) (*dto.StatsResponse, error) {
	return &dto.StatsResponse{TotalUsers: 3}, nil
}

func (stubReportFlow) ListWinners(_ context.Context, id uint) (*dto.ListWinnersResponse, error) {
	if id != 1 {
		return nil, businessflow.NewBusinessError("CAMPAIGN_NOT_RAFFLE", "Campaign is not a raffle", businessflow.ErrCampaignNotRaffle)
	}
	return &dto.ListWinnersResponse{CampaignID: id}, nil
}

func (stubReportFlow) ExportWinners(_ context.Context, id uint) (string, []byte, error) {
	return "raffle_1_winners.xlsx", []byte("PK"), nil
}

func decodeEnvelope(t *testing.T, resp *http.Response) dto.APIResponse {
	t.Helper()
	defer resp.Body.Close()
	var env dto.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func errorCode(t *testing.T, env dto.APIResponse) string {
	t.Helper()
	detail, ok := env.Error.(map[string]any)
	require.True(t, ok, "error detail missing: %#v", env.Error)
	code, _ := detail["code"].(string)
	return code
}

func newCampaignApp(t *testing.T, flow *stubCampaignFlow) *fiber.App {
	t.Helper()
	h := NewCampaignAdminHandler(flow, zaptest.NewLogger(t))
	app := fiber.New()
	app.Post("/campaigns", h.CreateCampaign)
	app.Get("/campaigns", h.ListCampaigns)
	app.Get("/campaigns/:id", h.GetCampaign)
	return app
}

func TestCreateCampaignHandler(t *testing.T) {
	flow := &stubCampaignFlow{}
	app := newCampaignApp(t, flow)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{name: "created", body: `{"type":"broadcast","content":{"text":"hi"}}`, status: fiber.StatusCreated},
		{name: "unknown type", body: `{"type":"lottery","content":{"text":"hi"}}`, status: fiber.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "missing content", body: `{"type":"raffle"}`, status: fiber.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "malformed body", body: `{"type":`, status: fiber.StatusBadRequest, code: "INVALID_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/campaigns", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			env := decodeEnvelope(t, resp)
			if tt.code == "" {
				assert.True(t, env.Success)
				return
			}
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, errorCode(t, env))
		})
	}
	require.NotNil(t, flow.created)
	assert.JSONEq(t, `{"text":"hi"}`, string(flow.created.Content))
}

func TestListAndGetCampaignHandler(t *testing.T) {
	app := newCampaignApp(t, &stubCampaignFlow{})

	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{name: "ok", target: "/campaigns?type=raffle&is_completed=false", status: fiber.StatusOK},
		{name: "bad date", target: "/campaigns?start_date=yesterday", status: fiber.StatusBadRequest, code: "INVALID_DATE"},
		{name: "bad flag", target: "/campaigns?is_completed=maybe", status: fiber.StatusBadRequest, code: "INVALID_FILTER"},
		{name: "page size too large", target: "/campaigns?page_size=1000", status: fiber.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "flow rejects filter", target: "/campaigns?page_size=10", status: fiber.StatusBadRequest, code: "INVALID_FILTER"},
		{name: "not found", target: "/campaigns/7", status: fiber.StatusNotFound, code: "CAMPAIGN_NOT_FOUND"},
		{name: "bad id", target: "/campaigns/abc", status: fiber.StatusBadRequest, code: "INVALID_CAMPAIGN_ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.target, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			env := decodeEnvelope(t, resp)
			if tt.code != "" {
				assert.Equal(t, tt.code, errorCode(t, env))
			}
		})
	}
}

func TestReportHandler(t *testing.T) {
	h := NewReportHandler(stubReportFlow{}, zaptest.NewLogger(t))
	app := fiber.New()
	app.Get("/campaigns/:id/winners", h.ListWinners)
	app.Get("/campaigns/:id/winners.xlsx", h.DownloadWinners)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/campaigns/1/winners.xlsx", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, xlsxContentType, resp.Header.Get("Content-Type"))
	assert.Equal(t, "attachment; filename=raffle_1_winners.xlsx", resp.Header.Get("Content-Disposition"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/campaigns/2/winners", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CAMPAIGN_NOT_RAFFLE", errorCode(t, decodeEnvelope(t, resp)))
}
