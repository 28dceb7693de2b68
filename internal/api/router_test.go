package api

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vendaval/internal/domain"
	"github.com/saturnino-fabrica-de-software/vendaval/internal/ws"
)

type stubService struct{}

func (stubService) Assess(_ context.Context, claimID string, refs []domain.ImageReference) (*domain.Assessment, error) {
	if len(refs) == 0 {
		return nil, domain.ErrNoImages
	}
	return &domain.Assessment{
		ID: uuid.New(),
		Summary: domain.ClaimSummary{
			ClaimID:           claimID,
			SourceImageCounts: domain.SourceImageCounts{Total: len(refs)},
			GeneratedAt:       time.Now().UTC().Truncate(time.Second),
		},
	}, nil
}

func (stubService) GetLatest(context.Context, string) (*domain.Assessment, error) {
	return nil, domain.ErrPersistenceDisabled
}

func (stubService) CrossMatches(context.Context, string) ([]domain.CrossClaimMatch, error) {
	return nil, domain.ErrPersistenceDisabled
}

func newTestRouter(deps *Dependencies) *Router {
	r := NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)), deps)
	r.Setup()
	return r
}

func TestRouter_Routes(t *testing.T) {
	r := newTestRouter(&Dependencies{Service: stubService{}})
	defer func() { _ = r.Shutdown() }()

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"health", "GET", "/health", "", 200},
		{"ready without database", "GET", "/ready", "", 200},
		{"metrics", "GET", "/metrics", "", 200},
		{"aggregate", "POST", "/aggregate", `{"claim_id":"C1","images":["https://x/roof.jpg"]}`, 200},
		{"aggregate without images", "POST", "/aggregate", `{"claim_id":"C1","images":[]}`, 422},
		{"assess", "POST", "/v1/claims/assess", `{"claim_id":"C1","images":["https://x/roof.jpg"]}`, 200},
		{"get without persistence", "GET", "/v1/claims/C1", "", 404},
		{"cross matches without persistence", "GET", "/v1/claims/C1/cross-matches", "", 404},
		{"unknown route", "GET", "/v1/policies", "", 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := r.App().Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestRouter_LiveFeedRequiresUpgrade(t *testing.T) {
	r := newTestRouter(&Dependencies{Service: stubService{}, Hub: ws.NewHub()})
	defer func() { _ = r.Shutdown() }()

	resp, err := r.App().Test(httptest.NewRequest("GET", "/v1/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, 426, resp.StatusCode)

	without := newTestRouter(&Dependencies{Service: stubService{}})
	defer func() { _ = without.Shutdown() }()

	resp, err = without.App().Test(httptest.NewRequest("GET", "/v1/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestRouter_RequestID(t *testing.T) {
	r := newTestRouter(nil)

	resp, err := r.App().Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestRouter_WithoutServiceOnlyServesProbes(t *testing.T) {
	r := newTestRouter(nil)

	resp, err := r.App().Test(httptest.NewRequest("POST", "/aggregate", strings.NewReader(`{}`)))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	assert.NoError(t, r.Shutdown())
}

func TestRouter_RateLimit(t *testing.T) {
	r := newTestRouter(&Dependencies{Service: stubService{}, RateLimitMax: 2})
	defer func() { _ = r.Shutdown() }()

	body := `{"claim_id":"C1","images":["https://x/roof.jpg"]}`
	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/aggregate", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := r.App().Test(req)
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
	}

	assert.Equal(t, []int{200, 200, 429}, statuses)

	// probes are not limited
	resp, err := r.App().Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
