package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = url
	cfg.Timeout = 2 * time.Second
	cfg.RetryCount = 2
	cfg.RetryBase = time.Millisecond
	return cfg
}

func TestClient_DetectLabels(t *testing.T) {
	tests := []struct {
		name           string
		serverResponse interface{}
		serverStatus   int
		wantCalls      int32
		wantErr        bool
		wantErrContain string
		validateResp   func(*testing.T, *DetectResponse)
	}{
		{
			name: "successful response",
			serverResponse: DetectResponse{Labels: []Label{
				{Name: "Roof Damage", Confidence: 91.5},
				{Name: "House", Confidence: 99},
			}},
			serverStatus: http.StatusOK,
			wantCalls:    1,
			validateResp: func(t *testing.T, resp *DetectResponse) {
				require.Len(t, resp.Labels, 2)
				assert.Equal(t, "Roof Damage", resp.Labels[0].Name)
				assert.Equal(t, 91.5, resp.Labels[0].Confidence)
			},
		},
		{
			name:           "empty response",
			serverResponse: DetectResponse{Labels: []Label{}},
			serverStatus:   http.StatusOK,
			wantCalls:      1,
			validateResp: func(t *testing.T, resp *DetectResponse) {
				assert.Empty(t, resp.Labels)
			},
		},
		{
			name:           "bad request is not retried",
			serverResponse: map[string]string{"error": "invalid image format"},
			serverStatus:   http.StatusBadRequest,
			wantCalls:      1,
			wantErr:        true,
			wantErrContain: "status 400",
		},
		{
			name:           "server error is retried",
			serverResponse: map[string]string{"error": "internal server error"},
			serverStatus:   http.StatusInternalServerError,
			wantCalls:      3,
			wantErr:        true,
			wantErrContain: "label service unavailable",
		},
		{
			name:           "invalid json response",
			serverResponse: "not a valid json",
			serverStatus:   http.StatusOK,
			wantCalls:      3,
			wantErr:        true,
			wantErrContain: "invalid response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				assert.Equal(t, "/detect-labels", r.URL.Path)
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var req DetectRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "aW1n", req.Img)
				assert.Equal(t, 50, req.MaxLabels)
				assert.Equal(t, 30.0, req.MinConfidence)

				w.WriteHeader(tt.serverStatus)
				if s, ok := tt.serverResponse.(string); ok {
					_, _ = w.Write([]byte(s))
					return
				}
				_ = json.NewEncoder(w).Encode(tt.serverResponse)
			}))
			defer server.Close()

			resp, err := NewClient(testConfig(server.URL)).DetectLabels(context.Background(), "aW1n")

			assert.Equal(t, tt.wantCalls, calls.Load())
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrContain)
				return
			}
			require.NoError(t, err)
			tt.validateResp(t, resp)
		})
	}
}

func TestClient_ContextCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.RetryBase = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(cfg).DetectLabels(ctx, "aW1n")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		base    time.Duration
		attempt int
		want    time.Duration
	}{
		{time.Second, 0, time.Second},
		{time.Second, 1, time.Second},
		{time.Second, 2, 2 * time.Second},
		{time.Second, 3, 4 * time.Second},
		{time.Second, 10, maxBackoff},
		{0, 2, 2 * time.Second},
		{10 * time.Millisecond, 4, 80 * time.Millisecond},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, calculateBackoff(tt.base, tt.attempt), "base=%v attempt=%d", tt.base, tt.attempt)
	}
}
