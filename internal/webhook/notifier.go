package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/vendaval/internal/domain"
)

// Config for the claim notification endpoint
type Config struct {
	URL         string
	Secret      string
	Timeout     time.Duration
	MaxAttempts int
	// RetryBase is the first retry delay; each retry doubles it
	RetryBase time.Duration
}

func DefaultConfig(url, secret string) Config {
	return Config{
		URL:         url,
		Secret:      secret,
		Timeout:     10 * time.Second,
		MaxAttempts: 3,
		RetryBase:   time.Second,
	}
}

// Notifier POSTs signed assessment events. It implements service.ResultSink.
type Notifier struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

func NewNotifier(cfg Config, logger *slog.Logger) *Notifier {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &Notifier{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With("component", "webhook"),
	}
}

func (n *Notifier) Name() string {
	return "webhook"
}

// Publish delivers the assessment, retrying network errors and 5xx
// responses with exponential backoff. 4xx responses are not retried.
func (n *Notifier) Publish(ctx context.Context, a *domain.Assessment) error {
	event := EventPayload{
		ID:           uuid.New(),
		Type:         EventClaimAssessed,
		ClaimID:      a.Summary.ClaimID,
		AssessmentID: a.ID,
		Data:         a.Document(),
		Timestamp:    a.Summary.GeneratedAt,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < n.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(1<<(attempt-1)) * n.config.RetryBase
			select {
			case <-ctx.Done():
				return fmt.Errorf("webhook delivery cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		retry, err := n.send(ctx, event, payload)
		if err == nil {
			n.logger.Info("webhook delivered",
				"delivery_id", event.ID,
				"claim_id", event.ClaimID,
				"attempts", attempt+1)
			return nil
		}
		lastErr = err
		if !retry {
			break
		}
		n.logger.Warn("webhook delivery failed, retrying",
			"delivery_id", event.ID,
			"attempt", attempt+1,
			"error", err)
	}

	return fmt.Errorf("deliver webhook %s: %w", event.ID, lastErr)
}

func (n *Notifier) send(ctx context.Context, event EventPayload, payload []byte) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.URL, bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(n.config.Secret, payload))
	req.Header.Set(EventHeader, event.Type)
	req.Header.Set(DeliveryHeader, event.ID.String())
	req.Header.Set("User-Agent", "Vendaval-Webhook/1.0")

	resp, err := n.client.Do(req)
	if err != nil {
		return true, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 500:
		return true, fmt.Errorf("HTTP %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return false, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return false, nil
}
