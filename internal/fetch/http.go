package fetch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"time"
)

// HTTPConfig configures the HTTP(S) fetcher
type HTTPConfig struct {
	Timeout   time.Duration
	MaxBytes  int64
	MaxPixels int64
	UserAgent string
}

// DefaultHTTPConfig returns sensible defaults for downloading claim photos
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Timeout:   10 * time.Second,
		MaxBytes:  DefaultMaxBytes,
		MaxPixels: DefaultMaxPixels,
		UserAgent: "vendaval/1.0",
	}
}

// HTTPFetcher downloads images over HTTP(S)
type HTTPFetcher struct {
	client *http.Client
	config HTTPConfig
}

// NewHTTPFetcher creates a fetcher; a nil client gets one with cfg.Timeout
func NewHTTPFetcher(cfg HTTPConfig, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPFetcher{client: client, config: cfg}
}

// Fetch downloads and decodes the image at ref
func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) (image.Image, error) {
	data, err := f.Download(ctx, ref)
	if err != nil {
		return nil, err
	}
	return Decode(ref, data, f.config.MaxPixels)
}

// Download returns the raw bytes at ref without decoding them
func (f *HTTPFetcher) Download(ctx context.Context, ref string) ([]byte, error) {
	if f.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.config.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, newError(ref, KindInvalidReference, err)
	}
	if f.config.UserAgent != "" {
		req.Header.Set("User-Agent", f.config.UserAgent)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, newError(ref, KindNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, newError(ref, KindNotFound, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, newError(ref, KindStatus, fmt.Errorf("status %d", resp.StatusCode))
	}

	if f.config.MaxBytes > 0 && resp.ContentLength > f.config.MaxBytes {
		return nil, newError(ref, KindTooLarge, ErrBodyTooLarge)
	}

	data, err := readLimited(resp.Body, f.config.MaxBytes)
	if err != nil {
		if errors.Is(err, ErrBodyTooLarge) {
			return nil, newError(ref, KindTooLarge, err)
		}
		return nil, newError(ref, KindNetwork, fmt.Errorf("read body: %w", err))
	}
	return data, nil
}
