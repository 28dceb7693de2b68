package fetch

import (
	"context"
	"fmt"
	"image"
	"net/url"
	"strings"
)

// Router dispatches references to the S3 or HTTP fetcher. S3 is optional:
// without it, s3:// references fail and S3 https URLs go through HTTP.
type Router struct {
	http      *HTTPFetcher
	s3        *S3Fetcher
	maxPixels int64
}

// NewRouter builds a Router; s3 may be nil
func NewRouter(httpFetcher *HTTPFetcher, s3Fetcher *S3Fetcher) *Router {
	return &Router{http: httpFetcher, s3: s3Fetcher, maxPixels: DefaultMaxPixels}
}

// WithMaxPixels sets the decoded pixel cap used by Fetch
func (r *Router) WithMaxPixels(n int64) *Router {
	r.maxPixels = n
	return r
}

// Fetch implements Fetcher
func (r *Router) Fetch(ctx context.Context, ref string) (image.Image, error) {
	data, err := r.Download(ctx, ref)
	if err != nil {
		return nil, err
	}
	return Decode(ref, data, r.maxPixels)
}

// Download returns raw bytes for ref from whichever backend owns it
func (r *Router) Download(ctx context.Context, ref string) ([]byte, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil || u.Host == "" {
		return nil, newError(ref, KindInvalidReference, fmt.Errorf("malformed reference"))
	}

	switch strings.ToLower(u.Scheme) {
	case "s3":
		if r.s3 == nil {
			return nil, newError(ref, KindInvalidReference, ErrS3Disabled)
		}
		return r.s3.Download(ctx, ref)
	case "http", "https":
		if _, ok := ParseS3Location(ref); ok && r.s3 != nil {
			return r.s3.Download(ctx, ref)
		}
		if r.http == nil {
			return nil, newError(ref, KindInvalidReference, ErrUnsupportedScheme)
		}
		return r.http.Download(ctx, ref)
	default:
		return nil, newError(ref, KindInvalidReference, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme))
	}
}

var _ Fetcher = (*Router)(nil)
var _ Fetcher = (*HTTPFetcher)(nil)
var _ Fetcher = (*S3Fetcher)(nil)
