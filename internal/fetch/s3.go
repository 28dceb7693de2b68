package fetch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

const (
	errCodeNoSuchKey    = "NoSuchKey"
	errCodeNoSuchBucket = "NoSuchBucket"
	errCodeNotFound     = "NotFound"
	errCodeAccessDenied = "AccessDenied"
)

// S3API is the subset of the S3 client used by the fetcher
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Location is a bucket/key pair
type S3Location struct {
	Bucket string
	Key    string
}

// ParseS3Location accepts s3://bucket/key and virtual-hosted style
// https://bucket.s3[.region].amazonaws.com/key URLs.
func ParseS3Location(ref string) (S3Location, bool) {
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return S3Location{}, false
	}

	key := strings.TrimPrefix(u.Path, "/")
	switch strings.ToLower(u.Scheme) {
	case "s3":
		if key == "" {
			return S3Location{}, false
		}
		return S3Location{Bucket: u.Host, Key: key}, true
	case "http", "https":
		host := strings.ToLower(u.Hostname())
		if !strings.HasSuffix(host, ".amazonaws.com") {
			return S3Location{}, false
		}
		bucket, rest, ok := strings.Cut(host, ".")
		if !ok || !(strings.HasPrefix(rest, "s3.") || strings.HasPrefix(rest, "s3-")) || key == "" {
			return S3Location{}, false
		}
		return S3Location{Bucket: bucket, Key: key}, true
	default:
		return S3Location{}, false
	}
}

// S3Fetcher downloads objects through the S3 API
type S3Fetcher struct {
	api       S3API
	timeout   time.Duration
	maxBytes  int64
	maxPixels int64
}

// NewS3Fetcher wraps an S3 client
func NewS3Fetcher(api S3API, timeout time.Duration, maxBytes int64) *S3Fetcher {
	return &S3Fetcher{api: api, timeout: timeout, maxBytes: maxBytes, maxPixels: DefaultMaxPixels}
}

// WithMaxPixels sets the decoded pixel cap used by Fetch
func (f *S3Fetcher) WithMaxPixels(n int64) *S3Fetcher {
	f.maxPixels = n
	return f
}

// Fetch downloads and decodes the object at ref
func (f *S3Fetcher) Fetch(ctx context.Context, ref string) (image.Image, error) {
	data, err := f.Download(ctx, ref)
	if err != nil {
		return nil, err
	}
	return Decode(ref, data, f.maxPixels)
}

// Download returns the raw object bytes
func (f *S3Fetcher) Download(ctx context.Context, ref string) ([]byte, error) {
	loc, ok := ParseS3Location(ref)
	if !ok {
		return nil, newError(ref, KindInvalidReference, fmt.Errorf("not an s3 locator"))
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	out, err := f.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		return nil, classifyS3Error(ref, err)
	}
	defer out.Body.Close()

	if f.maxBytes > 0 && aws.ToInt64(out.ContentLength) > f.maxBytes {
		return nil, newError(ref, KindTooLarge, ErrBodyTooLarge)
	}

	data, err := readLimited(out.Body, f.maxBytes)
	if err != nil {
		if errors.Is(err, ErrBodyTooLarge) {
			return nil, newError(ref, KindTooLarge, err)
		}
		return nil, newError(ref, KindNetwork, fmt.Errorf("read object: %w", err))
	}
	return data, nil
}

func classifyS3Error(ref string, err error) *FetchError {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return newError(ref, KindNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case errCodeNoSuchKey, errCodeNoSuchBucket, errCodeNotFound:
			return newError(ref, KindNotFound, err)
		case errCodeAccessDenied:
			return newError(ref, KindStatus, err)
		}
	}
	return newError(ref, KindNetwork, err)
}
