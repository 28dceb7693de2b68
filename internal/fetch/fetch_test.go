package fetch

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 7), uint8(y * 5), 90, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestHTTPFetcher_Fetch(t *testing.T) {
	body := pngBytes(t, 16, 12)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(body)
		case "/missing.png":
			w.WriteHeader(http.StatusNotFound)
		case "/error.png":
			w.WriteHeader(http.StatusBadGateway)
		case "/text":
			_, _ = w.Write([]byte("not an image"))
		case "/slow.png":
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write(body)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPConfig{Timeout: 50 * time.Millisecond, MaxBytes: DefaultMaxBytes}, nil)

	tests := []struct {
		name     string
		path     string
		wantKind Kind
	}{
		{name: "decodes png", path: "/ok.png"},
		{name: "not found", path: "/missing.png", wantKind: KindNotFound},
		{name: "bad status", path: "/error.png", wantKind: KindStatus},
		{name: "undecodable", path: "/text", wantKind: KindDecode},
		{name: "timeout", path: "/slow.png", wantKind: KindNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := f.Fetch(context.Background(), srv.URL+tt.path)
			if tt.wantKind == "" {
				require.NoError(t, err)
				assert.Equal(t, 16, img.Bounds().Dx())
				assert.Equal(t, 12, img.Bounds().Dy())
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, KindOf(err))
		})
	}
}

func TestHTTPFetcher_MaxBytes(t *testing.T) {
	body := pngBytes(t, 32, 32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPConfig{Timeout: time.Second, MaxBytes: 10}, nil)
	_, err := f.Fetch(context.Background(), srv.URL+"/big.png")
	require.Error(t, err)
	assert.Equal(t, KindTooLarge, KindOf(err))
	assert.True(t, errors.Is(err, ErrBodyTooLarge))
}

func TestParseS3Location(t *testing.T) {
	tests := []struct {
		ref    string
		want   S3Location
		wantOK bool
	}{
		{ref: "s3://claims-bucket/2024/a.jpg", want: S3Location{Bucket: "claims-bucket", Key: "2024/a.jpg"}, wantOK: true},
		{ref: "https://claims-bucket.s3.amazonaws.com/photos/a.jpg", want: S3Location{Bucket: "claims-bucket", Key: "photos/a.jpg"}, wantOK: true},
		{ref: "https://claims-bucket.s3.us-east-2.amazonaws.com/a.jpg", want: S3Location{Bucket: "claims-bucket", Key: "a.jpg"}, wantOK: true},
		{ref: "https://claims-bucket.s3-us-west-2.amazonaws.com/a.jpg", want: S3Location{Bucket: "claims-bucket", Key: "a.jpg"}, wantOK: true},
		{ref: "https://example.com/a.jpg"},
		{ref: "https://rekognition.us-east-2.amazonaws.com/a.jpg"},
		{ref: "s3://bucket-only"},
		{ref: "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, ok := ParseS3Location(tt.ref)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

type mockS3API struct {
	getObjectFunc func(ctx context.Context, params *s3.GetObjectInput) (*s3.GetObjectOutput, error)
}

func (m *mockS3API) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return m.getObjectFunc(ctx, params)
}

func TestS3Fetcher_Fetch(t *testing.T) {
	body := pngBytes(t, 8, 8)

	t.Run("reads object", func(t *testing.T) {
		api := &mockS3API{getObjectFunc: func(_ context.Context, params *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
			assert.Equal(t, "claims", aws.ToString(params.Bucket))
			assert.Equal(t, "c1/roof.png", aws.ToString(params.Key))
			return &s3.GetObjectOutput{
				Body:          io.NopCloser(bytes.NewReader(body)),
				ContentLength: aws.Int64(int64(len(body))),
			}, nil
		}}

		img, err := NewS3Fetcher(api, time.Second, DefaultMaxBytes).Fetch(context.Background(), "s3://claims/c1/roof.png")
		require.NoError(t, err)
		assert.Equal(t, 8, img.Bounds().Dx())
	})

	t.Run("no such key", func(t *testing.T) {
		api := &mockS3API{getObjectFunc: func(context.Context, *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
			return nil, &types.NoSuchKey{Message: aws.String("gone")}
		}}

		_, err := NewS3Fetcher(api, time.Second, DefaultMaxBytes).Fetch(context.Background(), "s3://claims/missing.png")
		require.Error(t, err)
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("access denied", func(t *testing.T) {
		api := &mockS3API{getObjectFunc: func(context.Context, *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
			return nil, &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}
		}}

		_, err := NewS3Fetcher(api, time.Second, DefaultMaxBytes).Fetch(context.Background(), "s3://claims/secret.png")
		require.Error(t, err)
		assert.Equal(t, KindStatus, KindOf(err))
	})

	t.Run("rejects non s3 reference", func(t *testing.T) {
		_, err := NewS3Fetcher(&mockS3API{}, time.Second, DefaultMaxBytes).Fetch(context.Background(), "https://example.com/a.png")
		require.Error(t, err)
		assert.Equal(t, KindInvalidReference, KindOf(err))
	})
}

func TestRouter_Fetch(t *testing.T) {
	body := pngBytes(t, 4, 4)

	var httpHits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpHits++
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	var s3Hits int
	api := &mockS3API{getObjectFunc: func(context.Context, *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		s3Hits++
		return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
	}}

	httpFetcher := NewHTTPFetcher(DefaultHTTPConfig(), nil)

	t.Run("routes by scheme", func(t *testing.T) {
		r := NewRouter(httpFetcher, NewS3Fetcher(api, time.Second, DefaultMaxBytes))

		_, err := r.Fetch(context.Background(), srv.URL+"/a.png")
		require.NoError(t, err)
		_, err = r.Fetch(context.Background(), "s3://claims/a.png")
		require.NoError(t, err)
		_, err = r.Fetch(context.Background(), "https://claims.s3.amazonaws.com/a.png")
		require.NoError(t, err)

		assert.Equal(t, 1, httpHits)
		assert.Equal(t, 2, s3Hits)
	})

	t.Run("s3 disabled", func(t *testing.T) {
		r := NewRouter(httpFetcher, nil)
		_, err := r.Fetch(context.Background(), "s3://claims/a.png")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrS3Disabled))
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		r := NewRouter(httpFetcher, nil)
		_, err := r.Fetch(context.Background(), "ftp://host/a.png")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedScheme))
		assert.True(t, strings.Contains(err.Error(), "ftp"))
	})
}

func TestDecode_Empty(t *testing.T) {
	_, err := Decode("x", nil, 0)
	assert.Equal(t, KindDecode, KindOf(err))
}

// withDimensions rewrites the IHDR width and height of an encoded PNG,
// leaving the pixel data untouched.
func withDimensions(t *testing.T, data []byte, w, h uint32) []byte {
	t.Helper()
	out := bytes.Clone(data)
	require.Equal(t, "IHDR", string(out[12:16]))
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestDecode_PixelCap(t *testing.T) {
	small := pngBytes(t, 16, 12)

	tests := []struct {
		name      string
		data      []byte
		maxPixels int64
		wantKind  Kind
		wantErr   error
	}{
		{name: "within default cap", data: small},
		{name: "exactly at cap", data: small, maxPixels: 16 * 12},
		{name: "above explicit cap", data: small, maxPixels: 100, wantKind: KindTooLarge, wantErr: ErrTooManyPixels},
		{name: "huge dimensions in a small file", data: withDimensions(t, small, 12000, 12000), wantKind: KindTooLarge, wantErr: ErrTooManyPixels},
		{name: "zero width", data: withDimensions(t, small, 0, 12), wantKind: KindDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Decode("https://photos.example.com/a.png", tt.data, tt.maxPixels)
			if tt.wantKind == "" {
				require.NoError(t, err)
				assert.Equal(t, 16, img.Bounds().Dx())
				return
			}
			require.Error(t, err)
			assert.Nil(t, img)
			assert.Equal(t, tt.wantKind, KindOf(err))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestDecode_NormalisesToRGBA(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 3))
	for i := range gray.Pix {
		gray.Pix[i] = uint8(i * 20)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, gray))

	img, err := Decode("https://photos.example.com/gray.png", buf.Bytes(), 0)
	require.NoError(t, err)

	rgba, ok := img.(*image.RGBA)
	require.True(t, ok, "got %T", img)
	assert.Equal(t, gray.Bounds(), rgba.Bounds())
	assert.Equal(t, color.RGBA{R: 100, G: 100, B: 100, A: 255}, rgba.RGBAAt(1, 1))
}

func TestFetchers_MaxPixels(t *testing.T) {
	body := pngBytes(t, 32, 32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	t.Run("http fetcher", func(t *testing.T) {
		f := NewHTTPFetcher(HTTPConfig{Timeout: time.Second, MaxBytes: DefaultMaxBytes, MaxPixels: 500}, nil)
		_, err := f.Fetch(context.Background(), srv.URL+"/wide.png")
		assert.Equal(t, KindTooLarge, KindOf(err))
		assert.ErrorIs(t, err, ErrTooManyPixels)
	})

	t.Run("router", func(t *testing.T) {
		r := NewRouter(NewHTTPFetcher(DefaultHTTPConfig(), nil), nil).WithMaxPixels(500)
		_, err := r.Fetch(context.Background(), srv.URL+"/wide.png")
		assert.Equal(t, KindTooLarge, KindOf(err))
	})

	t.Run("s3 fetcher", func(t *testing.T) {
		api := &mockS3API{getObjectFunc: func(context.Context, *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
			return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
		}}
		_, err := NewS3Fetcher(api, time.Second, DefaultMaxBytes).WithMaxPixels(500).Fetch(context.Background(), "s3://claims/wide.png")
		assert.Equal(t, KindTooLarge, KindOf(err))
	})
}
