package rekognition

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
)

// mockRekognitionAPI is a mock implementation of RekognitionAPI interface for testing
type mockRekognitionAPI struct {
	detectLabelsFunc func(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

func (m *mockRekognitionAPI) DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error) {
	if m.detectLabelsFunc != nil {
		return m.detectLabelsFunc(ctx, params, optFns...)
	}
	return &rekognition.DetectLabelsOutput{}, nil
}

// mockImageSource serves fixed bytes per reference
type mockImageSource struct {
	data  map[string][]byte
	calls int
}

func (m *mockImageSource) Download(_ context.Context, ref string) ([]byte, error) {
	m.calls++
	d, ok := m.data[ref]
	if !ok {
		return nil, errors.New("not found")
	}
	return d, nil
}
