// Package sink holds result sinks that need no external service.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/saturnino-fabrica-de-software/vendaval/internal/domain"
)

// FileSink overwrites a single JSON file with the latest assessment's
// {"results","summary"} document.
type FileSink struct {
	path string
	mu   sync.Mutex
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) Name() string {
	return "file"
}

// Publish writes through a temp file and rename so readers never see a
// partial document.
func (s *FileSink) Publish(_ context.Context, a *domain.Assessment) error {
	data, err := json.MarshalIndent(a.Document(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode result document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".vendaval-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename to %s: %w", s.path, err)
	}
	return nil
}
