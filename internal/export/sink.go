package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirSink writes files into a directory, creating it when missing.
type DirSink struct {
	Dir string
}

func (s DirSink) Save(_ context.Context, filename, _ string, data []byte) (string, error) {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, nil
}
