package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	captureout "worksmart/internal/modules/capture/port/out"
)

type FileMediaStore struct{}

func NewFileMediaStore() captureout.MediaStore {
	return FileMediaStore{}
}

func (FileMediaStore) WriteImage(_ context.Context, dir, name string, data []byte) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("media dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write media %s: %w", name, err)
	}
	return path, nil
}
