package out

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"worksmart/internal/modules/capsule/domain"
	capsuleout "worksmart/internal/modules/capsule/port/out"
)

const MetadataFile = "metadata.json"

type FileCapsuleStore struct{}

func NewFileCapsuleStore() capsuleout.CapsuleStore {
	return FileCapsuleStore{}
}

func (FileCapsuleStore) CreateCapsuleDir(_ context.Context, path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create capsule dir %s: %w", path, err)
	}
	return nil
}

func (FileCapsuleStore) WriteCapsuleMetadata(_ context.Context, capsule domain.StorageCapsule, path string) error {
	raw, err := json.MarshalIndent(capsule, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal capsule: %w", err)
	}
	target := filepath.Join(path, MetadataFile)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write capsule metadata: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("commit capsule metadata: %w", err)
	}
	return nil
}

// ReadCapsuleMetadata loads a persisted capsule back from its directory.
func ReadCapsuleMetadata(path string) (domain.StorageCapsule, error) {
	raw, err := os.ReadFile(filepath.Join(path, MetadataFile))
	if err != nil {
		return domain.StorageCapsule{}, fmt.Errorf("read capsule metadata: %w", err)
	}
	var capsule domain.StorageCapsule
	if err := json.Unmarshal(raw, &capsule); err != nil {
		return domain.StorageCapsule{}, fmt.Errorf("decode capsule metadata: %w", err)
	}
	return capsule, nil
}
