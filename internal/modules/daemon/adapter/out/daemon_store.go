package out

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"worksmart/internal/modules/daemon/domain"
	daemonout "worksmart/internal/modules/daemon/port/out"
)

// FileDaemonStore keeps daemon.json, daemon.sock and daemon.log side by side.
type FileDaemonStore struct {
	dir string
}

func NewFileDaemonStore(daemonDir string) daemonout.DaemonStore {
	return &FileDaemonStore{dir: daemonDir}
}

func (s *FileDaemonStore) recordPath() string {
	return filepath.Join(s.dir, "daemon.json")
}

func (s *FileDaemonStore) WriteRecord(_ context.Context, record domain.ProcessRecord) error {
	if record.PID <= 0 {
		return fmt.Errorf("write daemon record: invalid pid %d", record.PID)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create daemon dir: %w", err)
	}
	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal daemon record: %w", err)
	}
	tmp := s.recordPath() + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write daemon record: %w", err)
	}
	if err := os.Rename(tmp, s.recordPath()); err != nil {
		return fmt.Errorf("replace daemon record: %w", err)
	}
	return nil
}

func (s *FileDaemonStore) ReadRecord(_ context.Context) (domain.ProcessRecord, error) {
	raw, err := os.ReadFile(s.recordPath())
	if err != nil {
		return domain.ProcessRecord{}, fmt.Errorf("read daemon record: %w", err)
	}
	var record domain.ProcessRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return domain.ProcessRecord{}, fmt.Errorf("decode daemon record: %w", err)
	}
	if record.PID <= 0 {
		return domain.ProcessRecord{}, fmt.Errorf("decode daemon record: invalid pid %d", record.PID)
	}
	return record, nil
}

func (s *FileDaemonStore) ClearRecord(_ context.Context) error {
	if err := os.Remove(s.recordPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove daemon record: %w", err)
	}
	return nil
}

func (s *FileDaemonStore) SocketPath() string {
	return filepath.Join(s.dir, "daemon.sock")
}

func (s *FileDaemonStore) LogPath() string {
	return filepath.Join(s.dir, "daemon.log")
}
