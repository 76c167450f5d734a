package out

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"worksmart/internal/modules/tracker/domain"
	trackerout "worksmart/internal/modules/tracker/port/out"
)

type FileHistoryStore struct {
	path string
}

func NewFileHistoryStore(dataDir string) trackerout.HistoryStore {
	return &FileHistoryStore{path: filepath.Join(dataDir, "tracker.json")}
}

func (s *FileHistoryStore) ReadTracker(_ context.Context) (domain.TrackHistory, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.NewTrackHistory(), nil
		}
		return domain.TrackHistory{}, fmt.Errorf("read tracker: %w", err)
	}
	history := domain.NewTrackHistory()
	if err := json.Unmarshal(payload, &history); err != nil {
		return domain.TrackHistory{}, fmt.Errorf("decode tracker: %w", err)
	}
	if history.History == nil {
		history.History = map[string]int64{}
	}
	return history, nil
}

// WriteTracker replaces the file atomically.
func (s *FileHistoryStore) WriteTracker(_ context.Context, history domain.TrackHistory) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create tracker dir: %w", err)
	}
	payload, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tracker: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write tracker: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace tracker: %w", err)
	}
	return nil
}
