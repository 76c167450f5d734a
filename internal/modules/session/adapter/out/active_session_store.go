package out

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"worksmart/internal/modules/session/domain"
	sessionout "worksmart/internal/modules/session/port/out"
	apperrors "worksmart/internal/platform/errors"
)

// FileActiveSessionStore keeps active-session.json. Writes and owner-checked
// clears are serialised so a finishing session cannot remove its successor's marker.
type FileActiveSessionStore struct {
	path string
	mu   sync.Mutex
}

func NewFileActiveSessionStore(homeDir string) sessionout.ActiveSessionStore {
	return &FileActiveSessionStore{path: filepath.Join(homeDir, "active-session.json")}
}

func (s *FileActiveSessionStore) SaveActive(_ context.Context, session domain.ActiveSession) error {
	if session.SessionID == "" {
		return fmt.Errorf("%w: active session needs an id", apperrors.ErrInvalidInput)
	}
	payload, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal active session: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create active session dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write active session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace active session: %w", err)
	}
	return nil
}

func (s *FileActiveSessionStore) LoadActive(_ context.Context) (domain.ActiveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

// ClearActive removes the marker only while it still names sessionID.
func (s *FileActiveSessionStore) ClearActive(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	active, err := s.readLocked()
	if err != nil {
		if errors.Is(err, apperrors.ErrNoActiveSession) {
			return nil
		}
		return err
	}
	if active.SessionID != sessionID {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear active session: %w", err)
	}
	return nil
}

func (s *FileActiveSessionStore) readLocked() (domain.ActiveSession, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.ActiveSession{}, apperrors.ErrNoActiveSession
		}
		return domain.ActiveSession{}, fmt.Errorf("read active session: %w", err)
	}
	active := domain.ActiveSession{}
	if err := json.Unmarshal(payload, &active); err != nil {
		return domain.ActiveSession{}, fmt.Errorf("decode active session: %w", err)
	}
	if active.SessionID == "" {
		return domain.ActiveSession{}, apperrors.ErrNoActiveSession
	}
	return active, nil
}
