package out

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"worksmart/internal/modules/session/domain"
	sessionout "worksmart/internal/modules/session/port/out"
)

const defaultTail = 200

// FileEventLog appends one JSON object per line.
type FileEventLog struct {
	path string
	mu   sync.Mutex
}

func NewFileEventLog(homeDir string) sessionout.EventLog {
	return &FileEventLog{path: filepath.Join(homeDir, "session-events.jsonl")}
}

func (l *FileEventLog) Append(_ context.Context, event domain.Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode session event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create event log dir: %w", err)
	}
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer file.Close()
	if _, err := file.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write event log: %w", err)
	}
	return nil
}

// Tail returns the last limit events, oldest first. Unreadable lines are skipped.
func (l *FileEventLog) Tail(_ context.Context, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = defaultTail
	}
	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Event{}, nil
		}
		return nil, fmt.Errorf("open event log: %w", err)
	}
	defer file.Close()

	buffer := make([]domain.Event, 0, limit)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		event := domain.Event{}
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		if len(buffer) < limit {
			buffer = append(buffer, event)
			continue
		}
		copy(buffer, buffer[1:])
		buffer[len(buffer)-1] = event
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan event log: %w", err)
	}
	return buffer, nil
}
