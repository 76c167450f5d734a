package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"worksmart/internal/modules/capsule/domain"
	capsuleout "worksmart/internal/modules/capsule/port/out"

	_ "modernc.org/sqlite"
)

type SQLiteCapsuleIndex struct {
	db *sql.DB
}

func NewSQLiteCapsuleIndex(dbPath string) (*SQLiteCapsuleIndex, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	index := &SQLiteCapsuleIndex{db: db}
	if err := index.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return index, nil
}

var _ capsuleout.CapsuleIndex = (*SQLiteCapsuleIndex)(nil)

func (s *SQLiteCapsuleIndex) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS capsules (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL,
  started_ms INTEGER NOT NULL,
  ended_ms INTEGER NOT NULL,
  end_reason TEXT NOT NULL,
  storage_path TEXT NOT NULL,
  clicks INTEGER NOT NULL,
  keystrokes INTEGER NOT NULL,
  windows INTEGER NOT NULL,
  media INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS capsules_started ON capsules (started_ms);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create capsules table: %w", err)
	}
	return nil
}

func (s *SQLiteCapsuleIndex) Upsert(ctx context.Context, summary domain.Summary) error {
	const stmt = `
INSERT INTO capsules (id, session_id, started_ms, ended_ms, end_reason, storage_path, clicks, keystrokes, windows, media)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  session_id=excluded.session_id,
  started_ms=excluded.started_ms,
  ended_ms=excluded.ended_ms,
  end_reason=excluded.end_reason,
  storage_path=excluded.storage_path,
  clicks=excluded.clicks,
  keystrokes=excluded.keystrokes,
  windows=excluded.windows,
  media=excluded.media;
`
	_, err := s.db.ExecContext(ctx, stmt,
		summary.ID,
		summary.SessionID,
		summary.StartedAt.UnixMilli(),
		summary.EndedAt.UnixMilli(),
		string(summary.EndReason),
		summary.StoragePath,
		summary.Clicks,
		summary.Keystrokes,
		summary.Windows,
		summary.Media,
	)
	if err != nil {
		return fmt.Errorf("upsert capsule: %w", err)
	}
	return nil
}

// ListBetween returns capsules started in [from, to), oldest first.
func (s *SQLiteCapsuleIndex) ListBetween(ctx context.Context, from, to time.Time) ([]domain.Summary, error) {
	const query = `
SELECT id, session_id, started_ms, ended_ms, end_reason, storage_path, clicks, keystrokes, windows, media
FROM capsules
WHERE started_ms >= ? AND started_ms < ?
ORDER BY started_ms, id;
`
	rows, err := s.db.QueryContext(ctx, query, from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query capsules: %w", err)
	}
	defer rows.Close()

	out := []domain.Summary{}
	for rows.Next() {
		var (
			summary          domain.Summary
			startedMS, endMS int64
			reason           string
		)
		if err := rows.Scan(&summary.ID, &summary.SessionID, &startedMS, &endMS, &reason, &summary.StoragePath,
			&summary.Clicks, &summary.Keystrokes, &summary.Windows, &summary.Media); err != nil {
			return nil, fmt.Errorf("scan capsule: %w", err)
		}
		summary.StartedAt = time.UnixMilli(startedMS).UTC()
		summary.EndedAt = time.UnixMilli(endMS).UTC()
		summary.EndReason = domain.EndReason(reason)
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate capsules: %w", err)
	}
	return out, nil
}

func (s *SQLiteCapsuleIndex) Close() error {
	return s.db.Close()
}
