package internal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultDailyLimit is the number of successful acquisitions allowed per day
const DefaultDailyLimit = 20

// historyLimit caps how many entries Recent returns
const historyLimit = 50

// ErrDailyLimitReached is returned when the daily quota has been used up
var ErrDailyLimitReached = errors.New("daily limit reached")

// HistoryEntry is one recorded acquisition
type HistoryEntry struct {
	ID        int64
	URL       string
	Kind      string
	Title     string
	Path      string
	Class     string
	Attempts  int
	Timestamp time.Time
}

// History persists acquisitions in SQLite and enforces the daily quota
type History struct {
	db  *sql.DB
	now func() time.Time
}

// OpenHistory opens (or creates) the history database under dir
func OpenHistory(dir string) (*History, error) {
	if err := EnsureDirs(dir); err != nil {
		return nil, fmt.Errorf("history: mkdir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "history.db"))
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer

	if err := initHistorySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: init schema: %w", err)
	}
	return &History{db: db, now: time.Now}, nil
}

func initHistorySchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS history (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		url       TEXT NOT NULL,
		kind      TEXT NOT NULL,
		title     TEXT,
		path      TEXT,
		class     TEXT NOT NULL,
		attempts  INTEGER NOT NULL DEFAULT 0,
		timestamp TEXT NOT NULL,
		UNIQUE(url, kind)
	)`)
	return err
}

// Close closes the database
func (h *History) Close() error {
	return h.db.Close()
}

// Record saves an outcome. A URL already in the history is updated in place.
func (h *History) Record(ctx context.Context, outcome Outcome, title string) error {
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO history (url, kind, title, path, class, attempts, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(url, kind) DO UPDATE SET
		   title = excluded.title,
		   path = excluded.path,
		   class = excluded.class,
		   attempts = excluded.attempts,
		   timestamp = excluded.timestamp`,
		outcome.URL, outcome.Kind.String(), title, outcome.Path,
		outcome.Class.String(), outcome.Attempts, h.now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("history: record: %w", err)
	}
	return nil
}

// Recent returns the latest entries, newest first
func (h *History) Recent(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 || limit > historyLimit {
		limit = historyLimit
	}

	rows, err := h.db.QueryContext(ctx,
		`SELECT id, url, kind, COALESCE(title, ''), COALESCE(path, ''), class, attempts, timestamp
		 FROM history ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var ts string
		if err := rows.Scan(&e.ID, &e.URL, &e.Kind, &e.Title, &e.Path, &e.Class, &e.Attempts, &ts); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339, ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// TodayUsage counts successful acquisitions recorded today in local time
func (h *History) TodayUsage(ctx context.Context) (int, error) {
	today := h.now().Format(time.DateOnly)
	var count int
	err := h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM history WHERE timestamp LIKE ? AND class = ?`,
		today+"%", ClassNone.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("history: usage: %w", err)
	}
	return count, nil
}

// CheckQuota returns ErrDailyLimitReached when limit successful acquisitions
// happened today. A limit of zero or less disables the quota.
func (h *History) CheckQuota(ctx context.Context, limit int) (int, error) {
	used, err := h.TodayUsage(ctx)
	if err != nil {
		return 0, err
	}
	if limit > 0 && used >= limit {
		return used, fmt.Errorf("%w (%d/%d)", ErrDailyLimitReached, used, limit)
	}
	return used, nil
}
