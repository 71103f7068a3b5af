package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Zuo-Peng/voyager/internal/stats"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS totals (
    id             INTEGER PRIMARY KEY CHECK (id = 1),
    total_messages INTEGER NOT NULL,
    voice_activity INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS channels (
    channel_id TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    count      INTEGER NOT NULL,
    indexed    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS channel_names (
    channel_id TEXT PRIMARY KEY,
    name       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS years (
    year  INTEGER PRIMARY KEY,
    count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS hours (
    hour  INTEGER PRIMARY KEY CHECK (hour BETWEEN 0 AND 23),
    count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS weekdays (
    weekday INTEGER PRIMARY KEY CHECK (weekday BETWEEN 0 AND 6),
    count   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS words (
    word  TEXT PRIMARY KEY,
    count INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS channels_by_count ON channels(count DESC);
CREATE INDEX IF NOT EXISTS words_by_count ON words(count DESC);
`

// schemaVersion is bumped whenever the table layout changes.
const schemaVersion = "1"

// dataTables are cleared before each snapshot is written.
var dataTables = []string{"totals", "channels", "channel_names", "years", "hours", "weekdays", "words"}

// Meta describes where a snapshot came from.
type Meta struct {
	Source      string
	Kind        string
	GeneratedAt time.Time
}

type DB struct {
	db *sql.DB
}

func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Raw exposes the underlying handle for ad-hoc checks such as doctor's
// integrity check.
func (d *DB) Raw() *sql.DB {
	return d.db
}

// Save writes s to the database file at dbPath, replacing any snapshot it
// already holds.
func Save(ctx context.Context, dbPath string, s *stats.Stats, meta Meta) error {
	db, err := OpenDB(dbPath)
	if err != nil {
		return err
	}
	if err := db.Save(ctx, s, meta); err != nil {
		db.Close()
		return err
	}
	return db.Close()
}

// Load reads the snapshot stored at dbPath.
func Load(ctx context.Context, dbPath string) (*stats.Stats, Meta, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, Meta{}, fmt.Errorf("open snapshot: %w", err)
	}
	db, err := OpenDB(dbPath)
	if err != nil {
		return nil, Meta{}, err
	}
	defer db.Close()
	return db.Load(ctx)
}

// Save replaces the snapshot held in the database with s.
func (d *DB) Save(ctx context.Context, s *stats.Stats, meta Meta) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range dataTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	generated := meta.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	for key, value := range map[string]string{
		"schema_version": schemaVersion,
		"source":         meta.Source,
		"kind":           meta.Kind,
		"generated_at":   generated.UTC().Format(time.RFC3339),
	} {
		if _, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)", key, value); err != nil {
			return fmt.Errorf("write meta: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO totals (id, total_messages, voice_activity) VALUES (1, ?, ?)",
		s.TotalMessages, s.VoiceActivity,
	); err != nil {
		return fmt.Errorf("write totals: %w", err)
	}

	if err := insertEach(ctx, tx, "INSERT INTO channels (channel_id, name, count, indexed) VALUES (?, ?, ?, ?)", s.Channels,
		func(id string, c *stats.Channel) []any {
			_, indexed := s.ChannelNames[id]
			return []any{id, c.Name, c.Count, indexed}
		}); err != nil {
		return fmt.Errorf("write channels: %w", err)
	}
	if err := insertEach(ctx, tx, "INSERT INTO channel_names (channel_id, name) VALUES (?, ?)", s.ChannelNames,
		func(id, name string) []any { return []any{id, name} }); err != nil {
		return fmt.Errorf("write channel names: %w", err)
	}
	if err := insertEach(ctx, tx, "INSERT INTO years (year, count) VALUES (?, ?)", s.ByYear,
		func(year int, n int64) []any { return []any{year, n} }); err != nil {
		return fmt.Errorf("write years: %w", err)
	}
	if err := insertEach(ctx, tx, "INSERT INTO words (word, count) VALUES (?, ?)", s.Words,
		func(w string, n int64) []any { return []any{w, n} }); err != nil {
		return fmt.Errorf("write words: %w", err)
	}

	hours := make(map[int]int64, len(s.ByHour))
	for h, n := range s.ByHour {
		hours[h] = n
	}
	if err := insertEach(ctx, tx, "INSERT INTO hours (hour, count) VALUES (?, ?)", hours,
		func(h int, n int64) []any { return []any{h, n} }); err != nil {
		return fmt.Errorf("write hours: %w", err)
	}

	weekdays := make(map[int]int64, len(s.ByWeekday))
	for d, n := range s.ByWeekday {
		weekdays[d] = n
	}
	if err := insertEach(ctx, tx, "INSERT INTO weekdays (weekday, count) VALUES (?, ?)", weekdays,
		func(d int, n int64) []any { return []any{d, n} }); err != nil {
		return fmt.Errorf("write weekdays: %w", err)
	}

	return tx.Commit()
}

func insertEach[K comparable, V any](ctx context.Context, tx *sql.Tx, query string, m map[K]V, args func(K, V) []any) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for k, v := range m {
		if _, err := stmt.ExecContext(ctx, args(k, v)...); err != nil {
			return err
		}
	}
	return nil
}
