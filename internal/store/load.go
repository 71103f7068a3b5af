package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Zuo-Peng/voyager/internal/stats"
)

// ErrNoSnapshot is returned by Load when nothing has been saved yet.
var ErrNoSnapshot = errors.New("store: no snapshot saved")

// Load reads back the snapshot written by Save.
func (d *DB) Load(ctx context.Context) (*stats.Stats, Meta, error) {
	var meta Meta

	s := stats.New()
	err := d.db.QueryRowContext(ctx, "SELECT total_messages, voice_activity FROM totals WHERE id = 1").
		Scan(&s.TotalMessages, &s.VoiceActivity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, meta, ErrNoSnapshot
	}
	if err != nil {
		return nil, meta, fmt.Errorf("read totals: %w", err)
	}

	if err := d.scanRows(ctx, "SELECT key, value FROM meta", func(rows *sql.Rows) error {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return err
		}
		switch key {
		case "source":
			meta.Source = value
		case "kind":
			meta.Kind = value
		case "generated_at":
			meta.GeneratedAt, _ = time.Parse(time.RFC3339, value)
		}
		return nil
	}); err != nil {
		return nil, meta, fmt.Errorf("read meta: %w", err)
	}

	if err := d.scanRows(ctx, "SELECT channel_id, name, count FROM channels", func(rows *sql.Rows) error {
		var c stats.Channel
		if err := rows.Scan(&c.ID, &c.Name, &c.Count); err != nil {
			return err
		}
		s.Channels[c.ID] = &c
		return nil
	}); err != nil {
		return nil, meta, fmt.Errorf("read channels: %w", err)
	}

	if err := d.scanRows(ctx, "SELECT channel_id, name FROM channel_names", func(rows *sql.Rows) error {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return err
		}
		s.ChannelNames[id] = name
		return nil
	}); err != nil {
		return nil, meta, fmt.Errorf("read channel names: %w", err)
	}

	if err := d.scanRows(ctx, "SELECT year, count FROM years", func(rows *sql.Rows) error {
		var year int
		var n int64
		if err := rows.Scan(&year, &n); err != nil {
			return err
		}
		s.ByYear[year] = n
		return nil
	}); err != nil {
		return nil, meta, fmt.Errorf("read years: %w", err)
	}

	if err := d.scanRows(ctx, "SELECT hour, count FROM hours", func(rows *sql.Rows) error {
		var hour int
		var n int64
		if err := rows.Scan(&hour, &n); err != nil {
			return err
		}
		if hour < 0 || hour >= len(s.ByHour) {
			return fmt.Errorf("hour %d out of range", hour)
		}
		s.ByHour[hour] = n
		return nil
	}); err != nil {
		return nil, meta, fmt.Errorf("read hours: %w", err)
	}

	if err := d.scanRows(ctx, "SELECT weekday, count FROM weekdays", func(rows *sql.Rows) error {
		var day int
		var n int64
		if err := rows.Scan(&day, &n); err != nil {
			return err
		}
		if day < 0 || day >= len(s.ByWeekday) {
			return fmt.Errorf("weekday %d out of range", day)
		}
		s.ByWeekday[day] = n
		return nil
	}); err != nil {
		return nil, meta, fmt.Errorf("read weekdays: %w", err)
	}

	if err := d.scanRows(ctx, "SELECT word, count FROM words", func(rows *sql.Rows) error {
		var w string
		var n int64
		if err := rows.Scan(&w, &n); err != nil {
			return err
		}
		s.Words[w] = n
		return nil
	}); err != nil {
		return nil, meta, fmt.Errorf("read words: %w", err)
	}

	return s, meta, nil
}

func (d *DB) scanRows(ctx context.Context, query string, fn func(*sql.Rows) error) error {
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
