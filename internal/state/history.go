package state

import (
	"database/sql"
	"errors"
	"time"
)

// Entry is the last known playback position of one source.
type Entry struct {
	Source    string
	Position  float64 // seconds
	Duration  float64 // seconds, 0 if unknown
	LastState string
	Completed bool // playback reached the end
	UpdatedAt time.Time
}

// ResumeAt returns where playback should resume, or 0 when the entry is
// completed or has no meaningful position.
func (e Entry) ResumeAt() float64 {
	if e.Completed || e.Position <= 0 {
		return 0
	}
	if e.Duration > 0 && e.Position >= e.Duration {
		return 0
	}
	return e.Position
}

// Get returns the entry for source, or nil if none was recorded.
func (m *Manager) Get(source string) (*Entry, error) {
	return getEntry(m.db, source)
}

// Recent returns up to limit entries, most recent first.
func (m *Manager) Recent(limit int) ([]Entry, error) {
	rows, err := m.db.Query(`
		SELECT source, position, duration, last_state, completed, updated_at
		FROM history ORDER BY updated_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Forget deletes the entry for source.
func (m *Manager) Forget(source string) error {
	_, err := m.db.Exec(`DELETE FROM history WHERE source = ?`, source)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var e Entry
	var lastState sql.NullString
	var updatedAt int64
	if err := s.Scan(&e.Source, &e.Position, &e.Duration, &lastState, &e.Completed, &updatedAt); err != nil {
		return nil, err
	}
	if lastState.Valid {
		e.LastState = lastState.String
	}
	e.UpdatedAt = time.UnixMilli(updatedAt)
	return &e, nil
}

func getEntry(db *sql.DB, source string) (*Entry, error) {
	row := db.QueryRow(`
		SELECT source, position, duration, last_state, completed, updated_at
		FROM history WHERE source = ?
	`, source)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // no entry is valid for a new source
	}
	return e, err
}

func saveEntry(db *sql.DB, e Entry) error {
	_, err := db.Exec(`
		INSERT INTO history (source, position, duration, last_state, completed, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET
			position = excluded.position,
			duration = CASE WHEN excluded.duration > 0 THEN excluded.duration ELSE history.duration END,
			last_state = excluded.last_state,
			completed = excluded.completed,
			updated_at = excluded.updated_at
	`, e.Source, e.Position, e.Duration, e.LastState, e.Completed, e.UpdatedAt.UnixMilli())
	return err
}
