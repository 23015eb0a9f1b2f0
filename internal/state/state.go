package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName      = "vplay"
	dbFileName   = "history.db"
	saveDebounce = 500 * time.Millisecond
)

type Manager struct {
	db        *sql.DB
	writeMu   sync.Mutex // held while pending entries are written
	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   map[string]Entry // by source
}

// Open opens the history database under the XDG data directory.
func Open() (*Manager, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, err
	}
	return OpenPath(dbPath)
}

// OpenPath opens (creating if needed) the history database at path.
func OpenPath(dbPath string) (*Manager, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// Single writer.
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Manager{db: db, pending: make(map[string]Entry)}, nil
}

func (m *Manager) Close() error {
	m.saveMu.Lock()
	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}
	pending := m.pending
	m.pending = make(map[string]Entry)
	m.saveMu.Unlock()

	// Flush pending entries
	m.writeMu.Lock()
	for _, e := range pending {
		_ = saveEntry(m.db, e)
	}
	m.writeMu.Unlock()

	return m.db.Close()
}

// SavePosition records e after a short quiet period. Repeated saves for the
// same source within the period collapse into one write.
func (m *Manager) SavePosition(e Entry) {
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}

	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.pending[e.Source] = e

	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}

	m.saveTimer = time.AfterFunc(saveDebounce, m.flush)
}

// Flush writes pending entries now.
func (m *Manager) Flush() error {
	m.saveMu.Lock()
	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}
	m.saveMu.Unlock()
	return m.flushErr()
}

func (m *Manager) flush() { _ = m.flushErr() }

func (m *Manager) flushErr() error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.saveMu.Lock()
	pending := m.pending
	m.pending = make(map[string]Entry)
	m.saveMu.Unlock()

	for _, e := range pending {
		if err := saveEntry(m.db, e); err != nil {
			return err
		}
	}
	return nil
}

func getDBPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}
