package state

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := OpenPath(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestGet_Empty(t *testing.T) {
	m := openTestManager(t)

	e, err := m.Get("/srv/a.mp3")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if e != nil {
		t.Errorf("expected nil entry on empty db, got %+v", e)
	}
}

func TestSavePosition_FlushAndGet(t *testing.T) {
	m := openTestManager(t)
	at := time.UnixMilli(1_700_000_000_000)

	m.SavePosition(Entry{Source: "/srv/a.mp3", Position: 42.5, Duration: 120, LastState: "Paused", UpdatedAt: at})
	if err := m.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	e, err := m.Get("/srv/a.mp3")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if e == nil {
		t.Fatal("expected entry, got nil")
	}
	if e.Position != 42.5 || e.Duration != 120 || e.LastState != "Paused" {
		t.Errorf("entry = %+v", e)
	}
	if !e.UpdatedAt.Equal(at) {
		t.Errorf("UpdatedAt = %v, want %v", e.UpdatedAt, at)
	}
}

func TestSavePosition_CollapsesWrites(t *testing.T) {
	m := openTestManager(t)

	for i := range 10 {
		m.SavePosition(Entry{Source: "/srv/a.mp3", Position: float64(i)})
	}
	if err := m.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	e, err := m.Get("/srv/a.mp3")
	if err != nil || e == nil {
		t.Fatalf("Get = %v, %v", e, err)
	}
	if e.Position != 9 {
		t.Errorf("Position = %v, want 9 (last save wins)", e.Position)
	}
}

func TestSavePosition_DebouncedWrite(t *testing.T) {
	m := openTestManager(t)

	m.SavePosition(Entry{Source: "/srv/a.mp3", Position: 3})

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		e, err := m.Get("/srv/a.mp3")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if e != nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Error("debounced save never reached the database")
}

func TestSavePosition_KeepsKnownDuration(t *testing.T) {
	m := openTestManager(t)

	m.SavePosition(Entry{Source: "a", Position: 1, Duration: 90})
	_ = m.Flush()
	m.SavePosition(Entry{Source: "a", Position: 2})
	_ = m.Flush()

	e, _ := m.Get("a")
	if e == nil || e.Duration != 90 {
		t.Errorf("entry = %+v, want duration 90 kept", e)
	}
}

func TestClose_FlushesPending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	m, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	m.SavePosition(Entry{Source: "a", Position: 7})
	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	m2, err := OpenPath(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer m2.Close()
	e, err := m2.Get("a")
	if err != nil || e == nil || e.Position != 7 {
		t.Errorf("Get after reopen = %+v, %v", e, err)
	}
}

func TestRecentAndForget(t *testing.T) {
	m := openTestManager(t)
	base := time.UnixMilli(1_700_000_000_000)

	for i, src := range []string{"a", "b", "c"} {
		m.SavePosition(Entry{Source: src, Position: 1, UpdatedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	if err := m.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	recent, err := m.Recent(2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 || recent[0].Source != "c" || recent[1].Source != "b" {
		t.Errorf("Recent(2) = %+v, want c then b", recent)
	}

	if err := m.Forget("c"); err != nil {
		t.Fatalf("Forget failed: %v", err)
	}
	if e, _ := m.Get("c"); e != nil {
		t.Errorf("Get after Forget = %+v, want nil", e)
	}
}

func TestEntry_ResumeAt(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  float64
	}{
		{"mid", Entry{Position: 30, Duration: 120}, 30},
		{"unknown duration", Entry{Position: 30}, 30},
		{"completed", Entry{Position: 30, Duration: 120, Completed: true}, 0},
		{"at end", Entry{Position: 120, Duration: 120}, 0},
		{"start", Entry{Position: 0, Duration: 120}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.ResumeAt(); got != tt.want {
				t.Errorf("ResumeAt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMock_Recent(t *testing.T) {
	m := NewMock()
	base := time.UnixMilli(1_700_000_000_000)
	m.SetEntry(Entry{Source: "old", UpdatedAt: base})
	m.SavePosition(Entry{Source: "new", UpdatedAt: base.Add(time.Hour)})

	recent, _ := m.Recent(5)
	if len(recent) != 2 || recent[0].Source != "new" {
		t.Errorf("Recent = %+v", recent)
	}
	if m.Saves() != 1 {
		t.Errorf("Saves() = %d, want 1", m.Saves())
	}
	_ = m.Close()
	if !m.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}
}
