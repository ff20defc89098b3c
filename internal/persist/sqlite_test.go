package persist

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/asheshgoplani/workdeck/internal/workspace"
)

func newTestSQLiteBackend(t *testing.T) *SQLiteBackend {
	t.Helper()
	b, err := OpenSQLiteBackend(filepath.Join(t.TempDir(), "state", "workdeck.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLiteBackend: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestSQLiteBackendEmpty(t *testing.T) {
	b := newTestSQLiteBackend(t)
	if _, err := b.Read(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read on empty db = %v, want ErrNotFound", err)
	}
	if _, err := b.Backup(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Backup on empty db = %v, want ErrNotFound", err)
	}
}

func TestSQLiteBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := newTestSQLiteBackend(t)
	writeRaw(t, b, v3Doc)

	res, err := Load(ctx, b, workspace.SanitizeOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p1, _ := res.State.Pane("p1")
	if p1.Status != workspace.PaneStatusIdle {
		t.Errorf("p1 status = %q, want idle", p1.Status)
	}

	s := workspace.NewStore(res.State)
	s.AddTab("n2", workspace.PaneOptions{})
	if err := Save(ctx, b, s.State()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	res, err = Load(ctx, b, workspace.SanitizeOptions{})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if res.State.TabCount() != 2 {
		t.Errorf("tabs = %d, want 2", res.State.TabCount())
	}
}

func TestSQLiteMaintenance(t *testing.T) {
	ctx := context.Background()
	b := newTestSQLiteBackend(t)
	writeRaw(t, b, v3Doc)

	for i := 0; i < 5; i++ {
		if _, err := Maintenance(ctx, b, DefaultKeepBackups); err != nil {
			t.Fatalf("Maintenance: %v", err)
		}
	}
	var n int
	if err := b.db.QueryRow(`SELECT COUNT(*) FROM workspace_state_backups`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != DefaultKeepBackups {
		t.Errorf("backups = %d, want %d", n, DefaultKeepBackups)
	}
}
