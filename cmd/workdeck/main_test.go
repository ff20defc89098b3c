package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/asheshgoplani/workdeck/internal/config"
	"github.com/asheshgoplani/workdeck/internal/nodes"
	"github.com/asheshgoplani/workdeck/internal/persist"
	"github.com/asheshgoplani/workdeck/internal/workspace"
)

func TestNormalizeArgs(t *testing.T) {
	newFS := func() *flag.FlagSet {
		fs := flag.NewFlagSet("test", flag.ContinueOnError)
		fs.String("node", "", "")
		fs.Bool("json", false, "")
		return fs
	}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"flags first", []string{"--json", "api"}, []string{"--json", "api"}},
		{"flags after positional", []string{"api", "--json"}, []string{"--json", "api"}},
		{"value flag", []string{"api", "--node", "web"}, []string{"--node", "web", "api"}},
		{"inline value", []string{"api", "--node=web"}, []string{"--node=web", "api"}},
		{"terminator", []string{"--json", "--", "--node"}, []string{"--json", "--node"}},
		{"unknown flag kept", []string{"x", "--nope"}, []string{"--nope", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeArgs(newFS(), tt.args)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("normalizeArgs(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestExtractConfigFlag(t *testing.T) {
	path, rest := extractConfigFlag([]string{"-c", "/tmp/x.toml", "web", "-c", "kept"})
	if path != "/tmp/x.toml" {
		t.Fatalf("path = %q", path)
	}
	if !reflect.DeepEqual(rest, []string{"web", "-c", "kept"}) {
		t.Fatalf("rest = %v", rest)
	}

	path, rest = extractConfigFlag([]string{"--config=/a.toml", "inspect"})
	if path != "/a.toml" || !reflect.DeepEqual(rest, []string{"inspect"}) {
		t.Fatalf("got %q %v", path, rest)
	}
}

func sampleState(t *testing.T) *workspace.State {
	t.Helper()
	store := workspace.NewStore(nil)
	out := store.AddTabWithMultiplePanes("api", []workspace.PaneOptions{
		{Title: "server"},
		{Type: workspace.PaneTypeFileViewer, FileViewer: &workspace.FileViewer{FilePath: "main.go"}},
	})
	store.ReportPermission(out.PaneIDs[0])
	store.AddTab("web", workspace.PaneOptions{Title: "dev"})
	return store.State()
}

func TestRenderWorkspace(t *testing.T) {
	st := sampleState(t)
	got := renderWorkspace(st, map[string]string{"api": "API"}, "")

	for _, want := range []string{"API (api)", "web", "server", "main.go", "permission", "row 50%", "* "} {
		if !strings.Contains(got, want) {
			t.Errorf("render missing %q:\n%s", want, got)
		}
	}

	filtered := renderWorkspace(st, nil, "web")
	if strings.Contains(filtered, "main.go") {
		t.Errorf("filter leaked other node:\n%s", filtered)
	}
	if !strings.Contains(filtered, "dev") {
		t.Errorf("filtered render missing tab:\n%s", filtered)
	}

	if empty := renderWorkspace(workspace.NewState(), nil, ""); !strings.Contains(empty, "No tabs saved.") {
		t.Errorf("empty render = %q", empty)
	}
}

func TestOpenBackendSelection(t *testing.T) {
	dir := t.TempDir()

	cfg := config.Default(dir)
	b, err := openBackend(cfg)
	if err != nil {
		t.Fatalf("openBackend: %v", err)
	}
	if _, ok := b.(*persist.FileBackend); !ok {
		t.Fatalf("default backend = %T", b)
	}
	b.Close()

	cfg.Storage.Backend = config.BackendSQLite
	b, err = openBackend(cfg)
	if err != nil {
		t.Fatalf("openBackend sqlite: %v", err)
	}
	defer b.Close()
	sb, ok := b.(*persist.SQLiteBackend)
	if !ok {
		t.Fatalf("sqlite backend = %T", b)
	}
	if sb.Path() != filepath.Join(dir, "state", "workdeck.sqlite") {
		t.Fatalf("sqlite path = %s", sb.Path())
	}
}

func TestInspectStateReadsLiveAndBackup(t *testing.T) {
	ctx := context.Background()
	fb, err := persist.NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	defer fb.Close()

	st, err := inspectState(ctx, fb, "")
	if err != nil {
		t.Fatalf("inspect empty: %v", err)
	}
	if st.TabCount() != 0 {
		t.Fatalf("expected empty state, got %d tabs", st.TabCount())
	}

	saved := sampleState(t)
	if err := persist.Save(ctx, fb, saved); err != nil {
		t.Fatalf("Save: %v", err)
	}
	name, err := fb.Backup(ctx)
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}

	st, err = inspectState(ctx, fb, "")
	if err != nil {
		t.Fatalf("inspect live: %v", err)
	}
	if st.TabCount() != 2 {
		t.Fatalf("live tabs = %d, want 2", st.TabCount())
	}
	// Live statuses reset on load.
	for _, tab := range st.TabsForNode("api") {
		for _, p := range st.PanesForTab(tab.ID) {
			if p.Status == workspace.PaneStatusPermission {
				t.Fatalf("pane %s kept live status", p.ID)
			}
		}
	}

	st, err = inspectState(ctx, fb, name)
	if err != nil {
		t.Fatalf("inspect backup: %v", err)
	}
	if st.TabCount() != 2 {
		t.Fatalf("backup tabs = %d, want 2", st.TabCount())
	}

	if _, err := inspectState(ctx, fb, "../state.json"); err == nil {
		t.Fatal("expected traversal to be rejected")
	}
}

func TestLoadStateFiltersUnregisteredNodes(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := config.Default(dir)
	b, err := openBackend(cfg)
	if err != nil {
		t.Fatalf("openBackend: %v", err)
	}
	defer b.Close()
	if err := persist.Save(ctx, b, sampleState(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	registry := nodes.NewRegistry(dir)
	res, err := loadState(ctx, b, registry)
	if err != nil {
		t.Fatalf("loadState: %v", err)
	}
	if res.State.TabCount() != 2 {
		t.Fatalf("empty registry should keep all tabs, got %d", res.State.TabCount())
	}

	if err := registry.Put(nodes.Node{ID: "web"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	res, err = loadState(ctx, b, registry)
	if err != nil {
		t.Fatalf("loadState: %v", err)
	}
	if got := res.State.Nodes(); !reflect.DeepEqual(got, []string{"web"}) {
		t.Fatalf("nodes = %v, want [web]", got)
	}
}

// newerStateDoc is a saved state from a release with a higher format version
// and a field this build does not know.
const newerStateDoc = `{
  "version": 99,
  "tabs": [{"id": "t1", "nodeId": "api", "createdAt": "2026-01-01T00:00:00Z", "layout": "p1", "colour": "teal"}],
  "panes": {"p1": {"id": "p1", "tabId": "t1", "type": "terminal"}}
}`

func TestMigrateLeavesNewerStateAlone(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fb, err := persist.NewFileBackend(filepath.Join(dir, "state"))
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	defer fb.Close()
	if err := fb.Write(ctx, []byte(newerStateDoc)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	res, err := migrateState(ctx, fb, nodes.NewRegistry(dir))
	if !errors.Is(err, persist.ErrNewerVersion) {
		t.Fatalf("migrateState err = %v, want ErrNewerVersion", err)
	}
	if !res.Newer || res.FromVersion != 99 {
		t.Fatalf("result = %+v", res)
	}

	data, err := os.ReadFile(fb.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != newerStateDoc {
		t.Fatalf("state file was rewritten:\n%s", data)
	}
}

func TestMigrateRewritesCurrentState(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fb, err := persist.NewFileBackend(filepath.Join(dir, "state"))
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	defer fb.Close()

	res, err := migrateState(ctx, fb, nodes.NewRegistry(dir))
	if err != nil || !res.Empty {
		t.Fatalf("empty migrate = %+v, %v", res, err)
	}

	if err := persist.Save(ctx, fb, sampleState(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	res, err = migrateState(ctx, fb, nodes.NewRegistry(dir))
	if err != nil {
		t.Fatalf("migrateState: %v", err)
	}
	if res.Migrated || res.State.TabCount() != 2 {
		t.Fatalf("result = %+v", res)
	}
}

func TestInspectStateReadsNewerVersion(t *testing.T) {
	ctx := context.Background()
	fb, err := persist.NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	defer fb.Close()
	if err := fb.Write(ctx, []byte(newerStateDoc)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	st, err := inspectState(ctx, fb, "")
	if err != nil {
		t.Fatalf("inspectState: %v", err)
	}
	if st.TabCount() != 1 || st.PaneCount() != 1 {
		t.Fatalf("tabs=%d panes=%d, want 1/1", st.TabCount(), st.PaneCount())
	}
}
