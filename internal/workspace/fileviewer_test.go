package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileViewerPreviewIsReused(t *testing.T) {
	s := newTestStore()
	term := s.AddTab("n1", PaneOptions{})

	first := s.AddFileViewerPane("n1", FileViewerOptions{FilePath: "src/main.go"})
	require.True(t, first.Changed)
	assert.Equal(t, term.TabID, first.TabID)

	again := s.AddFileViewerPane("n1", FileViewerOptions{FilePath: "src/main.go"})
	assert.Equal(t, first.PaneID, again.PaneID)

	other := s.AddFileViewerPane("n1", FileViewerOptions{FilePath: "README.md"})
	assert.Equal(t, first.PaneID, other.PaneID)
	assert.True(t, other.Changed)

	st := s.State()
	assert.Len(t, st.PanesForTab(term.TabID), 2)
	p, _ := st.Pane(first.PaneID)
	assert.Equal(t, "README.md", p.FileViewer.FilePath)
	assert.Equal(t, first.PaneID, st.FocusedPaneID(term.TabID))
}

func TestFileViewerSameFileRefocuses(t *testing.T) {
	s := newTestStore()
	term := s.AddTab("n1", PaneOptions{})
	fv := s.AddFileViewerPane("n1", FileViewerOptions{FilePath: "a.go"})
	s.FocusPane(term.PaneID)

	out := s.AddFileViewerPane("n1", FileViewerOptions{FilePath: "./a.go"})
	assert.True(t, out.Changed)
	assert.Equal(t, fv.PaneID, s.State().FocusedPaneID(term.TabID))

	out = s.AddFileViewerPane("n1", FileViewerOptions{FilePath: "a.go"})
	assert.False(t, out.Changed, "already focused and unchanged")
	assert.Equal(t, fv.PaneID, out.PaneID)
}

func TestFileViewerPinnedSplitsNewPreview(t *testing.T) {
	s := newTestStore()
	s.AddTab("n1", PaneOptions{})
	pinned := s.AddFileViewerPane("n1", FileViewerOptions{FilePath: "a.go", IsPinned: true})

	other := s.AddFileViewerPane("n1", FileViewerOptions{FilePath: "b.go"})
	assert.NotEqual(t, pinned.PaneID, other.PaneID)

	back := s.AddFileViewerPane("n1", FileViewerOptions{FilePath: "a.go"})
	assert.Equal(t, pinned.PaneID, back.PaneID)
	p, _ := s.State().Pane(pinned.PaneID)
	assert.Equal(t, "a.go", p.FileViewer.FilePath)
}

func TestFileViewerIdentityIncludesDiff(t *testing.T) {
	s := newTestStore()
	s.AddTab("n1", PaneOptions{})
	plain := s.AddFileViewerPane("n1", FileViewerOptions{FilePath: "a.go"})
	s.PinFileViewer(plain.PaneID, true)

	diff := s.AddFileViewerPane("n1", FileViewerOptions{
		FilePath: "a.go",
		ViewMode: ViewModeDiff,
		Diff:     &DiffContext{Base: "main"},
	})
	assert.NotEqual(t, plain.PaneID, diff.PaneID)
}

func TestFileViewerOpensTab(t *testing.T) {
	s := newTestStore()
	out := s.AddFileViewerPane("n1", FileViewerOptions{FilePath: "docs/guide.md"})
	require.True(t, out.Changed)
	tab, ok := s.State().Tab(out.TabID)
	require.True(t, ok)
	assert.Equal(t, "guide.md", tab.DisplayName())

	forced := s.AddFileViewerPane("n1", FileViewerOptions{FilePath: "docs/guide.md", ForceNewTab: true})
	assert.NotEqual(t, out.TabID, forced.TabID)
	assert.Equal(t, 2, s.State().TabCount())

	assert.False(t, s.AddFileViewerPane("n1", FileViewerOptions{}).Changed)
}

func TestSetFileViewModeAndPin(t *testing.T) {
	s := newTestStore()
	out := s.AddFileViewerPane("n1", FileViewerOptions{FilePath: "a.md"})

	assert.True(t, s.SetFileViewMode(out.PaneID, ViewModeRendered).Changed)
	assert.False(t, s.SetFileViewMode(out.PaneID, ViewModeRendered).Changed)
	p, _ := s.State().Pane(out.PaneID)
	assert.Equal(t, ViewModeRendered, p.FileViewer.ViewMode)

	assert.True(t, s.PinFileViewer(out.PaneID, true).Changed)
	assert.False(t, s.PinFileViewer(out.PaneID, true).Changed)

	term := s.AddTab("n1", PaneOptions{})
	assert.False(t, s.PinFileViewer(term.PaneID, true).Changed)
}
