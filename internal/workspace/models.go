package workspace

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/asheshgoplani/workdeck/internal/layout"
)

// PaneType identifies what a pane hosts.
type PaneType string

const (
	PaneTypeTerminal   PaneType = "terminal"
	PaneTypeFileViewer PaneType = "file-viewer"
	PaneTypeDashboard  PaneType = "dashboard"
)

// PaneStatus is the attention state of a pane.
type PaneStatus string

const (
	PaneStatusIdle       PaneStatus = "idle"
	PaneStatusWorking    PaneStatus = "working"
	PaneStatusPermission PaneStatus = "permission"
	PaneStatusReview     PaneStatus = "review"
)

// Valid reports whether s is a known status.
func (s PaneStatus) Valid() bool {
	switch s {
	case PaneStatusIdle, PaneStatusWorking, PaneStatusPermission, PaneStatusReview:
		return true
	}
	return false
}

// ViewMode is how a file viewer presents its file.
type ViewMode string

const (
	ViewModeSource   ViewMode = "source"
	ViewModeRendered ViewMode = "rendered"
	ViewModeDiff     ViewMode = "diff"
)

// DiffContext describes which diff a file viewer shows.
type DiffContext struct {
	Base   string `json:"base,omitempty"`
	Staged bool   `json:"staged,omitempty"`
}

// FileViewer is the payload of a file-viewer pane.
type FileViewer struct {
	FilePath   string       `json:"filePath"`
	ViewMode   ViewMode     `json:"viewMode,omitempty"`
	IsPinned   bool         `json:"isPinned"`
	Diff       *DiffContext `json:"diff,omitempty"`
	CommitHash string       `json:"commitHash,omitempty"`
}

// Identity is the key two viewers must share to be "the same file".
func (f *FileViewer) Identity() string {
	if f == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(filepath.Clean(f.FilePath))
	b.WriteByte('|')
	if f.Diff != nil {
		b.WriteString(f.Diff.Base)
		b.WriteByte('|')
		b.WriteString(strconv.FormatBool(f.Diff.Staged))
	}
	b.WriteByte('|')
	b.WriteString(f.CommitHash)
	return b.String()
}

// Dashboard is the payload of a dashboard pane.
type Dashboard struct {
	View string `json:"view,omitempty"`
}

// Pane is a single interactive surface.
type Pane struct {
	ID         string      `json:"id"`
	TabID      string      `json:"tabId"`
	Type       PaneType    `json:"type"`
	Status     PaneStatus  `json:"status"`
	Title      string      `json:"title,omitempty"`
	Cwd        string      `json:"cwd,omitempty"`
	FileViewer *FileViewer `json:"fileViewer,omitempty"`
	Dashboard  *Dashboard  `json:"dashboard,omitempty"`

	// Runtime state (not persisted).
	IsNew           bool     `json:"-"`
	InitialCommands []string `json:"-"`
	CwdConfirmed    bool     `json:"-"`
}

// clone copies the pane including its payload pointers.
func (p Pane) clone() Pane {
	if p.FileViewer != nil {
		fv := *p.FileViewer
		if fv.Diff != nil {
			d := *fv.Diff
			fv.Diff = &d
		}
		p.FileViewer = &fv
	}
	if p.Dashboard != nil {
		d := *p.Dashboard
		p.Dashboard = &d
	}
	if p.InitialCommands != nil {
		p.InitialCommands = append([]string(nil), p.InitialCommands...)
	}
	return p
}

// Label is the short name a pane contributes to its tab's name.
func (p Pane) Label() string {
	if t := strings.TrimSpace(p.Title); t != "" {
		return t
	}
	switch p.Type {
	case PaneTypeFileViewer:
		if p.FileViewer != nil && p.FileViewer.FilePath != "" {
			return filepath.Base(p.FileViewer.FilePath)
		}
		return "File"
	case PaneTypeDashboard:
		return "Dashboard"
	}
	return "Terminal"
}

// FallbackTabName is shown for a tab with neither a user title nor a name.
const FallbackTabName = "Untitled"

// Tab is a named container for one split layout, scoped to a node.
type Tab struct {
	ID        string      `json:"id"`
	NodeID    string      `json:"nodeId"`
	Name      string      `json:"name"`
	UserTitle string      `json:"userTitle,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	Layout    layout.Node `json:"-"`
}

// DisplayName returns the user title, the generated name, or the fallback.
func (t Tab) DisplayName() string {
	if s := strings.TrimSpace(t.UserTitle); s != "" {
		return s
	}
	if s := strings.TrimSpace(t.Name); s != "" {
		return s
	}
	return FallbackTabName
}

// PaneOptions describes a pane to create.
type PaneOptions struct {
	Type            PaneType
	Title           string
	Cwd             string
	InitialCommands []string
	FileViewer      *FileViewer
	Dashboard       *Dashboard
}

// FileViewerOptions describes a file to show.
type FileViewerOptions struct {
	FilePath    string
	ViewMode    ViewMode
	IsPinned    bool
	Diff        *DiffContext
	CommitHash  string
	ForceNewTab bool
}

func (o FileViewerOptions) viewer() *FileViewer {
	fv := &FileViewer{
		FilePath:   o.FilePath,
		ViewMode:   o.ViewMode,
		IsPinned:   o.IsPinned,
		CommitHash: o.CommitHash,
	}
	if fv.ViewMode == "" {
		fv.ViewMode = ViewModeSource
	}
	if o.Diff != nil {
		d := *o.Diff
		fv.Diff = &d
	}
	return fv
}
