package web

import (
	"encoding/json"
	"time"

	"github.com/asheshgoplani/workdeck/internal/layout"
	"github.com/asheshgoplani/workdeck/internal/workspace"
)

// Response and request types for the workspace API.

type nodeSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Path           string `json:"path,omitempty"`
	Registered     bool   `json:"registered"`
	TabCount       int    `json:"tabCount"`
	ActiveTabID    string `json:"activeTabId,omitempty"`
	NeedsAttention bool   `json:"needsAttention"`
}

type nodesListResponse struct {
	Nodes []nodeSummary `json:"nodes"`
}

type tabSummary struct {
	ID            string          `json:"id"`
	NodeID        string          `json:"nodeId"`
	Name          string          `json:"name"`
	DisplayName   string          `json:"displayName"`
	UserTitle     string          `json:"userTitle,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	Active        bool            `json:"active"`
	FocusedPaneID string          `json:"focusedPaneId,omitempty"`
	Layout        json.RawMessage `json:"layout"`
}

type tabsListResponse struct {
	Tabs []tabSummary `json:"tabs"`
}

type tabDetailResponse struct {
	Tab   tabSummary       `json:"tab"`
	Panes []workspace.Pane `json:"panes"`
}

type activeTabResponse struct {
	TabID string      `json:"tabId"`
	Tab   *tabSummary `json:"tab,omitempty"`
}

type paneDetailResponse struct {
	Pane workspace.Pane `json:"pane"`
}

type paneOptionsRequest struct {
	Type            workspace.PaneType    `json:"type,omitempty"`
	Title           string                `json:"title,omitempty"`
	Cwd             string                `json:"cwd,omitempty"`
	InitialCommands []string              `json:"initialCommands,omitempty"`
	FileViewer      *workspace.FileViewer `json:"fileViewer,omitempty"`
	Dashboard       *workspace.Dashboard  `json:"dashboard,omitempty"`
}

func (p paneOptionsRequest) options() workspace.PaneOptions {
	return workspace.PaneOptions{
		Type:            p.Type,
		Title:           p.Title,
		Cwd:             p.Cwd,
		InitialCommands: p.InitialCommands,
		FileViewer:      p.FileViewer,
		Dashboard:       p.Dashboard,
	}
}

func validPaneType(t workspace.PaneType) bool {
	switch t {
	case "", workspace.PaneTypeTerminal, workspace.PaneTypeFileViewer, workspace.PaneTypeDashboard:
		return true
	}
	return false
}

type panesRequest struct {
	Panes []paneOptionsRequest `json:"panes"`
}

type setActiveRequest struct {
	TabID string `json:"tabId"`
}

type fileViewerRequest struct {
	FilePath    string                 `json:"filePath"`
	ViewMode    workspace.ViewMode     `json:"viewMode,omitempty"`
	IsPinned    bool                   `json:"isPinned,omitempty"`
	Diff        *workspace.DiffContext `json:"diff,omitempty"`
	CommitHash  string                 `json:"commitHash,omitempty"`
	ForceNewTab bool                   `json:"forceNewTab,omitempty"`
}

type updateTabRequest struct {
	Title *string `json:"title,omitempty"`
	Index *int    `json:"index,omitempty"`
}

type layoutRequest struct {
	Layout json.RawMessage `json:"layout"`
}

type resizeRequest struct {
	Path       layout.Path `json:"path"`
	Percentage float64     `json:"percentage"`
}

type splitRequest struct {
	PaneID    string             `json:"paneId"`
	Path      layout.Path        `json:"path,omitempty"`
	Direction string             `json:"direction"` // "vertical", "horizontal" or "auto"
	Width     int                `json:"width,omitempty"`
	Height    int                `json:"height,omitempty"`
	Pane      paneOptionsRequest `json:"pane"`
}

type focusTabRequest struct {
	Direction string `json:"direction"` // "next" or "previous"
}

type moveRequest struct {
	TabID  string `json:"tabId,omitempty"`
	NewTab bool   `json:"newTab,omitempty"`
}

type statusRequest struct {
	Status workspace.PaneStatus `json:"status"`
}

type viewerRequest struct {
	ViewMode *workspace.ViewMode `json:"viewMode,omitempty"`
	Pinned   *bool               `json:"pinned,omitempty"`
}

func summarizeTab(st *workspace.State, t workspace.Tab) tabSummary {
	raw, err := layout.Marshal(t.Layout)
	if err != nil {
		raw = []byte("null")
	}
	return tabSummary{
		ID:            t.ID,
		NodeID:        t.NodeID,
		Name:          t.Name,
		DisplayName:   t.DisplayName(),
		UserTitle:     t.UserTitle,
		CreatedAt:     t.CreatedAt,
		Active:        st.ActiveTabID(t.NodeID) == t.ID,
		FocusedPaneID: st.FocusedPaneID(t.ID),
		Layout:        raw,
	}
}

func summarizeTabs(st *workspace.State, tabs []workspace.Tab) []tabSummary {
	out := make([]tabSummary, 0, len(tabs))
	for _, t := range tabs {
		out = append(out, summarizeTab(st, t))
	}
	return out
}
