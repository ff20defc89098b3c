package web

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"

	"github.com/asheshgoplani/workdeck/internal/workspace"
)

// handleNodes serves GET /api/nodes.
func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeRequest(r) {
		writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	st := s.engine.Snapshot()
	summaries := make([]nodeSummary, 0)
	seen := make(map[string]bool)

	if s.nodes != nil {
		registered, err := s.nodes.List()
		if err != nil {
			log.Printf("[WEB] List nodes: %v", err)
			writeAPIError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load nodes")
			return
		}
		for _, n := range registered {
			seen[n.ID] = true
			summaries = append(summaries, summarizeNode(st, n.ID, n.DisplayName(), n.Path, true))
		}
	}

	var extra []string
	for _, id := range st.Nodes() {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		summaries = append(summaries, summarizeNode(st, id, id, "", false))
	}

	writeJSON(w, http.StatusOK, nodesListResponse{Nodes: summaries})
}

func summarizeNode(st *workspace.State, id, name, path string, registered bool) nodeSummary {
	return nodeSummary{
		ID:             id,
		Name:           name,
		Path:           path,
		Registered:     registered,
		TabCount:       len(st.TabsForNode(id)),
		ActiveTabID:    st.ActiveTabID(id),
		NeedsAttention: st.NeedsAttention(id),
	}
}

// handleNodeByID dispatches /api/nodes/{id}/{tabs|active|files|attention|search}.
func (s *Server) handleNodeByID(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeRequest(r) {
		writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/nodes/")
	parts := strings.SplitN(rest, "/", 2)
	nodeID := parts[0]
	if nodeID == "" || len(parts) < 2 {
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "route not found")
		return
	}

	switch parts[1] {
	case "tabs":
		switch r.Method {
		case http.MethodGet:
			st := s.engine.Snapshot()
			writeJSON(w, http.StatusOK, tabsListResponse{Tabs: summarizeTabs(st, st.TabsForNode(nodeID))})
		case http.MethodPost:
			s.handleNodeTabCreate(w, r, nodeID)
		default:
			writeAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		}
	case "active":
		switch r.Method {
		case http.MethodGet:
			st := s.engine.Snapshot()
			resp := activeTabResponse{TabID: st.ActiveTabID(nodeID)}
			if t, ok := st.ActiveTab(nodeID); ok {
				sum := summarizeTab(st, t)
				resp.Tab = &sum
			}
			writeJSON(w, http.StatusOK, resp)
		case http.MethodPost:
			s.handleNodeActivate(w, r, nodeID)
		default:
			writeAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		}
	case "files":
		if r.Method != http.MethodPost {
			writeAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		s.handleNodeOpenFile(w, r, nodeID)
	case "attention":
		if r.Method != http.MethodDelete {
			writeAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		if !s.allowMutation(w) {
			return
		}
		out := s.engine.Do(func(st *workspace.Store) workspace.Outcome {
			return st.ClearNodeAttention(nodeID)
		})
		writeJSON(w, http.StatusOK, out)
	case "search":
		if r.Method != http.MethodGet {
			writeAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		st := s.engine.Snapshot()
		tabs := st.SearchTabs(nodeID, r.URL.Query().Get("q"))
		writeJSON(w, http.StatusOK, tabsListResponse{Tabs: summarizeTabs(st, tabs)})
	default:
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "route not found")
	}
}

// handleNodeTabCreate serves POST /api/nodes/{id}/tabs. An empty body
// opens one terminal pane.
func (s *Server) handleNodeTabCreate(w http.ResponseWriter, r *http.Request, nodeID string) {
	if !s.allowMutation(w) {
		return
	}
	var req panesRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return
	}
	specs, ok := paneSpecs(w, req.Panes)
	if !ok {
		return
	}
	out := s.engine.Do(func(st *workspace.Store) workspace.Outcome {
		if len(specs) == 0 {
			return st.AddTab(nodeID, workspace.PaneOptions{})
		}
		return st.AddTabWithMultiplePanes(nodeID, specs)
	})
	writeJSON(w, http.StatusCreated, out)
}

// handleNodeActivate serves POST /api/nodes/{id}/active.
func (s *Server) handleNodeActivate(w http.ResponseWriter, r *http.Request, nodeID string) {
	if !s.allowMutation(w) {
		return
	}
	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return
	}
	if t, ok := s.engine.Snapshot().Tab(req.TabID); !ok || t.NodeID != nodeID {
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "tab not found")
		return
	}
	out := s.engine.Do(func(st *workspace.Store) workspace.Outcome {
		return st.SetActiveTab(nodeID, req.TabID)
	})
	writeJSON(w, http.StatusOK, out)
}

// handleNodeOpenFile serves POST /api/nodes/{id}/files.
func (s *Server) handleNodeOpenFile(w http.ResponseWriter, r *http.Request, nodeID string) {
	if !s.allowMutation(w) {
		return
	}
	var req fileViewerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.FilePath) == "" {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "filePath is required")
		return
	}
	if !validViewMode(req.ViewMode) {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "unknown viewMode")
		return
	}
	out := s.engine.Do(func(st *workspace.Store) workspace.Outcome {
		return st.AddFileViewerPane(nodeID, workspace.FileViewerOptions{
			FilePath:    req.FilePath,
			ViewMode:    req.ViewMode,
			IsPinned:    req.IsPinned,
			Diff:        req.Diff,
			CommitHash:  req.CommitHash,
			ForceNewTab: req.ForceNewTab,
		})
	})
	writeJSON(w, http.StatusOK, out)
}

func paneSpecs(w http.ResponseWriter, reqs []paneOptionsRequest) ([]workspace.PaneOptions, bool) {
	specs := make([]workspace.PaneOptions, 0, len(reqs))
	for _, p := range reqs {
		if !validPaneType(p.Type) {
			writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "unknown pane type")
			return nil, false
		}
		specs = append(specs, p.options())
	}
	return specs, true
}

func validViewMode(m workspace.ViewMode) bool {
	switch m {
	case "", workspace.ViewModeSource, workspace.ViewModeRendered, workspace.ViewModeDiff:
		return true
	}
	return false
}

// decodeOptionalJSON decodes r's body into v, treating an empty body as
// the zero value.
func decodeOptionalJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
