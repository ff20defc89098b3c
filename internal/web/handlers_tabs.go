package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/asheshgoplani/workdeck/internal/layout"
	"github.com/asheshgoplani/workdeck/internal/workspace"
)

// handleTabByID dispatches /api/tabs/{id} and its sub-resources.
func (s *Server) handleTabByID(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeRequest(r) {
		writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/tabs/")
	parts := strings.SplitN(rest, "/", 2)
	tabID := parts[0]
	if tabID == "" {
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "route not found")
		return
	}
	if _, ok := s.engine.Snapshot().Tab(tabID); !ok {
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "tab not found")
		return
	}

	sub := ""
	if len(parts) == 2 {
		sub = parts[1]
	}

	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			s.handleTabGet(w, tabID)
		case http.MethodPatch:
			s.handleTabUpdate(w, r, tabID)
		case http.MethodDelete:
			if !s.allowMutation(w) {
				return
			}
			writeJSON(w, http.StatusOK, s.engine.Do(func(st *workspace.Store) workspace.Outcome {
				return st.RemoveTab(tabID)
			}))
		default:
			writeAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		}
		return
	}

	if r.Method != http.MethodPost && !(sub == "layout" && r.Method == http.MethodPut) {
		writeAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	if !s.allowMutation(w) {
		return
	}

	switch sub {
	case "layout":
		s.handleTabLayout(w, r, tabID)
	case "panes":
		s.handleTabAddPanes(w, r, tabID)
	case "split":
		s.handleTabSplit(w, r, tabID)
	case "resize":
		s.handleTabResize(w, r, tabID)
	case "rebalance":
		writeJSON(w, http.StatusOK, s.engine.Do(func(st *workspace.Store) workspace.Outcome {
			return st.RebalanceTab(tabID)
		}))
	case "focus":
		s.handleTabFocus(w, r, tabID)
	default:
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "route not found")
	}
}

func (s *Server) handleTabGet(w http.ResponseWriter, tabID string) {
	st := s.engine.Snapshot()
	t, ok := st.Tab(tabID)
	if !ok {
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "tab not found")
		return
	}
	panes := st.PanesForTab(tabID)
	if panes == nil {
		panes = []workspace.Pane{}
	}
	writeJSON(w, http.StatusOK, tabDetailResponse{Tab: summarizeTab(st, t), Panes: panes})
}

// handleTabUpdate serves PATCH /api/tabs/{id} with a new title, a new
// position, or both.
func (s *Server) handleTabUpdate(w http.ResponseWriter, r *http.Request, tabID string) {
	if !s.allowMutation(w) {
		return
	}
	var req updateTabRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return
	}
	if req.Title == nil && req.Index == nil {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "title or index is required")
		return
	}
	out := s.engine.Do(func(st *workspace.Store) workspace.Outcome {
		var out workspace.Outcome
		if req.Title != nil {
			out = st.RenameTab(tabID, *req.Title)
		}
		if req.Index != nil {
			if moved := st.ReorderTab(tabID, *req.Index); moved.Changed {
				out = moved
			}
		}
		return out
	})
	writeJSON(w, http.StatusOK, out)
}

// handleTabLayout serves PUT /api/tabs/{id}/layout.
func (s *Server) handleTabLayout(w http.ResponseWriter, r *http.Request, tabID string) {
	var req layoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return
	}
	tree, err := layout.Unmarshal(req.Layout)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "INVALID_LAYOUT", err.Error())
		return
	}
	if tree == nil {
		writeAPIError(w, http.StatusBadRequest, "INVALID_LAYOUT", "layout is empty; delete the tab instead")
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Do(func(st *workspace.Store) workspace.Outcome {
		return st.UpdateTabLayout(tabID, tree)
	}))
}

// handleTabAddPanes serves POST /api/tabs/{id}/panes.
func (s *Server) handleTabAddPanes(w http.ResponseWriter, r *http.Request, tabID string) {
	var req panesRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return
	}
	specs, ok := paneSpecs(w, req.Panes)
	if !ok {
		return
	}
	if len(specs) == 0 {
		specs = []workspace.PaneOptions{{}}
	}
	writeJSON(w, http.StatusCreated, s.engine.Do(func(st *workspace.Store) workspace.Outcome {
		return st.AddPanesToTab(tabID, specs)
	}))
}

// handleTabSplit serves POST /api/tabs/{id}/split.
func (s *Server) handleTabSplit(w http.ResponseWriter, r *http.Request, tabID string) {
	var req splitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return
	}
	if req.PaneID == "" {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "paneId is required")
		return
	}
	if !validPaneType(req.Pane.Type) {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "unknown pane type")
		return
	}
	switch req.Direction {
	case "", "vertical", "horizontal", "auto":
	default:
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "direction must be vertical, horizontal or auto")
		return
	}
	opts := req.Pane.options()

	out := s.engine.Do(func(st *workspace.Store) workspace.Outcome {
		path := req.Path
		if len(path) == 0 {
			t, ok := st.State().Tab(tabID)
			if !ok {
				return workspace.Outcome{}
			}
			// Without a path the split lands next to the source pane.
			if path, ok = layout.FindPanePath(t.Layout, req.PaneID); !ok {
				return workspace.Outcome{}
			}
		}
		switch req.Direction {
		case "horizontal":
			return st.SplitPaneHorizontal(tabID, req.PaneID, path, opts)
		case "auto":
			return st.SplitPaneAuto(tabID, req.PaneID, path, req.Width, req.Height, opts)
		}
		return st.SplitPaneVertical(tabID, req.PaneID, path, opts)
	})
	if !out.Changed {
		writeAPIError(w, http.StatusConflict, "SPLIT_REJECTED", "pane is not in this tab or path does not match")
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// handleTabResize serves POST /api/tabs/{id}/resize.
func (s *Server) handleTabResize(w http.ResponseWriter, r *http.Request, tabID string) {
	var req resizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Do(func(st *workspace.Store) workspace.Outcome {
		return st.ResizeSplit(tabID, req.Path, req.Percentage)
	}))
}

// handleTabFocus serves POST /api/tabs/{id}/focus.
func (s *Server) handleTabFocus(w http.ResponseWriter, r *http.Request, tabID string) {
	var req focusTabRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return
	}
	switch req.Direction {
	case "next", "":
		writeJSON(w, http.StatusOK, s.engine.Do(func(st *workspace.Store) workspace.Outcome {
			return st.FocusNextPane(tabID)
		}))
	case "previous":
		writeJSON(w, http.StatusOK, s.engine.Do(func(st *workspace.Store) workspace.Outcome {
			return st.FocusPreviousPane(tabID)
		}))
	default:
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "direction must be next or previous")
	}
}
