package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/asheshgoplani/workdeck/internal/workspace"
)

// handlePaneByID dispatches /api/panes/{id} and its sub-resources.
func (s *Server) handlePaneByID(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeRequest(r) {
		writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/panes/")
	parts := strings.SplitN(rest, "/", 2)
	paneID := parts[0]
	if paneID == "" {
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "route not found")
		return
	}
	pane, ok := s.engine.Snapshot().Pane(paneID)
	if !ok {
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "pane not found")
		return
	}

	sub := ""
	if len(parts) == 2 {
		sub = parts[1]
	}

	if sub == "" {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, paneDetailResponse{Pane: pane})
		case http.MethodDelete:
			if !s.allowMutation(w) {
				return
			}
			writeJSON(w, http.StatusOK, s.engine.Do(func(st *workspace.Store) workspace.Outcome {
				return st.RemovePane(paneID)
			}))
		default:
			writeAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		}
		return
	}

	if r.Method != http.MethodPost && !(sub == "viewer" && r.Method == http.MethodPatch) {
		writeAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	if !s.allowMutation(w) {
		return
	}

	switch sub {
	case "focus":
		writeJSON(w, http.StatusOK, s.engine.Do(func(st *workspace.Store) workspace.Outcome {
			return st.FocusPane(paneID)
		}))
	case "move":
		s.handlePaneMove(w, r, paneID)
	case "status":
		s.handlePaneStatus(w, r, paneID)
	case "activity":
		writeJSON(w, http.StatusOK, s.engine.Do(func(st *workspace.Store) workspace.Outcome {
			return st.ReportActivity(paneID)
		}))
	case "permission":
		writeJSON(w, http.StatusOK, s.engine.Do(func(st *workspace.Store) workspace.Outcome {
			return st.ReportPermission(paneID)
		}))
	case "stopped":
		writeJSON(w, http.StatusOK, s.engine.Do(func(st *workspace.Store) workspace.Outcome {
			return st.ReportStopped(paneID)
		}))
	case "viewer":
		s.handlePaneViewer(w, r, pane)
	default:
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "route not found")
	}
}

// handlePaneMove serves POST /api/panes/{id}/move.
func (s *Server) handlePaneMove(w http.ResponseWriter, r *http.Request, paneID string) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return
	}
	if req.NewTab == (req.TabID != "") {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "exactly one of tabId or newTab is required")
		return
	}
	out := s.engine.Do(func(st *workspace.Store) workspace.Outcome {
		if req.NewTab {
			return st.MovePaneToNewTab(paneID)
		}
		return st.MovePaneToTab(paneID, req.TabID)
	})
	if !out.Changed {
		writeAPIError(w, http.StatusConflict, "MOVE_REJECTED", "pane cannot be moved there")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handlePaneStatus serves POST /api/panes/{id}/status.
func (s *Server) handlePaneStatus(w http.ResponseWriter, r *http.Request, paneID string) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return
	}
	if !req.Status.Valid() {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "unknown status")
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Do(func(st *workspace.Store) workspace.Outcome {
		return st.SetPaneStatus(paneID, req.Status)
	}))
}

// handlePaneViewer serves PATCH /api/panes/{id}/viewer.
func (s *Server) handlePaneViewer(w http.ResponseWriter, r *http.Request, pane workspace.Pane) {
	if pane.FileViewer == nil {
		writeAPIError(w, http.StatusConflict, "NOT_A_FILE_VIEWER", "pane is not a file viewer")
		return
	}
	var req viewerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return
	}
	if req.ViewMode != nil && (*req.ViewMode == "" || !validViewMode(*req.ViewMode)) {
		writeAPIError(w, http.StatusBadRequest, "INVALID_REQUEST", "unknown viewMode")
		return
	}
	out := s.engine.Do(func(st *workspace.Store) workspace.Outcome {
		out := workspace.Outcome{TabID: pane.TabID, PaneID: pane.ID}
		if req.ViewMode != nil {
			if o := st.SetFileViewMode(pane.ID, *req.ViewMode); o.Changed {
				out = o
			}
		}
		if req.Pinned != nil {
			if o := st.PinFileViewer(pane.ID, *req.Pinned); o.Changed {
				out = o
			}
		}
		return out
	})
	writeJSON(w, http.StatusOK, out)
}
