package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/asheshgoplani/workdeck/internal/engine"
	"github.com/asheshgoplani/workdeck/internal/nodes"
	"github.com/asheshgoplani/workdeck/internal/workspace"
)

// NodeLister supplies registered nodes.
type NodeLister interface {
	List() ([]nodes.Node, error)
}

// Config configures the web server.
type Config struct {
	ListenAddr string
	ReadOnly   bool
	Token      string

	// Engine serves every workspace route. A nil Engine gets a fresh
	// in-memory one.
	Engine *engine.Engine
	// Nodes is optional; without it only nodes that own tabs are listed.
	Nodes NodeLister
}

// Server is the workdeck HTTP API.
type Server struct {
	cfg        Config
	engine     *engine.Engine
	nodes      NodeLister
	mux        *http.ServeMux
	httpServer *http.Server
	upgrader   websocket.Upgrader
	startedAt  time.Time
}

// NewServer builds the server and its routes.
func NewServer(cfg Config) *Server {
	eng := cfg.Engine
	if eng == nil {
		eng = engine.New(workspace.NewStore(nil))
	}
	s := &Server{
		cfg:       cfg,
		engine:    eng,
		nodes:     cfg.Nodes,
		mux:       http.NewServeMux(),
		startedAt: time.Now().UTC(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     sameOriginOrLocal,
		},
	}

	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/api/nodes", s.handleNodes)
	s.mux.HandleFunc("/api/nodes/", s.handleNodeByID)
	s.mux.HandleFunc("/api/tabs/", s.handleTabByID)
	s.mux.HandleFunc("/api/panes/", s.handlePaneByID)
	s.mux.HandleFunc("/ws", s.handleEvents)
	s.mux.Handle("/static/", http.StripPrefix("/static/", s.staticFileServer()))
	s.mux.HandleFunc("/", s.handleIndex)

	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	log.Printf("[WEB] Listening on %s (read-only=%v)", s.cfg.ListenAddr, s.cfg.ReadOnly)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	st := s.engine.Snapshot()
	writeJSON(w, http.StatusOK, healthResponse{
		OK:        true,
		ReadOnly:  s.cfg.ReadOnly,
		Tabs:      st.TabCount(),
		Panes:     st.PaneCount(),
		StartedAt: s.startedAt,
	})
}

// authorizeRequest accepts any request when no token is configured, and
// otherwise a matching bearer token or ?token= query parameter.
func (s *Server) authorizeRequest(r *http.Request) bool {
	if s.cfg.Token == "" {
		return true
	}
	got := ""
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		got = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	} else {
		got = r.URL.Query().Get("token")
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.Token)) == 1
}

// allowMutation rejects writes in read-only mode.
func (s *Server) allowMutation(w http.ResponseWriter) bool {
	if s.cfg.ReadOnly {
		writeAPIError(w, http.StatusForbidden, "READ_ONLY", "server is in read-only mode")
		return false
	}
	return true
}

func sameOriginOrLocal(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	host := r.Host
	return origin == "http://"+host || origin == "https://"+host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[WEB] Encode response: %v", err)
	}
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiErrorResponse{Error: apiError{Code: code, Message: message}})
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiErrorResponse struct {
	Error apiError `json:"error"`
}

type healthResponse struct {
	OK        bool      `json:"ok"`
	ReadOnly  bool      `json:"readOnly"`
	Tabs      int       `json:"tabs"`
	Panes     int       `json:"panes"`
	StartedAt time.Time `json:"startedAt"`
}
