// Package web is the rendering boundary: a small HTTP API over the
// current item store. It never renders anything itself; it hands the view
// layer everything it needs per item, by position.
package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"upnext/internal/agenda"
	"upnext/internal/config"
	appLog "upnext/internal/log"
	"upnext/internal/model"
)

// Server provides the items API.
type Server struct {
	cfg    *config.Config
	runner *agenda.Runner
	clock  agenda.Clock
	mux    *http.ServeMux
}

// NewServer constructs a new Server around a running refresh worker.
func NewServer(cfg *config.Config, runner *agenda.Runner, clock agenda.Clock) *Server {
	if clock == nil {
		clock = agenda.RealClock{}
	}
	s := &Server{
		cfg:    cfg,
		runner: runner,
		clock:  clock,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password counts as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="upnext", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/items", s.handleItems)
	s.mux.HandleFunc("/api/refresh", s.handleRefresh)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// itemRow is the per-item rendering payload.
type itemRow struct {
	ID          int64             `json:"id"`
	Title       string            `json:"title"`
	Detail      string            `json:"detail"`
	Start       time.Time         `json:"start"`
	End         time.Time         `json:"end"`
	AllDay      bool              `json:"all_day"`
	Anniversary bool              `json:"anniversary"`
	Highlighted bool              `json:"highlighted"`
	Target      model.ClickTarget `json:"target"`
}

// highlightStyle is pass-through styling configuration for highlighted rows.
type highlightStyle struct {
	Enabled          bool   `json:"enabled"`
	Bold             bool   `json:"bold"`
	FontColor        string `json:"font_color,omitempty"`
	DetailsFontColor string `json:"details_font_color,omitempty"`
}

type itemsResponse struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Visible     bool           `json:"visible"`
	Highlight   highlightStyle `json:"highlight"`
	Items       []itemRow      `json:"items"`
}

// handleItems returns the current store contents in display order.
func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}

	now := s.clock.Now()
	opts := s.runner.Options()
	store := s.runner.Store()

	rows := make([]itemRow, 0, store.Len())
	for _, it := range store.Items() {
		rows = append(rows, itemRow{
			ID:          it.ID,
			Title:       it.Title,
			Detail:      it.Detail,
			Start:       it.Start,
			End:         it.End,
			AllDay:      it.AllDay,
			Anniversary: it.Anniversary,
			Highlighted: opts.HighlightUpcoming && agenda.Upcoming(it, now, opts),
			Target:      it.Target(),
		})
	}

	writeJSON(w, http.StatusOK, itemsResponse{
		GeneratedAt: now,
		Visible:     !store.Empty(),
		Highlight: highlightStyle{
			Enabled:          opts.HighlightUpcoming,
			Bold:             s.cfg.UpcomingBold,
			FontColor:        s.cfg.UpcomingFontColor,
			DetailsFontColor: s.cfg.UpcomingDetailsFontColor,
		},
		Items: rows,
	})
}

// handleRefresh requests an asynchronous refresh.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	s.runner.Trigger()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh scheduled"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("response encode failed", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
