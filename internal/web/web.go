package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"dayview/internal/cache"
	"dayview/internal/config"
	"dayview/internal/grid"
	"dayview/internal/layout"
	appLog "dayview/internal/log"
	"dayview/internal/model"
	"dayview/internal/render"
	"dayview/internal/source"
)

const dateLayout = "2006-01-02"

// Server serves day layouts over HTTP from a periodically refreshed
// snapshot of the configured sources.
type Server struct {
	cfg *config.Config
	mux *http.ServeMux

	loader  *source.Loader
	sources []source.Source
	layouts *cache.Cache

	// now is swapped out in tests.
	now func() time.Time

	eventsMu    sync.RWMutex
	events      []model.Event
	refreshedAt time.Time
}

// embeddedStatic holds the single-page viewer that embeds /day.svg.
//
//go:embed all:static
var embeddedStatic embed.FS

// NewServer constructs a new Server. The snapshot is empty until Refresh.
func NewServer(cfg *config.Config) *Server {
	cacheDir := cfg.ResolvedCacheDir()
	s := &Server{
		cfg:     cfg,
		mux:     http.NewServeMux(),
		loader:  source.NewLoader(filepath.Join(cacheDir, "ics")),
		sources: source.FromConfig(cfg.Sources),
		layouts: cache.New(filepath.Join(cacheDir, "layout")),
		now:     time.Now,
		events:  []model.Event{},
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

// Refresh reloads every source and swaps in the new snapshot. Sources that
// fail are reported in the returned error but do not block the others.
func (s *Server) Refresh(ctx context.Context) error {
	events, errs := s.loader.LoadAll(ctx, s.sources)

	s.eventsMu.Lock()
	s.events = events
	s.refreshedAt = s.now()
	s.eventsMu.Unlock()

	appLog.Info("sources refreshed", "events", len(events), "failed", len(errs))
	return source.JoinErrors(errs)
}

// snapshot returns the events starting on day.
func (s *Server) snapshot(day time.Time) []model.Event {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	return source.OnDay(s.events, day)
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
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
			w.Header().Set("WWW-Authenticate", `Basic realm="dayview", charset="UTF-8"`)
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

// StartServer loads the sources, schedules their refresh on cfg.RefreshCron
// and serves until ctx is cancelled, then shuts down gracefully.
func StartServer(ctx context.Context, cfg *config.Config) error {
	s := NewServer(cfg)
	if err := s.Refresh(ctx); err != nil {
		appLog.Error("initial source refresh incomplete", err)
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.RefreshCron, func() {
		if err := s.Refresh(ctx); err != nil {
			appLog.Error("scheduled source refresh incomplete", err)
		}
		weekAgo := model.Day(s.now()).AddDate(0, 0, -7)
		if n := s.layouts.Prune(ctx, weekAgo); n > 0 {
			appLog.Debug("layout cache pruned", "entries", n)
		}
	}); err != nil {
		return err
	}
	c.Start()
	defer c.Stop()

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen, "refresh", cfg.RefreshCron)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/layout", s.handleLayout)
	s.mux.HandleFunc("/day.svg", s.handleSVG)

	// Everything else is the embedded viewer.
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// staticFileServer serves internal/web/static. /api/* never falls through
// to HTML.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/api" || strings.HasPrefix(path, "/api/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

// dayRequest is the parsed query of /api/layout and /day.svg.
type dayRequest struct {
	day    time.Time
	width  float64
	params layout.Params
}

// parseDayRequest reads ?date=YYYY-MM-DD (default today) and ?width=N
// (default cfg.Width, the full viewport including the label margin).
func (s *Server) parseDayRequest(r *http.Request) (dayRequest, error) {
	q := r.URL.Query()

	day := model.Day(s.now())
	if v := q.Get("date"); v != "" {
		d, err := time.ParseInLocation(dateLayout, v, time.Local)
		if err != nil {
			return dayRequest{}, errors.New("date must be YYYY-MM-DD")
		}
		day = d
	}

	width := s.cfg.Width
	if n := parseIntDefault(q.Get("width"), 0); n > 0 {
		width = float64(n)
	}
	p := s.cfg.LayoutParams()
	p.Width = width - s.cfg.LeftMargin
	if p.Width <= 0 {
		return dayRequest{}, errors.New("width must exceed the label margin")
	}
	return dayRequest{day: day, width: width, params: p}, nil
}

// layoutResponse is the JSON response shape for /api/layout.
type layoutResponse struct {
	Date        string      `json:"date"`
	Window      grid.Window `json:"window"`
	Width       float64     `json:"width"`
	LeftMargin  float64     `json:"left_margin"`
	RefreshedAt time.Time   `json:"refreshed_at"`
	Cached      bool        `json:"cached"`

	// InitialScroll puts the earliest block one hour below the top.
	InitialScroll float64       `json:"initial_scroll"`
	Events        []placedEvent `json:"events"`
}

// placedEvent is an event joined with its layout record. SourceIndex
// matches the data-index of the block in /day.svg.
type placedEvent struct {
	SourceIndex  int       `json:"source_index"`
	Title        string    `json:"title"`
	Summary      string    `json:"summary,omitempty"`
	Location     string    `json:"location,omitempty"`
	Color        string    `json:"color"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Top          float64   `json:"top"`
	Height       float64   `json:"height"`
	Left         float64   `json:"left"`
	Width        float64   `json:"width"`
	Column       int       `json:"column"`
	TotalColumns int       `json:"total_columns"`
}

// handleLayout returns the layout of one day.
//
// GET /api/layout?date=2024-05-14&width=390
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseDayRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events := s.snapshot(req.day)
	records, hit, err := s.layouts.Layout(req.day, events, req.params)
	if err != nil {
		s.writeLayoutError(w, err)
		return
	}

	placed := make([]placedEvent, 0, len(records))
	for i, rec := range records {
		ev := events[i]
		placed = append(placed, placedEvent{
			SourceIndex:  rec.SourceIndex,
			Title:        ev.DisplayTitle(),
			Summary:      ev.Summary,
			Location:     ev.Location,
			Color:        ev.BlockColor(),
			Start:        ev.Start,
			End:          ev.End,
			Top:          rec.Top,
			Height:       rec.Height,
			Left:         rec.Left,
			Width:        rec.Width,
			Column:       rec.Column,
			TotalColumns: rec.TotalColumns,
		})
	}

	s.eventsMu.RLock()
	refreshedAt := s.refreshedAt
	s.eventsMu.RUnlock()

	appLog.Debug("layout served", "date", req.day.Format(dateLayout), "events", len(placed), "cached", hit)
	writeJSON(w, http.StatusOK, layoutResponse{
		Date:          req.day.Format(dateLayout),
		Window:        req.params.Window(),
		Width:         req.width,
		LeftMargin:    s.cfg.LeftMargin,
		RefreshedAt:   refreshedAt,
		Cached:        hit,
		InitialScroll: req.params.Grid().InitialScroll(layout.Tops(records)),
		Events:        placed,
	})
}

// handleSVG renders one day as SVG.
//
// GET /day.svg?date=2024-05-14&width=390
func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseDayRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events := s.snapshot(req.day)
	records, _, err := s.layouts.Layout(req.day, events, req.params)
	if err != nil {
		s.writeLayoutError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	err = render.SVG(w, events, records, render.SVGOptions{
		Grid:       req.params.Grid(),
		Width:      req.width,
		LeftMargin: s.cfg.LeftMargin,
		Format24h:  s.cfg.Format24h,
		Day:        req.day,
		Now:        s.now(),
	})
	if err != nil {
		appLog.Error("svg render failed", err, "date", req.day.Format(dateLayout))
	}
}

func (s *Server) writeLayoutError(w http.ResponseWriter, err error) {
	var invalid *layout.InvalidEventError
	if errors.As(err, &invalid) {
		appLog.Warn("layout rejected", "index", invalid.Index, "error", err.Error())
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	appLog.Error("layout failed", err)
	writeError(w, http.StatusInternalServerError, "layout failed")
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
