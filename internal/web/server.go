package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/beamline-io/dataweb/internal/archive"
	"github.com/beamline-io/dataweb/internal/config"
	"github.com/beamline-io/dataweb/internal/lib/logger/sl"
	"github.com/beamline-io/dataweb/internal/model"
	"github.com/beamline-io/dataweb/internal/render"
	"github.com/beamline-io/dataweb/internal/store"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

type ComponentHealth struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status     Status            `json:"status"`
	Components []ComponentHealth `json:"components"`
	Timestamp  time.Time         `json:"timestamp"`
}

type HealthChecker interface {
	Name() string
	Check(ctx context.Context) (Status, string)
}

// callbackRe is the shape a JSONP callback name may take.
var callbackRe = regexp.MustCompile(`^\w+$`)

// Server serves the dashboard pages, the JSON/JSONP API and the health
// endpoints.
type Server struct {
	log      *slog.Logger
	cfg      *config.WebConfig
	store    *store.Store
	archive  archive.Archive // may be nil
	server   *http.Server
	checkers []HealthChecker
	mu       sync.RWMutex
}

func NewServer(log *slog.Logger, cfg *config.WebConfig, st *store.Store, arch archive.Archive) *Server {
	return &Server{
		log:      log,
		cfg:      cfg,
		store:    st,
		archive:  arch,
		checkers: make([]HealthChecker, 0),
	}
}

func (s *Server) AddChecker(checker HealthChecker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers = append(s.checkers, checker)
}

func (s *Server) router() chi.Router {
	r := chi.NewRouter()

	r.Get("/", s.handleIndex)
	r.Get("/instrument/{name}", s.handleInstrument)
	r.Get("/api/instruments", s.handleAPIInstruments)
	r.Get("/api/instrument/{name}", s.handleAPIInstrument)
	r.Get("/ws/instrument/{name}", s.handleInstrumentWS)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Get("/live", s.handleLive)

	return r
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.log.Info("starting web server", slog.String("address", s.cfg.Address))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("web server error", sl.Err(err))
		}
	}()

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{}
	for _, name := range s.store.Names() {
		entry, _ := s.store.Get(name)
		row := indexRow{Name: name, Active: entry.Ok()}
		if entry.Ok() {
			if rs, ok := entry.Snapshot.InstPV("RUNSTATE"); ok {
				row.RunState = rs.Value
				row.Color = render.RunStateColor(rs.Value)
			}
		}
		data.Instruments = append(data.Instruments, row)
	}
	s.renderPage(w, tmplIndex, data)
}

func (s *Server) handleInstrument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	entry, known := s.store.Get(name)
	if !known {
		http.NotFound(w, r)
		return
	}

	showHidden := parseCheckbox(r.URL.Query().Get("show_hidden"))

	if entry.Ok() {
		disp := render.Build(entry.Snapshot, render.OptionsForSnapshot(entry.Snapshot, showHidden))
		s.renderPage(w, tmplDashboard, dashboardData{
			Instrument: name,
			Display:    disp,
			ShowHidden: showHidden,
			FetchedAt:  entry.FetchedAt,
		})
		return
	}

	// Last poll failed: if the archive still has a snapshot, show it
	// marked stale; otherwise the whole page is the error view.
	if s.archive != nil {
		if stale := s.staleDisplay(r.Context(), name, showHidden); stale != nil {
			stale.Target = entry.Target
			s.renderPage(w, tmplDashboard, *stale)
			return
		}
	}

	s.renderPage(w, tmplError, errorData{
		Instrument: name,
		Target:     entry.Target,
	})
}

func (s *Server) staleDisplay(ctx context.Context, name string, showHidden bool) *dashboardData {
	rec, err := s.archive.Latest(ctx, name)
	if err != nil {
		s.log.Error("failed to load archived snapshot", slog.String("instrument", name), sl.Err(err))
		return nil
	}
	if rec == nil {
		return nil
	}

	snap, err := model.SnapshotFromJSON(rec.Snapshot)
	if err != nil {
		s.log.Error("failed to decode archived snapshot", slog.String("instrument", name), sl.Err(err))
		return nil
	}

	disp := render.Build(snap, render.OptionsForSnapshot(snap, showHidden))
	return &dashboardData{
		Instrument: name,
		Display:    disp,
		ShowHidden: showHidden,
		FetchedAt:  rec.FetchedAt,
		Stale:      true,
	}
}

func (s *Server) handleAPIInstruments(w http.ResponseWriter, r *http.Request) {
	payload, err := json.Marshal(s.store.ActiveMap())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSONOrJSONP(w, r, payload)
}

func (s *Server) handleAPIInstrument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	entry, known := s.store.Get(name)
	if !known {
		http.Error(w, name+" not known", http.StatusBadRequest)
		return
	}
	if !entry.Ok() {
		http.Error(w, "instrument has become unavailable", http.StatusBadRequest)
		return
	}

	payload, err := entry.Snapshot.ToJSON()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSONOrJSONP(w, r, payload)
}

// writeJSONOrJSONP writes the payload as plain JSON, or wrapped as
// callback(payload) when a valid callback parameter is present.
func (s *Server) writeJSONOrJSONP(w http.ResponseWriter, r *http.Request, payload []byte) {
	callback := r.URL.Query().Get("callback")
	if callback == "" {
		w.Header().Set("Content-Type", "application/json")
		w.Write(payload)
		return
	}

	if !callbackRe.MatchString(callback) {
		http.Error(w, "invalid callback", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/javascript")
	fmt.Fprintf(w, "%s(%s)", callback, payload)
}

func parseCheckbox(v string) bool {
	switch v {
	case "", "0", "false", "off":
		return false
	default:
		return true
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	checkers := make([]HealthChecker, len(s.checkers))
	copy(checkers, s.checkers)
	s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:     StatusHealthy,
		Components: make([]ComponentHealth, 0, len(checkers)),
		Timestamp:  time.Now().UTC(),
	}

	for _, checker := range checkers {
		status, message := checker.Check(ctx)
		response.Components = append(response.Components, ComponentHealth{
			Name:    checker.Name(),
			Status:  status,
			Message: message,
		})

		if status == StatusUnhealthy {
			response.Status = StatusUnhealthy
		} else if status == StatusDegraded && response.Status == StatusHealthy {
			response.Status = StatusDegraded
		}
	}

	statusCode := http.StatusOK
	if response.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// ScraperHealthChecker reports degraded when no instrument has been
// polled recently.
type ScraperHealthChecker struct {
	lastFetch func() time.Time
	maxAge    time.Duration
}

func NewScraperHealthChecker(lastFetch func() time.Time, maxAge time.Duration) *ScraperHealthChecker {
	return &ScraperHealthChecker{lastFetch: lastFetch, maxAge: maxAge}
}

func (c *ScraperHealthChecker) Name() string {
	return "scraper"
}

func (c *ScraperHealthChecker) Check(ctx context.Context) (Status, string) {
	last := c.lastFetch()
	if last.IsZero() {
		return StatusDegraded, "no polls completed yet"
	}
	if age := time.Since(last); age > c.maxAge {
		return StatusDegraded, fmt.Sprintf("last poll %s ago", age.Round(time.Second))
	}
	return StatusHealthy, ""
}

type ArchiveHealthChecker struct {
	countFunc func(ctx context.Context) (int64, error)
}

func NewArchiveHealthChecker(countFunc func(ctx context.Context) (int64, error)) *ArchiveHealthChecker {
	return &ArchiveHealthChecker{countFunc: countFunc}
}

func (c *ArchiveHealthChecker) Name() string {
	return "archive"
}

func (c *ArchiveHealthChecker) Check(ctx context.Context) (Status, string) {
	if _, err := c.countFunc(ctx); err != nil {
		return StatusUnhealthy, err.Error()
	}
	return StatusHealthy, ""
}
