package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"cuesheet/internal/config"
	"cuesheet/internal/logging"
	"cuesheet/internal/model"
	"cuesheet/internal/store"
	"cuesheet/internal/svgsurface"
	"cuesheet/internal/timeline"

	"github.com/dustin/go-humanize"
	"github.com/starfederation/datastar-go/datastar"
)

//go:embed templates/*.html static/*.js static/*.css
var assetsFS embed.FS

const (
	defaultWidth  = 1200
	defaultHeight = 520

	commitTimeout  = 10 * time.Second
	keepAliveEvery = 25 * time.Second
)

type ServerConfig struct {
	Addr     string
	Store    store.Store
	Config   *config.Config
	Logger   *slog.Logger
	ReadOnly bool

	// Width and Height size a game's canvas until its page reports the real size.
	Width  float64
	Height float64
}

type Server struct {
	mu   sync.RWMutex
	cfg  ServerConfig
	tmpl *template.Template

	lanes    *timeline.LaneSet
	logger   *slog.Logger
	sessions map[string]*session
	watcher  *storeWatcher
	views    *viewSaver

	// commits tracks persistence effects running off the request goroutine.
	commits sync.WaitGroup
}

func NewServer(cfg ServerConfig) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.Store.Dir = strings.TrimSpace(cfg.Store.Dir)
	if cfg.Addr == "" {
		return nil, errors.New("web: addr is empty")
	}
	if cfg.Store.Dir == "" {
		return nil, errors.New("web: store dir is empty")
	}
	if cfg.Config == nil {
		def := config.Default()
		cfg.Config = &def
	}
	if cfg.Width <= 0 {
		cfg.Width = defaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = defaultHeight
	}
	lanes, err := cfg.Config.LaneSet()
	if err != nil {
		return nil, fmt.Errorf("web: %w", err)
	}

	tmpl, err := template.New("base").Funcs(template.FuncMap{
		"trim":     strings.TrimSpace,
		"offset":   timeline.FormatOffset,
		"duration": timeline.FormatDuration,
		"markdown": renderMarkdownHTML,
		"ago":      humanize.Time,
		"json":     toJSON,
		"laneName": func(id string) string { return lanes.Resolve(id).Name },
	}).ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	srv := &Server{
		cfg:      cfg,
		tmpl:     tmpl,
		lanes:    lanes,
		logger:   logging.WithComponent(cfg.Logger, "web"),
		sessions: map[string]*session{},
	}
	srv.views = newViewSaver(func(ctx context.Context, gameID string, vs store.ViewState) error {
		return srv.store().SaveViewState(ctx, gameID, vs)
	}, 0, srv.logger)
	srv.watcher = newStoreWatcher(cfg.Store.Path(), srv.reloadIdleSessions)
	go srv.watcher.watchLoop()
	return srv, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

func (s *Server) readOnly() bool {
	s.mu.RLock()
	ro := s.cfg.ReadOnly
	s.mu.RUnlock()
	return ro
}

func (s *Server) store() store.Store {
	s.mu.RLock()
	st := s.cfg.Store
	s.mu.RUnlock()
	return st
}

// Close stops the store watcher, waits for in-flight commits and writes any
// pending view state.
func (s *Server) Close() {
	s.watcher.Stop()
	s.commits.Wait()
	s.views.Flush()
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	hs := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() { errCh <- hs.ListenAndServe() }()
	s.logger.Info("web server listening", "addr", s.Addr())

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := hs.Shutdown(shutdownCtx)
	s.Close()
	return err
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /static/app.css", s.handleAsset("static/app.css", "text/css; charset=utf-8"))
	mux.HandleFunc("GET /static/app.js", s.handleAsset("static/app.js", "application/javascript; charset=utf-8"))
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /games/{gameId}", s.handleGame)
	mux.HandleFunc("GET /games/{gameId}/frame.svg", s.handleFrameSVG)
	mux.HandleFunc("GET /games/{gameId}/stream", s.handleStream)
	mux.HandleFunc("POST /games/{gameId}/pointer", s.handlePointer)
	mux.HandleFunc("POST /games/{gameId}/prompt", s.handlePrompt)
	mux.HandleFunc("POST /games/{gameId}/menu", s.handleMenu)
	mux.HandleFunc("POST /games/{gameId}/view", s.handleView)
	mux.HandleFunc("POST /games/{gameId}/events", s.handleEventForm)
	return mux
}

func (s *Server) handleAsset(name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := assetsFS.ReadFile(name)
		if err != nil || len(b) == 0 {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

type homeVM struct {
	Games    []model.Game
	ReadOnly bool
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	games, err := s.store().ListGames(r.Context())
	if err != nil {
		s.httpError(w, r, err)
		return
	}
	s.writeHTMLTemplate(w, "home.html", homeVM{Games: games, ReadOnly: s.readOnly()})
}

type gameVM struct {
	Game      model.Game
	Lanes     []timeline.Lane
	Templates []model.Template
	Intervals []timeline.Interval
	ReadOnly  bool
	Live      liveVM
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	ss, err := s.sessionFor(r.Context(), r.PathValue("gameId"))
	if err != nil {
		s.httpError(w, r, err)
		return
	}
	templates, err := s.store().ListTemplates(r.Context())
	if err != nil {
		s.httpError(w, r, err)
		return
	}
	s.writeHTMLTemplate(w, "game.html", gameVM{
		Game:      ss.game,
		Lanes:     s.lanes.Lanes(),
		Templates: templates,
		Intervals: timeline.Intervals(),
		ReadOnly:  s.readOnly(),
		Live:      s.liveView(ss),
	})
}

func (s *Server) handleFrameSVG(w http.ResponseWriter, r *http.Request) {
	ss, err := s.sessionFor(r.Context(), r.PathValue("gameId"))
	if err != nil {
		s.httpError(w, r, err)
		return
	}
	ss.mu.Lock()
	f := ss.ctrl.Frame(measurer, canvasTheme)
	ss.mu.Unlock()

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, svgsurface.Render(ss.logger, f))
}

// handleStream pushes the live region of a game page whenever its session changes.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	ss, err := s.sessionFor(r.Context(), r.PathValue("gameId"))
	if err != nil {
		s.httpError(w, r, err)
		return
	}
	sse := datastar.NewSSE(w, r)

	ch, cancel := ss.hub.subscribe()
	defer cancel()

	push := func() {
		vm := s.liveView(ss)
		html, err := s.renderTemplate("live", vm)
		if err != nil {
			_ = sse.ExecuteScript(fmt.Sprintf(`console.error(%q)`, err.Error()))
			return
		}
		_ = sse.PatchElements(html, datastar.WithSelector("#live"), datastar.WithMode(datastar.ElementPatchModeInner))
		_ = sse.MarshalAndPatchSignals(vm.signals())
	}
	push()

	keepAlive := time.NewTicker(keepAliveEvery)
	defer keepAlive.Stop()

	for {
		select {
		case <-sse.Context().Done():
			return
		case <-keepAlive.C:
			_ = sse.PatchSignals([]byte(`{}`))
		case <-ch:
			push()
		}
	}
}

func (s *Server) renderTemplate(name string, data any) (string, error) {
	var b strings.Builder
	if err := s.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *Server) writeHTMLTemplate(w http.ResponseWriter, name string, data any) {
	html, err := s.renderTemplate(name, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, html)
}

func (s *Server) httpError(w http.ResponseWriter, r *http.Request, err error) {
	var nf store.NotFoundError
	var ve store.ValidationError
	switch {
	case errors.As(err, &nf):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &ve):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, logging.Err(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
