package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/joeblew999/photomap/internal/api"
	"github.com/joeblew999/photomap/internal/api/live"
	"github.com/joeblew999/photomap/internal/db"
	"github.com/joeblew999/photomap/internal/humastar"
	"github.com/joeblew999/photomap/internal/logging"
	"github.com/joeblew999/photomap/internal/metrics"
	"github.com/joeblew999/photomap/internal/service"
	"github.com/joeblew999/photomap/internal/templates"
	"github.com/joeblew999/photomap/internal/viewer"
)

// Photo stores.
const (
	StoreFile   = "file"
	StoreDuckDB = "duckdb"
)

// Client library versions the viewer page loads.
const (
	MapLibreVersion = "5.6.0"
	DatastarVersion = "1.0.0"
)

// Config holds the server configuration.
type Config struct {
	Host       string
	Port       string
	DataDir    string
	WebDir     string // optional web/ directory overriding templates and serving static/
	PhotosFile string // defaults to <DataDir>/photos.json
	Store      string // file or duckdb
	Watch      bool   // reload the photos file when it changes
	Refresh    time.Duration
	Version    string

	Logger   *slog.Logger
	Registry prometheus.Registerer
}

// Server is the photo map HTTP server.
type Server struct {
	config    Config
	log       *slog.Logger
	mux       *http.ServeMux
	handler   http.Handler
	humaAPI   huma.API
	db        *sql.DB
	photos    *service.PhotoService
	sessions  *viewer.Store
	metrics   *metrics.Collector
	renderer  *templates.Renderer
	webDir    string // set when templates were loaded from WebDir
	watcher   *service.FileWatcher
	views     *service.FileWatcher
	refresher *service.Refresher
}

// New creates a new photo map server. Photos are not loaded until Start.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Store == "" {
		cfg.Store = StoreFile
	}
	if cfg.PhotosFile == "" {
		cfg.PhotosFile = filepath.Join(cfg.DataDir, "photos.json")
	}
	if cfg.Version == "" {
		cfg.Version = "0.1.0"
	}

	m, err := metrics.New(cfg.Registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	s := &Server{config: cfg, log: cfg.Logger, mux: http.NewServeMux(), metrics: m}

	source, err := s.openSource()
	if err != nil {
		return nil, err
	}
	s.photos = service.NewPhotoService(source, service.NewEventBus(), s.log, m)
	s.sessions = viewer.NewStore(s.photos, m)

	if s.renderer, err = s.openRenderer(); err != nil {
		s.closeDB()
		return nil, err
	}

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("photomap API", cfg.Version)
	humaConfig.Info.Description = "Geotagged photo map: dataset, map surface and live viewer sessions."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, humastar.LinkTransformer(api.Links))
	s.humaAPI = humago.New(s.mux, humaConfig)

	s.routes()
	s.handler = logging.AccessMiddleware(s.log)(s.mux)
	return s, nil
}

func (s *Server) openSource() (service.Source, error) {
	switch s.config.Store {
	case StoreFile:
		return service.NewFileSource(s.config.PhotosFile), nil
	case StoreDuckDB:
		conn, err := db.Open(db.Config{DataDir: s.config.DataDir, DBName: "photomap"})
		if err != nil {
			return nil, err
		}
		src, err := service.NewDuckDBSource(context.Background(), conn)
		if err != nil {
			conn.Close()
			return nil, err
		}
		s.db = conn
		return src, nil
	default:
		return nil, fmt.Errorf("unknown photo store %q", s.config.Store)
	}
}

func (s *Server) openRenderer() (*templates.Renderer, error) {
	if s.config.WebDir != "" {
		if _, err := os.Stat(s.config.WebDir); err == nil {
			r, err := templates.New(s.config.WebDir)
			if err != nil {
				return nil, fmt.Errorf("load templates from %s: %w", s.config.WebDir, err)
			}
			s.log.Info("loaded templates", "dir", s.config.WebDir)
			s.webDir = s.config.WebDir
			return r, nil
		}
	}
	return templates.Default()
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Photos returns the dataset service.
func (s *Server) Photos() *service.PhotoService { return s.photos }

// Sessions returns the viewer session store.
func (s *Server) Sessions() *viewer.Store { return s.sessions }

// Start loads the photos in the background and starts the configured
// reloaders. Viewers see "not yet available" until the first load lands.
func (s *Server) Start(ctx context.Context) error {
	s.photos.LoadAsync(ctx)

	if s.config.Watch && s.config.Store == StoreFile {
		w, err := service.NewFileWatcher(s.config.PhotosFile, s.photos, s.log)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			// Missing data directories are common on first run.
			s.log.Warn("photos file not watched", "err", err)
			w.Stop()
		} else {
			s.watcher = w
		}
	}
	if s.config.Watch && s.webDir != "" {
		if err := s.watchTemplates(ctx); err != nil {
			return err
		}
	}
	if s.config.Refresh > 0 {
		r, err := service.NewRefresher(s.photos, s.log)
		if err != nil {
			return err
		}
		if err := r.Every(ctx, s.config.Refresh); err != nil {
			return err
		}
		s.refresher = r
	}
	return nil
}

// templateLoader reloads the web directory's templates.
type templateLoader struct {
	renderer *templates.Renderer
	dir      string
}

func (l templateLoader) Load(context.Context) error { return l.renderer.Reload(l.dir) }

func (s *Server) watchTemplates(ctx context.Context) error {
	var dirs []string
	for _, sub := range []string{"fragments", "pages"} {
		dir := filepath.Join(s.webDir, sub)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	if len(dirs) == 0 {
		return nil
	}
	w, err := service.NewDirWatcher(dirs, ".html", templateLoader{s.renderer, s.webDir}, s.log)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return err
	}
	s.views = w
	return nil
}

// Close ends all viewer sessions and releases server resources.
func (s *Server) Close() error {
	var ids []string
	s.sessions.Each(func(v *viewer.Session) { ids = append(ids, v.ID) })
	for _, id := range ids {
		s.sessions.Delete(id)
	}

	var errs []error
	if s.watcher != nil {
		errs = append(errs, s.watcher.Stop())
	}
	if s.views != nil {
		errs = append(errs, s.views.Stop())
	}
	if s.refresher != nil {
		errs = append(errs, s.refresher.Stop())
	}
	errs = append(errs, s.closeDB())
	return errors.Join(errs...)
}

func (s *Server) closeDB() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Server) routes() {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	huma.AutoRegister(s.humaAPI, api.NewAPIHandler(&api.Services{Photos: s.photos}))
	api.NewInfoHandler(s.config.Version, s.config.Store, s.photoCount).RegisterRoutes(s.humaAPI)

	// Viewer SSE routes using Huma + Datastar SDK
	live.NewHandler(s.sessions, s.photos.Bus(), humastar.Handler{Renderer: s.renderer}, s.log).
		RegisterRoutes(s.humaAPI)

	s.mux.Handle("/metrics", s.metrics.Handler())

	if s.config.WebDir != "" {
		staticDir := filepath.Join(s.config.WebDir, "static")
		s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}

	// Page routes
	s.mux.HandleFunc("/viewer", s.handleViewer)
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) photoCount() int {
	ds := s.photos.Dataset()
	if ds == nil {
		return -1
	}
	return ds.Len()
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "photomap",
		"status":  "running",
		"viewer":  "/viewer",
	})
}

type viewerPage struct {
	Title           string
	MapLibreVersion string
	DatastarVersion string
}

func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	html, err := s.renderer.Render("viewer", viewerPage{
		Title:           "Photo map",
		MapLibreVersion: MapLibreVersion,
		DatastarVersion: DatastarVersion,
	})
	if err != nil {
		s.log.Error("render viewer page", "err", err)
		http.Error(w, "viewer unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}
