package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/photomap/internal/db"
	"github.com/joeblew999/photomap/internal/logging"
	"github.com/joeblew999/photomap/internal/server"
	"github.com/joeblew999/photomap/internal/service"
)

const version = "0.1.0"

// Options defines all CLI flags and env vars for the photomap server.
// Flags: --host, --port, --data-dir, --web-dir, --photos, --store, --watch, --refresh
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, SERVICE_WEB_DIR, ...
type Options struct {
	Host    string `doc:"Host to bind to" default:"0.0.0.0"`
	Port    int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir string `doc:"Directory for photo data and the DuckDB database" default:".data"`
	WebDir  string `doc:"Optional web/ directory overriding templates and serving static files" default:"web"`
	Photos  string `doc:"Photos JSON or YAML file (file store); defaults to <data-dir>/photos.json"`
	Store   string `doc:"Photo store: file or duckdb" default:"file"`
	Watch   bool   `doc:"Reload the photos file when it changes"`
	Refresh string `doc:"Reload photos on this interval, e.g. 30s; empty disables"`
}

func newServer(opts *Options) (*server.Server, error) {
	var refresh time.Duration
	if opts.Refresh != "" {
		d, err := time.ParseDuration(opts.Refresh)
		if err != nil {
			return nil, fmt.Errorf("invalid --refresh: %w", err)
		}
		refresh = d
	}
	return server.New(server.Config{
		Host:       opts.Host,
		Port:       fmt.Sprintf("%d", opts.Port),
		DataDir:    opts.DataDir,
		WebDir:     opts.WebDir,
		PhotosFile: opts.Photos,
		Store:      opts.Store,
		Watch:      opts.Watch,
		Refresh:    refresh,
		Version:    version,
		Logger:     slog.Default(),
	})
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}

// serve runs the server until it is shut down. The server is closed before
// serve returns, including on errors.
func serve(ctx context.Context, opts *Options, httpServer **http.Server) error {
	srv, err := newServer(opts)
	if err != nil {
		return fmt.Errorf("server setup: %w", err)
	}
	defer srv.Close()
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server start: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	displayHost := opts.Host
	if displayHost == "0.0.0.0" {
		displayHost = "localhost"
	}
	baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

	slog.Info("photomap server starting",
		"server", baseURL,
		"data", opts.DataDir,
		"store", opts.Store,
		"viewer", baseURL+"/viewer",
		"docs", baseURL+"/docs",
		"openapi", baseURL+"/openapi.json",
	)

	*httpServer = &http.Server{Addr: addr, Handler: srv}
	if err := (*httpServer).ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// writeSpec prints the OpenAPI document as JSON or YAML.
func writeSpec(opts *Options, useYAML bool) error {
	srv, err := newServer(opts)
	if err != nil {
		return fmt.Errorf("server setup: %w", err)
	}
	defer srv.Close()
	spec := srv.OpenAPI()

	var output []byte
	if useYAML {
		output, err = yaml.Marshal(spec)
	} else {
		output, err = json.MarshalIndent(spec, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal spec: %w", err)
	}
	fmt.Println(string(output))
	return nil
}

// importPhotos loads a photos file into the DuckDB store under the data dir.
func importPhotos(ctx context.Context, opts *Options, file string) error {
	raws, err := service.NewFileSource(file).Load(ctx)
	if err != nil {
		return err
	}

	conn, err := db.Open(db.Config{DataDir: opts.DataDir, DBName: "photomap"})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer conn.Close()

	store, err := service.NewDuckDBSource(ctx, conn)
	if err != nil {
		return err
	}
	if err := store.Import(ctx, raws); err != nil {
		return fmt.Errorf("import photos: %w", err)
	}
	slog.Info("photos imported", "file", file, "records", len(raws), "data", opts.DataDir)
	return nil
}

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()
	logging.Setup()

	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		ctx, cancel := context.WithCancel(context.Background())
		var httpServer *http.Server

		hooks.OnStart(func() {
			if err := serve(ctx, opts, &httpServer); err != nil {
				fatal("server error", err)
			}
		})

		hooks.OnStop(func() {
			cancel()
			if httpServer == nil {
				return
			}
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			httpServer.Shutdown(shutdownCtx)
		})
	})

	cli.Root().Use = "photomap"
	cli.Root().Short = "Geotagged photo map server"
	cli.Root().Version = version

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			useYAML, _ := cmd.Flags().GetBool("yaml")
			if err := writeSpec(opts, useYAML); err != nil {
				fatal("export spec failed", err)
			}
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// import subcommand: load a photos file into the DuckDB store
	importCmd := &cobra.Command{
		Use:   "import <photos.json|photos.yaml>",
		Short: "Import a photos file into the DuckDB store",
		Args:  cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			if err := importPhotos(context.Background(), opts, args[0]); err != nil {
				fatal("import failed", err)
			}
		}),
	}
	cli.Root().AddCommand(importCmd)

	cli.Run()
}
