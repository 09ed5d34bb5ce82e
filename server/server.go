package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	_ "modernc.org/sqlite"

	"github.com/zzjoey/downxv/server/archive"
	"github.com/zzjoey/downxv/server/archiver"
	"github.com/zzjoey/downxv/server/config"
	"github.com/zzjoey/downxv/server/events"
	"github.com/zzjoey/downxv/server/internal/engine"
	"github.com/zzjoey/downxv/server/internal/orchestrator"
	middlewares "github.com/zzjoey/downxv/server/middleware"
	"github.com/zzjoey/downxv/server/rest"
	"github.com/zzjoey/downxv/server/status"
	"github.com/zzjoey/downxv/server/updater"
	"github.com/zzjoey/downxv/server/user"
)

type RunConfig struct {
	// App optionally serves a web frontend from this filesystem.
	App fs.FS
}

type serverConfig struct {
	frontend     fs.FS
	db           *sql.DB
	bus          EventBus.Bus
	orchestrator *orchestrator.Orchestrator
}

func Run(ctx context.Context, rc *RunConfig) error {
	conf := config.Instance()

	// ---- LOGGING ---------------------------------------------------
	logWriters := []io.Writer{os.Stdout}

	if conf.Logging.EnableFileLogging {
		fd, err := os.OpenFile(conf.Logging.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer fd.Close()

		logWriters = append(logWriters, fd)
	}

	logger := slog.New(slog.NewTextHandler(io.MultiWriter(logWriters...), &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	// ----------------------------------------------------------------

	dbPath := filepath.Join(conf.Paths.LocalDatabasePath, "downxv.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}

	if err := archiver.Register(db); err != nil {
		return err
	}

	eng := &engine.YtDlp{Path: conf.Paths.DownloaderPath}

	bus := EventBus.New()
	sink := events.NewSink(bus)

	orch, err := orchestrator.New(orchestrator.Config{
		MaxConcurrent:   conf.Downloads.MaxConcurrent,
		StaggerInterval: conf.Downloads.StaggerInterval(),
		SettleTimeout:   conf.Downloads.SettleTimeout(),
	}, eng, sink)
	if err != nil {
		return err
	}

	// completed downloads reach the archive through the bus, so the
	// task lifecycle never blocks on persistence
	bus.SubscribeAsync(events.TopicTaskCompleted, func(p events.TaskCompletedPayload) {
		snapshot, err := orch.Task(p.Id)
		if err != nil {
			return
		}
		archiver.Publish(&archiver.Message{
			Title:  snapshot.Title,
			Source: snapshot.URL,
			Path:   p.Path,
		})
	}, false)

	if conf.CheckUpdates {
		go func() {
			release, newer, err := updater.CheckLatest(ctx)
			if err != nil {
				slog.Warn("update check failed", slog.Any("err", err))
				return
			}
			if newer {
				slog.Info("a newer release is available",
					slog.String("version", release.TagName),
					slog.String("url", release.HTMLURL),
				)
			}
		}()
	}

	scfg := serverConfig{
		frontend:     rc.App,
		db:           db,
		bus:          bus,
		orchestrator: orch,
	}

	srv, err := newServer(scfg)
	if err != nil {
		return err
	}

	go gracefulShutdown(ctx, srv, &scfg)

	var (
		network = "tcp"
		address = fmt.Sprintf("%s:%d", conf.Server.Host, conf.Server.Port)
	)

	// support unix sockets
	if strings.HasPrefix(conf.Server.Host, "/") {
		network = "unix"
		address = conf.Server.Host
	}

	listener, err := net.Listen(network, address)
	if err != nil {
		slog.Error("failed to listen", slog.String("err", err.Error()))
		return err
	}

	slog.Info("downxv started", slog.String("address", address))

	if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
		slog.Warn("http server stopped", slog.String("err", err.Error()))
	}

	return nil
}

func newServer(c serverConfig) (*http.Server, error) {
	r := chi.NewRouter()

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	r.Use(corsMiddleware.Handler)

	if c.frontend != nil {
		baseUrl := config.Instance().Server.BaseURL
		r.Mount(baseUrl+"/", http.StripPrefix(baseUrl, http.FileServer(http.FS(c.frontend))))
	}

	// Authentication routes
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", user.Login)
		r.Get("/logout", user.Logout)
	})

	// REST API handlers and the live event stream
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewares.ApplyAuthenticationByConfig)
		rest.ApplyRouter(&rest.ContainerArgs{
			Orchestrator: c.orchestrator,
		})(r)
		r.Get("/events", events.WebSocket(c.bus))
	})

	// Archive
	_, archiveHandler, err := archive.Container(c.db)
	if err != nil {
		return nil, err
	}
	r.Route("/archive", func(r chi.Router) {
		r.Use(middlewares.ApplyAuthenticationByConfig)
		archive.ApplyRouter(archiveHandler)(r)
	})

	// Status
	r.Route("/status", status.ApplyRouter(c.orchestrator))

	return &http.Server{Handler: r}, nil
}

func gracefulShutdown(ctx context.Context, srv *http.Server, cfg *serverConfig) {
	<-ctx.Done()
	slog.Info("shutdown signal received")

	cfg.orchestrator.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	srv.Shutdown(shutdownCtx)
	cfg.db.Close()
}
