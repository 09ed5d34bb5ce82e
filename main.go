package main

import (
	"context"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/zzjoey/downxv/server"
	"github.com/zzjoey/downxv/server/config"

	"github.com/spf13/viper"
)

func main() {
	// Parse optional config path from flag
	var configFile string
	flag.StringVar(&configFile, "conf", "./config.yml", "Config file path")
	flag.Parse()

	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")

	// Defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 3055)
	v.SetDefault("paths.download_path", ".")
	v.SetDefault("paths.downloader_path", "yt-dlp")
	v.SetDefault("paths.local_database_path", ".")
	v.SetDefault("logging.log_path", "downxv.log")
	v.SetDefault("logging.enable_file_logging", false)
	v.SetDefault("downloads.max_concurrent", 3)
	v.SetDefault("downloads.stagger_ms", 200)
	v.SetDefault("downloads.settle_timeout_ms", 3000)
	v.SetDefault("downloads.cookie_source", "none")
	v.SetDefault("downloads.quality", "Best (default)")
	v.SetDefault("authentication.require_auth", false)
	v.SetDefault("check_updates", true)
	v.SetDefault("auto_archive", true)

	// Env binding
	v.SetEnvPrefix("DOWNXV")
	v.AutomaticEnv()

	// Load YAML file if exists
	if err := v.ReadInConfig(); err != nil {
		slog.Debug("using defaults")
	}

	cfg := config.Instance()
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to load config", "error", err)
	}

	cfg.SetPath(configFile)

	if cfg.Downloads.MaxConcurrent <= 0 {
		cfg.Downloads.MaxConcurrent = 3
	}

	// leave an editable config behind on first run
	if err := cfg.WriteDefault(); err != nil {
		slog.Warn("could not write default config", "error", err)
	}

	// optional web frontend
	var appFS fs.FS
	if fp := v.GetString("frontend_path"); fp != "" {
		appFS = os.DirFS(fp)
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"max_concurrent", cfg.Downloads.MaxConcurrent,
	)

	if err := server.Run(ctx, &server.RunConfig{
		App: appFS,
	}); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited cleanly")
}
