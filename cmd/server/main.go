package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/programme-lv/grader/conf"
	"github.com/programme-lv/grader/grading"
	"github.com/programme-lv/grader/http"
	"github.com/programme-lv/grader/logger"
	"github.com/programme-lv/grader/pagecache"
	"github.com/programme-lv/grader/submfs"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to load .env file", "error", err)
		os.Exit(1)
	}

	cfgPath := flag.String("config", envOr("GRADER_CONFIG", "grader.toml"), "path to the TOML config file")
	flag.Parse()

	log, err := logger.New(os.Stderr, envOr("GRADER_LOG_LEVEL", "info"), os.Getenv("GRADER_LOG_FORMAT"))
	if err != nil {
		slog.Error("failed to create logger", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(log)

	cfg, err := conf.Load(*cfgPath)
	if err != nil {
		log.Error("failed to load config", "path", *cfgPath, "error", err)
		os.Exit(1)
	}
	if err := cfg.EnsureDirs(); err != nil {
		log.Error("failed to create storage dirs", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	catalog, err := submfs.Scan(ctx, cfg)
	if err != nil {
		log.Error("failed to scan submissions", "error", err)
		os.Exit(1)
	}

	store := grading.NewStore(cfg)
	cache := pagecache.New(cfg, pagecache.NewPoppler(cfg))
	httpServer := http.NewHttpServer(cfg, *cfgPath, catalog, store, cache, log)

	log.Info("starting server", "address", cfg.HTTP.Addr, "assignments", len(catalog.Assignments))
	if err := httpServer.Start(ctx, cfg.HTTP.Addr); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func envOr(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
