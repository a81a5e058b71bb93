// Command codeartd serves the CodeArt scene studio over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/codeart/internal/api"
	"github.com/talgya/codeart/internal/config"
	"github.com/talgya/codeart/internal/persistence"
	"github.com/talgya/codeart/internal/studio"
)

const autosaveInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("CodeArt studio starting")

	// ── Database ──────────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		slog.Error("failed to create data directory", "error", err)
		os.Exit(1)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	size := "new"
	if fi, err := os.Stat(cfg.DBPath); err == nil {
		size = humanize.Bytes(uint64(fi.Size()))
	}
	slog.Info("database opened", "path", cfg.DBPath, "size", size)

	// ── Session ───────────────────────────────────────────────────────
	store := studio.NewStore(db, nil)
	restored, err := db.RestoreSession(store)
	if err != nil {
		slog.Error("failed to restore session, starting fresh", "error", err)
	}

	p := store.Params()
	presets, err := store.Presets()
	if err != nil {
		slog.Error("failed to list presets", "error", err)
		os.Exit(1)
	}
	slog.Info("session ready",
		"restored", restored,
		"seed", p.Seed,
		"grid", fmt.Sprintf("%dx%d", p.Grid.Rows, p.Grid.Cols),
		"algorithm", p.Blocks.HeightAlgorithm,
		"presets", len(presets),
	)

	if elements := store.Scene(); len(elements.Blocks) > 0 {
		slog.Info("initial scene",
			"blocks", humanize.Comma(int64(len(elements.Blocks))),
			"lines", humanize.Comma(int64(len(elements.GridLines))),
			"dots", humanize.Comma(int64(len(elements.Dots))),
		)
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("CODEART_ADMIN_KEY not set, preset writes will be disabled")
	}

	apiServer := &api.Server{
		Store:       store,
		Port:        cfg.Port,
		AdminKey:    cfg.AdminKey,
		MaxCells:    cfg.MaxCells,
		SceneRate:   cfg.SceneRate,
		CORSOrigins: cfg.CORSOrigins,
	}
	apiServer.Start()

	fmt.Printf("\nCodeArt studio is up: seed %d, %s presets.\n", p.Seed, humanize.Comma(int64(len(presets))))
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Port)

	// ── Run ───────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(autosaveInterval)
	defer ticker.Stop()

	for running := true; running; {
		select {
		case <-ticker.C:
			if err := db.SaveSession(store); err != nil {
				slog.Error("autosave failed", "error", err)
			}
		case sig := <-sigCh:
			slog.Info("received signal, shutting down", "signal", sig)
			running = false
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}

	// Final save on shutdown.
	if err := db.SaveSession(store); err != nil {
		slog.Error("final save failed", "error", err)
	}

	fmt.Println("Studio stopped. Session saved.")
}
