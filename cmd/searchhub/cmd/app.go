package cmd

import (
	"fmt"
	"log/slog"

	"github.com/seiforesti/searchhub/internal/config"
	"github.com/seiforesti/searchhub/internal/history"
	"github.com/seiforesti/searchhub/internal/registry"
	"github.com/seiforesti/searchhub/internal/search"
	"github.com/seiforesti/searchhub/internal/session"
	"github.com/seiforesti/searchhub/internal/source"
	"github.com/seiforesti/searchhub/internal/suggest"
	"github.com/seiforesti/searchhub/internal/telemetry"
)

// app holds the wired component graph every command runs against.
type app struct {
	cfg      *config.Config
	registry *registry.Registry
	engine   *search.Engine
	sessions *session.Manager
	suggest  *suggest.Engine
	history  history.Provider
	metrics  *telemetry.SearchMetrics

	stopWatch func()
}

// buildApp loads config and wires the full engine. The returned cleanup
// must run before exit.
func buildApp() (*app, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	reg, err := registry.LoadFile(cfg.Registry.Path)
	if err != nil {
		return nil, nil, err
	}

	adapters, err := source.BuildAdapters(reg.All(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build source adapters: %w", err)
	}

	var hist history.Provider
	if cfg.History.DBPath != "" {
		store, err := history.Open(cfg.History.DBPath, cfg.History.CacheSize)
		if err != nil {
			return nil, nil, err
		}
		hist = store
	} else {
		hist = history.NullProvider{}
	}

	metrics := telemetry.NewSearchMetrics()
	dispatcher := search.NewDispatcher(cfg.Dispatch, adapters)
	engine := search.NewEngine(cfg, reg, dispatcher,
		search.WithPopularity(hist),
		search.WithRecorder(hist),
		search.WithMetrics(metrics))

	a := &app{
		cfg:      cfg,
		registry: reg,
		engine:   engine,
		sessions: session.NewManager(engine),
		suggest: suggest.NewEngine(cfg.Suggest,
			suggest.NewHistoryGenerator(hist),
			suggest.NewPopularGenerator(hist),
			suggest.NewContextualGenerator(reg)),
		history: hist,
		metrics: metrics,
	}

	if cfg.Registry.WatchReload {
		stop, err := registry.Watch(reg, cfg.Registry.Path)
		if err != nil {
			slog.Warn("registry watch disabled", slog.String("error", err.Error()))
		} else {
			a.stopWatch = stop
		}
	}

	cleanup := func() {
		if a.stopWatch != nil {
			a.stopWatch()
		}
		if err := a.history.Close(); err != nil {
			slog.Warn("history close failed", slog.String("error", err.Error()))
		}
	}
	return a, cleanup, nil
}
