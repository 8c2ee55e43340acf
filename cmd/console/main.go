package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zatekoja/adminconsole/internal/adapters/database"
	"github.com/zatekoja/adminconsole/internal/adapters/preferences"
	"github.com/zatekoja/adminconsole/internal/console"
	"github.com/zatekoja/adminconsole/internal/domain/entities"
	"github.com/zatekoja/adminconsole/internal/domain/providers"
	"github.com/zatekoja/adminconsole/internal/infrastructure/clients/listapi"
	"github.com/zatekoja/adminconsole/internal/infrastructure/clients/sqlite"
	"github.com/zatekoja/adminconsole/internal/infrastructure/observability"
	resultcache "github.com/zatekoja/adminconsole/internal/query/cache"
	"github.com/zatekoja/adminconsole/internal/query/controller"
	"github.com/zatekoja/adminconsole/internal/query/sortpref"
	"github.com/zatekoja/adminconsole/pkg/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var logOut io.Writer = io.Discard
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	observability.InitLoggerTo(logOut, cfg.OTEL.ServiceName+"-console", "production", cfg.Log.Level)
	logger := observability.GetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Sort preferences survive restarts in SQLite; without it they last one session.
	var sortStore providers.SortStore = preferences.NewMemorySortStore()
	db, err := sqlite.NewClient(ctx, cfg.SQLite.Path)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.SQLite.Path).Msg("sqlite unavailable, sort preferences will not persist")
	} else {
		defer db.Close()
		store, err := preferences.NewSQLiteSortStore(ctx, db.DB())
		if err != nil {
			logger.Warn().Err(err).Msg("failed to prepare sort preference table")
		} else {
			sortStore = store
		}
	}

	def := database.AuditLogList()
	fetcher := listapi.NewClient[entities.AuditEntry](cfg.Upstream.BaseURL, def.ListID, listapi.Options{
		Timeout:           cfg.Upstream.Timeout,
		RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
		Burst:             cfg.Upstream.Burst,
	})

	pages, err := resultcache.New[entities.AuditEntry](resultcache.Options[entities.AuditEntry]{
		StaleTime:    cfg.List.StaleTime,
		MaxEntries:   cfg.List.CacheSize,
		FetchTimeout: cfg.List.FetchTimeout,
	})
	if err != nil {
		return err
	}

	list, err := controller.New[entities.AuditEntry](controller.Config{
		ListID:          def.ListID,
		PageSize:        cfg.List.PageSize,
		SortField:       def.DefaultSort.Field,
		DefaultSort:     def.DefaultSort.Direction,
		SearchMinLength: cfg.List.SearchMinLength,
		SearchDebounce:  cfg.List.SearchDebounce,
		FetchTimeout:    cfg.List.FetchTimeout,
	}, fetcher, pages, sortpref.NewPersister(sortStore))
	if err != nil {
		return err
	}
	defer list.Close()

	logger.Info().Str("list", def.ListID).Str("upstream", cfg.Upstream.BaseURL).Msg("console starting")

	p := tea.NewProgram(console.NewModel(ctx, "Histórico", list, cfg.List.StaleTime), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("console failed: %w", err)
	}
	return nil
}
