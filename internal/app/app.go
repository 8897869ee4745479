package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"NewsReconciler/internal/config"
	"NewsReconciler/internal/domain"
	"NewsReconciler/internal/infrastructure/archive"
	"NewsReconciler/internal/infrastructure/console"
	"NewsReconciler/internal/infrastructure/feed"
	"NewsReconciler/internal/infrastructure/redirect"
	"NewsReconciler/internal/infrastructure/scheduler"
	"NewsReconciler/internal/infrastructure/wikibase"
	"NewsReconciler/internal/logging"
	"NewsReconciler/internal/resolve"
	"NewsReconciler/internal/storage"
	"NewsReconciler/internal/usecase"
)

// Application is the explicit process context: configuration, logger,
// durable stores, remote clients, and the pipeline built from them. It is
// initialized once on start; stores are flushed before exit.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *wikibase.Client
	pipeline  *usecase.Pipeline
	unmatched *storage.UnmatchedLedger
	resolved  *storage.ResolvedLog
}

// New wires configuration into a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	mappings, err := storage.OpenMapping(cfg.Storage.Dir, cfg.Storage.MappingBase, cfg.Storage.MaxShardBytes)
	if err != nil {
		return nil, fmt.Errorf("open mapping store: %w", err)
	}
	unmatched, err := storage.OpenUnmatched(cfg.Storage.Dir, cfg.Storage.UnmatchedBase, cfg.Storage.MaxShardBytes)
	if err != nil {
		return nil, fmt.Errorf("open unmatched ledger: %w", err)
	}
	resolved, err := storage.OpenResolvedLog(cfg.Storage.Dir, cfg.Storage.ResolvedBase, cfg.Storage.MaxShardBytes)
	if err != nil {
		return nil, fmt.Errorf("open resolved log: %w", err)
	}
	baseLogger.Info("state loaded",
		"mappings", mappings.Len(),
		"unmatched", len(unmatched.Records()),
		"resolved", resolved.Len())

	httpClient := &http.Client{Timeout: 30 * time.Second}

	store := wikibase.NewClient(cfg.Wikibase, baseLogger.With("component", "wikibase"))
	archiveClient := archive.NewClient(cfg.Archive.APIURL, httpClient)
	redirects := redirect.NewResolver(httpClient, baseLogger.With("component", "redirect"))
	source := feed.NewSource(httpClient, redirects, baseLogger.With("component", "feed"))
	reviewer := console.NewReviewer(os.Stdin, os.Stdout)

	matcher := resolve.NewMatcher(resolve.MatcherDeps{
		Store:         store,
		Reviewer:      reviewer,
		Mappings:      mappings,
		Logger:        baseLogger.With("component", "matcher"),
		MatchTimeout:  cfg.Pipeline.MatchTimeout(),
		CreateTimeout: cfg.Pipeline.CreateTimeout(),
		Properties:    cfg.Properties,
	})
	writer := resolve.NewWriter(resolve.WriterDeps{
		Store:      store,
		Archive:    archiveClient,
		Mappings:   mappings,
		Logger:     baseLogger.With("component", "writer"),
		Properties: cfg.Properties,
		Items:      cfg.Items,
	})

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:       source,
		Matcher:      matcher,
		Writer:       writer,
		Mappings:     mappings,
		Unmatched:    unmatched,
		Resolved:     resolved,
		Logger:       baseLogger.With("component", "pipeline"),
		Sites:        cfg.Sites,
		ResolveDelay: cfg.Pipeline.ResolveDelay(),
	})

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		store:     store,
		pipeline:  pipeline,
		unmatched: unmatched,
		resolved:  resolved,
	}, nil
}

// RunOnce performs a single reconciliation pass.
func (a *Application) RunOnce(ctx context.Context) error {
	if err := a.store.Login(ctx); err != nil {
		return err
	}
	return a.pipeline.ProcessAll(ctx)
}

// Run performs an immediate pass and then keeps reconciling on the daily
// schedule until the context ends or a run fails fatally.
func (a *Application) Run(ctx context.Context) error {
	if err := a.store.Login(ctx); err != nil {
		return err
	}

	driver := scheduler.NewDailyScheduler(a.cfg.Scheduler.DailyAt, a.cfg.Scheduler.Location())
	sched := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop(context.Background())

	return sched.Wait(ctx)
}

// Unmatched exposes the ledger for review commands.
func (a *Application) Unmatched() []domain.UnmatchedRecord {
	return a.unmatched.Records()
}
