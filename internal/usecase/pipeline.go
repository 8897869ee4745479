package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsReconciler/internal/config"
	"NewsReconciler/internal/domain"
	"NewsReconciler/internal/normalize"
	"NewsReconciler/internal/ports"
	"NewsReconciler/internal/resolve"
	"NewsReconciler/internal/storage"
)

// PipelineDeps wires all driven adapters into the reconciliation pipeline.
type PipelineDeps struct {
	Source       ports.FeedSource
	Matcher      *resolve.Matcher
	Writer       *resolve.Writer
	Mappings     *storage.MappingStore
	Unmatched    *storage.UnmatchedLedger
	Resolved     *storage.ResolvedLog
	Logger       *slog.Logger
	Sites        []config.SiteConfig
	ResolveDelay time.Duration
}

// Pipeline implements the sequential article-reconciliation workflow.
// Articles are processed one at a time in feed order; the mapping store is
// consulted and updated synchronously between articles.
type Pipeline struct {
	source       ports.FeedSource
	matcher      *resolve.Matcher
	writer       *resolve.Writer
	mappings     *storage.MappingStore
	unmatched    *storage.UnmatchedLedger
	resolved     *storage.ResolvedLog
	logger       *slog.Logger
	sites        []config.SiteConfig
	resolveDelay time.Duration
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:       deps.Source,
		matcher:      deps.Matcher,
		writer:       deps.Writer,
		mappings:     deps.Mappings,
		unmatched:    deps.Unmatched,
		resolved:     deps.Resolved,
		logger:       logger,
		sites:        deps.Sites,
		resolveDelay: deps.ResolveDelay,
	}
}

// ProcessAll runs one reconciliation pass over every configured site.
// A source that fails to fetch is skipped for this run; fatal data errors
// abort the pass.
func (p *Pipeline) ProcessAll(ctx context.Context) error {
	for _, site := range p.sites {
		articles, err := p.source.Fetch(ctx, site.Name, site.URL)
		if err != nil {
			p.logger.Warn("skipping source for this run", "site", site.Name, "error", err)
			continue
		}
		p.logger.Debug("fetched articles", "site", site.Name, "count", len(articles))

		for i := range articles {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			article := &articles[i]
			if p.alreadyResolved(article) {
				continue
			}
			if err := p.processOne(ctx, article); err != nil {
				return fmt.Errorf("article %q: %w", article.Title, err)
			}
		}
	}
	return p.resolved.Flush()
}

// alreadyResolved checks the mapping store for the canonical URL and every
// redirect URL before any remote work happens.
func (p *Pipeline) alreadyResolved(article *domain.Article) bool {
	if _, ok := p.mappings.Get(article.URL); ok {
		return true
	}
	for _, redirect := range article.RedirectChain {
		if _, ok := p.mappings.Get(redirect); ok {
			return true
		}
	}
	return false
}

func (p *Pipeline) processOne(ctx context.Context, article *domain.Article) error {
	title, err := normalize.Title(article.Title)
	if err != nil {
		return err
	}
	article.Title = title
	if article.FromAggregator() {
		article.Title, article.Alias = normalize.SplitAggregatorTitle(title)
	}

	entityID, outcome, err := p.matcher.Resolve(ctx, article)
	if err != nil {
		return err
	}

	switch outcome {
	case resolve.OutcomeSkipped:
		p.logger.Info("article left unmatched", "title", article.Title)
		return p.unmatched.Record(*article)
	case resolve.OutcomeCreate:
		entityID, err = p.writer.Create(ctx, article)
		if err != nil {
			return err
		}
	}

	if err := p.writer.Amend(ctx, entityID, article); err != nil {
		return err
	}

	article.EntityID = entityID
	p.resolved.Append(*article)

	p.pause(ctx)
	return nil
}

// pause respects the remote store's rate expectations between articles.
func (p *Pipeline) pause(ctx context.Context) {
	if p.resolveDelay <= 0 {
		return
	}
	timer := time.NewTimer(p.resolveDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
