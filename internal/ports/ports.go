package ports

import (
	"context"
	"time"

	"NewsReconciler/internal/domain"
)

// FeedSource pulls articles from one configured feed. A transport failure
// fails the whole source; a single malformed entry is skipped silently.
type FeedSource interface {
	Fetch(ctx context.Context, site, feedURL string) ([]domain.Article, error)
}

// RedirectResolver follows an aggregator link to its real target. It is
// side-effect free and falls back to returning the input URL on failure.
type RedirectResolver interface {
	Resolve(ctx context.Context, rawURL string) string
}

// ArchiveLookup queries an archival service for the closest snapshot of a
// URL. Both results are empty when no snapshot exists.
type ArchiveLookup interface {
	Lookup(ctx context.Context, pageURL string) (archivedURL, timestamp string, err error)
}

// EntityStore is the remote knowledge base. Write applies a merge-or-append
// policy on the server side; the caller only supplies well-formed claims.
type EntityStore interface {
	Search(ctx context.Context, text string) ([]string, error)
	Get(ctx context.Context, id string) (*domain.Entity, error)
	Write(ctx context.Context, entity *domain.Entity) (string, error)
}

// Reviewer asks a human a question and returns the answer, or the default
// once the timeout elapses or the context is cancelled.
type Reviewer interface {
	Ask(ctx context.Context, prompt, def string, timeout time.Duration) string
}

// Scheduler controls when reconciliation runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
