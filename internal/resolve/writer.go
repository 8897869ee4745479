package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"NewsReconciler/internal/config"
	"NewsReconciler/internal/domain"
	"NewsReconciler/internal/normalize"
	"NewsReconciler/internal/ports"
	"NewsReconciler/internal/storage"
)

// ErrURLTooLong reports a canonical URL over the store's length bound. A
// truncated URL is not dereferenceable, so the run stops instead.
var ErrURLTooLong = errors.New("canonical URL exceeds length bound")

// WriterDeps wires the writer's collaborators.
type WriterDeps struct {
	Store      ports.EntityStore
	Archive    ports.ArchiveLookup
	Mappings   *storage.MappingStore
	Logger     *slog.Logger
	Properties config.PropertyConfig
	Items      config.ItemConfig
}

// Writer creates new knowledge-base records and amends existing ones with
// validated claims. Every successful write records the article's keys in
// the mapping store before returning.
type Writer struct {
	store    ports.EntityStore
	archive  ports.ArchiveLookup
	mappings *storage.MappingStore
	logger   *slog.Logger
	props    config.PropertyConfig
	items    config.ItemConfig
}

// NewWriter constructs the claim-building component.
func NewWriter(deps WriterDeps) *Writer {
	w := &Writer{
		store:    deps.Store,
		archive:  deps.Archive,
		mappings: deps.Mappings,
		logger:   deps.Logger,
		props:    deps.Properties,
		items:    deps.Items,
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w
}

// Create builds a new entity for the article and returns its id.
func (w *Writer) Create(ctx context.Context, article *domain.Article) (string, error) {
	if utf8.RuneCountInString(article.URL) > normalize.URLMax {
		return "", fmt.Errorf("%w: %q", ErrURLTooLong, article.URL)
	}

	entity := &domain.Entity{Label: normalize.Truncate(article.Title)}

	w.addInstanceOf(entity, article)
	w.addURLClaims(entity, article)
	w.addTitleClaims(entity, article)

	id, err := w.store.Write(ctx, entity)
	if err != nil {
		return "", fmt.Errorf("create entity for %q: %w", article.Title, err)
	}
	w.logger.Info("created entity", "title", article.Title, "entity", id)

	if err := w.mappings.PutAll(article.MappingKeys(), id); err != nil {
		return "", fmt.Errorf("persist mapping for %s: %w", id, err)
	}
	return id, nil
}

// Amend merges freshly discovered facts into an existing or newly created
// record: publication date, archive snapshot, and external identifiers.
func (w *Writer) Amend(ctx context.Context, entityID string, article *domain.Article) error {
	entity := &domain.Entity{ID: entityID}

	if strings.TrimSpace(article.Published) != "" {
		published, err := normalize.FormatDate(article.Published)
		if err != nil {
			return err
		}
		entity.AddClaim(domain.Claim{
			Property: w.props.DatePublished,
			Type:     domain.ClaimTime,
			Value:    published,
		})
	}

	if err := w.addArchiveClaim(ctx, entity, article); err != nil {
		return err
	}

	for _, id := range []struct{ prop, value string }{
		{w.props.DOI, article.DOI},
		{w.props.PMID, article.PMID},
		{w.props.PMCID, article.PMCID},
	} {
		if id.value == "" {
			continue
		}
		entity.AddClaim(domain.Claim{
			Property: id.prop,
			Type:     domain.ClaimExternalID,
			Value:    id.value,
		})
	}

	if len(entity.Claims) > 0 {
		if _, err := w.store.Write(ctx, entity); err != nil {
			return fmt.Errorf("amend entity %s: %w", entityID, err)
		}
		w.logger.Info("amended entity", "entity", entityID, "claims", len(entity.Claims))
	}

	if err := w.mappings.PutAll(article.MappingKeys(), entityID); err != nil {
		return fmt.Errorf("persist mapping for %s: %w", entityID, err)
	}
	return nil
}

// addInstanceOf attaches the instance-of claim. Biomedical index entries
// only get one when their source note marks them as journal content.
func (w *Writer) addInstanceOf(entity *domain.Entity, article *domain.Article) {
	if article.Biomedical() {
		if !strings.Contains(strings.ToLower(article.SourceNote), "journal") {
			return
		}
	}
	entity.AddClaim(domain.Claim{
		Property: w.props.InstanceOf,
		Type:     domain.ClaimItem,
		Value:    w.items.NewsArticle,
	})
}

// addURLClaims attaches the canonical URL and the deprecated-rank redirect
// URLs. Biomedical entries skip the canonical URL claim; their identifier
// claims carry the linkage instead.
func (w *Writer) addURLClaims(entity *domain.Entity, article *domain.Article) {
	if !article.Biomedical() {
		entity.AddClaim(domain.Claim{
			Property: w.props.URL,
			Type:     domain.ClaimURL,
			Value:    article.URL,
		})
	}

	for _, redirect := range article.RedirectChain {
		if utf8.RuneCountInString(redirect) > normalize.URLMax {
			continue
		}
		if !strings.Contains(redirect, domain.AggregatorDomain) {
			continue
		}
		entity.AddClaim(domain.Claim{
			Property: w.props.URL,
			Type:     domain.ClaimURL,
			Value:    redirect,
			Rank:     domain.RankDeprecated,
			Qualifiers: []domain.Qualifier{{
				Property: w.props.ReasonFor,
				Type:     domain.ClaimItem,
				Value:    w.items.RedirectURL,
			}},
		})
	}
}

// addTitleClaims stores the title, split into ordered chunks when it
// exceeds the single-claim cap, plus the aggregator alias when present.
func (w *Writer) addTitleClaims(entity *domain.Entity, article *domain.Article) {
	if utf8.RuneCountInString(article.Title) > normalize.ChunkMax {
		for ordinal, chunk := range normalize.SplitTitle(article.Title, normalize.ChunkMax) {
			entity.AddClaim(domain.Claim{
				Property: w.props.Title,
				Type:     domain.ClaimMonolingual,
				Value:    chunk,
				Language: "en",
				Qualifiers: []domain.Qualifier{{
					Property: w.props.SeriesOrdinal,
					Type:     domain.ClaimQuantity,
					Value:    strconv.Itoa(ordinal + 1),
				}},
			})
		}
	} else {
		entity.AddClaim(domain.Claim{
			Property: w.props.Title,
			Type:     domain.ClaimMonolingual,
			Value:    article.Title,
			Language: "en",
		})
	}

	if article.Alias != "" {
		entity.Aliases = append(entity.Aliases, article.Alias)
		entity.AddClaim(domain.Claim{
			Property: w.props.Title,
			Type:     domain.ClaimMonolingual,
			Value:    article.Alias,
			Language: "en",
			Rank:     domain.RankDeprecated,
		})
	}
}

// addArchiveClaim asks the archive for the closest snapshot. Lookup
// failures are soft and mean "no archive"; a malformed capture timestamp
// from a successful lookup is not, since it would be written as a claim.
func (w *Writer) addArchiveClaim(ctx context.Context, entity *domain.Entity, article *domain.Article) error {
	archivedURL, timestamp, err := w.archive.Lookup(ctx, article.URL)
	if err != nil {
		w.logger.Warn("archive lookup failed", "url", article.URL, "error", err)
		return nil
	}
	if archivedURL == "" {
		return nil
	}
	capturedAt, err := normalize.FormatArchivalDate(timestamp)
	if err != nil {
		return err
	}
	entity.AddClaim(domain.Claim{
		Property: w.props.ArchivedURL,
		Type:     domain.ClaimURL,
		Value:    archivedURL,
		Qualifiers: []domain.Qualifier{{
			Property: w.props.ArchivedDate,
			Type:     domain.ClaimTime,
			Value:    capturedAt,
		}},
	})
	return nil
}
