package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"NewsReconciler/internal/domain"
	"NewsReconciler/internal/ports"
)

const biomedicalURLPrefix = "https://" + domain.BiomedicalDomain + "/"

// Source implements ports.FeedSource on top of RSS/Atom feeds. Aggregator
// entries are resolved through up to two redirect hops; biomedical index
// entries are rebuilt from their Dublin Core identifiers.
type Source struct {
	client    *http.Client
	parser    *gofeed.Parser
	redirects ports.RedirectResolver
	logger    *slog.Logger
}

var _ ports.FeedSource = (*Source)(nil)

// NewSource wires an HTTP client and the redirect resolver.
func NewSource(client *http.Client, redirects ports.RedirectResolver, logger *slog.Logger) *Source {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		client:    client,
		parser:    gofeed.NewParser(),
		redirects: redirects,
		logger:    logger,
	}
}

// Fetch downloads and parses one feed. A transport or parse failure fails
// the whole source; individual malformed entries are skipped.
func (s *Source) Fetch(ctx context.Context, site, feedURL string) ([]domain.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsReconciler/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", site, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s returned %s", site, resp.Status)
	}

	parsed, err := s.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", site, err)
	}

	articles := make([]domain.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		article, ok := s.buildArticle(ctx, site, item)
		if !ok {
			continue
		}
		articles = append(articles, article)
	}
	return articles, nil
}

// buildArticle turns one feed item into an Article, reporting false for
// entries missing the fields resolution needs.
func (s *Source) buildArticle(ctx context.Context, site string, item *gofeed.Item) (domain.Article, bool) {
	title := strings.Join(strings.Fields(item.Title), " ")
	if title == "" || item.Link == "" {
		return domain.Article{}, false
	}

	article := domain.Article{
		Title:     title,
		Feed:      site,
		Published: item.Published,
	}

	switch {
	case strings.Contains(item.Link, domain.AggregatorDomain):
		article.RedirectChain = []string{item.Link}
		first := s.redirects.Resolve(ctx, item.Link)
		if strings.Contains(first, domain.AggregatorDomain) {
			article.RedirectChain = append(article.RedirectChain, first)
			article.URL = s.redirects.Resolve(ctx, first)
		} else {
			article.URL = first
		}

	case strings.Contains(item.Link, domain.BiomedicalDomain):
		article.RedirectChain = []string{item.Link}
		fillIdentifiers(&article, item)
		if article.PMID == "" {
			s.logger.Debug("skipping index entry without PMID", "site", site, "title", title)
			return domain.Article{}, false
		}
		article.URL = biomedicalURLPrefix + article.PMID + "/"

	default:
		article.URL = item.Link
	}

	return article, true
}

// fillIdentifiers extracts DOI, PMID, and the source note from the entry's
// Dublin Core fields and guid.
func fillIdentifiers(article *domain.Article, item *gofeed.Item) {
	if dc := item.DublinCoreExt; dc != nil {
		for _, identifier := range dc.Identifier {
			if value, ok := strings.CutPrefix(identifier, "doi:"); ok {
				article.DOI = value
			}
			if value, ok := strings.CutPrefix(identifier, "pmc:"); ok {
				article.PMCID = value
			}
		}
		if len(dc.Source) > 0 {
			article.SourceNote = dc.Source[0]
		}
	}
	if _, after, found := strings.Cut(item.GUID, ":"); found {
		article.PMID = after
	}
}
