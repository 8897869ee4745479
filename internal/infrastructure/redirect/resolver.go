package redirect

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsReconciler/internal/domain"
	"NewsReconciler/internal/ports"
)

// Resolver follows an aggregator link to its real target. HTTP redirects
// are followed by the client; when the landing page is an interstitial, the
// target is pulled from a meta refresh or the first external anchor. Any
// failure falls back to the input URL.
type Resolver struct {
	client *http.Client
	logger *slog.Logger
}

var _ ports.RedirectResolver = (*Resolver)(nil)

// NewResolver wires an HTTP client; redirects are followed automatically.
func NewResolver(client *http.Client, logger *slog.Logger) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{client: client, logger: logger}
}

// Resolve returns the final URL behind rawURL, or rawURL itself on failure.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		r.logger.Warn("cannot build redirect request", "url", rawURL, "error", err)
		return rawURL
	}
	req.Header.Set("User-Agent", "NewsReconciler/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("redirect resolution failed", "url", rawURL, "error", err)
		return rawURL
	}
	defer resp.Body.Close()

	final := resp.Request.URL.String()
	if !strings.Contains(final, domain.AggregatorDomain) {
		return final
	}

	// Still on the aggregator: the page itself carries the target.
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		r.logger.Warn("cannot parse interstitial page", "url", rawURL, "error", err)
		return final
	}
	if target := extractTarget(doc); target != "" {
		return target
	}
	return final
}

// extractTarget looks for a meta refresh first, then the first absolute
// link pointing off the aggregator.
func extractTarget(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[http-equiv="refresh"]`).First().Attr("content"); ok {
		if target := refreshURL(content); target != "" {
			return target
		}
	}

	var target string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if strings.HasPrefix(href, "http") && !strings.Contains(href, domain.AggregatorDomain) {
			target = href
			return false
		}
		return true
	})
	return target
}

// refreshURL parses the URL out of a meta refresh content attribute, e.g.
// "0; url=https://example.org/story".
func refreshURL(content string) string {
	_, after, found := strings.Cut(content, ";")
	if !found {
		return ""
	}
	after = strings.TrimSpace(after)
	lowered := strings.ToLower(after)
	if !strings.HasPrefix(lowered, "url=") {
		return ""
	}
	target := strings.Trim(after[len("url="):], `'" `)
	if _, err := url.ParseRequestURI(target); err != nil {
		return ""
	}
	return target
}
