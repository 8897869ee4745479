package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NewsReconciler/internal/config"
	"NewsReconciler/internal/domain"
	"NewsReconciler/internal/normalize"
	"NewsReconciler/internal/ports"
	"NewsReconciler/internal/storage"
)

// Outcome is the matcher's verdict for one article.
type Outcome int

const (
	// OutcomeMatched means an existing entity was found.
	OutcomeMatched Outcome = iota
	// OutcomeCreate means no entity matched and a new one should be created.
	OutcomeCreate
	// OutcomeSkipped means the reviewer declined both matching and creation.
	OutcomeSkipped
)

// MatcherDeps wires the matcher's collaborators.
type MatcherDeps struct {
	Store         ports.EntityStore
	Reviewer      ports.Reviewer
	Mappings      *storage.MappingStore
	Logger        *slog.Logger
	MatchTimeout  time.Duration
	CreateTimeout time.Duration
	Properties    config.PropertyConfig
}

// Matcher decides whether an incoming article corresponds to an existing
// knowledge-base entity. Cheap local and exact-identifier evidence is tried
// before any interactive step; fuzzy title search alone never auto-merges.
type Matcher struct {
	store         ports.EntityStore
	reviewer      ports.Reviewer
	mappings      *storage.MappingStore
	logger        *slog.Logger
	matchTimeout  time.Duration
	createTimeout time.Duration
	props         config.PropertyConfig
}

// NewMatcher constructs the disambiguation component.
func NewMatcher(deps MatcherDeps) *Matcher {
	m := &Matcher{
		store:         deps.Store,
		reviewer:      deps.Reviewer,
		mappings:      deps.Mappings,
		logger:        deps.Logger,
		matchTimeout:  deps.MatchTimeout,
		createTimeout: deps.CreateTimeout,
		props:         deps.Properties,
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.matchTimeout <= 0 {
		m.matchTimeout = 120 * time.Second
	}
	if m.createTimeout <= 0 {
		m.createTimeout = 20 * time.Second
	}
	return m
}

// Resolve returns the matched entity id, or an outcome telling the caller
// to create a new record or route the article to the unmatched ledger.
func (m *Matcher) Resolve(ctx context.Context, article *domain.Article) (string, Outcome, error) {
	// Local mapping hits short-circuit before any remote call.
	if id, ok := m.mappings.Get(article.URL); ok {
		m.logger.Info("resolved from mapping", "url", article.URL, "entity", id)
		return id, OutcomeMatched, nil
	}
	for _, redirect := range article.RedirectChain {
		if id, ok := m.mappings.Get(redirect); ok {
			m.logger.Info("resolved from mapping", "redirect", redirect, "entity", id)
			return id, OutcomeMatched, nil
		}
	}

	candidates, err := m.store.Search(ctx, normalize.Truncate(article.Title))
	if err != nil {
		return "", 0, fmt.Errorf("search %q: %w", article.Title, err)
	}

	for _, id := range candidates {
		entity, err := m.store.Get(ctx, id)
		if err != nil {
			return "", 0, fmt.Errorf("fetch candidate %s: %w", id, err)
		}

		if contains(entity.ValuesFor(m.props.URL), article.URL) {
			m.logger.Info("matched on URL claim", "title", article.Title, "entity", id)
			return id, OutcomeMatched, nil
		}

		if article.HasIdentifiers() {
			if idProp, matched := m.matchIdentifier(entity, article); matched {
				m.logger.Info("matched on identifier", "property", idProp, "entity", id)
				return id, OutcomeMatched, nil
			}
		}

		prompt := fmt.Sprintf("Match found: %s (ID: %s). Is this correct? (y/n): ", entity.Label, id)
		answer := m.reviewer.Ask(ctx, prompt, "n", m.matchTimeout)
		if strings.EqualFold(answer, "y") {
			return id, OutcomeMatched, nil
		}
	}

	prompt := fmt.Sprintf("No automatic match found for '%s'. Do you want to create a new entity? (y/n): ", article.Title)
	answer := m.reviewer.Ask(ctx, prompt, "y", m.createTimeout)
	if strings.EqualFold(answer, "y") {
		return "", OutcomeCreate, nil
	}
	return "", OutcomeSkipped, nil
}

// matchIdentifier tests the article's identifiers against the candidate's
// identifier claims. DOIs compare case-insensitively; PMID and PMCID are
// exact. The asymmetry mirrors upstream behavior and is kept until the
// intended semantics are confirmed.
func (m *Matcher) matchIdentifier(entity *domain.Entity, article *domain.Article) (string, bool) {
	if article.DOI != "" {
		for _, v := range entity.ValuesFor(m.props.DOI) {
			if strings.EqualFold(v, article.DOI) {
				return "DOI", true
			}
		}
	}
	if article.PMID != "" && contains(entity.ValuesFor(m.props.PMID), article.PMID) {
		return "PMID", true
	}
	if article.PMCID != "" && contains(entity.ValuesFor(m.props.PMCID), article.PMCID) {
		return "PMCID", true
	}
	return "", false
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
