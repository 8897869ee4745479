package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"NewsReconciler/internal/config"
	"NewsReconciler/internal/domain"
	"NewsReconciler/internal/normalize"
	"NewsReconciler/internal/resolve"
	"NewsReconciler/internal/storage"
)

var testProps = config.PropertyConfig{
	InstanceOf: "P1", URL: "P2", DatePublished: "P3", ArchivedURL: "P4",
	ArchivedDate: "P5", Title: "P6", DOI: "P7", PMID: "P8", PMCID: "P9",
	ReasonFor: "P10", SeriesOrdinal: "P11",
}

type fakeSource struct {
	articles map[string][]domain.Article
	errs     map[string]error
	fetches  []string
}

func (f *fakeSource) Fetch(_ context.Context, site, _ string) ([]domain.Article, error) {
	f.fetches = append(f.fetches, site)
	if err := f.errs[site]; err != nil {
		return nil, err
	}
	return f.articles[site], nil
}

type fakeStore struct {
	searchResults map[string][]string
	entities      map[string]*domain.Entity
	written       []*domain.Entity
	nextID        string
	searchCalls   int
}

func (f *fakeStore) Search(_ context.Context, text string) ([]string, error) {
	f.searchCalls++
	return f.searchResults[text], nil
}

func (f *fakeStore) Get(_ context.Context, id string) (*domain.Entity, error) {
	return f.entities[id], nil
}

func (f *fakeStore) Write(_ context.Context, entity *domain.Entity) (string, error) {
	f.written = append(f.written, entity)
	if entity.ID != "" {
		return entity.ID, nil
	}
	return f.nextID, nil
}

type fakeArchive struct{}

func (fakeArchive) Lookup(context.Context, string) (string, string, error) {
	return "", "", nil
}

type scriptedReviewer struct{ answers []string }

func (s *scriptedReviewer) Ask(_ context.Context, _, def string, _ time.Duration) string {
	if len(s.answers) == 0 {
		return def
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer
}

type pipelineFixture struct {
	pipeline  *Pipeline
	store     *fakeStore
	mappings  *storage.MappingStore
	unmatched *storage.UnmatchedLedger
	resolved  *storage.ResolvedLog
}

func newFixture(t *testing.T, source *fakeSource, store *fakeStore, reviewer *scriptedReviewer, sites []config.SiteConfig) *pipelineFixture {
	t.Helper()
	dir := t.TempDir()

	mappings, err := storage.OpenMapping(dir, "mapping", 0)
	if err != nil {
		t.Fatalf("open mapping: %v", err)
	}
	unmatched, err := storage.OpenUnmatched(dir, "unmatched", 0)
	if err != nil {
		t.Fatalf("open unmatched: %v", err)
	}
	resolved, err := storage.OpenResolvedLog(dir, "news", 0)
	if err != nil {
		t.Fatalf("open resolved log: %v", err)
	}

	matcher := resolve.NewMatcher(resolve.MatcherDeps{
		Store:      store,
		Reviewer:   reviewer,
		Mappings:   mappings,
		Properties: testProps,
	})
	writer := resolve.NewWriter(resolve.WriterDeps{
		Store:      store,
		Archive:    fakeArchive{},
		Mappings:   mappings,
		Properties: testProps,
		Items:      config.ItemConfig{NewsArticle: "Q11", RedirectURL: "Q12"},
	})

	pipeline := NewPipeline(PipelineDeps{
		Source:    source,
		Matcher:   matcher,
		Writer:    writer,
		Mappings:  mappings,
		Unmatched: unmatched,
		Resolved:  resolved,
		Sites:     sites,
	})
	return &pipelineFixture{pipeline: pipeline, store: store, mappings: mappings, unmatched: unmatched, resolved: resolved}
}

func TestProcessAllCreatesAndMapsNewArticle(t *testing.T) {
	t.Parallel()

	source := &fakeSource{articles: map[string][]domain.Article{
		"example": {{
			Title:     "Fresh finding",
			URL:       "https://example.org/fresh",
			Published: "Tue, 20 Apr 2021 14:00:00 GMT",
			Feed:      "example",
		}},
	}}
	store := &fakeStore{nextID: "Q900"}
	fx := newFixture(t, source, store, &scriptedReviewer{}, []config.SiteConfig{{Name: "example", URL: "https://example.org/rss"}})

	if err := fx.pipeline.ProcessAll(context.Background()); err != nil {
		t.Fatalf("process all: %v", err)
	}

	if len(store.written) != 2 {
		t.Fatalf("expected create + amend writes, got %d", len(store.written))
	}
	if mapped, ok := fx.mappings.Get("https://example.org/fresh"); !ok || mapped != "Q900" {
		t.Fatalf("mapping missing: %q %v", mapped, ok)
	}
	if fx.resolved.Len() != 1 {
		t.Fatalf("resolved log should hold 1 article, got %d", fx.resolved.Len())
	}
}

func TestProcessAllSkipsAlreadyMappedArticle(t *testing.T) {
	t.Parallel()

	source := &fakeSource{articles: map[string][]domain.Article{
		"example": {{Title: "Seen before", URL: "https://example.org/seen"}},
	}}
	store := &fakeStore{}
	fx := newFixture(t, source, store, &scriptedReviewer{}, []config.SiteConfig{{Name: "example"}})
	if err := fx.mappings.Put("https://example.org/seen", "Q1"); err != nil {
		t.Fatalf("seed mapping: %v", err)
	}

	if err := fx.pipeline.ProcessAll(context.Background()); err != nil {
		t.Fatalf("process all: %v", err)
	}
	if store.searchCalls != 0 || len(store.written) != 0 {
		t.Fatalf("mapped article must not touch the remote store")
	}
	if fx.resolved.Len() != 0 {
		t.Fatalf("skipped article must not be logged again")
	}
}

func TestProcessAllSkipsFailingSourceAndContinues(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		articles: map[string][]domain.Article{
			"good": {{Title: "Works", URL: "https://example.org/works"}},
		},
		errs: map[string]error{"bad": errors.New("connection reset")},
	}
	store := &fakeStore{nextID: "Q901"}
	fx := newFixture(t, source, store, &scriptedReviewer{}, []config.SiteConfig{{Name: "bad"}, {Name: "good"}})

	if err := fx.pipeline.ProcessAll(context.Background()); err != nil {
		t.Fatalf("process all: %v", err)
	}
	if len(source.fetches) != 2 {
		t.Fatalf("both sources must be attempted, got %v", source.fetches)
	}
	if fx.resolved.Len() != 1 {
		t.Fatalf("good source article should resolve, got %d", fx.resolved.Len())
	}
}

func TestProcessAllRoutesDeclinedArticleToUnmatched(t *testing.T) {
	t.Parallel()

	source := &fakeSource{articles: map[string][]domain.Article{
		"example": {{Title: "Unwanted", URL: "https://example.org/unwanted"}},
	}}
	store := &fakeStore{}
	reviewer := &scriptedReviewer{answers: []string{"n"}}
	fx := newFixture(t, source, store, reviewer, []config.SiteConfig{{Name: "example"}})

	if err := fx.pipeline.ProcessAll(context.Background()); err != nil {
		t.Fatalf("process all: %v", err)
	}
	records := fx.unmatched.Records()
	if len(records) != 1 || records[0].Title != "Unwanted" {
		t.Fatalf("unexpected ledger: %+v", records)
	}
	if len(store.written) != 0 {
		t.Fatalf("declined article must not be written")
	}
	if _, ok := fx.mappings.Get("https://example.org/unwanted"); ok {
		t.Fatalf("declined article must not be mapped")
	}
}

func TestProcessAllCorruptTitleIsFatal(t *testing.T) {
	t.Parallel()

	source := &fakeSource{articles: map[string][]domain.Article{
		"example": {{Title: "Broken,Äô story", URL: "https://example.org/broken"}},
	}}
	store := &fakeStore{}
	fx := newFixture(t, source, store, &scriptedReviewer{}, []config.SiteConfig{{Name: "example"}})

	err := fx.pipeline.ProcessAll(context.Background())
	if !errors.Is(err, normalize.ErrCorruptTitle) {
		t.Fatalf("expected ErrCorruptTitle, got %v", err)
	}
}

func TestProcessAllSplitsAggregatorTitle(t *testing.T) {
	t.Parallel()

	source := &fakeSource{articles: map[string][]domain.Article{
		"agg": {{
			Title:         "Big story - Example Times",
			URL:           "https://example.org/big",
			RedirectChain: []string{"https://news.google.com/rss/articles/abc"},
		}},
	}}
	store := &fakeStore{nextID: "Q902"}
	fx := newFixture(t, source, store, &scriptedReviewer{}, []config.SiteConfig{{Name: "agg"}})

	if err := fx.pipeline.ProcessAll(context.Background()); err != nil {
		t.Fatalf("process all: %v", err)
	}
	created := store.written[0]
	if created.Label != "Big story" {
		t.Fatalf("stem should be the label: %q", created.Label)
	}
	if len(created.Aliases) != 1 || created.Aliases[0] != "Big story - Example Times" {
		t.Fatalf("alias missing: %+v", created.Aliases)
	}
	if mapped, ok := fx.mappings.Get("https://news.google.com/rss/articles/abc"); !ok || mapped != "Q902" {
		t.Fatalf("redirect mapping missing: %q %v", mapped, ok)
	}
}
