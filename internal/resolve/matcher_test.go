package resolve

import (
	"context"
	"testing"
	"time"

	"NewsReconciler/internal/config"
	"NewsReconciler/internal/domain"
	"NewsReconciler/internal/storage"
)

var testProps = config.PropertyConfig{
	InstanceOf:    "P1",
	URL:           "P2",
	DatePublished: "P3",
	ArchivedURL:   "P4",
	ArchivedDate:  "P5",
	Title:         "P6",
	DOI:           "P7",
	PMID:          "P8",
	PMCID:         "P9",
	ReasonFor:     "P10",
	SeriesOrdinal: "P11",
}

var testItems = config.ItemConfig{NewsArticle: "Q11", RedirectURL: "Q12"}

type fakeStore struct {
	searchResults []string
	searchCalls   int
	searchText    string
	entities      map[string]*domain.Entity
	written       []*domain.Entity
	nextID        string
}

func (f *fakeStore) Search(_ context.Context, text string) ([]string, error) {
	f.searchCalls++
	f.searchText = text
	return f.searchResults, nil
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

type fakeReviewer struct {
	answers []string
	prompts []string
}

func (f *fakeReviewer) Ask(_ context.Context, prompt, def string, _ time.Duration) string {
	f.prompts = append(f.prompts, prompt)
	if len(f.answers) == 0 {
		return def
	}
	answer := f.answers[0]
	f.answers = f.answers[1:]
	return answer
}

func newTestMatcher(t *testing.T, store *fakeStore, reviewer *fakeReviewer) (*Matcher, *storage.MappingStore) {
	t.Helper()
	mappings, err := storage.OpenMapping(t.TempDir(), "mapping", 0)
	if err != nil {
		t.Fatalf("open mapping: %v", err)
	}
	m := NewMatcher(MatcherDeps{
		Store:      store,
		Reviewer:   reviewer,
		Mappings:   mappings,
		Properties: testProps,
	})
	return m, mappings
}

func TestResolveMappingHitSkipsSearch(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	matcher, mappings := newTestMatcher(t, store, &fakeReviewer{})
	if err := mappings.Put("https://example.org/story", "Q77"); err != nil {
		t.Fatalf("seed mapping: %v", err)
	}

	article := &domain.Article{Title: "Story", URL: "https://example.org/story"}
	id, outcome, err := matcher.Resolve(context.Background(), article)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if outcome != OutcomeMatched || id != "Q77" {
		t.Fatalf("unexpected result: %v %q", outcome, id)
	}
	if store.searchCalls != 0 {
		t.Fatalf("mapping hit must not trigger a remote search")
	}
}

func TestResolveRedirectMappingHit(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	matcher, mappings := newTestMatcher(t, store, &fakeReviewer{})
	if err := mappings.Put("https://news.google.com/x", "Q78"); err != nil {
		t.Fatalf("seed mapping: %v", err)
	}

	article := &domain.Article{
		Title:         "Story",
		URL:           "https://example.org/final",
		RedirectChain: []string{"https://news.google.com/x"},
	}
	id, outcome, err := matcher.Resolve(context.Background(), article)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if outcome != OutcomeMatched || id != "Q78" {
		t.Fatalf("unexpected result: %v %q", outcome, id)
	}
}

func TestResolveURLClaimMatchWithoutPrompt(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		searchResults: []string{"Q100"},
		entities: map[string]*domain.Entity{
			"Q100": {
				ID:    "Q100",
				Label: "Example Breaks — new finding",
				Claims: []domain.Claim{
					{Property: "P2", Type: domain.ClaimURL, Value: "https://example.org/breaks"},
				},
			},
		},
	}
	reviewer := &fakeReviewer{}
	matcher, _ := newTestMatcher(t, store, reviewer)

	article := &domain.Article{
		Title: "Example Breaks — new finding",
		URL:   "https://example.org/breaks",
	}
	id, outcome, err := matcher.Resolve(context.Background(), article)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if outcome != OutcomeMatched || id != "Q100" {
		t.Fatalf("unexpected result: %v %q", outcome, id)
	}
	if len(reviewer.prompts) != 0 {
		t.Fatalf("URL claim equality must not prompt a reviewer, got %d prompts", len(reviewer.prompts))
	}
}

func TestResolveDOIMatchIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		searchResults: []string{"Q200"},
		entities: map[string]*domain.Entity{
			"Q200": {
				ID:    "Q200",
				Label: "A study",
				Claims: []domain.Claim{
					{Property: "P7", Type: domain.ClaimExternalID, Value: "10.1136/BMJ.N998"},
				},
			},
		},
	}
	reviewer := &fakeReviewer{}
	matcher, _ := newTestMatcher(t, store, reviewer)

	article := &domain.Article{
		Title: "A study",
		URL:   "https://pubmed.ncbi.nlm.nih.gov/33879524/",
		DOI:   "10.1136/bmj.n998",
		PMID:  "33879524",
	}
	id, outcome, err := matcher.Resolve(context.Background(), article)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if outcome != OutcomeMatched || id != "Q200" {
		t.Fatalf("unexpected result: %v %q", outcome, id)
	}
	if len(reviewer.prompts) != 0 {
		t.Fatalf("identifier equality must not prompt a reviewer")
	}
}

func TestResolvePMIDMatchIsCaseSensitive(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		searchResults: []string{"Q201"},
		entities: map[string]*domain.Entity{
			"Q201": {
				ID:    "Q201",
				Label: "A study",
				Claims: []domain.Claim{
					{Property: "P8", Type: domain.ClaimExternalID, Value: "PMC123"},
				},
			},
		},
	}
	reviewer := &fakeReviewer{answers: []string{"n"}}
	matcher, _ := newTestMatcher(t, store, reviewer)

	article := &domain.Article{Title: "A study", URL: "https://example.org/s", PMID: "pmc123"}
	_, outcome, err := matcher.Resolve(context.Background(), article)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if outcome != OutcomeCreate {
		t.Fatalf("case-differing PMID must not auto-match, got %v", outcome)
	}
}

func TestResolveReviewerConfirmsCandidate(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		searchResults: []string{"Q300", "Q301"},
		entities: map[string]*domain.Entity{
			"Q300": {ID: "Q300", Label: "Close but wrong"},
			"Q301": {ID: "Q301", Label: "The right one"},
		},
	}
	reviewer := &fakeReviewer{answers: []string{"n", "y"}}
	matcher, _ := newTestMatcher(t, store, reviewer)

	article := &domain.Article{Title: "The right one", URL: "https://example.org/r"}
	id, outcome, err := matcher.Resolve(context.Background(), article)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if outcome != OutcomeMatched || id != "Q301" {
		t.Fatalf("unexpected result: %v %q", outcome, id)
	}
	if len(reviewer.prompts) != 2 {
		t.Fatalf("expected 2 prompts, got %d", len(reviewer.prompts))
	}
}

func TestResolveNoCandidatesDefaultsToCreate(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	reviewer := &fakeReviewer{}
	matcher, _ := newTestMatcher(t, store, reviewer)

	article := &domain.Article{Title: "Fresh story", URL: "https://example.org/fresh"}
	_, outcome, err := matcher.Resolve(context.Background(), article)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if outcome != OutcomeCreate {
		t.Fatalf("timeout default should create, got %v", outcome)
	}
}

func TestResolveDeclinedCreationIsSkipped(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	reviewer := &fakeReviewer{answers: []string{"n"}}
	matcher, _ := newTestMatcher(t, store, reviewer)

	article := &domain.Article{Title: "Unwanted", URL: "https://example.org/u"}
	_, outcome, err := matcher.Resolve(context.Background(), article)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if outcome != OutcomeSkipped {
		t.Fatalf("declined creation should skip, got %v", outcome)
	}
}

func TestResolveTruncatesSearchText(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	matcher, _ := newTestMatcher(t, store, &fakeReviewer{})

	long := make([]byte, 0, 600)
	for i := 0; i < 600; i++ {
		long = append(long, 'a')
	}
	article := &domain.Article{Title: string(long), URL: "https://example.org/long"}
	if _, _, err := matcher.Resolve(context.Background(), article); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := len([]rune(store.searchText)); got != 250 {
		t.Fatalf("expected truncated search text of 250 runes, got %d", got)
	}
}
