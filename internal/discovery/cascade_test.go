package discovery

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/clipexplain/clipexplain/internal/sources"
	"github.com/clipexplain/clipexplain/models"
	"github.com/clipexplain/clipexplain/provider"
)

func newTestCascade(llm provider.KeywordProvider, fetchers []sources.Fetcher) *Cascade {
	deriver := NewKeywordDeriver(llm, nil, nil)
	agg := NewAggregator(fetchers, nil, nil)
	ranker := NewRanker(testRankingConfig())
	return NewCascade(deriver, agg, ranker, nil)
}

func richFetchers() []sources.Fetcher {
	return []sources.Fetcher{
		&stubFetcher{name: "discussion", items: func(q string) []models.ResourceItem {
			return []models.ResourceItem{{Title: "Inception thread " + q, URL: "https://r/" + q, Category: models.CategoryDiscussion, SocialProof: 4200}}
		}},
		&stubFetcher{name: "video", items: func(q string) []models.ResourceItem {
			return []models.ResourceItem{{Title: "Inception video " + q, URL: "https://yt/" + q, Category: models.CategoryVideo, SocialProof: 900000}}
		}},
		&stubFetcher{name: "background", items: func(q string) []models.ResourceItem {
			return []models.ResourceItem{{Title: "Inception wiki " + q, URL: "https://wiki/" + q, Category: models.CategoryBackground}}
		}},
	}
}

func TestCascadeRankedLive(t *testing.T) {
	c := newTestCascade(nil, richFetchers())
	input := models.DiscoverInput{Title: "Inception", Content: "Christopher Nolan dream heist thriller"}

	bundle := c.Run(context.Background(), input)
	if bundle == nil {
		t.Fatal("cascade returned nil bundle")
	}
	if bundle.Method != models.MethodRankedLive {
		t.Fatalf("expected ranked_live, got %s (error: %s)", bundle.Method, bundle.Error)
	}
	if bundle.Empty() {
		t.Fatal("live bundle should carry items")
	}
	if len(bundle.Keywords.Primary) == 0 {
		t.Fatal("live bundle should carry derived keywords")
	}

	// With on-topic sources every kept item clears a meaningful score:
	// context hits plus category weight alone put the floor above 5.
	ranker := NewRanker(testRankingConfig())
	lowerContext := strings.ToLower(contextSnippet(input))
	for _, it := range bundle.Items() {
		if got := ranker.Score(it, bundle.Keywords, lowerContext); got < 5 {
			t.Fatalf("item %q scored %d, want at least 5", it.URL, got)
		}
	}
}

func TestCascadeNoContentYieldsSearchStubs(t *testing.T) {
	empty := []sources.Fetcher{&stubFetcher{name: "empty"}}
	c := newTestCascade(nil, empty)

	bundle := c.Run(context.Background(), models.DiscoverInput{Title: "Obscure Short Film"})
	if bundle.Method != models.MethodSearchStub {
		t.Fatalf("expected search_stub when nothing ranks, got %s", bundle.Method)
	}
	if len(bundle.Discussion) != 2 || len(bundle.Videos) != 2 || len(bundle.Articles) != 2 || len(bundle.Background) != 2 {
		t.Fatalf("search stub tier carries two items per category, got %d/%d/%d/%d",
			len(bundle.Discussion), len(bundle.Videos), len(bundle.Articles), len(bundle.Background))
	}
	for _, it := range bundle.Items() {
		if it.URL == "" {
			t.Fatalf("stub item without URL: %+v", it)
		}
		if it.Relevance != "Search results" {
			t.Fatalf("stub items are labelled as search results, got %q", it.Relevance)
		}
	}
}

func TestCascadeLLMOutageDropsToScraped(t *testing.T) {
	llm := &fakeProvider{err: errors.New("dial tcp: connection refused")}
	c := newTestCascade(llm, richFetchers())

	bundle := c.Run(context.Background(), models.DiscoverInput{Title: "Inception"})
	if bundle.Method != models.MethodScrapedFallback {
		t.Fatalf("llm outage should land on scraped_fallback, got %s", bundle.Method)
	}
	if bundle.Empty() {
		t.Fatal("scraped bundle should carry fetched items")
	}
	if !strings.Contains(bundle.Error, "connection refused") {
		t.Fatalf("original failure should travel with the bundle, got %q", bundle.Error)
	}
}

func TestCascadeEverythingDownIsStatic(t *testing.T) {
	llm := &fakeProvider{err: errors.New("llm down")}
	broken := []sources.Fetcher{&stubFetcher{name: "broken", err: errors.New("source down")}}
	c := newTestCascade(llm, broken)

	bundle := c.Run(context.Background(), models.DiscoverInput{Title: "Inception"})
	if bundle.Method != models.MethodStaticFallback {
		t.Fatalf("expected static_fallback, got %s", bundle.Method)
	}
	if bundle.Empty() {
		t.Fatal("static tier must never be empty")
	}
}

func TestCascadeTotalOnEmptyInput(t *testing.T) {
	llm := &fakeProvider{err: errors.New("llm down")}
	c := newTestCascade(llm, nil)

	bundle := c.Run(context.Background(), models.DiscoverInput{})
	if bundle == nil || bundle.Empty() {
		t.Fatal("cascade must produce a non-empty bundle even for empty input with everything down")
	}
	if bundle.Method != models.MethodStaticFallback {
		t.Fatalf("expected static_fallback, got %s", bundle.Method)
	}
}

func TestStaticBundleShape(t *testing.T) {
	c := newTestCascade(nil, nil)
	bundle := c.Static(models.DiscoverInput{Title: "Blade Runner 2049"}, errors.New("budget exhausted"))

	if len(bundle.Discussion) != 3 || len(bundle.Videos) != 3 || len(bundle.Articles) != 3 || len(bundle.Background) != 3 {
		t.Fatalf("static tier carries three items per category, got %d/%d/%d/%d",
			len(bundle.Discussion), len(bundle.Videos), len(bundle.Articles), len(bundle.Background))
	}
	for _, it := range bundle.Items() {
		if it.URL == "" || it.Title == "" {
			t.Fatalf("static item incomplete: %+v", it)
		}
		if !strings.Contains(it.Title, "Blade Runner 2049") && it.Metadata["source"] == "" && it.Metadata["subreddit"] == "" {
			t.Fatalf("static item lacks identifying detail: %+v", it)
		}
	}
	if bundle.Error != "budget exhausted" {
		t.Fatalf("cause should be recorded, got %q", bundle.Error)
	}
	if len(bundle.Keywords.Primary) == 0 {
		t.Fatal("static bundle still derives heuristic keywords")
	}
}

func TestStaticBundleDeterministic(t *testing.T) {
	c := newTestCascade(nil, nil)
	input := models.DiscoverInput{Title: "Dune", Content: "Denis Villeneuve adaptation"}
	a := c.Static(input, nil)
	b := c.Static(input, nil)
	au, bu := a.Items(), b.Items()
	if len(au) != len(bu) {
		t.Fatalf("static tier must be deterministic, got %d vs %d items", len(au), len(bu))
	}
	for i := range au {
		if au[i].URL != bu[i].URL {
			t.Fatalf("static URLs differ at %d: %q vs %q", i, au[i].URL, bu[i].URL)
		}
	}
}
