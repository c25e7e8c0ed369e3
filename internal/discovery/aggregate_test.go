package discovery

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/clipexplain/clipexplain/internal/sources"
	"github.com/clipexplain/clipexplain/models"
)

type stubFetcher struct {
	name  string
	items func(query string) []models.ResourceItem
	err   error
	delay time.Duration
}

func (s *stubFetcher) Name() string { return s.name }

func (s *stubFetcher) Fetch(ctx context.Context, query string) ([]models.ResourceItem, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.items == nil {
		return nil, nil
	}
	return s.items(query), nil
}

func item(url string, cat models.Category) models.ResourceItem {
	return models.ResourceItem{Title: url, URL: url, Category: cat}
}

func TestAggregateDedupesByURL(t *testing.T) {
	shared := item("https://example.com/shared", models.CategoryArticle)
	f1 := &stubFetcher{name: "one", items: func(q string) []models.ResourceItem {
		return []models.ResourceItem{shared, item("https://example.com/"+q+"/one", models.CategoryVideo)}
	}}
	f2 := &stubFetcher{name: "two", items: func(q string) []models.ResourceItem {
		return []models.ResourceItem{shared}
	}}

	agg := NewAggregator([]sources.Fetcher{f1, f2}, nil, nil)
	got := agg.Aggregate(context.Background(), []string{"q1", "q2"})

	urls := map[string]int{}
	for _, it := range got {
		urls[it.URL]++
	}
	if urls["https://example.com/shared"] != 1 {
		t.Fatalf("shared URL should survive exactly once, counts: %v", urls)
	}
	// shared + one unique per query
	if len(got) != 3 {
		t.Fatalf("expected 3 deduplicated items, got %d: %v", len(got), got)
	}
}

func TestAggregateDeterministicOrder(t *testing.T) {
	mk := func(name string, delay time.Duration) *stubFetcher {
		return &stubFetcher{name: name, delay: delay, items: func(q string) []models.ResourceItem {
			return []models.ResourceItem{item(fmt.Sprintf("https://%s/%s", name, q), models.CategoryArticle)}
		}}
	}
	// Reverse the finishing order: the slow fetcher comes first.
	agg := NewAggregator([]sources.Fetcher{mk("slow", 30*time.Millisecond), mk("fast", 0)}, nil, nil)

	got := agg.Aggregate(context.Background(), []string{"a", "b"})
	want := []string{"https://slow/a", "https://fast/a", "https://slow/b", "https://fast/b"}
	if len(got) != len(want) {
		t.Fatalf("got %d items, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].URL != want[i] {
			t.Fatalf("item[%d] = %q, want %q (ordering must not depend on finish time)", i, got[i].URL, want[i])
		}
	}
}

func TestAggregateSurvivesFailingFetcher(t *testing.T) {
	ok := &stubFetcher{name: "ok", items: func(q string) []models.ResourceItem {
		return []models.ResourceItem{item("https://ok/"+q, models.CategoryDiscussion)}
	}}
	bad := &stubFetcher{name: "bad", err: errors.New("boom")}

	agg := NewAggregator([]sources.Fetcher{bad, ok}, nil, nil)
	got := agg.Aggregate(context.Background(), []string{"q"})
	if len(got) != 1 || got[0].URL != "https://ok/q" {
		t.Fatalf("failing fetcher must not affect siblings, got %v", got)
	}
}

func TestAggregateDropsEmptyURLs(t *testing.T) {
	f := &stubFetcher{name: "anon", items: func(q string) []models.ResourceItem {
		return []models.ResourceItem{{Title: "no url"}, item("https://has/url", models.CategoryVideo)}
	}}
	agg := NewAggregator([]sources.Fetcher{f}, nil, nil)
	got := agg.Aggregate(context.Background(), []string{"q"})
	if len(got) != 1 || got[0].URL != "https://has/url" {
		t.Fatalf("items without URL must be dropped, got %v", got)
	}
}

func TestAggregateNoQueries(t *testing.T) {
	agg := NewAggregator([]sources.Fetcher{&stubFetcher{name: "x"}}, nil, nil)
	if got := agg.Aggregate(context.Background(), nil); got != nil {
		t.Fatalf("expected nil for empty query list, got %v", got)
	}
}
