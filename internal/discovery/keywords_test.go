package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/clipexplain/clipexplain/models"
)

type fakeProvider struct {
	ks  models.KeywordSet
	err error
}

func (f *fakeProvider) GenerateKeywords(ctx context.Context, conversationContext, videoContent string) (models.KeywordSet, error) {
	return f.ks, f.err
}

func TestHeuristicKeywordsProperNouns(t *testing.T) {
	ks := HeuristicKeywords("User asked about Christopher Nolan and the Inception dream layers", "")
	if len(ks.Primary) == 0 {
		t.Fatalf("expected non-empty primary keywords")
	}
	found := false
	for _, k := range ks.Primary {
		if k == "Christopher Nolan" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected proper noun run %q in primary, got %v", "Christopher Nolan", ks.Primary)
	}
}

func TestHeuristicKeywordsFiltersStopWords(t *testing.T) {
	ks := HeuristicKeywords("the and was were this that video content", "")
	all := append(append([]string{}, ks.Primary...), ks.Secondary...)
	for _, k := range all {
		if stopWords[strings.ToLower(k)] {
			t.Fatalf("stop word %q leaked into keywords %v", k, all)
		}
	}
}

func TestHeuristicKeywordsEmptyInput(t *testing.T) {
	ks := HeuristicKeywords("", "")
	if len(ks.Primary) != 1 || ks.Primary[0] != "general" {
		t.Fatalf("empty input should yield the generic keyword, got %v", ks.Primary)
	}
	if len(ks.SearchQueries) == 0 {
		t.Fatalf("expected synthesized search queries even for empty input")
	}
}

func TestHeuristicKeywordsCap(t *testing.T) {
	ks := HeuristicKeywords("alpha bravo charlie delta echo foxtrot golf hotel india juliett kilo", "")
	if got := len(ks.Primary) + len(ks.Secondary); got > 8 {
		t.Fatalf("expected at most 8 keywords, got %d", got)
	}
	if len(ks.Primary) != 5 {
		t.Fatalf("expected 5 primary keywords, got %d", len(ks.Primary))
	}
}

func TestClassifyContext(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"a movie about a director", "movie related content"},
		{"programming and algorithm design", "tech related content"},
		{"nothing in particular", "General discussion"},
	}
	for _, c := range cases {
		if got := classifyContext(c.text); got != c.want {
			t.Fatalf("classifyContext(%q) = %q, want %q", c.text, got, c.want)
		}
	}
}

func TestDeriveWithoutLLM(t *testing.T) {
	d := NewKeywordDeriver(nil, nil, nil)
	ks, err := d.Derive(context.Background(), "Inception ending explained", "")
	if err != nil {
		t.Fatalf("heuristic-only derive should not fail: %v", err)
	}
	if ks.LLM {
		t.Fatalf("heuristic result must not claim llm origin")
	}
	if len(ks.Primary) == 0 {
		t.Fatalf("expected keywords from heuristic extraction")
	}
}

func TestDeriveMalformedResponseFallsBack(t *testing.T) {
	p := &fakeProvider{err: fmt.Errorf("%w: not json", models.ErrMalformedLLMResponse)}
	d := NewKeywordDeriver(p, nil, nil)
	ks, err := d.Derive(context.Background(), "Inception dream layers", "")
	if err != nil {
		t.Fatalf("malformed llm output should fall back, not fail: %v", err)
	}
	if ks.LLM {
		t.Fatalf("fallback keywords must not claim llm origin")
	}
	if len(ks.Primary) == 0 {
		t.Fatalf("expected heuristic keywords after fallback")
	}
}

func TestDeriveTransportErrorPropagates(t *testing.T) {
	wantErr := errors.New("connection refused")
	p := &fakeProvider{err: wantErr}
	d := NewKeywordDeriver(p, nil, nil)
	_, err := d.Derive(context.Background(), "anything", "")
	if !errors.Is(err, wantErr) {
		t.Fatalf("transport error should propagate, got %v", err)
	}
}

func TestDeriveRejectsMeaninglessKeywords(t *testing.T) {
	p := &fakeProvider{ks: models.KeywordSet{Primary: []string{"video"}, LLM: true}}
	d := NewKeywordDeriver(p, nil, nil)
	ks, err := d.Derive(context.Background(), "Blade Runner 2049 visuals", "")
	if err != nil {
		t.Fatalf("meaningless llm output should fall back, not fail: %v", err)
	}
	if ks.LLM {
		t.Fatalf("expected heuristic replacement for the keyword %q", "video")
	}
}

func TestDeriveKeepsGoodLLMResult(t *testing.T) {
	want := models.KeywordSet{Primary: []string{"inception", "christopher nolan"}, LLM: true}
	d := NewKeywordDeriver(&fakeProvider{ks: want}, nil, nil)
	ks, err := d.Derive(context.Background(), "ctx", "aux")
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	if !ks.LLM || len(ks.Primary) != 2 {
		t.Fatalf("expected llm keywords to pass through, got %+v", ks)
	}
}
