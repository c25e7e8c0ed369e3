package discovery

import (
	"testing"

	"github.com/clipexplain/clipexplain/models"
)

func TestBuildQueriesOrderAndDedupe(t *testing.T) {
	ks := models.KeywordSet{
		Primary:       []string{"inception", "nolan"},
		SearchQueries: []string{"inception ending explained", "inception"},
	}
	got := BuildQueries(ks, "Inception")

	want := []string{"Inception", "inception", "nolan", "inception ending explained"}
	if len(got) != len(want) {
		t.Fatalf("got %d queries %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("query[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBuildQueriesDropsEmptyAndTrims(t *testing.T) {
	ks := models.KeywordSet{
		Primary:       []string{"  ", "nolan ", ""},
		SearchQueries: []string{"\t"},
	}
	got := BuildQueries(ks, "")
	if len(got) != 1 || got[0] != "nolan" {
		t.Fatalf("expected trimmed single query, got %v", got)
	}
}

func TestBuildQueriesCap(t *testing.T) {
	ks := models.KeywordSet{
		Primary:       []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7"},
		SearchQueries: []string{"b1", "b2"},
	}
	got := BuildQueries(ks, "title")
	if len(got) != maxQueries {
		t.Fatalf("expected %d queries, got %d: %v", maxQueries, len(got), got)
	}
	if got[0] != "title" {
		t.Fatalf("title must lead the query list, got %v", got)
	}
}

func TestBuildQueriesEmptyInput(t *testing.T) {
	if got := BuildQueries(models.KeywordSet{}, ""); len(got) != 0 {
		t.Fatalf("expected no queries for empty input, got %v", got)
	}
}
