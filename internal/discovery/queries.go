package discovery

import (
	"strings"

	"github.com/clipexplain/clipexplain/models"
)

// maxQueries bounds the fan-out: at most six queries reach the fetchers.
const maxQueries = 6

// BuildQueries assembles the search query list from the title, primary
// keywords, and synthesized search queries, in that order. Entries are
// trimmed, empties dropped, and duplicates removed case-sensitively
// keeping the first occurrence. Pure function, no failure mode.
func BuildQueries(ks models.KeywordSet, title string) []string {
	candidates := make([]string, 0, 1+len(ks.Primary)+len(ks.SearchQueries))
	if title != "" {
		candidates = append(candidates, title)
	}
	candidates = append(candidates, ks.Primary...)
	candidates = append(candidates, ks.SearchQueries...)

	seen := make(map[string]bool, len(candidates))
	queries := make([]string, 0, maxQueries)
	for _, c := range candidates {
		q := strings.TrimSpace(c)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		queries = append(queries, q)
		if len(queries) == maxQueries {
			break
		}
	}
	return queries
}
