package sources

import (
	"context"
	"fmt"

	"github.com/clipexplain/clipexplain/models"
	"github.com/clipexplain/clipexplain/utils"
)

// IMDbFetcher implements the cast/crew source. IMDb has no public API, so
// the adapter returns a constructed find URL. It never touches the
// network and never fails.
type IMDbFetcher struct{}

func NewIMDbFetcher() *IMDbFetcher { return &IMDbFetcher{} }

func (f *IMDbFetcher) Name() string { return "imdb" }

func (f *IMDbFetcher) Fetch(ctx context.Context, query string) ([]models.ResourceItem, error) {
	return []models.ResourceItem{{
		Title:     fmt.Sprintf("IMDb: %q", query),
		URL:       "https://www.imdb.com/find?q=" + utils.QueryEscape(query),
		Relevance: "IMDb search results for cast, crew, reviews, and ratings",
		Category:  models.CategoryArticle,
		Metadata:  map[string]string{"source": "IMDb"},
	}}, nil
}
