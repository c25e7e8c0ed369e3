package sources

import (
	"context"
	"fmt"

	"github.com/clipexplain/clipexplain/config"
	"github.com/clipexplain/clipexplain/models"
	"github.com/clipexplain/clipexplain/utils"
)

// WikipediaFetcher implements the encyclopedia source via the REST summary
// endpoint. An unknown page degrades to a Special:Search link rather than
// an empty result.
type WikipediaFetcher struct {
	cfg  config.WikipediaConfig
	http *HTTPClient
}

func NewWikipediaFetcher(cfg config.WikipediaConfig, http *HTTPClient) *WikipediaFetcher {
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	return &WikipediaFetcher{cfg: cfg, http: http}
}

func (w *WikipediaFetcher) Name() string { return "wikipedia" }

// summaryURL builds the REST summary endpoint URL. The title is a path
// segment, so it is path-escaped: query escaping would turn spaces into
// +, which the API reads as a literal title character and 404s on.
func (w *WikipediaFetcher) summaryURL(query string) string {
	return fmt.Sprintf("https://%s.wikipedia.org/api/rest_v1/page/summary/%s",
		w.cfg.Language, utils.PathEscape(query))
}

func (w *WikipediaFetcher) Fetch(ctx context.Context, query string) ([]models.ResourceItem, error) {
	summaryURL := w.summaryURL(query)

	var summary struct {
		Title       string `json:"title"`
		Extract     string `json:"extract"`
		ContentURLs struct {
			Desktop struct {
				Page string `json:"page"`
			} `json:"desktop"`
		} `json:"content_urls"`
	}
	if err := w.http.DoJSON(ctx, "GET", summaryURL, nil, nil, &summary); err != nil {
		// Usually a 404 for titles that are not article names.
		return []models.ResourceItem{{
			Title:     fmt.Sprintf("Wikipedia: %q", query),
			URL:       fmt.Sprintf("https://%s.wikipedia.org/wiki/Special:Search?search=%s", w.cfg.Language, utils.QueryEscape(query)),
			Relevance: "Wikipedia search results for background information",
			Category:  models.CategoryBackground,
			Metadata:  map[string]string{"source": "Wikipedia"},
		}}, nil
	}

	pageURL := summary.ContentURLs.Desktop.Page
	if pageURL == "" {
		pageURL = fmt.Sprintf("https://%s.wikipedia.org/wiki/%s", w.cfg.Language, utils.PathEscape(query))
	}
	relevance := summary.Extract
	if relevance == "" {
		relevance = "Wikipedia article with background information"
	}
	return []models.ResourceItem{{
		Title:     summary.Title,
		URL:       pageURL,
		Relevance: relevance,
		Category:  models.CategoryBackground,
		Metadata:  map[string]string{"source": "Wikipedia"},
	}}, nil
}
