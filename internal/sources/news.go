package sources

import (
	"context"
	"fmt"

	"github.com/clipexplain/clipexplain/config"
	"github.com/clipexplain/clipexplain/models"
	"github.com/clipexplain/clipexplain/utils"
)

// NewsFetcher implements the news source as a ladder: Google Custom Search
// when configured, then NewsAPI, then a constructed Google News link so
// the category is never silently empty for lack of credentials.
type NewsFetcher struct {
	cfg  config.NewsConfig
	http *HTTPClient
}

func NewNewsFetcher(cfg config.NewsConfig, http *HTTPClient) *NewsFetcher {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 6
	}
	return &NewsFetcher{cfg: cfg, http: http}
}

func (n *NewsFetcher) Name() string { return "news" }

func (n *NewsFetcher) Fetch(ctx context.Context, query string) ([]models.ResourceItem, error) {
	if n.cfg.GoogleCSEKey != "" && n.cfg.GoogleCSEID != "" {
		return n.fetchCSE(ctx, query)
	}
	if n.cfg.NewsAPIKey != "" {
		return n.fetchNewsAPI(ctx, query)
	}
	return []models.ResourceItem{{
		Title:     fmt.Sprintf("News: %q", query),
		URL:       fmt.Sprintf("https://news.google.com/search?q=%s&hl=en-US&gl=US&ceid=US:en", utils.QueryEscape(query)),
		Relevance: "Latest news articles and interviews",
		Category:  models.CategoryArticle,
		Metadata:  map[string]string{"source": "Google News"},
	}}, nil
}

func (n *NewsFetcher) fetchCSE(ctx context.Context, query string) ([]models.ResourceItem, error) {
	reqURL := fmt.Sprintf("https://www.googleapis.com/customsearch/v1?key=%s&cx=%s&q=%s&num=%d",
		n.cfg.GoogleCSEKey, n.cfg.GoogleCSEID, utils.QueryEscape(query), n.cfg.MaxResults)
	var resp struct {
		Items []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"items"`
	}
	if err := n.http.DoJSON(ctx, "GET", reqURL, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("google cse: %w", err)
	}
	items := make([]models.ResourceItem, 0, len(resp.Items))
	for i, it := range resp.Items {
		if i >= n.cfg.MaxResults {
			break
		}
		items = append(items, models.ResourceItem{
			Title:     it.Title,
			URL:       it.Link,
			Relevance: it.Snippet,
			Category:  models.CategoryArticle,
			Metadata:  map[string]string{"source": utils.ExtractDomain(it.Link)},
		})
	}
	return items, nil
}

func (n *NewsFetcher) fetchNewsAPI(ctx context.Context, query string) ([]models.ResourceItem, error) {
	reqURL := fmt.Sprintf("https://newsapi.org/v2/everything?q=%s&pageSize=%d&language=en&sortBy=relevancy",
		utils.QueryEscape(query), n.cfg.MaxResults)
	headers := map[string]string{"X-Api-Key": n.cfg.NewsAPIKey}
	var resp struct {
		Articles []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
			Author      string `json:"author"`
			PublishedAt string `json:"publishedAt"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := n.http.DoJSON(ctx, "GET", reqURL, headers, nil, &resp); err != nil {
		return nil, fmt.Errorf("newsapi: %w", err)
	}
	items := make([]models.ResourceItem, 0, len(resp.Articles))
	for i, a := range resp.Articles {
		if i >= n.cfg.MaxResults {
			break
		}
		source := a.Source.Name
		if source == "" {
			source = utils.ExtractDomain(a.URL)
		}
		items = append(items, models.ResourceItem{
			Title:     a.Title,
			URL:       a.URL,
			Relevance: a.Description,
			Category:  models.CategoryArticle,
			Metadata: map[string]string{
				"source":         source,
				"author":         a.Author,
				"published_date": a.PublishedAt,
			},
		})
	}
	return items, nil
}
