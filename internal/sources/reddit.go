package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/clipexplain/clipexplain/config"
	"github.com/clipexplain/clipexplain/models"
	"github.com/clipexplain/clipexplain/utils"
)

// RedditFetcher implements the forum-discussion source. It prefers the
// OAuth API when credentials are configured and falls back to the public
// JSON endpoint otherwise or when the token exchange fails.
type RedditFetcher struct {
	cfg        config.RedditConfig
	maxResults int
	http       *HTTPClient

	mu         sync.Mutex
	token      string
	tokenUntil time.Time
}

func NewRedditFetcher(cfg config.RedditConfig, maxResults int, http *HTTPClient) *RedditFetcher {
	if maxResults <= 0 {
		maxResults = 5
	}
	subs := cfg.Subreddits
	if len(subs) == 0 {
		subs = []string{"movies", "television"}
	}
	cfg.Subreddits = subs
	return &RedditFetcher{cfg: cfg, maxResults: maxResults, http: http}
}

func (r *RedditFetcher) Name() string { return "reddit" }

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title       string  `json:"title"`
				Subreddit   string  `json:"subreddit"`
				Permalink   string  `json:"permalink"`
				Selftext    string  `json:"selftext"`
				Score       float64 `json:"score"`
				NumComments float64 `json:"num_comments"`
				Author      string  `json:"author"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (r *RedditFetcher) Fetch(ctx context.Context, query string) ([]models.ResourceItem, error) {
	var out []models.ResourceItem
	var lastErr error
	for _, sub := range r.cfg.Subreddits {
		items, err := r.search(ctx, query, sub)
		if err != nil {
			lastErr = err
			continue
		}
		out = append(out, items...)
	}
	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

func (r *RedditFetcher) search(ctx context.Context, query, subreddit string) ([]models.ResourceItem, error) {
	base := "https://www.reddit.com"
	headers := map[string]string{}
	if token, err := r.accessToken(ctx); err == nil && token != "" {
		base = "https://oauth.reddit.com"
		headers["Authorization"] = "Bearer " + token
	}

	searchURL := fmt.Sprintf("%s/r/%s/search.json?q=%s&restrict_sr=on&sort=relevance&t=year&limit=%d",
		base, subreddit, utils.QueryEscape(query), r.maxResults)
	var listing redditListing
	if err := r.http.DoJSON(ctx, "GET", searchURL, headers, nil, &listing); err != nil {
		if base != "https://www.reddit.com" {
			// OAuth path failed; retry once against the public endpoint.
			publicURL := fmt.Sprintf("https://www.reddit.com/r/%s/search.json?q=%s&restrict_sr=on&sort=relevance&t=year&limit=%d",
				subreddit, utils.QueryEscape(query), r.maxResults)
			if err2 := r.http.DoJSON(ctx, "GET", publicURL, nil, nil, &listing); err2 != nil {
				return nil, err2
			}
		} else {
			return nil, err
		}
	}

	items := make([]models.ResourceItem, 0, len(listing.Data.Children))
	for i, child := range listing.Data.Children {
		if i >= r.maxResults {
			break
		}
		p := child.Data
		relevance := fmt.Sprintf("Reddit discussion in r/%s", p.Subreddit)
		if p.Selftext != "" {
			relevance = utils.Truncate(p.Selftext, 180)
		}
		score := int64(p.Score)
		items = append(items, models.ResourceItem{
			Title:       p.Title,
			URL:         "https://reddit.com" + p.Permalink,
			Relevance:   relevance,
			Category:    models.CategoryDiscussion,
			SocialProof: score,
			Metadata: map[string]string{
				"subreddit":    "r/" + p.Subreddit,
				"author":       p.Author,
				"upvote_count": utils.FormatCount(score),
				"comments":     strconv.Itoa(int(p.NumComments)),
			},
		})
	}
	return items, nil
}

// accessToken returns a cached OAuth token, exchanging credentials when
// the cache is cold. Missing credentials yield an empty token, which
// routes the search through the public endpoint.
func (r *RedditFetcher) accessToken(ctx context.Context) (string, error) {
	if r.cfg.ClientID == "" || r.cfg.ClientSecret == "" {
		return "", nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.token != "" && time.Now().Before(r.tokenUntil) {
		return r.token, nil
	}

	form := url.Values{}
	if r.cfg.Username != "" && r.cfg.Password != "" {
		form.Set("grant_type", "password")
		form.Set("username", r.cfg.Username)
		form.Set("password", r.cfg.Password)
	} else {
		form.Set("grant_type", "client_credentials")
		form.Set("scope", "read")
	}

	var tok struct {
		AccessToken string  `json:"access_token"`
		ExpiresIn   float64 `json:"expires_in"`
	}
	err := r.http.DoForm(ctx, "https://www.reddit.com/api/v1/access_token", form, r.cfg.ClientID, r.cfg.ClientSecret, &tok)
	if err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("empty reddit access token")
	}
	ttl := time.Duration(tok.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	r.token = tok.AccessToken
	r.tokenUntil = time.Now().Add(ttl - time.Minute)
	return r.token, nil
}
