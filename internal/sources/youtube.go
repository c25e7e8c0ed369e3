package sources

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/clipexplain/clipexplain/config"
	"github.com/clipexplain/clipexplain/models"
	"github.com/clipexplain/clipexplain/utils"
)

// YouTubeFetcher implements the video-platform source via the YouTube Data
// API. It is the one two-step fetcher: search for candidate IDs, then
// batch-fetch statistics and duration for those IDs, merging on ID.
// Without an API key it degrades to a single constructed search URL.
type YouTubeFetcher struct {
	cfg  config.YouTubeConfig
	http *HTTPClient
}

func NewYouTubeFetcher(cfg config.YouTubeConfig, http *HTTPClient) *YouTubeFetcher {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 6
	}
	return &YouTubeFetcher{cfg: cfg, http: http}
}

func (y *YouTubeFetcher) Name() string { return "youtube" }

type ytSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet ytSnippet `json:"snippet"`
	} `json:"items"`
}

type ytSnippet struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ChannelTitle string `json:"channelTitle"`
	Thumbnails   struct {
		High struct {
			URL string `json:"url"`
		} `json:"high"`
		Default struct {
			URL string `json:"url"`
		} `json:"default"`
	} `json:"thumbnails"`
}

type ytDetailsResponse struct {
	Items []struct {
		ID             string    `json:"id"`
		Snippet        ytSnippet `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
		} `json:"statistics"`
	} `json:"items"`
}

func (y *YouTubeFetcher) Fetch(ctx context.Context, query string) ([]models.ResourceItem, error) {
	if y.cfg.APIKey == "" {
		return []models.ResourceItem{{
			Title:     "YouTube: " + query,
			URL:       "https://youtube.com/results?search_query=" + utils.QueryEscape(query),
			Relevance: "YouTube search results",
			Category:  models.CategoryVideo,
		}}, nil
	}

	searchURL := fmt.Sprintf(
		"https://www.googleapis.com/youtube/v3/search?part=snippet&type=video&maxResults=%d&q=%s&key=%s",
		y.cfg.MaxResults, utils.QueryEscape(query), y.cfg.APIKey)
	var search ytSearchResponse
	if err := y.http.DoJSON(ctx, "GET", searchURL, nil, nil, &search); err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}
	if len(search.Items) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(search.Items))
	for _, it := range search.Items {
		if it.ID.VideoID != "" {
			ids = append(ids, it.ID.VideoID)
		}
	}

	detailsURL := fmt.Sprintf(
		"https://www.googleapis.com/youtube/v3/videos?part=contentDetails,statistics,snippet&id=%s&key=%s",
		strings.Join(ids, ","), y.cfg.APIKey)
	var details ytDetailsResponse
	if err := y.http.DoJSON(ctx, "GET", detailsURL, nil, nil, &details); err != nil {
		return nil, fmt.Errorf("youtube details: %w", err)
	}

	byID := make(map[string]int, len(details.Items))
	for i, d := range details.Items {
		byID[d.ID] = i
	}

	items := make([]models.ResourceItem, 0, len(search.Items))
	for _, s := range search.Items {
		id := s.ID.VideoID
		if id == "" {
			continue
		}
		snippet := s.Snippet
		var views int64
		var duration string
		if di, ok := byID[id]; ok {
			d := details.Items[di]
			if d.Snippet.Title != "" {
				snippet = d.Snippet
			}
			views, _ = strconv.ParseInt(d.Statistics.ViewCount, 10, 64)
			duration = utils.FormatISODuration(d.ContentDetails.Duration)
		}
		relevance := "YouTube video"
		if snippet.Description != "" {
			relevance = utils.Truncate(snippet.Description, 180)
		}
		thumb := snippet.Thumbnails.High.URL
		if thumb == "" {
			thumb = snippet.Thumbnails.Default.URL
		}
		items = append(items, models.ResourceItem{
			Title:       snippet.Title,
			URL:         "https://www.youtube.com/watch?v=" + id,
			Relevance:   relevance,
			Category:    models.CategoryVideo,
			SocialProof: views,
			Metadata: map[string]string{
				"channel":    snippet.ChannelTitle,
				"view_count": utils.FormatCount(views),
				"duration":   duration,
				"thumbnail":  thumb,
			},
		})
	}
	return items, nil
}
