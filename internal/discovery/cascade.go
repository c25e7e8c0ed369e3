package discovery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/clipexplain/clipexplain/models"
	"github.com/clipexplain/clipexplain/utils"
)

// Cascade is the tiered degradation controller. Tiers are attempted in
// order (ranked_live, search_stub, scraped_fallback, static_fallback) and
// each lower tier is the catch boundary for the one above it. The cascade
// always terminates in a bundle; it has no error-propagating exit.
type Cascade struct {
	deriver    *KeywordDeriver
	aggregator *Aggregator
	ranker     *Ranker
	logger     *log.Logger
}

func NewCascade(deriver *KeywordDeriver, aggregator *Aggregator, ranker *Ranker, logger *log.Logger) *Cascade {
	if logger == nil {
		logger = log.New(log.Writer(), "[CASCADE] ", log.LstdFlags)
	}
	return &Cascade{deriver: deriver, aggregator: aggregator, ranker: ranker, logger: logger}
}

// Run executes the cascade for one input and always returns a bundle.
func (c *Cascade) Run(ctx context.Context, input models.DiscoverInput) *models.ResourceBundle {
	bundle, ks, err := c.rankedLive(ctx, input)
	if err == nil {
		return bundle
	}
	if errors.Is(err, models.ErrNoContent) {
		c.logger.Printf("live path found nothing relevant, substituting search stubs")
		return c.searchStub(ks)
	}

	c.logger.Printf("live path failed, trying scraped fallback: %v", err)
	if bundle, scrapeErr := c.scraped(ctx, input, err); scrapeErr == nil {
		return bundle
	} else {
		c.logger.Printf("scraped fallback failed, using static templates: %v", scrapeErr)
	}
	return c.Static(input, err)
}

// rankedLive runs the full pipeline: derive keywords, build queries,
// aggregate, rank. The keyword set is returned even on failure so the
// search-stub tier can reuse it.
func (c *Cascade) rankedLive(ctx context.Context, input models.DiscoverInput) (*models.ResourceBundle, models.KeywordSet, error) {
	ks, err := c.deriver.Derive(ctx, input.ConversationContext, input.Content)
	if err != nil {
		return nil, models.KeywordSet{}, fmt.Errorf("keyword derivation: %w", err)
	}

	queries := BuildQueries(ks, input.Title)
	items := c.aggregator.Aggregate(ctx, queries)

	contextText := contextSnippet(input)
	bundle, err := c.ranker.Rank(items, ks, contextText)
	if err != nil {
		return nil, ks, err
	}
	return bundle, ks, nil
}

// contextSnippet joins the raw input fields into the context text the
// ranker scores against, bounded to keep scoring cheap.
func contextSnippet(input models.DiscoverInput) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{input.Title, input.Content, input.ConversationContext} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return utils.Truncate(strings.Join(parts, " "), 2000)
}

// searchStub synthesizes two constructed search-engine URLs per category
// from the derived keywords. Entered when the live path technically
// succeeded but yielded nothing relevant.
func (c *Cascade) searchStub(ks models.KeywordSet) *models.ResourceBundle {
	n := 3
	if n > len(ks.Primary) {
		n = len(ks.Primary)
	}
	mainQuery := strings.Join(ks.Primary[:n], " ")
	q := utils.QueryEscape(mainQuery)

	const relevance = "Search results"
	return &models.ResourceBundle{
		Discussion: []models.ResourceItem{
			{
				Title:     "Reddit",
				URL:       fmt.Sprintf("https://reddit.com/r/movies/search?q=%s&restrict_sr=on&sort=relevance&t=year", q),
				Relevance: relevance,
				Category:  models.CategoryDiscussion,
				Metadata:  map[string]string{"subreddit": "r/movies"},
			},
			{
				Title:     "Reddit",
				URL:       fmt.Sprintf("https://reddit.com/r/television/search?q=%s&restrict_sr=on&sort=relevance&t=year", q),
				Relevance: relevance,
				Category:  models.CategoryDiscussion,
				Metadata:  map[string]string{"subreddit": "r/television"},
			},
		},
		Videos: []models.ResourceItem{
			{
				Title:     "YouTube Analysis",
				URL:       "https://youtube.com/results?search_query=" + utils.QueryEscape(mainQuery+" analysis"),
				Relevance: relevance,
				Category:  models.CategoryVideo,
			},
			{
				Title:     "YouTube Tutorial",
				URL:       "https://youtube.com/results?search_query=" + utils.QueryEscape(mainQuery+" tutorial"),
				Relevance: relevance,
				Category:  models.CategoryVideo,
			},
		},
		Articles: []models.ResourceItem{
			{
				Title:     "Google",
				URL:       "https://www.google.com/search?q=" + q,
				Relevance: relevance,
				Category:  models.CategoryArticle,
				Metadata:  map[string]string{"source": "Google"},
			},
			{
				Title:     "News",
				URL:       fmt.Sprintf("https://news.google.com/search?q=%s&hl=en-US&gl=US&ceid=US:en", q),
				Relevance: relevance,
				Category:  models.CategoryArticle,
				Metadata:  map[string]string{"source": "Google News"},
			},
		},
		Background: []models.ResourceItem{
			{
				Title:     "Wikipedia",
				URL:       "https://en.wikipedia.org/wiki/Special:Search?search=" + q,
				Relevance: relevance,
				Category:  models.CategoryBackground,
				Metadata:  map[string]string{"source": "Wikipedia"},
			},
			{
				Title:     "IMDb",
				URL:       "https://www.imdb.com/find?q=" + q,
				Relevance: relevance,
				Category:  models.CategoryBackground,
				Metadata:  map[string]string{"source": "IMDb"},
			},
		},
		Keywords:    ks,
		Method:      models.MethodSearchStub,
		GeneratedAt: time.Now().UTC(),
	}
}

// scraped re-runs only the fetchers against the raw title/content,
// bypassing keyword derivation, and returns the findings unranked. The
// original failure travels with the bundle for diagnostics.
func (c *Cascade) scraped(ctx context.Context, input models.DiscoverInput, cause error) (*models.ResourceBundle, error) {
	query := strings.TrimSpace(input.Title)
	if query == "" {
		query = utils.Truncate(strings.TrimSpace(input.Content), 100)
	}
	if query == "" {
		query = utils.Truncate(strings.TrimSpace(input.ConversationContext), 100)
	}
	if query == "" {
		return nil, errors.New("no query material for scraped fallback")
	}

	items := c.aggregator.Aggregate(ctx, []string{query})
	bundle := &models.ResourceBundle{
		Keywords:    HeuristicKeywords(input.Title, input.Content),
		Method:      models.MethodScrapedFallback,
		GeneratedAt: time.Now().UTC(),
		Error:       cause.Error(),
	}
	caps := map[models.Category]int{
		models.CategoryDiscussion: c.ranker.cfg.CapDiscussion,
		models.CategoryVideo:      c.ranker.cfg.CapVideo,
		models.CategoryArticle:    c.ranker.cfg.CapArticle,
		models.CategoryBackground: c.ranker.cfg.CapBackground,
	}
	for _, item := range items {
		switch item.Category {
		case models.CategoryDiscussion:
			if len(bundle.Discussion) < caps[item.Category] {
				bundle.Discussion = append(bundle.Discussion, item)
			}
		case models.CategoryVideo:
			if len(bundle.Videos) < caps[item.Category] {
				bundle.Videos = append(bundle.Videos, item)
			}
		case models.CategoryArticle:
			if len(bundle.Articles) < caps[item.Category] {
				bundle.Articles = append(bundle.Articles, item)
			}
		case models.CategoryBackground:
			if len(bundle.Background) < caps[item.Category] {
				bundle.Background = append(bundle.Background, item)
			}
		}
	}
	if bundle.Empty() {
		return nil, errors.New("scraped fallback found nothing")
	}
	return bundle, nil
}

// Static produces the fully deterministic template bundle from the title
// and naive keyword extraction alone. Every item is a constructed query
// URL; no lookups happen, so this tier cannot fail or block.
func (c *Cascade) Static(input models.DiscoverInput, cause error) *models.ResourceBundle {
	title := strings.TrimSpace(input.Title)
	displayTitle := title
	if displayTitle == "" {
		displayTitle = "this content"
	}

	keywords := staticKeywords(input.Title + " " + input.Content)
	encodedTitle := utils.QueryEscape(title)
	if title == "" {
		encodedTitle = utils.QueryEscape(strings.Join(keywords, " "))
	}
	encodedKeywords := utils.QueryEscape(strings.Join(keywords, " "))
	if encodedKeywords == "" {
		encodedKeywords = encodedTitle
	}

	bundle := &models.ResourceBundle{
		Discussion: []models.ResourceItem{
			{
				Title:     fmt.Sprintf("Discussion about %q", displayTitle),
				URL:       fmt.Sprintf("https://reddit.com/r/movies/search?q=%s&restrict_sr=on&sort=relevance&t=year", encodedTitle),
				Relevance: "Reddit discussions and reviews about this content",
				Category:  models.CategoryDiscussion,
				Metadata:  map[string]string{"subreddit": "r/movies"},
			},
			{
				Title:     fmt.Sprintf("Analysis and theories about %q", displayTitle),
				URL:       fmt.Sprintf("https://reddit.com/r/television/search?q=%s&restrict_sr=on&sort=relevance&t=year", encodedTitle),
				Relevance: "TV show analysis and fan theories",
				Category:  models.CategoryDiscussion,
				Metadata:  map[string]string{"subreddit": "r/television"},
			},
			{
				Title:     fmt.Sprintf("Behind the scenes: %q", displayTitle),
				URL:       fmt.Sprintf("https://reddit.com/r/filmmakers/search?q=%s&restrict_sr=on&sort=relevance&t=year", encodedKeywords),
				Relevance: "Technical discussions and behind-the-scenes content",
				Category:  models.CategoryDiscussion,
				Metadata:  map[string]string{"subreddit": "r/filmmakers"},
			},
		},
		Videos: []models.ResourceItem{
			{
				Title:     fmt.Sprintf("Analysis and Review: %q", displayTitle),
				URL:       fmt.Sprintf("https://youtube.com/results?search_query=%s+analysis+review", encodedTitle),
				Relevance: "YouTube analysis videos and reviews",
				Category:  models.CategoryVideo,
			},
			{
				Title:     fmt.Sprintf("Behind the Scenes: %q", displayTitle),
				URL:       fmt.Sprintf("https://youtube.com/results?search_query=%s+behind+scenes+making+of", encodedTitle),
				Relevance: "Behind-the-scenes footage and making-of content",
				Category:  models.CategoryVideo,
			},
			{
				Title:     fmt.Sprintf("Explained: %q", displayTitle),
				URL:       fmt.Sprintf("https://youtube.com/results?search_query=%s+explained+breakdown", encodedTitle),
				Relevance: "Explanatory videos and breakdowns",
				Category:  models.CategoryVideo,
			},
		},
		Articles: []models.ResourceItem{
			{
				Title:     fmt.Sprintf("IMDb: %q - Cast, Crew & Reviews", displayTitle),
				URL:       "https://www.imdb.com/find?q=" + encodedTitle,
				Relevance: "Cast, crew, reviews, and ratings",
				Category:  models.CategoryArticle,
				Metadata:  map[string]string{"source": "IMDb"},
			},
			{
				Title:     fmt.Sprintf("Rotten Tomatoes: %q Reviews", displayTitle),
				URL:       "https://www.rottentomatoes.com/search?search=" + encodedTitle,
				Relevance: "Professional and audience reviews with ratings",
				Category:  models.CategoryArticle,
				Metadata:  map[string]string{"source": "Rotten Tomatoes"},
			},
			{
				Title:     fmt.Sprintf("Metacritic: %q Critic Reviews", displayTitle),
				URL:       "https://www.metacritic.com/search/" + encodedTitle,
				Relevance: "Aggregated critic scores and detailed reviews",
				Category:  models.CategoryArticle,
				Metadata:  map[string]string{"source": "Metacritic"},
			},
		},
		Background: []models.ResourceItem{
			{
				Title:     fmt.Sprintf("Wikipedia: %q", displayTitle),
				URL:       "https://en.wikipedia.org/wiki/Special:Search?search=" + encodedTitle,
				Relevance: "Background information, plot summary, and cultural context",
				Category:  models.CategoryBackground,
				Metadata:  map[string]string{"source": "Wikipedia"},
			},
			{
				Title:     fmt.Sprintf("Google News: %q", displayTitle),
				URL:       fmt.Sprintf("https://news.google.com/search?q=%s&hl=en-US&gl=US&ceid=US:en", encodedTitle),
				Relevance: "Latest news articles and interviews related to this content",
				Category:  models.CategoryBackground,
				Metadata:  map[string]string{"source": "Google News"},
			},
			{
				Title:     fmt.Sprintf("Letterboxd: %q", displayTitle),
				URL:       fmt.Sprintf("https://letterboxd.com/search/%s/", encodedTitle),
				Relevance: "User reviews, ratings, and film community discussions",
				Category:  models.CategoryBackground,
				Metadata:  map[string]string{"source": "Letterboxd"},
			},
		},
		Keywords:    HeuristicKeywords(input.Title, input.Content),
		Method:      models.MethodStaticFallback,
		GeneratedAt: time.Now().UTC(),
	}
	if cause != nil {
		bundle.Error = cause.Error()
	}
	return bundle
}

// staticKeywords is the naive extractor the static tier uses: stop-word
// filtered tokens longer than two characters, top five.
func staticKeywords(text string) []string {
	var out []string
	for _, w := range strings.Fields(nonWordRE.ReplaceAllString(strings.ToLower(text), " ")) {
		if len(w) > 2 && !stopWords[w] {
			out = append(out, w)
			if len(out) == 5 {
				break
			}
		}
	}
	return out
}
