package models

import (
	"errors"
	"time"
)

// ErrNoContent is reported by the ranker when every category list is empty
// after partitioning. The cascade substitutes the search-stub tier for it.
var ErrNoContent = errors.New("no relevant content found")

// ErrMalformedLLMResponse marks keyword replies that reached us but did
// not parse into the expected shape. The deriver recovers from these with
// the heuristic extractor; transport failures instead propagate so the
// cascade can drop a tier.
var ErrMalformedLLMResponse = errors.New("malformed llm response")

// Category classifies a resource item into one of the four bundle lists.
type Category string

const (
	CategoryDiscussion Category = "discussion"
	CategoryVideo      Category = "video"
	CategoryArticle    Category = "article"
	CategoryBackground Category = "background"
)

// Method identifies which cascade tier produced a bundle. Purely
// diagnostic: it never influences scoring or ordering.
type Method string

const (
	MethodRankedLive      Method = "ranked_live"
	MethodSearchStub      Method = "search_stub"
	MethodScrapedFallback Method = "scraped_fallback"
	MethodStaticFallback  Method = "static_fallback"
)

// KeywordSet is the structured search intent derived from conversational
// and video context. Primary is never empty once derivation completes.
type KeywordSet struct {
	Primary       []string `json:"primary_keywords"`
	Secondary     []string `json:"secondary_keywords"`
	SearchQueries []string `json:"search_queries"`
	Context       string   `json:"context"`

	// LLM records whether the set came from the language model or the
	// heuristic extractor. Downstream use is identical either way.
	LLM bool `json:"llm_derived"`
}

// ResourceItem is one discoverable piece of content. URL is the identity
// key: within a bundle no two items of the same category share one.
type ResourceItem struct {
	Title     string            `json:"title"`
	URL       string            `json:"url"`
	Relevance string            `json:"relevance,omitempty"`
	Category  Category          `json:"category"`
	Metadata  map[string]string `json:"metadata,omitempty"`

	// SocialProof is an optional popularity count (upvotes, views) used
	// as a minor ranking boost. Zero means absent.
	SocialProof int64 `json:"social_proof,omitempty"`
}

// ResourceBundle is the categorized, ranked, capped output of one
// discovery request.
type ResourceBundle struct {
	Discussion  []ResourceItem `json:"discussion"`
	Videos      []ResourceItem `json:"videos"`
	Articles    []ResourceItem `json:"articles"`
	Background  []ResourceItem `json:"background"`
	Keywords    KeywordSet     `json:"keywords"`
	Method      Method         `json:"method"`
	GeneratedAt time.Time      `json:"generated_at"`

	// Error carries the failure that pushed the cascade down a tier,
	// if any. Informational only.
	Error string `json:"error,omitempty"`
}

// Empty reports whether all four category lists are empty.
func (b *ResourceBundle) Empty() bool {
	return len(b.Discussion) == 0 && len(b.Videos) == 0 &&
		len(b.Articles) == 0 && len(b.Background) == 0
}

// Items returns every item in the bundle in category order.
func (b *ResourceBundle) Items() []ResourceItem {
	out := make([]ResourceItem, 0, len(b.Discussion)+len(b.Videos)+len(b.Articles)+len(b.Background))
	out = append(out, b.Discussion...)
	out = append(out, b.Videos...)
	out = append(out, b.Articles...)
	out = append(out, b.Background...)
	return out
}

// DiscoverInput is the inbound contract of the engine. At least one of
// Content/ConversationContext should be non-empty, but empty input is not
// rejected: the engine degrades to the lowest tier instead.
type DiscoverInput struct {
	Title               string `json:"title"`
	Content             string `json:"content"`
	ConversationContext string `json:"conversation_context"`
}
