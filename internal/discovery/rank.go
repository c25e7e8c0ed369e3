package discovery

import (
	"sort"
	"strings"
	"time"

	"github.com/clipexplain/clipexplain/config"
	"github.com/clipexplain/clipexplain/models"
)

// Ranker scores deduplicated items against the keyword set and context
// text, sorts them, and truncates to the per-category caps.
type Ranker struct {
	cfg config.RankingConfig
}

func NewRanker(cfg config.RankingConfig) *Ranker {
	return &Ranker{cfg: cfg}
}

// Rank produces the final bundle from aggregated items. Ordering within
// each category is descending by score with ties broken by original fetch
// order (stable sort). When all four lists come out empty it returns
// models.ErrNoContent so the cascade can substitute the search-stub tier.
func (r *Ranker) Rank(items []models.ResourceItem, ks models.KeywordSet, contextText string) (*models.ResourceBundle, error) {
	scored := make([]scoredItem, len(items))
	lowerContext := strings.ToLower(contextText)
	for i, item := range items {
		scored[i] = scoredItem{item: item, score: r.Score(item, ks, lowerContext)}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	bundle := &models.ResourceBundle{
		Keywords:    ks,
		Method:      models.MethodRankedLive,
		GeneratedAt: time.Now().UTC(),
	}
	for _, s := range scored {
		switch s.item.Category {
		case models.CategoryDiscussion:
			if len(bundle.Discussion) < r.cfg.CapDiscussion {
				bundle.Discussion = append(bundle.Discussion, s.item)
			}
		case models.CategoryVideo:
			if len(bundle.Videos) < r.cfg.CapVideo {
				bundle.Videos = append(bundle.Videos, s.item)
			}
		case models.CategoryArticle:
			if len(bundle.Articles) < r.cfg.CapArticle {
				bundle.Articles = append(bundle.Articles, s.item)
			}
		case models.CategoryBackground:
			if len(bundle.Background) < r.cfg.CapBackground {
				bundle.Background = append(bundle.Background, s.item)
			}
		}
	}

	if bundle.Empty() {
		return nil, models.ErrNoContent
	}
	return bundle, nil
}

type scoredItem struct {
	item  models.ResourceItem
	score int
}

// Score computes one item's relevance. The weights are empirical carries
// from the original system, exposed through RankingConfig rather than
// hard-coded. lowerContext must already be lower-cased.
func (r *Ranker) Score(item models.ResourceItem, ks models.KeywordSet, lowerContext string) int {
	var sb strings.Builder
	sb.WriteString(item.Title)
	sb.WriteByte(' ')
	sb.WriteString(item.Relevance)
	// Metadata keys in sorted order: map iteration order would let a
	// multi-word keyword match across a value boundary in some runs only.
	keys := make([]string, 0, len(item.Metadata))
	for k := range item.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteByte(' ')
		sb.WriteString(item.Metadata[k])
	}
	text := strings.ToLower(sb.String())

	score := 0
	for _, k := range ks.Primary {
		lk := strings.ToLower(k)
		if lk == "" {
			continue
		}
		if strings.Contains(text, lk) {
			score += r.cfg.PrimaryInText
		}
		if strings.Contains(lowerContext, lk) {
			score += r.cfg.PrimaryInContext
		}
	}
	for _, k := range ks.Secondary {
		lk := strings.ToLower(k)
		if lk != "" && strings.Contains(text, lk) {
			score += r.cfg.SecondaryInText
		}
	}

	switch item.Category {
	case models.CategoryDiscussion:
		score += r.cfg.WeightDiscussion
	case models.CategoryVideo:
		score += r.cfg.WeightVideo
	case models.CategoryArticle:
		score += r.cfg.WeightArticle
	case models.CategoryBackground:
		score += r.cfg.WeightBackground
	}

	if item.SocialProof > 0 {
		boost := int(item.SocialProof) / r.cfg.SocialProofDivisor
		if boost > r.cfg.SocialProofCap {
			boost = r.cfg.SocialProofCap
		}
		score += boost
	}
	return score
}
