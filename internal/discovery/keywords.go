package discovery

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"

	"github.com/clipexplain/clipexplain/internal/telemetry"
	"github.com/clipexplain/clipexplain/models"
	"github.com/clipexplain/clipexplain/provider"
)

// KeywordDeriver turns free-text context into a structured keyword set.
// It prefers the LLM collaborator and falls back to the deterministic
// heuristic extractor for malformed or meaningless model output. Only an
// unreachable LLM surfaces as an error, letting the cascade drop to the
// scraped tier instead of pretending the live path succeeded.
type KeywordDeriver struct {
	llm    provider.KeywordProvider
	tele   *telemetry.Telemetry
	logger *log.Logger
}

func NewKeywordDeriver(llm provider.KeywordProvider, tele *telemetry.Telemetry, logger *log.Logger) *KeywordDeriver {
	if logger == nil {
		logger = log.New(log.Writer(), "[KEYWORDS] ", log.LstdFlags)
	}
	return &KeywordDeriver{llm: llm, tele: tele, logger: logger}
}

// Derive produces the keyword set for one discovery request. An LLM
// result whose primary list is empty or consists entirely of the literal
// token "video" is rejected in favor of the heuristic extractor, as is a
// schema-violating reply. With no LLM configured the heuristic runs
// directly and Derive cannot fail.
func (d *KeywordDeriver) Derive(ctx context.Context, contextText, auxiliaryText string) (models.KeywordSet, error) {
	if d.llm == nil {
		return HeuristicKeywords(contextText, auxiliaryText), nil
	}
	ks, err := d.llm.GenerateKeywords(ctx, contextText, auxiliaryText)
	if err != nil {
		d.tele.RecordLLM(false)
		if errors.Is(err, models.ErrMalformedLLMResponse) {
			d.logger.Printf("llm returned malformed keywords, using heuristic: %v", err)
			return HeuristicKeywords(contextText, auxiliaryText), nil
		}
		return models.KeywordSet{}, err
	}
	if !meaningful(ks.Primary) {
		d.tele.RecordLLM(false)
		d.logger.Printf("llm produced no meaningful keywords, using heuristic")
		return HeuristicKeywords(contextText, auxiliaryText), nil
	}
	d.tele.RecordLLM(true)
	return ks, nil
}

// meaningful reports whether a primary list contains at least one token
// other than the literal "video".
func meaningful(primary []string) bool {
	for _, k := range primary {
		if strings.ToLower(k) != "video" {
			return len(primary) > 0
		}
	}
	return false
}

var stopWords = map[string]bool{}

func init() {
	for _, w := range []string{
		"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for",
		"of", "with", "by", "is", "are", "was", "were", "be", "been", "being",
		"have", "has", "had", "do", "does", "did", "will", "would", "could",
		"should", "may", "might", "must", "can", "this", "that", "these",
		"those", "you", "she", "they", "him", "her", "them", "your", "his",
		"its", "our", "their", "what", "when", "where", "how", "why",
		"video", "content", "explained", "asked", "user", "discussion",
		"conversation",
	} {
		stopWords[w] = true
	}
}

var (
	nonWordRE    = regexp.MustCompile(`[^\w\s]`)
	properNounRE = regexp.MustCompile(`\b[A-Z][a-z]+(?: [A-Z][a-z]+)*\b`)
)

// HeuristicKeywords extracts a keyword set without any external calls:
// stop-word-filtered tokens longer than two characters from the lowered
// text, unioned with capitalized-word runs from the original text as
// probable proper nouns, capped at eight, split 5/3 into primary and
// secondary. Three search queries are synthesized from the leading tokens.
func HeuristicKeywords(contextText, auxiliaryText string) models.KeywordSet {
	original := strings.TrimSpace(contextText + " " + auxiliaryText)
	combined := strings.ToLower(original)

	var tokens []string
	seen := map[string]bool{}
	add := func(w string) {
		key := strings.ToLower(w)
		if key == "" || seen[key] || stopWords[key] {
			return
		}
		seen[key] = true
		tokens = append(tokens, w)
	}

	// Proper nouns first: multi-word runs like "Christopher Nolan" carry
	// the most search value.
	for _, run := range properNounRE.FindAllString(original, -1) {
		if len(run) > 2 && !stopWords[strings.ToLower(run)] {
			add(run)
		}
	}
	for _, w := range strings.Fields(nonWordRE.ReplaceAllString(combined, " ")) {
		if len(w) > 2 {
			add(w)
		}
	}

	if len(tokens) > 8 {
		tokens = tokens[:8]
	}
	if len(tokens) == 0 {
		// Empty input still must yield a non-empty primary list.
		tokens = []string{"general"}
	}

	split := 5
	if split > len(tokens) {
		split = len(tokens)
	}
	primary := tokens[:split]
	secondary := tokens[split:]

	lead := func(n int) string {
		if n > len(tokens) {
			n = len(tokens)
		}
		return strings.Join(tokens[:n], " ")
	}

	return models.KeywordSet{
		Primary:   primary,
		Secondary: secondary,
		SearchQueries: []string{
			lead(3),
			lead(2) + " tutorial",
			lead(2) + " analysis",
		},
		Context: classifyContext(combined),
	}
}

var contextPatterns = []struct {
	label   string
	pattern *regexp.Regexp
}{
	{"movie related content", regexp.MustCompile(`movie|film|cinema|director|actor|actress|plot|scene`)},
	{"tech related content", regexp.MustCompile(`technology|software|programming|code|algorithm|machine|learning|artificial`)},
	{"science related content", regexp.MustCompile(`science|physics|chemistry|biology|research|experiment`)},
	{"tutorial related content", regexp.MustCompile(`tutorial|guide|learn|teaching|instruction`)},
	{"analysis related content", regexp.MustCompile(`analysis|review|critique|examination`)},
}

func classifyContext(lowered string) string {
	for _, p := range contextPatterns {
		if p.pattern.MatchString(lowered) {
			return p.label
		}
	}
	return "General discussion"
}
