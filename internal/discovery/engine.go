package discovery

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/clipexplain/clipexplain/config"
	"github.com/clipexplain/clipexplain/internal/sources"
	"github.com/clipexplain/clipexplain/internal/store"
	"github.com/clipexplain/clipexplain/internal/telemetry"
	"github.com/clipexplain/clipexplain/models"
	"github.com/clipexplain/clipexplain/provider"
)

// Engine is the top-level discovery entry point. It wraps the cascade
// with an overall deadline, the bundle cache, history persistence, and
// telemetry. Discover never fails: when everything else is exhausted,
// including the deadline itself, the static tier answers.
type Engine struct {
	cfg     *config.Config
	cascade *Cascade
	cache   *store.BundleCache
	history *store.Store
	tele    *telemetry.Telemetry
	logger  *log.Logger
}

// NewEngine wires the full pipeline from configuration. cache and
// history may be nil; the engine runs without persistence.
func NewEngine(cfg *config.Config, cache *store.BundleCache, history *store.Store, tele *telemetry.Telemetry, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(log.Writer(), "[ENGINE] ", log.LstdFlags)
	}

	var llm provider.KeywordProvider
	if cfg.LLM.APIKey != "" {
		p, err := provider.NewKeywordProvider(cfg.LLM)
		if err != nil {
			logger.Printf("llm provider unavailable, keyword derivation will be heuristic: %v", err)
		} else {
			llm = p
		}
	}

	deriver := NewKeywordDeriver(llm, tele, logger)
	fetchers := sources.NewFetchers(cfg.Sources, cfg.General.UserAgent)
	aggregator := NewAggregator(fetchers, tele, logger)
	ranker := NewRanker(cfg.Ranking)
	cascade := NewCascade(deriver, aggregator, ranker, logger)

	return &Engine{
		cfg:     cfg,
		cascade: cascade,
		cache:   cache,
		history: history,
		tele:    tele,
		logger:  logger,
	}
}

// NewEngineWithCascade injects a prebuilt cascade, used by tests.
func NewEngineWithCascade(cfg *config.Config, cascade *Cascade, cache *store.BundleCache, history *store.Store, tele *telemetry.Telemetry, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(log.Writer(), "[ENGINE] ", log.LstdFlags)
	}
	return &Engine{cfg: cfg, cascade: cascade, cache: cache, history: history, tele: tele, logger: logger}
}

// Discover runs one request end to end and always returns a bundle.
func (e *Engine) Discover(ctx context.Context, input models.DiscoverInput) *models.ResourceBundle {
	requestID := uuid.New().String()
	start := time.Now()

	if cached := e.cache.Get(ctx, input); cached != nil {
		e.tele.RecordDiscovery(telemetry.DiscoveryEvent{
			ID:       requestID,
			Method:   cached.Method,
			Duration: time.Since(start),
			Items:    len(cached.Items()),
			CacheHit: true,
		})
		return cached
	}

	bundle := e.runWithDeadline(ctx, input)

	if bundle.Method == models.MethodRankedLive {
		if err := e.cache.Set(ctx, input, bundle); err != nil {
			e.logger.Printf("cache write failed: %v", err)
		}
	}
	e.recordHistory(requestID, input, bundle, time.Since(start))
	e.tele.RecordDiscovery(telemetry.DiscoveryEvent{
		ID:       requestID,
		Method:   bundle.Method,
		Duration: time.Since(start),
		Items:    len(bundle.Items()),
	})
	return bundle
}

// runWithDeadline races the cascade against the configured processing
// budget. On timeout the static tier answers immediately; the cascade
// goroutine observes the cancelled context and settles on its own.
func (e *Engine) runWithDeadline(ctx context.Context, input models.DiscoverInput) *models.ResourceBundle {
	budget := e.cfg.General.MaxProcessingTime
	if budget <= 0 {
		return e.cascade.Run(ctx, input)
	}

	runCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	done := make(chan *models.ResourceBundle, 1)
	go func() {
		done <- e.cascade.Run(runCtx, input)
	}()

	select {
	case bundle := <-done:
		return bundle
	case <-runCtx.Done():
		e.logger.Printf("processing budget exhausted after %v, answering with static templates", budget)
		return e.cascade.Static(input, runCtx.Err())
	}
}

// recordHistory persists the outcome without blocking the response path.
func (e *Engine) recordHistory(requestID string, input models.DiscoverInput, bundle *models.ResourceBundle, elapsed time.Duration) {
	if e.history == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, err := e.history.SaveDiscovery(ctx, store.DiscoveryRecord{
			ID:       requestID,
			Title:    input.Title,
			Method:   bundle.Method,
			Items:    len(bundle.Items()),
			Duration: elapsed,
			Bundle:   bundle,
		})
		if err != nil {
			e.logger.Printf("history write failed: %v", err)
		}
	}()
}
