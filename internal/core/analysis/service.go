package analysis

import (
	"context"
	"strings"
	"sync"
	"time"

	"meal-cost-analyzer/internal/core/ai/provider"
	"meal-cost-analyzer/internal/core/pricing"
	"meal-cost-analyzer/internal/pkg/common"

	"go.uber.org/zap"
)

// Service runs the meal price analysis pipeline: validate the image
// reference, consult the result cache, run the two oracle passes, repair and
// correct the answer, reconcile prices, and cache the outcome. Stateless
// across requests except for the cache and the in-flight registry.
type Service struct {
	oracle    provider.Oracle
	corrector *pricing.Corrector
	cache     *ResultCache

	mu       sync.Mutex
	inflight map[string]*inflightCall
}

// inflightCall lets concurrent requests for one fingerprint share a single
// oracle invocation instead of racing each other to the cache slot
type inflightCall struct {
	done   chan struct{}
	result *common.MealAnalysis
	err    error
}

// NewService creates the analysis service
func NewService(oracle provider.Oracle, corrector *pricing.Corrector, cache *ResultCache) *Service {
	return &Service{
		oracle:    oracle,
		corrector: corrector,
		cache:     cache,
		inflight:  make(map[string]*inflightCall),
	}
}

// Analyze runs the full pipeline for one image reference. Validation and
// oracle-transport failures are returned to the caller; malformed model
// output never is, it degrades to backfilled fields or the fixed fallback.
func (s *Service) Analyze(ctx context.Context, imageURL string, overrides common.PriceOverrides) (*common.MealAnalysis, error) {
	// reject bad input before any external cost
	if err := validateImageURL(imageURL); err != nil {
		common.LogWarn("rejected image reference",
			zap.String("image_url", imageURL),
			zap.Error(err),
		)
		return nil, err
	}
	if err := validateOverrides(overrides); err != nil {
		return nil, err
	}

	fingerprint := Fingerprint(imageURL, overrides)

	if cached, ok := s.cache.Lookup(fingerprint); ok {
		return cached, nil
	}

	// share one execution among concurrent identical requests
	s.mu.Lock()
	if call, exists := s.inflight[fingerprint]; exists {
		s.mu.Unlock()
		select {
		case <-call.done:
			if call.err != nil {
				return nil, call.err
			}
			return call.result.Clone(), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &inflightCall{done: make(chan struct{})}
	s.inflight[fingerprint] = call
	s.mu.Unlock()

	result, err := s.analyze(ctx, imageURL, fingerprint, overrides)

	call.result = result
	call.err = err
	close(call.done)

	s.mu.Lock()
	delete(s.inflight, fingerprint)
	s.mu.Unlock()

	return result, err
}

// analyze performs the oracle calls and post-processing for a cache miss
func (s *Service) analyze(ctx context.Context, imageURL string, fingerprint string, overrides common.PriceOverrides) (*common.MealAnalysis, error) {
	common.LogInfo("starting meal analysis",
		zap.String("image_url", imageURL),
	)

	// first pass: free-form description of the dish
	start := time.Now()
	analysisText, err := s.oracle.DescribeImage(ctx, imageURL, visionPrompt)
	common.LogOracleCall("describe", time.Since(start), err)
	if err != nil {
		return nil, common.NewOracleError("describe", err)
	}

	// second pass: reformat the description into strict JSON
	start = time.Now()
	jsonText, err := s.oracle.ExtractStructured(ctx, extractSystemPrompt, buildExtractPrompt(analysisText))
	common.LogOracleCall("extract", time.Since(start), err)
	if err != nil {
		return nil, common.NewOracleError("extract", err)
	}

	repaired, isFallback := Repair(jsonText, analysisText)
	if isFallback {
		// the fallback record is cached as-is so an unrecoverable
		// fingerprint fails identically forever; overrides and corrections
		// do not apply to it
		s.cache.Store(fingerprint, repaired)
		return repaired, nil
	}

	repaired.Recipe = s.corrector.Correct(repaired.Recipe)
	common.LogDebug("recipe after correction",
		zap.String("recipe", common.FormatRecipe(repaired.Recipe)),
	)

	reconciled := Reconcile(repaired, overrides)

	s.cache.Store(fingerprint, reconciled)

	common.LogInfo("meal analysis completed",
		zap.String("meal", reconciled.Meal),
		zap.Int("ingredients", len(reconciled.Recipe)),
		zap.Float64("home_price", reconciled.EstimatedHomeCookedPrice),
		zap.Float64("restaurant_price", reconciled.RestaurantPrice),
		zap.Float64("saving", reconciled.Saving),
	)

	return reconciled, nil
}

// AnalyzeCard runs the pipeline and projects the result into card data
func (s *Service) AnalyzeCard(ctx context.Context, imageURL string) (*common.FoodCardData, error) {
	analysis, err := s.Analyze(ctx, imageURL, common.PriceOverrides{})
	if err != nil {
		return nil, err
	}
	return BuildFoodCard(analysis, imageURL), nil
}

// CacheStats exposes cache counters for health reporting
func (s *Service) CacheStats() map[string]interface{} {
	return s.cache.Stats()
}

// validateImageURL accepts only fetchable-looking http(s) references
func validateImageURL(imageURL string) error {
	if imageURL == "" {
		return common.NewValidationError("image URL is required")
	}
	if !strings.HasPrefix(imageURL, "http://") && !strings.HasPrefix(imageURL, "https://") {
		return common.NewValidationError("image URL must start with http:// or https://")
	}
	return nil
}

// validateOverrides rejects negative override prices
func validateOverrides(overrides common.PriceOverrides) error {
	if overrides.RestaurantPrice != nil && *overrides.RestaurantPrice < 0 {
		return common.NewValidationError("restaurant price override must be non-negative")
	}
	if overrides.EstimatedHomeCookedPrice != nil && *overrides.EstimatedHomeCookedPrice < 0 {
		return common.NewValidationError("home-cooked price override must be non-negative")
	}
	return nil
}
