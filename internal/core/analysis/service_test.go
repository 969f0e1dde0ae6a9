package analysis

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"meal-cost-analyzer/internal/core/pricing"
	"meal-cost-analyzer/internal/infrastructure/config"
	"meal-cost-analyzer/internal/pkg/common"
)

// stubOracle is a deterministic Oracle for pipeline tests
type stubOracle struct {
	mu            sync.Mutex
	describeCalls int
	extractCalls  int
	describeText  string
	extractText   string
	describeErr   error
	extractErr    error
	describeDelay time.Duration
}

func (s *stubOracle) DescribeImage(ctx context.Context, imageURL, prompt string) (string, error) {
	s.mu.Lock()
	s.describeCalls++
	delay := s.describeDelay
	err := s.describeErr
	text := s.describeText
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

func (s *stubOracle) ExtractStructured(ctx context.Context, system, user string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extractCalls++
	if s.extractErr != nil {
		return "", s.extractErr
	}
	return s.extractText, nil
}

func (s *stubOracle) GetModel() string { return "stub-model" }

func (s *stubOracle) Close() error { return nil }

func (s *stubOracle) calls() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.describeCalls, s.extractCalls
}

const riceExtract = `{"meal":"Fried Rice","recipe":[{"type":"rice","amount":199.6,"pricePerGram":0.0051}],"estimatedHomeCookedPrice":10,"restaurantPrice":30}`

func newTestService(oracle *stubOracle) *Service {
	cache := NewResultCache(&config.CacheConfig{Enabled: true})
	corrector := pricing.NewCorrector(pricing.DefaultTable(), nil)
	return NewService(oracle, corrector, cache)
}

func TestAnalyzeRejectsInvalidImageURL(t *testing.T) {
	oracle := &stubOracle{describeText: "a meal", extractText: riceExtract}
	svc := newTestService(oracle)

	for _, url := range []string{"", "ftp://example.com/meal.jpg", "not-a-url"} {
		_, err := svc.Analyze(context.Background(), url, common.PriceOverrides{})
		if err == nil {
			t.Fatalf("expected error for %q", url)
		}
		if !common.IsValidationError(err) {
			t.Fatalf("expected validation error for %q, got %v", url, err)
		}
	}

	if describes, _ := oracle.calls(); describes != 0 {
		t.Fatalf("oracle must not be called on invalid input, got %d calls", describes)
	}
}

func TestAnalyzeRejectsNegativeOverrides(t *testing.T) {
	oracle := &stubOracle{describeText: "a meal", extractText: riceExtract}
	svc := newTestService(oracle)

	_, err := svc.Analyze(context.Background(), "https://example.com/meal.jpg",
		common.PriceOverrides{RestaurantPrice: floatPtr(-1)})
	if !common.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAnalyzeFullPipeline(t *testing.T) {
	oracle := &stubOracle{describeText: "a plate of fried rice", extractText: riceExtract}
	svc := newTestService(oracle)

	result, err := svc.Analyze(context.Background(), "https://example.com/meal.jpg", common.PriceOverrides{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Meal != "Fried Rice" {
		t.Fatalf("expected Fried Rice, got %q", result.Meal)
	}
	// correction then normalization
	if result.Recipe[0].PricePerGram != 0.005 {
		t.Fatalf("expected corrected rice price 0.005, got %v", result.Recipe[0].PricePerGram)
	}
	if result.Recipe[0].Amount != 200 {
		t.Fatalf("expected normalized amount 200, got %v", result.Recipe[0].Amount)
	}
	// sanity rule: 30 > 2*10
	if result.EstimatedHomeCookedPrice != 14.15 || result.Saving != 15.85 {
		t.Fatalf("unexpected reconciled prices: home %v, saving %v",
			result.EstimatedHomeCookedPrice, result.Saving)
	}
}

func TestAnalyzeIdempotentAndNoAliasing(t *testing.T) {
	oracle := &stubOracle{describeText: "a plate of fried rice", extractText: riceExtract}
	svc := newTestService(oracle)
	ctx := context.Background()
	url := "https://example.com/meal.jpg"

	first, err := svc.Analyze(ctx, url, common.PriceOverrides{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Analyze(ctx, url, common.PriceOverrides{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated analysis differs: %+v vs %+v", first, second)
	}
	if describes, _ := oracle.calls(); describes != 1 {
		t.Fatalf("expected 1 oracle call, got %d", describes)
	}

	// mutating a returned result must not leak into the cache
	second.Meal = "Tampered"
	second.Recipe[0].PricePerGram = 99

	third, err := svc.Analyze(ctx, url, common.PriceOverrides{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, third) {
		t.Fatalf("cache aliased a returned result: %+v vs %+v", first, third)
	}
}

func TestAnalyzeDistinctOverridesDistinctResults(t *testing.T) {
	oracle := &stubOracle{describeText: "a plate of fried rice", extractText: riceExtract}
	svc := newTestService(oracle)
	ctx := context.Background()
	url := "https://example.com/meal.jpg"

	plain, err := svc.Analyze(ctx, url, common.PriceOverrides{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	overridden, err := svc.Analyze(ctx, url, common.PriceOverrides{RestaurantPrice: floatPtr(69)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plain.RestaurantPrice == overridden.RestaurantPrice {
		t.Fatal("override request must not share a cache slot with the plain request")
	}
	if overridden.RestaurantPrice != 69 {
		t.Fatalf("expected overridden restaurant price 69, got %v", overridden.RestaurantPrice)
	}
	if describes, _ := oracle.calls(); describes != 2 {
		t.Fatalf("expected 2 oracle calls for 2 fingerprints, got %d", describes)
	}
}

func TestAnalyzeOracleErrorsSurfaceAndAreNotCached(t *testing.T) {
	oracle := &stubOracle{describeErr: errors.New("connection refused")}
	svc := newTestService(oracle)
	ctx := context.Background()
	url := "https://example.com/meal.jpg"

	_, err := svc.Analyze(ctx, url, common.PriceOverrides{})
	if !common.IsOracleError(err) {
		t.Fatalf("expected oracle error, got %v", err)
	}
	var oracleErr *common.OracleError
	if !errors.As(err, &oracleErr) || oracleErr.Stage != "describe" {
		t.Fatalf("expected describe stage, got %v", err)
	}

	// recovery on the next call proves the failure was not cached
	oracle.mu.Lock()
	oracle.describeErr = nil
	oracle.describeText = "a plate of fried rice"
	oracle.extractText = riceExtract
	oracle.mu.Unlock()

	result, err := svc.Analyze(ctx, url, common.PriceOverrides{})
	if err != nil {
		t.Fatalf("expected recovery after transient failure, got %v", err)
	}
	if result.Meal != "Fried Rice" {
		t.Fatalf("unexpected meal %q", result.Meal)
	}
}

func TestAnalyzeExtractErrorStage(t *testing.T) {
	oracle := &stubOracle{describeText: "a meal", extractErr: errors.New("rate limited")}
	svc := newTestService(oracle)

	_, err := svc.Analyze(context.Background(), "https://example.com/meal.jpg", common.PriceOverrides{})

	var oracleErr *common.OracleError
	if !errors.As(err, &oracleErr) || oracleErr.Stage != "extract" {
		t.Fatalf("expected extract stage oracle error, got %v", err)
	}
}

func TestAnalyzeFallbackIsCachedAndSkipsCorrection(t *testing.T) {
	oracle := &stubOracle{describeText: "a meal", extractText: "I am sorry, I cannot produce JSON."}
	svc := newTestService(oracle)
	ctx := context.Background()
	url := "https://example.com/meal.jpg"

	first, err := svc.Analyze(ctx, url, common.PriceOverrides{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// the fixed record, untouched by correction or reconciliation
	if first.Meal != "Food Dish" || first.EstimatedHomeCookedPrice != 15.00 ||
		first.RestaurantPrice != 35.00 || first.Saving != 20.00 {
		t.Fatalf("expected fallback record, got %+v", first)
	}

	second, err := svc.Analyze(ctx, url, common.PriceOverrides{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("fallback must fail identically forever: %+v vs %+v", first, second)
	}
	if describes, _ := oracle.calls(); describes != 1 {
		t.Fatalf("expected fallback to be cached, got %d oracle calls", describes)
	}
}

func TestAnalyzeConcurrentRequestsShareOneOracleCall(t *testing.T) {
	oracle := &stubOracle{
		describeText:  "a plate of fried rice",
		extractText:   riceExtract,
		describeDelay: 50 * time.Millisecond,
	}
	svc := newTestService(oracle)
	ctx := context.Background()
	url := "https://example.com/meal.jpg"

	var wg sync.WaitGroup
	results := make([]*common.MealAnalysis, 10)
	errs := make([]error, 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Analyze(ctx, url, common.PriceOverrides{})
		}(i)
	}
	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Fatalf("request %d failed: %v", i, errs[i])
		}
		if !reflect.DeepEqual(results[0], results[i]) {
			t.Fatalf("request %d got a different result", i)
		}
	}

	if describes, _ := oracle.calls(); describes != 1 {
		t.Fatalf("expected concurrent requests to share 1 oracle call, got %d", describes)
	}
}

func TestAnalyzeCard(t *testing.T) {
	oracle := &stubOracle{describeText: "a plate of fried rice", extractText: riceExtract}
	svc := newTestService(oracle)

	card, err := svc.AnalyzeCard(context.Background(), "https://example.com/meal.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if card.Title != "Fried Rice" {
		t.Fatalf("expected Fried Rice, got %q", card.Title)
	}
	if card.SavingsPercentage != 52.8 {
		t.Fatalf("expected savings percentage 52.8, got %v", card.SavingsPercentage)
	}
	if card.ImageURL != "https://example.com/meal.jpg" {
		t.Fatalf("unexpected image URL %q", card.ImageURL)
	}
}
