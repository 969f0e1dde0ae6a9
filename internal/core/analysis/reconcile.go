package analysis

import (
	"math"

	"meal-cost-analyzer/internal/pkg/common"

	"go.uber.org/zap"
)

// sanityRatio replaces an implausibly cheap home-cooked estimate: when the
// restaurant price is more than double the home price, home becomes
// restaurant/2.12, a fixed empirical labor-and-overhead markup.
const sanityRatio = 2.12

// NormalizePrice rounds value to digits decimal places. Rounding is half
// away from zero (math.Round), which matches how the displayed prices were
// always produced; all inputs here are non-negative.
func NormalizePrice(value float64, digits int) float64 {
	pow := math.Pow(10, float64(digits))
	return math.Round(value*pow) / pow
}

// Reconcile applies the final business rules to an analysis and returns a
// new value; the input is not mutated. The step order is load-bearing:
// the sanity rule runs before overrides so a caller-supplied price always
// wins, the hard invariant runs after overrides, and saving is computed
// last so it can never go stale.
func Reconcile(analysis *common.MealAnalysis, overrides common.PriceOverrides) *common.MealAnalysis {
	result := analysis.Clone()

	// 1. ingredient amounts to whole grams, prices to 3 decimals
	for i := range result.Recipe {
		result.Recipe[i].Amount = NormalizePrice(result.Recipe[i].Amount, 0)
		result.Recipe[i].PricePerGram = NormalizePrice(result.Recipe[i].PricePerGram, 3)
	}

	// 2. meal prices to 2 decimals
	result.EstimatedHomeCookedPrice = NormalizePrice(result.EstimatedHomeCookedPrice, 2)
	result.RestaurantPrice = NormalizePrice(result.RestaurantPrice, 2)

	// 3. sanity rule, before overrides
	if result.RestaurantPrice > 2*result.EstimatedHomeCookedPrice {
		result.EstimatedHomeCookedPrice = NormalizePrice(result.RestaurantPrice/sanityRatio, 2)
	}

	// 4-5. caller-supplied prices win over everything above
	if overrides.RestaurantPrice != nil {
		result.RestaurantPrice = NormalizePrice(*overrides.RestaurantPrice, 2)
	}
	if overrides.EstimatedHomeCookedPrice != nil {
		result.EstimatedHomeCookedPrice = NormalizePrice(*overrides.EstimatedHomeCookedPrice, 2)
	}

	// 6. hard invariant: home-cooked must be strictly cheaper. Fixed ratios
	// keep repeated analyses consistent.
	if result.EstimatedHomeCookedPrice >= result.RestaurantPrice {
		common.LogInfo("home-cooked price not below restaurant price, rebalancing",
			zap.Float64("home", result.EstimatedHomeCookedPrice),
			zap.Float64("restaurant", result.RestaurantPrice),
		)
		result.RestaurantPrice = NormalizePrice(math.Max(20, result.EstimatedHomeCookedPrice*1.5), 2)
		result.EstimatedHomeCookedPrice = NormalizePrice(result.RestaurantPrice*0.6, 2)
	}

	// 7. saving is derived, always computed last
	result.Saving = NormalizePrice(result.RestaurantPrice-result.EstimatedHomeCookedPrice, 2)

	return result
}

// BuildFoodCard projects an analysis into card display data. Carries its own
// final guard on the price invariant: if it somehow fails here, both prices
// are rebalanced around their average before the percentage is computed.
func BuildFoodCard(analysis *common.MealAnalysis, imageURL string) *common.FoodCardData {
	a := analysis.Clone()

	if a.EstimatedHomeCookedPrice >= a.RestaurantPrice {
		avg := (a.EstimatedHomeCookedPrice + a.RestaurantPrice) / 2
		a.RestaurantPrice = NormalizePrice(avg*1.4, 2)
		a.EstimatedHomeCookedPrice = NormalizePrice(avg*0.6, 2)
		a.Saving = NormalizePrice(a.RestaurantPrice-a.EstimatedHomeCookedPrice, 2)
	}

	savingsPercentage := NormalizePrice(a.Saving/a.RestaurantPrice*100, 1)

	return &common.FoodCardData{
		Title:             a.Meal,
		HomeCookedPrice:   NormalizePrice(a.EstimatedHomeCookedPrice, 2),
		RestaurantPrice:   NormalizePrice(a.RestaurantPrice, 2),
		Savings:           NormalizePrice(a.Saving, 2),
		SavingsPercentage: savingsPercentage,
		Ingredients:       a.Recipe,
		ImageURL:          imageURL,
	}
}
