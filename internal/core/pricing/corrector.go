package pricing

import (
	"meal-cost-analyzer/internal/pkg/common"

	"go.uber.org/zap"
)

// Corrector rewrites model-estimated ingredient prices against the
// reference table
type Corrector struct {
	table   Table
	matcher Matcher
}

// NewCorrector creates a corrector over the given table
func NewCorrector(table Table, matcher Matcher) *Corrector {
	if matcher == nil {
		matcher = NewSubstringMatcher()
	}
	return &Corrector{
		table:   table,
		matcher: matcher,
	}
}

// Correct returns a copy of recipe with each line's price per gram replaced
// by its reference price where a match exists. Lines without a match keep the
// model-reported price. The input slice is never mutated.
func (c *Corrector) Correct(recipe []common.RecipeIngredient) []common.RecipeIngredient {
	if len(recipe) == 0 {
		return []common.RecipeIngredient{}
	}

	corrected := make([]common.RecipeIngredient, len(recipe))
	copy(corrected, recipe)

	for i := range corrected {
		price, ok := c.matcher.MatchPrice(corrected[i].Type, c.table)
		if !ok {
			continue
		}
		if price != corrected[i].PricePerGram {
			common.LogDebug("corrected ingredient price",
				zap.String("ingredient", corrected[i].Type),
				zap.Float64("model_price", corrected[i].PricePerGram),
				zap.Float64("reference_price", price),
			)
		}
		corrected[i].PricePerGram = price
	}

	return corrected
}
