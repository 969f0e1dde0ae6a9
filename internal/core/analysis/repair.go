package analysis

import (
	"encoding/json"
	"regexp"
	"strings"

	"meal-cost-analyzer/internal/pkg/common"

	"go.uber.org/zap"
)

// parseOutcome tags how far the extractor output got through parsing
type parseOutcome int

const (
	outcomeParsed        parseOutcome = iota // direct parse succeeded
	outcomeExtracted                         // parsed after pulling the {...} span out of surrounding prose
	outcomeUnrecoverable                     // nothing parseable in the text
)

// Fallback values used whenever the model's answer cannot be salvaged. A
// request that lands here still succeeds from the caller's point of view,
// just with generic numbers.
const (
	fallbackMealName        = "Food Dish"
	fallbackHomeCookedPrice = 15.00
	fallbackRestaurantPrice = 35.00
)

// mealNamePattern pulls a dish name out of free-form analysis text, e.g.
// "The meal is: Chicken Fried Rice."
var mealNamePattern = regexp.MustCompile(`(?i)(?:meal|dish|food)\s*(?:name|is|:)?\s*[:-]?\s*(.+?)(?:\.|,|\n|$)`)

// looseAnalysis mirrors the extractor's JSON shape with json.Number fields
// so a single odd value does not sink the whole document
type looseAnalysis struct {
	Meal                     string            `json:"meal"`
	Recipe                   []looseIngredient `json:"recipe"`
	EstimatedHomeCookedPrice json.Number       `json:"estimatedHomeCookedPrice"`
	RestaurantPrice          json.Number       `json:"restaurantPrice"`
}

type looseIngredient struct {
	Type         string      `json:"type"`
	Amount       json.Number `json:"amount"`
	PricePerGram json.Number `json:"pricePerGram"`
}

// FallbackAnalysis returns the fixed record used when the extractor output
// is unrecoverable. Single source for the fallback literal.
func FallbackAnalysis() *common.MealAnalysis {
	return &common.MealAnalysis{
		Meal:                     fallbackMealName,
		Recipe:                   []common.RecipeIngredient{},
		EstimatedHomeCookedPrice: fallbackHomeCookedPrice,
		RestaurantPrice:          fallbackRestaurantPrice,
		Saving:                   fallbackRestaurantPrice - fallbackHomeCookedPrice,
	}
}

// tryParse attempts a direct parse, then a regex extraction of the first
// object-looking span
func tryParse(text string) (*looseAnalysis, parseOutcome) {
	text = strings.TrimSpace(text)

	var loose looseAnalysis
	if err := common.ParseJSON(text, &loose); err == nil {
		return &loose, outcomeParsed
	}

	span, ok := common.ExtractJSONObject(text)
	if !ok {
		return nil, outcomeUnrecoverable
	}

	loose = looseAnalysis{}
	if err := common.ParseJSON(span, &loose); err != nil {
		return nil, outcomeUnrecoverable
	}
	return &loose, outcomeExtracted
}

// Repair turns the extractor's text into a MealAnalysis. It never fails:
// malformed JSON degrades to field backfill or, at worst, the fixed fallback
// record. The second return reports whether the fallback path was taken,
// because that result bypasses correction and reconciliation entirely.
func Repair(jsonText string, analysisText string) (*common.MealAnalysis, bool) {
	loose, outcome := tryParse(jsonText)
	if outcome == outcomeUnrecoverable {
		common.LogWarn("extractor output unrecoverable, using fallback analysis",
			zap.Int("response_length", len(jsonText)),
		)
		return FallbackAnalysis(), true
	}
	if outcome == outcomeExtracted {
		common.LogInfo("extracted JSON object from extractor prose")
	}

	result := &common.MealAnalysis{
		Meal:                     strings.TrimSpace(loose.Meal),
		Recipe:                   make([]common.RecipeIngredient, 0, len(loose.Recipe)),
		EstimatedHomeCookedPrice: numberValue(loose.EstimatedHomeCookedPrice),
		RestaurantPrice:          numberValue(loose.RestaurantPrice),
	}

	for _, ing := range loose.Recipe {
		result.Recipe = append(result.Recipe, common.RecipeIngredient{
			Type:         strings.TrimSpace(ing.Type),
			Amount:       numberValue(ing.Amount),
			PricePerGram: numberValue(ing.PricePerGram),
		})
	}

	// Backfill required fields. A zero price counts as missing, same as an
	// absent one.
	if result.Meal == "" {
		result.Meal = extractMealName(analysisText)
		common.LogWarn("meal name missing, backfilled",
			zap.String("meal", result.Meal),
		)
	}
	if result.EstimatedHomeCookedPrice <= 0 {
		result.EstimatedHomeCookedPrice = fallbackHomeCookedPrice
	}
	if result.RestaurantPrice <= 0 {
		result.RestaurantPrice = fallbackRestaurantPrice
	}

	return result, false
}

// numberValue converts a json.Number to a non-negative float64, treating
// unparsable or negative values as zero
func numberValue(n json.Number) float64 {
	if n == "" {
		return 0
	}
	v, err := n.Float64()
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// extractMealName scans the descriptive text for a dish name, falling back
// to the generic one
func extractMealName(analysisText string) string {
	match := mealNamePattern.FindStringSubmatch(analysisText)
	if match == nil {
		return fallbackMealName
	}
	name := strings.TrimSpace(match[1])
	if name == "" {
		return fallbackMealName
	}
	return name
}
