package common

import (
	"fmt"
	"strings"
	"time"
)

// RecipeIngredient one recipe line as reported by the model. Type is free
// text, not an enum.
type RecipeIngredient struct {
	Type         string  `json:"type"`
	Amount       float64 `json:"amount"`       // grams (or discrete unit count), whole-unit precision
	PricePerGram float64 `json:"pricePerGram"` // CAD per gram, 3 decimal places
}

// MealAnalysis the finalized output of the analysis pipeline.
// Saving is derived: always restaurantPrice - estimatedHomeCookedPrice,
// recomputed after any override or correction.
type MealAnalysis struct {
	Meal                     string             `json:"meal"`
	Recipe                   []RecipeIngredient `json:"recipe"`
	EstimatedHomeCookedPrice float64            `json:"estimatedHomeCookedPrice"`
	RestaurantPrice          float64            `json:"restaurantPrice"`
	Saving                   float64            `json:"saving"`
}

// Clone returns a deep copy so cache internals are never aliased by callers
func (m *MealAnalysis) Clone() *MealAnalysis {
	if m == nil {
		return nil
	}
	out := *m
	if m.Recipe != nil {
		out.Recipe = make([]RecipeIngredient, len(m.Recipe))
		copy(out.Recipe, m.Recipe)
	}
	return &out
}

// PriceOverrides caller-supplied prices that win over model estimates.
// Nil means no override.
type PriceOverrides struct {
	RestaurantPrice          *float64 `json:"restaurant_price,omitempty"`
	EstimatedHomeCookedPrice *float64 `json:"home_cooked_price,omitempty"`
}

// FoodCardData presentation projection of a MealAnalysis
type FoodCardData struct {
	Title             string             `json:"title"`
	HomeCookedPrice   float64            `json:"homeCookedPrice"`
	RestaurantPrice   float64            `json:"restaurantPrice"`
	Savings           float64            `json:"savings"`
	SavingsPercentage float64            `json:"savingsPercentage"`
	Ingredients       []RecipeIngredient `json:"ingredients"`
	ImageURL          string             `json:"imageUrl"`
}

// SavedMeal a persisted analysis with its metadata
type SavedMeal struct {
	ID                       string             `json:"id"`
	Meal                     string             `json:"meal"`
	ImageURL                 string             `json:"image"`
	Recipe                   []RecipeIngredient `json:"recipe"`
	EstimatedHomeCookedPrice float64            `json:"estimatedHomeCookedPrice"`
	RestaurantPrice          float64            `json:"restaurantPrice"`
	Saving                   float64            `json:"saving"`
	HomeCooked               bool               `json:"homeCooked"`
	CreatedAt                time.Time          `json:"createdAt"`
}

// SavingsPoint one day of accumulated savings, for the history chart
type SavingsPoint struct {
	Date         string  `json:"date"` // YYYY-MM-DD
	TotalSavings float64 `json:"totalSavings"`
	MealCount    int     `json:"mealCount"`
}

// FormatRecipe renders a recipe as readable lines, for logs and prompts
func FormatRecipe(recipe []RecipeIngredient) string {
	var sb strings.Builder
	for _, ing := range recipe {
		sb.WriteString(fmt.Sprintf("- %s: %.0fg at $%.3f/g\n", ing.Type, ing.Amount, ing.PricePerGram))
	}
	return sb.String()
}
