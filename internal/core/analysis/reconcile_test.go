package analysis

import (
	"testing"

	"meal-cost-analyzer/internal/pkg/common"
)

func floatPtr(v float64) *float64 {
	return &v
}

func TestReconcileNormalizesIngredients(t *testing.T) {
	input := &common.MealAnalysis{
		Meal: "Fried Rice",
		Recipe: []common.RecipeIngredient{
			{Type: "rice", Amount: 199.6, PricePerGram: 0.0051},
		},
		EstimatedHomeCookedPrice: 10,
		RestaurantPrice:          25,
	}

	result := Reconcile(input, common.PriceOverrides{})

	if result.Recipe[0].Amount != 200 {
		t.Fatalf("expected amount 200, got %v", result.Recipe[0].Amount)
	}
	if result.Recipe[0].PricePerGram != 0.005 {
		t.Fatalf("expected price per gram 0.005, got %v", result.Recipe[0].PricePerGram)
	}
}

func TestReconcileSanityRule(t *testing.T) {
	tests := []struct {
		name           string
		home           float64
		restaurant     float64
		wantHome       float64
		wantRestaurant float64
		wantSaving     float64
	}{
		{
			name:           "fires above double",
			home:           10,
			restaurant:     30,
			wantHome:       14.15, // 30 / 2.12
			wantRestaurant: 30,
			wantSaving:     15.85,
		},
		{
			name:           "fires just above double",
			home:           10,
			restaurant:     25,
			wantHome:       11.79, // 25 / 2.12
			wantRestaurant: 25,
			wantSaving:     13.21,
		},
		{
			name:           "exactly double does not fire",
			home:           12.5,
			restaurant:     25,
			wantHome:       12.5,
			wantRestaurant: 25,
			wantSaving:     12.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := &common.MealAnalysis{
				Meal:                     "Test Meal",
				EstimatedHomeCookedPrice: tt.home,
				RestaurantPrice:          tt.restaurant,
			}

			result := Reconcile(input, common.PriceOverrides{})

			if result.EstimatedHomeCookedPrice != tt.wantHome {
				t.Fatalf("expected home price %v, got %v", tt.wantHome, result.EstimatedHomeCookedPrice)
			}
			if result.RestaurantPrice != tt.wantRestaurant {
				t.Fatalf("expected restaurant price %v, got %v", tt.wantRestaurant, result.RestaurantPrice)
			}
			if result.Saving != tt.wantSaving {
				t.Fatalf("expected saving %v, got %v", tt.wantSaving, result.Saving)
			}
		})
	}
}

func TestReconcileOverrideWinsOverSanityRule(t *testing.T) {
	input := &common.MealAnalysis{
		Meal:                     "Test Meal",
		EstimatedHomeCookedPrice: 10,
		RestaurantPrice:          40, // sanity rule fires: home becomes 18.87
	}

	result := Reconcile(input, common.PriceOverrides{
		RestaurantPrice: floatPtr(69),
	})

	if result.RestaurantPrice != 69 {
		t.Fatalf("expected restaurant override 69 to win, got %v", result.RestaurantPrice)
	}
	if result.EstimatedHomeCookedPrice != 18.87 {
		t.Fatalf("expected home price 18.87, got %v", result.EstimatedHomeCookedPrice)
	}
	if result.Saving != 50.13 {
		t.Fatalf("expected saving 50.13, got %v", result.Saving)
	}
}

func TestReconcileRebalancesWhenHomeNotCheaper(t *testing.T) {
	input := &common.MealAnalysis{
		Meal:                     "Test Meal",
		EstimatedHomeCookedPrice: 12,
		RestaurantPrice:          20,
	}

	result := Reconcile(input, common.PriceOverrides{
		RestaurantPrice:          floatPtr(40),
		EstimatedHomeCookedPrice: floatPtr(69),
	})

	// home 69 >= restaurant 40: restaurant = max(20, 69*1.5), home = 60%
	if result.RestaurantPrice != 103.5 {
		t.Fatalf("expected restaurant price 103.5, got %v", result.RestaurantPrice)
	}
	if result.EstimatedHomeCookedPrice != 62.1 {
		t.Fatalf("expected home price 62.1, got %v", result.EstimatedHomeCookedPrice)
	}
	if result.Saving != 41.4 {
		t.Fatalf("expected saving 41.4, got %v", result.Saving)
	}
}

func TestReconcileRebalanceFloorsRestaurantPrice(t *testing.T) {
	input := &common.MealAnalysis{
		Meal:                     "Cheap Meal",
		EstimatedHomeCookedPrice: 5,
		RestaurantPrice:          5,
	}

	result := Reconcile(input, common.PriceOverrides{})

	if result.RestaurantPrice != 20 {
		t.Fatalf("expected restaurant floor 20, got %v", result.RestaurantPrice)
	}
	if result.EstimatedHomeCookedPrice != 12 {
		t.Fatalf("expected home price 12, got %v", result.EstimatedHomeCookedPrice)
	}
	if result.Saving != 8 {
		t.Fatalf("expected saving 8, got %v", result.Saving)
	}
}

func TestReconcileInvariantAlwaysHolds(t *testing.T) {
	cases := []struct {
		home, restaurant float64
	}{
		{10, 25},
		{10, 30},
		{20, 20},
		{50, 10},
		{0.01, 0.01},
		{15, 35},
	}

	for _, c := range cases {
		result := Reconcile(&common.MealAnalysis{
			Meal:                     "Test Meal",
			EstimatedHomeCookedPrice: c.home,
			RestaurantPrice:          c.restaurant,
		}, common.PriceOverrides{})

		if result.EstimatedHomeCookedPrice >= result.RestaurantPrice {
			t.Fatalf("home %v not below restaurant %v for input (%v, %v)",
				result.EstimatedHomeCookedPrice, result.RestaurantPrice, c.home, c.restaurant)
		}
		want := NormalizePrice(result.RestaurantPrice-result.EstimatedHomeCookedPrice, 2)
		if result.Saving != want {
			t.Fatalf("saving %v is not restaurant-home %v for input (%v, %v)",
				result.Saving, want, c.home, c.restaurant)
		}
	}
}

func TestReconcileDoesNotMutateInput(t *testing.T) {
	input := &common.MealAnalysis{
		Meal: "Fried Rice",
		Recipe: []common.RecipeIngredient{
			{Type: "rice", Amount: 199.6, PricePerGram: 0.0051},
		},
		EstimatedHomeCookedPrice: 10,
		RestaurantPrice:          30,
	}

	Reconcile(input, common.PriceOverrides{RestaurantPrice: floatPtr(69)})

	if input.EstimatedHomeCookedPrice != 10 || input.RestaurantPrice != 30 {
		t.Fatalf("input prices mutated: %v, %v", input.EstimatedHomeCookedPrice, input.RestaurantPrice)
	}
	if input.Recipe[0].Amount != 199.6 || input.Recipe[0].PricePerGram != 0.0051 {
		t.Fatalf("input recipe mutated: %+v", input.Recipe[0])
	}
}

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		value  float64
		digits int
		want   float64
	}{
		{199.6, 0, 200},
		{0.0051, 3, 0.005},
		{14.150943, 2, 14.15},
		{11.792452, 2, 11.79},
		{2.5, 0, 3}, // half rounds away from zero
	}

	for _, tt := range tests {
		if got := NormalizePrice(tt.value, tt.digits); got != tt.want {
			t.Fatalf("NormalizePrice(%v, %d) = %v, want %v", tt.value, tt.digits, got, tt.want)
		}
	}
}

func TestBuildFoodCard(t *testing.T) {
	analysis := &common.MealAnalysis{
		Meal: "Fried Rice",
		Recipe: []common.RecipeIngredient{
			{Type: "rice", Amount: 200, PricePerGram: 0.005},
		},
		EstimatedHomeCookedPrice: 14.15,
		RestaurantPrice:          30,
		Saving:                   15.85,
	}

	card := BuildFoodCard(analysis, "https://example.com/meal.jpg")

	if card.Title != "Fried Rice" {
		t.Fatalf("expected title Fried Rice, got %q", card.Title)
	}
	if card.HomeCookedPrice != 14.15 || card.RestaurantPrice != 30 || card.Savings != 15.85 {
		t.Fatalf("unexpected card prices: %+v", card)
	}
	if card.SavingsPercentage != 52.8 {
		t.Fatalf("expected savings percentage 52.8, got %v", card.SavingsPercentage)
	}
	if card.ImageURL != "https://example.com/meal.jpg" {
		t.Fatalf("unexpected image URL %q", card.ImageURL)
	}
	if len(card.Ingredients) != 1 {
		t.Fatalf("expected 1 ingredient, got %d", len(card.Ingredients))
	}
}

func TestBuildFoodCardRebalancesBrokenInvariant(t *testing.T) {
	analysis := &common.MealAnalysis{
		Meal:                     "Odd Meal",
		EstimatedHomeCookedPrice: 20,
		RestaurantPrice:          20,
		Saving:                   0,
	}

	card := BuildFoodCard(analysis, "https://example.com/meal.jpg")

	// rebalanced around the 20 average
	if card.RestaurantPrice != 28 {
		t.Fatalf("expected restaurant price 28, got %v", card.RestaurantPrice)
	}
	if card.HomeCookedPrice != 12 {
		t.Fatalf("expected home price 12, got %v", card.HomeCookedPrice)
	}
	if card.Savings != 16 {
		t.Fatalf("expected savings 16, got %v", card.Savings)
	}
	if card.SavingsPercentage != 57.1 {
		t.Fatalf("expected savings percentage 57.1, got %v", card.SavingsPercentage)
	}
}
