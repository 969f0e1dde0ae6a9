package common

import "testing"

func TestParseJSONRejectsTrailingData(t *testing.T) {
	var out map[string]interface{}
	if err := ParseJSON(`{"a":1} trailing`, &out); err == nil {
		t.Fatal("expected error for trailing data")
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		found bool
	}{
		{
			name:  "bare object",
			in:    `{"a":1}`,
			want:  `{"a":1}`,
			found: true,
		},
		{
			name:  "object in prose",
			in:    "Here you go: {\"a\":1}\nanything else?",
			want:  `{"a":1}`,
			found: true,
		},
		{
			name:  "no object",
			in:    "no json here",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ExtractJSONObject(tt.in)
			if found != tt.found {
				t.Fatalf("found = %v, want %v", found, tt.found)
			}
			if found && got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMealAnalysisClone(t *testing.T) {
	original := &MealAnalysis{
		Meal: "Fried Rice",
		Recipe: []RecipeIngredient{
			{Type: "rice", Amount: 200, PricePerGram: 0.005},
		},
		EstimatedHomeCookedPrice: 14.15,
		RestaurantPrice:          30,
		Saving:                   15.85,
	}

	clone := original.Clone()
	clone.Meal = "Changed"
	clone.Recipe[0].Amount = -1

	if original.Meal != "Fried Rice" || original.Recipe[0].Amount != 200 {
		t.Fatalf("clone shares state with the original: %+v", original)
	}
}
