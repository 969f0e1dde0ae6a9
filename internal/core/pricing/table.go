package pricing

import (
	"fmt"
	"os"
	"strings"

	"meal-cost-analyzer/internal/pkg/common"

	"go.uber.org/zap"
)

// Table maps normalized ingredient names to CAD price per gram. Loaded once
// at startup and read-only afterwards.
type Table map[string]float64

// defaultPrices built-in reference prices, downtown Toronto grocery rates
var defaultPrices = map[string]float64{
	"rice":          0.005,
	"pasta":         0.008,
	"bread":         0.006,
	"bun":           0.008,
	"chicken":       0.02,
	"beef":          0.02,
	"ground beef":   0.025,
	"pork":          0.015,
	"salmon":        0.035,
	"shrimp":        0.04,
	"egg":           0.008,
	"cheese":        0.025,
	"butter":        0.012,
	"milk":          0.003,
	"broccoli":      0.01,
	"carrot":        0.008,
	"onion":         0.006,
	"garlic":        0.015,
	"potato":        0.004,
	"tomato":        0.01,
	"tomato sauce":  0.01,
	"lettuce":       0.008,
	"mushroom":      0.012,
	"bell pepper":   0.011,
	"soy sauce":     0.02,
	"vegetable oil": 0.01,
	"olive oil":     0.02,
	"flour":         0.002,
	"sugar":         0.003,
	"salt":          0.001,
}

// NormalizeName lowercases a name and strips every non-alphanumeric rune, so
// "Ground Beef" and "ground-beef" land on the same key
func NormalizeName(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// NewTable builds a normalized lookup from raw name->price pairs. Entries
// with a non-positive price or an empty normalized name are skipped.
func NewTable(prices map[string]float64) Table {
	table := make(Table, len(prices))
	for name, price := range prices {
		key := NormalizeName(name)
		if key == "" || price <= 0 {
			continue
		}
		table[key] = price
	}
	return table
}

// DefaultTable returns the built-in reference table
func DefaultTable() Table {
	return NewTable(defaultPrices)
}

// LoadTable reads a reference table from a JSON file mapping ingredient name
// to price per gram, falling back to the built-in table when path is empty
func LoadTable(path string) (Table, error) {
	if path == "" {
		common.LogInfo("using built-in ingredient price table",
			zap.Int("entries", len(defaultPrices)),
		)
		return DefaultTable(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read price table: %w", err)
	}

	var prices map[string]float64
	if err := common.ParseJSONBytes(data, &prices); err != nil {
		return nil, fmt.Errorf("failed to parse price table: %w", err)
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("price table %s is empty", path)
	}

	common.LogInfo("loaded ingredient price table",
		zap.String("path", path),
		zap.Int("entries", len(prices)),
	)

	return NewTable(prices), nil
}
