package analysis

import (
	"strconv"
	"strings"

	"meal-cost-analyzer/internal/pkg/common"
)

// Fingerprint derives the deterministic cache key for a request: the image
// URL plus any override values. Identical inputs always yield identical
// keys, which is what makes repeated requests idempotent.
func Fingerprint(imageURL string, overrides common.PriceOverrides) string {
	var sb strings.Builder
	sb.WriteString(imageURL)
	if overrides.RestaurantPrice != nil {
		sb.WriteString("-r")
		sb.WriteString(formatOverride(*overrides.RestaurantPrice))
	}
	if overrides.EstimatedHomeCookedPrice != nil {
		sb.WriteString("-h")
		sb.WriteString(formatOverride(*overrides.EstimatedHomeCookedPrice))
	}
	return sb.String()
}

// formatOverride renders an override with the fewest digits that round-trip,
// so 69 and 69.0 produce the same key
func formatOverride(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
