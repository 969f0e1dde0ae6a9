package analysis

import "fmt"

// Price estimates are anchored to a fixed economic baseline rather than a
// configurable one: every analysis in a user's history must be comparable.
const priceBaseline = "2025 rates in downtown Toronto, Canada"

// visionPrompt instructs the model through the free-form analysis pass
var visionPrompt = fmt.Sprintf(`You are a food analysis expert. Carefully examine this food image and provide a detailed analysis:

1. Identify the specific dish/meal shown in the image with as much precision as possible
2. List all visible ingredients with estimated quantities in grams
3. Estimate the price per gram for each ingredient (in Canadian dollars)
4. Calculate the total cost to prepare this dish at home (per serving)
5. Estimate what this dish would cost in a restaurant

Use your expertise to analyze only what you can see in the image. Be precise and accurate with the information.
Base all price estimates on %s.
If any information cannot be determined from the image, make educated estimates based on similar dishes.`, priceBaseline)

// extractSystemPrompt the system instruction for the formatting pass
const extractSystemPrompt = "You are a helpful assistant that formats food analysis data into JSON. Respond with ONLY the JSON, no explanations or other text."

// buildExtractPrompt wraps the descriptive text in the strict formatting
// instruction for the second pass
func buildExtractPrompt(analysisText string) string {
	return fmt.Sprintf(`
Format the following food analysis into a strict JSON format with these properties:
- meal: string (name of the meal)
- recipe: array of objects, each with { type: string, amount: number, pricePerGram: number }
- estimatedHomeCookedPrice: number (total price to cook at home)
- restaurantPrice: number (price if bought at restaurant)

The output should be ONLY valid JSON with no additional text or explanations.

Original analysis:
%s`, analysisText)
}
