package provider

import "context"

// Oracle is the external vision/language model, treated as a
// non-deterministic black box. Splitting the two call shapes lets tests
// substitute canned implementations per stage.
type Oracle interface {
	// DescribeImage sends the prompt plus an image reference and returns
	// free-form descriptive text.
	DescribeImage(ctx context.Context, imageURL string, prompt string) (string, error)

	// ExtractStructured sends a system instruction and user text, requesting
	// a schema-constrained JSON object back. The returned text is intended
	// to be JSON but is not guaranteed to parse.
	ExtractStructured(ctx context.Context, system string, user string) (string, error)

	// GetModel returns the model name in use
	GetModel() string

	// Close releases the underlying connections
	Close() error
}
