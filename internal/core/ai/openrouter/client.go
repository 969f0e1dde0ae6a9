package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"meal-cost-analyzer/internal/infrastructure/config"
	"meal-cost-analyzer/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const baseURL = "https://openrouter.ai/api/v1"

// Client OpenRouter chat-completions client. Both call shapes pin
// temperature to 0 so repeated runs over the same image stay as consistent
// as the model allows.
type Client struct {
	config *config.OpenRouterConfig
	client *resty.Client
}

// NewClient creates an OpenRouter client
func NewClient(cfg *config.OpenRouterConfig) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("HTTP-Referer", "https://meal-cost-analyzer.com").
		SetHeader("X-Title", "Meal Cost Analyzer")

	return &Client{
		config: cfg,
		client: client,
	}
}

// DescribeImage sends the prompt together with an image URL and returns the
// model's free-form analysis text
func (c *Client) DescribeImage(ctx context.Context, imageURL string, prompt string) (string, error) {
	msgContent := []map[string]interface{}{
		{
			"type": "text",
			"text": prompt,
		},
		{
			"type": "image_url",
			"image_url": map[string]string{
				"url": imageURL,
			},
		},
	}

	req := map[string]interface{}{
		"model": c.config.Model,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": msgContent,
			},
		},
		"max_tokens":  c.config.MaxTokens,
		"temperature": 0,
	}

	common.LogDebug("sending describe request",
		zap.String("model", c.config.Model),
		zap.String("image_url", imageURL),
	)

	return c.complete(ctx, req)
}

// ExtractStructured sends a system instruction plus user text and asks the
// model for a JSON object. response_format json_object reduces, but does not
// eliminate, malformed output.
func (c *Client) ExtractStructured(ctx context.Context, system string, user string) (string, error) {
	req := map[string]interface{}{
		"model": c.config.Model,
		"messages": []map[string]interface{}{
			{
				"role":    "system",
				"content": system,
			},
			{
				"role":    "user",
				"content": user,
			},
		},
		"max_tokens":  c.config.MaxTokens,
		"temperature": 0,
		"response_format": map[string]string{
			"type": "json_object",
		},
	}

	common.LogDebug("sending extract request",
		zap.String("model", c.config.Model),
		zap.Int("user_length", len(user)),
	)

	return c.complete(ctx, req)
}

// complete posts one chat completion and returns the first choice's content
func (c *Client) complete(ctx context.Context, req map[string]interface{}) (string, error) {
	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")

	if err != nil {
		common.LogError("failed to send request to OpenRouter",
			zap.Error(err),
			zap.Duration("elapsed", time.Since(start)),
		)
		return "", fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("OpenRouter API returned status %d: %s", resp.StatusCode(), resp.String())
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to parse OpenRouter response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenRouter response")
	}
	content := result.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty content in OpenRouter response")
	}

	common.LogInfo("OpenRouter call completed",
		zap.String("model", c.config.Model),
		zap.Int("content_length", len(content)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return content, nil
}

// GetModel returns the configured model name
func (c *Client) GetModel() string {
	return c.config.Model
}

// Close releases idle connections
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}
