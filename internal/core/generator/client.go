package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"mealplan-generator/internal/infrastructure/config"
)

// Client talks to the OpenRouter-compatible completion API.
type Client struct {
	config *config.GeneratorConfig
	client *resty.Client
}

// NewClient creates a completion API client. Transport-level retries use the
// configured per-task retry budget.
func NewClient(cfg *config.GeneratorConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("HTTP-Referer", "https://mealplan-generator.app").
		SetHeader("X-Title", "Meal Plan Generator")

	return &Client{
		config: cfg,
		client: client,
	}
}

// Complete sends a single prompt and returns the raw completion text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	req := map[string]interface{}{
		"model": c.config.Model,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": prompt,
			},
		},
		"max_tokens": c.config.MaxTokens,
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")

	if err != nil {
		return "", fmt.Errorf("failed to send request to generator: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("generator API returned error: %s", resp.String())
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to parse generator response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in generator response")
	}

	return result.Choices[0].Message.Content, nil
}
