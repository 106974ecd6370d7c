package gemini

import (
	"context"
	"strings"
	"time"

	"google.golang.org/genai"

	"mockprep/internal/llm"
)

// Client represents a Gemini LLM client
type Client struct {
	client *genai.Client
	config *Config
}

func NewClient(config *Config) (*Client, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &llm.ProviderError{
			Provider: ProviderName,
			Code:     llm.ErrCodeAPIKey,
			Message:  "Failed to create Gemini client",
			Err:      err,
		}
	}
	return &Client{client: client, config: config}, nil
}

// GenerateContent sends one prompt and asks for a JSON response body.
func (c *Client) GenerateContent(ctx context.Context, prompt string, requestID string) (*llm.GenerationResponse, error) {
	start := time.Now()

	result, err := c.client.Models.GenerateContent(ctx, c.config.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		code := llm.ErrCodeServiceDown
		if isRateLimitError(err) {
			code = llm.ErrCodeRateLimit
		} else if ctx.Err() != nil {
			code = llm.ErrCodeTimeout
		}
		return nil, &llm.ProviderError{
			Provider: ProviderName,
			Code:     code,
			Message:  "Failed to generate content",
			Err:      err,
		}
	}

	if result == nil {
		return nil, &llm.ProviderError{Provider: ProviderName, Code: llm.ErrCodeEmptyResponse, Message: "No response generated"}
	}
	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return nil, &llm.ProviderError{Provider: ProviderName, Code: llm.ErrCodeEmptyResponse, Message: "Empty response generated"}
	}

	return &llm.GenerationResponse{
		Content:   text,
		RequestID: requestID,
		Model:     c.config.Model,
		Latency:   time.Since(start).Milliseconds(),
	}, nil
}

func (c *Client) GetProviderName() string {
	return ProviderName
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "quota")
}
