package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hisho/internal/config"
)

// AnthropicProvider implements the Anthropic Messages API
type AnthropicProvider struct {
	name   string
	apiKey string
	model  string
	client *http.Client

	// baseURL is overridable for tests.
	baseURL string
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(cfg config.ProviderConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for Anthropic provider")
	}

	return &AnthropicProvider{
		name:    cfg.Name,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: 120 * time.Second},
		baseURL: "https://api.anthropic.com",
	}, nil
}

func (a *AnthropicProvider) Name() string {
	return a.name
}

func (a *AnthropicProvider) GenerateResponse(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	modelToUse := a.model
	if req.Model != "" {
		modelToUse = req.Model
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}

	// The Messages API takes the system prompt as a top-level field, not a
	// message.
	messages := req.Messages
	var system string
	if len(messages) > 0 && messages[0].Role == "system" {
		system = messages[0].Content
		messages = messages[1:]
	}

	anthropicMessages := make([]map[string]interface{}, 0, len(messages))
	for _, msg := range messages {
		if msg.Content == "" {
			continue // Anthropic rejects empty content
		}
		anthropicMessages = append(anthropicMessages, map[string]interface{}{
			"role":    msg.Role,
			"content": msg.Content,
		})
	}

	anthropicReq := map[string]interface{}{
		"model":      modelToUse,
		"max_tokens": maxTokens,
		"messages":   anthropicMessages,
	}
	if system != "" {
		anthropicReq["system"] = system
	}

	reqBody, err := json.Marshal(anthropicReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/v1/messages", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("anthropic-version", "2023-06-01")
	httpReq.Header.Set("x-api-key", a.apiKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: %d - %s", resp.StatusCode, string(bodyBytes))
	}

	var anthropicResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&anthropicResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &GenerateResponse{
		Content: parseAnthropicContent(anthropicResp),
		Usage:   parseAnthropicUsage(anthropicResp),
	}, nil
}

// parseAnthropicContent extracts the text blocks from an Anthropic response
func parseAnthropicContent(resp map[string]interface{}) string {
	var content strings.Builder

	if contentArray, ok := resp["content"].([]interface{}); ok {
		for _, item := range contentArray {
			contentObj, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			if contentType, _ := contentObj["type"].(string); contentType == "text" {
				if text, ok := contentObj["text"].(string); ok {
					if content.Len() > 0 {
						content.WriteString("\n")
					}
					content.WriteString(text)
				}
			}
		}
	}

	return content.String()
}

// parseAnthropicUsage extracts usage statistics from an Anthropic response
func parseAnthropicUsage(resp map[string]interface{}) Usage {
	var usage Usage

	if usageObj, ok := resp["usage"].(map[string]interface{}); ok {
		if inputTokens, ok := usageObj["input_tokens"].(float64); ok {
			usage.PromptTokens = int(inputTokens)
		}
		if outputTokens, ok := usageObj["output_tokens"].(float64); ok {
			usage.CompletionTokens = int(outputTokens)
		}
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}

	return usage
}
