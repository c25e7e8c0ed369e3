package openai_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/clipexplain/clipexplain/models"
)

const defaultBaseURL = "https://api.openai.com/v1"

// client implements the keyword provider using an OpenAI-compatible
// chat-completions endpoint. Groq exposes the same wire format, so the
// base URL decides which service actually answers.
type client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

// Message represents a message in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewClient creates a new OpenAI-compatible client.
func NewClient(apiKey, baseURL, model string, temperature float64, maxTokens int, timeout time.Duration) *client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &client{
		apiKey:      apiKey,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// GenerateKeywords asks the model for a structured keyword set and parses
// the reply strictly. Non-JSON output or a schema violation is an error.
func (c *client) GenerateKeywords(ctx context.Context, conversationContext, videoContent string) (models.KeywordSet, error) {
	prompt := fmt.Sprintf(`
Based on this conversation and video content, generate 3-5 specific search keywords that would help find the most relevant resources.

Conversation Context: "%s"
Video Content: "%s"

Generate keywords in this exact JSON format. Only return valid JSON, no other text:

{
  "primary_keywords": ["keyword1", "keyword2", "keyword3"],
  "secondary_keywords": ["related1", "related2"],
  "search_queries": [
    "specific search phrase 1",
    "specific search phrase 2",
    "specific search phrase 3"
  ],
  "context": "Brief explanation of what these keywords are looking for"
}

Focus on:
- Specific terms, names, concepts mentioned in the conversation
- Technical terms or industry-specific language
- Popular search terms people would use for this topic
- Both broad and specific keywords for different types of resources

Return only the JSON object, no other text.
`, conversationContext, videoContent)

	messages := []Message{
		{Role: "system", Content: "You are a helpful assistant that generates search keywords. Always respond with valid JSON only, no other text."},
		{Role: "user", Content: prompt},
	}

	raw, err := c.sendRequest(ctx, messages)
	if err != nil {
		return models.KeywordSet{}, err
	}

	var ks models.KeywordSet
	if err := json.Unmarshal([]byte(extractJSON(raw)), &ks); err != nil {
		return models.KeywordSet{}, fmt.Errorf("%w: %v", models.ErrMalformedLLMResponse, err)
	}
	if len(ks.Primary) == 0 {
		return models.KeywordSet{}, fmt.Errorf("%w: empty primary_keywords", models.ErrMalformedLLMResponse)
	}
	ks.LLM = true
	return ks, nil
}

// sendRequest sends a chat-completions request and returns the first
// choice's content.
func (c *client) sendRequest(ctx context.Context, messages []Message) (string, error) {
	requestBody := request{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status: %d", resp.StatusCode)
	}

	var apiResp response
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return apiResp.Choices[0].Message.Content, nil
}

// extractJSON trims anything around the outermost JSON object. Models
// occasionally wrap their reply in code fences despite instructions.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}
