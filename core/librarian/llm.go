package librarian

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// LLMClassifierConfig configures the remote classification capability.
type LLMClassifierConfig struct {
	APIBaseURL  string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// LLMClassifier classifies tracks through an OpenAI-compatible chat
// completions endpoint.
type LLMClassifier struct {
	config     *LLMClassifierConfig
	httpClient *http.Client
}

// NewLLMClassifier creates the remote classifier.
func NewLLMClassifier(config *LLMClassifierConfig) *LLMClassifier {
	if config.MaxTokens == 0 {
		config.MaxTokens = 500
	}
	if config.Temperature == 0 {
		config.Temperature = 0.3
	}
	return &LLMClassifier{
		config: config,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

const classifierSystemPrompt = "You are a music classification expert. Analyze tracks and return JSON with genre, mood, and cultural context."

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify submits the track text and parses the structured JSON reply.
func (c *LLMClassifier) Classify(ctx context.Context, info TrackInfo) (*Classification, error) {
	reqBody := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: classifierSystemPrompt},
			{Role: "user", Content: buildClassificationPrompt(info)},
		},
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIBaseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}

	return parseClassification(chatResp.Choices[0].Message.Content)
}

// parseClassification decodes the model reply, tolerating markdown code
// fences around the JSON object.
func parseClassification(content string) (*Classification, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var result Classification
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("failed to parse classification JSON: %w", err)
	}
	if result.PrimaryGenre == "" {
		return nil, fmt.Errorf("classification missing primary genre")
	}
	// Keep the result inside the contract bounds.
	if len(result.SecondaryGenres) > 2 {
		result.SecondaryGenres = result.SecondaryGenres[:2]
	}
	if len(result.MoodTags) > 3 {
		result.MoodTags = result.MoodTags[:3]
	}
	return &result, nil
}

func buildClassificationPrompt(info TrackInfo) string {
	artist := info.Artist
	if artist == "" {
		artist = "Unknown"
	}
	album := info.Album
	if album == "" {
		album = "Unknown"
	}
	return fmt.Sprintf(`Analyze this music track and classify it.

Title: %s
Artist: %s
Album: %s
Duration: %ds

Return a JSON object with:
- primary_genre: Main genre (e.g., "Bossa Nova", "Jazz", "Rock")
- secondary_genres: List of 1-2 related genres
- mood_tags: List of 2-3 mood keywords (e.g., "calm", "energetic", "melancholic")
- cultural_context: Brief cultural/geographic context if identifiable (max 50 words)

Example response:
{
  "primary_genre": "Bossa Nova",
  "secondary_genres": ["MPB", "Jazz"],
  "mood_tags": ["calm", "romantic", "sophisticated"],
  "cultural_context": "Brazilian music from the 1960s bossa nova movement"
}

Return ONLY the JSON object, no other text.`, info.Title, artist, album, info.DurationSeconds)
}
