package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kbox38/cignite/app/cache"
	"github.com/kbox38/cignite/app/post"
)

const (
	requestTimeout = 30 * time.Second
	suggestionTTL  = 6 * time.Hour
)

type Suggestion struct {
	Text      string `json:"text"`
	Approach  string `json:"approach"`
	Reasoning string `json:"reasoning"`
}

// Generator produces comment suggestions for a partner's post. The LLM
// provider is best-effort: any failure degrades to the canned fallback set,
// never to an error.
type Generator struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	cache      *cache.Cache
}

func NewGenerator(baseURL, apiKey, model string, redisCache *cache.Cache) *Generator {
	return &Generator{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
		cache:      redisCache,
	}
}

func (g *Generator) CommentSuggestions(ctx context.Context, p post.Post) []Suggestion {
	if g.apiKey == "" {
		return Fallback()
	}

	key := cache.SuggestionsKey(p.ID)

	var cached []Suggestion
	if found, err := g.cache.GetJSON(ctx, key, &cached); err == nil && found && len(cached) > 0 {
		return cached
	}

	suggestions, err := g.generate(ctx, p)
	if err != nil {
		slog.Warn("Suggestion generation failed, using fallback", "post", p.ID, "error", err)
		return Fallback()
	}

	if err := g.cache.SetJSON(ctx, key, suggestions, suggestionTTL); err != nil {
		slog.Warn("Failed to cache suggestions", "post", p.ID, "error", err)
	}

	return suggestions
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (g *Generator) generate(ctx context.Context, p post.Post) ([]Suggestion, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	payload := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Post:\n" + p.Text},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(timeoutCtx, "POST", g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned HTTP %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var chat chatResponse
	if err := json.Unmarshal(raw, &chat); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("provider returned no choices")
	}

	suggestions, err := parseSuggestions(chat.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	return suggestions, nil
}

const systemPrompt = "You suggest three short, professional comments for the given " +
	"LinkedIn post. Respond with a JSON array of objects with fields " +
	`"text", "approach", and "reasoning". No other output.`

// parseSuggestions extracts the JSON array from the model output, tolerating
// surrounding prose or code fences.
func parseSuggestions(content string) ([]Suggestion, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in model output")
	}

	var suggestions []Suggestion
	if err := json.Unmarshal([]byte(content[start:end+1]), &suggestions); err != nil {
		return nil, fmt.Errorf("failed to decode suggestions: %w", err)
	}

	var valid []Suggestion
	for _, s := range suggestions {
		if strings.TrimSpace(s.Text) != "" {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("model output contained no usable suggestions")
	}

	return valid, nil
}
