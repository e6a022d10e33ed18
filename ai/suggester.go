package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Suggester proposes a Discord channel name for a topic.
type Suggester interface {
	// SuggestChannelName returns a sanitized channel name for the topic.
	SuggestChannelName(ctx context.Context, topic string) (string, error)
	// Enabled reports whether the suggester is configured and usable.
	Enabled() bool
}

const (
	geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"
	defaultModel   = "gemini-1.5-flash"
)

// GeminiSuggester asks the Gemini API for a channel name. A suggester built
// without an API key reports Enabled() == false and refuses requests.
type GeminiSuggester struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

func NewGeminiSuggester(apiKey string) *GeminiSuggester {
	return &GeminiSuggester{
		apiKey:   apiKey,
		model:    defaultModel,
		endpoint: geminiEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *GeminiSuggester) Enabled() bool {
	return g.apiKey != ""
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiSuggester) SuggestChannelName(ctx context.Context, topic string) (string, error) {
	if !g.Enabled() {
		return "", fmt.Errorf("gemini suggester is not configured")
	}

	prompt := fmt.Sprintf(
		"Suggest one short Discord text channel name for the topic %q. "+
			"Answer with the name only: lowercase, words separated by hyphens, no emoji, no explanation.",
		topic,
	)
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal gemini request: %w", err)
	}

	url := fmt.Sprintf(g.endpoint, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, payload)
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	name := SanitizeChannelName(parsed.Candidates[0].Content.Parts[0].Text)
	if name == "" {
		return "", fmt.Errorf("gemini suggestion %q did not survive sanitization", parsed.Candidates[0].Content.Parts[0].Text)
	}
	return name, nil
}

var channelNameInvalid = regexp.MustCompile(`[^a-z0-9가-힣ㄱ-ㅎㅏ-ㅣ-]+`)

// SanitizeChannelName normalizes a raw suggestion into a valid Discord
// channel name: lowercase, hyphen-separated, 2-100 characters.
func SanitizeChannelName(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.ReplaceAll(name, " ", "-")
	name = strings.ReplaceAll(name, "_", "-")
	name = channelNameInvalid.ReplaceAllString(name, "")

	// collapse runs of hyphens left by stripped characters
	for strings.Contains(name, "--") {
		name = strings.ReplaceAll(name, "--", "-")
	}
	name = strings.Trim(name, "-")

	if len([]rune(name)) > 100 {
		name = string([]rune(name)[:100])
		name = strings.TrimRight(name, "-")
	}
	if len([]rune(name)) < 2 {
		return ""
	}
	return name
}
