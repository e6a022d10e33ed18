package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeChannelName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"already clean", "general-chat", "general-chat"},
		{"uppercase and spaces", "Team Gaming Lounge", "team-gaming-lounge"},
		{"underscores", "dev_talk", "dev-talk"},
		{"emoji and punctuation", "🎮 games!! & fun?", "games-fun"},
		{"korean", "자유 수다방", "자유-수다방"},
		{"surrounding junk", "  --cool-name-- ", "cool-name"},
		{"too short after stripping", "!?", ""},
		{"single char", "a", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeChannelName(tt.raw))
		})
	}
}

func TestSanitizeChannelName_ClampsLength(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "abcde"
	}
	got := SanitizeChannelName(long)
	assert.Len(t, []rune(got), 100)
}

func TestGeminiSuggester_Disabled(t *testing.T) {
	suggester := NewGeminiSuggester("")
	assert.False(t, suggester.Enabled())

	_, err := suggester.SuggestChannelName(context.Background(), "anything")
	assert.Error(t, err)
}

func TestGeminiSuggester_ParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Contents)

		resp := geminiResponse{}
		resp.Candidates = []struct {
			Content geminiContent `json:"content"`
		}{
			{Content: geminiContent{Parts: []geminiPart{{Text: "Voice Chat Lounge\n"}}}},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	suggester := NewGeminiSuggester("test-key")
	suggester.endpoint = server.URL + "/%s"

	name, err := suggester.SuggestChannelName(context.Background(), "voice chat")
	require.NoError(t, err)
	assert.Equal(t, "voice-chat-lounge", name)
}

func TestGeminiSuggester_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	suggester := NewGeminiSuggester("test-key")
	suggester.endpoint = server.URL + "/%s"

	_, err := suggester.SuggestChannelName(context.Background(), "anything")
	assert.Error(t, err)
}
