package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songstory-server/internal/config"
)

type fakeTokenCounter struct {
	calls int
}

func (f *fakeTokenCounter) Count(texts ...string) int {
	f.calls++
	n := 0
	for _, t := range texts {
		n += len(t)
	}
	return n
}

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *openai.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIClient(config.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"}, 5*time.Second)
}

func lyricsConfig() config.LyricsConfig {
	return config.LyricsConfig{Model: "gpt-4", MaxTokens: 200}
}

func TestOpenAILyricsClient_GenerateLyrics(t *testing.T) {
	var got openai.ChatCompletionRequest
	client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"gpt-4",
			"choices":[{"index":0,"message":{"role":"assistant","content":"  sunlight on the river  \n"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":42,"completion_tokens":7,"total_tokens":49}}`))
	})
	tokens := &fakeTokenCounter{}
	lyrics := NewOpenAILyricsClient(client, lyricsConfig(), tokens, nil)

	res := lyrics.GenerateLyrics(context.Background(), "a song about rivers")

	require.True(t, res.IsOK(), "unexpected error: %v", res.Err)
	assert.Equal(t, "sunlight on the river", res.Value)

	assert.Equal(t, "gpt-4", got.Model)
	assert.Equal(t, 200, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, LyricsSystemPrompt, got.Messages[0].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, got.Messages[1].Role)
	assert.Equal(t, "a song about rivers", got.Messages[1].Content)

	assert.Zero(t, tokens.calls, "usage was reported, estimator must not run")
}

func TestOpenAILyricsClient_EstimatesTokensWithoutUsage(t *testing.T) {
	client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"la"}}]}`))
	})
	tokens := &fakeTokenCounter{}
	lyrics := NewOpenAILyricsClient(client, lyricsConfig(), tokens, nil)

	res := lyrics.GenerateLyrics(context.Background(), "prompt")

	require.True(t, res.IsOK())
	assert.Equal(t, 2, tokens.calls)
}

func TestOpenAILyricsClient_EmptyCompletionIsPermanent(t *testing.T) {
	for _, body := range []string{
		`{"choices":[]}`,
		`{"choices":[{"index":0,"message":{"role":"assistant","content":"   "}}]}`,
	} {
		client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		})
		lyrics := NewOpenAILyricsClient(client, lyricsConfig(), nil, nil)

		res := lyrics.GenerateLyrics(context.Background(), "prompt")

		assert.True(t, res.IsPermanent())
		assert.ErrorIs(t, res.Err, ErrEmptyCompletion)
	}
}

func TestOpenAILyricsClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantKind Kind
	}{
		{"server error", http.StatusInternalServerError, KindTransient},
		{"rate limited", http.StatusTooManyRequests, KindTransient},
		{"bad key", http.StatusUnauthorized, KindPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":{"message":"nope","type":"invalid_request_error"}}`))
			})
			lyrics := NewOpenAILyricsClient(client, lyricsConfig(), nil, nil)

			res := lyrics.GenerateLyrics(context.Background(), "prompt")

			assert.Equal(t, tt.wantKind, res.Kind)
			assert.ErrorIs(t, res.Err, ErrHTTPStatus)
		})
	}
}

func TestOpenAIImageClient_GenerateImage(t *testing.T) {
	var got map[string]any
	client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"created":1700000000,"data":[{"url":"https://img.example/cover.png"}]}`))
	})
	images := NewOpenAIImageClient(client, config.ImageConfig{Size: "512x512"}, nil)

	res := images.GenerateImage(context.Background(), "sunlight on the river")

	require.True(t, res.IsOK(), "unexpected error: %v", res.Err)
	assert.Equal(t, "https://img.example/cover.png", res.Value)
	assert.Equal(t, "sunlight on the river", got["prompt"])
	assert.EqualValues(t, 1, got["n"])
	assert.Equal(t, "512x512", got["size"])
	assert.Equal(t, "url", got["response_format"])
}

func TestOpenAIImageClient_EmptyData(t *testing.T) {
	for _, body := range []string{`{"data":[]}`, `{"data":[{"url":""}]}`} {
		client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		})
		images := NewOpenAIImageClient(client, config.ImageConfig{}, nil)

		res := images.GenerateImage(context.Background(), "prompt")

		assert.True(t, res.IsPermanent())
		assert.ErrorIs(t, res.Err, ErrEmptyImage)
	}
}

func TestOpenAIImageClient_CancelledContext(t *testing.T) {
	client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach the server")
	})
	images := NewOpenAIImageClient(client, config.ImageConfig{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := images.GenerateImage(ctx, "prompt")

	assert.True(t, res.IsPermanent())
	assert.ErrorIs(t, res.Err, context.Canceled)
}
