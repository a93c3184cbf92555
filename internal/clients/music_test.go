package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songstory-server/internal/config"
	"songstory-server/internal/model"
)

func newTestSunoClient(t *testing.T, handler http.HandlerFunc) *SunoClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSunoClient(config.MusicConfig{BaseURL: srv.URL + "/", Cookie: "session=abc", Timeout: 5 * time.Second}, nil)
}

func TestSunoClient_SubmitAudioJob(t *testing.T) {
	var gotPayload map[string]any
	client := newTestSunoClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "session=abc", r.Header.Get("Cookie"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		w.Write([]byte(`[{"id":"job-1","status":"submitted"},{"id":"job-2","status":"submitted"}]`))
	})

	res := client.SubmitAudioJob(context.Background(), AudioJobPayload{Prompt: "la la la"})

	require.True(t, res.IsOK(), "unexpected error: %v", res.Err)
	assert.Equal(t, "job-1", res.Value)
	assert.Equal(t, map[string]any{"prompt": "la la la", "make_instrumental": false, "wait_audio": false}, gotPayload)
}

func TestSunoClient_SubmitAudioJob_EmptyOrNonList(t *testing.T) {
	for _, body := range []string{`[]`, `{"detail":"quota"}`, `[{"status":"submitted"}]`} {
		t.Run(body, func(t *testing.T) {
			client := newTestSunoClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			})

			res := client.SubmitAudioJob(context.Background(), AudioJobPayload{Prompt: "x"})

			assert.True(t, res.IsPermanent())
			assert.ErrorIs(t, res.Err, ErrEmptyJobList)
		})
	}
}

func TestSunoClient_SubmitAudioJob_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind Kind
		wantIs   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"bad cookie"}`, KindPermanent, ErrHTTPStatus},
		{"unavailable", http.StatusServiceUnavailable, `oops`, KindTransient, ErrHTTPStatus},
		{"rate limited", http.StatusTooManyRequests, ``, KindTransient, ErrHTTPStatus},
		{"malformed json", http.StatusOK, `[{"id":`, KindPermanent, ErrDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestSunoClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			res := client.SubmitAudioJob(context.Background(), AudioJobPayload{Prompt: "x"})

			assert.Equal(t, tt.wantKind, res.Kind)
			assert.ErrorIs(t, res.Err, tt.wantIs)
			assert.Empty(t, res.Value)
		})
	}
}

func TestSunoClient_SubmitAudioJob_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	client := NewSunoClient(config.MusicConfig{BaseURL: baseURL, Timeout: time.Second}, nil)
	res := client.SubmitAudioJob(context.Background(), AudioJobPayload{Prompt: "x"})

	assert.True(t, res.IsTransient())
	assert.ErrorIs(t, res.Err, ErrTransport)
}

func TestSunoClient_PollAudioJob(t *testing.T) {
	client := newTestSunoClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/get", r.URL.Path)
		assert.Equal(t, "job 1", r.URL.Query().Get("ids"))
		w.Write([]byte(`[{"id":"job 1","status":"complete","audio_url":"https://cdn/a.mp3","created_at":"2024-05-01T10:00:00Z"}]`))
	})

	res := client.PollAudioJob(context.Background(), "job 1")

	require.True(t, res.IsOK(), "unexpected error: %v", res.Err)
	assert.Equal(t, model.AudioJob{
		ID:        "job 1",
		Status:    model.AudioStatusComplete,
		RawStatus: "complete",
		AudioURL:  "https://cdn/a.mp3",
		CreatedAt: "2024-05-01T10:00:00Z",
	}, res.Value)
}

func TestSunoClient_PollAudioJob_UnknownStatus(t *testing.T) {
	client := newTestSunoClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"j","status":"queued"}]`))
	})

	res := client.PollAudioJob(context.Background(), "j")

	require.True(t, res.IsOK())
	assert.Equal(t, model.AudioStatusOther, res.Value.Status)
	assert.Equal(t, "queued", res.Value.RawStatus)
}

func TestSunoClient_PollAudioJob_EmptyListIsTransient(t *testing.T) {
	client := newTestSunoClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	res := client.PollAudioJob(context.Background(), "j")

	assert.True(t, res.IsTransient())
	assert.ErrorIs(t, res.Err, ErrEmptyJobList)
}

func TestSunoClient_PollAudioJob_NotAListIsTransient(t *testing.T) {
	client := newTestSunoClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"detail":"not found"}`))
	})

	res := client.PollAudioJob(context.Background(), "j")

	assert.True(t, res.IsTransient())
	assert.ErrorIs(t, res.Err, ErrDecode)
}

func TestSunoClient_PollAudioJob_StatusErrors(t *testing.T) {
	tests := []struct {
		status int
		auth   bool
	}{
		{http.StatusNotFound, false},
		{http.StatusUnauthorized, true},
		{http.StatusForbidden, true},
		{http.StatusBadGateway, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client := newTestSunoClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			res := client.PollAudioJob(context.Background(), "j")

			require.False(t, res.IsOK())
			assert.ErrorIs(t, res.Err, ErrHTTPStatus)
			assert.Equal(t, tt.auth, IsAuthFailure(res.Err))
		})
	}
}
