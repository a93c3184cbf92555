package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, LyricsProviderOpenAI, cfg.Lyrics.Provider)
	assert.Equal(t, "gpt-4", cfg.Lyrics.Model)
	assert.Equal(t, 200, cfg.Lyrics.MaxTokens)
	assert.Equal(t, 1000, cfg.Lyrics.MaxChars)
	assert.Equal(t, "512x512", cfg.Image.Size)
	assert.Equal(t, 60, cfg.Poll.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Poll.Interval)
	assert.Equal(t, 1.0, cfg.Poll.Multiplier)
	assert.Equal(t, 1, cfg.GenerationMaxAttempts)
	assert.Equal(t, RecordStoreSheetDB, cfg.RecordStore.Driver)
	assert.Equal(t, 5, cfg.RateLimit.Limit)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, []string{"pop", "rock", "jazz", "classical", "hiphop", "electronic", "reggae", "country", "blues", "metal"}, cfg.Genres)
	assert.True(t, cfg.IsGenre("jazz"))
	assert.False(t, cfg.IsGenre("polka"))
}

func TestLoad_MissingCredentialsAreNotValidated(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("SUNO_COOKIE", "")
	t.Setenv("BASE_URL", "")
	t.Setenv("SHEETDB_API_URL", "")

	_, err := Load()
	assert.NoError(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LYRICS_PROVIDER", " Ollama ")
	t.Setenv("GENRES", "pop, ,  rock")
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("GENERATION_MAX_ATTEMPTS", "0")
	t.Setenv("RECORD_STORE_DRIVER", "postgres")
	t.Setenv("GENERATE_RATE_LIMIT", "-3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, LyricsProviderOllama, cfg.Lyrics.Provider)
	assert.Equal(t, []string{"pop", "rock"}, cfg.Genres)
	assert.Equal(t, 250*time.Millisecond, cfg.Poll.Interval)
	assert.Equal(t, 1, cfg.GenerationMaxAttempts)
	assert.Equal(t, RecordStorePostgres, cfg.RecordStore.Driver)
	assert.Equal(t, 0, cfg.RateLimit.Limit)
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	t.Setenv("LYRICS_PROVIDER", "bard")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseConfig_MaskedDSN(t *testing.T) {
	db := DatabaseConfig{User: "u", Password: "secret", Host: "h", Port: 5432, Name: "n", SSLMode: "disable"}

	assert.Equal(t, "postgres://u:secret@h:5432/n?sslmode=disable", db.GetDSN())
	assert.NotContains(t, db.MaskedDSN(), "secret")
}
