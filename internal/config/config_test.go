package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestNewFromEnvDefaults(t *testing.T) {
	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "https://api.piapi.ai/api/v1", cfg.Video.PiAPIBaseURL)
	assert.Equal(t, "2.6", cfg.Video.Version)
	assert.False(t, cfg.Video.UseDirectAPI)

	assert.Equal(t, "gemini-2.0-flash-exp", cfg.Image.Model)
	assert.Equal(t, 1500, cfg.LLM.MaxTokens)
	assert.Equal(t, "*/5 * * * *", cfg.Watcher.CronExpr)
	assert.Equal(t, language.French, cfg.Watcher.Language)
	assert.Equal(t, "./summaries/processed_videos.json", cfg.Watcher.ProcessedFile)

	assert.Equal(t, 5, cfg.Poll.IntervalSeconds)
	assert.Equal(t, 600, cfg.Poll.MaxWaitSeconds)
	assert.Equal(t, 3, cfg.Poll.MaxTransientFails)

	assert.Equal(t, ":8080", cfg.System.HTTPAddr)
	assert.Equal(t, 2, cfg.System.JobWorkers)
}

func TestNewFromEnvOverrides(t *testing.T) {
	t.Setenv("PIAPI_API_KEY", "pi-key")
	t.Setenv("SUMMARY_LANGUAGE", "de")
	t.Setenv("SUMMARIES_DIR", "/data/summaries")
	t.Setenv("POLL_INTERVAL_SECONDS", "10")
	t.Setenv("JOB_WORKERS", "8")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "pi-key", cfg.Video.APIKey())
	assert.Equal(t, language.German, cfg.Watcher.Language)
	assert.Equal(t, "/data/summaries/processed_videos.json", cfg.Watcher.ProcessedFile)
	assert.Equal(t, 10, cfg.Poll.IntervalSeconds)
	assert.Equal(t, 8, cfg.System.JobWorkers)
}

func TestNewFromEnvBadLanguage(t *testing.T) {
	t.Setenv("SUMMARY_LANGUAGE", "@@@")
	_, err := NewFromEnv()
	require.Error(t, err)
}

func TestVideoConfigEndpointSelection(t *testing.T) {
	cfg := VideoConfig{
		PiAPIKey:     "pi",
		PiAPIBaseURL: "https://piapi",
		KlingKey:     "kling",
		KlingBaseURL: "https://kling",
	}
	assert.Equal(t, "pi", cfg.APIKey())
	assert.Equal(t, "https://piapi", cfg.BaseURL())

	cfg.UseDirectAPI = true
	assert.Equal(t, "kling", cfg.APIKey())
	assert.Equal(t, "https://kling", cfg.BaseURL())
}

func TestCapabilities(t *testing.T) {
	cfg := &Config{}
	caps := cfg.Capabilities()
	assert.False(t, caps.VideoGeneration)
	assert.False(t, caps.ImageGeneration)
	assert.False(t, caps.Summarization)
	assert.False(t, caps.PlaylistWatch)

	cfg.Video.PiAPIKey = "k"
	cfg.Image.APIKey = "k"
	cfg.LLM.APIKey = "k"
	cfg.Watcher.YouTubeAPIKey = "k"
	cfg.Watcher.PlaylistID = "PL"
	caps = cfg.Capabilities()
	assert.True(t, caps.VideoGeneration)
	assert.True(t, caps.ImageGeneration)
	assert.True(t, caps.Summarization)
	assert.True(t, caps.PlaylistWatch)
}
