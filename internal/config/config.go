// Package config loads all application settings from environment
// variables with sensible defaults. A .env file is honored when the
// entrypoint loads one via godotenv.
package config

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/text/language"
)

// Config holds all application configuration.
//
// Environment Variables:
//
// Video generation (Kling via PiAPI, or the direct Kling API):
// - PIAPI_API_KEY: PiAPI key
// - PIAPI_BASE_URL: PiAPI endpoint (default: https://api.piapi.ai/api/v1)
// - KLING_API_KEY: direct Kling API key
// - KLING_BASE_URL: direct Kling endpoint (default: https://api.klingai.com/v1)
// - KLING_USE_DIRECT: use the direct API instead of PiAPI (default: false)
// - KLING_VERSION: model generation (default: 2.6)
// - KLING_WEBHOOK_URL: optional completion webhook
//
// Image generation (Nano Banana / Gemini):
// - GEMINI_API_KEY: Gemini API key
// - GEMINI_BASE_URL: endpoint (default: https://generativelanguage.googleapis.com/v1beta)
// - GEMINI_MODEL: model name (default: gemini-2.0-flash-exp)
//
// Summarization model (any OpenAI-compatible provider):
// - LLM_API_KEY, LLM_API_URL, LLM_MODEL, LLM_MAX_TOKENS, LLM_TEMPERATURE, LLM_TIMEOUT
//
// Playlist watcher:
// - YOUTUBE_API_KEY, YOUTUBE_PLAYLIST_ID
// - WATCH_CRON: check schedule (default: */5 * * * *)
// - SUMMARY_LANGUAGE: BCP 47 tag for summaries (default: fr)
// - SUMMARIES_DIR: summary output directory (default: ./summaries)
// - PROCESSED_FILE: processed-video log (default: ./summaries/processed_videos.json)
//
// Polling and output:
// - POLL_INTERVAL_SECONDS: spacing between status queries (default: 5)
// - MAX_WAIT_SECONDS: wall-clock budget per job (default: 600)
// - MAX_TRANSIENT_ERRORS: consecutive poll failures tolerated (default: 3)
// - OUTPUT_DIR: artifact directory (default: ./output)
//
// System:
// - HTTP_ADDR (default: :8080), DB_PATH (default: ./data/genmedia.db)
// - JOB_WORKERS (default: 2), LOG_LEVEL (default: info)
type Config struct {
	Video   VideoConfig   `json:"video"`
	Image   ImageConfig   `json:"image"`
	LLM     LLMConfig     `json:"llm"`
	Watcher WatcherConfig `json:"watcher"`
	Poll    PollConfig    `json:"poll"`
	System  SystemConfig  `json:"system"`
}

type VideoConfig struct {
	PiAPIKey     string `json:"piapi_api_key"`
	PiAPIBaseURL string `json:"piapi_base_url"`
	KlingKey     string `json:"kling_api_key"`
	KlingBaseURL string `json:"kling_base_url"`
	UseDirectAPI bool   `json:"use_direct_api"`
	Version      string `json:"version"`
	WebhookURL   string `json:"webhook_url"`
}

// APIKey returns the key for the selected endpoint.
func (c VideoConfig) APIKey() string {
	if c.UseDirectAPI {
		return c.KlingKey
	}
	return c.PiAPIKey
}

// BaseURL returns the selected endpoint.
func (c VideoConfig) BaseURL() string {
	if c.UseDirectAPI {
		return c.KlingBaseURL
	}
	return c.PiAPIBaseURL
}

type ImageConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
}

type LLMConfig struct {
	APIKey      string  `json:"api_key"`
	APIURL      string  `json:"api_url"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Timeout     int     `json:"timeout"`
}

type WatcherConfig struct {
	YouTubeAPIKey string       `json:"youtube_api_key"`
	PlaylistID    string       `json:"playlist_id"`
	CronExpr      string       `json:"cron_expr"`
	Language      language.Tag `json:"language"`
	SummariesDir  string       `json:"summaries_dir"`
	ProcessedFile string       `json:"processed_file"`
}

type PollConfig struct {
	IntervalSeconds   int    `json:"interval_seconds"`
	MaxWaitSeconds    int    `json:"max_wait_seconds"`
	MaxTransientFails int    `json:"max_transient_fails"`
	OutputDir         string `json:"output_dir"`
}

type SystemConfig struct {
	HTTPAddr   string `json:"http_addr"`
	DBPath     string `json:"db_path"`
	JobWorkers int    `json:"job_workers"`
	LogLevel   string `json:"log_level"`
}

// NewFromEnv builds a Config from the environment.
func NewFromEnv() (*Config, error) {
	summariesDir := getEnvString("SUMMARIES_DIR", "./summaries")

	langTag, err := language.Parse(getEnvString("SUMMARY_LANGUAGE", "fr"))
	if err != nil {
		return nil, fmt.Errorf("invalid SUMMARY_LANGUAGE: %w", err)
	}

	cfg := &Config{
		Video: VideoConfig{
			PiAPIKey:     getEnvString("PIAPI_API_KEY", ""),
			PiAPIBaseURL: getEnvString("PIAPI_BASE_URL", "https://api.piapi.ai/api/v1"),
			KlingKey:     getEnvString("KLING_API_KEY", ""),
			KlingBaseURL: getEnvString("KLING_BASE_URL", "https://api.klingai.com/v1"),
			UseDirectAPI: getEnvBool("KLING_USE_DIRECT", false),
			Version:      getEnvString("KLING_VERSION", "2.6"),
			WebhookURL:   getEnvString("KLING_WEBHOOK_URL", ""),
		},
		Image: ImageConfig{
			APIKey:  getEnvString("GEMINI_API_KEY", ""),
			BaseURL: getEnvString("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Model:   getEnvString("GEMINI_MODEL", "gemini-2.0-flash-exp"),
		},
		LLM: LLMConfig{
			APIKey:      getEnvString("LLM_API_KEY", ""),
			APIURL:      getEnvString("LLM_API_URL", "https://openrouter.ai/api/v1"),
			Model:       getEnvString("LLM_MODEL", "anthropic/claude-sonnet-4"),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 1500),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
			Timeout:     getEnvInt("LLM_TIMEOUT", 60),
		},
		Watcher: WatcherConfig{
			YouTubeAPIKey: getEnvString("YOUTUBE_API_KEY", ""),
			PlaylistID:    getEnvString("YOUTUBE_PLAYLIST_ID", ""),
			CronExpr:      getEnvString("WATCH_CRON", "*/5 * * * *"),
			Language:      langTag,
			SummariesDir:  summariesDir,
			ProcessedFile: getEnvString("PROCESSED_FILE", summariesDir+"/processed_videos.json"),
		},
		Poll: PollConfig{
			IntervalSeconds:   getEnvInt("POLL_INTERVAL_SECONDS", 5),
			MaxWaitSeconds:    getEnvInt("MAX_WAIT_SECONDS", 600),
			MaxTransientFails: getEnvInt("MAX_TRANSIENT_ERRORS", 3),
			OutputDir:         getEnvString("OUTPUT_DIR", "./output"),
		},
		System: SystemConfig{
			HTTPAddr:   getEnvString("HTTP_ADDR", ":8080"),
			DBPath:     getEnvString("DB_PATH", "./data/genmedia.db"),
			JobWorkers: getEnvInt("JOB_WORKERS", 2),
			LogLevel:   getEnvString("LOG_LEVEL", "info"),
		},
	}
	return cfg, nil
}

// Capabilities reports which collaborators are configured, for the health
// endpoint and startup logging.
type Capabilities struct {
	VideoGeneration bool `json:"video_generation"`
	ImageGeneration bool `json:"image_generation"`
	Summarization   bool `json:"summarization"`
	PlaylistWatch   bool `json:"playlist_watch"`
}

func (c *Config) Capabilities() Capabilities {
	return Capabilities{
		VideoGeneration: c.Video.APIKey() != "",
		ImageGeneration: c.Image.APIKey != "",
		Summarization:   c.LLM.APIKey != "",
		PlaylistWatch:   c.Watcher.YouTubeAPIKey != "" && c.Watcher.PlaylistID != "",
	}
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean value from environment variables with default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
