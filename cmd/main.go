package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/aroyer/genmedia/internal/config"
	"github.com/aroyer/genmedia/internal/httpapi"
	"github.com/aroyer/genmedia/internal/image"
	"github.com/aroyer/genmedia/internal/jobs"
	"github.com/aroyer/genmedia/internal/llm"
	"github.com/aroyer/genmedia/internal/persistence"
	"github.com/aroyer/genmedia/internal/playlist"
	"github.com/aroyer/genmedia/internal/remote"
	"github.com/aroyer/genmedia/internal/sink"
	"github.com/aroyer/genmedia/internal/video"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.System.LogLevel)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("genmedia exited")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.NewConsoleWriter()).Level(lvl).With().Timestamp().Logger()
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	caps := cfg.Capabilities()
	logger.Info().
		Bool("video", caps.VideoGeneration).
		Bool("image", caps.ImageGeneration).
		Bool("watcher", caps.PlaylistWatch && caps.Summarization).
		Msg("starting genmedia")

	store, err := persistence.NewSQLiteStore(cfg.System.DBPath)
	if err != nil {
		return fmt.Errorf("open job store: %w", err)
	}
	defer store.Close()

	queue := jobs.NewQueue(cfg.System.JobWorkers, store, logger)
	defer queue.Stop()

	fileSink := sink.NewFileSink()

	var poller *remote.Poller
	if caps.VideoGeneration {
		videoClient, err := video.NewClient(video.Config{
			APIKey:     cfg.Video.APIKey(),
			BaseURL:    cfg.Video.BaseURL(),
			Version:    video.Version(cfg.Video.Version),
			WebhookURL: cfg.Video.WebhookURL,
		})
		if err != nil {
			return fmt.Errorf("build video client: %w", err)
		}
		poller = remote.NewPoller(videoClient,
			remote.WithMaxTransientErrors(cfg.Poll.MaxTransientFails),
			remote.WithDownloader(&remote.HTTPDownloader{}, fileSink),
			// One status query per second across all jobs keeps us under
			// the vendor quota; only the call instant is serialized.
			remote.WithRateLimiter(rate.NewLimiter(rate.Every(time.Second), 1)),
			remote.WithLogger(logger),
		)
	}
	queue.Start(newExecutor(poller, cfg.Poll))

	summaryStore := playlist.NewSummaryStore(cfg.Watcher.SummariesDir, fileSink)

	serverOpts := make([]httpapi.Option, 0, 2)
	if caps.ImageGeneration {
		imageClient, err := image.NewClient(image.Config{
			APIKey:  cfg.Image.APIKey,
			BaseURL: cfg.Image.BaseURL,
			Model:   cfg.Image.Model,
		})
		if err != nil {
			return fmt.Errorf("build image client: %w", err)
		}
		serverOpts = append(serverOpts, httpapi.WithImageClient(imageClient, cfg.Poll.OutputDir))
	}

	if caps.PlaylistWatch && caps.Summarization {
		watcher, cronRunner, err := buildWatcher(cfg, summaryStore, logger)
		if err != nil {
			return err
		}
		if err := watcher.Schedule(ctx); err != nil {
			return err
		}
		cronRunner.Start()
		defer cronRunner.Stop()
		serverOpts = append(serverOpts, httpapi.WithWatcher(watcher))
	}

	server := httpapi.NewServer(queue, summaryStore, caps, serverOpts...)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.System.HTTPAddr).Msg("http api listening")
		if err := server.ListenAndServe(cfg.System.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildWatcher(cfg *config.Config, summaryStore *playlist.SummaryStore, logger zerolog.Logger) (*playlist.Watcher, *cron.Cron, error) {
	playlistClient, err := playlist.NewPlaylistClient(cfg.Watcher.YouTubeAPIKey, cfg.Watcher.PlaylistID)
	if err != nil {
		return nil, nil, err
	}
	llmClient, err := llm.NewClient(&llm.Config{
		APIKey:      cfg.LLM.APIKey,
		APIURL:      cfg.LLM.APIURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build llm client: %w", err)
	}
	processed, err := playlist.NewProcessedLog(cfg.Watcher.ProcessedFile)
	if err != nil {
		return nil, nil, err
	}

	cronRunner := cron.New()
	watcher := playlist.NewWatcher(
		playlistClient,
		playlist.NewTranscriptFetcher(),
		playlist.NewSummarizer(llmClient, cfg.Watcher.Language),
		summaryStore,
		processed,
		cfg.Watcher.Language,
		cronRunner,
		cfg.Watcher.CronExpr,
		logger,
	)
	return watcher, cronRunner, nil
}

// newExecutor turns a queued job payload into the submit / poll /
// download pipeline.
func newExecutor(poller *remote.Poller, pollCfg config.PollConfig) jobs.Executor {
	maxWait := time.Duration(pollCfg.MaxWaitSeconds) * time.Second
	interval := time.Duration(pollCfg.IntervalSeconds) * time.Second

	return func(ctx context.Context, job *jobs.GenerationJob) (string, error) {
		if poller == nil {
			return "", fmt.Errorf("video generation is not configured")
		}

		req := remote.Request{
			Prompt:         job.Payload.Prompt,
			NegativePrompt: job.Payload.NegativePrompt,
			SourceMediaURL: job.Payload.SourceMediaURL,
			Options: remote.Options{
				DurationSeconds: job.Payload.DurationSeconds,
				Mode:            job.Payload.Mode,
				AspectRatio:     job.Payload.AspectRatio,
				AudioEnabled:    job.Payload.AudioEnabled,
				CfgScale:        job.Payload.CfgScale,
			},
		}

		name := job.Payload.OutputPath
		if name == "" {
			name = job.ID + ".mp4"
		}
		dest := filepath.Join(pollCfg.OutputDir, name)

		res, err := poller.GenerateAndWait(ctx, req, dest, maxWait, interval)
		if err != nil {
			return "", err
		}
		return res.Ref, nil
	}
}
