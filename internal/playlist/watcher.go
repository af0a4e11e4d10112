package playlist

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"
)

type playlistSource interface {
	Videos(ctx context.Context) ([]Video, error)
}

type transcriptSource interface {
	Fetch(ctx context.Context, videoID string, preferred []string) (text, lang string, err error)
}

type videoSummarizer interface {
	Summarize(ctx context.Context, transcript, title string) (string, error)
}

// Watcher periodically checks the playlist for new videos and summarizes
// them. Overlapping triggers collapse into one run.
type Watcher struct {
	source      playlistSource
	transcripts transcriptSource
	summarizer  videoSummarizer
	store       *SummaryStore
	processed   *ProcessedLog
	target      language.Tag
	logger      zerolog.Logger

	cron     *cron.Cron
	cronExpr string
	group    singleflight.Group
}

func NewWatcher(
	source playlistSource,
	transcripts transcriptSource,
	summarizer videoSummarizer,
	store *SummaryStore,
	processed *ProcessedLog,
	target language.Tag,
	c *cron.Cron,
	cronExpr string,
	logger zerolog.Logger,
) *Watcher {
	return &Watcher{
		source:      source,
		transcripts: transcripts,
		summarizer:  summarizer,
		store:       store,
		processed:   processed,
		target:      target,
		logger:      logger,
		cron:        c,
		cronExpr:    cronExpr,
	}
}

// Schedule registers the periodic check on the cron runner.
func (w *Watcher) Schedule(ctx context.Context) error {
	_, err := w.cron.AddFunc(w.cronExpr, func() {
		_, _, _ = w.group.Do("check", func() (any, error) {
			count, err := w.CheckNow(ctx)
			if err != nil {
				w.logger.Error().Err(err).Msg("playlist check failed")
				return nil, err
			}
			w.logger.Info().Int("processed", count).Msg("playlist check finished")
			return count, nil
		})
	})
	if err != nil {
		return fmt.Errorf("schedule playlist check: %w", err)
	}
	return nil
}

// CronExpr returns the schedule expression the watcher runs on.
func (w *Watcher) CronExpr() string { return w.cronExpr }

// CheckNow fetches the playlist and summarizes every video not seen
// before. Per-video failures are logged and skipped so one broken video
// does not block the rest.
func (w *Watcher) CheckNow(ctx context.Context) (int, error) {
	videos, err := w.source.Videos(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch playlist: %w", err)
	}

	processed := 0
	for _, video := range videos {
		if w.processed.Contains(video.ID) {
			continue
		}
		if _, err := w.ProcessVideo(ctx, video); err != nil {
			w.logger.Error().Err(err).Str("video", video.ID).Str("title", video.Title).Msg("failed to process video")
			continue
		}
		processed++
	}
	return processed, nil
}

// ProcessVideo summarizes one video and records it as processed.
func (w *Watcher) ProcessVideo(ctx context.Context, video Video) (*Summary, error) {
	w.logger.Info().Str("video", video.ID).Str("title", video.Title).Msg("processing video")

	preferred := preferredLanguages(w.target)
	transcript, lang, err := w.transcripts.Fetch(ctx, video.ID, preferred)
	if err != nil {
		return nil, fmt.Errorf("fetch transcript: %w", err)
	}
	w.logger.Debug().Str("video", video.ID).Str("lang", lang).Int("chars", len(transcript)).Msg("transcript fetched")

	text, err := w.summarizer.Summarize(ctx, transcript, video.Title)
	if err != nil {
		return nil, err
	}

	summary := Summary{
		VideoID:   video.ID,
		VideoURL:  "https://www.youtube.com/watch?v=" + video.ID,
		Title:     video.Title,
		Channel:   video.Channel,
		Thumbnail: video.Thumbnail,
		Summary:   text,
	}
	if _, err := w.store.Save(ctx, summary); err != nil {
		return nil, err
	}
	if err := w.processed.Mark(video.ID); err != nil {
		return nil, err
	}
	return &summary, nil
}

// preferredLanguages orders transcript languages: the summary target
// first, then English as the widest fallback.
func preferredLanguages(target language.Tag) []string {
	base, _ := target.Base()
	code := base.String()
	if code == "en" {
		return []string{"en"}
	}
	return []string{code, "en"}
}
