package playlist

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/aroyer/genmedia/internal/sink"
)

type fakePlaylist struct {
	videos []Video
	err    error
}

func (f *fakePlaylist) Videos(ctx context.Context) ([]Video, error) {
	return f.videos, f.err
}

type fakeTranscripts struct {
	text      string
	err       error
	preferred []string
}

func (f *fakeTranscripts) Fetch(ctx context.Context, videoID string, preferred []string) (string, string, error) {
	f.preferred = preferred
	if f.err != nil {
		return "", "", f.err
	}
	return f.text, "en", nil
}

type fakeSummarizer struct {
	reply string
	err   error
	calls int
}

func (f *fakeSummarizer) Summarize(ctx context.Context, transcript, title string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func newTestWatcher(t *testing.T, source playlistSource, transcripts transcriptSource, summarizer videoSummarizer) *Watcher {
	t.Helper()
	dir := t.TempDir()
	store := NewSummaryStore(dir, sink.NewFileSink())
	processed, err := NewProcessedLog(filepath.Join(dir, "processed.json"))
	require.NoError(t, err)
	return NewWatcher(source, transcripts, summarizer, store, processed,
		language.French, cron.New(), "*/5 * * * *", zerolog.Nop())
}

func TestCheckNowProcessesNewVideos(t *testing.T) {
	source := &fakePlaylist{videos: []Video{
		{ID: "vid00000001", Title: "First"},
		{ID: "vid00000002", Title: "Second"},
	}}
	transcripts := &fakeTranscripts{text: "some transcript"}
	summarizer := &fakeSummarizer{reply: "summary"}
	w := newTestWatcher(t, source, transcripts, summarizer)

	count, err := w.CheckNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, summarizer.calls)

	// Both are recorded: a second pass processes nothing.
	count, err = w.CheckNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 2, summarizer.calls)
}

func TestCheckNowSkipsFailingVideo(t *testing.T) {
	source := &fakePlaylist{videos: []Video{
		{ID: "vid00000001", Title: "Broken"},
	}}
	transcripts := &fakeTranscripts{err: ErrNoTranscript}
	summarizer := &fakeSummarizer{reply: "summary"}
	w := newTestWatcher(t, source, transcripts, summarizer)

	count, err := w.CheckNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, summarizer.calls)

	// A failed video stays unprocessed so a later run can retry it.
	assert.False(t, w.processed.Contains("vid00000001"))
}

func TestCheckNowPlaylistError(t *testing.T) {
	w := newTestWatcher(t, &fakePlaylist{err: errors.New("quota exceeded")},
		&fakeTranscripts{}, &fakeSummarizer{})

	_, err := w.CheckNow(context.Background())
	require.Error(t, err)
}

func TestProcessVideoStoresSummaryAndMarks(t *testing.T) {
	transcripts := &fakeTranscripts{text: "transcript"}
	summarizer := &fakeSummarizer{reply: "the summary"}
	w := newTestWatcher(t, &fakePlaylist{}, transcripts, summarizer)

	summary, err := w.ProcessVideo(context.Background(), Video{ID: "vid00000009", Title: "T", Channel: "C"})
	require.NoError(t, err)
	assert.Equal(t, "the summary", summary.Summary)
	assert.Equal(t, "https://www.youtube.com/watch?v=vid00000009", summary.VideoURL)

	// Transcript languages: summary target first, then English.
	assert.Equal(t, []string{"fr", "en"}, transcripts.preferred)

	assert.True(t, w.processed.Contains("vid00000009"))
	stored, err := w.store.Get("vid00000009")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "the summary", stored.Summary)
}

func TestProcessVideoSummarizerError(t *testing.T) {
	w := newTestWatcher(t, &fakePlaylist{}, &fakeTranscripts{text: "t"},
		&fakeSummarizer{err: errors.New("model unavailable")})

	_, err := w.ProcessVideo(context.Background(), Video{ID: "vid00000010"})
	require.Error(t, err)
	assert.False(t, w.processed.Contains("vid00000010"))
}

func TestScheduleRejectsBadExpression(t *testing.T) {
	w := newTestWatcher(t, &fakePlaylist{}, &fakeTranscripts{}, &fakeSummarizer{})
	w.cronExpr = "not a cron expr"
	require.Error(t, w.Schedule(context.Background()))
}
