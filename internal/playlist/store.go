package playlist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Sink persists summary files; satisfied by sink.FileSink.
type Sink interface {
	Write(ctx context.Context, r io.Reader, dest string) error
}

// Summary is one stored video summary.
type Summary struct {
	VideoID   string    `json:"video_id"`
	VideoURL  string    `json:"video_url"`
	Title     string    `json:"title"`
	Channel   string    `json:"channel"`
	Thumbnail string    `json:"thumbnail"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// SummaryStore writes summaries to a directory as a JSON document plus a
// readable Markdown companion, both named {timestamp}_{videoID}.
type SummaryStore struct {
	dir  string
	sink Sink
}

func NewSummaryStore(dir string, sink Sink) *SummaryStore {
	return &SummaryStore{dir: dir, sink: sink}
}

// Save persists the summary and returns the JSON file path.
func (s *SummaryStore) Save(ctx context.Context, summary Summary) (string, error) {
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = time.Now()
	}
	base := fmt.Sprintf("%s_%s", summary.CreatedAt.Format("20060102_150405"), summary.VideoID)

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode summary: %w", err)
	}
	jsonPath := filepath.Join(s.dir, base+".json")
	if err := s.sink.Write(ctx, strings.NewReader(string(data)), jsonPath); err != nil {
		return "", fmt.Errorf("write summary json: %w", err)
	}

	md := fmt.Sprintf("# %s\n\n**Channel:** %s\n**Link:** %s\n**Generated:** %s\n\n---\n\n%s\n",
		orDefault(summary.Title, "Untitled"),
		orDefault(summary.Channel, "Unknown"),
		summary.VideoURL,
		summary.CreatedAt.Format("2006-01-02 15:04"),
		summary.Summary,
	)
	mdPath := filepath.Join(s.dir, base+".md")
	if err := s.sink.Write(ctx, strings.NewReader(md), mdPath); err != nil {
		return "", fmt.Errorf("write summary markdown: %w", err)
	}
	return jsonPath, nil
}

// List returns all stored summaries, newest first.
func (s *SummaryStore) List() ([]Summary, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))

	summaries := make([]Summary, 0, len(paths))
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read summary %s: %w", path, err)
		}
		var summary Summary
		if err := json.Unmarshal(raw, &summary); err != nil {
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Get returns the summary for a video id, or nil when none exists.
func (s *SummaryStore) Get(videoID string) (*Summary, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*_"+videoID+".json"))
	if err != nil || len(paths) == 0 {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	raw, err := os.ReadFile(paths[0])
	if err != nil {
		return nil, fmt.Errorf("read summary: %w", err)
	}
	var summary Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	return &summary, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// ProcessedLog remembers which videos were already summarized so restarts
// never re-summarize the whole playlist.
type ProcessedLog struct {
	path string

	mu  sync.Mutex
	ids map[string]bool
}

func NewProcessedLog(path string) (*ProcessedLog, error) {
	log := &ProcessedLog{path: path, ids: make(map[string]bool)}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return log, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read processed log: %w", err)
	}
	var stored struct {
		Processed []string `json:"processed"`
	}
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode processed log: %w", err)
	}
	for _, id := range stored.Processed {
		log.ids[id] = true
	}
	return log, nil
}

func (l *ProcessedLog) Contains(videoID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ids[videoID]
}

// Mark records a video as processed and flushes the log.
func (l *ProcessedLog) Mark(videoID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ids[videoID] = true
	ids := make([]string, 0, len(l.ids))
	for id := range l.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data, err := json.Marshal(struct {
		Processed []string  `json:"processed"`
		UpdatedAt time.Time `json:"updated_at"`
	}{Processed: ids, UpdatedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("encode processed log: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("write processed log: %w", err)
	}
	return nil
}
