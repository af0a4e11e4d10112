package playlist

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
)

const defaultWatchBaseURL = "https://www.youtube.com"

// ErrNoTranscript is returned when a video exposes no caption track.
var ErrNoTranscript = fmt.Errorf("no transcript available")

// TranscriptFetcher pulls caption text for a video by resolving the
// caption tracks embedded in the watch page and fetching the timedtext
// document of the best match.
type TranscriptFetcher struct {
	baseURL    string
	httpClient *http.Client
}

func NewTranscriptFetcher() *TranscriptFetcher {
	return &TranscriptFetcher{
		baseURL:    defaultWatchBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

// Fetch returns the flattened transcript text and its language code.
// Track selection prefers the given language codes in order, then any
// available track; when a track declares no language the text itself is
// detected.
func (f *TranscriptFetcher) Fetch(ctx context.Context, videoID string, preferred []string) (string, string, error) {
	tracks, err := f.captionTracks(ctx, videoID)
	if err != nil {
		return "", "", err
	}
	if len(tracks) == 0 {
		return "", "", ErrNoTranscript
	}

	track := pickTrack(tracks, preferred)
	text, err := f.fetchTimedText(ctx, track.BaseURL)
	if err != nil {
		return "", "", err
	}

	lang := track.LanguageCode
	if lang == "" {
		lang = whatlanggo.DetectLang(text).Iso6391()
	}
	return text, lang, nil
}

func (f *TranscriptFetcher) captionTracks(ctx context.Context, videoID string) ([]captionTrack, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/watch?v="+videoID, nil)
	if err != nil {
		return nil, fmt.Errorf("build watch request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch watch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("watch page returned %d", resp.StatusCode)
	}

	page, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read watch page: %w", err)
	}
	return parseCaptionTracks(string(page))
}

// parseCaptionTracks locates the captionTracks array inside the player
// payload embedded in the watch page.
func parseCaptionTracks(page string) ([]captionTrack, error) {
	const marker = `"captionTracks":`
	idx := strings.Index(page, marker)
	if idx < 0 {
		return nil, nil
	}
	decoder := json.NewDecoder(strings.NewReader(page[idx+len(marker):]))
	var tracks []captionTrack
	if err := decoder.Decode(&tracks); err != nil {
		return nil, fmt.Errorf("decode caption tracks: %w", err)
	}
	return tracks, nil
}

// pickTrack prefers manually authored tracks in the requested languages,
// then auto-generated ones, then whatever is first.
func pickTrack(tracks []captionTrack, preferred []string) captionTrack {
	for _, lang := range preferred {
		for _, t := range tracks {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t
			}
		}
	}
	for _, lang := range preferred {
		for _, t := range tracks {
			if t.LanguageCode == lang {
				return t
			}
		}
	}
	return tracks[0]
}

type timedText struct {
	Texts []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

func (f *TranscriptFetcher) fetchTimedText(ctx context.Context, trackURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackURL, nil)
	if err != nil {
		return "", fmt.Errorf("build transcript request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch transcript: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("transcript query returned %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}

	var doc timedText
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("decode transcript: %w", err)
	}
	parts := make([]string, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		line := strings.TrimSpace(html.UnescapeString(t.Value))
		if line != "" {
			parts = append(parts, line)
		}
	}
	if len(parts) == 0 {
		return "", ErrNoTranscript
	}
	return strings.Join(parts, " "), nil
}
