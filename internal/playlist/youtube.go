// Package playlist watches a YouTube playlist and writes structured
// summaries of new videos: fetch playlist items, pull the transcript,
// summarize it with the configured model, persist JSON and Markdown.
package playlist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"
)

const defaultDataAPIBaseURL = "https://www.googleapis.com/youtube/v3"

// Video is one playlist entry.
type Video struct {
	ID          string `json:"video_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Channel     string `json:"channel"`
	PublishedAt string `json:"published_at"`
	Thumbnail   string `json:"thumbnail"`
}

// PlaylistClient reads playlist items from the YouTube Data API v3.
type PlaylistClient struct {
	apiKey     string
	playlistID string
	baseURL    string
	httpClient *http.Client
}

func NewPlaylistClient(apiKey, playlistID string) (*PlaylistClient, error) {
	if apiKey == "" || playlistID == "" {
		return nil, fmt.Errorf("playlist: API key and playlist id are required")
	}
	return &PlaylistClient{
		apiKey:     apiKey,
		playlistID: playlistID,
		baseURL:    defaultDataAPIBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type playlistItemsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ContentDetails struct {
			VideoID string `json:"videoId"`
		} `json:"contentDetails"`
		Snippet struct {
			Title                  string `json:"title"`
			Description            string `json:"description"`
			VideoOwnerChannelTitle string `json:"videoOwnerChannelTitle"`
			PublishedAt            string `json:"publishedAt"`
			Thumbnails             struct {
				Medium struct {
					URL string `json:"url"`
				} `json:"medium"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

// Videos returns every item of the playlist, following pagination.
func (c *PlaylistClient) Videos(ctx context.Context) ([]Video, error) {
	videos := make([]Video, 0)
	pageToken := ""

	for {
		page, err := c.fetchPage(ctx, pageToken)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			desc := item.Snippet.Description
			if len(desc) > 200 {
				desc = desc[:200]
			}
			videos = append(videos, Video{
				ID:          item.ContentDetails.VideoID,
				Title:       item.Snippet.Title,
				Description: desc,
				Channel:     item.Snippet.VideoOwnerChannelTitle,
				PublishedAt: item.Snippet.PublishedAt,
				Thumbnail:   item.Snippet.Thumbnails.Medium.URL,
			})
		}
		if page.NextPageToken == "" {
			return videos, nil
		}
		pageToken = page.NextPageToken
	}
}

func (c *PlaylistClient) fetchPage(ctx context.Context, pageToken string) (*playlistItemsResponse, error) {
	params := url.Values{}
	params.Set("part", "snippet,contentDetails")
	params.Set("playlistId", c.playlistID)
	params.Set("maxResults", "50")
	params.Set("key", c.apiKey)
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/playlistItems?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build playlist request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch playlist items: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read playlist response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("playlist query returned %d: %s", resp.StatusCode, raw)
	}

	var page playlistItemsResponse
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode playlist response: %w", err)
	}
	return &page, nil
}

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/shorts/([a-zA-Z0-9_-]{11})`),
}

// ExtractVideoID pulls the 11-character video id out of the usual YouTube
// URL forms. Returns "" when none matches.
func ExtractVideoID(rawURL string) string {
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	return ""
}
