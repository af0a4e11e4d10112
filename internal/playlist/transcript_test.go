package playlist

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTimedText = `<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.0" dur="2.5">Hello &amp; welcome</text>
  <text start="2.5" dur="3.0">to the channel</text>
  <text start="5.5" dur="1.0">  </text>
</transcript>`

func watchPage(tracksJSON string) string {
	return `<html><script>var ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":` +
		tracksJSON + `}}};</script></html>`
}

func TestParseCaptionTracks(t *testing.T) {
	page := watchPage(`[{"baseUrl":"https://yt/tt?lang=en","languageCode":"en","kind":"asr"},{"baseUrl":"https://yt/tt?lang=fr","languageCode":"fr"}]`)
	tracks, err := parseCaptionTracks(page)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "en", tracks[0].LanguageCode)
	assert.Equal(t, "asr", tracks[0].Kind)
	assert.Equal(t, "fr", tracks[1].LanguageCode)
}

func TestParseCaptionTracksAbsent(t *testing.T) {
	tracks, err := parseCaptionTracks("<html>no captions here</html>")
	require.NoError(t, err)
	assert.Empty(t, tracks)
}

func TestPickTrack(t *testing.T) {
	tracks := []captionTrack{
		{BaseURL: "u1", LanguageCode: "en", Kind: "asr"},
		{BaseURL: "u2", LanguageCode: "fr", Kind: "asr"},
		{BaseURL: "u3", LanguageCode: "fr"},
		{BaseURL: "u4", LanguageCode: "de"},
	}

	// Manual track in the preferred language wins over the auto-generated one.
	assert.Equal(t, "u3", pickTrack(tracks, []string{"fr", "en"}).BaseURL)
	// Auto-generated is acceptable when no manual track matches.
	assert.Equal(t, "u1", pickTrack(tracks, []string{"en"}).BaseURL)
	// No preference matches: first track.
	assert.Equal(t, "u1", pickTrack(tracks, []string{"ja"}).BaseURL)
}

func TestFetchTranscript(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "vid12345678", r.URL.Query().Get("v"))
		tracks := fmt.Sprintf(`[{"baseUrl":"%s/timedtext?lang=fr","languageCode":"fr"}]`, server.URL)
		fmt.Fprint(w, watchPage(tracks))
	})
	mux.HandleFunc("/timedtext", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sampleTimedText)
	})

	f := NewTranscriptFetcher()
	f.baseURL = server.URL

	text, lang, err := f.Fetch(context.Background(), "vid12345678", []string{"fr"})
	require.NoError(t, err)
	assert.Equal(t, "Hello & welcome to the channel", text)
	assert.Equal(t, "fr", lang)
}

func TestFetchNoTranscript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>nothing embedded</html>")
	}))
	defer server.Close()

	f := NewTranscriptFetcher()
	f.baseURL = server.URL

	_, _, err := f.Fetch(context.Background(), "vid12345678", nil)
	require.ErrorIs(t, err, ErrNoTranscript)
}

func TestFetchDetectsLanguageWhenTrackOmitsIt(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		tracks := fmt.Sprintf(`[{"baseUrl":"%s/timedtext"}]`, server.URL)
		fmt.Fprint(w, watchPage(tracks))
	})
	mux.HandleFunc("/timedtext", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<transcript><text>This is clearly an English sentence about everyday life and common things people do.</text></transcript>`)
	})

	f := NewTranscriptFetcher()
	f.baseURL = server.URL

	_, lang, err := f.Fetch(context.Background(), "vid12345678", nil)
	require.NoError(t, err)
	assert.Equal(t, "en", lang)
}
