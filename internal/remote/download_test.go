package remote

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPDownloaderFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte("artifact-bytes"))
	}))
	defer server.Close()

	d := &HTTPDownloader{Client: server.Client()}
	body, err := d.Fetch(context.Background(), server.URL+"/video.mp4")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "artifact-bytes", string(data))
}

func TestHTTPDownloaderFetchNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	d := &HTTPDownloader{Client: server.Client()}
	_, err := d.Fetch(context.Background(), server.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestHTTPDownloaderFetchBadRef(t *testing.T) {
	d := &HTTPDownloader{}
	_, err := d.Fetch(context.Background(), "://not-a-url")
	require.Error(t, err)
}
