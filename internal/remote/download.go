package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sink persists a downloaded artifact stream to a destination path.
type Sink interface {
	Write(ctx context.Context, r io.Reader, dest string) error
}

// Downloader resolves a result reference into a byte stream.
type Downloader interface {
	Fetch(ctx context.Context, ref string) (io.ReadCloser, error)
}

// HTTPDownloader fetches artifacts over plain HTTP GET, which is how both
// vendors expose finished media.
type HTTPDownloader struct {
	Client *http.Client
}

func (d *HTTPDownloader) Fetch(ctx context.Context, ref string) (io.ReadCloser, error) {
	client := d.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d fetching artifact", resp.StatusCode)
	}
	return resp.Body, nil
}
