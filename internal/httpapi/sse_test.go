package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aroyer/genmedia/internal/config"
	"github.com/aroyer/genmedia/internal/jobs"
)

func TestJobStreamSendsSnapshot(t *testing.T) {
	s, ts := newTestServer(t, config.Capabilities{VideoGeneration: true})
	job, _ := s.queue.Enqueue(jobs.EnqueueRequest{Payload: jobs.JobPayload{Prompt: "p"}})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/jobs/stream", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "data: "))

	var list []jobs.GenerationJob
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &list))
	require.Len(t, list, 1)
	assert.Equal(t, job.ID, list[0].ID)
}
