package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu   sync.Mutex
	jobs map[string]*GenerationJob
}

func newMemStore() *memStore {
	return &memStore{jobs: make(map[string]*GenerationJob)}
}

func (s *memStore) LoadJobs(ctx context.Context) ([]*GenerationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*GenerationJob, 0, len(s.jobs))
	for _, j := range s.jobs {
		tmp := *j
		out = append(out, &tmp)
	}
	return out, nil
}

func (s *memStore) UpsertJob(ctx context.Context, job *GenerationJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tmp := *job
	s.jobs[job.ID] = &tmp
	return nil
}

func (s *memStore) DeleteJob(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	return nil
}

func TestEnqueueAndRun(t *testing.T) {
	q := NewQueue(1, nil, zerolog.Nop())
	defer q.Stop()

	q.Start(func(ctx context.Context, job *GenerationJob) (string, error) {
		return "https://cdn.example.com/" + job.ID + ".mp4", nil
	})

	job, created := q.Enqueue(EnqueueRequest{
		Source:  "api",
		Payload: JobPayload{Kind: "video", Prompt: "a fox"},
	})
	require.True(t, created)
	assert.Equal(t, StatusPending, job.Status)

	require.Eventually(t, func() bool {
		got, ok := q.Get(job.ID)
		return ok && got.Status == StatusSuccess
	}, 2*time.Second, 10*time.Millisecond)

	got, ok := q.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/"+job.ID+".mp4", got.ResultRef)
}

func TestEnqueueDedupe(t *testing.T) {
	q := NewQueue(1, nil, zerolog.Nop())
	defer q.Stop()

	first, created := q.Enqueue(EnqueueRequest{DedupeKey: "k1", Payload: JobPayload{Prompt: "p"}})
	require.True(t, created)

	second, created := q.Enqueue(EnqueueRequest{DedupeKey: "k1", Payload: JobPayload{Prompt: "p"}})
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	// A different key is a different job.
	third, created := q.Enqueue(EnqueueRequest{DedupeKey: "k2", Payload: JobPayload{Prompt: "p"}})
	require.True(t, created)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestDedupeReleasedAfterTerminal(t *testing.T) {
	q := NewQueue(1, nil, zerolog.Nop())
	defer q.Stop()

	q.Start(func(ctx context.Context, job *GenerationJob) (string, error) {
		return "ref", nil
	})

	first, created := q.Enqueue(EnqueueRequest{DedupeKey: "k", Payload: JobPayload{Prompt: "p"}})
	require.True(t, created)

	require.Eventually(t, func() bool {
		got, ok := q.Get(first.ID)
		return ok && got.Status == StatusSuccess
	}, 2*time.Second, 10*time.Millisecond)

	// Once the first job finished, the same key enqueues fresh work.
	second, created := q.Enqueue(EnqueueRequest{DedupeKey: "k", Payload: JobPayload{Prompt: "p"}})
	assert.True(t, created)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestExecutorFailureMarksJobFailed(t *testing.T) {
	q := NewQueue(1, nil, zerolog.Nop())
	defer q.Stop()

	q.Start(func(ctx context.Context, job *GenerationJob) (string, error) {
		return "", errors.New("vendor said no")
	})

	job, _ := q.Enqueue(EnqueueRequest{Payload: JobPayload{Prompt: "p"}})

	require.Eventually(t, func() bool {
		got, ok := q.Get(job.ID)
		return ok && got.Status == StatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	got, _ := q.Get(job.ID)
	assert.Equal(t, "vendor said no", got.Error)
}

func TestListNewestFirst(t *testing.T) {
	q := NewQueue(1, nil, zerolog.Nop())
	defer q.Stop()

	a, _ := q.Enqueue(EnqueueRequest{Payload: JobPayload{Prompt: "a"}})
	time.Sleep(2 * time.Millisecond)
	b, _ := q.Enqueue(EnqueueRequest{Payload: JobPayload{Prompt: "b"}})

	list := q.List()
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)
}

func TestHydrateFromStore(t *testing.T) {
	store := newMemStore()
	store.jobs["gen-7"] = &GenerationJob{
		ID:      "gen-7",
		Status:  StatusRunning,
		Payload: JobPayload{Prompt: "interrupted"},
	}
	store.jobs["gen-3"] = &GenerationJob{
		ID:        "gen-3",
		Status:    StatusSuccess,
		ResultRef: "ref",
	}

	q := NewQueue(1, store, zerolog.Nop())
	defer q.Stop()

	// Mid-flight jobs come back pending so they resubmit; terminal jobs
	// keep their outcome.
	got, ok := q.Get("gen-7")
	require.True(t, ok)
	assert.Equal(t, StatusPending, got.Status)

	done, ok := q.Get("gen-3")
	require.True(t, ok)
	assert.Equal(t, StatusSuccess, done.Status)

	// New IDs continue after the highest persisted one.
	fresh, _ := q.Enqueue(EnqueueRequest{Payload: JobPayload{Prompt: "new"}})
	assert.Equal(t, "gen-8", fresh.ID)
}

func TestPersistsThroughLifecycle(t *testing.T) {
	store := newMemStore()
	q := NewQueue(1, store, zerolog.Nop())
	defer q.Stop()

	q.Start(func(ctx context.Context, job *GenerationJob) (string, error) {
		return "ref", nil
	})

	job, _ := q.Enqueue(EnqueueRequest{Payload: JobPayload{Prompt: "p"}})

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		saved, ok := store.jobs[job.ID]
		return ok && saved.Status == StatusSuccess
	}, 2*time.Second, 10*time.Millisecond)
}
