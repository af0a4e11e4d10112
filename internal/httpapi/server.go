// Package httpapi exposes the JSON API: health, playlist checks, summary
// lookups, and generation endpoints.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/aroyer/genmedia/internal/config"
	"github.com/aroyer/genmedia/internal/image"
	"github.com/aroyer/genmedia/internal/jobs"
	"github.com/aroyer/genmedia/internal/playlist"
)

type playlistWatcher interface {
	CheckNow(ctx context.Context) (int, error)
	ProcessVideo(ctx context.Context, video playlist.Video) (*playlist.Summary, error)
	CronExpr() string
}

type imageGenerator interface {
	Generate(ctx context.Context, req image.Request) (*image.Response, error)
}

type Server struct {
	queue     *jobs.Queue
	summaries *playlist.SummaryStore
	caps      config.Capabilities

	watcher   playlistWatcher
	images    imageGenerator
	outputDir string

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

// WithWatcher enables the playlist endpoints.
func WithWatcher(w playlistWatcher) Option {
	return func(s *Server) { s.watcher = w }
}

// WithImageClient enables the synchronous image generation endpoint.
func WithImageClient(c imageGenerator, outputDir string) Option {
	return func(s *Server) {
		s.images = c
		s.outputDir = outputDir
	}
}

func NewServer(queue *jobs.Queue, summaries *playlist.SummaryStore, caps config.Capabilities, opts ...Option) *Server {
	s := &Server{
		queue:     queue,
		summaries: summaries,
		caps:      caps,
		mux:       http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/check", s.handleCheck)
	s.mux.HandleFunc("/api/summarize", s.handleSummarize)
	s.mux.HandleFunc("/api/summaries", s.handleListSummaries)
	s.mux.HandleFunc("/api/summaries/", s.handleGetSummary)
	s.mux.HandleFunc("/api/generate/video", s.handleGenerateVideo)
	s.mux.HandleFunc("/api/generate/image", s.handleGenerateImage)
	s.mux.HandleFunc("/api/jobs", s.handleListJobs)
	s.mux.HandleFunc("/api/jobs/stream", s.handleJobStream)
	s.mux.HandleFunc("/api/jobs/", s.handleGetJob)
}
