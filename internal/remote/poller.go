package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	defaultMaxTransientErrors = 3
	defaultBackoffCap         = 30 * time.Second
)

// Poller drives a Service through the submit / poll / download lifecycle.
// It holds no per-job state, so a single Poller can run any number of jobs
// concurrently as long as each job polls its own handle.
type Poller struct {
	service      Service
	downloader   Downloader
	sink         Sink
	limiter      *rate.Limiter
	maxTransient int
	backoffCap   time.Duration
	logger       zerolog.Logger
}

type Option func(*Poller)

// WithRateLimiter makes the poller wait on l before every network call.
// Only the call instant is serialized; the sleep between polls is not.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(p *Poller) { p.limiter = l }
}

// WithMaxTransientErrors bounds the number of consecutive transient status
// query failures tolerated before polling is aborted.
func WithMaxTransientErrors(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.maxTransient = n
		}
	}
}

// WithBackoffCap caps the exponential growth of the poll interval.
func WithBackoffCap(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.backoffCap = d
		}
	}
}

func WithDownloader(d Downloader, s Sink) Option {
	return func(p *Poller) {
		p.downloader = d
		p.sink = s
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Poller) { p.logger = logger }
}

func NewPoller(service Service, opts ...Option) *Poller {
	p := &Poller{
		service:      service,
		downloader:   &HTTPDownloader{},
		maxTransient: defaultMaxTransientErrors,
		backoffCap:   defaultBackoffCap,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit validates and forwards the request to the service and returns the
// vendor handle. It never retries: a rejected or unreachable submission
// surfaces as a SubmissionError (or InvalidRequestError before any network
// interaction) and the retry decision stays with the caller.
func (p *Poller) Submit(ctx context.Context, req Request) (Handle, error) {
	if err := p.acquire(ctx); err != nil {
		return "", err
	}
	handle, report, err := p.service.Submit(ctx, req)
	if err != nil {
		return "", err
	}
	p.logger.Info().Str("handle", string(handle)).Str("status", string(report.Status)).Msg("job submitted")
	return handle, nil
}

// PollUntilDone queries the job's status until it reaches a terminal state,
// the wall-clock budget maxWait elapses, or the consecutive transient-error
// budget is exhausted. The poll spacing starts at interval and doubles up
// to the configured cap. A timeout never cancels the remote job; the same
// handle can be polled again later.
func (p *Poller) PollUntilDone(ctx context.Context, h Handle, maxWait, interval time.Duration) (*Result, error) {
	if interval <= 0 {
		interval = time.Second
	}
	deadline := time.Now().Add(maxWait)
	wait := interval
	transient := 0

	for {
		if err := p.acquire(ctx); err != nil {
			return nil, err
		}
		report, err := p.service.Status(ctx, h)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			transient++
			p.logger.Warn().Err(err).Str("handle", string(h)).Int("consecutive", transient).Msg("status query failed")
			if transient >= p.maxTransient {
				return nil, &PollingAbortedError{Handle: h, Attempts: transient, Last: err}
			}
		case report.Status == StatusSucceeded:
			if report.Result == nil || report.Result.Ref == "" {
				return nil, fmt.Errorf("job %s reported success without a result reference", h)
			}
			p.logger.Info().Str("handle", string(h)).Str("ref", report.Result.Ref).Msg("job succeeded")
			return report.Result, nil
		case report.Status == StatusFailed:
			return nil, &JobFailedError{Handle: h, Detail: report.ErrorDetail}
		default:
			transient = 0
			p.logger.Debug().Str("handle", string(h)).Str("status", string(report.Status)).Msg("job not finished")
		}

		now := time.Now()
		if !now.Before(deadline) {
			return nil, &TimeoutError{Handle: h, Waited: maxWait}
		}
		sleep := wait
		if remaining := deadline.Sub(now); sleep > remaining {
			sleep = remaining
		}
		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		wait *= 2
		if wait > p.backoffCap {
			wait = p.backoffCap
		}
	}
}

// Download streams the artifact referenced by res to dest through the
// configured sink. It is not retried automatically.
func (p *Poller) Download(ctx context.Context, res *Result, dest string) error {
	if res == nil || res.Ref == "" {
		return &DownloadError{Dest: dest, Err: errors.New("no result reference")}
	}
	if p.sink == nil {
		return &DownloadError{Ref: res.Ref, Dest: dest, Err: errors.New("no sink configured")}
	}
	body, err := p.downloader.Fetch(ctx, res.Ref)
	if err != nil {
		return &DownloadError{Ref: res.Ref, Dest: dest, Err: err}
	}
	defer body.Close()
	if err := p.sink.Write(ctx, body, dest); err != nil {
		return &DownloadError{Ref: res.Ref, Dest: dest, Err: err}
	}
	p.logger.Info().Str("ref", res.Ref).Str("dest", dest).Msg("artifact downloaded")
	return nil
}

// GenerateAndWait composes Submit, PollUntilDone and Download. Failures
// from the constituents propagate unchanged and nothing is retried. When
// dest is empty the download step is skipped.
func (p *Poller) GenerateAndWait(ctx context.Context, req Request, dest string, maxWait, interval time.Duration) (*Result, error) {
	handle, err := p.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := p.PollUntilDone(ctx, handle, maxWait, interval)
	if err != nil {
		return nil, err
	}
	if dest != "" {
		if err := p.Download(ctx, res, dest); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (p *Poller) acquire(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}
