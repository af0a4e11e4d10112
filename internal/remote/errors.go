package remote

import (
	"fmt"
	"time"
)

// InvalidRequestError reports a request rejected by local validation before
// any network interaction.
type InvalidRequestError struct {
	Field  string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

// SubmissionError reports a submission the vendor rejected or that never
// reached the vendor. Submissions are not retried automatically: retrying a
// paid generation request risks duplicate billing, so retry is the caller's
// explicit decision.
type SubmissionError struct {
	StatusCode int
	Detail     string
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("submission rejected (status %d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("submission failed: %s", e.Detail)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// TransientError reports an isolated communication failure during a single
// status query, distinct from the job's own outcome. The poller retries
// these up to a bounded number of consecutive occurrences.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient status query error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PollingAbortedError reports that the consecutive transient-error budget
// was exhausted. The job may still be running remotely.
type PollingAbortedError struct {
	Handle   Handle
	Attempts int
	Last     error
}

func (e *PollingAbortedError) Error() string {
	return fmt.Sprintf("polling aborted for %s after %d consecutive transient errors: %v", e.Handle, e.Attempts, e.Last)
}

func (e *PollingAbortedError) Unwrap() error { return e.Last }

// TimeoutError reports that the wall-clock budget elapsed before the job
// reached a terminal state. The remote job is not cancelled; the caller may
// re-poll the same handle later.
type TimeoutError struct {
	Handle Handle
	Waited time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("job %s did not finish within %s", e.Handle, e.Waited)
}

// JobFailedError reports a vendor-side terminal failure, carrying the
// vendor's error detail unmodified.
type JobFailedError struct {
	Handle Handle
	Detail string
}

func (e *JobFailedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("job %s failed", e.Handle)
	}
	return fmt.Sprintf("job %s failed: %s", e.Handle, e.Detail)
}

// DownloadError reports an interrupted artifact transfer or an unwritable
// destination. Downloads are not retried automatically; artifacts may be
// large and retry policy depends on the caller's context.
type DownloadError struct {
	Ref  string
	Dest string
	Err  error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s to %s: %v", e.Ref, e.Dest, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }
