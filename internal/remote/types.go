// Package remote implements the asynchronous job protocol shared by the
// generation vendors: submit a request, receive an opaque handle, poll the
// vendor for status until the job reaches a terminal state, then download
// the produced artifact.
package remote

import "context"

// Status is the observed state of a remote generation job. Transitions are
// driven exclusively by the vendor and advance monotonically along
// Pending -> Processing -> {Succeeded | Failed}. Vendors may skip Pending
// and report Processing on the first query.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusSucceeded  Status = "Succeeded"
	StatusFailed     Status = "Failed"
)

// Terminal reports whether no further transition can occur.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Handle is the vendor-issued identifier for a submitted job. It has no
// meaning outside the issuing service and must never be reused for a
// different submission.
type Handle string

// CameraControl describes an optional camera movement for video generation.
// Ranges are vendor-defined; the service implementation validates them
// before submission.
type CameraControl struct {
	Type       string   `json:"type"`
	Horizontal *float64 `json:"horizontal,omitempty"`
	Vertical   *float64 `json:"vertical,omitempty"`
	Pan        *float64 `json:"pan,omitempty"`
	Tilt       *float64 `json:"tilt,omitempty"`
	Roll       *float64 `json:"roll,omitempty"`
	Zoom       *float64 `json:"zoom,omitempty"`
}

// Options carries the named generation options of a request. Which values
// are allowed is vendor-specific and checked locally by the service
// implementation so an invalid combination never costs a billed submission.
type Options struct {
	DurationSeconds int
	Mode            string
	AspectRatio     string
	AudioEnabled    bool
	Camera          *CameraControl

	// CfgScale tunes prompt adherence; nil keeps the vendor default.
	CfgScale *float64
	// EndFrameURL optionally pins the final frame for image-to-video.
	EndFrameURL string
}

// Request describes the desired output of one generation job. It is built
// once per submission and never mutated.
type Request struct {
	Prompt         string
	NegativePrompt string
	SourceMediaURL string
	Options        Options
}

// Result references the artifact produced by a succeeded job.
type Result struct {
	Ref string
}

// Report is a single status observation for a job. Result is set only when
// Status is Succeeded; ErrorDetail carries the vendor-supplied failure
// message when Status is Failed.
type Report struct {
	Status      Status
	Result      *Result
	ErrorDetail string
}

// Service is the vendor boundary the poller drives. Submit must validate
// the request locally and return an InvalidRequestError before any network
// interaction when validation fails.
type Service interface {
	Submit(ctx context.Context, req Request) (Handle, Report, error)
	Status(ctx context.Context, h Handle) (Report, error)
}
