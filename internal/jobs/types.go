// Package jobs tracks long-running generation jobs locally: queued work,
// worker execution, dedupe, and persistence across restarts. The remote
// vendor lifecycle (submit/poll/download) runs inside the executor; this
// package only owns the local bookkeeping.
package jobs

import "time"

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

type EnqueueRequest struct {
	Source    string
	DedupeKey string
	Payload   JobPayload
}

// JobPayload describes what to generate and where to put the artifact.
type JobPayload struct {
	Kind            string   `json:"kind"`
	Prompt          string   `json:"prompt"`
	NegativePrompt  string   `json:"negative_prompt,omitempty"`
	SourceMediaURL  string   `json:"source_media_url,omitempty"`
	DurationSeconds int      `json:"duration_seconds,omitempty"`
	Mode            string   `json:"mode,omitempty"`
	AspectRatio     string   `json:"aspect_ratio,omitempty"`
	AudioEnabled    bool     `json:"audio_enabled,omitempty"`
	CfgScale        *float64 `json:"cfg_scale,omitempty"`
	OutputPath      string   `json:"output_path,omitempty"`
}

type GenerationJob struct {
	ID        string     `json:"id"`
	Source    string     `json:"source"`
	DedupeKey string     `json:"dedupe_key"`
	Payload   JobPayload `json:"payload"`
	Status    Status     `json:"status"`
	// ResultRef is the vendor's artifact reference, set on success.
	ResultRef string    `json:"result_ref,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
