package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aroyer/genmedia/internal/remote"
)

const (
	defaultCfgScale = 0.5
	defaultDuration = 5
)

// Config holds the vendor connection settings for the video client.
type Config struct {
	APIKey  string
	BaseURL string
	// Version selects the Kling model generation (default 2.6).
	Version Version
	// WebhookURL, when set, asks the vendor to notify on completion in
	// addition to polling.
	WebhookURL string
	// Timeout bounds a single HTTP exchange, in seconds.
	Timeout int
}

func (c Config) validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("video: API key is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("video: base URL is required")
	}
	if c.Version != "" && !c.Version.Valid() {
		return fmt.Errorf("video: unknown model version %q", c.Version)
	}
	return nil
}

// Client submits video generation tasks and reads their status. It
// implements remote.Service.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Version == "" {
		cfg.Version = Version26
	}
	timeout := 60 * time.Second
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// taskEnvelope is the vendor response wrapper shared by submit and status.
type taskEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    taskData        `json:"data"`
	Error   json.RawMessage `json:"error"`
}

type taskData struct {
	TaskID string     `json:"task_id"`
	Status string     `json:"status"`
	Output taskOutput `json:"output"`
	Error  taskError  `json:"error"`
}

type taskOutput struct {
	VideoURL string `json:"video_url"`
}

type taskError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Submit validates the request locally, then creates a generation task.
// Validation failures surface as remote.InvalidRequestError before any
// network call; vendor rejections and unreachable-service failures surface
// as remote.SubmissionError and are never retried here.
func (c *Client) Submit(ctx context.Context, req remote.Request) (remote.Handle, remote.Report, error) {
	if err := validateRequest(req); err != nil {
		return "", remote.Report{}, err
	}

	body, err := json.Marshal(c.buildBody(req))
	if err != nil {
		return "", remote.Report{}, &remote.SubmissionError{Detail: "encode request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/task", bytes.NewReader(body))
	if err != nil {
		return "", remote.Report{}, &remote.SubmissionError{Detail: "build request", Err: err}
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", remote.Report{}, &remote.SubmissionError{Detail: "service unreachable", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", remote.Report{}, &remote.SubmissionError{Detail: "read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", remote.Report{}, &remote.SubmissionError{StatusCode: resp.StatusCode, Detail: string(raw)}
	}

	var envelope taskEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", remote.Report{}, &remote.SubmissionError{Detail: "decode response", Err: err}
	}
	if envelope.Data.TaskID == "" {
		return "", remote.Report{}, &remote.SubmissionError{Detail: "response carries no task id"}
	}
	return remote.Handle(envelope.Data.TaskID), reportFromData(envelope.Data), nil
}

// Status reads the current state of a task. Communication failures are
// reported as remote.TransientError so the poller can retry them within
// its budget; a vendor-reported terminal failure is not an error here, it
// comes back in the report with the vendor's detail.
func (c *Client) Status(ctx context.Context, h remote.Handle) (remote.Report, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/task/"+string(h), nil)
	if err != nil {
		return remote.Report{}, &remote.TransientError{Err: err}
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return remote.Report{}, &remote.TransientError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return remote.Report{}, &remote.TransientError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return remote.Report{}, &remote.TransientError{Err: fmt.Errorf("status query returned %d: %s", resp.StatusCode, raw)}
	}

	var envelope taskEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return remote.Report{}, &remote.TransientError{Err: fmt.Errorf("decode status response: %w", err)}
	}
	return reportFromData(envelope.Data), nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
}

func (c *Client) buildBody(req remote.Request) map[string]any {
	duration := req.Options.DurationSeconds
	if duration == 0 {
		duration = defaultDuration
	}
	mode := req.Options.Mode
	if mode == "" {
		mode = string(ModeStandard)
	}
	aspect := req.Options.AspectRatio
	if aspect == "" {
		aspect = string(AspectLandscape)
	}
	cfgScale := defaultCfgScale
	if req.Options.CfgScale != nil {
		cfgScale = *req.Options.CfgScale
	}

	input := map[string]any{
		"prompt":       req.Prompt,
		"duration":     duration,
		"aspect_ratio": aspect,
		"mode":         mode,
		"version":      string(c.cfg.Version),
		"cfg_scale":    cfgScale,
	}
	if req.NegativePrompt != "" {
		input["negative_prompt"] = req.NegativePrompt
	}
	if req.Options.AudioEnabled {
		input["enable_audio"] = true
	}
	if req.SourceMediaURL != "" {
		input["image_url"] = req.SourceMediaURL
	}
	if req.Options.EndFrameURL != "" {
		input["image_tail_url"] = req.Options.EndFrameURL
	}
	if cam := req.Options.Camera; cam != nil {
		input["camera_control"] = cameraBody(cam)
	}

	body := map[string]any{
		"model":     "kling",
		"task_type": "video_generation",
		"input":     input,
	}
	if c.cfg.WebhookURL != "" {
		body["config"] = map[string]any{
			"webhook_config": map[string]any{"endpoint": c.cfg.WebhookURL},
		}
	}
	return body
}

func cameraBody(cam *remote.CameraControl) map[string]any {
	moveType := cam.Type
	if moveType == "" {
		moveType = "simple"
	}
	out := map[string]any{"type": moveType}
	axes := map[string]*float64{
		"horizontal": cam.Horizontal,
		"vertical":   cam.Vertical,
		"pan":        cam.Pan,
		"tilt":       cam.Tilt,
		"roll":       cam.Roll,
		"zoom":       cam.Zoom,
	}
	for name, v := range axes {
		if v != nil {
			out[name] = *v
		}
	}
	return out
}

// reportFromData maps the vendor status vocabulary onto the closed set the
// poller understands. Staged and unknown values count as Pending; the
// poller tolerates the vendor skipping straight to Processing.
func reportFromData(data taskData) remote.Report {
	report := remote.Report{ErrorDetail: data.Error.Message}
	switch data.Status {
	case "Completed":
		report.Status = remote.StatusSucceeded
		if data.Output.VideoURL != "" {
			report.Result = &remote.Result{Ref: data.Output.VideoURL}
		}
	case "Failed":
		report.Status = remote.StatusFailed
	case "Processing":
		report.Status = remote.StatusProcessing
	default:
		report.Status = remote.StatusPending
	}
	return report
}
