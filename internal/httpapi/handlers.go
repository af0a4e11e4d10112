package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/aroyer/genmedia/internal/image"
	"github.com/aroyer/genmedia/internal/jobs"
	"github.com/aroyer/genmedia/internal/playlist"
	"github.com/aroyer/genmedia/internal/sink"
	"github.com/aroyer/genmedia/pkg/icron"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	resp := map[string]any{
		"status":       "ok",
		"capabilities": s.caps,
	}
	if s.watcher != nil {
		if info, err := icron.GetTriggerInfo(s.watcher.CronExpr(), time.Now()); err == nil {
			resp["watcher"] = map[string]any{
				"schedule":   info.Expression,
				"next_check": info.Next,
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.watcher == nil {
		writeError(w, http.StatusServiceUnavailable, "playlist watcher is not configured")
		return
	}
	count, err := s.watcher.CheckNow(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "processed": count})
}

type summarizeRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.watcher == nil {
		writeError(w, http.StatusServiceUnavailable, "summarization is not configured")
		return
	}

	var req summarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "missing video url")
		return
	}
	videoID := playlist.ExtractVideoID(req.URL)
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "invalid YouTube url")
		return
	}

	summary, err := s.watcher.ProcessVideo(r.Context(), playlist.Video{ID: videoID, Title: req.Title})
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	summaries, err := s.summaries.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	videoID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/summaries/"), "/")
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "missing video id")
		return
	}
	summary, err := s.summaries.Get(videoID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if summary == nil {
		writeError(w, http.StatusNotFound, "summary not found")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type generateVideoRequest struct {
	Prompt          string   `json:"prompt"`
	NegativePrompt  string   `json:"negative_prompt"`
	SourceMediaURL  string   `json:"source_media_url"`
	DurationSeconds int      `json:"duration_seconds"`
	Mode            string   `json:"mode"`
	AspectRatio     string   `json:"aspect_ratio"`
	AudioEnabled    bool     `json:"audio_enabled"`
	CfgScale        *float64 `json:"cfg_scale"`
	OutputName      string   `json:"output_name"`
}

func (s *Server) handleGenerateVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.caps.VideoGeneration {
		writeError(w, http.StatusServiceUnavailable, "video generation is not configured")
		return
	}

	var req generateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt must not be empty")
		return
	}

	payload := jobs.JobPayload{
		Kind:            "video",
		Prompt:          req.Prompt,
		NegativePrompt:  req.NegativePrompt,
		SourceMediaURL:  req.SourceMediaURL,
		DurationSeconds: req.DurationSeconds,
		Mode:            req.Mode,
		AspectRatio:     req.AspectRatio,
		AudioEnabled:    req.AudioEnabled,
		CfgScale:        req.CfgScale,
		OutputPath:      req.OutputName,
	}
	job, created := s.queue.Enqueue(jobs.EnqueueRequest{
		Source:    "api",
		DedupeKey: payloadDedupeKey(payload),
		Payload:   payload,
	})
	status := http.StatusAccepted
	if !created {
		status = http.StatusOK
	}
	writeJSON(w, status, job)
}

// payloadDedupeKey collapses identical in-flight requests so a retried
// POST does not start a second billed generation.
func payloadDedupeKey(p jobs.JobPayload) string {
	raw, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8])
}

type generateImageRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt"`
	AspectRatio    string `json:"aspect_ratio"`
	Save           bool   `json:"save"`
	OutputName     string `json:"output_name"`
}

type generateImageResponse struct {
	Text       string   `json:"text,omitempty"`
	ImageCount int      `json:"image_count"`
	SavedPaths []string `json:"saved_paths,omitempty"`
	Images     []string `json:"images,omitempty"`
}

func (s *Server) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.images == nil {
		writeError(w, http.StatusServiceUnavailable, "image generation is not configured")
		return
	}

	var req generateImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt must not be empty")
		return
	}

	resp, err := s.images.Generate(r.Context(), image.Request{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		AspectRatio:    image.AspectRatio(req.AspectRatio),
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if !resp.Succeeded() {
		writeError(w, http.StatusBadGateway, "the model returned no image")
		return
	}

	out := generateImageResponse{Text: resp.Text, ImageCount: len(resp.Images)}
	if req.Save {
		saved, err := s.saveImages(r, resp.Images, req.OutputName)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out.SavedPaths = saved
	} else {
		for _, img := range resp.Images {
			out.Images = append(out.Images, img.Base64Data)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) saveImages(r *http.Request, images []image.Generated, outputName string) ([]string, error) {
	if outputName == "" {
		outputName = fmt.Sprintf("image_%s", time.Now().Format("20060102_150405"))
	}
	fileSink := sink.NewFileSink()
	saved := make([]string, 0, len(images))
	for i, img := range images {
		name := outputName
		if len(images) > 1 {
			name = fmt.Sprintf("%s_%d", outputName, i+1)
		}
		dest := filepath.Join(s.outputDir, name+extensionFor(img.MIMEType))
		if err := img.Save(r.Context(), fileSink, dest); err != nil {
			return nil, fmt.Errorf("save image: %w", err)
		}
		saved = append(saved, dest)
	}
	return saved, nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.queue.List())
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/jobs/"), "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing job id")
		return
	}
	job, ok := s.queue.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}
