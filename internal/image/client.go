package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Sink persists decoded image bytes; satisfied by sink.FileSink.
type Sink interface {
	Write(ctx context.Context, r io.Reader, dest string) error
}

// Config holds the Gemini connection settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Timeout bounds a single HTTP exchange, in seconds.
	Timeout int
}

func (c Config) validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("image: API key is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("image: base URL is required")
	}
	if c.Model == "" {
		return fmt.Errorf("image: model is required")
	}
	return nil
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	timeout := 120 * time.Second
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// generateContent request/response wire shapes.

type generateBody struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text       string `json:"text"`
				InlineData *struct {
					MIMEType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate produces images from a text prompt, or edits the reference
// image when the request carries one.
func (c *Client) Generate(ctx context.Context, req Request) (*Response, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("image: prompt must not be empty")
	}

	prompt := req.fullPrompt()
	parts := make([]part, 0, 2)
	if ref := req.Reference; ref != nil {
		mime := ref.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts, part{InlineData: &inlineData{MIMEType: mime, Data: ref.Base64Data}})
	}
	parts = append(parts, part{Text: prompt})

	body := generateBody{
		Contents:         []content{{Parts: parts}},
		GenerationConfig: generationConfig{ResponseModalities: []string{"TEXT", "IMAGE"}},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.BaseURL, c.cfg.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("image generation request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("image generation failed (code %d): %s", decoded.Error.Code, decoded.Error.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("image generation returned %d: %s", resp.StatusCode, raw)
	}

	out := &Response{PromptUsed: prompt}
	if len(decoded.Candidates) > 0 {
		for _, p := range decoded.Candidates[0].Content.Parts {
			if p.InlineData != nil {
				mime := p.InlineData.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				out.Images = append(out.Images, Generated{Base64Data: p.InlineData.Data, MIMEType: mime})
				continue
			}
			if p.Text != "" {
				out.Text = p.Text
			}
		}
	}
	return out, nil
}

// Edit rewrites an existing image according to the prompt.
func (c *Client) Edit(ctx context.Context, prompt string, ref Reference) (*Response, error) {
	return c.Generate(ctx, Request{Prompt: prompt, Reference: &ref})
}

var mimeByExtension = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// ReferenceFromPath loads an image file for an edit call, sniffing the
// MIME type from the extension.
func ReferenceFromPath(path string) (Reference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Reference{}, fmt.Errorf("read reference image: %w", err)
	}
	mime, ok := mimeByExtension[filepath.Ext(path)]
	if !ok {
		mime = "image/png"
	}
	return ReferenceFromBytes(data, mime), nil
}

// ReferenceFromBytes wraps raw image bytes for an edit call.
func ReferenceFromBytes(data []byte, mimeType string) Reference {
	return Reference{
		Base64Data: base64.StdEncoding.EncodeToString(data),
		MIMEType:   mimeType,
	}
}

// ReferenceFromURL fetches a remote image for an edit call, taking the
// MIME type from the response header.
func ReferenceFromURL(ctx context.Context, client *http.Client, url string) (Reference, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Reference{}, fmt.Errorf("build reference request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return Reference{}, fmt.Errorf("fetch reference image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Reference{}, fmt.Errorf("fetch reference image: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reference{}, fmt.Errorf("read reference image: %w", err)
	}
	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = "image/png"
	}
	return ReferenceFromBytes(data, mime), nil
}
