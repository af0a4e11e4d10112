// Package image is the Nano Banana (Gemini) image generation client. The
// endpoint answers synchronously with inline image data, so unlike video
// generation there is no job to poll.
package image

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// AspectRatio hints the desired image shape. Gemini has no structured
// field for this, so non-square ratios are appended to the prompt.
type AspectRatio string

const (
	AspectSquare      AspectRatio = "1:1"
	AspectLandscape   AspectRatio = "16:9"
	AspectPortrait    AspectRatio = "9:16"
	AspectLandscape43 AspectRatio = "4:3"
	AspectPortrait34  AspectRatio = "3:4"
)

var aspectHints = map[AspectRatio]string{
	AspectLandscape:   "wide landscape format",
	AspectPortrait:    "tall portrait format",
	AspectLandscape43: "landscape format",
	AspectPortrait34:  "portrait format",
}

// Request describes one image generation call.
type Request struct {
	Prompt         string
	NegativePrompt string
	AspectRatio    AspectRatio
	// Reference, when set, turns the call into an edit of an existing image.
	Reference *Reference
}

// Reference is an input image for edit calls, already base64 encoded.
type Reference struct {
	Base64Data string
	MIMEType   string
}

// Generated is a single produced image.
type Generated struct {
	Base64Data string
	MIMEType   string
}

// Bytes decodes the image payload.
func (g Generated) Bytes() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(g.Base64Data)
	if err != nil {
		return nil, fmt.Errorf("decode image data: %w", err)
	}
	return data, nil
}

// Save writes the decoded image to dest through the given sink.
func (g Generated) Save(ctx context.Context, s Sink, dest string) error {
	data, err := g.Bytes()
	if err != nil {
		return err
	}
	return s.Write(ctx, strings.NewReader(string(data)), dest)
}

// Response carries the generated images plus any text the model returned
// alongside them.
type Response struct {
	Images     []Generated
	Text       string
	PromptUsed string
}

// Succeeded reports whether at least one image came back.
func (r Response) Succeeded() bool { return len(r.Images) > 0 }

// fullPrompt folds the negative prompt and aspect hint into the prompt
// text, which is the only channel the endpoint offers for them.
func (r Request) fullPrompt() string {
	prompt := r.Prompt
	if r.NegativePrompt != "" {
		prompt += ". Avoid: " + r.NegativePrompt
	}
	if hint, ok := aspectHints[r.AspectRatio]; ok {
		prompt += ". Generate in " + hint + "."
	}
	return prompt
}
