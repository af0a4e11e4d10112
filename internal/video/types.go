// Package video is the Kling video generation client. It talks to the
// PiAPI task endpoints by default and can be pointed at the direct Kling
// API, and implements remote.Service so the generic poller can drive it.
package video

import (
	"fmt"

	"github.com/aroyer/genmedia/internal/remote"
)

const maxPromptLength = 2500

// Mode selects the generation quality tier.
type Mode string

const (
	ModeStandard Mode = "std"
	ModePro      Mode = "pro"
)

func (m Mode) Valid() bool {
	return m == ModeStandard || m == ModePro
}

// AspectRatio is the output frame shape.
type AspectRatio string

const (
	AspectLandscape AspectRatio = "16:9"
	AspectPortrait  AspectRatio = "9:16"
	AspectSquare    AspectRatio = "1:1"
)

func (a AspectRatio) Valid() bool {
	switch a {
	case AspectLandscape, AspectPortrait, AspectSquare:
		return true
	}
	return false
}

// Version is the Kling model generation.
type Version string

const (
	Version15       Version = "1.5"
	Version16       Version = "1.6"
	Version21       Version = "2.1"
	Version21Master Version = "2.1-master"
	Version25       Version = "2.5"
	Version26       Version = "2.6"
)

func (v Version) Valid() bool {
	switch v {
	case Version15, Version16, Version21, Version21Master, Version25, Version26:
		return true
	}
	return false
}

// allowedDurations is the vendor-enumerated set of clip lengths in seconds.
var allowedDurations = map[int]bool{5: true, 10: true}

// cameraMoveTypes enumerates the camera movement presets Kling accepts.
var cameraMoveTypes = map[string]bool{
	"simple":             true,
	"down_back":          true,
	"forward_up":         true,
	"right_turn_forward": true,
	"left_turn_forward":  true,
}

// validateRequest checks a request against the vendor's enumerated sets.
// It runs before any network interaction so a bad request never costs a
// billed submission. Zero-valued options fall back to defaults during body
// construction and are not errors here.
func validateRequest(req remote.Request) error {
	if req.Prompt == "" {
		return &remote.InvalidRequestError{Field: "prompt", Reason: "must not be empty"}
	}
	if len(req.Prompt) > maxPromptLength {
		return &remote.InvalidRequestError{Field: "prompt", Reason: fmt.Sprintf("longer than %d characters", maxPromptLength)}
	}
	if len(req.NegativePrompt) > maxPromptLength {
		return &remote.InvalidRequestError{Field: "negative_prompt", Reason: fmt.Sprintf("longer than %d characters", maxPromptLength)}
	}
	if d := req.Options.DurationSeconds; d != 0 && !allowedDurations[d] {
		return &remote.InvalidRequestError{Field: "duration", Reason: fmt.Sprintf("%d is not one of the allowed durations (5, 10)", d)}
	}
	if m := req.Options.Mode; m != "" && !Mode(m).Valid() {
		return &remote.InvalidRequestError{Field: "mode", Reason: fmt.Sprintf("%q is not one of std, pro", m)}
	}
	if s := req.Options.CfgScale; s != nil && (*s < 0 || *s > 1) {
		return &remote.InvalidRequestError{Field: "cfg_scale", Reason: fmt.Sprintf("%v outside the allowed range [0, 1]", *s)}
	}
	if a := req.Options.AspectRatio; a != "" && !AspectRatio(a).Valid() {
		return &remote.InvalidRequestError{Field: "aspect_ratio", Reason: fmt.Sprintf("%q is not one of 16:9, 9:16, 1:1", a)}
	}
	if cam := req.Options.Camera; cam != nil {
		if err := validateCamera(cam); err != nil {
			return err
		}
	}
	return nil
}

func validateCamera(cam *remote.CameraControl) error {
	if cam.Type != "" && !cameraMoveTypes[cam.Type] {
		return &remote.InvalidRequestError{Field: "camera_control.type", Reason: fmt.Sprintf("unknown movement %q", cam.Type)}
	}
	axes := map[string]*float64{
		"horizontal": cam.Horizontal,
		"vertical":   cam.Vertical,
		"pan":        cam.Pan,
		"tilt":       cam.Tilt,
		"roll":       cam.Roll,
		"zoom":       cam.Zoom,
	}
	for name, v := range axes {
		if v != nil && (*v < -10 || *v > 10) {
			return &remote.InvalidRequestError{
				Field:  "camera_control." + name,
				Reason: fmt.Sprintf("%v outside the allowed range [-10, 10]", *v),
			}
		}
	}
	return nil
}
