package avatar

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrInvalidModel signals a model document that cannot drive a scene.
	ErrInvalidModel = errors.New("invalid avatar model")

	// ErrInvalidClip signals an unusable animation clip document.
	ErrInvalidClip = errors.New("invalid animation clip")
)

// Mesh is one renderable mesh of a model, with the morph channel names it
// exposes. Channels are whatever the asset actually ships; the probe in
// morph.go decides which ones the engine can drive.
type Mesh struct {
	ID            string   `json:"id"`
	MorphChannels []string `json:"morphChannels"`
}

// Model is the decoded avatar document handed to the renderer. Geometry and
// materials stay opaque to this system; only the skeleton-level facts the
// animation layer needs are decoded.
type Model struct {
	Name   string `json:"name"`
	Meshes []Mesh `json:"meshes"`
}

// Clip is a decoded animation clip: a named, fixed-duration track set that
// the controller plays looped.
type Clip struct {
	Name            string  `json:"name"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// DecodeModel parses a model document fetched by the asset resolver.
func DecodeModel(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidModel)
	}
	if len(m.Meshes) == 0 {
		return nil, fmt.Errorf("%w: no meshes", ErrInvalidModel)
	}
	for i, mesh := range m.Meshes {
		if mesh.ID == "" {
			return nil, fmt.Errorf("%w: mesh %d missing id", ErrInvalidModel, i)
		}
	}
	return &m, nil
}

// DecodeClip parses an animation clip document.
func DecodeClip(data []byte) (*Clip, error) {
	var c Clip
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidClip, err)
	}
	if c.Name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidClip)
	}
	if c.DurationSeconds <= 0 {
		return nil, fmt.Errorf("%w: non-positive duration", ErrInvalidClip)
	}
	return &c, nil
}
