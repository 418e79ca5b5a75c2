package scene

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/df07/go-spiral-raytracer/pkg/geometry"
)

// ErrUnknownScene is returned when no preset matches the requested id
var ErrUnknownScene = errors.New("scene: unknown scene")

// SceneInfo describes a built-in scene preset
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // One line summary
	Group       string `json:"group"`       // Grouping category
}

// Constructor builds a preset, applying any non-zero camera fields of override
type Constructor func(override geometry.CameraConfig) (*Scene, error)

type preset struct {
	info        SceneInfo
	constructor Constructor
}

var presets = map[string]preset{}

// register adds a preset; called from init in the preset files
func register(id, group, description string, constructor Constructor) {
	presets[id] = preset{
		info: SceneInfo{
			ID:          id,
			DisplayName: titleCase(id),
			Description: description,
			Group:       group,
		},
		constructor: constructor,
	}
}

// ListScenes returns every preset sorted by display name
func ListScenes() []SceneInfo {
	scenes := make([]SceneInfo, 0, len(presets))
	for _, p := range presets {
		scenes = append(scenes, p.info)
	}
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})
	return scenes
}

// NewByName constructs the preset with the given id. The scene is not built.
func NewByName(id string, override geometry.CameraConfig) (*Scene, error) {
	p, ok := presets[strings.ToLower(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, id)
	}
	s, err := p.constructor(override)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", id, err)
	}
	s.Name = p.info.ID
	return s, nil
}

// titleCase converts "sphere-grid" or "sphere_grid" to "Sphere Grid"
func titleCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, word := range words {
		runes := []rune(strings.ToLower(word))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// newPresetScene applies the camera override and derives the image height
func newPresetScene(camera geometry.CameraConfig, override geometry.CameraConfig, sampling SamplingConfig, background Background) *Scene {
	config := geometry.MergeCameraConfig(camera, override)
	sampling.Width = config.Width
	sampling.Height = int(float64(config.Width) / config.AspectRatio)
	if sampling.Height < 1 {
		sampling.Height = 1
	}
	return &Scene{
		Camera:         geometry.NewCamera(config),
		CameraConfig:   config,
		SamplingConfig: sampling,
		Background:     background,
	}
}
