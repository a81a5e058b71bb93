// Package studio holds the editing session around the scene generator:
// the current parameters, the editor mode and code, and the preset library.
package studio

import (
	"errors"
	"sort"
	"sync"

	"github.com/talgya/codeart/internal/scene"
)

var (
	ErrPresetNotFound = errors.New("preset not found")
	ErrBuiltInPreset  = errors.New("built-in presets are read-only")
	ErrEmptyName      = errors.New("preset name is empty")
	ErrInvalidMode    = errors.New("invalid editor mode")
)

// Preset is a named snapshot of parameters and editor code.
type Preset struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Thumbnail string          `json:"thumbnail,omitempty"`
	Params    scene.ArtParams `json:"params"`
	Code      string          `json:"code,omitempty"`
	CreatedAt int64           `json:"createdAt"` // Unix milliseconds
	IsBuiltIn bool            `json:"isBuiltIn"`
}

// PresetStore persists user presets. Built-in presets never reach it.
type PresetStore interface {
	SavePreset(p Preset) error
	GetPreset(id string) (Preset, error)
	ListPresets() ([]Preset, error)
	DeletePreset(id string) error
}

// BuiltInPresets returns the presets shipped with the studio.
func BuiltInPresets() []Preset {
	monolith := scene.DefaultParams(1337)

	hills := scene.DefaultParams(2024)
	hills.Blocks.HeightAlgorithm = scene.HeightPerlin
	hills.Grid.Rows, hills.Grid.Cols = 30, 30
	hills.Scene.Density = 0.7
	hills.Colors.Primary = "#a3e635"
	hills.Colors.Secondary = "#14532d"

	sine := scene.DefaultParams(7)
	sine.Blocks.HeightAlgorithm = scene.HeightSine
	sine.Scene.Density = 0.85
	sine.Scene.ElevatedBars = 0
	sine.Colors.Primary = "#38bdf8"
	sine.Colors.Secondary = "#1e3a8a"

	ripple := scene.DefaultParams(99)
	ripple.Blocks.HeightAlgorithm = scene.HeightWave
	ripple.Grid.Rows, ripple.Grid.Cols = 25, 25
	ripple.Grid.Spacing = 0.2
	ripple.Scene.Density = 1
	ripple.Scene.GridLines = 0
	ripple.Colors.Primary = "#f472b6"
	ripple.Colors.Secondary = "#4c1d95"

	blueprint := scene.DefaultParams(4096)
	blueprint.Colors.Background = "#0b1e3f"
	blueprint.Colors.ShadingStyle = scene.ShadingIsometric
	blueprint.Colors.Gradient = false
	blueprint.Scene.GridLines = 0.8

	constellation := scene.DefaultParams(31415)
	constellation.Scene.Density = 0.1
	constellation.Scene.Dots = 0.6
	constellation.Scene.GridLines = 0.7
	constellation.Colors.Primary = "#fde68a"
	constellation.Colors.Secondary = "#1f2937"

	return []Preset{
		{ID: "builtin-monolith", Name: "Monolith City", Params: monolith, IsBuiltIn: true},
		{ID: "builtin-hills", Name: "Rolling Hills", Params: hills, IsBuiltIn: true},
		{ID: "builtin-sine", Name: "Sine Field", Params: sine, IsBuiltIn: true},
		{ID: "builtin-ripple", Name: "Ripple", Params: ripple, IsBuiltIn: true},
		{ID: "builtin-blueprint", Name: "Blueprint", Params: blueprint, IsBuiltIn: true},
		{ID: "builtin-constellation", Name: "Constellation", Params: constellation, IsBuiltIn: true},
	}
}

func findBuiltIn(id string) (Preset, bool) {
	for _, p := range BuiltInPresets() {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// MemoryPresets is an in-process PresetStore, used when no database is configured.
type MemoryPresets struct {
	mu      sync.Mutex
	presets map[string]Preset
}

// NewMemoryPresets creates an empty in-memory store.
func NewMemoryPresets() *MemoryPresets {
	return &MemoryPresets{presets: make(map[string]Preset)}
}

func (m *MemoryPresets) SavePreset(p Preset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.Params = p.Params.Clone()
	m.presets[p.ID] = p
	return nil
}

func (m *MemoryPresets) GetPreset(id string) (Preset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.presets[id]
	if !ok {
		return Preset{}, ErrPresetNotFound
	}
	p.Params = p.Params.Clone()
	return p, nil
}

// ListPresets returns presets oldest first.
func (m *MemoryPresets) ListPresets() ([]Preset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]Preset, 0, len(m.presets))
	for _, p := range m.presets {
		p.Params = p.Params.Clone()
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *MemoryPresets) DeletePreset(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.presets[id]; !ok {
		return ErrPresetNotFound
	}
	delete(m.presets, id)
	return nil
}
