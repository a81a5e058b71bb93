package studio

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/codeart/internal/entropy"
	"github.com/talgya/codeart/internal/scene"
)

// Mode is the editor mode of a session.
type Mode string

const (
	ModeVisual Mode = "visual"
	ModeCode   Mode = "code"
)

// Store is the mutable session state. Every read returns a copy; every
// write replaces fields under the lock. Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	params scene.ArtParams
	mode   Mode
	code   string

	presets PresetStore
	gen     scene.Generator
	now     func() time.Time
}

// NewStore creates a session with default parameters and a fresh seed.
// A nil gen uses scene.DefaultGenerator; a nil presets keeps user presets in memory.
func NewStore(presets PresetStore, gen scene.Generator) *Store {
	if presets == nil {
		presets = NewMemoryPresets()
	}
	if gen == nil {
		gen = scene.DefaultGenerator
	}
	return &Store{
		params:  scene.DefaultParams(entropy.NewSeed()),
		mode:    ModeVisual,
		presets: presets,
		gen:     gen,
		now:     time.Now,
	}
}

// Params returns a snapshot of the current parameters.
func (s *Store) Params() scene.ArtParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.Clone()
}

// ReplaceParams swaps in a complete parameter set.
func (s *Store) ReplaceParams(p scene.ArtParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = p.Clone()
}

// SetParams merges a patch into the current parameters.
func (s *Store) SetParams(p Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Apply(&s.params)
}

// ApplyPatch merges p into the current parameters if check accepts the
// result, and returns the result. The check and the write happen under one
// lock, so concurrent patches cannot combine past it. A nil check accepts.
func (s *Store) ApplyPatch(p Patch, check func(scene.ArtParams) error) (scene.ArtParams, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidate := s.params.Clone()
	p.Apply(&candidate)
	if check != nil {
		if err := check(candidate); err != nil {
			return scene.ArtParams{}, err
		}
	}
	s.params = candidate
	return candidate.Clone(), nil
}

// SetGrid merges a grid patch.
func (s *Store) SetGrid(g GridPatch) {
	s.SetParams(Patch{Grid: &g})
}

// SetBlocks merges a block patch.
func (s *Store) SetBlocks(b BlockPatch) {
	s.SetParams(Patch{Blocks: &b})
}

// SetColors merges a color patch.
func (s *Store) SetColors(c ColorPatch) {
	s.SetParams(Patch{Colors: &c})
}

// SetScene merges a scene-probability patch.
func (s *Store) SetScene(sc ScenePatch) {
	s.SetParams(Patch{Scene: &sc})
}

// SetSeed sets the seed.
func (s *Store) SetSeed(seed int64) {
	s.SetParams(Patch{Seed: &seed})
}

// RandomizeSeed picks a new seed from entropy.NewSeed and returns it.
func (s *Store) RandomizeSeed() int64 {
	seed := entropy.NewSeed()
	s.SetSeed(seed)
	return seed
}

// Mode returns the editor mode.
func (s *Store) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches the editor mode.
func (s *Store) SetMode(m Mode) error {
	if m != ModeVisual && m != ModeCode {
		return fmt.Errorf("%w: %q", ErrInvalidMode, m)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
	return nil
}

// Code returns the editor code.
func (s *Store) Code() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

// SetCode replaces the editor code.
func (s *Store) SetCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.code = code
}

// Scene generates the scene for the current parameters.
func (s *Store) Scene() scene.SceneElements {
	return s.gen.Generate(s.Params())
}

// Generate runs the session's generator on p without touching session state.
func (s *Store) Generate(p scene.ArtParams) scene.SceneElements {
	return s.gen.Generate(p)
}

// Presets returns the built-in presets followed by user presets, oldest first.
func (s *Store) Presets() ([]Preset, error) {
	user, err := s.presets.ListPresets()
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	return append(BuiltInPresets(), user...), nil
}

// LoadPreset replaces the current parameters and code with the preset's.
func (s *Store) LoadPreset(id string) (Preset, error) {
	p, ok := findBuiltIn(id)
	if !ok {
		var err error
		p, err = s.presets.GetPreset(id)
		if err != nil {
			return Preset{}, fmt.Errorf("load preset %s: %w", id, err)
		}
	}

	s.mu.Lock()
	s.params = p.Params.Clone()
	s.code = p.Code
	s.mu.Unlock()

	slog.Info("preset loaded", "id", p.ID, "name", p.Name, "seed", p.Params.Seed)
	return p, nil
}

// SavePreset stores the current parameters and code under name.
func (s *Store) SavePreset(name string) (Preset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Preset{}, ErrEmptyName
	}

	s.mu.Lock()
	p := Preset{
		ID:        uuid.NewString(),
		Name:      name,
		Params:    s.params.Clone(),
		Code:      s.code,
		CreatedAt: s.now().UnixMilli(),
	}
	s.mu.Unlock()

	if err := s.presets.SavePreset(p); err != nil {
		return Preset{}, fmt.Errorf("save preset %q: %w", name, err)
	}
	slog.Info("preset saved", "id", p.ID, "name", p.Name)
	return p, nil
}

// DeletePreset removes a user preset. Built-in presets cannot be deleted.
func (s *Store) DeletePreset(id string) error {
	if _, ok := findBuiltIn(id); ok {
		return fmt.Errorf("delete preset %s: %w", id, ErrBuiltInPreset)
	}
	if err := s.presets.DeletePreset(id); err != nil {
		return fmt.Errorf("delete preset %s: %w", id, err)
	}
	slog.Info("preset deleted", "id", id)
	return nil
}
