package scene

import (
	"encoding/json"
	"errors"
	"fmt"
)

// HeightAlgorithm selects how a block's height factor is derived.
type HeightAlgorithm string

const (
	HeightRandom  HeightAlgorithm = "random"
	HeightPerlin  HeightAlgorithm = "perlin"
	HeightSine    HeightAlgorithm = "sine"
	HeightWave    HeightAlgorithm = "wave"
	HeightSimplex HeightAlgorithm = "simplex" // OpenSimplex, normalized
	HeightFractal HeightAlgorithm = "fractal" // Three-octave Perlin
)

// HeightAlgorithms lists every recognized algorithm. Unknown names generate as HeightRandom.
var HeightAlgorithms = []HeightAlgorithm{
	HeightRandom, HeightPerlin, HeightSine, HeightWave, HeightSimplex, HeightFractal,
}

// ShadingStyle is passed through to the renderer; generation ignores it.
type ShadingStyle string

const (
	ShadingStandard  ShadingStyle = "standard"
	ShadingIsometric ShadingStyle = "isometric"
)

// GridParams sizes the lattice. Angle is carried for compatibility and not used.
type GridParams struct {
	Rows    int     `json:"rows"`
	Cols    int     `json:"cols"`
	Spacing float64 `json:"spacing"`
	Angle   float64 `json:"angle"`
}

// BlockParams shapes each block. MaxHeight >= MinHeight is the caller's job.
type BlockParams struct {
	MinHeight       float64         `json:"minHeight"`
	MaxHeight       float64         `json:"maxHeight"`
	Width           float64         `json:"width"`
	Depth           float64         `json:"depth"`
	HeightAlgorithm HeightAlgorithm `json:"heightAlgorithm"`
}

// ColorParams holds #RRGGBB colors. Gradient blends Secondary→Primary by height.
type ColorParams struct {
	Background   string       `json:"background"`
	Primary      string       `json:"primary"`
	Secondary    string       `json:"secondary"`
	Gradient     bool         `json:"gradient"`
	ShadingStyle ShadingStyle `json:"shadingStyle"`
}

// SceneParams holds the per-cell probabilities, each in [0, 1]. Fields
// missing from JSON input take DefaultSceneParams values; a struct built in
// Go gets no such defaulting, so start from DefaultSceneParams instead.
type SceneParams struct {
	Density      float64 `json:"density"`      // Chance a cell receives a block
	GridLines    float64 `json:"gridLines"`    // Chance of each connecting line
	Dots         float64 `json:"dots"`         // Chance of a ground dot per cell
	ElevatedBars float64 `json:"elevatedBars"` // Chance of a bar atop an occupied cell
}

// DefaultSceneParams returns the probabilities used when none are given.
func DefaultSceneParams() SceneParams {
	return SceneParams{
		Density:      0.4,
		GridLines:    0.4,
		Dots:         0.15,
		ElevatedBars: 0.2,
	}
}

// UnmarshalJSON defaults every field missing from the input.
func (s *SceneParams) UnmarshalJSON(data []byte) error {
	type plain SceneParams
	v := plain(DefaultSceneParams())
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = SceneParams(v)
	return nil
}

// ArtParams is the complete input of one generation call.
type ArtParams struct {
	Seed   int64        `json:"seed"`
	Grid   GridParams   `json:"grid"`
	Blocks BlockParams  `json:"blocks"`
	Colors ColorParams  `json:"colors"`
	Scene  *SceneParams `json:"scene,omitempty"` // nil = DefaultSceneParams
}

// DefaultParams returns the starting configuration of a new session.
func DefaultParams(seed int64) ArtParams {
	sp := DefaultSceneParams()
	return ArtParams{
		Seed: seed,
		Grid: GridParams{
			Rows:    20,
			Cols:    20,
			Spacing: 0.1,
			Angle:   45,
		},
		Blocks: BlockParams{
			MinHeight:       0.1,
			MaxHeight:       2.0,
			Width:           0.8,
			Depth:           0.8,
			HeightAlgorithm: HeightRandom,
		},
		Colors: ColorParams{
			Background:   "#0a0a0a",
			Primary:      "#ffffff",
			Secondary:    "#888888",
			Gradient:     true,
			ShadingStyle: ShadingStandard,
		},
		Scene: &sp,
	}
}

// SceneOrDefault returns the scene probabilities, defaulted when absent.
func (p ArtParams) SceneOrDefault() SceneParams {
	if p.Scene == nil {
		return DefaultSceneParams()
	}
	return *p.Scene
}

// Clone returns a copy that shares no memory with p.
func (p ArtParams) Clone() ArtParams {
	if p.Scene != nil {
		sp := *p.Scene
		p.Scene = &sp
	}
	return p
}

// ErrGridTooLarge is returned by CheckLimits when rows×cols exceeds the bound.
var ErrGridTooLarge = errors.New("grid too large")

// CheckLimits reports whether p is small enough to generate. Generation
// itself never validates; outer layers call this first.
func CheckLimits(p ArtParams, maxCells int) error {
	// Two negative dimensions still size the scatter pass, so bound the magnitude.
	cells := int64(p.Grid.Rows) * int64(p.Grid.Cols)
	if cells < 0 {
		cells = -cells
	}
	if cells > int64(maxCells) {
		return fmt.Errorf("%w: %d×%d = %d cells, max %d", ErrGridTooLarge, p.Grid.Rows, p.Grid.Cols, cells, maxCells)
	}
	return nil
}
