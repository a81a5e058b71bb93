package studio

import "github.com/talgya/codeart/internal/scene"

// Patch is a partial update of scene.ArtParams. Nil fields are left unchanged.
type Patch struct {
	Seed   *int64      `json:"seed,omitempty"`
	Grid   *GridPatch  `json:"grid,omitempty"`
	Blocks *BlockPatch `json:"blocks,omitempty"`
	Colors *ColorPatch `json:"colors,omitempty"`
	Scene  *ScenePatch `json:"scene,omitempty"`
}

type GridPatch struct {
	Rows    *int     `json:"rows,omitempty"`
	Cols    *int     `json:"cols,omitempty"`
	Spacing *float64 `json:"spacing,omitempty"`
	Angle   *float64 `json:"angle,omitempty"`
}

type BlockPatch struct {
	MinHeight       *float64               `json:"minHeight,omitempty"`
	MaxHeight       *float64               `json:"maxHeight,omitempty"`
	Width           *float64               `json:"width,omitempty"`
	Depth           *float64               `json:"depth,omitempty"`
	HeightAlgorithm *scene.HeightAlgorithm `json:"heightAlgorithm,omitempty"`
}

type ColorPatch struct {
	Background   *string             `json:"background,omitempty"`
	Primary      *string             `json:"primary,omitempty"`
	Secondary    *string             `json:"secondary,omitempty"`
	Gradient     *bool               `json:"gradient,omitempty"`
	ShadingStyle *scene.ShadingStyle `json:"shadingStyle,omitempty"`
}

type ScenePatch struct {
	Density      *float64 `json:"density,omitempty"`
	GridLines    *float64 `json:"gridLines,omitempty"`
	Dots         *float64 `json:"dots,omitempty"`
	ElevatedBars *float64 `json:"elevatedBars,omitempty"`
}

// Apply merges the patch into dst.
func (p Patch) Apply(dst *scene.ArtParams) {
	if p.Seed != nil {
		dst.Seed = *p.Seed
	}
	if g := p.Grid; g != nil {
		set(&dst.Grid.Rows, g.Rows)
		set(&dst.Grid.Cols, g.Cols)
		set(&dst.Grid.Spacing, g.Spacing)
		set(&dst.Grid.Angle, g.Angle)
	}
	if b := p.Blocks; b != nil {
		set(&dst.Blocks.MinHeight, b.MinHeight)
		set(&dst.Blocks.MaxHeight, b.MaxHeight)
		set(&dst.Blocks.Width, b.Width)
		set(&dst.Blocks.Depth, b.Depth)
		set(&dst.Blocks.HeightAlgorithm, b.HeightAlgorithm)
	}
	if c := p.Colors; c != nil {
		set(&dst.Colors.Background, c.Background)
		set(&dst.Colors.Primary, c.Primary)
		set(&dst.Colors.Secondary, c.Secondary)
		set(&dst.Colors.Gradient, c.Gradient)
		set(&dst.Colors.ShadingStyle, c.ShadingStyle)
	}
	if sc := p.Scene; sc != nil {
		// Copy before writing so earlier snapshots keep their values.
		sp := dst.SceneOrDefault()
		set(&sp.Density, sc.Density)
		set(&sp.GridLines, sc.GridLines)
		set(&sp.Dots, sc.Dots)
		set(&sp.ElevatedBars, sc.ElevatedBars)
		dst.Scene = &sp
	}
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
