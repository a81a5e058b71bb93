// Package scene turns ArtParams into the blocks, grid lines and dots of an
// isometric scene. Generation is a pure function of its input: every call
// seeds its own Random and Perlin field from ArtParams.Seed.
package scene

import "fmt"

// Vec3 is an [x, y, z] position. Y is up; blocks stand on y = 0.
type Vec3 [3]float64

// BlockType tags the geometry rule a block was derived with.
type BlockType string

const (
	BlockTypeBlock BlockType = "block" // Full cell footprint, shrunk 50–100% per axis
	BlockTypeBar   BlockType = "bar"   // Thin column, 1.5–2.5× the cell height
	BlockTypeCube  BlockType = "cube"  // Equal edges, 30–70% of the block width
)

// Block is a cuboid centred at (X, Y, Z) with Y = Height/2.
type Block struct {
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Z      float64   `json:"z"`
	Height float64   `json:"height"`
	Width  float64   `json:"width"`
	Depth  float64   `json:"depth"`
	Color  string    `json:"color"`
	Type   BlockType `json:"type"`
}

// GridLine is an undirected segment between two points.
type GridLine struct {
	Start Vec3   `json:"start"`
	End   Vec3   `json:"end"`
	Color string `json:"color"`
}

// GridDot is a small sphere marker.
type GridDot struct {
	Position Vec3    `json:"position"`
	Color    string  `json:"color"`
	Size     float64 `json:"size"`
}

// SceneElements is the full output of one generation call.
type SceneElements struct {
	Blocks    []Block    `json:"blocks"`
	GridLines []GridLine `json:"gridLines"`
	Dots      []GridDot  `json:"dots"`
}

// BlockTypeCounts returns how many blocks of each type the scene holds.
func (s SceneElements) BlockTypeCounts() map[BlockType]int {
	counts := make(map[BlockType]int)
	for _, b := range s.Blocks {
		counts[b.Type]++
	}
	return counts
}

// String returns a summary of the scene.
func (s SceneElements) String() string {
	return fmt.Sprintf("Scene(blocks=%d, lines=%d, dots=%d)", len(s.Blocks), len(s.GridLines), len(s.Dots))
}
