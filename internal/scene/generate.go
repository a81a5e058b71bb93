package scene

import (
	"math"

	"github.com/talgya/codeart/internal/entropy"
)

// Shape roll thresholds and multipliers. Changing any of them changes the
// art produced for every existing seed.
const (
	barThreshold  = 0.3 // typeRoll below this → bar
	cubeThreshold = 0.5 // typeRoll below this → cube, else block

	barFootprint  = 0.3 // bar width/depth as a fraction of the block size
	barMinStretch = 1.5

	cubeMinEdge   = 0.3
	cubeEdgeRange = 0.4

	blockMinScale   = 0.5
	blockScaleRange = 0.5

	noiseScale = 0.15 // perlin/simplex/fractal sample spacing per cell
	sineScale  = 0.4

	groundDotHeight = 0.05
	groundDotSize   = 0.08
	lineHeight      = 0.02

	scatterMinSize   = 0.05
	scatterSizeRange = 0.05
	scatterShare     = 0.5

	lineColorMix    = 0.3
	scatterColorMix = 0.5
)

// Generator produces a scene from params. The default algorithm is Generate;
// alternative algorithms plug in through the same contract.
type Generator interface {
	Generate(p ArtParams) SceneElements
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(p ArtParams) SceneElements

// Generate calls f(p).
func (f GeneratorFunc) Generate(p ArtParams) SceneElements {
	return f(p)
}

// DefaultGenerator is the built-in algorithm.
var DefaultGenerator Generator = GeneratorFunc(Generate)

// layout maps cell indices to world coordinates, centred on the origin.
type layout struct {
	rows, cols int
	cellSize   float64
	totalWidth float64
	totalDepth float64
}

func newLayout(p ArtParams) layout {
	cellSize := p.Blocks.Width + p.Grid.Spacing
	return layout{
		rows:       p.Grid.Rows,
		cols:       p.Grid.Cols,
		cellSize:   cellSize,
		totalWidth: float64(p.Grid.Cols) * cellSize,
		totalDepth: float64(p.Grid.Rows) * cellSize,
	}
}

func (l layout) x(col int) float64 {
	return float64(col)*l.cellSize - l.totalWidth/2
}

func (l layout) z(row int) float64 {
	return float64(row)*l.cellSize - l.totalDepth/2
}

// occupancy records, per cell, whether pass 1 placed a block and its final height.
type occupancy struct {
	filled  [][]bool
	heights [][]float64
}

func newOccupancy(rows, cols int) *occupancy {
	rows, cols = max(rows, 0), max(cols, 0)
	o := &occupancy{
		filled:  make([][]bool, rows),
		heights: make([][]float64, rows),
	}
	for row := 0; row < rows; row++ {
		o.filled[row] = make([]bool, cols)
		o.heights[row] = make([]float64, cols)
	}
	return o
}

// Generate builds the scene for p. The same p always yields the same scene:
// every random draw comes from one Random seeded with p.Seed, consumed in a
// fixed order (pass 1 row-major, then pass 2 row-major, then the scatter).
func Generate(p ArtParams) SceneElements {
	rng := entropy.NewRandom(p.Seed)
	heights := newHeightShaper(p)
	l := newLayout(p)
	occ := newOccupancy(l.rows, l.cols)
	probs := p.SceneOrDefault()

	out := SceneElements{
		Blocks:    make([]Block, 0),
		GridLines: make([]GridLine, 0),
		Dots:      make([]GridDot, 0),
	}

	placeBlocks(&out, p, probs, l, occ, rng, heights)
	connectCells(&out, p, probs, l, occ, rng)
	scatterDots(&out, p, probs, l, rng)

	return out
}

// GenerateBlocks returns only the blocks of Generate(p), for callers that
// predate grid lines and dots.
func GenerateBlocks(p ArtParams) []Block {
	return Generate(p).Blocks
}

// placeBlocks is pass 1: one sparsity draw per cell, then the height factor,
// the shape roll and the shape's own draws for every cell that passes.
func placeBlocks(out *SceneElements, p ArtParams, probs SceneParams, l layout, occ *occupancy, rng entropy.Source, heights *heightShaper) {
	heightRange := p.Blocks.MaxHeight - p.Blocks.MinHeight

	for row := 0; row < l.rows; row++ {
		for col := 0; col < l.cols; col++ {
			sparsity := rng.Float()
			if sparsity > probs.Density {
				continue
			}

			factor := heights.factor(row, col, rng)
			height := p.Blocks.MinHeight + factor*heightRange

			color := p.Colors.Primary
			if p.Colors.Gradient {
				color = InterpolateColor(p.Colors.Secondary, p.Colors.Primary, factor)
			}

			kind, w, d, h := shapeBlock(rng.Float(), rng, p.Blocks.Width, p.Blocks.Depth, height)

			occ.filled[row][col] = true
			occ.heights[row][col] = h

			out.Blocks = append(out.Blocks, Block{
				X:      l.x(col),
				Y:      h / 2,
				Z:      l.z(row),
				Height: h,
				Width:  w,
				Depth:  d,
				Color:  color,
				Type:   kind,
			})
		}
	}
}

// shapeBlock applies the geometry rule selected by typeRoll and returns the
// final width, depth and height.
func shapeBlock(typeRoll float64, rng entropy.Source, width, depth, height float64) (BlockType, float64, float64, float64) {
	switch {
	case typeRoll < barThreshold:
		return BlockTypeBar, width * barFootprint, depth * barFootprint, height * (barMinStretch + rng.Float())
	case typeRoll < cubeThreshold:
		edge := width * (cubeMinEdge + rng.Float()*cubeEdgeRange)
		return BlockTypeCube, edge, edge, edge
	default:
		w := width * (blockMinScale + rng.Float()*blockScaleRange)
		d := depth * (blockMinScale + rng.Float()*blockScaleRange)
		return BlockTypeBlock, w, d, height
	}
}

// connectCells is pass 2. Per cell, in order: the ground dot draw, the
// rightward connector, the forward connector, then the elevated bar. A
// connector only draws when one of its two cells is occupied; a bar only
// draws when its own cell is.
func connectCells(out *SceneElements, p ArtParams, probs SceneParams, l layout, occ *occupancy, rng entropy.Source) {
	lineColor := InterpolateColor(p.Colors.Secondary, p.Colors.Primary, lineColorMix)

	for row := 0; row < l.rows; row++ {
		for col := 0; col < l.cols; col++ {
			x := l.x(col)
			z := l.z(row)

			if rng.Float() < probs.Dots {
				out.Dots = append(out.Dots, GridDot{
					Position: Vec3{x, groundDotHeight, z},
					Color:    p.Colors.Primary,
					Size:     groundDotSize,
				})
			}

			if col < l.cols-1 {
				if (occ.filled[row][col] || occ.filled[row][col+1]) && rng.Float() < probs.GridLines {
					nextX := l.x(col + 1)
					out.GridLines = append(out.GridLines, GridLine{
						Start: Vec3{x + p.Blocks.Width/2, lineHeight, z},
						End:   Vec3{nextX - p.Blocks.Width/2, lineHeight, z},
						Color: lineColor,
					})
				}
			}

			if row < l.rows-1 {
				if (occ.filled[row][col] || occ.filled[row+1][col]) && rng.Float() < probs.GridLines {
					nextZ := l.z(row + 1)
					out.GridLines = append(out.GridLines, GridLine{
						Start: Vec3{x, lineHeight, z + p.Blocks.Depth/2},
						End:   Vec3{x, lineHeight, nextZ - p.Blocks.Depth/2},
						Color: lineColor,
					})
				}
			}

			if occ.filled[row][col] && rng.Float() < probs.ElevatedBars {
				length := l.cellSize * (1 + math.Floor(rng.Float()*2))
				y := occ.heights[row][col]

				// The direction draw is always taken, even when no right neighbour exists.
				if rng.Float() < 0.5 && col+1 < l.cols {
					out.GridLines = append(out.GridLines, GridLine{
						Start: Vec3{x, y, z},
						End:   Vec3{x + length, y, z},
						Color: lineColor,
					})
				} else if row+1 < l.rows {
					out.GridLines = append(out.GridLines, GridLine{
						Start: Vec3{x, y, z},
						End:   Vec3{x, y, z + length},
						Color: lineColor,
					})
				}
			}
		}
	}
}

// scatterDots is pass 3: floor(rows*cols*dots/2) dots anywhere in the grid extent.
func scatterDots(out *SceneElements, p ArtParams, probs SceneParams, l layout, rng entropy.Source) {
	count := int(math.Floor(float64(l.rows) * float64(l.cols) * probs.Dots * scatterShare))
	color := InterpolateColor(p.Colors.Secondary, p.Colors.Primary, scatterColorMix)
	cols := float64(l.cols)
	rows := float64(l.rows)

	for i := 0; i < count; i++ {
		x := (rng.Float()*cols - cols/2) * l.cellSize
		z := (rng.Float()*rows - rows/2) * l.cellSize

		out.Dots = append(out.Dots, GridDot{
			Position: Vec3{x, groundDotHeight, z},
			Color:    color,
			Size:     scatterMinSize + rng.Float()*scatterSizeRange,
		})
	}
}
