package scene

import (
	"math"

	"github.com/talgya/codeart/internal/entropy"
	"github.com/talgya/codeart/internal/noise"
)

// heightShaper derives a block's height factor in [0, 1] for the selected
// algorithm. Only the random algorithm draws from the scene's Random; the
// noise fields are built from the seed and never advance it.
type heightShaper struct {
	algorithm HeightAlgorithm
	rows      int
	cols      int
	field     noise.Field
}

func newHeightShaper(p ArtParams) *heightShaper {
	h := &heightShaper{
		algorithm: p.Blocks.HeightAlgorithm,
		rows:      p.Grid.Rows,
		cols:      p.Grid.Cols,
	}

	switch h.algorithm {
	case HeightPerlin:
		h.field = noise.NewPerlin(p.Seed)
	case HeightSimplex:
		h.field = noise.NewSimplex(p.Seed)
	case HeightFractal:
		h.field = noise.NewFractal(p.Seed)
	}
	return h
}

func (h *heightShaper) factor(row, col int, rng entropy.Source) float64 {
	switch h.algorithm {
	case HeightPerlin:
		return (h.field.Eval2(float64(col)*noiseScale, float64(row)*noiseScale) + 1) / 2
	case HeightSimplex, HeightFractal:
		return h.field.Eval2(float64(col)*noiseScale, float64(row)*noiseScale)
	case HeightSine:
		return (math.Sin(float64(col)*sineScale) + math.Sin(float64(row)*sineScale) + 2) / 4
	case HeightWave:
		dc := float64(col) - float64(h.cols)/2
		dr := float64(row) - float64(h.rows)/2
		dist := math.Sqrt(dc*dc + dr*dr)
		return (math.Sin(dist*sineScale) + 1) / 2
	default:
		return rng.Float()
	}
}
