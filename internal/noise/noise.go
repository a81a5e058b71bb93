// Package noise provides coherent 2-D noise fields for height shaping.
// Perlin is the reference field; Simplex and Fractal wrap third-party generators.
package noise

import (
	"math"

	perlin "github.com/aquilax/go-perlin"
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/codeart/internal/entropy"
)

// Field is a smooth scalar field over continuous 2-D coordinates.
type Field interface {
	Eval2(x, y float64) float64
}

// Perlin produces deterministic 2-D gradient noise from a seed.
// Output is approximately in [-1, 1].
type Perlin struct {
	perm [512]int
}

// NewPerlin creates a field whose permutation table is shuffled by
// entropy.NewRandom(seed).
func NewPerlin(seed int64) *Perlin {
	p := &Perlin{}
	rng := entropy.NewRandom(seed)

	for i := 0; i < 256; i++ {
		p.perm[i] = i
	}

	// Fisher-Yates, high index down.
	for i := 255; i > 0; i-- {
		j := int(math.Floor(rng.Float() * float64(i+1)))
		p.perm[i], p.perm[j] = p.perm[j], p.perm[i]
	}

	// Double the table so perm[A+1] never needs wrapping.
	for i := 0; i < 256; i++ {
		p.perm[256+i] = p.perm[i]
	}
	return p
}

// Eval2 returns the noise value at (x, y).
func (p *Perlin) Eval2(x, y float64) float64 {
	fx := math.Floor(x)
	fy := math.Floor(y)
	X := int(fx) & 255
	Y := int(fy) & 255

	x -= fx
	y -= fy

	u := fade(x)
	v := fade(y)

	a := p.perm[X] + Y
	b := p.perm[X+1] + Y

	return lerp(
		lerp(grad(p.perm[a], x, y), grad(p.perm[b], x-1, y), u),
		lerp(grad(p.perm[a+1], x, y-1), grad(p.perm[b+1], x-1, y-1), u),
		v,
	)
}

// fade is the quintic 6t^5 - 15t^4 + 10t^3.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// grad picks one of four diagonal gradients from the low two bits of hash.
func grad(hash int, x, y float64) float64 {
	h := hash & 3
	u, v := x, y
	if h >= 2 {
		u, v = y, x
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		v = -v
	}
	return u + v
}

// Simplex is an OpenSimplex field normalized to [0, 1].
type Simplex struct {
	noise opensimplex.Noise
}

// NewSimplex creates a normalized OpenSimplex field.
func NewSimplex(seed int64) *Simplex {
	return &Simplex{noise: opensimplex.NewNormalized(seed)}
}

// Eval2 returns the field value at (x, y) in [0, 1].
func (s *Simplex) Eval2(x, y float64) float64 {
	return clamp01(s.noise.Eval2(x, y))
}

// Fractal is multi-octave Perlin noise remapped to [0, 1].
type Fractal struct {
	noise *perlin.Perlin
}

// Fractal octave settings: alpha is the amplitude falloff, beta the
// frequency multiplier, octaves the layer count.
const (
	fractalAlpha   = 2.0
	fractalBeta    = 2.0
	fractalOctaves = 3
)

// NewFractal creates a three-octave fractal field.
func NewFractal(seed int64) *Fractal {
	return &Fractal{noise: perlin.NewPerlin(fractalAlpha, fractalBeta, fractalOctaves, seed)}
}

// Eval2 returns the field value at (x, y) clamped to [0, 1].
func (f *Fractal) Eval2(x, y float64) float64 {
	return clamp01((f.noise.Noise2D(x, y) + 1) / 2)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
