// Package entropy provides the randomness used by scene generation.
// Random is the seeded, reproducible stream every generator draws from.
// NewSeed is the only non-deterministic source and is never used inside generation.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"log/slog"
)

// MaxSeed bounds seeds produced by NewSeed.
const MaxSeed = 100000

// Source yields uniform floats in [0, 1).
type Source interface {
	Float() float64
}

// Random is a mulberry32 generator. Identical seeds produce identical sequences.
type Random struct {
	state uint32
}

// NewRandom creates a generator seeded with the low 32 bits of seed.
func NewRandom(seed int64) *Random {
	return &Random{state: uint32(seed)}
}

// Float advances the state and returns the next value in [0, 1).
func (r *Random) Float() float64 {
	r.state += 0x6D2B79F5
	s := r.state
	t := (s ^ (s >> 15)) * (s | 1)
	t = (t + (t^(t>>7))*(t|61)) ^ t
	return float64(t^(t>>14)) / 4294967296
}

// NewSeed returns a fresh seed in [0, MaxSeed) from crypto/rand.
func NewSeed() int64 {
	return int64(cryptoRandFloat() * MaxSeed)
}

// cryptoRandFloat generates a random float64 using crypto/rand.
func cryptoRandFloat() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		slog.Error("crypto/rand read failed", "error", err)
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}
