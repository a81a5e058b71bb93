package entropy

import "testing"

func TestRandomSeed42Sequence(t *testing.T) {
	want := []float64{
		0.6011037519201636,
		0.44829055899754167,
		0.8524657934904099,
		0.6697340414393693,
		0.17481389874592423,
	}

	r := NewRandom(42)
	for i, w := range want {
		if got := r.Float(); got != w {
			t.Fatalf("draw %d: got %v, want %v", i, got, w)
		}
	}
}

func TestRandomWrapsSeed(t *testing.T) {
	tests := []struct {
		seed int64
		want []float64
	}{
		{0, []float64{0.26642920868471265, 0.0003297457005828619, 0.2232720274478197}},
		{-1, []float64{0.8964226141106337, 0.189478256739676, 0.7156526781618595}},
		// 2^32 - 1 and -1 share the same low 32 bits.
		{1<<32 - 1, []float64{0.8964226141106337, 0.189478256739676, 0.7156526781618595}},
	}

	for _, tt := range tests {
		r := NewRandom(tt.seed)
		for i, w := range tt.want {
			if got := r.Float(); got != w {
				t.Fatalf("seed %d draw %d: got %v, want %v", tt.seed, i, got, w)
			}
		}
	}
}

func TestRandomDeterministic(t *testing.T) {
	a := NewRandom(98765)
	b := NewRandom(98765)
	for i := 0; i < 1000; i++ {
		if a.Float() != b.Float() {
			t.Fatalf("sequences diverged at draw %d", i)
		}
	}
}

func TestRandomRange(t *testing.T) {
	r := NewRandom(7)
	for i := 0; i < 100000; i++ {
		v := r.Float()
		if v < 0 || v >= 1 {
			t.Fatalf("draw %d = %v, out of [0,1)", i, v)
		}
	}
}

func TestNewSeedRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		s := NewSeed()
		if s < 0 || s >= MaxSeed {
			t.Fatalf("NewSeed() = %d, out of [0,%d)", s, MaxSeed)
		}
	}
}
