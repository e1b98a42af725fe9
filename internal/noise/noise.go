// Package noise implements the deterministic seeded 2D value-noise
// sampler shared by terrain synthesis and surface queries. A Source is a
// pure function of (seed, x, z): it carries no mutable state once
// constructed, so the same seed produces byte-identical samples whether
// constructed on the main goroutine or inside a worker.
package noise

import "math"

// Source is a fractal value-noise sampler for one seed.
type Source struct {
	seed        int64
	octaves     int
	frequency   float64
	persistence float64
	lacunarity  float64
}

// Params configures the fractal octave stack. Zero-value Params is not
// valid; use DefaultParams.
type Params struct {
	Octaves     int
	Frequency   float64
	Persistence float64
	Lacunarity  float64
}

// DefaultParams match the terrain formula's expectations: a single
// dominant octave is enough to reproduce §4.B's h formula, but callers
// needing richer surface detail can layer more.
func DefaultParams() Params {
	return Params{
		Octaves:     4,
		Frequency:   1.0,
		Persistence: 0.5,
		Lacunarity:  2.0,
	}
}

// New constructs a Source for seed using p. Constructing a fresh Source
// per worker from the same (seed, p) is required, not just permitted:
// the sampler holds no shared state to transfer.
func New(seed int64, p Params) *Source {
	return &Source{
		seed:        seed,
		octaves:     p.Octaves,
		frequency:   p.Frequency,
		persistence: p.Persistence,
		lacunarity:  p.Lacunarity,
	}
}

// Sample returns fractal value-noise at (x, z) in [-1, 1].
func (s *Source) Sample(x, z float64) float64 {
	frequency := s.frequency
	amplitude := 1.0
	sum := 0.0
	maxAmplitude := 0.0

	for i := 0; i < s.octaves; i++ {
		sum += s.valueNoise(x*frequency, z*frequency) * amplitude
		maxAmplitude += amplitude
		amplitude *= s.persistence
		frequency *= s.lacunarity
	}

	if maxAmplitude == 0 {
		return 0
	}
	return sum / maxAmplitude
}

func (s *Source) valueNoise(x, z float64) float64 {
	x0 := int(math.Floor(x))
	z0 := int(math.Floor(z))
	x1 := x0 + 1
	z1 := z0 + 1

	sx := smooth(x - float64(x0))
	sz := smooth(z - float64(z0))

	n0 := random2D(x0, z0, s.seed)
	n1 := random2D(x1, z0, s.seed)
	ix0 := lerp(n0, n1, sx)

	n2 := random2D(x0, z1, s.seed)
	n3 := random2D(x1, z1, s.seed)
	ix1 := lerp(n2, n3, sx)

	return lerp(ix0, ix1, sz)
}

func smooth(t float64) float64 {
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func random2D(x, z int, seed int64) float64 {
	return float64(hash3(x, z, int(seed))&0xFFFF)/0x8000 - 1.0
}

// hash3 well-mixes three integers into a 32-bit value via stepwise
// xor-shift-multiply.
func hash3(x, z, w int) uint32 {
	h := uint32(x*374761393 + z*668265263 + w*2147483647)
	h = (h ^ (h >> 13)) * 1274126177
	return h ^ (h >> 16)
}
