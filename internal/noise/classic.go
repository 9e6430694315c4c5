package noise

import (
	"github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl64"
)

// Single octave: octave summation belongs to the terrain layer.
const (
	classicAlpha = 2.0
	classicBeta  = 2.0
	classicSeed  = 1337
)

var sharedClassic = NewClassicPerlin(classicSeed)

// ClassicPerlin is the random-gradient Perlin noise of go-perlin.
type ClassicPerlin struct {
	p *perlin.Perlin
}

func NewClassicPerlin(seed int64) *ClassicPerlin {
	return &ClassicPerlin{p: perlin.NewPerlin(classicAlpha, classicBeta, 1, seed)}
}

func (c *ClassicPerlin) Eval(p mgl64.Vec3) float64 {
	return clampUnit(c.p.Noise3D(p[0], p[1], p[2]))
}
