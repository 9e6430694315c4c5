// Package terrain synthesises fractal surface heights from a noise field.
package terrain

import (
	"errors"
	"fmt"
	"math"

	"mini-planet/internal/noise"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidConfiguration is wrapped by every parameter validation failure.
var ErrInvalidConfiguration = errors.New("invalid terrain configuration")

const (
	DefaultPeriod     = 3.2
	DefaultLacunarity = 1.5
	// MaxOctaves bounds the work of a single evaluation.
	MaxOctaves = 32
	// HybridRidgeWeight is the share of the ridged term in Hybrid octaves.
	HybridRidgeWeight = 0.5
)

// Params is the full terrain configuration passed into every evaluation.
type Params struct {
	Variant     Variant `yaml:"variant" json:"variant"`
	Amplitude   float64 `yaml:"amplitude" json:"amplitude"`
	Sharpness   float64 `yaml:"sharpness" json:"sharpness"`
	Offset      float64 `yaml:"offset" json:"offset"`
	Period      float64 `yaml:"period" json:"period"`
	Persistence float64 `yaml:"persistence" json:"persistence"`
	Lacunarity  float64 `yaml:"lacunarity" json:"lacunarity"`
	Octaves     int     `yaml:"octaves" json:"octaves"`
}

// DefaultParams returns the demo's starting terrain.
func DefaultParams() Params {
	return Params{
		Variant:     Hybrid,
		Amplitude:   1.2,
		Sharpness:   1.6,
		Offset:      -0.016,
		Period:      DefaultPeriod,
		Persistence: 0.484,
		Lacunarity:  DefaultLacunarity,
		Octaves:     10,
	}
}

// Validate rejects parameters that would make the height non-finite.
func (p Params) Validate() error {
	if p.Variant < Simple || p.Variant > Hybrid {
		return fmt.Errorf("%w: variant %d", ErrInvalidConfiguration, int(p.Variant))
	}
	if !(p.Period > 0) || math.IsInf(p.Period, 0) {
		return fmt.Errorf("%w: period must be positive, got %v", ErrInvalidConfiguration, p.Period)
	}
	if !(p.Lacunarity > 0) || math.IsInf(p.Lacunarity, 0) {
		return fmt.Errorf("%w: lacunarity must be positive, got %v", ErrInvalidConfiguration, p.Lacunarity)
	}
	if p.Octaves < 0 {
		return fmt.Errorf("%w: octaves must not be negative, got %d", ErrInvalidConfiguration, p.Octaves)
	}
	if p.Octaves > MaxOctaves {
		return fmt.Errorf("%w: octaves must be at most %d, got %d", ErrInvalidConfiguration, MaxOctaves, p.Octaves)
	}
	for name, v := range map[string]float64{
		"amplitude": p.Amplitude, "sharpness": p.Sharpness, "offset": p.Offset, "persistence": p.Persistence,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be finite", ErrInvalidConfiguration, name)
		}
	}
	return nil
}

// Sanitize clamps invalid values to safe defaults instead of rejecting them.
func (p Params) Sanitize() Params {
	if !(p.Period > 0) || math.IsInf(p.Period, 0) {
		p.Period = DefaultPeriod
	}
	if !(p.Lacunarity > 0) || math.IsInf(p.Lacunarity, 0) {
		p.Lacunarity = DefaultLacunarity
	}
	if p.Octaves < 0 {
		p.Octaves = 0
	}
	if p.Octaves > MaxOctaves {
		p.Octaves = MaxOctaves
	}
	if p.Variant < Simple || p.Variant > Hybrid {
		p.Variant = Simple
	}
	p.Amplitude = finiteOr(p.Amplitude, 0)
	p.Sharpness = finiteOr(p.Sharpness, 1)
	p.Offset = finiteOr(p.Offset, 0)
	p.Persistence = finiteOr(p.Persistence, 0.5)
	return p
}

// Height evaluates the fractal height at p. It never fails and never
// returns NaN or Inf; invalid parameters are sanitised first.
func Height(field noise.Field, p mgl64.Vec3, params Params) float64 {
	params = params.Sanitize()
	if params.Octaves == 0 {
		return params.Amplitude * params.Offset
	}

	f0 := p.Mul(1 / params.Period)
	weight := 1.0
	frequency := 1.0
	acc := 0.0
	for i := 0; i < params.Octaves; i++ {
		s := field.Eval(f0.Mul(frequency))
		switch params.Variant {
		case Simple:
			acc += weight * s
		case Ridged:
			acc += weight * ridge(s, params.Sharpness)
		case Hybrid:
			acc += weight * ((1-HybridRidgeWeight)*s + HybridRidgeWeight*ridge(s, params.Sharpness))
		}
		weight *= params.Persistence
		frequency *= params.Lacunarity
	}

	h := params.Amplitude * (acc + params.Offset)
	switch {
	case math.IsNaN(h):
		return params.Amplitude * params.Offset
	case math.IsInf(h, 1):
		return math.MaxFloat64
	case math.IsInf(h, -1):
		return -math.MaxFloat64
	}
	return h
}

// Func binds a field and parameters into a height function of position.
func Func(field noise.Field, params Params) func(mgl64.Vec3) float64 {
	params = params.Sanitize()
	return func(p mgl64.Vec3) float64 {
		return Height(field, p, params)
	}
}

// ridge folds a sample into a crest: (1-|s|)^sharpness.
func ridge(s, sharpness float64) float64 {
	r := 1 - math.Abs(s)
	if r <= 0 {
		if sharpness > 0 {
			return 0
		}
		// 0^0 is 1, 0^negative would be Inf.
		return 1
	}
	return math.Pow(r, sharpness)
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
