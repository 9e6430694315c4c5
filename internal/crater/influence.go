package crater

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Shape constants of the flat-floored profile, as fractions of the radius
// (floor, wall) and of the depth (rim).
const (
	flatFloorEnd  = 0.4
	flatWallWidth = 0.19
	flatRimHeight = 0.4
	defaultRimW   = 0.4
	defaultRimH   = 0.6
)

// Spec describes one crater stamp.
type Spec struct {
	Center mgl64.Vec3 `yaml:"center" json:"center"`
	Radius float64    `yaml:"radius" json:"radius"`
	Depth  float64    `yaml:"depth" json:"depth"`
	Policy Policy     `yaml:"policy" json:"policy"`
	// RimWidthRatio and RimHeightRatio shape the parabolic rim; zero means default.
	RimWidthRatio  float64 `yaml:"rim_width_ratio,omitempty" json:"rimWidthRatio,omitempty"`
	RimHeightRatio float64 `yaml:"rim_height_ratio,omitempty" json:"rimHeightRatio,omitempty"`
	Metric         Metric  `yaml:"metric,omitempty" json:"metric,omitempty"`
}

func (s Spec) rimWidth() float64 {
	if s.RimWidthRatio > 0 {
		return s.RimWidthRatio * s.Radius
	}
	return defaultRimW * s.Radius
}

func (s Spec) rimHeight() float64 {
	if s.RimHeightRatio != 0 {
		return s.RimHeightRatio * s.Depth
	}
	return defaultRimH * s.Depth
}

// Reach is the largest distance at which the crater has any effect.
func (s Spec) Reach() float64 {
	if s.Policy == ParabolicBowl {
		return s.Radius + s.rimWidth()
	}
	return s.Radius
}

// Influence returns the radial displacement at distance d from the centre.
// It is zero beyond Reach and for degenerate craters (non-positive radius,
// zero depth).
func Influence(s Spec, d float64) float64 {
	if !(s.Radius > 0) || s.Depth == 0 || !(d <= s.Reach()) {
		return 0
	}
	var v float64
	switch s.Policy {
	case FlatFloor:
		v = flatFloor(d, s.Radius, s.Depth)
	case ParabolicBowl:
		v = parabolicBowl(d, s.Radius, s.Depth, s.rimWidth(), s.rimHeight())
	case Gaussian:
		v = gaussian(d, s.Radius, s.Depth)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Ease is the cubic 3t^2 - 2t^3 with t clamped to [0,1].
func Ease(t float64) float64 {
	t = clamp01(t)
	return t * t * (3 - 2*t)
}

func flatFloor(d, r, depth float64) float64 {
	floorEnd := flatFloorEnd * r
	crest := floorEnd + flatWallWidth*r
	rim := flatRimHeight * depth
	switch {
	case d < floorEnd:
		return -depth
	case d < crest:
		t := (d - floorEnd) / (crest - floorEnd)
		return -depth + (rim+depth)*Ease(t)
	case d < r:
		t := (d - crest) / (r - crest)
		return rim * (1 - Ease(t))
	default:
		return 0
	}
}

func parabolicBowl(d, r, depth, rimWidth, rimHeight float64) float64 {
	bowl := 0.0
	if d <= r {
		q := d / r
		bowl = -depth * (1 - q*q)
	}
	rim := 0.0
	if d >= r && d <= r+rimWidth && rimWidth > 0 {
		q := (d - r) / rimWidth
		rim = rimHeight * (1 - q*q)
	}
	return SmoothMin(bowl, rim, bowlBlendWidth(depth, rimHeight))
}

// bowlBlendWidth keeps the smooth-min seam no wider than the rim height, so
// at d = r (bowl 0, rim at its crest) the blend saturates and the result
// stays between 0 and the rim height.
func bowlBlendWidth(depth, rimHeight float64) float64 {
	return math.Min(math.Abs(depth), math.Abs(rimHeight))
}

// SmoothMin is the polynomial smooth minimum of a and b with blend width k.
func SmoothMin(a, b, k float64) float64 {
	if k == 0 {
		return math.Min(a, b)
	}
	h := clamp01(0.5 + 0.5*(b-a)/k)
	return a*h + b*(1-h) - k*h*(1-h)
}

func gaussian(d, r, depth float64) float64 {
	if d > r {
		return 0
	}
	return -depth * math.Exp(-(d*d)/(r*r))
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
