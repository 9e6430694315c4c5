// Package shading evaluates the per-fragment look of the planet: bumped
// normals, height-layered colour and the lighting model.
package shading

import "github.com/go-gl/mathgl/mgl64"

// Smoothstep is GLSL smoothstep. A zero-width edge degrades to a step at e0
// so callers never see a division by zero.
func Smoothstep(e0, e1, x float64) float64 {
	if e0 == e1 {
		if x < e0 {
			return 0
		}
		return 1
	}
	t := clamp((x-e0)/(e1-e0), 0, 1)
	return t * t * (3 - 2*t)
}

// Mix is GLSL mix written so that t == 0 and t == 1 return a and b exactly.
func Mix(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

// MixVec is Mix applied per component.
func MixVec(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return mgl64.Vec3{Mix(a[0], b[0], t), Mix(a[1], b[1], t), Mix(a[2], b[2], t)}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func normalizeOr(v, fallback mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if !(l > 1e-12) || l != l {
		return fallback
	}
	return v.Mul(1 / l)
}
