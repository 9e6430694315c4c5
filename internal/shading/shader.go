package shading

import "github.com/go-gl/mathgl/mgl64"

// Shader is the CPU rendition of the planet fragment stage. All fields are
// read only during Fragment, so one Shader may be shared by many goroutines.
type Shader struct {
	// Height is the terrain height at a base (undisplaced) point.
	Height       func(mgl64.Vec3) float64
	Radius       float64
	BumpStrength float64
	BumpOffset   float64
	Layers       Layers
	Light        Light
	Eye          mgl64.Vec3
}

// Fragment is the result of shading one surface point.
type Fragment struct {
	Height   float64
	Position mgl64.Vec3
	Normal   mgl64.Vec3
	Color    mgl64.Vec3
}

// Shade evaluates the fragment at base point p with the interpolated
// geometric normal and tangent frame.
func (s *Shader) Shade(p, normal, tangent, bitangent mgl64.Vec3) Fragment {
	h := s.Height(p)
	n := normalizeOr(normal, normalizeOr(p, mgl64.Vec3{0, 1, 0}))
	if s.BumpStrength > 0 {
		eps := s.BumpOffset
		if !(eps > 0) {
			eps = DefaultBumpOffset
		}
		bump := BumpNormal(p, tangent, bitangent, eps, s.Radius, s.Height)
		n = PerturbNormal(n, bump, s.BumpStrength)
	}

	pos := p.Mul(s.Radius + h)
	v := normalizeOr(s.Eye.Sub(pos), n)
	light := s.Light.Intensity(n, v, h, s.Layers.Transitions[1])

	c := s.Layers.Classify(h).Mul(light)
	c = mgl64.Vec3{c[0] * s.Light.Color[0], c[1] * s.Light.Color[1], c[2] * s.Light.Color[2]}
	return Fragment{Height: h, Position: pos, Normal: n, Color: c}
}
