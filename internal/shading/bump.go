package shading

import "github.com/go-gl/mathgl/mgl64"

// DefaultBumpOffset is the finite-difference step along the tangent frame.
// Much smaller steps lose the height difference to cancellation.
const DefaultBumpOffset = 0.001

// BumpNormal reconstructs the displaced surface normal at base point p from
// two finite differences of h along the tangent T and bitangent B.
// If the differences collapse the radial direction of p is returned.
func BumpNormal(p, T, B mgl64.Vec3, eps, radius float64, h func(mgl64.Vec3) float64) mgl64.Vec3 {
	pT := p.Add(T.Mul(eps))
	pB := p.Add(B.Mul(eps))

	p0 := p.Mul(radius + h(p))
	p1 := pT.Mul(radius + h(pT))
	p2 := pB.Mul(radius + h(pB))

	return normalizeOr(p1.Sub(p0).Cross(p2.Sub(p0)), normalizeOr(p, mgl64.Vec3{0, 1, 0}))
}

// PerturbNormal blends the geometric normal toward the bump normal.
// strength is clamped to [0,1].
func PerturbNormal(geom, bump mgl64.Vec3, strength float64) mgl64.Vec3 {
	return normalizeOr(MixVec(geom, bump, clamp(strength, 0, 1)), geom)
}
