package surface

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	upAxis    = mgl64.Vec3{0, 1, 0}
	rightAxis = mgl64.Vec3{1, 0, 0}
)

// RecomputeNormals rebuilds per-vertex normals from the current positions:
// area-weighted face normals are summed per vertex and renormalised. The
// tangent frame is rebuilt against the new normal. Vertices touched by no
// non-degenerate face fall back to their base direction.
func RecomputeNormals(m *Mesh) {
	acc := make([]mgl64.Vec3, len(m.Vertices))
	for t := 0; t+2 < len(m.Indices); t += 3 {
		i0, i1, i2 := m.Indices[t], m.Indices[t+1], m.Indices[t+2]
		p0 := m.Vertices[i0].Position
		e1 := m.Vertices[i1].Position.Sub(p0)
		e2 := m.Vertices[i2].Position.Sub(p0)
		n := e1.Cross(e2)
		acc[i0] = acc[i0].Add(n)
		acc[i1] = acc[i1].Add(n)
		acc[i2] = acc[i2].Add(n)
	}
	for i := range m.Vertices {
		v := &m.Vertices[i]
		v.Normal = safeNormalize(acc[i], v.Direction)
		v.Tangent, v.Bitangent = TangentFrame(v.Normal)
	}
}

// TangentFrame returns a unit tangent and bitangent for normal n with
// cross(tangent, bitangent) == n. The tangent follows lines of latitude
// except near the poles, where the x axis is used as the reference.
func TangentFrame(n mgl64.Vec3) (tangent, bitangent mgl64.Vec3) {
	t := upAxis.Cross(n)
	if t.Len() < 1e-6 {
		t = n.Cross(rightAxis)
	}
	tangent = safeNormalize(t, rightAxis)
	bitangent = n.Cross(tangent)
	return tangent, bitangent
}

// safeNormalize returns v/|v|, or fallback when v has no usable length.
func safeNormalize(v, fallback mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return fallback
	}
	return v.Mul(1 / l)
}
