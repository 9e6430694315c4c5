package crater

import (
	"math"

	"mini-planet/internal/surface"

	"github.com/go-gl/mathgl/mgl64"
)

// Distance measures how far base point p is from the crater centre under
// the crater's metric. Geodesic distances are arc lengths on the sphere of
// radius |p| through p, measured to the centre's direction.
func (s Spec) Distance(p mgl64.Vec3) float64 {
	if s.Metric == Geodesic {
		r := p.Len()
		c := s.Center.Len()
		if r == 0 || c == 0 {
			return p.Sub(s.Center).Len()
		}
		cos := p.Dot(s.Center) / (r * c)
		return r * math.Acos(math.Max(-1, math.Min(1, cos)))
	}
	return p.Sub(s.Center).Len()
}

// Stamp displaces the current positions of m by the crater's influence
// without touching normals. Distances are taken on the pre-displacement
// base points; the offset is applied along each vertex's own base
// direction, so stamps accumulate on whatever deformation is already there.
func Stamp(m *surface.Mesh, s Spec) {
	reach := s.Reach()
	for i := range m.Vertices {
		v := &m.Vertices[i]
		d := s.Distance(v.Base)
		if d > reach {
			continue
		}
		if k := Influence(s, d); k != 0 {
			v.Position = v.Position.Add(v.Direction.Mul(k))
		}
	}
}

// Apply stamps one crater and recomputes the mesh normals.
func Apply(m *surface.Mesh, s Spec) {
	Stamp(m, s)
	surface.RecomputeNormals(m)
}

// ApplyAll stamps craters strictly in order, then recomputes normals once.
func ApplyAll(m *surface.Mesh, specs ...Spec) {
	if len(specs) == 0 {
		return
	}
	for _, s := range specs {
		Stamp(m, s)
	}
	surface.RecomputeNormals(m)
}
