package surface

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// uvSphere generates a welded latitude/longitude sphere: one vertex per
// pole and `segments` vertices on each of the segments-1 inner rings.
func uvSphere(segments int) ([]mgl64.Vec3, []uint32) {
	rings := segments
	dirs := make([]mgl64.Vec3, 0, VertexCount(Sphere, segments))
	indices := make([]uint32, 0, 3*TriangleCountFor(Sphere, segments))

	dirs = append(dirs, mgl64.Vec3{0, 1, 0})
	for ring := 1; ring < rings; ring++ {
		theta := float64(ring) * math.Pi / float64(rings)
		sinTheta, cosTheta := math.Sincos(theta)
		for seg := 0; seg < segments; seg++ {
			phi := float64(seg) * 2 * math.Pi / float64(segments)
			sinPhi, cosPhi := math.Sincos(phi)
			dirs = append(dirs, mgl64.Vec3{cosPhi * sinTheta, cosTheta, sinPhi * sinTheta})
		}
	}
	dirs = append(dirs, mgl64.Vec3{0, -1, 0})

	north := uint32(0)
	south := uint32(len(dirs) - 1)
	at := func(ring, seg int) uint32 {
		return uint32(1 + (ring-1)*segments + seg%segments)
	}

	for seg := 0; seg < segments; seg++ {
		indices = append(indices, north, at(1, seg+1), at(1, seg))
	}
	for ring := 1; ring < rings-1; ring++ {
		for seg := 0; seg < segments; seg++ {
			a := at(ring, seg)
			b := at(ring, seg+1)
			c := at(ring+1, seg)
			d := at(ring+1, seg+1)
			indices = append(indices, a, b, c, b, d, c)
		}
	}
	for seg := 0; seg < segments; seg++ {
		indices = append(indices, at(rings-1, seg), at(rings-1, seg+1), south)
	}
	return dirs, indices
}
