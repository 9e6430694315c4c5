package surface

import "github.com/go-gl/mathgl/mgl64"

// cubeFace names the fixed axis of a face and two in-plane axes with
// u x v pointing outward, so (00,10,11)/(00,11,01) winds counter-clockwise.
type cubeFace struct {
	axis, u, v int
	positive   bool
}

var cubeFaces = [6]cubeFace{
	{axis: 0, u: 1, v: 2, positive: true},  // +X
	{axis: 0, u: 2, v: 1, positive: false}, // -X
	{axis: 1, u: 2, v: 0, positive: true},  // +Y
	{axis: 1, u: 0, v: 2, positive: false}, // -Y
	{axis: 2, u: 0, v: 1, positive: true},  // +Z
	{axis: 2, u: 1, v: 0, positive: false}, // -Z
}

// cubeSphere subdivides each cube face into res x res quads and projects the
// lattice onto the unit sphere. Lattice points on cube edges and corners are
// shared between faces, so the result is watertight.
func cubeSphere(res int) ([]mgl64.Vec3, []uint32) {
	side := res + 1
	dirs := make([]mgl64.Vec3, 0, VertexCount(CubeSphere, res))
	indices := make([]uint32, 0, 3*TriangleCountFor(CubeSphere, res))
	welded := make(map[int]uint32, VertexCount(CubeSphere, res))

	vertex := func(c [3]int) uint32 {
		key := (c[0]*side+c[1])*side + c[2]
		if idx, ok := welded[key]; ok {
			return idx
		}
		p := mgl64.Vec3{
			2*float64(c[0])/float64(res) - 1,
			2*float64(c[1])/float64(res) - 1,
			2*float64(c[2])/float64(res) - 1,
		}
		idx := uint32(len(dirs))
		dirs = append(dirs, p.Normalize())
		welded[key] = idx
		return idx
	}

	grid := make([]uint32, side*side)
	for _, f := range cubeFaces {
		fixed := 0
		if f.positive {
			fixed = res
		}
		for b := 0; b <= res; b++ {
			for a := 0; a <= res; a++ {
				var c [3]int
				c[f.axis] = fixed
				c[f.u] = a
				c[f.v] = b
				grid[b*side+a] = vertex(c)
			}
		}
		for b := 0; b < res; b++ {
			for a := 0; a < res; a++ {
				v00 := grid[b*side+a]
				v10 := grid[b*side+a+1]
				v11 := grid[(b+1)*side+a+1]
				v01 := grid[(b+1)*side+a]
				indices = append(indices, v00, v10, v11, v00, v11, v01)
			}
		}
	}
	return dirs, indices
}
