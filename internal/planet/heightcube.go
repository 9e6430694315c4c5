package planet

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"mini-planet/internal/surface"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultHeightCubeSize is the face edge in texels of the height cube the
// GL viewer samples for per-fragment bump normals.
const DefaultHeightCubeSize = 256

// HeightCube holds SurfaceHeight sampled over the sphere in cube map
// layout. Faces follow the GL order +X, -X, +Y, -Y, +Z, -Z; each face is
// Size*Size texels, row-major with t growing by row.
type HeightCube struct {
	Size  int
	Faces [6][]float32
}

// CubeDirection returns the unit direction through face coordinates (s, t)
// in [0,1], matching GL cube map addressing.
func CubeDirection(face int, s, t float64) mgl64.Vec3 {
	sc, tc := 2*s-1, 2*t-1
	var d mgl64.Vec3
	switch face {
	case 0:
		d = mgl64.Vec3{1, -tc, -sc}
	case 1:
		d = mgl64.Vec3{-1, -tc, sc}
	case 2:
		d = mgl64.Vec3{sc, 1, tc}
	case 3:
		d = mgl64.Vec3{sc, -1, -tc}
	case 4:
		d = mgl64.Vec3{sc, -tc, 1}
	default:
		d = mgl64.Vec3{-sc, -tc, -1}
	}
	return d.Normalize()
}

// CubeLookup is the inverse of CubeDirection: the face the direction
// selects and its (s, t) coordinates on that face.
func CubeLookup(d mgl64.Vec3) (face int, s, t float64) {
	ax, ay, az := math.Abs(d[0]), math.Abs(d[1]), math.Abs(d[2])
	var sc, tc, ma float64
	switch {
	case ax >= ay && ax >= az:
		ma = ax
		if d[0] > 0 {
			face, sc, tc = 0, -d[2], -d[1]
		} else {
			face, sc, tc = 1, d[2], -d[1]
		}
	case ay >= az:
		ma = ay
		if d[1] > 0 {
			face, sc, tc = 2, d[0], d[2]
		} else {
			face, sc, tc = 3, d[0], -d[2]
		}
	default:
		ma = az
		if d[2] > 0 {
			face, sc, tc = 4, d[0], -d[1]
		} else {
			face, sc, tc = 5, -d[0], -d[1]
		}
	}
	return face, (sc/ma + 1) / 2, (tc/ma + 1) / 2
}

// At returns the texel nearest to direction d.
func (c *HeightCube) At(d mgl64.Vec3) float32 {
	face, s, t := CubeLookup(d)
	i := clampTexel(int(s*float64(c.Size)), c.Size)
	j := clampTexel(int(t*float64(c.Size)), c.Size)
	return c.Faces[face][j*c.Size+i]
}

func clampTexel(i, size int) int {
	if i < 0 {
		return 0
	}
	if i >= size {
		return size - 1
	}
	return i
}

// HeightCube samples the snapshot's surface height at every texel centre.
// Samples are taken on the base sphere like mesh displacement, so the cube
// tracks terrain and craters independently of mesh resolution.
func (s *Snapshot) HeightCube(ctx context.Context, size int) (*HeightCube, error) {
	if size <= 0 {
		return nil, fmt.Errorf("height cube size must be positive, got %d", size)
	}
	h := SurfaceHeight(s.Settings)
	base := s.Settings.Mesh.BaseRadius

	c := &HeightCube{Size: size}
	for f := range c.Faces {
		c.Faces[f] = make([]float32, size*size)
	}
	texels := 6 * size * size
	err := surface.ForEachRange(ctx, texels, runtime.GOMAXPROCS(0), func(lo, hi int) {
		for k := lo; k < hi; k++ {
			f, rest := k/(size*size), k%(size*size)
			i, j := rest%size, rest/size
			d := CubeDirection(f, (float64(i)+0.5)/float64(size), (float64(j)+0.5)/float64(size))
			c.Faces[f][rest] = float32(h(d.Mul(base)))
		}
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
