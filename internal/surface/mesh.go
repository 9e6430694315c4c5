// Package surface builds the reference geometry of a planet and keeps its
// normals and tangent frames consistent after every displacement pass.
package surface

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrDegenerateGeometry is returned when a resolution cannot form triangles.
var ErrDegenerateGeometry = errors.New("degenerate geometry")

// VertexStride is number of float32 per interleaved vertex (pos.xyz + normal.xyz + tangent.xyz)
const VertexStride = 9

// Shape is the reference shape vertices lie on before displacement.
type Shape int

const (
	CubeSphere Shape = iota
	Sphere
)

func (s Shape) String() string {
	switch s {
	case CubeSphere:
		return "cube-sphere"
	case Sphere:
		return "sphere"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cube-sphere", "cubesphere", "cube":
		return CubeSphere, nil
	case "sphere", "uv-sphere", "uv":
		return Sphere, nil
	}
	return CubeSphere, fmt.Errorf("unknown shape %q", s)
}

func (s Shape) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Shape) UnmarshalText(b []byte) error {
	v, err := ParseShape(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Vertex is one surface sample. Direction and Base never change after
// Build; Position, Normal, Tangent and Bitangent follow the deformation.
type Vertex struct {
	Direction mgl64.Vec3
	Base      mgl64.Vec3
	Position  mgl64.Vec3
	Normal    mgl64.Vec3
	Tangent   mgl64.Vec3
	Bitangent mgl64.Vec3
}

// Mesh owns its vertex and index buffers. A different resolution or shape
// always means a new Mesh.
type Mesh struct {
	Shape      Shape
	Resolution int
	BaseRadius float64
	Vertices   []Vertex
	Indices    []uint32
}

// TriangleCount returns the number of indexed triangles.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// Clone returns a deep copy that shares no buffers with m.
func (m *Mesh) Clone() *Mesh {
	c := *m
	c.Vertices = append([]Vertex(nil), m.Vertices...)
	c.Indices = append([]uint32(nil), m.Indices...)
	return &c
}

// Interleaved packs positions, normals and tangents as float32 for upload.
func (m *Mesh) Interleaved() []float32 {
	out := make([]float32, 0, len(m.Vertices)*VertexStride)
	for _, v := range m.Vertices {
		out = append(out,
			float32(v.Position[0]), float32(v.Position[1]), float32(v.Position[2]),
			float32(v.Normal[0]), float32(v.Normal[1]), float32(v.Normal[2]),
			float32(v.Tangent[0]), float32(v.Tangent[1]), float32(v.Tangent[2]),
		)
	}
	return out
}

// Bounds returns the smallest and largest distance of any vertex from the origin.
func (m *Mesh) Bounds() (minR, maxR float64) {
	for i, v := range m.Vertices {
		r := v.Position.Len()
		if i == 0 || r < minR {
			minR = r
		}
		if r > maxR {
			maxR = r
		}
	}
	return minR, maxR
}

// VertexCount is the number of vertices Build produces for shape and resolution.
func VertexCount(shape Shape, resolution int) int {
	switch shape {
	case Sphere:
		return resolution*(resolution-1) + 2
	default:
		return 6*resolution*resolution + 2
	}
}

// TriangleCountFor is the number of triangles Build produces for shape and resolution.
func TriangleCountFor(shape Shape, resolution int) int {
	switch shape {
	case Sphere:
		return 2 * resolution * (resolution - 1)
	default:
		return 12 * resolution * resolution
	}
}

// MinResolution is the lowest resolution that forms a closed surface.
func MinResolution(shape Shape) int {
	if shape == Sphere {
		return 3
	}
	return 1
}

// Build creates the reference mesh at the given resolution. Positions start
// on the base shape and normals point outward.
func Build(shape Shape, resolution int, baseRadius float64) (*Mesh, error) {
	if resolution < MinResolution(shape) {
		return nil, fmt.Errorf("%w: %s needs resolution >= %d, got %d",
			ErrDegenerateGeometry, shape, MinResolution(shape), resolution)
	}
	if !(baseRadius > 0) {
		return nil, fmt.Errorf("%w: base radius must be positive, got %v", ErrDegenerateGeometry, baseRadius)
	}

	var dirs []mgl64.Vec3
	var indices []uint32
	switch shape {
	case Sphere:
		dirs, indices = uvSphere(resolution)
	case CubeSphere:
		dirs, indices = cubeSphere(resolution)
	default:
		return nil, fmt.Errorf("%w: unknown shape %d", ErrDegenerateGeometry, int(shape))
	}

	m := &Mesh{
		Shape:      shape,
		Resolution: resolution,
		BaseRadius: baseRadius,
		Vertices:   make([]Vertex, len(dirs)),
		Indices:    indices,
	}
	for i, d := range dirs {
		base := d.Mul(baseRadius)
		m.Vertices[i] = Vertex{Direction: d, Base: base, Position: base}
	}
	RecomputeNormals(m)
	return m, nil
}
