package planet

import (
	"context"
	"sync"
	"testing"
	"time"

	"mini-planet/internal/config"
	"mini-planet/internal/crater"
	"mini-planet/internal/surface"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	kinds  []config.ChangeKind
	stamps int
	hits   int
	misses int
}

func (r *recorder) Rebuilt(kind config.ChangeKind, _ time.Duration, _ int) {
	r.mu.Lock()
	r.kinds = append(r.kinds, kind)
	r.mu.Unlock()
}

func (r *recorder) Stamped() {
	r.mu.Lock()
	r.stamps++
	r.mu.Unlock()
}

func (r *recorder) CacheLookup(hit bool) {
	r.mu.Lock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
	r.mu.Unlock()
}

func smallSettings() config.Settings {
	s := config.Default()
	s.Mesh.Shape = surface.CubeSphere
	s.Mesh.Resolution = 8
	s.Mesh.BaseRadius = 1
	s.Mesh.Workers = 2
	return s
}

func newGenerator(t *testing.T, obs Observer) *Generator {
	t.Helper()
	g, err := NewGenerator(Options{Observer: obs, CacheBytes: 64 << 20})
	require.NoError(t, err)
	t.Cleanup(g.Close)
	return g
}

func TestFirstRebuildIsFull(t *testing.T) {
	rec := &recorder{}
	g := newGenerator(t, rec)
	assert.Nil(t, g.Current())

	s := smallSettings()
	snap, err := g.Rebuild(context.Background(), s, config.ChangeNone)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Version)
	assert.Equal(t, surface.VertexCount(surface.CubeSphere, 8), len(snap.Mesh.Vertices))
	assert.Len(t, snap.Colors, len(snap.Mesh.Vertices))
	assert.Equal(t, []config.ChangeKind{config.ChangeTopology}, rec.kinds)
	assert.Same(t, snap, g.Current())

	minR, maxR := snap.Mesh.Bounds()
	assert.Greater(t, maxR, minR)
}

func TestShadingChangeKeepsMesh(t *testing.T) {
	g := newGenerator(t, nil)
	s := smallSettings()
	first, err := g.Rebuild(context.Background(), s, config.ChangeTopology)
	require.NoError(t, err)

	s.Layers.Colors[0] = mgl64.Vec3{1, 0, 0}
	s.Layers.Colors[1] = mgl64.Vec3{1, 0, 0}
	second, err := g.Rebuild(context.Background(), s, config.ChangeShading)
	require.NoError(t, err)
	assert.Same(t, first.Mesh, second.Mesh)
	assert.NotEqual(t, first.Colors, second.Colors)

	third, err := g.Rebuild(context.Background(), s, config.ChangeNone)
	require.NoError(t, err)
	assert.Same(t, second.Mesh, third.Mesh)
	assert.Equal(t, second.Colors, third.Colors)
	assert.Equal(t, uint64(3), third.Version)
}

func TestGeometryChangeMovesVertices(t *testing.T) {
	g := newGenerator(t, nil)
	s := smallSettings()
	first, err := g.Rebuild(context.Background(), s, config.ChangeTopology)
	require.NoError(t, err)

	s.Terrain.Amplitude *= 2
	second, err := g.Rebuild(context.Background(), s, config.ChangeGeometry)
	require.NoError(t, err)
	assert.NotSame(t, first.Mesh, second.Mesh)
	assert.Equal(t, len(first.Mesh.Vertices), len(second.Mesh.Vertices))
	assert.NotEqual(t, first.Mesh.Vertices[0].Position, second.Mesh.Vertices[0].Position)
	// Direction and base never move.
	assert.Equal(t, first.Mesh.Vertices[0].Base, second.Mesh.Vertices[0].Base)
}

func TestGeometryCacheHit(t *testing.T) {
	rec := &recorder{}
	g := newGenerator(t, rec)
	a := smallSettings()
	b := a
	b.Terrain.Octaves = 2

	first, err := g.Rebuild(context.Background(), a, config.ChangeTopology)
	require.NoError(t, err)
	g.cache.wait()
	_, err = g.Rebuild(context.Background(), b, config.ChangeGeometry)
	require.NoError(t, err)
	g.cache.wait()
	again, err := g.Rebuild(context.Background(), a, config.ChangeGeometry)
	require.NoError(t, err)

	assert.Same(t, first.Mesh, again.Mesh)
	assert.GreaterOrEqual(t, rec.hits, 2, "base mesh and finished mesh should both hit")
}

func flatSettings() config.Settings {
	s := smallSettings()
	s.Mesh.Resolution = 16
	s.Terrain.Amplitude = 0
	return s
}

func topVertex(m *surface.Mesh) int {
	best := 0
	for i, v := range m.Vertices {
		if v.Base[1] > m.Vertices[best].Base[1] {
			best = i
		}
	}
	return best
}

func TestStampComposes(t *testing.T) {
	rec := &recorder{}
	g := newGenerator(t, rec)
	s := flatSettings()
	_, err := g.Stamp(context.Background(), crater.Spec{Radius: 1})
	require.Error(t, err, "stamping before the first build")

	base, err := g.Rebuild(context.Background(), s, config.ChangeTopology)
	require.NoError(t, err)
	top := topVertex(base.Mesh)
	require.InDelta(t, s.Terrain.Radius, base.Mesh.Vertices[top].Position[1], 1e-12)

	spec := crater.Spec{Center: mgl64.Vec3{0, 1, 0}, Radius: 0.5, Depth: 0.1, Policy: crater.FlatFloor}
	once, err := g.Stamp(context.Background(), spec)
	require.NoError(t, err)
	twice, err := g.Stamp(context.Background(), spec)
	require.NoError(t, err)

	y0 := base.Mesh.Vertices[top].Position[1]
	y1 := once.Mesh.Vertices[top].Position[1]
	y2 := twice.Mesh.Vertices[top].Position[1]
	assert.InDelta(t, y0-0.1, y1, 1e-9)
	assert.InDelta(t, y0-0.2, y2, 1e-9)
	assert.Less(t, y2, y1)
	assert.Len(t, twice.Settings.Craters.Stamps, 2)
	assert.Equal(t, 2, rec.stamps)

	// The published base snapshot was not touched.
	assert.InDelta(t, y0, base.Mesh.Vertices[top].Position[1], 0)
}

func TestSurfaceHeightIncludesCraters(t *testing.T) {
	s := flatSettings()
	s.Craters.Stamps = []crater.Spec{{Center: mgl64.Vec3{0, 1, 0}, Radius: 0.5, Depth: 0.1, Policy: crater.FlatFloor}}
	h := SurfaceHeight(s)
	assert.InDelta(t, -0.1, h(mgl64.Vec3{0, 1, 0}), 1e-12)
	assert.InDelta(t, 0, h(mgl64.Vec3{0, -1, 0}), 1e-12)
}

func TestCratersOrder(t *testing.T) {
	s := flatSettings()
	s.Craters.Stamps = []crater.Spec{{Radius: 9, Depth: 1}}
	s.Craters.Scatter.Count = 3
	got := Craters(s)
	require.Len(t, got, 4)
	assert.Equal(t, 9.0, got[0].Radius)
}

func TestRebuildCancelledKeepsPrevious(t *testing.T) {
	g := newGenerator(t, nil)
	s := smallSettings()
	first, err := g.Rebuild(context.Background(), s, config.ChangeTopology)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Terrain.Amplitude = 3
	_, err = g.Rebuild(ctx, s, config.ChangeGeometry)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Same(t, first, g.Current())
}

func TestConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	g := newGenerator(t, nil)
	s := smallSettings()
	_, err := g.Rebuild(context.Background(), s, config.ChangeTopology)
	require.NoError(t, err)

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				snap := g.Current()
				if len(snap.Colors) != len(snap.Mesh.Vertices) {
					t.Errorf("torn snapshot v%d", snap.Version)
					return
				}
			}
		}()
	}
	for r := 3; r <= 10; r++ {
		s.Mesh.Resolution = r
		_, err := g.Rebuild(context.Background(), s, config.ChangeTopology)
		require.NoError(t, err)
	}
	close(done)
	wg.Wait()
}

func TestGPUVertices(t *testing.T) {
	g := newGenerator(t, nil)
	s := flatSettings()
	snap, err := g.Rebuild(context.Background(), s, config.ChangeTopology)
	require.NoError(t, err)

	data, err := snap.GPUVertices(context.Background())
	require.NoError(t, err)
	require.Len(t, data, len(snap.Mesh.Vertices)*GPUStride)

	top := topVertex(snap.Mesh)
	o := data[top*GPUStride:]
	assert.InDelta(t, s.Terrain.Radius, o[1], 1e-5)
	assert.InDelta(t, 1, o[7], 1e-6)
	tangent := mgl64.Vec3{float64(o[9]), float64(o[10]), float64(o[11])}
	bitangent := mgl64.Vec3{float64(o[12]), float64(o[13]), float64(o[14])}
	assert.InDelta(t, 1, tangent.Len(), 1e-5)
	assert.InDelta(t, 1, bitangent.Len(), 1e-5)
}

func TestCubeDirectionRoundTrip(t *testing.T) {
	for face := 0; face < 6; face++ {
		for _, st := range [][2]float64{{0.5, 0.5}, {0.1, 0.9}, {0.8, 0.25}, {0.01, 0.02}} {
			d := CubeDirection(face, st[0], st[1])
			assert.InDelta(t, 1, d.Len(), 1e-12)
			f, s, tt := CubeLookup(d)
			assert.Equal(t, face, f)
			assert.InDelta(t, st[0], s, 1e-12, "face %d", face)
			assert.InDelta(t, st[1], tt, 1e-12, "face %d", face)
		}
	}

	// GL face order: +X, -X, +Y, -Y, +Z, -Z.
	axes := []mgl64.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}
	for face, axis := range axes {
		assert.InDelta(t, 1, CubeDirection(face, 0.5, 0.5).Dot(axis), 1e-12)
	}
}

func TestHeightCubeMatchesSurfaceHeight(t *testing.T) {
	g := newGenerator(t, nil)
	s := smallSettings()
	s.Craters.Stamps = []crater.Spec{{Center: mgl64.Vec3{0, 1, 0}, Radius: 0.5, Depth: 0.1, Policy: crater.ParabolicBowl}}
	snap, err := g.Rebuild(context.Background(), s, config.ChangeTopology)
	require.NoError(t, err)

	cube, err := snap.HeightCube(context.Background(), 16)
	require.NoError(t, err)
	h := SurfaceHeight(snap.Settings)
	for face := 0; face < 6; face++ {
		require.Len(t, cube.Faces[face], 16*16)
		for _, ij := range [][2]int{{0, 0}, {7, 8}, {15, 3}} {
			d := CubeDirection(face, (float64(ij[0])+0.5)/16, (float64(ij[1])+0.5)/16)
			want := h(d.Mul(s.Mesh.BaseRadius))
			assert.InDelta(t, want, cube.Faces[face][ij[1]*16+ij[0]], 1e-6)
			assert.Equal(t, cube.Faces[face][ij[1]*16+ij[0]], cube.At(d))
		}
	}

	_, err = snap.HeightCube(context.Background(), 0)
	assert.Error(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = snap.HeightCube(ctx, 16)
	assert.ErrorIs(t, err, context.Canceled)
}

// A crater narrower than a mesh cell leaves every vertex untouched but
// still shows in the height cube the fragment stage samples.
func TestHeightCubeResolvesSubCellCrater(t *testing.T) {
	g := newGenerator(t, nil)
	s := flatSettings()
	s.Mesh.Resolution = 4
	centre := mgl64.Vec3{0.3, 1, 0.2}.Normalize()
	spec := crater.Spec{Center: centre, Radius: 0.04, Depth: 0.05, Policy: crater.ParabolicBowl}
	s.Craters.Stamps = []crater.Spec{spec}
	snap, err := g.Rebuild(context.Background(), s, config.ChangeTopology)
	require.NoError(t, err)

	for _, v := range snap.Mesh.Vertices {
		require.Greater(t, spec.Distance(v.Base), spec.Reach())
	}
	data, err := snap.GPUVertices(context.Background())
	require.NoError(t, err)
	for i := range snap.Mesh.Vertices {
		r := mgl64.Vec3{float64(data[i*GPUStride]), float64(data[i*GPUStride+1]), float64(data[i*GPUStride+2])}.Len()
		assert.InDelta(t, s.Terrain.Radius, r, 1e-4)
	}

	cube, err := snap.HeightCube(context.Background(), DefaultHeightCubeSize)
	require.NoError(t, err)
	assert.Less(t, float64(cube.At(centre)), -0.9*spec.Depth)
	assert.InDelta(t, 0, cube.At(mgl64.Vec3{0, -1, 0}), 1e-9)
}
