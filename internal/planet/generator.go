// Package planet turns settings into a published, shaded planet mesh and
// keeps it current as settings change.
package planet

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"mini-planet/internal/config"
	"mini-planet/internal/crater"
	"mini-planet/internal/logging"
	"mini-planet/internal/profiling"
	"mini-planet/internal/surface"

	"github.com/go-gl/mathgl/mgl64"
)

// Snapshot is one published planet. Nothing in it is mutated after
// publication, so readers may hold it as long as they like.
type Snapshot struct {
	Version  uint64
	Settings config.Settings
	Mesh     *surface.Mesh
	// Colors is the shaded colour of each vertex, seen from the camera.
	Colors []mgl64.Vec3
}

// Observer receives build events, e.g. for metrics.
type Observer interface {
	Rebuilt(kind config.ChangeKind, took time.Duration, vertices int)
	Stamped()
	CacheLookup(hit bool)
}

type nopObserver struct{}

func (nopObserver) Rebuilt(config.ChangeKind, time.Duration, int) {}
func (nopObserver) Stamped() {}
func (nopObserver) CacheLookup(bool) {}

type Options struct {
	Logger     *logging.Logger
	Profile    *profiling.Profile
	Observer   Observer
	CacheBytes int64
}

// Generator owns the current planet. Rebuilds and stamps are serialised;
// Current never blocks and never sees a half-built mesh.
type Generator struct {
	log  *logging.Logger
	prof *profiling.Profile
	obs  Observer

	cache   *meshCache
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
	version uint64
}

func NewGenerator(opts Options) (*Generator, error) {
	cache, err := newMeshCache(opts.CacheBytes)
	if err != nil {
		return nil, err
	}
	g := &Generator{
		log:   opts.Logger,
		prof:  opts.Profile,
		obs:   opts.Observer,
		cache: cache,
	}
	if g.log == nil {
		g.log = logging.Default()
	}
	if g.prof == nil {
		g.prof = new(profiling.Profile)
	}
	if g.obs == nil {
		g.obs = nopObserver{}
	}
	return g, nil
}

// Close releases the mesh cache.
func (g *Generator) Close() { g.cache.close() }

// Current returns the last published snapshot, or nil before the first
// Rebuild.
func (g *Generator) Current() *Snapshot { return g.current.Load() }

// Rebuild brings the planet in line with s, doing only the work kind
// requires. The first rebuild is always a full one. On error the previous
// snapshot stays published.
func (g *Generator) Rebuild(ctx context.Context, s config.Settings, kind config.ChangeKind) (*Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	start := time.Now()
	prev := g.current.Load()
	if prev == nil {
		kind = config.ChangeTopology
	}
	s = s.Clone()

	var mesh *surface.Mesh
	switch {
	case kind >= config.ChangeGeometry:
		m, err := g.finishedMesh(ctx, s)
		if err != nil {
			return nil, err
		}
		mesh = m
	default:
		mesh = prev.Mesh
	}

	colors := prevColors(prev)
	if kind >= config.ChangeShading || colors == nil {
		c, err := g.bake(ctx, s, mesh)
		if err != nil {
			return nil, err
		}
		colors = c
	}

	snap := g.publish(s, mesh, colors)
	took := time.Since(start)
	g.obs.Rebuilt(kind, took, len(mesh.Vertices))
	g.log.Debugf("planet v%d: %s change, %d vertices in %v", snap.Version, kind, len(mesh.Vertices), took)
	return snap, nil
}

func prevColors(prev *Snapshot) []mgl64.Vec3 {
	if prev == nil {
		return nil
	}
	return prev.Colors
}

// Stamp carves one more crater into the current planet. It composes on the
// current deformed surface, so stamping the same crater twice carves twice.
func (g *Generator) Stamp(ctx context.Context, spec crater.Spec) (*Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	prev := g.current.Load()
	if prev == nil {
		return nil, fmt.Errorf("stamp: no planet built yet")
	}
	defer g.prof.Track("planet.Stamp")()

	mesh := prev.Mesh.Clone()
	crater.Apply(mesh, spec)

	s := prev.Settings.Clone()
	s.Craters.Stamps = append(s.Craters.Stamps, spec)
	colors, err := g.bake(ctx, s, mesh)
	if err != nil {
		return nil, err
	}
	g.obs.Stamped()
	return g.publish(s, mesh, colors), nil
}

func (g *Generator) publish(s config.Settings, m *surface.Mesh, colors []mgl64.Vec3) *Snapshot {
	g.version++
	snap := &Snapshot{Version: g.version, Settings: s, Mesh: m, Colors: colors}
	g.current.Store(snap)
	return snap
}

func workers(s config.Settings) int {
	if s.Mesh.Workers > 0 {
		return s.Mesh.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// baseMesh returns the undeformed mesh for s's topology, shared through the
// cache. The result must not be mutated.
func (g *Generator) baseMesh(s config.Settings) (*surface.Mesh, error) {
	key := topologyKey(s)
	if m, ok := g.cache.get(key); ok {
		g.obs.CacheLookup(true)
		return m, nil
	}
	g.obs.CacheLookup(false)
	defer g.prof.Track("surface.Build")()
	m, err := surface.Build(s.Mesh.Shape, s.Mesh.Resolution, s.Mesh.BaseRadius)
	if err != nil {
		return nil, err
	}
	g.cache.put(key, m)
	return m, nil
}

// finishedMesh displaces and craters the base mesh for s, or returns the cached
// result of an identical earlier build.
func (g *Generator) finishedMesh(ctx context.Context, s config.Settings) (*surface.Mesh, error) {
	key := geometryKey(s)
	if m, ok := g.cache.get(key); ok {
		g.obs.CacheLookup(true)
		return m, nil
	}
	g.obs.CacheLookup(false)

	base, err := g.baseMesh(s)
	if err != nil {
		return nil, err
	}
	m := base.Clone()

	stop := g.prof.Track("surface.Displace")
	err = surface.Displace(ctx, m, s.Terrain.Radius, TerrainHeight(s), workers(s))
	stop()
	if err != nil {
		return nil, fmt.Errorf("displace: %w", err)
	}

	stop = g.prof.Track("crater.Stamp")
	for _, c := range Craters(s) {
		if err := ctx.Err(); err != nil {
			stop()
			return nil, err
		}
		crater.Stamp(m, c)
	}
	stop()

	stop = g.prof.Track("surface.RecomputeNormals")
	surface.RecomputeNormals(m)
	stop()

	g.cache.put(key, m)
	return m, nil
}

// bake shades every vertex of m for s.
func (g *Generator) bake(ctx context.Context, s config.Settings, m *surface.Mesh) ([]mgl64.Vec3, error) {
	defer g.prof.Track("planet.bake")()
	sh := NewShader(s)
	colors := make([]mgl64.Vec3, len(m.Vertices))
	err := surface.ForEachRange(ctx, len(m.Vertices), workers(s), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			v := &m.Vertices[i]
			colors[i] = sh.Shade(v.Base, v.Normal, v.Tangent, v.Bitangent).Color
		}
	})
	if err != nil {
		return nil, fmt.Errorf("bake: %w", err)
	}
	return colors, nil
}
