package planet

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"unsafe"

	"mini-planet/internal/config"
	"mini-planet/internal/surface"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto"
)

// DefaultCacheBytes bounds the memory held by cached meshes.
const DefaultCacheBytes = 256 << 20

// meshCache keeps base meshes by topology and finished meshes by geometry.
// Cached meshes are never mutated; callers clone before deforming.
type meshCache struct {
	c *ristretto.Cache
}

func newMeshCache(maxBytes int64) (*meshCache, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultCacheBytes
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        1e4,
		MaxCost:            maxBytes,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("mesh cache: %w", err)
	}
	return &meshCache{c: c}, nil
}

func (mc *meshCache) get(key uint64) (*surface.Mesh, bool) {
	v, ok := mc.c.Get(key)
	if !ok {
		return nil, false
	}
	m, ok := v.(*surface.Mesh)
	return m, ok
}

func (mc *meshCache) put(key uint64, m *surface.Mesh) {
	mc.c.Set(key, m, meshCost(m))
}

// wait blocks until buffered writes are visible to get.
func (mc *meshCache) wait() { mc.c.Wait() }

func (mc *meshCache) close() { mc.c.Close() }

func meshCost(m *surface.Mesh) int64 {
	return int64(len(m.Vertices))*int64(unsafe.Sizeof(surface.Vertex{})) + int64(len(m.Indices))*4
}

// topologyKey identifies a base mesh.
func topologyKey(s config.Settings) uint64 {
	var buf [1 + 8 + 8 + 8]byte
	buf[0] = 't'
	binary.LittleEndian.PutUint64(buf[1:], uint64(s.Mesh.Shape))
	binary.LittleEndian.PutUint64(buf[9:], uint64(s.Mesh.Resolution))
	binary.LittleEndian.PutUint64(buf[17:], math.Float64bits(s.Mesh.BaseRadius))
	return xxhash.Sum64(buf[:])
}

// geometryKey identifies a finished mesh: its topology plus everything that
// moves vertices.
func geometryKey(s config.Settings) uint64 {
	d := xxhash.New()
	var topo [8]byte
	binary.LittleEndian.PutUint64(topo[:], topologyKey(s))
	d.Write([]byte{'g'})
	d.Write(topo[:])
	// The settings types are plain data, so encoding cannot fail.
	b, _ := json.Marshal(struct {
		Noise   config.NoiseSettings
		Terrain config.TerrainSettings
		Craters config.CraterSettings
	}{s.Noise, s.Terrain, s.Craters})
	d.Write(b)
	return d.Sum64()
}
