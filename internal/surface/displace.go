package surface

import (
	"context"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/sync/errgroup"
)

// HeightFunc returns the terrain height above the planet radius for a base point.
type HeightFunc func(base mgl64.Vec3) float64

// minChunk keeps tiny meshes from being split into goroutines that cost more than they save.
const minChunk = 4096

// Displace extrudes every vertex along its base direction:
// Position = Base * (radius + h(Base)). Work is split into disjoint index
// ranges across up to `workers` goroutines; workers <= 1 runs inline.
// Normals are not touched; call RecomputeNormals afterwards.
func Displace(ctx context.Context, m *Mesh, radius float64, h HeightFunc, workers int) error {
	return ForEachRange(ctx, len(m.Vertices), workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			v := &m.Vertices[i]
			scale := radius + h(v.Base)
			if math.IsNaN(scale) || math.IsInf(scale, 0) {
				scale = radius
			}
			v.Position = v.Base.Mul(scale)
		}
	})
}

// ForEachRange calls fn over [0,n) split into contiguous, non-overlapping
// ranges. Ranges run concurrently when workers > 1. It returns ctx.Err() if
// the context is cancelled before all ranges were started.
func ForEachRange(ctx context.Context, n, workers int, fn func(lo, hi int)) error {
	if workers <= 1 || n <= minChunk {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(0, n)
		return nil
	}

	chunk := (n + workers - 1) / workers
	if chunk < minChunk {
		chunk = minChunk
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += chunk {
		if err := gctx.Err(); err != nil {
			break
		}
		lo, hi := lo, min(lo+chunk, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(lo, hi)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
