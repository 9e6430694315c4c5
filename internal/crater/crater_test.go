package crater

import (
	"math"
	"testing"

	"mini-planet/internal/surface"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGaussianProfile(t *testing.T) {
	s := Spec{Radius: 2, Depth: 0.5, Policy: Gaussian}
	assert.Equal(t, -0.5, Influence(s, 0))
	assert.InDelta(t, -0.5*math.Exp(-1), Influence(s, 2), 1e-6)
	assert.Equal(t, 0.0, Influence(s, 2.0001))
}

func TestParabolicBowlAtRadius(t *testing.T) {
	// At d = r the bowl term is 0 and the rim term is at its crest; the
	// blend must lie between min(0, rim) and max(0, rim).
	for _, depth := range []float64{0.1, 1, 3} {
		for _, ratio := range []float64{0, 0.2, -0.5} {
			s := Spec{Radius: 2, Depth: depth, Policy: ParabolicBowl, RimHeightRatio: ratio}
			rim := s.rimHeight()
			got := Influence(s, 2)
			assert.GreaterOrEqual(t, got, math.Min(0, rim), "depth %v ratio %v", depth, ratio)
			assert.LessOrEqual(t, got, math.Max(0, rim), "depth %v ratio %v", depth, ratio)
		}
	}

	s := Spec{Radius: 1, Depth: 1, Policy: ParabolicBowl}
	assert.InDelta(t, 0.6, s.rimHeight(), 1e-15)
	assert.Equal(t, 0.0, Influence(s, 1))
}

func TestParabolicBowlCentreAndOutside(t *testing.T) {
	s := Spec{Radius: 3, Depth: 2, Policy: ParabolicBowl}
	// Far inside, rim = 0 and bowl = -depth; h saturates at 1.
	assert.InDelta(t, -2.0, Influence(s, 0), 1e-12)
	assert.Equal(t, 0.0, Influence(s, s.Reach()+0.01))
	assert.InDelta(t, 3+0.4*3, s.Reach(), 1e-12)
}

func TestParabolicRimRatios(t *testing.T) {
	s := Spec{Radius: 1, Depth: 1, Policy: ParabolicBowl, RimWidthRatio: 1, RimHeightRatio: 0.2}
	assert.InDelta(t, 2.0, s.Reach(), 1e-12)
	assert.InDelta(t, 0.2, s.rimHeight(), 1e-12)
}

func TestFlatFloorProfile(t *testing.T) {
	s := Spec{Radius: 10, Depth: 1, Policy: FlatFloor}
	assert.Equal(t, -1.0, Influence(s, 0))
	assert.Equal(t, -1.0, Influence(s, 3.99))
	// Wall crest carries the rim height.
	assert.InDelta(t, 0.4, Influence(s, 5.9), 1e-12)
	assert.InDelta(t, 0.0, Influence(s, 9.9999), 1e-6)
	assert.Equal(t, 0.0, Influence(s, 10))
	assert.Equal(t, 0.0, Influence(s, 25))

	// Continuity across the segment boundaries.
	for _, d := range []float64{4, 5.9, 10} {
		assert.InDelta(t, Influence(s, d-1e-9), Influence(s, d+1e-9), 1e-6, "jump at d=%v", d)
	}
}

func TestDegenerateCratersDoNothing(t *testing.T) {
	for _, s := range []Spec{
		{Radius: 0, Depth: 1, Policy: Gaussian},
		{Radius: -1, Depth: 1, Policy: FlatFloor},
		{Radius: 1, Depth: 0, Policy: ParabolicBowl},
	} {
		assert.Equal(t, 0.0, Influence(s, 0), "spec %+v", s)
	}
}

func TestSmoothMinBelowHardMin(t *testing.T) {
	for _, c := range [][3]float64{{0, 1, 0.5}, {-1, 0.2, 1}, {0.3, 0.3, 0.1}, {2, -2, 1}} {
		got := SmoothMin(c[0], c[1], c[2])
		assert.LessOrEqual(t, got, math.Min(c[0], c[1])+1e-15)
		assert.GreaterOrEqual(t, got, math.Min(c[0], c[1])-c[2]/4-1e-15)
	}
}

func TestStampComposesOnCurrentState(t *testing.T) {
	m, err := surface.Build(surface.CubeSphere, 16, 1)
	require.NoError(t, err)

	centreIdx := 0
	for i, v := range m.Vertices {
		if v.Direction.Dot(mgl64.Vec3{0, 1, 0}) > m.Vertices[centreIdx].Direction.Dot(mgl64.Vec3{0, 1, 0}) {
			centreIdx = i
		}
	}
	s := Spec{Center: m.Vertices[centreIdx].Base, Radius: 0.5, Depth: 0.1, Policy: FlatFloor}

	Apply(m, s)
	once := m.Vertices[centreIdx].Position.Len()
	Apply(m, s)
	twice := m.Vertices[centreIdx].Position.Len()

	assert.InDelta(t, 0.9, once, 1e-12)
	assert.Less(t, twice, once, "second stamp must carve deeper")
	assert.InDelta(t, 0.8, twice, 1e-12)
}

func TestStampLeavesFarVerticesUntouched(t *testing.T) {
	m, err := surface.Build(surface.Sphere, 24, 1)
	require.NoError(t, err)
	before := m.Clone()

	s := Spec{Center: mgl64.Vec3{0, 1, 0}, Radius: 0.3, Depth: 0.2, Policy: Gaussian}
	Apply(m, s)

	moved := 0
	for i, v := range m.Vertices {
		if v.Base.Sub(s.Center).Len() > s.Radius {
			assert.Equal(t, before.Vertices[i].Position, v.Position, "vertex %d outside radius moved", i)
		} else if v.Position != before.Vertices[i].Position {
			moved++
			// Still on its own ray.
			assert.InDelta(t, 1, v.Position.Normalize().Dot(v.Direction), 1e-12)
		}
	}
	assert.Positive(t, moved)
	for i, v := range m.Vertices {
		assert.InDelta(t, 1, v.Normal.Len(), 1e-4, "vertex %d normal", i)
	}
}

func TestApplyAllMatchesSequentialApply(t *testing.T) {
	a, err := surface.Build(surface.CubeSphere, 12, 1)
	require.NoError(t, err)
	b := a.Clone()
	specs := Scatter(1, ScatterOptions{Count: 6, Seed: 3, MinRadius: 0.1, MaxRadius: 0.4, MinDepth: 0.02, MaxDepth: 0.08, Policy: ParabolicBowl})

	ApplyAll(a, specs...)
	for _, s := range specs {
		Apply(b, s)
	}
	for i := range a.Vertices {
		assert.Equal(t, b.Vertices[i].Position, a.Vertices[i].Position)
		assert.True(t, a.Vertices[i].Normal.ApproxEqualThreshold(b.Vertices[i].Normal, 1e-12))
	}
}

func TestGeodesicDistance(t *testing.T) {
	s := Spec{Center: mgl64.Vec3{0, 2, 0}, Metric: Geodesic}
	// Quarter great circle on the radius-2 sphere.
	assert.InDelta(t, math.Pi, s.Distance(mgl64.Vec3{2, 0, 0}), 1e-12)
	s.Metric = Chord
	assert.InDelta(t, 2*math.Sqrt2, s.Distance(mgl64.Vec3{2, 0, 0}), 1e-12)
}

func TestScatterDeterministic(t *testing.T) {
	opts := ScatterOptions{Count: 20, Seed: 42, MinRadius: 0.1, MaxRadius: 0.5, MinDepth: 0.01, MaxDepth: 0.05, Policy: Gaussian, SizeSkew: 2}
	a := Scatter(5, opts)
	b := Scatter(5, opts)
	require.Len(t, a, 20)
	assert.Equal(t, a, b)
	for _, s := range a {
		assert.InDelta(t, 5, s.Center.Len(), 1e-9)
		assert.GreaterOrEqual(t, s.Radius, 0.1)
		assert.LessOrEqual(t, s.Radius, 0.5)
		assert.GreaterOrEqual(t, s.Depth, 0.01)
		assert.LessOrEqual(t, s.Depth, 0.05)
	}
	assert.Empty(t, Scatter(5, ScatterOptions{}))
}

func TestParsePolicy(t *testing.T) {
	for _, p := range []Policy{FlatFloor, ParabolicBowl, Gaussian} {
		got, err := ParsePolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePolicy("volcano")
	assert.Error(t, err)
}
