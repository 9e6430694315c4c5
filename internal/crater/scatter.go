package crater

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// ScatterOptions describes a random crater field.
type ScatterOptions struct {
	Count      int     `yaml:"count" json:"count"`
	Seed       int64   `yaml:"seed" json:"seed"`
	MinRadius  float64 `yaml:"min_radius" json:"minRadius"`
	MaxRadius  float64 `yaml:"max_radius" json:"maxRadius"`
	MinDepth   float64 `yaml:"min_depth" json:"minDepth"`
	MaxDepth   float64 `yaml:"max_depth" json:"maxDepth"`
	Policy     Policy  `yaml:"policy" json:"policy"`
	Metric     Metric  `yaml:"metric,omitempty" json:"metric,omitempty"`
	// SizeSkew > 1 favours small craters, like real impact populations.
	SizeSkew float64 `yaml:"size_skew,omitempty" json:"sizeSkew,omitempty"`
}

// Scatter places opts.Count craters uniformly over the sphere of the given
// base radius. The same options always produce the same field.
func Scatter(baseRadius float64, opts ScatterOptions) []Spec {
	if opts.Count <= 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	skew := opts.SizeSkew
	if skew <= 0 {
		skew = 1
	}
	specs := make([]Spec, 0, opts.Count)
	for i := 0; i < opts.Count; i++ {
		// Uniform direction: z uniform in [-1,1], azimuth uniform.
		z := 2*rng.Float64() - 1
		phi := 2 * math.Pi * rng.Float64()
		ring := math.Sqrt(1 - z*z)
		dir := mgl64.Vec3{ring * math.Cos(phi), z, ring * math.Sin(phi)}

		size := math.Pow(rng.Float64(), skew)
		radius := opts.MinRadius + (opts.MaxRadius-opts.MinRadius)*size
		// Deeper craters go with wider ones, with some scatter.
		depthT := 0.5*size + 0.5*rng.Float64()
		depth := opts.MinDepth + (opts.MaxDepth-opts.MinDepth)*depthT

		specs = append(specs, Spec{
			Center: dir.Mul(baseRadius),
			Radius: radius,
			Depth:  depth,
			Policy: opts.Policy,
			Metric: opts.Metric,
		})
	}
	return specs
}
