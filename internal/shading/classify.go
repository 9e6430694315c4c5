package shading

import "github.com/go-gl/mathgl/mgl64"

// Layers is the five band colour ramp keyed on terrain height. Transitions[i]
// and Blends[i] describe the boundary between colour i+1 and colour i+2.
// Ordering is not validated; out of order bands still blend deterministically.
type Layers struct {
	Colors      [5]mgl64.Vec3 `yaml:"colors" json:"colors"`
	Transitions [4]float64    `yaml:"transitions" json:"transitions"`
	Blends      [4]float64    `yaml:"blends" json:"blends"`
}

// DefaultLayers: deep water, shallows, sand, grass, rock.
func DefaultLayers() Layers {
	return Layers{
		Colors: [5]mgl64.Vec3{
			{0.014, 0.117, 0.279},
			{0.080, 0.527, 0.351},
			{0.620, 0.516, 0.372},
			{0.149, 0.254, 0.084},
			{0.150, 0.150, 0.150},
		},
		Transitions: [4]float64{0.071, 0.215, 0.372, 1.2},
		Blends:      [4]float64{0.152, 0.152, 0.104, 0.168},
	}
}

// Classify returns the colour for height h.
func (l Layers) Classify(h float64) mgl64.Vec3 {
	c := l.Colors[0]
	for i := range l.Transitions {
		t, b := l.Transitions[i], l.Blends[i]
		c = MixVec(c, l.Colors[i+1], Smoothstep(t-b, t+b, h))
	}
	return c
}
