package shading

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Light is a single directional light with a Phong-like response.
type Light struct {
	Ambient   float64    `yaml:"ambient" json:"ambient"`
	Diffuse   float64    `yaml:"diffuse" json:"diffuse"`
	Specular  float64    `yaml:"specular" json:"specular"`
	Shininess float64    `yaml:"shininess" json:"shininess"`
	Direction mgl64.Vec3 `yaml:"direction" json:"direction"`
	Color     mgl64.Vec3 `yaml:"color" json:"color"`
}

func DefaultLight() Light {
	return Light{
		Ambient:   0.42,
		Diffuse:   1.3,
		Specular:  2,
		Shininess: 3,
		Direction: mgl64.Vec3{1, 1, 1},
		Color:     mgl64.Vec3{1, 1, 1},
	}
}

// Intensity returns the scalar light reaching a fragment with normal n seen
// along v (fragment to eye) at terrain height h. Specular highlights fade
// out as h climbs toward specCutoff, so only low terrain (water) shines.
func (l Light) Intensity(n, v mgl64.Vec3, h, specCutoff float64) float64 {
	L := normalizeOr(l.Direction.Mul(-1), mgl64.Vec3{0, -1, 0})
	diffuse := l.Diffuse * math.Max(0, n.Dot(L.Mul(-1)))

	r := normalizeOr(reflect(L, n), n)
	spec := SpecularFalloff(h, specCutoff) * l.Specular * math.Pow(math.Max(0, v.Dot(r)), l.Shininess)
	if math.IsNaN(spec) || math.IsInf(spec, 0) {
		spec = 0
	}
	return l.Ambient + diffuse + math.Max(0, spec)
}

// SpecularFalloff is clamp((cutoff-h)/cutoff, 0, 1). A zero cutoff behaves
// as a step: full specular below zero height, none at or above it.
func SpecularFalloff(h, cutoff float64) float64 {
	if cutoff == 0 {
		if h < 0 {
			return 1
		}
		return 0
	}
	f := (cutoff - h) / cutoff
	if math.IsNaN(f) {
		return 0
	}
	return clamp(f, 0, 1)
}

// reflect is GLSL reflect for incident i about normal n.
func reflect(i, n mgl64.Vec3) mgl64.Vec3 {
	return i.Sub(n.Mul(2 * n.Dot(i)))
}
