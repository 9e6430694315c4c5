package planet

import (
	"mini-planet/internal/config"
	"mini-planet/internal/crater"
	"mini-planet/internal/noise"
	"mini-planet/internal/shading"
	"mini-planet/internal/surface"
	"mini-planet/internal/terrain"

	"github.com/go-gl/mathgl/mgl64"
)

// TerrainHeight is the fBm height field selected by s.
func TerrainHeight(s config.Settings) surface.HeightFunc {
	return terrain.Func(noise.ForKind(s.Noise.Kind), s.Terrain.Params)
}

// Craters lists every crater of s in stamping order: explicit stamps first,
// then the scattered field.
func Craters(s config.Settings) []crater.Spec {
	out := append([]crater.Spec(nil), s.Craters.Stamps...)
	return append(out, crater.Scatter(s.Mesh.BaseRadius, s.Craters.Scatter)...)
}

// SurfaceHeight is the height of the finished surface at base point p, in
// the same units as the terrain: crater offsets are world distances along
// the radial direction, so they are divided by the base radius.
func SurfaceHeight(s config.Settings) func(mgl64.Vec3) float64 {
	h := TerrainHeight(s)
	craters := Craters(s)
	if len(craters) == 0 {
		return h
	}
	scale := 1 / s.Mesh.BaseRadius
	return func(p mgl64.Vec3) float64 {
		v := h(p)
		for _, c := range craters {
			v += crater.Influence(c, c.Distance(p)) * scale
		}
		return v
	}
}

// NewShader returns the fragment shader for s seen from its camera.
func NewShader(s config.Settings) *shading.Shader {
	return &shading.Shader{
		Height:       SurfaceHeight(s),
		Radius:       s.Terrain.Radius,
		BumpStrength: s.Bump.Strength,
		BumpOffset:   s.Bump.Offset,
		Layers:       s.Layers,
		Light:        s.Light,
		Eye:          s.Camera.Position,
	}
}
