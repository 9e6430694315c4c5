package shading

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AtmosphereTint is the RGBA of the halo at full intensity.
var AtmosphereTint = [4]float64{0.1, 0.2, 0.5, 0.3}

// Atmosphere is the rim glow intensity of the halo shell for a shell normal
// n and view direction v (fragment to eye). The shell is drawn back faces
// only, so it brightens as n turns away from the viewer.
func Atmosphere(n, v mgl64.Vec3) float64 {
	return math.Pow(math.Max(0, 0.7-n.Dot(v)), 8)
}

// AtmosphereColor returns the additive RGBA contribution of the halo.
func AtmosphereColor(n, v mgl64.Vec3) [4]float64 {
	k := Atmosphere(n, v)
	return [4]float64{AtmosphereTint[0] * k, AtmosphereTint[1] * k, AtmosphereTint[2] * k, AtmosphereTint[3] * k}
}
