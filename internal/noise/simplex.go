package noise

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/ojrac/opensimplex-go"
)

// simplexSeed fixes the OpenSimplex permutation for the whole process.
const simplexSeed = 0x5eed

var sharedSimplex = &OpenSimplex{n: opensimplex.New(simplexSeed)}

// OpenSimplex wraps an opensimplex-go generator whose tables are never
// touched after construction.
type OpenSimplex struct {
	n opensimplex.Noise
}

// NewOpenSimplex builds a standalone generator. Most callers want
// ForKind(Simplex), which shares one instance.
func NewOpenSimplex(seed int64) *OpenSimplex {
	return &OpenSimplex{n: opensimplex.New(seed)}
}

func (s *OpenSimplex) Eval(p mgl64.Vec3) float64 {
	return clampUnit(s.n.Eval3(p[0], p[1], p[2]))
}
