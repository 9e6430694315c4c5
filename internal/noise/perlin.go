package noise

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Edge gradients of the improved noise reference, padded to 16 entries so
// the lookup is a mask instead of a modulo.
var (
	gradX = [16]float64{1, -1, 1, -1, 1, -1, 1, -1, 0, 0, 0, 0, 1, 0, -1, 0}
	gradY = [16]float64{1, 1, -1, -1, 0, 0, 0, 0, 1, -1, 1, -1, 1, -1, 1, -1}
	gradZ = [16]float64{0, 0, 0, 0, 1, 1, -1, -1, 1, 1, -1, -1, 0, 1, 0, -1}
)

var reference = [256]uint8{
	151, 160, 137, 91, 90, 15, 131, 13, 201, 95, 96, 53, 194, 233, 7, 225,
	140, 36, 103, 30, 69, 142, 8, 99, 37, 240, 21, 10, 23, 190, 6, 148,
	247, 120, 234, 75, 0, 26, 197, 62, 94, 252, 219, 203, 117, 35, 11, 32,
	57, 177, 33, 88, 237, 149, 56, 87, 174, 20, 125, 136, 171, 168, 68, 175,
	74, 165, 71, 134, 139, 48, 27, 166, 77, 146, 158, 231, 83, 111, 229, 122,
	60, 211, 133, 230, 220, 105, 92, 41, 55, 46, 245, 40, 244, 102, 143, 54,
	65, 25, 63, 161, 1, 216, 80, 73, 209, 76, 132, 187, 208, 89, 18, 169,
	200, 196, 135, 130, 116, 188, 159, 86, 164, 100, 109, 198, 173, 186, 3, 64,
	52, 217, 226, 250, 124, 123, 5, 202, 38, 147, 118, 126, 255, 82, 85, 212,
	207, 206, 59, 227, 47, 16, 58, 17, 182, 189, 28, 42, 223, 183, 170, 213,
	119, 248, 152, 2, 44, 154, 163, 70, 221, 153, 101, 155, 167, 43, 172, 9,
	129, 22, 39, 253, 19, 98, 108, 110, 79, 113, 224, 232, 178, 185, 112, 104,
	218, 246, 97, 228, 251, 34, 242, 193, 238, 210, 144, 12, 191, 179, 162, 241,
	81, 51, 145, 235, 249, 14, 239, 107, 49, 192, 214, 31, 181, 199, 106, 157,
	184, 84, 204, 176, 115, 121, 50, 45, 127, 4, 150, 254, 138, 236, 205, 93,
	222, 114, 67, 29, 24, 72, 243, 141, 128, 195, 78, 66, 215, 61, 156, 180,
}

// perm repeats the reference table so corner hashes never need wrapping.
var perm = func() (p [512]int) {
	for i := range p {
		p[i] = int(reference[i&255])
	}
	return p
}()

// ImprovedPerlin is gradient noise over the fixed reference permutation.
type ImprovedPerlin struct{}

// Eval returns the noise value at p, in [-1, 1].
func (ImprovedPerlin) Eval(p mgl64.Vec3) float64 {
	return clampUnit(improved(p[0], p[1], p[2]))
}

// fade is the quintic 6t^5 - 15t^4 + 10t^3.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

func grad(hash int, x, y, z float64) float64 {
	i := hash & 15
	return gradX[i]*x + gradY[i]*y + gradZ[i]*z
}

// lattice splits v into its wrapped cell index and the offset inside the cell.
func lattice(v float64) (int, float64) {
	f := math.Floor(v)
	frac := v - f
	if frac != frac || frac < 0 || frac >= 1 {
		// Precision is exhausted for very large |v|; the cell offset is gone.
		frac = 0
	}
	// Reduce before converting so huge inputs stay inside int range.
	cell := int(math.Mod(f, 256))
	return cell & 255, frac
}

func improved(x, y, z float64) float64 {
	X, x := lattice(x)
	Y, y := lattice(y)
	Z, z := lattice(z)

	u := fade(x)
	v := fade(y)
	w := fade(z)

	a := perm[X] + Y
	aa := perm[a] + Z
	ab := perm[a+1] + Z
	b := perm[X+1] + Y
	ba := perm[b] + Z
	bb := perm[b+1] + Z

	return lerp(w,
		lerp(v,
			lerp(u, grad(perm[aa], x, y, z), grad(perm[ba], x-1, y, z)),
			lerp(u, grad(perm[ab], x, y-1, z), grad(perm[bb], x-1, y-1, z))),
		lerp(v,
			lerp(u, grad(perm[aa+1], x, y, z-1), grad(perm[ba+1], x-1, y, z-1)),
			lerp(u, grad(perm[ab+1], x, y-1, z-1), grad(perm[bb+1], x-1, y-1, z-1))))
}
