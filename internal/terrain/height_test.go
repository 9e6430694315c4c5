package terrain

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"mini-planet/internal/noise"

	"github.com/go-gl/mathgl/mgl64"
)

func demoParams() Params {
	return Params{
		Variant:     Ridged,
		Amplitude:   1.2,
		Sharpness:   1.6,
		Offset:      -0.016,
		Period:      3.2,
		Persistence: 0.484,
		Lacunarity:  1.5,
		Octaves:     10,
	}
}

func TestZeroOctavesIsAmplitudeTimesOffset(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, v := range []Variant{Simple, Ridged, Hybrid} {
		params := demoParams()
		params.Variant = v
		params.Octaves = 0
		for i := 0; i < 100; i++ {
			p := mgl64.Vec3{rng.NormFloat64() * 10, rng.NormFloat64() * 10, rng.NormFloat64() * 10}
			if got, want := Height(noise.ImprovedPerlin{}, p, params), params.Amplitude*params.Offset; got != want {
				t.Fatalf("%s with 0 octaves at %v = %v, want exactly %v", v, p, got, want)
			}
		}
	}
}

func TestNegativeOctavesBehaveLikeZero(t *testing.T) {
	params := demoParams()
	params.Octaves = -3
	if got := Height(noise.ImprovedPerlin{}, mgl64.Vec3{1, 2, 3}, params); got != params.Amplitude*params.Offset {
		t.Errorf("negative octaves: got %v, want %v", got, params.Amplitude*params.Offset)
	}
}

// TestDemoScenarioDeterministic evaluates the demo ridged terrain twice at the same point
func TestDemoScenarioDeterministic(t *testing.T) {
	params := demoParams()
	p := mgl64.Vec3{4.1, -2.3, 0.7}
	first := Height(noise.ImprovedPerlin{}, p, params)
	second := Height(noise.ImprovedPerlin{}, p, params)
	if math.Float64bits(first) != math.Float64bits(second) {
		t.Errorf("height not bit-identical: %v vs %v", first, second)
	}
}

func TestSimpleMatchesManualSum(t *testing.T) {
	field := noise.ImprovedPerlin{}
	params := demoParams()
	params.Variant = Simple
	params.Octaves = 3
	p := mgl64.Vec3{1.7, 0.4, -2.2}

	f0 := p.Mul(1 / params.Period)
	want := 0.0
	for i := 0; i < 3; i++ {
		want += math.Pow(params.Persistence, float64(i)) * field.Eval(f0.Mul(math.Pow(params.Lacunarity, float64(i))))
	}
	want = params.Amplitude * (want + params.Offset)

	if got := Height(field, p, params); math.Abs(got-want) > 1e-12 {
		t.Errorf("simple height = %v, want %v", got, want)
	}
}

func TestRidgedSingleOctave(t *testing.T) {
	// Constant field: every sample is 0.5, so ridge = 0.5^sharpness.
	field := noise.FieldFunc(func(mgl64.Vec3) float64 { return -0.5 })
	params := Params{Variant: Ridged, Amplitude: 2, Sharpness: 2, Offset: 0.1, Period: 1, Persistence: 0.5, Lacunarity: 2, Octaves: 1}
	want := 2 * (0.25 + 0.1)
	if got := Height(field, mgl64.Vec3{}, params); math.Abs(got-want) > 1e-12 {
		t.Errorf("ridged single octave = %v, want %v", got, want)
	}
}

func TestHybridMixesSimpleAndRidged(t *testing.T) {
	field := noise.FieldFunc(func(mgl64.Vec3) float64 { return 0.5 })
	params := Params{Variant: Hybrid, Amplitude: 1, Sharpness: 1, Period: 1, Persistence: 1, Lacunarity: 1, Octaves: 1}
	want := (1-HybridRidgeWeight)*0.5 + HybridRidgeWeight*0.5
	if got := Height(field, mgl64.Vec3{}, params); math.Abs(got-want) > 1e-12 {
		t.Errorf("hybrid = %v, want %v", got, want)
	}
}

func TestOutOfRangeParamsStayFinite(t *testing.T) {
	cases := []Params{
		{Variant: Simple, Amplitude: 1, Period: 0, Persistence: 0.5, Lacunarity: 2, Octaves: 8},
		{Variant: Simple, Amplitude: 1, Period: -2, Persistence: 0.5, Lacunarity: -1, Octaves: 8},
		{Variant: Simple, Amplitude: 1, Period: 1, Persistence: 1e200, Lacunarity: 2, Octaves: 32},
		{Variant: Ridged, Amplitude: 1, Sharpness: -4, Period: 1, Persistence: 3, Lacunarity: 7, Octaves: 12},
		{Variant: Hybrid, Amplitude: 1e300, Sharpness: 1, Period: 1, Persistence: 1e10, Lacunarity: 1e10, Octaves: 64},
	}
	for i, params := range cases {
		h := Height(noise.ImprovedPerlin{}, mgl64.Vec3{0.3, 0.6, 0.9}, params)
		if math.IsNaN(h) || math.IsInf(h, 0) {
			t.Errorf("case %d: height = %v, want finite", i, h)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}
	bad := []Params{
		func() Params { p := DefaultParams(); p.Period = 0; return p }(),
		func() Params { p := DefaultParams(); p.Lacunarity = -1; return p }(),
		func() Params { p := DefaultParams(); p.Octaves = -1; return p }(),
		func() Params { p := DefaultParams(); p.Variant = Variant(9); return p }(),
		func() Params { p := DefaultParams(); p.Amplitude = math.NaN(); return p }(),
	}
	for i, p := range bad {
		if err := p.Validate(); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("case %d: Validate() = %v, want ErrInvalidConfiguration", i, err)
		}
	}
}

func TestVariantText(t *testing.T) {
	for _, v := range []Variant{Simple, Ridged, Hybrid} {
		b, _ := v.MarshalText()
		var back Variant
		if err := back.UnmarshalText(b); err != nil || back != v {
			t.Errorf("variant %v round trip: got %v, %v", v, back, err)
		}
	}
	if v, err := ParseVariant("2"); err != nil || v != Hybrid {
		t.Errorf("ParseVariant(2) = %v, %v", v, err)
	}
}

func BenchmarkHeightDemo(b *testing.B) {
	params := demoParams()
	p := mgl64.Vec3{1, 2, 3}
	for i := 0; i < b.N; i++ {
		_ = Height(noise.ImprovedPerlin{}, p, params)
	}
}
