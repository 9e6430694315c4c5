package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mini-planet/internal/crater"
	"mini-planet/internal/noise"
	"mini-planet/internal/surface"
	"mini-planet/internal/terrain"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
	assert.Equal(t, Default(), Default().Sanitize())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planet.yaml")
	doc := `
mesh:
  shape: cube-sphere
  resolution: 40
noise:
  kind: simplex
terrain:
  variant: ridged
  octaves: 4
craters:
  stamps:
    - center: [0, 5, 0]
      radius: 1
      depth: 0.3
      policy: flat-floor
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, surface.CubeSphere, s.Mesh.Shape)
	assert.Equal(t, 40, s.Mesh.Resolution)
	assert.Equal(t, 5.0, s.Mesh.BaseRadius)
	assert.Equal(t, noise.Simplex, s.Noise.Kind)
	assert.Equal(t, terrain.Ridged, s.Terrain.Variant)
	assert.Equal(t, 4, s.Terrain.Octaves)
	assert.Equal(t, terrain.DefaultParams().Amplitude, s.Terrain.Amplitude)
	require.Len(t, s.Craters.Stamps, 1)
	assert.Equal(t, crater.FlatFloor, s.Craters.Stamps[0].Policy)
	assert.Equal(t, mgl64.Vec3{0, 5, 0}, s.Craters.Stamps[0].Center)
	assert.Equal(t, "debug", s.Log.Level)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	t.Setenv("PLANET_CONFIG", "")
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("terrain:\n  period: -1\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSettings))
	assert.True(t, errors.Is(err, terrain.ErrInvalidConfiguration))
}

func TestLoadRejectsUnknownEnum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mesh:\n  shape: torus\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	s := Default()
	s.Mesh.Resolution = 33
	s.Craters.Stamps = []crater.Spec{{Center: mgl64.Vec3{5, 0, 0}, Radius: 0.5, Depth: 0.1, Policy: crater.Gaussian}}
	require.NoError(t, Save(path, s))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestValidateFailures(t *testing.T) {
	cases := map[string]func(*Settings){
		"resolution high":   func(s *Settings) { s.Mesh.Resolution = MaxResolution + 1 },
		"sphere too coarse": func(s *Settings) { s.Mesh.Shape = surface.Sphere; s.Mesh.Resolution = 2 },
		"base radius":       func(s *Settings) { s.Mesh.BaseRadius = 0 },
		"workers":           func(s *Settings) { s.Mesh.Workers = -1 },
		"octaves":           func(s *Settings) { s.Terrain.Octaves = -1 },
		"crater radius":     func(s *Settings) { s.Craters.Stamps = []crater.Spec{{Radius: 0}} },
		"scatter ranges":    func(s *Settings) { s.Craters.Scatter.Count = 3; s.Craters.Scatter.MaxRadius = 0.1 },
		"bump strength":     func(s *Settings) { s.Bump.Strength = 2 },
		"bump offset":       func(s *Settings) { s.Bump.Offset = 0 },
		"light direction":   func(s *Settings) { s.Light.Direction = mgl64.Vec3{} },
		"log level":         func(s *Settings) { s.Log.Level = "chatty" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := Default()
			mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSettings), err.Error())
		})
	}
}

func TestSanitizeClamps(t *testing.T) {
	s := Default()
	s.Mesh.Resolution = 1000
	s.Mesh.Workers = 500
	s.Bump.Strength = -3
	s.Terrain.Period = 0
	s.Log.Level = "chatty"
	got := s.Sanitize()
	assert.Equal(t, MaxResolution, got.Mesh.Resolution)
	assert.Equal(t, MaxWorkers, got.Mesh.Workers)
	assert.Equal(t, 0.0, got.Bump.Strength)
	assert.Equal(t, terrain.DefaultPeriod, got.Terrain.Period)
	assert.Equal(t, "info", got.Log.Level)
	assert.NoError(t, got.Validate())

	assert.Equal(t, 3, ClampResolution(surface.Sphere, 1))
	assert.Equal(t, 1, ClampResolution(surface.CubeSphere, -5))
}

func TestClassify(t *testing.T) {
	base := Default()
	cases := []struct {
		name   string
		mutate func(*Settings)
		want   ChangeKind
	}{
		{"nothing", func(*Settings) {}, ChangeNone},
		{"log level", func(s *Settings) { s.Log.Level = "debug" }, ChangeNone},
		{"workers", func(s *Settings) { s.Mesh.Workers = 2 }, ChangeNone},
		{"colour", func(s *Settings) { s.Layers.Colors[2] = mgl64.Vec3{1, 0, 0} }, ChangeShading},
		{"light", func(s *Settings) { s.Light.Ambient = 0.1 }, ChangeShading},
		{"bump", func(s *Settings) { s.Bump.Strength = 0.5 }, ChangeShading},
		{"amplitude", func(s *Settings) { s.Terrain.Amplitude = 2 }, ChangeGeometry},
		{"noise", func(s *Settings) { s.Noise.Kind = noise.Classic }, ChangeGeometry},
		{"stamp", func(s *Settings) {
			s.Craters.Stamps = append(s.Craters.Stamps, crater.Spec{Radius: 1, Depth: 0.1})
		}, ChangeGeometry},
		{"resolution", func(s *Settings) { s.Mesh.Resolution = 20 }, ChangeTopology},
		{"shape and colour", func(s *Settings) {
			s.Mesh.Shape = surface.CubeSphere
			s.Light.Ambient = 0
		}, ChangeTopology},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			next := base.Clone()
			c.mutate(&next)
			assert.Equal(t, c.want, Classify(base, next))
		})
	}
}

func TestStoreUpdate(t *testing.T) {
	st := NewStore(Default())

	s, kind, err := st.Update(func(s *Settings) error {
		s.Terrain.Octaves = 3
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, ChangeGeometry, kind)
	assert.Equal(t, 3, s.Terrain.Octaves)
	assert.Equal(t, 3, st.Get().Terrain.Octaves)

	boom := errors.New("boom")
	_, kind, err = st.Update(func(s *Settings) error {
		s.Terrain.Octaves = 9
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, ChangeNone, kind)
	assert.Equal(t, 3, st.Get().Terrain.Octaves)

	_, _, err = st.Update(func(s *Settings) error {
		s.Craters.Stamps = []crater.Spec{{Radius: -1}}
		return nil
	})
	assert.ErrorIs(t, err, ErrInvalidSettings)
	assert.Empty(t, st.Get().Craters.Stamps)
}

func TestStoreSetResolutionClamps(t *testing.T) {
	st := NewStore(Default())
	assert.Equal(t, ChangeTopology, st.SetResolution(5000))
	assert.Equal(t, MaxResolution, st.Resolution())
	assert.Equal(t, ChangeNone, st.SetResolution(5000))
}

func TestStoreGetIsACopy(t *testing.T) {
	s := Default()
	s.Craters.Stamps = []crater.Spec{{Radius: 1, Depth: 0.1}}
	st := NewStore(s)
	got := st.Get()
	got.Craters.Stamps[0].Depth = 99
	assert.Equal(t, 0.1, st.Get().Craters.Stamps[0].Depth)
}
