// Package config holds the planet settings: defaults, YAML loading and
// validation, and the live Store that classifies runtime changes.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"mini-planet/internal/crater"
	"mini-planet/internal/logging"
	"mini-planet/internal/noise"
	"mini-planet/internal/shading"
	"mini-planet/internal/surface"
	"mini-planet/internal/terrain"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// ErrInvalidSettings is wrapped by every validation failure.
var ErrInvalidSettings = errors.New("invalid settings")

const (
	MinResolution = 1
	MaxResolution = 300
	// MaxWorkers caps the goroutines used for one displacement pass.
	MaxWorkers = 64
)

// Settings is the whole configuration surface.
type Settings struct {
	Mesh    MeshSettings    `yaml:"mesh" json:"mesh"`
	Noise   NoiseSettings   `yaml:"noise" json:"noise"`
	Terrain TerrainSettings `yaml:"terrain" json:"terrain"`
	Craters CraterSettings  `yaml:"craters" json:"craters"`
	Layers  shading.Layers  `yaml:"layers" json:"layers"`
	Bump    BumpSettings    `yaml:"bump" json:"bump"`
	Light   shading.Light   `yaml:"light" json:"light"`
	Camera  CameraSettings  `yaml:"camera" json:"camera"`
	Server  ServerSettings  `yaml:"server" json:"server"`
	Log     LogSettings     `yaml:"log" json:"log"`
}

type MeshSettings struct {
	Shape      surface.Shape `yaml:"shape" json:"shape"`
	Resolution int           `yaml:"resolution" json:"resolution"`
	BaseRadius float64       `yaml:"base_radius" json:"baseRadius"`
	// Workers is the displacement parallelism; 0 means GOMAXPROCS.
	Workers int `yaml:"workers" json:"workers"`
}

type NoiseSettings struct {
	Kind noise.Kind `yaml:"kind" json:"kind"`
}

// TerrainSettings adds the displacement radius to the fBm parameters.
type TerrainSettings struct {
	Radius         float64 `yaml:"radius" json:"radius"`
	terrain.Params `yaml:",inline"`
}

type CraterSettings struct {
	Stamps  []crater.Spec         `yaml:"stamps" json:"stamps"`
	Scatter crater.ScatterOptions `yaml:"scatter" json:"scatter"`
}

type BumpSettings struct {
	Strength float64 `yaml:"strength" json:"strength"`
	Offset   float64 `yaml:"offset" json:"offset"`
}

type CameraSettings struct {
	Position mgl64.Vec3 `yaml:"position" json:"position"`
}

type ServerSettings struct {
	Addr        string `yaml:"addr" json:"addr"`
	MetricsAddr string `yaml:"metrics_addr" json:"metricsAddr"`
	Compress    bool   `yaml:"compress" json:"compress"`
}

type LogSettings struct {
	Level string `yaml:"level" json:"level"`
}

// Default returns the demo planet.
func Default() Settings {
	return Settings{
		Mesh:    MeshSettings{Shape: surface.Sphere, Resolution: 80, BaseRadius: 5},
		Noise:   NoiseSettings{Kind: noise.Perlin},
		Terrain: TerrainSettings{Radius: 15, Params: terrain.DefaultParams()},
		Craters: CraterSettings{
			Scatter: crater.ScatterOptions{
				Seed:      1,
				MinRadius: 0.2,
				MaxRadius: 1.2,
				MinDepth:  0.05,
				MaxDepth:  0.4,
				Policy:    crater.ParabolicBowl,
			},
		},
		Layers: shading.DefaultLayers(),
		Bump:   BumpSettings{Strength: 1, Offset: shading.DefaultBumpOffset},
		Light:  shading.DefaultLight(),
		Camera: CameraSettings{Position: mgl64.Vec3{100, 100, 4}},
		Server: ServerSettings{Addr: ":8080", MetricsAddr: ":2112", Compress: true},
		Log:    LogSettings{Level: "info"},
	}
}

// Clone returns a copy that shares no slices with s.
func (s Settings) Clone() Settings {
	c := s
	if s.Craters.Stamps != nil {
		c.Craters.Stamps = append([]crater.Spec(nil), s.Craters.Stamps...)
	}
	return c
}

// Load reads a YAML file over the defaults. An empty path falls back to
// $PLANET_CONFIG, and with neither set the defaults are returned.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		path = os.Getenv("PLANET_CONFIG")
		if path == "" {
			return s, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("config %s: %w", path, err)
	}
	return s, nil
}

// Save writes s as YAML.
func Save(path string, s Settings) error {
	data, err := yaml.Marshal(&s)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSettings, fmt.Sprintf(format, args...))
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Validate reports the first setting that cannot be used as is.
func (s Settings) Validate() error {
	m := s.Mesh
	if m.Shape != surface.Sphere && m.Shape != surface.CubeSphere {
		return invalid("mesh shape %d", int(m.Shape))
	}
	if m.Resolution < surface.MinResolution(m.Shape) || m.Resolution > MaxResolution {
		return invalid("mesh resolution %d out of [%d, %d] for %s",
			m.Resolution, surface.MinResolution(m.Shape), MaxResolution, m.Shape)
	}
	if !(m.BaseRadius > 0) || !finite(m.BaseRadius) {
		return invalid("mesh base radius must be positive, got %v", m.BaseRadius)
	}
	if m.Workers < 0 || m.Workers > MaxWorkers {
		return invalid("mesh workers %d out of [0, %d]", m.Workers, MaxWorkers)
	}
	if s.Noise.Kind < noise.Perlin || s.Noise.Kind > noise.Classic {
		return invalid("noise kind %d", int(s.Noise.Kind))
	}
	if !finite(s.Terrain.Radius) {
		return invalid("terrain radius %v", s.Terrain.Radius)
	}
	if err := s.Terrain.Params.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	for i, c := range s.Craters.Stamps {
		if !(c.Radius > 0) || !finite(c.Radius) || !finite(c.Depth) {
			return invalid("crater %d: radius %v depth %v", i, c.Radius, c.Depth)
		}
	}
	sc := s.Craters.Scatter
	if sc.Count < 0 {
		return invalid("scatter count %d", sc.Count)
	}
	if sc.Count > 0 && (!(sc.MinRadius > 0) || sc.MaxRadius < sc.MinRadius || sc.MaxDepth < sc.MinDepth) {
		return invalid("scatter ranges radius [%v, %v] depth [%v, %v]",
			sc.MinRadius, sc.MaxRadius, sc.MinDepth, sc.MaxDepth)
	}
	if s.Bump.Strength < 0 || s.Bump.Strength > 1 {
		return invalid("bump strength %v out of [0, 1]", s.Bump.Strength)
	}
	if !(s.Bump.Offset > 0) || !finite(s.Bump.Offset) {
		return invalid("bump offset must be positive, got %v", s.Bump.Offset)
	}
	if s.Light.Shininess < 0 || !finite(s.Light.Shininess) {
		return invalid("light shininess %v", s.Light.Shininess)
	}
	if s.Light.Direction.Len() == 0 {
		return invalid("light direction is zero")
	}
	if _, err := logging.ParseLevel(s.Log.Level); err != nil {
		return invalid("%v", err)
	}
	return nil
}

// Sanitize clamps every numeric setting into its usable range so that the
// renderer always has something to draw.
func (s Settings) Sanitize() Settings {
	s = s.Clone()
	if s.Mesh.Shape != surface.Sphere && s.Mesh.Shape != surface.CubeSphere {
		s.Mesh.Shape = surface.Sphere
	}
	s.Mesh.Resolution = ClampResolution(s.Mesh.Shape, s.Mesh.Resolution)
	if !(s.Mesh.BaseRadius > 0) || !finite(s.Mesh.BaseRadius) {
		s.Mesh.BaseRadius = Default().Mesh.BaseRadius
	}
	s.Mesh.Workers = clampInt(s.Mesh.Workers, 0, MaxWorkers)
	if s.Noise.Kind < noise.Perlin || s.Noise.Kind > noise.Classic {
		s.Noise.Kind = noise.Perlin
	}
	if !finite(s.Terrain.Radius) {
		s.Terrain.Radius = Default().Terrain.Radius
	}
	s.Terrain.Params = s.Terrain.Params.Sanitize()
	s.Bump.Strength = clampFloat(s.Bump.Strength, 0, 1)
	if !(s.Bump.Offset > 0) || !finite(s.Bump.Offset) {
		s.Bump.Offset = shading.DefaultBumpOffset
	}
	if s.Light.Shininess < 0 || !finite(s.Light.Shininess) {
		s.Light.Shininess = 0
	}
	if s.Light.Direction.Len() == 0 {
		s.Light.Direction = shading.DefaultLight().Direction
	}
	if _, err := logging.ParseLevel(s.Log.Level); err != nil {
		s.Log.Level = "info"
	}
	return s
}

// ClampResolution limits r to what the shape can build and the renderer
// can afford.
func ClampResolution(shape surface.Shape, r int) int {
	lo := surface.MinResolution(shape)
	if lo < MinResolution {
		lo = MinResolution
	}
	return clampInt(r, lo, MaxResolution)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if !(v >= lo) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
