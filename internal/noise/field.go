// Package noise provides deterministic scalar fields over 3D space.
//
// Every backend returns values in [-1, 1], is continuous, and reads only
// tables that are built once at package initialisation and never written
// afterwards, so a Field is safe for concurrent use.
package noise

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Field is a continuous pseudo-random scalar field.
type Field interface {
	Eval(p mgl64.Vec3) float64
}

// Kind selects a noise backend.
type Kind int

const (
	Perlin Kind = iota
	Simplex
	Classic
)

func (k Kind) String() string {
	switch k {
	case Perlin:
		return "perlin"
	case Simplex:
		return "simplex"
	case Classic:
		return "classic"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a config name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "perlin":
		return Perlin, nil
	case "simplex", "opensimplex":
		return Simplex, nil
	case "classic":
		return Classic, nil
	}
	return Perlin, fmt.Errorf("unknown noise kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// ForKind returns the process-wide instance of the requested backend.
// Unknown kinds fall back to Perlin.
func ForKind(k Kind) Field {
	switch k {
	case Simplex:
		return sharedSimplex
	case Classic:
		return sharedClassic
	default:
		return ImprovedPerlin{}
	}
}

// FieldFunc adapts a plain function to Field.
type FieldFunc func(p mgl64.Vec3) float64

func (f FieldFunc) Eval(p mgl64.Vec3) float64 { return f(p) }

func clampUnit(v float64) float64 {
	if v != v { // NaN
		return 0
	}
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
