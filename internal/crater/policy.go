// Package crater carves depression-and-rim stamps into a surface mesh.
package crater

import (
	"fmt"
	"strings"
)

// Policy selects the radial falloff of a crater.
type Policy int

const (
	FlatFloor Policy = iota
	ParabolicBowl
	Gaussian
)

func (p Policy) String() string {
	switch p {
	case FlatFloor:
		return "flat-floor"
	case ParabolicBowl:
		return "parabolic-bowl"
	case Gaussian:
		return "gaussian"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flat-floor", "flatfloor", "flat":
		return FlatFloor, nil
	case "parabolic-bowl", "parabolicbowl", "parabolic", "bowl":
		return ParabolicBowl, nil
	case "gaussian", "gauss":
		return Gaussian, nil
	}
	return FlatFloor, fmt.Errorf("unknown crater policy %q", s)
}

func (p Policy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Policy) UnmarshalText(b []byte) error {
	v, err := ParsePolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Metric is how the distance between a vertex and the crater centre is measured.
type Metric int

const (
	// Chord is the straight-line distance between base points.
	Chord Metric = iota
	// Geodesic is the great-circle arc length on the base sphere.
	Geodesic
)

func (m Metric) String() string {
	if m == Geodesic {
		return "geodesic"
	}
	return "chord"
}

func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "chord", "euclidean":
		return Chord, nil
	case "geodesic", "arc":
		return Geodesic, nil
	}
	return Chord, fmt.Errorf("unknown crater metric %q", s)
}

func (m Metric) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Metric) UnmarshalText(b []byte) error {
	v, err := ParseMetric(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
