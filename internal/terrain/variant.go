package terrain

import (
	"fmt"
	"strings"
)

// Variant selects how octave samples are accumulated.
type Variant int

const (
	Simple Variant = iota
	Ridged
	Hybrid
)

func (v Variant) String() string {
	switch v {
	case Simple:
		return "simple"
	case Ridged:
		return "ridged"
	case Hybrid:
		return "hybrid"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// ParseVariant accepts the names used in config files and the demo's
// numeric uniform values ("0", "1", "2").
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "simple", "0":
		return Simple, nil
	case "ridged", "1":
		return Ridged, nil
	case "hybrid", "2":
		return Hybrid, nil
	}
	return Simple, fmt.Errorf("%w: unknown terrain variant %q", ErrInvalidConfiguration, s)
}

func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Variant) UnmarshalText(b []byte) error {
	parsed, err := ParseVariant(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
