package config

import (
	"fmt"
	"reflect"
	"sync"
)

// ChangeKind says how much of the planet an update invalidates. Kinds are
// ordered: a larger kind implies all the work of the smaller ones.
type ChangeKind int

const (
	// ChangeNone touches nothing the planet depends on.
	ChangeNone ChangeKind = iota
	// ChangeShading only affects per-fragment colour and lighting.
	ChangeShading
	// ChangeGeometry needs the current mesh displaced again.
	ChangeGeometry
	// ChangeTopology needs a new base mesh.
	ChangeTopology
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeNone:
		return "none"
	case ChangeShading:
		return "shading"
	case ChangeGeometry:
		return "geometry"
	case ChangeTopology:
		return "topology"
	}
	return fmt.Sprintf("ChangeKind(%d)", int(k))
}

// Classify compares two settings and returns the largest change between them.
func Classify(prev, next Settings) ChangeKind {
	if prev.Mesh.Shape != next.Mesh.Shape ||
		prev.Mesh.Resolution != next.Mesh.Resolution ||
		prev.Mesh.BaseRadius != next.Mesh.BaseRadius {
		return ChangeTopology
	}
	if prev.Noise != next.Noise || prev.Terrain != next.Terrain ||
		!reflect.DeepEqual(prev.Craters, next.Craters) {
		return ChangeGeometry
	}
	if prev.Layers != next.Layers || prev.Bump != next.Bump ||
		prev.Light != next.Light || prev.Camera != next.Camera {
		return ChangeShading
	}
	return ChangeNone
}

// Store holds the live settings. Readers get copies; writers go through
// Update so every change is sanitized and classified.
type Store struct {
	mu       sync.RWMutex
	settings Settings
}

// NewStore sanitizes s and keeps it as the current settings.
func NewStore(s Settings) *Store {
	return &Store{settings: s.Sanitize()}
}

// Get returns a copy of the current settings.
func (st *Store) Get() Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.settings.Clone()
}

// Update applies fn to a copy of the settings. The result is sanitized,
// validated and installed only if fn succeeds. On error nothing changes.
func (st *Store) Update(fn func(*Settings) error) (Settings, ChangeKind, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	next := st.settings.Clone()
	if err := fn(&next); err != nil {
		return st.settings.Clone(), ChangeNone, err
	}
	next = next.Sanitize()
	if err := next.Validate(); err != nil {
		return st.settings.Clone(), ChangeNone, err
	}
	kind := Classify(st.settings, next)
	st.settings = next
	return next.Clone(), kind, nil
}

// SetResolution clamps r for the current shape and reports the change.
func (st *Store) SetResolution(r int) ChangeKind {
	_, kind, _ := st.Update(func(s *Settings) error {
		s.Mesh.Resolution = ClampResolution(s.Mesh.Shape, r)
		return nil
	})
	return kind
}

// Resolution returns the current mesh resolution.
func (st *Store) Resolution() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.settings.Mesh.Resolution
}
