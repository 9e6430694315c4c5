package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"mini-planet/internal/config"
	"mini-planet/internal/crater"
	"mini-planet/internal/graphics/renderables/atmosphere"
	"mini-planet/internal/graphics/renderables/hud"
	renderer "mini-planet/internal/graphics/renderer"
	"mini-planet/internal/input"
	"mini-planet/internal/logging"
	"mini-planet/internal/meshcodec"
	"mini-planet/internal/noise"
	"mini-planet/internal/planet"
	"mini-planet/internal/surface"
	"mini-planet/internal/terrain"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	orbitSpeed = 0.005 // radians per pixel
	zoomStep   = 0.9
)

// viewer owns the frame loop. Builds run on background goroutines and are
// picked up by the loop through the generator's published snapshot.
type viewer struct {
	window   *glfw.Window
	renderer *renderer.Renderer
	atm      *atmosphere.Atmosphere
	hud      *hud.HUD
	store    *config.Store
	gen      *planet.Generator
	input    *input.InputManager
	log      *logging.Logger
	limiter  *frameLimiter
	rng      *rand.Rand

	// applyMu serialises store changes with the generator work they cause.
	applyMu sync.Mutex

	mu      sync.Mutex
	want    config.ChangeKind
	cancel  context.CancelFunc
	latest  uint64
	busy    int
	lastMsg string
}

func newViewer(window *glfw.Window, r *renderer.Renderer, atm *atmosphere.Atmosphere, h *hud.HUD,
	store *config.Store, gen *planet.Generator, im *input.InputManager, log *logging.Logger, fps int) *viewer {
	return &viewer{
		window:   window,
		renderer: r,
		atm:      atm,
		hud:      h,
		store:    store,
		gen:      gen,
		input:    im,
		log:      log,
		limiter:  newFrameLimiter(fps),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (v *viewer) run() {
	for !v.window.ShouldClose() {
		v.handleInput()
		v.draw()
		v.input.PostUpdate()
		glfw.PollEvents()
		v.limiter.Wait()
	}
	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	v.mu.Unlock()
}

func (v *viewer) draw() {
	v.renderer.Render(v.gen.Current())
	v.window.SwapBuffers()
}

// status is shown on the overlay.
func (v *viewer) status() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.busy > 0 {
		return "building..."
	}
	return v.lastMsg
}

func (v *viewer) setStatus(format string, args ...any) {
	v.mu.Lock()
	v.lastMsg = fmt.Sprintf(format, args...)
	v.mu.Unlock()
}

func (v *viewer) handleInput() {
	im := v.input
	cam := v.renderer.Camera()

	if im.IsActive(input.ActionOrbit) {
		dx, dy := im.CursorDelta()
		cam.Orbit(float32(-dx*orbitSpeed), float32(dy*orbitSpeed))
	}
	if s := im.Scroll(); s != 0 {
		f := float32(zoomStep)
		if s < 0 {
			f = 1 / f
		}
		cam.Zoom(f)
	}

	if im.JustPressed(input.ActionQuit) {
		v.window.SetShouldClose(true)
	}
	if im.JustPressed(input.ActionToggleWireframe) {
		v.renderer.Wireframe = !v.renderer.Wireframe
	}
	if im.JustPressed(input.ActionToggleAtmosphere) {
		v.atm.Enabled = !v.atm.Enabled
	}
	if im.JustPressed(input.ActionToggleHUD) {
		v.hud.Visible = !v.hud.Visible
	}
	if im.JustPressed(input.ActionResolutionUp) {
		v.stepResolution(1)
	}
	if im.JustPressed(input.ActionResolutionDown) {
		v.stepResolution(-1)
	}
	if im.JustPressed(input.ActionCycleShape) {
		v.update(func(s *config.Settings) {
			s.Mesh.Shape = (s.Mesh.Shape + 1) % (surface.Sphere + 1)
		})
	}
	if im.JustPressed(input.ActionCycleNoise) {
		v.update(func(s *config.Settings) {
			s.Noise.Kind = (s.Noise.Kind + 1) % (noise.Classic + 1)
		})
	}
	if im.JustPressed(input.ActionCycleVariant) {
		v.update(func(s *config.Settings) {
			s.Terrain.Variant = (s.Terrain.Variant + 1) % (terrain.Hybrid + 1)
		})
	}
	if im.JustPressed(input.ActionStampCrater) {
		v.stamp()
	}
	if im.JustPressed(input.ActionExport) {
		v.export()
	}
}

// stepResolution moves by about a tenth of the current value, more with shift.
func (v *viewer) stepResolution(dir int) {
	r := v.store.Resolution()
	step := max(1, r/10)
	if v.input.IsActive(input.ActionModShift) {
		step = max(1, r/2)
	}
	if kind := v.store.SetResolution(r + dir*step); kind != config.ChangeNone {
		v.requestRebuild(kind)
	}
}

func (v *viewer) update(fn func(*config.Settings)) {
	_, kind, err := v.store.Update(func(s *config.Settings) error {
		fn(s)
		return nil
	})
	if err != nil {
		v.log.Warnf("update: %v", err)
		v.setStatus("rejected: %v", err)
		return
	}
	v.requestRebuild(kind)
}

// requestRebuild cancels any build in flight and starts one that covers
// every change requested since the last build that completed.
func (v *viewer) requestRebuild(kind config.ChangeKind) {
	if kind == config.ChangeNone {
		return
	}
	v.mu.Lock()
	if kind > v.want {
		v.want = kind
	}
	if v.cancel != nil {
		v.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel
	v.latest++
	id, want := v.latest, v.want
	v.busy++
	v.mu.Unlock()

	go func() {
		defer cancel()
		v.applyMu.Lock()
		snap, err := v.gen.Rebuild(ctx, v.store.Get(), want)
		v.applyMu.Unlock()

		v.mu.Lock()
		defer v.mu.Unlock()
		v.busy--
		switch {
		case err == nil:
			if id == v.latest {
				v.want = config.ChangeNone
			}
			v.lastMsg = fmt.Sprintf("%s rebuild done", want)
			v.log.Debugf("snapshot v%d (%s)", snap.Version, want)
		case errors.Is(err, context.Canceled):
			v.log.Debugf("rebuild %d superseded", id)
		default:
			v.lastMsg = "rebuild failed"
			v.log.Errorf("rebuild: %v", err)
		}
	}()
}

// stamp drops a crater on the point facing the camera.
func (v *viewer) stamp() {
	s := v.store.Get()
	sc := s.Craters.Scatter
	eye := v.renderer.Camera().Eye()
	dir := mgl64.Vec3{float64(eye[0]), float64(eye[1]), float64(eye[2])}.Normalize()
	spec := crater.Spec{
		Center: dir.Mul(s.Mesh.BaseRadius),
		Radius: sc.MinRadius + v.rng.Float64()*(sc.MaxRadius-sc.MinRadius),
		Depth:  sc.MinDepth + v.rng.Float64()*(sc.MaxDepth-sc.MinDepth),
		Policy: sc.Policy,
		Metric: sc.Metric,
	}

	v.mu.Lock()
	v.busy++
	v.mu.Unlock()
	go func() {
		defer func() {
			v.mu.Lock()
			v.busy--
			v.mu.Unlock()
		}()
		v.applyMu.Lock()
		defer v.applyMu.Unlock()
		if _, _, err := v.store.Update(func(s *config.Settings) error {
			s.Craters.Stamps = append(s.Craters.Stamps, spec)
			return nil
		}); err != nil {
			v.log.Warnf("stamp rejected: %v", err)
			return
		}
		if _, err := v.gen.Stamp(context.Background(), spec); err != nil {
			v.log.Errorf("stamp: %v", err)
			return
		}
		v.setStatus("crater r=%.2f d=%.2f", spec.Radius, spec.Depth)
	}()
}

// export writes the current mesh as Wavefront OBJ in the working directory.
func (v *viewer) export() {
	snap := v.gen.Current()
	if snap == nil {
		return
	}
	go func() {
		name := fmt.Sprintf("planet-v%d.obj", snap.Version)
		f, err := os.Create(name)
		if err != nil {
			v.log.Errorf("export: %v", err)
			return
		}
		err = meshcodec.WriteOBJ(f, snap.Mesh, "planet")
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			v.log.Errorf("export: %v", err)
			return
		}
		v.log.Infof("wrote %s", name)
		v.setStatus("wrote %s", name)
	}()
}
