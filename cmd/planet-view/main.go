package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"mini-planet/internal/config"
	"mini-planet/internal/graphics"
	"mini-planet/internal/graphics/renderables/atmosphere"
	"mini-planet/internal/graphics/renderables/hud"
	"mini-planet/internal/graphics/renderables/planetmesh"
	renderer "mini-planet/internal/graphics/renderer"
	"mini-planet/internal/input"
	"mini-planet/internal/logging"
	"mini-planet/internal/planet"
	"mini-planet/internal/profiling"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	var (
		cfgPath = flag.String("config", "", "settings file (default $PLANET_CONFIG)")
		width   = flag.Int("width", 900, "window width")
		height  = flag.Int("height", 600, "window height")
		fps     = flag.Int("fps", 60, "frame cap, 0 for none")
		cube    = flag.Int("height-cube", planet.DefaultHeightCubeSize, "height cube face size for bump shading")
	)
	flag.Parse()

	if err := run(*cfgPath, *width, *height, *fps, *cube); err != nil {
		fmt.Fprintln(os.Stderr, "planet-view:", err)
		os.Exit(1)
	}
}

func run(cfgPath string, width, height, fps, cubeSize int) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	log := logging.New(os.Stderr, level)

	prof := new(profiling.Profile)
	gen, err := planet.NewGenerator(planet.Options{Logger: log.With("planet"), Profile: prof})
	if err != nil {
		return err
	}
	defer gen.Close()

	store := config.NewStore(cfg)
	if _, err := gen.Rebuild(context.Background(), store.Get(), config.ChangeTopology); err != nil {
		return err
	}

	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()

	window, err := setupWindow(width, height)
	if err != nil {
		return err
	}

	camera := graphics.NewCamera(width, height, cfg.Camera.Position)
	atm := atmosphere.New()
	overlay := hud.New(prof, width, height)
	r, err := renderer.NewRenderer(camera, prof,
		planetmesh.New(log.With("gl"), cubeSize),
		atm,
		overlay,
	)
	if err != nil {
		return err
	}
	defer r.Dispose()

	im := input.NewInputManager()
	im.Install(window)

	v := newViewer(window, r, atm, overlay, store, gen, im, log, fps)
	overlay.Status = v.status

	window.SetFramebufferSizeCallback(func(w *glfw.Window, fbWidth, fbHeight int) {
		r.UpdateViewport(fbWidth, fbHeight)
		overlay.SetViewport(w.GetSize())
	})
	window.SetRefreshCallback(func(w *glfw.Window) {
		v.draw()
	})

	v.run()
	return nil
}

func setupWindow(width, height int) (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	window, err := glfw.CreateWindow(width, height, "mini-planet", nil, nil)
	if err != nil {
		return nil, err
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		return nil, err
	}
	glfw.SwapInterval(0)
	return window, nil
}
