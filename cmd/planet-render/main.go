// Command planet-render builds a planet from a settings file and writes a
// PNG preview, with optional OBJ and binary mesh exports.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"mini-planet/internal/config"
	"mini-planet/internal/logging"
	"mini-planet/internal/meshcodec"
	"mini-planet/internal/planet"
	"mini-planet/internal/preview"
	"mini-planet/internal/profiling"
)

type options struct {
	config     string
	out        string
	obj        string
	frame      string
	size       int
	caption    string
	atmosphere bool
	craters    int
	seed       int64
	resolution int
}

func main() {
	var o options
	flag.StringVar(&o.config, "config", "", "settings file (default $PLANET_CONFIG)")
	flag.StringVar(&o.out, "out", "planet.png", "PNG output, empty to skip")
	flag.StringVar(&o.obj, "obj", "", "also write the mesh as Wavefront OBJ")
	flag.StringVar(&o.frame, "frame", "", "also write the binary mesh frame")
	flag.IntVar(&o.size, "size", 512, "image width and height")
	flag.StringVar(&o.caption, "caption", "", "caption drawn under the image")
	flag.BoolVar(&o.atmosphere, "atmosphere", true, "draw the atmosphere halo")
	flag.IntVar(&o.craters, "craters", -1, "scatter this many craters, overriding the config")
	flag.Int64Var(&o.seed, "seed", 0, "crater scatter seed, 0 keeps the config value")
	flag.IntVar(&o.resolution, "resolution", 0, "mesh resolution, 0 keeps the config value")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, o); err != nil {
		fmt.Fprintln(os.Stderr, "planet-render:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o options) error {
	cfg, err := config.Load(o.config)
	if err != nil {
		return err
	}
	if o.craters >= 0 {
		cfg.Craters.Scatter.Count = o.craters
	}
	if o.seed != 0 {
		cfg.Craters.Scatter.Seed = o.seed
	}
	if o.resolution > 0 {
		cfg.Mesh.Resolution = config.ClampResolution(cfg.Mesh.Shape, o.resolution)
	}
	if err := cfg.Validate(); err != nil {
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

	start := time.Now()
	snap, err := gen.Rebuild(ctx, cfg, config.ChangeTopology)
	if err != nil {
		return err
	}
	log.Infof("built %d vertices in %s (%s)", len(snap.Mesh.Vertices), time.Since(start).Round(time.Millisecond), prof.TopN(4))

	if o.obj != "" {
		if err := writeFile(o.obj, func(w io.Writer) error {
			return meshcodec.WriteOBJ(w, snap.Mesh, "planet")
		}); err != nil {
			return err
		}
		log.Infof("wrote %s", o.obj)
	}
	if o.frame != "" {
		data, err := meshcodec.Encode(snap.Mesh, snap.Colors, cfg.Server.Compress)
		if err != nil {
			return err
		}
		if err := os.WriteFile(o.frame, data, 0o644); err != nil {
			return err
		}
		log.Infof("wrote %s (%d bytes)", o.frame, len(data))
	}
	if o.out == "" {
		return nil
	}

	popts := preview.DefaultOptions()
	popts.Width, popts.Height = o.size, o.size
	popts.Atmosphere = o.atmosphere
	popts.Caption = o.caption
	start = time.Now()
	img, err := preview.Render(ctx, snap, popts)
	if err != nil {
		return err
	}
	if err := writeFile(o.out, func(w io.Writer) error { return preview.WritePNG(w, img) }); err != nil {
		return err
	}
	log.Infof("wrote %s in %s", o.out, time.Since(start).Round(time.Millisecond))
	return nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
