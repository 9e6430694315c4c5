package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mini-planet/internal/config"
	"mini-planet/internal/logging"
	"mini-planet/internal/planet"
	"mini-planet/internal/profiling"
	"mini-planet/internal/server"

	"golang.org/x/sync/errgroup"
)

const shutdownGrace = 5 * time.Second

func main() {
	cfgPath := flag.String("config", "", "settings file (default $PLANET_CONFIG)")
	addr := flag.String("addr", "", "listen address, overrides the config")
	flag.Parse()

	if err := run(*cfgPath, *addr); err != nil {
		fmt.Fprintln(os.Stderr, "planet-server:", err)
		os.Exit(1)
	}
}

func run(cfgPath, addr string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	log := logging.New(os.Stderr, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := server.NewMetrics()
	prof := new(profiling.Profile)
	gen, err := planet.NewGenerator(planet.Options{
		Logger:   log.With("planet"),
		Profile:  prof,
		Observer: metrics,
	})
	if err != nil {
		return err
	}
	defer gen.Close()

	store := config.NewStore(cfg)
	start := time.Now()
	snap, err := gen.Rebuild(ctx, store.Get(), config.ChangeTopology)
	if err != nil {
		return err
	}
	log.Infof("initial planet: %d vertices in %s (%s)", len(snap.Mesh.Vertices), time.Since(start).Round(time.Millisecond), prof.TopN(3))

	srv := server.New(store, gen, metrics, prof, log.With("server"))
	servers := []*http.Server{{Addr: cfg.Server.Addr, Handler: srv.Handler()}}
	if m := cfg.Server.MetricsAddr; m != "" && m != cfg.Server.Addr {
		servers = append(servers, &http.Server{Addr: m, Handler: metrics.Handler()})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, hs := range servers {
		hs := hs
		g.Go(func() error {
			log.Infof("listening on %s", hs.Addr)
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", hs.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Infof("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		var errs []error
		for _, hs := range servers {
			errs = append(errs, hs.Shutdown(sctx))
		}
		return errors.Join(errs...)
	})
	return g.Wait()
}
