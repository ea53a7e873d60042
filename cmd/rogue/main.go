package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cosiestdevil/rogue-2d/internal/config"
	"github.com/cosiestdevil/rogue-2d/internal/eventlog"
	"github.com/cosiestdevil/rogue-2d/internal/game"
	"github.com/cosiestdevil/rogue-2d/internal/observer"
	"github.com/cosiestdevil/rogue-2d/internal/render/ebitentex"
	"github.com/cosiestdevil/rogue-2d/internal/world"
)

func main() {
	cfg := config.DefaultConfig()
	flags := config.BindFlags(flag.CommandLine, cfg)
	flag.Parse()

	level, err := flags.Level()
	if err != nil {
		slog.Error("parse flags", "error", err)
		os.Exit(2)
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := flags.Resolve(ctx, flag.CommandLine, cfg); err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	var sinks world.MultiSink
	if cfg.EventLogDir != "" {
		journal := eventlog.NewJournal(cfg.EventLogDir, log)
		defer func() {
			if err := journal.Close(); err != nil {
				log.Error("close event log", "error", err)
			}
		}()
		sinks = append(sinks, journal)
	}

	// Assigned before the observer starts serving.
	var rt *world.Runtime
	var obs *observer.Server
	if cfg.ObserverAddr != "" {
		obs = observer.New(cfg, func() world.StatsSnapshot { return rt.Stats() }, log)
		sinks = append(sinks, obs)
	}

	textures := ebitentex.NewAssets()
	rt, err = world.NewRuntime(cfg, log, textures, world.Options{Sink: sinks})
	if err != nil {
		log.Error("create world runtime", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	if obs != nil {
		go func() {
			if err := obs.ListenAndServe(ctx, cfg.ObserverAddr); err != nil {
				log.Error("observer error", "error", err)
			}
		}()
	}

	g := game.New(ctx, cfg, rt, textures, log)
	if err := game.Run(g, "rogue-2d"); err != nil {
		log.Error("game error", "error", err)
		os.Exit(1)
	}
}
