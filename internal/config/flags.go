package config

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Flags holds the command-line options that are not Config fields.
type Flags struct {
	Path     string // local YAML file
	Source   string // go-getter source, fetched before loading
	LogLevel string
}

// BindFlags registers the shared flags on fs, defaulting to cfg's values.
func BindFlags(fs *flag.FlagSet, cfg *Config) *Flags {
	f := &Flags{LogLevel: "info"}
	fs.StringVar(&f.Path, "config", "", "path to a YAML config file")
	fs.StringVar(&f.Source, "config-src", "", "remote config source (git::, https://, s3::)")
	fs.StringVar(&f.LogLevel, "log-level", f.LogLevel, "log level: debug, info, warn, error")

	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "world seed")
	fs.IntVar(&cfg.SpawnChunks, "spawn-chunks", cfg.SpawnChunks, "spawn radius in chunks")
	fs.StringVar(&cfg.NoiseBasis, "basis", cfg.NoiseBasis, "noise basis: perlin, opensimplex, simplex")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "background generation workers (0 = CPU count)")
	fs.Uint64Var(&cfg.StartDelayFrames, "start-delay", cfg.StartDelayFrames, "frames before chunk generation starts")
	fs.StringVar(&cfg.EventLogDir, "event-log", cfg.EventLogDir, "directory for the compressed event journal")
	fs.StringVar(&cfg.ObserverAddr, "observer", cfg.ObserverAddr, "observer HTTP listen address")
	return f
}

// Resolve applies the config file named by the flags, if any, under the
// explicitly set flags of fs, then validates cfg. fs must already be parsed.
func (f *Flags) Resolve(ctx context.Context, fs *flag.FlagSet, cfg *Config) error {
	explicit := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { explicit[fl.Name] = true })

	path := f.Path
	if f.Source != "" {
		dir, err := os.MkdirTemp("", "rogue-config-")
		if err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		defer os.RemoveAll(dir)
		if path, err = Fetch(ctx, f.Source, dir); err != nil {
			return err
		}
	}
	if path != "" {
		fromFile, err := Load(path)
		if err != nil {
			return err
		}
		Merge(cfg, fromFile, explicit)
	}
	return Validate(cfg)
}

// Level parses the log level flag.
func (f *Flags) Level() (slog.Level, error) {
	switch strings.ToLower(f.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", f.LogLevel)
	}
}
