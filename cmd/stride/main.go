package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Versifine/stride/internal/arena"
	"github.com/Versifine/stride/internal/body"
	"github.com/Versifine/stride/internal/config"
	"github.com/Versifine/stride/internal/debug"
	"github.com/Versifine/stride/internal/event"
	"github.com/Versifine/stride/internal/logger"
	"github.com/Versifine/stride/internal/sim"
)

const usage = `usage:
  stride run     [-config path] [-scenario path] [-arena path] [-seed n]
  stride console [-config path] [-arena path] [-spawn name]
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "run":
		err = runScenario(ctx, os.Args[2:])
	case "console":
		err = runConsole(ctx, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		slog.Error("Command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func runScenario(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "configs/config.yaml", "config file")
	scenarioPath := fs.String("scenario", "scenarios/demo.yaml", "scenario file")
	arenaPath := fs.String("arena", "", "arena file, overrides config and scenario")
	seed := fs.Int64("seed", 0, "clock seed, 0 keeps the configured one")
	_ = fs.Parse(args)

	cfg, err := setup(*configPath)
	if err != nil {
		return err
	}
	if *seed != 0 {
		cfg.Simulation.Seed = *seed
	}
	sc, err := config.LoadScenario(*scenarioPath)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}

	path := firstNonEmpty(*arenaPath, sc.Arena, cfg.Simulation.Arena)
	spec, err := loadArena(path)
	if err != nil {
		return err
	}

	s, err := sim.New(cfg, spec, sc, sim.WithLogger(logger.With("sim")))
	if err != nil {
		return err
	}
	report, err := s.Run(ctx)
	if werr := report.Write(os.Stdout); werr != nil && err == nil {
		err = werr
	}
	return err
}

func runConsole(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("console", flag.ExitOnError)
	configPath := fs.String("config", "configs/config.yaml", "config file")
	arenaPath := fs.String("arena", "", "arena file, overrides config")
	spawnName := fs.String("spawn", "", "spawn point name, defaults to the first")
	_ = fs.Parse(args)

	cfg, err := setup(*configPath)
	if err != nil {
		return err
	}
	spec, err := loadArena(firstNonEmpty(*arenaPath, cfg.Simulation.Arena))
	if err != nil {
		return err
	}
	terrain, err := spec.Build()
	if err != nil {
		return err
	}
	km, err := cfg.Keymap()
	if err != nil {
		return err
	}

	spawn := arena.Spawn{Name: "center", X: spec.Width / 2, Z: spec.Depth / 2}
	if len(spec.Spawns) > 0 {
		spawn = spec.Spawns[0]
	}
	if *spawnName != "" {
		found := false
		for _, sp := range spec.Spawns {
			if sp.Name == *spawnName {
				spawn, found = sp, true
			}
		}
		if !found {
			return fmt.Errorf("arena %s has no spawn %q", spec.Name, *spawnName)
		}
	}

	bus := event.NewBus()
	logEvents(bus, logger.With("locomotion"))

	b, err := body.New("player", arena.SpawnPosition(terrain, spawn, 1), spawn.Yaw, terrain, cfg.Locomotion,
		body.WithPublisher(bus), body.WithKeymap(km), body.WithLogger(logger.With("body")))
	if err != nil {
		return err
	}
	return debug.NewConsole(b, km, cfg.Simulation.FixedStep).Start(ctx)
}

func setup(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadArena(path string) (arena.Spec, error) {
	if path == "" {
		return arena.Default(), nil
	}
	spec, err := arena.Load(os.DirFS(filepath.Dir(path)), filepath.Base(path))
	if err != nil {
		return arena.Spec{}, fmt.Errorf("load arena: %w", err)
	}
	return spec, nil
}

func logEvents(bus *event.Bus, l *slog.Logger) {
	for _, name := range []string{
		event.EventJump, event.EventCrouchStart, event.EventCrouchEnd,
		event.EventDodgeStart, event.EventDodgeEnd, event.EventStateChange,
	} {
		bus.Subscribe(name, func(raw any) {
			l.Debug("Event", "name", name, "payload", raw)
		})
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
