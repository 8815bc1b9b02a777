package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/izknhyt/kusozako-game-sub000/internal/component"
	"github.com/izknhyt/kusozako-game-sub000/internal/config"
	"github.com/izknhyt/kusozako-game-sub000/internal/core/event"
	"github.com/izknhyt/kusozako-game-sub000/internal/data"
	"github.com/izknhyt/kusozako-game-sub000/internal/geom"
	"github.com/izknhyt/kusozako-game-sub000/internal/persist"
	"github.com/izknhyt/kusozako-game-sub000/internal/scripting"
	"github.com/izknhyt/kusozako-game-sub000/internal/sim"
	"github.com/izknhyt/kusozako-game-sub000/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(mapName, seed string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m          kusozako skirmish  v0.1.0        \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mmap:\033[0m %s \033[90m(seed: %q)\033[0m\n\n", mapName, seed)
}

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := strconv.Itoa(count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Host ───────────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/skirmish.toml"
	if p := os.Getenv("SKIRMISH_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Load data tables and scripts
	tables, err := data.LoadAll(cfg.Simulation.DataDir)
	if err != nil {
		return fmt.Errorf("load tables: %w", err)
	}
	printBanner(tables.Map.Name, cfg.Simulation.Seed)
	printSection("data")

	luaEngine, err := scripting.NewEngine(cfg.Simulation.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	if tables.Map.WaveScript != "" {
		if tables.Waves, err = luaEngine.LoadWaveScript(tables.Map.WaveScript); err != nil {
			return fmt.Errorf("wave script: %w", err)
		}
		printOK("wave script " + tables.Map.WaveScript)
	}
	printStat("enemy types", tables.Units.EnemyCount())
	printStat("temperaments", tables.Temperaments.Count())
	printStat("gates", len(tables.Map.Gates))
	printStat("waves", len(tables.Waves.Waves))
	printOK("lua scripts loaded")
	fmt.Println()

	// 4. Telemetry
	printSection("telemetry")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sink, closeSink, err := openTelemetry(ctx, cfg, tables.Map.Name, log)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer closeSink()
	fmt.Println()

	// 5. Simulation
	bus := event.NewBus()
	telemetry.Bridge(bus, sink)
	opts := []sim.Option{
		sim.WithLogger(log),
		sim.WithBus(bus),
		sim.WithRespawnScript(luaEngine),
	}
	if d, ok := sink.(interface{ Dropped() uint64 }); ok {
		opts = append(opts, sim.WithDropCounter(d))
	}
	s, err := sim.New(sim.Config{
		FixedDt:          cfg.Simulation.FixedDt,
		MaxStepsPerFrame: cfg.Simulation.MaxStepsPerFrame,
		SeedPhrase:       cfg.Simulation.Seed,
		FrameArenaBytes:  cfg.Simulation.FrameArenaBytes,
		GridCellSize:     cfg.World.GridCellSize,
		MaxSpawnPerFrame: cfg.Spawner.MaxPerFrame,
	}, tables, opts...)
	if err != nil {
		return fmt.Errorf("simulation: %w", err)
	}

	// 6. Tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Simulation.TickRate)
	defer ticker.Stop()

	printSection("running")
	printReady(fmt.Sprintf("tick loop started (frame: %s, step: %.4fs)", cfg.Simulation.TickRate, cfg.Simulation.FixedDt))
	fmt.Println()

	pilot := &autopilot{}
	frameDt := cfg.Simulation.TickRate.Seconds()
	var outcome component.Outcome
	for {
		select {
		case <-ticker.C:
			if _, err := s.Advance(frameDt, pilot.input(s)); err != nil {
				return fmt.Errorf("advance: %w", err)
			}
			snap := s.Snapshot()
			if snap.Outcome != component.OutcomeNone && outcome == component.OutcomeNone {
				outcome = snap.Outcome
				log.Info("scenario decided",
					zap.Stringer("outcome", snap.Outcome),
					zap.Uint64("tick", snap.Tick),
					zap.Uint64("kills", snap.Counters.Kills))
			}
			if n := cfg.Simulation.Ticks; n > 0 && snap.Tick >= n {
				summarize(s, sink, log)
				return nil
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			summarize(s, sink, log)
			return nil
		}
	}
}

func summarize(s *sim.Simulation, sink telemetry.Sink, log *zap.Logger) {
	snap := s.Snapshot()
	c := snap.Counters
	sink.RecordEvent("run_summary", map[string]string{
		"tick":           strconv.FormatUint(snap.Tick, 10),
		"outcome":        snap.Outcome.String(),
		"kills":          strconv.FormatUint(c.Kills, 10),
		"deaths":         strconv.FormatUint(c.Deaths, 10),
		"events_lost":    strconv.FormatUint(c.EventsLost, 10),
		"scratch_aborts": strconv.FormatUint(c.ScratchAborts, 10),
	})
	log.Info("run finished",
		zap.Uint64("tick", snap.Tick),
		zap.Stringer("outcome", snap.Outcome),
		zap.Uint64("kills", c.Kills),
		zap.Uint64("deaths", c.Deaths),
		zap.Uint64("events_lost", c.EventsLost))
}

// openTelemetry builds the configured sink and a func that flushes and
// releases it.
func openTelemetry(ctx context.Context, cfg *config.Config, mapName string, log *zap.Logger) (telemetry.Sink, func(), error) {
	tc := cfg.Telemetry
	opts := telemetry.SQLOptions{Buffer: tc.Buffer, FlushEvery: tc.FlushEvery, FlushInterval: tc.FlushInterval}

	switch tc.Driver {
	case "jsonl":
		f, err := os.OpenFile(tc.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", tc.Path, err)
		}
		sink := telemetry.NewJSONLSink(f, tc.Buffer, log)
		printOK("json lines → " + tc.Path)
		return sink, closeAll(log, sink, f), nil

	case "sqlite":
		db, err := persist.OpenSQLite(ctx, tc.Path)
		if err != nil {
			return nil, nil, err
		}
		sink, err := telemetry.NewSQLSink(ctx, persist.NewSQLiteEventRepo(db), cfg.Simulation.Seed, mapName, opts, log)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		printOK(fmt.Sprintf("sqlite → %s (run %s)", tc.Path, sink.RunID()))
		return sink, closeAll(log, sink, db), nil

	case "postgres":
		db, err := persist.NewDB(ctx, tc, log)
		if err != nil {
			return nil, nil, fmt.Errorf("database: %w", err)
		}
		if err := persist.RunMigrations(ctx, db.Pool); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		sink, err := telemetry.NewSQLSink(ctx, persist.NewEventRepo(db), cfg.Simulation.Seed, mapName, opts, log)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		printOK(fmt.Sprintf("postgres connected (run %s)", sink.RunID()))
		return sink, func() {
			closeAll(log, sink)()
			db.Close()
		}, nil
	}

	printOK("telemetry disabled")
	return telemetry.Nop{}, func() {}, nil
}

func closeAll(log *zap.Logger, cs ...io.Closer) func() {
	return func() {
		for _, c := range cs {
			if err := c.Close(); err != nil {
				log.Warn("close telemetry", zap.Error(err))
			}
		}
	}
}

// autopilot stands in for a player: it calls the army to the commander's
// side and patrols in front of the base.
type autopilot struct {
	ordered bool
}

func (a *autopilot) input(s *sim.Simulation) component.Input {
	ws := s.State()
	var in component.Input
	if !a.ordered {
		a.ordered = true
		in.Actions = []component.Action{{Kind: component.ActionIssueOrder, Order: component.OrderFollow}}
	}
	if !ws.Commander.Alive {
		return in
	}
	anchor := ws.Base.Pos.Add(geom.V(ws.Base.Radius*4, 0))
	target := anchor.Add(geom.V(0, 120*math.Sin(ws.Time/4)))
	if d := target.Sub(ws.Commander.Pos); d.Len() > 4 {
		in.Move = d.Norm()
	}
	return in
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
