package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"blindspot/internal/app"
	"blindspot/internal/devtools"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "blindspot:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg := app.DefaultConfig()

	configPath := flag.String("config", app.DefaultConfigPath(), "path to YAML config file")
	apiURL := flag.String("api", cfg.APIBaseURL, "backend base URL")
	demo := flag.Bool("demo", false, "run against the built-in fixture backend")
	scenario := flag.String("scenario", "", "demo scenario to pre-seed (home, library, session_thinking, session_reveal, blindspots, fresh)")
	dataDir := flag.String("data-dir", "", "directory for tokens and local state")
	logPath := flag.String("log", "", "write a JSONL app log to this file")
	ascii := flag.Bool("ascii", false, "ASCII-only rendering")
	style := flag.String("style", cfg.UI.StyleVariant, "ui style variant (calm_focus, night_shift, paper_terminal)")
	motion := flag.String("motion", cfg.UI.MotionLevel, "ui motion level (off, reduced, full)")
	debugLayout := flag.Bool("debug-layout", false, "show layout debug info")
	flag.Parse()

	// Precedence: defaults, then config file, then environment, then flags.
	if err := cfg.ApplyFile(*configPath); err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "api":
			cfg.APIBaseURL = *apiURL
		case "demo":
			cfg.Demo = *demo
		case "scenario":
			cfg.DemoScenario = *scenario
		case "data-dir":
			cfg.DataDir = *dataDir
		case "log":
			cfg.LogPath = *logPath
		case "ascii":
			cfg.ASCIIOnly = *ascii
		case "style":
			cfg.UI.StyleVariant = *style
		case "motion":
			cfg.UI.MotionLevel = *motion
		case "debug-layout":
			cfg.DebugLayout = *debugLayout
		}
	})

	if cfg.Demo {
		srv := devtools.NewServer(devtools.ResolveScenario(cfg.DemoScenario))
		baseURL, err := srv.Start()
		if err != nil {
			return fmt.Errorf("start demo backend: %w", err)
		}
		defer srv.Close()
		cfg.APIBaseURL = baseURL
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.Run(ctx)
}
