package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gdamore/tcell/v2"

	"github.com/Garsondee/Camshot/internal/audio"
	"github.com/Garsondee/Camshot/internal/game"
	"github.com/Garsondee/Camshot/internal/render"
	"github.com/Garsondee/Camshot/internal/termview"
)

func main() {
	var configPath string
	var logPath string
	var sound bool

	flag.StringVar(&configPath, "config", "", "optional JSON tuning file")
	flag.StringVar(&logPath, "log", "", "write logs to this file (the terminal is busy)")
	flag.BoolVar(&sound, "audio", true, "play sound cues")
	flag.Parse()

	if err := run(configPath, logPath, sound); err != nil {
		fmt.Fprintf(os.Stderr, "termplay: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, logPath string, sound bool) error {
	logger := slog.New(slog.DiscardHandler)
	if logPath != "" {
		f, err := os.Create(logPath)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer f.Close()
		logger = slog.New(slog.NewJSONHandler(f, nil))
	}

	cfg := game.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = game.LoadConfig(configPath); err != nil {
			return err
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sess := game.NewSession(ctx, game.NewEngine(cfg, game.WithLogger(logger)))
	defer sess.Close()

	player := audio.NewPlayer(logger)
	if sound {
		if err := player.Init(); err != nil {
			logger.Warn("audio unavailable", "err", err)
		}
	}
	defer player.Close()

	renderer := render.Renderer{AlertMs: int64(cfg.AlertRemainingMs)}
	return termview.NewPlay(screen, sess, renderer, player, logger).Run(ctx)
}
