package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/Camshot/internal/app"
	"github.com/Garsondee/Camshot/internal/game"
)

func main() {
	var configPath string
	var spriteDir string
	var width, height int
	var recW, recH, recFPS int
	var sound bool
	var debug bool

	flag.StringVar(&configPath, "config", "", "optional JSON tuning file")
	flag.StringVar(&spriteDir, "sprites", "", "directory of <sprite>.png files; empty draws primitives")
	flag.IntVar(&width, "width", 1280, "window width")
	flag.IntVar(&height, "height", 720, "window height")
	flag.IntVar(&recW, "rec-width", 1280, "recorded frame width")
	flag.IntVar(&recH, "rec-height", 720, "recorded frame height")
	flag.IntVar(&recFPS, "rec-fps", 30, "recorded frames per second")
	flag.BoolVar(&sound, "audio", true, "play sound cues")
	flag.BoolVar(&debug, "debug", false, "log at debug level")
	flag.Parse()

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := game.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = game.LoadConfig(configPath); err != nil {
			log.Fatal(err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sess := game.NewSession(ctx, game.NewEngine(cfg, game.WithLogger(logger)))
	opts := app.Options{
		Width:        width,
		Height:       height,
		RecordWidth:  recW,
		RecordHeight: recH,
		RecordFPS:    recFPS,
		Logger:       logger,
		Audio:        sound,
	}
	if spriteDir != "" {
		opts.Sprites = os.DirFS(spriteDir)
		opts.SpriteDir = "."
	}
	g, err := app.New(ctx, sess, opts)
	if err != nil {
		log.Fatal(err)
	}
	defer g.Close()

	ebiten.SetWindowTitle("Camshot")
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
