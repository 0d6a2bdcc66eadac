// Package app is the desktop host: an ebiten Game that shows the live
// preview, feeds taps into the session, and plays the recording consumer in
// a picture-in-picture window while a capture is running.
package app

import (
	"context"
	"fmt"
	"image/color"
	"io/fs"
	"log/slog"
	"time"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/Camshot/internal/audio"
	"github.com/Garsondee/Camshot/internal/canvas"
	"github.com/Garsondee/Camshot/internal/coords"
	"github.com/Garsondee/Camshot/internal/game"
	"github.com/Garsondee/Camshot/internal/record"
	"github.com/Garsondee/Camshot/internal/render"
)

// pipScale is the picture-in-picture size as a fraction of the window.
const pipScale = 0.3

// pipMargin is the gap in pixels between the PiP and the window edge.
const pipMargin = 16

var (
	colBackdrop  = color.RGBA{R: 22, G: 26, B: 24, A: 255}
	colPipBorder = color.RGBA{R: 230, G: 30, B: 30, A: 255}
)

// keyBindings maps edge-triggered keys to commands.
var keyBindings = map[ebiten.Key]command{
	ebiten.KeySpace:     cmdTapGun,
	ebiten.KeyEnter:     cmdTapGun,
	ebiten.KeyEscape:    cmdStop,
	ebiten.KeyBackspace: cmdReset,
	ebiten.KeyR:         cmdToggleRecording,
	ebiten.KeyC:         cmdCopyReplay,
	ebiten.KeyH:         cmdToggleHUD,
	ebiten.KeyM:         cmdToggleMute,
}

// Options configures a Game.
type Options struct {
	Width, Height             int // window size
	RecordWidth, RecordHeight int
	RecordFPS                 int
	Sprites                   fs.FS // optional PNG sprites, named by render.SpriteID
	SpriteDir                 string
	Logger                    *slog.Logger
	Audio                     bool
}

// Game implements ebiten.Game.
type Game struct {
	width, height int

	ctx      context.Context
	sess     *game.Session
	painter  *canvas.Painter
	renderer render.Renderer

	controls
	pip    *latestFrame
	pipBuf *ebiten.Image
	err    error
}

// New wires a desktop game around sess.
func New(ctx context.Context, sess *game.Session, opts Options) (*Game, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	atlas := canvas.NewAtlas()
	if opts.Sprites != nil {
		a, err := canvas.LoadAtlas(opts.Sprites, opts.SpriteDir)
		if err != nil {
			return nil, fmt.Errorf("load sprites: %w", err)
		}
		atlas = a
		logger.Info("sprites loaded", "count", atlas.Len())
	}
	painter, err := canvas.NewPainter(atlas)
	if err != nil {
		return nil, err
	}

	player := audio.NewPlayer(logger)
	if opts.Audio {
		if err := player.Init(); err != nil {
			// Non-fatal, the game runs silent.
			logger.Warn("audio unavailable", "err", err)
		}
	}

	renderer := render.Renderer{AlertMs: int64(sess.Config().AlertRemainingMs)}
	pip := &latestFrame{}
	rec := record.New(sess, pip, opts.RecordWidth, opts.RecordHeight,
		record.WithRenderer(renderer),
		record.WithSprites(painter.Sprites()),
		record.WithLogger(logger),
	)
	fps := max(opts.RecordFPS, 1)

	g := &Game{
		width:    opts.Width,
		height:   opts.Height,
		ctx:      ctx,
		sess:     sess,
		painter:  painter,
		renderer: renderer,
		controls: controls{
			ctrl:      sess,
			clock:     game.SystemClock{},
			recorder:  rec,
			player:    player,
			copyText:  clipboard.WriteAll,
			logger:    logger,
			showHUD:   true,
			frameStep: time.Second / time.Duration(fps),
		},
		pip:    pip,
		pipBuf: ebiten.NewImage(opts.RecordWidth, opts.RecordHeight),
	}
	return g, nil
}

// Update handles input, advances the recording timeline and plays cues. The
// simulation itself ticks on the session goroutine.
func (g *Game) Update() error {
	if g.err != nil {
		return g.err
	}
	if err := g.ctx.Err(); err != nil {
		return ebiten.Termination
	}

	for k, cmd := range keyBindings {
		if inpututil.IsKeyJustPressed(k) {
			g.apply(cmd)
		}
	}
	for _, p := range g.justTapped() {
		g.tap(coords.InputToGame(p, coords.Size{W: float64(g.width), H: float64(g.height)}))
	}

	if !g.recording() {
		g.pip.clear()
	}
	if err := g.capture(g.ctx); err != nil {
		g.err = fmt.Errorf("record: %w", err)
		return g.err
	}
	g.player.Sync(g.sess.CurrentSnapshot(), g.sess)
	return nil
}

// justTapped returns new touches and left clicks in window pixels.
func (g *Game) justTapped() []coords.Point {
	var pts []coords.Point
	for _, id := range inpututil.AppendJustPressedTouchIDs(nil) {
		x, y := ebiten.TouchPosition(id)
		pts = append(pts, coords.Point{X: float64(x), Y: float64(y)})
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		pts = append(pts, coords.Point{X: float64(x), Y: float64(y)})
	}
	return pts
}

// Draw shows the live preview and, while recording, the recorded frame.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colBackdrop)
	s := g.sess.CurrentSnapshot()
	g.painter.Draw(screen, g.renderer.Render(s, g.width, g.height, g.painter.Sprites()))

	if f, ok := g.pip.latest(); ok {
		g.drawPiP(screen, f)
	}
	if g.showHUD {
		g.drawHelp(screen, s)
	}
}

func (g *Game) drawPiP(screen *ebiten.Image, f record.Frame) {
	g.pipBuf.Fill(colBackdrop)
	g.painter.Draw(g.pipBuf, f.Ops)

	w := float64(g.width) * pipScale
	scale := w / float64(f.Width)
	h := float64(f.Height) * scale
	x := float64(g.width) - w - pipMargin
	y := float64(g.height) - h - pipMargin

	opts := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear}
	opts.GeoM.Scale(scale, scale)
	opts.GeoM.Translate(x, y)
	screen.DrawImage(g.pipBuf, opts)
	vector.StrokeRect(screen, float32(x)-1, float32(y)-1, float32(w)+2, float32(h)+2, 2, colPipBorder, false)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("frame %d  t=%dms", f.Index, f.GameTime), int(x)+4, int(y)+4)
}

func (g *Game) drawHelp(screen *ebiten.Image, s game.GameState) {
	mute := ""
	if g.muted {
		mute = "  (muted)"
	}
	lines := fmt.Sprintf("%s  space/click=tap  esc=stop  backspace=reset\nR=record  C=copy replay  H=help  M=mute%s",
		s.Phase, mute)
	ebitenutil.DebugPrintAt(screen, lines, 8, g.height-40)
}

// Layout keeps a fixed logical resolution.
func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}

// Close stops audio and the session loop.
func (g *Game) Close() {
	g.player.Close()
	g.sess.Close()
}
