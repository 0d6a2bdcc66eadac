package termview

import (
	"context"
	"log/slog"
	"time"

	"github.com/atotto/clipboard"
	"github.com/gdamore/tcell/v2"

	"github.com/Garsondee/Camshot/internal/audio"
	"github.com/Garsondee/Camshot/internal/coords"
	"github.com/Garsondee/Camshot/internal/game"
	"github.com/Garsondee/Camshot/internal/render"
)

// Controller is the command surface of a running game. Both *game.Engine
// and *game.Session satisfy it.
type Controller interface {
	StartGame()
	StopGame()
	ResetGame()
	OnTap(x, y float64)
	SetRecording(on bool)
	CurrentSnapshot() game.GameState
	EventsSince(session string, from int) (string, []game.GameEvent)
	ReplayData() game.Replay
}

// Play binds a terminal screen to a game.
type Play struct {
	screen   tcell.Screen
	ctrl     Controller
	renderer render.Renderer
	player   *audio.Player
	logger   *slog.Logger
	frame    time.Duration
}

// NewPlay prepares a terminal game. player may be nil.
func NewPlay(screen tcell.Screen, ctrl Controller, renderer render.Renderer, player *audio.Player, logger *slog.Logger) *Play {
	if logger == nil {
		logger = slog.Default()
	}
	return &Play{
		screen:   screen,
		ctrl:     ctrl,
		renderer: renderer,
		player:   player,
		logger:   logger,
		frame:    33 * time.Millisecond,
	}
}

// Run redraws at a fixed rate and handles input until ctx ends or the
// player quits. The screen must already be initialized.
func (p *Play) Run(ctx context.Context) error {
	p.screen.EnableMouse()
	events := make(chan tcell.Event, 64)
	quit := make(chan struct{})
	go p.screen.ChannelEvents(events, quit)
	defer close(quit)

	ticker := time.NewTicker(p.frame)
	defer ticker.Stop()

	p.Redraw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok || !p.Handle(ev) {
				return nil
			}
		case <-ticker.C:
			if p.player != nil {
				p.player.Sync(p.ctrl.CurrentSnapshot(), p.ctrl)
			}
			p.Redraw()
		}
	}
}

// Redraw renders the current snapshot to the screen.
func (p *Play) Redraw() {
	cols, rows := p.screen.Size()
	w, h := Viewport(cols, rows)
	Draw(p.screen, p.renderer.Render(p.ctrl.CurrentSnapshot(), w, h, nil))
	p.screen.Show()
}

// Handle applies one terminal event. It returns false when the player asked
// to quit.
func (p *Play) Handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return p.key(ev)
	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 != 0 {
			cols, rows := p.screen.Size()
			x, y := ev.Position()
			at := coords.InputToGame(coords.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5},
				coords.Size{W: float64(cols), H: float64(rows)})
			p.tap(at)
		}
	case *tcell.EventResize:
		p.screen.Sync()
	}
	return true
}

func (p *Play) key(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyEnter:
		p.tap(coords.Centre)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		p.ctrl.ResetGame()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			g := p.ctrl.CurrentSnapshot().Gun
			p.tap(coords.Point{X: g.X, Y: g.Y})
		case 's':
			p.ctrl.StopGame()
		case 'r':
			p.ctrl.SetRecording(!p.ctrl.CurrentSnapshot().Recording.Active)
		case 'c':
			p.copyReplay()
		case 'm':
			if p.player != nil {
				p.player.SetMuted(true)
			}
		}
	}
	return true
}

// tap starts a game from READY, otherwise forwards the tap.
func (p *Play) tap(at coords.Point) {
	if p.ctrl.CurrentSnapshot().Phase == game.PhaseReady {
		p.ctrl.StartGame()
		return
	}
	p.ctrl.OnTap(at.X, at.Y)
}

func (p *Play) copyReplay() {
	data, err := p.ctrl.ReplayData().JSON()
	if err != nil {
		p.logger.Error("encode replay", "err", err)
		return
	}
	if err := clipboard.WriteAll(string(data)); err != nil {
		p.logger.Warn("copy replay", "err", err)
		return
	}
	p.logger.Info("replay copied", "bytes", len(data))
}
