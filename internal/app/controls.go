package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Garsondee/Camshot/internal/audio"
	"github.com/Garsondee/Camshot/internal/coords"
	"github.com/Garsondee/Camshot/internal/game"
	"github.com/Garsondee/Camshot/internal/record"
)

// Controller is the command surface of the running game. *game.Session is
// the production implementation; tests drive a bare *game.Engine.
type Controller interface {
	StartGame()
	StopGame()
	ResetGame()
	OnTap(x, y float64)
	SetRecording(on bool)
	CurrentSnapshot() game.GameState
	Lookup(ts int64) game.GameState
	EventsSince(session string, from int) (string, []game.GameEvent)
	ReplayData() game.Replay
}

// command is one player intent, independent of the input device.
type command int

const (
	cmdNone command = iota
	cmdTapGun
	cmdStop
	cmdReset
	cmdToggleRecording
	cmdCopyReplay
	cmdToggleHUD
	cmdToggleMute
)

// controls turns player intents into engine commands and runs the recording
// timeline.
type controls struct {
	ctrl     Controller
	clock    game.Clock
	recorder *record.Recorder
	player   *audio.Player
	copyText func(string) error
	logger   *slog.Logger

	showHUD   bool
	muted     bool
	recStart  time.Time
	nextFrame time.Duration
	frameStep time.Duration
}

// tap starts a game from READY, otherwise forwards the tap at p.
func (c *controls) tap(p coords.Point) {
	if c.ctrl.CurrentSnapshot().Phase == game.PhaseReady {
		c.ctrl.StartGame()
		return
	}
	c.ctrl.OnTap(p.X, p.Y)
}

func (c *controls) apply(cmd command) {
	switch cmd {
	case cmdTapGun:
		g := c.ctrl.CurrentSnapshot().Gun
		c.tap(coords.Point{X: g.X, Y: g.Y})
	case cmdStop:
		c.ctrl.StopGame()
	case cmdReset:
		c.stopRecording()
		c.ctrl.ResetGame()
	case cmdToggleRecording:
		if c.recording() {
			c.stopRecording()
		} else {
			c.startRecording()
		}
	case cmdCopyReplay:
		if err := c.copyReplay(); err != nil {
			c.logger.Warn("replay export failed", "err", err)
		}
	case cmdToggleHUD:
		c.showHUD = !c.showHUD
	case cmdToggleMute:
		c.muted = !c.muted
		if c.player != nil {
			c.player.SetMuted(c.muted)
		}
	}
}

func (c *controls) recording() bool {
	return c.ctrl.CurrentSnapshot().Recording.Active
}

func (c *controls) startRecording() {
	c.ctrl.SetRecording(true)
	c.recorder.Reset()
	c.recStart = c.clock.Now()
	c.nextFrame = 0
	c.logger.Info("recording on")
}

func (c *controls) stopRecording() {
	if !c.recording() {
		return
	}
	c.ctrl.SetRecording(false)
	c.logger.Info("recording off", "frames", c.recorder.Frames())
}

// capture renders every recording frame that fell due since the last call.
// Frames are paced by the recording clock, not by the display.
func (c *controls) capture(ctx context.Context) error {
	if !c.recording() {
		return nil
	}
	pts := c.clock.Now().Sub(c.recStart)
	for c.nextFrame <= pts {
		if _, err := c.recorder.Frame(ctx, c.nextFrame); err != nil {
			return err
		}
		c.nextFrame += c.frameStep
	}
	return nil
}

func (c *controls) copyReplay() error {
	data, err := c.ctrl.ReplayData().JSON()
	if err != nil {
		return fmt.Errorf("encode replay: %w", err)
	}
	if err := c.copyText(string(data)); err != nil {
		return fmt.Errorf("copy replay: %w", err)
	}
	c.logger.Info("replay copied", "bytes", len(data))
	return nil
}
