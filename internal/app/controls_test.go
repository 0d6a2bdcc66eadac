package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Garsondee/Camshot/internal/game"
	"github.com/Garsondee/Camshot/internal/record"
)

type harness struct {
	clock *game.ManualClock
	eng   *game.Engine
	sink  *record.MemorySink
	c     *controls
	cfg   game.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := game.DefaultConfig()
	clock := game.NewManualClock(time.Unix(1_700_000_000, 0))
	logger := slog.New(slog.DiscardHandler)
	eng := game.NewEngine(cfg, game.WithClock(clock), game.WithRandomSeed(5), game.WithLogger(logger))
	sink := &record.MemorySink{}
	return &harness{
		clock: clock,
		eng:   eng,
		sink:  sink,
		cfg:   cfg,
		c: &controls{
			ctrl:      eng,
			clock:     clock,
			recorder:  record.New(eng, sink, 320, 180, record.WithLogger(logger)),
			copyText:  func(string) error { return nil },
			logger:    logger,
			frameStep: time.Second / 30,
		},
	}
}

// play starts a game and runs the countdown out.
func (h *harness) play() {
	h.c.apply(cmdTapGun)
	for h.eng.Phase() == game.PhaseCountdown {
		h.clock.Advance(time.Duration(h.cfg.CountdownStepMs) * time.Millisecond)
		h.eng.Tick()
	}
}

func (h *harness) step(d time.Duration) {
	h.clock.Advance(d)
	h.eng.Tick()
}

func TestControls_TapStartsThenFires(t *testing.T) {
	h := newHarness(t)
	h.c.apply(cmdTapGun)
	if ph := h.eng.Phase(); ph != game.PhaseCountdown {
		t.Fatalf("phase = %s, want COUNTDOWN", ph)
	}
	for h.eng.Phase() == game.PhaseCountdown {
		h.step(time.Duration(h.cfg.CountdownStepMs) * time.Millisecond)
	}
	h.c.apply(cmdTapGun)
	if n := h.eng.CurrentSnapshot().Score.TotalShots; n != 1 {
		t.Errorf("shots = %d, want 1", n)
	}
}

func TestControls_RecordingTimelineFollowsGameTime(t *testing.T) {
	h := newHarness(t)
	h.play()
	h.step(16 * time.Millisecond)

	h.c.apply(cmdToggleRecording)
	if !h.eng.CurrentSnapshot().Recording.Active {
		t.Fatal("recording flag not set")
	}
	startedAt := h.eng.CurrentSnapshot().Recording.StartedAt

	for i := 0; i < 30; i++ {
		h.step(16 * time.Millisecond)
		if err := h.c.capture(context.Background()); err != nil {
			t.Fatalf("capture: %v", err)
		}
	}

	frames := h.sink.Frames()
	// 480ms of recording at 30fps: frames at 0, 33, ... 466.
	if len(frames) != 15 {
		t.Fatalf("frames = %d, want 15", len(frames))
	}
	if frames[0].GameTime != startedAt {
		t.Errorf("first frame game time %d, want recording start %d", frames[0].GameTime, startedAt)
	}
	for i := 1; i < len(frames); i++ {
		if frames[i].GameTime <= frames[i-1].GameTime {
			t.Errorf("frame %d game time %d not after %d", i, frames[i].GameTime, frames[i-1].GameTime)
		}
	}

	h.c.apply(cmdToggleRecording)
	if h.eng.CurrentSnapshot().Recording.Active {
		t.Error("recording flag still set")
	}
	h.step(16 * time.Millisecond)
	if err := h.c.capture(context.Background()); err != nil {
		t.Fatalf("capture after stop: %v", err)
	}
	if n := len(h.sink.Frames()); n != 15 {
		t.Errorf("frames after stop = %d, want 15", n)
	}
}

func TestControls_ResetStopsRecording(t *testing.T) {
	h := newHarness(t)
	h.play()
	h.c.apply(cmdToggleRecording)
	h.c.apply(cmdReset)

	s := h.eng.CurrentSnapshot()
	if s.Phase != game.PhaseReady || s.Recording.Active {
		t.Errorf("after reset: phase %s recording %v", s.Phase, s.Recording.Active)
	}
}

func TestControls_CopyReplay(t *testing.T) {
	h := newHarness(t)
	var copied string
	h.c.copyText = func(s string) error {
		copied = s
		return nil
	}
	h.play()
	h.c.apply(cmdTapGun)
	h.c.apply(cmdCopyReplay)

	if !strings.Contains(copied, `"bullet_fired"`) {
		t.Errorf("replay JSON missing shot event:\n%s", copied)
	}

	h.c.copyText = func(string) error { return errors.New("no clipboard") }
	if err := h.c.copyReplay(); err == nil || !strings.Contains(err.Error(), "copy replay") {
		t.Errorf("err = %v, want wrapped clipboard error", err)
	}
}

func TestControls_Toggles(t *testing.T) {
	h := newHarness(t)
	h.c.apply(cmdToggleHUD)
	h.c.apply(cmdToggleMute)
	if !h.c.showHUD || !h.c.muted {
		t.Errorf("showHUD=%v muted=%v after toggles", h.c.showHUD, h.c.muted)
	}
}

func TestLatestFrame(t *testing.T) {
	var l latestFrame
	if _, ok := l.latest(); ok {
		t.Error("empty sink reported a frame")
	}
	ctx := context.Background()
	_ = l.WriteFrame(ctx, record.Frame{Index: 0})
	_ = l.WriteFrame(ctx, record.Frame{Index: 1})
	if f, ok := l.latest(); !ok || f.Index != 1 {
		t.Errorf("latest = %d,%v, want 1,true", f.Index, ok)
	}
	l.clear()
	if _, ok := l.latest(); ok {
		t.Error("cleared sink still reports a frame")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := l.WriteFrame(cancelled, record.Frame{}); err == nil {
		t.Error("cancelled context accepted")
	}
}
