package game

import (
	"math"
	"reflect"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/Garsondee/Camshot/internal/game/mocks"
)

// dumpLog prints the full SimLog to t.Log so it appears in `go test -v` output.
func dumpLog(t *testing.T, ts *TestSim) {
	t.Helper()
	entries := ts.SimLog.Entries()
	if len(entries) == 0 {
		t.Log("(no log entries)")
		return
	}
	for _, e := range entries {
		t.Log(e.String())
	}
}

// dumpSummary prints the scenario summary block.
func dumpSummary(t *testing.T, ts *TestSim) {
	t.Helper()
	t.Log(ts.SimLog.Summary(ts.CurrentTick(), ts.State()))
}

// solidY is a height that misses both default gaps.
const solidY = 0.5

// --- Scenario A: countdown ---

func TestScenario_Countdown(t *testing.T) {
	ts := NewTestSim(WithSeed(1))

	ts.Engine.StartGame()
	seq := []int{ts.State().Countdown}
	for ts.State().Phase == PhaseCountdown {
		ts.Clock.Advance(time.Second)
		ts.Engine.Tick()
		if ts.State().Phase == PhaseCountdown {
			seq = append(seq, ts.State().Countdown)
		}
	}
	dumpLog(t, ts)

	if got := ts.State().Phase; got != PhasePlaying {
		t.Fatalf("phase = %s, want playing", got)
	}
	if !reflect.DeepEqual(seq, []int{3, 2, 1}) {
		t.Errorf("countdown sequence = %v, want [3 2 1]", seq)
	}
	if ts.State().Timestamp != 0 {
		t.Errorf("play starts at %dms, want 0", ts.State().Timestamp)
	}
	if !ts.SimLog.HasEntry("phase", "change", "countdown → playing") {
		t.Error("missing phase change entry")
	}
}

func TestScenario_CountdownIgnoresTaps(t *testing.T) {
	ts := NewTestSim(WithSeed(1))
	ts.Engine.StartGame()
	ts.Tap()
	ts.Clock.Advance(500 * time.Millisecond)
	ts.Engine.Tick()
	ts.Tap()

	if n := len(ts.Events()); n != 0 {
		t.Errorf("events during countdown = %d, want 0", n)
	}
	if ts.State().Score.TotalShots != 0 {
		t.Error("shot fired during countdown")
	}
}

// --- Scenario B: a tap fires one bullet ---

func TestScenario_TapFires(t *testing.T) {
	ts := NewTestSim(WithSeed(1))
	ts.Start()

	g := ts.State().Gun
	ts.Engine.OnTap(0.9, g.Y)
	s := ts.State()

	if len(s.Bullets) != 1 {
		t.Fatalf("bullets = %d, want 1", len(s.Bullets))
	}
	b := s.Bullets[0]
	if b.State != BulletFlying {
		t.Errorf("bullet state = %s, want flying", b.State)
	}
	if b.X != g.MuzzleX(ts.Cfg.MuzzleOffset) || b.Y != g.Y {
		t.Errorf("bullet at (%.3f,%.3f), want muzzle (%.3f,%.3f)", b.X, b.Y, g.MuzzleX(ts.Cfg.MuzzleOffset), g.Y)
	}
	if b.VX != -ts.Cfg.BulletSpeed || b.VY != 0 {
		t.Errorf("bullet velocity (%.2f,%.2f)", b.VX, b.VY)
	}
	if s.Score.TotalShots != 1 {
		t.Errorf("total shots = %d, want 1", s.Score.TotalShots)
	}
	if !s.Gun.Recoil.Active || s.Gun.Recoil.Progress != 0 {
		t.Errorf("recoil = %+v, want active at progress 0", s.Gun.Recoil)
	}
	if len(s.Effects) != 1 || s.Effects[0].Kind != EffectMuzzleFlash {
		t.Errorf("effects = %+v, want one muzzle flash", s.Effects)
	}

	evs := ts.Events()
	if CountEvents(evs, EventTap) != 1 || CountEvents(evs, EventBulletFired) != 1 {
		t.Errorf("events = %+v", evs)
	}
}

func TestScenario_RecoilDebounce(t *testing.T) {
	ts := NewTestSim(WithSeed(1))
	ts.Start()

	ts.Tap()
	ts.Tap()
	if got := ts.State().Score.TotalShots; got != 1 {
		t.Fatalf("shots after double tap = %d, want 1", got)
	}
	evs := ts.Events()
	if CountEvents(evs, EventTap) != 2 || CountEvents(evs, EventBulletFired) != 1 {
		t.Errorf("tap/fired = %d/%d, want 2/1", CountEvents(evs, EventTap), CountEvents(evs, EventBulletFired))
	}
	if !ts.SimLog.HasEntry("shot", "debounced", "") {
		t.Error("missing debounce entry")
	}

	// 10 ticks of 16ms outlast the 150ms recoil.
	ts.RunTicks(10)
	if ts.State().Gun.Recoil.Active {
		t.Fatalf("recoil still active: %+v", ts.State().Gun.Recoil)
	}
	ts.Tap()
	if got := ts.State().Score.TotalShots; got != 2 {
		t.Errorf("shots after recoil = %d, want 2", got)
	}
}

func TestScenario_RecoilCurvePeaks(t *testing.T) {
	ts := NewTestSim(WithSeed(1))
	ts.Start()
	ts.Tap()

	peak := 0.0
	for i := 0; i < 10; i++ {
		ts.Step()
		r := ts.State().Gun.Recoil
		if r.Rotation > peak {
			peak = r.Rotation
		}
		if r.Rotation > ts.Cfg.RecoilMaxRotation+1e-9 {
			t.Fatalf("rotation %.3f exceeds max", r.Rotation)
		}
	}
	if peak < ts.Cfg.RecoilMaxRotation*0.8 {
		t.Errorf("recoil peak rotation %.2f, want near %.2f", peak, ts.Cfg.RecoilMaxRotation)
	}
	if r := ts.State().Gun.Recoil; r.Rotation != 0 || r.OffsetX != 0 {
		t.Errorf("recoil not settled: %+v", r)
	}
}

// --- Scenario C: a blocked bullet bounces ---

func TestScenario_BulletBlocked(t *testing.T) {
	cfg := DefaultConfig()
	ts := NewTestSim(
		WithSeed(1),
		WithBullet(Bullet{X: cfg.BarrierX, Y: solidY, VX: -1.2, State: BulletFlying}),
	)
	ts.Start()
	ts.Step()
	dumpLog(t, ts)

	s := ts.State()
	if len(s.Bullets) != 1 {
		t.Fatalf("bullets = %d, want 1", len(s.Bullets))
	}
	b := s.Bullets[0]
	if b.State != BulletBouncing || b.Bounces != 1 {
		t.Errorf("bullet = %+v, want bouncing with 1 bounce", b)
	}
	if b.VX <= 0 {
		t.Errorf("ricochet vx = %.3f, want positive", b.VX)
	}
	sparks := 0
	for _, fx := range s.Effects {
		if fx.Kind == EffectSpark {
			sparks++
			if fx.X != s.Barrier.X+s.Barrier.Width {
				t.Errorf("spark at x=%.3f, want barrier edge", fx.X)
			}
		}
	}
	if sparks != 1 {
		t.Errorf("sparks = %d, want 1", sparks)
	}
	if n := CountEvents(ts.Events(), EventBulletBlocked); n != 1 {
		t.Errorf("blocked events = %d, want 1", n)
	}
}

func TestScenario_BounceWithMockedRandom(t *testing.T) {
	ctrl := gomock.NewController(t)
	rng := mocks.NewMockRandom(ctrl)
	rng.EXPECT().Float64().Return(0.5).Times(2)

	ts := NewTestSim(
		WithRNG(rng),
		WithBullet(Bullet{X: 0.48, Y: solidY, VX: -1.2, State: BulletFlying}),
	)
	ts.Start()
	ts.Step()

	b := ts.State().Bullets[0]
	// vx' = 1.2 * 0.6 * (0.8 + 0.5*0.4), vy' = (0.5-0.5)*0.3
	if math.Abs(b.VX-0.72) > 1e-9 || b.VY != 0 {
		t.Errorf("ricochet velocity (%.4f,%.4f), want (0.72,0)", b.VX, b.VY)
	}
}

func TestScenario_BounceCapDestroys(t *testing.T) {
	ts := NewTestSim(
		WithSeed(1),
		WithBullet(Bullet{X: 0.48, Y: solidY, VX: -1.2, State: BulletFlying, Bounces: 3}),
	)
	ts.Start()
	ts.Step()

	s := ts.State()
	if len(s.Bullets) != 1 || s.Bullets[0].State != BulletDestroyed {
		t.Fatalf("bullets = %+v, want one destroyed", s.Bullets)
	}
	if s.Bullets[0].Bounces != 3 {
		t.Errorf("bounces = %d, want 3", s.Bullets[0].Bounces)
	}
	ts.Step()
	if n := len(ts.State().Bullets); n != 0 {
		t.Errorf("destroyed bullet survived a second tick (%d bullets)", n)
	}
}

func TestScenario_GapPassage(t *testing.T) {
	gapY := DefaultConfig().Gaps[1].Mid()
	ts := NewTestSim(
		WithSeed(1),
		WithTargetY(0.9), // keep the target out of the way
		WithBullet(Bullet{X: 0.55, Y: gapY, VX: -1.2, State: BulletFlying}),
	)
	ts.Start()
	ts.RunTicks(10) // 0.55 - 10*0.0192 = 0.358, clear of the barrier

	s := ts.State()
	if len(s.Bullets) != 1 {
		t.Fatalf("bullets = %d, want 1", len(s.Bullets))
	}
	if b := s.Bullets[0]; b.State != BulletFlying || b.X >= s.Barrier.X {
		t.Errorf("bullet = %+v, want flying past the barrier", b)
	}
	if n := CountEvents(ts.Events(), EventBulletBlocked); n != 0 {
		t.Errorf("blocked events = %d, want 0", n)
	}
}

// The band is closed on both sides and a gap only lets a bullet through when
// its y is strictly inside the opening.
func TestScenario_BandEdges(t *testing.T) {
	cfg := DefaultConfig()
	mid := cfg.BarrierX + cfg.BarrierWidth/2
	gap := cfg.Gaps[0]

	cases := []struct {
		name    string
		x, y    float64
		blocked bool
	}{
		{"left edge", cfg.BarrierX, solidY, true},
		{"right edge", cfg.BarrierX + cfg.BarrierWidth, solidY, true},
		{"gap start", mid, gap.Start, true},
		{"gap end", mid, gap.End, true},
		{"inside gap", mid, gap.Start + 1e-6, false},
		{"past the band", cfg.BarrierX - 1e-3, solidY, false},
		{"short of the band", cfg.BarrierX + cfg.BarrierWidth + 1e-3, solidY, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := NewTestSim(
				WithSeed(1),
				WithTargetY(0.9),
				WithBullet(Bullet{X: tc.x, Y: tc.y, VX: -1.2, State: BulletFlying}),
			)
			id := ts.State().Bullets[0].ID
			ts.Start()
			ts.Step()

			trail := ts.SimLog.FilterActor(bulletLabel(id))
			for _, e := range trail {
				t.Log(e.String())
			}
			b := ts.State().Bullets[0]
			if tc.blocked {
				if b.State != BulletBouncing || b.Bounces != 1 {
					t.Errorf("bullet = %+v, want bouncing", b)
				}
				if len(trail) != 1 || trail[0].Category != "collision" || trail[0].Key != "blocked" {
					t.Errorf("trail = %v, want one blocked entry", trail)
				}
				return
			}
			if b.State != BulletFlying {
				t.Errorf("bullet = %+v, want still flying", b)
			}
			if n := CountEvents(ts.Events(), EventBulletBlocked); n != 0 {
				t.Errorf("blocked events = %d, want 0", n)
			}
		})
	}
}

// A bullet that integration would carry out of the band is still blocked
// where it stood at the start of the tick.
func TestScenario_BlockedBeforeMoving(t *testing.T) {
	cfg := DefaultConfig()
	ts := NewTestSim(
		WithSeed(1),
		WithBullet(Bullet{X: cfg.BarrierX + 0.005, Y: solidY, VX: -1.2, State: BulletFlying}),
	)
	ts.Start()
	ts.Step()

	b := ts.State().Bullets[0]
	if b.X >= cfg.BarrierX {
		t.Fatalf("bullet x = %.4f, expected integration to leave the band", b.X)
	}
	if b.State != BulletBouncing {
		t.Errorf("bullet = %+v, want bouncing", b)
	}
	ev := ts.Events()
	if CountEvents(ev, EventBulletBlocked) != 1 || ev[len(ev)-1].X != cfg.BarrierX+0.005 {
		t.Errorf("events = %+v, want one block at the pre-step x", ev)
	}
}

// --- Scenario D: a hit ---

func TestScenario_TargetHit(t *testing.T) {
	cfg := DefaultConfig()
	ty := cfg.Gaps[0].Mid()
	ts := NewTestSim(
		WithSeed(1),
		WithBullet(Bullet{X: cfg.TargetX + 0.02, Y: ty, VX: -1.2, State: BulletFlying}),
	)
	ts.Start()
	ts.Step()
	dumpLog(t, ts)
	dumpSummary(t, ts)

	s := ts.State()
	if !s.Target.Exploding || s.Target.Visible || !s.Target.Hit {
		t.Errorf("target = %+v, want exploding and hidden", s.Target)
	}
	if s.Target.ExplosionStart != s.Timestamp {
		t.Errorf("explosion start = %d, want %d", s.Target.ExplosionStart, s.Timestamp)
	}
	if s.Score.Hits != 1 {
		t.Errorf("hits = %d, want 1", s.Score.Hits)
	}
	if len(s.Bullets) != 1 || s.Bullets[0].State != BulletHitTarget {
		t.Fatalf("bullets = %+v, want one hit_target", s.Bullets)
	}
	explosions := 0
	for _, fx := range s.Effects {
		if fx.Kind == EffectExplosion {
			explosions++
			if fx.Scale != cfg.ExplosionScale {
				t.Errorf("explosion scale = %.2f", fx.Scale)
			}
		}
	}
	if explosions != 1 {
		t.Errorf("explosions = %d, want 1", explosions)
	}

	ts.Step()
	if n := len(ts.State().Bullets); n != 0 {
		t.Errorf("hit bullet still present next tick (%d bullets)", n)
	}
}

func TestScenario_HitExclusivity(t *testing.T) {
	cfg := DefaultConfig()
	ty := cfg.Gaps[0].Mid()
	ts := NewTestSim(
		WithSeed(1),
		WithBullet(Bullet{X: cfg.TargetX + 0.02, Y: ty, VX: -1.2, State: BulletFlying}),
		WithBullet(Bullet{X: cfg.TargetX + 0.02, Y: ty + 0.01, VX: -1.2, State: BulletFlying}),
	)
	ts.Start()
	ts.Step()

	s := ts.State()
	if s.Score.Hits != 1 {
		t.Errorf("hits = %d, want 1", s.Score.Hits)
	}
	if s.Bullets[0].State != BulletHitTarget || s.Bullets[1].State != BulletFlying {
		t.Errorf("bullet states %s/%s, want hit_target/flying", s.Bullets[0].State, s.Bullets[1].State)
	}
}

// --- Scenario E: respawn ---

func TestScenario_Respawn(t *testing.T) {
	cfg := DefaultConfig()
	ts := NewTestSim(
		WithSeed(5),
		WithBullet(Bullet{X: cfg.TargetX + 0.02, Y: cfg.Gaps[0].Mid(), VX: -1.2, State: BulletFlying}),
	)
	ts.Start()
	ts.Step()
	hitAt := ts.State().Target.ExplosionStart
	oldID := ts.State().Target.ID

	tick := ts.RunUntil(func(ts *TestSim) bool { return ts.State().Target.Visible }, 200)
	dumpLog(t, ts)
	if tick < 0 {
		t.Fatal("target never respawned")
	}

	s := ts.State()
	if wait := s.Timestamp - hitAt; wait < int64(cfg.ExplosionMs+cfg.RespawnDelayMs) {
		t.Errorf("respawned after %dms, want >= %dms", wait, cfg.ExplosionMs+cfg.RespawnDelayMs)
	}
	if s.Target.Exploding || s.Target.Hit {
		t.Errorf("target = %+v, want reset", s.Target)
	}
	if s.Target.ID == oldID {
		t.Error("respawned target kept its id")
	}
	maxJitter := cfg.RespawnJitterRatio * cfg.TargetSize
	ok := false
	for _, g := range cfg.Gaps {
		if math.Abs(s.Target.Y-g.Mid()) <= maxJitter+1e-9 {
			ok = true
		}
	}
	if !ok {
		t.Errorf("respawn y=%.4f not within %.3f of any gap midpoint", s.Target.Y, maxJitter)
	}
	last, ok := ts.SimLog.LastOf("target", "respawn")
	if !ok {
		t.Fatal("missing respawn entry")
	}
	if last.Actor != targetLabel(s.Target.ID) {
		t.Errorf("respawn logged for %s, want %s", last.Actor, targetLabel(s.Target.ID))
	}
}

func TestScenario_RespawnPicksGap(t *testing.T) {
	ctrl := gomock.NewController(t)
	rng := mocks.NewMockRandom(ctrl)
	rng.EXPECT().Intn(2).Return(1)
	rng.EXPECT().Float64().Return(0.5)

	cfg := DefaultConfig()
	ts := NewTestSim(
		WithRNG(rng),
		WithBullet(Bullet{X: cfg.TargetX + 0.02, Y: cfg.Gaps[0].Mid(), VX: -1.2, State: BulletFlying}),
	)
	ts.Start()
	ts.Step()
	ts.AdvanceBy(time.Duration(cfg.ExplosionMs+cfg.RespawnDelayMs) * time.Millisecond)

	s := ts.State()
	if !s.Target.Visible {
		t.Fatalf("target not visible: %+v", s.Target)
	}
	if want := cfg.Gaps[1].Mid(); math.Abs(s.Target.Y-want) > 1e-12 {
		t.Errorf("target y = %.4f, want %.4f", s.Target.Y, want)
	}
}

// --- Effect lifetime ---

func TestScenario_EffectLifetimeBoundary(t *testing.T) {
	ts := NewTestSim(WithSeed(1))
	ts.Start()
	ts.Tap() // muzzle flash at t=0

	d := time.Duration(ts.Cfg.MuzzleFlashMs) * time.Millisecond
	ts.AdvanceBy(d - time.Millisecond)
	if n := countKind(ts.State().Effects, EffectMuzzleFlash); n != 1 {
		t.Fatalf("at T+D-1 flashes = %d, want 1", n)
	}
	ts.AdvanceBy(time.Millisecond)
	if n := countKind(ts.State().Effects, EffectMuzzleFlash); n != 0 {
		t.Errorf("at T+D flashes = %d, want 0", n)
	}
}

func countKind(fx []VisualEffect, k EffectKind) int {
	n := 0
	for _, e := range fx {
		if e.Kind == k {
			n++
		}
	}
	return n
}

// --- Gun sweep ---

func TestScenario_GunFlipsAtBounds(t *testing.T) {
	ts := NewTestSim(
		WithSeed(1),
		WithGun(0.849, 1),
	)
	ts.Start()
	ts.Step()

	g := ts.State().Gun
	if g.Y != ts.Cfg.GunMaxY || g.Direction != -1 {
		t.Errorf("gun = y %.4f dir %+.0f, want clamped at max heading up", g.Y, g.Direction)
	}
	ts.Step()
	if y := ts.State().Gun.Y; y >= ts.Cfg.GunMaxY {
		t.Errorf("gun did not start moving up (y=%.4f)", y)
	}
}

// --- Stall handling ---

func TestScenario_StallDoesNotTunnel(t *testing.T) {
	ts := NewTestSim(
		WithSeed(1),
		WithBullet(Bullet{X: 0.55, Y: solidY, VX: -1.2, State: BulletFlying}),
	)
	ts.Start()
	// Unclamped, 200ms would carry the bullet from 0.55 to 0.31, straight past the band.
	ts.AdvanceBy(200 * time.Millisecond)

	if got := ts.State().Timestamp; got != 200 {
		t.Errorf("game clock = %dms after stall, want 200", got)
	}
	if !ts.SimLog.HasEntry("phase", "clamped", "") {
		t.Error("missing clamp entry")
	}
	ts.RunUntil(func(ts *TestSim) bool {
		return CountEvents(ts.Events(), EventBulletBlocked) > 0
	}, 10)
	if n := CountEvents(ts.Events(), EventBulletBlocked); n != 1 {
		t.Errorf("blocked events = %d, want 1", n)
	}
}

// --- Session end ---

func TestScenario_FinishesAtDuration(t *testing.T) {
	ts := NewTestSim(
		WithSeed(1),
		WithDuration(time.Second),
	)
	ts.Start()
	tick := ts.RunUntil(func(ts *TestSim) bool { return ts.State().Phase == PhaseFinished }, 100)
	if tick < 0 {
		t.Fatal("session never finished")
	}
	if got := ts.State().Timestamp; got >= 1000 {
		t.Errorf("last snapshot at %dms, want < 1000", got)
	}

	ts.Tap()
	ts.Step()
	if n := len(ts.Events()); n != 0 {
		t.Errorf("events after finish = %d, want 0", n)
	}
	if ts.Engine.Tick() != PhaseFinished {
		t.Error("tick moved out of finished")
	}
}

func TestScenario_StopAndReset(t *testing.T) {
	ts := NewTestSim(WithSeed(1))

	ts.Engine.StopGame() // READY: ignored
	if ts.State().Phase != PhaseReady {
		t.Fatalf("stop in ready changed phase to %s", ts.State().Phase)
	}

	ts.Start()
	ts.Tap()
	ts.RunTicks(5)
	ts.Engine.StopGame()
	if ts.State().Phase != PhaseFinished {
		t.Fatalf("phase after stop = %s", ts.State().Phase)
	}
	replay := ts.Engine.ReplayData()
	if replay.SessionID == "" || replay.FinalScore.TotalShots != 1 || len(replay.Events) != 2 {
		t.Errorf("replay = %+v", replay)
	}

	ts.Engine.ResetGame()
	s := ts.State()
	if s.Phase != PhaseReady || s.Score != (Score{}) || len(s.Bullets) != 0 {
		t.Errorf("reset state = %+v", s)
	}
	if len(ts.Events()) != 0 || ts.Engine.History().Len() != 0 {
		t.Error("reset kept events or history")
	}
	if ts.Engine.ReplayData().SessionID != "" {
		t.Error("reset kept the session id")
	}
}

func TestScenario_EventsSinceFollowsSession(t *testing.T) {
	ts := NewTestSim(WithSeed(1))
	ts.Start()
	ts.Tap()

	first, evs := ts.Engine.EventsSince("", 0)
	if first == "" || len(evs) != 2 {
		t.Fatalf("EventsSince = (%q, %d events), want a session and 2 events", first, len(evs))
	}
	if id, evs := ts.Engine.EventsSince(first, 2); id != first || len(evs) != 0 {
		t.Errorf("caught-up read = (%q, %d events), want none", id, len(evs))
	}

	ts.Engine.ResetGame()
	ts.Start()
	ts.Tap()
	second, evs := ts.Engine.EventsSince(first, 2)
	if second == first {
		t.Fatal("new session kept the old id")
	}
	if len(evs) != 2 || evs[0].Kind != EventTap {
		t.Errorf("read after restart = %+v, want the whole new log", evs)
	}
}

func TestScenario_RecordingFlags(t *testing.T) {
	ts := NewTestSim(WithSeed(1))
	ts.Start()
	ts.RunTicks(10)

	ts.Engine.SetRecording(true)
	s := ts.State()
	if !s.Recording.Active || s.Recording.StartedAt != s.Timestamp {
		t.Errorf("recording = %+v at %dms", s.Recording, s.Timestamp)
	}
	ts.RunTicks(3)
	if !ts.State().Recording.Active {
		t.Error("recording flag lost across ticks")
	}
	ts.Engine.SetRecording(false)
	if ts.State().Recording.Active {
		t.Error("recording still active")
	}
}

// --- Determinism ---

func TestScenario_Deterministic(t *testing.T) {
	run := func() *TestSim {
		ts := NewTestSim(WithSeed(99), WithTracking())
		runTapping(ts, 600, 9)
		return ts
	}
	a, b := run(), run()

	if !reflect.DeepEqual(a.Snapshots, b.Snapshots) {
		t.Error("snapshot sequences differ for the same seed")
	}
	if !reflect.DeepEqual(a.Events(), b.Events()) {
		t.Error("event logs differ for the same seed")
	}
	if a.State().Score.TotalShots == 0 {
		t.Error("no shots fired; scenario is vacuous")
	}
}
