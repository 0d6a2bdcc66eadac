package game

import (
	"log/slog"
	"math/rand"
	"time"
)

// TestSim is a headless harness around Engine. It mirrors the live tick
// loop on a manual clock and supports deterministic seeding and structured
// logging. Used by tests and cmd/headless-report.
type TestSim struct {
	Cfg       Config
	Clock     *ManualClock
	Engine    *Engine
	SimLog    *SimLog
	Snapshots []GameState // one per Step, when tracking is on
	Tick      int

	rng   Random
	track bool
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra simOptionKind = iota // config, seed, verbose: applied before the engine exists
	simOptWorld                      // state injection: applied to the READY snapshot
)

// SimOption is a builder function applied to a TestSim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*TestSim)
}

// WithSeed sets the RNG seed for deterministic runs.
func WithSeed(seed int64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.rng = rand.New(rand.NewSource(seed)) // #nosec G404 -- test harness
	}}
}

// WithRNG replaces the random source, e.g. with a mock.
func WithRNG(r Random) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.rng = r
	}}
}

// WithVerbose enables per-tick verbose logging.
func WithVerbose(v bool) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.SimLog = NewSimLog(v)
	}}
}

// WithConfig edits the tuning before the engine is built.
func WithConfig(fn func(*Config)) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		fn(&ts.Cfg)
	}}
}

// WithGaps replaces the barrier openings. No arguments means a solid wall.
func WithGaps(gaps ...Gap) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.Cfg.Gaps = gaps
	}}
}

// WithDuration sets the session length.
func WithDuration(d time.Duration) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.Cfg.GameDurationMs = int(d.Milliseconds())
	}}
}

// WithTracking keeps every post-tick snapshot in ts.Snapshots.
func WithTracking() SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.track = true
	}}
}

// WithGun places the gun at y moving in dir.
func WithGun(y, dir float64) SimOption {
	return SimOption{simOptWorld, func(ts *TestSim) {
		ts.Engine.mutate(func(s GameState) GameState {
			s.Gun.Y = y
			s.Gun.Direction = dir
			return s
		})
	}}
}

// WithTargetY moves the target to y.
func WithTargetY(y float64) SimOption {
	return SimOption{simOptWorld, func(ts *TestSim) {
		ts.Engine.mutate(func(s GameState) GameState {
			s.Target.Y = y
			return s
		})
	}}
}

// WithBullet drops a pre-built bullet into the world. A zero ID is replaced
// with the next free one.
func WithBullet(b Bullet) SimOption {
	return SimOption{simOptWorld, func(ts *TestSim) {
		ts.Engine.mutate(func(s GameState) GameState {
			if b.ID == 0 {
				b.ID = s.NextID
				s.NextID++
			}
			bullets := make([]Bullet, 0, len(s.Bullets)+1)
			bullets = append(bullets, s.Bullets...)
			s.Bullets = append(bullets, b)
			return s
		})
	}}
}

// NewTestSim constructs a TestSim from the given options in two ordered passes:
//  1. Infrastructure (config, seed, verbose)
//  2. Build the engine, then apply world edits to its READY snapshot
func NewTestSim(opts ...SimOption) *TestSim {
	ts := &TestSim{
		Cfg:    DefaultConfig(),
		Clock:  NewManualClock(time.Unix(1_700_000_000, 0)),
		SimLog: NewSimLog(false),
		rng:    rand.New(rand.NewSource(1)), // #nosec G404 -- test harness default
	}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(ts)
		}
	}
	ts.Engine = NewEngine(ts.Cfg,
		WithClock(ts.Clock),
		WithRandom(ts.rng),
		WithSimLog(ts.SimLog),
		WithLogger(slog.New(slog.DiscardHandler)),
	)
	for _, o := range opts {
		if o.kind == simOptWorld {
			o.fn(ts)
		}
	}
	return ts
}

// mutate swaps the current snapshot for fn(current). Harness only.
func (e *Engine) mutate(fn func(GameState) GameState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.publish(fn(*e.current.Load()))
}

// Start issues StartGame and runs the clock through the countdown so the
// engine is PLAYING at game time 0.
func (ts *TestSim) Start() {
	ts.Engine.StartGame()
	for ts.State().Phase == PhaseCountdown {
		ts.Clock.Advance(time.Duration(ts.Cfg.CountdownStepMs) * time.Millisecond)
		ts.Engine.Tick()
	}
}

// Step advances the clock one nominal tick period and ticks the engine.
func (ts *TestSim) Step() {
	ts.AdvanceBy(ts.Cfg.TickPeriod())
}

// AdvanceBy moves the clock by d and runs a single tick, however long d is.
func (ts *TestSim) AdvanceBy(d time.Duration) {
	ts.Clock.Advance(d)
	ts.Engine.Tick()
	ts.Tick++
	if ts.track {
		ts.Snapshots = append(ts.Snapshots, ts.State())
	}
}

// RunTicks advances the simulation n ticks.
func (ts *TestSim) RunTicks(n int) {
	for i := 0; i < n; i++ {
		ts.Step()
	}
}

// RunUntil advances the simulation up to maxTicks, stopping early if predicate
// returns true. Returns the tick at which the predicate was satisfied, or -1.
func (ts *TestSim) RunUntil(predicate func(*TestSim) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		ts.Step()
		if predicate(ts) {
			return ts.Tick
		}
	}
	return -1
}

// Tap fires at the gun's current position, the way a screen tap does.
func (ts *TestSim) Tap() {
	s := ts.State()
	ts.Engine.OnTap(s.Gun.X, s.Gun.Y)
}

// State returns the engine's current snapshot.
func (ts *TestSim) State() GameState {
	return ts.Engine.CurrentSnapshot()
}

// CurrentTick returns the number of harness steps taken.
func (ts *TestSim) CurrentTick() int {
	return ts.Tick
}

// Events returns the engine's event log.
func (ts *TestSim) Events() []GameEvent {
	return ts.Engine.RecordedEvents()
}
