package game

import (
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Engine owns the authoritative game state. Commands and ticks are
// serialized by an internal mutex; readers get the latest snapshot through a
// lock-free pointer load. Commands issued in the wrong phase are no-ops.
type Engine struct {
	cfg    Config
	clock  Clock
	rng    Random
	logger *slog.Logger
	simLog *SimLog

	mu        sync.Mutex
	current   atomic.Pointer[GameState]
	history   *History
	events    []GameEvent
	sessionID string

	countdownStart time.Time
	playStart      time.Time
	lastTick       time.Time
	ticks          int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithRandom replaces the random source used for ricochets and respawns.
func WithRandom(r Random) Option {
	return func(e *Engine) { e.rng = r }
}

// WithRandomSeed seeds a private *rand.Rand for reproducible runs.
func WithRandomSeed(seed int64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewSource(seed)) } // #nosec G404 -- game only
}

// WithLogger sets the lifecycle logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithSimLog attaches a structured event log.
func WithSimLog(sl *SimLog) Option {
	return func(e *Engine) { e.simLog = sl }
}

// NewEngine builds an engine in READY. cfg must already be valid.
func NewEngine(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:     cfg,
		clock:   SystemClock{},
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404 -- game only
		logger:  slog.Default(),
		history: NewHistory(cfg.HistoryCapacity),
	}
	for _, o := range opts {
		o(e)
	}
	e.publish(NewGameState(cfg))
	return e
}

// Config returns the tuning the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// History exposes the snapshot ring buffer.
func (e *Engine) History() *History { return e.history }

// CurrentSnapshot returns the latest published state.
func (e *Engine) CurrentSnapshot() GameState {
	return *e.current.Load()
}

// Phase is shorthand for CurrentSnapshot().Phase.
func (e *Engine) Phase() Phase {
	return e.current.Load().Phase
}

// Lookup returns the history entry closest to ts, or the current snapshot
// when nothing has been recorded yet.
func (e *Engine) Lookup(ts int64) GameState {
	if s, ok := e.history.Lookup(ts); ok {
		return s
	}
	return e.CurrentSnapshot()
}

// RecordedEvents returns a copy of the event log.
func (e *Engine) RecordedEvents() []GameEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.events)
}

// EventsSince returns a copy of the events logged after the first from, and
// the id of the session they belong to. When session is not the current one
// the copy starts at the beginning of the log.
func (e *Engine) EventsSince(session string, from int) (string, []GameEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if session != e.sessionID || from < 0 || from > len(e.events) {
		from = 0
	}
	return e.sessionID, slices.Clone(e.events[from:])
}

// ReplayData bundles the session for export.
func (e *Engine) ReplayData() Replay {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.current.Load()
	return Replay{
		SessionID:  e.sessionID,
		Events:     slices.Clone(e.events),
		Duration:   s.Duration,
		FinalScore: s.Score,
	}
}

// Ticks returns how many physics steps ran this session.
func (e *Engine) Ticks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ticks
}

// StartGame moves READY to COUNTDOWN.
func (e *Engine) StartGame() {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := *e.current.Load()
	if prev.Phase != PhaseReady {
		return
	}
	e.sessionID = uuid.NewString()
	e.countdownStart = e.clock.Now()

	next := prev
	next.Phase = PhaseCountdown
	next.Countdown = e.cfg.CountdownFrom
	e.publish(next)
	e.phaseChanged(prev.Phase, next.Phase)
	e.logger.Info("game started", "session_id", e.sessionID, "duration_ms", e.cfg.GameDurationMs)
}

// OnTap handles a player tap. Taps are logged in PLAYING; a bullet fires
// only when the gun has finished its previous recoil. The tap position is
// recorded but does not aim the gun.
func (e *Engine) OnTap(x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := *e.current.Load()
	if prev.Phase != PhasePlaying {
		return
	}
	now := e.gameTime(e.clock.Now())
	e.events = append(e.events, GameEvent{Kind: EventTap, Timestamp: now, X: x, Y: y})

	if prev.Gun.Recoil.Active {
		if e.simLog != nil {
			e.simLog.Add(e.ticks, "--", "shot", "debounced", fmt.Sprintf("progress=%.2f", prev.Gun.Recoil.Progress), prev.Gun.Recoil.Progress)
		}
		return
	}

	next, b := fire(e.cfg, prev, now)
	e.events = append(e.events, GameEvent{
		Kind:      EventBulletFired,
		Timestamp: now,
		BulletID:  b.ID,
		X:         b.X,
		Y:         b.Y,
	})
	e.publish(next)
	if e.simLog != nil {
		e.simLog.Add(e.ticks, bulletLabel(b.ID), "shot", "fired", fmt.Sprintf("y=%.3f t=%dms", b.Y, now), b.Y)
	}
}

// StopGame ends PLAYING early.
func (e *Engine) StopGame() {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := *e.current.Load()
	if prev.Phase != PhasePlaying {
		return
	}
	e.finish(prev)
}

// ResetGame returns to a fresh READY from any phase, dropping the event log
// and the history.
func (e *Engine) ResetGame() {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.current.Load().Phase
	e.events = nil
	e.sessionID = ""
	e.ticks = 0
	e.history.Reset()
	e.publish(NewGameState(e.cfg))
	if e.simLog != nil {
		e.simLog.Add(0, "--", "phase", "reset", fmt.Sprintf("%s → %s", prev, PhaseReady), 0)
	}
	e.logger.Info("game reset", "from", prev.String())
}

// SetRecording toggles the capture flags carried in each snapshot.
func (e *Engine) SetRecording(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := *e.current.Load()
	if prev.Recording.Active == on {
		return
	}
	next := prev
	next.Recording = Recording{Active: on}
	if on {
		next.Recording.StartedAt = prev.Timestamp
	}
	e.publish(next)
	e.logger.Info("recording toggled", "active", on, "at_ms", prev.Timestamp)
}

// Tick advances the timer-driven phases. It is a no-op outside COUNTDOWN and
// PLAYING and returns the phase after the tick.
func (e *Engine) Tick() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	prev := *e.current.Load()
	switch prev.Phase {
	case PhaseCountdown:
		e.advanceCountdown(prev, now)
	case PhasePlaying:
		e.advancePlaying(prev, now)
	}
	return e.current.Load().Phase
}

func (e *Engine) advanceCountdown(prev GameState, now time.Time) {
	stepDur := time.Duration(e.cfg.CountdownStepMs) * time.Millisecond
	elapsed := now.Sub(e.countdownStart)
	steps := int(elapsed / stepDur)
	if steps < e.cfg.CountdownFrom {
		if v := e.cfg.CountdownFrom - steps; v != prev.Countdown {
			next := prev
			next.Countdown = v
			e.publish(next)
		}
		return
	}

	// Play starts on the countdown boundary, not on whichever tick noticed it.
	e.playStart = e.countdownStart.Add(time.Duration(e.cfg.CountdownFrom) * stepDur)
	e.lastTick = e.playStart

	next := prev
	next.Phase = PhasePlaying
	next.Countdown = 0
	next.Timestamp = 0
	e.publish(next)
	e.history.Record(0, next)
	e.phaseChanged(prev.Phase, next.Phase)

	if now.After(e.playStart) {
		e.advancePlaying(next, now)
	}
}

func (e *Engine) advancePlaying(prev GameState, now time.Time) {
	dt := now.Sub(e.lastTick).Seconds()
	e.lastTick = now
	gameMs := e.gameTime(now)

	if gameMs >= prev.Duration {
		e.finish(prev)
		return
	}

	maxDt := float64(e.cfg.MaxStepMs) / 1000
	switch {
	case dt < 0:
		dt = 0
	case dt > maxDt:
		if e.simLog != nil {
			e.simLog.Add(e.ticks, "--", "phase", "clamped", fmt.Sprintf("dt=%.0fms", dt*1000), dt)
		}
		dt = maxDt
	}

	next, events := step(e.cfg, prev, dt, gameMs, e.rng)
	e.ticks++
	e.publish(next)
	e.history.Record(next.Timestamp, next)
	e.events = append(e.events, events...)
	e.logStep(prev, next, events)
}

// finish publishes FINISHED. The timestamp is capped at the session length.
func (e *Engine) finish(prev GameState) {
	next := prev
	next.Phase = PhaseFinished
	if next.Timestamp > next.Duration {
		next.Timestamp = next.Duration
	}
	e.publish(next)
	e.phaseChanged(prev.Phase, next.Phase)
	e.logger.Info("game finished",
		"session_id", e.sessionID,
		"hits", next.Score.Hits,
		"shots", next.Score.TotalShots,
		"ticks", e.ticks,
	)
}

// gameTime converts wall time to ms since play began, never negative.
func (e *Engine) gameTime(now time.Time) int64 {
	ms := now.Sub(e.playStart).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}

func (e *Engine) publish(s GameState) {
	e.current.Store(&s)
}

func (e *Engine) phaseChanged(from, to Phase) {
	if e.simLog != nil {
		e.simLog.Add(e.ticks, "--", "phase", "change", fmt.Sprintf("%s → %s", from, to), 0)
	}
	e.logger.Debug("phase change", "from", from.String(), "to", to.String())
}

func (e *Engine) logStep(prev, next GameState, events []GameEvent) {
	if e.simLog == nil {
		return
	}
	tick := e.ticks
	for _, ev := range events {
		switch ev.Kind {
		case EventTargetHit:
			e.simLog.Add(tick, bulletLabel(ev.BulletID), "collision", "hit",
				fmt.Sprintf("target=%s score=%d", targetLabel(ev.TargetID), next.Score.Hits), float64(next.Score.Hits))
		case EventBulletBlocked:
			e.simLog.Add(tick, bulletLabel(ev.BulletID), "collision", "blocked",
				fmt.Sprintf("y=%.3f", ev.Y), ev.Y)
		}
	}
	if next.Target.ID != prev.Target.ID {
		e.simLog.Add(tick, targetLabel(next.Target.ID), "target", "respawn",
			fmt.Sprintf("y=%.3f", next.Target.Y), next.Target.Y)
	}
	if next.Gun.Direction != prev.Gun.Direction {
		e.simLog.AddVerbose(tick, "--", "gun", "flip", fmt.Sprintf("y=%.3f dir=%+.0f", next.Gun.Y, next.Gun.Direction), next.Gun.Y)
	}
	e.simLog.AddVerbose(tick, "--", "gun", "pos", fmt.Sprintf("y=%.3f", next.Gun.Y), next.Gun.Y)
}
