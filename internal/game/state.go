package game

import (
	"cmp"
	"slices"
)

// Phase is the session state machine position.
type Phase int

const (
	PhaseReady Phase = iota
	PhaseCountdown
	PhasePlaying
	PhaseFinished
	// PhaseExporting belongs to the UI layer; the engine never enters it.
	PhaseExporting
)

func (p Phase) String() string {
	switch p {
	case PhaseReady:
		return "ready"
	case PhaseCountdown:
		return "countdown"
	case PhasePlaying:
		return "playing"
	case PhaseFinished:
		return "finished"
	case PhaseExporting:
		return "exporting"
	}
	return "unknown"
}

// Recoil is the gun's kick animation sub-state.
type Recoil struct {
	OffsetX  float64
	OffsetY  float64
	Rotation float64 // degrees
	Progress float64 // 0..1
	Active   bool
}

// Gun sits near the right edge and sweeps vertically.
type Gun struct {
	X         float64
	Y         float64
	Direction float64 // +1 down, -1 up
	Speed     float64
	Recoil    Recoil
}

// MuzzleX is where bullets and flashes spawn.
func (g Gun) MuzzleX(offset float64) float64 {
	return g.X - offset
}

// BulletState is the discrete lifecycle of a bullet.
type BulletState int

const (
	BulletFlying BulletState = iota
	BulletBouncing
	BulletHitTarget
	BulletDestroyed
)

func (s BulletState) String() string {
	switch s {
	case BulletFlying:
		return "flying"
	case BulletBouncing:
		return "bouncing"
	case BulletHitTarget:
		return "hit_target"
	case BulletDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// Terminal reports whether the bullet is in its last visible tick.
func (s BulletState) Terminal() bool {
	return s == BulletHitTarget || s == BulletDestroyed
}

// Bullet is a single projectile.
type Bullet struct {
	ID       int64
	X, Y     float64
	VX, VY   float64
	Rotation float64
	State    BulletState
	Bounces  int
}

// Target is the pop-up the player is trying to hit.
type Target struct {
	ID             int64
	X, Y           float64
	Size           float64
	Visible        bool
	Exploding      bool
	ExplosionStart int64 // game ms
	Hit            bool
}

// Hittable reports whether a hit can register right now.
func (t Target) Hittable() bool {
	return t.Visible && !t.Exploding
}

// Gap is an opening in the barrier, Start < End.
type Gap struct {
	Start float64 `json:"start" jsonschema:"minimum=0,maximum=1"`
	End   float64 `json:"end" jsonschema:"minimum=0,maximum=1"`
}

// Mid returns the gap's vertical midpoint.
func (g Gap) Mid() float64 {
	return (g.Start + g.End) / 2
}

// Contains reports whether y lies strictly inside the opening.
func (g Gap) Contains(y float64) bool {
	return y > g.Start && y < g.End
}

// Barrier is a vertical wall with gaps. Gaps are kept sorted by Start.
type Barrier struct {
	X     float64
	Width float64
	Gaps  []Gap
}

// InBand reports whether x is within the barrier's horizontal extent.
func (b Barrier) InBand(x float64) bool {
	return x >= b.X && x <= b.X+b.Width
}

// InGap reports whether y passes through any opening.
func (b Barrier) InGap(y float64) bool {
	for _, g := range b.Gaps {
		if g.Contains(y) {
			return true
		}
	}
	return false
}

// EffectKind is the tagged variant for transient visuals.
type EffectKind int

const (
	EffectMuzzleFlash EffectKind = iota
	EffectExplosion
	EffectSpark
	EffectBulletTrail
	effectKindCount
)

func (k EffectKind) String() string {
	switch k {
	case EffectMuzzleFlash:
		return "muzzle_flash"
	case EffectExplosion:
		return "explosion"
	case EffectSpark:
		return "spark"
	case EffectBulletTrail:
		return "bullet_trail"
	}
	return "unknown"
}

// EffectKinds lists every kind in declaration order.
func EffectKinds() []EffectKind {
	out := make([]EffectKind, 0, effectKindCount)
	for k := EffectKind(0); k < effectKindCount; k++ {
		out = append(out, k)
	}
	return out
}

// VisualEffect is a fire-and-forget overlay element.
type VisualEffect struct {
	ID       int64
	Kind     EffectKind
	X, Y     float64
	Start    int64 // game ms
	Rotation float64
	Scale    float64
}

// Score tracks the player's counters.
type Score struct {
	Hits       int `json:"hits"`
	TotalShots int `json:"totalShots"`
}

// Accuracy returns hits over shots, 0 when nothing was fired.
func (s Score) Accuracy() float64 {
	if s.TotalShots == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.TotalShots)
}

// Recording carries the capture flags burned into every snapshot.
type Recording struct {
	Active    bool
	StartedAt int64 // game ms when capture began
}

// GameState is one immutable snapshot of the world. Slices are never written
// after the snapshot is published; treat them as read-only.
type GameState struct {
	Timestamp int64 // ms since play began
	Duration  int64 // configured session length, ms
	Phase     Phase
	Countdown int
	Gun       Gun
	Bullets   []Bullet
	Target    Target
	Barrier   Barrier
	Effects   []VisualEffect
	Score     Score
	Recording Recording
	NextID    int64
}

// Remaining returns the play time left in ms, never negative.
func (s GameState) Remaining() int64 {
	r := s.Duration - s.Timestamp
	if r < 0 {
		return 0
	}
	return r
}

// TimestampedState is one History entry.
type TimestampedState struct {
	Timestamp int64
	State     GameState
}

// NewGameState builds the READY snapshot for cfg.
func NewGameState(cfg Config) GameState {
	gaps := make([]Gap, len(cfg.Gaps))
	copy(gaps, cfg.Gaps)
	sortGaps(gaps)

	targetY := 0.5
	if len(gaps) > 0 {
		targetY = gaps[0].Mid()
	}
	return GameState{
		Duration:  int64(cfg.GameDurationMs),
		Phase:     PhaseReady,
		Countdown: cfg.CountdownFrom,
		Gun: Gun{
			X:         cfg.GunX,
			Y:         (cfg.GunMinY + cfg.GunMaxY) / 2,
			Direction: 1,
			Speed:     cfg.GunSpeed,
		},
		Target: Target{
			ID:      1,
			X:       cfg.TargetX,
			Y:       targetY,
			Size:    cfg.TargetSize,
			Visible: true,
		},
		Barrier: Barrier{
			X:     cfg.BarrierX,
			Width: cfg.BarrierWidth,
			Gaps:  gaps,
		},
		NextID: 2,
	}
}

func sortGaps(gaps []Gap) {
	slices.SortFunc(gaps, func(a, b Gap) int { return cmp.Compare(a.Start, b.Start) })
}
