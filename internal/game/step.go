package game

import (
	"math"
	"slices"
)

// --- Simulation constants not exposed as tuning ---

const (
	recoilPeak       = 0.3  // progress at which the kick peaks
	bounceDamping    = 0.6  // fraction of speed kept on ricochet
	bounceJitterBase = 0.8  // ricochet speed multiplier lower bound
	bounceJitterSpan = 0.4  // added on top of the base, scaled by rand
	bounceLift       = 0.3  // span of the random vertical kick
	bounceSpin       = 500  // degrees of spin per unit of vx per second
	offscreenLeft    = -0.1 // bullets past this x are gone
	offscreenRight   = 1.1
	floorLine        = 1.1
)

// Random is the uniform source the simulation draws from. *rand.Rand
// satisfies it.
//
//go:generate go tool mockgen -destination=./mocks/random_mock.go -package=mocks . Random
type Random interface {
	Float64() float64
	Intn(n int) int
}

// step derives the next snapshot from prev. dt is seconds of physics time,
// now the game clock in ms. Sub-steps run in a fixed order and each sees the
// output of the one before it. prev is never written.
func step(cfg Config, prev GameState, dt float64, now int64, rng Random) (GameState, []GameEvent) {
	next := prev
	next.Timestamp = now

	// a. gun sweep
	next.Gun = moveGun(cfg, prev.Gun, dt)
	// b. recoil
	next.Gun.Recoil = decayRecoil(cfg, next.Gun.Recoil, dt)
	// c. bullet integration
	next.Bullets = integrateBullets(cfg, prev.Bullets, dt)
	// d. collisions, tested where each bullet stood before (c)
	next, events := resolveCollisions(cfg, next, prev.Bullets, now, rng)
	// e. effect lifetime
	next.Effects = pruneEffects(cfg, next.Effects, now)
	// f. target respawn
	next = respawnTarget(cfg, next, now, rng)

	return next, events
}

func moveGun(cfg Config, g Gun, dt float64) Gun {
	g.Y += g.Direction * g.Speed * dt
	if g.Y <= cfg.GunMinY {
		g.Y = cfg.GunMinY
		g.Direction = 1
	} else if g.Y >= cfg.GunMaxY {
		g.Y = cfg.GunMaxY
		g.Direction = -1
	}
	return g
}

// recoilCurve ramps to 1 over the first 30% of progress, then eases back.
func recoilCurve(p float64) float64 {
	if p < recoilPeak {
		return p / recoilPeak
	}
	return 1 - (p-recoilPeak)/(1-recoilPeak)
}

func decayRecoil(cfg Config, r Recoil, dt float64) Recoil {
	if !r.Active {
		return r
	}
	r.Progress = math.Min(1, r.Progress+dt*1000/float64(cfg.RecoilDurationMs))
	c := recoilCurve(r.Progress)
	r.OffsetX = c * cfg.RecoilMaxOffsetX
	r.OffsetY = c * cfg.RecoilMaxOffsetY
	r.Rotation = c * cfg.RecoilMaxRotation
	if r.Progress >= 1 {
		r = Recoil{Progress: 1}
	}
	return r
}

// integrateBullets moves live bullets and drops those that left the play
// area or were already terminal on the previous tick.
func integrateBullets(cfg Config, in []Bullet, dt float64) []Bullet {
	out := make([]Bullet, 0, len(in))
	for _, b := range in {
		switch b.State {
		case BulletFlying:
			b.X += b.VX * dt
			if b.X < offscreenLeft {
				continue
			}
		case BulletBouncing:
			b.VY += cfg.Gravity * dt
			b.X += b.VX * dt
			b.Y += b.VY * dt
			b.Rotation += b.VX * bounceSpin * dt
			if b.Y > floorLine || b.X < offscreenLeft || b.X > offscreenRight {
				continue
			}
		default:
			// terminal state already observed for one tick
			continue
		}
		out = append(out, b)
	}
	return out
}

// resolveCollisions tests every flying bullet against the barrier and then
// the target. Membership is decided on the bullet's position in pre, the
// list before integration; the outcome is applied to the integrated bullet.
// Bullets that end up terminal stay in the list for this tick.
func resolveCollisions(cfg Config, s GameState, pre []Bullet, now int64, rng Random) (GameState, []GameEvent) {
	var events []GameEvent
	bullets := make([]Bullet, 0, len(s.Bullets))
	effects := slices.Clone(s.Effects)

	before := make(map[int64]Bullet, len(pre))
	for _, b := range pre {
		before[b.ID] = b
	}

	for _, b := range s.Bullets {
		if b.State != BulletFlying {
			bullets = append(bullets, b)
			continue
		}
		p, ok := before[b.ID]
		if !ok {
			p = b
		}

		if s.Barrier.InBand(p.X) && !s.Barrier.InGap(p.Y) {
			events = append(events, GameEvent{
				Kind:      EventBulletBlocked,
				Timestamp: now,
				BulletID:  b.ID,
				X:         p.X,
				Y:         p.Y,
			})
			effects = append(effects, VisualEffect{
				ID:    s.NextID,
				Kind:  EffectSpark,
				X:     s.Barrier.X + s.Barrier.Width,
				Y:     p.Y,
				Start: now,
				Scale: 1,
			})
			s.NextID++
			b = bounce(cfg, b, rng)
			bullets = append(bullets, b)
			continue
		}

		if s.Target.Hittable() && math.Hypot(p.X-s.Target.X, p.Y-s.Target.Y) < s.Target.Size/2 {
			events = append(events, GameEvent{
				Kind:      EventTargetHit,
				Timestamp: now,
				BulletID:  b.ID,
				TargetID:  s.Target.ID,
				X:         s.Target.X,
				Y:         s.Target.Y,
			})
			effects = append(effects, VisualEffect{
				ID:    s.NextID,
				Kind:  EffectExplosion,
				X:     s.Target.X,
				Y:     s.Target.Y,
				Start: now,
				Scale: cfg.ExplosionScale,
			})
			s.NextID++
			s.Target.Hit = true
			s.Target.Exploding = true
			s.Target.Visible = false
			s.Target.ExplosionStart = now
			s.Score.Hits++
			b.State = BulletHitTarget
		}
		bullets = append(bullets, b)
	}

	s.Bullets = bullets
	s.Effects = effects
	return s, events
}

// bounce converts a blocked bullet into a ricochet, or destroys it once it
// has used up its bounces.
func bounce(cfg Config, b Bullet, rng Random) Bullet {
	if b.Bounces >= cfg.MaxBounces {
		b.State = BulletDestroyed
		return b
	}
	b.VX = -b.VX * bounceDamping * (bounceJitterBase + rng.Float64()*bounceJitterSpan)
	b.VY = (rng.Float64() - 0.5) * bounceLift
	b.State = BulletBouncing
	b.Bounces++
	return b
}

func pruneEffects(cfg Config, in []VisualEffect, now int64) []VisualEffect {
	out := make([]VisualEffect, 0, len(in))
	for _, fx := range in {
		if now-fx.Start >= cfg.EffectDuration(fx.Kind) {
			continue
		}
		out = append(out, fx)
	}
	return out
}

// respawnTarget brings an exploded target back at a random gap once the
// explosion and the respawn delay have both run out. With no gaps the target
// reappears where it was.
func respawnTarget(cfg Config, s GameState, now int64, rng Random) GameState {
	t := s.Target
	if !t.Exploding {
		return s
	}
	if now-t.ExplosionStart < int64(cfg.ExplosionMs+cfg.RespawnDelayMs) {
		return s
	}
	if n := len(s.Barrier.Gaps); n > 0 {
		g := s.Barrier.Gaps[rng.Intn(n)]
		jitter := (rng.Float64()*2 - 1) * cfg.RespawnJitterRatio * t.Size
		t.Y = g.Mid() + jitter
	}
	t.ID = s.NextID
	s.NextID++
	t.Visible = true
	t.Exploding = false
	t.Hit = false
	t.ExplosionStart = 0
	s.Target = t
	return s
}

// fire appends a fresh bullet and muzzle flash and kicks the gun. Callers
// check the phase and the recoil debounce.
func fire(cfg Config, s GameState, now int64) (GameState, Bullet) {
	mx := s.Gun.MuzzleX(cfg.MuzzleOffset)
	b := Bullet{
		ID:    s.NextID,
		X:     mx,
		Y:     s.Gun.Y,
		VX:    -cfg.BulletSpeed,
		State: BulletFlying,
	}
	s.NextID++

	bullets := make([]Bullet, 0, len(s.Bullets)+1)
	bullets = append(bullets, s.Bullets...)
	s.Bullets = append(bullets, b)

	effects := make([]VisualEffect, 0, len(s.Effects)+1)
	effects = append(effects, s.Effects...)
	s.Effects = append(effects, VisualEffect{
		ID:    s.NextID,
		Kind:  EffectMuzzleFlash,
		X:     mx,
		Y:     s.Gun.Y,
		Start: now,
		Scale: 1,
	})
	s.NextID++

	s.Gun.Recoil = Recoil{Active: true}
	s.Score.TotalShots++
	return s, b
}
