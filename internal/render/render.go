package render

import (
	"cmp"
	"fmt"
	"image/color"
	"slices"

	"github.com/Garsondee/Camshot/internal/anim"
	"github.com/Garsondee/Camshot/internal/game"
)

// --- Palette ---

var (
	colBarrier   = color.RGBA{R: 96, G: 92, B: 104, A: 255}
	colTarget    = color.RGBA{R: 200, G: 60, B: 60, A: 255}
	colBullet    = color.RGBA{R: 255, G: 220, B: 80, A: 255}
	colGun       = color.RGBA{R: 58, G: 62, B: 70, A: 255}
	colText      = color.RGBA{R: 240, G: 240, B: 240, A: 255}
	colAlert     = color.RGBA{R: 255, G: 60, B: 60, A: 255}
	colRec       = color.RGBA{R: 230, G: 30, B: 30, A: 255}
	colBannerBg  = color.RGBA{R: 10, G: 12, B: 10, A: 180}
	colCountdown = color.RGBA{R: 255, G: 240, B: 120, A: 255}
)

// --- Sizes, as fractions of viewport height ---

const (
	gunW          = 0.12
	gunH          = 0.06
	bulletW       = 0.03
	bulletH       = 0.012
	bulletDot     = 0.015
	hudText       = 0.04
	bannerText    = 0.07
	countdownText = 0.2
	timerText     = 0.06
	recDot        = 0.025
	overlayInset  = 0.05
)

// effectSpec maps an effect kind to its sprite, sheet, and on-screen size.
type effectSpec struct {
	sprite   SpriteID
	sheet    anim.Sheet
	size     float64 // fraction of viewport height at scale 1
	fallback color.RGBA
}

var effectTable = [...]effectSpec{
	game.EffectMuzzleFlash: {SpriteMuzzleFlash, anim.MuzzleFlash, 0.08, color.RGBA{R: 255, G: 230, B: 120, A: 255}},
	game.EffectExplosion:   {SpriteExplosion, anim.Explosion, 0.14, color.RGBA{R: 255, G: 140, B: 40, A: 255}},
	game.EffectSpark:       {SpriteSpark, anim.Spark, 0.04, color.RGBA{R: 255, G: 255, B: 210, A: 255}},
	game.EffectBulletTrail: {SpriteBulletTrail, anim.BulletTrail, 0.03, color.RGBA{R: 255, G: 220, B: 80, A: 140}},
}

// Renderer holds the few presentation knobs that are not part of a snapshot.
type Renderer struct {
	// AlertMs is the remaining time at or below which the clock turns red.
	AlertMs int64
}

// Default uses the stock five second alert.
var Default = Renderer{AlertMs: 5000}

// Render draws s with the default renderer.
func Render(s game.GameState, width, height int, sprites SpriteSource) []Op {
	return Default.Render(s, width, height, sprites)
}

// Render returns the draw list for s in a width x height viewport. Output
// depends only on the arguments.
func (r Renderer) Render(s game.GameState, width, height int, sprites SpriteSource) []Op {
	c := canvas{
		w:       float64(width),
		h:       float64(height),
		sprites: sprites,
		ops:     make([]Op, 0, 16+len(s.Bullets)+len(s.Effects)),
	}
	c.barrier(s.Barrier)
	c.target(s.Target)
	c.bullets(s.Bullets)
	c.gun(s.Gun)
	c.effects(s.Effects, s.Timestamp)
	c.ui(s, r.AlertMs)
	return c.ops
}

// SolidSpans returns the covered parts of [0,1] left between gaps, in order.
func SolidSpans(gaps []game.Gap) []game.Gap {
	sorted := slices.Clone(gaps)
	slices.SortFunc(sorted, func(a, b game.Gap) int { return cmp.Compare(a.Start, b.Start) })

	var out []game.Gap
	cursor := 0.0
	for _, g := range sorted {
		if g.Start > cursor {
			out = append(out, game.Gap{Start: cursor, End: min(g.Start, 1)})
		}
		cursor = max(cursor, g.End)
		if cursor >= 1 {
			return out
		}
	}
	if cursor < 1 {
		out = append(out, game.Gap{Start: cursor, End: 1})
	}
	return out
}

type canvas struct {
	w, h    float64
	sprites SpriteSource
	ops     []Op
}

func (c *canvas) has(id SpriteID) bool {
	return c.sprites != nil && c.sprites.Has(id)
}

func (c *canvas) emit(op Op) {
	c.ops = append(c.ops, op)
}

// sprite emits a sprite op or, when the host lacks it, a rect or circle.
func (c *canvas) sprite(layer Layer, id SpriteID, frame Frame, x, y, w, h, rot float64, fallback OpKind, col color.RGBA) {
	op := Op{Layer: layer, X: x, Y: y, W: w, H: h, Rotation: rot}
	if c.has(id) {
		op.Kind = OpSprite
		op.Sprite = id
		op.Frame = frame
		op.Color = color.RGBA{R: 255, G: 255, B: 255, A: col.A}
	} else {
		op.Kind = fallback
		op.Color = col
	}
	c.emit(op)
}

func (c *canvas) text(s string, x, y, size float64, align Align, col color.RGBA, rot float64) {
	c.emit(Op{
		Kind:     OpText,
		Layer:    LayerUI,
		X:        x,
		Y:        y,
		Text:     s,
		Size:     size,
		Align:    align,
		Color:    col,
		Rotation: rot,
	})
}

func (c *canvas) barrier(b game.Barrier) {
	x := (b.X + b.Width/2) * c.w
	w := b.Width * c.w
	for _, span := range SolidSpans(b.Gaps) {
		top, bottom := span.Start*c.h, span.End*c.h
		c.sprite(LayerBarrier, SpriteBarrier, Frame{}, x, (top+bottom)/2, w, bottom-top, 0, OpRect, colBarrier)
	}
}

// target is hidden while exploding; the explosion effect stands in for it.
func (c *canvas) target(t game.Target) {
	if !t.Visible || t.Exploding {
		return
	}
	d := t.Size * c.h
	c.sprite(LayerTarget, SpriteMonster, Frame{}, t.X*c.w, t.Y*c.h, d, d, 0, OpCircle, colTarget)
}

func (c *canvas) bullets(bs []game.Bullet) {
	for _, b := range bs {
		if b.State.Terminal() {
			continue
		}
		x, y := b.X*c.w, b.Y*c.h
		if c.has(SpriteBullet) {
			c.sprite(LayerBullets, SpriteBullet, Frame{}, x, y, bulletW*c.h, bulletH*c.h, b.Rotation, OpRect, colBullet)
			continue
		}
		d := bulletDot * c.h
		c.emit(Op{Kind: OpCircle, Layer: LayerBullets, X: x, Y: y, W: d, H: d, Color: colBullet})
	}
}

func (c *canvas) gun(g game.Gun) {
	x := (g.X + g.Recoil.OffsetX) * c.w
	y := (g.Y + g.Recoil.OffsetY) * c.h
	c.sprite(LayerGun, SpriteGun, Frame{}, x, y, gunW*c.h, gunH*c.h, g.Recoil.Rotation, OpRect, colGun)
}

func (c *canvas) effects(fx []game.VisualEffect, now int64) {
	for _, e := range fx {
		if e.Kind < 0 || int(e.Kind) >= len(effectTable) {
			continue
		}
		es := effectTable[e.Kind]
		elapsed := now - e.Start
		d := es.size * e.Scale * c.h

		if c.has(es.sprite) {
			frame := Frame{
				Index:   es.sheet.FrameAt(elapsed),
				Columns: es.sheet.Columns,
				Rows:    es.sheet.Rows,
			}
			c.sprite(LayerEffects, es.sprite, frame, e.X*c.w, e.Y*c.h, d, d, e.Rotation, OpCircle, es.fallback)
			continue
		}
		col := es.fallback
		col.A = fade(col.A, elapsed, es.sheet.DurationMs())
		c.emit(Op{Kind: OpCircle, Layer: LayerEffects, X: e.X * c.w, Y: e.Y * c.h, W: d, H: d, Color: col})
	}
}

// fade scales alpha linearly to zero over durMs.
func fade(a uint8, elapsed, durMs int64) uint8 {
	if durMs <= 0 || elapsed <= 0 {
		return a
	}
	if elapsed >= durMs {
		return 0
	}
	return uint8(int64(a) * (durMs - elapsed) / durMs)
}

func (c *canvas) ui(s game.GameState, alertMs int64) {
	switch s.Phase {
	case game.PhaseReady:
		c.banner("TAP TO START")
	case game.PhaseCountdown:
		c.text(fmt.Sprintf("%d", s.Countdown), c.w/2, c.h/2-countdownText*c.h/2, countdownText*c.h, AlignCenter, colCountdown, 0)
	case game.PhasePlaying:
		c.score(s.Score)
		c.clock(s.Remaining(), alertMs)
	case game.PhaseFinished, game.PhaseExporting:
		c.score(s.Score)
		c.banner(fmt.Sprintf("TIME UP  %d/%d  %.0f%%", s.Score.Hits, s.Score.TotalShots, s.Score.Accuracy()*100))
	}
	if s.Recording.Active {
		c.recording(s)
	}
}

func (c *canvas) banner(msg string) {
	size := bannerText * c.h
	c.emit(Op{Kind: OpRect, Layer: LayerUI, X: c.w / 2, Y: c.h / 2, W: c.w, H: size * 2, Color: colBannerBg})
	c.text(msg, c.w/2, c.h/2-size/2, size, AlignCenter, colText, 0)
}

func (c *canvas) score(sc game.Score) {
	c.text(fmt.Sprintf("HITS %d / %d", sc.Hits, sc.TotalShots), c.w/2, 0.03*c.h, hudText*c.h, AlignCenter, colText, 0)
}

func (c *canvas) clock(remainingMs, alertMs int64) {
	col := colText
	if remainingMs <= alertMs {
		col = colAlert
	}
	c.text(FormatRemaining(remainingMs), 0.96*c.w, 0.03*c.h, hudText*c.h, AlignRight, col, 0)
}

// recording draws the REC badge and the elapsed capture time, rotated to
// read along the left edge.
func (c *canvas) recording(s game.GameState) {
	d := recDot * c.h
	x, y := 0.96*c.w-d/2, 0.1*c.h
	c.emit(Op{Kind: OpCircle, Layer: LayerUI, X: x - 2.5*hudText*c.h, Y: y + d/2, W: d, H: d, Color: colRec})
	c.text("REC", 0.96*c.w, y, hudText*c.h, AlignRight, colRec, 0)

	elapsed := max(s.Timestamp-s.Recording.StartedAt, 0)
	c.text(fmt.Sprintf("%.2f", float64(elapsed)/1000), overlayInset*c.w, overlayInset*c.h, timerText*c.h, AlignLeft, colRec, 90)
}

// FormatRemaining renders ms as m:ss, rounding up so 0:00 only shows at the
// very end.
func FormatRemaining(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	secs := (ms + 999) / 1000
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
