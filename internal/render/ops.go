// Package render turns a game snapshot into an ordered list of draw
// operations. It performs no I/O; hosts execute the list on whatever surface
// they own.
package render

import "image/color"

// SpriteID names a drawable asset. Hosts decide how it is decoded.
type SpriteID string

const (
	SpriteGun         SpriteID = "gun"
	SpriteMonster     SpriteID = "monster"
	SpriteBarrier     SpriteID = "barrier"
	SpriteBullet      SpriteID = "bullet"
	SpriteMuzzleFlash SpriteID = "muzzle_flash"
	SpriteExplosion   SpriteID = "explosion"
	SpriteSpark       SpriteID = "spark"
	SpriteBulletTrail SpriteID = "bullet_trail"
)

// SpriteIDs lists every id the renderer may ask for.
func SpriteIDs() []SpriteID {
	return []SpriteID{
		SpriteGun, SpriteMonster, SpriteBarrier, SpriteBullet,
		SpriteMuzzleFlash, SpriteExplosion, SpriteSpark, SpriteBulletTrail,
	}
}

// SpriteSource reports which sprites the host can draw. A nil source means
// none; every miss falls back to a flat-colour primitive.
//
//go:generate go tool mockgen -destination=./mocks/sprites_mock.go -package=mocks . SpriteSource
type SpriteSource interface {
	Has(id SpriteID) bool
}

// OpKind is the primitive an Op draws.
type OpKind int

const (
	OpRect OpKind = iota
	OpCircle
	OpSprite
	OpText
)

func (k OpKind) String() string {
	switch k {
	case OpRect:
		return "rect"
	case OpCircle:
		return "circle"
	case OpSprite:
		return "sprite"
	case OpText:
		return "text"
	}
	return "unknown"
}

// Layer groups ops. Render always emits layers in ascending order.
type Layer int

const (
	LayerBarrier Layer = iota
	LayerTarget
	LayerBullets
	LayerGun
	LayerEffects
	LayerUI
)

// Align is horizontal text anchoring.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Frame selects one cell of a sprite sheet.
type Frame struct {
	Index   int
	Columns int
	Rows    int
}

// Op is one draw operation in viewport pixels. Geometry ops are centred on
// (X, Y) with extent W x H and rotate about their centre; text is anchored
// at (X, Y) by its top edge and Align.
type Op struct {
	Kind     OpKind
	Layer    Layer
	X, Y     float64
	W, H     float64
	Rotation float64 // degrees, clockwise
	Color    color.RGBA
	Sprite   SpriteID
	Frame    Frame
	Text     string
	Size     float64 // text height in pixels
	Align    Align
}
