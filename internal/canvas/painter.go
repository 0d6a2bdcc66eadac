package canvas

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/Garsondee/Camshot/internal/anim"
	"github.com/Garsondee/Camshot/internal/render"
)

// boldAbove is the text size in pixels from which the bold face is used.
const boldAbove = 48

// Painter draws render ops onto ebiten images.
type Painter struct {
	atlas   *Atlas
	regular *text.GoTextFaceSource
	bold    *text.GoTextFaceSource
	pixel   *ebiten.Image
}

// NewPainter loads the HUD fonts. atlas may be nil.
func NewPainter(atlas *Atlas) (*Painter, error) {
	regular, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("load regular font: %w", err)
	}
	bold, err := text.NewGoTextFaceSource(bytes.NewReader(gobold.TTF))
	if err != nil {
		return nil, fmt.Errorf("load bold font: %w", err)
	}
	pixel := ebiten.NewImage(1, 1)
	pixel.Fill(color.White)
	return &Painter{atlas: atlas, regular: regular, bold: bold, pixel: pixel}, nil
}

// Sprites returns the atlas as the renderer's sprite source.
func (p *Painter) Sprites() render.SpriteSource {
	return p.atlas
}

// Draw executes ops in order on dst.
func (p *Painter) Draw(dst *ebiten.Image, ops []render.Op) {
	for _, op := range ops {
		switch op.Kind {
		case render.OpRect:
			p.rect(dst, op)
		case render.OpCircle:
			vector.FillCircle(dst, float32(op.X), float32(op.Y), float32(op.W/2), op.Color, true)
		case render.OpSprite:
			p.sprite(dst, op)
		case render.OpText:
			p.text(dst, op)
		}
	}
}

func (p *Painter) rect(dst *ebiten.Image, op render.Op) {
	if op.Rotation == 0 {
		vector.FillRect(dst, float32(op.X-op.W/2), float32(op.Y-op.H/2), float32(op.W), float32(op.H), op.Color, false)
		return
	}
	// Rotated rects go through a scaled white pixel.
	opts := &ebiten.DrawImageOptions{}
	opts.GeoM = centredGeoM(op, 1, 1)
	opts.ColorScale.ScaleWithColor(op.Color)
	dst.DrawImage(p.pixel, opts)
}

func (p *Painter) sprite(dst *ebiten.Image, op render.Op) {
	img := p.atlas.Image(op.Sprite)
	if img == nil {
		return
	}
	if op.Frame.Columns > 0 && op.Frame.Rows > 0 {
		sheet := anim.Sheet{
			Frames:  op.Frame.Columns * op.Frame.Rows,
			Columns: op.Frame.Columns,
			Rows:    op.Frame.Rows,
		}
		b := img.Bounds()
		img = img.SubImage(sheet.FrameRect(op.Frame.Index, b.Dx(), b.Dy()).Add(b.Min)).(*ebiten.Image)
	}
	b := img.Bounds()
	opts := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear}
	opts.GeoM = centredGeoM(op, float64(b.Dx()), float64(b.Dy()))
	opts.ColorScale.ScaleAlpha(float32(op.Color.A) / 255)
	dst.DrawImage(img, opts)
}

func (p *Painter) text(dst *ebiten.Image, op render.Op) {
	src := p.regular
	if op.Size >= boldAbove {
		src = p.bold
	}
	face := &text.GoTextFace{Source: src, Size: op.Size}
	opts := &text.DrawOptions{}
	opts.PrimaryAlign = textAlign(op.Align)
	opts.GeoM.Rotate(op.Rotation * math.Pi / 180)
	opts.GeoM.Translate(op.X, op.Y)
	opts.ColorScale.ScaleWithColor(op.Color)
	text.Draw(dst, op.Text, face, opts)
}

// centredGeoM maps an srcW x srcH image onto the op's centred, rotated box.
func centredGeoM(op render.Op, srcW, srcH float64) ebiten.GeoM {
	var g ebiten.GeoM
	if srcW > 0 && srcH > 0 {
		g.Scale(op.W/srcW, op.H/srcH)
	}
	g.Translate(-op.W/2, -op.H/2)
	g.Rotate(op.Rotation * math.Pi / 180)
	g.Translate(op.X, op.Y)
	return g
}

func textAlign(a render.Align) text.Align {
	switch a {
	case render.AlignCenter:
		return text.AlignCenter
	case render.AlignRight:
		return text.AlignEnd
	}
	return text.AlignStart
}
