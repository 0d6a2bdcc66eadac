// Package termview plays the game in a terminal. Draw lists from the
// renderer are rasterized onto character cells; a cell is two render units
// tall so shapes keep roughly their proportions.
package termview

import (
	"image/color"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/Garsondee/Camshot/internal/render"
)

// Viewport returns the render size for a cols x rows terminal.
func Viewport(cols, rows int) (w, h int) {
	return cols, rows * 2
}

// Draw clears screen and paints ops. It does not call Show.
func Draw(screen tcell.Screen, ops []render.Op) {
	screen.Clear()
	cols, rows := screen.Size()
	for _, op := range ops {
		if op.Color.A == 0 {
			continue
		}
		switch op.Kind {
		case render.OpRect, render.OpSprite:
			fillRect(screen, op, cols, rows)
		case render.OpCircle:
			fillCircle(screen, op, cols, rows)
		case render.OpText:
			drawText(screen, op, cols, rows)
		}
	}
}

func rgb(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// cellSpan returns the cells covering [c-size/2, c+size/2), at least one.
func cellSpan(c, size float64) (lo, hi int) {
	lo = int(math.Floor(c - size/2))
	hi = int(math.Ceil(c + size/2))
	if hi <= lo {
		lo = int(math.Floor(c))
		hi = lo + 1
	}
	return lo, hi
}

func fillRect(screen tcell.Screen, op render.Op, cols, rows int) {
	style := tcell.StyleDefault.Background(rgb(op.Color))
	x0, x1 := cellSpan(op.X, op.W)
	y0, y1 := cellSpan(op.Y/2, op.H/2)
	for y := max(y0, 0); y < min(y1, rows); y++ {
		for x := max(x0, 0); x < min(x1, cols); x++ {
			screen.SetContent(x, y, ' ', nil, style)
		}
	}
}

func fillCircle(screen tcell.Screen, op render.Op, cols, rows int) {
	cx, cy := op.X, op.Y/2
	r := op.W / 2
	if r < 1 {
		// Too small for a filled disc.
		x, y := int(cx), int(cy)
		if x >= 0 && x < cols && y >= 0 && y < rows {
			_, _, st, _ := screen.GetContent(x, y)
			screen.SetContent(x, y, '•', nil, st.Foreground(rgb(op.Color)))
		}
		return
	}
	style := tcell.StyleDefault.Background(rgb(op.Color))
	x0, x1 := cellSpan(cx, op.W)
	y0, y1 := cellSpan(cy, op.H/2)
	for y := max(y0, 0); y < min(y1, rows); y++ {
		for x := max(x0, 0); x < min(x1, cols); x++ {
			dx := (float64(x) + 0.5 - cx) / r
			dy := (float64(y) + 0.5 - cy) / (r / 2)
			if dx*dx+dy*dy <= 1 {
				screen.SetContent(x, y, ' ', nil, style)
			}
		}
	}
}

// drawText writes op.Text on one row, or down one column when rotated.
// Existing backgrounds show through.
func drawText(screen tcell.Screen, op render.Op, cols, rows int) {
	runes := []rune(op.Text)
	x, y := int(op.X), int(op.Y/2)
	vertical := op.Rotation != 0
	if !vertical {
		switch op.Align {
		case render.AlignCenter:
			x -= len(runes) / 2
		case render.AlignRight:
			x -= len(runes)
		}
	}
	fg := rgb(op.Color)
	for _, r := range runes {
		if x >= 0 && x < cols && y >= 0 && y < rows {
			_, _, st, _ := screen.GetContent(x, y)
			screen.SetContent(x, y, r, nil, st.Foreground(fg).Bold(true))
		}
		if vertical {
			y++
		} else {
			x++
		}
	}
}
