// Package coords converts between the four coordinate spaces the game
// touches: input surface pixels, normalized game space ([0,1], y down),
// output frame pixels, and centred device space ([-1,1], y up).
package coords

// Point is a position in any of the spaces.
type Point struct {
	X, Y float64
}

// Size is a pixel extent of a surface or frame.
type Size struct {
	W, H float64
}

// Empty reports whether either side is zero or negative.
func (s Size) Empty() bool {
	return s.W <= 0 || s.H <= 0
}

// Centre is the game-space midpoint used when a surface has no extent.
var Centre = Point{X: 0.5, Y: 0.5}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// InputToGame maps a touch or mouse position on the input surface into game
// space, clamped to [0,1].
func InputToGame(p Point, surface Size) Point {
	if surface.Empty() {
		return Centre
	}
	return Point{
		X: clamp01(p.X / surface.W),
		Y: clamp01(p.Y / surface.H),
	}
}

// GameToFrame scales a game-space point to frame pixels.
func GameToFrame(p Point, frame Size) Point {
	return Point{X: p.X * frame.W, Y: p.Y * frame.H}
}

// FrameToGame is the inverse of GameToFrame. It does not clamp.
func FrameToGame(p Point, frame Size) Point {
	if frame.Empty() {
		return Centre
	}
	return Point{X: p.X / frame.W, Y: p.Y / frame.H}
}

// InputToFrame maps an input position straight to frame pixels, e.g. when
// the preview surface and the encoder run at different resolutions.
func InputToFrame(p Point, surface, frame Size) Point {
	return GameToFrame(InputToGame(p, surface), frame)
}

// GameToDevice maps game space to centred device space.
func GameToDevice(p Point) Point {
	return Point{X: p.X*2 - 1, Y: 1 - p.Y*2}
}

// DeviceToGame is the inverse of GameToDevice.
func DeviceToGame(p Point) Point {
	return Point{X: (p.X + 1) / 2, Y: (1 - p.Y) / 2}
}

// Length converts a normalized length to pixels along an axis of the given
// extent.
func Length(n, extent float64) float64 {
	return n * extent
}
