// Package anim holds the sprite-sheet timing law shared by every transient
// effect: frame = floor(elapsed / frameDuration), clamped or wrapped.
package anim

import "image"

// Sheet describes a grid of equally sized frames laid out row-major.
type Sheet struct {
	Frames          int
	FrameDurationMs int64
	Columns         int
	Rows            int
	Loop            bool
}

// Stock sheets for the effect kinds. Durations line up with the default
// effect lifetimes so the last frame is on screen when the effect expires.
var (
	MuzzleFlash = Sheet{Frames: 4, FrameDurationMs: 25, Columns: 4, Rows: 1}
	Explosion   = Sheet{Frames: 10, FrameDurationMs: 50, Columns: 5, Rows: 2}
	Spark       = Sheet{Frames: 4, FrameDurationMs: 50, Columns: 4, Rows: 1}
	BulletTrail = Sheet{Frames: 6, FrameDurationMs: 50, Columns: 6, Rows: 1, Loop: true}
)

// DurationMs is the length of one full pass through the sheet.
func (s Sheet) DurationMs() int64 {
	return int64(s.Frames) * s.FrameDurationMs
}

// FrameAt returns the frame index for elapsed ms since the effect started.
// Negative elapsed gives frame 0. Non-looping sheets hold the last frame.
func (s Sheet) FrameAt(elapsedMs int64) int {
	if s.Frames <= 1 || s.FrameDurationMs <= 0 || elapsedMs <= 0 {
		return 0
	}
	idx := elapsedMs / s.FrameDurationMs
	if s.Loop {
		return int(idx % int64(s.Frames))
	}
	if idx >= int64(s.Frames) {
		return s.Frames - 1
	}
	return int(idx)
}

// Complete reports whether a non-looping sheet has played out. Looping
// sheets never complete.
func (s Sheet) Complete(elapsedMs int64) bool {
	if s.Loop {
		return false
	}
	return elapsedMs >= s.DurationMs()
}

// FrameRect returns the source rectangle of frame index inside a sheet
// image of imgW x imgH pixels.
func (s Sheet) FrameRect(index, imgW, imgH int) image.Rectangle {
	cols, rows := max(s.Columns, 1), max(s.Rows, 1)
	fw, fh := imgW/cols, imgH/rows
	if s.Frames > 0 {
		index = min(max(index, 0), s.Frames-1)
	} else {
		index = 0
	}
	x := (index % cols) * fw
	y := (index / cols) * fh
	return image.Rect(x, y, x+fw, y+fh)
}
