// Package record is the second render consumer. It runs on the encoder's
// presentation timeline, maps each frame back to game time, and draws the
// snapshot that was live at that moment from the engine's history.
package record

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Garsondee/Camshot/internal/game"
	"github.com/Garsondee/Camshot/internal/render"
)

// Source is the read side of the engine the recorder needs.
type Source interface {
	CurrentSnapshot() game.GameState
	Lookup(ts int64) game.GameState
}

// Frame is one rendered video frame.
type Frame struct {
	Index    int
	PTS      time.Duration // presentation time from the encoder
	GameTime int64         // ms since play began, after normalization
	Width    int
	Height   int
	Ops      []render.Op
}

// FrameSink receives frames in presentation order.
type FrameSink interface {
	WriteFrame(ctx context.Context, f Frame) error
}

// Recorder turns presentation timestamps into rendered frames.
type Recorder struct {
	src      Source
	sink     FrameSink
	renderer render.Renderer
	sprites  render.SpriteSource
	width    int
	height   int
	logger   *slog.Logger

	mu        sync.Mutex
	started   bool
	firstPTS  time.Duration
	startGame int64
	frames    int
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithRenderer overrides the default renderer settings.
func WithRenderer(r render.Renderer) Option {
	return func(rec *Recorder) { rec.renderer = r }
}

// WithSprites sets the sprite source passed to the renderer.
func WithSprites(s render.SpriteSource) Option {
	return func(rec *Recorder) { rec.sprites = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(rec *Recorder) { rec.logger = l }
}

// New creates a recorder that renders width x height frames into sink.
func New(src Source, sink FrameSink, width, height int, opts ...Option) *Recorder {
	r := &Recorder{
		src:      src,
		sink:     sink,
		renderer: render.Default,
		width:    width,
		height:   height,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Frame renders the frame presented at pts. The first call pins pts to the
// game time at which recording started; later frames are offset from it.
func (r *Recorder) Frame(ctx context.Context, pts time.Duration) (Frame, error) {
	r.mu.Lock()
	if !r.started {
		r.started = true
		r.firstPTS = pts
		cur := r.src.CurrentSnapshot()
		r.startGame = cur.Timestamp
		if cur.Recording.Active {
			r.startGame = cur.Recording.StartedAt
		}
		r.logger.Info("recording started", "game_ms", r.startGame, "pts", pts)
	}
	gameTime := r.startGame + (pts - r.firstPTS).Milliseconds()
	idx := r.frames
	r.frames++
	r.mu.Unlock()

	s := r.src.Lookup(gameTime)
	f := Frame{
		Index:    idx,
		PTS:      pts,
		GameTime: gameTime,
		Width:    r.width,
		Height:   r.height,
		Ops:      r.renderer.Render(s, r.width, r.height, r.sprites),
	}
	if err := r.sink.WriteFrame(ctx, f); err != nil {
		return f, fmt.Errorf("write frame %d: %w", idx, err)
	}
	return f, nil
}

// Frames returns how many frames were produced.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Reset forgets the timeline so the next Frame starts a new recording.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = false
	r.frames = 0
}

// MemorySink keeps frames in memory.
type MemorySink struct {
	mu     sync.Mutex
	frames []Frame
}

// WriteFrame appends f.
func (m *MemorySink) WriteFrame(ctx context.Context, f Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, f)
	return nil
}

// Frames returns a copy of the stored frames.
func (m *MemorySink) Frames() []Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Frame, len(m.frames))
	copy(out, m.frames)
	return out
}
