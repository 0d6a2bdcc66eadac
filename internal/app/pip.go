package app

import (
	"context"
	"sync"

	"github.com/Garsondee/Camshot/internal/record"
)

// latestFrame is a record.FrameSink that keeps only the newest frame, which
// the picture-in-picture shows.
type latestFrame struct {
	mu    sync.Mutex
	frame record.Frame
	ok    bool
	count int
}

func (l *latestFrame) WriteFrame(ctx context.Context, f record.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frame, l.ok = f, true
	l.count++
	return nil
}

func (l *latestFrame) latest() (record.Frame, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frame, l.ok
}

func (l *latestFrame) clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ok = false
}
