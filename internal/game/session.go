package game

import (
	"context"
	"sync"
	"time"
)

// Session drives an Engine from a background ticker while a game is
// running. StopGame and ResetGame cancel the loop; a tick already in flight
// completes first.
type Session struct {
	*Engine

	parent context.Context
	period time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSession wraps e. The loop goroutine stops when ctx is cancelled.
func NewSession(ctx context.Context, e *Engine) *Session {
	return &Session{
		Engine: e,
		parent: ctx,
		period: e.Config().TickPeriod(),
	}
}

// StartGame begins the countdown and starts the tick loop.
func (s *Session) StartGame() {
	if s.Engine.Phase() != PhaseReady {
		return
	}
	s.Engine.StartGame()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	ctx, cancel := context.WithCancel(s.parent)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
}

// StopGame ends play early.
func (s *Session) StopGame() {
	s.mu.Lock()
	s.stopLocked()
	s.mu.Unlock()
	s.Engine.StopGame()
}

// ResetGame cancels any running loop and returns the engine to READY.
func (s *Session) ResetGame() {
	s.mu.Lock()
	s.stopLocked()
	s.mu.Unlock()
	s.Engine.ResetGame()
}

// Wait blocks until the loop goroutine exits. It returns immediately when no
// loop was started.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Close stops the loop without changing the game phase.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Session) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
}

// run ticks the engine until the phase leaves COUNTDOWN/PLAYING or ctx is
// cancelled. Cancellation is checked at the top of every iteration.
func (s *Session) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return
		}
		if ph := s.Engine.Phase(); ph != PhaseCountdown && ph != PhasePlaying {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Engine.Tick()
		}
	}
}
