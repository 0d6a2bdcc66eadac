package audio

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/Garsondee/Camshot/internal/game"
)

const sampleRate = beep.SampleRate(44100)

// EventFeed hands out the part of a session's event log a listener has not
// read yet. *game.Engine satisfies it.
type EventFeed interface {
	EventsSince(session string, from int) (string, []game.GameEvent)
}

// Player mixes cues into the speaker. A Player whose Init failed, or was
// never called, accepts every call and stays silent.
type Player struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
	muted       bool
	logger      *slog.Logger

	session    string
	seenEvents int
	lastPhase  game.Phase
	lastCount  int
}

// NewPlayer returns an uninitialized player.
func NewPlayer(logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{mixer: &beep.Mixer{}, logger: logger}
}

// Init opens the speaker. Calling it twice is harmless.
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(50*time.Millisecond)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	speaker.Play(p.mixer)
	p.initialized = true
	return nil
}

// SetMuted silences future cues.
func (p *Player) SetMuted(m bool) {
	p.mu.Lock()
	p.muted = m
	p.mu.Unlock()
}

// Play queues c.
func (p *Player) Play(c Cue) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized || p.muted {
		return
	}
	speaker.Lock()
	p.mixer.Add(c.Streamer(sampleRate))
	speaker.Unlock()
}

// Sync plays cues for events and phase changes not seen by the previous call.
// It returns the cues it queued, which is the whole effect when the speaker
// is unavailable. A new session id restarts the event count.
func (p *Player) Sync(s game.GameState, feed EventFeed) []Cue {
	p.mu.Lock()
	var cues []Cue
	session, events := feed.EventsSince(p.session, p.seenEvents)
	if session != p.session {
		p.session, p.seenEvents = session, 0
	}
	for _, e := range events {
		if c, ok := CueForEvent(e.Kind); ok {
			cues = append(cues, c)
		}
	}
	p.seenEvents += len(events)

	if s.Phase == game.PhaseCountdown && (p.lastPhase != game.PhaseCountdown || s.Countdown != p.lastCount) {
		cues = append(cues, CueCountdown)
	}
	if s.Phase == game.PhaseFinished && p.lastPhase == game.PhasePlaying {
		cues = append(cues, CueTimeUp)
	}
	p.lastPhase, p.lastCount = s.Phase, s.Countdown
	p.mu.Unlock()

	for _, c := range cues {
		p.Play(c)
	}
	return cues
}

// Close clears queued sounds.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	p.logger.Debug("audio closed")
}
