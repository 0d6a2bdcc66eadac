package audio

import (
	"time"

	"github.com/gopxl/beep"

	"github.com/Garsondee/Camshot/internal/game"
)

// Cue names one procedural sound.
type Cue int

const (
	CueShot Cue = iota
	CueHit
	CueRicochet
	CueCountdown
	CueTimeUp
)

func (c Cue) String() string {
	switch c {
	case CueShot:
		return "shot"
	case CueHit:
		return "hit"
	case CueRicochet:
		return "ricochet"
	case CueCountdown:
		return "countdown"
	case CueTimeUp:
		return "time_up"
	}
	return "unknown"
}

// CueForEvent maps a logged game event to its sound. Taps are silent; the
// shot they cause has its own cue.
func CueForEvent(k game.EventKind) (Cue, bool) {
	switch k {
	case game.EventBulletFired:
		return CueShot, true
	case game.EventTargetHit:
		return CueHit, true
	case game.EventBulletBlocked:
		return CueRicochet, true
	}
	return 0, false
}

// Length returns how long c plays.
func (c Cue) Length() time.Duration {
	switch c {
	case CueShot:
		return 60 * time.Millisecond
	case CueHit:
		return 280 * time.Millisecond
	case CueRicochet:
		return 120 * time.Millisecond
	case CueCountdown:
		return 90 * time.Millisecond
	case CueTimeUp:
		return 450 * time.Millisecond
	}
	return 0
}

// Streamer synthesizes c at rate. Every call returns a fresh stream.
func (c Cue) Streamer(rate beep.SampleRate) beep.Streamer {
	d := c.Length()
	switch c {
	case CueShot:
		// Noise crack over a falling square thump.
		return beep.Mix(
			withVolume(NewEnvelope(NewOscillator(0, d, WaveNoise, rate), d, time.Millisecond, 45*time.Millisecond, rate), 0.35),
			withVolume(NewEnvelope(NewSweep(220, 90, d, WaveSquare, rate), d, time.Millisecond, 40*time.Millisecond, rate), 0.2),
		)
	case CueHit:
		return beep.Mix(
			withVolume(NewEnvelope(NewOscillator(0, d, WaveNoise, rate), d, 5*time.Millisecond, 220*time.Millisecond, rate), 0.4),
			withVolume(NewEnvelope(NewSweep(140, 40, d, WaveSine, rate), d, 5*time.Millisecond, 200*time.Millisecond, rate), 0.5),
		)
	case CueRicochet:
		return withVolume(NewEnvelope(NewSweep(2400, 1200, d, WaveSaw, rate), d, 2*time.Millisecond, 90*time.Millisecond, rate), 0.15)
	case CueCountdown:
		return withVolume(NewEnvelope(NewOscillator(660, d, WaveSine, rate), d, 5*time.Millisecond, 40*time.Millisecond, rate), 0.3)
	case CueTimeUp:
		half := d / 2
		return beep.Seq(
			withVolume(NewEnvelope(NewOscillator(880, half, WaveSquare, rate), half, 5*time.Millisecond, 30*time.Millisecond, rate), 0.15),
			withVolume(NewEnvelope(NewOscillator(440, half, WaveSquare, rate), half, 5*time.Millisecond, 120*time.Millisecond, rate), 0.15),
		)
	}
	return beep.Silence(0)
}
