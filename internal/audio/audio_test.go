package audio

import (
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/gopxl/beep"

	"github.com/Garsondee/Camshot/internal/game"
)

// drain streams s to exhaustion and returns the sample count.
func drain(t *testing.T, s beep.Streamer) int {
	t.Helper()
	buf := make([][2]float64, 512)
	total := 0
	for i := 0; i < 10_000; i++ {
		n, ok := s.Stream(buf)
		for j := 0; j < n; j++ {
			if buf[j][0] < -2 || buf[j][0] > 2 {
				t.Fatalf("sample %d out of range: %f", total+j, buf[j][0])
			}
		}
		total += n
		if !ok {
			return total
		}
	}
	t.Fatal("stream never ended")
	return 0
}

func TestOscillatorLength(t *testing.T) {
	rate := beep.SampleRate(44100)
	for _, w := range []WaveType{WaveSine, WaveSquare, WaveSaw, WaveNoise} {
		osc := NewOscillator(440, 100*time.Millisecond, w, rate)
		if got, want := drain(t, osc), rate.N(100*time.Millisecond); got != want {
			t.Errorf("wave %d: %d samples, want %d", w, got, want)
		}
		if osc.Err() != nil {
			t.Errorf("wave %d: unexpected error %v", w, osc.Err())
		}
	}
}

func TestEnvelopeSilencesEdges(t *testing.T) {
	rate := beep.SampleRate(1000)
	env := NewEnvelope(NewOscillator(0, time.Second, WaveSquare, rate), time.Second, 100*time.Millisecond, 100*time.Millisecond, rate)

	buf := make([][2]float64, 1000)
	n, _ := env.Stream(buf)
	if n != 1000 {
		t.Fatalf("streamed %d samples, want 1000", n)
	}
	if buf[0][0] != 0 {
		t.Errorf("first sample %f, want 0 at attack start", buf[0][0])
	}
	if buf[500][0] != 1 {
		t.Errorf("sustain sample %f, want 1", buf[500][0])
	}
	if buf[999][0] > 0.02 {
		t.Errorf("last sample %f, want near 0", buf[999][0])
	}
}

func TestCuesEnd(t *testing.T) {
	rate := beep.SampleRate(22050)
	for _, c := range []Cue{CueShot, CueHit, CueRicochet, CueCountdown, CueTimeUp} {
		n := drain(t, c.Streamer(rate))
		if want := rate.N(c.Length()); n < want-1 || n > want+1 {
			t.Errorf("%s: %d samples, want about %d", c, n, want)
		}
	}
}

func TestCueForEvent(t *testing.T) {
	cases := []struct {
		kind game.EventKind
		cue  Cue
		ok   bool
	}{
		{game.EventTap, 0, false},
		{game.EventBulletFired, CueShot, true},
		{game.EventTargetHit, CueHit, true},
		{game.EventBulletBlocked, CueRicochet, true},
	}
	for _, tc := range cases {
		c, ok := CueForEvent(tc.kind)
		if ok != tc.ok || (ok && c != tc.cue) {
			t.Errorf("%s: got (%s, %v), want (%s, %v)", tc.kind, c, ok, tc.cue, tc.ok)
		}
	}
}

// feed is an in-memory event log keyed by session id.
type feed struct {
	session string
	events  []game.GameEvent
}

func (f *feed) EventsSince(session string, from int) (string, []game.GameEvent) {
	if session != f.session || from > len(f.events) {
		from = 0
	}
	return f.session, slices.Clone(f.events[from:])
}

// The player works without a speaker; Sync still reports what it would play.
func TestPlayer_SyncWithoutSpeaker(t *testing.T) {
	p := NewPlayer(slog.New(slog.DiscardHandler))
	f := &feed{}

	cd := game.GameState{Phase: game.PhaseCountdown, Countdown: 3}
	if got := p.Sync(cd, f); !slices.Equal(got, []Cue{CueCountdown}) {
		t.Errorf("countdown start: %v", got)
	}
	if got := p.Sync(cd, f); len(got) != 0 {
		t.Errorf("repeat countdown number: %v", got)
	}

	playing := game.GameState{Phase: game.PhasePlaying}
	f.session = "a"
	f.events = []game.GameEvent{{Kind: game.EventTap}, {Kind: game.EventBulletFired}}
	if got := p.Sync(playing, f); !slices.Equal(got, []Cue{CueShot}) {
		t.Errorf("first shot: %v", got)
	}
	f.events = append(f.events, game.GameEvent{Kind: game.EventTargetHit})
	if got := p.Sync(playing, f); !slices.Equal(got, []Cue{CueHit}) {
		t.Errorf("hit: %v", got)
	}

	if got := p.Sync(game.GameState{Phase: game.PhaseFinished}, f); !slices.Equal(got, []Cue{CueTimeUp}) {
		t.Errorf("finish: %v", got)
	}

	f.session, f.events = "", nil
	if got := p.Sync(game.GameState{Phase: game.PhaseReady}, f); len(got) != 0 {
		t.Errorf("reset: %v", got)
	}
	p.Close()
}

// A new session that has already logged more events than the old one still
// gets every cue.
func TestPlayer_SyncNewSessionWithLongerLog(t *testing.T) {
	p := NewPlayer(slog.New(slog.DiscardHandler))
	playing := game.GameState{Phase: game.PhasePlaying}

	f := &feed{session: "a", events: []game.GameEvent{{Kind: game.EventBulletFired}}}
	if got := p.Sync(playing, f); !slices.Equal(got, []Cue{CueShot}) {
		t.Fatalf("first session: %v", got)
	}

	f.session = "b"
	f.events = []game.GameEvent{
		{Kind: game.EventBulletFired},
		{Kind: game.EventBulletBlocked},
		{Kind: game.EventBulletFired},
	}
	want := []Cue{CueShot, CueRicochet, CueShot}
	if got := p.Sync(playing, f); !slices.Equal(got, want) {
		t.Errorf("second session: %v, want %v", got, want)
	}
	if got := p.Sync(playing, f); len(got) != 0 {
		t.Errorf("repeat sync: %v", got)
	}
}
