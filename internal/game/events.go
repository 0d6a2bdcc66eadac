package game

import "encoding/json"

// EventKind classifies entries of the causal event log.
type EventKind int

const (
	EventTap EventKind = iota
	EventBulletFired
	EventTargetHit
	EventBulletBlocked
)

func (k EventKind) String() string {
	switch k {
	case EventTap:
		return "tap"
	case EventBulletFired:
		return "bullet_fired"
	case EventTargetHit:
		return "target_hit"
	case EventBulletBlocked:
		return "bullet_blocked"
	}
	return "unknown"
}

// MarshalText lets the kind appear by name in exported JSON.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// GameEvent is one append-only audit record. The log is exported, never fed
// back into the simulation.
type GameEvent struct {
	Kind      EventKind `json:"kind"`
	Timestamp int64     `json:"timestamp"`
	BulletID  int64     `json:"bulletId,omitempty"`
	TargetID  int64     `json:"targetId,omitempty"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
}

// Replay is the export bundle handed to whatever writes share files.
type Replay struct {
	SessionID  string      `json:"sessionId"`
	Events     []GameEvent `json:"events"`
	Duration   int64       `json:"duration"`
	FinalScore Score       `json:"finalScore"`
}

// JSON renders the replay for clipboard or report output.
func (r Replay) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// CountEvents returns how many events of kind k are in evs.
func CountEvents(evs []GameEvent, k EventKind) int {
	n := 0
	for _, e := range evs {
		if e.Kind == k {
			n++
		}
	}
	return n
}
