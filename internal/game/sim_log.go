package game

import (
	"fmt"
	"strings"
)

// SimLogEntry is one recorded event during a headless simulation.
type SimLogEntry struct {
	Tick     int
	Actor    string  // label e.g. "B7", "T1", or "--" for global events
	Category string  // phase, shot, collision, target, effect
	Key      string  // specific event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[T=042] B7   collision blocked         y=0.48 bounce=1
func (e SimLogEntry) String() string {
	return fmt.Sprintf("[T=%03d] %-4s %-9s %-16s %s",
		e.Tick, e.Actor, e.Category, e.Key, e.Value)
}

// SimLog collects structured events during a headless simulation. It is
// unbounded and machine-readable, and not safe for concurrent use: read it
// after the run.
type SimLog struct {
	entries []SimLogEntry
	verbose bool
}

// NewSimLog creates a SimLog. If verbose is true, per-tick gun and bullet
// entries are also recorded.
func NewSimLog(verbose bool) *SimLog {
	return &SimLog{verbose: verbose}
}

// Add records a new entry.
func (sl *SimLog) Add(tick int, actor, category, key, value string, numVal float64) {
	sl.entries = append(sl.entries, SimLogEntry{
		Tick:     tick,
		Actor:    actor,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
}

// AddVerbose records an entry only when verbose mode is on.
func (sl *SimLog) AddVerbose(tick int, actor, category, key, value string, numVal float64) {
	if !sl.verbose {
		return
	}
	sl.Add(tick, actor, category, key, value, numVal)
}

// Entries returns all recorded entries.
func (sl *SimLog) Entries() []SimLogEntry {
	return sl.entries
}

// Filter returns entries matching the given category and/or key.
// Pass empty string to match any value for that field.
func (sl *SimLog) Filter(category, key string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterActor returns entries for a specific actor label.
func (sl *SimLog) FilterActor(label string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Actor == label {
			out = append(out, e)
		}
	}
	return out
}

// CountCategory returns how many entries match the given category and key.
func (sl *SimLog) CountCategory(category, key string) int {
	return len(sl.Filter(category, key))
}

// LastOf returns the most recent entry matching category+key, or false if none.
func (sl *SimLog) LastOf(category, key string) (SimLogEntry, bool) {
	entries := sl.Filter(category, key)
	if len(entries) == 0 {
		return SimLogEntry{}, false
	}
	return entries[len(entries)-1], true
}

// HasEntry returns true if at least one entry matches category, key, and value substring.
func (sl *SimLog) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		if valueSubstr != "" && !strings.Contains(e.Value, valueSubstr) {
			continue
		}
		return true
	}
	return false
}

// Format returns the full log as a single string for t.Log output.
func (sl *SimLog) Format() string {
	var sb strings.Builder
	for _, e := range sl.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Summary returns a short human-readable summary of a snapshot.
func (sl *SimLog) Summary(tick int, s GameState) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Summary at T=%03d (%dms, %s) ---\n", tick, s.Timestamp, s.Phase)
	fmt.Fprintf(&sb, "Score: %d/%d  accuracy %.0f%%\n", s.Score.Hits, s.Score.TotalShots, s.Score.Accuracy()*100)
	fmt.Fprintf(&sb, "Gun: y=%.3f dir=%+.0f recoil=%v\n", s.Gun.Y, s.Gun.Direction, s.Gun.Recoil.Active)

	target := "visible"
	switch {
	case s.Target.Exploding:
		target = "exploding"
	case !s.Target.Visible:
		target = "hidden"
	}
	fmt.Fprintf(&sb, "Target: T%d y=%.3f %s\n", s.Target.ID, s.Target.Y, target)

	if len(s.Bullets) == 0 {
		sb.WriteString("Bullets: none\n")
	} else {
		parts := make([]string, len(s.Bullets))
		for i, b := range s.Bullets {
			parts[i] = fmt.Sprintf("B%d(%.2f,%.2f %s)", b.ID, b.X, b.Y, b.State)
		}
		fmt.Fprintf(&sb, "Bullets: %s\n", strings.Join(parts, ", "))
	}

	counts := map[EffectKind]int{}
	for _, fx := range s.Effects {
		counts[fx.Kind]++
	}
	sb.WriteString("Effects:")
	for _, k := range EffectKinds() {
		if n := counts[k]; n > 0 {
			fmt.Fprintf(&sb, " %s=%d", k, n)
		}
	}
	sb.WriteByte('\n')
	return sb.String()
}

func bulletLabel(id int64) string { return fmt.Sprintf("B%d", id) }
func targetLabel(id int64) string { return fmt.Sprintf("T%d", id) }
