package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Garsondee/Camshot/internal/game"
)

type runStats struct {
	runIndex int
	seed     int64
	bot      string

	ticks     int
	shots     int
	hits      int
	blocked   int
	debounced int
	respawns  int
	clamped   int

	firstShotTick int
	firstHitTick  int
	hitTicks      []int
	blockedYs     []float64

	replay game.Replay
}

func (rs runStats) accuracy() float64 {
	if rs.shots == 0 {
		return 0
	}
	return float64(rs.hits) / float64(rs.shots)
}

// tapPolicy decides whether the bot taps on this tick.
type tapPolicy func(tick int, s game.GameState) bool

// bots maps -bot names to tap policies.
var bots = map[string]func(every int) tapPolicy{
	// steady taps every n ticks regardless of aim.
	"steady": func(every int) tapPolicy {
		return func(tick int, _ game.GameState) bool { return tick%every == 0 }
	},
	// aimed taps when the gun lines up with a gap and the target is up.
	"aimed": func(every int) tapPolicy {
		return func(tick int, s game.GameState) bool {
			return tick%every == 0 && s.Target.Hittable() && aligned(s)
		}
	},
}

// aligned reports whether a shot from the gun would pass a gap and meet the
// target.
func aligned(s game.GameState) bool {
	if !s.Barrier.InGap(s.Gun.Y) {
		return false
	}
	d := s.Gun.Y - s.Target.Y
	return d*d < (s.Target.Size/2)*(s.Target.Size/2)
}

func main() {
	var runs int
	var seedBase int64
	var seedStep int64
	var bot string
	var tapEvery int
	var workers int
	var configPath string
	var dumpReplay bool
	var verbose bool

	flag.IntVar(&runs, "runs", 5, "number of headless sessions")
	flag.Int64Var(&seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&bot, "bot", "aimed", "tapping bot (steady, aimed)")
	flag.IntVar(&tapEvery, "tap-every", 4, "ticks between tap attempts")
	flag.IntVar(&workers, "workers", 4, "sessions simulated in parallel")
	flag.StringVar(&configPath, "config", "", "optional JSON tuning file")
	flag.BoolVar(&dumpReplay, "replay", false, "print run 1's replay JSON")
	flag.BoolVar(&verbose, "v", false, "print run 1's full sim log")
	flag.Parse()

	if runs <= 0 {
		fmt.Println("error: -runs must be > 0")
		os.Exit(2)
	}
	if tapEvery <= 0 {
		fmt.Println("error: -tap-every must be > 0")
		os.Exit(2)
	}
	newPolicy, ok := bots[bot]
	if !ok {
		fmt.Printf("error: unsupported bot %q (supported: %s)\n", bot, strings.Join(botNames(), ", "))
		os.Exit(2)
	}

	cfg := game.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = game.LoadConfig(configPath); err != nil {
			fmt.Printf("error: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("=== Headless Session Report ===\n")
	fmt.Printf("bot=%s runs=%d tap_every=%d seed_base=%d seed_step=%d duration=%dms\n\n",
		bot, runs, tapEvery, seedBase, seedStep, cfg.GameDurationMs)

	all := make([]runStats, runs)
	var log1 string
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(max(workers, 1))
	for i := 0; i < runs; i++ {
		seed := seedBase + int64(i)*seedStep
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rs, ts := runSession(i+1, seed, cfg, bot, newPolicy(tapEvery), verbose && i == 0)
			all[i] = rs
			if i == 0 && verbose {
				log1 = ts.SimLog.Format()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}

	for _, rs := range all {
		printRun(rs)
	}
	printAggregate(all)

	if verbose {
		fmt.Println("\n=== Run 1 Sim Log ===")
		fmt.Print(log1)
	}
	if dumpReplay {
		data, err := all[0].replay.JSON()
		if err != nil {
			fmt.Printf("error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("\n=== Run 1 Replay ===")
		fmt.Println(string(data))
	}
}

// runSession plays one full session on a manual clock.
func runSession(runIndex int, seed int64, cfg game.Config, bot string, policy tapPolicy, verbose bool) (runStats, *game.TestSim) {
	ts := game.NewTestSim(
		game.WithConfig(func(c *game.Config) { *c = cfg }),
		game.WithSeed(seed),
		game.WithVerbose(verbose),
	)
	ts.Start()
	limit := cfg.GameDurationMs/cfg.TickPeriodMs + 10
	for i := 0; i < limit && ts.State().Phase == game.PhasePlaying; i++ {
		if policy(i, ts.State()) {
			ts.Tap()
		}
		ts.Step()
	}
	return collect(runIndex, seed, bot, ts), ts
}

func collect(runIndex int, seed int64, bot string, ts *game.TestSim) runStats {
	entries := ts.SimLog.Entries()
	final := ts.State()
	rs := runStats{
		runIndex:      runIndex,
		seed:          seed,
		bot:           bot,
		ticks:         ts.Engine.Ticks(),
		shots:         final.Score.TotalShots,
		hits:          final.Score.Hits,
		blocked:       ts.SimLog.CountCategory("collision", "blocked"),
		debounced:     ts.SimLog.CountCategory("shot", "debounced"),
		respawns:      ts.SimLog.CountCategory("target", "respawn"),
		clamped:       ts.SimLog.CountCategory("phase", "clamped"),
		firstShotTick: firstTick(entries, "shot", "fired", ""),
		firstHitTick:  firstTick(entries, "collision", "hit", ""),
		replay:        ts.Engine.ReplayData(),
	}
	for _, e := range entries {
		switch {
		case e.Category == "collision" && e.Key == "hit":
			rs.hitTicks = append(rs.hitTicks, e.Tick)
		case e.Category == "collision" && e.Key == "blocked":
			rs.blockedYs = append(rs.blockedYs, e.NumVal)
		}
	}
	return rs
}

func firstTick(entries []game.SimLogEntry, category, key, contains string) int {
	for _, e := range entries {
		if e.Category != category || e.Key != key {
			continue
		}
		if contains == "" || strings.Contains(e.Value, contains) {
			return e.Tick
		}
	}
	return -1
}

func printRun(rs runStats) {
	fmt.Printf("--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)
	fmt.Printf("score: hits=%d shots=%d accuracy=%.0f%%\n", rs.hits, rs.shots, rs.accuracy()*100)
	fmt.Printf("event_totals: blocked=%d debounced=%d respawns=%d clamped_steps=%d ticks=%d\n",
		rs.blocked, rs.debounced, rs.respawns, rs.clamped, rs.ticks)
	fmt.Printf("markers: first_shot=%d first_hit=%d mean_hit_gap=%s\n",
		rs.firstShotTick, rs.firstHitTick, meanGapString(rs.hitTicks))
	fmt.Printf("blocked_bands: %s\n", bandHistogram(rs.blockedYs, 5))
	fmt.Println()
}

func printAggregate(all []runStats) {
	totalShots, totalHits, totalBlocked, totalDebounced := 0, 0, 0, 0
	firstHits := make([]int, 0, len(all))
	accs := make([]float64, 0, len(all))
	for _, rs := range all {
		totalShots += rs.shots
		totalHits += rs.hits
		totalBlocked += rs.blocked
		totalDebounced += rs.debounced
		if rs.firstHitTick >= 0 {
			firstHits = append(firstHits, rs.firstHitTick)
		}
		accs = append(accs, rs.accuracy())
	}
	sort.Float64s(accs)

	fmt.Println("=== Aggregate ===")
	fmt.Printf("runs=%d\n", len(all))
	fmt.Printf("avg_per_run: shots=%.1f hits=%.1f blocked=%.1f debounced=%.1f\n",
		avg(totalShots, len(all)), avg(totalHits, len(all)), avg(totalBlocked, len(all)), avg(totalDebounced, len(all)))
	fmt.Printf("accuracy: overall=%.1f%% median=%.1f%%\n", ratio(totalHits, totalShots)*100, median(accs)*100)
	fmt.Printf("first_hit_avg_tick=%s\n", avgTickString(firstHits))
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func ratio(a, b int) float64 {
	if b <= 0 {
		return 0
	}
	return float64(a) / float64(b)
}

func median(sorted []float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return 0
	case n%2 == 1:
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}

// meanGapString averages the spacing between consecutive ticks.
func meanGapString(ticks []int) string {
	if len(ticks) < 2 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", float64(ticks[len(ticks)-1]-ticks[0])/float64(len(ticks)-1))
}

// bandHistogram counts ys into n equal bands over [0,1].
func bandHistogram(ys []float64, n int) string {
	if len(ys) == 0 {
		return "none"
	}
	counts := make([]int, n)
	for _, y := range ys {
		b := int(y * float64(n))
		counts[min(max(b, 0), n-1)]++
	}
	parts := make([]string, n)
	for i, c := range counts {
		parts[i] = fmt.Sprintf("%.1f-%.1f:%d", float64(i)/float64(n), float64(i+1)/float64(n), c)
	}
	return strings.Join(parts, " ")
}

func botNames() []string {
	names := make([]string, 0, len(bots))
	for k := range bots {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
