package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the tunables for one play session. All distances are in
// normalized game space, all speeds in game units per second.
type Config struct {
	// TickPeriodMs is the nominal simulation cadence.
	TickPeriodMs int `json:"tickPeriodMs" jsonschema:"minimum=1,description=Nominal simulation tick period in milliseconds"`
	// MaxStepMs caps the physics delta of a single tick after a stall.
	MaxStepMs int `json:"maxStepMs" jsonschema:"minimum=1,description=Upper bound on the physics step after a scheduling stall"`
	// HistoryCapacity is the number of snapshots kept for timestamp lookup.
	HistoryCapacity int `json:"historyCapacity" jsonschema:"minimum=1,description=Snapshots retained for recording lookup (180 covers 3s at 16ms)"`

	GameDurationMs  int `json:"gameDurationMs" jsonschema:"minimum=1000,description=Length of a play session in milliseconds"`
	CountdownFrom   int `json:"countdownFrom" jsonschema:"minimum=1,description=First countdown value shown before play"`
	CountdownStepMs int `json:"countdownStepMs" jsonschema:"minimum=1,description=Milliseconds per countdown value"`

	GunX         float64 `json:"gunX" jsonschema:"minimum=0,maximum=1"`
	GunMinY      float64 `json:"gunMinY" jsonschema:"minimum=0,maximum=1"`
	GunMaxY      float64 `json:"gunMaxY" jsonschema:"minimum=0,maximum=1"`
	GunSpeed     float64 `json:"gunSpeed" jsonschema:"minimum=0"`
	MuzzleOffset float64 `json:"muzzleOffset" jsonschema:"minimum=0"`

	RecoilDurationMs  int     `json:"recoilDurationMs" jsonschema:"minimum=1"`
	RecoilMaxOffsetX  float64 `json:"recoilMaxOffsetX"`
	RecoilMaxOffsetY  float64 `json:"recoilMaxOffsetY"`
	RecoilMaxRotation float64 `json:"recoilMaxRotation" jsonschema:"description=Peak recoil rotation in degrees"`

	BulletSpeed float64 `json:"bulletSpeed" jsonschema:"exclusiveMinimum=0"`
	Gravity     float64 `json:"gravity"`
	MaxBounces  int     `json:"maxBounces" jsonschema:"minimum=0"`

	BarrierX     float64 `json:"barrierX" jsonschema:"minimum=0,maximum=1"`
	BarrierWidth float64 `json:"barrierWidth" jsonschema:"exclusiveMinimum=0"`
	Gaps         []Gap   `json:"gaps" jsonschema:"description=Openings in the barrier; sorted and non-overlapping"`

	TargetX    float64 `json:"targetX" jsonschema:"minimum=0,maximum=1"`
	TargetSize float64 `json:"targetSize" jsonschema:"exclusiveMinimum=0"`

	RespawnDelayMs     int `json:"respawnDelayMs" jsonschema:"minimum=0"`
	MuzzleFlashMs      int `json:"muzzleFlashMs" jsonschema:"minimum=1"`
	ExplosionMs        int `json:"explosionMs" jsonschema:"minimum=1"`
	SparkMs            int `json:"sparkMs" jsonschema:"minimum=1"`
	BulletTrailMs      int `json:"bulletTrailMs" jsonschema:"minimum=1"`
	AlertRemainingMs   int `json:"alertRemainingMs" jsonschema:"minimum=0,description=Remaining time at which the clock turns to the alert colour"`
	ExplosionScale     float64 `json:"explosionScale"`
	RespawnJitterRatio float64 `json:"respawnJitterRatio" jsonschema:"minimum=0,maximum=0.5"`
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		TickPeriodMs:    16,
		MaxStepMs:       32,
		HistoryCapacity: 180,

		GameDurationMs:  30000,
		CountdownFrom:   3,
		CountdownStepMs: 1000,

		GunX:         0.85,
		GunMinY:      0.15,
		GunMaxY:      0.85,
		GunSpeed:     0.35,
		MuzzleOffset: 0.05,

		RecoilDurationMs:  150,
		RecoilMaxOffsetX:  0.02,
		RecoilMaxOffsetY:  -0.01,
		RecoilMaxRotation: 15,

		BulletSpeed: 1.2,
		Gravity:     2.0,
		MaxBounces:  3,

		BarrierX:     0.45,
		BarrierWidth: 0.04,
		Gaps: []Gap{
			{Start: 0.20, End: 0.34},
			{Start: 0.58, End: 0.72},
		},

		TargetX:    0.15,
		TargetSize: 0.10,

		RespawnDelayMs:     800,
		MuzzleFlashMs:      100,
		ExplosionMs:        500,
		SparkMs:            200,
		BulletTrailMs:      300,
		AlertRemainingMs:   5000,
		ExplosionScale:     1.5,
		RespawnJitterRatio: 0.2,
	}
}

// TickPeriod returns the nominal cadence as a duration.
func (c Config) TickPeriod() time.Duration {
	return time.Duration(c.TickPeriodMs) * time.Millisecond
}

// EffectDuration returns the fixed lifetime of an effect kind in ms.
func (c Config) EffectDuration(k EffectKind) int64 {
	switch k {
	case EffectMuzzleFlash:
		return int64(c.MuzzleFlashMs)
	case EffectExplosion:
		return int64(c.ExplosionMs)
	case EffectSpark:
		return int64(c.SparkMs)
	case EffectBulletTrail:
		return int64(c.BulletTrailMs)
	}
	return 0
}

// Validate checks the ranges the engine relies on.
func (c Config) Validate() error {
	switch {
	case c.TickPeriodMs <= 0:
		return fmt.Errorf("%w: tickPeriodMs must be positive", ErrInvalidConfig)
	case c.MaxStepMs <= 0:
		return fmt.Errorf("%w: maxStepMs must be positive", ErrInvalidConfig)
	case c.HistoryCapacity <= 0:
		return fmt.Errorf("%w: historyCapacity must be positive", ErrInvalidConfig)
	case c.GameDurationMs <= 0:
		return fmt.Errorf("%w: gameDurationMs must be positive", ErrInvalidConfig)
	case c.CountdownFrom <= 0 || c.CountdownStepMs <= 0:
		return fmt.Errorf("%w: countdown must be positive", ErrInvalidConfig)
	case c.GunMinY >= c.GunMaxY:
		return fmt.Errorf("%w: gunMinY %.2f must be below gunMaxY %.2f", ErrInvalidConfig, c.GunMinY, c.GunMaxY)
	case c.RecoilDurationMs <= 0:
		return fmt.Errorf("%w: recoilDurationMs must be positive", ErrInvalidConfig)
	case c.BulletSpeed <= 0:
		return fmt.Errorf("%w: bulletSpeed must be positive", ErrInvalidConfig)
	case c.BarrierWidth <= 0:
		return fmt.Errorf("%w: barrierWidth must be positive", ErrInvalidConfig)
	case c.TargetSize <= 0:
		return fmt.Errorf("%w: targetSize must be positive", ErrInvalidConfig)
	case c.MaxBounces < 0:
		return fmt.Errorf("%w: maxBounces must not be negative", ErrInvalidConfig)
	}
	for i, g := range c.Gaps {
		if g.Start >= g.End {
			return fmt.Errorf("%w: gap %d is empty (%.2f..%.2f)", ErrInvalidConfig, i, g.Start, g.End)
		}
		if i > 0 && g.Start < c.Gaps[i-1].End {
			return fmt.Errorf("%w: gap %d overlaps or is out of order", ErrInvalidConfig, i)
		}
	}
	return nil
}

// LoadConfig reads a JSON file on top of DefaultConfig. Fields missing from
// the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
