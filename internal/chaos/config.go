package chaos

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cast"
)

// Config holds chaos configuration
type Config struct {
	Enabled    bool
	Profile    string
	TargetOps  []string // operation tags to disturb, empty means all
	DropPct    int
	DelayMsMin int
	DelayMsMax int
	Seed       int64
	WindowMs   int
}

// LoadConfig loads chaos configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Enabled:    cast.ToBool(os.Getenv("CHAOS_ENABLED")),
		Profile:    os.Getenv("CHAOS_PROFILE"),
		TargetOps:  splitTags(os.Getenv("CHAOS_TARGET_OP")),
		DropPct:    envInt("CHAOS_DROP_PCT", 0),
		DelayMsMin: envInt("CHAOS_DELAY_MS_MIN", 0),
		DelayMsMax: envInt("CHAOS_DELAY_MS_MAX", 0),
		Seed:       int64(envInt("CHAOS_SEED", 1)),
		WindowMs:   envInt("CHAOS_WINDOW_MS", 0),
	}
}

// ParseProfile parses a profile string like "drop-pct=30,delay=50-250"
func ParseProfile(profile string) (dropPct int, delayMin int, delayMax int, err error) {
	if profile == "" {
		return 0, 0, 0, nil
	}

	for _, part := range strings.Split(profile, ",") {
		key, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return 0, 0, 0, fmt.Errorf("invalid profile entry %q", part)
		}
		switch key {
		case "drop-pct":
			dropPct, err = cast.ToIntE(val)
			if err != nil || dropPct < 0 || dropPct > 100 {
				return 0, 0, 0, fmt.Errorf("invalid drop-pct %q", val)
			}
		case "delay":
			lo, hi, found := strings.Cut(val, "-")
			if !found {
				return 0, 0, 0, fmt.Errorf("invalid delay %q: want min-max", val)
			}
			if delayMin, err = cast.ToIntE(lo); err != nil {
				return 0, 0, 0, fmt.Errorf("invalid delay min: %w", err)
			}
			if delayMax, err = cast.ToIntE(hi); err != nil {
				return 0, 0, 0, fmt.Errorf("invalid delay max: %w", err)
			}
			if delayMax < delayMin {
				return 0, 0, 0, fmt.Errorf("invalid delay %q: max below min", val)
			}
		default:
			return 0, 0, 0, fmt.Errorf("unknown profile key %q", key)
		}
	}

	return dropPct, delayMin, delayMax, nil
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func envInt(key string, defaultValue int) int {
	if v, err := cast.ToIntE(os.Getenv(key)); err == nil && os.Getenv(key) != "" {
		return v
	}
	return defaultValue
}
