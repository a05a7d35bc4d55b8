package app

import (
	"fmt"
	"time"
)

const defaultColdStart = 6 * time.Minute

// coldStartFor sizes the thinking timer. The server's cold_start_seconds
// wins when present; otherwise the performance tier maps to a duration.
// Weaker tiers get more time before the nudge.
func coldStartFor(tier string, overrideSeconds int) time.Duration {
	if overrideSeconds > 0 {
		return time.Duration(overrideSeconds) * time.Second
	}
	switch tier {
	case "novice":
		return 8 * time.Minute
	case "building":
		return 7 * time.Minute
	case "steady":
		return 6 * time.Minute
	case "sharp":
		return 5 * time.Minute
	case "instant":
		return 4 * time.Minute
	}
	return defaultColdStart
}

// formatCountdown renders m:ss, negative once the deadline passed.
func formatCountdown(remaining time.Duration) string {
	sign := ""
	if remaining < 0 {
		sign = "-"
		remaining = -remaining
	}
	remaining = remaining.Round(time.Second)
	m := int(remaining.Minutes())
	s := int(remaining.Seconds()) % 60
	return fmt.Sprintf("%s%d:%02d", sign, m, s)
}
