package app

import (
	"fmt"
	"strings"

	"blindspot/internal/api"
)

// buildReflectionDigest condenses the finished attempt into the recap shown
// above the reflection editor. Every judgement in it (match kind, verdict
// note, calibration drift) comes from the server's analysis; this function
// only arranges the pieces.
func buildReflectionDigest(problemTitle, committedName string, att api.Attempt, analysis api.Analysis) string {
	var b strings.Builder

	b.WriteString(problemTitle)
	if out, ok := normalizeOutcome(att.Outcome); ok {
		b.WriteString(" - " + outcomeClause(out, att.MinutesSpent))
		if att.UsedHelp && out != OutcomeSolvedWithHelp {
			b.WriteString(", help used")
		}
	}
	b.WriteString("\n")

	b.WriteString("\nPattern call\n")
	if committedName != "" {
		b.WriteString(fmt.Sprintf("Committed: %s (confidence %d/5)\n", committedName, att.Confidence))
	}
	if primary := primaryPattern(analysis); primary.Name != "" {
		b.WriteString("Analysis: " + primary.Name + " (primary)\n")
	}
	if line := verdictLine(analysis.Verdict); line != "" {
		b.WriteString(line + "\n")
	}

	if strings.TrimSpace(analysis.KeyInsight) != "" {
		b.WriteString("\nKey insight\n")
		b.WriteString(strings.TrimSpace(analysis.KeyInsight) + "\n")
	}

	if len(analysis.Traps) > 0 {
		b.WriteString("\nWatch for\n")
		for _, trap := range analysis.Traps {
			b.WriteString("- " + trap + "\n")
		}
	}

	return strings.TrimSpace(b.String())
}

func outcomeClause(out Outcome, minutes int) string {
	label := strings.ToLower(out.label())
	if minutes <= 0 {
		return label
	}
	switch out {
	case OutcomeSolved, OutcomeSolvedWithHelp:
		return fmt.Sprintf("%s in %d min", label, minutes)
	default:
		return fmt.Sprintf("%s after %d min", label, minutes)
	}
}

// verdictLine formats the server's pattern-match verdict for display.
func verdictLine(v *api.Verdict) string {
	if v == nil {
		return ""
	}
	label := ""
	switch v.PatternMatch {
	case "exact":
		label = "Exact match."
	case "companion":
		label = "Companion match."
	case "miss":
		label = "Miss."
	}
	parts := make([]string, 0, 3)
	if label != "" {
		parts = append(parts, label)
	}
	if strings.TrimSpace(v.Note) != "" {
		parts = append(parts, strings.TrimSpace(v.Note))
	}
	if v.CalibrationDelta != 0 {
		parts = append(parts, fmt.Sprintf("Calibration drift: %+.1f.", v.CalibrationDelta))
	}
	return strings.Join(parts, " ")
}

func primaryPattern(analysis api.Analysis) api.PatternRef {
	for _, p := range analysis.Patterns {
		if p.Primary {
			return p
		}
	}
	if len(analysis.Patterns) > 0 {
		return analysis.Patterns[0]
	}
	return api.PatternRef{}
}

// fallbackReflectionPrompts keeps the reflection phase usable when the
// prompt fetch fails; the save still goes to the server.
var fallbackReflectionPrompts = []string{
	"What signal in the statement should have pointed you at the pattern sooner?",
	"Where did your sketched approach diverge from the official one?",
	"What would you try first on a similar problem next week?",
}
