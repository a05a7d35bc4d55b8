package app

// Phase is where the user is inside one practice session. Transitions move
// forward only; abandoning is the sole way back to idle mid-session.
type Phase string

const (
	PhaseIdle       Phase = ""
	PhaseReading    Phase = "reading"
	PhaseThinking   Phase = "thinking"
	PhaseHandoff    Phase = "handoff"
	PhaseReport     Phase = "report"
	PhaseReveal     Phase = "reveal"
	PhaseReflection Phase = "reflection"
)

func (p Phase) Active() bool { return p != PhaseIdle }

func (p Phase) canAdvanceTo(next Phase) bool {
	switch next {
	case PhaseReading:
		return p == PhaseIdle
	case PhaseThinking:
		return p == PhaseReading
	case PhaseHandoff:
		return p == PhaseThinking
	case PhaseReport:
		return p == PhaseHandoff
	case PhaseReveal:
		return p == PhaseReport
	case PhaseReflection:
		return p == PhaseReveal
	case PhaseIdle:
		return true
	}
	return false
}

// label is the phase name shown in the session header.
func (p Phase) label() string {
	switch p {
	case PhaseReading:
		return "Reading"
	case PhaseThinking:
		return "Thinking"
	case PhaseHandoff:
		return "Coding elsewhere"
	case PhaseReport:
		return "Report"
	case PhaseReveal:
		return "Reveal"
	case PhaseReflection:
		return "Reflection"
	}
	return ""
}

// parsePhase restores a phase from a persisted snapshot. Unknown values
// fall back to reading so a stale snapshot never strands the session in a
// state the UI cannot render.
func parsePhase(raw string) Phase {
	switch Phase(raw) {
	case PhaseReading, PhaseThinking, PhaseHandoff, PhaseReport, PhaseReveal, PhaseReflection:
		return Phase(raw)
	}
	return PhaseReading
}
