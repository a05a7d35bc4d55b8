package app

import "strings"

// Outcome is the self-reported result of the coding attempt. The backend
// additionally records "abandoned" for sessions ended early.
type Outcome string

const (
	OutcomeSolved         Outcome = "solved"
	OutcomeSolvedWithHelp Outcome = "solved_with_help"
	OutcomePartial        Outcome = "partial"
	OutcomeStuck          Outcome = "stuck"
)

func normalizeOutcome(raw string) (Outcome, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(OutcomeSolved):
		return OutcomeSolved, true
	case string(OutcomeSolvedWithHelp), "solved with help", "helped":
		return OutcomeSolvedWithHelp, true
	case string(OutcomePartial):
		return OutcomePartial, true
	case string(OutcomeStuck):
		return OutcomeStuck, true
	}
	return "", false
}

func (o Outcome) label() string {
	switch o {
	case OutcomeSolved:
		return "Solved"
	case OutcomeSolvedWithHelp:
		return "Solved with help"
	case OutcomePartial:
		return "Partial"
	case OutcomeStuck:
		return "Stuck"
	}
	return string(o)
}
