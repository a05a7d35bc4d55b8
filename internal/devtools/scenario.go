package devtools

// Scenario pre-seeds the fixture backend for demos and screenshots.
type Scenario struct {
	Name string
	// Tier shapes the demo profile and with it the cold-start timer.
	Tier string
	// SeedPhase, when set, creates an in-flight attempt on the
	// sliding-window problem so the client can resume into that phase.
	SeedPhase string
}

func ResolveScenario(name string) Scenario {
	switch name {
	case "home":
		return Scenario{Name: name, Tier: "steady"}
	case "library":
		return Scenario{Name: name, Tier: "steady"}
	case "session_thinking":
		return Scenario{Name: name, Tier: "steady", SeedPhase: "thinking"}
	case "session_reveal":
		return Scenario{Name: name, Tier: "sharp", SeedPhase: "reported"}
	case "blindspots":
		return Scenario{Name: name, Tier: "sharp"}
	case "fresh":
		return Scenario{Name: name, Tier: "novice"}
	default:
		return Scenario{Name: "home", Tier: "steady"}
	}
}
