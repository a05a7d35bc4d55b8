package handoff

import "context"

// Opener launches the external coding destination in the user's browser.
// Opening is best effort: the session screen always shows the URL for
// manual copy, so a missing opener never blocks the handoff phase.
type Opener interface {
	Detect(ctx context.Context) (EngineInfo, error)
	Open(ctx context.Context, url string) error
}

type EngineInfo struct {
	Name string
}
