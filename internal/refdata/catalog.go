package refdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

//go:embed data/patterns.json data/resources.json
var dataFS embed.FS

// Catalog is the in-memory index over the embedded reference data.
type Catalog struct {
	patterns  []Pattern
	byID      map[string]Pattern
	resources map[string][]Resource
}

func Load() (*Catalog, error) {
	pb, err := dataFS.ReadFile("data/patterns.json")
	if err != nil {
		return nil, err
	}
	var pf PatternFile
	if err := json.Unmarshal(pb, &pf); err != nil {
		return nil, fmt.Errorf("parse patterns.json: %w", err)
	}
	if err := pf.Validate(); err != nil {
		return nil, fmt.Errorf("validate patterns.json: %w", err)
	}

	rb, err := dataFS.ReadFile("data/resources.json")
	if err != nil {
		return nil, err
	}
	var rf ResourceFile
	if err := json.Unmarshal(rb, &rf); err != nil {
		return nil, fmt.Errorf("parse resources.json: %w", err)
	}
	ids := make(map[string]struct{}, len(pf.Patterns))
	for _, p := range pf.Patterns {
		ids[p.ID] = struct{}{}
	}
	if err := rf.Validate(ids); err != nil {
		return nil, fmt.Errorf("validate resources.json: %w", err)
	}

	c := &Catalog{
		patterns:  append([]Pattern(nil), pf.Patterns...),
		byID:      make(map[string]Pattern, len(pf.Patterns)),
		resources: make(map[string][]Resource),
	}
	sort.Slice(c.patterns, func(i, j int) bool { return c.patterns[i].Name < c.patterns[j].Name })
	for _, p := range c.patterns {
		c.byID[p.ID] = p
	}
	for _, r := range rf.Resources {
		c.resources[r.PatternID] = append(c.resources[r.PatternID], r)
	}
	return c, nil
}

func (c *Catalog) Pattern(id string) (Pattern, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Patterns returns every pattern sorted by display name.
func (c *Catalog) Patterns() []Pattern {
	return append([]Pattern(nil), c.patterns...)
}

func (c *Catalog) ResourcesFor(patternID string) []Resource {
	return append([]Resource(nil), c.resources[patternID]...)
}

// Search ranks patterns against a free-form query for the commit picker.
// Exact and prefix matches on the id or name rank first, substring matches
// (including signal text) next, then close misspellings by edit distance.
func (c *Catalog) Search(query string, limit int) []Pattern {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		out := c.Patterns()
		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
		return out
	}

	type scored struct {
		p     Pattern
		score int
	}
	var ranked []scored
	for _, p := range c.patterns {
		s, ok := matchScore(p, q)
		if !ok {
			continue
		}
		ranked = append(ranked, scored{p: p, score: s})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score < ranked[j].score
		}
		return ranked[i].p.Name < ranked[j].p.Name
	})

	out := make([]Pattern, 0, len(ranked))
	for _, s := range ranked {
		out = append(out, s.p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func matchScore(p Pattern, q string) (int, bool) {
	name := strings.ToLower(p.Name)
	id := strings.ToLower(p.ID)

	if q == id || q == name {
		return 0, true
	}
	if strings.HasPrefix(name, q) || strings.HasPrefix(id, q) {
		return 1, true
	}
	if strings.Contains(name, q) || strings.Contains(strings.ReplaceAll(id, "_", " "), q) {
		return 2, true
	}
	for _, sig := range p.Signals {
		if strings.Contains(strings.ToLower(sig), q) {
			return 3, true
		}
	}

	dist := levenshtein.ComputeDistance(q, name)
	allowed := len(q) / 3
	if allowed < 2 {
		allowed = 2
	}
	if dist <= allowed {
		return 4 + dist, true
	}
	return 0, false
}
