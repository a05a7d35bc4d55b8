package refdata

import (
	"fmt"
	"regexp"
)

const SupportedSchemaVersion = 1

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{2,63}$`)

var knownCategories = map[string]struct{}{
	"arrays_and_strings":  {},
	"linked_lists":        {},
	"trees_and_graphs":    {},
	"heaps_and_queues":    {},
	"searching":           {},
	"sorting":             {},
	"stacks":              {},
	"dynamic_programming": {},
	"recursion":           {},
}

var knownResourceKinds = map[string]struct{}{
	"article":     {},
	"video":       {},
	"problem_set": {},
	"course":      {},
}

// PatternFile is the shape of the embedded patterns.json document.
type PatternFile struct {
	SchemaVersion int       `json:"schema_version"`
	Patterns      []Pattern `json:"patterns"`
}

// Pattern describes one canonical interview pattern. The backend owns the
// authoritative pattern list; this copy exists so the commit picker and the
// pattern guide work before the first successful API call.
type Pattern struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	Summary    string   `json:"summary"`
	Signals    []string `json:"signals"`
	Companions []string `json:"companions"`
}

// ResourceFile is the shape of the embedded resources.json document.
type ResourceFile struct {
	SchemaVersion int        `json:"schema_version"`
	Resources     []Resource `json:"resources"`
}

// Resource is a study link shown after reveal and in the pattern guide.
type Resource struct {
	ID        string `json:"id"`
	PatternID string `json:"pattern_id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Kind      string `json:"kind"`
	Note      string `json:"note"`
}

func (f PatternFile) Validate() error {
	if f.SchemaVersion == 0 {
		return fmt.Errorf("schema_version is required")
	}
	if f.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("unsupported patterns schema_version %d (max supported %d)", f.SchemaVersion, SupportedSchemaVersion)
	}
	if len(f.Patterns) == 0 {
		return fmt.Errorf("patterns must contain at least one entry")
	}
	seen := map[string]struct{}{}
	for _, p := range f.Patterns {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("pattern %q: %w", p.ID, err)
		}
		if _, ok := seen[p.ID]; ok {
			return fmt.Errorf("duplicate pattern id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	for _, p := range f.Patterns {
		for _, c := range p.Companions {
			if _, ok := seen[c]; !ok {
				return fmt.Errorf("pattern %q references unknown companion %q", p.ID, c)
			}
		}
	}
	return nil
}

func (p Pattern) Validate() error {
	if !idPattern.MatchString(p.ID) {
		return fmt.Errorf("invalid id %q", p.ID)
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if _, ok := knownCategories[p.Category]; !ok {
		return fmt.Errorf("unknown category %q", p.Category)
	}
	if p.Summary == "" {
		return fmt.Errorf("summary is required")
	}
	if len(p.Signals) == 0 {
		return fmt.Errorf("signals must contain at least one entry")
	}
	return nil
}

func (f ResourceFile) Validate(patternIDs map[string]struct{}) error {
	if f.SchemaVersion == 0 {
		return fmt.Errorf("schema_version is required")
	}
	if f.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("unsupported resources schema_version %d (max supported %d)", f.SchemaVersion, SupportedSchemaVersion)
	}
	seen := map[string]struct{}{}
	for _, r := range f.Resources {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("resource %q: %w", r.ID, err)
		}
		if _, ok := seen[r.ID]; ok {
			return fmt.Errorf("duplicate resource id %q", r.ID)
		}
		seen[r.ID] = struct{}{}
		if _, ok := patternIDs[r.PatternID]; !ok {
			return fmt.Errorf("resource %q references unknown pattern %q", r.ID, r.PatternID)
		}
	}
	return nil
}

func (r Resource) Validate() error {
	if !idPattern.MatchString(r.ID) {
		return fmt.Errorf("invalid id %q", r.ID)
	}
	if r.PatternID == "" {
		return fmt.Errorf("pattern_id is required")
	}
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	if r.URL == "" {
		return fmt.Errorf("url is required")
	}
	if _, ok := knownResourceKinds[r.Kind]; !ok {
		return fmt.Errorf("unknown kind %q", r.Kind)
	}
	return nil
}
