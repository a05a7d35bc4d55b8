package refdata

import (
	"strings"
	"testing"
)

func validPatternFile() PatternFile {
	return PatternFile{
		SchemaVersion: 1,
		Patterns: []Pattern{
			{
				ID:       "two_pointers",
				Name:     "Two Pointers",
				Category: "arrays_and_strings",
				Summary:  "Walk two indices.",
				Signals:  []string{"sorted array pair sum"},
			},
		},
	}
}

func TestPatternFileValidate(t *testing.T) {
	f := validPatternFile()
	if err := f.Validate(); err != nil {
		t.Fatalf("valid file rejected: %v", err)
	}

	f = validPatternFile()
	f.SchemaVersion = 0
	if err := f.Validate(); err == nil {
		t.Fatalf("missing schema_version accepted")
	}

	f = validPatternFile()
	f.SchemaVersion = SupportedSchemaVersion + 1
	if err := f.Validate(); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("future schema_version accepted: %v", err)
	}

	f = validPatternFile()
	f.Patterns[0].ID = "Bad ID"
	if err := f.Validate(); err == nil {
		t.Fatalf("invalid id accepted")
	}

	f = validPatternFile()
	f.Patterns[0].Category = "vibes"
	if err := f.Validate(); err == nil {
		t.Fatalf("unknown category accepted")
	}

	f = validPatternFile()
	f.Patterns[0].Signals = nil
	if err := f.Validate(); err == nil {
		t.Fatalf("empty signals accepted")
	}

	f = validPatternFile()
	f.Patterns = append(f.Patterns, f.Patterns[0])
	if err := f.Validate(); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("duplicate id accepted: %v", err)
	}

	f = validPatternFile()
	f.Patterns[0].Companions = []string{"does_not_exist"}
	if err := f.Validate(); err == nil || !strings.Contains(err.Error(), "companion") {
		t.Fatalf("dangling companion accepted: %v", err)
	}
}

func TestResourceFileValidate(t *testing.T) {
	ids := map[string]struct{}{"two_pointers": {}}
	f := ResourceFile{
		SchemaVersion: 1,
		Resources: []Resource{
			{ID: "tp_guide", PatternID: "two_pointers", Title: "Guide", URL: "https://example.test/tp", Kind: "article"},
		},
	}
	if err := f.Validate(ids); err != nil {
		t.Fatalf("valid file rejected: %v", err)
	}

	f.Resources[0].Kind = "podcast"
	if err := f.Validate(ids); err == nil {
		t.Fatalf("unknown kind accepted")
	}
	f.Resources[0].Kind = "article"

	f.Resources[0].PatternID = "missing"
	if err := f.Validate(ids); err == nil || !strings.Contains(err.Error(), "unknown pattern") {
		t.Fatalf("dangling pattern_id accepted: %v", err)
	}
	f.Resources[0].PatternID = "two_pointers"

	f.Resources[0].URL = ""
	if err := f.Validate(ids); err == nil {
		t.Fatalf("missing url accepted")
	}
}
