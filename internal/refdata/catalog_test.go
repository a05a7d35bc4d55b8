package refdata

import "testing"

func TestLoadEmbeddedCatalog(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Patterns()) < 10 {
		t.Fatalf("expected a full catalog, got %d patterns", len(c.Patterns()))
	}
	p, ok := c.Pattern("sliding_window")
	if !ok {
		t.Fatalf("sliding_window missing from catalog")
	}
	if p.Name != "Sliding Window" {
		t.Fatalf("unexpected name %q", p.Name)
	}
	if len(c.ResourcesFor("dynamic_programming")) == 0 {
		t.Fatalf("expected resources for dynamic_programming")
	}
	if got := c.ResourcesFor("no_such_pattern"); len(got) != 0 {
		t.Fatalf("expected no resources for unknown pattern, got %d", len(got))
	}
}

func TestSearchRanksExactBeforeFuzzy(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	got := c.Search("two pointers", 5)
	if len(got) == 0 || got[0].ID != "two_pointers" {
		t.Fatalf("exact name should rank first, got %+v", got)
	}

	got = c.Search("slid", 5)
	if len(got) == 0 || got[0].ID != "sliding_window" {
		t.Fatalf("prefix should match sliding_window, got %+v", got)
	}

	// Misspelling within edit distance still finds the pattern.
	got = c.Search("sliding window", 5)
	if len(got) == 0 || got[0].ID != "sliding_window" {
		t.Fatalf("fuzzy match failed, got %+v", got)
	}

	// Signal text is searchable.
	got = c.Search("running median", 5)
	if len(got) == 0 || got[0].ID != "two_heaps" {
		t.Fatalf("signal match failed, got %+v", got)
	}
}

func TestSearchEmptyQueryReturnsAll(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	all := c.Search("", 0)
	if len(all) != len(c.Patterns()) {
		t.Fatalf("empty query should return everything: %d vs %d", len(all), len(c.Patterns()))
	}
	capped := c.Search("", 3)
	if len(capped) != 3 {
		t.Fatalf("limit not applied, got %d", len(capped))
	}
}

func TestSearchNoMatch(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := c.Search("xylophone maintenance", 5); len(got) != 0 {
		t.Fatalf("expected no matches, got %+v", got)
	}
}
