package ui

import "testing"

func TestDetermineLayoutMode(t *testing.T) {
	if got := DetermineLayoutMode(140, 30); got != LayoutWide {
		t.Fatalf("expected wide, got %v", got)
	}
	if got := DetermineLayoutMode(100, 28); got != LayoutMedium {
		t.Fatalf("expected medium, got %v", got)
	}
	if got := DetermineLayoutMode(80, 24); got != LayoutMedium {
		t.Fatalf("80x24 is the floor and still renders, got %v", got)
	}
	if got := DetermineLayoutMode(79, 30); got != LayoutTooSmall {
		t.Fatalf("expected too-small by width, got %v", got)
	}
	if got := DetermineLayoutMode(100, 23); got != LayoutTooSmall {
		t.Fatalf("expected too-small by height, got %v", got)
	}
	if got := DetermineLayoutMode(120, 30); got != LayoutWide {
		t.Fatalf("120x30 is the wide threshold, got %v", got)
	}
}
