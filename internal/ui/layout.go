package ui

// DetermineLayoutMode classifies the terminal size. Wide gets the two-pane
// session layout; medium stacks the panes; anything under 80x24 gets a
// resize prompt instead of a broken render.
func DetermineLayoutMode(cols, rows int) LayoutMode {
	if cols < 80 || rows < 24 {
		return LayoutTooSmall
	}
	if cols >= 120 && rows >= 30 {
		return LayoutWide
	}
	return LayoutMedium
}
