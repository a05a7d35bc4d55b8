package ui

import lipgloss "charm.land/lipgloss/v2"

type Theme struct {
	Header       lipgloss.Style
	Status       lipgloss.Style
	PanelTitle   lipgloss.Style
	PanelBorder  lipgloss.Style
	PanelBody    lipgloss.Style
	Overlay      lipgloss.Style
	OverlayTitle lipgloss.Style
	Accent       lipgloss.Style
	Good         lipgloss.Style
	Warn         lipgloss.Style
	Bad          lipgloss.Style
	Muted        lipgloss.Style
	Info         lipgloss.Style
	Timer        lipgloss.Style
	TimerOver    lipgloss.Style
}

func DefaultTheme() Theme {
	return ThemeForVariant("calm_focus")
}

func ThemeForVariant(variant string) Theme {
	switch variant {
	case "night_shift":
		return nightShiftTheme()
	case "paper_terminal":
		return paperTerminalTheme()
	default:
		return calmFocusTheme()
	}
}

func calmFocusTheme() Theme {
	teal := lipgloss.Color("#5FD7C0")
	moss := lipgloss.Color("#8CCF7E")
	coral := lipgloss.Color("#F2788F")
	sand := lipgloss.Color("#E8C27A")
	ink := lipgloss.Color("#101521")
	slate := lipgloss.Color("#1C2534")
	mist := lipgloss.Color("#E6EDF7")
	border := lipgloss.Color("#3E4F6B")

	return Theme{
		Header: lipgloss.NewStyle().
			Background(ink).
			Foreground(mist).
			Padding(0, 1),
		Status: lipgloss.NewStyle().
			Background(slate).
			Foreground(mist).
			Padding(0, 1),
		PanelTitle: lipgloss.NewStyle().
			Foreground(teal).
			Bold(true),
		PanelBorder: lipgloss.NewStyle().
			Foreground(border),
		PanelBody: lipgloss.NewStyle().
			Foreground(mist),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(teal).
			Background(ink).
			Foreground(mist).
			Padding(1, 2),
		OverlayTitle: lipgloss.NewStyle().
			Foreground(teal).
			Bold(true),
		Accent: lipgloss.NewStyle().
			Foreground(teal).
			Bold(true),
		Good: lipgloss.NewStyle().
			Foreground(moss).
			Bold(true),
		Warn: lipgloss.NewStyle().
			Foreground(sand),
		Bad: lipgloss.NewStyle().
			Foreground(coral).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8C9BB5")),
		Info: lipgloss.NewStyle().
			Foreground(teal),
		Timer: lipgloss.NewStyle().
			Foreground(moss).
			Bold(true),
		TimerOver: lipgloss.NewStyle().
			Foreground(coral).
			Bold(true),
	}
}

func nightShiftTheme() Theme {
	ember := lipgloss.Color("#E8A15C")
	olive := lipgloss.Color("#B5B56B")
	rust := lipgloss.Color("#D96A5B")
	coal := lipgloss.Color("#14100C")
	bark := lipgloss.Color("#2A2018")
	cream := lipgloss.Color("#EADFC8")

	return Theme{
		Header:      lipgloss.NewStyle().Background(coal).Foreground(cream).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(bark).Foreground(cream).Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Foreground(ember).Bold(true),
		PanelBorder: lipgloss.NewStyle().Foreground(bark),
		PanelBody:   lipgloss.NewStyle().Foreground(cream),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ember).
			Background(coal).
			Foreground(cream).
			Padding(1, 2),
		OverlayTitle: lipgloss.NewStyle().Foreground(ember).Bold(true),
		Accent:       lipgloss.NewStyle().Foreground(ember).Bold(true),
		Good:         lipgloss.NewStyle().Foreground(olive).Bold(true),
		Warn:         lipgloss.NewStyle().Foreground(ember),
		Bad:          lipgloss.NewStyle().Foreground(rust).Bold(true),
		Muted:        lipgloss.NewStyle().Foreground(lipgloss.Color("#8F8468")),
		Info:         lipgloss.NewStyle().Foreground(ember),
		Timer:        lipgloss.NewStyle().Foreground(olive).Bold(true),
		TimerOver:    lipgloss.NewStyle().Foreground(rust).Bold(true),
	}
}

func paperTerminalTheme() Theme {
	ink := lipgloss.Color("#26221B")
	paper := lipgloss.Color("#F7F2E7")
	shade := lipgloss.Color("#E4DCC9")
	leaf := lipgloss.Color("#3E7C4F")
	plum := lipgloss.Color("#8C3A52")
	ochre := lipgloss.Color("#9A6B1F")

	return Theme{
		Header:      lipgloss.NewStyle().Background(ink).Foreground(paper).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(shade).Foreground(ink).Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Foreground(ink).Bold(true),
		PanelBorder: lipgloss.NewStyle().Foreground(lipgloss.Color("#B8AE96")),
		PanelBody:   lipgloss.NewStyle().Foreground(ink),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(ink).
			Background(paper).
			Foreground(ink).
			Padding(1, 2),
		OverlayTitle: lipgloss.NewStyle().Foreground(ink).Bold(true),
		Accent:       lipgloss.NewStyle().Foreground(ochre).Bold(true),
		Good:         lipgloss.NewStyle().Foreground(leaf).Bold(true),
		Warn:         lipgloss.NewStyle().Foreground(ochre),
		Bad:          lipgloss.NewStyle().Foreground(plum).Bold(true),
		Muted:        lipgloss.NewStyle().Foreground(lipgloss.Color("#7A725F")),
		Info:         lipgloss.NewStyle().Foreground(leaf),
		Timer:        lipgloss.NewStyle().Foreground(leaf).Bold(true),
		TimerOver:    lipgloss.NewStyle().Foreground(plum).Bold(true),
	}
}
