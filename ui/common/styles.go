package common

import "github.com/charmbracelet/lipgloss"

const (
	COLOR_GREY      = "241"
	COLOR_DARK_GREY = "238"
	COLOR_MAGENTA   = "170"
	COLOR_LIGHTBLUE = "69"
	COLOR_BLUE      = "63"
	COLOR_GREEN     = "42"
	COLOR_RED       = "196"
	COLOR_PURPLE    = "#7D56F4"
)

var (
	HelpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(COLOR_GREY)).Padding(0, 2)
	CaptionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(COLOR_MAGENTA)).Padding(1, 2)
	NoticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(COLOR_RED)).Padding(0, 2)
	EmptyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(COLOR_DARK_GREY)).Italic(true)
)

func DefaultWindowWidth(width int) int {
	if width <= 0 {
		return 100
	}
	return width
}

func DefaultWindowHeight(height int) int {
	if height <= 0 {
		return 30
	}
	return height
}

func DefaultComposeWidth(width int) int {
	return width / 4
}

func DefaultSidebarWidth(width int) int {
	return width / 5
}
