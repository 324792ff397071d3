package header

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/deemkeen/chirp/domain"
	"github.com/deemkeen/chirp/ui/common"
	"github.com/deemkeen/chirp/util"
)

type Model struct {
	Width int
	Me    domain.Profile
	// Section is the name of the active view.
	Section string
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

func (m Model) View() string {
	return GetHeaderStyle(m.Me, m.Section, m.Width)
}

func GetHeaderStyle(me domain.Profile, section string, width int) string {
	// four boxes, each with padding(1) and top/bottom border: 4 chars of overhead apiece
	overhead := 16
	availableWidth := width - overhead

	if availableWidth < 40 {
		availableWidth = 40
	}

	nameWidth := availableWidth / 4
	handleWidth := availableWidth / 6
	versionWidth := availableWidth / 3
	sectionWidth := availableWidth - nameWidth - handleWidth - versionWidth

	name := lipgloss.
		NewStyle().
		SetString(util.Truncate(me.DisplayName, nameWidth)).
		Align(lipgloss.Left).
		Background(lipgloss.Color(common.COLOR_PURPLE)).
		Padding(1).
		Height(2).
		Width(nameWidth).
		Border(lipgloss.NormalBorder(), true, false, true, false).
		BorderForeground(lipgloss.Color(common.COLOR_MAGENTA)).
		String()

	handle := lipgloss.
		NewStyle().
		SetString("@"+me.Handle).
		Background(lipgloss.NoColor{}).
		Foreground(lipgloss.Color(common.COLOR_MAGENTA)).
		Padding(1).
		Height(2).
		Width(handleWidth).
		Border(lipgloss.NormalBorder(), true, false, true, false).
		BorderForeground(lipgloss.Color(common.COLOR_MAGENTA)).
		String()

	version := lipgloss.
		NewStyle().
		SetString(util.GetNameAndVersion()).
		Width(versionWidth).
		Height(2).
		Background(lipgloss.Color(common.COLOR_GREY)).
		Padding(1).
		Border(lipgloss.NormalBorder(), true, false, true, false).
		BorderForeground(lipgloss.Color(common.COLOR_MAGENTA)).
		String()

	current := lipgloss.
		NewStyle().
		SetString(section).
		Background(lipgloss.Color(common.COLOR_MAGENTA)).
		Padding(1).
		Align(lipgloss.Left).
		Height(2).
		Width(sectionWidth).
		Border(lipgloss.NormalBorder(), true, false, true, false).
		BorderForeground(lipgloss.Color(common.COLOR_MAGENTA)).
		String()

	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		name,
		handle,
		version,
		current,
	)
}
