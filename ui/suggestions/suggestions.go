package suggestions

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/deemkeen/chirp/social"
	"github.com/deemkeen/chirp/ui/common"
	"github.com/deemkeen/chirp/view"
)

var (
	userStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(lipgloss.Color(common.COLOR_GREEN)).
			Bold(true)

	followingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(common.COLOR_BLUE))
)

type Model struct {
	Profiles []view.ProfileView
	Selected int
	Focused  bool
	Width    int

	session *common.Session
}

func InitialModel(session *common.Session, width int) Model {
	return Model{
		Profiles: []view.ProfileView{},
		Width:    width,
		session:  session,
	}
}

func (m Model) SetProfiles(profiles []view.ProfileView) Model {
	m.Profiles = profiles
	if m.Selected >= len(profiles) {
		m.Selected = max(len(profiles)-1, 0)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || len(m.Profiles) == 0 {
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Profiles)-1 {
			m.Selected++
		}
	case "enter", "p":
		handle := m.Profiles[m.Selected].Handle
		return m, func() tea.Msg { return common.OpenProfileMsg{Handle: handle} }
	case "f":
		handle := m.Profiles[m.Selected].Handle
		return m, m.session.Do(social.OpFollow, func(ctx context.Context, e *social.Engine) error {
			return e.ToggleFollow(ctx, handle)
		})
	}
	return m, nil
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(common.CaptionStyle.Render("who to follow"))
	s.WriteString("\n")

	if len(m.Profiles) == 0 {
		s.WriteString(common.EmptyStyle.Render("No one else here yet."))
		return s.String()
	}

	for i, p := range m.Profiles {
		text := fmt.Sprintf("%s\n@%s", p.DisplayName, p.Handle)
		if p.FollowedByMe {
			text += followingStyle.Render(" [following]")
		}

		if m.Focused && i == m.Selected {
			s.WriteString("→ " + selectedStyle.Render(text))
		} else {
			s.WriteString("  " + userStyle.Render(text))
		}
		s.WriteString("\n")
	}

	return s.String()
}
