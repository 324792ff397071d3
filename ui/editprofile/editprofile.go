package editprofile

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/deemkeen/chirp/domain"
	"github.com/deemkeen/chirp/social"
	"github.com/deemkeen/chirp/ui/common"
)

var (
	Style = lipgloss.NewStyle().
		Align(lipgloss.Left, lipgloss.Center).
		BorderStyle(lipgloss.ThickBorder()).
		BorderForeground(lipgloss.Color(common.COLOR_LIGHTBLUE)).
		Padding(1, 3)
)

// CancelMsg closes the form without saving.
type CancelMsg struct{}

type Model struct {
	DisplayName textinput.Model
	Bio         textinput.Model
	Step        int // 0=display name, 1=bio
	handle      string
	session     *common.Session
}

func InitialModel(session *common.Session) Model {
	displayName := textinput.New()
	displayName.Placeholder = "Jane Doe"
	displayName.CharLimit = 50
	displayName.Width = 50

	bio := textinput.New()
	bio.Placeholder = "Tell people about yourself"
	bio.CharLimit = 160
	bio.Width = 60

	return Model{
		DisplayName: displayName,
		Bio:         bio,
		session:     session,
	}
}

// Open fills the form from the current profile and focuses the first field.
func (m Model) Open(me domain.Profile) (Model, tea.Cmd) {
	m.handle = me.Handle
	m.Step = 0
	m.DisplayName.SetValue(me.DisplayName)
	m.Bio.SetValue(me.Bio)
	m.Bio.Blur()
	cmd := m.DisplayName.Focus()
	return m, cmd
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEsc:
			return m, func() tea.Msg { return CancelMsg{} }
		case tea.KeyEnter, tea.KeyTab:
			if m.Step == 0 {
				m.Step = 1
				m.DisplayName.Blur()
				cmd = m.Bio.Focus()
				return m, cmd
			}
			if key.Type == tea.KeyTab {
				m.Step = 0
				m.Bio.Blur()
				cmd = m.DisplayName.Focus()
				return m, cmd
			}
			name, bio := m.DisplayName.Value(), m.Bio.Value()
			return m, m.session.Do(social.OpEditProfile, func(ctx context.Context, e *social.Engine) error {
				return e.EditProfile(ctx, name, bio)
			})
		}
	}

	switch m.Step {
	case 0:
		m.DisplayName, cmd = m.DisplayName.Update(msg)
	case 1:
		m.Bio, cmd = m.Bio.Update(msg)
	}

	return m, cmd
}

func (m Model) View() string {
	return fmt.Sprintf(
		"edit profile @%s\n\ndisplay name\n%s\n\nbio\n%s\n\n%s",
		m.handle,
		m.DisplayName.View(),
		m.Bio.View(),
		"(enter: next / save • tab: switch field • esc: cancel)",
	)
}

// ViewWithWidth centers the bordered form in the terminal.
func (m Model) ViewWithWidth(termWidth, termHeight int) string {
	bordered := Style.Width(min(max(termWidth-8, 40), 80)).Render(m.View())
	return lipgloss.Place(termWidth, termHeight, lipgloss.Center, lipgloss.Center, bordered)
}
