package compose

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/deemkeen/chirp/social"
	"github.com/deemkeen/chirp/ui/common"
)

const MaxLetters = 280

type Model struct {
	Textarea    textarea.Model
	session     *common.Session
	lettersLeft int
	width       int
	// pending holds the text of a submitted post until the engine answers
	pending string
}

func InitialModel(session *common.Session, contentWidth int) Model {
	width := common.DefaultComposeWidth(contentWidth)
	ti := textarea.New()
	ti.Placeholder = "what's happening?"
	ti.CharLimit = MaxLetters
	ti.ShowLineNumbers = false
	ti.SetWidth(max(width-4, 20))
	ti.SetHeight(6)

	return Model{
		Textarea:    ti,
		session:     session,
		lettersLeft: MaxLetters,
		width:       width,
	}
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) Focus() (Model, tea.Cmd) {
	cmd := m.Textarea.Focus()
	return m, cmd
}

func (m Model) Blur() Model {
	m.Textarea.Blur()
	return m
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case common.ResultMsg:
		if msg.Op == social.OpCreatePost && m.pending != "" {
			// keep the draft when publishing failed
			if msg.Err == nil || errors.Is(msg.Err, social.ErrSync) {
				m.Textarea.SetValue("")
			}
			m.pending = ""
			m.lettersLeft = m.CharCount()
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlS:
			content := m.Textarea.Value()
			m.pending = content
			return m, m.session.Do(social.OpCreatePost, func(ctx context.Context, e *social.Engine) error {
				return e.CreatePost(ctx, content)
			})
		default:
			if !m.Textarea.Focused() {
				return m, nil
			}
		}
	}

	m.Textarea, cmd = m.Textarea.Update(msg)
	m.lettersLeft = m.CharCount()
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) CharCount() int {
	return m.Textarea.CharLimit - m.Textarea.Length() + m.Textarea.LineCount() - 1
}

func (m Model) View() string {
	styledTextarea := lipgloss.NewStyle().PaddingLeft(2).Margin(1).Render(m.Textarea.View())
	charsLeft := common.HelpStyle.Render(fmt.Sprintf("characters left: %d\n\npost: ctrl+s", m.lettersLeft))
	caption := common.CaptionStyle.Render("new post")

	return fmt.Sprintf("%s\n%s\n%s", caption, styledTextarea, charsLeft)
}
