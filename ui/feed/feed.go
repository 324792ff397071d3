package feed

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/deemkeen/chirp/social"
	"github.com/deemkeen/chirp/ui/common"
	"github.com/deemkeen/chirp/util"
	"github.com/deemkeen/chirp/view"
)

const maxVisible = 5

var (
	postStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	selectedPostStyle = postStyle.
				BorderForeground(lipgloss.Color(common.COLOR_LIGHTBLUE))

	authorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	handleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(common.COLOR_GREY))

	contentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(common.COLOR_GREY)).
			Faint(true)

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(common.COLOR_MAGENTA)).
			Bold(true)

	replyStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(lipgloss.Color("250"))

	confirmStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(common.COLOR_RED)).
			Bold(true)
)

type Model struct {
	Posts    []view.PostView
	Selected int
	Width    int
	Height   int
	Empty    string

	session *common.Session
	// expanded marks posts whose replies are shown
	expanded   map[int64]bool
	confirming int64
	replying   int64
	replyInput textinput.Model
}

func InitialModel(session *common.Session, width, height int) Model {
	ri := textinput.New()
	ri.Placeholder = "write a reply"
	ri.CharLimit = 280
	ri.Width = 50

	return Model{
		Posts:      []view.PostView{},
		Width:      width,
		Height:     height,
		Empty:      "Nothing here yet.",
		session:    session,
		expanded:   map[int64]bool{},
		replyInput: ri,
	}
}

// SetPosts replaces the rendered posts, keeping the selection on the same
// post when it is still present.
func (m Model) SetPosts(posts []view.PostView) Model {
	var selectedId int64
	if m.Selected < len(m.Posts) {
		selectedId = m.Posts[m.Selected].Id
	}

	m.Posts = posts
	m.Selected = 0
	for i, p := range posts {
		if p.Id == selectedId {
			m.Selected = i
			break
		}
	}
	return m
}

// Typing reports whether key presses belong to the reply input.
func (m Model) Typing() bool {
	return m.replying != 0
}

func (m Model) SelectedPost() (view.PostView, bool) {
	if m.Selected < 0 || m.Selected >= len(m.Posts) {
		return view.PostView{}, false
	}
	return m.Posts[m.Selected], true
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.replying != 0 {
		return m.updateReply(key)
	}

	if m.confirming != 0 {
		id := m.confirming
		m.confirming = 0
		if key.String() == "y" || key.String() == "Y" {
			return m, m.session.Do(social.OpDeletePost, func(ctx context.Context, e *social.Engine) error {
				return e.DeletePost(ctx, id)
			})
		}
		return m, nil
	}

	post, hasPost := m.SelectedPost()

	switch key.String() {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Posts)-1 {
			m.Selected++
		}
	}

	if !hasPost {
		return m, nil
	}

	switch key.String() {
	case "l":
		return m, m.session.Do(social.OpLike, func(ctx context.Context, e *social.Engine) error {
			return e.ToggleLike(ctx, post.Id)
		})
	case "r":
		return m, m.session.Do(social.OpRepost, func(ctx context.Context, e *social.Engine) error {
			return e.ToggleRepost(ctx, post.Id)
		})
	case "enter":
		m.expanded[post.Id] = !m.expanded[post.Id]
	case "R":
		m.replying = post.Id
		m.expanded[post.Id] = true
		m.replyInput.SetValue("")
		cmd := m.replyInput.Focus()
		return m, cmd
	case "d":
		m.confirming = post.Id
	case "p":
		handle := post.Handle
		return m, func() tea.Msg { return common.OpenProfileMsg{Handle: handle} }
	case "f":
		handle := post.Handle
		return m, m.session.Do(social.OpFollow, func(ctx context.Context, e *social.Engine) error {
			return e.ToggleFollow(ctx, handle)
		})
	}
	return m, nil
}

func (m Model) updateReply(key tea.KeyMsg) (Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc:
		m.replying = 0
		m.replyInput.Blur()
		return m, nil
	case tea.KeyEnter:
		id, content := m.replying, m.replyInput.Value()
		m.replying = 0
		m.replyInput.Blur()
		return m, m.session.Do(social.OpReply, func(ctx context.Context, e *social.Engine) error {
			return e.SubmitReply(ctx, id, content)
		})
	}

	var cmd tea.Cmd
	m.replyInput, cmd = m.replyInput.Update(key)
	return m, cmd
}

func (m Model) View() string {
	var s strings.Builder

	if len(m.Posts) == 0 {
		s.WriteString(common.EmptyStyle.Render(m.Empty))
		return s.String()
	}

	// keep the selection inside a window of maxVisible posts
	start := 0
	if m.Selected >= maxVisible {
		start = m.Selected - maxVisible + 1
	}
	end := min(len(m.Posts), start+maxVisible)

	width := max(m.Width-4, 20)
	for i := start; i < end; i++ {
		style := postStyle
		if i == m.Selected {
			style = selectedPostStyle
		}
		s.WriteString(style.Width(width).Render(m.renderPost(m.Posts[i])))
		s.WriteString("\n")
	}

	if rest := len(m.Posts) - end; rest > 0 {
		s.WriteString(common.EmptyStyle.Render(fmt.Sprintf("... and %d more posts", rest)))
		s.WriteString("\n")
	}

	return s.String()
}

func (m Model) renderPost(p view.PostView) string {
	var s strings.Builder

	s.WriteString(authorStyle.Render(p.DisplayName))
	s.WriteString(" ")
	s.WriteString(handleStyle.Render("@" + p.Handle))
	s.WriteString(" ")
	s.WriteString(metaStyle.Render(util.FormatTimeAgo(p.CreatedAt)))
	s.WriteString("\n")
	s.WriteString(contentStyle.Render(p.Content))
	s.WriteString("\n")

	s.WriteString(counter("♥", p.Likes, p.Liked))
	s.WriteString("  ")
	s.WriteString(counter("⟳", p.Reposts, p.Reposted))
	s.WriteString("  ")
	s.WriteString(metaStyle.Render(fmt.Sprintf("↳ %d", len(p.Replies))))

	if m.confirming == p.Id {
		s.WriteString("\n")
		s.WriteString(confirmStyle.Render("delete this post? y to confirm"))
	}

	if m.expanded[p.Id] {
		for _, r := range p.Replies {
			s.WriteString("\n")
			s.WriteString(replyStyle.Render(fmt.Sprintf("%s @%s: %s", r.DisplayName, r.Handle, r.Content)))
		}
		if m.replying == p.Id {
			s.WriteString("\n")
			s.WriteString(replyStyle.Render(m.replyInput.View()))
		}
	}

	return s.String()
}

func counter(symbol string, n int, active bool) string {
	text := fmt.Sprintf("%s %d", symbol, n)
	if active {
		return activeStyle.Render(text)
	}
	return metaStyle.Render(text)
}
