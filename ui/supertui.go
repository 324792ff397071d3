package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/deemkeen/chirp/social"
	"github.com/deemkeen/chirp/ui/common"
	"github.com/deemkeen/chirp/ui/compose"
	"github.com/deemkeen/chirp/ui/editprofile"
	"github.com/deemkeen/chirp/ui/feed"
	"github.com/deemkeen/chirp/ui/header"
	"github.com/deemkeen/chirp/ui/suggestions"
	"github.com/deemkeen/chirp/view"
)

const noticeTimeout = 3 * time.Second

var (
	modelStyle = lipgloss.NewStyle().
			Align(lipgloss.Top, lipgloss.Top).
			BorderStyle(lipgloss.HiddenBorder()).MarginLeft(1)
	focusedModelStyle = lipgloss.NewStyle().
				Align(lipgloss.Top, lipgloss.Top).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color(common.COLOR_LIGHTBLUE)).MarginLeft(1)

	profileNameStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(common.COLOR_MAGENTA))
	tabStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color(common.COLOR_GREY)).Padding(0, 1)
	activeTabStyle   = tabStyle.Foreground(lipgloss.Color(common.COLOR_LIGHTBLUE)).Underline(true)
)

type focus int

const (
	focusCompose focus = iota
	focusFeed
	focusSuggestions
	focusSearch
)

type MainModel struct {
	width  int
	height int

	session *common.Session
	router  *view.Router
	state   common.SessionState
	focus   focus
	page    view.Page

	headerModel      header.Model
	composeModel     compose.Model
	feedModel        feed.Model
	suggestionsModel suggestions.Model
	editModel        editprofile.Model
	search           textinput.Model

	notice    string
	noticeSeq int
}

func NewModel(ctx context.Context, engine *social.Engine, width int, height int) MainModel {
	width = common.DefaultWindowWidth(width)
	height = common.DefaultWindowHeight(height)

	session := &common.Session{Ctx: ctx, Engine: engine}

	search := textinput.New()
	search.Placeholder = "search posts and handles"
	search.CharLimit = 100
	search.Width = 40
	search.Prompt = "/ "

	m := MainModel{
		width:   width,
		height:  height,
		session: session,
		router:  view.NewRouter(),
		state:   common.HomeView,
		focus:   focusFeed,
		search:  search,
	}
	m.headerModel = header.Model{Width: width, Me: engine.Me()}
	m.composeModel = compose.InitialModel(session, width)
	m.feedModel = feed.InitialModel(session, m.mainWidth(), height)
	m.suggestionsModel = suggestions.InitialModel(session, common.DefaultSidebarWidth(width))
	m.editModel = editprofile.InitialModel(session)
	m.refresh()
	return m
}

func (m MainModel) Init() tea.Cmd {
	return tea.Batch(
		m.composeModel.Init(),
		m.session.Do(social.OpResync, func(ctx context.Context, e *social.Engine) error {
			return e.Resync(ctx)
		}),
	)
}

func (m MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.headerModel.Width = msg.Width
		m.feedModel.Width = m.mainWidth()
		m.feedModel.Height = msg.Height
		m.suggestionsModel.Width = common.DefaultSidebarWidth(msg.Width)
		return m, nil

	case common.ResultMsg:
		if text, show := social.Notice(msg.Op, msg.Err); show {
			cmds = append(cmds, m.setNotice(text))
		}
		m.composeModel, _ = m.composeModel.Update(msg)
		if msg.Op == social.OpEditProfile && (msg.Err == nil || errors.Is(msg.Err, social.ErrSync)) {
			m.state = common.ProfileView
			m.router.Profile("", m.session.Engine.Me().Handle)
		}
		m.refresh()
		return m, tea.Batch(cmds...)

	case common.ClearNoticeMsg:
		if msg.Seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case common.OpenProfileMsg:
		m.openProfile(msg.Handle)
		return m, nil

	case editprofile.CancelMsg:
		m.state = stateFor(m.router.State())
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}

	// blink and other ticks for whichever input is active
	switch {
	case m.state == common.EditProfileView:
		m.editModel, cmd = m.editModel.Update(msg)
	case m.focus == focusCompose:
		m.composeModel, cmd = m.composeModel.Update(msg)
	case m.focus == focusSearch:
		m.search, cmd = m.search.Update(msg)
	}
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m MainModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if m.state == common.EditProfileView {
		m.editModel, cmd = m.editModel.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "ctrl+r":
		return m, m.session.Do(social.OpResync, func(ctx context.Context, e *social.Engine) error {
			return e.Resync(ctx)
		})
	case "tab":
		return m.cycleFocus(1)
	case "shift+tab":
		return m.cycleFocus(-1)
	}

	switch m.focus {
	case focusCompose:
		if msg.Type == tea.KeyEsc {
			return m.setFocus(focusFeed)
		}
		m.composeModel, cmd = m.composeModel.Update(msg)
		return m, cmd

	case focusSearch:
		switch msg.Type {
		case tea.KeyEsc, tea.KeyEnter, tea.KeyDown:
			return m.setFocus(focusFeed)
		}
		m.search, cmd = m.search.Update(msg)
		m.router.SetQuery(m.search.Value())
		m.refresh()
		return m, cmd
	}

	if m.focus == focusFeed && m.feedModel.Typing() {
		m.feedModel, cmd = m.feedModel.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "1":
		m.state = common.HomeView
		m.router.Home()
		m.refresh()
		return m.setFocus(focusFeed)
	case "2":
		m.state = common.ExploreView
		m.router.Explore(m.search.Value())
		m.refresh()
		return m.setFocus(focusSearch)
	case "3":
		m.openProfile("")
		return m, nil
	case "/":
		if m.state == common.ExploreView {
			return m.setFocus(focusSearch)
		}
	case "n":
		return m.setFocus(focusCompose)
	case "e":
		m.state = common.EditProfileView
		m.editModel, cmd = m.editModel.Open(m.session.Engine.Me())
		return m, cmd
	case "[", "]":
		if m.state == common.ProfileView {
			tab := view.TabPosts
			if msg.String() == "]" {
				tab = view.TabLikes
			}
			m.router.SetTab(tab)
			m.refresh()
		}
		return m, nil
	case "f":
		if m.state == common.ProfileView && m.page.Profile != nil && !m.page.Profile.IsMe && m.focus == focusFeed {
			handle := m.page.Profile.Handle
			return m, m.session.Do(social.OpFollow, func(ctx context.Context, e *social.Engine) error {
				return e.ToggleFollow(ctx, handle)
			})
		}
	}

	switch m.focus {
	case focusSuggestions:
		m.suggestionsModel, cmd = m.suggestionsModel.Update(msg)
	default:
		m.feedModel, cmd = m.feedModel.Update(msg)
	}
	return m, cmd
}

func (m MainModel) cycleFocus(step int) (tea.Model, tea.Cmd) {
	order := []focus{focusCompose, focusFeed, focusSuggestions}
	if m.state == common.ExploreView {
		order = []focus{focusSearch, focusCompose, focusFeed, focusSuggestions}
	}

	next := order[0]
	for i, f := range order {
		if f == m.focus {
			next = order[(i+step+len(order))%len(order)]
			break
		}
	}
	return m.setFocus(next)
}

func (m MainModel) setFocus(f focus) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	m.focus = f
	m.composeModel = m.composeModel.Blur()
	m.search.Blur()
	m.suggestionsModel.Focused = f == focusSuggestions

	switch f {
	case focusCompose:
		m.composeModel, cmd = m.composeModel.Focus()
	case focusSearch:
		cmd = m.search.Focus()
	}
	return m, cmd
}

func (m *MainModel) openProfile(handle string) {
	m.state = common.ProfileView
	m.router.Profile(handle, m.session.Engine.Me().Handle)
	m.focus = focusFeed
	m.composeModel = m.composeModel.Blur()
	m.search.Blur()
	m.suggestionsModel.Focused = false
	m.refresh()
}

// refresh derives every panel from the latest snapshot.
func (m *MainModel) refresh() {
	snap := m.session.Engine.Snapshot()

	m.page = view.Derive(snap, m.router.State())
	m.feedModel = m.feedModel.SetPosts(m.page.Posts)
	m.feedModel.Empty = emptyText(m.router.State())
	m.suggestionsModel = m.suggestionsModel.SetProfiles(view.Suggestions(snap))
	m.headerModel.Me = snap.Me
	m.headerModel.Section = m.section()
}

func (m *MainModel) setNotice(text string) tea.Cmd {
	m.noticeSeq++
	m.notice = text
	return common.ClearNoticeAfter(noticeTimeout, m.noticeSeq)
}

func (m MainModel) mainWidth() int {
	return m.width - common.DefaultComposeWidth(m.width) - common.DefaultSidebarWidth(m.width) - 8
}

func (m MainModel) View() string {
	if m.state == common.EditProfileView {
		return m.editModel.ViewWithWidth(m.width, m.height-1) + "\n" + common.NoticeStyle.Render(m.notice)
	}

	var s strings.Builder

	availableHeight := m.height - 10
	leftWidth := common.DefaultComposeWidth(m.width)
	rightWidth := common.DefaultSidebarWidth(m.width)
	mainWidth := m.mainWidth()

	composeStr := lipgloss.NewStyle().
		MaxHeight(availableHeight).
		Height(availableHeight).
		Width(leftWidth).
		MaxWidth(leftWidth).
		Render(m.composeModel.View())

	mainStr := lipgloss.NewStyle().
		MaxHeight(availableHeight).
		Height(availableHeight).
		Width(mainWidth).
		MaxWidth(mainWidth).
		Render(m.mainView())

	sideStr := lipgloss.NewStyle().
		MaxHeight(availableHeight).
		Height(availableHeight).
		Width(rightWidth).
		MaxWidth(rightWidth).
		Render(m.suggestionsModel.View())

	styleFor := func(f focus) lipgloss.Style {
		if m.focus == f || (f == focusFeed && m.focus == focusSearch) {
			return focusedModelStyle
		}
		return modelStyle
	}

	s.WriteString(m.headerModel.View())
	s.WriteString("\n")
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styleFor(focusCompose).Render(composeStr),
		styleFor(focusFeed).Render(mainStr),
		styleFor(focusSuggestions).Render(sideStr)))
	s.WriteString("\n")

	if m.notice != "" {
		s.WriteString(common.NoticeStyle.Render(m.notice))
	}
	s.WriteString("\n")
	s.WriteString(common.HelpStyle.Render(m.helpText()))
	return s.String()
}

func (m MainModel) mainView() string {
	var s strings.Builder
	st := m.router.State()

	switch st.Name {
	case view.Explore:
		s.WriteString(common.CaptionStyle.Render("explore"))
		s.WriteString("\n")
		s.WriteString(m.search.View())
		s.WriteString("\n\n")
	case view.Profile:
		s.WriteString(m.profileHeader(st))
		s.WriteString("\n")
	default:
		s.WriteString(common.CaptionStyle.Render(fmt.Sprintf("home (%d posts)", len(m.page.Posts))))
		s.WriteString("\n")
	}

	s.WriteString(m.feedModel.View())
	return s.String()
}

func (m MainModel) profileHeader(st view.State) string {
	p := m.page.Profile
	if p == nil {
		return ""
	}

	var s strings.Builder
	if !p.Known {
		s.WriteString(profileNameStyle.Render("@" + p.Handle))
		s.WriteString("\n")
		s.WriteString(common.EmptyStyle.Render("This profile does not exist."))
		s.WriteString("\n")
		return s.String()
	}

	s.WriteString(profileNameStyle.Render(p.DisplayName))
	s.WriteString(" @" + p.Handle)
	s.WriteString("\n")
	if p.Bio != "" {
		s.WriteString(p.Bio)
		s.WriteString("\n")
	}
	s.WriteString(fmt.Sprintf("%d following · %d followers", p.Following, p.Followers))

	switch {
	case p.IsMe:
		s.WriteString("  [e: edit profile]")
	case p.FollowedByMe:
		s.WriteString("  [f: unfollow]")
	default:
		s.WriteString("  [f: follow]")
	}
	s.WriteString("\n\n")

	posts, likes := tabStyle, tabStyle
	if st.Tab == view.TabLikes {
		likes = activeTabStyle
	} else {
		posts = activeTabStyle
	}
	s.WriteString(posts.Render("posts") + likes.Render("likes"))
	s.WriteString("\n")
	return s.String()
}

func (m MainModel) section() string {
	switch m.state {
	case common.ExploreView:
		return "explore"
	case common.ProfileView:
		return "profile @" + m.router.State().Handle
	case common.EditProfileView:
		return "edit profile"
	default:
		return "home"
	}
}

func (m MainModel) helpText() string {
	var viewCommands string
	switch m.focus {
	case focusCompose:
		viewCommands = "ctrl+s: post • esc: leave"
	case focusSearch:
		viewCommands = "type to search • enter/esc: results"
	case focusSuggestions:
		viewCommands = "↑/↓: select • enter: profile • f: follow"
	default:
		viewCommands = "↑/↓: select • l: like • r: repost • enter: replies • R: reply • d: delete • p: profile • f: follow"
		if m.state == common.ProfileView {
			viewCommands += " • [/]: tab"
		}
	}

	return fmt.Sprintf("1: home • 2: explore • 3: me • n: new post • e: edit profile • tab: focus • ctrl+r: refresh • ctrl+c: exit\n%s", viewCommands)
}

func emptyText(st view.State) string {
	switch st.Name {
	case view.Explore:
		if st.Query != "" {
			return fmt.Sprintf("No posts match %q.", st.Query)
		}
	case view.Profile:
		if st.Tab == view.TabLikes {
			return "No liked posts yet."
		}
		return "No posts yet."
	}
	return "Nothing here yet. Write the first post!"
}

func stateFor(st view.State) common.SessionState {
	switch st.Name {
	case view.Explore:
		return common.ExploreView
	case view.Profile:
		return common.ProfileView
	default:
		return common.HomeView
	}
}
