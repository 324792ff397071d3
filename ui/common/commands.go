package common

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/deemkeen/chirp/social"
)

type SessionState uint

const (
	HomeView SessionState = iota
	ExploreView
	ProfileView
	EditProfileView
)

// Session is what every sub model needs to talk to the engine.
type Session struct {
	Ctx    context.Context
	Engine *social.Engine
}

// ResultMsg reports the outcome of an engine operation.
type ResultMsg struct {
	Op  social.Op
	Err error
}

// OpenProfileMsg asks the main model to navigate to a profile.
type OpenProfileMsg struct {
	Handle string
}

// Do runs an engine operation off the update loop.
func (s *Session) Do(op social.Op, f func(ctx context.Context, e *social.Engine) error) tea.Cmd {
	return func() tea.Msg {
		return ResultMsg{Op: op, Err: f(s.Ctx, s.Engine)}
	}
}

// ClearNoticeMsg clears the notice line if it is still the one with Seq.
type ClearNoticeMsg struct {
	Seq int
}

func ClearNoticeAfter(d time.Duration, seq int) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return ClearNoticeMsg{Seq: seq}
	})
}
