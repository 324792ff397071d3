package middleware

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	bm "github.com/charmbracelet/wish/bubbletea"
	"github.com/deemkeen/chirp/db"
	"github.com/deemkeen/chirp/social"
	"github.com/deemkeen/chirp/ui"
	"github.com/deemkeen/chirp/util"
	"github.com/muesli/termenv"
)

// MainTui gives every session its own engine over the shared store.
func MainTui(database *db.DB, conf *util.AppConfig) wish.Middleware {
	teaHandler := func(s ssh.Session) *tea.Program {

		pty, _, active := s.Pty()
		if !active {
			wish.Println(s, "no active terminal, skipping")
			return nil
		}

		profile, ok := ProfileFromSession(s)
		if !ok {
			log.Error("session has no profile", "remote", s.RemoteAddr())
			return nil
		}

		engine := social.NewEngine(database, profile, social.WithFollowRepair(conf.Conf.RepairFollows))
		m := ui.NewModel(s.Context(), engine, pty.Window.Width, pty.Window.Height)
		return tea.NewProgram(m, tea.WithInput(s), tea.WithOutput(s), tea.WithAltScreen())
	}
	return bm.MiddlewareWithProgramHandler(teaHandler, termenv.ANSI256)
}
