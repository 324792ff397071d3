package ui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/deemkeen/chirp/db"
	"github.com/deemkeen/chirp/domain"
	"github.com/deemkeen/chirp/social"
	"github.com/deemkeen/chirp/ui/common"
	"github.com/deemkeen/chirp/view"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupModel(t *testing.T) (MainModel, *db.DB) {
	t.Helper()
	ctx := context.Background()

	database, err := db.Open(db.DriverSqlite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(ctx))
	t.Cleanup(func() { database.Close() })

	me := &domain.Profile{Id: uuid.New(), Handle: "me", DisplayName: "Me"}
	require.NoError(t, database.CreateProfile(ctx, me))
	other := &domain.Profile{Id: uuid.New(), Handle: "bob", DisplayName: "Bob"}
	require.NoError(t, database.CreateProfile(ctx, other))

	engine := social.NewEngine(database, me)
	require.NoError(t, engine.Resync(ctx))

	m := NewModel(ctx, engine, 120, 40)
	return m, database
}

func key(k string) tea.KeyMsg {
	switch k {
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(m MainModel, k string) (MainModel, tea.Cmd) {
	next, cmd := m.Update(key(k))
	return next.(MainModel), cmd
}

// run executes an engine command and feeds its result back.
func run(t *testing.T, m MainModel, cmd tea.Cmd) MainModel {
	t.Helper()
	require.NotNil(t, cmd)
	msg, ok := cmd().(common.ResultMsg)
	require.True(t, ok, "expected an engine result")
	next, _ := m.Update(msg)
	return next.(MainModel)
}

func TestPostLikeDeleteFlow(t *testing.T) {
	m, _ := setupModel(t)

	m, _ = press(m, "n")
	assert.Equal(t, focusCompose, m.focus)
	m, _ = press(m, "hello")
	m, cmd := press(m, "ctrl+s")
	m = run(t, m, cmd)

	require.Len(t, m.page.Posts, 1)
	assert.Equal(t, "hello", m.page.Posts[0].Content)
	assert.Empty(t, m.composeModel.Textarea.Value())

	m, _ = press(m, "esc")
	assert.Equal(t, focusFeed, m.focus)

	m, cmd = press(m, "l")
	m = run(t, m, cmd)
	assert.True(t, m.page.Posts[0].Liked)
	assert.Equal(t, 1, m.page.Posts[0].Likes)

	m, cmd = press(m, "d")
	assert.Nil(t, cmd)
	m, cmd = press(m, "y")
	m = run(t, m, cmd)
	assert.Empty(t, m.page.Posts)
}

func TestEmptyPostShowsNotice(t *testing.T) {
	m, _ := setupModel(t)

	m, _ = press(m, "n")
	m, cmd := press(m, "ctrl+s")
	m = run(t, m, cmd)

	assert.Equal(t, "Write something first.", m.notice)
	assert.Empty(t, m.page.Posts)

	next, _ := m.Update(common.ClearNoticeMsg{Seq: m.noticeSeq})
	assert.Empty(t, next.(MainModel).notice)
}

func TestNavigationAndFollow(t *testing.T) {
	m, database := setupModel(t)
	ctx := context.Background()

	bob, err := database.ReadProfileByHandle(ctx, "bob")
	require.NoError(t, err)
	_, err = database.CreatePost(ctx, &domain.SavePost{AuthorId: bob.Id, Handle: "bob", DisplayName: "Bob", Content: "cats and dogs"})
	require.NoError(t, err)
	synced, _ := m.Update(common.ResultMsg{Op: social.OpResync, Err: m.session.Engine.Resync(ctx)})
	mm := synced.(MainModel)
	require.Len(t, mm.page.Posts, 1)

	mm, _ = press(mm, "2")
	assert.Equal(t, common.ExploreView, mm.state)
	assert.Equal(t, focusSearch, mm.focus)
	mm, _ = press(mm, "cat")
	assert.Equal(t, "cat", mm.router.State().Query)
	assert.Len(t, mm.page.Posts, 1)
	mm, _ = press(mm, "x")
	assert.Empty(t, mm.page.Posts)

	mm, _ = press(mm, "esc")
	next, _ := mm.Update(common.OpenProfileMsg{Handle: "bob"})
	mm = next.(MainModel)
	assert.Equal(t, common.ProfileView, mm.state)
	require.NotNil(t, mm.page.Profile)
	assert.False(t, mm.page.Profile.FollowedByMe)

	mm, cmd := press(mm, "f")
	mm = run(t, mm, cmd)
	assert.True(t, mm.page.Profile.FollowedByMe)
	assert.Equal(t, 1, mm.page.Profile.Followers)

	mm, _ = press(mm, "]")
	assert.Equal(t, view.TabLikes, mm.router.State().Tab)
	assert.Empty(t, mm.page.Posts)

	mm, _ = press(mm, "3")
	assert.Equal(t, "me", mm.router.State().Handle)
	assert.True(t, mm.page.Profile.IsMe)
}

func TestEditProfileFlow(t *testing.T) {
	m, _ := setupModel(t)

	m, _ = press(m, "e")
	assert.Equal(t, common.EditProfileView, m.state)
	assert.Equal(t, "Me", m.editModel.DisplayName.Value())

	m.editModel.DisplayName.SetValue("Renamed")
	m, _ = press(m, "enter")
	m, cmd := press(m, "enter")
	m = run(t, m, cmd)

	assert.Equal(t, common.ProfileView, m.state)
	assert.Equal(t, "Renamed", m.headerModel.Me.DisplayName)
	assert.Equal(t, "Renamed", m.page.Profile.DisplayName)
}
