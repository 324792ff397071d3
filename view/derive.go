package view

import (
	"strings"
	"time"

	"github.com/deemkeen/chirp/domain"
	"github.com/deemkeen/chirp/social"
)

const maxSuggestions = 3

// PostView is a post with everything the current user needs to render it.
type PostView struct {
	Id          int64          `json:"id"`
	Handle      string         `json:"handle"`
	DisplayName string         `json:"displayName"`
	Content     string         `json:"content"`
	CreatedAt   time.Time      `json:"createdAt"`
	Likes       int            `json:"likes"`
	Reposts     int            `json:"reposts"`
	Replies     []domain.Reply `json:"replies"`
	Mine        bool           `json:"mine"`
	Liked       bool           `json:"liked"`
	Reposted    bool           `json:"reposted"`
}

type ProfileView struct {
	Handle       string `json:"handle"`
	DisplayName  string `json:"displayName"`
	Bio          string `json:"bio"`
	Following    int    `json:"following"`
	Followers    int    `json:"followers"`
	IsMe         bool   `json:"isMe"`
	FollowedByMe bool   `json:"followedByMe"`
	// Known is false when the handle is not in the snapshot.
	Known bool `json:"known"`
}

// Page is the derived content of one view.
type Page struct {
	State   State        `json:"-"`
	Posts   []PostView   `json:"posts"`
	Profile *ProfileView `json:"profile,omitempty"`
}

// Derive projects a snapshot through the navigation state.
func Derive(s *social.Snapshot, st State) Page {
	page := Page{State: st, Posts: []PostView{}}

	for _, p := range Filter(s.Posts, st) {
		page.Posts = append(page.Posts, NewPostView(p, s.Me.Handle))
	}

	if st.Name == Profile {
		pv := NewProfileView(s, st.Handle)
		page.Profile = &pv
	}
	return page
}

// Filter applies the selection rule of the view, keeping feed order.
func Filter(posts []domain.Post, st State) []domain.Post {
	var keep func(domain.Post) bool

	switch st.Name {
	case Explore:
		q := strings.ToLower(st.Query)
		if q == "" {
			return posts
		}
		keep = func(p domain.Post) bool {
			return strings.Contains(strings.ToLower(p.Content), q) || strings.Contains(p.Handle, q)
		}
	case Profile:
		if st.Tab == TabLikes {
			keep = func(p domain.Post) bool { return p.Likes.Contains(st.Handle) }
		} else {
			keep = func(p domain.Post) bool { return p.Handle == st.Handle }
		}
	default:
		return posts
	}

	out := []domain.Post{}
	for _, p := range posts {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func NewPostView(p domain.Post, me string) PostView {
	replies := p.Replies
	if replies == nil {
		replies = domain.Replies{}
	}
	return PostView{
		Id:          p.Id,
		Handle:      p.Handle,
		DisplayName: p.DisplayName,
		Content:     p.Content,
		CreatedAt:   p.CreatedAt,
		Likes:       len(p.Likes),
		Reposts:     len(p.Reposts),
		Replies:     replies,
		Mine:        p.Handle == me,
		Liked:       p.Likes.Contains(me),
		Reposted:    p.Reposts.Contains(me),
	}
}

func NewProfileView(s *social.Snapshot, handle string) ProfileView {
	p, ok := s.Profile(handle)
	if !ok {
		return ProfileView{Handle: handle, IsMe: handle == s.Me.Handle}
	}
	return ProfileView{
		Handle:       p.Handle,
		DisplayName:  p.DisplayName,
		Bio:          p.Bio,
		Following:    len(p.Following),
		Followers:    len(p.Followers),
		IsMe:         p.Id == s.Me.Id,
		FollowedByMe: s.Me.Following.Contains(p.Handle),
		Known:        true,
	}
}

// Suggestions lists up to three other profiles in fetch order.
func Suggestions(s *social.Snapshot) []ProfileView {
	out := []ProfileView{}
	for _, handle := range s.Order {
		if len(out) == maxSuggestions {
			break
		}
		p := s.Profiles[handle]
		if p.Id == s.Me.Id || handle == s.Me.Handle {
			continue
		}
		out = append(out, NewProfileView(s, handle))
	}
	return out
}
