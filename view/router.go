// Package view tracks which screen is active and derives what it shows from
// a social snapshot.
package view

type Name int

const (
	Home Name = iota
	Explore
	Profile
)

func (n Name) String() string {
	switch n {
	case Explore:
		return "explore"
	case Profile:
		return "profile"
	default:
		return "home"
	}
}

type Tab string

const (
	TabPosts Tab = "posts"
	TabLikes Tab = "likes"
)

// ParseTab maps unknown values to TabPosts.
func ParseTab(s string) Tab {
	if Tab(s) == TabLikes {
		return TabLikes
	}
	return TabPosts
}

// State is the transient navigation state. Query is only meaningful in
// Explore, Handle and Tab only in Profile.
type State struct {
	Name   Name
	Query  string
	Handle string
	Tab    Tab
}

// Router holds the active State. There is no history.
type Router struct {
	state State
}

func NewRouter() *Router {
	return &Router{state: State{Name: Home, Tab: TabPosts}}
}

func (r *Router) State() State {
	return r.state
}

func (r *Router) Home() {
	r.state = State{Name: Home, Tab: TabPosts}
}

func (r *Router) Explore(query string) {
	r.state = State{Name: Explore, Query: query, Tab: TabPosts}
}

// SetQuery updates the search term while in Explore.
func (r *Router) SetQuery(query string) {
	if r.state.Name == Explore {
		r.state.Query = query
	}
}

// Profile opens the profile of handle on its posts tab. An empty handle
// opens the current user's profile.
func (r *Router) Profile(handle string, me string) {
	if handle == "" {
		handle = me
	}
	r.state = State{Name: Profile, Handle: handle, Tab: TabPosts}
}

// SetTab switches the profile tab. Other views ignore it.
func (r *Router) SetTab(tab Tab) {
	if r.state.Name == Profile {
		r.state.Tab = tab
	}
}
