package social

import (
	"time"

	"github.com/deemkeen/chirp/domain"
	"github.com/google/uuid"
)

// Snapshot is one synchronized view of the store. It is never modified after
// it has been published by the engine; readers may hold on to it freely.
type Snapshot struct {
	Me       domain.Profile
	Posts    []domain.Post
	Profiles map[string]domain.Profile
	// Order lists handles in the order they were first fetched.
	Order       []string
	Asymmetries []FollowAsymmetry
	SyncedAt    time.Time
}

type AsymmetryKind int

const (
	// MissingFollower: the follower lists the followee but the followee's
	// followers lack the follower.
	MissingFollower AsymmetryKind = iota
	// StaleFollower: the followee lists a follower who does not follow it.
	StaleFollower
)

func (k AsymmetryKind) String() string {
	if k == StaleFollower {
		return "stale follower"
	}
	return "missing follower"
}

// FollowAsymmetry is a follow pair whose two sides disagree.
type FollowAsymmetry struct {
	Follower string
	Followee string
	Kind     AsymmetryKind
}

func newSnapshot(me domain.Profile, posts []domain.Post, profiles []domain.Profile, at time.Time) *Snapshot {
	s := &Snapshot{
		Me:       me,
		Posts:    posts,
		Profiles: make(map[string]domain.Profile, len(profiles)),
		SyncedAt: at,
	}
	for _, p := range profiles {
		if _, seen := s.Profiles[p.Handle]; !seen {
			s.Order = append(s.Order, p.Handle)
		}
		// a handle collision keeps the later profile
		s.Profiles[p.Handle] = p
		if p.Id == me.Id {
			s.Me = p
		}
	}
	s.Asymmetries = findAsymmetries(s)
	return s
}

// withMe returns a copy of s whose current user is me.
func (s *Snapshot) withMe(me domain.Profile) *Snapshot {
	next := *s
	next.Me = me
	if _, ok := s.Profiles[me.Handle]; ok {
		next.Profiles = make(map[string]domain.Profile, len(s.Profiles))
		for h, p := range s.Profiles {
			next.Profiles[h] = p
		}
		next.Profiles[me.Handle] = me
	}
	return &next
}

// Profile looks up a handle, falling back to the current user.
func (s *Snapshot) Profile(handle string) (domain.Profile, bool) {
	if p, ok := s.Profiles[handle]; ok {
		return p, true
	}
	if handle == s.Me.Handle {
		return s.Me, true
	}
	return domain.Profile{}, false
}

// Post looks up a post by id.
func (s *Snapshot) Post(id int64) (domain.Post, bool) {
	for _, p := range s.Posts {
		if p.Id == id {
			return p, true
		}
	}
	return domain.Post{}, false
}

func findAsymmetries(s *Snapshot) []FollowAsymmetry {
	var found []FollowAsymmetry
	for _, handle := range s.Order {
		p := s.Profiles[handle]
		for _, followee := range p.Following {
			other, ok := s.Profiles[followee]
			if ok && !other.Followers.Contains(p.Handle) {
				found = append(found, FollowAsymmetry{Follower: p.Handle, Followee: followee, Kind: MissingFollower})
			}
		}
		for _, follower := range p.Followers {
			other, ok := s.Profiles[follower]
			if !ok || !other.Following.Contains(p.Handle) {
				found = append(found, FollowAsymmetry{Follower: follower, Followee: p.Handle, Kind: StaleFollower})
			}
		}
	}
	return found
}

// repairPlan rebuilds followers lists from the following lists, which are
// authoritative. Only profiles whose followers change are returned.
func repairPlan(s *Snapshot) map[uuid.UUID]domain.HandleSet {
	fixes := map[uuid.UUID]domain.HandleSet{}
	for _, handle := range s.Order {
		p := s.Profiles[handle]

		want := domain.HandleSet{}
		for _, follower := range p.Followers {
			if other, ok := s.Profiles[follower]; ok && other.Following.Contains(p.Handle) {
				want = want.With(follower)
			}
		}
		for _, other := range s.Order {
			if other != p.Handle && s.Profiles[other].Following.Contains(p.Handle) {
				want = want.With(other)
			}
		}

		if !sameHandles(want, p.Followers) {
			fixes[p.Id] = want
		}
	}
	return fixes
}

func sameHandles(a, b domain.HandleSet) bool {
	if len(a) != len(b) {
		return false
	}
	for _, h := range a {
		if !b.Contains(h) {
			return false
		}
	}
	return true
}
