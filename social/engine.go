// Package social holds the synchronized mirror of posts and profiles and the
// operations that change them. Every successful change is followed by a full
// refetch.
package social

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/deemkeen/chirp/domain"
	"github.com/deemkeen/chirp/util"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Store is the data access the engine depends on.
type Store interface {
	Reader
	ReadPostById(ctx context.Context, id int64) (*domain.Post, error)
	ReadProfileById(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	ReadProfileByHandle(ctx context.Context, handle string) (*domain.Profile, error)
	CreatePost(ctx context.Context, p *domain.SavePost) (*domain.Post, error)
	UpdatePost(ctx context.Context, id int64, patch domain.PostPatch) error
	DeletePost(ctx context.Context, id int64) error
	UpdateProfile(ctx context.Context, id uuid.UUID, patch domain.ProfilePatch) error
	UpdateFollow(ctx context.Context, change domain.FollowChange) error
	RepairFollowers(ctx context.Context, fixes map[uuid.UUID]domain.HandleSet) error
}

// Engine owns the current snapshot. Operations are serialized; a snapshot is
// replaced as a whole and never mutated in place.
type Engine struct {
	store  Store
	repair bool
	now    func() time.Time

	mu   sync.Mutex
	snap atomic.Pointer[Snapshot]
}

type Option func(*Engine)

// WithFollowRepair rewrites asymmetric followers lists found during resync.
func WithFollowRepair(enabled bool) Option {
	return func(e *Engine) { e.repair = enabled }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine starts with a snapshot that only knows the current user. Call
// Resync to load the feed.
func NewEngine(store Store, me *domain.Profile, opts ...Option) *Engine {
	e := &Engine{store: store, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	e.snap.Store(&Snapshot{Me: *me, Profiles: map[string]domain.Profile{}})
	return e
}

// Snapshot returns the latest published state.
func (e *Engine) Snapshot() *Snapshot {
	return e.snap.Load()
}

func (e *Engine) Me() domain.Profile {
	return e.snap.Load().Me
}

// Resync replaces posts and profiles with the store's current state. On
// failure the previous snapshot is kept.
func (e *Engine) Resync(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resyncLocked(ctx)
}

func (e *Engine) resyncLocked(ctx context.Context) error {
	prev := e.snap.Load()

	next, err := e.fetch(ctx, prev.Me)
	if err != nil {
		log.Error("resync failed, keeping previous state", "err", err)
		return fmt.Errorf("%w: %w", ErrSync, err)
	}

	if len(next.Asymmetries) > 0 {
		for _, a := range next.Asymmetries {
			log.Warn("asymmetric follow", "follower", a.Follower, "followee", a.Followee, "kind", a.Kind)
		}
		if e.repair {
			next = e.repairFollows(ctx, next)
		}
	}

	e.snap.Store(next)
	log.Debug("resynced", "posts", len(next.Posts), "profiles", len(next.Profiles))
	return nil
}

func (e *Engine) fetch(ctx context.Context, me domain.Profile) (*Snapshot, error) {
	return Fetch(ctx, e.store, me, e.now())
}

// Reader is the read half of Store.
type Reader interface {
	ReadAllPosts(ctx context.Context) ([]domain.Post, error)
	ReadAllProfiles(ctx context.Context) ([]domain.Profile, error)
}

// Fetch loads a snapshot without an engine. me may be the zero profile for
// anonymous readers.
func Fetch(ctx context.Context, r Reader, me domain.Profile, at time.Time) (*Snapshot, error) {
	posts, err := r.ReadAllPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading posts: %w", err)
	}
	profiles, err := r.ReadAllProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading profiles: %w", err)
	}
	return newSnapshot(me, posts, profiles, at), nil
}

// repairFollows writes the repair plan and refetches once. A failed repair
// leaves the asymmetries in place for the next sync.
func (e *Engine) repairFollows(ctx context.Context, s *Snapshot) *Snapshot {
	fixes := repairPlan(s)
	if len(fixes) == 0 {
		return s
	}

	if err := e.store.RepairFollowers(ctx, fixes); err != nil {
		log.Error("follow repair failed", "profiles", len(fixes), "err", err)
		return s
	}
	log.Info("repaired followers", "profiles", len(fixes))

	repaired, err := e.fetch(ctx, s.Me)
	if err != nil {
		log.Error("refetch after follow repair failed", "err", err)
		return s
	}
	return repaired
}

// mutate runs write under the operation lock and resyncs on success.
func (e *Engine) mutate(ctx context.Context, op Op, write func(me domain.Profile) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := write(e.snap.Load().Me); err != nil {
		log.Warn("mutation failed", "op", op, "err", err)
		return err
	}
	return e.resyncLocked(ctx)
}

// CreatePost publishes content as the current user.
func (e *Engine) CreatePost(ctx context.Context, content string) error {
	content = util.NormalizeInput(content)
	if content == "" {
		return fmt.Errorf("%w: empty post", ErrValidation)
	}

	return e.mutate(ctx, OpCreatePost, func(me domain.Profile) error {
		post, err := e.store.CreatePost(ctx, &domain.SavePost{
			AuthorId:    me.Id,
			Handle:      me.Handle,
			DisplayName: me.DisplayName,
			Content:     content,
		})
		if err != nil {
			return err
		}
		log.Info("post created", "id", post.Id, "handle", me.Handle)
		return nil
	})
}

// DeletePost removes a post authored by the current user. Confirmation is the
// caller's job.
func (e *Engine) DeletePost(ctx context.Context, id int64) error {
	return e.mutate(ctx, OpDeletePost, func(me domain.Profile) error {
		post, err := e.readPost(ctx, id)
		if err != nil {
			return err
		}
		if post.Handle != me.Handle {
			return fmt.Errorf("%w: post %d is by @%s", ErrNotAuthor, id, post.Handle)
		}
		return e.store.DeletePost(ctx, id)
	})
}

// ToggleLike flips the current user's like on a post.
func (e *Engine) ToggleLike(ctx context.Context, id int64) error {
	return e.mutate(ctx, OpLike, func(me domain.Profile) error {
		post, err := e.readPost(ctx, id)
		if err != nil {
			return err
		}
		likes, _ := post.Likes.Toggle(me.Handle)
		return e.store.UpdatePost(ctx, id, domain.PostPatch{Likes: &likes})
	})
}

// ToggleRepost flips the current user's repost of a post.
func (e *Engine) ToggleRepost(ctx context.Context, id int64) error {
	return e.mutate(ctx, OpRepost, func(me domain.Profile) error {
		post, err := e.readPost(ctx, id)
		if err != nil {
			return err
		}
		reposts, _ := post.Reposts.Toggle(me.Handle)
		return e.store.UpdatePost(ctx, id, domain.PostPatch{Reposts: &reposts})
	})
}

// SubmitReply appends a reply to a post.
func (e *Engine) SubmitReply(ctx context.Context, id int64, content string) error {
	content = util.NormalizeInput(content)
	if content == "" {
		return fmt.Errorf("%w: empty reply", ErrValidation)
	}

	return e.mutate(ctx, OpReply, func(me domain.Profile) error {
		post, err := e.readPost(ctx, id)
		if err != nil {
			return err
		}
		replies := append(domain.Replies{}, post.Replies...)
		replies = append(replies, domain.Reply{
			Id:          ulid.Make().String(),
			Handle:      me.Handle,
			DisplayName: me.DisplayName,
			Content:     content,
		})
		return e.store.UpdatePost(ctx, id, domain.PostPatch{Replies: &replies})
	})
}

// ToggleFollow follows or unfollows handle. Both sides are written in one
// transaction and the current user's following list is published before the
// resync.
func (e *Engine) ToggleFollow(ctx context.Context, handle string) error {
	return e.mutate(ctx, OpFollow, func(me domain.Profile) error {
		if handle == me.Handle {
			return ErrSelfFollow
		}

		target, err := e.store.ReadProfileByHandle(ctx, handle)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: @%s", ErrUnknownTarget, handle)
		}
		if err != nil {
			return err
		}
		if target.Id == me.Id {
			return ErrSelfFollow
		}

		current, err := e.store.ReadProfileById(ctx, me.Id)
		if err != nil {
			return err
		}

		following, now := current.Following.Toggle(target.Handle)
		followers := target.Followers.Without(current.Handle)
		if now {
			followers = target.Followers.With(current.Handle)
		}

		err = e.store.UpdateFollow(ctx, domain.FollowChange{
			FollowerId: current.Id,
			Following:  following,
			TargetId:   target.Id,
			Followers:  followers,
		})
		if err != nil {
			return err
		}

		updated := *current
		updated.Following = following
		e.snap.Store(e.snap.Load().withMe(updated))
		log.Info("follow toggled", "follower", current.Handle, "followee", target.Handle, "following", now)
		return nil
	})
}

// EditProfile updates the current user's display name and bio.
func (e *Engine) EditProfile(ctx context.Context, displayName string, bio string) error {
	displayName = util.NormalizeInput(displayName)
	if displayName == "" {
		return fmt.Errorf("%w: empty display name", ErrValidation)
	}
	bio = util.NormalizeInput(bio)

	return e.mutate(ctx, OpEditProfile, func(me domain.Profile) error {
		return e.store.UpdateProfile(ctx, me.Id, domain.ProfilePatch{
			DisplayName: &displayName,
			Bio:         &bio,
		})
	})
}

func (e *Engine) readPost(ctx context.Context, id int64) (*domain.Post, error) {
	post, err := e.store.ReadPostById(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrPostNotFound, id)
	}
	return post, err
}
