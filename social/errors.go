package social

import (
	"errors"
)

var (
	// ErrValidation is returned before any store call when input is empty.
	ErrValidation    = errors.New("validation failed")
	ErrNotAuthor     = errors.New("post belongs to another user")
	ErrSelfFollow    = errors.New("cannot follow yourself")
	ErrUnknownTarget = errors.New("unknown profile")
	ErrPostNotFound  = errors.New("post not found")
	// ErrSync wraps a failed refetch. The previous snapshot stays in place.
	ErrSync = errors.New("sync failed")
)

// Op names a user action for notices and logs.
type Op string

const (
	OpResync      Op = "resync"
	OpCreatePost  Op = "create post"
	OpDeletePost  Op = "delete post"
	OpLike        Op = "like"
	OpRepost      Op = "repost"
	OpReply       Op = "reply"
	OpFollow      Op = "follow"
	OpEditProfile Op = "edit profile"
)

// Notice turns the outcome of an operation into the message shown to the
// user. show is false when nothing should be displayed.
func Notice(op Op, err error) (msg string, show bool) {
	if err == nil {
		return "", false
	}

	if errors.Is(err, ErrSync) {
		return "Could not refresh, showing the last loaded data.", true
	}

	switch op {
	case OpLike, OpRepost, OpReply:
		return "", false
	}

	switch {
	case errors.Is(err, ErrValidation):
		if op == OpEditProfile {
			return "Display name can't be empty.", true
		}
		return "Write something first.", true
	case errors.Is(err, ErrNotAuthor):
		return "You can only delete your own posts.", true
	case errors.Is(err, ErrSelfFollow):
		return "You can't follow yourself.", true
	case errors.Is(err, ErrUnknownTarget):
		return "That user doesn't exist.", true
	case errors.Is(err, ErrPostNotFound):
		return "That post no longer exists.", true
	}

	switch op {
	case OpCreatePost:
		return "Could not publish your post.", true
	case OpDeletePost:
		return "Could not delete the post.", true
	case OpFollow:
		return "Could not update follow.", true
	case OpEditProfile:
		return "Could not save your profile.", true
	default:
		return "Something went wrong.", true
	}
}
