package social

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotice(t *testing.T) {
	storeErr := errors.New("boom")

	tests := []struct {
		name string
		op   Op
		err  error
		msg  string
		show bool
	}{
		{"success", OpCreatePost, nil, "", false},
		{"empty post", OpCreatePost, fmt.Errorf("%w: empty post", ErrValidation), "Write something first.", true},
		{"empty name", OpEditProfile, ErrValidation, "Display name can't be empty.", true},
		{"post rejected", OpCreatePost, storeErr, "Could not publish your post.", true},
		{"not author", OpDeletePost, ErrNotAuthor, "You can only delete your own posts.", true},
		{"delete rejected", OpDeletePost, storeErr, "Could not delete the post.", true},
		{"self follow", OpFollow, ErrSelfFollow, "You can't follow yourself.", true},
		{"unknown target", OpFollow, ErrUnknownTarget, "That user doesn't exist.", true},
		{"profile rejected", OpEditProfile, storeErr, "Could not save your profile.", true},
		{"like is silent", OpLike, storeErr, "", false},
		{"repost is silent", OpRepost, ErrPostNotFound, "", false},
		{"reply is silent", OpReply, ErrValidation, "", false},
		{"sync failure is shown", OpLike, fmt.Errorf("%w: %w", ErrSync, storeErr), "Could not refresh, showing the last loaded data.", true},
		{"resync", OpResync, fmt.Errorf("%w: x", ErrSync), "Could not refresh, showing the last loaded data.", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, show := Notice(tt.op, tt.err)
			assert.Equal(t, tt.msg, msg)
			assert.Equal(t, tt.show, show)
		})
	}
}
