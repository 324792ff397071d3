package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	Id          uuid.UUID `json:"id"`
	Handle      string    `json:"handle"`
	DisplayName string    `json:"displayName"`
	Bio         string    `json:"bio"`
	Following   HandleSet `json:"following"`
	Followers   HandleSet `json:"followers"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ProfilePatch lists the columns an update touches. Nil fields are left alone.
type ProfilePatch struct {
	DisplayName *string
	Bio         *string
	Following   *HandleSet
	Followers   *HandleSet
}

func (p ProfilePatch) Empty() bool {
	return p.DisplayName == nil && p.Bio == nil && p.Following == nil && p.Followers == nil
}

// FollowChange is both sides of one follow or unfollow, written together.
type FollowChange struct {
	FollowerId uuid.UUID
	Following  HandleSet
	TargetId   uuid.UUID
	Followers  HandleSet
}

func (p *Profile) ToString() string {
	return fmt.Sprintf("\n\tId: %s \n\tHandle: %s \n\tDisplayName: %s \n\tCreatedAt: %s", p.Id, p.Handle, p.DisplayName, p.CreatedAt)
}
