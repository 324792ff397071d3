package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SavePost struct {
	AuthorId    uuid.UUID
	Handle      string
	DisplayName string
	Content     string
}

type Post struct {
	Id          int64     `json:"id"`
	AuthorId    uuid.UUID `json:"authorId"`
	Handle      string    `json:"handle"`
	DisplayName string    `json:"displayName"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
	Likes       HandleSet `json:"likes"`
	Reposts     HandleSet `json:"reposts"`
	Replies     Replies   `json:"replies"`
}

type Reply struct {
	Id          string `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	Content     string `json:"content"`
}

// Replies is kept in submission order.
type Replies []Reply

// PostPatch lists the columns an update touches. Nil fields are left alone.
type PostPatch struct {
	Likes   *HandleSet
	Reposts *HandleSet
	Replies *Replies
}

func (p PostPatch) Empty() bool {
	return p.Likes == nil && p.Reposts == nil && p.Replies == nil
}

func (r Replies) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]Reply(r))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *Replies) Scan(src any) error {
	return scanJSON(src, (*[]Reply)(r))
}

func (r Replies) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Reply(r))
}

func (post *Post) ToString() string {
	return fmt.Sprintf("\n\tId: %d \n\tHandle: %s \n\tContent: %s \n\tCreatedAt: %s", post.Id, post.Handle, post.Content, post.CreatedAt)
}
