package web

import (
	"errors"
	"fmt"

	"github.com/deemkeen/chirp/social"
	"github.com/deemkeen/chirp/util"
	"github.com/deemkeen/chirp/view"
	"github.com/gorilla/feeds"
)

var ErrUnknownHandle = errors.New("unknown handle")

func baseURL(conf *util.AppConfig) string {
	return fmt.Sprintf("http://%s:%d", conf.Conf.Host, conf.Conf.HttpPort)
}

// GetRSS renders every post, or only the posts of handle when it is set.
func GetRSS(conf *util.AppConfig, s *social.Snapshot, handle string) (string, error) {
	link := baseURL(conf) + "/feed"
	title := fmt.Sprintf("All %s posts", util.Name)
	author := &feeds.Author{Name: "everyone"}
	st := view.State{Name: view.Home}

	if handle != "" {
		p, ok := s.Profiles[handle]
		if !ok {
			return "", fmt.Errorf("%w: @%s", ErrUnknownHandle, handle)
		}
		title = fmt.Sprintf("%s posts - @%s", util.Name, handle)
		author = &feeds.Author{Name: p.DisplayName, Email: fmt.Sprintf("%s@%s", p.Handle, util.Name)}
		link = fmt.Sprintf("%s?handle=%s", link, handle)
		st = view.State{Name: view.Profile, Handle: handle, Tab: view.TabPosts}
	}

	feed := &feeds.Feed{
		Title:       title,
		Link:        &feeds.Link{Href: link},
		Description: fmt.Sprintf("%s feed", util.GetNameAndVersion()),
		Author:      author,
		Created:     s.SyncedAt,
	}
	for _, p := range view.Derive(s, st).Posts {
		feed.Items = append(feed.Items, feedItem(conf, p))
	}
	return feed.ToRss()
}

// GetRSSItem renders a single post as a one-item feed.
func GetRSSItem(conf *util.AppConfig, s *social.Snapshot, id int64) (string, error) {
	post, ok := s.Post(id)
	if !ok {
		return "", fmt.Errorf("%w: %d", social.ErrPostNotFound, id)
	}
	item := feedItem(conf, view.NewPostView(post, s.Me.Handle))

	feed := &feeds.Feed{
		Title:       fmt.Sprintf("Post by @%s", post.Handle),
		Link:        item.Link,
		Description: fmt.Sprintf("%s feed", util.GetNameAndVersion()),
		Author:      item.Author,
		Created:     post.CreatedAt,
		Items:       []*feeds.Item{item},
	}
	return feed.ToRss()
}

func feedItem(conf *util.AppConfig, p view.PostView) *feeds.Item {
	return &feeds.Item{
		Id:          fmt.Sprintf("%d", p.Id),
		Title:       p.CreatedAt.Format(util.DateTimeFormat()),
		Link:        &feeds.Link{Href: fmt.Sprintf("%s/feed/%d", baseURL(conf), p.Id)},
		Content:     p.Content,
		Description: fmt.Sprintf("%d likes, %d reposts, %d replies", p.Likes, p.Reposts, len(p.Replies)),
		Author:      &feeds.Author{Name: p.DisplayName, Email: fmt.Sprintf("%s@%s", p.Handle, util.Name)},
		Created:     p.CreatedAt,
	}
}
