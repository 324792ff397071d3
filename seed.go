package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/charmbracelet/log"
	"github.com/deemkeen/chirp/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const maxSeedFollows = 3

type seedOptions struct {
	Profiles int
	Posts    int
	Seed     int64
}

type seedStore interface {
	CreateProfile(ctx context.Context, p *domain.Profile) error
	CreatePost(ctx context.Context, p *domain.SavePost) (*domain.Post, error)
	UpdatePost(ctx context.Context, id int64, patch domain.PostPatch) error
	UpdateFollow(ctx context.Context, change domain.FollowChange) error
}

func newSeedCommand() *cobra.Command {
	opts := &seedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the store with fake profiles and posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Profiles < 1 || opts.Posts < 0 {
				return fmt.Errorf("need at least one profile and a non-negative post count")
			}
			_, database, err := loadStore()
			if err != nil {
				return err
			}
			defer database.Close()

			return seed(cmd.Context(), database, gofakeit.New(opts.Seed), opts.Profiles, opts.Posts)
		},
	}

	cmd.Flags().IntVar(&opts.Profiles, "profiles", 10, "number of profiles")
	cmd.Flags().IntVar(&opts.Posts, "posts", 50, "number of posts")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed, 0 picks one")

	return cmd
}

func seed(ctx context.Context, store seedStore, faker *gofakeit.Faker, nProfiles int, nPosts int) error {
	profiles := make([]*domain.Profile, 0, nProfiles)
	taken := domain.HandleSet{}

	for len(profiles) < nProfiles {
		handle := fakeHandle(faker)
		if taken.Contains(handle) {
			continue
		}
		p := &domain.Profile{
			Id:          uuid.New(),
			Handle:      handle,
			DisplayName: faker.Name(),
			Bio:         faker.Sentence(8),
			Following:   domain.HandleSet{},
			Followers:   domain.HandleSet{},
		}
		if err := store.CreateProfile(ctx, p); err != nil {
			return fmt.Errorf("creating @%s: %w", handle, err)
		}
		taken = taken.With(handle)
		profiles = append(profiles, p)
	}

	follows := 0
	for _, follower := range profiles {
		for range faker.Number(0, min(maxSeedFollows, len(profiles)-1)) {
			target := profiles[faker.Number(0, len(profiles)-1)]
			if target == follower || follower.Following.Contains(target.Handle) {
				continue
			}
			change := domain.FollowChange{
				FollowerId: follower.Id,
				Following:  follower.Following.With(target.Handle),
				TargetId:   target.Id,
				Followers:  target.Followers.With(follower.Handle),
			}
			if err := store.UpdateFollow(ctx, change); err != nil {
				return fmt.Errorf("@%s following @%s: %w", follower.Handle, target.Handle, err)
			}
			follower.Following = change.Following
			target.Followers = change.Followers
			follows++
		}
	}

	for range nPosts {
		author := profiles[faker.Number(0, len(profiles)-1)]
		post, err := store.CreatePost(ctx, &domain.SavePost{
			AuthorId:    author.Id,
			Handle:      author.Handle,
			DisplayName: author.DisplayName,
			Content:     faker.Sentence(faker.Number(4, 16)),
		})
		if err != nil {
			return fmt.Errorf("creating post: %w", err)
		}

		likes := domain.HandleSet{}
		for _, fan := range author.Followers {
			if faker.Bool() {
				likes = likes.With(fan)
			}
		}
		if len(likes) > 0 {
			if err := store.UpdatePost(ctx, post.Id, domain.PostPatch{Likes: &likes}); err != nil {
				return fmt.Errorf("liking post %d: %w", post.Id, err)
			}
		}
	}

	log.Info("seeded", "profiles", len(profiles), "follows", follows, "posts", nPosts)
	return nil
}

func fakeHandle(faker *gofakeit.Faker) string {
	return fmt.Sprintf("%s%d", strings.ToLower(faker.Username()), faker.Number(10, 99))
}
