package services

import (
	"context"
	"errors"
	"sync"

	"social-backend/internal/models"
	"social-backend/internal/store"
	"social-backend/internal/utils"

	"golang.org/x/sync/errgroup"
)

// FeedService builds denormalized post views. It only reads; aggregation
// failures are dropped in listings and surfaced for single-post lookups.
type FeedService struct {
	store store.Store
	users *UserService
}

func NewFeedService(st store.Store, users *UserService) *FeedService {
	return &FeedService{store: st, users: users}
}

// Newsfeed returns the posts of every account userID follows, newest update
// first. A user following nobody gets an empty feed.
func (s *FeedService) Newsfeed(ctx context.Context, userID string) ([]models.PostView, error) {
	followingIDs, err := s.users.Following(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(followingIDs) == 0 {
		return []models.PostView{}, nil
	}

	docs, err := s.store.Find(ctx, store.Posts,
		store.M{"userId": store.M{"$in": followingIDs}},
		store.SortDesc("updatedAt"),
	)
	if err != nil {
		return nil, err
	}
	posts, err := store.DecodeAll[models.Post](docs)
	if err != nil {
		return nil, err
	}
	return s.aggregateAll(ctx, posts), nil
}

// UserPosts returns a single author's posts, newest update first.
func (s *FeedService) UserPosts(ctx context.Context, userID string) ([]models.PostView, error) {
	docs, err := s.store.Find(ctx, store.Posts,
		store.M{"userId": userID},
		store.SortDesc("updatedAt"),
	)
	if err != nil {
		return nil, err
	}
	posts, err := store.DecodeAll[models.Post](docs)
	if err != nil {
		return nil, err
	}
	return s.aggregateAll(ctx, posts), nil
}

// GetPost returns one post's full view. Here an aggregation failure is an
// error, not a dropped entry.
func (s *FeedService) GetPost(ctx context.Context, postID string) (*models.PostView, error) {
	doc, err := s.store.FindByID(ctx, store.Posts, postID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	post, err := store.Decode[models.Post](doc)
	if err != nil {
		return nil, err
	}
	return s.aggregate(ctx, post)
}

// aggregateAll runs the aggregation for every post concurrently, keeping the
// input order and silently dropping posts whose aggregation failed.
func (s *FeedService) aggregateAll(ctx context.Context, posts []models.Post) []models.PostView {
	results := make([]*models.PostView, len(posts))

	var wg sync.WaitGroup
	for i, post := range posts {
		wg.Add(1)
		go func(i int, post models.Post) {
			defer wg.Done()
			view, err := s.aggregate(ctx, post)
			if err != nil {
				utils.LogError(err, "aggregate post "+post.ID)
				return
			}
			results[i] = view
		}(i, post)
	}
	wg.Wait()

	views := make([]models.PostView, 0, len(posts))
	for _, view := range results {
		if view != nil {
			views = append(views, *view)
		}
	}
	return views
}

// aggregate joins a post with its attachments, likes and author summary. The
// four sub-fetches run concurrently.
func (s *FeedService) aggregate(ctx context.Context, post models.Post) (*models.PostView, error) {
	view := &models.PostView{
		Post:        post,
		Attachments: []models.Attachment{},
		Likes:       []models.Like{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		docs, err := s.store.Find(gctx, store.Attachments, store.M{"postId": post.ID})
		if err != nil {
			return err
		}
		atts, err := store.DecodeAll[models.Attachment](docs)
		if err != nil {
			return err
		}
		view.Attachments = atts
		return nil
	})
	g.Go(func() error {
		doc, err := s.store.FindByID(gctx, store.Users, post.UserID)
		if err != nil {
			return err
		}
		author, err := store.Decode[models.User](doc)
		if err != nil {
			return err
		}
		view.FirstName = author.FirstName
		view.LastName = author.LastName
		return nil
	})
	g.Go(func() error {
		docs, err := s.store.Find(gctx, store.Pictures, store.M{"userId": post.UserID})
		if err != nil {
			return err
		}
		pics, err := store.DecodeAll[models.Picture](docs)
		if err != nil {
			return err
		}
		if len(pics) > 0 {
			view.ProfilePicture = &pics[0]
		}
		return nil
	})
	g.Go(func() error {
		docs, err := s.store.Find(gctx, store.Likes, store.M{"postId": post.ID})
		if err != nil {
			return err
		}
		likes, err := store.DecodeAll[models.Like](docs)
		if err != nil {
			return err
		}
		view.Likes = likes
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}
