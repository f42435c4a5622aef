package services

import (
	"context"
	"errors"
	"fmt"

	"social-backend/internal/models"
	"social-backend/internal/store"
)

var ErrPostNotFound = errors.New("post not found")

// PostService owns the post lifecycle. Create, share and delete each run in a
// single store transaction, so a post and its dependent documents either all
// land or none do.
type PostService struct {
	store store.Store
}

func NewPostService(st store.Store) *PostService {
	return &PostService{store: st}
}

// AttachmentUpload is the blob-storage reference of an uploaded file.
type AttachmentUpload struct {
	FileName    string
	URL         string
	Size        int64
	ContentType string
}

// Create inserts a post and one attachment per upload atomically. The author
// must exist.
func (s *PostService) Create(ctx context.Context, userID, content string, uploads []AttachmentUpload) (*models.CreatedPost, error) {
	if _, err := s.store.FindByID(ctx, store.Users, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var created *models.CreatedPost
	err := s.store.WithTransaction(ctx, func(txCtx context.Context) error {
		doc, err := s.store.Insert(txCtx, store.Posts, models.Post{Content: content, UserID: userID})
		if err != nil {
			return err
		}
		post, err := store.Decode[models.Post](doc)
		if err != nil {
			return err
		}

		attachments := make([]models.Attachment, 0, len(uploads))
		for _, up := range uploads {
			attDoc, err := s.store.Insert(txCtx, store.Attachments, models.Attachment{
				PostID:      post.ID,
				FileName:    up.FileName,
				URL:         up.URL,
				Size:        up.Size,
				ContentType: up.ContentType,
			})
			if err != nil {
				return err
			}
			att, err := store.Decode[models.Attachment](attDoc)
			if err != nil {
				return err
			}
			attachments = append(attachments, att)
		}

		created = &models.CreatedPost{Post: post, Attachments: attachments}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return created, nil
}

// Share duplicates an existing post under the sharer's account. The new post
// gets fresh-identity copies of the source's attachments; only payload fields
// carry over.
func (s *PostService) Share(ctx context.Context, userID, postID string) (*models.CreatedPost, error) {
	var created *models.CreatedPost
	err := s.store.WithTransaction(ctx, func(txCtx context.Context) error {
		srcDoc, err := s.store.FindByID(txCtx, store.Posts, postID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrPostNotFound
			}
			return err
		}
		src, err := store.Decode[models.Post](srcDoc)
		if err != nil {
			return err
		}

		newDoc, err := s.store.Insert(txCtx, store.Posts, models.Post{Content: src.Content, UserID: userID})
		if err != nil {
			return err
		}
		newPost, err := store.Decode[models.Post](newDoc)
		if err != nil {
			return err
		}

		srcAttDocs, err := s.store.Find(txCtx, store.Attachments, store.M{"postId": postID})
		if err != nil {
			return err
		}
		srcAtts, err := store.DecodeAll[models.Attachment](srcAttDocs)
		if err != nil {
			return err
		}

		attachments := make([]models.Attachment, 0, len(srcAtts))
		for _, src := range srcAtts {
			copyDoc, err := s.store.Insert(txCtx, store.Attachments, models.Attachment{
				PostID:      newPost.ID,
				FileName:    src.FileName,
				URL:         src.URL,
				Size:        src.Size,
				ContentType: src.ContentType,
			})
			if err != nil {
				return err
			}
			att, err := store.Decode[models.Attachment](copyDoc)
			if err != nil {
				return err
			}
			attachments = append(attachments, att)
		}

		created = &models.CreatedPost{Post: newPost, Attachments: attachments}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("share post: %w", err)
	}
	return created, nil
}

// Delete removes the post together with its attachments and likes in one
// transaction. Deleting a post that no longer exists succeeds, so a repeated
// delete is a no-op.
func (s *PostService) Delete(ctx context.Context, postID string) error {
	err := s.store.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.store.DeleteOne(txCtx, store.Posts, store.M{"_id": postID}); err != nil {
			return err
		}
		if _, err := s.store.DeleteMany(txCtx, store.Attachments, store.M{"postId": postID}); err != nil {
			return err
		}
		if _, err := s.store.DeleteMany(txCtx, store.Likes, store.M{"postId": postID}); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// Like records that userID likes postID. A user likes a post at most once;
// liking it again returns the existing edge.
func (s *PostService) Like(ctx context.Context, postID, userID string) (*models.Like, error) {
	existing, err := s.store.FindOne(ctx, store.Likes, store.M{"postId": postID, "userId": userID})
	if err == nil {
		like, err := store.Decode[models.Like](existing)
		if err != nil {
			return nil, err
		}
		return &like, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	doc, err := s.store.Insert(ctx, store.Likes, models.Like{PostID: postID, UserID: userID})
	if err != nil {
		return nil, err
	}
	like, err := store.Decode[models.Like](doc)
	if err != nil {
		return nil, err
	}
	return &like, nil
}

// Unlike removes at most one like edge; removing a missing edge is not an
// error.
func (s *PostService) Unlike(ctx context.Context, postID, userID string) error {
	_, err := s.store.DeleteOne(ctx, store.Likes, store.M{"postId": postID, "userId": userID})
	return err
}
