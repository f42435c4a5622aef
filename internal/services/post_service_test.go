package services

import (
	"context"
	"errors"
	"testing"

	"social-backend/internal/models"
	"social-backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore wraps a real store and fails writes against chosen collections
// so transaction rollback can be observed from outside.
type failingStore struct {
	store.Store
	failInsert     string
	failDeleteMany string
}

var errInjected = errors.New("injected storage failure")

func (f *failingStore) Insert(ctx context.Context, collection string, doc any) (store.M, error) {
	if collection == f.failInsert {
		return nil, errInjected
	}
	return f.Store.Insert(ctx, collection, doc)
}

func (f *failingStore) DeleteMany(ctx context.Context, collection string, filter store.M) (int64, error) {
	if collection == f.failDeleteMany {
		return 0, errInjected
	}
	return f.Store.DeleteMany(ctx, collection, filter)
}

func seedUser(t *testing.T, st store.Store, firstName, lastName, email string) models.User {
	t.Helper()
	doc, err := st.Insert(context.Background(), store.Users, models.User{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Password:  "hash",
	})
	require.NoError(t, err)
	user, err := store.Decode[models.User](doc)
	require.NoError(t, err)
	return user
}

func countDocs(t *testing.T, st store.Store, collection string, filter store.M) int {
	t.Helper()
	docs, err := st.Find(context.Background(), collection, filter)
	require.NoError(t, err)
	return len(docs)
}

func TestCreatePost(t *testing.T) {
	st := store.NewMemory()
	svc := NewPostService(st)
	user := seedUser(t, st, "Alice", "Smith", "alice@example.com")

	created, err := svc.Create(context.Background(), user.ID, "hello", []AttachmentUpload{
		{FileName: "a.png", URL: "/uploads/a.png"},
		{FileName: "b.png", URL: "/uploads/b.png"},
	})
	require.NoError(t, err)

	assert.Equal(t, "hello", created.Content)
	assert.Equal(t, user.ID, created.UserID)
	assert.NotEmpty(t, created.ID)
	require.Len(t, created.Attachments, 2)
	for _, att := range created.Attachments {
		assert.Equal(t, created.ID, att.PostID)
		assert.NotEmpty(t, att.ID)
	}
}

func TestCreatePostWithoutAttachments(t *testing.T) {
	st := store.NewMemory()
	svc := NewPostService(st)
	user := seedUser(t, st, "Alice", "Smith", "alice@example.com")

	created, err := svc.Create(context.Background(), user.ID, "just text", nil)
	require.NoError(t, err)
	assert.NotNil(t, created.Attachments)
	assert.Empty(t, created.Attachments)
}

func TestCreatePostUnknownUser(t *testing.T) {
	st := store.NewMemory()
	svc := NewPostService(st)

	_, err := svc.Create(context.Background(), "missing", "hello", nil)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreatePostAtomicity(t *testing.T) {
	mem := store.NewMemory()
	user := seedUser(t, mem, "Alice", "Smith", "alice@example.com")

	svc := NewPostService(&failingStore{Store: mem, failInsert: store.Attachments})
	_, err := svc.Create(context.Background(), user.ID, "doomed", []AttachmentUpload{{FileName: "a.png"}})
	require.ErrorIs(t, err, errInjected)

	// neither the post nor any attachment survived the abort
	assert.Zero(t, countDocs(t, mem, store.Posts, store.M{}))
	assert.Zero(t, countDocs(t, mem, store.Attachments, store.M{}))
}

func TestDeletePostCascades(t *testing.T) {
	st := store.NewMemory()
	svc := NewPostService(st)
	ctx := context.Background()
	user := seedUser(t, st, "Alice", "Smith", "alice@example.com")

	created, err := svc.Create(ctx, user.ID, "bye", []AttachmentUpload{{FileName: "a.png"}, {FileName: "b.png"}})
	require.NoError(t, err)
	_, err = svc.Like(ctx, created.ID, user.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	assert.Zero(t, countDocs(t, st, store.Posts, store.M{"_id": created.ID}))
	assert.Zero(t, countDocs(t, st, store.Attachments, store.M{"postId": created.ID}))
	assert.Zero(t, countDocs(t, st, store.Likes, store.M{"postId": created.ID}))

	// repeating the delete is still a success
	require.NoError(t, svc.Delete(ctx, created.ID))
}

func TestDeletePostAbortsOnFailure(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	user := seedUser(t, mem, "Alice", "Smith", "alice@example.com")

	setup := NewPostService(mem)
	created, err := setup.Create(ctx, user.ID, "sticky", []AttachmentUpload{{FileName: "a.png"}})
	require.NoError(t, err)

	svc := NewPostService(&failingStore{Store: mem, failDeleteMany: store.Likes})
	err = svc.Delete(ctx, created.ID)
	require.ErrorIs(t, err, errInjected)

	// the post and its attachments are untouched after the abort
	assert.Equal(t, 1, countDocs(t, mem, store.Posts, store.M{"_id": created.ID}))
	assert.Equal(t, 1, countDocs(t, mem, store.Attachments, store.M{"postId": created.ID}))
}

func TestSharePost(t *testing.T) {
	st := store.NewMemory()
	svc := NewPostService(st)
	ctx := context.Background()
	author := seedUser(t, st, "Alice", "Smith", "alice@example.com")
	sharer := seedUser(t, st, "Bob", "Jones", "bob@example.com")

	original, err := svc.Create(ctx, author.ID, "original", []AttachmentUpload{
		{FileName: "a.png", URL: "/uploads/a.png"},
		{FileName: "b.png", URL: "/uploads/b.png"},
	})
	require.NoError(t, err)

	shared, err := svc.Share(ctx, sharer.ID, original.ID)
	require.NoError(t, err)

	assert.Equal(t, "original", shared.Content)
	assert.Equal(t, sharer.ID, shared.UserID)
	assert.NotEqual(t, original.ID, shared.ID)
	require.Len(t, shared.Attachments, 2)

	originalIDs := map[string]bool{}
	for _, att := range original.Attachments {
		originalIDs[att.ID] = true
	}
	for _, att := range shared.Attachments {
		assert.False(t, originalIDs[att.ID], "shared attachment reused the original's identity")
		assert.Equal(t, shared.ID, att.PostID)
	}
}

func TestShareIndependence(t *testing.T) {
	st := store.NewMemory()
	svc := NewPostService(st)
	ctx := context.Background()
	author := seedUser(t, st, "Alice", "Smith", "alice@example.com")
	sharer := seedUser(t, st, "Bob", "Jones", "bob@example.com")

	original, err := svc.Create(ctx, author.ID, "original", []AttachmentUpload{{FileName: "a.png"}})
	require.NoError(t, err)
	shared, err := svc.Share(ctx, sharer.ID, original.ID)
	require.NoError(t, err)

	// deleting the original does not affect the share
	require.NoError(t, svc.Delete(ctx, original.ID))

	assert.Equal(t, 1, countDocs(t, st, store.Posts, store.M{"_id": shared.ID}))
	assert.Equal(t, 1, countDocs(t, st, store.Attachments, store.M{"postId": shared.ID}))
}

func TestShareUnknownPost(t *testing.T) {
	st := store.NewMemory()
	svc := NewPostService(st)
	sharer := seedUser(t, st, "Bob", "Jones", "bob@example.com")

	_, err := svc.Share(context.Background(), sharer.ID, "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestShareAtomicity(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	author := seedUser(t, mem, "Alice", "Smith", "alice@example.com")
	sharer := seedUser(t, mem, "Bob", "Jones", "bob@example.com")

	setup := NewPostService(mem)
	original, err := setup.Create(ctx, author.ID, "original", []AttachmentUpload{{FileName: "a.png"}})
	require.NoError(t, err)

	svc := NewPostService(&failingStore{Store: mem, failInsert: store.Attachments})
	_, err = svc.Share(ctx, sharer.ID, original.ID)
	require.ErrorIs(t, err, errInjected)

	// only the original post and its attachment remain
	assert.Equal(t, 1, countDocs(t, mem, store.Posts, store.M{}))
	assert.Equal(t, 1, countDocs(t, mem, store.Attachments, store.M{}))
}

func TestLikeIsIdempotent(t *testing.T) {
	st := store.NewMemory()
	svc := NewPostService(st)
	ctx := context.Background()
	user := seedUser(t, st, "Alice", "Smith", "alice@example.com")

	created, err := svc.Create(ctx, user.ID, "likeable", nil)
	require.NoError(t, err)

	first, err := svc.Like(ctx, created.ID, user.ID)
	require.NoError(t, err)
	second, err := svc.Like(ctx, created.ID, user.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, countDocs(t, st, store.Likes, store.M{"postId": created.ID}))
}

func TestUnlike(t *testing.T) {
	st := store.NewMemory()
	svc := NewPostService(st)
	ctx := context.Background()
	user := seedUser(t, st, "Alice", "Smith", "alice@example.com")

	created, err := svc.Create(ctx, user.ID, "likeable", nil)
	require.NoError(t, err)
	_, err = svc.Like(ctx, created.ID, user.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Unlike(ctx, created.ID, user.ID))
	assert.Zero(t, countDocs(t, st, store.Likes, store.M{"postId": created.ID}))

	// unliking with nothing to remove is not an error
	require.NoError(t, svc.Unlike(ctx, created.ID, user.ID))
}
