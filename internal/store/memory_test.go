package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertStampsDocument(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	doc, err := s.Insert(ctx, Posts, M{"content": "hello", "userId": "u1"})
	require.NoError(t, err)

	assert.NotEmpty(t, doc["_id"])
	assert.NotNil(t, doc["createdAt"])
	assert.NotNil(t, doc["updatedAt"])

	found, err := s.FindByID(ctx, Posts, doc["_id"].(string))
	require.NoError(t, err)
	assert.Equal(t, "hello", found["content"])
}

func TestInsertKeepsCallerTimestamps(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	doc, err := s.Insert(ctx, Posts, M{"content": "old", "updatedAt": when})
	require.NoError(t, err)

	got, ok := asTime(doc["updatedAt"])
	require.True(t, ok)
	assert.True(t, got.Equal(when))
}

func TestFindByIDMiss(t *testing.T) {
	s := NewMemory()

	_, err := s.FindByID(context.Background(), Posts, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindWithInFilter(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	for _, owner := range []string{"u1", "u2", "u3"} {
		_, err := s.Insert(ctx, Posts, M{"content": "post by " + owner, "userId": owner})
		require.NoError(t, err)
	}

	docs, err := s.Find(ctx, Posts, M{"userId": M{"$in": []string{"u1", "u3"}}})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestFindWithOrRegexFilter(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	_, err := s.Insert(ctx, Users, M{"firstName": "Alice", "email": "alice@example.com"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, Users, M{"firstName": "Bob", "email": "bob@example.com"})
	require.NoError(t, err)

	pattern := M{"$regex": "ALI", "$options": "i"}
	docs, err := s.Find(ctx, Users, M{"$or": []M{
		{"firstName": pattern},
		{"email": pattern},
	}})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Alice", docs[0]["firstName"])
}

func TestFindSortDesc(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, content := range []string{"first", "second", "third"} {
		_, err := s.Insert(ctx, Posts, M{"content": content, "updatedAt": base.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
	}

	docs, err := s.Find(ctx, Posts, M{}, SortDesc("updatedAt"))
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "third", docs[0]["content"])
	assert.Equal(t, "second", docs[1]["content"])
	assert.Equal(t, "first", docs[2]["content"])
}

func TestUpdateByID(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	doc, err := s.Insert(ctx, Users, M{"firstName": "Alice", "city": "Lisbon"})
	require.NoError(t, err)
	id := doc["_id"].(string)

	updated, err := s.UpdateByID(ctx, Users, id, M{"city": "Porto"})
	require.NoError(t, err)
	assert.Equal(t, "Porto", updated["city"])
	assert.Equal(t, "Alice", updated["firstName"])

	_, err = s.UpdateByID(ctx, Users, "missing", M{"city": "Porto"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCounts(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Insert(ctx, Likes, M{"postId": "p1", "userId": NewID()})
		require.NoError(t, err)
	}

	n, err := s.DeleteOne(ctx, Likes, M{"postId": "p1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.DeleteMany(ctx, Likes, M{"postId": "p1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// deleting zero matching documents is not an error
	n, err = s.DeleteMany(ctx, Likes, M{"postId": "p1"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestTransactionCommit(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	err := s.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.Insert(txCtx, Posts, M{"content": "p"}); err != nil {
			return err
		}
		_, err := s.Insert(txCtx, Attachments, M{"postId": "p1"})
		return err
	})
	require.NoError(t, err)

	posts, err := s.Find(ctx, Posts, M{})
	require.NoError(t, err)
	assert.Len(t, posts, 1)
	atts, err := s.Find(ctx, Attachments, M{})
	require.NoError(t, err)
	assert.Len(t, atts, 1)
}

func TestTransactionAbortDiscardsAllStagedWrites(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	seeded, err := s.Insert(ctx, Posts, M{"content": "keep me"})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.Insert(txCtx, Posts, M{"content": "staged"}); err != nil {
			return err
		}
		if _, err := s.DeleteOne(txCtx, Posts, M{"_id": seeded["_id"]}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// the staged insert and delete both vanished
	posts, err := s.Find(ctx, Posts, M{})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "keep me", posts[0]["content"])
}

func TestNestedTransactionRejected(t *testing.T) {
	s := NewMemory()

	err := s.WithTransaction(context.Background(), func(txCtx context.Context) error {
		return s.WithTransaction(txCtx, func(context.Context) error { return nil })
	})
	assert.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	type sample struct {
		ID   string    `bson:"_id,omitempty"`
		Name string    `bson:"name"`
		At   time.Time `bson:"at,omitempty"`
	}

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	doc, err := Encode(sample{ID: "x", Name: "n", At: at})
	require.NoError(t, err)

	back, err := Decode[sample](doc)
	require.NoError(t, err)
	assert.Equal(t, "x", back.ID)
	assert.Equal(t, "n", back.Name)
	assert.True(t, back.At.Equal(at))
}
