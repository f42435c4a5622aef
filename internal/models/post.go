package models

import "time"

// Post is a unit of user-authored content. Content is immutable after
// creation; posts leave the store only through the cascading delete.
type Post struct {
	ID        string    `bson:"_id,omitempty" json:"_id"`
	Content   string    `bson:"content" json:"content"`
	UserID    string    `bson:"userId" json:"userId"`
	CreatedAt time.Time `bson:"createdAt,omitempty" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt,omitempty" json:"updatedAt"`
}

// Attachment stores the blob-storage reference of a file bound to a post.
type Attachment struct {
	ID          string    `bson:"_id,omitempty" json:"_id"`
	PostID      string    `bson:"postId" json:"postId"`
	FileName    string    `bson:"fileName" json:"fileName"`
	URL         string    `bson:"url" json:"url"`
	Size        int64     `bson:"size,omitempty" json:"size,omitempty"`
	ContentType string    `bson:"contentType,omitempty" json:"contentType,omitempty"`
	CreatedAt   time.Time `bson:"createdAt,omitempty" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt,omitempty" json:"updatedAt"`
}

type Like struct {
	ID        string    `bson:"_id,omitempty" json:"_id"`
	PostID    string    `bson:"postId" json:"postId"`
	UserID    string    `bson:"userId" json:"userId"`
	CreatedAt time.Time `bson:"createdAt,omitempty" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt,omitempty" json:"updatedAt"`
}

// CreatedPost is the response shape of create and share: the new post merged
// with its attachments.
type CreatedPost struct {
	Post
	Attachments []Attachment `json:"attachments"`
}

// PostView is the denormalized read model a feed entry is built from: the
// post joined with its attachments, likes and author summary.
type PostView struct {
	Post
	Attachments    []Attachment `json:"attachments"`
	FirstName      string       `json:"firstName"`
	LastName       string       `json:"lastName,omitempty"`
	ProfilePicture *Picture     `json:"profilePicture,omitempty"`
	Likes          []Like       `json:"likes"`
}
