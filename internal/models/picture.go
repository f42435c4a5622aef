package models

import "time"

// Picture stores the blob-storage reference of a user's profile picture.
type Picture struct {
	ID          string    `bson:"_id,omitempty" json:"_id"`
	UserID      string    `bson:"userId" json:"userId"`
	FileName    string    `bson:"fileName" json:"fileName"`
	URL         string    `bson:"url" json:"url"`
	Size        int64     `bson:"size,omitempty" json:"size,omitempty"`
	ContentType string    `bson:"contentType,omitempty" json:"contentType,omitempty"`
	CreatedAt   time.Time `bson:"createdAt,omitempty" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt,omitempty" json:"updatedAt"`
}
