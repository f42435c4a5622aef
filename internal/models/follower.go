package models

import "time"

// Follow is a directed edge in the social graph: UserID follows FolloweeID.
// All call sites read the edge in this direction only.
type Follow struct {
	ID         string    `bson:"_id,omitempty" json:"_id"`
	UserID     string    `bson:"userId" json:"userId"`
	FolloweeID string    `bson:"followeeId" json:"followeeId"`
	CreatedAt  time.Time `bson:"createdAt,omitempty" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt,omitempty" json:"updatedAt"`
}
