package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserInterest is one keyword of a user's interest profile.
// Collection: user_interests, unique key: (user_id, keyword)
//
// Invariant: a stored weight is always above the removal threshold; records
// that would drop to or below it are deleted instead of updated.
type UserInterest struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Keyword   string             `bson:"keyword" json:"keyword"`
	Weight    float64            `bson:"weight" json:"weight"`
	Source    string             `bson:"source,omitempty" json:"source,omitempty"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
