package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Feed represents an RSS feed source.
// Collection: feeds, unique key: url
type Feed struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
	Name          string             `bson:"name" json:"name"`
	URL           string             `bson:"url" json:"url"`
	IsActive      bool               `bson:"is_active" json:"is_active"`
	LastFetchedAt *time.Time         `bson:"last_fetched_at,omitempty" json:"last_fetched_at,omitempty"`
}
