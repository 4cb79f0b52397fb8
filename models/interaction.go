package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Interaction types.
const (
	InteractionLike     = "like"
	InteractionBookmark = "bookmark"
)

// Interaction records a user action on an article.
// Collection: interactions, unique key: (user_id, article_id, type)
type Interaction struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	ArticleID primitive.ObjectID `bson:"article_id" json:"article_id"`
	Type      string             `bson:"type" json:"type"`
}
