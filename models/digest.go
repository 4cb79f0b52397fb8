package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DigestSection is one thematic section inside a daily digest.
type DigestSection struct {
	Theme      string               `bson:"theme" json:"theme"`
	Title      string               `bson:"title" json:"title"`
	Body       string               `bson:"body" json:"body"`
	ArticleIDs []primitive.ObjectID `bson:"article_ids" json:"article_ids"`
}

// Digest is the synthesized cross-article briefing for one newsletter date.
// Collection: digests, unique key: digest_date
//
// An empty headline marks a digest whose generation failed (or had no
// input); callers treat it as "generation failed", not "not found".
type Digest struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	CreatedAt    time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at" json:"updated_at"`
	DigestDate   string               `bson:"digest_date" json:"digest_date"`
	Headline     string               `bson:"headline" json:"headline"`
	Sections     []DigestSection      `bson:"sections" json:"sections"`
	KeyTakeaways []string             `bson:"key_takeaways" json:"key_takeaways"`
	Connections  string               `bson:"connections" json:"connections"`
	ArticleIDs   []primitive.ObjectID `bson:"article_ids" json:"article_ids"`
	ArticleCount int                  `bson:"article_count" json:"article_count"`
}

// ContentEmpty reports whether this digest carries no generated content.
func (d *Digest) ContentEmpty() bool { return d.Headline == "" }
