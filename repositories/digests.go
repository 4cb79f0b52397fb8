package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"curately/models"
)

type DigestRepository struct {
	col *mongo.Collection
}

func NewDigestRepository(db *mongo.Database) *DigestRepository {
	return &DigestRepository{col: db.Collection("digests")}
}

// UpsertByDate upserts the digest row for one newsletter date.
func (r *DigestRepository) UpsertByDate(ctx context.Context, d *models.Digest) (*mongo.UpdateResult, error) {
	now := time.Now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	filter := bson.M{"digest_date": d.DigestDate}
	update := bson.M{
		"$setOnInsert": bson.M{
			"created_at": d.CreatedAt,
		},
		"$set": bson.M{
			"updated_at":    d.UpdatedAt,
			"digest_date":   d.DigestDate,
			"headline":      d.Headline,
			"sections":      d.Sections,
			"key_takeaways": d.KeyTakeaways,
			"connections":   d.Connections,
			"article_ids":   d.ArticleIDs,
			"article_count": d.ArticleCount,
		},
	}
	return r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
}

// FindByDate returns the digest for one date.
func (r *DigestRepository) FindByDate(ctx context.Context, date string) (*models.Digest, error) {
	var d models.Digest
	if err := r.col.FindOne(ctx, bson.M{"digest_date": date}).Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns digests newest first with offset/limit pagination.
func (r *DigestRepository) List(ctx context.Context, offset, limit int64) ([]models.Digest, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "digest_date", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Digest
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
