package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"curately/models"
)

type FeedRepository struct {
	col *mongo.Collection
}

func NewFeedRepository(db *mongo.Database) *FeedRepository {
	return &FeedRepository{col: db.Collection("feeds")}
}

// UpsertByURL upserts a feed uniquely identified by url.
func (r *FeedRepository) UpsertByURL(ctx context.Context, f *models.Feed) (*mongo.UpdateResult, error) {
	now := time.Now()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now

	filter := bson.M{"url": f.URL}
	update := bson.M{
		"$setOnInsert": bson.M{
			"created_at": f.CreatedAt,
			"is_active":  f.IsActive,
		},
		"$set": bson.M{
			"updated_at": f.UpdatedAt,
			"name":       f.Name,
			"url":        f.URL,
		},
	}
	return r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
}

// FindByURL returns the feed registered under the given URL, or
// mongo.ErrNoDocuments.
func (r *FeedRepository) FindByURL(ctx context.Context, url string) (*models.Feed, error) {
	var f models.Feed
	if err := r.col.FindOne(ctx, bson.M{"url": url}).Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ListActive returns feeds eligible for collection.
func (r *FeedRepository) ListActive(ctx context.Context) ([]models.Feed, error) {
	cur, err := r.col.Find(ctx, bson.M{"is_active": true})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Feed
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns all feeds.
func (r *FeedRepository) List(ctx context.Context) ([]models.Feed, error) {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Feed
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateLastFetched stamps a successful fetch.
func (r *FeedRepository) UpdateLastFetched(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := r.col.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"last_fetched_at": at, "updated_at": at},
	})
	return err
}

// SetActive toggles a feed, reporting how many documents matched.
func (r *FeedRepository) SetActive(ctx context.Context, id primitive.ObjectID, active bool) (int64, error) {
	res, err := r.col.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"is_active": active, "updated_at": time.Now()},
	})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// Delete removes a feed by id.
func (r *FeedRepository) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
