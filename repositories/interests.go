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

type InterestRepository struct {
	col *mongo.Collection
}

func NewInterestRepository(db *mongo.Database) *InterestRepository {
	return &InterestRepository{col: db.Collection("user_interests")}
}

// ListTopByUser returns the user's strongest interests, heaviest first.
func (r *InterestRepository) ListTopByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.UserInterest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "weight", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.UserInterest
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindByUserAndKeywords returns current weights for the given keywords.
func (r *InterestRepository) FindByUserAndKeywords(ctx context.Context, userID primitive.ObjectID, keywords []string) (map[string]models.UserInterest, error) {
	if len(keywords) == 0 {
		return map[string]models.UserInterest{}, nil
	}
	cur, err := r.col.Find(ctx, bson.M{
		"user_id": userID,
		"keyword": bson.M{"$in": keywords},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]models.UserInterest)
	for cur.Next(ctx) {
		var in models.UserInterest
		if err := cur.Decode(&in); err != nil {
			return nil, err
		}
		out[in.Keyword] = in
	}
	return out, cur.Err()
}

// UpsertWeight sets the weight (and provenance) of one (user, keyword) row.
func (r *InterestRepository) UpsertWeight(ctx context.Context, userID primitive.ObjectID, keyword string, weight float64, source string, now time.Time) error {
	filter := bson.M{"user_id": userID, "keyword": keyword}
	set := bson.M{
		"user_id":    userID,
		"keyword":    keyword,
		"weight":     weight,
		"updated_at": now,
	}
	if source != "" {
		set["source"] = source
	}
	_, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": set}, options.Update().SetUpsert(true))
	return err
}

// DeleteByUserAndKeyword removes one interest row.
func (r *InterestRepository) DeleteByUserAndKeyword(ctx context.Context, userID primitive.ObjectID, keyword string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"user_id": userID, "keyword": keyword})
	return err
}

// ListStale returns rows last updated strictly before the cutoff. Rows the
// decay pass just refreshed fall outside the filter, which is what makes
// the pass idempotent within one interval.
func (r *InterestRepository) ListStale(ctx context.Context, userID primitive.ObjectID, cutoff time.Time) ([]models.UserInterest, error) {
	cur, err := r.col.Find(ctx, bson.M{
		"user_id":    userID,
		"updated_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.UserInterest
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateWeightByID sets weight and updated_at on one row.
func (r *InterestRepository) UpdateWeightByID(ctx context.Context, id primitive.ObjectID, weight float64, now time.Time) error {
	_, err := r.col.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"weight": weight, "updated_at": now},
	})
	return err
}

// DeleteByID removes one row.
func (r *InterestRepository) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
