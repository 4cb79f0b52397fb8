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

type RewindRepository struct {
	col *mongo.Collection
}

func NewRewindRepository(db *mongo.Database) *RewindRepository {
	return &RewindRepository{col: db.Collection("rewind_reports")}
}

// UpsertByUserAndPeriodEnd upserts one report row per (user, period_end),
// so re-triggering a week's rewind replaces the earlier attempt.
func (r *RewindRepository) UpsertByUserAndPeriodEnd(ctx context.Context, rep *models.RewindReport) (*mongo.UpdateResult, error) {
	now := time.Now()
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = now
	}
	rep.UpdatedAt = now

	filter := bson.M{"user_id": rep.UserID, "period_end": rep.PeriodEnd}
	update := bson.M{
		"$setOnInsert": bson.M{
			"created_at": rep.CreatedAt,
		},
		"$set": bson.M{
			"updated_at":    rep.UpdatedAt,
			"user_id":       rep.UserID,
			"period_start":  rep.PeriodStart,
			"period_end":    rep.PeriodEnd,
			"hot_topics":    rep.HotTopics,
			"trend_changes": rep.TrendChanges,
			"suggestions":   rep.Suggestions,
			"raw_content":   rep.RawContent,
		},
	}
	return r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
}

// FindByID returns a single report.
func (r *RewindRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.RewindReport, error) {
	var rep models.RewindReport
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// FindLatestByUser returns the most recent report, or mongo.ErrNoDocuments.
func (r *RewindRepository) FindLatestByUser(ctx context.Context, userID primitive.ObjectID) (*models.RewindReport, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "period_end", Value: -1}})
	var rep models.RewindReport
	if err := r.col.FindOne(ctx, bson.M{"user_id": userID}, opts).Decode(&rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// ListByUser returns all reports for the user, newest period first.
func (r *RewindRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.RewindReport, error) {
	opts := options.Find().SetSort(bson.D{{Key: "period_end", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.RewindReport
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
