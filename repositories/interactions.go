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

type InteractionRepository struct {
	col *mongo.Collection
}

func NewInteractionRepository(db *mongo.Database) *InteractionRepository {
	return &InteractionRepository{col: db.Collection("interactions")}
}

// Upsert records an interaction; repeating the same action is a no-op
// thanks to the unique (user_id, article_id, type) key.
func (r *InteractionRepository) Upsert(ctx context.Context, userID, articleID primitive.ObjectID, typ string) (bool, error) {
	filter := bson.M{"user_id": userID, "article_id": articleID, "type": typ}
	update := bson.M{
		"$setOnInsert": bson.M{
			"user_id":    userID,
			"article_id": articleID,
			"type":       typ,
			"created_at": time.Now(),
		},
	}
	res, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

// Delete removes an interaction, reporting whether one existed.
func (r *InteractionRepository) Delete(ctx context.Context, userID, articleID primitive.ObjectID, typ string) (bool, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{"user_id": userID, "article_id": articleID, "type": typ})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// ListByUserAndArticles returns the user's interactions on the given articles.
func (r *InteractionRepository) ListByUserAndArticles(ctx context.Context, userID primitive.ObjectID, articleIDs []primitive.ObjectID) ([]models.Interaction, error) {
	if len(articleIDs) == 0 {
		return nil, nil
	}
	cur, err := r.col.Find(ctx, bson.M{
		"user_id":    userID,
		"article_id": bson.M{"$in": articleIDs},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Interaction
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LikedArticleIDsSince returns ids of articles the user liked at or after
// the cutoff instant.
func (r *InteractionRepository) LikedArticleIDsSince(ctx context.Context, userID primitive.ObjectID, cutoff time.Time) ([]primitive.ObjectID, error) {
	cur, err := r.col.Find(ctx, bson.M{
		"user_id":    userID,
		"type":       models.InteractionLike,
		"created_at": bson.M{"$gte": cutoff},
	}, options.Find().SetProjection(bson.M{"article_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ArticleID primitive.ObjectID `bson:"article_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ArticleID)
	}
	return ids, cur.Err()
}
