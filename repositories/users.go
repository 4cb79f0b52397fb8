package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"curately/models"
)

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection("users")}
}

// FindByEmail returns a user by email, or mongo.ErrNoDocuments.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// EnsureDefaultUser creates the single-user installation account when it
// does not exist yet and returns it.
func (r *UserRepository) EnsureDefaultUser(ctx context.Context) (*models.User, error) {
	now := time.Now()
	filter := bson.M{"email": models.DefaultUserEmail}
	update := bson.M{
		"$setOnInsert": bson.M{
			"email":      models.DefaultUserEmail,
			"name":       "Default",
			"created_at": now,
			"updated_at": now,
		},
	}
	if _, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return nil, err
	}
	return r.FindByEmail(ctx, models.DefaultUserEmail)
}
