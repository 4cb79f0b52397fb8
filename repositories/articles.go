package repositories

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"curately/models"
)

type ArticleRepository struct {
	col *mongo.Collection
}

func NewArticleRepository(db *mongo.Database) *ArticleRepository {
	return &ArticleRepository{col: db.Collection("articles")}
}

// UpsertBySourceURL upserts an article uniquely identified by source_url.
// Re-running the pipeline for the same day re-upserts the same rows instead
// of duplicating them.
func (r *ArticleRepository) UpsertBySourceURL(ctx context.Context, a *models.Article) (*mongo.UpdateResult, error) {
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	filter := bson.M{"source_url": a.SourceURL}
	update := bson.M{
		"$setOnInsert": bson.M{
			"created_at": a.CreatedAt,
		},
		"$set": bson.M{
			"updated_at":      a.UpdatedAt,
			"source_feed":     a.SourceFeed,
			"source_url":      a.SourceURL,
			"title":           a.Title,
			"author":          a.Author,
			"published_at":    a.PublishedAt,
			"raw_content":     a.RawContent,
			"relevance_score": a.RelevanceScore,
			"categories":      a.Categories,
			"keywords":        a.Keywords,
			"summary":         a.Summary,
			"newsletter_date": a.NewsletterDate,
		},
	}
	opts := options.Update().SetUpsert(true)
	return r.col.UpdateOne(ctx, filter, update, opts)
}

// FindByID returns a single article.
func (r *ArticleRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Article, error) {
	var a models.Article
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ExistingSourceURLs returns which of the given URLs are already stored.
func (r *ArticleRepository) ExistingSourceURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	if len(urls) == 0 {
		return map[string]bool{}, nil
	}
	cur, err := r.col.Find(ctx, bson.M{"source_url": bson.M{"$in": urls}},
		options.Find().SetProjection(bson.M{"source_url": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	existing := make(map[string]bool)
	for cur.Next(ctx) {
		var row struct {
			SourceURL string `bson:"source_url"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		existing[row.SourceURL] = true
	}
	return existing, cur.Err()
}

// CountByNewsletterDate counts articles already curated into the given date.
func (r *ArticleRepository) CountByNewsletterDate(ctx context.Context, date string) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"newsletter_date": date})
}

// ListByNewsletterDate returns the date's curated articles, best first.
func (r *ArticleRepository) ListByNewsletterDate(ctx context.Context, date string) ([]models.Article, error) {
	cur, err := r.col.Find(ctx, bson.M{"newsletter_date": date},
		options.Find().SetSort(bson.D{{Key: "relevance_score", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Article
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByIDs returns articles for the given ids, in store order.
func (r *ArticleRepository) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Article
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListNewsletterDates returns distinct newsletter dates, newest first.
func (r *ArticleRepository) ListNewsletterDates(ctx context.Context, limit int64) ([]string, error) {
	raw, err := r.col.Distinct(ctx, "newsletter_date", bson.M{"newsletter_date": bson.M{"$ne": ""}})
	if err != nil {
		return nil, err
	}
	dates := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			dates = append(dates, s)
		}
	}
	// Distinct gives no ordering guarantee; YYYY-MM-DD sorts lexically.
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	if limit > 0 && int64(len(dates)) > limit {
		dates = dates[:limit]
	}
	return dates, nil
}

// UpdateDetailedSummary stores the on-demand long-form analysis.
func (r *ArticleRepository) UpdateDetailedSummary(ctx context.Context, id primitive.ObjectID, ds models.DetailedSummary) error {
	_, err := r.col.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"detailed_summary": ds, "updated_at": time.Now()},
	})
	return err
}
