package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"curately/models"
	"curately/summarizer"
)

// ArticleReader covers the article lookups the detail endpoints need.
type ArticleReader interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Article, error)
	UpdateDetailedSummary(ctx context.Context, id primitive.ObjectID, ds models.DetailedSummary) error
}

// InteractionStore records and removes per-user article interactions.
type InteractionStore interface {
	Upsert(ctx context.Context, userID, articleID primitive.ObjectID, typ string) (bool, error)
	Delete(ctx context.Context, userID, articleID primitive.ObjectID, typ string) (bool, error)
	ListByUserAndArticles(ctx context.Context, userID primitive.ObjectID, articleIDs []primitive.ObjectID) ([]models.Interaction, error)
}

// DetailedSummarizer generates the on-demand long-form analysis.
type DetailedSummarizer interface {
	GenerateDetailed(ctx context.Context, title, content string, images [][]byte) (summarizer.Detailed, error)
}

type articleDetail struct {
	models.Article
	IsLiked      bool `json:"is_liked"`
	IsBookmarked bool `json:"is_bookmarked"`
}

func withFlags(a models.Article, interactions []models.Interaction) articleDetail {
	out := articleDetail{Article: a}
	for _, i := range interactions {
		if i.ArticleID != a.ID {
			continue
		}
		switch i.Type {
		case models.InteractionLike:
			out.IsLiked = true
		case models.InteractionBookmark:
			out.IsBookmarked = true
		}
	}
	return out
}

// GetArticleHandler returns full article detail with interaction flags.
func GetArticleHandler(articles ArticleReader, store InteractionStore, users UserSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		a, err := articles.FindByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		userID, ok := defaultUserID(c, users)
		if !ok {
			return
		}
		flags, err := store.ListByUserAndArticles(c.Request.Context(), userID, []primitive.ObjectID{id})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, withFlags(*a, flags))
	}
}

// SetInteractionHandler records a like or bookmark. Likes additionally
// feed the interest profile via the dispatcher.
func SetInteractionHandler(articles ArticleReader, store InteractionStore, users UserSource, disp *InteractionDispatcher, typ string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		a, err := articles.FindByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		userID, ok := defaultUserID(c, users)
		if !ok {
			return
		}
		created, err := store.Upsert(c.Request.Context(), userID, id, typ)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		// A repeated like is a no-op; only the first one moves weights.
		if created && typ == models.InteractionLike && disp != nil {
			disp.Liked(c.Request.Context(), userID, a)
		}
		c.JSON(http.StatusOK, gin.H{"type": typ, "active": true})
	}
}

// RemoveInteractionHandler removes a like or bookmark. Removing an
// interaction that was never recorded is a no-op.
func RemoveInteractionHandler(articles ArticleReader, store InteractionStore, users UserSource, disp *InteractionDispatcher, typ string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		a, err := articles.FindByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		userID, ok := defaultUserID(c, users)
		if !ok {
			return
		}
		existed, err := store.Delete(c.Request.Context(), userID, id, typ)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if existed && typ == models.InteractionLike && disp != nil {
			disp.Unliked(c.Request.Context(), userID, a)
		}
		c.JSON(http.StatusOK, gin.H{"type": typ, "active": false})
	}
}

// GenerateDetailedSummaryHandler produces and stores the long-form
// analysis for one article.
func GenerateDetailedSummaryHandler(articles ArticleReader, summ DetailedSummarizer, modelName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		a, err := articles.FindByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		detailed, err := summ.GenerateDetailed(c.Request.Context(), a.Title, a.RawContent, nil)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "detailed summary generation failed"})
			return
		}
		ds := models.DetailedSummary{
			Background:  detailed.Background,
			Takeaways:   detailed.Takeaways,
			Keywords:    detailed.Keywords,
			ModelName:   modelName,
			GeneratedAt: time.Now(),
		}
		if err := articles.UpdateDetailedSummary(c.Request.Context(), id, ds); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, ds)
	}
}
