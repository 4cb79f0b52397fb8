package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"curately/models"
)

// FeedStore covers feed registry persistence.
type FeedStore interface {
	List(ctx context.Context) ([]models.Feed, error)
	FindByURL(ctx context.Context, url string) (*models.Feed, error)
	UpsertByURL(ctx context.Context, f *models.Feed) (*mongo.UpdateResult, error)
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// FeedValidator checks that a URL serves a parseable RSS/Atom feed.
type FeedValidator func(url string) error

type createFeedRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

// ListFeedsHandler returns every registered feed.
func ListFeedsHandler(feeds FeedStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := feeds.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if out == nil {
			out = []models.Feed{}
		}
		c.JSON(http.StatusOK, out)
	}
}

// CreateFeedHandler registers a new RSS feed. The URL must be
// well-formed (400), serve a parseable feed (422), and not already be
// registered (409).
func CreateFeedHandler(feeds FeedStore, validate FeedValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createFeedRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
			return
		}
		parsed, err := url.Parse(req.URL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feed url"})
			return
		}
		if _, err := feeds.FindByURL(c.Request.Context(), req.URL); err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "feed already registered"})
			return
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if err := validate(req.URL); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "url is not a reachable rss feed"})
			return
		}
		name := req.Name
		if name == "" {
			name = parsed.Host
		}
		f := models.Feed{Name: name, URL: req.URL, IsActive: true}
		res, err := feeds.UpsertByURL(c.Request.Context(), &f)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if id, ok := res.UpsertedID.(primitive.ObjectID); ok {
			f.ID = id
		}
		c.JSON(http.StatusCreated, f)
	}
}

// SetFeedActiveHandler toggles collection for one feed.
func SetFeedActiveHandler(feeds FeedStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		var req setActiveRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "is_active is required"})
			return
		}
		matched, err := feeds.SetActive(c.Request.Context(), id, *req.IsActive)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if matched == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Feed not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id.Hex(), "is_active": *req.IsActive})
	}
}

// DeleteFeedHandler removes a feed from the registry.
func DeleteFeedHandler(feeds FeedStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		deleted, err := feeds.Delete(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if deleted == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Feed not found"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}
