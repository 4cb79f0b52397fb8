package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"curately/models"
	"curately/timeutil"
)

// DigestStore covers digest persistence and lookups.
type DigestStore interface {
	FindByDate(ctx context.Context, date string) (*models.Digest, error)
	List(ctx context.Context, offset, limit int64) ([]models.Digest, error)
	UpsertByDate(ctx context.Context, d *models.Digest) (*mongo.UpdateResult, error)
}

// DigestGenerator synthesizes a digest from one date's articles.
type DigestGenerator interface {
	Generate(ctx context.Context, date string, articles []models.Article) models.Digest
}

// TodayDigestHandler returns the digest for the current KST date.
func TodayDigestHandler(digests DigestStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		digestByDate(c, digests, timeutil.TodayKST(time.Now()))
	}
}

// ListDigestsHandler returns stored digests, newest first.
func ListDigestsHandler(digests DigestStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		offset, _ := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)
		limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "30"), 10, 64)
		out, err := digests.List(c.Request.Context(), offset, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if out == nil {
			out = []models.Digest{}
		}
		c.JSON(http.StatusOK, out)
	}
}

// DigestByDateHandler returns one digest by its YYYY-MM-DD date.
func DigestByDateHandler(digests DigestStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		digestByDate(c, digests, c.Param("date"))
	}
}

func digestByDate(c *gin.Context, digests DigestStore, date string) {
	d, err := digests.FindByDate(c.Request.Context(), date)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No digest for this date"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, d)
}

// GenerateDigestHandler synthesizes and stores the digest for a date
// (path date, or today when absent). Responds 404 when the date has no
// curated articles and 502 when generation produced no content.
func GenerateDigestHandler(articles NewsletterSource, digests DigestStore, gen DigestGenerator) gin.HandlerFunc {
	return func(c *gin.Context) {
		date := c.Param("date")
		if date == "" {
			date = timeutil.TodayKST(time.Now())
		}
		count, err := articles.CountByNewsletterDate(c.Request.Context(), date)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if count == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "No articles for this date"})
			return
		}
		input, err := articles.ListByNewsletterDate(c.Request.Context(), date)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		d := gen.Generate(c.Request.Context(), date, input)
		if d.ContentEmpty() {
			c.JSON(http.StatusBadGateway, gin.H{"error": "digest generation failed"})
			return
		}
		if _, err := digests.UpsertByDate(c.Request.Context(), &d); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, d)
	}
}
