package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"curately/models"
	"curately/timeutil"
)

// NewsletterSource covers the per-date article queries.
type NewsletterSource interface {
	ListNewsletterDates(ctx context.Context, limit int64) ([]string, error)
	CountByNewsletterDate(ctx context.Context, date string) (int64, error)
	ListByNewsletterDate(ctx context.Context, date string) ([]models.Article, error)
}

// ListNewslettersHandler returns past newsletter dates with their article
// counts, newest first.
func ListNewslettersHandler(src NewsletterSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "30"), 10, 64)
		dates, err := src.ListNewsletterDates(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		out := make([]gin.H, 0, len(dates))
		for _, d := range dates {
			n, err := src.CountByNewsletterDate(c.Request.Context(), d)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			out = append(out, gin.H{"date": d, "article_count": n})
		}
		c.JSON(http.StatusOK, out)
	}
}

// TodayNewsletterHandler returns the current KST date's newsletter.
func TodayNewsletterHandler(src NewsletterSource, store InteractionStore, users UserSource) gin.HandlerFunc {
	byDate := newsletterByDate(src, store, users)
	return func(c *gin.Context) {
		byDate(c, timeutil.TodayKST(time.Now()))
	}
}

// NewsletterByDateHandler returns one newsletter edition by its
// YYYY-MM-DD date.
func NewsletterByDateHandler(src NewsletterSource, store InteractionStore, users UserSource) gin.HandlerFunc {
	byDate := newsletterByDate(src, store, users)
	return func(c *gin.Context) {
		byDate(c, c.Param("date"))
	}
}

func newsletterByDate(src NewsletterSource, store InteractionStore, users UserSource) func(*gin.Context, string) {
	return func(c *gin.Context, date string) {
		articles, err := src.ListByNewsletterDate(c.Request.Context(), date)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if len(articles) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "No newsletter for this date"})
			return
		}
		userID, ok := defaultUserID(c, users)
		if !ok {
			return
		}
		ids := make([]primitive.ObjectID, len(articles))
		for i, a := range articles {
			ids[i] = a.ID
		}
		flags, err := store.ListByUserAndArticles(c.Request.Context(), userID, ids)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		detailed := make([]articleDetail, len(articles))
		for i, a := range articles {
			detailed[i] = withFlags(a, flags)
		}
		c.JSON(http.StatusOK, gin.H{
			"date":          date,
			"article_count": len(detailed),
			"articles":      detailed,
		})
	}
}
