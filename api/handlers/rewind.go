package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"curately/models"
)

// RewindStore covers stored weekly report lookups.
type RewindStore interface {
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.RewindReport, error)
	FindLatestByUser(ctx context.Context, userID primitive.ObjectID) (*models.RewindReport, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.RewindReport, error)
}

// RewindGenerator produces a fresh weekly report for a user.
type RewindGenerator interface {
	Generate(ctx context.Context, userID primitive.ObjectID) (*models.RewindReport, error)
}

// ListRewindsHandler returns the default user's reports, newest first.
func ListRewindsHandler(rewinds RewindStore, users UserSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := defaultUserID(c, users)
		if !ok {
			return
		}
		out, err := rewinds.ListByUser(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if out == nil {
			out = []models.RewindReport{}
		}
		c.JSON(http.StatusOK, out)
	}
}

// LatestRewindHandler returns the most recent report.
func LatestRewindHandler(rewinds RewindStore, users UserSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := defaultUserID(c, users)
		if !ok {
			return
		}
		rep, err := rewinds.FindLatestByUser(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				c.JSON(http.StatusNotFound, gin.H{"error": "No rewind report yet"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rep)
	}
}

// GetRewindHandler returns one report by id.
func GetRewindHandler(rewinds RewindStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		rep, err := rewinds.FindByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Rewind report not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rep)
	}
}

// GenerateRewindHandler runs rewind generation for the default user.
func GenerateRewindHandler(gen RewindGenerator, users UserSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := defaultUserID(c, users)
		if !ok {
			return
		}
		rep, err := gen.Generate(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, rep)
	}
}
