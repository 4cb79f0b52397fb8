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

// InterestReader lists a user's interest profile.
type InterestReader interface {
	ListTopByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.UserInterest, error)
}

// ListInterestsHandler returns the default user's interest profile
// sorted by weight descending. A missing user yields an empty list, not
// an error.
func ListInterestsHandler(interests InterestReader, users UserSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := users.FindByEmail(c.Request.Context(), models.DefaultUserEmail)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				c.JSON(http.StatusOK, []models.UserInterest{})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		out, err := interests.ListTopByUser(c.Request.Context(), u.ID, 0)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if out == nil {
			out = []models.UserInterest{}
		}
		c.JSON(http.StatusOK, out)
	}
}
