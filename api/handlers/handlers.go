// Package handlers contains the gin route handlers. Each handler is a
// closure over the narrow store and service interfaces it needs, wired
// with the concrete repositories by the router.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"curately/eventbus"
	"curately/events"
	"curately/logger"
	"curately/models"
)

// UserSource resolves accounts by email.
type UserSource interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// Publisher sends interaction events to the bus.
type Publisher interface {
	Publish(ctx context.Context, topic string, event eventbus.Event) error
}

// InterestApplier folds interaction effects into the interest profile
// synchronously, used when no bus is wired.
type InterestApplier interface {
	OnLike(ctx context.Context, userID primitive.ObjectID, keywords []string, sourceFeed string) error
	OnUnlike(ctx context.Context, userID primitive.ObjectID, keywords []string) error
}

// InteractionDispatcher forwards like/unlike activity to the interest
// profile. When a bus is configured the event goes to kafka and the
// worker applies it; otherwise the engine is called in-process. Dispatch
// failures are logged, never surfaced: the interaction row is already
// recorded by the time dispatch happens.
type InteractionDispatcher struct {
	Bus       Publisher
	Interests InterestApplier
	Source    string
}

func (d *InteractionDispatcher) Liked(ctx context.Context, userID primitive.ObjectID, a *models.Article) {
	d.dispatch(ctx, events.InteractionRecorded, userID, a, func() error {
		return d.Interests.OnLike(ctx, userID, a.Keywords, a.SourceFeed)
	})
}

func (d *InteractionDispatcher) Unliked(ctx context.Context, userID primitive.ObjectID, a *models.Article) {
	d.dispatch(ctx, events.InteractionRemoved, userID, a, func() error {
		return d.Interests.OnUnlike(ctx, userID, a.Keywords)
	})
}

func (d *InteractionDispatcher) dispatch(ctx context.Context, typ events.EventType, userID primitive.ObjectID, a *models.Article, direct func() error) {
	if d.Bus != nil {
		id := uuid.NewString()
		evt := events.NewInteractionEvent(id, typ, d.Source, userID, a.ID, models.InteractionLike, a.Keywords, a.SourceFeed)
		busEvt, err := eventbus.NewJSONEvent(id, evt, len(eventbus.RetryDelays))
		if err == nil {
			err = d.Bus.Publish(ctx, eventbus.TopicInteractionEvents.Base(), busEvt)
		}
		if err == nil {
			return
		}
		logger.Log.Warnf("interaction event publish failed, applying inline: %v", err)
	}
	if d.Interests == nil {
		return
	}
	if err := direct(); err != nil {
		logger.Log.Errorf("interest update failed for user %s: %v", userID.Hex(), err)
	}
}

// defaultUserID resolves the single-user installation account and writes
// a 500 response when it is missing.
func defaultUserID(c *gin.Context, users UserSource) (primitive.ObjectID, bool) {
	u, err := users.FindByEmail(c.Request.Context(), models.DefaultUserEmail)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Default user not found"})
		return primitive.NilObjectID, false
	}
	return u.ID, true
}

// objectIDParam parses a path parameter as an ObjectID, writing a 400
// response on malformed input.
func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return primitive.NilObjectID, false
	}
	return id, true
}
