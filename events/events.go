// Package events defines the payloads published on the interaction bus.
// The API publishes one event per user action; the worker consumes them
// serially and folds them into the interest profile.
package events

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventType string

const (
	InteractionRecorded EventType = "interaction.recorded"
	InteractionRemoved  EventType = "interaction.removed"
)

// BaseEvent carries the metadata shared by every event.
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"` // "api", "scheduler"
	Version   string    `json:"version"`
}

// InteractionEvent is published when a user likes, unlikes, bookmarks, or
// unbookmarks an article. Keywords and SourceFeed are denormalized from
// the article so the consumer can update interests without a lookup.
type InteractionEvent struct {
	BaseEvent
	UserID      primitive.ObjectID `json:"user_id"`
	ArticleID   primitive.ObjectID `json:"article_id"`
	Interaction string             `json:"interaction"` // models.InteractionLike or models.InteractionBookmark
	Keywords    []string           `json:"keywords,omitempty"`
	SourceFeed  string             `json:"source_feed,omitempty"`
}

// NewInteractionEvent builds an event with metadata filled in.
func NewInteractionEvent(id string, typ EventType, source string, userID, articleID primitive.ObjectID, interaction string, keywords []string, sourceFeed string) InteractionEvent {
	return InteractionEvent{
		BaseEvent: BaseEvent{
			ID:        id,
			Type:      typ,
			Timestamp: time.Now(),
			Source:    source,
			Version:   "1",
		},
		UserID:      userID,
		ArticleID:   articleID,
		Interaction: interaction,
		Keywords:    keywords,
		SourceFeed:  sourceFeed,
	}
}
