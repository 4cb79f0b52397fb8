package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrendChanges splits weekly topic movement into rising and declining lists.
type TrendChanges struct {
	Rising    []string `bson:"rising" json:"rising"`
	Declining []string `bson:"declining" json:"declining"`
}

// RewindReport is the weekly comparative trend report for one user.
// Collection: rewind_reports, unique key: (user_id, period_end)
type RewindReport struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
	UserID       primitive.ObjectID `bson:"user_id" json:"user_id"`
	PeriodStart  string             `bson:"period_start" json:"period_start"`
	PeriodEnd    string             `bson:"period_end" json:"period_end"`
	HotTopics    []string           `bson:"hot_topics" json:"hot_topics"`
	TrendChanges TrendChanges       `bson:"trend_changes" json:"trend_changes"`
	Suggestions  []string           `bson:"suggestions" json:"suggestions"`
	RawContent   string             `bson:"raw_content,omitempty" json:"raw_content,omitempty"`
}
