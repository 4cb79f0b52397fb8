package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Article represents a collected (and possibly curated) article document.
// Collection: articles, unique key: source_url
type Article struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
	SourceFeed  string             `bson:"source_feed" json:"source_feed"`
	SourceURL   string             `bson:"source_url" json:"source_url"`
	Title       string             `bson:"title" json:"title"`
	Author      string             `bson:"author,omitempty" json:"author,omitempty"`
	PublishedAt *time.Time         `bson:"published_at,omitempty" json:"published_at,omitempty"`
	RawContent  string             `bson:"raw_content,omitempty" json:"raw_content,omitempty"`

	// Scoring output
	RelevanceScore float64  `bson:"relevance_score" json:"relevance_score"`
	Categories     []string `bson:"categories" json:"categories"`
	Keywords       []string `bson:"keywords" json:"keywords"`

	// Summarization output. Summary stays nil when the summarizer failed
	// for this article; the row is persisted regardless.
	Summary         *string          `bson:"summary" json:"summary"`
	DetailedSummary *DetailedSummary `bson:"detailed_summary,omitempty" json:"detailed_summary,omitempty"`

	// NewsletterDate is the YYYY-MM-DD edition this article was curated
	// into. Empty for candidates that never made a newsletter.
	NewsletterDate string `bson:"newsletter_date,omitempty" json:"newsletter_date,omitempty"`
}

// DetailedSummary is the structured long-form analysis generated on demand
// for bookmarked articles.
type DetailedSummary struct {
	Background  string    `bson:"background" json:"background"`
	Takeaways   []string  `bson:"takeaways" json:"takeaways"`
	Keywords    []string  `bson:"keywords" json:"keywords"`
	ModelName   string    `bson:"model_name" json:"model_name"`
	GeneratedAt time.Time `bson:"generated_at" json:"generated_at"`
}
