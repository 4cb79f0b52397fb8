// Package collector pulls new candidate articles out of the active RSS
// feeds and deduplicates them against what is already stored.
package collector

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"curately/feeder"
	"curately/logger"
	"curately/models"
	"curately/parser"
)

// thinContentRunes is the cutoff below which a feed entry's body is
// considered a teaser worth re-extracting from the article page.
const thinContentRunes = 200

type FeedStore interface {
	ListActive(ctx context.Context) ([]models.Feed, error)
	UpdateLastFetched(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

type ArticleIndex interface {
	ExistingSourceURLs(ctx context.Context, urls []string) (map[string]bool, error)
}

// FetchFunc fetches and parses one RSS feed URL.
type FetchFunc func(url string, limit int) ([]feeder.RssFeedItem, error)

// Extractor pulls readable article text from a source page.
type Extractor interface {
	ExtractText(ctx context.Context, url string) (string, error)
}

// Collector fetches the active feeds and returns not-yet-stored candidates.
type Collector struct {
	feeds     FeedStore
	articles  ArticleIndex
	fetch     FetchFunc
	extractor Extractor
	now       func() time.Time
}

func New(feeds FeedStore, articles ArticleIndex, opts ...Option) *Collector {
	c := &Collector{
		feeds:    feeds,
		articles: articles,
		fetch:    feeder.FetchRssFeeds,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Option func(*Collector)

// WithFetcher replaces the RSS fetcher.
func WithFetcher(fetch FetchFunc) Option {
	return func(c *Collector) { c.fetch = fetch }
}

// WithExtractor enables full-text extraction for entries whose feed body
// is only a teaser.
func WithExtractor(e Extractor) Option {
	return func(c *Collector) { c.extractor = e }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// Collect fetches every active feed and returns the entries whose source
// URL is not stored yet. A feed that fails to fetch is logged and skipped;
// one broken feed never aborts the run.
func (c *Collector) Collect(ctx context.Context) ([]models.Article, error) {
	feeds, err := c.feeds.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(feeds) == 0 {
		logger.Log.Info("no active feeds found")
		return nil, nil
	}

	logger.Log.Infof("fetching %d active feed(s)", len(feeds))

	var raw []models.Article
	for _, feed := range feeds {
		items, err := c.fetch(feed.URL, 0)
		if err != nil {
			logger.Log.Warnf("failed to fetch feed '%s' (%s): %v", feed.Name, feed.URL, err)
			continue
		}
		raw = append(raw, c.itemsToArticles(ctx, feed.Name, items)...)
		if err := c.feeds.UpdateLastFetched(ctx, feed.ID, c.now()); err != nil {
			logger.Log.Warnf("failed to stamp feed '%s': %v", feed.Name, err)
		}
	}

	if len(raw) == 0 {
		logger.Log.Info("no articles fetched from any feed")
		return nil, nil
	}

	fresh, err := c.dedupe(ctx, raw)
	if err != nil {
		return nil, err
	}
	logger.Log.Infof("collected %d new article(s) out of %d total", len(fresh), len(raw))
	return fresh, nil
}

func (c *Collector) itemsToArticles(ctx context.Context, feedName string, items []feeder.RssFeedItem) []models.Article {
	var out []models.Article
	for _, item := range items {
		if item.Link == "" || item.Title == "" {
			continue
		}

		content := parser.PlainText(item.Content)
		if c.extractor != nil && len([]rune(content)) < thinContentRunes {
			if text, err := c.extractor.ExtractText(ctx, item.Link); err == nil && len([]rune(text)) > len([]rune(content)) {
				content = text
			}
		}

		a := models.Article{
			SourceFeed: feedName,
			SourceURL:  item.Link,
			Title:      item.Title,
			Author:     item.Author,
			RawContent: content,
		}
		if !item.PublishedAt.IsZero() {
			published := item.PublishedAt
			a.PublishedAt = &published
		}
		out = append(out, a)
	}
	return out
}

func (c *Collector) dedupe(ctx context.Context, articles []models.Article) ([]models.Article, error) {
	urls := make([]string, 0, len(articles))
	for _, a := range articles {
		urls = append(urls, a.SourceURL)
	}
	existing, err := c.articles.ExistingSourceURLs(ctx, urls)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(articles))
	var fresh []models.Article
	for _, a := range articles {
		if existing[a.SourceURL] || seen[a.SourceURL] {
			continue
		}
		seen[a.SourceURL] = true
		fresh = append(fresh, a)
	}
	return fresh, nil
}
