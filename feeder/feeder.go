package feeder

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

type RssFeedItem struct {
	Title       string
	Link        string
	Author      string
	PublishedAt time.Time
	Content     string
}

// FetchRssFeeds fetches RSS feeds from the given URL.
// If limit is greater than 0, it returns only the first limit items.
func FetchRssFeeds(rssUrl string, limit int) ([]RssFeedItem, error) {
	httpClient := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // some tech blogs serve broken cert chains
		},
	}

	fp := gofeed.NewParser()
	fp.Client = httpClient

	feed, err := fp.ParseURL(rssUrl)
	if err != nil {
		return nil, err
	}

	var items []RssFeedItem
	for _, item := range feed.Items {
		var published time.Time
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}

		var author string
		if item.Author != nil {
			author = item.Author.Name
		}

		content := item.Content
		if content == "" {
			content = item.Description
		}

		items = append(items, RssFeedItem{
			Title:       item.Title,
			Link:        item.Link,
			Author:      author,
			PublishedAt: published,
			Content:     content,
		})
	}

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	return items, nil
}
