package collector

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// ReadabilityExtractor fetches an article page and runs readability over
// it to recover the full text when a feed only carries a teaser.
type ReadabilityExtractor struct {
	Client *http.Client
}

func NewReadabilityExtractor() *ReadabilityExtractor {
	return &ReadabilityExtractor{
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (e *ReadabilityExtractor) ExtractText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := e.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return "", err
	}
	article, err := readability.FromDocument(doc, resp.Request.URL)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(article.TextContent), nil
}
