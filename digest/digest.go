// Package digest synthesizes one day's curated articles into a single
// cross-article briefing. Generation never fails loudly: any LLM or parse
// failure produces an empty-content digest that is still persisted, so a
// bad day can be distinguished from a missing one.
package digest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"curately/llm"
	"curately/logger"
	"curately/models"
)

const promptTemplate = `You are a senior tech editor writing a daily briefing for a Korean tech professional.
You are given today's %d curated articles, ranked by personal relevance score.

## Today's Articles

%s

## Instructions

Write a daily digest that SYNTHESIZES these articles into a cohesive briefing.
DO NOT simply restate each article's summary. Instead:
- Identify 2-5 common themes across articles
- Group related articles into thematic sections
- Draw connections between articles within each theme
- Tell a story about what matters today

Output a JSON object with these fields:

1. "headline": A single compelling sentence capturing today's dominant narrative.
   - Max 100 characters. Write in Korean.

2. "sections": An array of 2-5 thematic sections. Each section:
   - "theme": Category label (e.g., "AI/ML", "DevOps", "Backend")
   - "title": One-line section heading in Korean
   - "body": 3-5 sentence narrative synthesis in Korean (NOT a list of per-article summaries)
   - "article_ids": List of article index numbers (1-based) covered in this section

3. "key_takeaways": An array of 3-5 bullet points in Korean. These are the
   "if you read nothing else" items. Each should be a complete, standalone sentence.

4. "connections": 2-3 sentences in Korean identifying cross-theme patterns
   and relationships between the sections.

IMPORTANT:
- article_ids must use the index numbers [1], [2], etc. from the article list above.
- Every article should appear in at least one section.
- Write entirely in Korean except for technical terms.
- Be insightful, not repetitive.

Respond ONLY with the JSON object.`

// Generator builds the daily digest from already-curated articles.
type Generator struct {
	client  llm.Client
	retrier llm.Retrier
}

func New(client llm.Client, retrier llm.Retrier) *Generator {
	return &Generator{client: client, retrier: retrier}
}

// Generate synthesizes the digest for one newsletter date. The articles
// must already be sorted by relevance, highest first. The returned digest
// always carries the full article ID list for a non-empty day, even when
// generation itself failed and the content is empty.
func (g *Generator) Generate(ctx context.Context, date string, articles []models.Article) models.Digest {
	out := models.Digest{
		DigestDate:   date,
		Sections:     []models.DigestSection{},
		KeyTakeaways: []string{},
		ArticleIDs:   []primitive.ObjectID{},
	}

	if len(articles) == 0 {
		logger.Log.Infof("no articles found for %s, returning empty digest", date)
		return out
	}

	logger.Log.Infof("generating digest for %s with %d article(s)", date, len(articles))

	indexToID := make(map[int]primitive.ObjectID, len(articles))
	for i, a := range articles {
		indexToID[i+1] = a.ID
		out.ArticleIDs = append(out.ArticleIDs, a.ID)
	}
	out.ArticleCount = len(out.ArticleIDs)

	text, err := g.retrier.Call(ctx, g.client, llm.Request{
		Parts:    llm.TextParts(buildPrompt(articles)),
		JSONMode: true,
		Purpose:  "digest",
	})
	if err != nil {
		logger.Log.Errorf("digest generation failed for %s: %T", date, err)
		return out
	}

	content, sections := parseResponse(text)
	out.Headline = content.Headline
	out.KeyTakeaways = content.KeyTakeaways
	out.Connections = content.Connections

	// Remap the model's 1-based indices to stored article IDs, dropping
	// anything out of range.
	for _, s := range sections {
		ids := make([]primitive.ObjectID, 0, len(s.indices))
		for _, idx := range s.indices {
			if id, ok := indexToID[idx]; ok {
				ids = append(ids, id)
			}
		}
		out.Sections = append(out.Sections, models.DigestSection{
			Theme:      s.Theme,
			Title:      s.Title,
			Body:       s.Body,
			ArticleIDs: ids,
		})
	}

	return out
}

func buildPrompt(articles []models.Article) string {
	var lines []string
	for i, a := range articles {
		summary := "(no summary)"
		if a.Summary != nil && *a.Summary != "" {
			summary = *a.Summary
		}
		lines = append(lines, fmt.Sprintf("[%d] (relevance: %.2f) %q\n    Summary: %s\n    Categories: %s\n    Keywords: %s",
			i+1, a.RelevanceScore, a.Title, summary,
			joinOrNA(a.Categories), joinOrNA(a.Keywords)))
	}
	return fmt.Sprintf(promptTemplate, len(articles), strings.Join(lines, "\n\n"))
}

func joinOrNA(vals []string) string {
	if len(vals) == 0 {
		return "N/A"
	}
	return strings.Join(vals, ", ")
}

type parsedContent struct {
	Headline     string
	KeyTakeaways []string
	Connections  string
}

type parsedSection struct {
	Theme   string
	Title   string
	Body    string
	indices []int
}

func parseResponse(text string) (parsedContent, []parsedSection) {
	empty := parsedContent{KeyTakeaways: []string{}}

	var raw struct {
		Headline string `json:"headline"`
		Sections []struct {
			Theme      string        `json:"theme"`
			Title      string        `json:"title"`
			Body       string        `json:"body"`
			ArticleIDs []json.Number `json:"article_ids"`
		} `json:"sections"`
		KeyTakeaways []string `json:"key_takeaways"`
		Connections  string   `json:"connections"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		logger.Log.Warn("failed to parse digest response JSON, using fallback")
		return empty, nil
	}

	content := parsedContent{
		Headline:     raw.Headline,
		KeyTakeaways: raw.KeyTakeaways,
		Connections:  raw.Connections,
	}
	if content.KeyTakeaways == nil {
		content.KeyTakeaways = []string{}
	}

	var sections []parsedSection
	for _, s := range raw.Sections {
		var indices []int
		for _, n := range s.ArticleIDs {
			if v, err := n.Int64(); err == nil {
				indices = append(indices, int(v))
			}
		}
		sections = append(sections, parsedSection{
			Theme:   s.Theme,
			Title:   s.Title,
			Body:    s.Body,
			indices: indices,
		})
	}
	return content, sections
}
