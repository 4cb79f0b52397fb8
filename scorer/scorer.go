// Package scorer rates candidate articles against a user's interest
// profile in batched LLM calls. Results always come back one per
// candidate, in input order; everything downstream merges positionally.
package scorer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"curately/llm"
	"curately/logger"
	"curately/models"
)

const maxContentLength = 500

// Result is the scoring outcome for one candidate.
type Result struct {
	Score      float64
	Categories []string
	Keywords   []string
}

// FallbackResult is the deterministic default used when a batch fails or
// a per-index entry is missing or malformed.
func FallbackResult() Result {
	return Result{Score: 0.0, Categories: []string{}, Keywords: []string{}}
}

// Scorer batches candidates into scoring prompts.
type Scorer struct {
	client    llm.Client
	retrier   llm.Retrier
	batchSize int
}

func New(client llm.Client, retrier llm.Retrier, batchSize int) *Scorer {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Scorer{client: client, retrier: retrier, batchSize: batchSize}
}

// Score rates every candidate. The returned slice always has exactly one
// entry per candidate, in candidate order. A batch whose call exhausts all
// retries degrades to fallback records and scoring continues with the
// remaining batches; only context cancellation aborts the whole stage.
func (s *Scorer) Score(ctx context.Context, candidates []models.Article, interests []models.UserInterest) ([]Result, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if s.client == nil {
		return nil, fmt.Errorf("scorer: no llm client configured")
	}

	logger.Log.Infof("scoring %d article(s) in batches of %d", len(candidates), s.batchSize)

	results := make([]Result, 0, len(candidates))
	for start := 0; start < len(candidates); start += s.batchSize {
		end := start + s.batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]

		prompt := buildScoringPrompt(batch, interests)
		text, err := s.retrier.Call(ctx, s.client, llm.Request{
			Parts:    llm.TextParts(prompt),
			JSONMode: true,
			Purpose:  "scoring",
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Log.Errorf("scoring batch starting at index %d failed, using fallback scores", start)
			for range batch {
				results = append(results, FallbackResult())
			}
			continue
		}

		results = append(results, parseScoringResponse(text, len(batch))...)
	}

	logger.Log.Infof("scoring complete: %d article(s) scored", len(results))
	return results, nil
}

func buildScoringPrompt(batch []models.Article, interests []models.UserInterest) string {
	var interestSection string
	if len(interests) > 0 {
		var lines []string
		for _, in := range interests {
			lines = append(lines, fmt.Sprintf("- %s (weight: %.1f)", in.Keyword, in.Weight))
		}
		interestSection = "User Interest Profile (keywords with importance weights):\n" + strings.Join(lines, "\n")
	} else {
		interestSection = "No specific user interests provided. Score based on general tech significance and novelty."
	}

	var entries []string
	for i, a := range batch {
		content := a.RawContent
		if runes := []rune(content); len(runes) > maxContentLength {
			content = string(runes[:maxContentLength]) + "..."
		}
		entries = append(entries, fmt.Sprintf("[Article %d]\nTitle: %s\nContent: %s", i+1, a.Title, content))
	}
	articlesSection := strings.Join(entries, "\n\n")

	return fmt.Sprintf(`You are a tech article relevance scorer. Evaluate how relevant each article is to the user's interest profile.

%s

Articles to score:

%s

For each article, provide:
1. relevance_score: float between 0.0 and 1.0
2. categories: 2-3 broad tech categories (e.g., "AI/ML", "Web Development", "Security")
3. keywords: 3-5 specific technical terms extracted from the article

Scoring guidelines:
- 0.8-1.0: Highly relevant to multiple user interests
- 0.5-0.7: Moderately relevant to at least one interest
- 0.2-0.4: Tangentially related to user interests
- 0.0-0.1: Not relevant to user interests

Respond with JSON in this exact format:
{
  "results": [
    {
      "index": 1,
      "relevance_score": 0.85,
      "categories": ["AI/ML", "LLM"],
      "keywords": ["GPT-5", "multimodal", "reasoning"]
    }
  ]
}

IMPORTANT:
- Return results for ALL %d articles in ascending index order
- Each result must include the article index as numbered above (1-based)
- Categories should be broad tech domains
- Keywords should be specific technical terms from the article content`,
		interestSection, articlesSection, len(batch))
}

type scoringResponse struct {
	Results []scoringEntry `json:"results"`
}

type scoringEntry struct {
	Index      json.Number `json:"index"`
	Score      json.Number `json:"relevance_score"`
	Categories []string    `json:"categories"`
	Keywords   []string    `json:"keywords"`
}

// parseScoringResponse reconciles a model response with the prompt's
// 1-based enumeration, producing exactly batchSize results in positional
// order. Anything missing, malformed, or out of range degrades to the
// fallback record rather than rejecting the batch.
func parseScoringResponse(text string, batchSize int) []Result {
	results := make([]Result, batchSize)
	for i := range results {
		results[i] = FallbackResult()
	}

	var resp scoringResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		logger.Log.Warn("failed to parse scoring response as JSON, using fallback")
		return results
	}
	if resp.Results == nil {
		logger.Log.Warn("scoring response missing 'results' array, using fallback")
		return results
	}

	for _, entry := range resp.Results {
		idx, err := entry.Index.Int64()
		if err != nil || idx < 1 || idx > int64(batchSize) {
			continue
		}

		score, err := entry.Score.Float64()
		if err != nil || score < 0.0 || score > 1.0 {
			score = 0.0
		}

		categories := entry.Categories
		if categories == nil {
			categories = []string{}
		}
		keywords := entry.Keywords
		if keywords == nil {
			keywords = []string{}
		}

		results[idx-1] = Result{Score: score, Categories: categories, Keywords: keywords}
	}

	return results
}
