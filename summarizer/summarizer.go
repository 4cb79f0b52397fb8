// Package summarizer produces Korean-language article summaries: a short
// newsletter blurb per curated article and an on-demand detailed analysis
// for bookmarked ones. Both support multimodal prompts when image bytes
// are available.
package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"curately/llm"
	"curately/logger"
)

const maxContentLength = 15000

const basicPrompt = `You are a tech newsletter editor writing for Korean tech professionals.
Given the article title and content below (and any attached images like charts or tables), write a concise summary in Korean (2-3 sentences).
Focus on the key takeaways, data from images if relevant, and why this matters to tech professionals.

Title: %s

Content:
%s

Write the summary in Korean. Output ONLY the summary text, nothing else.`

const detailedPrompt = `You are a tech newsletter editor writing for Korean tech professionals.
Given the article title and content below (and any attached images like charts or tables), produce a detailed analysis in Korean.
Ensure you analyze the attached images to include key performance metrics or architectural details in your analysis.

Title: %s

Content:
%s

Respond with a JSON object containing exactly these fields:
- "background": 2-3 sentences explaining the context/background of this article in Korean.
- "takeaways": a list of 3-5 key points in Korean.
- "keywords": a list of 3-5 related technical keywords (can be English or Korean).

Output ONLY the JSON object, nothing else.`

// Detailed is the structured long-form analysis.
type Detailed struct {
	Background string   `json:"background"`
	Takeaways  []string `json:"takeaways"`
	Keywords   []string `json:"keywords"`
}

// Summarizer wraps an LLM client with the two summary shapes.
type Summarizer struct {
	client  llm.Client
	retrier llm.Retrier
}

func New(client llm.Client, retrier llm.Retrier) *Summarizer {
	return &Summarizer{client: client, retrier: retrier}
}

func truncateContent(content string) string {
	if content == "" {
		return "(no content)"
	}
	runes := []rune(content)
	if len(runes) <= maxContentLength {
		return content
	}
	return string(runes[:maxContentLength]) + "..."
}

func buildParts(prompt string, images [][]byte) []llm.Part {
	parts := llm.TextParts(prompt)
	for _, img := range images {
		parts = append(parts, llm.ImagePart(img, "image/jpeg"))
	}
	return parts
}

// GenerateBasic returns a 2-3 sentence Korean summary. Errors surface to
// the caller; the pipeline persists the article with a nil summary when
// this fails.
func (s *Summarizer) GenerateBasic(ctx context.Context, title, content string, images [][]byte) (string, error) {
	prompt := fmt.Sprintf(basicPrompt, title, truncateContent(content))
	text, err := s.retrier.Call(ctx, s.client, llm.Request{
		Parts:   buildParts(prompt, images),
		Purpose: "summary",
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// GenerateDetailed returns the structured analysis. A response that does
// not parse as JSON degrades to the raw text as background with empty
// lists; only the LLM call itself can fail.
func (s *Summarizer) GenerateDetailed(ctx context.Context, title, content string, images [][]byte) (Detailed, error) {
	prompt := fmt.Sprintf(detailedPrompt, title, truncateContent(content))
	text, err := s.retrier.Call(ctx, s.client, llm.Request{
		Parts:    buildParts(prompt, images),
		JSONMode: true,
		Purpose:  "detailed_summary",
	})
	if err != nil {
		return Detailed{}, err
	}
	return parseDetailed(text), nil
}

func parseDetailed(text string) Detailed {
	var raw struct {
		Background any   `json:"background"`
		Takeaways  []any `json:"takeaways"`
		Keywords   []any `json:"keywords"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		logger.Log.Warn("failed to parse detailed summary JSON, using fallback")
		return Detailed{Background: strings.TrimSpace(text), Takeaways: []string{}, Keywords: []string{}}
	}

	background, ok := raw.Background.(string)
	if !ok {
		if raw.Background != nil {
			background = fmt.Sprint(raw.Background)
		} else {
			background = ""
		}
	}

	return Detailed{
		Background: background,
		Takeaways:  toStrings(raw.Takeaways),
		Keywords:   toStrings(raw.Keywords),
	}
}

func toStrings(vals []any) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok {
			out = append(out, s)
			continue
		}
		out = append(out, fmt.Sprint(v))
	}
	return out
}
