package llm

import (
	"context"
	"fmt"
	"os"
	"time"

	"google.golang.org/genai"

	"curately/models"
)

// Part is one prompt fragment. Either Text is set, or ImageData with its
// MIME type for multimodal requests.
type Part struct {
	Text      string
	ImageData []byte
	MIMEType  string
}

// TextParts wraps a plain prompt string.
func TextParts(prompt string) []Part {
	return []Part{{Text: prompt}}
}

// ImagePart wraps raw image bytes. Empty mimeType defaults to JPEG.
func ImagePart(data []byte, mimeType string) Part {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return Part{ImageData: data, MIMEType: mimeType}
}

// Request describes one generation call.
type Request struct {
	Parts []Part

	// JSONMode asks for a raw JSON object response.
	JSONMode bool

	// Purpose tags the call in the ai_logs audit trail
	// (scoring, summary, digest, rewind).
	Purpose string
}

// Client is the one capability this system needs from an LLM:
// send a prompt, receive text. Calls fail transiently.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// UsageSink receives an audit row after every completed or failed call.
type UsageSink func(ctx context.Context, log models.AILog)

// GeminiClient implements Client on top of google.golang.org/genai.
type GeminiClient struct {
	client *genai.Client
	model  string
	sink   UsageSink
}

// NewGeminiClient builds a client for the given model. The API key comes
// from GEMINI_API_KEY.
func NewGeminiClient(ctx context.Context, model string) (*GeminiClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{client: client, model: model}, nil
}

// SetUsageSink attaches an audit sink. Nil disables audit logging.
func (c *GeminiClient) SetUsageSink(sink UsageSink) { c.sink = sink }

// Model returns the configured model name.
func (c *GeminiClient) Model() string { return c.model }

// Generate runs one generation call. No retries at this level; see
// CallWithRetry.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	startTime := time.Now()

	parts := make([]*genai.Part, 0, len(req.Parts))
	for _, p := range req.Parts {
		if p.ImageData != nil {
			parts = append(parts, genai.NewPartFromBytes(p.ImageData, p.MIMEType))
			continue
		}
		parts = append(parts, genai.NewPartFromText(p.Text))
	}
	contents := []*genai.Content{{Parts: parts, Role: genai.RoleUser}}

	cfg := &genai.GenerateContentConfig{}
	if req.JSONMode {
		cfg.ResponseMIMEType = "application/json"
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		c.record(ctx, req, "", startTime, nil, err)
		return "", err
	}

	text := result.Text()
	c.record(ctx, req, text, startTime, result.UsageMetadata, nil)
	return text, nil
}

func (c *GeminiClient) record(ctx context.Context, req Request, response string, startTime time.Time, usage *genai.GenerateContentResponseUsageMetadata, callErr error) {
	if c.sink == nil {
		return
	}

	doc := models.AILog{
		Purpose:        req.Purpose,
		ModelName:      c.model,
		DurationMs:     time.Since(startTime).Milliseconds(),
		OutputResponse: truncate(response, 500),
		RequestedAt:    startTime,
		CompletedAt:    time.Now(),
	}
	if usage != nil {
		doc.InputTokens = int64(usage.PromptTokenCount)
		doc.OutputTokens = int64(usage.CandidatesTokenCount)
		doc.TotalTokens = int64(usage.TotalTokenCount)
	}
	if callErr != nil {
		msg := fmt.Sprintf("%T", callErr)
		doc.ErrorMessage = &msg
	}
	c.sink(ctx, doc)
}

// truncate returns s truncated to max runes.
func truncate(s string, max int) string {
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	return string(rs[:max])
}
