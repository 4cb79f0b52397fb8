// Package rewind builds the weekly reading-trend report: the articles a
// user liked over the past seven days, compared against the previous
// week's report to surface rising and declining topics.
package rewind

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"curately/llm"
	"curately/logger"
	"curately/models"
	"curately/timeutil"
)

const lookbackDays = 7

const promptTemplate = `You are an AI tech newsletter analyst. Analyze the user's reading activity from the past week and produce a weekly "rewind" report.

## This Week's Liked Articles (%d articles)

%s

%s

## Instructions

Based on the liked articles above, produce a JSON report with these fields:

1. "hot_topics": A list of 3-5 dominant themes/topics from this week's likes. Each should be a concise label (e.g., "LLM Agents", "Kubernetes Security").

2. "trend_changes": An object with two lists:
   - "rising": Topics with increased engagement compared to previous weeks (or new topics if no previous report).
   - "declining": Topics that appeared in previous reports but are absent this week. If there is no previous report, return an empty list.

3. "suggestions": A list of 2-4 recommended keywords or RSS feed topics the user might want to track based on their reading patterns.

Respond ONLY with the JSON object.`

type InteractionSource interface {
	LikedArticleIDsSince(ctx context.Context, userID primitive.ObjectID, cutoff time.Time) ([]primitive.ObjectID, error)
}

type ArticleSource interface {
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Article, error)
}

type ReportStore interface {
	UpsertByUserAndPeriodEnd(ctx context.Context, rep *models.RewindReport) (*mongo.UpdateResult, error)
	FindLatestByUser(ctx context.Context, userID primitive.ObjectID) (*models.RewindReport, error)
}

// Service generates and persists weekly rewind reports.
type Service struct {
	client       llm.Client
	retrier      llm.Retrier
	interactions InteractionSource
	articles     ArticleSource
	reports      ReportStore
	now          func() time.Time
}

func NewService(client llm.Client, retrier llm.Retrier, interactions InteractionSource, articles ArticleSource, reports ReportStore, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		client:       client,
		retrier:      retrier,
		interactions: interactions,
		articles:     articles,
		reports:      reports,
		now:          now,
	}
}

// Generate builds this week's report for the user and upserts it by
// (user, period_end), so re-running a week replaces the earlier attempt.
// A week with zero likes, a failed LLM call, or an unparseable response
// all persist an empty report rather than failing the run.
func (s *Service) Generate(ctx context.Context, userID primitive.ObjectID) (*models.RewindReport, error) {
	nowKST := s.now().In(timeutil.KST())
	periodEnd := nowKST.Format("2006-01-02")
	periodStart := nowKST.AddDate(0, 0, -lookbackDays).Format("2006-01-02")
	cutoff := timeutil.KSTMidnightUTC(periodStart)

	report := &models.RewindReport{
		UserID:      userID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		HotTopics:   []string{},
		TrendChanges: models.TrendChanges{
			Rising:    []string{},
			Declining: []string{},
		},
		Suggestions: []string{},
	}

	likedIDs, err := s.interactions.LikedArticleIDsSince(ctx, userID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("fetch liked articles: %w", err)
	}
	if len(likedIDs) == 0 {
		logger.Log.Infof("no liked articles for user %s, persisting empty report", userID.Hex())
		return s.persist(ctx, report)
	}

	articles, err := s.articles.ListByIDs(ctx, likedIDs)
	if err != nil {
		return nil, fmt.Errorf("load liked articles: %w", err)
	}

	logger.Log.Infof("generating rewind report for user %s with %d liked article(s)",
		userID.Hex(), len(articles))

	previous, err := s.reports.FindLatestByUser(ctx, userID)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("load previous report: %w", err)
	}

	text, err := s.retrier.Call(ctx, s.client, llm.Request{
		Parts:    llm.TextParts(buildPrompt(articles, previous)),
		JSONMode: true,
		Purpose:  "rewind",
	})
	if err != nil {
		logger.Log.Errorf("rewind analysis failed for user %s: %T", userID.Hex(), err)
		return s.persist(ctx, report)
	}

	parsed := parseResponse(text)
	report.HotTopics = parsed.HotTopics
	report.TrendChanges = parsed.TrendChanges
	report.Suggestions = parsed.Suggestions
	report.RawContent = text
	return s.persist(ctx, report)
}

func (s *Service) persist(ctx context.Context, rep *models.RewindReport) (*models.RewindReport, error) {
	if _, err := s.reports.UpsertByUserAndPeriodEnd(ctx, rep); err != nil {
		return nil, fmt.Errorf("persist rewind report: %w", err)
	}
	logger.Log.Infof("persisted rewind report for user %s (period %s to %s)",
		rep.UserID.Hex(), rep.PeriodStart, rep.PeriodEnd)
	return rep, nil
}

func buildPrompt(articles []models.Article, previous *models.RewindReport) string {
	var lines []string
	for i, a := range articles {
		lines = append(lines, fmt.Sprintf("[%d] %s\n    Categories: %s\n    Keywords: %s",
			i+1, a.Title, joinOrNA(a.Categories), joinOrNA(a.Keywords)))
	}
	articlesSection := strings.Join(lines, "\n\n")

	var previousSection string
	if previous != nil {
		hot := "None"
		if len(previous.HotTopics) > 0 {
			hot = strings.Join(previous.HotTopics, ", ")
		}
		previousSection = fmt.Sprintf("## Previous Report (%s to %s)\n\nHot Topics: %s\nRising: %s\nDeclining: %s",
			previous.PeriodStart, previous.PeriodEnd, hot,
			strings.Join(previous.TrendChanges.Rising, ", "),
			strings.Join(previous.TrendChanges.Declining, ", "))
	} else {
		previousSection = "## Previous Report\n\nNo previous report available. This is the first rewind analysis."
	}

	return fmt.Sprintf(promptTemplate, len(articles), articlesSection, previousSection)
}

func joinOrNA(vals []string) string {
	if len(vals) == 0 {
		return "N/A"
	}
	return strings.Join(vals, ", ")
}

type parsedReport struct {
	HotTopics    []string
	TrendChanges models.TrendChanges
	Suggestions  []string
}

func emptyParsed() parsedReport {
	return parsedReport{
		HotTopics:    []string{},
		TrendChanges: models.TrendChanges{Rising: []string{}, Declining: []string{}},
		Suggestions:  []string{},
	}
}

// parseResponse coerces the model's JSON into the report shape. Fields of
// the wrong type degrade to empty values individually instead of discarding
// the whole response.
func parseResponse(text string) parsedReport {
	out := emptyParsed()

	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		logger.Log.Warn("failed to parse rewind response JSON, using fallback")
		return out
	}

	out.HotTopics = toStrings(raw["hot_topics"])
	out.Suggestions = toStrings(raw["suggestions"])

	if tc, ok := raw["trend_changes"].(map[string]any); ok {
		out.TrendChanges.Rising = toStrings(tc["rising"])
		out.TrendChanges.Declining = toStrings(tc["declining"])
	}
	return out
}

func toStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
			continue
		}
		out = append(out, fmt.Sprint(it))
	}
	return out
}
