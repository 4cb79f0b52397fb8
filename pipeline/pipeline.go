// Package pipeline runs the daily curation flow: collect new articles,
// score them against the user's interest profile, keep the most relevant
// ones, summarize them, and stamp them into today's newsletter edition.
package pipeline

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"curately/config"
	"curately/logger"
	"curately/models"
	"curately/scorer"
	"curately/timeutil"
)

const interestLimit = 20

type ArticleCollector interface {
	Collect(ctx context.Context) ([]models.Article, error)
}

type UserSource interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type InterestSource interface {
	ListTopByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.UserInterest, error)
}

type DecayApplier interface {
	ApplyTimeDecay(ctx context.Context, userID primitive.ObjectID) (int, error)
}

type ArticleScorer interface {
	Score(ctx context.Context, candidates []models.Article, interests []models.UserInterest) ([]scorer.Result, error)
}

type BasicSummarizer interface {
	GenerateBasic(ctx context.Context, title, content string, images [][]byte) (string, error)
}

type ArticleStore interface {
	CountByNewsletterDate(ctx context.Context, date string) (int64, error)
	UpsertBySourceURL(ctx context.Context, a *models.Article) (*mongo.UpdateResult, error)
}

// Result holds the per-stage counts of one pipeline run.
type Result struct {
	ArticlesCollected  int    `json:"articles_collected"`
	ArticlesScored     int    `json:"articles_scored"`
	ArticlesFiltered   int    `json:"articles_filtered"`
	ArticlesSummarized int    `json:"articles_summarized"`
	NewsletterDate     string `json:"newsletter_date"`
}

// Orchestrator wires the pipeline stages together.
type Orchestrator struct {
	collector  ArticleCollector
	users      UserSource
	interests  InterestSource
	decay      DecayApplier
	scorer     ArticleScorer
	summarizer BasicSummarizer
	articles   ArticleStore
	cfg        config.PipelineConfig
	now        func() time.Time
}

func NewOrchestrator(
	collector ArticleCollector,
	users UserSource,
	interests InterestSource,
	decay DecayApplier,
	articleScorer ArticleScorer,
	summarizer BasicSummarizer,
	articles ArticleStore,
	cfg config.PipelineConfig,
	now func() time.Time,
) *Orchestrator {
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		collector:  collector,
		users:      users,
		interests:  interests,
		decay:      decay,
		scorer:     articleScorer,
		summarizer: summarizer,
		articles:   articles,
		cfg:        cfg,
		now:        now,
	}
}

// Run executes the daily pipeline for the current KST newsletter date.
// A scoring-stage failure aborts the run with whatever was counted so
// far; per-article summary failures only cost that article its summary.
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	today := timeutil.TodayKST(o.now())
	result := Result{NewsletterDate: today}
	logger.Log.Infof("starting daily pipeline for %s", today)

	logger.Log.Info("stage 1/6: collecting articles from RSS feeds")
	candidates, err := o.collector.Collect(ctx)
	if err != nil {
		return result, err
	}
	result.ArticlesCollected = len(candidates)
	if len(candidates) == 0 {
		logger.Log.Info("no new articles collected, pipeline complete")
		return result, nil
	}

	logger.Log.Info("stage 2/6: loading user interests")
	userID, interests, err := o.loadInterests(ctx)
	if err != nil {
		return result, err
	}
	logger.Log.Infof("loaded %d interest keyword(s)", len(interests))

	if userID != nil {
		decayed, err := o.decay.ApplyTimeDecay(ctx, *userID)
		if err != nil {
			return result, err
		}
		if decayed > 0 {
			logger.Log.Infof("decayed %d interest(s), reloading interests", decayed)
			interests, err = o.interests.ListTopByUser(ctx, *userID, interestLimit)
			if err != nil {
				return result, err
			}
		}
	}

	logger.Log.Info("stage 3/6: scoring articles against user interests")
	scores, err := o.scorer.Score(ctx, candidates, interests)
	if err != nil {
		logger.Log.Errorf("scoring stage failed, aborting pipeline: %T", err)
		return result, nil
	}
	for i := range candidates {
		if i < len(scores) {
			candidates[i].RelevanceScore = scores[i].Score
			candidates[i].Categories = scores[i].Categories
			candidates[i].Keywords = scores[i].Keywords
		} else {
			fallback := scorer.FallbackResult()
			candidates[i].RelevanceScore = fallback.Score
			candidates[i].Categories = fallback.Categories
			candidates[i].Keywords = fallback.Keywords
		}
	}
	result.ArticlesScored = len(candidates)

	existing, err := o.articles.CountByNewsletterDate(ctx, today)
	if err != nil {
		return result, err
	}
	remaining := o.cfg.MaxArticlesPerNewsletter - int(existing)
	if remaining < 0 {
		remaining = 0
	}
	logger.Log.Infof("stage 4/6: filtering articles (threshold=%.2f, max=%d, existing=%d, slots=%d)",
		o.cfg.RelevanceThreshold, o.cfg.MaxArticlesPerNewsletter, existing, remaining)
	filtered := SelectTop(candidates, o.cfg.RelevanceThreshold, remaining)
	result.ArticlesFiltered = len(filtered)

	logger.Log.Info("stage 5/6: generating summaries")
	for i := range filtered {
		summary, err := o.summarizer.GenerateBasic(ctx, filtered[i].Title, filtered[i].RawContent, nil)
		if err != nil {
			logger.Log.Warnf("failed to summarize article '%s', storing without summary", filtered[i].Title)
			filtered[i].Summary = nil
			continue
		}
		filtered[i].Summary = &summary
		result.ArticlesSummarized++
	}

	logger.Log.Info("stage 6/6: persisting articles")
	for i := range filtered {
		filtered[i].NewsletterDate = today
		if _, err := o.articles.UpsertBySourceURL(ctx, &filtered[i]); err != nil {
			return result, err
		}
	}
	logger.Log.Infof("daily pipeline complete: collected=%d scored=%d filtered=%d summarized=%d date=%s",
		result.ArticlesCollected, result.ArticlesScored, result.ArticlesFiltered,
		result.ArticlesSummarized, result.NewsletterDate)
	return result, nil
}

func (o *Orchestrator) loadInterests(ctx context.Context) (*primitive.ObjectID, []models.UserInterest, error) {
	user, err := o.users.FindByEmail(ctx, models.DefaultUserEmail)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			logger.Log.Warn("default user not found, scoring with empty interests")
			return nil, nil, nil
		}
		return nil, nil, err
	}

	interests, err := o.interests.ListTopByUser(ctx, user.ID, interestLimit)
	if err != nil {
		return nil, nil, err
	}
	return &user.ID, interests, nil
}
