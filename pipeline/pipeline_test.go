package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"curately/config"
	"curately/models"
	"curately/scorer"
)

type fakeCollector struct {
	articles []models.Article
	err      error
}

func (f *fakeCollector) Collect(_ context.Context) ([]models.Article, error) {
	return f.articles, f.err
}

type fakeUsers struct {
	user *models.User
}

func (f *fakeUsers) FindByEmail(_ context.Context, _ string) (*models.User, error) {
	if f.user == nil {
		return nil, mongo.ErrNoDocuments
	}
	return f.user, nil
}

type fakeInterests struct {
	loads     int
	afterLoad []models.UserInterest
	initial   []models.UserInterest
}

func (f *fakeInterests) ListTopByUser(_ context.Context, _ primitive.ObjectID, _ int64) ([]models.UserInterest, error) {
	f.loads++
	if f.loads > 1 && f.afterLoad != nil {
		return f.afterLoad, nil
	}
	return f.initial, nil
}

type fakeDecay struct {
	decayed int
	calls   int
}

func (f *fakeDecay) ApplyTimeDecay(_ context.Context, _ primitive.ObjectID) (int, error) {
	f.calls++
	return f.decayed, nil
}

type fakeScorer struct {
	results   []scorer.Result
	err       error
	interests []models.UserInterest
}

func (f *fakeScorer) Score(_ context.Context, candidates []models.Article, interests []models.UserInterest) ([]scorer.Result, error) {
	f.interests = interests
	if f.err != nil {
		return nil, f.err
	}
	if f.results != nil {
		return f.results, nil
	}
	out := make([]scorer.Result, len(candidates))
	for i := range out {
		out[i] = scorer.Result{Score: 0.5, Categories: []string{}, Keywords: []string{}}
	}
	return out, nil
}

type fakeSummarizer struct {
	failFor map[string]bool
	calls   int
}

func (f *fakeSummarizer) GenerateBasic(_ context.Context, title, _ string, _ [][]byte) (string, error) {
	f.calls++
	if f.failFor[title] {
		return "", errors.New("quota exceeded")
	}
	return "요약: " + title, nil
}

type fakeArticleStore struct {
	existingCount int64
	persisted     []models.Article
}

func (f *fakeArticleStore) CountByNewsletterDate(_ context.Context, _ string) (int64, error) {
	return f.existingCount, nil
}

func (f *fakeArticleStore) UpsertBySourceURL(_ context.Context, a *models.Article) (*mongo.UpdateResult, error) {
	f.persisted = append(f.persisted, *a)
	return &mongo.UpdateResult{UpsertedCount: 1}, nil
}

// 2026-08-30 10:00 KST
var fixedNow = time.Date(2026, 8, 30, 1, 0, 0, 0, time.UTC)

func testConfig() config.PipelineConfig {
	return config.PipelineConfig{
		RelevanceThreshold:       0.3,
		MaxArticlesPerNewsletter: 20,
		ScoringBatchSize:         10,
	}
}

func candidates(n int) []models.Article {
	out := make([]models.Article, n)
	for i := range out {
		out[i] = models.Article{
			Title:      fmt.Sprintf("article %d", i+1),
			SourceURL:  fmt.Sprintf("https://x.example/%d", i+1),
			SourceFeed: "feed",
			RawContent: "body",
		}
	}
	return out
}

func newOrchestrator(c *fakeCollector, u *fakeUsers, in *fakeInterests, d *fakeDecay, sc *fakeScorer, su *fakeSummarizer, st *fakeArticleStore, cfg config.PipelineConfig) *Orchestrator {
	return NewOrchestrator(c, u, in, d, sc, su, st, cfg, func() time.Time { return fixedNow })
}

func TestRunEmptyCollectionShortCircuits(t *testing.T) {
	sc := &fakeScorer{}
	su := &fakeSummarizer{}
	st := &fakeArticleStore{}
	o := newOrchestrator(&fakeCollector{}, &fakeUsers{}, &fakeInterests{}, &fakeDecay{}, sc, su, st, testConfig())

	res, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{NewsletterDate: "2026-08-30"}, res)
	assert.Zero(t, su.calls)
	assert.Empty(t, st.persisted)
}

func TestRunHappyPathPersistsCuratedArticles(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID()}
	sc := &fakeScorer{results: []scorer.Result{
		{Score: 0.9, Categories: []string{"AI/ML"}, Keywords: []string{"llm"}},
		{Score: 0.1, Categories: []string{}, Keywords: []string{}},
		{Score: 0.6, Categories: []string{}, Keywords: []string{"db"}},
	}}
	su := &fakeSummarizer{}
	st := &fakeArticleStore{}
	o := newOrchestrator(&fakeCollector{articles: candidates(3)}, &fakeUsers{user: user},
		&fakeInterests{initial: []models.UserInterest{{Keyword: "llm", Weight: 2}}},
		&fakeDecay{}, sc, su, st, testConfig())

	res, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.ArticlesCollected)
	assert.Equal(t, 3, res.ArticlesScored)
	assert.Equal(t, 2, res.ArticlesFiltered)
	assert.Equal(t, 2, res.ArticlesSummarized)
	assert.Equal(t, "2026-08-30", res.NewsletterDate)

	require.Len(t, st.persisted, 2)
	// sorted by score descending
	assert.Equal(t, "article 1", st.persisted[0].Title)
	assert.Equal(t, "article 3", st.persisted[1].Title)
	for _, a := range st.persisted {
		assert.Equal(t, "2026-08-30", a.NewsletterDate)
		require.NotNil(t, a.Summary)
		assert.Contains(t, *a.Summary, "요약")
	}
}

func TestRunScoringFailureAbortsWithPartialResult(t *testing.T) {
	sc := &fakeScorer{err: errors.New("scoring broke")}
	su := &fakeSummarizer{}
	st := &fakeArticleStore{}
	o := newOrchestrator(&fakeCollector{articles: candidates(2)}, &fakeUsers{},
		&fakeInterests{}, &fakeDecay{}, sc, su, st, testConfig())

	res, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.ArticlesCollected)
	assert.Zero(t, res.ArticlesScored)
	assert.Zero(t, res.ArticlesFiltered)
	assert.Zero(t, su.calls)
	assert.Empty(t, st.persisted)
}

func TestRunSummaryFailureStoresArticleWithoutSummary(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID()}
	su := &fakeSummarizer{failFor: map[string]bool{"article 2": true}}
	st := &fakeArticleStore{}
	o := newOrchestrator(&fakeCollector{articles: candidates(2)}, &fakeUsers{user: user},
		&fakeInterests{}, &fakeDecay{}, &fakeScorer{}, su, st, testConfig())

	res, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.ArticlesFiltered)
	assert.Equal(t, 1, res.ArticlesSummarized)

	require.Len(t, st.persisted, 2)
	assert.NotNil(t, st.persisted[0].Summary)
	assert.Nil(t, st.persisted[1].Summary)
}

func TestRunRespectsRemainingSlots(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID()}
	st := &fakeArticleStore{existingCount: 19}
	o := newOrchestrator(&fakeCollector{articles: candidates(5)}, &fakeUsers{user: user},
		&fakeInterests{}, &fakeDecay{}, &fakeScorer{}, &fakeSummarizer{}, st, testConfig())

	res, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.ArticlesFiltered)
	assert.Len(t, st.persisted, 1)
}

func TestRunDecayTriggersInterestReload(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID()}
	in := &fakeInterests{
		initial:   []models.UserInterest{{Keyword: "old", Weight: 5}},
		afterLoad: []models.UserInterest{{Keyword: "old", Weight: 4.5}},
	}
	d := &fakeDecay{decayed: 1}
	sc := &fakeScorer{}
	o := newOrchestrator(&fakeCollector{articles: candidates(1)}, &fakeUsers{user: user},
		in, d, sc, &fakeSummarizer{}, &fakeArticleStore{}, testConfig())

	_, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, d.calls)
	assert.Equal(t, 2, in.loads)
	require.Len(t, sc.interests, 1)
	assert.InDelta(t, 4.5, sc.interests[0].Weight, 1e-9)
}

func TestRunMissingDefaultUserSkipsDecay(t *testing.T) {
	d := &fakeDecay{decayed: 3}
	sc := &fakeScorer{}
	o := newOrchestrator(&fakeCollector{articles: candidates(1)}, &fakeUsers{},
		&fakeInterests{}, d, sc, &fakeSummarizer{}, &fakeArticleStore{}, testConfig())

	_, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, d.calls)
	assert.Empty(t, sc.interests)
}
