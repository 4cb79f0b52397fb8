package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"curately/models"
	"curately/summarizer"
)

type fakeUsers struct {
	user *models.User
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if f.user == nil || f.user.Email != email {
		return nil, mongo.ErrNoDocuments
	}
	return f.user, nil
}

type fakeArticles struct {
	byID    map[primitive.ObjectID]*models.Article
	byDate  map[string][]models.Article
	dates   []string
	updated map[primitive.ObjectID]models.DetailedSummary
}

func newFakeArticles(articles ...*models.Article) *fakeArticles {
	f := &fakeArticles{
		byID:    map[primitive.ObjectID]*models.Article{},
		byDate:  map[string][]models.Article{},
		updated: map[primitive.ObjectID]models.DetailedSummary{},
	}
	for _, a := range articles {
		f.byID[a.ID] = a
		if a.NewsletterDate != "" {
			f.byDate[a.NewsletterDate] = append(f.byDate[a.NewsletterDate], *a)
		}
	}
	return f
}

func (f *fakeArticles) FindByID(_ context.Context, id primitive.ObjectID) (*models.Article, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return a, nil
}

func (f *fakeArticles) UpdateDetailedSummary(_ context.Context, id primitive.ObjectID, ds models.DetailedSummary) error {
	f.updated[id] = ds
	return nil
}

func (f *fakeArticles) ListNewsletterDates(_ context.Context, _ int64) ([]string, error) {
	return f.dates, nil
}

func (f *fakeArticles) CountByNewsletterDate(_ context.Context, date string) (int64, error) {
	return int64(len(f.byDate[date])), nil
}

func (f *fakeArticles) ListByNewsletterDate(_ context.Context, date string) ([]models.Article, error) {
	return f.byDate[date], nil
}

type fakeInteractions struct {
	rows []models.Interaction
}

func (f *fakeInteractions) find(userID, articleID primitive.ObjectID, typ string) int {
	for i, r := range f.rows {
		if r.UserID == userID && r.ArticleID == articleID && r.Type == typ {
			return i
		}
	}
	return -1
}

func (f *fakeInteractions) Upsert(_ context.Context, userID, articleID primitive.ObjectID, typ string) (bool, error) {
	if f.find(userID, articleID, typ) >= 0 {
		return false, nil
	}
	f.rows = append(f.rows, models.Interaction{UserID: userID, ArticleID: articleID, Type: typ})
	return true, nil
}

func (f *fakeInteractions) Delete(_ context.Context, userID, articleID primitive.ObjectID, typ string) (bool, error) {
	i := f.find(userID, articleID, typ)
	if i < 0 {
		return false, nil
	}
	f.rows = append(f.rows[:i], f.rows[i+1:]...)
	return true, nil
}

func (f *fakeInteractions) ListByUserAndArticles(_ context.Context, userID primitive.ObjectID, articleIDs []primitive.ObjectID) ([]models.Interaction, error) {
	var out []models.Interaction
	for _, r := range f.rows {
		if r.UserID != userID {
			continue
		}
		for _, id := range articleIDs {
			if r.ArticleID == id {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

type fakeApplier struct {
	likes   [][]string
	unlikes [][]string
}

func (f *fakeApplier) OnLike(_ context.Context, _ primitive.ObjectID, keywords []string, _ string) error {
	f.likes = append(f.likes, keywords)
	return nil
}

func (f *fakeApplier) OnUnlike(_ context.Context, _ primitive.ObjectID, keywords []string) error {
	f.unlikes = append(f.unlikes, keywords)
	return nil
}

type fakeFeeds struct {
	byURL    map[string]*models.Feed
	byID     map[primitive.ObjectID]*models.Feed
	upserted []models.Feed
}

func newFakeFeeds(feeds ...*models.Feed) *fakeFeeds {
	f := &fakeFeeds{byURL: map[string]*models.Feed{}, byID: map[primitive.ObjectID]*models.Feed{}}
	for _, feed := range feeds {
		f.byURL[feed.URL] = feed
		f.byID[feed.ID] = feed
	}
	return f
}

func (f *fakeFeeds) List(_ context.Context) ([]models.Feed, error) {
	var out []models.Feed
	for _, feed := range f.byURL {
		out = append(out, *feed)
	}
	return out, nil
}

func (f *fakeFeeds) FindByURL(_ context.Context, url string) (*models.Feed, error) {
	feed, ok := f.byURL[url]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return feed, nil
}

func (f *fakeFeeds) UpsertByURL(_ context.Context, feed *models.Feed) (*mongo.UpdateResult, error) {
	f.upserted = append(f.upserted, *feed)
	f.byURL[feed.URL] = feed
	return &mongo.UpdateResult{UpsertedCount: 1, UpsertedID: primitive.NewObjectID()}, nil
}

func (f *fakeFeeds) SetActive(_ context.Context, id primitive.ObjectID, active bool) (int64, error) {
	feed, ok := f.byID[id]
	if !ok {
		return 0, nil
	}
	feed.IsActive = active
	return 1, nil
}

func (f *fakeFeeds) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	if _, ok := f.byID[id]; !ok {
		return 0, nil
	}
	delete(f.byID, id)
	return 1, nil
}

type fakeDigests struct {
	byDate   map[string]*models.Digest
	upserted []models.Digest
}

func (f *fakeDigests) FindByDate(_ context.Context, date string) (*models.Digest, error) {
	d, ok := f.byDate[date]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return d, nil
}

func (f *fakeDigests) List(_ context.Context, _, _ int64) ([]models.Digest, error) {
	return nil, nil
}

func (f *fakeDigests) UpsertByDate(_ context.Context, d *models.Digest) (*mongo.UpdateResult, error) {
	f.upserted = append(f.upserted, *d)
	return &mongo.UpdateResult{UpsertedCount: 1}, nil
}

type fakeDigestGen struct {
	digest models.Digest
	dates  []string
}

func (f *fakeDigestGen) Generate(_ context.Context, date string, _ []models.Article) models.Digest {
	f.dates = append(f.dates, date)
	d := f.digest
	d.DigestDate = date
	return d
}

type fakeRewinds struct {
	reports []models.RewindReport
}

func (f *fakeRewinds) ListByUser(_ context.Context, _ primitive.ObjectID) ([]models.RewindReport, error) {
	return f.reports, nil
}

func (f *fakeRewinds) FindLatestByUser(_ context.Context, _ primitive.ObjectID) (*models.RewindReport, error) {
	if len(f.reports) == 0 {
		return nil, mongo.ErrNoDocuments
	}
	return &f.reports[0], nil
}

func (f *fakeRewinds) FindByID(_ context.Context, id primitive.ObjectID) (*models.RewindReport, error) {
	for i := range f.reports {
		if f.reports[i].ID == id {
			return &f.reports[i], nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

type fakeDetailer struct {
	detailed summarizer.Detailed
	err      error
}

func (f *fakeDetailer) GenerateDetailed(_ context.Context, _, _ string, _ [][]byte) (summarizer.Detailed, error) {
	return f.detailed, f.err
}

func defaultUser() *models.User {
	return &models.User{ID: primitive.NewObjectID(), Email: models.DefaultUserEmail}
}

func serve(register func(r *gin.Engine), method, target string, body io.Reader) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	register(r)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestGetArticleNotFound(t *testing.T) {
	articles := newFakeArticles()
	w := serve(func(r *gin.Engine) {
		r.GET("/api/articles/:id", GetArticleHandler(articles, &fakeInteractions{}, &fakeUsers{user: defaultUser()}))
	}, http.MethodGet, "/api/articles/"+primitive.NewObjectID().Hex(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetArticleAttachesInteractionFlags(t *testing.T) {
	user := defaultUser()
	a := &models.Article{ID: primitive.NewObjectID(), Title: "Go 1.25"}
	store := &fakeInteractions{rows: []models.Interaction{
		{UserID: user.ID, ArticleID: a.ID, Type: models.InteractionLike},
	}}

	w := serve(func(r *gin.Engine) {
		r.GET("/api/articles/:id", GetArticleHandler(newFakeArticles(a), store, &fakeUsers{user: user}))
	}, http.MethodGet, "/api/articles/"+a.ID.Hex(), nil)

	require.Equal(t, http.StatusOK, w.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, true, out["is_liked"])
	assert.Equal(t, false, out["is_bookmarked"])
}

func TestLikeAppliesInterestsOnce(t *testing.T) {
	user := defaultUser()
	a := &models.Article{ID: primitive.NewObjectID(), Keywords: []string{"go", "kafka"}, SourceFeed: "Go Blog"}
	store := &fakeInteractions{}
	applier := &fakeApplier{}
	disp := &InteractionDispatcher{Interests: applier, Source: "api"}

	register := func(r *gin.Engine) {
		r.POST("/api/articles/:id/like", SetInteractionHandler(newFakeArticles(a), store, &fakeUsers{user: user}, disp, models.InteractionLike))
	}

	w := serve(register, http.MethodPost, "/api/articles/"+a.ID.Hex()+"/like", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, applier.likes, 1)
	assert.Equal(t, []string{"go", "kafka"}, applier.likes[0])

	// Repeating the like must not move weights again.
	w = serve(register, http.MethodPost, "/api/articles/"+a.ID.Hex()+"/like", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, applier.likes, 1)
}

func TestUnlikeWithoutPriorLikeIsNoop(t *testing.T) {
	user := defaultUser()
	a := &models.Article{ID: primitive.NewObjectID(), Keywords: []string{"go"}}
	applier := &fakeApplier{}
	disp := &InteractionDispatcher{Interests: applier, Source: "api"}

	w := serve(func(r *gin.Engine) {
		r.DELETE("/api/articles/:id/like", RemoveInteractionHandler(newFakeArticles(a), &fakeInteractions{}, &fakeUsers{user: user}, disp, models.InteractionLike))
	}, http.MethodDelete, "/api/articles/"+a.ID.Hex()+"/like", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, applier.unlikes)
}

func TestBookmarkDoesNotTouchInterests(t *testing.T) {
	user := defaultUser()
	a := &models.Article{ID: primitive.NewObjectID(), Keywords: []string{"go"}}
	applier := &fakeApplier{}
	disp := &InteractionDispatcher{Interests: applier, Source: "api"}

	w := serve(func(r *gin.Engine) {
		r.POST("/api/articles/:id/bookmark", SetInteractionHandler(newFakeArticles(a), &fakeInteractions{}, &fakeUsers{user: user}, disp, models.InteractionBookmark))
	}, http.MethodPost, "/api/articles/"+a.ID.Hex()+"/bookmark", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, applier.likes)
}

func TestDetailedSummaryStoresResult(t *testing.T) {
	a := &models.Article{ID: primitive.NewObjectID(), Title: "Go 1.25", RawContent: "body"}
	articles := newFakeArticles(a)
	detailer := &fakeDetailer{detailed: summarizer.Detailed{
		Background: "배경 설명",
		Takeaways:  []string{"하나"},
		Keywords:   []string{"go"},
	}}

	w := serve(func(r *gin.Engine) {
		r.POST("/api/articles/:id/detailed-summary", GenerateDetailedSummaryHandler(articles, detailer, "gemini-2.0-flash"))
	}, http.MethodPost, "/api/articles/"+a.ID.Hex()+"/detailed-summary", nil)

	require.Equal(t, http.StatusCreated, w.Code)
	stored, ok := articles.updated[a.ID]
	require.True(t, ok)
	assert.Equal(t, "배경 설명", stored.Background)
	assert.Equal(t, "gemini-2.0-flash", stored.ModelName)
	assert.False(t, stored.GeneratedAt.IsZero())
}

func TestDetailedSummaryFailureIsBadGateway(t *testing.T) {
	a := &models.Article{ID: primitive.NewObjectID(), Title: "t"}
	articles := newFakeArticles(a)

	w := serve(func(r *gin.Engine) {
		r.POST("/api/articles/:id/detailed-summary", GenerateDetailedSummaryHandler(articles, &fakeDetailer{err: errors.New("quota")}, "m"))
	}, http.MethodPost, "/api/articles/"+a.ID.Hex()+"/detailed-summary", nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Empty(t, articles.updated)
}

func TestNewsletterByDateMissingIs404(t *testing.T) {
	w := serve(func(r *gin.Engine) {
		r.GET("/api/newsletters/:date", NewsletterByDateHandler(newFakeArticles(), &fakeInteractions{}, &fakeUsers{user: defaultUser()}))
	}, http.MethodGet, "/api/newsletters/2026-08-30", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewsletterByDateAttachesFlags(t *testing.T) {
	user := defaultUser()
	a := &models.Article{ID: primitive.NewObjectID(), Title: "one", NewsletterDate: "2026-08-30"}
	b := &models.Article{ID: primitive.NewObjectID(), Title: "two", NewsletterDate: "2026-08-30"}
	store := &fakeInteractions{rows: []models.Interaction{
		{UserID: user.ID, ArticleID: b.ID, Type: models.InteractionBookmark},
	}}

	w := serve(func(r *gin.Engine) {
		r.GET("/api/newsletters/:date", NewsletterByDateHandler(newFakeArticles(a, b), store, &fakeUsers{user: user}))
	}, http.MethodGet, "/api/newsletters/2026-08-30", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Date         string `json:"date"`
		ArticleCount int    `json:"article_count"`
		Articles     []struct {
			Title        string `json:"title"`
			IsBookmarked bool   `json:"is_bookmarked"`
		} `json:"articles"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "2026-08-30", out.Date)
	require.Equal(t, 2, out.ArticleCount)
	assert.False(t, out.Articles[0].IsBookmarked)
	assert.True(t, out.Articles[1].IsBookmarked)
}

func TestMissingDefaultUserIs500(t *testing.T) {
	a := &models.Article{ID: primitive.NewObjectID(), NewsletterDate: "2026-08-30"}
	w := serve(func(r *gin.Engine) {
		r.GET("/api/newsletters/:date", NewsletterByDateHandler(newFakeArticles(a), &fakeInteractions{}, &fakeUsers{}))
	}, http.MethodGet, "/api/newsletters/2026-08-30", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGenerateDigestWithoutArticlesIs404(t *testing.T) {
	gen := &fakeDigestGen{}
	w := serve(func(r *gin.Engine) {
		r.POST("/api/digests/generate/:date", GenerateDigestHandler(newFakeArticles(), &fakeDigests{}, gen))
	}, http.MethodPost, "/api/digests/generate/2026-08-30", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, gen.dates)
}

func TestGenerateDigestEmptyContentIsBadGateway(t *testing.T) {
	a := &models.Article{ID: primitive.NewObjectID(), NewsletterDate: "2026-08-30"}
	store := &fakeDigests{}

	w := serve(func(r *gin.Engine) {
		r.POST("/api/digests/generate/:date", GenerateDigestHandler(newFakeArticles(a), store, &fakeDigestGen{}))
	}, http.MethodPost, "/api/digests/generate/2026-08-30", nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Empty(t, store.upserted)
}

func TestGenerateDigestPersistsAndReturns201(t *testing.T) {
	a := &models.Article{ID: primitive.NewObjectID(), NewsletterDate: "2026-08-30"}
	store := &fakeDigests{}
	gen := &fakeDigestGen{digest: models.Digest{Headline: "오늘의 테크 뉴스"}}

	w := serve(func(r *gin.Engine) {
		r.POST("/api/digests/generate/:date", GenerateDigestHandler(newFakeArticles(a), store, gen))
	}, http.MethodPost, "/api/digests/generate/2026-08-30", nil)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, store.upserted, 1)
	assert.Equal(t, "오늘의 테크 뉴스", store.upserted[0].Headline)
	assert.Equal(t, []string{"2026-08-30"}, gen.dates)
}

func TestLatestRewindMissingIs404(t *testing.T) {
	w := serve(func(r *gin.Engine) {
		r.GET("/api/rewind/latest", LatestRewindHandler(&fakeRewinds{}, &fakeUsers{user: defaultUser()}))
	}, http.MethodGet, "/api/rewind/latest", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListInterestsWithoutUserIsEmptyList(t *testing.T) {
	w := serve(func(r *gin.Engine) {
		r.GET("/api/interests", ListInterestsHandler(nil, &fakeUsers{}))
	}, http.MethodGet, "/api/interests", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestCreateFeedValidation(t *testing.T) {
	existing := &models.Feed{ID: primitive.NewObjectID(), URL: "https://blog.example.com/rss"}
	feeds := newFakeFeeds(existing)
	validate := func(url string) error {
		if strings.Contains(url, "dead") {
			return errors.New("connection refused")
		}
		return nil
	}
	register := func(r *gin.Engine) {
		r.POST("/api/feeds", CreateFeedHandler(feeds, validate))
	}

	w := serve(register, http.MethodPost, "/api/feeds", strings.NewReader(`{"url":"not a url"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(register, http.MethodPost, "/api/feeds", strings.NewReader(`{"url":"https://dead.example.com/rss"}`))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = serve(register, http.MethodPost, "/api/feeds", strings.NewReader(`{"url":"https://blog.example.com/rss"}`))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(register, http.MethodPost, "/api/feeds", strings.NewReader(`{"url":"https://new.example.com/rss"}`))
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, feeds.upserted, 1)
	assert.Equal(t, "new.example.com", feeds.upserted[0].Name)
	assert.True(t, feeds.upserted[0].IsActive)
}

func TestSetFeedActiveNotFound(t *testing.T) {
	w := serve(func(r *gin.Engine) {
		r.PATCH("/api/feeds/:id", SetFeedActiveHandler(newFakeFeeds()))
	}, http.MethodPatch, "/api/feeds/"+primitive.NewObjectID().Hex(), strings.NewReader(`{"is_active":false}`))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteFeed(t *testing.T) {
	feed := &models.Feed{ID: primitive.NewObjectID(), URL: "https://blog.example.com/rss"}
	feeds := newFakeFeeds(feed)
	register := func(r *gin.Engine) {
		r.DELETE("/api/feeds/:id", DeleteFeedHandler(feeds))
	}

	w := serve(register, http.MethodDelete, "/api/feeds/"+feed.ID.Hex(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(register, http.MethodDelete, "/api/feeds/"+feed.ID.Hex(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
