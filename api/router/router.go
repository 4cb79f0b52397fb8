package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"curately/api/handlers"
	"curately/api/middleware"
	"curately/db"
	"curately/digest"
	"curately/models"
	"curately/pipeline"
	"curately/repositories"
	"curately/rewind"
	"curately/summarizer"
)

// Deps bundles everything the routes need. Built once in main and
// passed down so handlers stay free of global state.
type Deps struct {
	Users        *repositories.UserRepository
	Articles     *repositories.ArticleRepository
	Interactions *repositories.InteractionRepository
	Interests    *repositories.InterestRepository
	Feeds        *repositories.FeedRepository
	Digests      *repositories.DigestRepository
	Rewinds      *repositories.RewindRepository

	Summarizer *summarizer.Summarizer
	ModelName  string
	DigestGen  *digest.Generator
	RewindSvc  *rewind.Service
	Pipeline   *pipeline.Orchestrator

	Dispatcher   *handlers.InteractionDispatcher
	ValidateFeed handlers.FeedValidator
}

func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogging())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		if err := db.Database().RunCommand(context.Background(), bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "mongo": "down", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		newsletters := api.Group("/newsletters")
		{
			newsletters.GET("", handlers.ListNewslettersHandler(d.Articles))
			newsletters.GET("/today", handlers.TodayNewsletterHandler(d.Articles, d.Interactions, d.Users))
			newsletters.GET("/:date", handlers.NewsletterByDateHandler(d.Articles, d.Interactions, d.Users))
		}

		articles := api.Group("/articles")
		{
			articles.GET("/:id", handlers.GetArticleHandler(d.Articles, d.Interactions, d.Users))
			articles.POST("/:id/like", handlers.SetInteractionHandler(d.Articles, d.Interactions, d.Users, d.Dispatcher, models.InteractionLike))
			articles.DELETE("/:id/like", handlers.RemoveInteractionHandler(d.Articles, d.Interactions, d.Users, d.Dispatcher, models.InteractionLike))
			articles.POST("/:id/bookmark", handlers.SetInteractionHandler(d.Articles, d.Interactions, d.Users, d.Dispatcher, models.InteractionBookmark))
			articles.DELETE("/:id/bookmark", handlers.RemoveInteractionHandler(d.Articles, d.Interactions, d.Users, d.Dispatcher, models.InteractionBookmark))
			articles.POST("/:id/detailed-summary", handlers.GenerateDetailedSummaryHandler(d.Articles, d.Summarizer, d.ModelName))
		}

		digests := api.Group("/digests")
		{
			digests.GET("", handlers.ListDigestsHandler(d.Digests))
			digests.GET("/today", handlers.TodayDigestHandler(d.Digests))
			digests.GET("/:date", handlers.DigestByDateHandler(d.Digests))
			digests.POST("/generate", handlers.GenerateDigestHandler(d.Articles, d.Digests, d.DigestGen))
			digests.POST("/generate/:date", handlers.GenerateDigestHandler(d.Articles, d.Digests, d.DigestGen))
		}

		rewinds := api.Group("/rewind")
		{
			rewinds.GET("", handlers.ListRewindsHandler(d.Rewinds, d.Users))
			rewinds.GET("/latest", handlers.LatestRewindHandler(d.Rewinds, d.Users))
			rewinds.GET("/:id", handlers.GetRewindHandler(d.Rewinds))
			rewinds.POST("/generate", handlers.GenerateRewindHandler(d.RewindSvc, d.Users))
		}

		api.GET("/interests", handlers.ListInterestsHandler(d.Interests, d.Users))
		api.POST("/pipeline/run", handlers.RunPipelineHandler(d.Pipeline))

		feeds := api.Group("/feeds")
		{
			feeds.GET("", handlers.ListFeedsHandler(d.Feeds))
			feeds.POST("", handlers.CreateFeedHandler(d.Feeds, d.ValidateFeed))
			feeds.PATCH("/:id", handlers.SetFeedActiveHandler(d.Feeds))
			feeds.DELETE("/:id", handlers.DeleteFeedHandler(d.Feeds))
		}
	}

	return r
}
