package main

import (
	"context"
	"net/http"
	"os"

	"github.com/rs/cors"

	"curately/api/handlers"
	"curately/api/router"
	"curately/collector"
	"curately/config"
	"curately/db"
	"curately/digest"
	"curately/eventbus"
	"curately/feeder"
	"curately/interests"
	"curately/llm"
	"curately/logger"
	"curately/models"
	"curately/pipeline"
	"curately/repositories"
	"curately/rewind"
	"curately/scheduler"
	"curately/scorer"
	"curately/summarizer"
)

func main() {
	config.InitApp()
	logger.InitFromEnv("LOG_LEVEL")
	cfg := config.GetConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.Init(ctx); err != nil {
		logger.Log.Errorf("failed to connect to mongodb: %v", err)
		os.Exit(1)
	}
	database := db.Database()

	users := repositories.NewUserRepository(database)
	articles := repositories.NewArticleRepository(database)
	interactions := repositories.NewInteractionRepository(database)
	interestsRepo := repositories.NewInterestRepository(database)
	feeds := repositories.NewFeedRepository(database)
	digests := repositories.NewDigestRepository(database)
	rewinds := repositories.NewRewindRepository(database)
	aiLogs := repositories.NewAILogRepository(database)

	if _, err := users.EnsureDefaultUser(ctx); err != nil {
		logger.Log.Errorf("failed to ensure default user: %v", err)
		os.Exit(1)
	}
	for _, src := range cfg.Feeds {
		f := models.Feed{Name: src.Name, URL: src.URL, IsActive: true}
		if _, err := feeds.UpsertByURL(ctx, &f); err != nil {
			logger.Log.Warnf("failed to seed feed '%s': %v", src.Name, err)
		}
	}

	client, err := llm.NewGeminiClient(ctx, cfg.Gemini.Model)
	if err != nil {
		logger.Log.Errorf("failed to create gemini client: %v", err)
		os.Exit(1)
	}
	client.SetUsageSink(func(ctx context.Context, entry models.AILog) {
		if _, err := aiLogs.Insert(ctx, entry); err != nil {
			logger.Log.Warnf("failed to record ai usage: %v", err)
		}
	})
	retrier := llm.Retrier{}

	engine := interests.NewEngine(interestsRepo, cfg.Interests, nil)
	summ := summarizer.New(client, retrier)
	articleScorer := scorer.New(client, retrier, cfg.Pipeline.ScoringBatchSize)
	col := collector.New(feeds, articles, collector.WithExtractor(collector.NewReadabilityExtractor()))
	orchestrator := pipeline.NewOrchestrator(col, users, interestsRepo, engine, articleScorer, summ, articles, cfg.Pipeline, nil)
	digestGen := digest.New(client, retrier)
	rewindSvc := rewind.NewService(client, retrier, interactions, articles, rewinds, nil)

	// With kafka configured, interaction events go through the bus and
	// the worker applies them; otherwise the engine runs in-process.
	dispatcher := &handlers.InteractionDispatcher{Interests: engine, Source: "api"}
	if brokers := os.Getenv("KAFKA_BOOTSTRAP_SERVERS"); brokers != "" {
		for _, t := range eventbus.AllTopics {
			if err := eventbus.EnsureTopics(brokers, t, 3); err != nil {
				logger.Log.Errorf("failed to ensure eventbus topics for %s: %v", t.Base(), err)
			}
		}
		bus, err := eventbus.NewKafkaEventBus(brokers)
		if err != nil {
			logger.Log.Errorf("failed to create event bus, applying interactions in-process: %v", err)
		} else {
			defer bus.Close()
			dispatcher.Bus = bus
		}
	}

	if cfg.Schedule.Enabled {
		scheduler.New(orchestrator, rewindSvc, users, cfg.Schedule, nil).Start(ctx)
	}

	r := router.New(router.Deps{
		Users:        users,
		Articles:     articles,
		Interactions: interactions,
		Interests:    interestsRepo,
		Feeds:        feeds,
		Digests:      digests,
		Rewinds:      rewinds,
		Summarizer:   summ,
		ModelName:    client.Model(),
		DigestGen:    digestGen,
		RewindSvc:    rewindSvc,
		Pipeline:     orchestrator,
		Dispatcher:   dispatcher,
		ValidateFeed: func(url string) error {
			_, err := feeder.FetchRssFeeds(url, 1)
			return err
		},
	})

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"*"},
	}).Handler(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logger.Log.Infof("api listening on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil && err != http.ErrServerClosed {
		logger.Log.Errorf("api server stopped: %v", err)
		os.Exit(1)
	}
}
