package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"curately/config"
	"curately/db"
	"curately/eventbus"
	"curately/events"
	"curately/interests"
	"curately/logger"
	"curately/models"
	"curately/repositories"
)

// The worker drains the interaction topic and folds each event into the
// interest profile. Consuming on a single group serializes updates per
// partition, so concurrent likes on one article never race on weights.
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
	engine := interests.NewEngine(repositories.NewInterestRepository(db.Database()), cfg.Interests, nil)

	brokers := eventbus.GetBrokers()
	for _, t := range eventbus.AllTopics {
		if err := eventbus.EnsureTopics(brokers, t, 3); err != nil {
			logger.Log.Errorf("failed to ensure eventbus topics for %s: %v", t.Base(), err)
		}
	}

	bus, err := eventbus.NewKafkaEventBus(brokers)
	if err != nil {
		logger.Log.Errorf("failed to create event bus: %v", err)
		os.Exit(1)
	}
	defer bus.Close()

	groupID := eventbus.GetGroupID() + "-interaction-worker"

	logger.Log.Info("starting interaction worker...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		err := eventbus.SubscribeJSON(ctx, bus, groupID, eventbus.TopicInteractionEvents,
			func(ctx context.Context, evt events.InteractionEvent, meta eventbus.Event) error {
				if evt.Interaction != models.InteractionLike {
					return nil
				}
				switch evt.Type {
				case events.InteractionRecorded:
					return engine.OnLike(ctx, evt.UserID, evt.Keywords, evt.SourceFeed)
				case events.InteractionRemoved:
					return engine.OnUnlike(ctx, evt.UserID, evt.Keywords)
				default:
					logger.Log.Warnf("ignoring unknown event type %q (event %s)", evt.Type, meta.ID)
					return nil
				}
			})
		if err != nil && err != context.Canceled {
			logger.Log.Errorf("interaction subscriber error: %v", err)
		}
	}()

	go func() {
		err := bus.StartRetryReinjector(ctx, groupID+"-retry", eventbus.TopicInteractionEvents)
		if err != nil && err != context.Canceled {
			logger.Log.Errorf("retry reinjector error: %v", err)
		}
	}()

	<-sigChan
	logger.Log.Info("received shutdown signal, shutting down interaction worker...")

	cancel()

	logger.Log.Info("interaction worker stopped")
}
