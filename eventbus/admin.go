package eventbus

import (
	"context"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// EnsureTopics creates the base topic, every retry topic, and the DLQ.
// Topics that already exist count as success.
func EnsureTopics(brokers string, topic Topic, basePartitions int) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	specs := make([]kafka.TopicSpecification, 0, 2+len(RetryDelays))

	specs = append(specs, kafka.TopicSpecification{
		Topic:             topic.Base(),
		NumPartitions:     basePartitions,
		ReplicationFactor: 1,
	})

	specs = append(specs, kafka.TopicSpecification{
		Topic:             topic.DLQ(),
		NumPartitions:     1,
		ReplicationFactor: 1,
	})

	for _, retryTopic := range topic.GetRetryTopics() {
		specs = append(specs, kafka.TopicSpecification{
			Topic:             retryTopic,
			NumPartitions:     basePartitions,
			ReplicationFactor: 1,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	results, err := admin.CreateTopics(ctx, specs)
	if err != nil {
		return fmt.Errorf("failed to request topic creation: %w", err)
	}

	for _, r := range results {
		code := r.Error.Code()
		if code != kafka.ErrNoError && code != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("failed to create topic %s: %v", r.Topic, r.Error)
		}
	}

	return nil
}
