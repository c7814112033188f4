// Package common wires the external triggers to the reconciliation runner.
package common

import (
	"context"
	"log"
	"sitbook/src/clock"
	"sitbook/src/config"
	"sitbook/src/lib"
	awslib "sitbook/src/lib/aws"
	"sitbook/src/types"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

// Kicker starts a reconciliation run in the background.
type Kicker interface {
	Kick(source string)
}

// SQSConsumers listens on the wake queue when one is configured.
func SQSConsumers(ctx context.Context, k Kicker) {
	queue := config.WakeQueue()
	if queue == "" {
		return
	}
	wake := awslib.NewSQSConsumer(queue, WakeHandler(k))
	wake.Listen(ctx)
}

// SNSSubscribes subscribes the wake queue to the wake topic.
func SNSSubscribes(ctx context.Context) {
	topic, queue := config.WakeTopic(), config.WakeQueue()
	if topic == "" || queue == "" {
		return
	}
	sub := awslib.NewSNSSubscriber(topic)
	if sub == nil {
		return
	}
	sub.Subscribe(ctx, "sqs", lib.GetQueueArn(queue))
}

// KafkaConsumers starts the booking change-feed consumer when a broker is configured.
func KafkaConsumers(ctx context.Context, k Kicker, wakes lib.WakeScheduler, clk clock.Clock) {
	if config.KafkaBroker() == "" {
		return
	}
	topic := config.KafkaBookingTopic()
	bootstrapTopics(ctx, config.APIEnv(), topic)
	h := ChangeHandler(k, wakes, clk)
	err := lib.KafkaConsume(ctx, config.KafkaGroupID(), []string{topic}, func(m *kafka.Message) {
		h(ctx, m.Value)
	})
	if err != nil {
		log.Printf("[kafka] change feed on %s disabled: %s\n", topic, err.Error())
	}
}

var createTopics = lib.KafkaCreateTopics

// bootstrapTopics creates the change-feed topics on a local broker. Elsewhere the topics are
// provisioned with the cluster.
func bootstrapTopics(ctx context.Context, env types.Environment, topics ...string) {
	if env != types.Local {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	results, err := createTopics(ctx, topics...)
	if err != nil {
		log.Printf("[kafka] could not create topics %v: %s\n", topics, err.Error())
		return
	}
	for _, r := range results {
		if r.Error.Code() != kafka.ErrNoError && r.Error.Code() != kafka.ErrTopicAlreadyExists {
			log.Printf("[kafka] topic %s: %s\n", r.Topic, r.Error.String())
		}
	}
}
