package lib

import (
	"context"
	"log"
	"sitbook/src/config"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

func GetKafkaConsumerConfig(groupId string) kafka.ConfigMap {
	return kafka.ConfigMap{
		"bootstrap.servers":  config.KafkaBroker(),
		"group.id":           groupId,
		"auto.offset.reset":  "latest",
		"retry.backoff.ms":   100,
		"enable.auto.commit": true,
	}
}

// KafkaConsume polls topics until ctx is done, passing every message to handler. It returns
// once the consumer is subscribed; polling continues in the background.
func KafkaConsume(ctx context.Context, groupId string, topics []string, handler func(*kafka.Message)) error {
	log.Println("Initializing kafka Consumer...")
	conf := GetKafkaConsumerConfig(groupId)
	consumer, err := kafka.NewConsumer(&conf)
	if err != nil {
		log.Printf("[kafka] Error creating consumer: %s\n", err.Error())
		return err
	}
	if err := consumer.SubscribeTopics(topics, nil); err != nil {
		log.Printf("[kafka] Error subscribing to %v: %s\n", topics, err.Error())
		consumer.Close()
		return err
	}
	go func() {
		defer consumer.Close()
		log.Printf("[kafka] %v: waiting for messages...\n", topics)
		for {
			select {
			case <-ctx.Done():
				log.Println("[kafka] consumer stopped")
				return
			default:
			}
			switch e := consumer.Poll(100).(type) {
			case *kafka.Message:
				handler(e)
			case kafka.Error:
				log.Printf("[kafka] Error: %v\n", e)
				if e.IsFatal() {
					return
				}
				time.Sleep(time.Second)
			}
		}
	}()
	return nil
}

func KafkaCreateTopics(ctx context.Context, topics ...string) ([]kafka.TopicResult, error) {
	a, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": config.KafkaBroker(),
	})
	if err != nil {
		log.Printf("Error on AdminClient: %s\n", err.Error())
		return nil, err
	}
	defer a.Close()
	topicsDef := []kafka.TopicSpecification{}
	for _, topic := range topics {
		topicsDef = append(topicsDef, kafka.TopicSpecification{
			Topic:         topic,
			NumPartitions: 10,
		})
	}
	result, err := a.CreateTopics(ctx, topicsDef)
	if err != nil {
		log.Printf("Error creating topics: %s\n", err.Error())
		return nil, err
	}
	return result, nil
}
