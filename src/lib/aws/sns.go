package aws

import (
	"context"
	"log"
	"sitbook/src/lib"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type SNSSubscriber struct {
	Name  string
	inner *sns.Client
}

func NewSNSSubscriber(topic string) *SNSSubscriber {
	inner := lib.AWSGetSNSClient()
	if inner == nil {
		return nil
	}
	return &SNSSubscriber{
		Name:  topic,
		inner: inner,
	}
}

// Subscribe subscribes endpoint to the topic. SNS returns the existing subscription when it
// is already in place.
func (s *SNSSubscriber) Subscribe(ctx context.Context, proto string, endpoint string) (*string, error) {
	topicArn := lib.GetTopicArn(s.Name)
	output, err := s.inner.Subscribe(ctx, &sns.SubscribeInput{
		Protocol: aws.String(proto),
		TopicArn: aws.String(topicArn),
		Endpoint: aws.String(endpoint),
	})
	if err != nil {
		log.Printf("Error subscribing to topic [%s]: %s\n", s.Name, err.Error())
		return nil, err
	}
	log.Printf("[%s] subscribed %s: %s\n", s.Name, endpoint, aws.ToString(output.SubscriptionArn))
	return output.SubscriptionArn, nil
}
