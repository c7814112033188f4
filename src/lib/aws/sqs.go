package aws

import (
	"context"
	"log"
	"sitbook/src/lib"
	"sitbook/src/types"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type SQSConsumer struct {
	Name    string
	handler types.Handler
}

func NewSQSConsumer(queue string, handler types.Handler) *SQSConsumer {
	return &SQSConsumer{
		Name:    queue,
		handler: handler,
	}
}

// Listen long-polls the queue until ctx is done. Each message is handed to the handler and
// deleted; a wake that is lost is covered by the next sweep.
func (s *SQSConsumer) Listen(ctx context.Context) {
	go func() {
		qname := s.Name
		client := lib.AWSGetSQSClient()
		if client == nil {
			return
		}
		qurl, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
			QueueName: aws.String(qname),
		})
		if err != nil {
			log.Printf("Failed to retrieve queue URL for %s: %s\n", qname, err.Error())
			return
		}
		log.Printf("%s: Listening for messages...", qname)
		messagesChan := make(chan sqstypes.Message, 10)
		go func(chn chan<- sqstypes.Message) {
			defer close(chn)
			for ctx.Err() == nil {
				output, err := client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
					QueueUrl:            qurl.QueueUrl,
					WaitTimeSeconds:     20,
					MaxNumberOfMessages: 10,
				})
				if err != nil {
					if ctx.Err() == nil {
						log.Printf("[SQS] Error receiving messages: %s\n", err.Error())
					}
					return
				}
				for _, m := range output.Messages {
					chn <- m
				}
			}
		}(messagesChan)

		for m := range messagesChan {
			body := strings.Clone(aws.ToString(m.Body))
			s.handler(body)
			lib.SQSDeleteMessage(client, qurl.QueueUrl, &m)
		}
		log.Printf("%s: consumer stopped\n", qname)
	}()
}
