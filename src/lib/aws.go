package lib

import (
	"context"
	"fmt"
	"log"
	"sitbook/src/config"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsched "github.com/aws/aws-sdk-go-v2/service/scheduler"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

var (
	awsOnce sync.Once
	awsCfg  *aws.Config
	awsErr  error
)

// awsGetSdkConfig loads the default config once. When AWS_IAM_ROLE_ARN is set the returned
// config carries the assumed role's credentials.
func awsGetSdkConfig() (*aws.Config, error) {
	awsOnce.Do(func() {
		cfg, err := awsconfig.LoadDefaultConfig(context.TODO(), awsconfig.WithRegion(config.AWSRegion()))
		if err != nil {
			log.Printf("Error loading default config: %s\n", err.Error())
			awsErr = err
			return
		}
		iamRole := config.AWSIAMRoleArn()
		if iamRole == "" {
			awsCfg = &cfg
			return
		}
		stsClient := sts.NewFromConfig(cfg)
		output, err := stsClient.AssumeRole(context.TODO(), &sts.AssumeRoleInput{
			RoleArn:         aws.String(iamRole),
			RoleSessionName: aws.String("sitbook-reconciler"),
		})
		if err != nil {
			log.Printf("Error configuring STS client: %s\n", err.Error())
			awsErr = err
			return
		}
		creds := output.Credentials
		cfg, err = awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(config.AWSRegion()),
			awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(*creds.AccessKeyId, *creds.SecretAccessKey, *creds.SessionToken),
			))
		if err != nil {
			log.Printf("Error configuration: %s\n", err.Error())
			awsErr = err
			return
		}
		awsCfg = &cfg
	})
	return awsCfg, awsErr
}

func AWSGetSchedulerClient() *awsched.Client {
	cfg, err := awsGetSdkConfig()
	if err != nil {
		log.Printf("Failed to initialize Scheduler client: %s\n", err.Error())
		return nil
	}
	return awsched.NewFromConfig(*cfg)
}

func AWSGetS3Client() *s3.Client {
	cfg, err := awsGetSdkConfig()
	if err != nil {
		log.Printf("Failed to iniialize S3: %s\n", err.Error())
		return nil
	}
	return s3.NewFromConfig(*cfg)
}

func AWSGetSQSClient() *sqs.Client {
	cfg, err := awsGetSdkConfig()
	if err != nil {
		log.Printf("Failed to initialize SQS client: %s\n", err.Error())
		return nil
	}
	return sqs.NewFromConfig(*cfg)
}

func AWSGetSNSClient() *sns.Client {
	cfg, err := awsGetSdkConfig()
	if err != nil {
		log.Printf("Failed to initialize SNS client: %s\n", err.Error())
		return nil
	}
	return sns.NewFromConfig(*cfg)
}

func GetTopicArn(topic string) string {
	return fmt.Sprintf("arn:aws:sns:%s:%s:%s", config.AWSRegion(), config.AWSAccountID(), topic)
}

func GetQueueArn(queue string) string {
	return fmt.Sprintf("arn:aws:sqs:%s:%s:%s", config.AWSRegion(), config.AWSAccountID(), queue)
}

func SQSDeleteMessage(c *sqs.Client, qurl *string, msg *sqsTypes.Message) {
	_, err := c.DeleteMessage(context.TODO(), &sqs.DeleteMessageInput{
		QueueUrl:      qurl,
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		log.Printf("Error deleting message from queue: %s\n", err.Error())
		return
	}
	log.Printf("Deleted message from queue: %s\n", aws.ToString(msg.MessageId))
}
