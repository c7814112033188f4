package aws

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path"
	"sitbook/src/lib"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the part of the S3 client used here.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3DownloadFile writes bucket/key to dir/key unless the file already exists. A missing key
// is not an error.
func S3DownloadFile(ctx context.Context, client S3API, bucket, key, dir string) error {
	target := path.Join(dir, key)
	if _, err := os.Stat(target); err == nil {
		log.Printf("[S3] %s exists\n", target)
		return nil
	}
	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			log.Printf("[S3] %s/%s does not exist\n", bucket, key)
			return nil
		}
		return err
	}
	defer result.Body.Close()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := io.Copy(file, result.Body); err != nil {
		return err
	}
	log.Printf("[S3] downloaded %s/%s to %s\n", bucket, key, target)
	return nil
}

// DownloadSDKCredentials fetches the firebase admin credentials into the secrets directory.
func DownloadSDKCredentials(ctx context.Context, bucket, dir string) error {
	if bucket == "" {
		return nil
	}
	client := lib.AWSGetS3Client()
	if client == nil {
		return errors.New("s3 client unavailable")
	}
	return S3DownloadFile(ctx, client, bucket, lib.SDKCredentialsFile, dir)
}
