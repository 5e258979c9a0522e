// Package publisher uploads the HTML report to S3, signs a download URL for it
// and announces the URL on SNS.
package publisher

import (
	"context"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// DefaultTTL is how long a presigned report URL stays valid when none is configured.
const DefaultTTL = 168 * time.Hour

// S3ClientAPI is the interface for the S3 client methods used by the publisher.
type S3ClientAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// PresignClientAPI is the interface for the S3 presign client methods used by the publisher.
type PresignClientAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// SNSClientAPI is the interface for the SNS client methods used by the publisher.
type SNSClientAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Options configures where and how a report is published.
type Options struct {
	Bucket string
	// Detailed adds the account and a timestamp to the object name.
	Detailed bool
	TTL      time.Duration
	// TopicARN is optional; the notification is skipped when empty.
	TopicARN string
	Clock    func() time.Time
}

type service struct {
	s3Client S3ClientAPI
	presign  PresignClientAPI
	// snsClient returns a client for the region the topic lives in.
	snsClient func(region string) SNSClientAPI
	opts      Options
}

// Service is the interface for report publishing.
type Service interface {
	// Publish uploads html and returns the presigned URL of the object.
	Publish(ctx context.Context, html, account string) (string, error)
}
